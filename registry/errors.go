package registry

import "fmt"

// ErrNotAttached occurs when the registry segment is not mapped in this process.
type ErrNotAttached struct{}

func (e ErrNotAttached) Error() string {
	return "Shutdown registry is not attached."
}

// ErrRegistryFull occurs when every record slot is in use.
type ErrRegistryFull struct {
	Capacity int
}

func (e ErrRegistryFull) Error() string {
	return fmt.Sprintf("Shutdown registry is full (capacity %d).", e.Capacity)
}

// ErrRecordExists occurs when inserting a database that already has a record.
type ErrRecordExists struct {
	ID DatabaseID
}

func (e ErrRecordExists) Error() string {
	return fmt.Sprintf("Database %d is already shut down.", e.ID)
}

// ErrRecordNotFound occurs when a database has no record.
type ErrRecordNotFound struct {
	ID DatabaseID
}

func (e ErrRecordNotFound) Error() string {
	return fmt.Sprintf("Database %d is not shut down.", e.ID)
}

// ErrInvalidCapacity occurs when the configured capacity is out of bounds.
type ErrInvalidCapacity struct {
	Capacity int
}

func (e ErrInvalidCapacity) Error() string {
	return fmt.Sprintf("Registry capacity %d out of range [%d, %d].", e.Capacity, MinCapacity, MaxCapacity)
}

// ErrInvalidMode occurs when a mode name is not recognized.
type ErrInvalidMode struct {
	Mode string
}

func (e ErrInvalidMode) Error() string {
	return fmt.Sprintf("Invalid shutdown mode %q.", e.Mode)
}

// ErrIncompatibleSegment occurs when attaching to a segment with an unexpected layout.
type ErrIncompatibleSegment struct {
	Path   string
	Reason string
}

func (e ErrIncompatibleSegment) Error() string {
	return fmt.Sprintf("Registry segment %s is incompatible: %s.", e.Path, e.Reason)
}
