package shutdown

import "fmt"

// ErrPermissionDenied occurs when an unprivileged caller asks for a change.
type ErrPermissionDenied struct {
	Operation string
}

func (e ErrPermissionDenied) Error() string {
	return fmt.Sprintf("Permission denied to %s a database.", e.Operation)
}

// ErrProtectedDatabase occurs when a request names a system database.
type ErrProtectedDatabase struct {
	Name string
}

func (e ErrProtectedDatabase) Error() string {
	return fmt.Sprintf("Database %q is a protected system database.", e.Name)
}
