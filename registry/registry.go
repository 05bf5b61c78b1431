// Package registry implements the shared shutdown-state registry.
//
// The registry is a fixed-capacity table of records, one per database under shutdown
// management, kept in a memory-mapped file so that the coordinator and its watcher processes
// see the same state. Structural changes (insert, remove) take a cross-process reader/writer
// lock exclusively; lookups take it shared. Field updates on a located record take a spinlock
// embedded in the record. The structural lock is always taken first and never held across
// calls out of this package.
package registry

import (
	"math/bits"
	"os"
	"sync"

	"github.com/cespare/xxhash/v2"
	"go.uber.org/zap"

	"github.com/serverless/shutdownd/internal/shm"
)

// DatabaseID identifies a database. It is the database OID.
type DatabaseID uint32

// PID identifies a watcher process.
type PID int32

// NoProcess is the PID of records without a watcher.
const NoProcess PID = 0

const (
	// MinCapacity is the smallest allowed registry capacity.
	MinCapacity = 1024
	// MaxCapacity is the largest allowed registry capacity.
	MaxCapacity = 1048576
	// DefaultCapacity is used when no capacity is configured.
	DefaultCapacity = 10240
)

// Config configures the registry segment.
type Config struct {
	Path     string `yaml:"path" validate:"required"`
	Capacity int    `yaml:"capacity" validate:"min=1024,max=1048576"`
}

// Record is a copy of one registry entry.
type Record struct {
	DatabaseID DatabaseID `json:"databaseId"`
	Mode       Mode       `json:"mode"`
	Running    bool       `json:"isRunning"`
	WatcherPID PID        `json:"watcherPid"`
}

// segment layout, all fields are 32-bit words
const (
	magic   = 0x53444442 // "SDDB"
	version = 1

	offMagic      = 0
	offVersion    = 4
	offCapacity   = 8
	offSlots      = 12
	offAggLock    = 16
	offRecords    = 20
	offWatchers   = 24
	offTombstones = 28
	offRetired    = 32
	offGeneration = 36
	headerSize    = 64

	slotState   = 0
	slotLock    = 4
	slotID      = 8
	slotMode    = 12
	slotRunning = 16
	slotPID     = 20
	slotSize    = 24

	stateEmpty   = 0
	stateUsed    = 1
	stateDeleted = 2
)

// Registry is a handle on a mapped registry segment. A nil or closed Registry reports
// ErrNotAttached from every method.
type Registry struct {
	// attach guards seg against Close; it is process-local.
	attach sync.RWMutex
	seg    *shm.Segment

	lock     *shm.RWLock
	agg      shm.SpinLock
	capacity int
	slots    uint32
	log      *zap.Logger

	// inherited lists the records of the segment this one replaced that named a watcher.
	inherited []Record
}

// Create creates and formats a registry segment at cfg.Path, discarding previous contents.
// It is called once by the coordinator at server start.
//
// A segment left by a previous coordinator is retired rather than overwritten: watchers still
// mapping it see Retired report true, and its records naming a watcher are kept for Inherited.
func Create(cfg Config, log *zap.Logger) (*Registry, error) {
	if cfg.Capacity < MinCapacity || cfg.Capacity > MaxCapacity {
		return nil, &ErrInvalidCapacity{Capacity: cfg.Capacity}
	}

	generation, inherited := retire(cfg.Path, log)
	if err := os.Remove(cfg.Path); err != nil && !os.IsNotExist(err) {
		return nil, err
	}

	slots := slotCount(cfg.Capacity)
	seg, err := shm.Create(cfg.Path, headerSize+int(slots)*slotSize)
	if err != nil {
		return nil, err
	}

	seg.Store(offVersion, version)
	seg.Store(offCapacity, uint32(cfg.Capacity))
	seg.Store(offSlots, slots)
	seg.Store(offGeneration, generation+1)
	seg.Store(offMagic, magic)

	r := newRegistry(seg, log)
	r.inherited = inherited
	log.Info("Shutdown registry created.",
		zap.String("path", cfg.Path),
		zap.Int("capacity", cfg.Capacity),
		zap.Uint32("generation", generation+1),
		zap.Int("inheritedWatchers", len(inherited)))
	return r, nil
}

// retire marks the segment at path retired and returns its generation and the records that
// name a watcher. A missing or foreign file yields generation 0 and no records.
func retire(path string, log *zap.Logger) (uint32, []Record) {
	old, err := Attach(path, log)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Debug("Previous registry segment not reused.", zap.String("path", path), zap.Error(err))
		}
		return 0, nil
	}
	defer old.Close()

	inherited := []Record{}
	records, err := old.Snapshot()
	if err != nil {
		log.Warn("Cannot read previous registry segment.", zap.Error(err))
	}
	for _, rec := range records {
		if rec.WatcherPID != NoProcess {
			inherited = append(inherited, rec)
		}
	}
	old.seg.Store(offRetired, 1)
	return old.seg.Load(offGeneration), inherited
}

// Attach maps a registry segment previously created by Create. Watcher processes use it.
func Attach(path string, log *zap.Logger) (*Registry, error) {
	seg, err := shm.Open(path)
	if err != nil {
		return nil, err
	}

	if seg.Size() < headerSize {
		seg.Close()
		return nil, &ErrIncompatibleSegment{Path: path, Reason: "segment too small"}
	}
	if seg.Load(offMagic) != magic {
		seg.Close()
		return nil, &ErrIncompatibleSegment{Path: path, Reason: "bad magic"}
	}
	if seg.Load(offVersion) != version {
		seg.Close()
		return nil, &ErrIncompatibleSegment{Path: path, Reason: "unsupported version"}
	}
	slots := seg.Load(offSlots)
	if seg.Size() != headerSize+int(slots)*slotSize {
		seg.Close()
		return nil, &ErrIncompatibleSegment{Path: path, Reason: "size does not match slot count"}
	}

	return newRegistry(seg, log), nil
}

func newRegistry(seg *shm.Segment, log *zap.Logger) *Registry {
	return &Registry{
		seg:      seg,
		lock:     shm.NewRWLock(seg.Path() + ".lock"),
		agg:      shm.NewSpinLock(seg.Word(offAggLock)),
		capacity: int(seg.Load(offCapacity)),
		slots:    seg.Load(offSlots),
		log:      log,
	}
}

// Inherited returns the records of the previous segment that named a watcher, ordered by ID.
// Their watchers may still be running and belong to no live coordinator.
func (r *Registry) Inherited() []Record {
	return r.inherited
}

// Generation counts how many times the segment at this path has been created.
func (r *Registry) Generation() (uint32, error) {
	seg, err := r.enter()
	if err != nil {
		return 0, err
	}
	defer r.leave()
	return seg.Load(offGeneration), nil
}

// Retired reports whether a newer coordinator has replaced this segment. Writes to a retired
// segment are never seen by the new one.
func (r *Registry) Retired() (bool, error) {
	seg, err := r.enter()
	if err != nil {
		return false, err
	}
	defer r.leave()
	return seg.Load(offRetired) != 0, nil
}

// Capacity returns the maximum number of records.
func (r *Registry) Capacity() int {
	return r.capacity
}

// Path returns the segment file path, used to hand the registry to watcher processes.
func (r *Registry) Path() string {
	if r == nil || r.seg == nil {
		return ""
	}
	return r.seg.Path()
}

// Close unmaps the segment. In-flight operations finish first.
func (r *Registry) Close() error {
	if r == nil {
		return &ErrNotAttached{}
	}

	r.attach.Lock()
	defer r.attach.Unlock()
	if r.seg == nil {
		return &ErrNotAttached{}
	}

	err := r.seg.Close()
	r.seg = nil
	if lerr := r.lock.Close(); err == nil {
		err = lerr
	}
	return err
}

// enter pins the segment for the duration of an operation.
func (r *Registry) enter() (*shm.Segment, error) {
	if r == nil {
		return nil, &ErrNotAttached{}
	}
	r.attach.RLock()
	if r.seg == nil {
		r.attach.RUnlock()
		return nil, &ErrNotAttached{}
	}
	return r.seg, nil
}

func (r *Registry) leave() {
	r.attach.RUnlock()
}

// slotCount returns the power of two at least twice the capacity, keeping probe chains short.
func slotCount(capacity int) uint32 {
	return 1 << bits.Len32(uint32(2*capacity-1))
}

func hash(id DatabaseID) uint32 {
	var b [4]byte
	b[0] = byte(id)
	b[1] = byte(id >> 8)
	b[2] = byte(id >> 16)
	b[3] = byte(id >> 24)
	return uint32(xxhash.Sum64(b[:]))
}
