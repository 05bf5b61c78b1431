package registry

import (
	"sort"

	"go.uber.org/zap"

	"github.com/serverless/shutdownd/internal/shm"
)

// slot addressing

func (r *Registry) slotOff(i uint32) int {
	return headerSize + int(i)*slotSize
}

func (r *Registry) recordLock(seg *shm.Segment, i uint32) shm.SpinLock {
	return shm.NewSpinLock(seg.Word(r.slotOff(i) + slotLock))
}

// find returns the slot holding id. The caller holds the structural lock.
func (r *Registry) find(seg *shm.Segment, id DatabaseID) (uint32, bool) {
	mask := r.slots - 1
	i := hash(id) & mask
	for n := uint32(0); n < r.slots; n++ {
		off := r.slotOff(i)
		switch seg.Load(off + slotState) {
		case stateEmpty:
			return 0, false
		case stateUsed:
			if DatabaseID(seg.Load(off+slotID)) == id {
				return i, true
			}
		}
		i = (i + 1) & mask
	}
	return 0, false
}

// freeSlot returns the first reusable slot on id's probe chain. The caller holds the
// structural lock exclusively and has checked that id is absent.
func (r *Registry) freeSlot(seg *shm.Segment, id DatabaseID) (uint32, bool) {
	mask := r.slots - 1
	i := hash(id) & mask
	for n := uint32(0); n < r.slots; n++ {
		if seg.Load(r.slotOff(i)+slotState) != stateUsed {
			return i, true
		}
		i = (i + 1) & mask
	}
	return 0, false
}

func (r *Registry) read(seg *shm.Segment, i uint32) Record {
	off := r.slotOff(i)
	lock := r.recordLock(seg, i)
	lock.Lock()
	rec := Record{
		DatabaseID: DatabaseID(seg.Load(off + slotID)),
		Mode:       Mode(seg.Load(off + slotMode)),
		Running:    seg.Load(off+slotRunning) != 0,
		WatcherPID: PID(int32(seg.Load(off + slotPID))),
	}
	lock.Unlock()
	return rec
}

// Insert adds a record for id with the given mode and running flag and no watcher.
// It returns ErrRecordExists when id already has a record and ErrRegistryFull when every
// slot is taken; the registry is unchanged in both cases.
func (r *Registry) Insert(id DatabaseID, mode Mode, running bool) error {
	seg, err := r.enter()
	if err != nil {
		return err
	}
	defer r.leave()

	// Most repeated shutdown requests stop here without taking the lock exclusively.
	r.lock.RLock()
	_, found := r.find(seg, id)
	r.lock.RUnlock()
	if found {
		return &ErrRecordExists{ID: id}
	}

	r.lock.Lock()
	defer r.lock.Unlock()

	if _, found := r.find(seg, id); found {
		return &ErrRecordExists{ID: id}
	}
	if int(seg.Load(offRecords)) >= r.capacity {
		return &ErrRegistryFull{Capacity: r.capacity}
	}
	if r.needsCompaction(seg) {
		r.compact(seg)
	}

	i, ok := r.freeSlot(seg, id)
	if !ok {
		return &ErrRegistryFull{Capacity: r.capacity}
	}
	off := r.slotOff(i)
	wasDeleted := seg.Load(off+slotState) == stateDeleted

	seg.Store(off+slotLock, 0)
	seg.Store(off+slotID, uint32(id))
	seg.Store(off+slotMode, uint32(mode))
	seg.Store(off+slotRunning, boolWord(running))
	seg.Store(off+slotPID, uint32(NoProcess))
	seg.Store(off+slotState, stateUsed)

	r.agg.Lock()
	seg.Store(offRecords, seg.Load(offRecords)+1)
	if wasDeleted {
		seg.Store(offTombstones, seg.Load(offTombstones)-1)
	}
	r.agg.Unlock()

	r.log.Debug("Shutdown record inserted.", zap.Uint32("databaseId", uint32(id)), zap.Stringer("mode", mode), zap.Bool("running", running))
	return nil
}

// Exists reports whether id has a record. With runningOnly set the record must also have a
// running watcher.
func (r *Registry) Exists(id DatabaseID, runningOnly bool) (bool, error) {
	seg, err := r.enter()
	if err != nil {
		return false, err
	}
	defer r.leave()

	if seg.Load(offRecords) == 0 {
		return false, nil
	}

	r.lock.RLock()
	defer r.lock.RUnlock()

	i, found := r.find(seg, id)
	if !found {
		return false, nil
	}
	if !runningOnly {
		return true, nil
	}
	return r.read(seg, i).Running, nil
}

// Remove deletes the record of id. Removing an absent record only logs.
func (r *Registry) Remove(id DatabaseID) error {
	seg, err := r.enter()
	if err != nil {
		return err
	}
	defer r.leave()

	r.lock.Lock()
	defer r.lock.Unlock()

	i, found := r.find(seg, id)
	if !found {
		r.log.Warn("Shutdown record not found for removal.", zap.Uint32("databaseId", uint32(id)))
		return nil
	}

	off := r.slotOff(i)
	seg.Zero(off, slotSize)
	seg.Store(off+slotState, stateDeleted)

	r.agg.Lock()
	records := seg.Load(offRecords)
	if records == 0 {
		r.agg.Unlock()
		panic("registry: record count underflow")
	}
	seg.Store(offRecords, records-1)
	seg.Store(offTombstones, seg.Load(offTombstones)+1)
	r.agg.Unlock()

	r.log.Debug("Shutdown record removed.", zap.Uint32("databaseId", uint32(id)))
	return nil
}

// SetRunning updates the running flag of id's record.
func (r *Registry) SetRunning(id DatabaseID, running bool) error {
	return r.update(id, slotRunning, boolWord(running))
}

// SetWatcherPID records the watcher process of id's record.
func (r *Registry) SetWatcherPID(id DatabaseID, pid PID) error {
	return r.update(id, slotPID, uint32(pid))
}

func (r *Registry) update(id DatabaseID, field int, value uint32) error {
	seg, err := r.enter()
	if err != nil {
		return err
	}
	defer r.leave()

	r.lock.RLock()
	defer r.lock.RUnlock()

	i, found := r.find(seg, id)
	if !found {
		return &ErrRecordNotFound{ID: id}
	}

	lock := r.recordLock(seg, i)
	lock.Lock()
	seg.Store(r.slotOff(i)+field, value)
	lock.Unlock()
	return nil
}

// WatcherPID returns the watcher process of id's record. With activeOnly set, NoProcess is
// returned unless the record is marked running. The lookup takes the structural lock
// exclusively so that it cannot interleave with a removal.
func (r *Registry) WatcherPID(id DatabaseID, activeOnly bool) (PID, error) {
	seg, err := r.enter()
	if err != nil {
		return NoProcess, err
	}
	defer r.leave()

	r.lock.Lock()
	i, found := r.find(seg, id)
	var rec Record
	if found {
		rec = r.read(seg, i)
	}
	r.lock.Unlock()

	if !found {
		return NoProcess, &ErrRecordNotFound{ID: id}
	}
	if activeOnly && !rec.Running {
		return NoProcess, nil
	}
	return rec.WatcherPID, nil
}

// Get returns a copy of id's record.
func (r *Registry) Get(id DatabaseID) (Record, error) {
	seg, err := r.enter()
	if err != nil {
		return Record{}, err
	}
	defer r.leave()

	r.lock.RLock()
	defer r.lock.RUnlock()

	i, found := r.find(seg, id)
	if !found {
		return Record{}, &ErrRecordNotFound{ID: id}
	}
	return r.read(seg, i), nil
}

// Snapshot returns every record, ordered by database ID.
func (r *Registry) Snapshot() ([]Record, error) {
	seg, err := r.enter()
	if err != nil {
		return nil, err
	}
	defer r.leave()

	r.lock.RLock()
	records := make([]Record, 0, seg.Load(offRecords))
	for i := uint32(0); i < r.slots; i++ {
		if seg.Load(r.slotOff(i)+slotState) == stateUsed {
			records = append(records, r.read(seg, i))
		}
	}
	r.lock.RUnlock()

	sort.Slice(records, func(a, b int) bool { return records[a].DatabaseID < records[b].DatabaseID })
	return records, nil
}

// needsCompaction reports whether tombstones make up more than a quarter of the slots.
func (r *Registry) needsCompaction(seg *shm.Segment) bool {
	return seg.Load(offTombstones) > r.slots/4
}

// compact rebuilds the slot table without tombstones. The caller holds the structural lock
// exclusively, so no record lock can be held.
func (r *Registry) compact(seg *shm.Segment) {
	live := make([]Record, 0, seg.Load(offRecords))
	for i := uint32(0); i < r.slots; i++ {
		if seg.Load(r.slotOff(i)+slotState) == stateUsed {
			live = append(live, r.read(seg, i))
		}
	}

	seg.Zero(headerSize, int(r.slots)*slotSize)
	for _, rec := range live {
		i, _ := r.freeSlot(seg, rec.DatabaseID)
		off := r.slotOff(i)
		seg.Store(off+slotID, uint32(rec.DatabaseID))
		seg.Store(off+slotMode, uint32(rec.Mode))
		seg.Store(off+slotRunning, boolWord(rec.Running))
		seg.Store(off+slotPID, uint32(rec.WatcherPID))
		seg.Store(off+slotState, stateUsed)
	}

	r.agg.Lock()
	seg.Store(offTombstones, 0)
	r.agg.Unlock()

	r.log.Debug("Shutdown registry compacted.", zap.Int("records", len(live)))
}

func boolWord(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}
