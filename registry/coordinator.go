package registry

// Counts returns the number of records and of live watchers.
func (r *Registry) Counts() (records, watchers int, err error) {
	seg, err := r.enter()
	if err != nil {
		return 0, 0, err
	}
	defer r.leave()

	r.agg.Lock()
	records = int(seg.Load(offRecords))
	watchers = int(seg.Load(offWatchers))
	r.agg.Unlock()
	return records, watchers, nil
}

// WatcherStarted counts a watcher that has registered itself.
func (r *Registry) WatcherStarted() error {
	seg, err := r.enter()
	if err != nil {
		return err
	}
	defer r.leave()

	r.agg.Lock()
	seg.Store(offWatchers, seg.Load(offWatchers)+1)
	r.agg.Unlock()
	return nil
}

// WatcherExited uncounts a watcher. Calling it more often than WatcherStarted panics.
func (r *Registry) WatcherExited() error {
	seg, err := r.enter()
	if err != nil {
		return err
	}
	defer r.leave()

	r.agg.Lock()
	watchers := seg.Load(offWatchers)
	if watchers == 0 {
		r.agg.Unlock()
		panic("registry: watcher count underflow")
	}
	seg.Store(offWatchers, watchers-1)
	r.agg.Unlock()
	return nil
}
