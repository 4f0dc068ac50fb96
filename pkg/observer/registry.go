package observer

import (
	"errors"
	"sync"
)

// ErrNilWatcher is returned when a factory produces a nil watcher without
// reporting an error.
var ErrNilWatcher = errors.New("watcher factory returned nil")

// poolEntry associates one live watcher with the records assigned to it and
// the configuration it was created from.
type poolEntry struct {
	config  Config
	watcher Watcher
	records []*Record
}

// Registry maps live watchers to the records currently assigned to them and
// owns the watchers' lifecycle: a watcher is created lazily on the first
// request for a configuration with no equivalent pooled watcher, and
// destroyed exactly when its last record is removed.
//
// All operations are guarded by one mutex, so resolve, association and
// removal are atomic with respect to each other. Record handlers are always
// invoked outside the lock.
type Registry struct {
	mu   sync.Mutex
	pool []*poolEntry
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Resolve returns a watcher for the given normalized configuration. Pooled
// watchers are scanned oldest-first and the first equivalent configuration
// wins; only when none matches is the factory invoked, and the new watcher
// registered with an empty record set. A hit leaves the registry untouched.
func (r *Registry) Resolve(cfg Config, factory Factory) (Watcher, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.resolveLocked(cfg, factory)
}

func (r *Registry) resolveLocked(cfg Config, factory Factory) (Watcher, error) {
	for _, e := range r.pool {
		if Equivalent(e.config, cfg) {
			return e.watcher, nil
		}
	}

	w, err := factory(cfg)
	if err != nil {
		return nil, err
	}
	if w == nil {
		return nil, ErrNilWatcher
	}
	r.pool = append(r.pool, &poolEntry{config: cfg, watcher: w})
	return w, nil
}

// Add associates a record with a watcher, registering the watcher if it is
// not yet known. The call is idempotent: a record already associated with
// the watcher, or a distinct record for a target the watcher already has a
// record for, is left as is.
func (r *Registry) Add(w Watcher, rec *Record) {
	if w == nil || rec == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.addLocked(w, rec)
}

// addLocked reports whether the record was newly associated; a record (or
// target) the watcher already has is left as is.
func (r *Registry) addLocked(w Watcher, rec *Record) bool {
	e := r.entryLocked(w)
	if e == nil {
		// Watchers normally arrive through Resolve; one registered here
		// has no pooled configuration and will never be matched by it.
		e = &poolEntry{watcher: w}
		r.pool = append(r.pool, e)
	}
	for _, existing := range e.records {
		if existing == rec || existing.Target == rec.Target {
			return false
		}
	}
	e.records = append(e.records, rec)
	return true
}

// Remove detaches a record from its watcher. It is a no-op when the
// record's watcher is not registered or the record is not associated, so it
// tolerates already-detached records. When the watcher's last record is
// removed, the watcher is destroyed and dropped from the registry; this is
// the sole destruction path, and it reports true.
func (r *Registry) Remove(rec *Record) (destroyed bool) {
	_, destroyed = r.remove(rec)
	return destroyed
}

// remove detaches a record, reporting whether it was actually associated
// and whether its watcher was destroyed as a consequence.
func (r *Registry) remove(rec *Record) (removed, destroyed bool) {
	if rec == nil || rec.watcher == nil {
		return false, false
	}

	r.mu.Lock()
	var w Watcher
	for i, e := range r.pool {
		if e.watcher != rec.watcher {
			continue
		}
		for j, existing := range e.records {
			if existing == rec {
				e.records = append(e.records[:j], e.records[j+1:]...)
				removed = true
				break
			}
		}
		if removed && len(e.records) == 0 {
			r.pool = append(r.pool[:i], r.pool[i+1:]...)
			w = e.watcher
			destroyed = true
		}
		break
	}
	r.mu.Unlock()

	if destroyed {
		w.Destroy()
	}
	return removed, destroyed
}

// entryLocked returns the pool entry for a watcher, or nil.
func (r *Registry) entryLocked(w Watcher) *poolEntry {
	for _, e := range r.pool {
		if e.watcher == w {
			return e
		}
	}
	return nil
}

// findRecordLocked scans a watcher's record set for the record whose target
// matches by identity.
func (r *Registry) findRecordLocked(w Watcher, target any) *Record {
	e := r.entryLocked(w)
	if e == nil {
		return nil
	}
	for _, rec := range e.records {
		if rec.Target == target {
			return rec
		}
	}
	return nil
}

// Contains reports whether a watcher is currently registered.
func (r *Registry) Contains(w Watcher) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.entryLocked(w) != nil
}

// WatcherCount returns the number of live pooled watchers.
func (r *Registry) WatcherCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pool)
}

// RecordCount returns the number of records assigned to a watcher, or zero
// when the watcher is not registered.
func (r *Registry) RecordCount(w Watcher) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e := r.entryLocked(w); e != nil {
		return len(e.records)
	}
	return 0
}

// Reset destroys all registered watchers and empties the registry. Intended
// for test isolation.
func (r *Registry) Reset() {
	r.mu.Lock()
	pool := r.pool
	r.pool = nil
	r.mu.Unlock()

	for _, e := range pool {
		e.watcher.Destroy()
	}
}
