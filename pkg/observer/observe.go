package observer

import "errors"

var (
	// ErrNilRecord is returned when observe is called without a record.
	ErrNilRecord = errors.New("observe called with nil record")

	// ErrNoTarget is returned when observe is called before the record's
	// target reference is resolved.
	ErrNoTarget = errors.New("observe called with nil target")
)

// Observe starts observation for a record with the desired configuration.
// The configuration is normalized (a malformed root margin is returned as a
// *MarginError, never silently defaulted), a pooled watcher is resolved or
// created through the factory, the record is assigned to it, and the
// watcher begins watching the record's target.
//
// The record's target must be non-nil; calling Observe before the target is
// resolved is a caller error.
//
// A record that is already observed is left untouched regardless of the
// requested configuration; reconfiguring goes through Unobserve first.
func (r *Registry) Observe(rec *Record, cfg Config, factory Factory) error {
	if rec == nil {
		return ErrNilRecord
	}
	if rec.watcher != nil {
		return nil
	}
	if rec.Target == nil {
		return ErrNoTarget
	}

	normalized, err := Normalize(cfg)
	if err != nil {
		return err
	}

	r.mu.Lock()
	w, err := r.resolveLocked(normalized, factory)
	if err != nil {
		r.mu.Unlock()
		return err
	}
	rec.watcher = w
	added := r.addLocked(w, rec)
	r.mu.Unlock()

	// Only a new association starts a platform watch; re-observing an
	// already-associated record (or target) is a no-op.
	if added {
		w.Watch(rec.Target)
	}
	return nil
}

// Unobserve ends observation for a record. The association is always
// released, even when the record's target reference has already been nulled
// out; in that case the platform unwatch is skipped. When other records
// remain on the watcher it is told to unwatch the target; when this was the
// last record, Remove has already destroyed the watcher and no explicit
// unwatch is needed. Calling Unobserve on an already-detached record is a
// no-op.
func (r *Registry) Unobserve(rec *Record) {
	if rec == nil || rec.watcher == nil {
		return
	}

	w := rec.watcher
	target := rec.Target
	removed, destroyed := r.remove(rec)
	rec.watcher = nil

	if !removed || destroyed || target == nil {
		return
	}
	w.Unwatch(target)
}

// defaultRegistry is the process-wide registry used by applications that do
// not construct their own.
var defaultRegistry = NewRegistry()

// Default returns the process-wide registry.
func Default() *Registry {
	return defaultRegistry
}

// Observe starts observation on the default registry.
func Observe(rec *Record, cfg Config, factory Factory) error {
	return defaultRegistry.Observe(rec, cfg, factory)
}

// Unobserve ends observation on the default registry.
func Unobserve(rec *Record) {
	defaultRegistry.Unobserve(rec)
}

// ResetForTest destroys all watchers registered on the default registry and
// empties it. This should only be called from tests.
func ResetForTest() {
	defaultRegistry.Reset()
}
