package observer

import "github.com/cvent/intersection-observer/pkg/errors"

// DispatchBatch delivers a batch of platform change records for one
// watcher. Each change is resolved, in the batch's input order, to the
// record whose target matches by identity and delivered to that record's
// handler. A change whose target has no association is silently dropped:
// the target was unobserved between the platform's observation and its
// delivery, which is an expected race, not an error.
//
// Each change is resolved against the registry's current associations at
// the moment of its delivery, so a handler that unobserves another record
// stops that record's remaining changes in the same batch. Handler panics
// are recovered and reported; they never interrupt the rest of the batch.
func (r *Registry) DispatchBatch(changes []Change, w Watcher) {
	for _, change := range changes {
		r.mu.Lock()
		rec := r.findRecordLocked(w, change.Target)
		r.mu.Unlock()

		if rec == nil || rec.OnChange == nil {
			continue
		}
		dispatchOne(rec, change)
	}
}

func dispatchOne(rec *Record, change Change) {
	defer errors.Recover("observer.DispatchBatch")
	rec.OnChange(change)
}
