// Package observer pools platform visibility watchers across many observed
// UI elements.
//
// Creating one platform watcher per element is wasteful, and some platforms
// cap the number of distinct watcher configurations. This package maintains
// a many-to-one mapping from observed elements to watchers: a request to
// observe an element resolves an existing watcher whose configuration is
// semantically equivalent (same root reference, same canonical margin, same
// ordered thresholds) or creates one through a supplied Factory, and a
// watcher is destroyed exactly when its last record is removed.
//
// # Observing
//
// Consumers observe through a Registry (or the process-wide Default one):
//
//	rec := &observer.Record{Target: target, OnChange: handle}
//	err := reg.Observe(rec, observer.Config{RootMargin: "10% 20%"}, factory)
//	...
//	reg.Unobserve(rec)
//
// Reconfiguring an element (different root, margin, thresholds, or target)
// is always unobserve followed by observe; a watcher's configuration is
// immutable once created.
//
// # Dispatch
//
// The platform delivers change batches to the watcher's registry via
// DispatchBatch, which resolves each change to the record whose target
// matches by identity and invokes its handler in batch order. A change for
// a target that was unobserved while the platform computed it is dropped;
// asynchronous delivery makes that race unavoidable and benign.
//
// All registry operations are safe for concurrent use; on the single
// UI-thread execution model the mutex is simply uncontended.
package observer
