package observer

// Watcher is the opaque platform primitive that watches target regions
// against the root described by its Config. How it computes intersections
// and when it delivers change batches is outside this package; the registry
// owns it only for lifecycle purposes.
type Watcher interface {
	// Watch starts watching a target region.
	Watch(target any)

	// Unwatch stops watching a target region.
	Unwatch(target any)

	// Destroy releases the watcher. All watches end; no further change
	// batches are delivered for it.
	Destroy()
}

// Factory creates a Watcher from a normalized configuration. The registry
// never constructs watchers directly, so the platform watcher type is fully
// substitutable.
type Factory func(Config) (Watcher, error)
