package observer

import (
	"errors"
	"time"

	"github.com/cvent/intersection-observer/pkg/geometry"
)

// ErrMissingChangeFlag indicates a delivered change record that lacks the
// intersecting flag. Consumers whose contract requires the flag (the
// deprecated fire-once behavior) surface this; the dispatcher itself does
// not treat the absence as an error.
var ErrMissingChangeFlag = errors.New("change record is missing the intersecting flag")

// Change is one delivered observation for a target.
type Change struct {
	// Target is the watched region the change refers to.
	Target any

	// Ratio is the fraction of the target currently visible, in [0, 1].
	Ratio float64

	// Intersecting reports whether the target currently intersects the
	// root. Only meaningful when HasIntersecting is true.
	Intersecting bool

	// HasIntersecting reports whether the platform supplied the
	// intersecting flag. Older platform layers omit it.
	HasIntersecting bool

	// Bounds is the target's bounding rectangle.
	Bounds geometry.Rect

	// Intersection is the visible part of the target.
	Intersection geometry.Rect

	// RootBounds is the root region's rectangle, including margin.
	RootBounds geometry.Rect

	// Time is when the platform computed the change.
	Time time.Time
}

// Record represents one observed UI element: its target region, the handler
// its changes are delivered to, and the watcher it is assigned to. A record
// does not own its watcher; ownership is shared through the registry, and
// the last record to leave destroys it.
type Record struct {
	// Target is the region being watched, compared by identity. It must be
	// non-nil when the record is observed, but may be nulled out by the
	// owning component before teardown runs.
	Target any

	// OnChange receives this record's change records, one per delivery, in
	// platform batch order.
	OnChange func(Change)

	watcher Watcher
}

// Watcher returns the watcher this record is assigned to, or nil while the
// record is unobserved.
func (r *Record) Watcher() Watcher {
	return r.watcher
}
