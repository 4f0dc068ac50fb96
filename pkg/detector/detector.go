// Package detector provides the per-element glue between a UI component's
// lifecycle and the pooled observer registry. A host component creates one
// Detector per rendered element and drives it from its mount, update and
// unmount hooks; the detector validates options, models reconfiguration as
// unobserve followed by observe, and implements the once-only delivery
// contract.
//
// A Detector is driven from the single UI execution context, like the
// component lifecycle that owns it; it is not safe for concurrent use.
package detector

import (
	"fmt"

	"github.com/cvent/intersection-observer/pkg/errors"
	"github.com/cvent/intersection-observer/pkg/observer"
)

// Options configures how an element is observed.
type Options struct {
	// Root is the region visibility is measured against, or nil for the
	// viewport. Compared by identity.
	Root any

	// RootMargin is a CSS-style margin shorthand applied to the root's
	// bounds, e.g. "10% 20%". Empty means no margin.
	RootMargin string

	// Thresholds are the visibility ratios at which changes are delivered.
	// Empty means [0].
	Thresholds []float64

	// Once stops observation after the first intersecting change. It
	// requires the platform to supply the intersecting flag; a change
	// without it surfaces observer.ErrMissingChangeFlag.
	Once bool
}

// ThresholdError indicates a threshold outside [0, 1].
type ThresholdError struct {
	Value float64
}

func (e *ThresholdError) Error() string {
	return fmt.Sprintf("threshold %v is outside [0, 1]", e.Value)
}

// Validate checks the options without observing anything. The margin must
// parse as CSS shorthand and every threshold must lie in [0, 1].
func (o Options) Validate() error {
	if _, err := observer.NormalizeMargin(o.RootMargin); err != nil {
		return err
	}
	for _, threshold := range o.Thresholds {
		if threshold < 0 || threshold > 1 {
			return &ThresholdError{Value: threshold}
		}
	}
	return nil
}

// config returns the normalized watcher configuration for the options.
func (o Options) config() (observer.Config, error) {
	if err := o.Validate(); err != nil {
		return observer.Config{}, err
	}
	return observer.Normalize(observer.Config{
		Root:       o.Root,
		RootMargin: o.RootMargin,
		Thresholds: o.Thresholds,
	})
}

// Detector observes one UI element through a pooled watcher.
type Detector struct {
	// OnError receives delivery-time errors (currently only the missing
	// intersecting flag under Once). When nil they are reported to the
	// global error handler instead. Set before Mount.
	OnError func(error)

	registry *observer.Registry
	factory  observer.Factory
	onChange func(observer.Change)

	record *observer.Record
	target any
	config observer.Config
	opts   Options
}

// New creates a detector that observes through reg using factory and
// delivers changes to onChange. A nil reg uses the process-wide registry.
func New(reg *observer.Registry, factory observer.Factory, onChange func(observer.Change)) *Detector {
	if reg == nil {
		reg = observer.Default()
	}
	return &Detector{
		registry: reg,
		factory:  factory,
		onChange: onChange,
	}
}

// Observing reports whether the detector currently holds an observation.
func (d *Detector) Observing() bool {
	return d.record != nil
}

// Mount begins observing target with the given options. Invalid options
// are returned synchronously and nothing is observed. A detector that is
// already observing is unmounted first.
func (d *Detector) Mount(target any, opts Options) error {
	cfg, err := opts.config()
	if err != nil {
		return err
	}
	if target == nil {
		return observer.ErrNoTarget
	}
	d.Unmount()

	rec := &observer.Record{Target: target, OnChange: d.handleChange}
	if err := d.registry.Observe(rec, cfg, d.factory); err != nil {
		return err
	}
	d.record = rec
	d.target = target
	d.config = cfg
	d.opts = opts
	return nil
}

// Update applies a possibly changed target and options. When nothing
// observable changed it is a no-op; otherwise the element is reconfigured
// by unobserving the old observation and observing anew, since a watcher's
// configuration is immutable once created.
func (d *Detector) Update(target any, opts Options) error {
	cfg, err := opts.config()
	if err != nil {
		return err
	}
	if d.record != nil &&
		target == d.target &&
		observer.Equivalent(cfg, d.config) &&
		opts.Once == d.opts.Once {
		return nil
	}
	return d.Mount(target, opts)
}

// Unmount stops observing. Safe to call when not observing, and tolerant
// of a target reference that has already been nulled out by the host.
func (d *Detector) Unmount() {
	if d.record == nil {
		return
	}
	d.registry.Unobserve(d.record)
	d.record = nil
	d.target = nil
}

// handleChange applies the once-only contract before handing a change to
// the consumer.
func (d *Detector) handleChange(change observer.Change) {
	if !d.opts.Once {
		if d.onChange != nil {
			d.onChange(change)
		}
		return
	}

	if !change.HasIntersecting {
		d.fail(observer.ErrMissingChangeFlag)
		return
	}
	if d.onChange != nil {
		d.onChange(change)
	}
	if change.Intersecting {
		d.Unmount()
	}
}

func (d *Detector) fail(err error) {
	if d.OnError != nil {
		d.OnError(err)
		return
	}
	errors.Report(&errors.ObserverError{
		Op:   "detector.handleChange",
		Kind: errors.KindDispatch,
		Err:  err,
	})
}
