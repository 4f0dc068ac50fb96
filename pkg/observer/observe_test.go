package observer

import (
	"errors"
	"testing"
)

func TestObserveWatchesTarget(t *testing.T) {
	reg := NewRegistry()
	factory := &stubFactory{}

	rec := &Record{Target: &region{name: "a"}}
	if err := reg.Observe(rec, Config{}, factory.new); err != nil {
		t.Fatalf("Observe: %v", err)
	}

	w := factory.created[0]
	if rec.Watcher() != w {
		t.Error("record not assigned to the resolved watcher")
	}
	if len(w.watched) != 1 || w.watched[0] != rec.Target {
		t.Errorf("watched = %v, want the record's target", w.watched)
	}
}

func TestObservePreconditions(t *testing.T) {
	reg := NewRegistry()
	factory := &stubFactory{}

	if err := reg.Observe(nil, Config{}, factory.new); !errors.Is(err, ErrNilRecord) {
		t.Errorf("nil record: got %v, want ErrNilRecord", err)
	}
	if err := reg.Observe(&Record{}, Config{}, factory.new); !errors.Is(err, ErrNoTarget) {
		t.Errorf("nil target: got %v, want ErrNoTarget", err)
	}
	if len(factory.created) != 0 {
		t.Error("precondition failures must not create watchers")
	}
}

func TestObserveRejectsMalformedMargin(t *testing.T) {
	reg := NewRegistry()
	factory := &stubFactory{}

	rec := &Record{Target: &region{name: "a"}}
	err := reg.Observe(rec, Config{RootMargin: "10vh"}, factory.new)

	var marginErr *MarginError
	if !errors.As(err, &marginErr) {
		t.Fatalf("got %v, want *MarginError", err)
	}
	if len(factory.created) != 0 {
		t.Error("a malformed margin must never fall back to a default watcher")
	}
}

func TestUnobserveUnwatchesWhenWatcherSurvives(t *testing.T) {
	reg := NewRegistry()
	factory := &stubFactory{}

	a := &Record{Target: &region{name: "a"}}
	b := &Record{Target: &region{name: "b"}}
	if err := reg.Observe(a, Config{}, factory.new); err != nil {
		t.Fatalf("Observe: %v", err)
	}
	if err := reg.Observe(b, Config{}, factory.new); err != nil {
		t.Fatalf("Observe: %v", err)
	}
	w := factory.created[0]

	reg.Unobserve(a)
	if len(w.unwatched) != 1 || w.unwatched[0] != a.Target {
		t.Errorf("unwatched = %v, want A's target", w.unwatched)
	}
	if w.destroyed != 0 {
		t.Error("watcher destroyed while B remained")
	}

	// Destruction implies all watches end; no explicit unwatch for the
	// last record.
	reg.Unobserve(b)
	if len(w.unwatched) != 1 {
		t.Errorf("unwatched %d targets, want 1 (destroy covers the last)", len(w.unwatched))
	}
	if w.destroyed != 1 {
		t.Errorf("watcher destroyed %d times, want 1", w.destroyed)
	}
}

func TestUnobserveNulledTarget(t *testing.T) {
	reg := NewRegistry()
	factory := &stubFactory{}

	a := &Record{Target: &region{name: "a"}}
	b := &Record{Target: &region{name: "b"}}
	if err := reg.Observe(a, Config{}, factory.new); err != nil {
		t.Fatalf("Observe: %v", err)
	}
	if err := reg.Observe(b, Config{}, factory.new); err != nil {
		t.Fatalf("Observe: %v", err)
	}
	w := factory.created[0]

	// The owning component nulled the target before teardown ran. The
	// association must still be released without touching the platform.
	a.Target = nil
	reg.Unobserve(a)

	if len(w.unwatched) != 0 {
		t.Errorf("unwatched = %v, want no platform unwatch for a nil target", w.unwatched)
	}
	if got := reg.RecordCount(w); got != 1 {
		t.Errorf("RecordCount = %d, want 1 (association released)", got)
	}
}

func TestUnobserveNulledTargetLastRecord(t *testing.T) {
	reg := NewRegistry()
	factory := &stubFactory{}

	rec := &Record{Target: &region{name: "a"}}
	if err := reg.Observe(rec, Config{}, factory.new); err != nil {
		t.Fatalf("Observe: %v", err)
	}
	w := factory.created[0]

	rec.Target = nil
	reg.Unobserve(rec)

	if w.destroyed != 1 {
		t.Errorf("watcher destroyed %d times, want 1", w.destroyed)
	}
	if reg.WatcherCount() != 0 {
		t.Error("no association may leak when the target was nulled first")
	}
}

func TestUnobserveIsIdempotent(t *testing.T) {
	reg := NewRegistry()
	factory := &stubFactory{}

	rec := &Record{Target: &region{name: "a"}}
	if err := reg.Observe(rec, Config{}, factory.new); err != nil {
		t.Fatalf("Observe: %v", err)
	}
	w := factory.created[0]

	reg.Unobserve(rec)
	reg.Unobserve(rec)
	reg.Unobserve(nil)

	if w.destroyed != 1 {
		t.Errorf("watcher destroyed %d times, want exactly 1", w.destroyed)
	}
	if rec.Watcher() != nil {
		t.Error("record should collapse back to unobserved")
	}
}

func TestObserveWhileObservedIsNoop(t *testing.T) {
	reg := NewRegistry()
	factory := &stubFactory{}

	rec := &Record{Target: &region{name: "a"}}
	if err := reg.Observe(rec, Config{}, factory.new); err != nil {
		t.Fatalf("Observe: %v", err)
	}
	w := factory.created[0]

	// Observing a live record again, even with a different configuration,
	// must not touch the pool or the platform.
	if err := reg.Observe(rec, Config{RootMargin: "10px"}, factory.new); err != nil {
		t.Fatalf("re-Observe: %v", err)
	}
	if len(factory.created) != 1 {
		t.Fatalf("factory invoked %d times, want 1", len(factory.created))
	}
	if len(w.watched) != 1 {
		t.Errorf("watched %d targets, want 1", len(w.watched))
	}
	if rec.Watcher() != w {
		t.Error("record must keep its original watcher")
	}
}

func TestReobserveAfterUnobserve(t *testing.T) {
	reg := NewRegistry()
	factory := &stubFactory{}

	rec := &Record{Target: &region{name: "a"}}
	if err := reg.Observe(rec, Config{}, factory.new); err != nil {
		t.Fatalf("Observe: %v", err)
	}
	reg.Unobserve(rec)

	// Reconfigure is unobserve followed by observe; the old watcher was
	// destroyed, so a new one is created.
	if err := reg.Observe(rec, Config{RootMargin: "10px"}, factory.new); err != nil {
		t.Fatalf("re-Observe: %v", err)
	}
	if len(factory.created) != 2 {
		t.Fatalf("factory invoked %d times, want 2", len(factory.created))
	}
	if rec.Watcher() != factory.created[1] {
		t.Error("record not assigned to the new watcher")
	}
}

func TestDefaultRegistry(t *testing.T) {
	t.Cleanup(ResetForTest)
	factory := &stubFactory{}

	rec := &Record{Target: &region{name: "a"}}
	if err := Observe(rec, Config{}, factory.new); err != nil {
		t.Fatalf("Observe: %v", err)
	}
	if Default().WatcherCount() != 1 {
		t.Fatal("default registry should hold the watcher")
	}

	Unobserve(rec)
	if Default().WatcherCount() != 0 {
		t.Error("default registry should be empty after unobserve")
	}
}

func TestResetForTestDestroysWatchers(t *testing.T) {
	factory := &stubFactory{}
	rec := &Record{Target: &region{name: "a"}}
	if err := Observe(rec, Config{}, factory.new); err != nil {
		t.Fatalf("Observe: %v", err)
	}

	ResetForTest()

	if Default().WatcherCount() != 0 {
		t.Error("ResetForTest should empty the default registry")
	}
	if factory.created[0].destroyed != 1 {
		t.Error("ResetForTest should destroy live watchers")
	}
}
