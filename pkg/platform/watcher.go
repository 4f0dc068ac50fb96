package platform

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cvent/intersection-observer/pkg/errors"
	"github.com/cvent/intersection-observer/pkg/geometry"
	"github.com/cvent/intersection-observer/pkg/observer"
)

const (
	// watcherChannelName carries watcher lifecycle calls to native.
	watcherChannelName = "visibility/watchers"
	// changesChannelName delivers change batches from native.
	changesChannelName = "visibility/changes"
)

// NativeTarget identifies a watchable region to the native side. Targets
// and roots handed to native watchers must implement it; the check replaces
// any guessing about what a "watchable" reference is.
type NativeTarget interface {
	// NativeViewID returns the native view identifier for this region.
	NativeViewID() int64
}

// watcherBridge owns the watcher channels and routes inbound change
// batches to the native watcher they belong to.
type watcherBridge struct {
	channel  *MethodChannel
	events   *EventChannel
	sub      *Subscription
	watchers map[int64]*nativeWatcher
	nextID   atomic.Int64
	mu       sync.RWMutex
}

var (
	bridgeInstMu sync.Mutex
	bridgeInst   *watcherBridge
)

// getWatcherBridge returns the process-wide watcher bridge, creating its
// channels and event subscription on first use.
func getWatcherBridge() *watcherBridge {
	bridgeInstMu.Lock()
	defer bridgeInstMu.Unlock()
	if bridgeInst == nil {
		b := &watcherBridge{
			channel:  NewMethodChannel(watcherChannelName),
			events:   NewEventChannel(changesChannelName),
			watchers: make(map[int64]*nativeWatcher),
		}
		b.sub = b.events.Listen(EventHandler{
			OnEvent: b.handleEvent,
			OnError: func(err error) {
				errors.Report(&errors.ObserverError{
					Op:      "platform.watcherBridge",
					Kind:    errors.KindPlatform,
					Channel: changesChannelName,
					Err:     err,
				})
			},
		})
		bridgeInst = b
	}
	return bridgeInst
}

func (b *watcherBridge) lookup(id int64) *nativeWatcher {
	b.mu.RLock()
	w := b.watchers[id]
	b.mu.RUnlock()
	return w
}

func (b *watcherBridge) remove(id int64) {
	b.mu.Lock()
	delete(b.watchers, id)
	b.mu.Unlock()
}

// handleEvent decodes one change batch and hands it to the registry the
// watcher was created for. Delivery runs on the UI thread when a dispatch
// function is registered.
func (b *watcherBridge) handleEvent(data any) {
	payload, ok := data.(map[string]any)
	if !ok {
		b.reportParse("ChangeBatch", data)
		return
	}
	id, ok := asInt64(payload["watcherId"])
	if !ok {
		b.reportParse("ChangeBatch.watcherId", payload["watcherId"])
		return
	}

	// A batch for a watcher destroyed while native was still computing is
	// the same benign race as a change for an unobserved target.
	w := b.lookup(id)
	if w == nil {
		return
	}

	raw, ok := payload["changes"].([]any)
	if !ok {
		b.reportParse("ChangeBatch.changes", payload["changes"])
		return
	}

	changes := make([]observer.Change, 0, len(raw))
	for _, item := range raw {
		entry, ok := item.(map[string]any)
		if !ok {
			b.reportParse("ChangeRecord", item)
			continue
		}
		if change, ok := w.decodeChange(entry); ok {
			changes = append(changes, change)
		}
	}
	if len(changes) == 0 {
		return
	}

	deliver := func() { w.registry.DispatchBatch(changes, w) }
	if !Dispatch(deliver) {
		deliver()
	}
}

func (b *watcherBridge) reportParse(dataType string, got any) {
	errors.Report(&errors.ObserverError{
		Op:      "platform.watcherBridge",
		Kind:    errors.KindParsing,
		Channel: changesChannelName,
		Err:     &errors.ParseError{Channel: changesChannelName, DataType: dataType, Got: got},
	})
}

// nativeWatcher implements observer.Watcher over the watcher channel. It
// keeps the target references it watches keyed by native view ID so inbound
// change records can be resolved back to them.
type nativeWatcher struct {
	id       int64
	bridge   *watcherBridge
	registry *observer.Registry
	mu       sync.Mutex
	targets  map[int64]any
}

// Watch starts native observation of a target. The target must implement
// NativeTarget; anything else is reported and skipped, never a panic.
func (w *nativeWatcher) Watch(target any) {
	nt, ok := target.(NativeTarget)
	if !ok {
		w.reportBadTarget("Watch", target)
		return
	}
	targetID := nt.NativeViewID()
	w.mu.Lock()
	w.targets[targetID] = target
	w.mu.Unlock()

	if _, err := w.bridge.channel.Invoke("watch", map[string]any{
		"watcherId": w.id,
		"targetId":  targetID,
	}); err != nil {
		w.reportInvoke("Watch", err)
	}
}

// Unwatch stops native observation of a target.
func (w *nativeWatcher) Unwatch(target any) {
	nt, ok := target.(NativeTarget)
	if !ok {
		w.reportBadTarget("Unwatch", target)
		return
	}
	targetID := nt.NativeViewID()
	w.mu.Lock()
	delete(w.targets, targetID)
	w.mu.Unlock()

	if _, err := w.bridge.channel.Invoke("unwatch", map[string]any{
		"watcherId": w.id,
		"targetId":  targetID,
	}); err != nil {
		w.reportInvoke("Unwatch", err)
	}
}

// Destroy releases the native watcher. Pending batches for it are dropped
// by the bridge once the watcher is deregistered.
func (w *nativeWatcher) Destroy() {
	w.bridge.remove(w.id)
	w.mu.Lock()
	w.targets = make(map[int64]any)
	w.mu.Unlock()

	if _, err := w.bridge.channel.Invoke("destroy", map[string]any{
		"watcherId": w.id,
	}); err != nil {
		w.reportInvoke("Destroy", err)
	}
}

func (w *nativeWatcher) target(id int64) any {
	w.mu.Lock()
	t := w.targets[id]
	w.mu.Unlock()
	return t
}

// decodeChange builds an observer.Change from one wire record. A record
// whose target is no longer watched decodes to nothing.
func (w *nativeWatcher) decodeChange(entry map[string]any) (observer.Change, bool) {
	targetID, ok := asInt64(entry["targetId"])
	if !ok {
		w.bridge.reportParse("ChangeRecord.targetId", entry["targetId"])
		return observer.Change{}, false
	}
	target := w.target(targetID)
	if target == nil {
		return observer.Change{}, false
	}

	change := observer.Change{
		Target:       target,
		Bounds:       rectFrom(entry["boundingRect"]),
		Intersection: rectFrom(entry["intersectionRect"]),
		RootBounds:   rectFrom(entry["rootBounds"]),
	}
	if ratio, ok := asFloat64(entry["ratio"]); ok {
		change.Ratio = ratio
	}
	if intersecting, ok := entry["isIntersecting"].(bool); ok {
		change.Intersecting = intersecting
		change.HasIntersecting = true
	}
	if ms, ok := asFloat64(entry["timeMs"]); ok {
		change.Time = time.UnixMilli(int64(ms))
	}
	return change, true
}

func (w *nativeWatcher) reportBadTarget(op string, target any) {
	errors.Report(&errors.ObserverError{
		Op:      "platform.nativeWatcher." + op,
		Kind:    errors.KindPlatform,
		Channel: watcherChannelName,
		Err:     fmt.Errorf("target %T does not implement NativeTarget", target),
	})
}

func (w *nativeWatcher) reportInvoke(op string, err error) {
	errors.Report(&errors.ObserverError{
		Op:      "platform.nativeWatcher." + op,
		Kind:    errors.KindPlatform,
		Channel: watcherChannelName,
		Err:     err,
	})
}

// NewWatcherFactory returns an observer.Factory producing native watchers
// whose change batches are delivered into reg.
func NewWatcherFactory(reg *observer.Registry) observer.Factory {
	return func(cfg observer.Config) (observer.Watcher, error) {
		b := getWatcherBridge()

		args := map[string]any{
			"rootMargin": cfg.RootMargin,
			"thresholds": observer.NormalizeThresholds(cfg.Thresholds),
		}
		if cfg.Root != nil {
			root, ok := cfg.Root.(NativeTarget)
			if !ok {
				return nil, fmt.Errorf("root %T does not implement NativeTarget", cfg.Root)
			}
			args["rootId"] = root.NativeViewID()
		}

		id := b.nextID.Add(1)
		args["watcherId"] = id

		w := &nativeWatcher{
			id:       id,
			bridge:   b,
			registry: reg,
			targets:  make(map[int64]any),
		}
		b.mu.Lock()
		b.watchers[id] = w
		b.mu.Unlock()

		if _, err := b.channel.Invoke("create", args); err != nil {
			b.remove(id)
			return nil, err
		}
		return w, nil
	}
}

// DefaultFactory returns a factory bound to the default observer registry.
func DefaultFactory() observer.Factory {
	return NewWatcherFactory(observer.Default())
}

// asInt64 reads a JSON-decoded number as int64.
func asInt64(v any) (int64, bool) {
	f, ok := v.(float64)
	if !ok {
		return 0, false
	}
	return int64(f), true
}

// asFloat64 reads a JSON-decoded number.
func asFloat64(v any) (float64, bool) {
	f, ok := v.(float64)
	return f, ok
}

// rectFrom reads a JSON-decoded rectangle payload. Missing or malformed
// payloads decode to the zero Rect.
func rectFrom(v any) geometry.Rect {
	m, ok := v.(map[string]any)
	if !ok {
		return geometry.Rect{}
	}
	var r geometry.Rect
	if f, ok := asFloat64(m["left"]); ok {
		r.Left = f
	}
	if f, ok := asFloat64(m["top"]); ok {
		r.Top = f
	}
	if f, ok := asFloat64(m["right"]); ok {
		r.Right = f
	}
	if f, ok := asFloat64(m["bottom"]); ok {
		r.Bottom = f
	}
	return r
}
