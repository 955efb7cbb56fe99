// Package state holds the per-radar StateMap and synthesises ControlSet
// snapshots from it on each heartbeat tick. Grounded on
// internal/lidar/network/listener.go's startStatsLogging periodic-goroutine
// idiom and on original_source's stateUpdated() schema walk.
package state

import (
	"sync"
	"time"
)

// ControlItem mirrors one schema entry's current value, per §3.
type ControlItem struct {
	Name         string
	CurrentValue string
	Label        string
	Kind         ControlKind
	Min          float64
	Max          float64
	EnumOptions  []string
}

// ControlSet is the ordered snapshot emitted on a heartbeat tick.
type ControlSet []ControlItem

// StateMap is the mutex-guarded last-reported-value cache, written by the
// report-receive loop and read (snapshot-copied) by the heartbeat loop.
// Entries are never removed once seen, only overwritten (§3 invariant).
type StateMap struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewStateMap returns an empty StateMap.
func NewStateMap() *StateMap {
	return &StateMap{values: make(map[string]string)}
}

// Apply overwrites name's value. Safe for concurrent use.
func (m *StateMap) Apply(name, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[name] = value
}

// Get returns the current value for name and whether it has ever been set.
func (m *StateMap) Get(name string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[name]
	return v, ok
}

// snapshot copies every value out while holding the lock, releasing it
// before the caller does anything further (§5: "release before invoking
// callbacks").
func (m *StateMap) snapshot() map[string]string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]string, len(m.values))
	for k, v := range m.values {
		out[k] = v
	}
	return out
}

// BuildControlSet walks the fixed Schema in order and emits a ControlItem
// for every entry whose required StateMap keys are present, per §4.5.
// Missing entries are silently omitted — not an error.
func (m *StateMap) BuildControlSet() ControlSet {
	snap := m.snapshot()
	var out ControlSet

	for _, e := range Schema {
		switch e.Kind {
		case Enum:
			if v, ok := snap[e.Name]; ok {
				out = append(out, ControlItem{
					Name: e.Name, CurrentValue: v, Label: e.Label,
					Kind: Enum, EnumOptions: e.EnumValues,
				})
			}
		case Float:
			if v, ok := snap[e.Name]; ok {
				out = append(out, ControlItem{
					Name: e.Name, CurrentValue: v, Label: e.Label,
					Kind: Float, Min: e.Min, Max: e.Max,
				})
			}
		case FloatWithAuto:
			v, vok := snap[e.Name]
			mode, mok := snap[e.ModeName]
			if vok && mok {
				current := v
				if mode == "auto" {
					current = "auto"
				}
				out = append(out, ControlItem{
					Name: e.Name, CurrentValue: current, Label: e.Label,
					Kind: FloatWithAuto, Min: e.Min, Max: e.Max,
				})
			}
		}
	}
	return out
}

// Heartbeat drives periodic ControlSet publication: once per second, if a
// report has been seen within the last 5 seconds, onState is invoked with a
// fresh snapshot; otherwise the tick is a no-op (§4.4).
type Heartbeat struct {
	states       *StateMap
	onState      func(ControlSet)
	lastReportAt atomicTime
	interval     time.Duration
	staleAfter   time.Duration
}

// NewHeartbeat returns a Heartbeat publishing through onState.
func NewHeartbeat(states *StateMap, onState func(ControlSet)) *Heartbeat {
	return &Heartbeat{
		states:     states,
		onState:    onState,
		interval:   time.Second,
		staleAfter: 5 * time.Second,
	}
}

// NoteReport records that a report frame was just decoded successfully.
// Called from the report-receive goroutine.
func (h *Heartbeat) NoteReport(at time.Time) {
	h.lastReportAt.Store(at)
}

// Run ticks once per second until the caller closes the stop channel it
// passed in (see
// internal/haloradar/radar for the goroutine that owns this loop).
func (h *Heartbeat) Run(stop <-chan struct{}) {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case now := <-ticker.C:
			if last, ok := h.lastReportAt.Load(); ok && now.Sub(last) <= h.staleAfter {
				h.onState(h.states.BuildControlSet())
			}
		}
	}
}
