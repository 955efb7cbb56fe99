package state

import (
	"testing"
	"time"
)

func TestBuildControlSet_ExampleFromSpec(t *testing.T) {
	m := NewStateMap()
	m.Apply("status", "transmit")
	m.Apply("range", "750")
	m.Apply("gain", "42")
	m.Apply("gain_mode", "auto")

	cs := m.BuildControlSet()
	if len(cs) != 3 {
		t.Fatalf("len(ControlSet) = %d, want 3: %+v", len(cs), cs)
	}

	if cs[0].Name != "status" || cs[0].Kind != Enum || cs[0].CurrentValue != "transmit" {
		t.Errorf("item 0 = %+v, want status/Enum/transmit", cs[0])
	}
	if cs[1].Name != "range" || cs[1].Kind != Float || cs[1].CurrentValue != "750" {
		t.Errorf("item 1 = %+v, want range/Float/750", cs[1])
	}
	if cs[2].Name != "gain" || cs[2].Kind != FloatWithAuto || cs[2].CurrentValue != "auto" {
		t.Errorf("item 2 = %+v, want gain/FloatWithAuto/auto", cs[2])
	}
}

func TestBuildControlSet_MissingEntriesOmitted(t *testing.T) {
	m := NewStateMap()
	cs := m.BuildControlSet()
	if len(cs) != 0 {
		t.Fatalf("empty StateMap should produce empty ControlSet, got %+v", cs)
	}
}

func TestBuildControlSet_FloatWithAutoRequiresBothKeys(t *testing.T) {
	m := NewStateMap()
	m.Apply("gain", "42") // gain_mode never set
	cs := m.BuildControlSet()
	if len(cs) != 0 {
		t.Fatalf("gain without gain_mode should be omitted, got %+v", cs)
	}
}

func TestStateMap_ValuesNeverRemoved(t *testing.T) {
	m := NewStateMap()
	m.Apply("status", "transmit")
	m.Apply("status", "standby")
	v, ok := m.Get("status")
	if !ok || v != "standby" {
		t.Fatalf("status = %q, ok=%v, want standby/true", v, ok)
	}
}

func TestHeartbeat_PublishesWithinStaleWindow(t *testing.T) {
	m := NewStateMap()
	m.Apply("status", "transmit")

	published := make(chan ControlSet, 1)
	hb := NewHeartbeat(m, func(cs ControlSet) { published <- cs })
	hb.interval = 10 * time.Millisecond
	hb.NoteReport(time.Now())

	stop := make(chan struct{})
	go hb.Run(stop)
	defer close(stop)

	select {
	case cs := <-published:
		if len(cs) != 1 || cs[0].Name != "status" {
			t.Errorf("published ControlSet = %+v", cs)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("heartbeat did not publish within timeout")
	}
}

func TestHeartbeat_SilentWhenReportStale(t *testing.T) {
	m := NewStateMap()
	m.Apply("status", "transmit")

	published := make(chan ControlSet, 1)
	hb := NewHeartbeat(m, func(cs ControlSet) { published <- cs })
	hb.interval = 10 * time.Millisecond
	hb.staleAfter = 5 * time.Millisecond
	hb.NoteReport(time.Now().Add(-time.Hour))

	stop := make(chan struct{})
	go hb.Run(stop)
	defer close(stop)

	select {
	case cs := <-published:
		t.Fatalf("expected no publication while stale, got %+v", cs)
	case <-time.After(100 * time.Millisecond):
		// expected: heartbeat stayed silent
	}
}
