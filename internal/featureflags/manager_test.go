package featureflags

import "testing"

func TestEnabled_BooleanValues(t *testing.T) {
	m := NewManager("a=on,b=off,c=true,d=false,e=1,f=0")

	if !m.Enabled("a", 1) || !m.Enabled("c", 1) || !m.Enabled("e", 1) {
		t.Fatal("expected enabled boolean values to evaluate true")
	}
	if m.Enabled("b", 1) || m.Enabled("d", 1) || m.Enabled("f", 1) {
		t.Fatal("expected disabled boolean values to evaluate false")
	}
}

func TestEnabled_PercentageValues(t *testing.T) {
	m := NewManager("always=100%,never=0%,canary=25%")

	if !m.Enabled("always", 1) {
		t.Fatal("100% rollout should always be enabled")
	}
	if m.Enabled("never", 1) {
		t.Fatal("0% rollout should always be disabled")
	}

	first := m.Enabled("canary", 42)
	for i := 0; i < 5; i++ {
		if got := m.Enabled("canary", 42); got != first {
			t.Fatal("rollout evaluation must be deterministic per user")
		}
	}

	if m.Enabled("canary", 0) {
		t.Fatal("percentage rollout requires non-zero userID")
	}
}

func TestParseAndSnapshot(t *testing.T) {
	m := NewManager(" bad ,x=on, y = 20% ,z=off ")

	raw := m.Raw()
	if len(raw) != 3 {
		t.Fatalf("expected 3 parsed flags, got %d", len(raw))
	}
	if raw["x"] != "on" || raw["y"] != "20%" || raw["z"] != "off" {
		t.Fatalf("unexpected raw flags: %#v", raw)
	}

	snap := m.Snapshot(123)
	if len(snap) != 3 {
		t.Fatalf("expected snapshot size 3, got %d", len(snap))
	}
}

func TestDefaults_ApplyOnlyWhenUnconfigured(t *testing.T) {
	m := NewManager("realtime=off").
		WithDefault("registration", true).
		WithDefault("realtime", true)

	if !m.Enabled("registration", 0) {
		t.Fatal("unconfigured flag should use its default")
	}
	if m.Enabled("realtime", 7) {
		t.Fatal("configured value must override the default")
	}
	if m.Configured("registration") || !m.Configured("REALTIME") {
		t.Fatal("Configured should only report flags present in the list")
	}
	if m.Enabled("unknown", 1) {
		t.Fatal("flags without config or default are off")
	}

	snap := m.Snapshot(1)
	if len(snap) != 2 || !snap["registration"] || snap["realtime"] {
		t.Fatalf("unexpected snapshot: %#v", snap)
	}
}

func TestNilManager(t *testing.T) {
	var m *Manager
	if m.Enabled("registration", 1) || m.Configured("registration") {
		t.Fatal("nil manager must report everything off")
	}
}
