package status

import (
	"testing"
	"time"
)

func TestParse(t *testing.T) {
	cases := map[string]Status{
		"COMPLETE":     Complete,
		"no_helmet":    NoHelmet,
		"NO_Vest":      NoVest,
		"":             Unknown,
		"LOW_BATTERY":  Status("low_battery"),
		"initializing": Initializing,
	}

	for raw, want := range cases {
		if got := Parse(raw); got != want {
			t.Fatalf("Parse(%q) = %q, want %q", raw, got, want)
		}
	}
}

func TestNoHelmetDisplay(t *testing.T) {
	snap := NewSnapshot(Parse("NO_HELMET"), time.Time{})

	if snap.Icon != "⚠️" {
		t.Fatalf("icon = %q, want ⚠️", snap.Icon)
	}
	if snap.Text != "NO HELMET" {
		t.Fatalf("text = %q, want NO HELMET", snap.Text)
	}
	if snap.CSSState != NoHelmet {
		t.Fatalf("css state = %q, want %q", snap.CSSState, NoHelmet)
	}
}

func TestUnrecognizedStatusKeptVerbatim(t *testing.T) {
	s := Parse("Camera_Blocked")

	if s.Known() {
		t.Fatalf("%q should not be known", s)
	}
	if Icon(s) != IconUnrecognized {
		t.Fatalf("icon = %q, want %q", Icon(s), IconUnrecognized)
	}
	if Text(s) != "CAMERA BLOCKED" {
		t.Fatalf("text = %q, want CAMERA BLOCKED", Text(s))
	}
	if Code(s) != 0 {
		t.Fatalf("code = %d, want 0", Code(s))
	}
}

func TestUnknownUsesFallbackIcon(t *testing.T) {
	if Icon(Unknown) != IconUnrecognized {
		t.Fatalf("unknown icon = %q", Icon(Unknown))
	}
	if Text(Unknown) != "UNKNOWN" {
		t.Fatalf("unknown text = %q", Text(Unknown))
	}
}

func TestErrorSnapshots(t *testing.T) {
	e := ErrorSnapshot()
	if e.Text != "CONNECTION ERROR" || e.Icon != "❌" || e.CSSState != Error {
		t.Fatalf("unexpected error snapshot: %+v", e)
	}

	se := SystemErrorSnapshot()
	if se.Text != "SYSTEM ERROR" || se.Icon != "⚠️" || se.CSSState != NoEquipment {
		t.Fatalf("unexpected system error snapshot: %+v", se)
	}
}

func TestEncodeLiveSlots(t *testing.T) {
	regs := Encode(Block{
		Phase:          PhaseErrorTerminal.Code(),
		StatusCode:     Code(NoVest),
		Connected:      false,
		RetryCount:     6,
		VideoOverlay:   true,
		SecondsInError: 12,
	})

	if len(regs) != SlotsPerDevice {
		t.Fatalf("expected %d regs, got %d", SlotsPerDevice, len(regs))
	}

	want := map[int]uint16{
		SlotPhase:          PhaseCodeErrorTerminal,
		SlotStatusCode:     2,
		SlotConnected:      0,
		SlotRetryCount:     6,
		SlotVideoOverlay:   1,
		SlotSecondsInError: 12,
	}
	for slot, v := range want {
		if regs[slot] != v {
			t.Fatalf("slot %d = %d, want %d", slot, regs[slot], v)
		}
	}

	for slot := SlotReservedStart; slot < SlotsPerDevice; slot++ {
		if regs[slot] != 0 {
			t.Fatalf("slot %d should be zero, got %d", slot, regs[slot])
		}
	}
}

func TestServerReportedErrorUsesFallbackIcon(t *testing.T) {
	snap := NewSnapshot(Parse("ERROR"), time.Time{})

	if snap.Icon != IconUnrecognized {
		t.Fatalf("icon = %q, want %q", snap.Icon, IconUnrecognized)
	}
	if snap.Text != "ERROR" || snap.CSSState != Error {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
	if ErrorSnapshot().Icon != "❌" {
		t.Fatalf("terminal display lost its icon")
	}
}
