// internal/status/status.go
package status

import "strings"

// Status is the detection state reported by the server.
// Unrecognized values are kept verbatim (lower-cased) and never dropped.
type Status string

const (
	Complete     Status = "complete"
	NoVest       Status = "no_vest"
	NoHelmet     Status = "no_helmet"
	NoEquipment  Status = "no_equipment"
	NoPerson     Status = "no_person"
	Initializing Status = "initializing"
	Unknown      Status = "unknown"
	Error        Status = "error"
)

// IconUnrecognized is shown for any status without a dedicated glyph.
const IconUnrecognized = "❓"

var icons = map[Status]string{
	Complete:     "✅",
	NoVest:       "⚠️",
	NoHelmet:     "⚠️",
	NoEquipment:  "❌",
	NoPerson:     "❌",
	Initializing: "🔄",
}

// register codes for field outputs; 0 is reserved for unknown/unrecognized
var codes = map[Status]uint16{
	Complete:     1,
	NoVest:       2,
	NoHelmet:     3,
	NoEquipment:  4,
	NoPerson:     5,
	Initializing: 6,
	Error:        7,
}

// Parse normalizes a raw server value. Empty means unknown.
func Parse(raw string) Status {
	if raw == "" {
		return Unknown
	}
	return Status(strings.ToLower(raw))
}

// Known reports whether s is one of the declared values.
func (s Status) Known() bool {
	switch s {
	case Complete, NoVest, NoHelmet, NoEquipment, NoPerson, Initializing, Unknown, Error:
		return true
	}
	return false
}

// Icon returns the display glyph for s.
func Icon(s Status) string {
	if icon, ok := icons[s]; ok {
		return icon
	}
	return IconUnrecognized
}

// Text renders s as a label: underscores become spaces, upper-cased.
func Text(s Status) string {
	return strings.ToUpper(strings.ReplaceAll(string(s), "_", " "))
}

// Code returns the register code for s.
func Code(s Status) uint16 {
	return codes[s]
}

// ---- PHASE ----

// Phase is the composite display/connection state of the monitor.
type Phase string

const (
	PhaseInitializing  Phase = "initializing"
	PhaseNominal       Phase = "nominal"
	PhaseDisconnected  Phase = "disconnected"
	PhaseErrorTerminal Phase = "error_terminal"
)

// Code returns the register code for p.
func (p Phase) Code() uint16 {
	switch p {
	case PhaseNominal:
		return PhaseCodeNominal
	case PhaseDisconnected:
		return PhaseCodeDisconnected
	case PhaseErrorTerminal:
		return PhaseCodeErrorTerminal
	default:
		return PhaseCodeInitializing
	}
}
