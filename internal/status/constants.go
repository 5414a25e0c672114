// internal/status/constants.go
package status

// Station status block layout constants.
// These values define the field protocol and MUST NOT be configurable.

// ---- BLOCK GEOMETRY ----

// SlotsPerDevice is the fixed number of logical slots per station.
const SlotsPerDevice = 20

// ---- SLOT INDICES ----

// SlotPhase holds the monitor phase code.
const SlotPhase = 0

// SlotStatusCode holds the last displayed detection status code.
const SlotStatusCode = 1

// SlotConnected is 1 while the server is reachable.
const SlotConnected = 2

// SlotRetryCount holds the consecutive poll failure count.
const SlotRetryCount = 3

// SlotVideoOverlay is 1 while the stream failure overlay is shown.
const SlotVideoOverlay = 4

// SlotSecondsInError holds the duration (in seconds) spent outside nominal.
const SlotSecondsInError = 5

// SlotLiveEnd is the last slot that carries live values (inclusive).
const SlotLiveEnd = SlotSecondsInError

// ---- RESERVED RANGE ----

// Slots 6–10 are reserved for future use.
const SlotReservedStart = 6
const SlotReservedEnd = 10

// ---- DEVICE NAME ----

// SlotDeviceNameStart is the first slot used for the station name.
// The name is always placed at the END of the status block.
const SlotDeviceNameStart = 11

// SlotDeviceNameSlots is the number of slots reserved for the station name.
const SlotDeviceNameSlots = 8

// SlotDeviceNameEnd is the last slot used for the station name (inclusive).
const SlotDeviceNameEnd = SlotDeviceNameStart + SlotDeviceNameSlots - 1

// ---- LIMITS ----

// DeviceNameMaxChars is the maximum number of ASCII characters stored for the name.
const DeviceNameMaxChars = 16

// SecondsInErrorMax is the saturation value of SlotSecondsInError.
const SecondsInErrorMax uint16 = 65535

// ---- PHASE CODES ----

const PhaseCodeInitializing uint16 = 0
const PhaseCodeNominal uint16 = 1
const PhaseCodeDisconnected uint16 = 2
const PhaseCodeErrorTerminal uint16 = 3
