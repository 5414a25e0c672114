// internal/status/encode.go
package status

// Block is exactly what a field writer is allowed to deliver.
// It contains no logic and no memory of the past beyond current state.
type Block struct {
	Phase          uint16
	StatusCode     uint16
	Connected      bool
	RetryCount     uint16
	VideoOverlay   bool
	SecondsInError uint16
}

// Encode converts a Block into the live slots of a status block.
// The device name is not part of the encoding.
// No IO. No side effects.
func Encode(b Block) []uint16 {
	regs := make([]uint16, SlotsPerDevice)

	regs[SlotPhase] = b.Phase
	regs[SlotStatusCode] = b.StatusCode
	regs[SlotConnected] = boolReg(b.Connected)
	regs[SlotRetryCount] = b.RetryCount
	regs[SlotVideoOverlay] = boolReg(b.VideoOverlay)
	regs[SlotSecondsInError] = b.SecondsInError

	return regs
}

func boolReg(v bool) uint16 {
	if v {
		return 1
	}
	return 0
}
