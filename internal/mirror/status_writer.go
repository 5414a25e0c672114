// internal/mirror/status_writer.go
package mirror

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tamzrod/ppe-monitor/internal/status"
)

// BlockWriter writes the station status block into holding registers.
// The first write, and the first write after any failure, asserts the
// whole block including the device name. Otherwise only changed live
// slots are written.
type BlockWriter struct {
	plan StatusPlan
	cli  endpointClient

	needFull bool
	last     []uint16 // live slots as last delivered
	nameRegs []uint16
}

func NewBlockWriter(plan StatusPlan, cli endpointClient) (*BlockWriter, error) {
	if cli == nil {
		return nil, fmt.Errorf("status writer: missing client for endpoint %s", plan.Endpoint)
	}
	if int(plan.BaseSlot)*status.SlotsPerDevice+status.SlotsPerDevice-1 > 0xFFFF {
		return nil, fmt.Errorf("status writer: base slot %d out of range", plan.BaseSlot)
	}

	return &BlockWriter{
		plan:     plan,
		cli:      cli,
		needFull: true,
		last:     make([]uint16, status.SlotLiveEnd+1),
		nameRegs: encodeDeviceNameRegs(plan.DeviceName),
	}, nil
}

func (w *BlockWriter) WriteStatus(b status.Block) error {
	regs := status.Encode(b)
	base := w.baseAddr()

	// ------------------------------------------------------------
	// Full block write (identity re-assert)
	// ------------------------------------------------------------
	if w.needFull {
		if err := w.cli.WriteRegisters(w.plan.UnitID, base, w.fullBlockRegs(regs)); err != nil {
			return fmt.Errorf("status writer: full block write failed: %w", err)
		}
		w.needFull = false
		copy(w.last, regs[:status.SlotLiveEnd+1])
		return nil
	}

	// ------------------------------------------------------------
	// Incremental: changed live slots only
	// ------------------------------------------------------------
	var errs []string

	for slot := 0; slot <= status.SlotLiveEnd; slot++ {
		if w.last[slot] == regs[slot] {
			continue
		}
		if err := w.cli.WriteRegisters(w.plan.UnitID, base+uint16(slot), []uint16{regs[slot]}); err != nil {
			errs = append(errs, fmt.Sprintf("slot%d %s write failed: %v", slot, slotName(slot), err))
			continue
		}
		w.last[slot] = regs[slot]
	}

	if len(errs) > 0 {
		// partial failure: re-assert on next write
		w.needFull = true
		return errors.New("status writer: " + strings.Join(errs, " | "))
	}
	return nil
}

func (w *BlockWriter) baseAddr() uint16 {
	return w.plan.BaseSlot * status.SlotsPerDevice
}

func (w *BlockWriter) fullBlockRegs(live []uint16) []uint16 {
	regs := make([]uint16, status.SlotsPerDevice)
	copy(regs, live[:status.SlotLiveEnd+1])

	// reserved slots stay zero; the name lives at the end of the block
	copy(regs[status.SlotDeviceNameStart:status.SlotDeviceNameEnd+1], w.nameRegs)
	return regs
}

func slotName(slot int) string {
	switch slot {
	case status.SlotPhase:
		return "phase"
	case status.SlotStatusCode:
		return "status_code"
	case status.SlotConnected:
		return "connected"
	case status.SlotRetryCount:
		return "retry_count"
	case status.SlotVideoOverlay:
		return "video_overlay"
	case status.SlotSecondsInError:
		return "seconds_in_error"
	default:
		return "reserved"
	}
}

// encodeDeviceNameRegs packs up to 16 ASCII characters into 8 registers,
// two bytes per register, big-endian.
func encodeDeviceNameRegs(name string) []uint16 {
	out := make([]uint16, status.SlotDeviceNameSlots)

	b := []byte(name)
	if len(b) > status.DeviceNameMaxChars {
		b = b[:status.DeviceNameMaxChars]
	}

	for i := range b {
		if b[i] < 0x20 || b[i] > 0x7E {
			b[i] = '?'
		}
	}

	for i := 0; i < len(b); i += 2 {
		hi := uint16(b[i]) << 8
		var lo uint16
		if i+1 < len(b) {
			lo = uint16(b[i+1])
		}
		out[i/2] = hi | lo
	}
	return out
}
