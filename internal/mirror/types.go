// internal/mirror/types.go
package mirror

import "github.com/tamzrod/ppe-monitor/internal/status"

// endpointClient is the minimal write surface of a Modbus endpoint.
type endpointClient interface {
	WriteRegisters(unitID uint8, addr uint16, regs []uint16) error
}

// StatusPlan is the fully-built placement of the station status block.
type StatusPlan struct {
	Endpoint   string
	UnitID     uint8
	BaseSlot   uint16
	DeviceName string
}

// StatusWriter is the delivery-only contract for the status block.
// It receives a block and writes it verbatim.
type StatusWriter interface {
	WriteStatus(b status.Block) error
}
