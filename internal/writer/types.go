// internal/writer/types.go
package writer

import "github.com/tamzrod/potentiostat-acquirer/internal/status"

// StatusPlan locates one channel's status block in a Modbus memory.
type StatusPlan struct {
	Endpoint   string
	UnitID     uint8
	BaseSlot   uint16 // block index; address = BaseSlot * status.SlotsPerDevice
	DeviceName string
}

// StatusWriter is the delivery-only contract for channel status.
// It receives a snapshot and writes it verbatim.
// No logic, no interpretation.
type StatusWriter interface {
	WriteStatus(s status.Snapshot) error
}

// registerClient is the exact contract the status writer uses.
// *modbus.EndpointClient satisfies it.
type registerClient interface {
	WriteRegisters(unitID uint8, addr uint16, regs []uint16) error
}
