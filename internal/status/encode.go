// internal/status/encode.go
package status

import "math"

// Encode converts a Snapshot into the live slots of a status block
// (0..SlotLiveEnd). Reserved and device-name slots are not included.
// No IO. No side effects.
func Encode(s Snapshot) []uint16 {
	regs := make([]uint16, SlotLiveEnd+1)

	regs[SlotHealthCode] = s.Health
	regs[SlotLastErrorCode] = uint16(s.LastErrorCode)
	regs[SlotSecondsInError] = s.SecondsInError
	regs[SlotChannelState] = s.ChannelState
	regs[SlotTechniqueID] = s.TechniqueID
	regs[SlotRowsHi] = uint16(s.Rows >> 16)
	regs[SlotRowsLo] = uint16(s.Rows)

	ewe := math.Float32bits(s.LastEwe)
	regs[SlotEweHi] = uint16(ewe >> 16)
	regs[SlotEweLo] = uint16(ewe)

	return regs
}

// EncodeDeviceName packs up to 16 ASCII characters into 8 registers.
// Each register stores two ASCII bytes in big-endian order.
func EncodeDeviceName(name string) []uint16 {
	out := make([]uint16, SlotDeviceNameSlots)

	b := []byte(name)
	if len(b) > DeviceNameMaxChars {
		b = b[:DeviceNameMaxChars]
	}

	// sanitize to printable ASCII
	for i := 0; i < len(b); i++ {
		if b[i] < 0x20 || b[i] > 0x7E {
			b[i] = '?'
		}
	}

	for i := 0; i < DeviceNameMaxChars; i += 2 {
		var hi, lo byte
		if i < len(b) {
			hi = b[i]
		}
		if i+1 < len(b) {
			lo = b[i+1]
		}
		out[i/2] = uint16(hi)<<8 | uint16(lo)
	}

	return out
}

// Block returns the full SlotsPerDevice block: live slots, zeroed reserved
// slots and the pre-encoded device name.
func Block(s Snapshot, nameRegs []uint16) []uint16 {
	regs := make([]uint16, SlotsPerDevice)
	copy(regs, Encode(s))
	for i := 0; i < SlotDeviceNameSlots && i < len(nameRegs); i++ {
		regs[SlotDeviceNameStart+i] = nameRegs[i]
	}
	return regs
}
