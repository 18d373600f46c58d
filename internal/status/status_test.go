// internal/status/status_test.go
package status

import (
	"math"
	"testing"
)

func TestEncode_Layout(t *testing.T) {
	s := Snapshot{
		Health:         HealthError,
		LastErrorCode:  -200,
		SecondsInError: 12,
		ChannelState:   1,
		TechniqueID:    101,
		Rows:           0x00012345,
		LastEwe:        1.5,
	}
	regs := Encode(s)

	if len(regs) != SlotLiveEnd+1 {
		t.Fatalf("len=%d", len(regs))
	}
	if regs[SlotHealthCode] != HealthError || regs[SlotSecondsInError] != 12 {
		t.Fatalf("regs=%v", regs)
	}
	// -200 as two's complement
	if regs[SlotLastErrorCode] != 0xFF38 {
		t.Fatalf("error code reg=0x%04x", regs[SlotLastErrorCode])
	}
	if regs[SlotChannelState] != 1 || regs[SlotTechniqueID] != 101 {
		t.Fatalf("regs=%v", regs)
	}
	if regs[SlotRowsHi] != 0x0001 || regs[SlotRowsLo] != 0x2345 {
		t.Fatalf("rows regs=0x%04x 0x%04x", regs[SlotRowsHi], regs[SlotRowsLo])
	}
	bits := uint32(regs[SlotEweHi])<<16 | uint32(regs[SlotEweLo])
	if math.Float32frombits(bits) != 1.5 {
		t.Fatalf("ewe bits=0x%08x", bits)
	}
}

func TestEncodeDeviceName(t *testing.T) {
	regs := EncodeDeviceName("AB\x01")
	if regs[0] != uint16('A')<<8|uint16('B') {
		t.Fatalf("reg0=0x%04x", regs[0])
	}
	// control characters are replaced, odd length is zero padded
	if regs[1] != uint16('?')<<8 {
		t.Fatalf("reg1=0x%04x", regs[1])
	}
	for i := 2; i < SlotDeviceNameSlots; i++ {
		if regs[i] != 0 {
			t.Fatalf("reg%d=0x%04x", i, regs[i])
		}
	}

	long := EncodeDeviceName("0123456789abcdefXYZ")
	if long[7] != uint16('e')<<8|uint16('f') {
		t.Fatalf("not truncated at 16 chars: 0x%04x", long[7])
	}
}

func TestBlock(t *testing.T) {
	regs := Block(Snapshot{Health: HealthOK}, EncodeDeviceName("cell"))
	if len(regs) != SlotsPerDevice {
		t.Fatalf("len=%d", len(regs))
	}
	if regs[SlotHealthCode] != HealthOK || regs[SlotDeviceNameStart] != uint16('c')<<8|uint16('e') {
		t.Fatalf("regs=%v", regs)
	}
	for i := SlotReservedStart; i <= SlotReservedEnd; i++ {
		if regs[i] != 0 {
			t.Fatalf("reserved slot %d = %d", i, regs[i])
		}
	}
	if regs[SlotsPerDevice-1] != 0 {
		t.Fatalf("trailing slot not zero")
	}
}

func TestTracker_Lifecycle(t *testing.T) {
	tr := NewTracker()
	if tr.Snapshot().Health != HealthUnknown {
		t.Fatalf("initial health=%d", tr.Snapshot().Health)
	}

	if !tr.Started(1, 100) {
		t.Fatalf("start must change the snapshot")
	}
	if tr.Tick() {
		t.Fatalf("tick while healthy must not change anything")
	}

	if !tr.Batch(10, 0.5, true) || !tr.Batch(5, 0.6, true) {
		t.Fatalf("batches must change the snapshot")
	}
	if s := tr.Snapshot(); s.Rows != 15 || s.LastEwe != 0.6 {
		t.Fatalf("snapshot=%+v", s)
	}

	if !tr.Failed(-200, 0) {
		t.Fatalf("failure must change the snapshot")
	}
	if tr.Failed(-200, 0) {
		t.Fatalf("repeated identical failure must not change the snapshot")
	}
	tr.Tick()
	tr.Tick()
	if s := tr.Snapshot(); s.SecondsInError != 2 || s.LastErrorCode != -200 {
		t.Fatalf("snapshot=%+v", s)
	}

	// a new batch is recovery
	tr.Batch(0, 0, false)
	if s := tr.Snapshot(); s.Health != HealthOK || s.SecondsInError != 0 || s.LastErrorCode != 0 || s.LastEwe != 0.6 {
		t.Fatalf("snapshot after recovery=%+v", s)
	}

	if !tr.Disabled() || tr.Snapshot().Health != HealthDisabled {
		t.Fatalf("disabled not recorded")
	}
}

func TestTracker_SecondsSaturate(t *testing.T) {
	tr := NewTracker()
	tr.Failed(-1, 0)
	tr.snap.SecondsInError = MaxSecondsInError - 1

	if !tr.Tick() {
		t.Fatalf("tick below max must advance")
	}
	if tr.Tick() {
		t.Fatalf("tick at max must not advance")
	}
	if tr.Snapshot().SecondsInError != MaxSecondsInError {
		t.Fatalf("seconds=%d", tr.Snapshot().SecondsInError)
	}
}
