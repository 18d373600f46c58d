// internal/writer/status_writer.go
package writer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tamzrod/potentiostat-acquirer/internal/status"
)

// DeviceStatusWriter mirrors one channel's snapshot into holding registers.
type DeviceStatusWriter struct {
	plan StatusPlan
	cli  registerClient

	needFull bool
	last     []uint16 // live slots as last delivered
	nameRegs []uint16
}

// NewDeviceStatusWriter builds a writer that re-asserts the full block on
// its first successful write.
func NewDeviceStatusWriter(plan StatusPlan, cli registerClient) (*DeviceStatusWriter, error) {
	if cli == nil {
		return nil, fmt.Errorf("status writer: missing client for endpoint %s", plan.Endpoint)
	}
	if uint32(plan.BaseSlot)*status.SlotsPerDevice+status.SlotsPerDevice > 0x10000 {
		return nil, fmt.Errorf("status writer: slot %d out of register range", plan.BaseSlot)
	}
	return &DeviceStatusWriter{
		plan:     plan,
		cli:      cli,
		needFull: true,
		nameRegs: status.EncodeDeviceName(plan.DeviceName),
	}, nil
}

// WriteStatus delivers a snapshot. Unchanged runs of registers are skipped;
// each changed run is written in one request so 32-bit pairs stay whole.
// On any write failure, the next call re-asserts the full block.
func (sw *DeviceStatusWriter) WriteStatus(s status.Snapshot) error {
	if sw == nil {
		return errors.New("status writer: disabled")
	}

	// ------------------------------------------------------------
	// HARD INVARIANT: seconds_in_error MUST NOT wrap
	// ------------------------------------------------------------
	if s.SecondsInError > status.MaxSecondsInError {
		s.SecondsInError = status.MaxSecondsInError
	}

	base := sw.baseAddr()
	live := status.Encode(s)

	// ------------------------------------------------------------
	// Full block write (identity re-assert)
	// ------------------------------------------------------------
	if sw.needFull {
		if err := sw.cli.WriteRegisters(sw.plan.UnitID, base, status.Block(s, sw.nameRegs)); err != nil {
			return fmt.Errorf("status writer: full block write failed: %w", err)
		}
		sw.needFull = false
		sw.last = live
		return nil
	}

	var errs []string

	for _, r := range widenPairs(changedRuns(sw.last, live)) {
		regs := live[r.start:r.end]
		if err := sw.cli.WriteRegisters(sw.plan.UnitID, base+uint16(r.start), regs); err != nil {
			errs = append(errs, fmt.Sprintf("slots %d-%d write failed: %v", r.start, r.end-1, err))
			continue
		}
		copy(sw.last[r.start:r.end], regs)
	}

	if len(errs) > 0 {
		// Any partial failure introduces doubt: re-assert on next call.
		sw.needFull = true
		return errors.New("status writer: " + strings.Join(errs, " | "))
	}

	return nil
}

func (sw *DeviceStatusWriter) baseAddr() uint16 {
	// Each channel owns a fixed SlotsPerDevice block.
	return sw.plan.BaseSlot * status.SlotsPerDevice
}

type span struct{ start, end int } // [start, end)

// changedRuns returns the maximal runs of differing registers.
func changedRuns(prev, next []uint16) []span {
	var out []span
	start := -1
	for i := range next {
		differs := i >= len(prev) || prev[i] != next[i]
		switch {
		case differs && start < 0:
			start = i
		case !differs && start >= 0:
			out = append(out, span{start, i})
			start = -1
		}
	}
	if start >= 0 {
		out = append(out, span{start, len(next)})
	}
	return out
}

// pairs are the 32-bit values split over two registers (hi, lo).
var pairs = [][2]int{
	{status.SlotRowsHi, status.SlotRowsLo},
	{status.SlotEweHi, status.SlotEweLo},
}

// widenPairs grows runs so no 32-bit value is written half.
// Runs that become adjacent or overlap are merged.
func widenPairs(runs []span) []span {
	out := make([]span, 0, len(runs))
	for _, r := range runs {
		for _, p := range pairs {
			if r.start == p[1] {
				r.start = p[0]
			}
			if r.end-1 == p[0] {
				r.end = p[1] + 1
			}
		}
		if n := len(out); n > 0 && r.start <= out[n-1].end {
			if r.end > out[n-1].end {
				out[n-1].end = r.end
			}
			continue
		}
		out = append(out, r)
	}
	return out
}
