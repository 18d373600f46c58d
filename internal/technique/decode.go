// internal/technique/decode.go
package technique

import (
	"fmt"

	"github.com/tamzrod/potentiostat-acquirer/internal/eclib"
)

// Row is one decoded measurement point.
type Row interface {
	// Seconds is the absolute time of the point.
	Seconds() float64
	// WorkingPotential is Ewe in volts.
	WorkingPotential() float32
	// Fields is the number of values in the row.
	Fields() int
	// Values returns the row in column order.
	Values() []float64
}

// OCVRow is an open-circuit voltage point. Ece is nil on VMP4 devices.
type OCVRow struct {
	Time float64  `json:"time"`
	Ewe  float32  `json:"ewe"`
	Ece  *float32 `json:"ece,omitempty"`
}

func (r OCVRow) Seconds() float64          { return r.Time }
func (r OCVRow) WorkingPotential() float32 { return r.Ewe }

func (r OCVRow) Fields() int {
	if r.Ece != nil {
		return 3
	}
	return 2
}

func (r OCVRow) Values() []float64 {
	if r.Ece != nil {
		return []float64{r.Time, float64(r.Ewe), float64(*r.Ece)}
	}
	return []float64{r.Time, float64(r.Ewe)}
}

// ChronoRow is a chrono-amperometry / chrono-potentiometry point.
type ChronoRow struct {
	Time  float64 `json:"time"`
	Ewe   float32 `json:"ewe"`
	I     float32 `json:"i"`
	Cycle int32   `json:"cycle"`
}

func (r ChronoRow) Seconds() float64          { return r.Time }
func (r ChronoRow) WorkingPotential() float32 { return r.Ewe }
func (r ChronoRow) Fields() int               { return 4 }

func (r ChronoRow) Values() []float64 {
	return []float64{r.Time, float64(r.Ewe), float64(r.I), float64(r.Cycle)}
}

// DecodeError is a row-local conversion failure. The row is dropped.
type DecodeError struct {
	Row    int
	Column string
	Raw    uint32
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("technique: decode row %d %s raw=0x%08x: %v", e.Row, e.Column, e.Raw, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Ticks joins the split 64-bit tick counter.
func Ticks(hi, lo uint32) uint64 {
	return uint64(hi)<<32 | uint64(lo)
}

// Timestamp converts a tick count to absolute seconds.
func Timestamp(startTime float64, timeBase float32, ticks uint64) float64 {
	return startTime + float64(timeBase)*float64(ticks)
}

// minCols is the number of words each technique reads per row.
func minCols(id eclib.TechniqueID, f eclib.Family) int {
	switch id {
	case eclib.TechOCV:
		if f.VMP4 {
			return 3
		}
		return 4
	case eclib.TechCA, eclib.TechCP:
		return 5
	default:
		return 0
	}
}

// DecodeRow decodes the row starting at word offset off.
// It returns (nil, nil) for techniques without a decoder.
// No partial row is ever returned alongside an error.
func DecodeRow(
	id eclib.TechniqueID,
	f eclib.Family,
	buf []uint32,
	off int,
	infos eclib.DataInfos,
	cv eclib.CurrentValues,
	conv eclib.Converter,
) (Row, error) {
	need := minCols(id, f)
	if need == 0 {
		return nil, nil
	}
	if off < 0 || off+need > len(buf) {
		return nil, &DecodeError{
			Row: rowIndex(off, infos), Column: "buffer",
			Err: fmt.Errorf("row needs words %d..%d, buffer has %d", off, off+need-1, len(buf)),
		}
	}

	w := buf[off : off+need]
	t := Timestamp(infos.StartTime, cv.TimeBase, Ticks(w[0], w[1]))

	convert := func(col string, raw uint32) (float32, error) {
		v, err := conv.ConvertNumericIntoSingle(raw)
		if err != nil {
			return 0, &DecodeError{Row: rowIndex(off, infos), Column: col, Raw: raw, Err: err}
		}
		return v, nil
	}

	switch id {
	case eclib.TechOCV:
		ewe, err := convert("ewe", w[2])
		if err != nil {
			return nil, err
		}
		row := OCVRow{Time: t, Ewe: ewe}
		if !f.VMP4 {
			ece, err := convert("ece", w[3])
			if err != nil {
				return nil, err
			}
			row.Ece = &ece
		}
		return row, nil

	default: // CA, CP share one layout
		ewe, err := convert("ewe", w[2])
		if err != nil {
			return nil, err
		}
		i, err := convert("i", w[3])
		if err != nil {
			return nil, err
		}
		return ChronoRow{Time: t, Ewe: ewe, I: i, Cycle: int32(w[4])}, nil
	}
}

func rowIndex(off int, infos eclib.DataInfos) int {
	if infos.Cols <= 0 {
		return 0
	}
	return off / int(infos.Cols)
}

// Batch is the decoded result of one data poll.
type Batch struct {
	Infos   eclib.DataInfos
	Current eclib.CurrentValues
	Rows    []Row
	Dropped []error
}

// DecodeBatch decodes every row in buf, preserving order.
// Rows that fail conversion are collected in Dropped; techniques without
// a decoder produce an empty batch. Neither is an error for the caller.
func DecodeBatch(
	f eclib.Family,
	buf []uint32,
	infos eclib.DataInfos,
	cv eclib.CurrentValues,
	conv eclib.Converter,
) Batch {
	b := Batch{Infos: infos, Current: cv}
	if infos.Rows <= 0 || infos.Cols <= 0 {
		return b
	}
	need := minCols(infos.TechniqueID, f)
	if need == 0 {
		return b
	}

	cols := int(infos.Cols)
	rows := int(infos.Rows)
	if cols < need {
		b.Dropped = append(b.Dropped, &DecodeError{
			Column: "layout",
			Err:    fmt.Errorf("%s on %s needs %d words per row, got %d", infos.TechniqueID, f, need, cols),
		})
		return b
	}
	if fit := len(buf) / cols; rows > fit {
		b.Dropped = append(b.Dropped, &DecodeError{
			Row: fit, Column: "buffer",
			Err: fmt.Errorf("%d rows x %d cols exceeds %d words, truncated to %d rows", rows, cols, len(buf), fit),
		})
		rows = fit
	}

	b.Rows = make([]Row, 0, rows)
	for i := 0; i < rows; i++ {
		r, err := DecodeRow(infos.TechniqueID, f, buf, i*cols, infos, cv, conv)
		if err != nil {
			b.Dropped = append(b.Dropped, err)
			continue
		}
		if r != nil {
			b.Rows = append(b.Rows, r)
		}
	}
	return b
}
