// internal/technique/technique_test.go
package technique

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/tamzrod/potentiostat-acquirer/internal/ecc"
	"github.com/tamzrod/potentiostat-acquirer/internal/eclib"
)

var (
	vmp3 = eclib.Family{VMP4: false}
	vmp4 = eclib.Family{VMP4: true}
)

// ---- fake converter ----

// bitsConverter decodes raw words as IEEE-754 bits and fails on listed raws.
type bitsConverter struct {
	fail  map[uint32]bool
	calls int
}

func (c *bitsConverter) ConvertNumericIntoSingle(raw uint32) (float32, error) {
	c.calls++
	if c.fail[raw] {
		return 0, eclib.NewDeviceError("convert numeric", eclib.ErrGenInvalidParameters)
	}
	return math.Float32frombits(raw), nil
}

func f32(v float32) uint32 { return math.Float32bits(v) }

// ---- build ----

func labels(l *ecc.ParamList) []string {
	var out []string
	for _, p := range l.Params() {
		out = append(out, p.Label)
	}
	return out
}

func TestBuild_OCVOrderAndFile(t *testing.T) {
	for _, fam := range []eclib.Family{vmp3, vmp4} {
		l, err := Build("OCV", fam, DefaultSettings())
		if err != nil {
			t.Fatalf("Build err=%v", err)
		}
		want := []string{"Rest_time_T", "Record_every_dE", "Record_every_dT", "E_Range"}
		if got := labels(l); strings.Join(got, ",") != strings.Join(want, ",") {
			t.Fatalf("order: got=%v want=%v", got, want)
		}
		wantFile := "ocvN.ecc"
		if fam.VMP4 {
			wantFile = "ocv4.ecc"
		}
		if l.File != wantFile {
			t.Fatalf("file: got=%s want=%s", l.File, wantFile)
		}
	}
}

func TestBuild_ChronoOrder(t *testing.T) {
	cases := []struct {
		name   string
		step   string
		record string
		file3  string
		file4  string
	}{
		{"ca", "Voltage_step", "Record_every_dI", "ca.ecc", "ca4.ecc"},
		{"ChronoPotentiometry", "Current_step", "Record_every_dE", "cp.ecc", "cp4.ecc"},
	}

	for _, tc := range cases {
		l, err := Build(tc.name, vmp3, DefaultSettings())
		if err != nil {
			t.Fatalf("%s: Build err=%v", tc.name, err)
		}
		if l.Len() != 16 {
			t.Fatalf("%s: count got=%d want=16", tc.name, l.Len())
		}

		var want []string
		for i := 0; i < 3; i++ {
			want = append(want, tc.step, "vs_initial", "Duration_step")
		}
		want = append(want, "Step_number", "N_Cycles", tc.record, "Record_every_dT", "I_Range", "E_Range", "Bandwidth")
		if got := labels(l); strings.Join(got, ",") != strings.Join(want, ",") {
			t.Fatalf("%s: order got=%v want=%v", tc.name, got, want)
		}

		params := l.Params()
		for i := 0; i < 9; i++ {
			if params[i].Index != uint32(i/3) {
				t.Fatalf("%s: param %d index got=%d want=%d", tc.name, i, params[i].Index, i/3)
			}
		}
		if params[1].Kind != ecc.KindBool || params[0].Kind != ecc.KindSingle || params[9].Kind != ecc.KindInt {
			t.Fatalf("%s: unexpected kinds %v %v %v", tc.name, params[0].Kind, params[1].Kind, params[9].Kind)
		}

		if l.File != tc.file3 {
			t.Fatalf("%s: vmp3 file got=%s want=%s", tc.name, l.File, tc.file3)
		}
		l4, _ := Build(tc.name, vmp4, DefaultSettings())
		if l4.File != tc.file4 {
			t.Fatalf("%s: vmp4 file got=%s want=%s", tc.name, l4.File, tc.file4)
		}
	}
}

func TestBuild_OrderIndependentOfValues(t *testing.T) {
	s := DefaultSettings()
	s.CA.Steps[1].Value = 42
	s.CA.Cycles = 9
	s.CA.Bandwidth = eclib.BW9

	a, _ := Build("ca", vmp4, DefaultSettings())
	b, _ := Build("ca", vmp4, s)
	if strings.Join(labels(a), ",") != strings.Join(labels(b), ",") {
		t.Fatalf("order changed with values")
	}
	if v, _ := b.Params()[3].Single(); v != 42 {
		t.Fatalf("step 1 value: got=%g want=42", v)
	}
}

func TestBuild_UnknownTechnique(t *testing.T) {
	if _, err := Build("peis", vmp3, DefaultSettings()); !errors.Is(err, ErrUnknownTechnique) {
		t.Fatalf("expected ErrUnknownTechnique, got %v", err)
	}
}

func TestBuilder_FirstErrorAborts(t *testing.T) {
	b := &builder{}
	b.defInt("Step_number", 2, 0)
	b.defInt(strings.Repeat("x", 80), 1, 0)
	b.defInt("N_Cycles", 0, 0)

	if !errors.Is(b.err, ecc.ErrInvalidParameter) {
		t.Fatalf("expected validation error, got %v", b.err)
	}
	if len(b.params) != 1 {
		t.Fatalf("params after failure: got=%d want=1", len(b.params))
	}
}

// ---- decode ----

func TestTicks_HighLowOrder(t *testing.T) {
	cases := []struct{ hi, lo uint32 }{
		{0, 0}, {0, 1000}, {1, 0}, {1, 1}, {0xFFFFFFFF, 0xFFFFFFFF}, {7, 0x80000000},
	}
	for _, c := range cases {
		want := (uint64(c.hi) << 32) + uint64(c.lo)
		if got := Ticks(c.hi, c.lo); got != want {
			t.Fatalf("Ticks(%d,%d) got=%d want=%d", c.hi, c.lo, got, want)
		}
	}
}

func TestDecode_OCVVMP3IncludesEce(t *testing.T) {
	conv := &bitsConverter{}
	buf := []uint32{0, 1000, f32(0.5), f32(-0.25)}
	infos := eclib.DataInfos{Rows: 1, Cols: 4, TechniqueID: eclib.TechOCV, StartTime: 5.0}
	cv := eclib.CurrentValues{TimeBase: 0.01, State: eclib.StateRunning}

	r, err := DecodeRow(eclib.TechOCV, vmp3, buf, 0, infos, cv, conv)
	if err != nil {
		t.Fatalf("decode err=%v", err)
	}
	row := r.(OCVRow)
	if row.Fields() != 3 || row.Ece == nil {
		t.Fatalf("expected 3 fields with Ece, got %d", row.Fields())
	}
	if want := 5.0 + float64(float32(0.01))*1000; row.Time != want {
		t.Fatalf("time: got=%v want=%v", row.Time, want)
	}
	if math.Abs(row.Time-15.0) > 1e-5 {
		t.Fatalf("time: got=%v want≈15", row.Time)
	}
	if row.Ewe != 0.5 || *row.Ece != -0.25 {
		t.Fatalf("values: ewe=%g ece=%g", row.Ewe, *row.Ece)
	}
	if conv.calls != 2 {
		t.Fatalf("conversions: got=%d want=2", conv.calls)
	}
}

func TestDecode_OCVVMP4OmitsEce(t *testing.T) {
	conv := &bitsConverter{}
	buf := []uint32{0, 1000, f32(0.5)}
	infos := eclib.DataInfos{Rows: 1, Cols: 3, TechniqueID: eclib.TechOCV, StartTime: 5.0}
	cv := eclib.CurrentValues{TimeBase: 0.01}

	r, err := DecodeRow(eclib.TechOCV, vmp4, buf, 0, infos, cv, conv)
	if err != nil {
		t.Fatalf("decode err=%v", err)
	}
	if r.Fields() != 2 || r.(OCVRow).Ece != nil {
		t.Fatalf("expected 2 fields without Ece")
	}
	if conv.calls != 1 {
		t.Fatalf("Ece conversion attempted on vmp4: calls=%d", conv.calls)
	}
}

func TestDecode_ChronoCycleIsRawInteger(t *testing.T) {
	conv := &bitsConverter{}
	buf := []uint32{0, 10, f32(1.5), f32(0.002), 3}
	infos := eclib.DataInfos{Rows: 1, Cols: 5, TechniqueID: eclib.TechCA}
	cv := eclib.CurrentValues{TimeBase: 0.5}

	r, err := DecodeRow(eclib.TechCA, vmp3, buf, 0, infos, cv, conv)
	if err != nil {
		t.Fatalf("decode err=%v", err)
	}
	row := r.(ChronoRow)
	if row.Cycle != 3 {
		t.Fatalf("cycle: got=%d want=3", row.Cycle)
	}
	if row.Time != 5.0 || row.Ewe != 1.5 || row.I != 0.002 {
		t.Fatalf("row: %+v", row)
	}
	if conv.calls != 2 {
		t.Fatalf("cycle must not be converted: calls=%d", conv.calls)
	}
}

func TestDecode_ChronoPartialFailureDropsRow(t *testing.T) {
	conv := &bitsConverter{fail: map[uint32]bool{f32(0.002): true}}
	buf := []uint32{0, 10, f32(1.5), f32(0.002), 3}
	infos := eclib.DataInfos{Rows: 1, Cols: 5, TechniqueID: eclib.TechCP}

	r, err := DecodeRow(eclib.TechCP, vmp4, buf, 0, infos, eclib.CurrentValues{}, conv)
	if r != nil {
		t.Fatalf("partial row emitted: %+v", r)
	}
	var de *DecodeError
	if !errors.As(err, &de) || de.Column != "i" {
		t.Fatalf("expected DecodeError on column i, got %v", err)
	}
}

func TestDecode_UnknownTechniqueIsEmpty(t *testing.T) {
	r, err := DecodeRow(eclib.TechPEIS, vmp3, []uint32{1, 2, 3, 4, 5, 6}, 0, eclib.DataInfos{Cols: 6}, eclib.CurrentValues{}, &bitsConverter{})
	if r != nil || err != nil {
		t.Fatalf("expected (nil, nil), got (%v, %v)", r, err)
	}

	b := DecodeBatch(vmp3, []uint32{1, 2, 3, 4, 5, 6}, eclib.DataInfos{Rows: 1, Cols: 6, TechniqueID: eclib.TechPEIS}, eclib.CurrentValues{}, &bitsConverter{})
	if len(b.Rows) != 0 || len(b.Dropped) != 0 {
		t.Fatalf("expected empty batch, got rows=%d dropped=%d", len(b.Rows), len(b.Dropped))
	}
}

func TestDecodeBatch_EmptyShapes(t *testing.T) {
	buf := []uint32{0, 1, f32(1), f32(2)}
	for _, infos := range []eclib.DataInfos{
		{Rows: 0, Cols: 4, TechniqueID: eclib.TechOCV},
		{Rows: 1, Cols: 0, TechniqueID: eclib.TechOCV},
	} {
		b := DecodeBatch(vmp3, buf, infos, eclib.CurrentValues{}, &bitsConverter{})
		if len(b.Rows) != 0 || len(b.Dropped) != 0 {
			t.Fatalf("rows=%d cols=%d: expected nothing, got rows=%d dropped=%d", infos.Rows, infos.Cols, len(b.Rows), len(b.Dropped))
		}
	}
}

func TestDecodeBatch_SkipsFailedRowKeepsOrder(t *testing.T) {
	const cols = 5
	var buf []uint32
	for i := 0; i < 5; i++ {
		buf = append(buf, 0, uint32(i), f32(float32(i)), f32(float32(i)+0.5), uint32(i))
	}
	// row 2 current fails conversion
	conv := &bitsConverter{fail: map[uint32]bool{f32(2.5): true}}
	infos := eclib.DataInfos{Rows: 5, Cols: cols, TechniqueID: eclib.TechCA}

	b := DecodeBatch(vmp3, buf, infos, eclib.CurrentValues{TimeBase: 1}, conv)
	if len(b.Rows) != 4 {
		t.Fatalf("rows: got=%d want=4", len(b.Rows))
	}
	if len(b.Dropped) != 1 {
		t.Fatalf("dropped: got=%d want=1", len(b.Dropped))
	}
	wantCycles := []int32{0, 1, 3, 4}
	for i, r := range b.Rows {
		if c := r.(ChronoRow).Cycle; c != wantCycles[i] {
			t.Fatalf("row %d cycle: got=%d want=%d", i, c, wantCycles[i])
		}
	}
}

func TestDecodeBatch_TruncatesOversizedShape(t *testing.T) {
	buf := []uint32{0, 1, f32(1), 0, 2, f32(2)}
	infos := eclib.DataInfos{Rows: 5, Cols: 3, TechniqueID: eclib.TechOCV}

	b := DecodeBatch(vmp4, buf, infos, eclib.CurrentValues{TimeBase: 1}, &bitsConverter{})
	if len(b.Rows) != 2 {
		t.Fatalf("rows: got=%d want=2", len(b.Rows))
	}
	if len(b.Dropped) != 1 {
		t.Fatalf("expected truncation to be recorded")
	}
}

func TestDecodeBatch_LayoutTooNarrow(t *testing.T) {
	buf := []uint32{0, 1, f32(1), 0, 2, f32(2)}
	infos := eclib.DataInfos{Rows: 2, Cols: 3, TechniqueID: eclib.TechOCV}

	b := DecodeBatch(vmp3, buf, infos, eclib.CurrentValues{}, &bitsConverter{})
	if len(b.Rows) != 0 || len(b.Dropped) != 1 {
		t.Fatalf("expected layout error, got rows=%d dropped=%d", len(b.Rows), len(b.Dropped))
	}
}

func TestColumns(t *testing.T) {
	if n := len(OCV.Columns(vmp4)); n != 2 {
		t.Fatalf("ocv vmp4 columns: got=%d want=2", n)
	}
	if n := len(OCV.Columns(vmp3)); n != 3 {
		t.Fatalf("ocv vmp3 columns: got=%d want=3", n)
	}
	if n := len(CP.Columns(vmp3)); n != 4 {
		t.Fatalf("cp columns: got=%d want=4", n)
	}
}
