// internal/ecc/param.go
package ecc

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"strings"
)

// ---- RECORD GEOMETRY (firmware-locked) ----

// LabelSize is the width of the null-padded label buffer.
const LabelSize = 64

// MaxLabelLen leaves room for the terminating NUL.
const MaxLabelLen = LabelSize - 1

// RecordSize is the full width of one parameter record:
// label(64) + kind(4) + value(4) + index(4).
const RecordSize = LabelSize + 4 + 4 + 4

const (
	offKind  = LabelSize
	offValue = LabelSize + 4
	offIndex = LabelSize + 8
)

// Kind is the type tag stored in a record.
type Kind uint32

const (
	KindInt    Kind = 0
	KindBool   Kind = 1
	KindSingle Kind = 2
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindBool:
		return "bool"
	case KindSingle:
		return "single"
	default:
		return fmt.Sprintf("kind(%d)", uint32(k))
	}
}

// ErrInvalidParameter is matched by every ValidationError.
var ErrInvalidParameter = errors.New("ecc: invalid parameter")

// ValidationError reports a parameter that cannot be encoded.
type ValidationError struct {
	Label  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("ecc: invalid parameter %q: %s", e.Label, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrInvalidParameter }

// Parameter is one typed technique parameter.
// The value is held in its 4-byte wire form; use the accessors to read it.
type Parameter struct {
	Label string
	Kind  Kind
	Index uint32
	raw   uint32
}

// DefineInt builds an integer parameter.
func DefineInt(label string, v int32, index uint32) (Parameter, error) {
	return define(label, KindInt, uint32(v), index)
}

// DefineBool builds a boolean parameter (1 = true, 0 = false).
func DefineBool(label string, v bool, index uint32) (Parameter, error) {
	var raw uint32
	if v {
		raw = 1
	}
	return define(label, KindBool, raw, index)
}

// DefineSingle builds a single-precision parameter stored as IEEE-754 bits.
func DefineSingle(label string, v float32, index uint32) (Parameter, error) {
	return define(label, KindSingle, math.Float32bits(v), index)
}

func define(label string, kind Kind, raw uint32, index uint32) (Parameter, error) {
	if err := checkLabel(label); err != nil {
		return Parameter{}, err
	}
	if index > math.MaxInt32 {
		return Parameter{}, &ValidationError{Label: label, Reason: fmt.Sprintf("step index %d out of range", index)}
	}
	return Parameter{Label: label, Kind: kind, Index: index, raw: raw}, nil
}

func checkLabel(label string) error {
	if label == "" {
		return &ValidationError{Label: label, Reason: "empty label"}
	}
	if len(label) > MaxLabelLen {
		return &ValidationError{
			Label:  label,
			Reason: fmt.Sprintf("label is %d bytes, max %d", len(label), MaxLabelLen),
		}
	}
	if strings.IndexByte(label, 0) >= 0 {
		return &ValidationError{Label: label, Reason: "label contains NUL"}
	}
	return nil
}

// Int returns the value of an integer parameter.
func (p Parameter) Int() (int32, error) {
	if p.Kind != KindInt {
		return 0, &ValidationError{Label: p.Label, Reason: "not an int parameter (" + p.Kind.String() + ")"}
	}
	return int32(p.raw), nil
}

// Bool returns the value of a boolean parameter.
func (p Parameter) Bool() (bool, error) {
	if p.Kind != KindBool {
		return false, &ValidationError{Label: p.Label, Reason: "not a bool parameter (" + p.Kind.String() + ")"}
	}
	return p.raw != 0, nil
}

// Single returns the value of a single-precision parameter.
func (p Parameter) Single() (float32, error) {
	if p.Kind != KindSingle {
		return 0, &ValidationError{Label: p.Label, Reason: "not a single parameter (" + p.Kind.String() + ")"}
	}
	return math.Float32frombits(p.raw), nil
}

// Raw returns the 4-byte value slot as written on the wire.
func (p Parameter) Raw() uint32 { return p.raw }

func (p Parameter) String() string {
	var v string
	switch p.Kind {
	case KindInt:
		v = fmt.Sprintf("%d", int32(p.raw))
	case KindBool:
		v = fmt.Sprintf("%t", p.raw != 0)
	case KindSingle:
		v = fmt.Sprintf("%g", math.Float32frombits(p.raw))
	default:
		v = fmt.Sprintf("0x%08x", p.raw)
	}
	return fmt.Sprintf("%s[%d]=%s(%s)", p.Label, p.Index, v, p.Kind)
}

// MarshalBinary encodes the record.
// No IO. No side effects.
func (p Parameter) MarshalBinary() ([]byte, error) {
	rec := make([]byte, RecordSize)
	if err := p.put(rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func (p Parameter) put(dst []byte) error {
	if len(dst) < RecordSize {
		return fmt.Errorf("ecc: record buffer is %d bytes, need %d", len(dst), RecordSize)
	}
	if err := checkLabel(p.Label); err != nil {
		return err
	}
	switch p.Kind {
	case KindInt, KindBool, KindSingle:
	default:
		return &ValidationError{Label: p.Label, Reason: "unknown kind " + p.Kind.String()}
	}

	// label is null padded, remaining bytes must be zero
	for i := 0; i < LabelSize; i++ {
		dst[i] = 0
	}
	copy(dst[:MaxLabelLen], p.Label)

	binary.LittleEndian.PutUint32(dst[offKind:offKind+4], uint32(p.Kind))
	binary.LittleEndian.PutUint32(dst[offValue:offValue+4], p.raw)
	binary.LittleEndian.PutUint32(dst[offIndex:offIndex+4], p.Index)
	return nil
}

// Decode reads one record back into a Parameter.
// Records with an unterminated label, unknown kind tag or a
// non-canonical boolean are rejected.
func Decode(rec []byte) (Parameter, error) {
	if len(rec) != RecordSize {
		return Parameter{}, fmt.Errorf("ecc: record is %d bytes, want %d", len(rec), RecordSize)
	}

	n := 0
	for n < LabelSize && rec[n] != 0 {
		n++
	}
	if n == LabelSize {
		return Parameter{}, errors.New("ecc: label is not null terminated")
	}
	for i := n; i < LabelSize; i++ {
		if rec[i] != 0 {
			return Parameter{}, errors.New("ecc: label padding is not zero")
		}
	}

	p := Parameter{
		Label: string(rec[:n]),
		Kind:  Kind(binary.LittleEndian.Uint32(rec[offKind : offKind+4])),
		raw:   binary.LittleEndian.Uint32(rec[offValue : offValue+4]),
		Index: binary.LittleEndian.Uint32(rec[offIndex : offIndex+4]),
	}
	if err := checkLabel(p.Label); err != nil {
		return Parameter{}, err
	}

	switch p.Kind {
	case KindInt, KindSingle:
	case KindBool:
		if p.raw > 1 {
			return Parameter{}, fmt.Errorf("ecc: %s: bool value 0x%08x", p.Label, p.raw)
		}
	default:
		return Parameter{}, fmt.Errorf("ecc: %s: unknown kind tag %d", p.Label, uint32(p.Kind))
	}
	return p, nil
}
