// internal/ecc/list.go
package ecc

import (
	"errors"
	"fmt"
)

// ErrReleased is returned when a list is used after Release.
var ErrReleased = errors.New("ecc: parameter list already released")

// ParamList is the ordered parameter set for one technique load.
// Order is part of the firmware contract.
//
// The record buffer handed to the instrument is allocated by Bytes and
// must be freed with Release once the load call returns, whatever its outcome.
type ParamList struct {
	File   string
	params []Parameter

	buf      []byte
	released bool
}

// NewParamList copies params so later changes to the caller's slice
// cannot reorder what gets loaded.
func NewParamList(file string, params []Parameter) *ParamList {
	cp := make([]Parameter, len(params))
	copy(cp, params)
	return &ParamList{File: file, params: cp}
}

// Len returns the number of parameters.
func (l *ParamList) Len() int { return len(l.params) }

// Params returns a copy of the ordered parameters.
func (l *ParamList) Params() []Parameter {
	out := make([]Parameter, len(l.params))
	copy(out, l.params)
	return out
}

// Bytes returns the contiguous record buffer, allocating it on first use.
func (l *ParamList) Bytes() ([]byte, error) {
	if l.released {
		return nil, ErrReleased
	}
	if l.buf != nil {
		return l.buf, nil
	}

	buf := make([]byte, len(l.params)*RecordSize)
	for i, p := range l.params {
		if err := p.put(buf[i*RecordSize : (i+1)*RecordSize]); err != nil {
			return nil, fmt.Errorf("ecc: %s: param %d: %w", l.File, i, err)
		}
	}
	l.buf = buf
	return buf, nil
}

// Allocated reports whether a record buffer is currently held.
func (l *ParamList) Allocated() bool { return l.buf != nil }

// Released reports whether Release has been called.
func (l *ParamList) Released() bool { return l.released }

// Release zeroes and drops the record buffer. Safe to call more than once.
func (l *ParamList) Release() {
	if l == nil {
		return
	}
	for i := range l.buf {
		l.buf[i] = 0
	}
	l.buf = nil
	l.released = true
}
