// internal/technique/catalog.go
package technique

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tamzrod/potentiostat-acquirer/internal/ecc"
	"github.com/tamzrod/potentiostat-acquirer/internal/eclib"
)

// ErrUnknownTechnique is returned for names outside the catalog.
var ErrUnknownTechnique = errors.New("technique: unknown technique")

// Name is the canonical catalog key.
type Name string

const (
	OCV Name = "ocv"
	CA  Name = "ca"
	CP  Name = "cp"
)

var aliases = map[string]Name{
	"ocv":                 OCV,
	"opencircuitvoltage":  OCV,
	"ca":                  CA,
	"chronoamperometry":   CA,
	"cp":                  CP,
	"chronopotentiometry": CP,
}

// Lookup resolves a user-supplied technique name.
func Lookup(name string) (Name, error) {
	key := strings.ToLower(strings.NewReplacer("-", "", "_", "", " ", "").Replace(name))
	n, ok := aliases[key]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownTechnique, name)
	}
	return n, nil
}

// ID returns the identifier the instrument stamps on data from this technique.
func (n Name) ID() eclib.TechniqueID {
	switch n {
	case OCV:
		return eclib.TechOCV
	case CA:
		return eclib.TechCA
	case CP:
		return eclib.TechCP
	default:
		return eclib.TechNone
	}
}

// ForID maps an instrument technique id back to its catalog name.
func ForID(id eclib.TechniqueID) (Name, bool) {
	for _, n := range []Name{OCV, CA, CP} {
		if n.ID() == id {
			return n, true
		}
	}
	return "", false
}

// File returns the on-device program file for the given family.
func (n Name) File(f eclib.Family) string {
	switch n {
	case OCV:
		if f.VMP4 {
			return "ocv4.ecc"
		}
		return "ocvN.ecc"
	case CA:
		if f.VMP4 {
			return "ca4.ecc"
		}
		return "ca.ecc"
	case CP:
		if f.VMP4 {
			return "cp4.ecc"
		}
		return "cp.ecc"
	default:
		return ""
	}
}

// Columns returns the decoded row headers for the given family.
func (n Name) Columns(f eclib.Family) []string {
	switch n {
	case OCV:
		if f.VMP4 {
			return []string{"time", "ewe"}
		}
		return []string{"time", "ewe", "ece"}
	case CA, CP:
		return []string{"time", "ewe", "i", "cycle"}
	default:
		return nil
	}
}

// Build emits the ordered parameter list for a technique.
// Any define failure aborts the whole build; nothing partial is returned.
func Build(name string, f eclib.Family, s Settings) (*ecc.ParamList, error) {
	n, err := Lookup(name)
	if err != nil {
		return nil, err
	}

	b := &builder{}
	switch n {
	case OCV:
		b.defSingle("Rest_time_T", s.OCV.RestTime, 0)
		b.defSingle("Record_every_dE", s.OCV.RecordEveryDE, 0)
		b.defSingle("Record_every_dT", s.OCV.RecordEveryDT, 0)
		b.defInt("E_Range", int32(s.OCV.ERange), 0)
	case CA:
		b.chrono("Voltage_step", "Record_every_dI", s.CA)
	case CP:
		b.chrono("Current_step", "Record_every_dE", s.CP)
	}

	if b.err != nil {
		return nil, fmt.Errorf("technique %s: %w", n, b.err)
	}
	return ecc.NewParamList(n.File(f), b.params), nil
}

// builder keeps the first define error and ignores later calls.
type builder struct {
	params []ecc.Parameter
	err    error
}

func (b *builder) add(p ecc.Parameter, err error) {
	if b.err != nil {
		return
	}
	if err != nil {
		b.err = err
		return
	}
	b.params = append(b.params, p)
}

func (b *builder) defInt(label string, v int32, idx uint32) {
	b.add(ecc.DefineInt(label, v, idx))
}

func (b *builder) defBool(label string, v bool, idx uint32) {
	b.add(ecc.DefineBool(label, v, idx))
}

func (b *builder) defSingle(label string, v float32, idx uint32) {
	b.add(ecc.DefineSingle(label, v, idx))
}

func (b *builder) chrono(stepLabel, recordLabel string, c ChronoSettings) {
	for i, st := range c.Steps {
		idx := uint32(i)
		b.defSingle(stepLabel, st.Value, idx)
		b.defBool("vs_initial", st.VsInitial, idx)
		b.defSingle("Duration_step", st.Duration, idx)
	}
	b.defInt("Step_number", c.StepNumber, 0)
	b.defInt("N_Cycles", c.Cycles, 0)
	b.defSingle(recordLabel, c.RecordEvery, 0)
	b.defSingle("Record_every_dT", c.RecordEveryDT, 0)
	b.defInt("I_Range", int32(c.IRange), 0)
	b.defInt("E_Range", int32(c.ERange), 0)
	b.defInt("Bandwidth", int32(c.Bandwidth), 0)
}
