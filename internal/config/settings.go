// internal/config/settings.go
package config

import (
	"time"

	"github.com/tamzrod/potentiostat-acquirer/internal/eclib"
	"github.com/tamzrod/potentiostat-acquirer/internal/technique"
)

// Settings merges the configured overrides onto the catalog defaults.
func (t TechniqueConfig) Settings() technique.Settings {
	s := technique.DefaultSettings()

	o := t.OCV
	setF(&s.OCV.RestTime, o.RestTime)
	setF(&s.OCV.RecordEveryDE, o.RecordEveryDE)
	setF(&s.OCV.RecordEveryDT, o.RecordEveryDT)
	if o.ERange != nil {
		s.OCV.ERange = eclib.VoltageRange(*o.ERange)
	}

	t.CA.apply(&s.CA)
	t.CP.apply(&s.CP)
	return s
}

func (c ChronoConfig) apply(dst *technique.ChronoSettings) {
	if len(c.Steps) > 0 {
		dst.Steps = [technique.StepCount]technique.Step{}
		for i, st := range c.Steps {
			if i >= technique.StepCount {
				break
			}
			dst.Steps[i] = technique.Step{Value: st.Value, VsInitial: st.VsInitial, Duration: st.Duration}
		}
	}
	setI(&dst.StepNumber, c.StepNumber)
	setI(&dst.Cycles, c.Cycles)
	setF(&dst.RecordEvery, c.RecordEvery)
	setF(&dst.RecordEveryDT, c.RecordEveryDT)
	if c.IRange != nil {
		dst.IRange = eclib.CurrentRange(*c.IRange)
	}
	if c.ERange != nil {
		dst.ERange = eclib.VoltageRange(*c.ERange)
	}
	if c.Bandwidth != nil {
		dst.Bandwidth = eclib.Bandwidth(*c.Bandwidth)
	}
}

func setF(dst *float32, v *float32) {
	if v != nil {
		*dst = *v
	}
}

func setI(dst *int32, v *int32) {
	if v != nil {
		*dst = *v
	}
}

// ---- durations ----

func ms(v int) time.Duration { return time.Duration(v) * time.Millisecond }

func (d DeviceConfig) Timeout() time.Duration { return ms(d.TimeoutMs) }

func (a AcquisitionConfig) MessageInterval() time.Duration { return ms(a.MessageIntervalMs) }
func (a AcquisitionConfig) DataInterval() time.Duration    { return ms(a.DataIntervalMs) }
func (a AcquisitionConfig) StopTimeout() time.Duration     { return ms(a.StopTimeoutMs) }

func (s StatusConfig) Timeout() time.Duration { return ms(s.TimeoutMs) }

func (n NotifyConfig) Timeout() time.Duration { return ms(n.TimeoutMs) }
