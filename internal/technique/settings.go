// internal/technique/settings.go
package technique

import "github.com/tamzrod/potentiostat-acquirer/internal/eclib"

// StepCount is the number of programmed steps in a chrono technique.
const StepCount = 3

// OCVSettings are the open-circuit voltage values.
type OCVSettings struct {
	RestTime      float32 // s
	RecordEveryDE float32 // V
	RecordEveryDT float32 // s
	ERange        eclib.VoltageRange
}

// Step is one chrono step: applied value, reference and duration.
type Step struct {
	Value     float32 // V for CA, A for CP
	VsInitial bool
	Duration  float32 // s
}

// ChronoSettings cover both CA and CP.
// RecordEvery is dI (A) for CA and dE (V) for CP.
type ChronoSettings struct {
	Steps         [StepCount]Step
	StepNumber    int32
	Cycles        int32
	RecordEvery   float32
	RecordEveryDT float32
	IRange        eclib.CurrentRange
	ERange        eclib.VoltageRange
	Bandwidth     eclib.Bandwidth
}

// Settings holds the values for every supported technique.
type Settings struct {
	OCV OCVSettings
	CA  ChronoSettings
	CP  ChronoSettings
}

// DefaultSettings returns the reference values shipped with the instrument examples.
func DefaultSettings() Settings {
	return Settings{
		OCV: OCVSettings{
			RestTime:      3.0,
			RecordEveryDE: 0.1,
			RecordEveryDT: 0.01,
			ERange:        eclib.ERangeAuto,
		},
		CA: ChronoSettings{
			Steps: [StepCount]Step{
				{Value: 1.5, Duration: 0.1},
				{Value: -1.0, Duration: 0.2},
				{Value: 2.0, Duration: 0.1},
			},
			StepNumber:    2,
			Cycles:        0,
			RecordEvery:   0.1,
			RecordEveryDT: 0.01,
			IRange:        eclib.IRangeAuto,
			ERange:        eclib.ERangeAuto,
			Bandwidth:     eclib.BW5,
		},
		CP: ChronoSettings{
			Steps: [StepCount]Step{
				{Value: 0.002, Duration: 0.1},
				{Value: -0.001, Duration: 0.2},
				{Value: 0.004, Duration: 0.1},
			},
			StepNumber:    2,
			Cycles:        0,
			RecordEvery:   0.1,
			RecordEveryDT: 0.01,
			IRange:        eclib.IRange10mA,
			ERange:        eclib.ERangeAuto,
			Bandwidth:     eclib.BW5,
		},
	}
}
