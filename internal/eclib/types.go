// internal/eclib/types.go
package eclib

import "fmt"

// BufferWords is the capacity of one GetData payload.
const BufferWords = 1000

// RawBuffer is the wire payload of one data poll.
// Allocate a fresh one per poll.
type RawBuffer [BufferWords]uint32

// ConnID identifies a connected instrument session.
type ConnID int32

// ---- CHANNEL STATE ----

type ChannelState int32

const (
	StateStopped ChannelState = 0
	StateRunning ChannelState = 1
	StatePaused  ChannelState = 2
)

func (s ChannelState) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StateRunning:
		return "running"
	case StatePaused:
		return "paused"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// ---- TECHNIQUE IDENTIFIERS ----

type TechniqueID int32

const (
	TechNone TechniqueID = 0
	TechOCV  TechniqueID = 100
	TechCA   TechniqueID = 101
	TechCP   TechniqueID = 102
	TechCV   TechniqueID = 103
	TechPEIS TechniqueID = 104
	TechGEIS TechniqueID = 107
)

func (t TechniqueID) String() string {
	switch t {
	case TechNone:
		return "none"
	case TechOCV:
		return "ocv"
	case TechCA:
		return "ca"
	case TechCP:
		return "cp"
	case TechCV:
		return "cv"
	case TechPEIS:
		return "peis"
	case TechGEIS:
		return "geis"
	default:
		return fmt.Sprintf("technique(%d)", int32(t))
	}
}

// ---- RANGES ----

type VoltageRange int32

const (
	ERange2V5  VoltageRange = 0
	ERange5V   VoltageRange = 1
	ERange10V  VoltageRange = 2
	ERangeAuto VoltageRange = 3
)

type CurrentRange int32

const (
	IRange100pA CurrentRange = 0
	IRange1nA   CurrentRange = 1
	IRange10nA  CurrentRange = 2
	IRange100nA CurrentRange = 3
	IRange1uA   CurrentRange = 4
	IRange10uA  CurrentRange = 5
	IRange100uA CurrentRange = 6
	IRange1mA   CurrentRange = 7
	IRange10mA  CurrentRange = 8
	IRange100mA CurrentRange = 9
	IRange1A    CurrentRange = 10
	IRangeBoost CurrentRange = 11
	IRangeAuto  CurrentRange = 12
)

// Bandwidth values 1..9; 8 and 9 exist on SP-300 series only.
type Bandwidth int32

const (
	BW1 Bandwidth = 1
	BW5 Bandwidth = 5
	BW7 Bandwidth = 7
	BW9 Bandwidth = 9
)

// ---- DEVICE TYPES ----

type DeviceType int32

const (
	DevVMP     DeviceType = 0
	DevVMP2    DeviceType = 1
	DevMPG     DeviceType = 2
	DevBiStat  DeviceType = 3
	DevMCS200  DeviceType = 4
	DevVMP3    DeviceType = 5
	DevVSP     DeviceType = 6
	DevHCP803  DeviceType = 7
	DevEPP400  DeviceType = 8
	DevEPP4000 DeviceType = 9
	DevBiStat2 DeviceType = 10
	DevFCT150S DeviceType = 11
	DevVMP300  DeviceType = 12
	DevSP50    DeviceType = 13
	DevSP150   DeviceType = 14
	DevFCT50S  DeviceType = 15
	DevSP300   DeviceType = 16
	DevCLB500  DeviceType = 17
	DevHCP1005 DeviceType = 18
	DevCLB2000 DeviceType = 19
	DevVSP300  DeviceType = 20
	DevSP200   DeviceType = 21
	DevMPG2    DeviceType = 22
	DevSP100   DeviceType = 23
	DevMOSLED  DeviceType = 24
	DevNikita  DeviceType = 26
	DevSP240   DeviceType = 27
	DevUnknown DeviceType = 255
)

var deviceNames = map[DeviceType]string{
	DevVMP: "VMP", DevVMP2: "VMP2", DevMPG: "MPG", DevBiStat: "BISTAT",
	DevMCS200: "MCS-200", DevVMP3: "VMP3", DevVSP: "VSP", DevHCP803: "HCP-803",
	DevEPP400: "EPP-400", DevEPP4000: "EPP-4000", DevBiStat2: "BISTAT2",
	DevFCT150S: "FCT-150S", DevVMP300: "VMP-300", DevSP50: "SP-50",
	DevSP150: "SP-150", DevFCT50S: "FCT-50S", DevSP300: "SP-300",
	DevCLB500: "CLB-500", DevHCP1005: "HCP-1005", DevCLB2000: "CLB-2000",
	DevVSP300: "VSP-300", DevSP200: "SP-200", DevMPG2: "MPG2", DevSP100: "SP-100",
	DevMOSLED: "MOSLED", DevNikita: "NIKITA", DevSP240: "SP-240",
	DevUnknown: "UNKNOWN",
}

func (d DeviceType) String() string {
	if n, ok := deviceNames[d]; ok {
		return n
	}
	return fmt.Sprintf("device(%d)", int32(d))
}

// ParseDeviceType accepts the names printed by String (case-sensitive).
func ParseDeviceType(name string) (DeviceType, bool) {
	for d, n := range deviceNames {
		if n == name {
			return d, true
		}
	}
	return DevUnknown, false
}

// ---- STRUCTURES ----

type DeviceInfo struct {
	DeviceCode       DeviceType
	RAMSize          int32
	CPU              int32
	NumberOfChannels int32
	NumberOfSlots    int32
	FirmwareVersion  int32
	FirmwareYear     int32
	FirmwareMonth    int32
	FirmwareDay      int32
	HTDisplayOn      int32
	NbOfConnectedPC  int32
}

type ChannelInfo struct {
	Channel           int32
	BoardVersion      int32
	BoardSerialNumber int32
	FirmwareCode      int32
	FirmwareVersion   int32
	XilinxVersion     int32
	AmpCode           int32
	NbAmps            int32
	LCBoard           int32
	ZBoard            int32
	MemSize           int32
	MemFilled         int32
	State             ChannelState
	MaxIRange         CurrentRange
	MinIRange         CurrentRange
	MaxBandwidth      Bandwidth
	NbOfTechniques    int32
}

type CurrentValues struct {
	State       ChannelState
	MemFilled   int32
	TimeBase    float32 // seconds per tick
	Ewe         float32
	EweRangeMin float32
	EweRangeMax float32
	Ece         float32
	EceRangeMin float32
	EceRangeMax float32
	EOverflow   int32
	I           float32
	IRange      CurrentRange
	IOverflow   int32
	ElapsedTime float32
	Freq        float32
	Rcomp       float32
	Saturation  int32
	OptErr      int32
	OptPos      int32
}

// DataInfos describes the shape of one GetData batch.
// Rows == 0 means nothing new this poll.
type DataInfos struct {
	IRQSkipped     int32
	Rows           int32
	Cols           int32
	TechniqueIndex int32
	TechniqueID    TechniqueID
	ProcessIndex   int32
	Loop           int32
	StartTime      float64
}
