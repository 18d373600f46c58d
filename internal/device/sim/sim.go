// internal/device/sim/sim.go
package sim

import (
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/tamzrod/potentiostat-acquirer/internal/ecc"
	"github.com/tamzrod/potentiostat-acquirer/internal/eclib"
)

// Config shapes the simulated instrument.
type Config struct {
	DeviceType   eclib.DeviceType
	Channels     int
	TimeBase     float32 // seconds per tick
	TicksPerRow  uint32
	RowsPerBatch int
	TotalRows    int // run completes after this many rows; 0 = never

	// Fault injection. Zero disables.
	FailDataAfter    int // GetData fails with FailCode on every call after the first N
	FailMessageAfter int // same for GetMessage
	FailCode         eclib.ErrorCode
	FailStop         bool // StopChannel reports ERR_GEN_FUNCTIONFAILED (state still stops)
}

// DefaultConfig is a VMP3-family instrument running a short technique.
func DefaultConfig() Config {
	return Config{
		DeviceType:   eclib.DevVMP3,
		Channels:     16,
		TimeBase:     0.0001,
		TicksPerRow:  100,
		RowsPerBatch: 10,
		TotalRows:    200,
		FailCode:     eclib.ErrCommCommFailed,
	}
}

// Device is an in-process instrument implementing eclib.Device.
// Numeric samples are IEEE-754 bit patterns; NaN patterns fail conversion.
type Device struct {
	cfg Config

	mu       sync.Mutex
	nextID   eclib.ConnID
	conns    map[eclib.ConnID]bool
	channels map[uint8]*channelState

	dataCalls int
	msgCalls  int
	stopCalls int
}

type channelState struct {
	tech      eclib.TechniqueID
	file      string
	params    []ecc.Parameter
	state     eclib.ChannelState
	ticks     uint64
	rows      int
	start     float64
	messages  []string
	lastEwe   float32
	lastI     float32
	loadCount int
}

// New returns a simulated instrument.
func New(cfg Config) *Device {
	if cfg.Channels <= 0 {
		cfg.Channels = 1
	}
	if cfg.TimeBase <= 0 {
		cfg.TimeBase = 0.0001
	}
	if cfg.TicksPerRow == 0 {
		cfg.TicksPerRow = 100
	}
	if cfg.RowsPerBatch <= 0 {
		cfg.RowsPerBatch = 10
	}
	if cfg.FailCode == eclib.ErrNoError {
		cfg.FailCode = eclib.ErrCommCommFailed
	}
	return &Device{
		cfg:      cfg,
		nextID:   1,
		conns:    make(map[eclib.ConnID]bool),
		channels: make(map[uint8]*channelState),
	}
}

// StopCalls returns how many times StopChannel was called.
func (d *Device) StopCalls() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stopCalls
}

// Connected reports whether id is an open connection.
func (d *Device) Connected(id eclib.ConnID) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.conns[id]
}

// ---- eclib.Device ----

func (d *Device) Connect(address string, timeout time.Duration) (eclib.ConnID, eclib.DeviceInfo, error) {
	if address == "" {
		return 0, eclib.DeviceInfo{}, eclib.NewDeviceError("connect", eclib.ErrCommInvalidIPAddress)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	id := d.nextID
	d.nextID++
	d.conns[id] = true

	return id, eclib.DeviceInfo{
		DeviceCode:       d.cfg.DeviceType,
		RAMSize:          64,
		CPU:              1,
		NumberOfChannels: int32(d.cfg.Channels),
		NumberOfSlots:    int32(d.cfg.Channels),
		FirmwareVersion:  600,
		FirmwareYear:     2023,
		FirmwareMonth:    6,
		FirmwareDay:      1,
		NbOfConnectedPC:  int32(len(d.conns)),
	}, nil
}

func (d *Device) Disconnect(id eclib.ConnID) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.conns[id] {
		return eclib.NewDeviceError("disconnect", eclib.ErrGenNotConnected)
	}
	delete(d.conns, id)
	return nil
}

func (d *Device) LoadTechnique(id eclib.ConnID, ch uint8, params *ecc.ParamList, first, last, showParams bool) error {
	const op = "load technique"

	d.mu.Lock()
	defer d.mu.Unlock()

	cs, err := d.channel(op, id, ch)
	if err != nil {
		return err
	}
	if cs.state == eclib.StateRunning {
		return eclib.NewDeviceError(op, eclib.ErrGenChannelRunning)
	}
	if params == nil {
		return eclib.NewDeviceError(op, eclib.ErrGenInvalidParameters)
	}

	tech, ok := d.techniqueForFile(params.File)
	if !ok {
		if _, known := fileTechniques[strings.TrimSuffix(params.File, ".ecc")]; known {
			return eclib.NewDeviceError(op, eclib.ErrTechIncompatibleECC)
		}
		return eclib.NewDeviceError(op, eclib.ErrTechECCFileNotExists)
	}

	buf, err := params.Bytes()
	if err != nil || len(buf)%ecc.RecordSize != 0 {
		return eclib.NewDeviceError(op, eclib.ErrTechECCFileCorrupted)
	}
	decoded := make([]ecc.Parameter, 0, len(buf)/ecc.RecordSize)
	for off := 0; off < len(buf); off += ecc.RecordSize {
		p, err := ecc.Decode(buf[off : off+ecc.RecordSize])
		if err != nil {
			return eclib.NewDeviceError(op, eclib.ErrTechECCFileCorrupted)
		}
		decoded = append(decoded, p)
	}
	if want := expectedParams[tech]; len(decoded) != want {
		return eclib.NewDeviceError(op, eclib.ErrTechECCFileCorrupted)
	}

	if first {
		cs.loadCount = 0
	}
	cs.loadCount++
	cs.tech = tech
	cs.file = params.File
	cs.params = decoded
	if showParams {
		for _, p := range decoded {
			cs.messages = append(cs.messages, "param "+p.String())
		}
	}
	cs.messages = append(cs.messages, fmt.Sprintf("technique %s loaded (%d params)", params.File, len(decoded)))
	return nil
}

func (d *Device) StartChannel(id eclib.ConnID, ch uint8) error {
	const op = "start channel"

	d.mu.Lock()
	defer d.mu.Unlock()

	cs, err := d.channel(op, id, ch)
	if err != nil {
		return err
	}
	if cs.tech == eclib.TechNone {
		return eclib.NewDeviceError(op, eclib.ErrTechLoadTechniqueFailed)
	}
	if cs.state == eclib.StateRunning {
		return eclib.NewDeviceError(op, eclib.ErrGenChannelRunning)
	}

	cs.state = eclib.StateRunning
	cs.ticks = 0
	cs.rows = 0
	cs.start = 0
	cs.messages = append(cs.messages, fmt.Sprintf("%s started", cs.tech))
	return nil
}

func (d *Device) StopChannel(id eclib.ConnID, ch uint8) error {
	const op = "stop channel"

	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopCalls++
	cs, err := d.channel(op, id, ch)
	if err != nil {
		return err
	}
	if cs.state == eclib.StateRunning {
		cs.messages = append(cs.messages, fmt.Sprintf("%s stopped", cs.tech))
	}
	cs.state = eclib.StateStopped
	if d.cfg.FailStop {
		return eclib.NewDeviceError(op, eclib.ErrGenFunctionFailed)
	}
	return nil
}

func (d *Device) GetMessage(id eclib.ConnID, ch uint8, buf []byte) (int, error) {
	const op = "get message"

	d.mu.Lock()
	defer d.mu.Unlock()

	d.msgCalls++
	if d.cfg.FailMessageAfter > 0 && d.msgCalls > d.cfg.FailMessageAfter {
		return 0, eclib.NewDeviceError(op, d.cfg.FailCode)
	}

	cs, err := d.channel(op, id, ch)
	if err != nil {
		return 0, err
	}
	if len(buf) == 0 {
		return 0, eclib.NewDeviceError(op, eclib.ErrInstrMsgSizeError)
	}
	if len(cs.messages) == 0 {
		buf[0] = 0
		return 0, nil
	}

	msg := cs.messages[0]
	cs.messages = cs.messages[1:]
	n := copy(buf[:len(buf)-1], msg)
	buf[n] = 0
	return n, nil
}

func (d *Device) GetData(id eclib.ConnID, ch uint8, buf *eclib.RawBuffer) (eclib.DataInfos, eclib.CurrentValues, error) {
	const op = "get data"

	d.mu.Lock()
	defer d.mu.Unlock()

	d.dataCalls++
	if d.cfg.FailDataAfter > 0 && d.dataCalls > d.cfg.FailDataAfter {
		return eclib.DataInfos{}, eclib.CurrentValues{}, eclib.NewDeviceError(op, d.cfg.FailCode)
	}

	cs, err := d.channel(op, id, ch)
	if err != nil {
		return eclib.DataInfos{}, eclib.CurrentValues{}, err
	}

	infos := eclib.DataInfos{
		TechniqueID: cs.tech,
		StartTime:   cs.start,
	}

	if cs.state == eclib.StateRunning {
		cols := d.cols(cs.tech)
		rows := d.cfg.RowsPerBatch
		if fit := eclib.BufferWords / cols; rows > fit {
			rows = fit
		}
		if d.cfg.TotalRows > 0 && cs.rows+rows > d.cfg.TotalRows {
			rows = d.cfg.TotalRows - cs.rows
		}
		for r := 0; r < rows; r++ {
			d.fillRow(cs, buf[r*cols:(r+1)*cols])
		}
		infos.Rows = int32(rows)
		infos.Cols = int32(cols)

		if d.cfg.TotalRows > 0 && cs.rows >= d.cfg.TotalRows {
			cs.state = eclib.StateStopped
			cs.messages = append(cs.messages, fmt.Sprintf("%s finished (%d points)", cs.tech, cs.rows))
		}
	}

	return infos, d.currentValues(cs), nil
}

func (d *Device) GetChannelInfo(id eclib.ConnID, ch uint8) (eclib.ChannelInfo, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	cs, err := d.channel("get channel info", id, ch)
	if err != nil {
		return eclib.ChannelInfo{}, err
	}
	var techs int32
	if cs.tech != eclib.TechNone {
		techs = int32(cs.loadCount)
	}
	return eclib.ChannelInfo{
		Channel:         int32(ch),
		BoardVersion:    3,
		FirmwareCode:    5, // kernel
		FirmwareVersion: 600,
		MemSize:         1 << 20,
		State:           cs.state,
		MaxIRange:       eclib.IRange1A,
		MinIRange:       eclib.IRange10nA,
		MaxBandwidth:    eclib.BW7,
		NbOfTechniques:  techs,
	}, nil
}

func (d *Device) GetCurrentValues(id eclib.ConnID, ch uint8) (eclib.CurrentValues, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	cs, err := d.channel("get current values", id, ch)
	if err != nil {
		return eclib.CurrentValues{}, err
	}
	return d.currentValues(cs), nil
}

func (d *Device) ConvertNumericIntoSingle(raw uint32) (float32, error) {
	v := math.Float32frombits(raw)
	if math.IsNaN(float64(v)) {
		return 0, eclib.NewDeviceError("convert numeric", eclib.ErrGenInvalidParameters)
	}
	return v, nil
}

// ---- internals ----

var fileTechniques = map[string]eclib.TechniqueID{
	"ocv4": eclib.TechOCV, "ocvN": eclib.TechOCV,
	"ca4": eclib.TechCA, "ca": eclib.TechCA,
	"cp4": eclib.TechCP, "cp": eclib.TechCP,
}

var expectedParams = map[eclib.TechniqueID]int{
	eclib.TechOCV: 4,
	eclib.TechCA:  16,
	eclib.TechCP:  16,
}

func (d *Device) vmp4() bool { return eclib.FamilyOf(d.cfg.DeviceType).VMP4 }

// techniqueForFile accepts only the files built for this device's family.
func (d *Device) techniqueForFile(file string) (eclib.TechniqueID, bool) {
	base := strings.TrimSuffix(file, ".ecc")
	tech, ok := fileTechniques[base]
	if !ok {
		return eclib.TechNone, false
	}
	if strings.HasSuffix(base, "4") != d.vmp4() {
		return eclib.TechNone, false
	}
	return tech, true
}

func (d *Device) channel(op string, id eclib.ConnID, ch uint8) (*channelState, error) {
	if !d.conns[id] {
		return nil, eclib.NewDeviceError(op, eclib.ErrGenNotConnected)
	}
	if int(ch) >= d.cfg.Channels {
		return nil, eclib.NewDeviceError(op, eclib.ErrGenChannelNotPlugged)
	}
	cs, ok := d.channels[ch]
	if !ok {
		cs = &channelState{state: eclib.StateStopped}
		d.channels[ch] = cs
	}
	return cs, nil
}

func (d *Device) cols(tech eclib.TechniqueID) int {
	switch tech {
	case eclib.TechOCV:
		if d.vmp4() {
			return 3
		}
		return 4
	default:
		return 5
	}
}

func (d *Device) fillRow(cs *channelState, w []uint32) {
	cs.ticks += uint64(d.cfg.TicksPerRow)
	w[0] = uint32(cs.ticks >> 32)
	w[1] = uint32(cs.ticks)

	k := float64(cs.rows)
	switch cs.tech {
	case eclib.TechOCV:
		cs.lastEwe = float32(0.5 + 0.01*math.Sin(k/10))
		w[2] = math.Float32bits(cs.lastEwe)
		if !d.vmp4() {
			w[3] = math.Float32bits(float32(-0.1 + 0.001*math.Cos(k/10)))
		}
	case eclib.TechCA, eclib.TechCP:
		step := cs.rows % technique3Steps
		applied := cs.stepValue(step)
		cycle := uint32(cs.rows / technique3Steps)
		if cs.tech == eclib.TechCA {
			cs.lastEwe = applied
			cs.lastI = float32(0.001 * float64(applied) * math.Exp(-k/50))
		} else {
			cs.lastI = applied
			cs.lastEwe = float32(0.2 + 100*float64(applied))
		}
		w[2] = math.Float32bits(cs.lastEwe)
		w[3] = math.Float32bits(cs.lastI)
		w[4] = cycle
	}
	cs.rows++
}

const technique3Steps = 3

// stepValue reads the programmed step amplitude back from the loaded records.
func (cs *channelState) stepValue(step int) float32 {
	for _, p := range cs.params {
		if (p.Label == "Voltage_step" || p.Label == "Current_step") && int(p.Index) == step {
			if v, err := p.Single(); err == nil {
				return v
			}
		}
	}
	return 0
}

func (d *Device) currentValues(cs *channelState) eclib.CurrentValues {
	return eclib.CurrentValues{
		State:       cs.state,
		TimeBase:    d.cfg.TimeBase,
		Ewe:         cs.lastEwe,
		EweRangeMin: -10,
		EweRangeMax: 10,
		Ece:         -0.1,
		EceRangeMin: -10,
		EceRangeMax: 10,
		I:           cs.lastI,
		IRange:      eclib.IRangeAuto,
		ElapsedTime: float32(float64(cs.ticks) * float64(d.cfg.TimeBase)),
	}
}
