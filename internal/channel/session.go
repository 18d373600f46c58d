// internal/channel/session.go
package channel

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tamzrod/potentiostat-acquirer/internal/eclib"
	"github.com/tamzrod/potentiostat-acquirer/internal/technique"
)

var (
	// ErrNoTechnique is returned by Start before a successful Load.
	ErrNoTechnique = errors.New("channel: no technique loaded")
	// ErrNotConnected is returned once the session has been disconnected.
	ErrNotConnected = errors.New("channel: not connected")
	// ErrDeviceMismatch matches any DeviceMismatchError.
	ErrDeviceMismatch = errors.New("channel: unexpected device type")
)

// Options are the connection parameters of one session.
type Options struct {
	Address    string
	Timeout    time.Duration
	Channel    uint8
	ShowParams bool

	// ExpectDevice is the model name the instrument must report
	// (eclib.DeviceType.String form). Empty accepts any device.
	ExpectDevice string
}

// DeviceMismatchError is returned by Open when the connected instrument
// is not the expected model. The connection is closed.
type DeviceMismatchError struct {
	Want string
	Got  eclib.DeviceType
}

func (e *DeviceMismatchError) Error() string {
	return fmt.Sprintf("channel: expected device %s, connected to %s", e.Want, e.Got)
}

func (e *DeviceMismatchError) Is(target error) bool { return target == ErrDeviceMismatch }

// ErrorCode lets eclib.Code report the mismatch on the status block.
func (e *DeviceMismatchError) ErrorCode() int32 { return int32(eclib.ErrCustomDeviceMismatch) }

// Session owns the run state of one (connection, channel) pair.
// The device family is resolved once at Open and reused for every
// encode and decode.
type Session struct {
	dev  eclib.Device
	opts Options
	log  logrus.FieldLogger

	id     eclib.ConnID
	info   eclib.DeviceInfo
	family eclib.Family

	mu        sync.Mutex
	connected bool
	state     eclib.ChannelState
	loaded    technique.Name
}

// Open connects to the instrument and resolves its family.
func Open(dev eclib.Device, opts Options, log logrus.FieldLogger) (*Session, error) {
	if dev == nil {
		return nil, errors.New("channel: device required")
	}
	if opts.Address == "" {
		return nil, errors.New("channel: address required")
	}
	if log == nil {
		log = logrus.StandardLogger()
	}

	id, info, err := dev.Connect(opts.Address, opts.Timeout)
	if err != nil {
		return nil, fmt.Errorf("channel: connect %s: %w", opts.Address, err)
	}
	if opts.ExpectDevice != "" && info.DeviceCode.String() != opts.ExpectDevice {
		if err := dev.Disconnect(id); err != nil {
			log.Warnf("disconnect after device mismatch: %v", err)
		}
		return nil, &DeviceMismatchError{Want: opts.ExpectDevice, Got: info.DeviceCode}
	}

	s := &Session{
		dev:       dev,
		opts:      opts,
		id:        id,
		info:      info,
		family:    eclib.FamilyOf(info.DeviceCode),
		connected: true,
		state:     eclib.StateStopped,
	}
	s.log = log.WithFields(logrus.Fields{
		"channel": opts.Channel,
		"device":  info.DeviceCode.String(),
		"family":  s.family.String(),
	})
	s.log.Infof("connected to %s, id=%d", opts.Address, id)
	return s, nil
}

// ---- accessors ----

func (s *Session) Device() eclib.Device         { return s.dev }
func (s *Session) ID() eclib.ConnID             { return s.id }
func (s *Session) Channel() uint8               { return s.opts.Channel }
func (s *Session) Family() eclib.Family         { return s.family }
func (s *Session) DeviceInfo() eclib.DeviceInfo { return s.info }
func (s *Session) Logger() logrus.FieldLogger   { return s.log }

func (s *Session) State() eclib.ChannelState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

// Loaded returns the technique currently loaded, or "".
func (s *Session) Loaded() technique.Name {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loaded
}

// ---- run control ----

// Load builds the parameter list and loads it as a single technique.
// The list's record buffer is released whatever the outcome.
func (s *Session) Load(name string, settings technique.Settings) error {
	n, err := technique.Lookup(name)
	if err != nil {
		return err
	}
	list, err := technique.Build(string(n), s.family, settings)
	if err != nil {
		return err
	}
	defer list.Release()

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.connected {
		return ErrNotConnected
	}

	if err := s.dev.LoadTechnique(s.id, s.opts.Channel, list, true, true, s.opts.ShowParams); err != nil {
		return eclib.WithPhase(err, eclib.ErrTechniqueLoadFailed)
	}

	s.loaded = n
	s.log.WithField("technique", string(n)).Infof("loaded %s (%d params)", list.File, list.Len())
	return nil
}

// Start moves Stopped -> Running. State is unchanged on failure.
func (s *Session) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.connected {
		return ErrNotConnected
	}
	if s.loaded == "" {
		return ErrNoTechnique
	}
	if err := s.dev.StartChannel(s.id, s.opts.Channel); err != nil {
		return eclib.WithPhase(err, eclib.ErrStartFailed)
	}
	s.state = eclib.StateRunning
	s.log.WithField("technique", string(s.loaded)).Info("channel started")
	return nil
}

// Stop always attempts the device stop and forces Stopped.
// Device errors are logged, never returned.
func (s *Session) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
}

func (s *Session) stopLocked() {
	if s.connected {
		if err := s.dev.StopChannel(s.id, s.opts.Channel); err != nil {
			s.log.Warnf("stop channel: %v", err)
		}
	}
	if s.state != eclib.StateStopped {
		s.log.Info("channel stopped")
	}
	s.state = eclib.StateStopped
}

// Disconnect stops the channel and closes the connection. Idempotent.
func (s *Session) Disconnect() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.connected {
		return
	}
	s.stopLocked()
	if err := s.dev.Disconnect(s.id); err != nil {
		s.log.Warnf("disconnect: %v", err)
	}
	s.connected = false
	s.loaded = ""
	s.log.Info("disconnected")
}

// ---- one-shot queries ----

func (s *Session) ChannelInfo() (eclib.ChannelInfo, error) {
	if !s.Connected() {
		return eclib.ChannelInfo{}, ErrNotConnected
	}
	return s.dev.GetChannelInfo(s.id, s.opts.Channel)
}

func (s *Session) CurrentValues() (eclib.CurrentValues, error) {
	if !s.Connected() {
		return eclib.CurrentValues{}, ErrNotConnected
	}
	return s.dev.GetCurrentValues(s.id, s.opts.Channel)
}
