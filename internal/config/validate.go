// internal/config/validate.go
package config

import (
	"fmt"
	"net/url"

	"github.com/tamzrod/potentiostat-acquirer/internal/eclib"
	"github.com/tamzrod/potentiostat-acquirer/internal/technique"
)

// MaxChannels is the highest channel count of any supported instrument.
const MaxChannels = 16

// Validate checks configuration correctness.
// It performs declarative validation only.
// It MUST NOT mutate configuration.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config: nil config")
	}

	// ------------------------------------------------------------
	// DEVICE
	// ------------------------------------------------------------

	switch cfg.Device.Driver {
	case "", "sim":
	default:
		return fmt.Errorf("device: unsupported driver %q", cfg.Device.Driver)
	}
	if cfg.Device.Type != "" {
		if _, ok := eclib.ParseDeviceType(cfg.Device.Type); !ok {
			return fmt.Errorf("device: unknown type %q", cfg.Device.Type)
		}
	}
	if cfg.Device.TimeoutMs < 0 {
		return fmt.Errorf("device: timeout_ms must be >= 0")
	}
	if int(cfg.Device.Channel) >= MaxChannels {
		return fmt.Errorf("device: channel %d out of range 0..%d", cfg.Device.Channel, MaxChannels-1)
	}

	// ------------------------------------------------------------
	// TECHNIQUE
	// ------------------------------------------------------------

	if cfg.Technique.Name == "" {
		return fmt.Errorf("technique: name is required")
	}
	if _, err := technique.Lookup(cfg.Technique.Name); err != nil {
		return fmt.Errorf("technique: %w", err)
	}
	if r := cfg.Technique.OCV.ERange; r != nil && !validERange(*r) {
		return fmt.Errorf("technique.ocv: e_range %d out of range", *r)
	}
	if err := validateChrono(cfg.Technique.CA); err != nil {
		return fmt.Errorf("technique.ca: %w", err)
	}
	if err := validateChrono(cfg.Technique.CP); err != nil {
		return fmt.Errorf("technique.cp: %w", err)
	}

	// ------------------------------------------------------------
	// ACQUISITION
	// ------------------------------------------------------------

	a := cfg.Acquisition
	if a.MessageIntervalMs < 0 || a.DataIntervalMs < 0 || a.StopTimeoutMs < 0 {
		return fmt.Errorf("acquisition: intervals and timeouts must be >= 0")
	}
	if a.MessageBufferBytes < 0 || (a.MessageBufferBytes > 0 && a.MessageBufferBytes < 2) {
		return fmt.Errorf("acquisition: message_buffer_bytes must be >= 2")
	}

	// ------------------------------------------------------------
	// LOG
	// ------------------------------------------------------------

	switch cfg.Log.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("log: format must be text or json, got %q", cfg.Log.Format)
	}
	switch cfg.Log.Output {
	case "", "stdout":
	case "file":
		if cfg.Log.FilePath == "" {
			return fmt.Errorf("log: output=file requires file_path")
		}
	default:
		return fmt.Errorf("log: output must be stdout or file, got %q", cfg.Log.Output)
	}

	// ------------------------------------------------------------
	// OUTPUTS (OPT-IN)
	// ------------------------------------------------------------

	if cfg.Monitor.Enabled && (cfg.Monitor.MetricsPort < 0 || cfg.Monitor.MetricsPort > 65535) {
		return fmt.Errorf("monitor: metrics_port %d out of range", cfg.Monitor.MetricsPort)
	}

	if cfg.Redis.Enabled {
		if cfg.Redis.Addr == "" {
			return fmt.Errorf("redis: enabled but addr is empty")
		}
		if cfg.Redis.ListMax < 0 {
			return fmt.Errorf("redis: list_max must be >= 0")
		}
	}

	if cfg.Status.Enabled {
		if cfg.Status.Endpoint == "" {
			return fmt.Errorf("status: enabled but endpoint is empty")
		}
		if cfg.Status.TimeoutMs < 0 {
			return fmt.Errorf("status: timeout_ms must be >= 0")
		}
	}
	if cfg.Notify.Enabled {
		u, err := url.Parse(cfg.Notify.URL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("notify: url must be an http(s) URL, got %q", cfg.Notify.URL)
		}
		if cfg.Notify.TimeoutMs < 0 {
			return fmt.Errorf("notify: timeout_ms must be >= 0")
		}
	}

	// device_name sanity (ASCII only)
	for i := 0; i < len(cfg.Status.DeviceName); i++ {
		if cfg.Status.DeviceName[i] > 0x7F {
			return fmt.Errorf("status: device_name must contain ASCII characters only")
		}
	}

	// ------------------------------------------------------------
	// SIMULATOR
	// ------------------------------------------------------------

	if cfg.Sim.DeviceType != "" {
		if _, ok := eclib.ParseDeviceType(cfg.Sim.DeviceType); !ok {
			return fmt.Errorf("sim: unknown device_type %q", cfg.Sim.DeviceType)
		}
	}
	if cfg.Sim.RunSeconds < 0 || cfg.Sim.RowsPerBatch < 0 || cfg.Sim.FailDataAfter < 0 {
		return fmt.Errorf("sim: run_seconds, rows_per_batch and fail_data_after must be >= 0")
	}

	return nil
}

func validateChrono(c ChronoConfig) error {
	if len(c.Steps) > technique.StepCount {
		return fmt.Errorf("at most %d steps, got %d", technique.StepCount, len(c.Steps))
	}
	if n := c.StepNumber; n != nil && (*n < 0 || *n >= technique.StepCount) {
		return fmt.Errorf("step_number %d out of range 0..%d", *n, technique.StepCount-1)
	}
	if n := c.Cycles; n != nil && *n < 0 {
		return fmt.Errorf("cycles must be >= 0")
	}
	if r := c.IRange; r != nil && (*r < int32(eclib.IRange100pA) || *r > int32(eclib.IRangeAuto)) {
		return fmt.Errorf("i_range %d out of range", *r)
	}
	if r := c.ERange; r != nil && !validERange(*r) {
		return fmt.Errorf("e_range %d out of range", *r)
	}
	if b := c.Bandwidth; b != nil && (*b < 1 || *b > 9) {
		return fmt.Errorf("bandwidth %d out of range 1..9", *b)
	}
	return nil
}

func validERange(r int32) bool {
	return r >= int32(eclib.ERange2V5) && r <= int32(eclib.ERangeAuto)
}
