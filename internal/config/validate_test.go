// internal/config/validate_test.go
package config

import (
	"strings"
	"testing"

	"github.com/tamzrod/potentiostat-acquirer/internal/eclib"
)

// helper to build a minimal valid config quickly
func base() *Config {
	return &Config{
		Device:    DeviceConfig{Driver: "sim", Address: "10.0.0.5", Channel: 0},
		Technique: TechniqueConfig{Name: "ocv"},
	}
}

func i32(v int32) *int32     { return &v }
func f32p(v float32) *float32 { return &v }

func expectErr(t *testing.T, cfg *Config, contains string) {
	t.Helper()
	err := Validate(cfg)
	if err == nil {
		t.Fatalf("expected error containing %q, got nil", contains)
	}
	if !strings.Contains(err.Error(), contains) {
		t.Fatalf("expected error containing %q, got %v", contains, err)
	}
}

// ---- tests ----

func TestValidate_Minimal(t *testing.T) {
	if err := Validate(base()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_TechniqueAliases(t *testing.T) {
	for _, name := range []string{"OCV", "chrono-amperometry", "CP", "open_circuit_voltage"} {
		cfg := base()
		cfg.Technique.Name = name
		if err := Validate(cfg); err != nil {
			t.Fatalf("%s: unexpected error: %v", name, err)
		}
	}
}

func TestValidate_UnknownTechnique(t *testing.T) {
	cfg := base()
	cfg.Technique.Name = "peis"
	expectErr(t, cfg, "unknown technique")
}

func TestValidate_MissingTechnique(t *testing.T) {
	cfg := base()
	cfg.Technique.Name = ""
	expectErr(t, cfg, "name is required")
}

func TestValidate_ChannelOutOfRange(t *testing.T) {
	cfg := base()
	cfg.Device.Channel = MaxChannels
	expectErr(t, cfg, "channel 16 out of range")
}

func TestValidate_UnsupportedDriver(t *testing.T) {
	cfg := base()
	cfg.Device.Driver = "usb"
	expectErr(t, cfg, "unsupported driver")
}

func TestValidate_ChronoBounds(t *testing.T) {
	cfg := base()
	cfg.Technique.CA.Steps = make([]StepConfig, 4)
	expectErr(t, cfg, "technique.ca: at most 3 steps")

	cfg = base()
	cfg.Technique.CP.StepNumber = i32(3)
	expectErr(t, cfg, "technique.cp: step_number 3")

	cfg = base()
	cfg.Technique.CA.IRange = i32(13)
	expectErr(t, cfg, "i_range 13")

	cfg = base()
	cfg.Technique.CP.Bandwidth = i32(0)
	expectErr(t, cfg, "bandwidth 0")

	cfg = base()
	cfg.Technique.OCV.ERange = i32(4)
	expectErr(t, cfg, "technique.ocv: e_range 4")
}

func TestValidate_RedisRequiresAddr(t *testing.T) {
	cfg := base()
	cfg.Redis.Enabled = true
	expectErr(t, cfg, "redis: enabled but addr is empty")

	cfg.Redis.Addr = "localhost:6379"
	if err := Validate(cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_StatusRequiresEndpoint(t *testing.T) {
	cfg := base()
	cfg.Status.Enabled = true
	expectErr(t, cfg, "status: enabled but endpoint is empty")
}

func TestValidate_StatusDeviceNameASCII(t *testing.T) {
	cfg := base()
	cfg.Status.DeviceName = "cellé"
	expectErr(t, cfg, "ASCII")
}

func TestValidate_LogFileNeedsPath(t *testing.T) {
	cfg := base()
	cfg.Log.Output = "file"
	expectErr(t, cfg, "file_path")
}

func TestValidate_SimDeviceType(t *testing.T) {
	cfg := base()
	cfg.Sim.DeviceType = "SP-200"
	if err := Validate(cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cfg.Sim.DeviceType = "SP-999"
	expectErr(t, cfg, "unknown device_type")
}

func TestValidate_DeviceType(t *testing.T) {
	cfg := base()
	cfg.Device.Type = "SP-300"
	if err := Validate(cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cfg.Device.Type = "sp300"
	expectErr(t, cfg, "device: unknown type")
}

func TestValidate_NotifyURL(t *testing.T) {
	cfg := base()
	cfg.Notify.URL = "not a url"
	if err := Validate(cfg); err != nil {
		t.Fatalf("disabled notify must not be checked: %v", err)
	}

	cfg.Notify.Enabled = true
	expectErr(t, cfg, "notify: url")

	cfg.Notify.URL = "https://hooks.example.com/services/T000/B000/XXX"
	if err := Validate(cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestNormalize_NotifyTimeout(t *testing.T) {
	cfg := base()
	Normalize(cfg)
	if cfg.Notify.Timeout().Seconds() != 5 {
		t.Fatalf("notify timeout=%s", cfg.Notify.Timeout())
	}
}

func TestValidate_DoesNotMutate(t *testing.T) {
	cfg := base()
	cfg.Status.DeviceName = "a-very-long-device-name"
	_ = Validate(cfg)
	if cfg.Status.DeviceName != "a-very-long-device-name" || cfg.Acquisition.StopTimeoutMs != 0 {
		t.Fatalf("Validate mutated config: %+v", cfg)
	}
}

// ---- normalize ----

func TestNormalize_Defaults(t *testing.T) {
	cfg := base()
	cfg.Device.Driver = ""
	cfg.Status.DeviceName = "a-very-long-device-name"
	Normalize(cfg)

	if cfg.Device.Driver != "sim" {
		t.Fatalf("driver=%q", cfg.Device.Driver)
	}
	if cfg.Acquisition.MessageIntervalMs != 100 || cfg.Acquisition.MessageBufferBytes != 512 {
		t.Fatalf("message defaults: %+v", cfg.Acquisition)
	}
	if cfg.Acquisition.StopTimeout().Seconds() != 30 {
		t.Fatalf("stop timeout=%s", cfg.Acquisition.StopTimeout())
	}
	if cfg.Status.DeviceName != "a-very-long-devi" {
		t.Fatalf("device_name not truncated: %q", cfg.Status.DeviceName)
	}
	if cfg.Log.Format != "text" || cfg.Log.Output != "stdout" || cfg.Log.Level != "info" {
		t.Fatalf("log defaults: %+v", cfg.Log)
	}
}

func TestNormalize_KeepsExplicitValues(t *testing.T) {
	cfg := base()
	cfg.Acquisition.DataIntervalMs = 250
	cfg.Redis.Channel = "cells"
	Normalize(cfg)

	if cfg.Acquisition.DataIntervalMs != 250 || cfg.Redis.Channel != "cells" {
		t.Fatalf("explicit values overwritten: %+v %+v", cfg.Acquisition, cfg.Redis)
	}
}

// ---- settings ----

func TestSettings_DefaultsWithoutOverrides(t *testing.T) {
	s := base().Technique.Settings()
	if s.CA.Steps[0].Value != 1.5 || s.CP.IRange != eclib.IRange10mA {
		t.Fatalf("defaults not applied: %+v", s)
	}
}

func TestSettings_Overrides(t *testing.T) {
	tc := TechniqueConfig{
		Name: "ca",
		OCV:  OCVConfig{RestTime: f32p(10)},
		CA: ChronoConfig{
			Steps:      []StepConfig{{Value: 0.8, Duration: 5}},
			StepNumber: i32(0),
			Bandwidth:  i32(7),
		},
	}
	s := tc.Settings()

	if s.OCV.RestTime != 10 {
		t.Fatalf("rest_time=%v", s.OCV.RestTime)
	}
	if s.CA.Steps[0].Value != 0.8 || s.CA.Steps[0].Duration != 5 {
		t.Fatalf("step 0=%+v", s.CA.Steps[0])
	}
	// replaced step list clears the remaining steps
	if s.CA.Steps[1].Value != 0 || s.CA.Steps[2].Duration != 0 {
		t.Fatalf("steps not cleared: %+v", s.CA.Steps)
	}
	if s.CA.StepNumber != 0 || s.CA.Bandwidth != eclib.BW7 {
		t.Fatalf("chrono overrides: %+v", s.CA)
	}
	// CP untouched
	if s.CP.Steps[0].Value != 0.002 {
		t.Fatalf("cp changed: %+v", s.CP.Steps)
	}
}

// ---- parse ----

func TestParse_RejectsUnknownKeys(t *testing.T) {
	_, err := Parse([]byte("device:\n  adress: 1.2.3.4\n"))
	if err == nil {
		t.Fatalf("expected error for unknown key")
	}
}

func TestParse_Full(t *testing.T) {
	src := `
device:
  driver: sim
  address: 192.168.0.20
  channel: 2
technique:
  name: cp
  cp:
    cycles: 3
    record_every: 0.05
acquisition:
  stop_timeout_ms: 5000
redis:
  enabled: true
  addr: localhost:6379
status:
  enabled: true
  endpoint: 127.0.0.1:502
  unit_id: 1
  slot: 4
  device_name: cell-2
`
	cfg, err := Parse([]byte(src))
	if err != nil {
		t.Fatalf("Parse err=%v", err)
	}
	if err := Validate(cfg); err != nil {
		t.Fatalf("Validate err=%v", err)
	}
	if cfg.Device.Channel != 2 || cfg.Status.Slot != 4 || *cfg.Technique.CP.Cycles != 3 {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if got := cfg.Technique.Settings().CP.RecordEvery; got != 0.05 {
		t.Fatalf("record_every=%v", got)
	}
}

func TestParse_Empty(t *testing.T) {
	cfg, err := Parse(nil)
	if err != nil || cfg == nil {
		t.Fatalf("Parse(nil) = %v, %v", cfg, err)
	}
}
