// internal/writer/builder.go
package writer

import (
	"errors"

	cfg "github.com/tamzrod/potentiostat-acquirer/internal/config"
	wmodbus "github.com/tamzrod/potentiostat-acquirer/internal/writer/modbus"
)

// BuildPlan converts the status config into a StatusPlan.
// Assumes config has already passed validation.
func BuildPlan(s cfg.StatusConfig) (StatusPlan, error) {
	if s.Endpoint == "" {
		return StatusPlan{}, errors.New("writer: status endpoint required")
	}
	return StatusPlan{
		Endpoint:   s.Endpoint,
		UnitID:     s.UnitID,
		BaseSlot:   s.Slot,
		DeviceName: s.DeviceName,
	}, nil
}

// BuildStatusWriter connects to the status endpoint and returns the writer
// with its closer. Returns (nil, no-op, nil) when status is disabled.
func BuildStatusWriter(s cfg.StatusConfig) (*DeviceStatusWriter, func() error, error) {
	noop := func() error { return nil }
	if !s.Enabled {
		return nil, noop, nil
	}

	plan, err := BuildPlan(s)
	if err != nil {
		return nil, noop, err
	}

	c, err := wmodbus.NewEndpointClient(wmodbus.Config{
		Endpoint: plan.Endpoint,
		Timeout:  s.Timeout(),
	})
	if err != nil {
		return nil, noop, err
	}

	sw, err := NewDeviceStatusWriter(plan, c)
	if err != nil {
		_ = c.Close()
		return nil, noop, err
	}
	return sw, c.Close, nil
}
