// internal/config/normalize.go
package config

// Defaults applied by Normalize.
const (
	DefaultDriver          = "sim"
	DefaultAddress         = "127.0.0.1"
	DefaultTimeoutMs       = 5000
	DefaultMessageInterval = 100
	DefaultMessageBuffer   = 512
	DefaultDataInterval    = 10
	DefaultStopTimeoutMs   = 30000
	DefaultMetricsPort     = 9090
	DefaultRedisChannel    = "acquirer_data"
	DefaultRedisListMax    = 1000
	DefaultStatusTimeoutMs = 1000
	DefaultNotifyTimeoutMs = 5000
	DefaultSimDeviceType   = "VMP3"
	DefaultSimRunSeconds   = 2
	DefaultSimRowsPerBatch = 10

	maxDeviceName = 16
)

// Normalize applies post-validation normalization.
// It is allowed to mutate configuration.
// It MUST be called only after Validate().
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}

	// ---- device ----
	if cfg.Device.Driver == "" {
		cfg.Device.Driver = DefaultDriver
	}
	if cfg.Device.Address == "" {
		cfg.Device.Address = DefaultAddress
	}
	if cfg.Device.TimeoutMs == 0 {
		cfg.Device.TimeoutMs = DefaultTimeoutMs
	}

	// ---- acquisition ----
	a := &cfg.Acquisition
	if a.MessageIntervalMs == 0 {
		a.MessageIntervalMs = DefaultMessageInterval
	}
	if a.MessageBufferBytes == 0 {
		a.MessageBufferBytes = DefaultMessageBuffer
	}
	if a.DataIntervalMs == 0 {
		a.DataIntervalMs = DefaultDataInterval
	}
	if a.StopTimeoutMs == 0 {
		a.StopTimeoutMs = DefaultStopTimeoutMs
	}

	// ---- log ----
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}

	// ---- outputs ----
	if cfg.Monitor.MetricsPort == 0 {
		cfg.Monitor.MetricsPort = DefaultMetricsPort
	}
	if cfg.Redis.Channel == "" {
		cfg.Redis.Channel = DefaultRedisChannel
	}
	if cfg.Redis.ListMax == 0 {
		cfg.Redis.ListMax = DefaultRedisListMax
	}
	if cfg.Status.TimeoutMs == 0 {
		cfg.Status.TimeoutMs = DefaultStatusTimeoutMs
	}
	if cfg.Notify.TimeoutMs == 0 {
		cfg.Notify.TimeoutMs = DefaultNotifyTimeoutMs
	}

	// device_name: ASCII already validated, truncate to the register span
	if len(cfg.Status.DeviceName) > maxDeviceName {
		cfg.Status.DeviceName = cfg.Status.DeviceName[:maxDeviceName]
	}

	// ---- sim ----
	if cfg.Sim.DeviceType == "" {
		cfg.Sim.DeviceType = DefaultSimDeviceType
	}
	if cfg.Sim.RunSeconds == 0 {
		cfg.Sim.RunSeconds = DefaultSimRunSeconds
	}
	if cfg.Sim.RowsPerBatch == 0 {
		cfg.Sim.RowsPerBatch = DefaultSimRowsPerBatch
	}
}
