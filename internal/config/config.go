// internal/config/config.go
package config

type Config struct {
	Device      DeviceConfig      `yaml:"device"`
	Technique   TechniqueConfig   `yaml:"technique"`
	Acquisition AcquisitionConfig `yaml:"acquisition"`
	Log         LogConfig         `yaml:"log"`
	Monitor     MonitorConfig     `yaml:"monitor"`
	Redis       RedisConfig       `yaml:"redis"`
	Status      StatusConfig      `yaml:"status"`
	Notify      NotifyConfig      `yaml:"notify"`
	Sim         SimConfig         `yaml:"sim"`
}

// ---- DEVICE ----

type DeviceConfig struct {
	Driver    string `yaml:"driver"` // only "sim" is built in
	Type      string `yaml:"type"`   // expected model, e.g. "SP-300"; empty accepts any
	Address   string `yaml:"address"`
	TimeoutMs int    `yaml:"timeout_ms"`
	Channel   uint8  `yaml:"channel"`
}

// ---- TECHNIQUE ----

// TechniqueConfig selects the technique and overrides its default values.
// Unset fields keep the catalog defaults.
type TechniqueConfig struct {
	Name string       `yaml:"name"`
	OCV  OCVConfig    `yaml:"ocv"`
	CA   ChronoConfig `yaml:"ca"`
	CP   ChronoConfig `yaml:"cp"`
}

type OCVConfig struct {
	RestTime      *float32 `yaml:"rest_time"`
	RecordEveryDE *float32 `yaml:"record_every_de"`
	RecordEveryDT *float32 `yaml:"record_every_dt"`
	ERange        *int32   `yaml:"e_range"`
}

type StepConfig struct {
	Value     float32 `yaml:"value"`
	VsInitial bool    `yaml:"vs_initial"`
	Duration  float32 `yaml:"duration"`
}

type ChronoConfig struct {
	Steps         []StepConfig `yaml:"steps"` // replaces all steps when set
	StepNumber    *int32       `yaml:"step_number"`
	Cycles        *int32       `yaml:"cycles"`
	RecordEvery   *float32     `yaml:"record_every"`
	RecordEveryDT *float32     `yaml:"record_every_dt"`
	IRange        *int32       `yaml:"i_range"`
	ERange        *int32       `yaml:"e_range"`
	Bandwidth     *int32       `yaml:"bandwidth"`
}

// ---- ACQUISITION ----

type AcquisitionConfig struct {
	MessageIntervalMs  int  `yaml:"message_interval_ms"`
	MessageBufferBytes int  `yaml:"message_buffer_bytes"`
	DataIntervalMs     int  `yaml:"data_interval_ms"`
	StopTimeoutMs      int  `yaml:"stop_timeout_ms"`
	ShowParams         bool `yaml:"show_params"`
}

// ---- LOG ----

type LogConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"` // text | json
	Output   string `yaml:"output"` // stdout | file
	FilePath string `yaml:"file_path"`
}

// ---- MONITOR ----

type MonitorConfig struct {
	Enabled     bool `yaml:"enabled"`
	MetricsPort int  `yaml:"metrics_port"`
}

// ---- REDIS ----

type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Channel  string `yaml:"channel"`
	ListMax  int64  `yaml:"list_max"`
}

// ---- STATUS BLOCK ----

// StatusConfig mirrors the channel status into a Modbus register memory.
type StatusConfig struct {
	Enabled    bool   `yaml:"enabled"`
	Endpoint   string `yaml:"endpoint"`
	UnitID     uint8  `yaml:"unit_id"`
	Slot       uint16 `yaml:"slot"`
	DeviceName string `yaml:"device_name"`
	TimeoutMs  int    `yaml:"timeout_ms"`
}

// ---- NOTIFY ----

// NotifyConfig posts run failures to a chat webhook.
type NotifyConfig struct {
	Enabled   bool   `yaml:"enabled"`
	URL       string `yaml:"url"`
	UserID    string `yaml:"user_id"` // tagged in every message when set
	TimeoutMs int    `yaml:"timeout_ms"`
}

// ---- SIMULATOR ----

type SimConfig struct {
	DeviceType    string  `yaml:"device_type"`
	RunSeconds    float64 `yaml:"run_seconds"`
	RowsPerBatch  int     `yaml:"rows_per_batch"`
	FailDataAfter int     `yaml:"fail_data_after"`
}
