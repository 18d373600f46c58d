// internal/status/constants.go
package status

// Channel status block layout constants.
// These values define the protocol and MUST NOT be configurable.

// ---- BLOCK GEOMETRY ----

// SlotsPerDevice is the fixed number of registers per channel block.
const SlotsPerDevice = 20

// ---- SLOT INDICES ----

// SlotHealthCode holds the channel health state.
const SlotHealthCode = 0

// SlotLastErrorCode holds the last device error code (int16, two's complement).
const SlotLastErrorCode = 1

// SlotSecondsInError holds the duration (in seconds) the channel has been in error.
const SlotSecondsInError = 2

// SlotChannelState holds the channel state (0 stopped, 1 running, 2 paused).
const SlotChannelState = 3

// SlotTechniqueID holds the instrument id of the loaded technique.
const SlotTechniqueID = 4

// SlotRowsHi and SlotRowsLo hold the decoded row count of the run (uint32).
const (
	SlotRowsHi = 5
	SlotRowsLo = 6
)

// SlotEweHi and SlotEweLo hold the last Ewe as float32 bits.
const (
	SlotEweHi = 7
	SlotEweLo = 8
)

// SlotLiveEnd is the last live slot (inclusive).
const SlotLiveEnd = SlotEweLo

// ---- RESERVED RANGE ----

// Slots 9-10 are reserved for future use.
const SlotReservedStart = 9
const SlotReservedEnd = 10

// ---- DEVICE NAME ----

// SlotDeviceNameStart is the first slot used for the device name.
// Device name is always placed at the END of the status block.
const SlotDeviceNameStart = 11

// SlotDeviceNameSlots is the number of slots reserved for the device name.
const SlotDeviceNameSlots = 8

// SlotDeviceNameEnd is the last slot used for the device name (inclusive).
const SlotDeviceNameEnd = SlotDeviceNameStart + SlotDeviceNameSlots - 1

// ---- LIMITS ----

// DeviceNameMaxChars is the maximum number of ASCII characters stored for device name.
const DeviceNameMaxChars = 16

// MaxSecondsInError is where seconds_in_error saturates.
const MaxSecondsInError = 65535

// ---- HEALTH CODES ----

// HealthUnknown represents an unknown or boot state.
const HealthUnknown uint16 = 0

// HealthOK represents a healthy channel.
const HealthOK uint16 = 1

// HealthError represents a device error state.
const HealthError uint16 = 2

// HealthStale represents a run that ended without new data.
const HealthStale uint16 = 3

// HealthDisabled represents a disconnected channel.
const HealthDisabled uint16 = 4
