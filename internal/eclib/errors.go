// internal/eclib/errors.go
package eclib

import (
	"errors"
	"fmt"
)

// ErrorCode is the numeric result of a device call. 0 is success.
type ErrorCode int32

const (
	ErrNoError ErrorCode = 0

	// general
	ErrGenNotConnected        ErrorCode = -1
	ErrGenConnectionInProg    ErrorCode = -2
	ErrGenChannelNotPlugged   ErrorCode = -3
	ErrGenInvalidParameters   ErrorCode = -4
	ErrGenFileNotExists       ErrorCode = -5
	ErrGenFunctionFailed      ErrorCode = -6
	ErrGenNoChannelSelected   ErrorCode = -7
	ErrGenInvalidConf         ErrorCode = -8
	ErrGenECLabLoaded         ErrorCode = -9
	ErrGenLibNotLoaded        ErrorCode = -10
	ErrGenUSBLibraryError     ErrorCode = -11
	ErrGenFunctionInProgress  ErrorCode = -12
	ErrGenChannelRunning      ErrorCode = -13
	ErrGenDeviceNotAllowed    ErrorCode = -14
	ErrGenUpdateParameters    ErrorCode = -15

	// instrument
	ErrInstrVMEError        ErrorCode = -101
	ErrInstrTooManyData     ErrorCode = -102
	ErrInstrRespNotPossible ErrorCode = -103
	ErrInstrRespError       ErrorCode = -104
	ErrInstrMsgSizeError    ErrorCode = -105

	// communication
	ErrCommCommFailed         ErrorCode = -200
	ErrCommConnectionFailed   ErrorCode = -201
	ErrCommWaitingAck         ErrorCode = -202
	ErrCommInvalidIPAddress   ErrorCode = -203
	ErrCommAllocMemFailed     ErrorCode = -204
	ErrCommLoadFirmwareFailed ErrorCode = -205
	ErrCommIncompatibleServer ErrorCode = -206
	ErrCommMaxConnReached     ErrorCode = -207

	// firmware
	ErrFirmFirmwareNotLoaded    ErrorCode = -308
	ErrFirmFirmwareIncompatible ErrorCode = -309

	// technique
	ErrTechECCFileNotExists    ErrorCode = -400
	ErrTechIncompatibleECC     ErrorCode = -401
	ErrTechECCFileCorrupted    ErrorCode = -402
	ErrTechLoadTechniqueFailed ErrorCode = -403
	ErrTechDataCorrupted       ErrorCode = -404
	ErrTechMemFull             ErrorCode = -405

	// client side
	ErrCustomDeviceMismatch ErrorCode = -9000
)

var codeNames = map[ErrorCode]string{
	ErrNoError:                  "ERR_NOERROR",
	ErrGenNotConnected:          "ERR_GEN_NOTCONNECTED",
	ErrGenConnectionInProg:      "ERR_GEN_CONNECTIONINPROGRESS",
	ErrGenChannelNotPlugged:     "ERR_GEN_CHANNELNOTPLUGGED",
	ErrGenInvalidParameters:     "ERR_GEN_INVALIDPARAMETERS",
	ErrGenFileNotExists:         "ERR_GEN_FILENOTEXISTS",
	ErrGenFunctionFailed:        "ERR_GEN_FUNCTIONFAILED",
	ErrGenNoChannelSelected:     "ERR_GEN_NOCHANNELELECTED",
	ErrGenInvalidConf:           "ERR_GEN_INVALIDCONF",
	ErrGenECLabLoaded:           "ERR_GEN_ECLAB_LOADED",
	ErrGenLibNotLoaded:          "ERR_GEN_LIBNOTCORRECTLYLOADED",
	ErrGenUSBLibraryError:       "ERR_GEN_USBLIBRARYERROR",
	ErrGenFunctionInProgress:    "ERR_GEN_FUNCTIONINPROGRESS",
	ErrGenChannelRunning:        "ERR_GEN_CHANNEL_RUNNING",
	ErrGenDeviceNotAllowed:      "ERR_GEN_DEVICE_NOTALLOWED",
	ErrGenUpdateParameters:      "ERR_GEN_UPDATEPARAMETERS",
	ErrInstrVMEError:            "ERR_INSTR_VMEERROR",
	ErrInstrTooManyData:         "ERR_INSTR_TOOMANYDATA",
	ErrInstrRespNotPossible:     "ERR_INSTR_RESPNOTPOSSIBLE",
	ErrInstrRespError:           "ERR_INSTR_RESPERROR",
	ErrInstrMsgSizeError:        "ERR_INSTR_MSGSIZEERROR",
	ErrCommCommFailed:           "ERR_COMM_COMMFAILED",
	ErrCommConnectionFailed:     "ERR_COMM_CONNECTIONFAILED",
	ErrCommWaitingAck:           "ERR_COMM_WAITINGACK",
	ErrCommInvalidIPAddress:     "ERR_COMM_INVALIDIPADDRESS",
	ErrCommAllocMemFailed:       "ERR_COMM_ALLOCMEMFAILED",
	ErrCommLoadFirmwareFailed:   "ERR_COMM_LOADFIRMWAREFAILED",
	ErrCommIncompatibleServer:   "ERR_COMM_INCOMPATIBLESERVER",
	ErrCommMaxConnReached:       "ERR_COMM_MAXCONNREACHED",
	ErrFirmFirmwareNotLoaded:    "ERR_FIRM_FIRMWARENOTLOADED",
	ErrFirmFirmwareIncompatible: "ERR_FIRM_FIRMWAREINCOMPATIBLE",
	ErrTechECCFileNotExists:     "ERR_TECH_ECCFILENOTEXISTS",
	ErrTechIncompatibleECC:      "ERR_TECH_INCOMPATIBLEECC",
	ErrTechECCFileCorrupted:     "ERR_TECH_ECCFILECORRUPTED",
	ErrTechLoadTechniqueFailed:  "ERR_TECH_LOADTECHNIQUEFAILED",
	ErrTechDataCorrupted:        "ERR_TECH_DATACORRUPTED",
	ErrTechMemFull:              "ERR_TECH_MEMFULL",
	ErrCustomDeviceMismatch:     "ERR_CUSTOM_DEVICEMISMATCH",
}

func (c ErrorCode) String() string {
	if n, ok := codeNames[c]; ok {
		return n
	}
	return fmt.Sprintf("ERR_UNKNOWN(%d)", int32(c))
}

// ---- PHASE SENTINELS ----

var (
	ErrTechniqueLoadFailed = errors.New("technique load failed")
	ErrStartFailed         = errors.New("start failed")
)

// DeviceError is a non-success result from a device call.
// Phase optionally names the higher-level step that failed and is
// exposed through errors.Is.
type DeviceError struct {
	Op    string
	Code  ErrorCode
	Phase error
}

// NewDeviceError returns nil for ErrNoError.
func NewDeviceError(op string, code ErrorCode) error {
	if code == ErrNoError {
		return nil
	}
	return &DeviceError{Op: op, Code: code}
}

func (e *DeviceError) Error() string {
	if e.Phase != nil {
		return fmt.Sprintf("eclib: %s: %v: %s (%d)", e.Op, e.Phase, e.Code, int32(e.Code))
	}
	return fmt.Sprintf("eclib: %s: %s (%d)", e.Op, e.Code, int32(e.Code))
}

func (e *DeviceError) Unwrap() error { return e.Phase }

// ErrorCode exposes the raw device code (see Code).
func (e *DeviceError) ErrorCode() int32 { return int32(e.Code) }

// WithPhase returns a copy of err tagged with phase if err is a DeviceError;
// other errors are wrapped.
func WithPhase(err error, phase error) error {
	if err == nil {
		return nil
	}
	var de *DeviceError
	if errors.As(err, &de) {
		cp := *de
		cp.Phase = phase
		return &cp
	}
	return fmt.Errorf("%w: %w", phase, err)
}

// Code extracts a best-effort device code from an error without assuming concrete types.
// If the error does not expose a code, returns ErrGenFunctionFailed.
func Code(err error) ErrorCode {
	if err == nil {
		return ErrNoError
	}

	type coder interface{ ErrorCode() int32 }

	var c coder
	if errors.As(err, &c) {
		return ErrorCode(c.ErrorCode())
	}
	return ErrGenFunctionFailed
}
