// internal/eclib/device.go
package eclib

import (
	"time"

	"github.com/tamzrod/potentiostat-acquirer/internal/ecc"
)

// Device abstracts the vendor call interface.
// Every call reports its own result; callers never assume success.
// Implementations must be safe for concurrent use by the two pollers and
// the control flow.
type Device interface {
	Connect(address string, timeout time.Duration) (ConnID, DeviceInfo, error)
	Disconnect(id ConnID) error

	LoadTechnique(id ConnID, channel uint8, params *ecc.ParamList, first, last, showParams bool) error
	StartChannel(id ConnID, channel uint8) error
	StopChannel(id ConnID, channel uint8) error

	// GetMessage fills buf with the next pending log text, NUL terminated.
	// An empty message (buf[0] == 0) means nothing pending.
	GetMessage(id ConnID, channel uint8, buf []byte) (int, error)

	// GetData fills buf with up to Rows*Cols words.
	GetData(id ConnID, channel uint8, buf *RawBuffer) (DataInfos, CurrentValues, error)

	GetChannelInfo(id ConnID, channel uint8) (ChannelInfo, error)
	GetCurrentValues(id ConnID, channel uint8) (CurrentValues, error)

	Converter
}

// Converter turns a raw fixed-point sample into a float.
type Converter interface {
	ConvertNumericIntoSingle(raw uint32) (float32, error)
}

// Family is the device-generation capability descriptor.
// Resolve it once per connected session and pass it to every encode/decode.
type Family struct {
	VMP4 bool
}

var vmp4Devices = map[DeviceType]struct{}{
	DevSP200:  {},
	DevSP300:  {},
	DevVSP300: {},
	DevVMP300: {},
	DevSP240:  {},
}

// FamilyOf resolves the capability descriptor for a device type code.
func FamilyOf(d DeviceType) Family {
	_, ok := vmp4Devices[d]
	return Family{VMP4: ok}
}

func (f Family) String() string {
	if f.VMP4 {
		return "vmp4"
	}
	return "vmp3"
}
