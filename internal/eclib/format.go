// internal/eclib/format.go
package eclib

import (
	"fmt"
	"strings"
)

// Explicit per-type dumps for diagnostics. One "Name: value" line per field.

func (d DeviceInfo) Format() string {
	var b strings.Builder
	line(&b, "DeviceCode", d.DeviceCode)
	line(&b, "RAMSize", d.RAMSize)
	line(&b, "CPU", d.CPU)
	line(&b, "NumberOfChannels", d.NumberOfChannels)
	line(&b, "NumberOfSlots", d.NumberOfSlots)
	line(&b, "FirmwareVersion", d.FirmwareVersion)
	line(&b, "FirmwareDate", fmt.Sprintf("%04d-%02d-%02d", d.FirmwareYear, d.FirmwareMonth, d.FirmwareDay))
	line(&b, "HTDisplayOn", d.HTDisplayOn)
	line(&b, "NbOfConnectedPC", d.NbOfConnectedPC)
	return b.String()
}

func (c ChannelInfo) Format() string {
	var b strings.Builder
	line(&b, "Channel", c.Channel)
	line(&b, "BoardVersion", c.BoardVersion)
	line(&b, "BoardSerialNumber", c.BoardSerialNumber)
	line(&b, "FirmwareCode", c.FirmwareCode)
	line(&b, "FirmwareVersion", c.FirmwareVersion)
	line(&b, "XilinxVersion", c.XilinxVersion)
	line(&b, "AmpCode", c.AmpCode)
	line(&b, "NbAmps", c.NbAmps)
	line(&b, "LCBoard", c.LCBoard)
	line(&b, "ZBoard", c.ZBoard)
	line(&b, "MemSize", c.MemSize)
	line(&b, "MemFilled", c.MemFilled)
	line(&b, "State", c.State)
	line(&b, "MaxIRange", c.MaxIRange)
	line(&b, "MinIRange", c.MinIRange)
	line(&b, "MaxBandwidth", c.MaxBandwidth)
	line(&b, "NbOfTechniques", c.NbOfTechniques)
	return b.String()
}

func (v CurrentValues) Format() string {
	var b strings.Builder
	line(&b, "State", v.State)
	line(&b, "MemFilled", v.MemFilled)
	line(&b, "TimeBase", v.TimeBase)
	line(&b, "Ewe", v.Ewe)
	line(&b, "EweRange", fmt.Sprintf("[%g, %g]", v.EweRangeMin, v.EweRangeMax))
	line(&b, "Ece", v.Ece)
	line(&b, "EceRange", fmt.Sprintf("[%g, %g]", v.EceRangeMin, v.EceRangeMax))
	line(&b, "EOverflow", v.EOverflow)
	line(&b, "I", v.I)
	line(&b, "IRange", v.IRange)
	line(&b, "IOverflow", v.IOverflow)
	line(&b, "ElapsedTime", v.ElapsedTime)
	line(&b, "Freq", v.Freq)
	line(&b, "Rcomp", v.Rcomp)
	line(&b, "Saturation", v.Saturation)
	line(&b, "OptErr", v.OptErr)
	line(&b, "OptPos", v.OptPos)
	return b.String()
}

func (i DataInfos) Format() string {
	var b strings.Builder
	line(&b, "IRQSkipped", i.IRQSkipped)
	line(&b, "Rows", i.Rows)
	line(&b, "Cols", i.Cols)
	line(&b, "TechniqueIndex", i.TechniqueIndex)
	line(&b, "TechniqueID", i.TechniqueID)
	line(&b, "ProcessIndex", i.ProcessIndex)
	line(&b, "Loop", i.Loop)
	line(&b, "StartTime", i.StartTime)
	return b.String()
}

func line(b *strings.Builder, name string, v any) {
	fmt.Fprintf(b, "%s: %v\n", name, v)
}
