// Package gpu implements the PSX's GP0/GP1 command queues, the rendering
// command decode state machine, and dispatch of the resulting primitives
// to an external raster.Rasterizer.
package gpu

// HorizontalResolution is the GPU status word's horizontal-resolution
// field (GP1(0x08) display mode bits 0-1).
type HorizontalResolution int

const (
	HRes256 HorizontalResolution = iota
	HRes320
	HRes512
	HRes640
)

// VerticalResolution is the status word's vertical-resolution field.
type VerticalResolution int

const (
	VRes240 VerticalResolution = iota
	VRes480
)

// VideoMode is NTSC (60Hz) or PAL (50Hz).
type VideoMode int

const (
	VideoNTSC VideoMode = iota
	VideoPAL
)

// DisplayDepth is 15-bit or 24-bit display output.
type DisplayDepth int

const (
	DisplayDepth15Bit DisplayDepth = iota
	DisplayDepth24Bit
)

// DmaDirection is the GPU status word's DMA direction field, set by the
// GP1(0x04) command.
type DmaDirection int

const (
	DmaOff DmaDirection = iota
	DmaFifo
	DmaCpuToGp0
	DmaGpuToCpu
)

// SemiTransparencyMode is the texture page's blend-equation field.
type SemiTransparencyMode int

const (
	SemiHalf SemiTransparencyMode = iota
	SemiAdd
	SemiSub
	SemiQuarter
)

// TexturePageDepth is the texture page's color-depth field.
type TexturePageDepth int

const (
	TexDepth4Bit TexturePageDepth = iota
	TexDepth8Bit
	TexDepth15Bit
	TexDepthReserved
)

// Status is the GPU's 32-bit status register (GPUSTAT), read by the CPU
// at GP1 and mutated by both GP0 drawing-settings commands and GP1
// display commands.
type Status struct {
	TexpageXBase              uint8
	TexpageYBase              uint8
	SemiTransparencyMode      SemiTransparencyMode
	TexpageDepth              TexturePageDepth
	CompressionMode           bool
	EnableDrawingToDisplay    bool
	WriteToMask               bool
	EnableMask                bool
	Interlace                bool
	FlipScreenX               bool
	TexpageYBase2             uint8
	HorizontalResolution      HorizontalResolution
	ForceHorizontal368        bool
	VerticalResolution        VerticalResolution
	VideoMode                 VideoMode
	DisplayDepth              DisplayDepth
	VerticalInterlace         bool
	DisableDisplay            bool
	InterruptRequest          bool
	DmaRequest                bool
	ReadyToReceivePacket      bool
	ReadyToSendVram           bool
	ReadyToReceiveBlock       bool
	DmaDirection              DmaDirection
	InterlaceOdd              bool
}

// DefaultStatus is the power-on/GP1(0x00) reset value of GPUSTAT,
// 0x1480_2000 on real hardware.
func DefaultStatus() Status {
	return Decode(0x1480_2000)
}

// Decode unpacks a raw GPUSTAT value into a Status.
func Decode(value uint32) Status {
	return Status{
		TexpageXBase:           uint8(value & 0xF),
		TexpageYBase:           uint8((value >> 4) & 0x1),
		SemiTransparencyMode:   SemiTransparencyMode((value >> 5) & 0x3),
		TexpageDepth:           TexturePageDepth((value >> 7) & 0x3),
		CompressionMode:        value&(1<<9) != 0,
		EnableDrawingToDisplay: value&(1<<10) != 0,
		WriteToMask:            value&(1<<11) != 0,
		EnableMask:             value&(1<<12) != 0,
		Interlace:              value&(1<<13) != 0,
		FlipScreenX:            value&(1<<14) != 0,
		TexpageYBase2:          uint8((value >> 15) & 0x1),
		HorizontalResolution:   HorizontalResolution((value >> 16) & 0x3),
		ForceHorizontal368:     value&(1<<18) != 0,
		VerticalResolution:     VerticalResolution((value >> 19) & 0x1),
		VideoMode:              VideoMode((value >> 20) & 0x1),
		DisplayDepth:           DisplayDepth((value >> 21) & 0x1),
		VerticalInterlace:      value&(1<<22) != 0,
		DisableDisplay:         value&(1<<23) != 0,
		InterruptRequest:       value&(1<<24) != 0,
		DmaRequest:             value&(1<<25) != 0,
		ReadyToReceivePacket:   value&(1<<26) != 0,
		ReadyToSendVram:        value&(1<<27) != 0,
		ReadyToReceiveBlock:    value&(1<<28) != 0,
		DmaDirection:           DmaDirection((value >> 29) & 0x3),
		InterlaceOdd:           value&(1<<31) != 0,
	}
}

// Raw packs the status fields back into GPUSTAT's 32-bit layout.
func (s Status) Raw() uint32 {
	var v uint32
	v |= uint32(s.TexpageXBase) & 0xF
	v |= (uint32(s.TexpageYBase) & 0x1) << 4
	v |= (uint32(s.SemiTransparencyMode) & 0x3) << 5
	v |= (uint32(s.TexpageDepth) & 0x3) << 7
	if s.CompressionMode {
		v |= 1 << 9
	}
	if s.EnableDrawingToDisplay {
		v |= 1 << 10
	}
	if s.WriteToMask {
		v |= 1 << 11
	}
	if s.EnableMask {
		v |= 1 << 12
	}
	if s.Interlace {
		v |= 1 << 13
	}
	if s.FlipScreenX {
		v |= 1 << 14
	}
	v |= (uint32(s.TexpageYBase2) & 0x1) << 15
	v |= (uint32(s.HorizontalResolution) & 0x3) << 16
	if s.ForceHorizontal368 {
		v |= 1 << 18
	}
	v |= (uint32(s.VerticalResolution) & 0x1) << 19
	v |= (uint32(s.VideoMode) & 0x1) << 20
	v |= (uint32(s.DisplayDepth) & 0x1) << 21
	if s.VerticalInterlace {
		v |= 1 << 22
	}
	if s.DisableDisplay {
		v |= 1 << 23
	}
	if s.InterruptRequest {
		v |= 1 << 24
	}
	if s.DmaRequest {
		v |= 1 << 25
	}
	if s.ReadyToReceivePacket {
		v |= 1 << 26
	}
	if s.ReadyToSendVram {
		v |= 1 << 27
	}
	if s.ReadyToReceiveBlock {
		v |= 1 << 28
	}
	v |= (uint32(s.DmaDirection) & 0x3) << 29
	if s.InterlaceOdd {
		v |= 1 << 31
	}
	return v
}

// CyclesPerVBlank returns the CPU-cycle count between VBlank events for
// the status word's current video mode.
func (s Status) CyclesPerVBlank(cpuFrequency float64) uint32 {
	switch s.VideoMode {
	case VideoPAL:
		return uint32(cpuFrequency / 50.219)
	default:
		return uint32(cpuFrequency / 59.826)
	}
}
