package dma

import "github.com/valerio/psxgo/psx/addr"

// channelRegisterOffset splits an IOPortsBase-relative offset inside the
// DMA channel register window into a channel index and an in-channel
// register selector (0 = base, 4 = block control, 8 = channel control).
func channelRegisterOffset(offset uint32) (ch Channel, reg uint32, ok bool) {
	if offset < addr.OffDMABase || offset >= addr.OffDMAControl {
		return 0, 0, false
	}
	rel := offset - addr.OffDMABase
	ch = Channel(rel / 0x10)
	reg = rel % 0x10
	return ch, reg, true
}

// Read services a load from the DMA register window. offset is relative to
// addr.IOPortsBase, matching addr.OffDMABase/OffDMAControl/OffDMAIrq. ok is
// false if offset doesn't belong to the DMA controller.
func (c *Controller) Read(offset uint32) (value uint32, ok bool) {
	switch offset {
	case addr.OffDMAControl:
		return c.Control.Raw, true
	case addr.OffDMAIrq:
		return c.Interrupt.Raw(), true
	}

	ch, reg, ok := channelRegisterOffset(offset)
	if !ok {
		return 0, false
	}
	state := &c.Channels[ch]
	switch reg {
	case 0x0:
		return state.Base, true
	case 0x4:
		return uint32(state.BlockCount)<<16 | uint32(state.BlockSize), true
	case 0x8:
		return state.Control.Raw(), true
	default:
		return 0, false
	}
}

// Write services a store to the DMA register window: plain overwrite for
// base/block/channel control and global control; masked overwrite plus
// write-1-clear for the interrupt control register. It returns false if
// offset doesn't belong to the DMA controller, true otherwise -- the
// caller is responsible for scheduling the DmaUpdate event this write
// implies.
func (c *Controller) Write(offset uint32, value uint32) bool {
	switch offset {
	case addr.OffDMAControl:
		c.Control.Raw = value
		return true
	case addr.OffDMAIrq:
		c.writeInterruptControl(value)
		return true
	}

	ch, reg, ok := channelRegisterOffset(offset)
	if !ok {
		return false
	}
	state := &c.Channels[ch]
	switch reg {
	case 0x0:
		state.Base = value & 0x00FF_FFFF
	case 0x4:
		state.BlockSize = uint16(value)
		state.BlockCount = uint16(value >> 16)
	case 0x8:
		state.Control = DecodeChannelControl(value)
	default:
		return false
	}
	return true
}

// writeInterruptControl applies DICR's write semantics: mode/mask/bus-
// error/master-enable bits are a plain overwrite, flag bits are
// write-1-to-clear, and the master flag is recomputed afterward.
func (c *Controller) writeInterruptControl(value uint32) {
	written := DecodeInterruptControl(value)

	c.Interrupt.ChannelMode = written.ChannelMode
	c.Interrupt.ChannelMask = written.ChannelMask
	c.Interrupt.BusError = written.BusError
	c.Interrupt.MasterEnable = written.MasterEnable

	for i := 0; i < numChannels; i++ {
		if written.ChannelFlags[i] {
			c.Interrupt.ChannelFlags[i] = false
		}
	}

	c.Interrupt.recomputeMasterFlag()
}
