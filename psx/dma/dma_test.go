package dma

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valerio/psxgo/psx/addr"
	"github.com/valerio/psxgo/psx/interrupt"
)

// fakeBus is a flat little-endian word-addressable RAM standing in for
// the real bus in DMA tests.
type fakeBus struct {
	words map[uint32]uint32
}

func newFakeBus() *fakeBus {
	return &fakeBus{words: make(map[uint32]uint32)}
}

func (b *fakeBus) ReadWord(address uint32) (uint32, error) {
	return b.words[address&^0b11], nil
}

func (b *fakeBus) WriteWord(address uint32, value uint32) error {
	b.words[address&^0b11] = value
	return nil
}

type fakeGPU struct {
	received []uint32
}

func (g *fakeGPU) PushGP0(word uint32) {
	g.received = append(g.received, word)
}

func newTestController() (*Controller, *fakeBus, *fakeGPU, *interrupt.Controller) {
	bus := newFakeBus()
	gpu := &fakeGPU{}
	irq := interrupt.New()
	return New(bus, gpu, irq), bus, gpu, irq
}

// enableChannel sets channel ch enabled with the given priority in the
// global control register.
func enableChannel(c *Controller, ch Channel, priority uint8) {
	c.Control.Raw |= 1 << (uint(ch)*4 + 3)
	c.Control.Raw |= uint32(priority&0x7) << (uint(ch) * 4)
}

func TestOTCLinkedListTerminatorChain(t *testing.T) {
	c, bus, _, _ := newTestController()

	const base = 0x0010_0000
	c.Channels[ChannelOTC].Base = base
	c.Channels[ChannelOTC].BlockSize = 32
	c.Channels[ChannelOTC].Control = ChannelControl{Mode: ModeBurst, TransferOngoing: true}
	enableChannel(c, ChannelOTC, 0)

	c.Update()

	word, _ := bus.ReadWord(base)
	assert.Equal(t, uint32(0x00FF_FFFF), word)

	for i := uint32(1); i < 32; i++ {
		addr := base - i*4
		expected := (base - (i+1)*4) & 0x00FF_FFFF
		got, _ := bus.ReadWord(addr)
		assert.Equal(t, expected, got, "word at offset -%d*4", i)
	}

	assert.False(t, c.Channels[ChannelOTC].Control.TransferOngoing)
}

func TestGPULinkedListWalksUntilTerminator(t *testing.T) {
	c, bus, gpu, _ := newTestController()

	// Node at 0x1000: 2 words follow, next node at 0x2000.
	bus.WriteWord(0x1000, (2<<24)|0x2000)
	bus.WriteWord(0x1004, 0xAAAA_AAAA)
	bus.WriteWord(0x1008, 0xBBBB_BBBB)

	// Node at 0x2000: 1 word follows, terminator.
	bus.WriteWord(0x2000, (1<<24)|0x00FF_FFFF)
	bus.WriteWord(0x2004, 0xCCCC_CCCC)

	c.Channels[ChannelGPU].Base = 0x1000
	c.Channels[ChannelGPU].Control = ChannelControl{Mode: ModeLinkedList, TransferOngoing: true}
	enableChannel(c, ChannelGPU, 1)

	c.Update()

	require.Len(t, gpu.received, 2)
	assert.Equal(t, uint32(0xAAAA_AAAA), gpu.received[0])
	assert.Equal(t, uint32(0xBBBB_BBBB), gpu.received[1])
}

func TestHigherPriorityChannelRunsFirst(t *testing.T) {
	c, _, _, _ := newTestController()

	c.Channels[ChannelOTC].Base = 0x100
	c.Channels[ChannelOTC].BlockSize = 2
	c.Channels[ChannelOTC].Control = ChannelControl{Mode: ModeBurst, TransferOngoing: true}
	enableChannel(c, ChannelOTC, 1)

	order := c.enabledByPriority()
	require.Len(t, order, 1)
	assert.Equal(t, ChannelOTC, order[0])

	enableChannel(c, ChannelGPU, 7)
	c.Channels[ChannelGPU].Control = ChannelControl{Mode: ModeBurst, TransferOngoing: true}

	order = c.enabledByPriority()
	require.Len(t, order, 2)
	assert.Equal(t, ChannelGPU, order[0], "higher priority value runs first")
	assert.Equal(t, ChannelOTC, order[1])
}

func TestInterruptFlagRaisedOnceOnTransition(t *testing.T) {
	c, _, _, irq := newTestController()

	c.Channels[ChannelOTC].Base = 0x100
	c.Channels[ChannelOTC].BlockSize = 4
	c.Channels[ChannelOTC].Control = ChannelControl{Mode: ModeBurst, TransferOngoing: true}
	enableChannel(c, ChannelOTC, 0)

	c.Interrupt.MasterEnable = true
	c.Interrupt.ChannelMask[ChannelOTC] = true

	c.Update()

	assert.True(t, c.Interrupt.ChannelFlags[ChannelOTC])
	assert.True(t, c.Interrupt.MasterFlag)
	assert.True(t, irq.Active() || irq.Status&(1<<addr.IRQDMA) != 0)
}

func TestWriteInterruptControlIsWriteOneToClear(t *testing.T) {
	c, _, _, _ := newTestController()
	c.Interrupt.ChannelFlags[0] = true
	c.Interrupt.ChannelFlags[1] = true

	// Write with bit 24 (flag 0) set clears it; bit 25 (flag 1) unset keeps it.
	c.writeInterruptControl(1 << 24)

	assert.False(t, c.Interrupt.ChannelFlags[0])
	assert.True(t, c.Interrupt.ChannelFlags[1])
}

func TestRegisterReadWriteRoundTrip(t *testing.T) {
	c, _, _, _ := newTestController()

	ok := c.Write(addr.DMAChannelOffset(int(ChannelGPU))+0x0, 0x0012_3456)
	require.True(t, ok)
	value, ok := c.Read(addr.DMAChannelOffset(int(ChannelGPU)) + 0x0)
	require.True(t, ok)
	assert.Equal(t, uint32(0x0012_3456), value)

	ok = c.Write(addr.OffDMAControl, 0x0765_4321)
	require.True(t, ok)
	value, ok = c.Read(addr.OffDMAControl)
	require.True(t, ok)
	assert.Equal(t, uint32(0x0765_4321), value)
}
