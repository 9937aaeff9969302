// Package dma implements the PSX's seven-channel DMA controller: priority
// arbitration across channels, the three transfer modes (burst, slice,
// linked-list), and the interrupt-flag/master-flag bookkeeping that feeds
// the interrupt controller.
package dma

import (
	"log/slog"

	"github.com/valerio/psxgo/psx/addr"
	"github.com/valerio/psxgo/psx/interrupt"
)

// Channel identifies one of the seven fixed DMA channels, in hardware
// register order.
type Channel int

const (
	ChannelMDECIn Channel = iota
	ChannelMDECOut
	ChannelGPU
	ChannelCDROM
	ChannelSPU
	ChannelPIO
	ChannelOTC

	numChannels = 7
)

func (c Channel) String() string {
	switch c {
	case ChannelMDECIn:
		return "MDECIn"
	case ChannelMDECOut:
		return "MDECOut"
	case ChannelGPU:
		return "GPU"
	case ChannelCDROM:
		return "CDROM"
	case ChannelSPU:
		return "SPU"
	case ChannelPIO:
		return "PIO"
	case ChannelOTC:
		return "OTC"
	default:
		return "Unknown"
	}
}

// Direction is the transfer direction bit of a channel's control word.
type Direction int

const (
	DeviceToRAM Direction = iota
	RAMToDevice
)

// Step is the data-direction bit: whether the transferred address walks
// forward or backward through memory.
type Step int

const (
	Forward Step = iota
	Backward
)

// Mode is the transfer-mode field of a channel's control word.
type Mode int

const (
	ModeBurst Mode = iota
	ModeSlice
	ModeLinkedList
)

// Bus is the subset of bus behavior the DMA controller needs to move
// words in and out of RAM. Consumer-defined here, satisfied by the
// top-level bus type, to avoid an import cycle into the hub package.
type Bus interface {
	ReadWord(address uint32) (uint32, error)
	WriteWord(address uint32, value uint32) error
}

// GPUPort is the subset of the GPU's render-queue behavior that GPU
// channel transfers (slice and linked-list) feed words into.
type GPUPort interface {
	PushGP0(word uint32)
}

// ChannelControl decodes a single channel's DMACCN register.
type ChannelControl struct {
	Direction         Direction
	Step              Step
	ChoppingEnabled   bool
	Mode              Mode
	ChoppingDMAWindow uint8
	ChoppingCPUWindow uint8
	TransferOngoing   bool
	ForceTransfer     bool
}

// DecodeChannelControl unpacks a 32-bit DMACCN channel control register
// into its individual fields.
func DecodeChannelControl(value uint32) ChannelControl {
	return ChannelControl{
		Direction:         Direction(value & 1),
		Step:              Step((value >> 1) & 1),
		ChoppingEnabled:   value&(1<<8) != 0,
		Mode:              Mode((value >> 9) & 0x3),
		ChoppingDMAWindow: uint8((value >> 16) & 0x7),
		ChoppingCPUWindow: uint8((value >> 20) & 0x7),
		TransferOngoing:   value&(1<<24) != 0,
		ForceTransfer:     value&(1<<28) != 0,
	}
}

// Raw packs the channel control fields back into a 32-bit register value.
func (c ChannelControl) Raw() uint32 {
	var v uint32
	v |= uint32(c.Direction) & 1
	v |= (uint32(c.Step) & 1) << 1
	if c.ChoppingEnabled {
		v |= 1 << 8
	}
	v |= (uint32(c.Mode) & 0x3) << 9
	v |= uint32(c.ChoppingDMAWindow&0x7) << 16
	v |= uint32(c.ChoppingCPUWindow&0x7) << 20
	if c.TransferOngoing {
		v |= 1 << 24
	}
	if c.ForceTransfer {
		v |= 1 << 28
	}
	return v
}

// ChannelState is the full register set for one DMA channel.
type ChannelState struct {
	Base         uint32 // 24-bit word-aligned base address
	BlockSize    uint16
	BlockCount   uint16
	Control      ChannelControl
}

// Control is the global DMA control register (DPCR): per-channel
// priority/enable nibbles plus a CPU-priority field.
type Control struct {
	Raw uint32
}

// Enabled reports whether channel ch is enabled in the global control word.
func (c Control) Enabled(ch Channel) bool {
	return c.Raw&(1<<(uint(ch)*4+3)) != 0
}

// Priority returns channel ch's 3-bit priority. Higher values win, with
// channel index as the ascending tiebreaker when priorities are equal.
func (c Control) Priority(ch Channel) uint8 {
	return uint8((c.Raw >> (uint(ch) * 4)) & 0x7)
}

// InterruptControl is the DMA interrupt control register (DICR).
type InterruptControl struct {
	ChannelMode  [numChannels]bool // false = on completion, true = on segment
	BusError     bool
	ChannelMask  [numChannels]bool
	MasterEnable bool
	ChannelFlags [numChannels]bool
	MasterFlag   bool
}

// DecodeInterruptControl unpacks a 32-bit DICR value.
func DecodeInterruptControl(value uint32) InterruptControl {
	var ic InterruptControl
	for i := 0; i < numChannels; i++ {
		ic.ChannelMode[i] = value&(1<<uint(i)) != 0
		ic.ChannelMask[i] = value&(1<<uint(16+i)) != 0
		ic.ChannelFlags[i] = value&(1<<uint(24+i)) != 0
	}
	ic.BusError = value&(1<<15) != 0
	ic.MasterEnable = value&(1<<23) != 0
	ic.MasterFlag = value&(1<<31) != 0
	return ic
}

// Raw packs the interrupt control fields back into a 32-bit register
// value. The master flag bit is copied from MasterFlag as stored;
// recomputeMasterFlag is what derives it.
func (ic InterruptControl) Raw() uint32 {
	var v uint32
	for i := 0; i < numChannels; i++ {
		if ic.ChannelMode[i] {
			v |= 1 << uint(i)
		}
		if ic.ChannelMask[i] {
			v |= 1 << uint(16+i)
		}
		if ic.ChannelFlags[i] {
			v |= 1 << uint(24+i)
		}
	}
	if ic.BusError {
		v |= 1 << 15
	}
	if ic.MasterEnable {
		v |= 1 << 23
	}
	if ic.MasterFlag {
		v |= 1 << 31
	}
	return v
}

// anyFlag reports whether any channel interrupt flag is set.
func (ic InterruptControl) anyFlag() bool {
	for _, f := range ic.ChannelFlags {
		if f {
			return true
		}
	}
	return false
}

// recomputeMasterFlag derives the master interrupt flag (bus error OR'd
// with master-enable AND any per-channel flag) and returns whether it just
// transitioned from 0 to 1.
func (ic *InterruptControl) recomputeMasterFlag() (rose bool) {
	old := ic.MasterFlag
	ic.MasterFlag = ic.BusError || (ic.MasterEnable && ic.anyFlag())
	return !old && ic.MasterFlag
}

// Controller owns all seven DMA channels' registers and executes transfers
// when asked to by Update.
type Controller struct {
	Control   Control
	Interrupt InterruptControl
	Channels  [numChannels]ChannelState

	bus Bus
	gpu GPUPort
	irq *interrupt.Controller
	log *slog.Logger
}

// New returns a DMA controller wired to bus for memory transfers, gpu for
// GPU-channel render-queue pushes (may be nil until the GPU is attached),
// and irq to request the DMA interrupt source on completion.
func New(bus Bus, gpu GPUPort, irq *interrupt.Controller) *Controller {
	return &Controller{
		bus: bus,
		gpu: gpu,
		irq: irq,
		log: slog.Default().With("component", "dma"),
	}
}

// AttachGPU wires the GPU render-queue port after construction, for the
// common case where the GPU and DMA controller are built in either order
// by the top-level hub.
func (c *Controller) AttachGPU(gpu GPUPort) {
	c.gpu = gpu
}

// Busy reports whether any channel currently has a transfer in progress;
// the CPU stalls for the transfer's duration while it does.
func (c *Controller) Busy() bool {
	for _, ch := range c.Channels {
		if ch.Control.TransferOngoing {
			return true
		}
	}
	return false
}

// enabledByPriority returns the channels with Enabled set, sorted by
// descending priority with ascending channel index breaking ties.
func (c *Controller) enabledByPriority() []Channel {
	var enabled []Channel
	for i := 0; i < numChannels; i++ {
		ch := Channel(i)
		if c.Control.Enabled(ch) {
			enabled = append(enabled, ch)
		}
	}
	for i := 1; i < len(enabled); i++ {
		for j := i; j > 0; j-- {
			a, b := enabled[j-1], enabled[j]
			if c.Control.Priority(a) > c.Control.Priority(b) {
				break
			}
			if c.Control.Priority(a) == c.Control.Priority(b) && a < b {
				break
			}
			enabled[j-1], enabled[j] = enabled[j], enabled[j-1]
		}
	}
	return enabled
}

// Update is the handler for a DmaUpdate scheduler event: it arbitrates
// across enabled channels and runs the transfer for every one with
// TransferOngoing set, in priority order.
func (c *Controller) Update() {
	for _, ch := range c.enabledByPriority() {
		state := &c.Channels[ch]
		if !state.Control.TransferOngoing {
			continue
		}

		c.log.Debug("channel transfer", "channel", ch.String(), "mode", state.Control.Mode)
		switch state.Control.Mode {
		case ModeBurst:
			c.transferBurst(ch)
		case ModeSlice:
			c.transferSlice(ch)
		case ModeLinkedList:
			c.transferLinked(ch)
		}

		state.Control.TransferOngoing = false
		state.Control.ForceTransfer = false

		if c.Interrupt.ChannelMask[ch] {
			c.Interrupt.ChannelFlags[ch] = true
		}
		if c.Interrupt.recomputeMasterFlag() {
			if c.irq != nil {
				c.irq.Request(addr.IRQDMA)
			}
		}
	}
}

// blockWordCount returns the number of words a Burst-mode transfer on this
// channel moves: the BCR length field, or 0x10000 if it reads as zero.
func (c *Controller) blockWordCount(ch Channel) uint32 {
	len := uint32(c.Channels[ch].BlockSize)
	if len == 0 {
		return 0x10000
	}
	return len
}

func (c *Controller) transferBurst(ch Channel) {
	if ch == ChannelOTC {
		c.transferOTC()
		return
	}
	c.transferGenericWords(ch, c.blockWordCount(ch))
}

func (c *Controller) transferSlice(ch Channel) {
	switch ch {
	case ChannelOTC:
		c.transferOTC()
	default:
		total := uint32(c.Channels[ch].BlockSize) * uint32(c.Channels[ch].BlockCount)
		if total == 0 {
			total = c.blockWordCount(ch)
		}
		c.transferGenericWords(ch, total)
	}
}

// transferOTC writes a descending linked-list-terminator chain: the word at
// base holds the sentinel 0x00FF_FFFF, and each of the entries-1 words
// below it holds the address of the word below itself.
func (c *Controller) transferOTC() {
	state := &c.Channels[ChannelOTC]
	base := state.Base &^ 0b11
	entries := c.blockWordCount(ChannelOTC)

	word := base
	c.bus.WriteWord(word, 0x00FF_FFFF)
	for i := uint32(1); i < entries; i++ {
		word -= 4
		c.bus.WriteWord(word, (word-4)&0x00FF_FFFF)
	}
}

// transferGenericWords moves count words between RAM (starting at the
// channel's base address, stepping by the channel's Step) and the
// channel's device port. Only the GPU channel has a wired device port at
// this fidelity; the others (MDEC, CD-ROM, SPU, PIO) read/write RAM
// without a live device behind them until those subsystems are attached.
func (c *Controller) transferGenericWords(ch Channel, count uint32) {
	state := &c.Channels[ch]
	address := state.Base &^ 0b11
	step := int32(4)
	if state.Control.Step == Backward {
		step = -4
	}

	for i := uint32(0); i < count; i++ {
		switch state.Control.Direction {
		case RAMToDevice:
			word, _ := c.bus.ReadWord(address)
			c.deliverToDevice(ch, word)
		case DeviceToRAM:
			c.bus.WriteWord(address, c.receiveFromDevice(ch))
		}
		address = uint32(int64(address) + int64(step))
	}
}

// deliverToDevice forwards a RAM-sourced word to the channel's device,
// when one is wired.
func (c *Controller) deliverToDevice(ch Channel, word uint32) {
	if ch == ChannelGPU && c.gpu != nil {
		c.gpu.PushGP0(word)
	}
}

// receiveFromDevice returns the next word a device-to-RAM transfer should
// write. No currently-wired device produces DMA read data at this
// fidelity, so the transfer writes zero words.
func (c *Controller) receiveFromDevice(ch Channel) uint32 {
	return 0
}

// transferLinked walks a forward linked list in RAM: each node's high 8
// bits are a word count and low 24 bits are the next node's address,
// terminated by next == 0x00FF_FFFF. Only the GPU channel is a documented
// linked-list consumer; other channels fall back to the generic transfer.
func (c *Controller) transferLinked(ch Channel) {
	if ch == ChannelOTC {
		c.transferOTC()
		return
	}
	if ch != ChannelGPU {
		c.transferGenericWords(ch, c.blockWordCount(ch))
		return
	}

	state := &c.Channels[ch]
	current := state.Base &^ 0b11
	for {
		node, err := c.bus.ReadWord(current)
		if err != nil {
			return
		}
		next := node & 0x00FF_FFFF
		words := node >> 24

		if next == 0x00FF_FFFF {
			return
		}

		if c.gpu != nil {
			for i := uint32(0); i < words; i++ {
				word, _ := c.bus.ReadWord(current + (i+1)*4)
				c.gpu.PushGP0(word)
			}
		}

		current = next &^ 0b11
	}
}
