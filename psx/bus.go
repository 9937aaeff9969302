// Package psx wires every subsystem package together into the machine the
// CPU executes against: the Bus type satisfies psx/cpu.Bus by routing a
// physical address to RAM, BIOS, scratchpad, or one of the MMIO-mapped
// peripherals, and Emulator owns the CPU plus every subsystem and drives
// the scheduler loop. One small struct that only knows how to route, one
// struct that owns lifecycle and the run loop.
package psx

import (
	"encoding/binary"
	"fmt"
	"log/slog"

	"github.com/valerio/psxgo/psx/addr"
	"github.com/valerio/psxgo/psx/cdrom"
	"github.com/valerio/psxgo/psx/dma"
	"github.com/valerio/psxgo/psx/gpu"
	"github.com/valerio/psxgo/psx/interrupt"
	"github.com/valerio/psxgo/psx/memory"
	"github.com/valerio/psxgo/psx/scheduler"
	"github.com/valerio/psxgo/psx/sio"
	"github.com/valerio/psxgo/psx/timer"
)

// Bus is the hub every other package reaches the rest of the machine
// through. It holds no behavior of its own beyond address decode: each
// field owns its own register semantics, and Bus just picks which one a
// given address belongs to.
type Bus struct {
	Arrays *memory.Arrays
	GPU    *gpu.GPU
	DMA    *dma.Controller
	CDROM  *cdrom.Controller
	SIO    *sio.Controller
	Timers *timer.Timers
	IRQ    *interrupt.Controller
	Sched  *scheduler.Scheduler

	log *slog.Logger
}

// NewBus assembles a Bus from already-constructed subsystems. Callers
// build the pieces (they have interdependent constructors, e.g. dma.New
// needs a GPUPort) and hand them here fully wired.
func NewBus(arrays *memory.Arrays, g *gpu.GPU, d *dma.Controller, cd *cdrom.Controller, s *sio.Controller, timers *timer.Timers, irq *interrupt.Controller, sched *scheduler.Scheduler) *Bus {
	return &Bus{
		Arrays: arrays,
		GPU:    g,
		DMA:    d,
		CDROM:  cd,
		SIO:    s,
		Timers: timers,
		IRQ:    irq,
		Sched:  sched,
		log:    slog.Default().With("component", "bus"),
	}
}

// InterruptPending implements cpu.Bus.
func (b *Bus) InterruptPending() bool {
	return b.IRQ.Active()
}

// ReadByte implements cpu.Bus.
func (b *Bus) ReadByte(address uint32) (uint8, error) {
	physical, region, _, ok := memory.Translate(address)
	if !ok {
		return 0, fmt.Errorf("psx: unmapped address 0x%08X", address)
	}
	switch region {
	case memory.RegionRAM:
		return b.Arrays.RAM[physical], nil
	case memory.RegionRAMMirror:
		return b.Arrays.RAM[physical&(addr.RAMSize-1)], nil
	case memory.RegionBIOS:
		return b.Arrays.BIOS[physical-addr.BIOSBase], nil
	case memory.RegionScratchpad:
		return b.Arrays.Scratchpad[physical-addr.ScratchpadBase], nil
	case memory.RegionExpansion1:
		return b.Arrays.Expansion1[physical-addr.Expansion1Base], nil
	case memory.RegionExpansion2:
		return b.Arrays.Expansion2[physical-addr.Expansion2Base], nil
	case memory.RegionExpansion3:
		return b.Arrays.Expansion3[physical-addr.Expansion3Base], nil
	case memory.RegionIOPorts:
		value, err := b.readIO(physical-addr.IOPortsBase, 1)
		return uint8(value), err
	case memory.RegionCacheControl:
		return 0, nil
	default:
		return 0, fmt.Errorf("psx: unmapped address 0x%08X", address)
	}
}

// ReadHalf implements cpu.Bus.
func (b *Bus) ReadHalf(address uint32) (uint16, error) {
	if err := memory.CheckAlign(address, 2); err != nil {
		return 0, err
	}
	physical, region, _, ok := memory.Translate(address)
	if !ok {
		return 0, fmt.Errorf("psx: unmapped address 0x%08X", address)
	}
	switch region {
	case memory.RegionRAM:
		return binary.LittleEndian.Uint16(b.Arrays.RAM[physical:]), nil
	case memory.RegionRAMMirror:
		off := physical & (addr.RAMSize - 1)
		return binary.LittleEndian.Uint16(b.Arrays.RAM[off:]), nil
	case memory.RegionBIOS:
		off := physical - addr.BIOSBase
		return binary.LittleEndian.Uint16(b.Arrays.BIOS[off:]), nil
	case memory.RegionScratchpad:
		off := physical - addr.ScratchpadBase
		return binary.LittleEndian.Uint16(b.Arrays.Scratchpad[off:]), nil
	case memory.RegionIOPorts:
		value, err := b.readIO(physical-addr.IOPortsBase, 2)
		return uint16(value), err
	case memory.RegionCacheControl:
		return 0, nil
	default:
		return 0, fmt.Errorf("psx: unmapped address 0x%08X", address)
	}
}

// ReadWord implements cpu.Bus.
func (b *Bus) ReadWord(address uint32) (uint32, error) {
	if err := memory.CheckAlign(address, 4); err != nil {
		return 0, err
	}
	physical, region, _, ok := memory.Translate(address)
	if !ok {
		return 0, fmt.Errorf("psx: unmapped address 0x%08X", address)
	}
	switch region {
	case memory.RegionRAM:
		return binary.LittleEndian.Uint32(b.Arrays.RAM[physical:]), nil
	case memory.RegionRAMMirror:
		off := physical & (addr.RAMSize - 1)
		return binary.LittleEndian.Uint32(b.Arrays.RAM[off:]), nil
	case memory.RegionBIOS:
		off := physical - addr.BIOSBase
		return binary.LittleEndian.Uint32(b.Arrays.BIOS[off:]), nil
	case memory.RegionScratchpad:
		off := physical - addr.ScratchpadBase
		return binary.LittleEndian.Uint32(b.Arrays.Scratchpad[off:]), nil
	case memory.RegionIOPorts:
		return b.readIO(physical-addr.IOPortsBase, 4)
	case memory.RegionCacheControl:
		return 0, nil
	default:
		return 0, fmt.Errorf("psx: unmapped address 0x%08X", address)
	}
}

// WriteByte implements cpu.Bus.
func (b *Bus) WriteByte(address uint32, value uint8) error {
	physical, region, _, ok := memory.Translate(address)
	if !ok {
		return fmt.Errorf("psx: unmapped address 0x%08X", address)
	}
	switch region {
	case memory.RegionRAM:
		b.Arrays.RAM[physical] = value
	case memory.RegionRAMMirror:
		b.Arrays.RAM[physical&(addr.RAMSize-1)] = value
	case memory.RegionScratchpad:
		b.Arrays.Scratchpad[physical-addr.ScratchpadBase] = value
	case memory.RegionExpansion2:
		b.Arrays.Expansion2[physical-addr.Expansion2Base] = value
	case memory.RegionIOPorts:
		return b.writeIO(physical-addr.IOPortsBase, uint32(value), 1)
	case memory.RegionBIOS, memory.RegionCacheControl:
		// BIOS is ROM; cache control is unbacked at this fidelity.
	default:
		return fmt.Errorf("psx: unmapped address 0x%08X", address)
	}
	return nil
}

// WriteHalf implements cpu.Bus.
func (b *Bus) WriteHalf(address uint32, value uint16) error {
	if err := memory.CheckAlign(address, 2); err != nil {
		return err
	}
	physical, region, _, ok := memory.Translate(address)
	if !ok {
		return fmt.Errorf("psx: unmapped address 0x%08X", address)
	}
	switch region {
	case memory.RegionRAM:
		binary.LittleEndian.PutUint16(b.Arrays.RAM[physical:], value)
	case memory.RegionRAMMirror:
		binary.LittleEndian.PutUint16(b.Arrays.RAM[physical&(addr.RAMSize-1):], value)
	case memory.RegionScratchpad:
		binary.LittleEndian.PutUint16(b.Arrays.Scratchpad[physical-addr.ScratchpadBase:], value)
	case memory.RegionIOPorts:
		return b.writeIO(physical-addr.IOPortsBase, uint32(value), 2)
	case memory.RegionBIOS, memory.RegionCacheControl:
	default:
		return fmt.Errorf("psx: unmapped address 0x%08X", address)
	}
	return nil
}

// WriteWord implements cpu.Bus.
func (b *Bus) WriteWord(address uint32, value uint32) error {
	if err := memory.CheckAlign(address, 4); err != nil {
		return err
	}
	physical, region, _, ok := memory.Translate(address)
	if !ok {
		return fmt.Errorf("psx: unmapped address 0x%08X", address)
	}
	switch region {
	case memory.RegionRAM:
		binary.LittleEndian.PutUint32(b.Arrays.RAM[physical:], value)
	case memory.RegionRAMMirror:
		binary.LittleEndian.PutUint32(b.Arrays.RAM[physical&(addr.RAMSize-1):], value)
	case memory.RegionScratchpad:
		binary.LittleEndian.PutUint32(b.Arrays.Scratchpad[physical-addr.ScratchpadBase:], value)
	case memory.RegionIOPorts:
		return b.writeIO(physical-addr.IOPortsBase, value, 4)
	case memory.RegionBIOS:
		// Writes to the BIOS window (e.g. during BIOS patching by a
		// bootstrap) are silently dropped; real hardware ignores them too.
	case memory.RegionCacheControl:
		// Cache control register: not modeled, accepted and discarded.
	default:
		return fmt.Errorf("psx: unmapped address 0x%08X", address)
	}
	return nil
}

// readIO services a load from the I/O port window. ioOffset is relative
// to addr.IOPortsBase; width is 1, 2, or 4 bytes.
func (b *Bus) readIO(ioOffset uint32, width uint32) (uint32, error) {
	switch {
	case ioOffset == addr.OffInterruptStatus:
		return uint32(b.IRQ.Status), nil
	case ioOffset == addr.OffInterruptMask:
		return uint32(b.IRQ.Mask), nil

	case ioOffset >= addr.OffDMABase && ioOffset <= addr.OffDMAIrq:
		if value, ok := b.DMA.Read(ioOffset); ok {
			return value, nil
		}

	case ioOffset == addr.OffTimer0Value:
		return uint32(b.Timers.ReadValue(0)), nil
	case ioOffset == addr.OffTimer0Mode:
		return uint32(b.Timers.ReadMode(0)), nil
	case ioOffset == addr.OffTimer0Tgt:
		return uint32(b.Timers.ReadTarget(0)), nil
	case ioOffset == addr.OffTimer1Value:
		return uint32(b.Timers.ReadValue(1)), nil
	case ioOffset == addr.OffTimer1Mode:
		return uint32(b.Timers.ReadMode(1)), nil
	case ioOffset == addr.OffTimer1Tgt:
		return uint32(b.Timers.ReadTarget(1)), nil
	case ioOffset == addr.OffTimer2Value:
		return uint32(b.Timers.ReadValue(2)), nil
	case ioOffset == addr.OffTimer2Mode:
		return uint32(b.Timers.ReadMode(2)), nil
	case ioOffset == addr.OffTimer2Tgt:
		return uint32(b.Timers.ReadTarget(2)), nil

	case ioOffset >= addr.OffCdrom0 && ioOffset <= addr.OffCdrom3:
		return uint32(b.CDROM.Read(int(ioOffset - addr.OffCdrom0))), nil

	case ioOffset == addr.OffGP0:
		return b.GPU.ReadResponse(), nil
	case ioOffset == addr.OffGP1:
		return b.GPU.Status(), nil

	case ioOffset == addr.OffJoyData:
		return uint32(b.SIO.ReadData()), nil
	case ioOffset == addr.OffJoyStat:
		return b.SIO.ReadStatus(), nil
	case ioOffset == addr.OffJoyMode, ioOffset == addr.OffJoyControl, ioOffset == addr.OffJoyBaud:
		// Write-only/rarely-read registers; real hardware returns the
		// last-written value, which this core doesn't track separately.
		return 0, nil
	}

	b.log.Debug("unhandled io read", "offset", fmt.Sprintf("0x%03X", ioOffset), "width", width)
	return 0, nil
}

// writeIO services a store to the I/O port window.
func (b *Bus) writeIO(ioOffset uint32, value uint32, width uint32) error {
	switch {
	case ioOffset == addr.OffInterruptStatus:
		b.IRQ.WriteStatus(uint16(value))
		return nil
	case ioOffset == addr.OffInterruptMask:
		b.IRQ.Mask = uint16(value)
		return nil

	case ioOffset >= addr.OffDMABase && ioOffset <= addr.OffDMAIrq:
		if b.DMA.Write(ioOffset, value) {
			// Writing any DMA register can make a channel newly eligible
			// to run; the DMA controller itself doesn't self-schedule,
			// so the bus nudges the scheduler on its behalf.
			b.Sched.Schedule(scheduler.DmaUpdate, 0, nil)
			return nil
		}

	case ioOffset == addr.OffTimer0Value:
		b.Timers.WriteValue(0, uint16(value))
		return nil
	case ioOffset == addr.OffTimer0Mode:
		b.Timers.WriteMode(0, uint16(value))
		return nil
	case ioOffset == addr.OffTimer0Tgt:
		b.Timers.WriteTarget(0, uint16(value))
		return nil
	case ioOffset == addr.OffTimer1Value:
		b.Timers.WriteValue(1, uint16(value))
		return nil
	case ioOffset == addr.OffTimer1Mode:
		b.Timers.WriteMode(1, uint16(value))
		return nil
	case ioOffset == addr.OffTimer1Tgt:
		b.Timers.WriteTarget(1, uint16(value))
		return nil
	case ioOffset == addr.OffTimer2Value:
		b.Timers.WriteValue(2, uint16(value))
		return nil
	case ioOffset == addr.OffTimer2Mode:
		b.Timers.WriteMode(2, uint16(value))
		return nil
	case ioOffset == addr.OffTimer2Tgt:
		b.Timers.WriteTarget(2, uint16(value))
		return nil

	case ioOffset >= addr.OffCdrom0 && ioOffset <= addr.OffCdrom3:
		b.CDROM.Write(int(ioOffset-addr.OffCdrom0), uint8(value))
		return nil

	case ioOffset == addr.OffGP0:
		b.GPU.PushGP0(value)
		return nil
	case ioOffset == addr.OffGP1:
		b.GPU.PushGP1(value)
		return nil

	case ioOffset == addr.OffJoyData:
		b.SIO.WriteData(uint8(value))
		return nil
	case ioOffset == addr.OffJoyMode:
		b.SIO.WriteMode(uint16(value))
		return nil
	case ioOffset == addr.OffJoyControl:
		b.SIO.WriteControl(uint16(value))
		return nil
	case ioOffset == addr.OffJoyBaud:
		return nil
	}

	b.log.Debug("unhandled io write", "offset", fmt.Sprintf("0x%03X", ioOffset), "width", width, "value", value)
	return nil
}
