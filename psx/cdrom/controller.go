package cdrom

import (
	"io"
	"log/slog"

	"github.com/valerio/psxgo/psx/addr"
	"github.com/valerio/psxgo/psx/interrupt"
	"github.com/valerio/psxgo/psx/scheduler"
)

// Delay constants in CPU cycles: most commands acknowledge after
// ackDelayDefault; Init takes much longer since it spins up the drive
// motor.
const (
	ackDelayDefault     = 50_401
	ackDelayInit        = 81_102
	completeDelayGetID  = 18_944
	rawSectorSize       = 2352
	readDelayBase       = 451_021 // ~1x read delay at the default (non-double) speed
)

var cdromVersion = [4]uint8{0x94, 0x09, 0x19, 0xC0}

type eventKind int

const (
	eventUpdate eventKind = iota
	eventAcknowledge
	eventComplete
	eventRead
)

// event is the Data payload the controller schedules onto
// scheduler.Cdrom; Update events carry no command, Acknowledge/Complete
// carry the command that triggered them.
type event struct {
	kind eventKind
	cmd  Command
}

// Controller owns the CD-ROM register file, its deferred write queue, the
// command/acknowledge/complete state machine, the pending-interrupt
// queue, and sector reads from image.
type Controller struct {
	Status          Status
	CommandStatus   CommandStatus
	InterruptStatus InterruptStatus
	InterruptMask   InterruptMask
	Mode            Mode
	Location        Position
	LockDataQueue   bool

	writeQueue     []RegWrite
	parameterQueue []uint8
	resultQueue    []uint8
	sectorData     []uint8

	pendingInterrupts []InterruptKind

	image io.ReaderAt

	sched *scheduler.Scheduler
	irq   *interrupt.Controller
	log   *slog.Logger
}

// New returns a controller with the shell-open/motor-on reset state, wired
// to image for sector reads (nil is accepted: reads come back as zeros),
// sched for self-scheduled acknowledge/complete/read events, and irq for
// requesting the CDROM interrupt line.
func New(image io.ReaderAt, sched *scheduler.Scheduler, irq *interrupt.Controller) *Controller {
	return &Controller{
		Status:          Status{ShellOpen: true, MotorOn: true},
		InterruptStatus: DefaultInterruptStatus(),
		InterruptMask:   DefaultInterruptMask(),
		LockDataQueue:   true,
		image:           image,
		sched:           sched,
		irq:             irq,
		log:             slog.Default().With("component", "cdrom"),
	}
}

// Write queues a deferred write to one of the four bank-switched
// registers and schedules an Update event at delay 0.
func (c *Controller) Write(reg int, value uint8) {
	c.writeQueue = append(c.writeQueue, RegWrite{Reg: reg, Value: value})
	c.sched.Schedule(scheduler.Cdrom, 0, event{kind: eventUpdate})
}

// Read services a CPU read of one of the four bank-switched registers.
func (c *Controller) Read(reg int) uint8 {
	c.refreshCommandStatus()

	switch reg {
	case 0:
		return c.CommandStatus.Raw()
	case 1:
		if len(c.resultQueue) == 0 {
			return 0
		}
		v := c.resultQueue[0]
		c.resultQueue = c.resultQueue[1:]
		return v
	case 2:
		return c.readFromSector()
	case 3:
		switch c.CommandStatus.Bank {
		case Bank0, Bank2:
			return c.InterruptMask.Raw()
		default:
			return c.InterruptStatus.Raw()
		}
	default:
		return 0
	}
}

func (c *Controller) refreshCommandStatus() {
	c.CommandStatus.ParameterFifoEmpty = len(c.parameterQueue) == 0
	c.CommandStatus.ParameterFifoNotFull = true
	c.CommandStatus.ResultFifoNotEmpty = len(c.resultQueue) != 0
	c.CommandStatus.DataRequest = len(c.sectorData) != 0
}

func (c *Controller) readFromSector() uint8 {
	if c.LockDataQueue || len(c.sectorData) == 0 {
		return 0
	}
	v := c.sectorData[0]
	c.sectorData = c.sectorData[1:]
	return v
}

// HandleEvent processes one fired scheduler.Cdrom event, dispatched by
// the top-level hub's event loop.
func (c *Controller) HandleEvent(data any) {
	ev, ok := data.(event)
	if !ok {
		return
	}
	switch ev.kind {
	case eventUpdate:
		c.drainWriteQueue()
	case eventAcknowledge:
		c.onAcknowledge(ev.cmd)
	case eventComplete:
		c.onComplete(ev.cmd)
	case eventRead:
		c.onRead()
	}
}

func (c *Controller) drainWriteQueue() {
	for len(c.writeQueue) > 0 {
		w := c.writeQueue[0]
		c.writeQueue = c.writeQueue[1:]

		switch w.Reg {
		case 0:
			c.CommandStatus.Bank = Bank(w.Value & 0x3)
		case 1:
			if c.CommandStatus.Bank == Bank0 {
				c.dispatchCommand(DecodeCommand(w.Value))
			}
		case 2:
			switch c.CommandStatus.Bank {
			case Bank0:
				c.parameterQueue = append(c.parameterQueue, w.Value)
			case Bank1:
				c.InterruptMask = DecodeInterruptMask(w.Value)
			}
		case 3:
			switch c.CommandStatus.Bank {
			case Bank0:
				c.controlRequest(w.Value)
			case Bank1:
				c.acknowledgeInterruptStatus(w.Value)
			}
		}
	}
}

// controlRequest models only "lock sector FIFO": bit 7 requests the
// sector buffer be made readable, which unlocks DATA reads from register
// 2 until a later control write with bit 7 clear re-locks it.
func (c *Controller) controlRequest(value uint8) {
	c.LockDataQueue = value&(1<<7) == 0
}

func (c *Controller) acknowledgeInterruptStatus(value uint8) {
	if value&0x7 != 0 {
		c.InterruptStatus.Kind = InterruptNone
	}
	if value&(1<<6) != 0 {
		c.parameterQueue = nil
	}
	c.tryRaiseInterrupt()
}

func (c *Controller) popParameter() uint8 {
	if len(c.parameterQueue) == 0 {
		return 0
	}
	v := c.parameterQueue[0]
	c.parameterQueue = c.parameterQueue[1:]
	return v
}

func (c *Controller) dispatchCommand(cmd Command) {
	c.CommandStatus.Busy = true
	c.log.Debug("cdrom command", "command", cmd)

	switch cmd {
	case CommandInit:
		c.Mode = DecodeMode(0x20)
		c.Status.Read = false
		c.scheduleAck(cmd, ackDelayInit)
	case CommandTest:
		if c.popParameter() == 0x20 {
			c.resultQueue = append(c.resultQueue, cdromVersion[:]...)
		}
		c.scheduleAck(cmd, ackDelayDefault)
	case CommandGetID:
		c.scheduleAck(cmd, ackDelayDefault)
	case CommandSetLoc:
		m := bcdToBin(c.popParameter())
		s := bcdToBin(c.popParameter())
		f := bcdToBin(c.popParameter())
		c.Location = Position{Minutes: m, Seconds: s, Frames: f}
		c.scheduleAck(cmd, ackDelayDefault)
	case CommandSetMode:
		c.Mode = DecodeMode(c.popParameter())
		c.scheduleAck(cmd, ackDelayDefault)
	case CommandReadN, CommandReadS:
		c.Status.Read = true
		c.sched.Schedule(scheduler.Cdrom, readDelayBase/c.Mode.Speed.Factor(), event{kind: eventRead})
		c.scheduleAck(cmd, ackDelayDefault)
	case CommandPause:
		delay := uint64(ackDelayDefault)
		if c.Status.Read {
			delay = ackDelayInit
		}
		c.Status.Read = false
		c.scheduleAck(cmd, delay)
	case CommandStop:
		c.Status.Read = false
		c.Status.MotorOn = false
		c.scheduleAck(cmd, ackDelayDefault)
	case CommandStandby:
		c.Status.MotorOn = true
		c.scheduleAck(cmd, ackDelayDefault)
	default:
		// Nop, Demute, Mute, and every other command not yet modeled in
		// detail acknowledge generically after the default ~50,000-cycle
		// delay.
		c.scheduleAck(cmd, ackDelayDefault)
	}
}

func (c *Controller) scheduleAck(cmd Command, delay uint64) {
	c.sched.Schedule(scheduler.Cdrom, delay, event{kind: eventAcknowledge, cmd: cmd})
}

func (c *Controller) onAcknowledge(cmd Command) {
	c.CommandStatus.Busy = false
	c.resultQueue = append(c.resultQueue, c.Status.Raw())
	c.pendingInterrupts = append(c.pendingInterrupts, InterruptAcknowledge)
	c.tryRaiseInterrupt()

	switch cmd {
	case CommandInit:
		c.sched.Schedule(scheduler.Cdrom, readDelayBase, event{kind: eventComplete, cmd: cmd})
	case CommandGetID:
		c.sched.Schedule(scheduler.Cdrom, completeDelayGetID, event{kind: eventComplete, cmd: cmd})
	}
}

func (c *Controller) onComplete(cmd Command) {
	switch cmd {
	case CommandInit:
		c.resultQueue = append(c.resultQueue, c.Status.Raw())
	case CommandGetID:
		// licensed-disc response: status, flags, disc type, session count,
		// followed by the "SCEA" region string.
		c.resultQueue = append(c.resultQueue, 0x02, 0x00, 0x20, 0x00, 'S', 'C', 'E', 'A')
	}
	c.pendingInterrupts = append(c.pendingInterrupts, InterruptComplete)
	c.tryRaiseInterrupt()
}

func (c *Controller) onRead() {
	if !c.Status.Read {
		return
	}

	index, ok := c.Location.Index()
	if !ok {
		c.sched.Schedule(scheduler.Cdrom, readDelayBase/c.Mode.Speed.Factor(), event{kind: eventRead})
		return
	}

	size := c.Mode.SectorSize
	buf := make([]byte, size.Value())
	if c.image != nil {
		byteOffset := int64(index)*rawSectorSize + int64(size.Offset())
		if _, err := c.image.ReadAt(buf, byteOffset); err != nil && err != io.EOF {
			c.log.Warn("cdrom sector read failed", "error", err, "sector", index)
		}
	}
	c.sectorData = append(c.sectorData, buf...)
	c.Location.Advance()

	c.sched.Schedule(scheduler.Cdrom, readDelayBase/c.Mode.Speed.Factor(), event{kind: eventRead})
	c.resultQueue = append(c.resultQueue, c.Status.Raw())
	c.pendingInterrupts = append(c.pendingInterrupts, InterruptDataReady)
	c.tryRaiseInterrupt()
}

// tryRaiseInterrupt pops the next pending interrupt kind into
// InterruptStatus.Kind if the current kind has been cleared, requesting
// the CDROM interrupt line when the kind is unmasked.
func (c *Controller) tryRaiseInterrupt() {
	if c.InterruptStatus.Kind != InterruptNone {
		return
	}
	if len(c.pendingInterrupts) == 0 {
		return
	}
	kind := c.pendingInterrupts[0]
	c.pendingInterrupts = c.pendingInterrupts[1:]
	c.InterruptStatus.Kind = kind

	if uint8(kind)&c.InterruptMask.Mask != 0 {
		if c.irq != nil {
			c.irq.Request(addr.IRQCDROM)
		}
	}
}
