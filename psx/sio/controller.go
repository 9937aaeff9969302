package sio

import (
	"log/slog"

	"github.com/valerio/psxgo/psx/addr"
	"github.com/valerio/psxgo/psx/interrupt"
	"github.com/valerio/psxgo/psx/scheduler"
)

// The PSX CPU runs at 33.8688 MHz; spec.md's ack timings are given in
// microseconds, so cycle counts are derived here rather than hardcoded
// from an undocumented source.
var cyclesPerMicrosecond = 33.8688

var (
	transferDelay = uint64(3 * cyclesPerMicrosecond)
	startAckDelay = uint64(3 * cyclesPerMicrosecond)
	endAckDelay   = uint64(2 * cyclesPerMicrosecond)
)

type eventKind int

const (
	eventUpdate eventKind = iota
	eventTransfer
	eventStartAck
	eventEndAck
)

type event struct {
	kind eventKind
}

// txState tracks where in a multi-byte transaction the port currently
// sits, per spec.md §4.8: Idle → JoypadStart → JoypadTransfer{cmd, stage}.
type txState int

const (
	stateIdle txState = iota
	stateJoypadStart
	stateJoypadAwaitCommand
	stateJoypadStreamingReply
)

// Controller is the SIO0 port: register state, the TX/RX staging slots,
// and the joypad transaction state machine.
type Controller struct {
	Status  Status
	Mode    Mode
	Control Control
	Joypad  Joypad

	tx *uint8
	rx *uint8

	state          txState
	startByte      uint8
	pendingReplies []uint8

	sched *scheduler.Scheduler
	irq   *interrupt.Controller
	log   *slog.Logger
}

// New returns a controller in the idle state with both TX/RX slots empty.
func New(sched *scheduler.Scheduler, irq *interrupt.Controller) *Controller {
	return &Controller{
		sched: sched,
		irq:   irq,
		log:   slog.Default().With("component", "sio"),
	}
}

func ptrU8(v uint8) *uint8 { return &v }

// ReadStatus returns the live SIO_STAT value.
func (c *Controller) ReadStatus() uint32 {
	c.refreshStatus()
	return c.Status.Raw()
}

// ReadData pops the staged RX byte, or 0xFF if none is staged (the idle
// line level), per the teacher's serial.LogSink read-or-default pattern.
func (c *Controller) ReadData() uint8 {
	if c.rx == nil {
		return 0xFF
	}
	v := *c.rx
	c.rx = nil
	return v
}

// WriteData stages a TX byte and schedules an Update event at delay 0.
func (c *Controller) WriteData(value uint8) {
	c.tx = ptrU8(value)
	c.sched.Schedule(scheduler.Sio, 0, event{kind: eventUpdate})
}

// WriteMode decodes and applies SIO_MODE.
func (c *Controller) WriteMode(value uint16) {
	c.Mode = DecodeMode(value)
}

// WriteControl decodes and applies SIO_CTRL, acting on the acknowledge and
// reset bits immediately and scheduling an Update event since enabling
// tx_enable/selected can unblock a transfer that a prior write staged.
func (c *Controller) WriteControl(value uint16) {
	c.Control = DecodeControl(value)
	if c.Control.Acknowledge {
		c.Status.InterruptRequest = false
	}
	if c.Control.Reset {
		c.reset()
	}
	c.sched.Schedule(scheduler.Sio, 0, event{kind: eventUpdate})
}

func (c *Controller) reset() {
	c.tx = nil
	c.rx = nil
	c.state = stateIdle
	c.startByte = 0
	c.pendingReplies = nil
	c.Status = Status{}
}

func (c *Controller) refreshStatus() {
	c.Status.TxReady = c.tx == nil
	c.Status.RxReady = c.rx != nil
	c.Status.TxFinished = c.tx == nil && c.state == stateIdle
}

func (c *Controller) canTransfer() bool {
	return c.Control.Selected && c.Control.TxEnable && c.tx != nil
}

// HandleEvent processes one fired scheduler.Sio event, dispatched by the
// top-level hub's event loop.
func (c *Controller) HandleEvent(data any) {
	ev, ok := data.(event)
	if !ok {
		return
	}
	switch ev.kind {
	case eventUpdate:
		c.onUpdate()
	case eventTransfer:
		c.onTransfer()
	case eventStartAck:
		c.onStartAck()
	case eventEndAck:
		c.onEndAck()
	}
	c.refreshStatus()
}

func (c *Controller) onUpdate() {
	if !c.canTransfer() {
		return
	}
	value := *c.tx
	c.tx = nil

	switch c.state {
	case stateIdle:
		c.startByte = value
		c.sched.Schedule(scheduler.Sio, transferDelay, event{kind: eventTransfer})
	case stateJoypadAwaitCommand, stateJoypadStreamingReply:
		c.handleJoypadByte(value)
	}
}

func (c *Controller) onTransfer() {
	if c.state != stateIdle {
		return
	}
	if c.startByte != 0x01 || !c.Control.Selected || c.Control.PortSelect {
		// Not a joypad-select address byte, or the request targets the
		// second port, which this controller does not model.
		return
	}
	c.rx = ptrU8(0xFF)
	c.state = stateJoypadAwaitCommand
	c.sched.Schedule(scheduler.Sio, startAckDelay, event{kind: eventStartAck})
}

// handleJoypadByte advances the joypad transaction: the first byte after
// the address is the command, and every following byte just clocks out
// the next queued reply byte until the sequence is exhausted.
func (c *Controller) handleJoypadByte(value uint8) {
	switch c.state {
	case stateJoypadAwaitCommand:
		c.pendingReplies = c.buildReply(value)
		c.rx = ptrU8(c.Joypad.replyMode())
		c.state = stateJoypadStreamingReply
	case stateJoypadStreamingReply:
		if len(c.pendingReplies) == 0 {
			c.state = stateIdle
			return
		}
		next := c.pendingReplies[0]
		c.pendingReplies = c.pendingReplies[1:]
		c.rx = ptrU8(next)
		if len(c.pendingReplies) == 0 {
			c.state = stateIdle
		}
	default:
		return
	}
	c.sched.Schedule(scheduler.Sio, startAckDelay, event{kind: eventStartAck})
}

// buildReply assembles the data bytes that follow the mode-ID reply, per
// spec.md §4.8: a fixed 0x5A marker, the inverted two-byte digital-button
// state, and (in analog mode) the four analog-axis bytes.
func (c *Controller) buildReply(cmd uint8) []uint8 {
	switch cmd {
	case 0x42, 0x43, 0x44, 0x45:
	default:
		return nil
	}

	raw := c.Joypad.Input.Raw()
	reply := []uint8{0x5A, uint8(raw), uint8(raw >> 8)}
	if c.Joypad.Analog {
		reply = append(reply,
			c.Joypad.RightJoystick.X, c.Joypad.RightJoystick.Y,
			c.Joypad.LeftJoystick.X, c.Joypad.LeftJoystick.Y,
		)
	}
	return reply
}

func (c *Controller) onStartAck() {
	c.Status.DeviceReadyToReceive = true
	c.sched.Schedule(scheduler.Sio, endAckDelay, event{kind: eventEndAck})

	if c.Control.DeviceReadyToReceiveInterruptEnable {
		c.Status.InterruptRequest = true
		if c.irq != nil {
			c.irq.Request(addr.IRQControllerMemCard)
		}
	}
}

func (c *Controller) onEndAck() {
	c.Status.DeviceReadyToReceive = false
}
