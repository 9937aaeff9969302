package sio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valerio/psxgo/psx/addr"
	"github.com/valerio/psxgo/psx/interrupt"
	"github.com/valerio/psxgo/psx/scheduler"
)

func newTestController() (*Controller, *scheduler.Scheduler, *interrupt.Controller) {
	sched := scheduler.New()
	irq := interrupt.New()
	irq.Mask = 0x7FF // enable every source so Active reflects any request
	c := New(sched, irq)
	return c, sched, irq
}

// fireAllDue advances the scheduler clock to every pending event's fire
// time in turn, dispatching each to the controller, until nothing remains
// or maxEvents have fired.
func fireAllDue(sched *scheduler.Scheduler, c *Controller, maxEvents int) {
	for i := 0; i < maxEvents; i++ {
		cycles, ok := sched.CyclesUntilNext()
		if !ok {
			return
		}
		sched.Advance(cycles)
		ev, ok := sched.Pop()
		if !ok {
			return
		}
		c.HandleEvent(ev.Data)
	}
}

func selectPort0(c *Controller) {
	c.WriteControl(Control{Selected: true, TxEnable: true, DeviceReadyToReceiveInterruptEnable: true}.Raw())
}

func TestWriteDataStagesTxUntilTheUpdateEventDrainsIt(t *testing.T) {
	c, sched, _ := newTestController()
	selectPort0(c)
	fireAllDue(sched, c, 4)

	c.WriteData(0x01)
	require.NotNil(t, c.tx)
	assert.False(t, c.ReadStatus()&(1<<0) != 0, "tx_ready should be low while a byte is staged")

	fireAllDue(sched, c, 1) // Update event drains tx into the transaction
	assert.Nil(t, c.tx)
	assert.True(t, c.ReadStatus()&(1<<0) != 0, "tx_ready should go high again once the byte is consumed")
}

func TestJoypadHandshakeRepliesFFOnAddressByte(t *testing.T) {
	c, sched, _ := newTestController()
	selectPort0(c)
	fireAllDue(sched, c, 4)

	c.WriteData(0x01) // joypad select address byte
	fireAllDue(sched, c, 4)

	require.Equal(t, stateJoypadAwaitCommand, c.state)
	assert.Equal(t, uint8(0xFF), c.ReadData())
}

func TestJoypadReadDigitalRepliesModeThenMarkerThenButtons(t *testing.T) {
	c, sched, _ := newTestController()
	selectPort0(c)
	c.Joypad.Input.Cross = true
	fireAllDue(sched, c, 4)

	c.WriteData(0x01)
	fireAllDue(sched, c, 4)
	require.Equal(t, uint8(0xFF), c.ReadData())

	c.WriteData(0x42) // read command
	fireAllDue(sched, c, 4)
	assert.Equal(t, uint8(0x41), c.ReadData(), "digital pad replies with the digital mode ID byte")

	c.WriteData(0x00)
	fireAllDue(sched, c, 4)
	assert.Equal(t, uint8(0x5A), c.ReadData())

	c.WriteData(0x00)
	fireAllDue(sched, c, 4)
	low := c.ReadData()

	c.WriteData(0x00)
	fireAllDue(sched, c, 4)
	high := c.ReadData()

	raw := uint16(low) | uint16(high)<<8
	assert.Equal(t, uint16(0), raw&(1<<14), "cross is pressed so its inverted bit should read 0")
	assert.Equal(t, stateIdle, c.state, "the transaction ends after the two digital bytes for a digital pad")
}

func TestJoypadAnalogModeAppendsFourStickBytes(t *testing.T) {
	c, sched, _ := newTestController()
	selectPort0(c)
	c.Joypad.Analog = true
	c.Joypad.RightJoystick = JoystickInput{X: 0x10, Y: 0x20}
	c.Joypad.LeftJoystick = JoystickInput{X: 0x30, Y: 0x40}
	fireAllDue(sched, c, 4)

	c.WriteData(0x01)
	fireAllDue(sched, c, 4)
	require.Equal(t, uint8(0xFF), c.ReadData())

	c.WriteData(0x42)
	fireAllDue(sched, c, 4)
	assert.Equal(t, uint8(0x73), c.ReadData(), "analog pad replies with the analog mode ID byte")

	expected := []uint8{0x5A, 0xFF, 0xFF, 0x10, 0x20, 0x30, 0x40}
	for i, want := range expected {
		c.WriteData(0x00)
		fireAllDue(sched, c, 4)
		assert.Equal(t, want, c.ReadData(), "reply byte %d", i)
	}
	assert.Equal(t, stateIdle, c.state, "the transaction ends once all four analog bytes are sent")
}

func TestStartAckRaisesInterruptWhenEnabledThenEndAckLowersStatus(t *testing.T) {
	c, sched, irq := newTestController()
	selectPort0(c)
	fireAllDue(sched, c, 4)

	c.WriteData(0x01)
	fireAllDue(sched, c, 1) // Update -> schedules Transfer
	fireAllDue(sched, c, 1) // Transfer -> schedules StartAck

	fireAllDue(sched, c, 1) // StartAck fires
	assert.True(t, c.Status.DeviceReadyToReceive)
	assert.True(t, irq.Active())

	fireAllDue(sched, c, 1) // EndAck fires
	assert.False(t, c.Status.DeviceReadyToReceive)
}

func TestNonJoypadAddressByteIsIgnored(t *testing.T) {
	c, sched, _ := newTestController()
	selectPort0(c)
	fireAllDue(sched, c, 4)

	c.WriteData(0x81) // memory card select, not modeled by this port
	fireAllDue(sched, c, 4)

	assert.Equal(t, stateIdle, c.state)
}

func TestControlResetClearsTransactionState(t *testing.T) {
	c, sched, _ := newTestController()
	selectPort0(c)
	fireAllDue(sched, c, 4)

	c.WriteData(0x01)
	fireAllDue(sched, c, 4)
	require.Equal(t, stateJoypadAwaitCommand, c.state)

	c.WriteControl(Control{Reset: true}.Raw())
	assert.Equal(t, stateIdle, c.state)
	assert.Equal(t, uint8(0xFF), c.ReadData())
}

func TestAddrIRQControllerMemCardWired(t *testing.T) {
	irq := interrupt.New()
	irq.Mask = 1 << addr.IRQControllerMemCard
	irq.Request(addr.IRQControllerMemCard)
	assert.True(t, irq.Active())
}
