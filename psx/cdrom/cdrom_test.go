package cdrom

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valerio/psxgo/psx/addr"
	"github.com/valerio/psxgo/psx/interrupt"
	"github.com/valerio/psxgo/psx/scheduler"
)

type fakeImage struct {
	data []byte
}

func (f fakeImage) ReadAt(p []byte, off int64) (int, error) {
	return copy(p, f.data[off:]), nil
}

func newTestController() (*Controller, *scheduler.Scheduler, *interrupt.Controller) {
	sched := scheduler.New()
	irq := interrupt.New()
	irq.Mask = 0x7FF // enable every source so Active reflects any request
	data := make([]byte, 0x2000)
	for i := range data {
		data[i] = byte(i)
	}
	c := New(fakeImage{data: data}, sched, irq)
	return c, sched, irq
}

// fireAllDue advances the scheduler clock to every pending event's fire
// time in turn, dispatching each to the controller, until nothing remains
// or maxEvents have fired (guards against a self-rescheduling Read event
// looping forever in a test).
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

func TestDecodeCommandTable(t *testing.T) {
	assert.Equal(t, CommandNop, DecodeCommand(0x01))
	assert.Equal(t, CommandInit, DecodeCommand(0x0A))
	assert.Equal(t, CommandReadN, DecodeCommand(0x06))
	assert.Equal(t, CommandTest, DecodeCommand(0x19))
	assert.Equal(t, CommandGetID, DecodeCommand(0x1A))
	assert.Equal(t, CommandLock, DecodeCommand(0x57))
}

func TestWriteBankSwitchReflectsInRegisterZero(t *testing.T) {
	c, sched, _ := newTestController()
	c.Write(0, 0x01)
	fireAllDue(sched, c, 4)

	assert.Equal(t, Bank1, c.CommandStatus.Bank)
	assert.Equal(t, Bank1, Bank(c.Read(0)&0x3))
}

func TestNopCommandPushesStatusAndRequestsAcknowledgeInterrupt(t *testing.T) {
	c, sched, irq := newTestController()
	c.Write(1, 0x01) // Nop, in bank 0 (the reset default bank)
	fireAllDue(sched, c, 8)

	require.False(t, c.CommandStatus.Busy)
	require.NotEmpty(t, c.resultQueue)
	assert.Equal(t, c.Status.Raw(), c.resultQueue[0])
	assert.Equal(t, InterruptAcknowledge, c.InterruptStatus.Kind)
	assert.True(t, irq.Active())
}

func TestTestCommandReturnsVersionWhenParamIs0x20(t *testing.T) {
	c, sched, _ := newTestController()
	c.Write(2, 0x20) // parameter
	c.Write(1, 0x19) // Test
	fireAllDue(sched, c, 8)

	require.Len(t, c.resultQueue, 1+len(cdromVersion))
	assert.Equal(t, cdromVersion[0], c.resultQueue[0], "the version bytes are pushed at command dispatch, ahead of the acknowledge status byte")
}

func TestSetLocThenReadNPopulatesSectorDataFromImage(t *testing.T) {
	c, sched, _ := newTestController()
	c.Write(2, 0x00) // minutes BCD 0
	c.Write(2, 0x02) // seconds BCD 2 (index 0 after lead-in compensation)
	c.Write(2, 0x00) // frames BCD 0
	c.Write(1, 0x02) // SetLoc
	fireAllDue(sched, c, 8)

	require.Equal(t, Position{Minutes: 0, Seconds: 2, Frames: 0}, c.Location)

	c.Write(1, 0x06) // ReadN
	// Only drain the Update and Acknowledge events here: the self-
	// rescheduling Read event is fired manually below so the test isn't
	// at the mercy of its delay relative to the acknowledge delay.
	fireAllDue(sched, c, 2)

	c.HandleEvent(event{kind: eventRead})

	require.Len(t, c.sectorData, SectorDataOnly.Value())
	assert.Equal(t, byte(0x18), c.sectorData[0], "should start reading at the data-only sector offset")
	assert.Equal(t, uint8(1), c.Location.Frames, "reading a sector should advance the position by one frame")
}

func TestGetIDSchedulesAckThenCompleteWithDiscID(t *testing.T) {
	c, sched, _ := newTestController()
	c.Write(1, 0x1A) // GetID
	fireAllDue(sched, c, 2) // only the acknowledge fires

	require.NotEmpty(t, c.resultQueue)
	assert.Equal(t, InterruptAcknowledge, c.InterruptStatus.Kind)

	// Clear the acknowledge interrupt so the queued Complete interrupt can
	// be raised once its event fires.
	c.acknowledgeInterruptStatus(0x7)
	fireAllDue(sched, c, 2)

	require.NotEmpty(t, c.resultQueue)
	last := c.resultQueue[len(c.resultQueue)-1]
	assert.Equal(t, uint8('A'), last)
}

func TestControlRequestTogglesDataQueueLock(t *testing.T) {
	c, sched, _ := newTestController()
	assert.True(t, c.LockDataQueue)

	c.Write(3, 1<<7)
	fireAllDue(sched, c, 4)
	assert.False(t, c.LockDataQueue)

	c.Write(3, 0x00)
	fireAllDue(sched, c, 4)
	assert.True(t, c.LockDataQueue)
}

func TestAcknowledgeInterruptStatusRaisesNextQueuedKind(t *testing.T) {
	c, _, irq := newTestController()
	c.InterruptStatus.Kind = InterruptAcknowledge
	c.pendingInterrupts = []InterruptKind{InterruptDataReady}

	c.acknowledgeInterruptStatus(0x7)

	assert.Equal(t, InterruptDataReady, c.InterruptStatus.Kind)
	assert.True(t, irq.Active())
}

func TestPositionIndexAppliesLeadInCompensation(t *testing.T) {
	p := Position{Minutes: 1, Seconds: 2, Frames: 10}
	index, ok := p.Index()
	require.True(t, ok)
	assert.Equal(t, uint64(1*60*75+0*75+10), index)

	_, ok = Position{Seconds: 1}.Index()
	assert.False(t, ok, "seconds below the 2-second lead-in have no valid index")
}

func TestInterruptRequestedOnlyWhenKindUnmasked(t *testing.T) {
	c, _, irq := newTestController()
	c.InterruptMask = InterruptMask{Mask: 0}
	c.pendingInterrupts = []InterruptKind{InterruptAcknowledge}

	c.tryRaiseInterrupt()

	assert.Equal(t, InterruptAcknowledge, c.InterruptStatus.Kind)
	assert.False(t, irq.Active(), "a masked kind should not request the CDROM interrupt line")
}

func TestAddrIRQCDROMWired(t *testing.T) {
	// Sanity check this package raises on the right interrupt source.
	irq := interrupt.New()
	irq.Mask = 1 << addr.IRQCDROM
	irq.Request(addr.IRQCDROM)
	assert.True(t, irq.Active())
}
