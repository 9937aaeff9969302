package timer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTickReachesTarget(t *testing.T) {
	tm := New(1)
	tm.Target = 5
	tm.Mode = modeIrqAtTgt | modeResetAtTgt | modeNoIrqLatched

	var res TickResult
	for i := 0; i < 5; i++ {
		res = tm.Tick(false)
	}

	require.True(t, res.ReachedTarget)
	assert.True(t, res.RequestIRQ)
	assert.Equal(t, uint16(0), tm.Value, "reset-at-target should zero the counter")
}

func TestTickReachesMax(t *testing.T) {
	tm := New(2)
	tm.Value = 0xFFFE
	tm.Mode = modeIrqAtMax | modeNoIrqLatched

	res := tm.Tick(false)
	assert.False(t, res.ReachedMax)
	res = tm.Tick(false)
	assert.True(t, res.ReachedMax)
	assert.True(t, res.RequestIRQ)
	assert.Equal(t, uint16(0), tm.Value)
}

func TestOneShotIRQFiresOnce(t *testing.T) {
	tm := New(1)
	tm.Target = 1
	tm.Mode = modeIrqAtTgt | modeNoIrqLatched // repeat bit clear -> one-shot

	res := tm.Tick(false)
	assert.True(t, res.RequestIRQ)

	tm.Value = 0
	res = tm.Tick(false)
	assert.False(t, res.RequestIRQ, "one-shot timer should not re-fire without a mode rewrite")
}

func TestWriteModeResetsValue(t *testing.T) {
	tm := New(0)
	tm.Value = 1234
	tm.WriteMode(0)
	assert.Equal(t, uint16(0), tm.Value)
}

func TestSyncGating(t *testing.T) {
	tm := New(1)
	tm.Mode = modeSyncEnable // sync mode bits 0 -> pause during blank
	before := tm.Value
	tm.Tick(true) // in blank, mode 0 pauses
	assert.Equal(t, before, tm.Value)
	tm.Tick(false)
	assert.Equal(t, before+1, tm.Value)
}
