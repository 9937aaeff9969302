package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheduleAndPop(t *testing.T) {
	s := New()
	s.Schedule(VBlank, 10, nil)

	_, ok := s.Pop()
	assert.False(t, ok, "event scheduled 10 cycles out should not be ready yet")

	s.Advance(10)
	e, ok := s.Pop()
	require.True(t, ok)
	assert.Equal(t, VBlank, e.Kind)

	_, ok = s.Pop()
	assert.False(t, ok)
}

func TestDelayZeroFiresOnNextPop(t *testing.T) {
	s := New()
	s.Schedule(Gpu, 0, nil)
	e, ok := s.Pop()
	require.True(t, ok)
	assert.Equal(t, Gpu, e.Kind)
}

func TestCyclesUntilNext(t *testing.T) {
	s := New()
	_, ok := s.CyclesUntilNext()
	assert.False(t, ok)

	s.Schedule(Timer, 5, nil)
	s.Schedule(Cdrom, 3, nil)
	cycles, ok := s.CyclesUntilNext()
	require.True(t, ok)
	assert.Equal(t, uint64(3), cycles)
}

func TestNoDeduplication(t *testing.T) {
	s := New()
	s.Schedule(Sio, 0, nil)
	s.Schedule(Sio, 0, nil)
	assert.Equal(t, 2, s.PendingCount())
}

func TestCancel(t *testing.T) {
	s := New()
	s.Schedule(Timer, 5, 1)
	s.Schedule(Timer, 5, 2)
	s.Cancel(Timer, func(data any) bool { return data.(int) == 1 })
	require.Equal(t, 1, s.PendingCount())
}
