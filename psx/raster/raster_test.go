package raster

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordingSinkRecordsPrimitives(t *testing.T) {
	s := NewRecordingSink()
	s.Draw(Primitive{Vertices: []Vertex{{Position: Point{1, 2}}}})
	s.VBlank()

	require.Len(t, s.Primitives, 1)
	assert.Equal(t, Point{1, 2}, s.Primitives[0].Vertices[0].Position)
	assert.Equal(t, 1, s.VBlanks)
}

func TestNopSinkCopyFromVramRepliesZeroed(t *testing.T) {
	s := NopSink{}
	var got []byte
	s.CopyFromVram(CopyFromVramRequest{
		Dimensions:   Dimensions{Width: 4, Height: 4},
		ResponseSink: func(data []byte) { got = data },
	})
	assert.Len(t, got, 4*4*2)
}

func TestAsyncSinkCopyFromVramBlocksUntilServiced(t *testing.T) {
	backing := NewRecordingSink()
	async := NewAsyncSink(backing, 4)
	defer async.Close()

	var got []byte
	async.CopyFromVram(CopyFromVramRequest{
		Dimensions:   Dimensions{Width: 2, Height: 2},
		ResponseSink: func(data []byte) { got = data },
	})

	assert.Len(t, got, 2*2*2)
	require.Len(t, backing.FromVram, 1)
}

func TestAsyncSinkForwardsDrawWithoutBlocking(t *testing.T) {
	backing := NewRecordingSink()
	async := NewAsyncSink(backing, 4)
	defer async.Close()

	async.Draw(Primitive{Vertices: []Vertex{{Position: Point{5, 6}}}})

	// Drain synchronously via a CopyFromVram, which only returns once the
	// worker has processed every job queued before it.
	async.CopyFromVram(CopyFromVramRequest{
		Dimensions:   Dimensions{Width: 1, Height: 1},
		ResponseSink: func([]byte) {},
	})

	require.Len(t, backing.Primitives, 1)
	assert.Equal(t, Point{5, 6}, backing.Primitives[0].Vertices[0].Position)
}
