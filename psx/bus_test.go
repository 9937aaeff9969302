package psx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valerio/psxgo/psx/addr"
	"github.com/valerio/psxgo/psx/memory"
	"github.com/valerio/psxgo/psx/raster"
)

func newTestBus(t *testing.T) *Bus {
	t.Helper()
	emu, err := New(make([]byte, 64), raster.NopSink{}, nil)
	require.NoError(t, err)
	return emu.Bus
}

func TestBusRAMRoundTripsByteHalfWord(t *testing.T) {
	b := newTestBus(t)

	require.NoError(t, b.WriteByte(addr.RAMBase+0x10, 0xAB))
	v, err := b.ReadByte(addr.RAMBase + 0x10)
	require.NoError(t, err)
	assert.Equal(t, uint8(0xAB), v)

	require.NoError(t, b.WriteHalf(addr.RAMBase+0x20, 0xBEEF))
	h, err := b.ReadHalf(addr.RAMBase + 0x20)
	require.NoError(t, err)
	assert.Equal(t, uint16(0xBEEF), h)

	require.NoError(t, b.WriteWord(addr.RAMBase+0x40, 0xDEADBEEF))
	w, err := b.ReadWord(addr.RAMBase + 0x40)
	require.NoError(t, err)
	assert.Equal(t, uint32(0xDEADBEEF), w)
}

// KUSEG, KSEG0 and KSEG1 all alias the same physical RAM.
func TestBusSegmentsAliasSamePhysicalRAM(t *testing.T) {
	b := newTestBus(t)

	const kuseg = addr.RAMBase + 0x100
	const kseg0 = 0x8000_0000 + addr.RAMBase + 0x100
	const kseg1 = 0xA000_0000 + addr.RAMBase + 0x100

	require.NoError(t, b.WriteWord(kuseg, 0x12345678))

	fromKseg0, err := b.ReadWord(kseg0)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x12345678), fromKseg0)

	fromKseg1, err := b.ReadWord(kseg1)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x12345678), fromKseg1)
}

func TestBusRAMMirrorsEveryTwoMiB(t *testing.T) {
	b := newTestBus(t)

	require.NoError(t, b.WriteWord(addr.RAMBase+0x4, 0xCAFEBABE))

	mirrored, err := b.ReadWord(addr.RAMBase + addr.RAMSize + 0x4)
	require.NoError(t, err)
	assert.Equal(t, uint32(0xCAFEBABE), mirrored)
}

func TestBusReadHalfMisalignedReturnsError(t *testing.T) {
	b := newTestBus(t)

	_, err := b.ReadHalf(addr.RAMBase + 1)
	assert.ErrorIs(t, err, memory.ErrMisaligned)
}

func TestBusReadWordMisalignedReturnsError(t *testing.T) {
	b := newTestBus(t)

	_, err := b.ReadWord(addr.RAMBase + 2)
	assert.ErrorIs(t, err, memory.ErrMisaligned)

	_, err = b.ReadWord(addr.RAMBase + 1)
	assert.ErrorIs(t, err, memory.ErrMisaligned)
}

func TestBusWriteWordMisalignedReturnsError(t *testing.T) {
	b := newTestBus(t)

	err := b.WriteWord(addr.RAMBase+3, 0)
	assert.ErrorIs(t, err, memory.ErrMisaligned)
}

// ReadByte never checks alignment; any offset is valid for a single byte.
func TestBusReadByteNeverMisaligned(t *testing.T) {
	b := newTestBus(t)

	_, err := b.ReadByte(addr.RAMBase + 1)
	assert.NoError(t, err)
}

func TestBusBIOSIsReadOnly(t *testing.T) {
	b := newTestBus(t)

	before, err := b.ReadByte(addr.BIOSBase)
	require.NoError(t, err)

	require.NoError(t, b.WriteByte(addr.BIOSBase, before+1))

	after, err := b.ReadByte(addr.BIOSBase)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestBusInterruptMaskRoundTrip(t *testing.T) {
	b := newTestBus(t)

	require.NoError(t, b.WriteWord(addr.IOPortsBase+addr.OffInterruptMask, 0x7FF))
	mask, err := b.ReadWord(addr.IOPortsBase + addr.OffInterruptMask)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x7FF), mask)
}

// 0x0100_0000 falls in the gap between the RAM mirror and Expansion 1 that
// nothing on the real bus backs.
func TestBusUnmappedAddressErrors(t *testing.T) {
	b := newTestBus(t)

	_, err := b.ReadWord(0x0100_0000)
	assert.Error(t, err)
}
