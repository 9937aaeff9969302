package bit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsSet32(t *testing.T) {
	assert.True(t, IsSet32(0, 0b1))
	assert.False(t, IsSet32(1, 0b1))
	assert.True(t, IsSet32(31, 0x8000_0000))
}

func TestSetClear32(t *testing.T) {
	v := uint32(0)
	v = Set32(3, v)
	require.Equal(t, uint32(0x8), v)
	v = Clear32(3, v)
	require.Equal(t, uint32(0), v)
}

func TestExtractBits(t *testing.T) {
	// opcode field: bits 31:26
	instr := uint32(0b000000_00001_00010_00011_00000_100000) // ADD
	assert.Equal(t, uint32(0), ExtractBits(instr, 31, 26))
	assert.Equal(t, uint32(0x20), ExtractBits(instr, 5, 0))
	assert.Equal(t, uint32(1), ExtractBits(instr, 25, 21))
}

func TestSignExtend16(t *testing.T) {
	assert.Equal(t, uint32(0xFFFFFFFF), SignExtend16(0xFFFF))
	assert.Equal(t, uint32(0x00001234), SignExtend16(0x1234))
}

func TestBCD(t *testing.T) {
	assert.Equal(t, uint8(59), BCD(0x59))
	assert.Equal(t, uint8(0), BCD(0x00))
	assert.Equal(t, uint8(0x59), ToBCD(59))
}
