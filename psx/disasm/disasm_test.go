package disasm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type wordMap map[uint32]uint32

func (w wordMap) ReadWord(address uint32) (uint32, error) {
	word, ok := w[address]
	if !ok {
		return 0, errUnmapped
	}
	return word, nil
}

var errUnmapped = errUnmappedType{}

type errUnmappedType struct{}

func (errUnmappedType) Error() string { return "unmapped" }

func TestDisassembleWordArithmeticLogical(t *testing.T) {
	// addiu $t0, $zero, 0x1234
	assert.Equal(t, "addiu   $t0, $zero, 4660", DisassembleWord(0, 0x24080000|0x1234))
	// ori $v0, $v1, 0x00FF
	assert.Equal(t, "ori     $v0, $v1, 0x00FF", DisassembleWord(0, 0x34620000|0x00FF))
}

func TestDisassembleWordSpecialNop(t *testing.T) {
	assert.Equal(t, "nop", DisassembleWord(0, 0x00000000))
}

func TestDisassembleWordBranchResolvesTarget(t *testing.T) {
	// beq $zero, $zero, +2 (branch offset 2 instructions forward)
	word := uint32(0x10000002)
	text := DisassembleWord(0x1000, word)
	assert.Equal(t, "beq     $zero, $zero, 0x0000100C", text)
}

func TestDisassembleAtReadsThroughBus(t *testing.T) {
	mem := wordMap{0x1000: 0x3C011234} // lui $at, 0x1234
	line, err := DisassembleAt(0x1000, mem)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x1000), line.Address)
	assert.Equal(t, "lui     $at, 0x1234", line.Text)
}

func TestDisassembleRangeStopsOnError(t *testing.T) {
	mem := wordMap{0x1000: 0x00000000, 0x1004: 0x00000000}
	lines := DisassembleRange(0x1000, 4, mem)
	require.Len(t, lines, 2)
	assert.Equal(t, "nop", lines[0].Text)
}
