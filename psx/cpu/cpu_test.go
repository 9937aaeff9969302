package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBus is a flat 64KiB RAM for CPU unit tests; it does none of the real
// bus's region dispatch, just enough to let instruction sequences run.
type fakeBus struct {
	ram       [0x10000]byte
	interrupt bool
}

func (b *fakeBus) mask(address uint32) uint32 { return address & 0xFFFF }

func (b *fakeBus) ReadByte(address uint32) (uint8, error) {
	return b.ram[b.mask(address)], nil
}

func (b *fakeBus) ReadHalf(address uint32) (uint16, error) {
	a := b.mask(address)
	return uint16(b.ram[a]) | uint16(b.ram[a+1])<<8, nil
}

func (b *fakeBus) ReadWord(address uint32) (uint32, error) {
	a := b.mask(address)
	return uint32(b.ram[a]) | uint32(b.ram[a+1])<<8 | uint32(b.ram[a+2])<<16 | uint32(b.ram[a+3])<<24, nil
}

func (b *fakeBus) WriteByte(address uint32, value uint8) error {
	b.ram[b.mask(address)] = value
	return nil
}

func (b *fakeBus) WriteHalf(address uint32, value uint16) error {
	a := b.mask(address)
	b.ram[a] = byte(value)
	b.ram[a+1] = byte(value >> 8)
	return nil
}

func (b *fakeBus) WriteWord(address uint32, value uint32) error {
	a := b.mask(address)
	b.ram[a] = byte(value)
	b.ram[a+1] = byte(value >> 8)
	b.ram[a+2] = byte(value >> 16)
	b.ram[a+3] = byte(value >> 24)
	return nil
}

func (b *fakeBus) InterruptPending() bool { return b.interrupt }

// asm packs a MIPS-I R-type/I-type/J-type instruction from raw fields.
func asmR(op, rs, rt, rd, shamt, funct uint32) uint32 {
	return (op << 26) | (rs << 21) | (rt << 16) | (rd << 11) | (shamt << 6) | funct
}

func asmI(op, rs, rt uint32, imm uint16) uint32 {
	return (op << 26) | (rs << 21) | (rt << 16) | uint32(imm)
}

func asmJ(op, target uint32) uint32 {
	return (op << 26) | (target & 0x03FF_FFFF)
}

func newTestCPU() (*CPU, *fakeBus) {
	bus := &fakeBus{}
	c := New(bus, nil)
	c.pc = 0
	c.nextPC = 4
	c.cop0.Regs[cop0SR] = 0 // BEV off: exceptions vector into RAM for these tests
	return c, bus
}

func loadProgram(bus *fakeBus, base uint32, words []uint32) {
	for i, w := range words {
		_ = bus.WriteWord(base+uint32(i*4), w)
	}
}

func TestRegisterZeroAlwaysReadsZero(t *testing.T) {
	c, bus := newTestCPU()
	// ADDIU r0, r0, 5 — a write to r0 must be discarded.
	loadProgram(bus, 0, []uint32{asmI(opADDIU, 0, 0, 5)})
	require.NoError(t, c.Step())
	assert.Equal(t, uint32(0), c.Reg(0))
}

func TestLoadDelaySlotVisibility(t *testing.T) {
	c, bus := newTestCPU()
	c.SetReg(2, 0x100) // base address
	c.SetReg(1, 0xAAAA_AAAA) // stale value, should be visible to the very next instr

	bus.WriteWord(0x100, 0xDEAD_BEEF) // the value LW will fetch

	loadProgram(bus, 0, []uint32{
		asmI(opLW, 2, 1, 0),       // LW r1, 0(r2)
		asmR(opSPECIAL, 1, 0, 3, 0, fnADDU), // ADDU r3, r1, r0
		asmR(opSPECIAL, 1, 0, 4, 0, fnADDU), // ADDU r4, r1, r0
	})

	require.NoError(t, c.Step()) // LW: schedules load-delay
	require.NoError(t, c.Step()) // ADDU r3, r1, r0: sees stale r1
	assert.Equal(t, uint32(0xAAAA_AAAA), c.Reg(3))

	require.NoError(t, c.Step()) // ADDU r4, r1, r0: sees committed r1
	assert.Equal(t, uint32(0xDEAD_BEEF), c.Reg(4))
}

func TestLoadDelaySlotSameRegisterOverwrite(t *testing.T) {
	c, bus := newTestCPU()
	c.SetReg(2, 0x100)
	bus.WriteWord(0x100, 0x1111_1111)

	loadProgram(bus, 0, []uint32{
		asmI(opLW, 2, 1, 0),  // LW r1, 0(r2): schedules r1 <- 0x1111_1111
		asmI(opADDIU, 0, 1, 7), // ADDIU r1, r0, 7: directly overwrites r1 this step
	})

	require.NoError(t, c.Step())
	require.NoError(t, c.Step())
	// The direct write wins; the stale load-delay commit must not clobber it.
	assert.Equal(t, uint32(7), c.Reg(1))
}

func TestJalLinkAndBranchDelaySlot(t *testing.T) {
	c, bus := newTestCPU()
	loadProgram(bus, 0, []uint32{
		asmJ(opJAL, 0x40/4),                      // JAL 0x40
		asmI(opADDIU, 0, 8, 99),                  // delay slot: ADDIU r8, r0, 99
		asmI(opADDIU, 0, 9, 1),                   // should NOT execute yet
	})

	require.NoError(t, c.Step()) // JAL: sets r31, stages delay slot
	assert.Equal(t, uint32(8), c.Reg(31))
	assert.Equal(t, uint32(0), c.Reg(8), "delay slot instruction hasn't executed yet")

	require.NoError(t, c.Step()) // executes delay-slot ADDIU r8, r0, 99
	assert.Equal(t, uint32(99), c.Reg(8))
	assert.Equal(t, uint32(0x40), c.PC(), "next fetch should be the jump target")
}

func TestAddOverflowRaisesException(t *testing.T) {
	c, bus := newTestCPU()
	c.SetReg(1, 0x7FFF_FFFF)
	c.SetReg(2, 1)
	loadProgram(bus, 0, []uint32{
		asmR(opSPECIAL, 1, 2, 3, 0, fnADD), // ADD r3, r1, r2 — overflows
	})

	require.NoError(t, c.Step())
	assert.Equal(t, uint32(0), c.Reg(3), "destination must be untouched on trap")
	assert.Equal(t, uint32(0x8000_0080), c.PC(), "BEV clear routes to the RAM vector")
	assert.Equal(t, uint32(0), c.cop0.EPC())

	cause := c.cop0.CAUSE()
	excCode := (cause >> 2) & 0x1F
	assert.Equal(t, uint32(ExcOverflow), excCode)
}

func TestDivideByZeroSaturates(t *testing.T) {
	c, bus := newTestCPU()
	c.SetReg(1, 5)
	c.SetReg(2, 0)
	loadProgram(bus, 0, []uint32{
		asmR(opSPECIAL, 1, 2, 0, 0, fnDIV),
	})
	require.NoError(t, c.Step())
	hi, lo := c.HiLo()
	assert.Equal(t, uint32(0xFFFF_FFFF), lo)
	assert.Equal(t, uint32(5), hi)
}

func TestAdduDoesNotTrapOnOverflow(t *testing.T) {
	c, bus := newTestCPU()
	c.SetReg(1, 0xFFFF_FFFF)
	c.SetReg(2, 1)
	loadProgram(bus, 0, []uint32{
		asmR(opSPECIAL, 1, 2, 3, 0, fnADDU),
	})
	require.NoError(t, c.Step())
	assert.Equal(t, uint32(0), c.Reg(3))
	assert.Equal(t, uint32(4), c.PC(), "no trap: pipeline simply advances")
}
