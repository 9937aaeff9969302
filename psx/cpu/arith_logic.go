package cpu

// execAdd, execSub, and the ADDI immediate form are the three MIPS-I
// operations that trap on signed overflow: ADD/ADDI/SUB raise an Overflow
// exception instead of wrapping, unlike their U-suffixed counterparts.

func (c *CPU) execAdd(instr Instruction) {
	a := int32(c.gpr.get(instr.Rs()))
	b := int32(c.gpr.get(instr.Rt()))
	result := a + b
	if overflowsAdd(a, b, result) {
		c.raise(ExcOverflow, 0)
		return
	}
	c.setReg(instr.Rd(), uint32(result))
}

func (c *CPU) execSub(instr Instruction) {
	a := int32(c.gpr.get(instr.Rs()))
	b := int32(c.gpr.get(instr.Rt()))
	result := a - b
	if overflowsSub(a, b, result) {
		c.raise(ExcOverflow, 0)
		return
	}
	c.setReg(instr.Rd(), uint32(result))
}

func overflowsAdd(a, b, result int32) bool {
	return (a >= 0) == (b >= 0) && (result >= 0) != (a >= 0)
}

func overflowsSub(a, b, result int32) bool {
	return (a >= 0) != (b >= 0) && (result >= 0) != (a >= 0)
}

func (c *CPU) execMult(instr Instruction) {
	a := int64(int32(c.gpr.get(instr.Rs())))
	b := int64(int32(c.gpr.get(instr.Rt())))
	result := uint64(a * b)
	c.hi = uint32(result >> 32)
	c.lo = uint32(result)
}

func (c *CPU) execMultu(instr Instruction) {
	a := uint64(c.gpr.get(instr.Rs()))
	b := uint64(c.gpr.get(instr.Rt()))
	result := a * b
	c.hi = uint32(result >> 32)
	c.lo = uint32(result)
}

// execDiv implements signed division, including the R3000A's documented
// special cases: division by zero leaves a "saturated" quotient/remainder
// instead of trapping, and the single case of overflow (MinInt32 / -1) is
// defined rather than trapping too.
func (c *CPU) execDiv(instr Instruction) {
	numerator := int32(c.gpr.get(instr.Rs()))
	denominator := int32(c.gpr.get(instr.Rt()))

	switch {
	case denominator == 0:
		if numerator >= 0 {
			c.lo = 0xFFFFFFFF
		} else {
			c.lo = 1
		}
		c.hi = uint32(numerator)
	case numerator == -0x80000000 && denominator == -1:
		c.lo = 0x80000000
		c.hi = 0
	default:
		c.lo = uint32(numerator / denominator)
		c.hi = uint32(numerator % denominator)
	}
}

func (c *CPU) execDivu(instr Instruction) {
	numerator := c.gpr.get(instr.Rs())
	denominator := c.gpr.get(instr.Rt())

	if denominator == 0 {
		c.lo = 0xFFFFFFFF
		c.hi = numerator
		return
	}
	c.lo = numerator / denominator
	c.hi = numerator % denominator
}

// execImmediate handles the ADDI/ADDIU/SLTI/SLTIU/ANDI/ORI/XORI/LUI group,
// all opcode-selected rather than funct-selected.
func (c *CPU) execImmediate(instr Instruction) {
	switch instr.Opcode() {
	case opADDI:
		a := int32(c.gpr.get(instr.Rs()))
		b := int32(instr.ImmS())
		result := a + b
		if overflowsAdd(a, b, result) {
			c.raise(ExcOverflow, 0)
			return
		}
		c.setReg(instr.Rt(), uint32(result))
	case opADDIU:
		c.setReg(instr.Rt(), c.gpr.get(instr.Rs())+instr.ImmS())
	case opSLTI:
		c.setReg(instr.Rt(), boolToWord(int32(c.gpr.get(instr.Rs())) < int32(instr.ImmS())))
	case opSLTIU:
		c.setReg(instr.Rt(), boolToWord(c.gpr.get(instr.Rs()) < instr.ImmS()))
	case opANDI:
		c.setReg(instr.Rt(), c.gpr.get(instr.Rs())&instr.ImmU())
	case opORI:
		c.setReg(instr.Rt(), c.gpr.get(instr.Rs())|instr.ImmU())
	case opXORI:
		c.setReg(instr.Rt(), c.gpr.get(instr.Rs())^instr.ImmU())
	case opLUI:
		c.setReg(instr.Rt(), instr.ImmU()<<16)
	}
}
