package cpu

// execCop0 handles the COP0 instruction group: MFC0/MTC0 move system
// registers to/from the GPR file, and RFE pops the interrupt-enable/mode
// stack pushed on exception entry. COP0 has no separate control-register
// file on this core (CFC0/CTC0 are unused by retail software), so they're
// treated as reserved.
func (c *CPU) execCop0(instr Instruction) {
	switch instr.Rs() {
	case copMF:
		c.setLoadDelay(instr.Rt(), c.cop0.Regs[instr.Rd()])
	case copMT:
		c.cop0.Regs[instr.Rd()] = c.gpr.get(instr.Rt())
	case 0x10:
		if instr.Funct() == copRFE {
			c.cop0.popMode()
		} else {
			c.raise(ExcReservedInstruction, 0)
		}
	default:
		c.raise(ExcReservedInstruction, 0)
	}
}

// execCop2 handles the COP2 (GTE) instruction group. Bit 25 of the
// instruction word (the top bit of the Rs field) distinguishes a GTE
// function op, whose opcode lives in the low 25 bits, from an
// MFC2/CFC2/MTC2/CTC2 register transfer.
func (c *CPU) execCop2(instr Instruction) {
	if c.cop2 == nil {
		c.raiseCopUnusable(2)
		return
	}

	if instr.Rs()&0x10 != 0 {
		c.cop2.Execute(uint32(instr) & 0x01FF_FFFF)
		return
	}

	switch instr.Rs() {
	case copMF:
		c.setLoadDelay(instr.Rt(), c.cop2.Data(instr.Rd()))
	case copCF:
		c.setLoadDelay(instr.Rt(), c.cop2.Control(instr.Rd()))
	case copMT:
		c.cop2.SetData(instr.Rd(), c.gpr.get(instr.Rt()))
	case copCT:
		c.cop2.SetControl(instr.Rd(), c.gpr.get(instr.Rt()))
	default:
		c.raise(ExcReservedInstruction, 0)
	}
}

// execLwc2 loads a word from memory directly into a GTE data register.
func (c *CPU) execLwc2(instr Instruction) {
	if c.cop2 == nil {
		c.raiseCopUnusable(2)
		return
	}
	base := c.gpr.get(instr.Rs()) + instr.ImmS()
	if base%4 != 0 {
		c.raise(ExcAddressErrorLoad, base)
		return
	}
	v, err := c.bus.ReadWord(base)
	if err != nil {
		c.raise(ExcBusErrorData, base)
		return
	}
	c.cop2.SetData(instr.Rt(), v)
}

// execSwc2 stores a GTE data register directly to memory.
func (c *CPU) execSwc2(instr Instruction) {
	if c.cop2 == nil {
		c.raiseCopUnusable(2)
		return
	}
	base := c.gpr.get(instr.Rs()) + instr.ImmS()
	if base%4 != 0 {
		c.raise(ExcAddressErrorStore, base)
		return
	}
	v := c.cop2.Data(instr.Rt())
	if err := c.bus.WriteWord(base, v); err != nil {
		c.raise(ExcBusErrorData, base)
	}
}
