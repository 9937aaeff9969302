package cpu

// Every handler here either leaves nextPC alone (not taken) or overwrites
// it with the branch/jump target, which Step turns into a one-instruction
// delay slot by setting nextIsDelaySlot once branchTaken is observed.

func (c *CPU) execJ(instr Instruction, addr uint32) {
	c.nextPC = (addr & 0xF000_0000) | (instr.Target() << 2)
	c.branchTaken = true
}

func (c *CPU) execJal(instr Instruction, addr uint32) {
	c.setReg(31, addr+8)
	c.nextPC = (addr & 0xF000_0000) | (instr.Target() << 2)
	c.branchTaken = true
}

func (c *CPU) execJr(instr Instruction) {
	c.nextPC = c.gpr.get(instr.Rs())
	c.branchTaken = true
}

func (c *CPU) execJalr(instr Instruction, addr uint32) {
	target := c.gpr.get(instr.Rs())
	c.setReg(instr.Rd(), addr+8)
	c.nextPC = target
	c.branchTaken = true
}

// execBranch handles BEQ/BNE/BLEZ/BGTZ, which share an opcode-selected
// (not funct-selected) condition.
func (c *CPU) execBranch(instr Instruction, addr uint32) {
	rs := int32(c.gpr.get(instr.Rs()))
	rt := int32(c.gpr.get(instr.Rt()))

	var taken bool
	switch instr.Opcode() {
	case opBEQ:
		taken = rs == rt
	case opBNE:
		taken = rs != rt
	case opBLEZ:
		taken = rs <= 0
	case opBGTZ:
		taken = rs > 0
	}

	if taken {
		c.nextPC = addr + 4 + (instr.ImmS() << 2)
		c.branchTaken = true
	}
}

// execRegimm handles BLTZ/BGEZ/BLTZAL/BGEZAL, selected by Rt() rather than
// a dedicated opcode.
func (c *CPU) execRegimm(instr Instruction, addr uint32) {
	rs := int32(c.gpr.get(instr.Rs()))
	link := instr.Rt() == rtBLTZAL || instr.Rt() == rtBGEZAL

	var taken bool
	switch instr.Rt() {
	case rtBLTZ, rtBLTZAL:
		taken = rs < 0
	case rtBGEZ, rtBGEZAL:
		taken = rs >= 0
	default:
		c.raise(ExcReservedInstruction, 0)
		return
	}

	if link {
		c.setReg(31, addr+8)
	}
	if taken {
		c.nextPC = addr + 4 + (instr.ImmS() << 2)
		c.branchTaken = true
	}
}
