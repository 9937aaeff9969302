package cpu

// dispatch decodes instr (fetched from addr) and routes it to the handler
// for its instruction group as a plain switch: the MIPS-I opcode space is
// small and dense enough that a map of function values buys nothing a
// switch doesn't already give.
func (c *CPU) dispatch(instr Instruction, addr uint32) {
	switch instr.Opcode() {
	case opSPECIAL:
		c.execSpecial(instr, addr)
	case opREGIMM:
		c.execRegimm(instr, addr)
	case opJ:
		c.execJ(instr, addr)
	case opJAL:
		c.execJal(instr, addr)
	case opBEQ, opBNE, opBLEZ, opBGTZ:
		c.execBranch(instr, addr)
	case opADDI, opADDIU, opSLTI, opSLTIU, opANDI, opORI, opXORI, opLUI:
		c.execImmediate(instr)
	case opCOP0:
		c.execCop0(instr)
	case opCOP2:
		c.execCop2(instr)
	case opLB, opLH, opLWL, opLW, opLBU, opLHU, opLWR:
		c.execLoad(instr)
	case opSB, opSH, opSWL, opSW, opSWR:
		c.execStore(instr)
	case opLWC2:
		c.execLwc2(instr)
	case opSWC2:
		c.execSwc2(instr)
	default:
		c.raise(ExcReservedInstruction, 0)
	}
}

// execSpecial handles the SPECIAL opcode group, selected by Funct().
func (c *CPU) execSpecial(instr Instruction, addr uint32) {
	switch instr.Funct() {
	case fnSLL:
		c.setReg(instr.Rd(), c.gpr.get(instr.Rt())<<instr.Shamt())
	case fnSRL:
		c.setReg(instr.Rd(), c.gpr.get(instr.Rt())>>instr.Shamt())
	case fnSRA:
		c.setReg(instr.Rd(), uint32(int32(c.gpr.get(instr.Rt()))>>instr.Shamt()))
	case fnSLLV:
		c.setReg(instr.Rd(), c.gpr.get(instr.Rt())<<(c.gpr.get(instr.Rs())&0x1F))
	case fnSRLV:
		c.setReg(instr.Rd(), c.gpr.get(instr.Rt())>>(c.gpr.get(instr.Rs())&0x1F))
	case fnSRAV:
		c.setReg(instr.Rd(), uint32(int32(c.gpr.get(instr.Rt()))>>(c.gpr.get(instr.Rs())&0x1F)))
	case fnJR:
		c.execJr(instr)
	case fnJALR:
		c.execJalr(instr, addr)
	case fnSYSCALL:
		c.raise(ExcSyscall, 0)
	case fnBREAK:
		c.raise(ExcBreak, 0)
	case fnMFHI:
		c.setReg(instr.Rd(), c.hi)
	case fnMTHI:
		c.hi = c.gpr.get(instr.Rs())
	case fnMFLO:
		c.setReg(instr.Rd(), c.lo)
	case fnMTLO:
		c.lo = c.gpr.get(instr.Rs())
	case fnMULT:
		c.execMult(instr)
	case fnMULTU:
		c.execMultu(instr)
	case fnDIV:
		c.execDiv(instr)
	case fnDIVU:
		c.execDivu(instr)
	case fnADD:
		c.execAdd(instr)
	case fnADDU:
		c.setReg(instr.Rd(), c.gpr.get(instr.Rs())+c.gpr.get(instr.Rt()))
	case fnSUB:
		c.execSub(instr)
	case fnSUBU:
		c.setReg(instr.Rd(), c.gpr.get(instr.Rs())-c.gpr.get(instr.Rt()))
	case fnAND:
		c.setReg(instr.Rd(), c.gpr.get(instr.Rs())&c.gpr.get(instr.Rt()))
	case fnOR:
		c.setReg(instr.Rd(), c.gpr.get(instr.Rs())|c.gpr.get(instr.Rt()))
	case fnXOR:
		c.setReg(instr.Rd(), c.gpr.get(instr.Rs())^c.gpr.get(instr.Rt()))
	case fnNOR:
		c.setReg(instr.Rd(), ^(c.gpr.get(instr.Rs()) | c.gpr.get(instr.Rt())))
	case fnSLT:
		c.setReg(instr.Rd(), boolToWord(int32(c.gpr.get(instr.Rs())) < int32(c.gpr.get(instr.Rt()))))
	case fnSLTU:
		c.setReg(instr.Rd(), boolToWord(c.gpr.get(instr.Rs()) < c.gpr.get(instr.Rt())))
	default:
		c.raise(ExcReservedInstruction, 0)
	}
}

func boolToWord(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}
