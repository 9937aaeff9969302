package cpu

// General exception vectors, selected by COP0 SR's BEV bit.
const (
	vectorRAM uint32 = 0x8000_0080
	vectorROM uint32 = 0xBFC0_0180
)

// raise dispatches a general exception: computes EPC (adjusting for a
// branch-delay slot), pushes the interrupt-enable/mode stack, updates
// CAUSE, and redirects the delay-slot pipeline to the exception vector.
//
// badVAddr is written to BadVAddr only for address-error exceptions; for
// every other code it is ignored (bus-error callers still pass the
// faulting address, the rest pass 0).
func (c *CPU) raise(code ExceptionCode, badVAddr uint32) {
	epc := c.curAddr
	inBranchDelay := c.inBranchDelaySlot
	if inBranchDelay {
		epc -= 4
	}

	c.cop0.Regs[cop0EPC] = epc
	c.cop0.raiseCause(code, inBranchDelay, 0)
	if code == ExcAddressErrorLoad || code == ExcAddressErrorStore {
		c.cop0.Regs[cop0BadVAddr] = badVAddr
	}
	c.cop0.pushMode()

	vector := vectorRAM
	if c.cop0.BEV() {
		vector = vectorROM
	}

	// Redirecting the pipeline discards whatever was staged in the
	// branch-delay slot: the exception handler starts clean.
	c.pc = vector
	c.nextPC = vector + 4
	c.nextIsDelaySlot = false
	c.branchTaken = false
}

// raiseCopUnusable raises a coprocessor-unusable exception naming copNumber.
func (c *CPU) raiseCopUnusable(copNumber uint32) {
	epc := c.curAddr
	inBranchDelay := c.inBranchDelaySlot
	if inBranchDelay {
		epc -= 4
	}
	c.cop0.Regs[cop0EPC] = epc
	c.cop0.raiseCause(ExcCopUnusable, inBranchDelay, copNumber)
	c.cop0.pushMode()

	vector := vectorRAM
	if c.cop0.BEV() {
		vector = vectorROM
	}
	c.pc = vector
	c.nextPC = vector + 4
	c.nextIsDelaySlot = false
	c.branchTaken = false
}
