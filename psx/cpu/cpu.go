// Package cpu implements the PSX's R3000A: a MIPS-I core with a one-slot
// branch-delay pipeline and a one-slot load-delay pipeline, dispatching
// through COP0 (system control) and COP2 (GTE) coprocessors over a Bus
// the host machine provides. MFC0/MFC2/CFC2 moves share the same
// load-delay slot as ordinary loads; MTC0/MTC2/CTC2 commit immediately.
package cpu

import (
	"log/slog"

	"github.com/valerio/psxgo/psx/addr"
)

// CPU is the R3000A interpreter core. It holds no reference to the rest of
// the machine beyond Bus and COP2: a component that only knows the narrow
// interface it needs.
type CPU struct {
	gpr gpr
	hi  uint32
	lo  uint32

	// pc is the address of the instruction this Step will fetch and
	// execute. nextPC is the address that will become pc after this step,
	// normally pc+4; branch/jump handlers overwrite it to implement the
	// one-instruction delay slot.
	pc     uint32
	nextPC uint32

	// curAddr is the address of the instruction currently executing,
	// captured at the top of Step for exception EPC computation.
	curAddr uint32

	// nextIsDelaySlot is set when a branch/jump is taken, so the *next*
	// Step knows its instruction occupies a branch-delay slot.
	nextIsDelaySlot   bool
	inBranchDelaySlot bool
	branchTaken       bool

	pendingLoad loadSlot

	// pendingLoadIn is the load-delay slot captured at the top of Step,
	// for the duration of the instruction currently dispatching. LWL/LWR
	// read it instead of the architectural register when it targets the
	// same register, per the R3000A's documented coalescing behavior;
	// pendingLoad itself is already cleared by the time dispatch runs.
	pendingLoadIn loadSlot

	// regWritten/regWrittenValid track which register, if any, the
	// currently-executing instruction wrote directly or load-delayed, so
	// Step can detect a collision with the load-delay slot it captured at
	// the top of this Step and skip committing a stale value.
	regWritten      uint32
	regWrittenValid bool

	cop0 COP0
	cop2 COP2
	bus  Bus

	log *slog.Logger
}

// New constructs a CPU wired to bus, with cop2 as its GTE. cop2 may be nil
// for tests that don't exercise GTE instructions; any COP2 access in that
// case raises a coprocessor-unusable exception rather than panicking.
func New(bus Bus, cop2 COP2) *CPU {
	c := &CPU{
		bus:  bus,
		cop2: cop2,
		log:  slog.Default().With("component", "cpu"),
	}
	c.Reset()
	return c
}

// Reset restores the CPU to its post-power-on state: PC at the BIOS reset
// vector, SR with BEV set (exception vectors in ROM) and interrupts
// disabled, and an empty pipeline.
func (c *CPU) Reset() {
	c.gpr = gpr{}
	c.hi, c.lo = 0, 0
	c.pc = addr.ResetVector
	c.nextPC = addr.ResetVector + 4
	c.curAddr = 0
	c.nextIsDelaySlot = false
	c.inBranchDelaySlot = false
	c.branchTaken = false
	c.pendingLoad = loadSlot{}
	c.pendingLoadIn = loadSlot{}
	c.cop0 = COP0{}
	c.cop0.Regs[cop0SR] = srBEV
	c.cop0.Regs[cop0PRId] = 0x2
}

// PC returns the address of the instruction about to execute.
func (c *CPU) PC() uint32 { return c.pc }

// SetPC forces the next fetch address, bypassing the branch-delay
// pipeline. Used by the boot-executable sideload hook to jump straight to
// a loaded program's entry point; never called from ordinary dispatch.
func (c *CPU) SetPC(pc uint32) {
	c.pc = pc
	c.nextPC = pc + 4
	c.nextIsDelaySlot = false
}

// Reg returns general-purpose register index's value (0-31).
func (c *CPU) Reg(index uint32) uint32 { return c.gpr.get(index) }

// GPR implements kernel.Registers, the same read by a different name for
// the BIOS kernel-call TTY hook's $a0-$a3 access.
func (c *CPU) GPR(index int) uint32 { return c.gpr.get(uint32(index)) }

// SetReg sets a general-purpose register directly, bypassing the load-delay
// pipeline. Exposed for kernel-call shortcuts and tests; ordinary
// instruction execution goes through setReg/setLoadDelay below.
func (c *CPU) SetReg(index uint32, value uint32) { c.gpr.set(index, value) }

// HiLo returns the multiply/divide result registers.
func (c *CPU) HiLo() (hi, lo uint32) { return c.hi, c.lo }

// COP0Regs exposes the system-control register file, for kernel-call shortcuts
// and tests that need to inspect SR/CAUSE/EPC directly.
func (c *CPU) COP0Regs() *COP0 { return &c.cop0 }

// fetch reads the instruction word at address, honoring isolate-cache by
// still fetching through the bus (instruction fetch is unaffected by
// isolate-cache, which only redirects data stores).
func (c *CPU) fetch(address uint32) (Instruction, error) {
	word, err := c.bus.ReadWord(address)
	if err != nil {
		return 0, err
	}
	return Instruction(word), nil
}

// Step executes exactly one instruction (fetch-decode-execute), applying
// any load scheduled by the previous instruction, retiring any load the
// about-to-execute instruction itself issues, and checking for a pending
// unmasked interrupt once the instruction retires.
func (c *CPU) Step() error {
	addr := c.pc
	instr, err := c.fetch(addr)
	if err != nil {
		c.curAddr = addr
		c.inBranchDelaySlot = c.nextIsDelaySlot
		c.nextIsDelaySlot = false
		c.raise(ExcBusErrorInstruction, addr)
		return nil
	}

	inDelaySlot := c.nextIsDelaySlot
	c.nextIsDelaySlot = false

	c.pc = c.nextPC
	c.nextPC = c.pc + 4

	c.curAddr = addr
	c.inBranchDelaySlot = inDelaySlot
	c.branchTaken = false

	// The load-delay slot: capture what's pending, clear it, execute the
	// instruction (which may itself schedule a new pending load or write
	// the same register directly), then commit the captured value unless
	// this instruction overwrote that register.
	pending := c.pendingLoad
	c.pendingLoad = loadSlot{}
	c.pendingLoadIn = pending
	c.regWrittenValid = false

	c.dispatch(instr, addr)

	if pending.valid && !(c.regWrittenValid && c.regWritten == pending.reg) {
		c.gpr.set(pending.reg, pending.value)
	}

	if c.branchTaken {
		c.nextIsDelaySlot = true
	}

	if c.cop0.InterruptsEnabled() && c.bus.InterruptPending() {
		c.cop0.setPendingMirror(true)
		c.raise(ExcInterrupt, 0)
	}

	return nil
}

// setReg writes a register immediately, as almost all instructions do, and
// records the write for the load-delay collision check in Step.
func (c *CPU) setReg(index uint32, value uint32) {
	c.gpr.set(index, value)
	c.regWritten = index
	c.regWrittenValid = true
}

// setLoadDelay schedules a load instruction's result to land one
// instruction later, per the R3000A's load-delay slot. The old value in
// the register stays visible to the very next instruction. It also
// participates in the collision check like setReg: a load targeting the
// same register as the load Step captured at entry simply overwrites it.
func (c *CPU) setLoadDelay(index uint32, value uint32) {
	c.pendingLoad = loadSlot{reg: index, value: value, valid: true}
	c.regWritten = index
	c.regWrittenValid = true
}

// loadCoalesceValue returns the value LWL/LWR should merge into: the
// load-delay slot captured at the top of this Step if it targets index
// (the pending load hasn't committed to the architectural register yet),
// or the architectural register otherwise.
func (c *CPU) loadCoalesceValue(index uint32) uint32 {
	if c.pendingLoadIn.valid && c.pendingLoadIn.reg == index {
		return c.pendingLoadIn.value
	}
	return c.gpr.get(index)
}
