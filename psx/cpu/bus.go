package cpu

// Bus is everything the CPU needs from the rest of the machine. It's
// defined here, as the consumer, rather than in a shared package, so the
// top-level hub that implements it can freely import cpu without a cycle.
type Bus interface {
	ReadByte(address uint32) (uint8, error)
	ReadHalf(address uint32) (uint16, error)
	ReadWord(address uint32) (uint32, error)
	WriteByte(address uint32, value uint8) error
	WriteHalf(address uint32, value uint16) error
	WriteWord(address uint32, value uint32) error

	// InterruptPending reports whether the interrupt controller currently
	// has an unmasked source asserted, for the CPU's end-of-instruction
	// interrupt check.
	InterruptPending() bool
}

// COP2 is the geometry transform engine, addressed via MFC2/MTC2/CFC2/CTC2
// and its own GTE opcode space (funct field of a COP2 instruction). Defined
// here for the same reason as Bus: psx/gte implements it, cpu only calls it.
type COP2 interface {
	Data(reg uint32) uint32
	SetData(reg uint32, value uint32)
	Control(reg uint32) uint32
	SetControl(reg uint32, value uint32)
	Execute(opcode uint32)
}
