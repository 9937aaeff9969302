package cpu

// Masks and shifts for the little-endian LWL/LWR/SWL/SWR unaligned word
// transfers, indexed by address&3. These four tables are the standard
// little-endian derivation of the MIPS-I manual's big-endian ones.
var (
	lwlMask  = [4]uint32{0x00FFFFFF, 0x0000FFFF, 0x000000FF, 0x00000000}
	lwlShift = [4]uint32{24, 16, 8, 0}
	lwrMask  = [4]uint32{0x00000000, 0xFF000000, 0xFFFF0000, 0xFFFFFF00}
	lwrShift = [4]uint32{0, 8, 16, 24}
	swlMask  = [4]uint32{0xFFFFFF00, 0xFFFF0000, 0xFF000000, 0x00000000}
	swlShift = [4]uint32{24, 16, 8, 0}
	swrMask  = [4]uint32{0x00000000, 0x000000FF, 0x0000FFFF, 0x00FFFFFF}
	swrShift = [4]uint32{0, 8, 16, 24}
)

func (c *CPU) execLoad(instr Instruction) {
	base := c.gpr.get(instr.Rs()) + instr.ImmS()

	switch instr.Opcode() {
	case opLB:
		v, err := c.bus.ReadByte(base)
		if err != nil {
			c.raise(ExcBusErrorData, base)
			return
		}
		c.setLoadDelay(instr.Rt(), uint32(int32(int8(v))))
	case opLBU:
		v, err := c.bus.ReadByte(base)
		if err != nil {
			c.raise(ExcBusErrorData, base)
			return
		}
		c.setLoadDelay(instr.Rt(), uint32(v))
	case opLH:
		if base%2 != 0 {
			c.raise(ExcAddressErrorLoad, base)
			return
		}
		v, err := c.bus.ReadHalf(base)
		if err != nil {
			c.raise(ExcBusErrorData, base)
			return
		}
		c.setLoadDelay(instr.Rt(), uint32(int32(int16(v))))
	case opLHU:
		if base%2 != 0 {
			c.raise(ExcAddressErrorLoad, base)
			return
		}
		v, err := c.bus.ReadHalf(base)
		if err != nil {
			c.raise(ExcBusErrorData, base)
			return
		}
		c.setLoadDelay(instr.Rt(), uint32(v))
	case opLW:
		if base%4 != 0 {
			c.raise(ExcAddressErrorLoad, base)
			return
		}
		v, err := c.bus.ReadWord(base)
		if err != nil {
			c.raise(ExcBusErrorData, base)
			return
		}
		c.setLoadDelay(instr.Rt(), v)
	case opLWL:
		shift := base & 3
		mem, err := c.bus.ReadWord(base &^ 3)
		if err != nil {
			c.raise(ExcBusErrorData, base)
			return
		}
		old := c.loadCoalesceValue(instr.Rt())
		c.setLoadDelay(instr.Rt(), (old&lwlMask[shift])|(mem<<lwlShift[shift]))
	case opLWR:
		shift := base & 3
		mem, err := c.bus.ReadWord(base &^ 3)
		if err != nil {
			c.raise(ExcBusErrorData, base)
			return
		}
		old := c.loadCoalesceValue(instr.Rt())
		c.setLoadDelay(instr.Rt(), (old&lwrMask[shift])|(mem>>lwrShift[shift]))
	}
}

func (c *CPU) execStore(instr Instruction) {
	base := c.gpr.get(instr.Rs()) + instr.ImmS()
	value := c.gpr.get(instr.Rt())

	// Isolate-cache redirects stores away from the bus entirely: used by
	// the BIOS during cache-flush sequences on real hardware, harmless to
	// drop here since this core models no instruction cache.
	if c.cop0.IsolateCache() {
		return
	}

	switch instr.Opcode() {
	case opSB:
		if err := c.bus.WriteByte(base, uint8(value)); err != nil {
			c.raise(ExcBusErrorData, base)
		}
	case opSH:
		if base%2 != 0 {
			c.raise(ExcAddressErrorStore, base)
			return
		}
		if err := c.bus.WriteHalf(base, uint16(value)); err != nil {
			c.raise(ExcBusErrorData, base)
		}
	case opSW:
		if base%4 != 0 {
			c.raise(ExcAddressErrorStore, base)
			return
		}
		if err := c.bus.WriteWord(base, value); err != nil {
			c.raise(ExcBusErrorData, base)
		}
	case opSWL:
		shift := base & 3
		mem, err := c.bus.ReadWord(base &^ 3)
		if err != nil {
			c.raise(ExcBusErrorData, base)
			return
		}
		merged := (mem & swlMask[shift]) | (value >> swlShift[shift])
		if err := c.bus.WriteWord(base&^3, merged); err != nil {
			c.raise(ExcBusErrorData, base)
		}
	case opSWR:
		shift := base & 3
		mem, err := c.bus.ReadWord(base &^ 3)
		if err != nil {
			c.raise(ExcBusErrorData, base)
			return
		}
		merged := (mem & swrMask[shift]) | (value << swrShift[shift])
		if err := c.bus.WriteWord(base&^3, merged); err != nil {
			c.raise(ExcBusErrorData, base)
		}
	}
}
