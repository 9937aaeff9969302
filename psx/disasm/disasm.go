// Package disasm renders a 32-bit MIPS-I word as a short mnemonic string.
// It is a debugging aid that no other package of this module imports; it
// has no effect on emulation and is never on the hot path of
// Emulator.Step. Modeled on the teacher's jeebie/disasm package
// shape (a DisassemblyLine struct plus a DisassembleAt entry point reading
// through a small memory-reader interface), generalized from the Game
// Boy's single-byte variable-length opcodes to MIPS's fixed 4-byte word.
package disasm

import "fmt"

// WordReader is the minimal bus surface the disassembler needs: reading
// one aligned 32-bit instruction word. psx.Bus and psx/cpu.Bus both satisfy
// this already via their ReadWord method.
type WordReader interface {
	ReadWord(address uint32) (uint32, error)
}

// Line is one disassembled instruction.
type Line struct {
	Address uint32
	Text    string
}

var regNames = [32]string{
	"zero", "at", "v0", "v1", "a0", "a1", "a2", "a3",
	"t0", "t1", "t2", "t3", "t4", "t5", "t6", "t7",
	"s0", "s1", "s2", "s3", "s4", "s5", "s6", "s7",
	"t8", "t9", "k0", "k1", "gp", "sp", "fp", "ra",
}

func reg(i uint32) string { return "$" + regNames[i&0x1F] }

// DisassembleWord decodes a single raw instruction word into a mnemonic
// string. Addr is used only to resolve PC-relative branch/jump targets
// into absolute addresses for display.
func DisassembleWord(addr, word uint32) string {
	opcode := word >> 26
	rs := (word >> 21) & 0x1F
	rt := (word >> 16) & 0x1F
	rd := (word >> 11) & 0x1F
	shamt := (word >> 6) & 0x1F
	funct := word & 0x3F
	immU := word & 0xFFFF
	immS := uint32(int32(int16(uint16(word))))
	target := word & 0x03FF_FFFF

	switch opcode {
	case 0x00: // SPECIAL
		return disasmSpecial(rs, rt, rd, shamt, funct)
	case 0x01: // REGIMM
		return disasmRegimm(rt, rs, addr, immS)
	case 0x02:
		return fmt.Sprintf("j       0x%08X", (addr&0xF000_0000)|(target<<2))
	case 0x03:
		return fmt.Sprintf("jal     0x%08X", (addr&0xF000_0000)|(target<<2))
	case 0x04:
		return fmt.Sprintf("beq     %s, %s, 0x%08X", reg(rs), reg(rt), addr+4+(immS<<2))
	case 0x05:
		return fmt.Sprintf("bne     %s, %s, 0x%08X", reg(rs), reg(rt), addr+4+(immS<<2))
	case 0x06:
		return fmt.Sprintf("blez    %s, 0x%08X", reg(rs), addr+4+(immS<<2))
	case 0x07:
		return fmt.Sprintf("bgtz    %s, 0x%08X", reg(rs), addr+4+(immS<<2))
	case 0x08:
		return fmt.Sprintf("addi    %s, %s, %d", reg(rt), reg(rs), int32(immS))
	case 0x09:
		return fmt.Sprintf("addiu   %s, %s, %d", reg(rt), reg(rs), int32(immS))
	case 0x0A:
		return fmt.Sprintf("slti    %s, %s, %d", reg(rt), reg(rs), int32(immS))
	case 0x0B:
		return fmt.Sprintf("sltiu   %s, %s, %d", reg(rt), reg(rs), int32(immS))
	case 0x0C:
		return fmt.Sprintf("andi    %s, %s, 0x%04X", reg(rt), reg(rs), immU)
	case 0x0D:
		return fmt.Sprintf("ori     %s, %s, 0x%04X", reg(rt), reg(rs), immU)
	case 0x0E:
		return fmt.Sprintf("xori    %s, %s, 0x%04X", reg(rt), reg(rs), immU)
	case 0x0F:
		return fmt.Sprintf("lui     %s, 0x%04X", reg(rt), immU)
	case 0x10:
		return disasmCop(0, rs, rt, rd, funct)
	case 0x12:
		return disasmCop(2, rs, rt, rd, funct)
	case 0x20:
		return fmt.Sprintf("lb      %s, %d(%s)", reg(rt), int32(immS), reg(rs))
	case 0x21:
		return fmt.Sprintf("lh      %s, %d(%s)", reg(rt), int32(immS), reg(rs))
	case 0x22:
		return fmt.Sprintf("lwl     %s, %d(%s)", reg(rt), int32(immS), reg(rs))
	case 0x23:
		return fmt.Sprintf("lw      %s, %d(%s)", reg(rt), int32(immS), reg(rs))
	case 0x24:
		return fmt.Sprintf("lbu     %s, %d(%s)", reg(rt), int32(immS), reg(rs))
	case 0x25:
		return fmt.Sprintf("lhu     %s, %d(%s)", reg(rt), int32(immS), reg(rs))
	case 0x26:
		return fmt.Sprintf("lwr     %s, %d(%s)", reg(rt), int32(immS), reg(rs))
	case 0x28:
		return fmt.Sprintf("sb      %s, %d(%s)", reg(rt), int32(immS), reg(rs))
	case 0x29:
		return fmt.Sprintf("sh      %s, %d(%s)", reg(rt), int32(immS), reg(rs))
	case 0x2A:
		return fmt.Sprintf("swl     %s, %d(%s)", reg(rt), int32(immS), reg(rs))
	case 0x2B:
		return fmt.Sprintf("sw      %s, %d(%s)", reg(rt), int32(immS), reg(rs))
	case 0x2E:
		return fmt.Sprintf("swr     %s, %d(%s)", reg(rt), int32(immS), reg(rs))
	case 0x32:
		return fmt.Sprintf("lwc2    $%d, %d(%s)", rt, int32(immS), reg(rs))
	case 0x3A:
		return fmt.Sprintf("swc2    $%d, %d(%s)", rt, int32(immS), reg(rs))
	default:
		return fmt.Sprintf(".word   0x%08X", word)
	}
}

func disasmSpecial(rs, rt, rd, shamt, funct uint32) string {
	switch funct {
	case 0x00:
		if rd == 0 && rt == 0 && shamt == 0 {
			return "nop"
		}
		return fmt.Sprintf("sll     %s, %s, %d", reg(rd), reg(rt), shamt)
	case 0x02:
		return fmt.Sprintf("srl     %s, %s, %d", reg(rd), reg(rt), shamt)
	case 0x03:
		return fmt.Sprintf("sra     %s, %s, %d", reg(rd), reg(rt), shamt)
	case 0x04:
		return fmt.Sprintf("sllv    %s, %s, %s", reg(rd), reg(rt), reg(rs))
	case 0x06:
		return fmt.Sprintf("srlv    %s, %s, %s", reg(rd), reg(rt), reg(rs))
	case 0x07:
		return fmt.Sprintf("srav    %s, %s, %s", reg(rd), reg(rt), reg(rs))
	case 0x08:
		return fmt.Sprintf("jr      %s", reg(rs))
	case 0x09:
		return fmt.Sprintf("jalr    %s, %s", reg(rd), reg(rs))
	case 0x0C:
		return "syscall"
	case 0x0D:
		return "break"
	case 0x10:
		return fmt.Sprintf("mfhi    %s", reg(rd))
	case 0x11:
		return fmt.Sprintf("mthi    %s", reg(rs))
	case 0x12:
		return fmt.Sprintf("mflo    %s", reg(rd))
	case 0x13:
		return fmt.Sprintf("mtlo    %s", reg(rs))
	case 0x18:
		return fmt.Sprintf("mult    %s, %s", reg(rs), reg(rt))
	case 0x19:
		return fmt.Sprintf("multu   %s, %s", reg(rs), reg(rt))
	case 0x1A:
		return fmt.Sprintf("div     %s, %s", reg(rs), reg(rt))
	case 0x1B:
		return fmt.Sprintf("divu    %s, %s", reg(rs), reg(rt))
	case 0x20:
		return fmt.Sprintf("add     %s, %s, %s", reg(rd), reg(rs), reg(rt))
	case 0x21:
		return fmt.Sprintf("addu    %s, %s, %s", reg(rd), reg(rs), reg(rt))
	case 0x22:
		return fmt.Sprintf("sub     %s, %s, %s", reg(rd), reg(rs), reg(rt))
	case 0x23:
		return fmt.Sprintf("subu    %s, %s, %s", reg(rd), reg(rs), reg(rt))
	case 0x24:
		return fmt.Sprintf("and     %s, %s, %s", reg(rd), reg(rs), reg(rt))
	case 0x25:
		return fmt.Sprintf("or      %s, %s, %s", reg(rd), reg(rs), reg(rt))
	case 0x26:
		return fmt.Sprintf("xor     %s, %s, %s", reg(rd), reg(rs), reg(rt))
	case 0x27:
		return fmt.Sprintf("nor     %s, %s, %s", reg(rd), reg(rs), reg(rt))
	case 0x2A:
		return fmt.Sprintf("slt     %s, %s, %s", reg(rd), reg(rs), reg(rt))
	case 0x2B:
		return fmt.Sprintf("sltu    %s, %s, %s", reg(rd), reg(rs), reg(rt))
	default:
		return fmt.Sprintf("special 0x%02X", funct)
	}
}

func disasmRegimm(rt, rs, addr, immS uint32) string {
	target := addr + 4 + (immS << 2)
	switch rt {
	case 0x00:
		return fmt.Sprintf("bltz    %s, 0x%08X", reg(rs), target)
	case 0x01:
		return fmt.Sprintf("bgez    %s, 0x%08X", reg(rs), target)
	case 0x10:
		return fmt.Sprintf("bltzal  %s, 0x%08X", reg(rs), target)
	case 0x11:
		return fmt.Sprintf("bgezal  %s, 0x%08X", reg(rs), target)
	default:
		return fmt.Sprintf("regimm  0x%02X", rt)
	}
}

func disasmCop(cop, rs, rt, rd, funct uint32) string {
	switch rs {
	case 0x00:
		return fmt.Sprintf("mfc%d    %s, $%d", cop, reg(rt), rd)
	case 0x02:
		return fmt.Sprintf("cfc%d    %s, $%d", cop, reg(rt), rd)
	case 0x04:
		return fmt.Sprintf("mtc%d    %s, $%d", cop, reg(rt), rd)
	case 0x06:
		return fmt.Sprintf("ctc%d    %s, $%d", cop, reg(rt), rd)
	case 0x10:
		if cop == 0 && funct == 0x10 {
			return "rfe"
		}
		return fmt.Sprintf("cop%d    0x%02X", cop, rd)
	default:
		return fmt.Sprintf("cop%d    rs=0x%02X", cop, rs)
	}
}

// DisassembleAt reads the word at pc through r and disassembles it.
func DisassembleAt(pc uint32, r WordReader) (Line, error) {
	word, err := r.ReadWord(pc)
	if err != nil {
		return Line{}, err
	}
	return Line{Address: pc, Text: DisassembleWord(pc, word)}, nil
}

// DisassembleRange disassembles count consecutive instructions starting at
// pc, stopping early if a read fails.
func DisassembleRange(pc uint32, count int, r WordReader) []Line {
	lines := make([]Line, 0, count)
	for i := 0; i < count; i++ {
		line, err := DisassembleAt(pc, r)
		if err != nil {
			break
		}
		lines = append(lines, line)
		pc += 4
	}
	return lines
}
