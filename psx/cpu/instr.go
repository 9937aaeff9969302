package cpu

// Instruction wraps a raw 32-bit MIPS-I word and extracts its fields: a
// fixed-width word with several overlapping field layouts depending on
// opcode group.
type Instruction uint32

func (i Instruction) Opcode() uint32 { return uint32(i) >> 26 }
func (i Instruction) Rs() uint32     { return (uint32(i) >> 21) & 0x1F }
func (i Instruction) Rt() uint32     { return (uint32(i) >> 16) & 0x1F }
func (i Instruction) Rd() uint32     { return (uint32(i) >> 11) & 0x1F }
func (i Instruction) Shamt() uint32  { return (uint32(i) >> 6) & 0x1F }
func (i Instruction) Funct() uint32  { return uint32(i) & 0x3F }

// ImmU is the raw 16-bit immediate, zero-extended.
func (i Instruction) ImmU() uint32 { return uint32(i) & 0xFFFF }

// ImmS is the 16-bit immediate, sign-extended.
func (i Instruction) ImmS() uint32 { return signExtend16(uint16(i)) }

// Target is the 26-bit jump target field.
func (i Instruction) Target() uint32 { return uint32(i) & 0x03FF_FFFF }

// Code20 is the 20-bit comment field used by SYSCALL/BREAK.
func (i Instruction) Code20() uint32 { return (uint32(i) >> 6) & 0xF_FFFF }

func signExtend16(v uint16) uint32 {
	return uint32(int32(int16(v)))
}

// Primary opcode values (bits 31:26).
const (
	opSPECIAL = 0x00
	opREGIMM  = 0x01
	opJ       = 0x02
	opJAL     = 0x03
	opBEQ     = 0x04
	opBNE     = 0x05
	opBLEZ    = 0x06
	opBGTZ    = 0x07
	opADDI    = 0x08
	opADDIU   = 0x09
	opSLTI    = 0x0A
	opSLTIU   = 0x0B
	opANDI    = 0x0C
	opORI     = 0x0D
	opXORI    = 0x0E
	opLUI     = 0x0F
	opCOP0    = 0x10
	opCOP2    = 0x12
	opLB      = 0x20
	opLH      = 0x21
	opLWL     = 0x22
	opLW      = 0x23
	opLBU     = 0x24
	opLHU     = 0x25
	opLWR     = 0x26
	opSB      = 0x28
	opSH      = 0x29
	opSWL     = 0x2A
	opSW      = 0x2B
	opSWR     = 0x2E
	opLWC2    = 0x32
	opSWC2    = 0x3A
)

// SPECIAL funct values (bits 5:0), used when Opcode() == opSPECIAL.
const (
	fnSLL     = 0x00
	fnSRL     = 0x02
	fnSRA     = 0x03
	fnSLLV    = 0x04
	fnSRLV    = 0x06
	fnSRAV    = 0x07
	fnJR      = 0x08
	fnJALR    = 0x09
	fnSYSCALL = 0x0C
	fnBREAK   = 0x0D
	fnMFHI    = 0x10
	fnMTHI    = 0x11
	fnMFLO    = 0x12
	fnMTLO    = 0x13
	fnMULT    = 0x18
	fnMULTU   = 0x19
	fnDIV     = 0x1A
	fnDIVU    = 0x1B
	fnADD     = 0x20
	fnADDU    = 0x21
	fnSUB     = 0x22
	fnSUBU    = 0x23
	fnAND     = 0x24
	fnOR      = 0x25
	fnXOR     = 0x26
	fnNOR     = 0x27
	fnSLT     = 0x2A
	fnSLTU    = 0x2B
)

// REGIMM rt values (bits 20:16), used when Opcode() == opREGIMM.
const (
	rtBLTZ   = 0x00
	rtBGEZ   = 0x01
	rtBLTZAL = 0x10
	rtBGEZAL = 0x11
)

// COPz rs sub-opcode values.
const (
	copMF  = 0x00
	copCF  = 0x02
	copMT  = 0x04
	copCT  = 0x06
	copRFE = 0x10 // only meaningful for COP0, funct 0x10
)
