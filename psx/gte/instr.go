package gte

// GTE opcode values, the funct field (bits 5:0) of a COP2 function
// instruction.
const (
	OpRTPS  = 0x01
	OpNCLIP = 0x06
	OpOP    = 0x0C
	OpDPCS  = 0x10
	OpINTPL = 0x11
	OpMVMVA = 0x12
	OpNCDS  = 0x13
	OpAVSZ3 = 0x2D
	OpAVSZ4 = 0x2E
	OpRTPT  = 0x30
)

// decoded is the set of fields packed into a GTE function instruction's
// low 25 bits, beyond the opcode itself.
type decoded struct {
	opcode         uint32
	noNeg          bool
	offsetVector   uint32 // 0=translation 1=background-color 2=far-color 3=none
	multiplyVector uint32 // 0=V0 1=V1 2=V2 3=IR
	multiplyMatrix uint32 // 0=rotation 1=light 2=color 3=reserved
	shift          bool
}

func decode(word uint32) decoded {
	return decoded{
		opcode:         word & 0x3F,
		noNeg:          word&(1<<10) != 0,
		offsetVector:   (word >> 13) & 0x3,
		multiplyVector: (word >> 15) & 0x3,
		multiplyMatrix: (word >> 17) & 0x3,
		shift:          word&(1<<19) != 0,
	}
}

const (
	matrixRotation = 0
	matrixLight    = 1
	matrixColor    = 2

	offsetTranslation      = 0
	offsetBackgroundColor = 1
	offsetFarColor         = 2
	offsetNone             = 3

	vectorV0 = 0
	vectorV1 = 1
	vectorV2 = 2
	vectorIR = 3
)
