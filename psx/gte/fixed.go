// Package gte implements the PSX's Geometry Transformation Engine, the
// COP2 coprocessor used for 3D matrix/vector math. It is addressed by the
// CPU's MFC2/MTC2/CFC2/CTC2/LWC2/SWC2 instructions and its own opcode space
// (RTPS, RTPT, NCLIP, OP, MVMVA, NCDS, AVSZ3, AVSZ4, DPCS, INTPL).
package gte

// acc44 is a 44-bit signed accumulator, the width MAC1-3 actually compute
// at before being shifted/clamped down into the 32-bit MAC/IR registers.
// It tracks whether any operation pushed the value outside 44-bit range,
// the source of the MAC overflow/underflow flag bits.
type acc44 struct {
	value      int64
	overflowed bool
	underflowed bool
}

const (
	acc44Max int64 = 1 << 43
	acc44Min int64 = -acc44Max
)

func newAcc44(value int64) acc44 {
	a := acc44{value: value}
	return a.ensureSign()
}

func (a acc44) ensureSign() acc44 {
	const shift = 64 - 44
	a.value = (a.value << shift) >> shift
	return a
}

func (a acc44) add(b acc44) acc44 {
	sum := a.value + b.value
	r := acc44{
		value:       sum,
		overflowed:  a.overflowed || b.overflowed || sum > acc44Max,
		underflowed: a.underflowed || b.underflowed || sum < acc44Min,
	}
	return r.ensureSign()
}

func (a acc44) mul(b acc44) acc44 {
	r := acc44{
		value:       a.value * b.value,
		overflowed:  a.overflowed || b.overflowed,
		underflowed: a.underflowed || b.underflowed,
	}
	return r.ensureSign()
}
