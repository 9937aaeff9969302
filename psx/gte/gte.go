package gte

// GTE is the geometry coprocessor's externally-visible state: its 64
// register file plus the opcode dispatcher the CPU's COP2 function
// instructions (the `cpu.COP2` interface) call into.
type GTE struct {
	regs Registers
}

// New returns a GTE with a zeroed register file, matching real hardware's
// undefined-but-typically-zero power-on state closely enough for boot.
func New() *GTE {
	return &GTE{}
}

// Data implements cpu.COP2: MFC2 reads one of the 32 data registers.
func (g *GTE) Data(reg uint32) uint32 { return g.regs.Read(reg & 0x1F) }

// SetData implements cpu.COP2: MTC2 writes one of the 32 data registers.
func (g *GTE) SetData(reg uint32, value uint32) { g.regs.Write(reg&0x1F, value) }

// Control implements cpu.COP2: CFC2 reads one of the 32 control registers.
func (g *GTE) Control(reg uint32) uint32 { return g.regs.Read(32 + (reg & 0x1F)) }

// SetControl implements cpu.COP2: CTC2 writes one of the 32 control
// registers.
func (g *GTE) SetControl(reg uint32, value uint32) { g.regs.Write(32+(reg&0x1F), value) }

// Execute implements cpu.COP2: runs a GTE function instruction, whose
// 25-bit opcode word carries the operation plus the sf/mx/v/cv/lm fields
// most of the matrix ops read.
func (g *GTE) Execute(word uint32) {
	d := decode(word)
	switch d.opcode {
	case OpRTPS:
		g.rtp(0, d)
		g.depthCueFactor()
	case OpRTPT:
		g.rtp(0, d)
		g.rtp(1, d)
		g.rtp(2, d)
		g.depthCueFactor()
	case OpNCLIP:
		g.nclip()
	case OpOP:
		g.op(d)
	case OpMVMVA:
		g.mvmva(d)
	case OpNCDS:
		g.ncds(d)
	case OpDPCS:
		g.dpcs(d)
	case OpINTPL:
		g.intpl(d)
	case OpAVSZ3:
		g.avsz3()
	case OpAVSZ4:
		g.avsz4()
	default:
		// Unimplemented GTE opcodes are a no-op rather than a CPU
		// exception: the GTE itself has no way to signal "reserved".
	}
}

// matrixBase maps an MVMVA matrix selector to its register-file base.
func matrixBase(selector uint32) uint32 {
	switch selector {
	case matrixLight:
		return regL1112
	case matrixColor:
		return regLR1R2
	default:
		return regRT1112
	}
}

// offsetVector reads the MVMVA offset-vector selector.
func (g *GTE) offsetVector(selector uint32) (x, y, z int32) {
	switch selector {
	case offsetBackgroundColor:
		return g.regs.BackgroundColorVector()
	case offsetFarColor:
		return g.regs.FarColorVector()
	case offsetNone:
		return 0, 0, 0
	default:
		return g.regs.TranslationVector()
	}
}

func (g *GTE) vectorOperand(selector uint32, n int) (x, y, z int32) {
	if selector == vectorIR {
		return g.regs.IRVector()
	}
	return g.regs.Vector(n)
}

// multiplyAdd computes matrix*vector + offset (offset pre-shifted left 12,
// matching the fixed-point scale of the matrix/vector product) as three
// 44-bit accumulators, the shared core of RTP/MVMVA/NCDS/OP.
func multiplyAdd(m [3][3]int32, vx, vy, vz int32, ox, oy, oz int32) (acc44, acc44, acc44) {
	row := func(m0, m1, m2 int32) acc44 {
		return newAcc44(int64(m0) * int64(vx)).
			add(newAcc44(int64(m1) * int64(vy))).
			add(newAcc44(int64(m2) * int64(vz)))
	}
	mac1 := newAcc44(int64(ox) << 12).add(row(m[0][0], m[0][1], m[0][2]))
	mac2 := newAcc44(int64(oy) << 12).add(row(m[1][0], m[1][1], m[1][2]))
	mac3 := newAcc44(int64(oz) << 12).add(row(m[2][0], m[2][1], m[2][2]))
	return mac1, mac2, mac3
}

// rtp runs the perspective transform for vector slot n (0, 1 or 2 for
// RTPS/RTPT's three vectors), writing MAC1-3/IR1-3/SZ and the screen XY
// FIFO.
func (g *GTE) rtp(n int, d decoded) {
	vx, vy, vz := g.regs.Vector(n)
	m := g.regs.Matrix(regRT1112)
	trx, try, trz := g.regs.TranslationVector()

	mac1, mac2, mac3 := multiplyAdd(m, vx, vy, vz, trx, try, trz)

	m1 := g.regs.SetMAC(1, mac1, d.shift)
	m2 := g.regs.SetMAC(2, mac2, d.shift)
	m3 := g.regs.SetMAC(3, mac3, d.shift)
	g.regs.SetIR(1, m1, false)
	g.regs.SetIR(2, m2, false)
	g.regs.SetIR(3, m3, false)
	g.regs.PushZ(mac3)

	sz3 := g.regs.Read(regSZ3)
	h := g.regs.Read(regH)
	unr := g.divideUNR(uint32(h), sz3)

	ir1, ir2, _ := g.regs.IRVector()
	ofx := int32(g.regs.Read(regOFX))
	ofy := int32(g.regs.Read(regOFY))

	sx := (int64(ir1)*int64(unr) + int64(ofx)) >> 16
	sy := (int64(ir2)*int64(unr) + int64(ofy)) >> 16
	g.regs.PushXY(int32(sx), int32(sy))

	dqa := int32(int16(g.regs.Read(regDQA)))
	dqb := int32(g.regs.Read(regDQB))
	mac0 := int64(dqb) + int64(dqa)*int64(unr)
	g.regs.SetMAC0(mac0)
}

// depthCueFactor sets IR0 from MAC0 after an RTP, the interpolation factor
// chained RTPS/RTPT+DPCS sequences consume.
func (g *GTE) depthCueFactor() {
	mac0 := int32(g.regs.Read(regMAC0))
	g.regs.SetIR0(mac0 >> 12)
}

// divideUNR approximates the GTE's Newton-Raphson reciprocal unit: it
// computes H/SZ3 in 1.17 fixed point, saturating to 0x1FFFF and raising
// the divide-overflow flag when SZ3 is too small relative to H to trust.
func (g *GTE) divideUNR(n, d uint32) uint32 {
	if d == 0 || n >= d*2 {
		g.regs.setFlagBit(flagDivideOverflow, true)
		return 0x1FFFF
	}
	result := (uint64(n) << 17) / uint64(d)
	if result > 0x1FFFF {
		result = 0x1FFFF
		g.regs.setFlagBit(flagDivideOverflow, true)
	}
	return uint32(result)
}

// nclip computes the Z component of the cross product of the three
// screen-space edge vectors currently in the SXY FIFO, used by software to
// determine triangle winding/backface culling.
func (g *GTE) nclip() {
	sx0, sy0 := unpackSXY(g.regs.Read(regSXY0))
	sx1, sy1 := unpackSXY(g.regs.Read(regSXY1))
	sx2, sy2 := unpackSXY(g.regs.Read(regSXY2))

	mac0 := int64(sx0)*int64(sy1-sy2) + int64(sx1)*int64(sy2-sy0) + int64(sx2)*int64(sy0-sy1)
	g.regs.SetMAC0(mac0)
}

func unpackSXY(packed uint32) (x, y int32) {
	return int32(int16(packed)), int32(int16(packed >> 16))
}

// op computes the cross product of the rotation matrix's diagonal with the
// current IR vector.
func (g *GTE) op(d decoded) {
	m := g.regs.Matrix(regRT1112)
	ir1, ir2, ir3 := g.regs.IRVector()

	mac1 := newAcc44(int64(m[1][1])*int64(ir3) - int64(m[2][2])*int64(ir2))
	mac2 := newAcc44(int64(m[2][2])*int64(ir1) - int64(m[0][0])*int64(ir3))
	mac3 := newAcc44(int64(m[0][0])*int64(ir2) - int64(m[1][1])*int64(ir1))

	v1 := g.regs.SetMAC(1, mac1, d.shift)
	v2 := g.regs.SetMAC(2, mac2, d.shift)
	v3 := g.regs.SetMAC(3, mac3, d.shift)
	g.regs.SetIR(1, v1, false)
	g.regs.SetIR(2, v2, false)
	g.regs.SetIR(3, v3, false)
}

// mvmva is the general matrix*vector+offset primitive the hardware exposes
// directly, parameterized by the instruction's mx/v/cv fields.
func (g *GTE) mvmva(d decoded) {
	m := g.regs.Matrix(matrixBase(d.multiplyMatrix))
	vx, vy, vz := g.vectorOperand(d.multiplyVector, int(d.multiplyVector))
	ox, oy, oz := g.offsetVector(d.offsetVector)

	mac1, mac2, mac3 := multiplyAdd(m, vx, vy, vz, ox, oy, oz)

	v1 := g.regs.SetMAC(1, mac1, d.shift)
	v2 := g.regs.SetMAC(2, mac2, d.shift)
	v3 := g.regs.SetMAC(3, mac3, d.shift)
	g.regs.SetIR(1, v1, d.noNeg)
	g.regs.SetIR(2, v2, d.noNeg)
	g.regs.SetIR(3, v3, d.noNeg)
}

// ncds is the normal-color-depth-cue pipeline for a single vector: light
// the input vector through the light matrix, tint by the color matrix
// plus background color, then depth-cue toward the far color.
func (g *GTE) ncds(d decoded) {
	vx, vy, vz := g.regs.Vector(0)

	lightM := g.regs.Matrix(regL1112)
	bcx, bcy, bcz := g.regs.BackgroundColorVector()
	lmac1, lmac2, lmac3 := multiplyAdd(lightM, vx, vy, vz, 0, 0, 0)
	l1 := g.regs.SetMAC(1, lmac1, d.shift)
	l2 := g.regs.SetMAC(2, lmac2, d.shift)
	l3 := g.regs.SetMAC(3, lmac3, d.shift)
	g.regs.SetIR(1, l1, d.noNeg)
	g.regs.SetIR(2, l2, d.noNeg)
	g.regs.SetIR(3, l3, d.noNeg)

	colorM := g.regs.Matrix(regLR1R2)
	ir1, ir2, ir3 := g.regs.IRVector()
	cmac1, cmac2, cmac3 := multiplyAdd(colorM, ir1, ir2, ir3, bcx, bcy, bcz)
	c1 := g.regs.SetMAC(1, cmac1, d.shift)
	c2 := g.regs.SetMAC(2, cmac2, d.shift)
	c3 := g.regs.SetMAC(3, cmac3, d.shift)
	g.regs.SetIR(1, c1, d.noNeg)
	g.regs.SetIR(2, c2, d.noNeg)
	g.regs.SetIR(3, c3, d.noNeg)

	g.applyDepthCue(d)
}

// applyDepthCue is DPCS's color-interpolation step, shared with NCDS: the
// lit color (currently in IR1-3) is blended toward the far-color vector by
// IR0's factor, and the blended result is pushed onto the color FIFO.
func (g *GTE) applyDepthCue(d decoded) {
	fcx, fcy, fcz := g.regs.FarColorVector()
	rgbc := g.regs.Read(regRGBC)
	ir0 := int64(int32(int16(g.regs.Read(regIR0))))

	baseR := int64(rgbc&0xFF) << 4
	baseG := int64((rgbc>>8)&0xFF) << 4
	baseB := int64((rgbc>>16)&0xFF) << 4

	red := baseR + ir0*((int64(fcx)<<12-baseR)>>12)
	green := baseG + ir0*((int64(fcy)<<12-baseG)>>12)
	blue := baseB + ir0*((int64(fcz)<<12-baseB)>>12)

	mr := g.regs.SetMAC(1, newAcc44(red), d.shift)
	mg := g.regs.SetMAC(2, newAcc44(green), d.shift)
	mb := g.regs.SetMAC(3, newAcc44(blue), d.shift)
	ir1v := g.regs.SetIR(1, mr, d.noNeg)
	ir2v := g.regs.SetIR(2, mg, d.noNeg)
	ir3v := g.regs.SetIR(3, mb, d.noNeg)
	g.regs.PushColor(ir1v>>4, ir2v>>4, ir3v>>4)
}

// dpcs is the standalone depth-cueing opcode: same blend as NCDS's tail
// end, starting from RGBC directly instead of a lit vector.
func (g *GTE) dpcs(d decoded) {
	g.applyDepthCue(d)
}

// intpl interpolates the current IR vector toward the far-color vector,
// used for Gouraud-shaded depth cueing.
func (g *GTE) intpl(d decoded) {
	fcx, fcy, fcz := g.regs.FarColorVector()
	ir1, ir2, ir3 := g.regs.IRVector()
	ir0 := int32(int16(g.regs.Read(regIR0)))

	blend := func(base int32, far int32) int64 {
		delta := int64(far)<<12 - int64(base)<<12
		return int64(base)<<12 + int64(ir0)*(delta>>12)
	}

	mr := g.regs.SetMAC(1, newAcc44(blend(ir1, fcx)), d.shift)
	mg := g.regs.SetMAC(2, newAcc44(blend(ir2, fcy)), d.shift)
	mb := g.regs.SetMAC(3, newAcc44(blend(ir3, fcz)), d.shift)
	r := g.regs.SetIR(1, mr, d.noNeg)
	gg := g.regs.SetIR(2, mg, d.noNeg)
	b := g.regs.SetIR(3, mb, d.noNeg)
	g.regs.PushColor(r>>4, gg>>4, b>>4)
}

// avsz3 averages SZ1-3, scaled by ZSF3, into OTZ — the ordering-table Z
// key for a triangle.
func (g *GTE) avsz3() {
	sz1 := int64(g.regs.Read(regSZ1))
	sz2 := int64(g.regs.Read(regSZ2))
	sz3 := int64(g.regs.Read(regSZ3))
	zsf3 := int64(int32(int16(g.regs.Read(regZSF3))))

	mac0 := zsf3 * (sz1 + sz2 + sz3)
	g.regs.SetMAC0(mac0)
	g.setOTZ(mac0)
}

// avsz4 averages SZ0-3, scaled by ZSF4, into OTZ — the ordering-table Z
// key for a quad.
func (g *GTE) avsz4() {
	sz0 := int64(g.regs.Read(regSZ0))
	sz1 := int64(g.regs.Read(regSZ1))
	sz2 := int64(g.regs.Read(regSZ2))
	sz3 := int64(g.regs.Read(regSZ3))
	zsf4 := int64(int32(int16(g.regs.Read(regZSF4))))

	mac0 := zsf4 * (sz0 + sz1 + sz2 + sz3)
	g.regs.SetMAC0(mac0)
	g.setOTZ(mac0)
}

func (g *GTE) setOTZ(mac0 int64) {
	v := mac0 >> 12
	var saturated bool
	if v < 0 {
		v, saturated = 0, true
	} else if v > 0xFFFF {
		v, saturated = 0xFFFF, true
	}
	g.regs.setFlagBit(flagClampedZ, saturated)
	g.regs.Write(regOTZ, uint32(v))
}
