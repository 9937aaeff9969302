package gpu

// RenderingOpcode is the primary 3-bit opcode of a GP0 rendering command
// (bits 31..29 of the command word).
type RenderingOpcode int

const (
	OpMisc RenderingOpcode = iota
	OpPolygon
	OpLine
	OpRectangle
	OpVramToVramBlit
	OpCpuToVramBlit
	OpVramToCpuBlit
	OpEnvironment
)

// MiscOpcode is the low 5 bits of a Misc rendering command.
type MiscOpcode int

const (
	MiscNOP                MiscOpcode = 0x00
	MiscClearCache         MiscOpcode = 0x01
	MiscQuickRectangleFill MiscOpcode = 0x02
	MiscInterruptRequest   MiscOpcode = 0x1F
)

// EnvironmentOpcode is bits 26..24 of an Environment rendering command.
type EnvironmentOpcode int

const (
	EnvDrawingSettings         EnvironmentOpcode = 0x1
	EnvTexWindowSettings       EnvironmentOpcode = 0x2
	EnvDrawingAreaTopLeft      EnvironmentOpcode = 0x3
	EnvDrawingAreaBottomRight  EnvironmentOpcode = 0x4
	EnvDrawingOffset           EnvironmentOpcode = 0x5
	EnvMaskSettings            EnvironmentOpcode = 0x6
)

// DisplayOpcode is bits 29..24 of a GP1 display command.
type DisplayOpcode int

const (
	DispResetGpu                 DisplayOpcode = 0x00
	DispResetCommandBuffer       DisplayOpcode = 0x01
	DispAcknowledgeGpuInterrupt  DisplayOpcode = 0x02
	DispDisplayEnabled           DisplayOpcode = 0x03
	DispDmaDirection             DisplayOpcode = 0x04
	DispDisplayArea              DisplayOpcode = 0x05
	DispHorizontalDisplayRange   DisplayOpcode = 0x06
	DispVerticalDisplayRange     DisplayOpcode = 0x07
	DispDisplayMode              DisplayOpcode = 0x08
	DispReadGpuRegister          DisplayOpcode = 0x10
	DispVramSize                 DisplayOpcode = 0x20
)

// PolygonMode distinguishes a 3-vertex triangle from a 4-vertex quad (two
// triangles sharing an edge).
type PolygonMode int

const (
	PolygonTriangle PolygonMode = iota
	PolygonQuad
)

// LineMode distinguishes a fixed 2-vertex line from an open-ended
// polyline terminated by 0x5000_5000.
type LineMode int

const (
	LineSingle LineMode = iota
	LinePoly
)

// RectangleMode is the sprite-size field of a rectangle command.
type RectangleMode int

const (
	RectVariable RectangleMode = iota
	RectSinglePixel
	RectSprite8
	RectSprite16
)

// polygonCmd decodes a GP0 Polygon command word's fixed fields.
type polygonCmd struct {
	r, g, b  uint8
	raw      bool
	semiTrans bool
	textured bool
	mode     PolygonMode
	gouraud  bool
}

func decodePolygonCmd(word uint32) polygonCmd {
	return polygonCmd{
		r:         uint8(word),
		g:         uint8(word >> 8),
		b:         uint8(word >> 16),
		raw:       word&(1<<24) != 0,
		semiTrans: word&(1<<25) != 0,
		textured:  word&(1<<26) != 0,
		mode:      PolygonMode((word >> 27) & 0x1),
		gouraud:   word&(1<<28) != 0,
	}
}

func (c polygonCmd) vertexCount() int {
	if c.mode == PolygonQuad {
		return 4
	}
	return 3
}

// args returns the number of additional data words this command needs
// after the command word itself.
func (c polygonCmd) args() int {
	vertices := c.vertexCount()
	colors := 0
	if c.gouraud {
		colors = vertices
	}
	uvs := 0
	if c.textured {
		uvs = vertices
	}
	return vertices + colors + uvs
}

type lineCmd struct {
	r, g, b   uint8
	semiTrans bool
	mode      LineMode
	gouraud   bool
}

func decodeLineCmd(word uint32) lineCmd {
	return lineCmd{
		r:         uint8(word),
		g:         uint8(word >> 8),
		b:         uint8(word >> 16),
		semiTrans: word&(1<<25) != 0,
		mode:      LineMode((word >> 27) & 0x1),
		gouraud:   word&(1<<28) != 0,
	}
}

func (c lineCmd) args() int {
	if c.gouraud {
		return 4
	}
	return 2
}

type rectangleCmd struct {
	r, g, b   uint8
	raw       bool
	semiTrans bool
	textured  bool
	mode      RectangleMode
}

func decodeRectangleCmd(word uint32) rectangleCmd {
	return rectangleCmd{
		r:         uint8(word),
		g:         uint8(word >> 8),
		b:         uint8(word >> 16),
		raw:       word&(1<<24) != 0,
		semiTrans: word&(1<<25) != 0,
		textured:  word&(1<<26) != 0,
		mode:      RectangleMode((word >> 27) & 0x3),
	}
}

func (c rectangleCmd) args() int {
	n := 2
	if c.textured {
		n++
	}
	if c.mode == RectVariable {
		n++
	}
	return n
}

// argsForCommand returns the number of extra data words a rendering
// command word requires before it can execute, or -1 for commands whose
// argument count is open-ended (polyline, the two VRAM blits).
func argsForCommand(word uint32) int {
	switch opcodeOf(word) {
	case OpMisc:
		if miscOpcodeOf(word) == MiscQuickRectangleFill {
			return 2
		}
		return 0
	case OpPolygon:
		return decodePolygonCmd(word).args()
	case OpLine:
		cmd := decodeLineCmd(word)
		if cmd.mode == LinePoly {
			return -1
		}
		return cmd.args()
	case OpRectangle:
		return decodeRectangleCmd(word).args()
	case OpVramToVramBlit:
		return 3
	case OpCpuToVramBlit, OpVramToCpuBlit:
		return -1
	case OpEnvironment:
		return 0
	default:
		return 0
	}
}

func opcodeOf(word uint32) RenderingOpcode {
	return RenderingOpcode((word >> 29) & 0x7)
}

func miscOpcodeOf(word uint32) MiscOpcode {
	return MiscOpcode((word >> 24) & 0x1F)
}

func environmentOpcodeOf(word uint32) EnvironmentOpcode {
	return EnvironmentOpcode((word >> 24) & 0x7)
}

func displayOpcodeOf(word uint32) DisplayOpcode {
	return DisplayOpcode((word >> 24) & 0x3F)
}

// vertexPosition decodes a VertexPositionPacket: two 11-bit signed
// coordinates at bits 0..11 and 16..27.
func vertexPosition(word uint32) (x, y int32) {
	x = signExtend11(word & 0x7FF)
	y = signExtend11((word >> 16) & 0x7FF)
	return
}

func signExtend11(v uint32) int32 {
	v &= 0x7FF
	if v&0x400 != 0 {
		return int32(v) - 0x800
	}
	return int32(v)
}

func vertexColor(word uint32) (r, g, b uint8) {
	return uint8(word), uint8(word >> 8), uint8(word >> 16)
}

// vertexUV decodes a VertexUVPacket's U/V texel coordinates plus the CLUT
// (bits 16..32, only meaningful on the first vertex) and texpage (bits
// 16..28, only meaningful on the second vertex) fields.
func vertexUV(word uint32) (u, v uint8, clutX, clutY uint16, texpage uint16) {
	u = uint8(word)
	v = uint8(word >> 8)
	clut := uint16(word >> 16)
	clutX = (clut & 0x3F) * 16
	clutY = (clut >> 6) & 0x1FF
	texpage = uint16((word >> 16) & 0xFFF)
	return
}

// sizePacket decodes a SizePacket: 16-bit width/height, each masked the
// way real hardware masks CPU-to-VRAM/VRAM-to-CPU blit dimensions (width
// to 10 bits, height to 9 bits; a masked value of 0 means the full 1024 or
// 512); callers that
// need the raw unmasked value (rectangle dimensions) use sizeRaw.
func sizePacket(word uint32) (width, height int) {
	width = int(uint16(word) & 0x3FF)
	if width == 0 {
		width = 0x400
	}
	height = int(uint16(word>>16) & 0x1FF)
	if height == 0 {
		height = 0x200
	}
	return
}

func sizeRaw(word uint32) (width, height int) {
	return int(uint16(word)), int(uint16(word >> 16))
}

func coordPacket(word uint32) (x, y int) {
	return int(uint16(word)), int(uint16(word >> 16))
}
