package gpu

import (
	"log/slog"

	"github.com/valerio/psxgo/psx/raster"
)

// execStateKind identifies which render-queue state machine state the GPU
// is currently in.
type execStateKind int

const (
	stateIdle execStateKind = iota
	stateCpuToVramBlit
	statePolyLine
)

// polylineTerminator is the sentinel word that ends an open-ended
// polyline command.
const polylineTerminator = 0x5000_5000

// GPU owns the GP0 (render) and GP1 (display) command queues, the
// drawing-environment state those commands mutate, and dispatches
// decoded primitives to an external raster.Rasterizer.
type GPU struct {
	status   Status
	response []uint32
	render   []uint32

	stateKind execStateKind

	// stateCpuToVramBlit fields.
	blitDest  raster.Point
	blitSize  raster.Dimensions
	blitWords int

	// statePolyLine fields.
	polylineCmd  lineCmd
	polylinePrev *raster.Vertex

	drawingAreaTopLeft     raster.Point
	drawingAreaBottomRight raster.Point
	drawingOffsetX         int32
	drawingOffsetY         int32
	texWindow              raster.TextureWindow
	writeToMask            bool
	checkMask              bool
	textureRectFlipX       bool
	textureRectFlipY       bool

	displayAreaStart   raster.Point
	horizontalRangeLo  int
	horizontalRangeHi  int
	verticalRangeLo    int
	verticalRangeHi    int

	rasterizer raster.Rasterizer
	log        *slog.Logger
}

// New returns a GPU with the power-on status word, wired to rasterizer
// for all drawing/blit/display-mode dispatch.
func New(rasterizer raster.Rasterizer) *GPU {
	return &GPU{
		status:            DefaultStatus(),
		rasterizer:        rasterizer,
		horizontalRangeHi: 0xC00,
		verticalRangeHi:   0x3FF,
		log:               slog.Default().With("component", "gpu"),
	}
}

// Status returns the live GPUSTAT value, read by the CPU at GP1's
// address.
func (g *GPU) Status() uint32 {
	return g.status.Raw()
}

// ReadResponse pops a word from the GPU response queue (zero if empty),
// read by the CPU at GP0's address.
func (g *GPU) ReadResponse() uint32 {
	if len(g.response) == 0 {
		return 0
	}
	word := g.response[0]
	g.response = g.response[1:]
	return word
}

// PushGP0 appends word to the render queue and drains as many complete
// commands as are now available.
func (g *GPU) PushGP0(word uint32) {
	g.render = append(g.render, word)
	g.drain()
}

// PushGP1 dispatches a display command word immediately; the display
// queue is conceptually a queue of one.
func (g *GPU) PushGP1(word uint32) {
	g.execDisplay(word)
}

// drain processes the render queue until the current state needs more
// words than are available.
func (g *GPU) drain() {
	for {
		switch g.stateKind {
		case stateIdle:
			if !g.stepIdle() {
				return
			}
		case stateCpuToVramBlit:
			if !g.stepCpuToVramBlit() {
				return
			}
		case statePolyLine:
			if !g.stepPolyLine() {
				return
			}
		}
	}
}

func (g *GPU) peek(n int) ([]uint32, bool) {
	if len(g.render) < n {
		return nil, false
	}
	return g.render[:n], true
}

func (g *GPU) pop(n int) []uint32 {
	words := g.render[:n]
	g.render = g.render[n:]
	return words
}

// stepIdle looks at the head command word, decides how many arguments it
// needs, and either executes it (returning true, having consumed words)
// or leaves the queue untouched and returns false to await more data.
func (g *GPU) stepIdle() bool {
	if len(g.render) == 0 {
		return false
	}
	head := g.render[0]

	switch opcodeOf(head) {
	case OpLine:
		cmd := decodeLineCmd(head)
		if cmd.mode == LinePoly {
			g.pop(1)
			g.polylineCmd = cmd
			g.polylinePrev = nil
			g.stateKind = statePolyLine
			return true
		}
	case OpCpuToVramBlit:
		words, ok := g.peek(3)
		if !ok {
			return false
		}
		g.pop(3)
		x, y := coordPacket(words[1])
		width, height := sizePacket(words[2])
		g.blitDest = raster.Point{X: x, Y: y}
		g.blitSize = raster.Dimensions{Width: width, Height: height}
		g.blitWords = (width*height + 1) / 2
		g.status.ReadyToSendVram = true
		g.stateKind = stateCpuToVramBlit
		return true
	case OpVramToCpuBlit:
		words, ok := g.peek(3)
		if !ok {
			return false
		}
		g.pop(3)
		x, y := coordPacket(words[1])
		width, height := sizePacket(words[2])
		g.execVramToCpuBlit(raster.Point{X: x, Y: y}, raster.Dimensions{Width: width, Height: height})
		return true
	}

	n := argsForCommand(head)
	if n < 0 {
		// Only CpuToVramBlit/VramToCpuBlit/polyline are open-ended, and
		// those are all handled above.
		n = 0
	}
	words, ok := g.peek(1 + n)
	if !ok {
		return false
	}
	g.pop(1 + n)
	g.execRenderCommand(words)
	return true
}

func (g *GPU) stepCpuToVramBlit() bool {
	words, ok := g.peek(g.blitWords)
	if !ok {
		return false
	}
	g.pop(g.blitWords)

	data := make([]byte, 0, len(words)*4)
	for _, w := range words {
		data = append(data, byte(w), byte(w>>8), byte(w>>16), byte(w>>24))
	}
	g.rasterizer.CopyToVram(raster.CopyToVramRequest{
		Coords:     g.blitDest,
		Dimensions: g.blitSize,
		Data:       data,
	})
	g.status.ReadyToSendVram = false
	g.stateKind = stateIdle
	return true
}

func (g *GPU) stepPolyLine() bool {
	if len(g.render) == 0 {
		return false
	}
	if g.render[0] == polylineTerminator {
		g.pop(1)
		g.stateKind = stateIdle
		g.polylinePrev = nil
		return true
	}

	need := 1
	if g.polylineCmd.gouraud {
		need = 2
	}
	if len(g.render) < need {
		return false
	}
	words := g.pop(need)

	var color raster.Color
	if g.polylineCmd.gouraud {
		r, gg, b := vertexColor(words[0])
		color = raster.Color{R: r, G: gg, B: b}
		words = words[1:]
	} else {
		color = raster.Color{R: g.polylineCmd.r, G: g.polylineCmd.g, B: g.polylineCmd.b}
	}
	x, y := vertexPosition(words[0])
	vertex := raster.Vertex{
		Position: raster.Point{X: int(x) + int(g.drawingOffsetX), Y: int(y) + int(g.drawingOffsetY)},
		Color:    color,
	}

	transparency := raster.TransparencyOpaque
	if g.polylineCmd.semiTrans {
		transparency = raster.TransparencySemiTransparent
	}
	shading := raster.ShadingFlat
	if g.polylineCmd.gouraud {
		shading = raster.ShadingGouraud
	}

	if g.polylinePrev != nil {
		g.rasterizer.Draw(raster.Primitive{
			Vertices:     []raster.Vertex{*g.polylinePrev, vertex},
			Shading:      shading,
			Transparency: transparency,
		})
	}
	g.polylinePrev = &vertex
	return true
}

// execVramToCpuBlit services a synchronous VRAM-to-CPU blit: pack the
// rasterizer's reply bytes into 32-bit words and append them to the
// response queue.
func (g *GPU) execVramToCpuBlit(src raster.Point, size raster.Dimensions) {
	g.status.ReadyToSendVram = true
	g.rasterizer.CopyFromVram(raster.CopyFromVramRequest{
		Coords:     src,
		Dimensions: size,
		ResponseSink: func(data []byte) {
			for i := 0; i+3 < len(data); i += 4 {
				word := uint32(data[i]) | uint32(data[i+1])<<8 | uint32(data[i+2])<<16 | uint32(data[i+3])<<24
				g.response = append(g.response, word)
			}
		},
	})
}

// execRenderCommand executes a fully-buffered Misc, Environment, Polygon,
// Line(single), Rectangle, or VramToVramBlit command. words[0] is the
// command word; words[1:] are its arguments.
func (g *GPU) execRenderCommand(words []uint32) {
	head := words[0]
	args := words[1:]

	switch opcodeOf(head) {
	case OpMisc:
		g.execMisc(head, args)
	case OpEnvironment:
		g.execEnvironment(head)
	case OpPolygon:
		g.execPolygon(head, args)
	case OpLine:
		g.execLine(head, args)
	case OpRectangle:
		g.execRectangle(head, args)
	case OpVramToVramBlit:
		// Not modeled beyond consuming its arguments: no rasterizer
		// primitive corresponds to a VRAM-internal copy at this fidelity.
	}
}

func (g *GPU) execMisc(head uint32, args []uint32) {
	switch miscOpcodeOf(head) {
	case MiscNOP, MiscClearCache, MiscInterruptRequest:
	case MiscQuickRectangleFill:
		x, y := coordPacket(args[0])
		width, height := sizeRaw(args[1])

		x &= 0x3F0
		y &= 0x1FF
		width = (width + 0xF) &^ 0xF

		r, gg, b := vertexColor(head)
		g.rasterizer.Draw(raster.Primitive{
			Vertices: []raster.Vertex{
				{Position: raster.Point{X: x, Y: y}, Color: raster.Color{R: r, G: gg, B: b}},
			},
			Shading: raster.ShadingFlat,
			Texture: raster.TextureConfig{},
		})
		_ = height
	}
}

func (g *GPU) execEnvironment(head uint32) {
	switch environmentOpcodeOf(head) {
	case EnvDrawingSettings:
		g.status.TexpageXBase = uint8(head & 0xF)
		g.status.TexpageYBase = uint8((head >> 4) & 0x1)
		g.status.SemiTransparencyMode = SemiTransparencyMode((head >> 5) & 0x3)
		g.status.TexpageDepth = TexturePageDepth((head >> 7) & 0x3)
		g.status.CompressionMode = head&(1<<9) != 0
		g.status.EnableDrawingToDisplay = head&(1<<10) != 0
		g.textureRectFlipX = head&(1<<12) != 0
		g.textureRectFlipY = head&(1<<13) != 0
	case EnvTexWindowSettings:
		g.texWindow = raster.TextureWindow{
			MaskX:   int(head&0x1F) * 8,
			MaskY:   int((head>>5)&0x1F) * 8,
			OffsetX: int((head>>10)&0x1F) * 8,
			OffsetY: int((head>>15)&0x1F) * 8,
		}
	case EnvDrawingAreaTopLeft:
		x := int(head & 0x3FF)
		y := int((head >> 10) & 0x1FF)
		g.drawingAreaTopLeft = raster.Point{X: x, Y: y}
	case EnvDrawingAreaBottomRight:
		x := int(head & 0x3FF)
		y := int((head >> 10) & 0x1FF)
		g.drawingAreaBottomRight = raster.Point{X: x, Y: y}
		width := g.drawingAreaBottomRight.X - g.drawingAreaTopLeft.X + 1
		height := g.drawingAreaBottomRight.Y - g.drawingAreaTopLeft.Y + 1
		if width < 0 {
			width = 0
		}
		if height < 0 {
			height = 0
		}
		g.rasterizer.SetDrawingArea(g.drawingAreaTopLeft, raster.Dimensions{Width: width, Height: height})
	case EnvDrawingOffset:
		g.drawingOffsetX = signExtend11(head & 0x7FF)
		g.drawingOffsetY = signExtend11((head >> 11) & 0x7FF)
	case EnvMaskSettings:
		g.writeToMask = head&1 != 0
		g.checkMask = head&(1<<1) != 0
		g.status.WriteToMask = g.writeToMask
		g.status.EnableMask = g.checkMask
	}
}

func (g *GPU) execPolygon(head uint32, args []uint32) {
	cmd := decodePolygonCmd(head)
	vertices := make([]raster.Vertex, 0, cmd.vertexCount())

	flatColor := raster.Color{R: cmd.r, G: cmd.g, B: cmd.b}
	i := 0
	var texpage uint16
	var clutX, clutY uint16
	for vi := 0; vi < cmd.vertexCount(); vi++ {
		color := flatColor
		if cmd.gouraud {
			r, gg, b := vertexColor(args[i])
			color = raster.Color{R: r, G: gg, B: b}
			i++
		}
		x, y := vertexPosition(args[i])
		i++
		x += int32(g.drawingOffsetX)
		y += int32(g.drawingOffsetY)

		var u, v uint8
		if cmd.textured {
			var cx, cy uint16
			var tp uint16
			u, v, cx, cy, tp = vertexUV(args[i])
			if vi == 0 {
				clutX, clutY = cx, cy
			}
			if vi == 1 {
				texpage = tp
			}
			i++
		}

		vertices = append(vertices, raster.Vertex{
			Position: raster.Point{X: int(x), Y: int(y)},
			Color:    color,
			UV:       raster.Point{X: int(u), Y: int(v)},
		})
	}

	if cmd.textured {
		g.status.TexpageXBase = uint8(texpage & 0xF)
		g.status.TexpageYBase = uint8((texpage >> 4) & 0x1)
		g.status.SemiTransparencyMode = SemiTransparencyMode((texpage >> 5) & 0x3)
		g.status.TexpageDepth = TexturePageDepth((texpage >> 7) & 0x3)
	}

	shading := raster.ShadingFlat
	if cmd.gouraud {
		shading = raster.ShadingGouraud
	}
	transparency := raster.TransparencyOpaque
	if cmd.semiTrans {
		transparency = raster.TransparencySemiTransparent
	}
	texture := raster.TextureConfig{
		CLUT:   raster.Point{X: int(clutX), Y: int(clutY)},
		Window: g.texWindow,
		Page: raster.TexturePage{
			XBase: int(g.status.TexpageXBase) * 64,
			YBase: int(g.status.TexpageYBase) * 256,
			Depth: raster.TextureDepth(g.status.TexpageDepth),
		},
	}

	g.dispatchTriangle(vertices[0], vertices[1], vertices[2], shading, transparency, cmd.textured, texture)
	if cmd.mode == PolygonQuad {
		g.dispatchTriangle(vertices[1], vertices[2], vertices[3], shading, transparency, cmd.textured, texture)
	}
}

func (g *GPU) dispatchTriangle(a, b, c raster.Vertex, shading raster.ShadingMode, transparency raster.TransparencyMode, textured bool, texture raster.TextureConfig) {
	g.rasterizer.Draw(raster.Primitive{
		Vertices:     []raster.Vertex{a, b, c},
		Shading:      shading,
		Transparency: transparency,
		Textured:     textured,
		Texture:      texture,
	})
}

func (g *GPU) execLine(head uint32, args []uint32) {
	cmd := decodeLineCmd(head)
	flatColor := raster.Color{R: cmd.r, G: cmd.g, B: cmd.b}
	vertices := make([]raster.Vertex, 0, 2)

	i := 0
	for vi := 0; vi < 2; vi++ {
		color := flatColor
		if cmd.gouraud {
			r, gg, b := vertexColor(args[i])
			color = raster.Color{R: r, G: gg, B: b}
			i++
		}
		x, y := vertexPosition(args[i])
		i++
		vertices = append(vertices, raster.Vertex{
			Position: raster.Point{X: int(x) + int(g.drawingOffsetX), Y: int(y) + int(g.drawingOffsetY)},
			Color:    color,
		})
	}

	shading := raster.ShadingFlat
	if cmd.gouraud {
		shading = raster.ShadingGouraud
	}
	transparency := raster.TransparencyOpaque
	if cmd.semiTrans {
		transparency = raster.TransparencySemiTransparent
	}
	g.rasterizer.Draw(raster.Primitive{
		Vertices:     vertices,
		Shading:      shading,
		Transparency: transparency,
	})
}

func (g *GPU) execRectangle(head uint32, args []uint32) {
	cmd := decodeRectangleCmd(head)
	x, y := vertexPosition(args[0])
	x += g.drawingOffsetX
	y += g.drawingOffsetY

	i := 1
	var u, v uint8
	var clutX, clutY uint16
	if cmd.textured {
		var texpage uint16
		u, v, clutX, clutY, texpage = vertexUV(args[i])
		i++
		_ = texpage
	}

	width, height := 1, 1
	switch cmd.mode {
	case RectVariable:
		width, height = sizeRaw(args[i])
		i++
	case RectSinglePixel:
		width, height = 1, 1
	case RectSprite8:
		width, height = 8, 8
	case RectSprite16:
		width, height = 16, 16
	}

	color := raster.Color{R: cmd.r, G: cmd.g, B: cmd.b}
	transparency := raster.TransparencyOpaque
	if cmd.semiTrans {
		transparency = raster.TransparencySemiTransparent
	}

	g.rasterizer.Draw(raster.Primitive{
		Vertices: []raster.Vertex{
			{Position: raster.Point{X: int(x), Y: int(y)}, Color: color, UV: raster.Point{X: int(u), Y: int(v)}},
			{Position: raster.Point{X: int(x) + width, Y: int(y) + height}, Color: color},
		},
		Shading:      raster.ShadingFlat,
		Transparency: transparency,
		Textured:     cmd.textured,
		Texture: raster.TextureConfig{
			CLUT: raster.Point{X: int(clutX), Y: int(clutY)},
			Page: raster.TexturePage{
				XBase: int(g.status.TexpageXBase) * 64,
				YBase: int(g.status.TexpageYBase) * 256,
				Depth: raster.TextureDepth(g.status.TexpageDepth),
			},
			Window: g.texWindow,
		},
	})
}

// execDisplay processes a single GP1 display command.
func (g *GPU) execDisplay(word uint32) {
	switch displayOpcodeOf(word) {
	case DispResetGpu:
		g.status = DefaultStatus()
		g.render = nil
		g.response = nil
		g.stateKind = stateIdle
	case DispResetCommandBuffer:
		g.render = nil
		g.stateKind = stateIdle
	case DispAcknowledgeGpuInterrupt:
		g.status.InterruptRequest = false
	case DispDisplayEnabled:
		g.status.DisableDisplay = word&1 != 0
	case DispDmaDirection:
		g.status.DmaDirection = DmaDirection(word & 0x3)
		switch g.status.DmaDirection {
		case DmaOff:
			g.status.DmaRequest = false
		case DmaFifo:
			g.status.DmaRequest = true
		case DmaCpuToGp0:
			g.status.DmaRequest = g.status.ReadyToReceiveBlock
		case DmaGpuToCpu:
			g.status.DmaRequest = g.status.ReadyToSendVram
		}
	case DispDisplayArea:
		x, y := coordPacket(word)
		g.displayAreaStart = raster.Point{X: x & 0x3FF, Y: y & 0x1FF}
		g.rasterizer.SetDisplayTopLeft(g.displayAreaStart)
	case DispHorizontalDisplayRange:
		g.horizontalRangeLo = int(word & 0xFFF)
		g.horizontalRangeHi = int((word >> 12) & 0xFFF)
	case DispVerticalDisplayRange:
		g.verticalRangeLo = int(word & 0x3FF)
		g.verticalRangeHi = int((word >> 10) & 0x3FF)
	case DispDisplayMode:
		g.status.HorizontalResolution = HorizontalResolution(word & 0x3)
		g.status.VerticalResolution = VerticalResolution((word >> 2) & 0x1)
		g.status.VideoMode = VideoMode((word >> 3) & 0x1)
		g.status.DisplayDepth = DisplayDepth((word >> 4) & 0x1)
		g.status.VerticalInterlace = word&(1<<5) != 0
		g.status.ForceHorizontal368 = word&(1<<6) != 0
		g.status.FlipScreenX = word&(1<<7) != 0
		g.rasterizer.SetDisplayResolution(horizontalPixels(g.status), verticalPixels(g.status))
	case DispReadGpuRegister:
		g.response = append(g.response, 0)
	case DispVramSize:
	}
}

func horizontalPixels(s Status) int {
	if s.ForceHorizontal368 {
		return 368
	}
	switch s.HorizontalResolution {
	case HRes256:
		return 256
	case HRes320:
		return 320
	case HRes512:
		return 512
	default:
		return 640
	}
}

func verticalPixels(s Status) int {
	if s.VerticalResolution == VRes480 {
		return 480
	}
	return 240
}

// VBlank updates the interlace-odd flag and notifies the rasterizer. It
// returns true to signal the caller should request the VBlank interrupt
// (always true; the bool return keeps the call site symmetrical with
// other event handlers).
func (g *GPU) VBlank() bool {
	if g.status.VerticalResolution == VRes480 {
		g.status.InterlaceOdd = !g.status.InterlaceOdd
	} else {
		g.status.InterlaceOdd = false
	}
	g.rasterizer.VBlank()
	return true
}

// CyclesPerVBlank returns the CPU-cycle count until the next VBlank event
// for the GPU's current video mode.
func (g *GPU) CyclesPerVBlank(cpuFrequency float64) uint32 {
	return g.status.CyclesPerVBlank(cpuFrequency)
}
