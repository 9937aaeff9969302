// Package raster defines the emulator core's dependency on the outside
// world for drawing: the Rasterizer interface a host frontend implements,
// plus a handful of concrete sinks. It is the one permitted boundary for
// offloading rendering work to another goroutine; everything else in the
// core stays single-threaded.
package raster

// Point is an integer 2D coordinate, used for both framebuffer positions
// and VRAM coordinates.
type Point struct {
	X, Y int
}

// Dimensions is a width/height pair.
type Dimensions struct {
	Width, Height int
}

// Color is a 24-bit RGB triple, already expanded from whatever packed
// vertex color format the GPU command carried.
type Color struct {
	R, G, B uint8
}

// ShadingMode mirrors the GPU command's shading bit.
type ShadingMode int

const (
	ShadingFlat ShadingMode = iota
	ShadingGouraud
)

// TransparencyMode mirrors the GPU command's semi-transparency bit.
type TransparencyMode int

const (
	TransparencyOpaque TransparencyMode = iota
	TransparencySemiTransparent
)

// TextureDepth is the texture page's color depth field.
type TextureDepth int

const (
	TextureDepth4Bit TextureDepth = iota
	TextureDepth8Bit
	TextureDepth15Bit
)

// TexturePage describes the texture page a textured primitive samples
// from, in VRAM texel coordinates.
type TexturePage struct {
	XBase int
	YBase int
	Depth TextureDepth
}

// TextureWindow describes the texture-wrapping window set by the
// environment TexWindowSettings command.
type TextureWindow struct {
	MaskX, MaskY     int
	OffsetX, OffsetY int
}

// TextureConfig is attached to a Primitive when it is textured.
type TextureConfig struct {
	CLUT   Point
	Page   TexturePage
	Window TextureWindow
}

// Vertex is one corner of a triangle or rectangle primitive.
type Vertex struct {
	Position Point
	Color    Color
	UV       Point
}

// Primitive is a single triangle or rectangle ready for the rasterizer,
// already carrying the drawing offset applied and (for textured
// primitives) a resolved texture configuration.
type Primitive struct {
	Vertices     []Vertex
	Shading      ShadingMode
	Transparency TransparencyMode
	Textured     bool
	Texture      TextureConfig
}

// CopyToVramRequest is the payload of an asynchronous CPU-to-VRAM blit.
type CopyToVramRequest struct {
	Coords     Point
	Dimensions Dimensions
	Data       []byte
}

// CopyFromVramRequest is the payload of a synchronous VRAM-to-CPU blit.
// ResponseSink is called exactly once, from whatever goroutine services
// the request, with exactly Dimensions.Width*Dimensions.Height*2 bytes
// (VRAM is 16-bit pixels).
type CopyFromVramRequest struct {
	Coords       Point
	Dimensions   Dimensions
	ResponseSink func(data []byte)
}

// Rasterizer is the core's entire dependency on the outside world for
// drawing. Implementations may batch, defer, or forward draw calls to
// another thread; CopyFromVram is the sole point the core blocks on a
// reply.
type Rasterizer interface {
	SetDrawingArea(topLeft Point, dimensions Dimensions)
	SetDisplayTopLeft(coords Point)
	SetDisplayResolution(horizontal, vertical int)
	VBlank()
	CopyToVram(req CopyToVramRequest)
	CopyFromVram(req CopyFromVramRequest)
	Draw(p Primitive)
}
