package raster

import "log/slog"

// NopSink discards every primitive and blit. It is used in unit tests and
// headless runs where no frame output is requested.
type NopSink struct{}

func (NopSink) SetDrawingArea(Point, Dimensions)  {}
func (NopSink) SetDisplayTopLeft(Point)           {}
func (NopSink) SetDisplayResolution(int, int)     {}
func (NopSink) VBlank()                           {}
func (NopSink) CopyToVram(CopyToVramRequest)      {}
func (NopSink) Draw(Primitive)                    {}

// CopyFromVram on NopSink replies with an all-zero buffer, since there is
// no real VRAM behind it.
func (NopSink) CopyFromVram(req CopyFromVramRequest) {
	if req.ResponseSink != nil {
		req.ResponseSink(make([]byte, req.Dimensions.Width*req.Dimensions.Height*2))
	}
}

// RecordingSink appends every call it receives to its own slices, for
// tests that assert on the sequence of primitives/blits a GPU program
// produced.
type RecordingSink struct {
	DrawingAreas     []drawingAreaCall
	DisplayTopLefts  []Point
	DisplayResolutions []resolutionCall
	VBlanks          int
	ToVram           []CopyToVramRequest
	FromVram         []CopyFromVramRequest
	Primitives       []Primitive
}

type drawingAreaCall struct {
	TopLeft    Point
	Dimensions Dimensions
}

type resolutionCall struct {
	Horizontal, Vertical int
}

func NewRecordingSink() *RecordingSink {
	return &RecordingSink{}
}

func (s *RecordingSink) SetDrawingArea(topLeft Point, dimensions Dimensions) {
	s.DrawingAreas = append(s.DrawingAreas, drawingAreaCall{topLeft, dimensions})
}

func (s *RecordingSink) SetDisplayTopLeft(coords Point) {
	s.DisplayTopLefts = append(s.DisplayTopLefts, coords)
}

func (s *RecordingSink) SetDisplayResolution(horizontal, vertical int) {
	s.DisplayResolutions = append(s.DisplayResolutions, resolutionCall{horizontal, vertical})
}

func (s *RecordingSink) VBlank() {
	s.VBlanks++
}

func (s *RecordingSink) CopyToVram(req CopyToVramRequest) {
	s.ToVram = append(s.ToVram, req)
}

func (s *RecordingSink) CopyFromVram(req CopyFromVramRequest) {
	s.FromVram = append(s.FromVram, req)
	if req.ResponseSink != nil {
		req.ResponseSink(make([]byte, req.Dimensions.Width*req.Dimensions.Height*2))
	}
}

func (s *RecordingSink) Draw(p Primitive) {
	s.Primitives = append(s.Primitives, p)
}

// asyncJob is a single queued call for AsyncSink's worker goroutine. Only
// one of its fields is set, per job.
type asyncJob struct {
	drawingArea *drawingAreaCall
	topLeft     *Point
	resolution  *resolutionCall
	vblank      bool
	toVram      *CopyToVramRequest
	fromVram    *CopyFromVramRequest
	draw        *Primitive
	done        chan struct{}
}

// AsyncSink forwards every call to a backing Rasterizer from a single
// worker goroutine, the sanctioned thread-offload boundary from spec.md
// §5. CopyFromVram blocks the calling goroutine until the worker has
// serviced the request and invoked ResponseSink, preserving the
// synchronous-RPC contract despite the indirection.
type AsyncSink struct {
	backing Rasterizer
	jobs    chan asyncJob
	log     *slog.Logger
}

// NewAsyncSink starts the worker goroutine and returns a sink that
// forwards to backing. queueDepth bounds how many non-blocking calls
// (Draw, CopyToVram, VBlank, ...) can be buffered before the caller
// stalls; CopyFromVram always blocks regardless of queue depth.
func NewAsyncSink(backing Rasterizer, queueDepth int) *AsyncSink {
	s := &AsyncSink{
		backing: backing,
		jobs:    make(chan asyncJob, queueDepth),
		log:     slog.Default().With("component", "raster.async"),
	}
	go s.run()
	return s
}

func (s *AsyncSink) run() {
	for job := range s.jobs {
		switch {
		case job.drawingArea != nil:
			s.backing.SetDrawingArea(job.drawingArea.TopLeft, job.drawingArea.Dimensions)
		case job.topLeft != nil:
			s.backing.SetDisplayTopLeft(*job.topLeft)
		case job.resolution != nil:
			s.backing.SetDisplayResolution(job.resolution.Horizontal, job.resolution.Vertical)
		case job.vblank:
			s.backing.VBlank()
		case job.toVram != nil:
			s.backing.CopyToVram(*job.toVram)
		case job.fromVram != nil:
			s.backing.CopyFromVram(*job.fromVram)
		case job.draw != nil:
			s.backing.Draw(*job.draw)
		}
		if job.done != nil {
			close(job.done)
		}
	}
}

func (s *AsyncSink) SetDrawingArea(topLeft Point, dimensions Dimensions) {
	call := drawingAreaCall{topLeft, dimensions}
	s.jobs <- asyncJob{drawingArea: &call}
}

func (s *AsyncSink) SetDisplayTopLeft(coords Point) {
	s.jobs <- asyncJob{topLeft: &coords}
}

func (s *AsyncSink) SetDisplayResolution(horizontal, vertical int) {
	call := resolutionCall{horizontal, vertical}
	s.jobs <- asyncJob{resolution: &call}
}

func (s *AsyncSink) VBlank() {
	s.jobs <- asyncJob{vblank: true}
}

func (s *AsyncSink) CopyToVram(req CopyToVramRequest) {
	s.jobs <- asyncJob{toVram: &req}
}

// CopyFromVram blocks until the worker goroutine has run the backing
// rasterizer's CopyFromVram (and thus invoked req.ResponseSink), per
// spec.md's synchronous VRAM-to-CPU blit requirement.
func (s *AsyncSink) CopyFromVram(req CopyFromVramRequest) {
	done := make(chan struct{})
	s.jobs <- asyncJob{fromVram: &req, done: done}
	<-done
}

func (s *AsyncSink) Draw(p Primitive) {
	s.jobs <- asyncJob{draw: &p}
}

// Close stops the worker goroutine. Callers must not issue further calls
// afterward.
func (s *AsyncSink) Close() {
	close(s.jobs)
}
