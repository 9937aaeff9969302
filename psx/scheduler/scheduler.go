// Package scheduler maintains the emulator's virtual clock and the set of
// future events subsystems have asked to be woken up for. It mirrors the
// teacher's events.EventScheduler naming (Schedule/ScheduleRelative) but
// swaps the channel-backed queue for a small unordered slice with
// linear-scan pop, per spec.md's explicit implementation hint: cardinality
// is expected to stay well under 16, so a slice beats a heap in practice
// and (unlike a channel) supports synchronous peek/pop from a single
// goroutine without blocking semantics getting in the way.
package scheduler

// Kind identifies which subsystem a scheduled event belongs to.
type Kind int

const (
	VBlank Kind = iota
	Gpu
	DmaUpdate
	DmaAdvance
	Cdrom
	Sio
	Timer
)

func (k Kind) String() string {
	switch k {
	case VBlank:
		return "VBlank"
	case Gpu:
		return "Gpu"
	case DmaUpdate:
		return "DmaUpdate"
	case DmaAdvance:
		return "DmaAdvance"
	case Cdrom:
		return "Cdrom"
	case Sio:
		return "Sio"
	case Timer:
		return "Timer"
	default:
		return "Unknown"
	}
}

// Event is a single pending (fire_at, kind, data) record. Data carries a
// subsystem-specific sub-event tag (e.g. a CdromEvent or TimerEvent value);
// the scheduler itself never interprets it.
type Event struct {
	FireAt uint64
	Kind   Kind
	Data   any
}

// Scheduler owns the monotonically non-decreasing clock and the pending
// event set. It never deduplicates: multiple events of the same kind (even
// with identical Data) may coexist, as spec.md requires.
type Scheduler struct {
	elapsed uint64
	pending []Event
}

// New returns a scheduler with its clock at zero and no pending events.
func New() *Scheduler {
	return &Scheduler{}
}

// Elapsed returns the current cycle cursor.
func (s *Scheduler) Elapsed() uint64 {
	return s.elapsed
}

// Advance moves the clock forward by cycles. It never rewinds.
func (s *Scheduler) Advance(cycles uint64) {
	s.elapsed += cycles
}

// Schedule queues an event to fire `delay` cycles from now. A delay of 0
// means "fire on the next Pop call", per spec.md §4.1.
func (s *Scheduler) Schedule(kind Kind, delay uint64, data any) {
	s.pending = append(s.pending, Event{FireAt: s.elapsed + delay, Kind: kind, Data: data})
}

// ScheduleAt queues an event to fire at an absolute cycle count.
func (s *Scheduler) ScheduleAt(kind Kind, at uint64, data any) {
	s.pending = append(s.pending, Event{FireAt: at, Kind: kind, Data: data})
}

// CyclesUntilNext returns the number of cycles until the earliest pending
// event fires, and false if there are no pending events at all.
func (s *Scheduler) CyclesUntilNext() (uint64, bool) {
	if len(s.pending) == 0 {
		return 0, false
	}
	earliest := s.pending[0].FireAt
	for _, e := range s.pending[1:] {
		if e.FireAt < earliest {
			earliest = e.FireAt
		}
	}
	if earliest <= s.elapsed {
		return 0, true
	}
	return earliest - s.elapsed, true
}

// Pop removes and returns one event whose FireAt has been reached, or false
// if none is ready yet. Order among simultaneously-ready events of
// different kinds is unspecified, as spec.md permits; callers drain with a
// loop until Pop returns false.
func (s *Scheduler) Pop() (Event, bool) {
	for i, e := range s.pending {
		if e.FireAt <= s.elapsed {
			s.pending = append(s.pending[:i], s.pending[i+1:]...)
			return e, true
		}
	}
	return Event{}, false
}

// PendingCount reports how many events are currently queued, for tests and
// diagnostics.
func (s *Scheduler) PendingCount() int {
	return len(s.pending)
}

// Cancel removes every pending event of the given kind for which match
// returns true. Used sparingly (e.g. a channel reconfiguring its own
// advance events); most subsystems simply let stale events fire into a
// no-op check instead.
func (s *Scheduler) Cancel(kind Kind, match func(data any) bool) {
	kept := s.pending[:0]
	for _, e := range s.pending {
		if e.Kind == kind && (match == nil || match(e.Data)) {
			continue
		}
		kept = append(kept, e)
	}
	s.pending = kept
}
