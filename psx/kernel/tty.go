package kernel

import "log/slog"

// Registers is the minimal CPU surface the TTY hook needs: reading the
// MIPS calling-convention argument registers $a0-$a3 (GPR 4-7).
type Registers interface {
	GPR(index int) uint32
}

// TTYHook watches BIOS kernel calls for PutChar/Write and logs the
// characters a guest program prints, buffering until a newline for
// readable output.
type TTYHook struct {
	logger *slog.Logger
	line   []byte
}

// NewTTYHook returns a hook that logs completed lines via slog.Default().
func NewTTYHook() *TTYHook {
	return &TTYHook{logger: slog.Default().With("component", "kernel")}
}

// OnCall inspects a kernel call dispatched through vector with the given
// $t1 code, and feeds the printed character to the line buffer when the
// resolved function is PutChar. Write calls are recognized but feed
// nothing, since their bytes live in guest memory (see below).
func (h *TTYHook) OnCall(vector Vector, code uint8, regs Registers) {
	fn, ok := Lookup(vector, code)
	if !ok {
		return
	}

	switch fn {
	case PutChar:
		h.feed(byte(regs.GPR(4)))
	case Write:
		fd := regs.GPR(4)
		if fd != 1 {
			return
		}
		// Write's second/third args are a guest RAM pointer and length;
		// this hook only sees registers, not memory, so it cannot walk
		// the buffer here. Callers that want full Write-string logging
		// should read guest memory themselves and call Feed directly.
	}
}

// Feed appends one printed byte to the line buffer, flushing and logging
// a completed line on '\n' or '\r'.
func (h *TTYHook) Feed(b byte) {
	h.feed(b)
}

func (h *TTYHook) feed(b byte) {
	if b == 0 {
		return
	}
	if b == '\n' || b == '\r' {
		h.flush()
		return
	}
	h.line = append(h.line, b)
}

func (h *TTYHook) flush() {
	if len(h.line) == 0 {
		return
	}
	h.logger.Info("tty", "line", string(h.line))
	h.line = h.line[:0]
}
