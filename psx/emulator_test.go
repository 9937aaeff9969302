package psx

import (
	"context"
	"encoding/binary"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valerio/psxgo/psx/addr"
	"github.com/valerio/psxgo/psx/raster"
)

// Assembling a tiny MIPS-I program directly as instruction words for the
// boot-to-shell smoke test; mirrors the shape psx/cpu's own tests use
// (asmR/asmI helpers packing raw fields).

func asmADDIU(rt, rs uint32, imm uint16) uint32 {
	const opADDIU = 0x09
	return (opADDIU << 26) | (rs << 21) | (rt << 16) | uint32(imm)
}

// asmJALR packs a JALR $ra, rs instruction (SPECIAL funct 0x09).
func asmJALR(rs uint32) uint32 {
	const funct = 0x09
	return (rs << 21) | (31 << 11) | funct
}

// asmJR packs a JR rs instruction (SPECIAL funct 0x08).
func asmJR(rs uint32) uint32 {
	const funct = 0x08
	return (rs << 21) | funct
}

const nop = uint32(0)

// buildTTYBannerBIOS assembles a program at the BIOS reset vector that
// prints banner through the kernel PutChar call (vector B0, code 0x3D) one
// character at a time, using the same calling convention the retail BIOS
// uses: load the vector address into a register and JALR through it (J/JAL
// can't reach an absolute low address from the BIOS's KSEG1 mapping, since
// their target field only replaces the low 28 bits of the current PC, so a
// real kernel-call stub always uses JALR). Each call lands on a JR $ra stub
// this test pokes into RAM at 0xB0, which sends control back to the
// instruction after the call, same as the real BIOS's jump table.
func buildTTYBannerBIOS(banner string) []byte {
	var words []uint32
	for _, c := range []byte(banner) {
		words = append(words,
			asmADDIU(4, 0, uint16(c)), // $a0 = c
			asmADDIU(9, 0, 0x3D),      // $t1 = PutChar code
			asmADDIU(10, 0, 0xB0),     // $t2 = kernel vector B0
			asmJALR(10),               // jalr $ra, $t2
			nop,                       // branch-delay slot
		)
	}

	buf := make([]byte, len(words)*4)
	for i, w := range words {
		binary.LittleEndian.PutUint32(buf[i*4:], w)
	}
	return buf
}

// ttyLineHandler is a minimal slog.Handler recording the "line" attribute
// of every record logged with message "tty", matching kernel.TTYHook's
// flush call (slog.Info("tty", "line", ...)). It lets this test observe
// completed BIOS output lines without reaching into kernel's unexported
// line buffer.
type ttyLineHandler struct {
	lines *[]string
}

func (h ttyLineHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h ttyLineHandler) Handle(_ context.Context, r slog.Record) error {
	if r.Message != "tty" {
		return nil
	}
	r.Attrs(func(a slog.Attr) bool {
		if a.Key == "line" {
			*h.lines = append(*h.lines, a.Value.String())
		}
		return true
	})
	return nil
}

func (h ttyLineHandler) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h ttyLineHandler) WithGroup(string) slog.Handler      { return h }

func TestBIOSBootPrintsBannerThroughKernelPutChar(t *testing.T) {
	const banner = "PSXBIOS\n"

	var lines []string
	previous := slog.Default()
	slog.SetDefault(slog.New(ttyLineHandler{lines: &lines}))
	t.Cleanup(func() { slog.SetDefault(previous) })

	bios := buildTTYBannerBIOS(banner)
	emu, err := New(bios, raster.NopSink{}, nil)
	require.NoError(t, err)

	// Poke the kernel-vector stub the real BIOS places at RAM address
	// 0xB0: JR $ra, immediately returning control to the caller.
	binary.LittleEndian.PutUint32(emu.Arrays.RAM[0xB0:], asmJR(31))

	require.Equal(t, addr.ResetVector, emu.CPU.PC())

	for i := 0; i < 7*len(banner)+10; i++ {
		require.NoError(t, emu.Step())
	}

	require.NotEmpty(t, lines)
	assert.Equal(t, "PSXBIOS", lines[0])
}
