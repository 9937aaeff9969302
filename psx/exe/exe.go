// Package exe parses and loads a PSX-EXE boot executable: a 2048-byte
// header (magic, initial register values, a memcpy-style program
// descriptor, and a BSS-clear descriptor) followed by the program bytes.
package exe

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

const (
	headerSize  = 2048
	magicSize   = 16
	markerSize  = 0x7B4
	markerStart = headerSize - markerSize
)

var magic = append([]byte("PS-X EXE"), make([]byte, magicSize-len("PS-X EXE"))...)

// Header is the fixed-layout portion of a PSX-EXE: little-endian 32-bit
// words starting right after the 16-byte magic.
type Header struct {
	InitialPC       uint32
	InitialGP       uint32
	Destination     uint32
	Length          uint32
	DataStart       uint32
	DataLength      uint32
	BSSStart        uint32
	BSSLength       uint32
	InitialSPBase   uint32
	InitialSPOffset uint32
	Marker          string
}

// Executable is a parsed PSX-EXE: its header plus the program bytes to be
// copied into RAM.
type Executable struct {
	Header  Header
	Program []byte
}

// Parse decodes a PSX-EXE image. It returns an error if data is shorter
// than the fixed header, the magic doesn't match, or fewer program bytes
// are present than the header's length field promises.
func Parse(data []byte) (*Executable, error) {
	if len(data) < headerSize {
		return nil, fmt.Errorf("exe: image is %d bytes, shorter than the %d byte header", len(data), headerSize)
	}
	if !bytes.Equal(data[:magicSize], magic) {
		return nil, fmt.Errorf("exe: missing \"PS-X EXE\" magic")
	}

	fields := data[magicSize:markerStart]
	read := func(offset int) uint32 {
		return binary.LittleEndian.Uint32(fields[offset:])
	}

	header := Header{
		InitialPC:       read(0x00),
		InitialGP:       read(0x04),
		Destination:     read(0x08),
		Length:          read(0x0C),
		DataStart:       read(0x10),
		DataLength:      read(0x14),
		BSSStart:        read(0x18),
		BSSLength:       read(0x1C),
		InitialSPBase:   read(0x20),
		InitialSPOffset: read(0x24),
		Marker:          nulTerminated(data[markerStart:headerSize]),
	}

	end := headerSize + int(header.Length)
	if end > len(data) {
		return nil, fmt.Errorf("exe: header promises %d program bytes, image only has %d", header.Length, len(data)-headerSize)
	}

	program := make([]byte, header.Length)
	copy(program, data[headerSize:end])

	return &Executable{Header: header, Program: program}, nil
}

func nulTerminated(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}

// LoadParams is the CPU/RAM state Load derives from the header: where the
// program lands in RAM, and the initial PC/GP/SP a sideloading bus should
// set before transferring control.
type LoadParams struct {
	RAMOffset  uint32
	InitialPC  uint32
	InitialGP  uint32
	InitialSP  uint32
}

// Load copies the executable's program bytes into ram at the destination's
// physical address (its KUSEG/KSEG0/KSEG1 segment bits stripped) minus
// ramBase, and returns the register state the caller should seed the CPU
// with. ramBase is the physical base address RAM is mapped at
// (addr.RAMBase in the running emulator).
func (e *Executable) Load(ram []byte, ramBase uint32) (LoadParams, error) {
	dest := e.Header.Destination & 0x1FFF_FFFF
	if dest < ramBase {
		return LoadParams{}, fmt.Errorf("exe: destination 0x%08X is below RAM base 0x%08X", e.Header.Destination, ramBase)
	}
	offset := dest - ramBase
	end := uint64(offset) + uint64(len(e.Program))
	if end > uint64(len(ram)) {
		return LoadParams{}, fmt.Errorf("exe: program does not fit in RAM at offset 0x%08X (%d bytes, RAM is %d bytes)", offset, len(e.Program), len(ram))
	}
	copy(ram[offset:], e.Program)

	sp := e.Header.InitialSPBase
	if sp != 0 {
		sp += e.Header.InitialSPOffset
	}

	return LoadParams{
		RAMOffset: offset,
		InitialPC: e.Header.InitialPC,
		InitialGP: e.Header.InitialGP,
		InitialSP: sp,
	}, nil
}
