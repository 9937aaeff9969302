// Package memory owns the PSX's raw byte arrays (RAM, BIOS, scratchpad,
// expansion stubs, the I/O stub buffer) and the address-translation logic
// the bus uses to route a virtual address to one of them. It deliberately
// knows nothing about subsystem registers: that dispatch lives on the hub
// (see the root psx package's Bus type), avoiding back-references from
// low-level components into the hub.
package memory

import (
	"errors"
	"fmt"

	"github.com/valerio/psxgo/psx/addr"
)

// ErrMisaligned is returned by CheckAlign (and, transitively, by bus
// load/store helpers) when an address isn't aligned to the access width.
var ErrMisaligned = errors.New("memory: misaligned address")

// Region identifies which physical memory region an address maps to.
type Region int

const (
	RegionRAM Region = iota
	RegionRAMMirror
	RegionExpansion1
	RegionScratchpad
	RegionIOPorts
	RegionExpansion2
	RegionExpansion3
	RegionBIOS
	RegionCacheControl
	RegionUnmapped
)

func (r Region) String() string {
	switch r {
	case RegionRAM:
		return "RAM"
	case RegionRAMMirror:
		return "RAMMirror"
	case RegionExpansion1:
		return "Expansion1"
	case RegionScratchpad:
		return "Scratchpad"
	case RegionIOPorts:
		return "IOPorts"
	case RegionExpansion2:
		return "Expansion2"
	case RegionExpansion3:
		return "Expansion3"
	case RegionBIOS:
		return "BIOS"
	case RegionCacheControl:
		return "CacheControl"
	default:
		return "Unmapped"
	}
}

// Arrays holds every byte-backed memory region the bus can read or write.
type Arrays struct {
	RAM        []byte
	BIOS       []byte
	Scratchpad []byte
	Expansion1 []byte
	Expansion2 []byte
	Expansion3 []byte
	IOStub     []byte // default fall-through for unhandled I/O registers
}

// NewArrays allocates every region at its hardware size and copies bios
// into the BIOS region. It returns an error if bios is larger than the
// 4 MiB BIOS window.
func NewArrays(bios []byte) (*Arrays, error) {
	if len(bios) > int(addr.BIOSSize) {
		return nil, fmt.Errorf("memory: BIOS image is %d bytes, exceeds %d byte window", len(bios), addr.BIOSSize)
	}

	a := &Arrays{
		RAM:        make([]byte, addr.RAMSize),
		BIOS:       make([]byte, addr.BIOSSize),
		Scratchpad: make([]byte, addr.ScratchpadSize),
		Expansion1: make([]byte, addr.Expansion1Size),
		Expansion2: make([]byte, addr.Expansion2Size),
		Expansion3: make([]byte, addr.Expansion3Size),
		IOStub:     make([]byte, addr.IOPortsSize),
	}
	copy(a.BIOS, bios)
	return a, nil
}

// CheckAlign returns ErrMisaligned if addr is not aligned to width bytes.
func CheckAlign(address uint32, width uint32) error {
	if address%width != 0 {
		return ErrMisaligned
	}
	return nil
}

// Translate maps a 32-bit virtual address to a physical address, region,
// and whether the access should be treated as cached (informational only
// at this fidelity — this core does not model an instruction/data cache).
// ok is false only for KSEG2 addresses that aren't the cache-control word.
func Translate(vaddr uint32) (physical uint32, region Region, cached bool, ok bool) {
	switch {
	case vaddr <= addr.KUSEGEnd:
		physical = vaddr & addr.SegmentMask
		cached = true
	case vaddr >= addr.KSEG0Lo && vaddr <= addr.KSEG0Hi:
		physical = vaddr & addr.SegmentMask
		cached = true
	case vaddr >= addr.KSEG1Lo && vaddr <= addr.KSEG1Hi:
		physical = vaddr & addr.SegmentMask
		cached = false
	case vaddr == addr.CacheControlAddress:
		return 0, RegionCacheControl, false, true
	default:
		return 0, RegionUnmapped, false, false
	}

	region = classify(physical)
	return physical, region, cached, true
}

func classify(physical uint32) Region {
	switch {
	case physical < addr.RAMSize:
		return RegionRAM
	case physical >= addr.RAMMirrorBase && physical < addr.RAMMirrorBase+addr.RAMMirrorSize:
		return RegionRAMMirror
	case physical >= addr.Expansion1Base && physical < addr.Expansion1Base+addr.Expansion1Size:
		return RegionExpansion1
	case physical >= addr.ScratchpadBase && physical < addr.ScratchpadBase+addr.ScratchpadSize:
		return RegionScratchpad
	case physical >= addr.IOPortsBase && physical < addr.IOPortsBase+addr.IOPortsSize:
		return RegionIOPorts
	case physical >= addr.Expansion2Base && physical < addr.Expansion2Base+addr.Expansion2Size:
		return RegionExpansion2
	case physical >= addr.Expansion3Base && physical < addr.Expansion3Base+addr.Expansion3Size:
		return RegionExpansion3
	case physical >= addr.BIOSBase && physical < addr.BIOSBase+addr.BIOSSize:
		return RegionBIOS
	default:
		return RegionUnmapped
	}
}
