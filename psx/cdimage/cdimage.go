// Package cdimage provides a file-backed raw CD-ROM image: a plain
// io.ReaderAt over a 2352-byte-per-sector stream, the shape
// psx/cdrom.Controller already expects for its disc-image dependency.
package cdimage

import (
	"fmt"
	"os"
)

// SectorSize is the raw byte size of one CD-ROM sector (sync, header,
// mode-2 subheader, 2048/2324 bytes of data, and EDC/ECC).
const SectorSize = 2352

// Image is a raw-sector disc image backed by an open file. It implements
// io.ReaderAt directly, so it plugs into psx/cdrom.New without an
// adapter.
type Image struct {
	file *os.File
	size int64
}

// Open opens path as a raw CD-ROM image. It returns an error if the file
// can't be opened or its size isn't a whole number of sectors.
func Open(path string) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cdimage: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("cdimage: %w", err)
	}
	if info.Size()%SectorSize != 0 {
		f.Close()
		return nil, fmt.Errorf("cdimage: %s is %d bytes, not a multiple of the %d byte sector size", path, info.Size(), SectorSize)
	}
	return &Image{file: f, size: info.Size()}, nil
}

// ReadAt satisfies io.ReaderAt, reading directly from the backing file.
func (img *Image) ReadAt(p []byte, off int64) (int, error) {
	return img.file.ReadAt(p, off)
}

// SectorCount reports the total number of whole sectors in the image.
func (img *Image) SectorCount() int64 {
	return img.size / SectorSize
}

// Close releases the backing file.
func (img *Image) Close() error {
	return img.file.Close()
}
