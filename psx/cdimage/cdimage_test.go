package cdimage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFixture(t *testing.T, sectors int) string {
	t.Helper()
	data := make([]byte, sectors*SectorSize)
	for i := range data {
		data[i] = byte(i)
	}
	path := filepath.Join(t.TempDir(), "fixture.bin")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestOpenRejectsNonSectorAlignedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.bin")
	require.NoError(t, os.WriteFile(path, make([]byte, 100), 0o644))

	_, err := Open(path)
	assert.Error(t, err)
}

func TestOpenReportsSectorCount(t *testing.T) {
	path := writeFixture(t, 3)
	img, err := Open(path)
	require.NoError(t, err)
	defer img.Close()

	assert.Equal(t, int64(3), img.SectorCount())
}

func TestReadAtReadsFromTheRequestedOffset(t *testing.T) {
	path := writeFixture(t, 2)
	img, err := Open(path)
	require.NoError(t, err)
	defer img.Close()

	buf := make([]byte, 4)
	offset := int64(SectorSize + 10)
	n, err := img.ReadAt(buf, offset)
	require.NoError(t, err)
	require.Equal(t, 4, n)
	expected := []byte{byte(offset), byte(offset + 1), byte(offset + 2), byte(offset + 3)}
	assert.Equal(t, expected, buf)
}
