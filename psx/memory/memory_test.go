package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranslateSegments(t *testing.T) {
	// KUSEG, KSEG0 and KSEG1 mirror the same physical RAM.
	for _, vaddr := range []uint32{0x00001000, 0x80001000, 0xA0001000} {
		physical, region, _, ok := Translate(vaddr)
		require.True(t, ok)
		assert.Equal(t, uint32(0x1000), physical)
		assert.Equal(t, RegionRAM, region)
	}
}

func TestTranslateBIOS(t *testing.T) {
	physical, region, _, ok := Translate(0xBFC00000)
	require.True(t, ok)
	assert.Equal(t, RegionBIOS, region)
	assert.Equal(t, uint32(0x1FC00000), physical)
}

func TestTranslateCacheControl(t *testing.T) {
	_, region, _, ok := Translate(0xFFFE0130)
	require.True(t, ok)
	assert.Equal(t, RegionCacheControl, region)
}

func TestTranslateKSEG2Unmapped(t *testing.T) {
	_, region, _, ok := Translate(0xFFFE0000)
	assert.False(t, ok)
	assert.Equal(t, RegionUnmapped, region)
}

func TestCheckAlign(t *testing.T) {
	assert.NoError(t, CheckAlign(0x1000, 4))
	assert.ErrorIs(t, CheckAlign(0x1001, 4), ErrMisaligned)
	assert.ErrorIs(t, CheckAlign(0x1002, 4), ErrMisaligned)
	assert.NoError(t, CheckAlign(0x1002, 2))
}

func TestNewArraysRejectsOversizedBIOS(t *testing.T) {
	_, err := NewArrays(make([]byte, 5*1024*1024))
	assert.Error(t, err)
}
