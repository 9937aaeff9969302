package interrupt

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequestAndMask(t *testing.T) {
	c := New()
	c.Request(3) // DMA
	assert.False(t, c.Active(), "unmasked interrupt should not be active")

	c.Mask = 1 << 3
	assert.True(t, c.Active())
	assert.Equal(t, uint16(1<<3), c.Pending())
}

func TestWriteStatusAndMaskSemantics(t *testing.T) {
	c := New()
	c.Status = 0b0000_0111

	// Writing a 1 keeps the bit, writing a 0 clears it.
	c.WriteStatus(0b0000_0101)
	assert.Equal(t, uint16(0b0000_0101), c.Status)

	c.WriteStatus(0)
	assert.Equal(t, uint16(0), c.Status)
}
