package linker

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/astro8/yabal/internal/ir"
)

func TestInitialStackPointer(t *testing.T) {
	assert.Equal(t, DefaultProgramSize-1, InitialStackPointer(0))
	assert.Equal(t, DefaultProgramSize-(1+4*maxCallDepth), InitialStackPointer(4))
}

func TestRenderAexe(t *testing.T) {
	words := []ir.Word{{Value: 0x0001}, {Value: 0xABCD}}
	assert.Equal(t, "0001\nABCD\n", RenderAexe(words))
}

func TestRenderHexRunLengthEncodesRepeats(t *testing.T) {
	words := []ir.Word{{Value: 0}, {Value: 0}, {Value: 0}, {Value: 5}}
	out := RenderHex(words, 0)
	assert.Contains(t, out, "v3.0 hex words addressed")
	assert.Contains(t, out, "3*0000")
	assert.Contains(t, out, "0005")
}

func TestRenderHexPadsToMinWords(t *testing.T) {
	words := []ir.Word{{Value: 7}}
	out := RenderHex(words, 4)
	assert.Contains(t, out, "3*0000")
}

func TestPackBytesLittleEndianWithOddTrailer(t *testing.T) {
	words := packBytes([]byte{0x01, 0x02, 0x03})
	assert.Equal(t, []int{0x0201, 0x0003}, words)
}
