package tabular

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeUTF8(t *testing.T) {
	got, err := Decode([]byte("départ;qualité"), "")
	require.NoError(t, err)
	assert.Equal(t, "départ;qualité", got)
}

func TestDecodeUTF8WithBOM(t *testing.T) {
	raw := append([]byte{0xEF, 0xBB, 0xBF}, []byte("cdparametre;valtraduite")...)
	got, err := Decode(raw, "")
	require.NoError(t, err)
	assert.Equal(t, "cdparametre;valtraduite", got)
}

func TestDecodeLatin1Fallback(t *testing.T) {
	// 0xE9 is 'é' in Latin-1 but invalid as a standalone UTF-8 byte.
	raw := []byte{'d', 0xE9, 'p', 'a', 'r', 't'}
	got, err := Decode(raw, "")
	require.NoError(t, err)
	assert.Equal(t, "départ", got)
}

func TestDecodeNeverHardFails(t *testing.T) {
	// Arbitrary binary input still decodes via the Latin-1 terminal step.
	raw := []byte{0xFF, 0xFE, 0x00, 0x91, 0xA3}
	got, err := Decode(raw, "")
	require.NoError(t, err)
	assert.Len(t, []rune(got), 5)
}

func TestDecodeForcedEncoding(t *testing.T) {
	got, err := Decode([]byte{0xE9}, "latin-1")
	require.NoError(t, err)
	assert.Equal(t, "é", got)

	_, err = Decode([]byte{0xE9}, "utf-8")
	assert.Error(t, err)

	_, err = Decode([]byte("x"), "utf-16")
	assert.Error(t, err)
}
