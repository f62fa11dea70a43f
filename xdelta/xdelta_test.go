package xdelta

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApply_IdentityCopy(t *testing.T) {
	source := bytes.NewReader([]byte("ABCDEFGH"))
	// copy opcode (0x80) with length=8 (no continuation, low 6 bits=8),
	// offset=0 (single byte, no continuation).
	patch := []byte{0x80 | 8, 0x00}

	target, err := Apply(source, bytes.NewReader(patch))
	require.NoError(t, err)
	assert.Equal(t, "ABCDEFGH", string(target))
}

func TestApply_CopyPrefix(t *testing.T) {
	source := bytes.NewReader([]byte("ABCDEFGH"))
	// copy length=3, offset=0
	patch := []byte{0x80 | 3, 0x00}

	target, err := Apply(source, bytes.NewReader(patch))
	require.NoError(t, err)
	assert.Equal(t, "ABC", string(target))
}

func TestApply_InsertOnly(t *testing.T) {
	source := bytes.NewReader([]byte(""))
	// insert opcode (bit7=0), length=5, followed by 5 literal bytes
	patch := []byte{5, 'h', 'e', 'l', 'l', 'o'}

	target, err := Apply(source, bytes.NewReader(patch))
	require.NoError(t, err)
	assert.Equal(t, "hello", string(target))
}

func TestApply_CopyThenInsert(t *testing.T) {
	source := bytes.NewReader([]byte("0123456789"))
	patch := []byte{
		0x80 | 4, 0x02, // copy length=4 at offset=2 -> "2345"
		3, 'X', 'Y', 'Z', // insert "XYZ"
	}

	target, err := Apply(source, bytes.NewReader(patch))
	require.NoError(t, err)
	assert.Equal(t, "2345XYZ", string(target))
}

func TestApply_EmptyPatchYieldsEmptyTarget(t *testing.T) {
	source := bytes.NewReader([]byte("anything"))
	target, err := Apply(source, bytes.NewReader(nil))
	require.NoError(t, err)
	assert.Empty(t, target)
}

func TestReadLength_ContinuationByte(t *testing.T) {
	// start byte: continuation flag set (0x40) with low 6 bits = 0x3F,
	// followed by a terminating byte contributing 1<<6.
	r := bytes.NewReader([]byte{0x01})
	n, err := readLength(0x40|0x3F, r)
	require.NoError(t, err)
	assert.EqualValues(t, 0x3F+(1<<6), n)
}

func TestReadOffset_EightByteCap(t *testing.T) {
	// 8 continuation bytes of 0x80|0x01 (7 bits contributing 1, shifted by
	// 0,7,14,...49) then a 9th byte taken whole at bit 56.
	var data []byte
	for i := 0; i < 8; i++ {
		data = append(data, 0x80|0x01)
	}
	data = append(data, 0x02) // final whole byte, no continuation check
	n, err := readOffset(bytes.NewReader(data))
	require.NoError(t, err)
	assert.True(t, n > 0)
}
