package object

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContentKindSniffsNULAsBinary(t *testing.T) {
	assert.Equal(t, "binary", ContentKind([]byte("abc\x00def"), "some/path", nil))
	assert.Equal(t, "text", ContentKind([]byte("plain old text\n"), "some/path", nil))
	assert.Equal(t, "text", ContentKind(nil, "some/path", nil))
}

func TestContentKindImageHeaderIsBinary(t *testing.T) {
	png := []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A, 0, 0, 0, 0}
	assert.Equal(t, "binary", ContentKind(png, "logo.png", nil))
}

func TestContentKindOverrideWinsOverSniff(t *testing.T) {
	rules := []ContentTypeRule{
		{Kind: "binary", Path: regexp.MustCompile(`\.dat$`)},
	}
	assert.Equal(t, "binary", ContentKind([]byte("looks like text"), "blobs/x.dat", rules))
	assert.Equal(t, "text", ContentKind([]byte("looks like text"), "src/x.c", rules))
}
