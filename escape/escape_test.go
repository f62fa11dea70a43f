package escape

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUnescapeOL_SingleQuoteControlChar(t *testing.T) {
	// 'A -> chr(0x41 - 0x20) = chr(0x21) = '!'
	assert.Equal(t, "!", UnescapeOL("'A"))
}

func TestUnescapeOL_TwoByteLatin(t *testing.T) {
	// `C`$ -> bytes (0x43+0x80, 0x24+0x80) = (0xC3, 0xA4) = UTF-8 "ä"
	assert.Equal(t, "ä", UnescapeOL("`C`$"))
}

func TestUnescapeOL_Ellipsis(t *testing.T) {
	// `b"``& decodes to the UTF-8 ellipsis.
	out := UnescapeOL("`b\"``&")
	assert.Equal(t, "…", out)
}

func TestUnescapeOL_PassThrough(t *testing.T) {
	assert.Equal(t, "plain text", UnescapeOL("plain text"))
}

func TestUnescape_Newline(t *testing.T) {
	assert.Equal(t, "a\nb", Unescape(`a\*b`))
}

func TestUnescape_PassThrough(t *testing.T) {
	assert.Equal(t, "no escapes here", Unescape("no escapes here"))
}

func TestDecodeTextval_Int(t *testing.T) {
	v, err := DecodeTextval("oa42")
	assert.NoError(t, err)
	assert.Equal(t, KindInt, v.Kind)
	assert.EqualValues(t, 42, v.Int)
}

func TestDecodeTextval_Bool(t *testing.T) {
	v, err := DecodeTextval("ob1")
	assert.NoError(t, err)
	assert.True(t, v.Bool)

	v, err = DecodeTextval("ob0")
	assert.NoError(t, err)
	assert.False(t, v.Bool)
}

func TestDecodeTextval_Time(t *testing.T) {
	v, err := DecodeTextval("oj0")
	assert.NoError(t, err)
	assert.Equal(t, KindTime, v.Kind)
	assert.True(t, v.Time.IsZero() == false || v.Time.Unix() == 0)
}

func TestDecodeTextval_LongText(t *testing.T) {
	v, err := DecodeTextval("ol5,hello")
	assert.NoError(t, err)
	assert.Equal(t, KindLongText, v.Kind)
	assert.Equal(t, "hello", v.Str)
}

func TestDecodeTextval_PlainString(t *testing.T) {
	v, err := DecodeTextval("hello world")
	assert.NoError(t, err)
	assert.Equal(t, KindString, v.Kind)
	assert.Equal(t, "hello world", v.Str)
}

func TestParseFourPartName(t *testing.T) {
	fpn, err := ParseFourPartName("dummy~current:project:1", "~")
	assert.NoError(t, err)
	assert.Equal(t, FourPartName{Name: "dummy", Version: "current", Type: "project", Instance: "1"}, fpn)
	assert.Equal(t, "dummy~current:project:1", fpn.String("~"))
}
