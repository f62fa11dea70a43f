package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ccm-backup-reader/ccmbackup/config"
	"github.com/ccm-backup-reader/ccmbackup/escape"
	"github.com/ccm-backup-reader/ccmbackup/object"
)

func TestFormatRowSubstitutesColumns(t *testing.T) {
	row := map[string]interface{}{
		"objectname": "foo~1:dir:bar",
		"status":     "integrate",
		"cvid":       int64(42),
	}
	assert.Equal(t, "foo~1:dir:bar is integrate", FormatRow("%objectname is %status", row))
	assert.Equal(t, "42", FormatRow("%cvid", row))
}

func TestFormatRowLeavesUnknownPlaceholderEmpty(t *testing.T) {
	row := map[string]interface{}{"objectname": "x"}
	assert.Equal(t, "x ()", FormatRow("%objectname (%nonexistent)", row))
}

func TestFormatRowEscapesLiteralPercent(t *testing.T) {
	row := map[string]interface{}{"status": "released"}
	assert.Equal(t, "100% released", FormatRow("100%% %status", row))
}

func TestContentRulesAdaptTypemaps(t *testing.T) {
	cfg, err := config.LoadConfigString([]byte(`
backup_path: /backups/gnr
content_typemaps:
- kind: binary
  path: .../....dat
`))
	assert.NoError(t, err)

	rules := contentRules(cfg)
	assert.Len(t, rules, 1)
	assert.Equal(t, "binary", object.ContentKind([]byte("plain text"), "st_root/blobs/x.dat", rules))
	assert.Equal(t, "text", object.ContentKind([]byte("plain text"), "st_root/src/x.c", rules))
}

func TestFormatAttrValueByKind(t *testing.T) {
	assert.Equal(t, "5", formatAttrValue(escape.Value{Kind: escape.KindInt, Int: 5}))
	assert.Equal(t, "true", formatAttrValue(escape.Value{Kind: escape.KindBool, Bool: true}))
	assert.Equal(t, "hello", formatAttrValue(escape.Value{Kind: escape.KindString, Str: "hello"}))

	ts := time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC)
	assert.Equal(t, ts.Format(time.RFC3339), formatAttrValue(escape.Value{Kind: escape.KindTime, Time: ts}))

	assert.Equal(t, "", formatAttrValue(nil))
	assert.Equal(t, "7", formatAttrValue(int64(7)))
}
