package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ccm-backup-reader/ccmbackup/dump/dumpfixture"
)

func buildMinimalDump(t *testing.T) string {
	t.Helper()

	b := dumpfixture.NewBuilder().
		Version("1").
		Platform("linux").
		SchemaVersion("0114")

	rel := b.Table("release")
	rel.Record().Int(1).Str("Product1").End()
	rel.End()

	cv := b.Table("compver")
	cv.Record().
		Int(1).Str("working").Int(0).Int(0).Str("admin"). // id,status,create_time,modify_time,owner
		Int(0).Int(1).Str("base").Str("model").Str("base").Str("1"). // is_asm,is_model,subsystem,cvtype,name,version
		Null("in").Null("in").Null("in"). // is_product,ui_info,release
		Null("in").Null("in").Null("in"). // has_cvtype,has_model,has_super_type
		Null("in").Null("in").Null("in").Null("in").Null("in").Null("in").Null("in").Null("in").Null("in").Null("in"). // acc_key 0-9
		Null("in").Null("in").Null("in").Null("in").Null("in").Null("in").Null("in").Null("in").Null("in").Null("in"). // acc_key 10-19
		End()
	cv.End()

	at := b.Table("attrib")
	// the delimiter attribute carries its value in strval; textval is null
	at.Record().Int(1).Str("delimiter").Int(0).Null("tn").Null("bn").Str("~").Null("in").Null("fn").Int(1).Null("in").End()
	at.End()

	dir := t.TempDir()
	path := filepath.Join(dir, "dbdump.txt")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0644))
	return path
}

func TestIngestAndDelim(t *testing.T) {
	dumpPath := buildMinimalDump(t)
	dir := filepath.Dir(dumpPath)
	imagePath := filepath.Join(dir, "DBdump.sqlite3")

	s, err := Ingest(logrus.New(), dumpPath, imagePath)
	require.NoError(t, err)
	defer s.Close()

	delim, err := s.Delim()
	require.NoError(t, err)
	assert.Equal(t, "~", delim)
}

func TestIngestRefusesToOverwrite(t *testing.T) {
	dumpPath := buildMinimalDump(t)
	dir := filepath.Dir(dumpPath)
	imagePath := filepath.Join(dir, "DBdump.sqlite3")

	s, err := Ingest(logrus.New(), dumpPath, imagePath)
	require.NoError(t, err)
	s.Close()

	_, err = Ingest(logrus.New(), dumpPath, imagePath)
	assert.Error(t, err)
}

func TestCcmStatusUDF(t *testing.T) {
	dumpPath := buildMinimalDump(t)
	dir := filepath.Dir(dumpPath)
	imagePath := filepath.Join(dir, "DBdump.sqlite3")

	s, err := Ingest(logrus.New(), dumpPath, imagePath)
	require.NoError(t, err)
	defer s.Close()

	rows, err := s.Query("SELECT ccm_status(?) AS status",
		"Mon Jan 02 15:04:05 2006: Status set to 'working' by admin\nTue Jan 03 15:04:05 2006: Status set to 'integrate' by admin")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "integrate", rows[0]["status"])
}
