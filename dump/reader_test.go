package dump

import (
	"compress/gzip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenDumpFile_Plain(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dbdump.txt")
	require.NoError(t, os.WriteFile(path, []byte("version 1\n"), 0644))

	lr, err := OpenDumpFile(path)
	require.NoError(t, err)
	defer lr.Close()

	line, err := lr.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "version 1", line)
	assert.Equal(t, 1, lr.Lineno())
}

func TestOpenDumpFile_Compressed(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dbdump.txt.Z")

	f, err := os.Create(path)
	require.NoError(t, err)
	gz := gzip.NewWriter(f)
	_, err = gz.Write([]byte("version 1\nplatform linux\n"))
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	require.NoError(t, f.Close())

	lr, err := OpenDumpFile(path)
	require.NoError(t, err)
	defer lr.Close()

	line, err := lr.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "version 1", line)

	line, err = lr.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "platform linux", line)
}

func TestLineReader_Latin1Decoding(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dbdump.txt")
	// 0xE9 is latin-1 "é"; the reader must decode it, not reject it as
	// invalid UTF-8.
	require.NoError(t, os.WriteFile(path, []byte{'s', ':', 0xE9, '\n'}, 0644))

	lr, err := OpenDumpFile(path)
	require.NoError(t, err)
	defer lr.Close()

	line, err := lr.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "s:é", line)
}
