package dump

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// LineReader reads latin-1 decoded lines from the backup dump stream and
// tracks the 1-based source line number for error reporting.
type LineReader struct {
	scanner *bufio.Scanner
	lineno  int
	closer  io.Closer
}

// OpenDumpFile opens a backup dump file, transparently unwrapping the
// gzip/DEFLATE compression used for ".Z"/".z" dumps, and decoding the
// latin-1 byte stream into UTF-8 lines.
func OpenDumpFile(path string) (*LineReader, error) {
	ext := strings.ToLower(path[strings.LastIndex(path, ".")+1:])
	if ext == "z" {
		return openCompressed(path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("dump: open %s: %w", path, err)
	}
	return newLineReader(f, f), nil
}

func openCompressed(path string) (*LineReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("dump: open compressed dump %s: %w", path, err)
	}
	gz, err := gzip.NewReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("dump: open gzip stream in %s: %w", path, err)
	}
	return newLineReader(gz, multiCloser{gz, f}), nil
}

// multiCloser closes each closer in order, returning the first error.
type multiCloser []io.Closer

func (m multiCloser) Close() error {
	var first error
	for _, c := range m {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func newLineReader(r io.Reader, closer io.Closer) *LineReader {
	decoded := transform.NewReader(r, charmap.ISO8859_1.NewDecoder())
	scanner := bufio.NewScanner(decoded)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	return &LineReader{scanner: scanner, closer: closer}
}

// ReadLine returns the next line with trailing \n/\r stripped, or io.EOF.
func (lr *LineReader) ReadLine() (string, error) {
	if !lr.scanner.Scan() {
		if err := lr.scanner.Err(); err != nil {
			return "", fmt.Errorf("dump: read line %d: %w", lr.lineno+1, err)
		}
		return "", io.EOF
	}
	lr.lineno++
	return lr.scanner.Text(), nil
}

// Lineno returns the number of the most recently read line.
func (lr *LineReader) Lineno() int {
	return lr.lineno
}

// Close releases the underlying file (and gzip stream) handle.
func (lr *LineReader) Close() error {
	if lr.closer != nil {
		return lr.closer.Close()
	}
	return nil
}
