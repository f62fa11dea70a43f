// Package archive reads per-file zipped archive bundles: a zip container
// holding one base blob plus a chain of XDELTA patches, described by an XML
// manifest at META-INF/ARCHIVE-HEADER.
package archive

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/ccm-backup-reader/ccmbackup/xdelta"
)

const manifestPath = "META-INF/ARCHIVE-HEADER"

// Manifest is the XML document at META-INF/ARCHIVE-HEADER.
type Manifest struct {
	XMLName xml.Name `xml:"archive"`
	Entries []Entry  `xml:"entry"`
}

// Entry describes one revision stored in the archive.
type Entry struct {
	FullName    string `xml:"fullName"`
	Predecessor string `xml:"predecessor"`
	DeltaFormat string `xml:"deltaFormat"`
}

// HasPredecessor reports whether this entry names a predecessor; the head
// entry is the unique one for which this is false.
func (e Entry) HasPredecessor() bool {
	return e.Predecessor != ""
}

// Reader resolves and extracts historical revisions from one archive file.
// A Reader holds a single open zip handle for its lifetime and is not safe
// to share across goroutines.
type Reader struct {
	log      *logrus.Entry
	zipFile  *zip.ReadCloser
	manifest Manifest
}

// Open opens the zip archive at path and parses its manifest.
func Open(log *logrus.Logger, path string) (*Reader, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	zf, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("archive: open %s: %w", path, err)
	}

	r := &Reader{log: log.WithField("archive", path), zipFile: zf}

	f, err := zf.Open(manifestPath)
	if err != nil {
		zf.Close()
		return nil, fmt.Errorf("archive: open manifest in %s: %w", path, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		zf.Close()
		return nil, fmt.Errorf("archive: read manifest in %s: %w", path, err)
	}
	if err := xml.Unmarshal(data, &r.manifest); err != nil {
		zf.Close()
		return nil, fmt.Errorf("archive: parse manifest in %s: %w", path, err)
	}

	return r, nil
}

// Close releases the underlying zip handle.
func (r *Reader) Close() error {
	return r.zipFile.Close()
}

// entry returns the manifest entry named fullName.
func (r *Reader) entry(fullName string) (Entry, bool) {
	for _, e := range r.manifest.Entries {
		if e.FullName == fullName {
			return e, true
		}
	}
	return Entry{}, false
}

func (r *Reader) readMember(name string) ([]byte, error) {
	f, err := r.zipFile.Open(name)
	if err != nil {
		return nil, fmt.Errorf("archive: open member %s: %w", name, err)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("archive: read member %s: %w", name, err)
	}
	return data, nil
}

// Extract returns the exact bytes of revision. The predecessor chain is
// materialised from the requested entry back to the head, then replayed
// in head-to-target order: the head's member is the full base blob, and
// every later entry's member is an XDELTA patch folded on top.
func (r *Reader) Extract(revision string) ([]byte, error) {
	target, ok := r.entry(revision)
	if !ok {
		return nil, fmt.Errorf("archive: revision %q not found", revision)
	}

	chain := []Entry{target}
	for chain[len(chain)-1].HasPredecessor() {
		current := chain[len(chain)-1]
		pred, ok := r.entry(current.Predecessor)
		if !ok {
			return nil, fmt.Errorf("archive: entry %q names predecessor %q which does not exist", current.FullName, current.Predecessor)
		}
		chain = append(chain, pred)
	}

	head := chain[len(chain)-1]
	data, err := r.readMember(head.FullName)
	if err != nil {
		return nil, err
	}

	for i := len(chain) - 2; i >= 0; i-- {
		e := chain[i]
		if e.DeltaFormat != "XDELTA" {
			return nil, fmt.Errorf("archive: unsupported deltaFormat %q on entry %q", e.DeltaFormat, e.FullName)
		}

		patch, err := r.readMember(e.FullName)
		if err != nil {
			return nil, err
		}

		data, err = xdelta.Apply(bytes.NewReader(data), bytes.NewReader(patch))
		if err != nil {
			return nil, fmt.Errorf("archive: apply patch for %q: %w", e.FullName, err)
		}

		r.log.WithField("revision", e.FullName).Debug("applied xdelta patch")
	}

	return data, nil
}
