package object

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/h2non/filetype"
	"github.com/sirupsen/logrus"

	"github.com/ccm-backup-reader/ccmbackup/archive"
)

// RCSResolver is the external collaborator File.Data delegates to for
// ccm_rcs-sourced files: the RCS suite, `rcs co`/`rcsdiff`, is an
// environment dependency outside this package's core. Implementations
// typically shell out and wrap a non-zero exit code as an External-tool
// error.
type RCSResolver interface {
	ResolveRCS(path, version string) ([]byte, error)
}

var errRCSResolverRequired = fmt.Errorf("object: file's source is ccm_rcs but no RCSResolver is configured")

// SourceInfo parses a file object's decoded source attribute into its
// three fields (dispatch kind, revision name, archive-relative path),
// the same split Data performs internally. Exposed so callers that need
// the raw fields without extracting bytes (e.g. a CLI diff command
// delegating straight to rcsdiff) don't re-parse the attribute themselves.
func (c *Context) SourceInfo(o Object) (kind, version, archivePath string, err error) {
	if !IsFileKind(o.cvtype) {
		return "", "", "", fmt.Errorf("object: cvtype %q has no Data view", o.cvtype)
	}

	attrs, err := c.Attributes(o)
	if err != nil {
		return "", "", "", err
	}
	source, ok := attrString(attrs, "source")
	if !ok || source == "" {
		return "", "", "", fmt.Errorf("object: id %d has no source attribute", o.id)
	}

	lines := strings.SplitN(source, "\n", 3)
	if len(lines) != 3 {
		return "", "", "", fmt.Errorf("object: id %d source attribute is malformed: %q", o.id, source)
	}
	return lines[0], lines[1], lines[2], nil
}

// Data resolves a file object's revision bytes, dispatching on the first
// line of its decoded source attribute: "ccm_delta" opens the per-file
// archive at st_root/<archive_path> and extracts the named version;
// "ccm_rcs" delegates to the configured RCSResolver.
func (c *Context) Data(o Object) ([]byte, error) {
	kind, version, archivePath, err := c.SourceInfo(o)
	if err != nil {
		return nil, err
	}

	switch kind {
	case "ccm_delta":
		path := filepath.Join(c.backupPath, "st_root", archivePath)
		c.log.WithFields(logrus.Fields{"archive": path, "revision": version}).Debug("extracting revision")
		r, err := archive.Open(c.logger, path)
		if err != nil {
			return nil, err
		}
		defer r.Close()
		return r.Extract(version)

	case "ccm_rcs":
		if c.rcs == nil {
			return nil, errRCSResolverRequired
		}
		path := filepath.Join(c.backupPath, "st_root", archivePath)
		return c.rcs.ResolveRCS(path, version)

	default:
		return nil, fmt.Errorf("object: id %d has unrecognised source kind %q", o.id, kind)
	}
}

// Data is the Object-method convenience form of Context.Data.
func (o Object) Data() ([]byte, error) { return o.ctx.Data(o) }

// ContentKind classifies a file's extracted bytes as text/binary/specific
// image-or-archive kind, purely for display/transport decisions in the
// CLI (never for parsing decisions). archivePath lets a
// config.ContentTypeMap override the sniff-based result for known paths.
func ContentKind(data []byte, archivePath string, overrides []ContentTypeRule) string {
	for _, rule := range overrides {
		if rule.Path.MatchString(archivePath) {
			return rule.Kind
		}
	}
	if len(data) == 0 {
		return "text"
	}
	head := data
	if len(head) > 261 {
		head = head[:261]
	}
	if filetype.IsImage(head) || filetype.IsVideo(head) || filetype.IsArchive(head) || filetype.IsAudio(head) || filetype.IsDocument(head) {
		return "binary"
	}
	if looksBinary(data) {
		return "binary"
	}
	return "text"
}

// looksBinary is a standard diff-tooling heuristic: a NUL byte in the
// first chunk means binary.
func looksBinary(data []byte) bool {
	n := len(data)
	if n > 8000 {
		n = 8000
	}
	for _, b := range data[:n] {
		if b == 0 {
			return true
		}
	}
	return false
}

// ContentTypeRule is object's view of a config.ContentTypeMap: a compiled
// regex over the archive path and the kind it forces. Kept independent of
// the config package's YAML tags so object has no reason to import config.
type ContentTypeRule struct {
	Kind string
	Path interface {
		MatchString(string) bool
	}
}
