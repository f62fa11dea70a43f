// Package object is the lazy typed-object layer over the relational
// image. Rather than a class hierarchy per cvtype, every row is a single
// Object value; type-specific behaviour is reached by dispatching on its
// cvtype tag.
package object

import (
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/ccm-backup-reader/ccmbackup/store"
)

// Context is the shared, read-only handle every Object resolves its
// relations through, breaking what would otherwise be a cyclic reference
// between an object and its ORM. It outlives every Object constructed
// from it.
type Context struct {
	log        *logrus.Entry
	logger     *logrus.Logger
	store      *store.Store
	backupPath string
	rcs        RCSResolver

	delimOnce sync.Once
	delim     string
	delimErr  error
}

// NewContext builds a lookup context over an already-opened relational
// image. backupPath is the root of the on-disk backup (the directory
// containing st_root/), used to locate per-file archives for File.Data.
func NewContext(log *logrus.Logger, s *store.Store, backupPath string) *Context {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Context{log: log.WithField("component", "object"), logger: log, store: s, backupPath: backupPath}
}

// SetRCSResolver installs the external collaborator File.Data delegates to
// for ccm_rcs-sourced files: RCS invocation is an external interface, not
// part of this package's core. Without one, Data returns
// errRCSResolverRequired for such files.
func (c *Context) SetRCSResolver(r RCSResolver) {
	c.rcs = r
}

// Delim returns the backup's four-part-name delimiter, querying it once
// and caching the result for the lifetime of the context.
func (c *Context) Delim() (string, error) {
	c.delimOnce.Do(func() {
		c.delim, c.delimErr = c.store.Delim()
	})
	return c.delim, c.delimErr
}

func (c *Context) construct(id int64, cvtype string) Object {
	return Object{ctx: c, id: id, cvtype: cvtype}
}

// nonFileKinds enumerates every cvtype that is not a file. A file row's
// cvtype is not the literal string "file" but its content type (ascii,
// text, binary, ...), so any cvtype absent from this set is a file.
var nonFileKinds = map[string]bool{
	"project":          true,
	"baseline":         true,
	"folder":           true,
	"folder_temp":      true,
	"task":             true,
	"dir":              true,
	"problem":          true,
	"releasedef":       true,
	"process_rule":     true,
	"project_grouping": true,
}

// IsFileKind reports whether cvtype denotes a file object: every cvtype
// not enumerated in nonFileKinds is a file.
func IsFileKind(cvtype string) bool {
	return !nonFileKinds[cvtype]
}

func scanCompverRow(row map[string]interface{}) (int64, string, error) {
	id, ok := asInt64(row["id"])
	if !ok {
		return 0, "", fmt.Errorf("object: compver row missing id")
	}
	cvtype, _ := row["cvtype"].(string)
	return id, cvtype, nil
}

func asInt64(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case float64:
		return int64(n), true
	default:
		return 0, false
	}
}
