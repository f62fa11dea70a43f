// Package dumpfixture assembles dump-grammar text for use as a test
// fixture, the way net/http/httptest assembles a request/response rather
// than hand-writing wire bytes. There is no production caller; it lives
// outside dump's own _test.go files so other packages' tests (store,
// object) can build synthetic dumps too.
package dumpfixture

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Builder assembles dump-grammar text line by line: small Fprintf-shaped
// methods appending to a single strings.Builder.
type Builder struct {
	b strings.Builder
}

// NewBuilder starts an empty dump text builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Version emits a top-level "version" line.
func (b *Builder) Version(v string) *Builder {
	fmt.Fprintf(&b.b, "version %s\n", v)
	return b
}

// Platform emits a top-level "platform" line.
func (b *Builder) Platform(p string) *Builder {
	fmt.Fprintf(&b.b, "platform %s\n", p)
	return b
}

// SchemaVersion emits a top-level "schemaversion" line.
func (b *Builder) SchemaVersion(s string) *Builder {
	fmt.Fprintf(&b.b, "schemaversion %s\n", s)
	return b
}

// Table starts a "table <name> ... tblend <name> (<count>)" frame and
// returns a TableBuilder for adding records to it.
func (b *Builder) Table(name string) *TableBuilder {
	fmt.Fprintf(&b.b, "table %s\n", name)
	return &TableBuilder{parent: b, name: name}
}

// String returns the accumulated dump text.
func (b *Builder) String() string {
	return b.b.String()
}

// TableBuilder accumulates "rs ... re" records within one table frame.
type TableBuilder struct {
	parent *Builder
	name   string
	count  int
}

// Record starts an "rs ... re" record and returns a RecordBuilder for its
// cells.
func (t *TableBuilder) Record() *RecordBuilder {
	fmt.Fprint(&t.parent.b, "rs\n")
	return &RecordBuilder{table: t}
}

// End emits the "tblend <name> (<count>)" closing line.
func (t *TableBuilder) End() *Builder {
	fmt.Fprintf(&t.parent.b, "tblend %s (%d)\n", t.name, t.count)
	return t.parent
}

// RecordBuilder accumulates typed value cells for one record.
type RecordBuilder struct {
	table *TableBuilder
}

func (r *RecordBuilder) line(s string) *RecordBuilder {
	fmt.Fprintln(&r.table.parent.b, s)
	return r
}

// Str emits an "s:<value>" string cell.
func (r *RecordBuilder) Str(v string) *RecordBuilder {
	return r.line("s:" + v)
}

// Int emits an "i:<value>" integer cell.
func (r *RecordBuilder) Int(v int64) *RecordBuilder {
	return r.line("i:" + strconv.FormatInt(v, 10))
}

// Float emits an "f:<value>" float cell.
func (r *RecordBuilder) Float(v float64) *RecordBuilder {
	return r.line("f:" + strconv.FormatFloat(v, 'g', -1, 64))
}

// Null emits one of the five typed null cells (sn/in/tn/bn/fn).
func (r *RecordBuilder) Null(tag string) *RecordBuilder {
	return r.line(tag)
}

// Text emits a "tx<n> ... te" long-text cell. body is the already-tagged
// (oa/ob/oj/ol<n>,/untagged) wire form, written verbatim as a single line,
// so callers write escapes such as \* for a newline themselves; count is
// computed here from body's latin-1 byte length.
func (r *RecordBuilder) Text(body string) *RecordBuilder {
	fmt.Fprintf(&r.table.parent.b, "tx%d\n", utf8.RuneCountInString(body))
	fmt.Fprintln(&r.table.parent.b, body)
	fmt.Fprintln(&r.table.parent.b, "te")
	return r
}

// End closes the record with "re" and increments the table's record count.
func (r *RecordBuilder) End() *TableBuilder {
	fmt.Fprint(&r.table.parent.b, "re\n")
	r.table.count++
	return r.table
}
