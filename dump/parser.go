// Package dump implements the event-driven parser for the textual backup
// dump: a line-oriented, stateful grammar of version/platform/schemaversion
// headers, free-standing sections, and typed table records.
package dump

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/ccm-backup-reader/ccmbackup/escape"
)

// ParseError reports a malformed dump line; it always carries the source
// line number.
type ParseError struct {
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%d: %s", e.Line, e.Message)
}

// IntegrityError reports a tblend name/count mismatch.
type IntegrityError struct {
	Line    int
	Message string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("%d: %s", e.Line, e.Message)
}

// EventKind tags the kind of event Parser.Next returns.
type EventKind int

const (
	EventVersion EventKind = iota
	EventPlatform
	EventSchemaVersion
	EventSection
	EventTableStart
	EventTableRecord
	EventTableEnd
)

// Section is a free-standing `Section DEFAULT <name> ... Section END` block.
type Section struct {
	Name  string
	Items []interface{}
}

// Table tracks the table currently being read (between table_start and
// table_end events).
type Table struct {
	Name        string
	RecordCount int
}

// Event is one emission of the dump parser.
type Event struct {
	Kind          EventKind
	Version       string
	Platform      string
	SchemaVersion string
	Section       *Section
	Table         *Table
	Record        []interface{}
}

// Parser consumes a LineReader and emits Events in file order. It is
// stateful: once a table_start event is returned, subsequent calls to Next
// return that table's table_record/table_end events until the table closes.
type Parser struct {
	lr       *LineReader
	curTable *Table
}

// NewParser wraps a dump source for event-driven parsing.
func NewParser(lr *LineReader) *Parser {
	return &Parser{lr: lr}
}

// Next returns the next event, or io.EOF when the dump is exhausted.
func (p *Parser) Next() (Event, error) {
	if p.curTable != nil {
		return p.nextTableEvent()
	}
	return p.nextTopLevelEvent()
}

func (p *Parser) nextTopLevelEvent() (Event, error) {
	line, err := p.lr.ReadLine()
	if err != nil {
		return Event{}, err
	}

	instruction := strings.SplitN(line, " ", 2)[0]
	switch instruction {
	case "version":
		return Event{Kind: EventVersion, Version: fields(line)[1]}, nil
	case "platform":
		return Event{Kind: EventPlatform, Platform: fields(line)[1]}, nil
	case "schemaversion":
		return Event{Kind: EventSchemaVersion, SchemaVersion: fields(line)[1]}, nil
	case "Section":
		return p.parseSection(line)
	case "table":
		return p.parseTableStart(line)
	default:
		return Event{}, &ParseError{Line: p.lr.Lineno(), Message: fmt.Sprintf("unknown instruction: %q", instruction)}
	}
}

func fields(line string) []string {
	return strings.Split(line, " ")
}

func (p *Parser) parseSection(line string) (Event, error) {
	parts := fields(line)
	name := ""
	if len(parts) >= 4 {
		name = strings.Join(parts[2:4], " ")
	}
	section := &Section{Name: name}

	for {
		l, err := p.lr.ReadLine()
		if err != nil {
			return Event{}, err
		}
		if l == "Section END" {
			break
		}
		obj, err := p.parseCell(l)
		if err != nil {
			return Event{}, err
		}
		section.Items = append(section.Items, obj)
	}

	return Event{Kind: EventSection, Section: section}, nil
}

func (p *Parser) parseTableStart(line string) (Event, error) {
	parts := fields(line)
	if len(parts) < 2 {
		return Event{}, &ParseError{Line: p.lr.Lineno(), Message: fmt.Sprintf("malformed table header: %q", line)}
	}
	p.curTable = &Table{Name: parts[1]}
	return Event{Kind: EventTableStart, Table: p.curTable}, nil
}

func (p *Parser) nextTableEvent() (Event, error) {
	line, err := p.lr.ReadLine()
	if err != nil {
		return Event{}, err
	}

	if line == "rs" {
		record, err := p.parseRecord()
		if err != nil {
			return Event{}, err
		}
		p.curTable.RecordCount++
		return Event{Kind: EventTableRecord, Table: p.curTable, Record: record}, nil
	}

	if strings.HasPrefix(line, "tblend ") {
		return p.parseTableEnd(line)
	}

	return Event{}, &ParseError{Line: p.lr.Lineno(), Message: fmt.Sprintf("expected 'rs' or 'tblend', got: %q", line)}
}

func (p *Parser) parseRecord() ([]interface{}, error) {
	var record []interface{}
	for {
		line, err := p.lr.ReadLine()
		if err != nil {
			return nil, err
		}
		if line == "re" {
			return record, nil
		}
		obj, err := p.parseCell(line)
		if err != nil {
			return nil, err
		}
		record = append(record, obj)
	}
}

func (p *Parser) parseTableEnd(line string) (Event, error) {
	parts := fields(line)
	if len(parts) < 3 {
		return Event{}, &IntegrityError{Line: p.lr.Lineno(), Message: fmt.Sprintf("malformed tblend line: %q", line)}
	}
	endName := parts[1]
	countStr := strings.Trim(parts[2], "()")
	endCount, err := strconv.Atoi(countStr)
	if err != nil {
		return Event{}, &IntegrityError{Line: p.lr.Lineno(), Message: fmt.Sprintf("malformed tblend record count: %q", parts[2])}
	}

	table := p.curTable
	if endName != table.Name {
		return Event{}, &IntegrityError{Line: p.lr.Lineno(), Message: fmt.Sprintf("table end name differs, expected %q, got %q", table.Name, endName)}
	}
	if endCount != table.RecordCount {
		return Event{}, &IntegrityError{Line: p.lr.Lineno(), Message: fmt.Sprintf("record count differs, expected %d, got %d", endCount, table.RecordCount)}
	}

	p.curTable = nil
	return Event{Kind: EventTableEnd, Table: table}, nil
}

// parseCell decodes one value cell line, reading continuation lines from
// lr for a tx (long text) body.
func (p *Parser) parseCell(line string) (interface{}, error) {
	switch {
	case strings.HasPrefix(line, "s:"):
		return line[2:], nil
	case strings.HasPrefix(line, "i:"):
		n, err := strconv.ParseInt(line[2:], 10, 64)
		if err != nil {
			return nil, &ParseError{Line: p.lr.Lineno(), Message: fmt.Sprintf("malformed int cell: %q", line)}
		}
		return n, nil
	case strings.HasPrefix(line, "f:"):
		f, err := strconv.ParseFloat(line[2:], 64)
		if err != nil {
			return nil, &ParseError{Line: p.lr.Lineno(), Message: fmt.Sprintf("malformed float cell: %q", line)}
		}
		return f, nil
	case strings.HasPrefix(line, "tx"):
		return p.parseTextCell(line)
	case line == "sn", line == "in", line == "tn", line == "bn", line == "fn":
		return nil, nil
	default:
		return nil, &ParseError{Line: p.lr.Lineno(), Message: fmt.Sprintf("unknown cell type: %q", line)}
	}
}

func (p *Parser) parseTextCell(line string) (interface{}, error) {
	count, err := strconv.Atoi(line[2:])
	if err != nil {
		return nil, &ParseError{Line: p.lr.Lineno(), Message: fmt.Sprintf("malformed tx header: %q", line)}
	}

	var b strings.Builder
	for {
		data, err := p.lr.ReadLine()
		if err != nil {
			return nil, err
		}
		data = strings.ReplaceAll(data, `\\`, `\`)
		b.WriteString(data)
		if utf8.RuneCountInString(b.String()) >= count {
			break
		}
	}
	text := b.String()

	switch {
	case strings.HasPrefix(text, "oa"), strings.HasPrefix(text, "ob"), strings.HasPrefix(text, "oj"):
		text = text[2:]
	case strings.HasPrefix(text, "ol"):
		payload, err := splitOLHeader(text)
		if err != nil {
			return nil, &ParseError{Line: p.lr.Lineno(), Message: err.Error()}
		}
		text = escape.UnescapeOL(payload)
	default:
		text = escape.Unescape(text)
	}

	terminator, err := p.lr.ReadLine()
	if err != nil {
		return nil, err
	}
	if terminator != "te" {
		return nil, &ParseError{Line: p.lr.Lineno(), Message: fmt.Sprintf("expected 'te' but found: %q", terminator)}
	}

	return text, nil
}

// splitOLHeader strips the "ol<n>," prefix, returning the payload.
func splitOLHeader(text string) (string, error) {
	if len(text) < 2 || text[:2] != "ol" {
		return "", fmt.Errorf("malformed ol cell: %q", text)
	}
	i := 2
	for i < len(text) && text[i] >= '0' && text[i] <= '9' {
		i++
	}
	if i == 2 || i >= len(text) || text[i] != ',' {
		return "", fmt.Errorf("malformed ol header: %q", text)
	}
	return text[i+1:], nil
}

// Drain runs the parser to completion, invoking handle for every event.
// io.EOF from the underlying reader ends the loop without error.
func Drain(p *Parser, handle func(Event) error) error {
	for {
		ev, err := p.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if err := handle(ev); err != nil {
			return err
		}
	}
}
