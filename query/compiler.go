// Package query compiles the CM object-query expression language into
// parameterised SQL against the relational image's fixed schema. Grammar
// and tokens live in query/token, query/lexer, query/ast and
// query/parser; this file is the compiler proper.
package query

import (
	"fmt"
	"strings"

	"github.com/ccm-backup-reader/ccmbackup/escape"
	"github.com/ccm-backup-reader/ccmbackup/query/ast"
	"github.com/ccm-backup-reader/ccmbackup/query/parser"
)

// AliasTable maps a query-language attribute name to the SQL expression it
// compiles to. An identifier absent from the table is passed through
// literally as the left-hand side of its comparison, so an unknown name
// reaches SQLite as a (probably invalid) column reference rather than
// being rejected up front.
type AliasTable map[string]string

// DefaultAliases is the fixed alias table for query-language attribute
// names. objectname is handled specially in Compile because it needs the
// backup's delimiter substituted in, so it is not listed here.
var DefaultAliases = AliasTable{
	"cvid":        "cv.id",
	"name":        "cv.name",
	"version":     "cv.version",
	"type":        "cv.cvtype",
	"instance":    "cv.subsystem",
	"owner":       "cv.owner",
	"create_time": "cv.create_time",
	"status":      "ccm_status(attrib.textval)",
}

// Merge returns a new AliasTable with extra's entries overriding the
// receiver's, used to layer config.AttributeAliases over DefaultAliases
// without mutating either.
func (a AliasTable) Merge(extra AliasTable) AliasTable {
	merged := make(AliasTable, len(a)+len(extra))
	for k, v := range a {
		merged[k] = v
	}
	for k, v := range extra {
		merged[k] = v
	}
	return merged
}

// Compiled is a ready-to-execute query: SQL text with "?" placeholders and
// the positional arguments to bind to them.
type Compiled struct {
	SQL  string
	Args []interface{}
}

// Columns is the fixed nine-column projection every query result uses.
var Columns = []string{"cvid", "objectname", "name", "version", "instance", "type", "owner", "create_time", "status"}

// Compile parses ccmQuery and compiles it to a full SELECT statement over
// the fixed compver/attrib schema. delim is the backup's four-part-name
// delimiter; aliases is used as given, so callers pass DefaultAliases or
// DefaultAliases.Merge(...) with site-specific entries from
// config.AttributeAliases.
func Compile(ccmQuery, delim string, aliases AliasTable) (Compiled, error) {
	expr, err := parser.Parse(ccmQuery)
	if err != nil {
		return Compiled{}, err
	}

	c := &compiler{delim: delim, aliases: aliases}
	where, err := c.compileExpr(expr)
	if err != nil {
		return Compiled{}, err
	}

	objectname := fmt.Sprintf("cv.name || %s || cv.version || ':' || cv.cvtype || ':' || cv.subsystem", sqlQuote(delim))
	sqlText := "SELECT cv.id AS cvid, " + objectname + " AS objectname, " +
		"cv.name, cv.version, cv.subsystem AS instance, cv.cvtype AS type, cv.owner, cv.create_time, ccm_status(attrib.textval) AS status " +
		"FROM compver cv LEFT JOIN attrib ON cv.id = attrib.is_attr_of " +
		"WHERE attrib.name = 'status_log' AND " + where

	return Compiled{SQL: sqlText, Args: c.args}, nil
}

// sqlQuote renders a Go string as a single-quoted SQL string literal,
// doubling embedded quotes. The delimiter is operator-controlled system
// configuration, not user query input, but this avoids splicing an
// unescaped value into the statement text regardless.
func sqlQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

type compiler struct {
	delim   string
	aliases AliasTable
	args    []interface{}
}

func (c *compiler) bind(v interface{}) string {
	c.args = append(c.args, v)
	return "?"
}

func (c *compiler) compileExpr(expr ast.Expr) (string, error) {
	switch e := expr.(type) {
	case ast.Or:
		return c.compileBoolList(e.Terms, " OR ")
	case ast.And:
		return c.compileBoolList(e.Terms, " AND ")
	case ast.Not:
		inner, err := c.compileExpr(e.Term)
		if err != nil {
			return "", err
		}
		return "NOT " + inner, nil
	case ast.AttributeMatch:
		return c.compileAttributeMatch(e)
	case ast.FunctionCall:
		return c.compileFunctionCall(e)
	default:
		return "", fmt.Errorf("query: unknown expression node %T", expr)
	}
}

func (c *compiler) compileBoolList(terms []ast.Expr, sep string) (string, error) {
	parts := make([]string, len(terms))
	for i, t := range terms {
		p, err := c.compileExpr(t)
		if err != nil {
			return "", err
		}
		parts[i] = "(" + p + ")"
	}
	return strings.Join(parts, sep), nil
}

func (c *compiler) compileAttributeMatch(m ast.AttributeMatch) (string, error) {
	left, ok := c.aliases[m.Attribute]
	if !ok {
		if m.Attribute == "objectname" {
			left = fmt.Sprintf("cv.name || %s || cv.version || ':' || cv.cvtype || ':' || cv.subsystem", sqlQuote(c.delim))
		} else {
			// Unrecognised identifier: passed through literally.
			left = m.Attribute
		}
	}

	switch m.Comparator {
	case "=":
		if m.IsQuoted() {
			return left + " = " + c.bind(m.Unquoted()), nil
		}
		// Bare (unquoted) atom: embedded literally.
		return left + " = " + m.Atom, nil
	case "match":
		if m.IsQuoted() {
			pattern := strings.ReplaceAll(m.Unquoted(), "*", "%")
			return left + " LIKE " + c.bind(pattern), nil
		}
		pattern := strings.ReplaceAll(m.Atom, "*", "%")
		return left + " LIKE " + pattern, nil
	default:
		return "", fmt.Errorf("query: unknown comparator %q", m.Comparator)
	}
}

func (c *compiler) compileFunctionCall(fc ast.FunctionCall) (string, error) {
	switch fc.Name {
	case "is_successor_of":
		return c.relateSubquery(fc, "cv.id = (SELECT relate.to_cv FROM compver INNER JOIN relate ON compver.id = relate.from_cv WHERE %s AND relate.name = 'successor')")
	case "is_predecessor_of":
		return c.relateSubquery(fc, "cv.id = (SELECT relate.from_cv FROM compver INNER JOIN relate ON compver.id = relate.to_cv WHERE %s AND relate.name = 'successor')")
	case "is_baseline_project_of":
		return c.relateSubquery(fc, "cv.id = (SELECT relate.to_cv FROM compver INNER JOIN relate ON compver.id = relate.from_cv WHERE %s AND relate.name = 'baseline_project')")
	case "has_baseline_project":
		return c.relateSubquery(fc, "cv.id IN (SELECT relate.from_cv FROM relate INNER JOIN compver ON relate.to_cv = compver.id WHERE %s AND relate.name = 'baseline_project')")
	case "is_child_of":
		return c.isChildOf(fc)
	case "is_member_of":
		return c.relateSubquery(fc, "cv.id IN (SELECT cv2.id FROM compver cv1 INNER JOIN bind ON cv1.id = bind.has_asm INNER JOIN compver cv2 ON bind.has_child = cv2.id WHERE %s)")
	case "has_member":
		return c.relateSubquery(fc, "cv.id IN (SELECT cv1.id FROM bind INNER JOIN compver cv1 ON bind.has_asm = cv1.id INNER JOIN compver cv2 ON bind.has_child = cv2.id WHERE %s)")
	default:
		return "", fmt.Errorf("query: unrecognised function %q", fc.Name)
	}
}

// relateSubquery handles the single-fpn-argument functions whose subquery
// filters on one compver identity. is_member_of pins the assembly side
// (cv1) and has_member pins the child side (cv2) of the bind join.
func (c *compiler) relateSubquery(fc ast.FunctionCall, template string) (string, error) {
	if len(fc.Args) != 1 {
		return "", fmt.Errorf("query: %s expects 1 argument, got %d", fc.Name, len(fc.Args))
	}
	fpn, err := escape.ParseFourPartName(fc.Args[0], c.delim)
	if err != nil {
		return "", fmt.Errorf("query: %s: %w", fc.Name, err)
	}

	alias := "compver"
	switch fc.Name {
	case "is_member_of":
		alias = "cv1"
	case "has_member":
		alias = "cv2"
	}
	cond := fmt.Sprintf("%[1]s.name = %[2]s AND %[1]s.version = %[3]s AND %[1]s.cvtype = %[4]s AND %[1]s.subsystem = %[5]s",
		alias, c.bind(fpn.Name), c.bind(fpn.Version), c.bind(fpn.Type), c.bind(fpn.Instance))

	return fmt.Sprintf(template, cond), nil
}

func (c *compiler) isChildOf(fc ast.FunctionCall) (string, error) {
	if len(fc.Args) != 2 {
		return "", fmt.Errorf("query: is_child_of expects 2 arguments, got %d", len(fc.Args))
	}
	fpn, err := escape.ParseFourPartName(fc.Args[0], c.delim)
	if err != nil {
		return "", fmt.Errorf("query: is_child_of: %w", err)
	}
	projectFpn, err := escape.ParseFourPartName(fc.Args[1], c.delim)
	if err != nil {
		return "", fmt.Errorf("query: is_child_of: %w", err)
	}

	cond := fmt.Sprintf(
		"cv1.name = %s AND cv1.version = %s AND cv1.cvtype = %s AND cv1.subsystem = %s AND "+
			"cv2.name = %s AND cv2.version = %s AND cv2.cvtype = %s AND cv2.subsystem = %s",
		c.bind(projectFpn.Name), c.bind(projectFpn.Version), c.bind(projectFpn.Type), c.bind(projectFpn.Instance),
		c.bind(fpn.Name), c.bind(fpn.Version), c.bind(fpn.Type), c.bind(fpn.Instance),
	)

	return fmt.Sprintf("cv.id IN (SELECT bind.has_child FROM bind INNER JOIN compver cv1 ON bind.has_asm = cv1.id INNER JOIN compver cv2 ON bind.has_parent = cv2.id WHERE %s)", cond), nil
}
