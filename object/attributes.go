package object

import (
	"github.com/ccm-backup-reader/ccmbackup/escape"
)

// compverAttrNames is the fixed set of compver columns exposed as
// attributes alongside the attrib table rows.
var compverAttrNames = []string{
	"create_time", "cvtype", "is_asm", "is_model", "modify_time",
	"name", "owner", "release", "status", "subsystem", "version",
}

// Attributes merges an object's attrib rows with the fixed compver column
// set and a synthesised "release" attribute. String-valued cells are run
// through escape.DecodeTextval; everything else (ints, nil) passes
// through unchanged.
func (c *Context) Attributes(o Object) (map[string]interface{}, error) {
	attrs := make(map[string]interface{})

	rows, err := c.store.Query(`SELECT attrib.name, attrib.textval FROM attrib WHERE attrib.is_attr_of = ?`, o.id)
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		name, _ := row["name"].(string)
		if textval, ok := row["textval"].(string); ok {
			v, err := escape.DecodeTextval(textval)
			if err != nil {
				return nil, err
			}
			attrs[name] = v
		} else {
			attrs[name] = row["textval"]
		}
	}

	cvRows, err := c.store.Query(
		`SELECT create_time, cvtype, is_asm, is_model, modify_time, name, owner, release, status, subsystem, version FROM compver WHERE id = ?`, o.id)
	if err != nil {
		return nil, err
	}
	if len(cvRows) == 0 {
		return nil, errObjectNotFound(o.id)
	}
	cv := cvRows[0]
	for _, col := range compverAttrNames {
		if s, ok := cv[col].(string); ok {
			v, err := escape.DecodeTextval(s)
			if err != nil {
				return nil, err
			}
			attrs[col] = v
		} else {
			attrs[col] = cv[col]
		}
	}

	if rel, ok, err := c.ReleaseFromObject(o); err != nil {
		return nil, err
	} else if ok {
		name, err := rel.Name()
		if err != nil {
			return nil, err
		}
		attrs["release"] = escape.Value{Kind: escape.KindString, Raw: name, Str: name}
	}

	return attrs, nil
}

// Attribute fetches a single attribute by name.
func (c *Context) Attribute(o Object, name string) (interface{}, bool, error) {
	attrs, err := c.Attributes(o)
	if err != nil {
		return nil, false, err
	}
	v, ok := attrs[name]
	return v, ok, nil
}

// Attributes is the Object-method convenience form of Context.Attributes.
func (o Object) Attributes() (map[string]interface{}, error) {
	return o.ctx.Attributes(o)
}

// Attribute is the Object-method convenience form of Context.Attribute.
func (o Object) Attribute(name string) (interface{}, bool, error) {
	return o.ctx.Attribute(o, name)
}

// attrString extracts the decoded string form of a string/long-text
// attribute value, the shape status_log and source are stored as.
func attrString(attrs map[string]interface{}, name string) (string, bool) {
	v, ok := attrs[name]
	if !ok {
		return "", false
	}
	switch val := v.(type) {
	case escape.Value:
		if val.Kind == escape.KindString || val.Kind == escape.KindLongText {
			return val.Str, true
		}
		return "", false
	case string:
		return val, true
	default:
		return "", false
	}
}
