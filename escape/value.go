package escape

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ValueKind tags the dynamic type carried by a decoded attribute textval.
type ValueKind int

const (
	KindString ValueKind = iota
	KindInt
	KindBool
	KindTime
	KindLongText
)

// Value is the tagged-sum representation of a decoded attribute cell. Raw
// is always kept so callers (e.g. the ccm_status scalar function) can
// re-scan the original textval independent of how it was decoded.
type Value struct {
	Kind ValueKind
	Raw  string
	Str  string
	Int  int64
	Bool bool
	Time time.Time
}

// DecodeTextval inspects the two-character type tag at the front of a
// textval (oa/ob/oj/ol) and decodes accordingly; untagged text is returned
// as a plain string.
func DecodeTextval(textval string) (Value, error) {
	v := Value{Raw: textval}

	switch {
	case strings.HasPrefix(textval, "oa"):
		n, err := strconv.ParseInt(textval[2:], 10, 64)
		if err != nil {
			return v, fmt.Errorf("decode oa int textval %q: %w", textval, err)
		}
		v.Kind = KindInt
		v.Int = n
		return v, nil

	case strings.HasPrefix(textval, "ob"):
		v.Kind = KindBool
		v.Bool = textval[2:] == "1"
		return v, nil

	case strings.HasPrefix(textval, "oj"):
		n, err := strconv.ParseInt(textval[2:], 10, 64)
		if err != nil {
			return v, fmt.Errorf("decode oj time textval %q: %w", textval, err)
		}
		v.Kind = KindTime
		v.Time = time.Unix(n, 0).UTC()
		return v, nil

	case strings.HasPrefix(textval, "ol"):
		payload, err := stripOLHeader(textval)
		if err != nil {
			return v, err
		}
		v.Kind = KindLongText
		v.Str = UnescapeOL(payload)
		return v, nil

	default:
		v.Kind = KindString
		v.Str = textval
		return v, nil
	}
}

// stripOLHeader removes the "ol<n>," prefix from a long-text cell, returning
// everything after the comma. n is not validated here; the dump parser
// stops reading continuation lines on the enclosing tx<count> header, not
// on n.
func stripOLHeader(text string) (string, error) {
	if len(text) < 2 || text[:2] != "ol" {
		return "", fmt.Errorf("not an ol cell: %q", text)
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

// FourPartName is the canonical identity name<delim>version:cvtype:subsystem.
type FourPartName struct {
	Name     string
	Version  string
	Type     string
	Instance string
}

// String renders the canonical four-part-name form.
func (f FourPartName) String(delim string) string {
	return f.Name + delim + f.Version + ":" + f.Type + ":" + f.Instance
}

// ParseFourPartName splits a four-part name string on the given delimiter.
func ParseFourPartName(fourPartName, delim string) (FourPartName, error) {
	nameRest := strings.SplitN(fourPartName, delim, 2)
	if len(nameRest) != 2 {
		return FourPartName{}, fmt.Errorf("four-part name %q does not contain delimiter %q", fourPartName, delim)
	}
	parts := strings.SplitN(nameRest[1], ":", 3)
	if len(parts) != 3 {
		return FourPartName{}, fmt.Errorf("four-part name %q missing version:type:instance", fourPartName)
	}
	return FourPartName{Name: nameRest[0], Version: parts[0], Type: parts[1], Instance: parts[2]}, nil
}
