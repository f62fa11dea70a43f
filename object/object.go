package object

import (
	"fmt"
	"strings"

	"github.com/ccm-backup-reader/ccmbackup/escape"
)

// Object is a lazy reference to one compver row: just enough to resolve
// everything else (attributes, relations, status) through its Context.
// There is no per-cvtype hierarchy; the cvtype tag drives dispatch in
// capabilities.go.
type Object struct {
	ctx    *Context
	id     int64
	cvtype string
}

// ID is the object's compver.id.
func (o Object) ID() int64 { return o.id }

// CVType is the object's compver.cvtype tag.
func (o Object) CVType() string { return o.cvtype }

// Equal compares objects by identity.
func (o Object) Equal(other Object) bool { return o.id == other.id }

// FPN fetches the object's four-part name fields from compver.
func (o Object) FPN() (escape.FourPartName, error) {
	rows, err := o.ctx.store.Query(
		`SELECT name, version, cvtype, subsystem FROM compver WHERE id = ?`, o.id)
	if err != nil {
		return escape.FourPartName{}, err
	}
	if len(rows) == 0 {
		return escape.FourPartName{}, fmt.Errorf("object: id %d has no compver row", o.id)
	}
	row := rows[0]
	name, _ := row["name"].(string)
	version, _ := row["version"].(string)
	cvtype, _ := row["cvtype"].(string)
	subsystem, _ := row["subsystem"].(string)
	return escape.FourPartName{Name: name, Version: version, Type: cvtype, Instance: subsystem}, nil
}

// Name is the object's compver.name.
func (o Object) Name() (string, error) {
	fpn, err := o.FPN()
	return fpn.Name, err
}

// Version is the object's compver.version.
func (o Object) Version() (string, error) {
	fpn, err := o.FPN()
	return fpn.Version, err
}

// Instance is the object's compver.subsystem.
func (o Object) Instance() (string, error) {
	fpn, err := o.FPN()
	return fpn.Instance, err
}

// FourPartName renders the canonical "name<delim>version:type:instance"
// identity string.
func (o Object) FourPartName() (string, error) {
	delim, err := o.ctx.Delim()
	if err != nil {
		return "", err
	}
	fpn, err := o.FPN()
	if err != nil {
		return "", err
	}
	return fpn.String(delim), nil
}

// FullName renders "instance/type/name/version".
func (o Object) FullName() (string, error) {
	fpn, err := o.FPN()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s/%s/%s/%s", fpn.Instance, fpn.Type, fpn.Name, fpn.Version), nil
}

// PartName renders "instance/type/name" (full name without the version),
// the key diff_project_structure matches on.
func (o Object) PartName() (string, error) {
	full, err := o.FullName()
	if err != nil {
		return "", err
	}
	parts := strings.SplitN(full, "/", 4)
	if len(parts) < 3 {
		return full, nil
	}
	return strings.Join(parts[:3], "/"), nil
}

// String implements fmt.Stringer for debugging/logging.
func (o Object) String() string {
	fpn, err := o.FourPartName()
	if err != nil {
		return fmt.Sprintf("<Object(%d, <error: %v>)>", o.id, err)
	}
	return fmt.Sprintf("<Object(%d, %s)>", o.id, fpn)
}

// ObjectByID resolves an object by its compver.id, reporting presence
// separately from error as a Lookup error kind.
func (c *Context) ObjectByID(id int64) (Object, bool, error) {
	rows, err := c.store.Query(`SELECT cv.id, cv.cvtype FROM compver cv WHERE cv.id = ?`, id)
	if err != nil {
		return Object{}, false, err
	}
	if len(rows) == 0 {
		return Object{}, false, nil
	}
	oid, cvtype, err := scanCompverRow(rows[0])
	if err != nil {
		return Object{}, false, err
	}
	return c.construct(oid, cvtype), true, nil
}

// ObjectByFPN resolves an object by its four-part-name string.
func (c *Context) ObjectByFPN(fourPartName string) (Object, bool, error) {
	delim, err := c.Delim()
	if err != nil {
		return Object{}, false, err
	}
	fpn, err := escape.ParseFourPartName(fourPartName, delim)
	if err != nil {
		return Object{}, false, err
	}
	return c.objectByFPNParts(fpn)
}

func (c *Context) objectByFPNParts(fpn escape.FourPartName) (Object, bool, error) {
	rows, err := c.store.Query(
		`SELECT cv.id, cv.cvtype FROM compver cv WHERE cv.name = ? AND cv.version = ? AND cv.cvtype = ? AND cv.subsystem = ?`,
		fpn.Name, fpn.Version, fpn.Type, fpn.Instance)
	if err != nil {
		return Object{}, false, err
	}
	if len(rows) == 0 {
		return Object{}, false, nil
	}
	oid, cvtype, err := scanCompverRow(rows[0])
	if err != nil {
		return Object{}, false, err
	}
	return c.construct(oid, cvtype), true, nil
}

// ObjectByFullName resolves an object given "instance/type/name/version".
func (c *Context) ObjectByFullName(fullName string) (Object, bool, error) {
	parts := strings.SplitN(fullName, "/", 4)
	if len(parts) != 4 {
		return Object{}, false, fmt.Errorf("object: full name %q is not instance/type/name/version", fullName)
	}
	fpn := escape.FourPartName{Instance: parts[0], Type: parts[1], Name: parts[2], Version: parts[3]}
	return c.objectByFPNParts(fpn)
}

// ObjectsByPartialName resolves every version of "instance/type/name".
func (c *Context) ObjectsByPartialName(partialName string) ([]Object, error) {
	parts := strings.SplitN(partialName, "/", 3)
	if len(parts) != 3 {
		return nil, fmt.Errorf("object: partial name %q is not instance/type/name", partialName)
	}
	instance, cvtype, name := parts[0], parts[1], parts[2]
	rows, err := c.store.Query(
		`SELECT cv.id, cv.cvtype FROM compver cv WHERE cv.name = ? AND cv.cvtype = ? AND cv.subsystem = ?`,
		name, cvtype, instance)
	if err != nil {
		return nil, err
	}
	return c.constructAll(rows)
}

func (c *Context) constructAll(rows []map[string]interface{}) ([]Object, error) {
	out := make([]Object, 0, len(rows))
	for _, row := range rows {
		oid, cvtype, err := scanCompverRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, c.construct(oid, cvtype))
	}
	return out, nil
}

// Release is a lazy reference to one release row.
type Release struct {
	ctx *Context
	id  int64
}

// ID is the release's row id.
func (r Release) ID() int64 { return r.id }

// Name fetches the release's display name.
func (r Release) Name() (string, error) {
	rows, err := r.ctx.store.Query(`SELECT name FROM release WHERE id = ?`, r.id)
	if err != nil {
		return "", err
	}
	if len(rows) == 0 {
		return "", fmt.Errorf("object: release %d not found", r.id)
	}
	name, _ := rows[0]["name"].(string)
	return name, nil
}

// ReleaseFromObject resolves the release an object belongs to via
// compver.is_product.
func (c *Context) ReleaseFromObject(o Object) (Release, bool, error) {
	rows, err := c.store.Query(
		`SELECT r.id FROM compver cv INNER JOIN release r ON cv.is_product = r.id WHERE cv.id = ?`, o.id)
	if err != nil {
		return Release{}, false, err
	}
	if len(rows) == 0 {
		return Release{}, false, nil
	}
	id, _ := asInt64(rows[0]["id"])
	return Release{ctx: c, id: id}, true, nil
}

// ObjectsByRelease resolves every object belonging to a release.
func (c *Context) ObjectsByRelease(r Release) ([]Object, error) {
	rows, err := c.store.Query(`SELECT cv.id, cv.cvtype FROM compver cv WHERE cv.is_product = ?`, r.id)
	if err != nil {
		return nil, err
	}
	return c.constructAll(rows)
}

// Release resolves the object's release.
func (o Object) Release() (Release, bool, error) {
	return o.ctx.ReleaseFromObject(o)
}
