package object

// Relateds partitions an object's relate-table edges by direction, then by
// relation name.
type Relateds struct {
	From map[string][]Object
	To   map[string][]Object
}

// RelatedFrom returns the objects on the "from" side of relation edges
// pointing to o (rel.to_cv = o.id).
func (c *Context) RelatedFrom(o Object, relation string) ([]Object, error) {
	rows, err := c.store.Query(
		`SELECT cv.id, cv.cvtype FROM relate rel INNER JOIN compver cv ON rel.from_cv = cv.id WHERE rel.to_cv = ? AND rel.name = ?`,
		o.id, relation)
	if err != nil {
		return nil, err
	}
	return c.constructAll(rows)
}

// RelatedTo returns the objects on the "to" side of relation edges
// originating from o (rel.from_cv = o.id).
func (c *Context) RelatedTo(o Object, relation string) ([]Object, error) {
	rows, err := c.store.Query(
		`SELECT cv.id, cv.cvtype FROM relate rel INNER JOIN compver cv ON rel.to_cv = cv.id WHERE rel.from_cv = ? AND rel.name = ?`,
		o.id, relation)
	if err != nil {
		return nil, err
	}
	return c.constructAll(rows)
}

// RelatedAll returns every relate edge touching o, partitioned by
// direction and relation name.
func (c *Context) RelatedAll(o Object) (Relateds, error) {
	rows, err := c.store.Query(
		`SELECT 'to' AS direction, rel.name, cv.id, cv.cvtype FROM relate rel INNER JOIN compver cv ON rel.to_cv = cv.id WHERE rel.from_cv = ?
		 UNION
		 SELECT 'from' AS direction, rel.name, cv.id, cv.cvtype FROM relate rel INNER JOIN compver cv ON rel.from_cv = cv.id WHERE rel.to_cv = ?`,
		o.id, o.id)
	if err != nil {
		return Relateds{}, err
	}

	out := Relateds{From: map[string][]Object{}, To: map[string][]Object{}}
	for _, row := range rows {
		direction, _ := row["direction"].(string)
		relName, _ := row["name"].(string)
		oid, cvtype, err := scanCompverRow(row)
		if err != nil {
			return Relateds{}, err
		}
		obj := c.construct(oid, cvtype)
		switch direction {
		case "to":
			out.To[relName] = append(out.To[relName], obj)
		case "from":
			out.From[relName] = append(out.From[relName], obj)
		}
	}
	return out, nil
}

// BoundChildren returns the compver children bound under parent within
// assembly asm.
func (c *Context) BoundChildren(asm, parent Object) ([]Object, error) {
	rows, err := c.store.Query(
		`SELECT cv.id, cv.cvtype FROM bind INNER JOIN compver cv ON bind.has_child = cv.id WHERE bind.has_asm = ? AND bind.has_parent = ?`,
		asm.id, parent.id)
	if err != nil {
		return nil, err
	}
	return c.constructAll(rows)
}

// ContentsDir returns the distinct, sorted directory-entry names recorded
// for a directory object; callers diff two snapshots by name, so the
// ordering is made deterministic here. Internal /dir/ bookkeeping rows are
// suppressed — they track the directory object itself, not a listing entry.
func (c *Context) ContentsDir(o Object) ([]string, error) {
	rows, err := c.store.Query(`SELECT bsite.info FROM bsite WHERE bsite.is_bsite_of = ? AND bsite.info NOT LIKE '%/dir/%' ORDER BY bsite.info`, o.id)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(rows))
	out := make([]string, 0, len(rows))
	for _, row := range rows {
		info, _ := row["info"].(string)
		if seen[info] {
			continue
		}
		seen[info] = true
		out = append(out, info)
	}
	return out, nil
}

// Successors returns objects reached by the "successor" relation pointing
// away from o (available to every cvtype).
func (c *Context) Successors(o Object) ([]Object, error) {
	return c.RelatedTo(o, "successor")
}

// Predecessors returns objects reached by the "successor" relation
// pointing at o.
func (c *Context) Predecessors(o Object) ([]Object, error) {
	return c.RelatedFrom(o, "successor")
}
