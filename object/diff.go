package object

import "fmt"

// UpdatedPair is one partial-name match whose full identity differs
// between the two projects being diffed.
type UpdatedPair struct {
	From Object
	To   Object
}

// ProjectDiff classifies a project's members by partial name
// (instance/type/name): intersecting
// partial names with different full identities are Updated; partial
// names only in the second project are Added; only in the first are
// Removed; identical full identities are Unchanged.
type ProjectDiff struct {
	Updated   []UpdatedPair
	Added     []Object
	Removed   []Object
	Unchanged []Object
}

// DiffProjectStructure computes a ProjectDiff between two projects'
// structures.
func (c *Context) DiffProjectStructure(projectA, projectB Object) (ProjectDiff, error) {
	structureA, _, err := c.Structure(projectA)
	if err != nil {
		return ProjectDiff{}, err
	}
	structureB, _, err := c.Structure(projectB)
	if err != nil {
		return ProjectDiff{}, err
	}

	partNamesA := make(map[string]Object, len(structureA))
	for obj := range structureA {
		name, err := obj.PartName()
		if err != nil {
			return ProjectDiff{}, err
		}
		partNamesA[name] = obj
	}
	partNamesB := make(map[string]Object, len(structureB))
	for obj := range structureB {
		name, err := obj.PartName()
		if err != nil {
			return ProjectDiff{}, err
		}
		partNamesB[name] = obj
	}

	var diff ProjectDiff
	for name, objA := range partNamesA {
		objB, ok := partNamesB[name]
		if !ok {
			diff.Removed = append(diff.Removed, objA)
			continue
		}
		if !objA.Equal(objB) {
			diff.Updated = append(diff.Updated, UpdatedPair{From: objA, To: objB})
		}
	}
	for name, objB := range partNamesB {
		if _, ok := partNamesA[name]; !ok {
			diff.Added = append(diff.Added, objB)
		}
	}
	for objA := range structureA {
		if _, ok := structureB[objA]; ok {
			diff.Unchanged = append(diff.Unchanged, objA)
		}
	}

	return diff, nil
}

// String renders a human-readable summary, used by the CLI "diff"
// subcommand's plain-text output mode.
func (d ProjectDiff) String() string {
	return fmt.Sprintf("updated=%d added=%d removed=%d unchanged=%d",
		len(d.Updated), len(d.Added), len(d.Removed), len(d.Unchanged))
}
