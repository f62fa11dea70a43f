package object

import (
	"fmt"
	"strings"

	"github.com/ccm-backup-reader/ccmbackup/node"
)

// Structure builds a project's object->path map by depth-first walk of
// the bind table from the project root, recursing into directory
// children. There is no cycle protection: bind is a tree by
// construction. The accompanying
// node.Node lets callers list or look up paths the way the CLI "list"
// command needs to, built by inserting every member's relative
// path into a path tree.
func (c *Context) Structure(project Object) (map[Object]string, *node.Node, error) {
	if project.cvtype != "project" {
		return nil, nil, fmt.Errorf("object: cvtype %q has no Structure view", project.cvtype)
	}

	c.log.WithField("project", project.id).Debug("reconstructing project structure")

	structure := make(map[Object]string)
	tree := node.NewNode("", false)

	insert := func(o Object, path string) {
		structure[o] = path
		relPath := strings.TrimPrefix(path, "/")
		if o.cvtype == "dir" {
			// directories are recorded as path segments implicitly by their
			// children; record a marker file so empty directories are still
			// discoverable via node.GetFiles.
			tree.AddFile(relPath + "/.")
		} else {
			tree.AddFile(relPath)
		}
	}

	children, err := c.BoundChildren(project, project)
	if err != nil {
		return nil, nil, err
	}
	for _, child := range children {
		name, err := child.Name()
		if err != nil {
			return nil, nil, err
		}
		insert(child, "/"+name)
	}

	work := append([]Object{}, children...)
	for len(work) > 0 {
		current := work[len(work)-1]
		work = work[:len(work)-1]
		if current.cvtype != "dir" {
			continue
		}

		kids, err := c.BoundChildren(project, current)
		if err != nil {
			return nil, nil, err
		}
		for _, kid := range kids {
			name, err := kid.Name()
			if err != nil {
				return nil, nil, err
			}
			insert(kid, structure[current]+"/"+name)
		}
		work = append(work, kids...)
	}

	return structure, tree, nil
}

// Structure is the Object-method convenience form of Context.Structure.
func (o Object) Structure() (map[Object]string, *node.Node, error) {
	return o.ctx.Structure(o)
}
