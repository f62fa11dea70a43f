// Higher-level algorithms over the object graph: successor-walk
// filtering, timestamp-based version selection, and task membership.
package object

import (
	"sort"
	"time"
)

// VersionsBetween returns every successor of from reachable by a transitive
// successor walk whose status is "integrate" and whose integrate time lies
// strictly between from's and to's integrate times.
func (c *Context) VersionsBetween(from, to Object) ([]Object, error) {
	timestampFrom, ok, err := c.StatusTime(from, "integrate")
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	timestampTo, ok, err := c.StatusTime(to, "integrate")
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	candidates, err := c.AllSuccessors(from)
	if err != nil {
		return nil, err
	}
	return c.filterIntegrateBetween(candidates, timestampFrom, timestampTo)
}

// VersionsBetweenProjects filters a caller-supplied object set to those
// integrated strictly between two projects' integrate times.
func (c *Context) VersionsBetweenProjects(objects []Object, projectFrom, projectTo Object) ([]Object, error) {
	timestampFrom, ok, err := c.StatusTime(projectFrom, "integrate")
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	timestampTo, ok, err := c.StatusTime(projectTo, "integrate")
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return c.filterIntegrateBetween(objects, timestampFrom, timestampTo)
}

func (c *Context) filterIntegrateBetween(objects []Object, from, to time.Time) ([]Object, error) {
	var out []Object
	for _, o := range objects {
		status, err := c.Status(o)
		if err != nil {
			return nil, err
		}
		if status != "integrate" {
			continue
		}
		t, ok, err := c.StatusTime(o, "integrate")
		if err != nil {
			return nil, err
		}
		if ok && from.Before(t) && t.Before(to) {
			out = append(out, o)
		}
	}
	return out, nil
}

// VersionAtTimestamp picks the candidate whose integrate time best matches
// timestamp: an exact match if one exists, else the nearest strictly
// before, else the nearest strictly after, else none.
func (c *Context) VersionAtTimestamp(timestamp time.Time, candidates []Object) (Object, bool, error) {
	type timedObject struct {
		obj Object
		t   time.Time
	}

	var timed []timedObject
	for _, o := range candidates {
		status, err := c.Status(o)
		if err != nil {
			return Object{}, false, err
		}
		if status != "integrate" && status != "released" {
			continue
		}
		t, ok, err := c.StatusTime(o, "integrate")
		if err != nil {
			return Object{}, false, err
		}
		if !ok {
			continue
		}
		timed = append(timed, timedObject{obj: o, t: t})
	}
	sort.Slice(timed, func(i, j int) bool { return timed[i].t.Before(timed[j].t) })

	for _, to := range timed {
		if to.t.Equal(timestamp) {
			return to.obj, true, nil
		}
	}

	beforeIdx := -1
	for i, to := range timed {
		if to.t.Before(timestamp) {
			beforeIdx = i
		} else {
			break
		}
	}
	if beforeIdx >= 0 {
		return timed[beforeIdx].obj, true, nil
	}

	afterIdx := -1
	for i := len(timed) - 1; i >= 0; i-- {
		if timed[i].t.After(timestamp) {
			afterIdx = i
		} else {
			break
		}
	}
	if afterIdx >= 0 {
		return timed[afterIdx].obj, true, nil
	}

	return Object{}, false, nil
}

// TaskInProject reports whether task is reachable from project: directly
// (project.Tasks), via one of the project's folders, or via the project's
// baseline.
func (c *Context) TaskInProject(project, task Object) (bool, error) {
	tasks, err := c.Tasks(project)
	if err != nil {
		return false, err
	}
	if containsObject(tasks, task) {
		return true, nil
	}

	folders, err := c.Folders(project)
	if err != nil {
		return false, err
	}
	for _, folder := range folders {
		folderTasks, err := c.Tasks(folder)
		if err != nil {
			return false, err
		}
		if containsObject(folderTasks, task) {
			return true, nil
		}
	}

	baseline, ok, err := c.Baseline(project)
	if err != nil {
		return false, err
	}
	if ok {
		baselineTasks, err := c.Tasks(baseline)
		if err != nil {
			return false, err
		}
		if containsObject(baselineTasks, task) {
			return true, nil
		}
	}

	return false, nil
}

// GetProjectChain walks baseline_project edges from end back to the root
// and returns them root-first.
func (c *Context) GetProjectChain(end Object) ([]Object, error) {
	var chain []Object
	current := end
	for {
		chain = append(chain, current)
		next, ok, err := c.BaselineProject(current)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		current = next
	}
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain, nil
}

// ExpandDirectoryChanges resolves added/removed child *names* between two
// directory snapshots into concrete historical objects via
// VersionAtTimestamp, recursing into any added/removed subdirectory.
// A nil oldDir or newDir stands for an absent snapshot side.
func (c *Context) ExpandDirectoryChanges(srcObject Object, oldDir, newDir *Object) ([]Object, error) {
	var objects []Object

	oldContents := map[string]bool{}
	if oldDir != nil {
		names, err := c.Contents(*oldDir)
		if err != nil {
			return nil, err
		}
		for _, n := range names {
			oldContents[n] = true
		}
	}
	newContents := map[string]bool{}
	if newDir != nil {
		names, err := c.Contents(*newDir)
		if err != nil {
			return nil, err
		}
		for _, n := range names {
			newContents[n] = true
		}
	}

	var added, removed []string
	for n := range newContents {
		if !oldContents[n] {
			added = append(added, n)
		}
	}
	for n := range oldContents {
		if !newContents[n] {
			removed = append(removed, n)
		}
	}
	sort.Strings(added)
	sort.Strings(removed)

	timestamp, ok, err := c.StatusTime(srcObject, "integrate")
	if err != nil {
		return nil, err
	}
	if !ok {
		return objects, nil
	}

	expand := func(name string, recurseOld, recurseNew bool) error {
		potentials, err := c.ObjectsByPartialName(name)
		if err != nil {
			return err
		}
		version, ok, err := c.VersionAtTimestamp(timestamp, potentials)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		objects = append(objects, version)
		if version.cvtype == "dir" {
			var oldDir, newDir *Object
			if recurseOld {
				oldDir = &version
			}
			if recurseNew {
				newDir = &version
			}
			recursed, err := c.ExpandDirectoryChanges(srcObject, oldDir, newDir)
			if err != nil {
				return err
			}
			objects = append(objects, recursed...)
		}
		return nil
	}

	for _, name := range added {
		if err := expand(name, false, true); err != nil {
			return nil, err
		}
	}
	for _, name := range removed {
		if err := expand(name, true, false); err != nil {
			return nil, err
		}
	}

	return objects, nil
}

func containsObject(objects []Object, target Object) bool {
	for _, o := range objects {
		if o.Equal(target) {
			return true
		}
	}
	return false
}
