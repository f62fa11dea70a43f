package object

import (
	"fmt"
	"time"
)

// Tasks dispatches to the relation an object's cvtype actually records
// tasks through: projects, folders and baselines own tasks via their own
// relations, while files and directories are pointed at by a task's
// associated_cv edge.
func (c *Context) Tasks(o Object) ([]Object, error) {
	switch o.cvtype {
	case "project":
		return c.RelatedTo(o, "task_in_rp")
	case "folder":
		return c.RelatedTo(o, "task_in_folder")
	case "baseline":
		return c.RelatedTo(o, "task_in_baseline")
	case "dir":
		return c.RelatedFrom(o, "associated_cv")
	default:
		if IsFileKind(o.cvtype) {
			return c.RelatedFrom(o, "associated_cv")
		}
		return nil, fmt.Errorf("object: cvtype %q has no Tasks view", o.cvtype)
	}
}

// Tasks is the Object-method convenience form of Context.Tasks.
func (o Object) Tasks() ([]Object, error) { return o.ctx.Tasks(o) }

// BaselineProject returns a project's baseline project. More than one
// baseline_project edge is a data-integrity violation and reported as an
// error.
func (c *Context) BaselineProject(o Object) (Object, bool, error) {
	if o.cvtype != "project" {
		return Object{}, false, fmt.Errorf("object: cvtype %q has no BaselineProject view", o.cvtype)
	}
	projects, err := c.RelatedTo(o, "baseline_project")
	if err != nil {
		return Object{}, false, err
	}
	if len(projects) == 0 {
		return Object{}, false, nil
	}
	if len(projects) > 1 {
		return Object{}, false, fmt.Errorf("object: id %d has multiple baseline projects", o.id)
	}
	return projects[0], true, nil
}

// BaselineProject is the Object-method convenience form.
func (o Object) BaselineProject() (Object, bool, error) { return o.ctx.BaselineProject(o) }

// Baseline returns the baseline a project belongs to.
func (c *Context) Baseline(o Object) (Object, bool, error) {
	if o.cvtype != "project" {
		return Object{}, false, fmt.Errorf("object: cvtype %q has no Baseline view", o.cvtype)
	}
	baselines, err := c.RelatedFrom(o, "project_in_baseline")
	if err != nil {
		return Object{}, false, err
	}
	if len(baselines) == 0 {
		return Object{}, false, nil
	}
	return baselines[0], true, nil
}

// Baseline is the Object-method convenience form.
func (o Object) Baseline() (Object, bool, error) { return o.ctx.Baseline(o) }

// Folders returns a project's bound folders.
func (c *Context) Folders(o Object) ([]Object, error) {
	if o.cvtype != "project" {
		return nil, fmt.Errorf("object: cvtype %q has no Folders view", o.cvtype)
	}
	return c.RelatedTo(o, "folder_in_rp")
}

// Folders is the Object-method convenience form.
func (o Object) Folders() ([]Object, error) { return o.ctx.Folders(o) }

// Projects returns a folder's associated projects.
func (c *Context) Projects(o Object) ([]Object, error) {
	if o.cvtype != "folder" {
		return nil, fmt.Errorf("object: cvtype %q has no Projects view", o.cvtype)
	}
	return c.RelatedFrom(o, "folder_in_rp")
}

// Projects is the Object-method convenience form.
func (o Object) Projects() ([]Object, error) { return o.ctx.Projects(o) }

// ProcessRuleRelease returns a process rule's release.
func (c *Context) ProcessRuleRelease(o Object) (Object, error) {
	if o.cvtype != "process_rule" {
		return Object{}, fmt.Errorf("object: cvtype %q has no ProcessRuleRelease view", o.cvtype)
	}
	releases, err := c.RelatedFrom(o, "pr_in_release")
	if err != nil {
		return Object{}, err
	}
	if len(releases) == 0 {
		return Object{}, fmt.Errorf("object: process rule %d has no release", o.id)
	}
	return releases[0], nil
}

// ProcessRuleFolders returns a process rule's folders.
func (c *Context) ProcessRuleFolders(o Object) ([]Object, error) {
	if o.cvtype != "process_rule" {
		return nil, fmt.Errorf("object: cvtype %q has no ProcessRuleFolders view", o.cvtype)
	}
	return c.RelatedTo(o, "folder_in_rpt")
}

// ProcessRuleFolderTemplates returns a process rule's folder templates.
func (c *Context) ProcessRuleFolderTemplates(o Object) ([]Object, error) {
	if o.cvtype != "process_rule" {
		return nil, fmt.Errorf("object: cvtype %q has no ProcessRuleFolderTemplates view", o.cvtype)
	}
	return c.RelatedTo(o, "folder_template_in_rpt")
}

// Contents returns a directory's entry-name set.
func (c *Context) Contents(o Object) ([]string, error) {
	if o.cvtype != "dir" {
		return nil, fmt.Errorf("object: cvtype %q has no Contents view", o.cvtype)
	}
	return c.ContentsDir(o)
}

// Contents is the Object-method convenience form.
func (o Object) Contents() ([]string, error) { return o.ctx.Contents(o) }

// CompletedTime returns a task's completed-status timestamp. The bool
// result is false when the task never transitioned to completed.
func (c *Context) CompletedTime(o Object) (time.Time, bool, error) {
	if o.cvtype != "task" {
		return time.Time{}, false, fmt.Errorf("object: cvtype %q has no CompletedTime view", o.cvtype)
	}
	return c.StatusTime(o, "completed")
}

// AssociatedObjects returns a task's associated objects.
func (c *Context) AssociatedObjects(o Object) ([]Object, error) {
	if o.cvtype != "task" {
		return nil, fmt.Errorf("object: cvtype %q has no AssociatedObjects view", o.cvtype)
	}
	return c.RelatedTo(o, "associated_cv")
}

// AssociatedObjects is the Object-method convenience form.
func (o Object) AssociatedObjects() ([]Object, error) { return o.ctx.AssociatedObjects(o) }
