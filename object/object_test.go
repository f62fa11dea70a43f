package object

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ccm-backup-reader/ccmbackup/dump/dumpfixture"
	"github.com/ccm-backup-reader/ccmbackup/store"
)

// addCompver appends one full 37-column compver record: the fixed
// identity/ownership columns, then 20 unused acc_key columns, matching
// store.schema0114's column order exactly.
func addCompver(cv *dumpfixture.TableBuilder, id int64, subsystem, cvtype, name, version string, isProduct int64, hasIsProduct bool) {
	r := cv.Record().
		Int(id).Str("n/a").Int(0).Int(0).Str("admin"). // id,status,create_time,modify_time,owner
		Int(0).Int(0).Str(subsystem).Str(cvtype).Str(name).Str(version) // is_asm,is_model,subsystem,cvtype,name,version

	if hasIsProduct {
		r = r.Int(isProduct)
	} else {
		r = r.Null("in")
	}
	r = r.Null("in").Null("in") // ui_info, release
	r = r.Null("in").Null("in").Null("in") // has_cvtype, has_model, has_super_type
	for i := 0; i < 20; i++ {
		r = r.Null("in")
	}
	r.End()
}

// buildFixture assembles a tiny project/dir/file/task graph:
//
//	project(1) -[bind]-> dir(2) -[bind]-> file(3, cvtype "ascii")
//	project(1) -[task_in_rp]-> task(4) -[associated_cv]-> file(3)
//	project(1) -[baseline_project]-> project(5)
//	release(1) "Rel1" owns project(1) via is_product
func buildFixture(t *testing.T) *Context {
	t.Helper()

	b := dumpfixture.NewBuilder().Version("1").Platform("linux").SchemaVersion("0114")

	rel := b.Table("release")
	rel.Record().Int(1).Str("Rel1").End()
	rel.End()

	cv := b.Table("compver")
	addCompver(cv, 1, "app", "project", "proj1", "1", 1, true)
	addCompver(cv, 2, "app", "dir", "src", "1", 0, false)
	addCompver(cv, 3, "app", "ascii", "a.c", "1", 0, false)
	addCompver(cv, 4, "app", "task", "t1", "1", 0, false)
	addCompver(cv, 5, "app", "project", "proj1", "0", 0, false)
	cv.Record(). // the distinguished delimiter-bearing model object, base~1:model:base
			Int(100).Str("working").Int(0).Int(0).Str("admin").
			Int(0).Int(1).Str("base").Str("model").Str("base").Str("1").
			Null("in").Null("in").Null("in").
			Null("in").Null("in").Null("in").
			Null("in").Null("in").Null("in").Null("in").Null("in").Null("in").Null("in").Null("in").Null("in").Null("in").
			Null("in").Null("in").Null("in").Null("in").Null("in").Null("in").Null("in").Null("in").Null("in").Null("in").
			End()
	cv.End()

	bind := b.Table("bind")
	bind.Record().Int(1).Null("in").Int(2).Int(1).Int(0).Null("in").Null("in").End() // dir under project
	bind.Record().Int(1).Null("in").Int(3).Int(2).Int(0).Null("in").Null("in").End() // file under dir
	bind.End()

	bsite := b.Table("bsite")
	bsite.Record().Int(10).Str("a.c").Str("app/ascii/a.c").Null("tn").Int(2).Null("in").Null("in").End()
	// internal /dir/ bookkeeping row, suppressed by ContentsDir
	bsite.Record().Int(11).Str("src").Str("app/dir/src").Null("tn").Int(2).Null("in").Null("in").End()
	bsite.End()

	relate := b.Table("relate")
	relate.Record().Str("task_in_rp").Int(1).Int(4).Int(0).End()
	relate.Record().Str("baseline_project").Int(1).Int(5).Int(0).End()
	relate.Record().Str("associated_cv").Int(4).Int(3).Int(0).End() // task(4) <-> file(3)
	relate.End()

	attrib := b.Table("attrib")
	nextAttribID := int64(1000)
	statusLog := func(ownerID int64, status string) {
		nextAttribID++
		attrib.Record().Int(nextAttribID).Str("status_log").Int(0).
			Str("Thu Jan 01 00:00:00 2026: Status set to '" + status + "' by admin").
			Null("sn").Null("sn").Null("in").Null("fn").Int(ownerID).Null("in").End()
	}
	statusLog(1, "integrate")
	statusLog(2, "integrate")
	statusLog(3, "integrate")
	// source goes over the wire as a tx cell with \* newline escapes; the
	// parser's default-alphabet unescape restores the three-line form.
	attrib.Record().Int(900).Str("source").Int(0).
		Text(`ccm_delta\*1\*some/archive/path`).
		Null("sn").Null("sn").Null("in").Null("fn").Int(3).Null("in").End()
	// the delimiter attribute carries its value in strval; textval is null
	attrib.Record().Int(1).Str("delimiter").Int(0).Null("tn").Null("bn").
		Str("~").Null("in").Null("fn").Int(100).Null("in").End()
	attrib.End()

	dir := t.TempDir()
	dumpPath := filepath.Join(dir, "dbdump.txt")
	require.NoError(t, os.WriteFile(dumpPath, []byte(b.String()), 0644))

	writeFileArchive(t, filepath.Join(dir, "st_root", "some", "archive", "path"))

	imagePath := filepath.Join(dir, "DBdump.sqlite3")
	s, err := store.Ingest(logrus.New(), dumpPath, imagePath)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	return NewContext(logrus.New(), s, dir)
}

// writeFileArchive builds the delta archive file(3)'s source attribute
// points at: a single head revision "1" holding "hello world\n".
func writeFileArchive(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))

	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	w := zip.NewWriter(f)
	defer w.Close()

	mw, err := w.Create("META-INF/ARCHIVE-HEADER")
	require.NoError(t, err)
	_, err = mw.Write([]byte(`<archive><entry><fullName>1</fullName></entry></archive>`))
	require.NoError(t, err)

	dw, err := w.Create("1")
	require.NoError(t, err)
	_, err = dw.Write([]byte("hello world\n"))
	require.NoError(t, err)
}

func TestObjectByIDAndFPN(t *testing.T) {
	ctx := buildFixture(t)

	obj, ok, err := ctx.ObjectByID(2)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "dir", obj.CVType())

	name, err := obj.Name()
	require.NoError(t, err)
	assert.Equal(t, "src", name)

	fpn, err := obj.FourPartName()
	require.NoError(t, err)
	assert.Equal(t, "src~1:dir:app", fpn)

	found, ok, err := ctx.ObjectByFPN("src~1:dir:app")
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, found.Equal(obj))

	full, err := obj.FullName()
	require.NoError(t, err)
	assert.Equal(t, "app/dir/src/1", full)

	part, err := obj.PartName()
	require.NoError(t, err)
	assert.Equal(t, "app/dir/src", part)
}

func TestObjectsByPartialName(t *testing.T) {
	ctx := buildFixture(t)
	objs, err := ctx.ObjectsByPartialName("app/dir/src")
	require.NoError(t, err)
	require.Len(t, objs, 1)
	assert.Equal(t, int64(2), objs[0].ID())
}

func TestAttributesMergesCompverAndAttrib(t *testing.T) {
	ctx := buildFixture(t)
	project, _, err := ctx.ObjectByID(1)
	require.NoError(t, err)

	attrs, err := ctx.Attributes(project)
	require.NoError(t, err)

	releaseName, ok := attrString(attrs, "release")
	require.True(t, ok)
	assert.Equal(t, "Rel1", releaseName)

	name, ok := attrString(attrs, "name")
	require.True(t, ok)
	assert.Equal(t, "proj1", name)
}

func TestReleaseFromObject(t *testing.T) {
	ctx := buildFixture(t)
	project, _, err := ctx.ObjectByID(1)
	require.NoError(t, err)

	rel, ok, err := ctx.ReleaseFromObject(project)
	require.NoError(t, err)
	require.True(t, ok)

	name, err := rel.Name()
	require.NoError(t, err)
	assert.Equal(t, "Rel1", name)
}

func TestStatusAndStatusTime(t *testing.T) {
	ctx := buildFixture(t)
	dirObj, ok, err := ctx.ObjectByID(2)
	require.NoError(t, err)
	require.True(t, ok)

	status, err := ctx.Status(dirObj)
	require.NoError(t, err)
	assert.Equal(t, "integrate", status)

	at, ok, err := ctx.StatusTime(dirObj, "integrate")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 2026, at.Year())

	_, ok, err = ctx.StatusTime(dirObj, "released")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestBoundChildrenAndStructure(t *testing.T) {
	ctx := buildFixture(t)
	project, _, err := ctx.ObjectByID(1)
	require.NoError(t, err)

	structure, tree, err := ctx.Structure(project)
	require.NoError(t, err)
	require.Len(t, structure, 2)

	dirObj, _, _ := ctx.ObjectByID(2)
	fileObj, _, _ := ctx.ObjectByID(3)
	assert.Equal(t, "/src", structure[dirObj])
	assert.Equal(t, "/src/a.c", structure[fileObj])
	assert.True(t, tree.FindFile("src/a.c"))
}

func TestContentsSuppressesDirBookkeepingRows(t *testing.T) {
	ctx := buildFixture(t)
	dirObj, ok, err := ctx.ObjectByID(2)
	require.NoError(t, err)
	require.True(t, ok)

	contents, err := ctx.Contents(dirObj)
	require.NoError(t, err)
	assert.Equal(t, []string{"app/ascii/a.c"}, contents)
}

func TestTasksDispatchByCVType(t *testing.T) {
	ctx := buildFixture(t)
	project, _, err := ctx.ObjectByID(1)
	require.NoError(t, err)

	tasks, err := ctx.Tasks(project)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, int64(4), tasks[0].ID())

	_, err = ctx.Tasks(tasks[0])
	assert.Error(t, err)
}

func TestTasksDispatchOnContentTypeCVType(t *testing.T) {
	ctx := buildFixture(t)
	fileObj, ok, err := ctx.ObjectByID(3)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "ascii", fileObj.CVType())

	tasks, err := ctx.Tasks(fileObj)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, int64(4), tasks[0].ID())
}

func TestSourceInfoOnContentTypeCVType(t *testing.T) {
	ctx := buildFixture(t)
	fileObj, ok, err := ctx.ObjectByID(3)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "ascii", fileObj.CVType())

	kind, version, archivePath, err := ctx.SourceInfo(fileObj)
	require.NoError(t, err)
	assert.Equal(t, "ccm_delta", kind)
	assert.Equal(t, "1", version)
	assert.Equal(t, "some/archive/path", archivePath)
}

func TestRelatedAllPartitionsByDirection(t *testing.T) {
	ctx := buildFixture(t)
	fileObj, _, err := ctx.ObjectByID(3)
	require.NoError(t, err)

	rel, err := ctx.RelatedAll(fileObj)
	require.NoError(t, err)
	require.Len(t, rel.From["associated_cv"], 1)
	assert.Equal(t, int64(4), rel.From["associated_cv"][0].ID())
	assert.Empty(t, rel.To)
}

func TestDataExtractsFromDeltaArchive(t *testing.T) {
	ctx := buildFixture(t)
	fileObj, ok, err := ctx.ObjectByID(3)
	require.NoError(t, err)
	require.True(t, ok)

	data, err := ctx.Data(fileObj)
	require.NoError(t, err)
	assert.Equal(t, "hello world\n", string(data))
}

func TestExportFiles(t *testing.T) {
	ctx := buildFixture(t)
	fileObj, _, err := ctx.ObjectByID(3)
	require.NoError(t, err)

	destDir := t.TempDir()
	results := ctx.ExportFiles([]Object{fileObj}, destDir)
	require.Len(t, results, 1)
	require.NoError(t, results[0].Err)

	data, err := os.ReadFile(results[0].Path)
	require.NoError(t, err)
	assert.Equal(t, "hello world\n", string(data))
}

func TestGetProjectChain(t *testing.T) {
	ctx := buildFixture(t)
	project, _, err := ctx.ObjectByID(1)
	require.NoError(t, err)

	chain, err := ctx.GetProjectChain(project)
	require.NoError(t, err)
	require.Len(t, chain, 2)
	assert.Equal(t, int64(5), chain[0].ID())
	assert.Equal(t, int64(1), chain[1].ID())
}

func TestTaskInProject(t *testing.T) {
	ctx := buildFixture(t)
	project, _, err := ctx.ObjectByID(1)
	require.NoError(t, err)
	task, _, err := ctx.ObjectByID(4)
	require.NoError(t, err)

	in, err := ctx.TaskInProject(project, task)
	require.NoError(t, err)
	assert.True(t, in)
}

func TestVersionAtTimestamp(t *testing.T) {
	ctx := buildFixture(t)
	fileObj, _, err := ctx.ObjectByID(3)
	require.NoError(t, err)

	ts, ok, err := ctx.StatusTime(fileObj, "integrate")
	require.NoError(t, err)
	require.True(t, ok)

	got, ok, err := ctx.VersionAtTimestamp(ts, []Object{fileObj})
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, got.Equal(fileObj))

	_, ok, err = ctx.VersionAtTimestamp(ts.Add(-time.Hour), nil)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDiffProjectStructureUnchangedWhenIdentical(t *testing.T) {
	ctx := buildFixture(t)
	project, _, err := ctx.ObjectByID(1)
	require.NoError(t, err)

	diff, err := ctx.DiffProjectStructure(project, project)
	require.NoError(t, err)
	assert.Empty(t, diff.Added)
	assert.Empty(t, diff.Removed)
	assert.Empty(t, diff.Updated)
	assert.Len(t, diff.Unchanged, 2)
}
