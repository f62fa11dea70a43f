package object

import (
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/alitto/pond"
)

// ExportResult is one file's extraction outcome.
type ExportResult struct {
	Object Object
	Path   string
	Err    error
}

// ExportFiles extracts many historical file revisions concurrently into
// destDir, one archive.Reader per file since archive readers are not
// shareable across goroutines and each worker opens its own, for the
// bulk-extraction need diff_project_structure / CLI diff surfaces on
// large trees. Uses a worker pool the same way GitFile.CreateArchiveFile
// pools concurrent blob materialisation.
func (c *Context) ExportFiles(objects []Object, destDir string) []ExportResult {
	pool := pond.New(runtime.NumCPU(), 0, pond.MinWorkers(4))
	defer pool.StopAndWait()

	results := make([]ExportResult, len(objects))
	var mu sync.Mutex

	for i, obj := range objects {
		i, obj := i, obj
		pool.Submit(func() {
			data, err := c.Data(obj)
			if err != nil {
				mu.Lock()
				results[i] = ExportResult{Object: obj, Err: err}
				mu.Unlock()
				return
			}

			fourPartName, fpnErr := obj.FourPartName()
			if fpnErr != nil {
				mu.Lock()
				results[i] = ExportResult{Object: obj, Err: fpnErr}
				mu.Unlock()
				return
			}
			path := filepath.Join(destDir, sanitizeFileName(fourPartName))

			writeErr := os.WriteFile(path, data, 0644)
			mu.Lock()
			results[i] = ExportResult{Object: obj, Path: path, Err: writeErr}
			mu.Unlock()
		})
	}

	return results
}

func sanitizeFileName(name string) string {
	out := make([]rune, 0, len(name))
	for _, r := range name {
		switch r {
		case '/', '\\', ':':
			out = append(out, '_')
		default:
			out = append(out, r)
		}
	}
	return string(out)
}
