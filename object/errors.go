package object

import "fmt"

// errObjectNotFound reports a compver row disappearing between a caller's
// ID and a subsequent lookup; this is a Programmer-class error since
// object IDs are only ever handed out by a prior lookup.
func errObjectNotFound(id int64) error {
	return fmt.Errorf("object: id %d has no compver row", id)
}
