package object

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// statusEntryRE extracts the "Status set to '<name>' by" transition name
// from a single status_log line, precompiled since status log parsing is
// regex-heavy.
var statusEntryRE = regexp.MustCompile(`Status set to '(\w+)' by`)

// statusTimeLayout matches the status_log timestamp format "Day Mon DD
// HH:MM:SS YYYY" (Go reference time, space-padded day).
const statusTimeLayout = "Mon Jan _2 15:04:05 2006"

// Status returns the current status parsed from the object's status_log:
// the last log entry's transition name.
func (c *Context) Status(o Object) (string, error) {
	attrs, err := c.Attributes(o)
	if err != nil {
		return "", err
	}
	log, ok := attrString(attrs, "status_log")
	if !ok || log == "" {
		return "", fmt.Errorf("object: id %d has no status_log", o.id)
	}
	entries := strings.Split(log, "\n")
	last := entries[len(entries)-1]
	m := statusEntryRE.FindStringSubmatch(last)
	if m == nil {
		return "", fmt.Errorf("object: id %d status_log's last entry does not match the expected format: %q", o.id, last)
	}
	return m[1], nil
}

// StatusTime walks status_log entries in reverse, parsing each timestamp,
// and returns the time of the most recent entry whose transition matches
// status. The bool result is false when no such transition exists.
func (c *Context) StatusTime(o Object, status string) (time.Time, bool, error) {
	attrs, err := c.Attributes(o)
	if err != nil {
		return time.Time{}, false, err
	}
	log, ok := attrString(attrs, "status_log")
	if !ok || log == "" {
		return time.Time{}, false, nil
	}
	entries := strings.Split(log, "\n")
	for i := len(entries) - 1; i >= 0; i-- {
		entry := entries[i]
		m := statusEntryRE.FindStringSubmatch(entry)
		if m == nil {
			continue
		}
		idx := strings.Index(entry, ": Status set to")
		if idx < 0 {
			continue
		}
		t, err := time.Parse(statusTimeLayout, entry[:idx])
		if err != nil {
			return time.Time{}, false, fmt.Errorf("object: id %d: parse status_log timestamp %q: %w", o.id, entry[:idx], err)
		}
		if m[1] == status {
			return t, true, nil
		}
	}
	return time.Time{}, false, nil
}

// Status is the Object-method convenience form of Context.Status.
func (o Object) Status() (string, error) { return o.ctx.Status(o) }

// StatusTime is the Object-method convenience form of Context.StatusTime.
func (o Object) StatusTime(status string) (time.Time, bool, error) {
	return o.ctx.StatusTime(o, status)
}

// IntegrateTime is the status_time for the canonical "integrate" status
// transition; "integrate" (not "integrated") is used throughout instead
// of the source's inconsistent second spelling.
func (o Object) IntegrateTime() (time.Time, bool, error) {
	return o.StatusTime("integrate")
}
