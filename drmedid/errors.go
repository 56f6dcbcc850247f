package drmedid

import (
	"fmt"
	"strings"
)

// SourceFormatError means the source text didn't yield any timing modes at
// all, which almost always means the layout of drm_edid.c has changed.
type SourceFormatError struct {
	Arrays  []string // the table names that were searched for
	Tables  int      // how many of those tables were found
	Entries int      // how many entries were found inside them
}

func (e *SourceFormatError) Error() string {
	names := strings.Join(e.Arrays, ", ")
	switch {
	case e.Tables == 0:
		return fmt.Sprintf("no timing table named %s found in source; the upstream format may have changed", names)
	case e.Entries == 0:
		return fmt.Sprintf("found %d timing table(s) among %s but no entries in them; the upstream format may have changed", e.Tables, names)
	default:
		return fmt.Sprintf("none of the %d entries in %s could be parsed; the upstream format may have changed", e.Entries, names)
	}
}

// FieldParseError describes a single table entry that couldn't be turned
// into a timing mode. The entry is skipped and the scan continues.
type FieldParseError struct {
	VIC   int    // zero if the VIC itself couldn't be parsed
	Line  int    // line where the entry starts
	Field string // which part of the entry was at fault
	Token string // the offending text, if any
	Err   error
}

func (e *FieldParseError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "line %d", e.Line)
	if e.VIC != 0 {
		fmt.Fprintf(&b, " (VIC %d)", e.VIC)
	}
	fmt.Fprintf(&b, ": %s", e.Field)
	if e.Token != "" {
		fmt.Fprintf(&b, " %q", e.Token)
	}
	fmt.Fprintf(&b, ": %s", e.Err)
	return b.String()
}

func (e *FieldParseError) Unwrap() error {
	return e.Err
}

// FetchError reports a failure to retrieve the upstream source.
type FetchError struct {
	URL        string
	StatusCode int // zero if no response was received
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("failed to fetch %s: HTTP status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("failed to fetch %s: %s", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
