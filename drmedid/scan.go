// Package drmedid extracts the CTA-861 video format tables from the Linux
// kernel's drivers/gpu/drm/drm_edid.c.
//
// This is not a C parser. It relies on the incidental formatting of that
// one file: each table entry is preceded by a comment naming the VIC and
// ends with a line ending in "},". All of that knowledge lives in this
// file and entry.go, so if the upstream layout changes those are the only
// places that need to follow.
package drmedid

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/apparentlymart/cta-timings/timing"
)

const tableDeclPrefix = "static const struct drm_display_mode"

// Result is the outcome of a successful Parse.
type Result struct {
	// Modes are in the order they appear in the source. They are not
	// deduplicated.
	Modes []timing.TimingMode

	// Skipped lists the entries that were found but rejected.
	Skipped []*FieldParseError
}

// rawEntry is the text of one table entry, joined into a single line.
type rawEntry struct {
	table string
	line  int
	text  strings.Builder
}

// Parse scans the text of drm_edid.c for the tables named in opts and
// returns their entries as timing modes.
//
// An entry that can't be parsed is logged and skipped. If nothing at all
// could be extracted the result is a *SourceFormatError.
func Parse(r io.Reader, opts Options) (*Result, error) {
	log := opts.logger()

	wanted := make(map[string]bool, len(opts.Arrays))
	for _, name := range opts.Arrays {
		wanted[name] = true
	}

	var (
		ret     Result
		current string
		entry   *rawEntry
		lineNum int
		tables  int
		entries int
	)

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		lineNum++
		line := strings.TrimSpace(sc.Text())

		if strings.HasPrefix(line, "};") {
			current = ""
			entry = nil
			continue
		}
		if strings.HasPrefix(line, tableDeclPrefix) {
			if name := tableName(line); wanted[name] {
				log.Debugf("found table %s at line %d", name, lineNum)
				current = name
				tables++
			}
			continue
		}
		if current == "" {
			continue
		}

		switch {
		case strings.HasPrefix(line, "/*"):
			entry = &rawEntry{table: current, line: lineNum}
			entry.text.WriteString(line)
		case entry != nil:
			entry.text.WriteByte(' ')
			entry.text.WriteString(line)
		default:
			// Something between entries that isn't a comment; ignore it.
			continue
		}

		if strings.HasSuffix(line, "},") {
			entries++
			mode, err := parseEntry(entry, &opts)
			if err != nil {
				log.Warnf("skipping entry in %s: %s", entry.table, err)
				ret.Skipped = append(ret.Skipped, err)
			} else {
				ret.Modes = append(ret.Modes, mode)
			}
			entry = nil
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read source: %w", err)
	}

	if len(ret.Modes) == 0 {
		return nil, &SourceFormatError{
			Arrays:  opts.Arrays,
			Tables:  tables,
			Entries: entries,
		}
	}

	log.Infof("parsed %d video modes from %d table(s), skipped %d", len(ret.Modes), tables, len(ret.Skipped))
	return &ret, nil
}

// tableName extracts the array name from a declaration line such as
//
//	static const struct drm_display_mode edid_cea_modes_1[] = {
func tableName(line string) string {
	fields := strings.Fields(strings.TrimPrefix(line, tableDeclPrefix))
	if len(fields) == 0 {
		return ""
	}
	name, _ := partition(fields[0], "[")
	return name
}

func partition(s string, sep string) (l, r string) {
	idx := strings.Index(s, sep)
	if idx == -1 {
		return s, ""
	}
	return s[:idx], s[idx+len(sep):]
}
