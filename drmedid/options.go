package drmedid

import (
	"github.com/q191201771/naza/pkg/nazalog"
)

// DefaultArrays are the drm_edid.c tables holding the CTA-861 formats.
// edid_cea_modes_1 covers VICs 1 to 127 and edid_cea_modes_193 covers 193
// upwards.
var DefaultArrays = []string{"edid_cea_modes_1", "edid_cea_modes_193"}

// Logger is the subset of nazalog.Logger used here.
type Logger interface {
	Debugf(format string, v ...interface{})
	Infof(format string, v ...interface{})
	Warnf(format string, v ...interface{})
}

type Options struct {
	// Arrays names the tables to extract, in any order. Modes are returned
	// in source order regardless.
	Arrays []string

	// LineCounts maps a VIC to its "Ln" value. VICs not listed get 1.
	LineCounts map[int]int

	// Logger receives skipped-entry and refresh mismatch warnings. nil means the
	// global nazalog logger.
	Logger Logger
}

func DefaultOptions() Options {
	return Options{
		Arrays:     append([]string(nil), DefaultArrays...),
		LineCounts: DefaultLineCounts(),
	}
}

// DefaultLineCounts is CTA-861-I Table 1's "Ln" column for the formats
// where it isn't 1.
func DefaultLineCounts() map[int]int {
	ret := make(map[int]int)
	for _, vic := range []int{6, 7, 8, 9, 10, 11, 12, 13, 50, 51, 58, 59} {
		ret[vic] = 4
	}
	for _, vic := range []int{2, 3, 14, 15, 35, 36, 48, 49, 56, 57} {
		ret[vic] = 7
	}
	return ret
}

func (o *Options) lineCount(vic int) int {
	if ln, ok := o.LineCounts[vic]; ok {
		return ln
	}
	return 1
}

func (o *Options) logger() Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return nazalog.GetGlobalLogger()
}
