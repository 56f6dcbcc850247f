package drmedid

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/apparentlymart/cta-timings/timing"
)

// An entry looks like this once its lines are joined:
//
//	/* 6 - 720(1440)x480i@60Hz 4:3 */ { DRM_MODE("720x480i",
//	DRM_MODE_TYPE_DRIVER, 13500, 720, 739, 801, 858, 0, 480, 488, 494, 525,
//	0, DRM_MODE_FLAG_NHSYNC | DRM_MODE_FLAG_NVSYNC | DRM_MODE_FLAG_INTERLACE
//	| DRM_MODE_FLAG_DBLCLK), .picture_aspect_ratio = HDMI_PICTURE_ASPECT_4_3, },
//
// The comment carries the VIC, a label and the aspect ratio. The macro
// arguments follow struct drm_display_mode's field order.
const (
	argName = iota
	argType
	argClock
	argHDisplay
	argHSyncStart
	argHSyncEnd
	argHTotal
	argHSkew
	argVDisplay
	argVSyncStart
	argVSyncEnd
	argVTotal
	argVScan
	argFlags

	numArgs
)

const (
	flagPHSync    = "DRM_MODE_FLAG_PHSYNC"
	flagNHSync    = "DRM_MODE_FLAG_NHSYNC"
	flagPVSync    = "DRM_MODE_FLAG_PVSYNC"
	flagNVSync    = "DRM_MODE_FLAG_NVSYNC"
	flagInterlace = "DRM_MODE_FLAG_INTERLACE"
	flagDblClk    = "DRM_MODE_FLAG_DBLCLK"

	modeTypeDriver = "DRM_MODE_TYPE_DRIVER"
	aspectPrefix   = "HDMI_PICTURE_ASPECT_"
)

var knownFlags = map[string]bool{
	flagPHSync:    true,
	flagNHSync:    true,
	flagPVSync:    true,
	flagNVSync:    true,
	flagInterlace: true,
	flagDblClk:    true,
}

// label is what the comment before each entry says about the mode.
type label struct {
	vic        int
	hres       int
	dblHres    int // zero unless the label has the "720(1440)" form
	vres       int
	interlaced bool
	refresh    string
	aspect     string
}

type entryParser struct {
	entry *rawEntry
	vic   int
}

func (p *entryParser) errorf(field, token string, format string, args ...interface{}) *FieldParseError {
	return &FieldParseError{
		VIC:   p.vic,
		Line:  p.entry.line,
		Field: field,
		Token: token,
		Err:   fmt.Errorf(format, args...),
	}
}

func (p *entryParser) atoi(field, token string) (int, *FieldParseError) {
	v, err := strconv.Atoi(strings.TrimSpace(token))
	if err != nil {
		var numErr *strconv.NumError
		if errors.As(err, &numErr) {
			err = numErr.Err
		}
		return 0, &FieldParseError{VIC: p.vic, Line: p.entry.line, Field: field, Token: token, Err: err}
	}
	return v, nil
}

func parseEntry(entry *rawEntry, opts *Options) (timing.TimingMode, *FieldParseError) {
	p := &entryParser{entry: entry}
	text := entry.text.String()

	comment, rest := partition(text, "*/")
	comment = strings.TrimSpace(strings.TrimPrefix(comment, "/*"))
	if rest == "" && !strings.Contains(text, "*/") {
		return timing.TimingMode{}, p.errorf("comment", comment, "unterminated comment")
	}
	lbl, err := p.parseLabel(comment)
	if err != nil {
		return timing.TimingMode{}, err
	}

	args, err := p.macroArgs(rest)
	if err != nil {
		return timing.TimingMode{}, err
	}
	aspect, err := p.aspectRatio(rest)
	if err != nil {
		return timing.TimingMode{}, err
	}

	var nums [numArgs]int
	for _, i := range []int{
		argClock,
		argHDisplay, argHSyncStart, argHSyncEnd, argHTotal, argHSkew,
		argVDisplay, argVSyncStart, argVSyncEnd, argVTotal, argVScan,
	} {
		v, err := p.atoi(argNames[i], args[i])
		if err != nil {
			return timing.TimingMode{}, err
		}
		nums[i] = v
	}

	flags := make(map[string]bool)
	for _, f := range strings.Split(args[argFlags], "|") {
		f = strings.TrimSpace(f)
		if !knownFlags[f] {
			return timing.TimingMode{}, p.errorf("flags", f, "unknown flag")
		}
		flags[f] = true
	}
	if flags[flagPHSync] == flags[flagNHSync] {
		return timing.TimingMode{}, p.errorf("flags", args[argFlags], "want exactly one horizontal sync polarity flag")
	}
	if flags[flagPVSync] == flags[flagNVSync] {
		return timing.TimingMode{}, p.errorf("flags", args[argFlags], "want exactly one vertical sync polarity flag")
	}

	name := strings.Trim(strings.TrimSpace(args[argName]), `"`)
	nameRes, nameScan := partition(name, "x")
	nameHres, perr := p.atoi("name", nameRes)
	if perr != nil {
		return timing.TimingMode{}, perr
	}
	nameInterlaced := strings.HasSuffix(nameScan, "i")
	nameVres, perr := p.atoi("name", strings.TrimSuffix(nameScan, "i"))
	if perr != nil {
		return timing.TimingMode{}, perr
	}

	mode := timing.TimingMode{
		VIC:           lbl.vic,
		Name:          name + "@" + lbl.refresh + "Hz",
		PixelClockKHz: nums[argClock],
		HActive:       nums[argHDisplay],
		HFrontPorch:   nums[argHSyncStart] - nums[argHDisplay],
		HSync:         nums[argHSyncEnd] - nums[argHSyncStart],
		HBackPorch:    nums[argHTotal] - nums[argHSyncEnd],
		VActive:       nums[argVDisplay],
		VFrontPorch:   nums[argVSyncStart] - nums[argVDisplay],
		VSync:         nums[argVSyncEnd] - nums[argVSyncStart],
		VBackPorch:    nums[argVTotal] - nums[argVSyncEnd],
		Interlaced:    flags[flagInterlace],
		DoubleClocked: flags[flagDblClk],
		AspectRatio:   aspect,
		Ln:            opts.lineCount(lbl.vic),
	}
	if flags[flagNHSync] {
		mode.HPolarity = timing.Negative
	}
	if flags[flagNVSync] {
		mode.VPolarity = timing.Negative
	}

	// The same facts are stated more than once in each entry. If they
	// disagree, we don't know which one to believe.
	switch {
	case mode.Interlaced && !nameInterlaced:
		return timing.TimingMode{}, p.errorf("name", name, "interlace flag is set but the name has no \"i\"")
	case mode.Interlaced && !lbl.interlaced:
		return timing.TimingMode{}, p.errorf("comment", comment, "interlace flag is set but the label has no \"i\"")
	case mode.DoubleClocked && lbl.dblHres == 0:
		return timing.TimingMode{}, p.errorf("comment", comment, "double clock flag is set but the label doesn't show a doubled resolution")
	case mode.DoubleClocked && lbl.dblHres != 2*lbl.hres:
		return timing.TimingMode{}, p.errorf("comment", comment, "doubled resolution %d is not twice %d", lbl.dblHres, lbl.hres)
	case mode.HActive != lbl.hres:
		return timing.TimingMode{}, p.errorf("hdisplay", args[argHDisplay], "does not match label resolution %d", lbl.hres)
	case nameHres != lbl.hres:
		return timing.TimingMode{}, p.errorf("name", name, "horizontal resolution does not match label resolution %d", lbl.hres)
	case mode.VActive != lbl.vres:
		return timing.TimingMode{}, p.errorf("vdisplay", args[argVDisplay], "does not match label resolution %d", lbl.vres)
	case nameVres != lbl.vres:
		return timing.TimingMode{}, p.errorf("name", name, "vertical resolution does not match label resolution %d", lbl.vres)
	case aspect != lbl.aspect:
		return timing.TimingMode{}, p.errorf("picture_aspect_ratio", aspect, "does not match label aspect ratio %s", lbl.aspect)
	case strings.TrimSpace(args[argType]) != modeTypeDriver:
		return timing.TimingMode{}, p.errorf("type", args[argType], "want %s", modeTypeDriver)
	case nums[argHSkew] != 0:
		return timing.TimingMode{}, p.errorf("hskew", args[argHSkew], "want 0")
	case nums[argVScan] != 0:
		return timing.TimingMode{}, p.errorf("vscan", args[argVScan], "want 0")
	}

	nominal, perr := p.refresh(lbl.refresh)
	if perr != nil {
		return timing.TimingMode{}, perr
	}
	// The label is nominal (59.94Hz timings are labelled 60Hz), so a
	// mismatch is reported but never drops the entry.
	if actual := mode.FieldRateHz(); actual != nominal {
		opts.logger().Warnf("VIC %d: labelled %sHz, timing gives %.4fHz", mode.VIC, lbl.refresh, actual)
	}

	return mode, nil
}

var argNames = [numArgs]string{
	argName:       "name",
	argType:       "type",
	argClock:      "clock",
	argHDisplay:   "hdisplay",
	argHSyncStart: "hsync_start",
	argHSyncEnd:   "hsync_end",
	argHTotal:     "htotal",
	argHSkew:      "hskew",
	argVDisplay:   "vdisplay",
	argVSyncStart: "vsync_start",
	argVSyncEnd:   "vsync_end",
	argVTotal:     "vtotal",
	argVScan:      "vscan",
	argFlags:      "flags",
}

// parseLabel parses comments like "6 - 720(1440)x480i@60Hz 4:3".
func (p *entryParser) parseLabel(comment string) (label, *FieldParseError) {
	var ret label

	rawVIC, rest := partition(comment, "-")
	vic, err := p.atoi("vic", rawVIC)
	if err != nil {
		return ret, err
	}
	ret.vic = vic
	p.vic = vic

	fields := strings.Fields(rest)
	if len(fields) < 2 {
		return ret, p.errorf("comment", comment, "want \"<VIC> - <resolution>@<rate>Hz <aspect>\"")
	}
	res, rate := partition(fields[0], "@")
	if !strings.HasSuffix(rate, "Hz") {
		return ret, p.errorf("comment", fields[0], "no refresh rate")
	}
	ret.refresh = strings.TrimSuffix(rate, "Hz")
	ret.aspect = fields[1]

	rawH, rawV := partition(res, "x")
	if rawV == "" {
		return ret, p.errorf("comment", res, "want <width>x<height>")
	}
	if h, dbl := partition(rawH, "("); dbl != "" {
		if ret.hres, err = p.atoi("comment", h); err != nil {
			return ret, err
		}
		if ret.dblHres, err = p.atoi("comment", strings.TrimSuffix(dbl, ")")); err != nil {
			return ret, err
		}
	} else if ret.hres, err = p.atoi("comment", rawH); err != nil {
		return ret, err
	}
	if strings.HasSuffix(rawV, "i") {
		ret.interlaced = true
		rawV = strings.TrimSuffix(rawV, "i")
	}
	if ret.vres, err = p.atoi("comment", rawV); err != nil {
		return ret, err
	}
	return ret, nil
}

// macroArgs returns the comma-separated arguments of DRM_MODE(...).
func (p *entryParser) macroArgs(text string) ([]string, *FieldParseError) {
	_, rest := partition(text, "DRM_MODE(")
	if rest == "" {
		return nil, p.errorf("DRM_MODE", "", "macro not found")
	}
	end := strings.IndexByte(rest, ')')
	if end < 0 {
		return nil, p.errorf("DRM_MODE", rest, "unterminated argument list")
	}
	args := strings.Split(rest[:end], ",")
	if len(args) != numArgs {
		return nil, p.errorf("DRM_MODE", rest[:end], "want %d arguments, got %d", numArgs, len(args))
	}
	for i := range args {
		args[i] = strings.TrimSpace(args[i])
	}
	return args, nil
}

// aspectRatio turns ".picture_aspect_ratio = HDMI_PICTURE_ASPECT_16_9" into
// "16:9".
func (p *entryParser) aspectRatio(text string) (string, *FieldParseError) {
	_, rest := partition(text, ".picture_aspect_ratio")
	if rest == "" {
		return "", p.errorf("picture_aspect_ratio", "", "initializer not found")
	}
	_, rest = partition(rest, "=")
	value, _ := partition(rest, ",")
	value = strings.TrimSpace(value)

	ratio := strings.TrimPrefix(value, aspectPrefix)
	num, den := partition(ratio, "_")
	if ratio == value || den == "" {
		return "", p.errorf("picture_aspect_ratio", value, "want %s<n>_<d>", aspectPrefix)
	}
	if _, err := p.atoi("picture_aspect_ratio", num); err != nil {
		return "", err
	}
	if _, err := p.atoi("picture_aspect_ratio", den); err != nil {
		return "", err
	}
	return num + ":" + den, nil
}

func (p *entryParser) refresh(token string) (float64, *FieldParseError) {
	v, err := strconv.ParseFloat(token, 64)
	if err != nil || v <= 0 {
		return 0, p.errorf("comment", token, "invalid refresh rate")
	}
	return v, nil
}
