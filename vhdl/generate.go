// Package vhdl renders timing modes as a VHDL package holding a constant
// array of timing records, indexed by VIC.
package vhdl

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/template"

	"github.com/q191201771/naza/pkg/nazalog"

	"github.com/apparentlymart/cta-timings/internal/atomicfile"
	"github.com/apparentlymart/cta-timings/timing"
)

// ErrNoModes is returned when there is nothing to generate; an empty
// array can't be declared with the VIC as its index.
var ErrNoModes = errors.New("no timing modes to generate")

// Logger is the subset of nazalog.Logger used here.
type Logger interface {
	Warnf(format string, v ...interface{})
}

type Options struct {
	Package    string // VHDL package name
	Array      string // name of the constant
	RecordType string
	ArrayType  string

	// NameWidth is the fixed length of the name string in each record.
	NameWidth int

	// Logger is told about names that had to be truncated. nil means the
	// global nazalog logger.
	Logger Logger
}

func DefaultOptions() Options {
	return Options{
		Package:    "video_timings_pkg",
		Array:      "video_timings",
		RecordType: "video_timing_r",
		ArrayType:  "video_timings_a",
		NameWidth:  20,
	}
}

// normalize returns a copy of o with each identifier made valid for VHDL.
func (o Options) normalize() (Options, error) {
	for _, id := range []struct {
		what string
		val  *string
	}{
		{"package name", &o.Package},
		{"array name", &o.Array},
		{"record type name", &o.RecordType},
		{"array type name", &o.ArrayType},
	} {
		ident := makeIdent(*id.val)
		if ident == "" {
			return o, fmt.Errorf("invalid %s %q", id.what, *id.val)
		}
		*id.val = ident
	}
	if o.NameWidth < 1 {
		return o, fmt.Errorf("invalid name width %d", o.NameWidth)
	}
	return o, nil
}

func (o *Options) logger() Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return nazalog.GetGlobalLogger()
}

// maxRecordVIC is the upper bound of the record's vic field.
const maxRecordVIC = 255

var pkgTmpl = template.Must(template.New("pkg").Parse(`-- Generated by cta-timings from the CTA-861 tables in the Linux kernel's
-- drivers/gpu/drm/drm_edid.c. Do not edit.
--
-- Fields of {{.RecordType}}, in order:
--   name        : mode name, space padded to {{.NameWidth}} characters
--   vic         : CTA-861 Video Identification Code
--   pxl_clk_khz : pixel clock in kHz
--   interlaced  : true for interlaced formats
--   dbl_clkd    : true if every pixel is sent twice
--   hactive     : active pixels per line
--   vactive     : active lines per frame
--   hfront      : horizontal front porch in pixels
--   hsync       : horizontal sync width in pixels
--   hback       : horizontal back porch in pixels
--   hpol        : horizontal sync polarity, '1' is positive
--   vfront      : vertical front porch in lines
--   vsync       : vertical sync width in lines
--   vback       : vertical back porch in lines
--   vpol        : vertical sync polarity, '1' is positive
--   ln          : "Ln" column of CTA-861 Table 1
--
-- Totals and refresh rates are not stored, derive them from the above:
--   htotal = hactive + hfront + hsync + hback
--   vtotal = vactive + vfront + vsync + vback
--   vfreq  = pxl_clk_khz * 1000 / (htotal * vtotal)

library IEEE;
use IEEE.STD_LOGIC_1164.ALL;

package {{.Package}} is

    type {{.RecordType}} is record
        name        : string(1 to {{.NameWidth}});
        vic         : natural range 0 to 255;
        pxl_clk_khz : natural;
        interlaced  : boolean;
        dbl_clkd    : boolean;
        hactive     : natural range 0 to 2**14-1;
        vactive     : natural range 0 to 2**14-1;
        hfront      : natural range 0 to 2**14-1;
        hsync       : natural range 0 to 2**14-1;
        hback       : natural range 0 to 2**14-1;
        hpol        : std_logic;
        vfront      : natural range 0 to 2**14-1;
        vsync       : natural range 0 to 2**14-1;
        vback       : natural range 0 to 2**14-1;
        vpol        : std_logic;
        ln          : integer range 0 to 7;
    end record;

    type {{.ArrayType}} is array (0 to {{.MaxVIC}}) of {{.RecordType}};

    constant {{.Array}} : {{.ArrayType}} := (
    -- VIC => (name, vic, pxl_clk_khz, interlaced, dbl_clkd, hactive, vactive, hfront, hsync, hback, hpol, vfront, vsync, vback, vpol, ln)
{{- range .Rows}}
        {{.}},
{{- end}}
        {{.Others}}
    );

end package {{.Package}};
`))

type pkgData struct {
	Options
	MaxVIC int
	Rows   []string
	Others string
}

// Generate writes the VHDL package for modes to w. Records appear in the
// order given. Nothing is written if an error is returned.
func Generate(w io.Writer, modes []timing.TimingMode, opts Options) error {
	buf, err := Render(modes, opts)
	if err != nil {
		return err
	}
	_, err = w.Write(buf)
	return err
}

// Render returns the VHDL package for modes.
func Render(modes []timing.TimingMode, opts Options) ([]byte, error) {
	if len(modes) == 0 {
		return nil, ErrNoModes
	}
	opts, err := opts.normalize()
	if err != nil {
		return nil, err
	}
	log := opts.logger()

	data := pkgData{
		Options: opts,
		MaxVIC:  modes[0].VIC,
		Rows:    make([]string, 0, len(modes)),
		Others:  othersRow(opts.NameWidth),
	}
	seen := make(map[int]bool, len(modes))
	for i := range modes {
		m := &modes[i]
		if seen[m.VIC] {
			log.Warnf("VIC %d appears more than once; the package will not compile", m.VIC)
		}
		seen[m.VIC] = true
		if m.VIC < 0 || m.VIC > maxRecordVIC {
			log.Warnf("VIC %d is outside the vic field's range 0 to %d", m.VIC, maxRecordVIC)
		}
		if m.VIC > data.MaxVIC {
			data.MaxVIC = m.VIC
		}
		if n := len([]rune(m.Name)); n > opts.NameWidth {
			log.Warnf("VIC %d: name %q is %d characters long, truncating to %d", m.VIC, m.Name, n, opts.NameWidth)
		}
		data.Rows = append(data.Rows, recordRow(m, opts.NameWidth))
	}

	var buf bytes.Buffer
	if err := pkgTmpl.Execute(&buf, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// recordRow renders one element of the array as a named association.
func recordRow(m *timing.TimingMode, nameWidth int) string {
	return fmt.Sprintf("%3d => (%s, %4d, %10d, %5t, %5t, %5d, %5d, %4d, %4d, %4d, %s, %4d, %4d, %4d, %s, %d)",
		m.VIC,
		stringLiteral(m.Name, nameWidth),
		m.VIC,
		m.PixelClockKHz,
		m.Interlaced,
		m.DoubleClocked,
		m.HActive,
		m.VActive,
		m.HFrontPorch,
		m.HSync,
		m.HBackPorch,
		polarityLiteral(m.HPolarity),
		m.VFrontPorch,
		m.VSync,
		m.VBackPorch,
		polarityLiteral(m.VPolarity),
		m.Ln,
	)
}

// othersRow fills every index without a VIC in the table.
func othersRow(nameWidth int) string {
	return fmt.Sprintf("others => (%s, %4d, %10d, %5t, %5t, %5d, %5d, %4d, %4d, %4d, '0', %4d, %4d, %4d, '0', %d)",
		`"`+strings.Repeat("-", nameWidth)+`"`,
		0, 0, false, false, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	)
}

func polarityLiteral(p timing.Polarity) string {
	if p == timing.Negative {
		return "'0'"
	}
	return "'1'"
}

// WriteFile renders modes and writes them to path, replacing it
// atomically.
func WriteFile(path string, modes []timing.TimingMode, opts Options) error {
	buf, err := Render(modes, opts)
	if err != nil {
		return err
	}
	return atomicfile.Write(path, buf, 0o644)
}

// ConvertFile reads the timing file at in and writes the VHDL package to
// out. If in is malformed the error is a *timing.MalformedRecordError and
// out is not touched.
func ConvertFile(in, out string, opts Options) (int, error) {
	modes, err := timing.ReadFile(in)
	if err != nil {
		return 0, fmt.Errorf("failed to load timings: %w", err)
	}
	if err := WriteFile(out, modes, opts); err != nil {
		return 0, fmt.Errorf("failed to generate %s: %w", out, err)
	}
	return len(modes), nil
}
