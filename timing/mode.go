// Package timing defines the CTA-861 video timing record shared by the
// extractor and the generator, along with its JSON file format.
package timing

import (
	"fmt"
)

// Polarity is the sense of a sync pulse.
type Polarity int

const (
	Positive Polarity = iota
	Negative
)

func (p Polarity) String() string {
	switch p {
	case Positive:
		return "+"
	case Negative:
		return "-"
	default:
		return fmt.Sprintf("Polarity(%d)", int(p))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (p Polarity) MarshalText() ([]byte, error) {
	switch p {
	case Positive, Negative:
		return []byte(p.String()), nil
	default:
		return nil, fmt.Errorf("invalid polarity %d", int(p))
	}
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Polarity) UnmarshalText(text []byte) error {
	switch string(text) {
	case "+":
		*p = Positive
	case "-":
		*p = Negative
	default:
		return fmt.Errorf("invalid polarity %q, want \"+\" or \"-\"", text)
	}
	return nil
}

// TimingMode is one entry of the CTA-861 video format table.
//
// Values are carried exactly as extracted. Totals and the refresh rate are
// deliberately not stored; use the methods below to derive them.
type TimingMode struct {
	VIC           int      `json:"vic"`
	Name          string   `json:"name"`
	PixelClockKHz int      `json:"pixel_clock_khz"`
	HActive       int      `json:"h_active"`
	HFrontPorch   int      `json:"h_front_porch"`
	HSync         int      `json:"h_sync"`
	HBackPorch    int      `json:"h_back_porch"`
	VActive       int      `json:"v_active"`
	VFrontPorch   int      `json:"v_front_porch"`
	VSync         int      `json:"v_sync"`
	VBackPorch    int      `json:"v_back_porch"`
	Interlaced    bool     `json:"interlaced"`
	HPolarity     Polarity `json:"h_polarity"`
	VPolarity     Polarity `json:"v_polarity"`
	DoubleClocked bool     `json:"double_clocked,omitempty"`
	AspectRatio   string   `json:"aspect_ratio,omitempty"`

	// Ln is the "Ln" column of the CTA-861 format table, which the kernel
	// sources don't carry.
	Ln int `json:"ln"`
}

func (m *TimingMode) HBlank() int {
	return m.HFrontPorch + m.HSync + m.HBackPorch
}

func (m *TimingMode) VBlank() int {
	return m.VFrontPorch + m.VSync + m.VBackPorch
}

func (m *TimingMode) HTotal() int {
	return m.HActive + m.HBlank()
}

func (m *TimingMode) VTotal() int {
	return m.VActive + m.VBlank()
}

// VFreqHz is the frame rate implied by the pixel clock and the totals. It
// returns zero if either total is zero.
func (m *TimingMode) VFreqHz() float64 {
	ht, vt := m.HTotal(), m.VTotal()
	if ht == 0 || vt == 0 {
		return 0
	}
	return float64(m.PixelClockKHz) * 1000 / float64(ht*vt)
}

// FieldRateHz is VFreqHz doubled for interlaced modes, which is the figure
// CTA-861 uses when naming a format's refresh rate.
func (m *TimingMode) FieldRateHz() float64 {
	f := m.VFreqHz()
	if m.Interlaced {
		f *= 2
	}
	return f
}
