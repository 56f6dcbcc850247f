package timing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func vic1() TimingMode {
	return TimingMode{
		VIC:           1,
		Name:          "640x480@60Hz",
		PixelClockKHz: 25175,
		HActive:       640,
		HFrontPorch:   16,
		HSync:         96,
		HBackPorch:    48,
		VActive:       480,
		VFrontPorch:   10,
		VSync:         2,
		VBackPorch:    33,
		HPolarity:     Negative,
		VPolarity:     Negative,
		AspectRatio:   "4:3",
		Ln:            1,
	}
}

func TestDerivedValues(t *testing.T) {
	m := vic1()

	assert.Equal(t, 160, m.HBlank())
	assert.Equal(t, 45, m.VBlank())
	assert.Equal(t, 800, m.HTotal())
	assert.Equal(t, 525, m.VTotal())
	assert.InDelta(t, 59.94, m.VFreqHz(), 0.005)
	assert.InDelta(t, 59.94, m.FieldRateHz(), 0.005)
}

func TestFieldRateInterlaced(t *testing.T) {
	// VIC 5, 1920x1080i@60Hz
	m := TimingMode{
		PixelClockKHz: 74250,
		HActive:       1920, HFrontPorch: 88, HSync: 44, HBackPorch: 148,
		VActive: 1080, VFrontPorch: 4, VSync: 10, VBackPorch: 31,
		Interlaced: true,
	}

	assert.InDelta(t, 30, m.VFreqHz(), 0.0001)
	assert.InDelta(t, 60, m.FieldRateHz(), 0.0001)
}

func TestVFreqZeroTotals(t *testing.T) {
	var m TimingMode
	assert.Equal(t, 0.0, m.VFreqHz())
}

func TestPolarityText(t *testing.T) {
	tests := []struct {
		text    string
		want    Polarity
		wantErr bool
	}{
		{text: "+", want: Positive},
		{text: "-", want: Negative},
		{text: "positive", wantErr: true},
		{text: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			var got Polarity
			err := got.UnmarshalText([]byte(tt.text))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)

			text, err := got.MarshalText()
			assert.NoError(t, err)
			assert.Equal(t, tt.text, string(text))
		})
	}
}
