package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apparentlymart/cta-timings/drmedid"
	"github.com/apparentlymart/cta-timings/timing"
)

const edidSource = `
static const struct drm_display_mode edid_cea_modes_1[] = {
	/* 1 - 640x480@60Hz 4:3 */
	{ DRM_MODE("640x480", DRM_MODE_TYPE_DRIVER, 25175, 640, 656,
		   752, 800, 0, 480, 490, 492, 525, 0,
		   DRM_MODE_FLAG_NHSYNC | DRM_MODE_FLAG_NVSYNC),
	  .picture_aspect_ratio = HDMI_PICTURE_ASPECT_4_3, },
	/* 16 - 1920x1080@60Hz 16:9 */
	{ DRM_MODE("1920x1080", DRM_MODE_TYPE_DRIVER, 148500, 1920, 2008,
		   2052, 2200, 0, 1080, 1084, 1089, 1125, 0,
		   DRM_MODE_FLAG_PHSYNC | DRM_MODE_FLAG_PVSYNC),
	  .picture_aspect_ratio = HDMI_PICTURE_ASPECT_16_9, },
};
`

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	err := cmd.Execute()
	return out.String(), err
}

func TestExtractAndGenerate(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "drm_edid.c")
	jsonPath := filepath.Join(dir, "video_timings.json")
	vhdlPath := filepath.Join(dir, "video_timings_pkg.vhdl")
	require.NoError(t, os.WriteFile(src, []byte(edidSource), 0o644))

	_, err := run(t, "extract", "--source", src, "-o", jsonPath)
	require.NoError(t, err)

	modes, err := timing.ReadFile(jsonPath)
	require.NoError(t, err)
	require.Len(t, modes, 2)
	assert.Equal(t, 1, modes[0].VIC)
	assert.Equal(t, 16, modes[1].VIC)

	_, err = run(t, "generate", "-i", jsonPath, "-o", vhdlPath, "--package", "hdmi_pkg")
	require.NoError(t, err)

	vhdlSrc, err := os.ReadFile(vhdlPath)
	require.NoError(t, err)
	assert.Contains(t, string(vhdlSrc), "package hdmi_pkg is")
	assert.Contains(t, string(vhdlSrc), "array (0 to 16)")
	assert.Contains(t, string(vhdlSrc), `"1920x1080@60Hz      "`)
}

func TestExtractIdempotent(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "drm_edid.c")
	out1 := filepath.Join(dir, "a.json")
	out2 := filepath.Join(dir, "b.json")
	require.NoError(t, os.WriteFile(src, []byte(edidSource), 0o644))

	_, err := run(t, "extract", "--source", src, "-o", out1)
	require.NoError(t, err)
	_, err = run(t, "extract", "--source", src, "-o", out2)
	require.NoError(t, err)

	a, err := os.ReadFile(out1)
	require.NoError(t, err)
	b, err := os.ReadFile(out2)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestExtractDump(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "drm_edid.c")
	require.NoError(t, os.WriteFile(src, []byte(edidSource), 0o644))

	out, err := run(t, "extract", "--source", src, "-o", filepath.Join(dir, "out.json"), "--dump")
	require.NoError(t, err)
	assert.Contains(t, out, "VIC: (int) 16")
}

func TestExtractSourceFormatError(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "drm_edid.c")
	out := filepath.Join(dir, "video_timings.json")
	require.NoError(t, os.WriteFile(src, []byte("int main(void) { return 0; }\n"), 0o644))

	_, err := run(t, "extract", "--source", src, "-o", out)

	var sfe *drmedid.SourceFormatError
	require.True(t, errors.As(err, &sfe), "want *drmedid.SourceFormatError, got %v", err)

	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr), "no intermediate file should be written")
}

func TestGenerateMalformed(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "video_timings.json")
	out := filepath.Join(dir, "video_timings_pkg.vhdl")
	require.NoError(t, os.WriteFile(in, []byte(`[{"vic": 1, "name": "640x480@60Hz"}]`), 0o644))

	_, err := run(t, "generate", "-i", in, "-o", out)

	var merr *timing.MalformedRecordError
	require.True(t, errors.As(err, &merr), "want *timing.MalformedRecordError, got %v", err)
	assert.Equal(t, "pixel_clock_khz", merr.Field)

	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr), "no output file should be written")
}

func TestConfigFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "drm_edid.c")
	out := filepath.Join(dir, "from-config.json")
	cfg := filepath.Join(dir, "cta-timings.yaml")
	require.NoError(t, os.WriteFile(src, []byte(edidSource), 0o644))
	require.NoError(t, os.WriteFile(cfg, []byte(strings.Join([]string{
		"extract:",
		"  source: " + src,
		"  output: " + out,
		"  line_counts:",
		"    - ln: 3",
		"      vics: [16]",
	}, "\n")+"\n"), 0o644))

	_, err := run(t, "--config", cfg, "extract")
	require.NoError(t, err)

	modes, err := timing.ReadFile(out)
	require.NoError(t, err)
	require.Len(t, modes, 2)
	assert.Equal(t, 1, modes[0].Ln)
	assert.Equal(t, 3, modes[1].Ln)
}

func TestInvalidLogLevel(t *testing.T) {
	_, err := run(t, "--log-level", "loud", "generate")
	assert.EqualError(t, err, `invalid log level "loud"`)
}

func TestBindFlags(t *testing.T) {
	a := &app{v: viper.New()}
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("log-level", "info", "")

	a.bindFlags(flags, map[string]string{"log_level": "log-level"})
	require.NoError(t, flags.Parse([]string{"--log-level", "debug"}))
	assert.Equal(t, "debug", a.v.GetString("log_level"))

	assert.Panics(t, func() {
		a.bindFlags(flags, map[string]string{"log_level": "no-such-flag"})
	})
}
