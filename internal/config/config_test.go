package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apparentlymart/cta-timings/drmedid"
	"github.com/apparentlymart/cta-timings/vhdl"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, drmedid.DefaultURL, cfg.Extract.URL)
	assert.Equal(t, "video_timings.json", cfg.Extract.Output)
	assert.Equal(t, drmedid.DefaultArrays, cfg.Extract.Arrays)
	assert.Equal(t, 30*time.Second, cfg.Extract.Timeout)
	assert.Equal(t, "video_timings.json", cfg.Generate.Input)
	assert.Equal(t, "video_timings_pkg.vhdl", cfg.Generate.Output)

	opts := cfg.Extract.ParseOptions()
	assert.Equal(t, drmedid.DefaultLineCounts(), opts.LineCounts)

	assert.Equal(t, vhdl.DefaultOptions(), cfg.Generate.Options())
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
log_level = "debug"

[extract]
arrays = ["edid_cea_modes_193"]
timeout = "5s"

[[extract.line_counts]]
ln = 2
vics = [16, 31]

[generate]
package = "hdmi_timings_pkg"
name_width = 24
`), 0o644))

	cfg, err := Load(viper.New(), path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, []string{"edid_cea_modes_193"}, cfg.Extract.Arrays)
	assert.Equal(t, 5*time.Second, cfg.Extract.Timeout)
	assert.Equal(t, map[int]int{16: 2, 31: 2}, cfg.Extract.ParseOptions().LineCounts)

	gen := cfg.Generate.Options()
	assert.Equal(t, "hdmi_timings_pkg", gen.Package)
	assert.Equal(t, 24, gen.NameWidth)
	assert.Equal(t, "video_timings", gen.Array)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(viper.New(), filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func TestLoadPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[extract]
output = "from-file.json"
cache = "from-file.c"
source = "from-file.c"
`), 0o644))

	t.Setenv("CTA_TIMINGS_EXTRACT_CACHE", "from-env.c")
	t.Setenv("CTA_TIMINGS_EXTRACT_SOURCE", "from-env.c")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("source", "", "")
	require.NoError(t, flags.Parse([]string{"--source", "from-flag.c"}))

	v := viper.New()
	require.NoError(t, v.BindPFlag("extract.source", flags.Lookup("source")))

	cfg, err := Load(v, path)
	require.NoError(t, err)

	assert.Equal(t, "from-file.json", cfg.Extract.Output)
	assert.Equal(t, "from-env.c", cfg.Extract.Cache)
	assert.Equal(t, "from-flag.c", cfg.Extract.Source)

	src := cfg.Extract.SourceOptions()
	assert.Equal(t, "from-flag.c", src.File)
	assert.Equal(t, drmedid.DefaultURL, src.URL)
}
