// Package config loads cta-timings settings from defaults, an optional
// config file, CTA_TIMINGS_* environment variables and command line
// flags, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/apparentlymart/cta-timings/drmedid"
	"github.com/apparentlymart/cta-timings/vhdl"
)

// Name is the base name of the config file searched for in the working
// directory, e.g. cta-timings.toml.
const Name = "cta-timings"

const EnvPrefix = "CTA_TIMINGS"

type Config struct {
	LogLevel string   `mapstructure:"log_level"`
	Extract  Extract  `mapstructure:"extract"`
	Generate Generate `mapstructure:"generate"`
}

type Extract struct {
	URL        string        `mapstructure:"url"`
	Source     string        `mapstructure:"source"`
	Cache      string        `mapstructure:"cache"`
	Output     string        `mapstructure:"output"`
	Arrays     []string      `mapstructure:"arrays"`
	Timeout    time.Duration `mapstructure:"timeout"`
	LineCounts []LineCount   `mapstructure:"line_counts"`
}

// LineCount assigns an "Ln" value to a set of VICs.
type LineCount struct {
	Ln   int   `mapstructure:"ln"`
	VICs []int `mapstructure:"vics"`
}

type Generate struct {
	Input      string `mapstructure:"input"`
	Output     string `mapstructure:"output"`
	Package    string `mapstructure:"package"`
	Array      string `mapstructure:"array"`
	RecordType string `mapstructure:"record_type"`
	ArrayType  string `mapstructure:"array_type"`
	NameWidth  int    `mapstructure:"name_width"`
}

// SetDefaults registers the built-in value of every setting on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")

	v.SetDefault("extract.url", drmedid.DefaultURL)
	v.SetDefault("extract.source", "")
	v.SetDefault("extract.cache", "")
	v.SetDefault("extract.output", "video_timings.json")
	v.SetDefault("extract.arrays", drmedid.DefaultArrays)
	v.SetDefault("extract.timeout", 30*time.Second)
	v.SetDefault("extract.line_counts", defaultLineCounts())

	gen := vhdl.DefaultOptions()
	v.SetDefault("generate.input", "video_timings.json")
	v.SetDefault("generate.output", "video_timings_pkg.vhdl")
	v.SetDefault("generate.package", gen.Package)
	v.SetDefault("generate.array", gen.Array)
	v.SetDefault("generate.record_type", gen.RecordType)
	v.SetDefault("generate.array_type", gen.ArrayType)
	v.SetDefault("generate.name_width", gen.NameWidth)
}

// defaultLineCounts groups drmedid.DefaultLineCounts by value, in the
// shape a config file would use.
func defaultLineCounts() []map[string]interface{} {
	counts := drmedid.DefaultLineCounts()
	byLn := make(map[int][]int)
	for vic := 1; vic <= 255; vic++ {
		if ln, ok := counts[vic]; ok {
			byLn[ln] = append(byLn[ln], vic)
		}
	}
	var ret []map[string]interface{}
	for _, ln := range []int{4, 7} {
		ret = append(ret, map[string]interface{}{"ln": ln, "vics": byLn[ln]})
	}
	return ret
}

// Load reads the configuration into a Config. If file is empty, a file
// named cta-timings.{toml,yaml,json} in the working directory is used when
// present. Flags should already be bound to v.
func Load(v *viper.Viper, file string) (*Config, error) {
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else {
		v.SetConfigName(Name)
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// ParseOptions returns the extractor options described by c.
func (c *Extract) ParseOptions() drmedid.Options {
	opts := drmedid.DefaultOptions()
	opts.Arrays = c.Arrays
	opts.LineCounts = make(map[int]int)
	for _, lc := range c.LineCounts {
		for _, vic := range lc.VICs {
			opts.LineCounts[vic] = lc.Ln
		}
	}
	return opts
}

// SourceOptions returns where the extractor should read drm_edid.c from.
func (c *Extract) SourceOptions() drmedid.Source {
	return drmedid.Source{
		File:  c.Source,
		URL:   c.URL,
		Cache: c.Cache,
	}
}

// Options returns the generator options described by c.
func (c *Generate) Options() vhdl.Options {
	return vhdl.Options{
		Package:    c.Package,
		Array:      c.Array,
		RecordType: c.RecordType,
		ArrayType:  c.ArrayType,
		NameWidth:  c.NameWidth,
	}
}
