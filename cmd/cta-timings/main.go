package main

import (
	"fmt"
	"os"

	"github.com/q191201771/naza/pkg/nazalog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/apparentlymart/cta-timings/internal/config"
)

// Set by ldflags.
var buildVersion = "dev"

// app is the state shared by all commands once flags are parsed.
type app struct {
	v          *viper.Viper
	configFile string
	cfg        *config.Config
	log        nazalog.Logger
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New()}

	rootCmd := &cobra.Command{
		Use:   "cta-timings",
		Short: "CTA-861 video timings for hardware designs",
		Long: `cta-timings extracts the CTA-861 video timing tables from the Linux
kernel's drivers/gpu/drm/drm_edid.c into a JSON file, and turns that JSON
file into a VHDL package.`,
		Version:       buildVersion,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return a.init()
		},
	}

	rootCmd.PersistentFlags().StringVar(&a.configFile, "config", "", "config file (default ./"+config.Name+".{toml,yaml,json} if present)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level: debug, info, warn or error")
	a.bindFlags(rootCmd.PersistentFlags(), map[string]string{"log_level": "log-level"})

	rootCmd.AddCommand(extractCmd(a))
	rootCmd.AddCommand(generateCmd(a))

	return rootCmd
}

// bindFlags binds viper keys to the named flags in flags. A missing flag is
// a programming error.
func (a *app) bindFlags(flags *pflag.FlagSet, keys map[string]string) {
	for key, name := range keys {
		if err := a.v.BindPFlag(key, flags.Lookup(name)); err != nil {
			panic(fmt.Sprintf("can't bind flag %s: %s", name, err))
		}
	}
}

func (a *app) init() error {
	cfg, err := config.Load(a.v, a.configFile)
	if err != nil {
		return err
	}
	log, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.log = log
	return nil
}

func newLogger(level string) (nazalog.Logger, error) {
	var lvl nazalog.Level
	switch level {
	case "debug":
		lvl = nazalog.LevelDebug
	case "info":
		lvl = nazalog.LevelInfo
	case "warn":
		lvl = nazalog.LevelWarn
	case "error":
		lvl = nazalog.LevelError
	default:
		return nil, fmt.Errorf("invalid log level %q", level)
	}

	return nazalog.New(func(option *nazalog.Option) {
		option.Level = lvl
		option.IsToStdout = true
		option.ShortFileFlag = false
	})
}
