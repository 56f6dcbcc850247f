package main

import (
	"github.com/spf13/cobra"

	"github.com/apparentlymart/cta-timings/vhdl"
)

func generateCmd(a *app) *cobra.Command {
	defaults := vhdl.DefaultOptions()

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a VHDL package from a JSON timings file",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg := a.cfg.Generate

			opts := cfg.Options()
			opts.Logger = a.log
			n, err := vhdl.ConvertFile(cfg.Input, cfg.Output, opts)
			if err != nil {
				return err
			}
			a.log.Infof("wrote %d video modes to %s", n, cfg.Output)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringP("input", "i", "video_timings.json", "JSON file to read")
	flags.StringP("output", "o", "video_timings_pkg.vhdl", "VHDL file to write")
	flags.String("package", defaults.Package, "VHDL package name")
	flags.String("array-name", defaults.Array, "name of the constant array")
	flags.Int("name-width", defaults.NameWidth, "length of the name string in each record")

	a.bindFlags(cmd.Flags(), map[string]string{
		"generate.input":      "input",
		"generate.output":     "output",
		"generate.package":    "package",
		"generate.array":      "array-name",
		"generate.name_width": "name-width",
	})

	return cmd
}
