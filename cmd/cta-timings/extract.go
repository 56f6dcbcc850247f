package main

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/spf13/cobra"

	"github.com/apparentlymart/cta-timings/drmedid"
	"github.com/apparentlymart/cta-timings/timing"
)

func extractCmd(a *app) *cobra.Command {
	var dump bool

	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Extract the CTA-861 timings from drm_edid.c into a JSON file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := a.cfg.Extract

			client := &http.Client{Timeout: cfg.Timeout}
			src, err := cfg.SourceOptions().Load(cmd.Context(), client, a.log)
			if err != nil {
				return err
			}

			opts := cfg.ParseOptions()
			opts.Logger = a.log
			res, err := drmedid.Parse(bytes.NewReader(src), opts)
			if err != nil {
				return err
			}

			if dump {
				spew.Fdump(cmd.OutOrStdout(), res.Modes)
			}

			if err := timing.WriteFile(cfg.Output, res.Modes); err != nil {
				return fmt.Errorf("failed to write %s: %w", cfg.Output, err)
			}
			a.log.Infof("wrote %d video modes to %s", len(res.Modes), cfg.Output)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringP("output", "o", "video_timings.json", "JSON file to write")
	flags.String("source", "", "read drm_edid.c from this file instead of fetching it")
	flags.String("url", drmedid.DefaultURL, "where to fetch drm_edid.c from")
	flags.String("cache", "", "save a copy of the fetched drm_edid.c here")
	flags.StringSlice("array", drmedid.DefaultArrays, "drm_edid.c tables to extract")
	flags.Duration("timeout", 30*time.Second, "HTTP timeout for fetching drm_edid.c")
	flags.BoolVar(&dump, "dump", false, "dump the extracted modes to stdout")

	a.bindFlags(cmd.Flags(), map[string]string{
		"extract.output":  "output",
		"extract.source":  "source",
		"extract.url":     "url",
		"extract.cache":   "cache",
		"extract.arrays":  "array",
		"extract.timeout": "timeout",
	})

	return cmd
}
