package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"multiviral/internal/config"
)

func newConfigCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Long: `Print the configuration after merging defaults, ` + config.FileName + `,
.env and environment variables. Secrets are masked.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()

			shown := *a.cfg
			if shown.Storage.AnonKey != "" {
				shown.Storage.AnonKey = "********"
			}
			data, err := yaml.Marshal(&shown)
			if err != nil {
				return fmt.Errorf("encoding configuration: %w", err)
			}

			source := a.cfg.Source
			if source == "" {
				source = "(none, defaults and environment only)"
			}
			storage := "not configured, results are read from the API only"
			if a.cfg.Storage.Configured() {
				storage = "configured"
			}

			fmt.Fprintf(out, "# config file: %s\n# storage: %s\n", source, storage) //nolint:errcheck
			_, err = out.Write(data)
			return err
		},
	}
}
