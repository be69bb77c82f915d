package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vango-dev/nestroute/internal/errors"
	"github.com/vango-dev/nestroute/pkg/server"
)

func matchCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "match <segment>",
		Short: "Resolve a segment against the manifest",
		Long: `Resolve a segment against the manifest without running any hook and
print the result as JSON.

Exits with status 1 when no route matches.

Examples:
  routerd match /items/7
  routerd match '/items/7?tab=specs' --manifest routes.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			m, err := loadManifest(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			cat, err := server.NewCatalog(m)
			if err != nil {
				return err
			}
			defer cat.Close()

			res, err := cat.Match(args[0])
			if err != nil {
				return errors.Classify(err, "R402")
			}
			data, err := json.MarshalIndent(res, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))

			if !res.Matched {
				return errors.New("R402").WithDetail(args[0] + " matches no route in " + m.Source)
			}
			return nil
		},
	}
	return cmd
}
