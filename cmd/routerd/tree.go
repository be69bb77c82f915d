package main

import (
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/vango-dev/nestroute/pkg/server"
)

func treeCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tree",
		Short: "Print the activated route tree",
		Long: `Validate the manifest, activate its tree and print every route in
pre-order with its full name, full path template and aliases.`,
		Args: cobra.NoArgs,
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

			table := tablewriter.NewWriter(cmd.OutOrStdout())
			table.SetHeader([]string{"ROUTE", "PATH", "ALIASES"})
			table.SetAutoFormatHeaders(false)
			table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
			table.SetAlignment(tablewriter.ALIGN_LEFT)
			table.SetAutoWrapText(false)
			for _, r := range cat.Routes() {
				table.Append([]string{r.FullName, r.FullPath, strings.Join(r.Aliases, ", ")})
			}
			table.Render()
			return nil
		},
	}
	return cmd
}
