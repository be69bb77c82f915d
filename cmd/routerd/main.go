// Command routerd serves and inspects route manifests.
package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/vango-dev/nestroute/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		report(os.Stderr, err)
		os.Exit(1)
	}
}

// globalFlags are shared by every subcommand.
type globalFlags struct {
	config   string
	manifest string
}

func newRootCmd() *cobra.Command {
	var flags globalFlags

	rootCmd := &cobra.Command{
		Use:   "routerd",
		Short: "Serve hierarchical client-side route trees",
		Long: `routerd loads a route manifest and runs it as a hierarchical router.

Each WebSocket client gets its own routing session: the client reports
address bar changes, routerd runs the enter/leave lifecycle and mirrors
router-initiated navigation back to the client.

The manifest is read from a YAML or JSON file, or from s3://bucket/key.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&flags.config, "config", "c", "", "Path to routerd.json (default: ./routerd.json if present)")
	rootCmd.PersistentFlags().StringVarP(&flags.manifest, "manifest", "m", "", "Manifest file or s3:// URL (overrides manifest.source)")

	rootCmd.AddCommand(
		serveCmd(&flags),
		matchCmd(&flags),
		treeCmd(&flags),
		versionCmd(),
	)
	return rootCmd
}

func init() {
	if os.Getenv("NO_COLOR") != "" {
		errors.DisableColors()
	}
}
