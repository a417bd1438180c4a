// Package cmd defines and implements the CLI commands for the edgewarm
// executable.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edgewarm",
		Short: "Pre-populate CDN edge caches before real traffic arrives",
		Long: `edgewarm discovers the URLs of a website via its sitemap (or by
crawling when no sitemap exists) and issues cache-respecting GET requests
for every URL against every edge location of the configured CDN, so the
edge caches are warm before the first real visitor hits them.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path")
	cmd.AddCommand(newWarmCmd())

	return cmd
}

// Execute is the main entry point.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
