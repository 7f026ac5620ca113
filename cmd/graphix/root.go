package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for graphix.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "graphix",
		Short: "Map the link structure of a website",
		Long: `graphix crawls a website from a seed URL and builds the tree of pages
that link to each other below that seed.

A crawl only follows links on the seed's host whose path contains the
seed's last path segment, and stops at a fixed depth (3 by default).`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	cmd.AddCommand(NewCrawlCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
