package main

import (
	"fmt"
	"os"

	"github.com/biodoia/goleapsocial/cmd/goleapsocial/commands"
	"github.com/spf13/cobra"
)

var (
	version = "1.0.0"
	commit  = "dev"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "goleapsocial",
		Short: "GoLeapSocial - Agentic Social Media Manager",
		Long: `GoLeapSocial - Agentic Social Media Manager

Two AI agents work on a topic in sequence: a Research Analyst searches
the web for recent facts, then a Social Media Manager turns the findings
into a post for the chosen platform and publishes it.

Features:
  • Web form with live progress (HTMX + websocket)
  • JSON API and terminal progress view
  • DuckDuckGo or Brave web search with result caching
  • Prometheus metrics`,
		Version:       fmt.Sprintf("%s (commit: %s)", version, commit),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to config file")
	rootCmd.PersistentFlags().StringP("log-level", "l", "", "Log level (debug, info, warn, error); overrides monitoring.logging.level")

	rootCmd.AddCommand(commands.ServeCmd)
	rootCmd.AddCommand(commands.RunCmd)
	rootCmd.AddCommand(commands.DoctorCmd)
	rootCmd.AddCommand(commands.ConfigCmd)

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("GoLeapSocial version %s\n", version)
			fmt.Printf("Commit: %s\n", commit)
		},
	})

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
