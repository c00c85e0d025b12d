package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/petal-labs/dumpling-mcp/cli"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		var exitErr *cli.ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "dumpling-mcp",
	Short: "Dumpling AI tools as an MCP server",
	Long:  "dumpling-mcp exposes the Dumpling AI API (search, scraping, extraction, media and knowledge base tools) to MCP clients.",
	// SilenceUsage prevents printing usage on every error
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose/debug logging")

	rootCmd.Version = cli.Version
	rootCmd.SetVersionTemplate(fmt.Sprintf("dumpling-mcp version %s\n", cli.Version))

	rootCmd.AddCommand(cli.NewServeCmd())
	rootCmd.AddCommand(cli.NewToolsCmd())
}
