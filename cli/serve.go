package cli

import (
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/petal-labs/dumpling-mcp/config"
	"github.com/petal-labs/dumpling-mcp/server"
)

// NewServeCmd creates the "serve" subcommand.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the Dumpling AI tools over MCP",
		Long: "Serve the Dumpling AI tools to an MCP client. The default stdio transport " +
			"speaks MCP on stdin/stdout; --transport http serves streamable HTTP on /mcp.",
		Args: cobra.NoArgs,
		RunE: runServe,
	}

	cmd.Flags().String("config", "", "Path to dumpling-mcp.yaml")
	cmd.Flags().String("transport", "", "MCP transport: stdio | http (overrides config)")
	cmd.Flags().String("http-addr", "", "Listen address for the http transport (overrides config)")
	cmd.Flags().Int64("max-body", 4<<20, "Max HTTP request body size in bytes")

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	transport, _ := cmd.Flags().GetString("transport")
	httpAddr, _ := cmd.Flags().GetString("http-addr")
	maxBody, _ := cmd.Flags().GetInt64("max-body")

	rt, err := newRuntime(cmd)
	if err != nil {
		return err
	}
	defer rt.Close()

	if t := strings.ToLower(strings.TrimSpace(transport)); t != "" {
		rt.cfg.Server.Transport = t
	}
	if a := strings.TrimSpace(httpAddr); a != "" {
		rt.cfg.Server.HTTPAddr = a
	}
	if err := rt.cfg.Validate(); err != nil {
		return exitError(exitConfig, "%v", err)
	}

	srv, err := server.NewServer(server.ServerConfig{
		Dispatcher: rt.dispatcher,
		Version:    Version,
		MaxBody:    maxBody,
		Logger:     rt.logger.WithName("server"),
	})
	if err != nil {
		return exitError(exitRuntime, "%v", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch rt.cfg.Server.Transport {
	case config.TransportHTTP:
		err = srv.ListenAndServe(ctx, rt.cfg.Server.HTTPAddr)
	default:
		err = srv.ServeStdio(ctx)
	}
	if err != nil {
		return exitError(exitRuntime, "%v", err)
	}
	rt.logger.Info("server stopped")
	return nil
}
