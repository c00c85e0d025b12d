package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/petal-labs/dumpling-mcp/server"
	"github.com/petal-labs/dumpling-mcp/tool"
)

// NewToolsCmd creates the "tools" command group.
func NewToolsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tools",
		Short: "Inspect and invoke the Dumpling AI tools",
	}
	cmd.PersistentFlags().String("config", "", "Path to dumpling-mcp.yaml")

	cmd.AddCommand(newToolsListCmd())
	cmd.AddCommand(newToolsSchemaCmd())
	cmd.AddCommand(newToolsCallCmd())

	return cmd
}

func newToolsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the published tools",
		Args:  cobra.NoArgs,
		RunE:  runToolsList,
	}
}

func runToolsList(cmd *cobra.Command, _ []string) error {
	rt, err := newRuntime(cmd)
	if err != nil {
		return err
	}
	defer rt.Close()

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 2, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "NAME\tREQUIRED\tDESCRIPTION")
	for _, def := range rt.dispatcher.Registry().Definitions() {
		required := requiredParams(def.Schema)
		if required == "" {
			required = "-"
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", def.Name, required, def.Description)
	}
	return w.Flush()
}

func requiredParams(schema tool.Schema) string {
	names := make([]string, 0, len(schema))
	for _, field := range schema {
		if field.Required {
			names = append(names, field.Name)
		}
	}
	return strings.Join(names, ",")
}

func newToolsSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema <name>",
		Short: "Print a tool's input JSON Schema",
		Args:  cobra.ExactArgs(1),
		RunE:  runToolsSchema,
	}
}

func runToolsSchema(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime(cmd)
	if err != nil {
		return err
	}
	defer rt.Close()

	name := strings.TrimSpace(args[0])
	def, ok := rt.dispatcher.Registry().Lookup(name)
	if !ok {
		return exitError(exitToolCall, "unknown tool %q", name)
	}
	out, err := json.MarshalIndent(def.Schema.JSONSchema(), "", "  ")
	if err != nil {
		return exitError(exitRuntime, "encoding schema: %v", err)
	}
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}

func newToolsCallCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "call <name>",
		Short: "Invoke one tool and print its text result",
		Args:  cobra.ExactArgs(1),
		RunE:  runToolsCall,
	}
	cmd.Flags().String("args", "", "Tool arguments as a JSON object")
	cmd.Flags().String("args-file", "", "Path to a file holding the tool arguments as JSON")
	return cmd
}

func runToolsCall(cmd *cobra.Command, args []string) error {
	inline, _ := cmd.Flags().GetString("args")
	argsFile, _ := cmd.Flags().GetString("args-file")
	if inline != "" && argsFile != "" {
		return exitError(exitToolCall, "--args and --args-file are mutually exclusive")
	}

	raw := []byte(inline)
	if argsFile != "" {
		// #nosec G304 -- path supplied by the operator on the command line.
		data, err := os.ReadFile(argsFile)
		if err != nil {
			return exitError(exitToolCall, "reading arguments: %v", err)
		}
		raw = data
	}

	rt, err := newRuntime(cmd)
	if err != nil {
		return err
	}
	defer rt.Close()

	callArgs, err := server.DecodeArguments(raw)
	if err != nil {
		return exitError(exitToolCall, "%v", err)
	}
	result, err := rt.dispatcher.Invoke(cmd.Context(), strings.TrimSpace(args[0]), callArgs)
	if err != nil {
		return exitError(exitToolCall, "%v", err)
	}
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), result.Text())
	return nil
}
