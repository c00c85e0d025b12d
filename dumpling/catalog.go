package dumpling

import (
	"fmt"
	"slices"

	"github.com/petal-labs/dumpling-mcp/tool"
)

// Definitions returns every Dumpling AI tool bound to client, in catalog order.
func Definitions(client *Client) []tool.Definition {
	return []tool.Definition{
		transcriptTool.Definition(client),
		searchTool.Definition(client),
		autocompleteTool.Definition(client),
		mapsTool.Definition(client),
		placesTool.Definition(client),
		newsTool.Definition(client),
		reviewsTool.Definition(client),
		scrapeTool.Definition(client),
		crawlTool.Definition(client),
		screenshotTool.Definition(client),
		extractDocumentTool.Definition(client),
		extractImageTool.Definition(client),
		extractVideoTool.Definition(client),
		extractAudioTool.Definition(client),
		docToTextTool.Definition(client),
		generateImageTool.Definition(client),
		knowledgeAddTool.Definition(client),
		knowledgeSearchTool.Definition(client),
	}
}

// ToolNames returns the catalog tool names in order.
func ToolNames() []string {
	defs := Definitions(nil)
	names := make([]string, 0, len(defs))
	for _, def := range defs {
		names = append(names, def.Name)
	}
	return names
}

// Register adds the catalog to registry, skipping the disabled tool names.
// Disabling a name that is not in the catalog is an error.
func Register(registry *tool.Registry, client *Client, disabled []string) error {
	known := ToolNames()
	for _, name := range disabled {
		if !slices.Contains(known, name) {
			return fmt.Errorf("dumpling: cannot disable unknown tool %q", name)
		}
	}
	for _, def := range Definitions(client) {
		if slices.Contains(disabled, def.Name) {
			continue
		}
		if err := registry.Register(def); err != nil {
			return err
		}
	}
	return nil
}
