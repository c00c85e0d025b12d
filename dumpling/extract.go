package dumpling

import (
	"strings"

	"github.com/petal-labs/dumpling-mcp/tool"
)

// extractParams is shared by the document, image, video and audio extractors.
type extractParams struct {
	URL           *string `json:"url,omitempty"`
	Base64Content *string `json:"base64Content,omitempty"`
	Prompt        string  `json:"prompt"`
	Model         *string `json:"model,omitempty"`
	JSONMode      *bool   `json:"jsonMode,omitempty"`
}

func requireSource(url, content *string) error {
	return requireOneOf(named{"url", url}, named{"base64Content", content})
}

func newExtractTool(name, article, media string) Proxy[extractParams] {
	return Proxy[extractParams]{
		Name:        name,
		Description: "Extract structured data from " + article + " " + media + " using a natural-language prompt.",
		Schema: tool.Schema{
			{Name: "url", Type: tool.TypeString, Description: "Public URL of the " + media},
			{Name: "base64Content", Type: tool.TypeString, Description: "Base64-encoded " + media + ", used when url is not set"},
			{Name: "prompt", Type: tool.TypeString, Required: true, Description: "What to extract"},
			{Name: "model", Type: tool.TypeString, Description: "Extraction model override"},
			{Name: "jsonMode", Type: tool.TypeBoolean, Description: "Return the extraction as JSON"},
		},
		Precondition: func(p extractParams) error {
			return requireSource(p.URL, p.Base64Content)
		},
		Project: Projection{
			{Key: "results", Required: true},
			{Key: "creditUsage"},
		}.Render,
	}
}

var (
	extractDocumentTool = newExtractTool("extract-document", "a", "document")
	extractImageTool    = newExtractTool("extract-image", "an", "image")
	extractVideoTool    = newExtractTool("extract-video", "a", "video")
	extractAudioTool    = newExtractTool("extract-audio", "an", "audio file")
)

type docToTextParams struct {
	URL           *string `json:"url,omitempty"`
	Base64Content *string `json:"base64Content,omitempty"`
	Pages         *string `json:"pages,omitempty"`
}

var docToTextTool = Proxy[docToTextParams]{
	Name:        "doc-to-text",
	Description: "Convert a document (PDF, DOCX, ...) to plain text.",
	Schema: tool.Schema{
		{Name: "url", Type: tool.TypeString, Description: "Public URL of the document"},
		{Name: "base64Content", Type: tool.TypeString, Description: "Base64-encoded document, used when url is not set"},
		{Name: "pages", Type: tool.TypeString, Description: "Page range to convert, e.g. \"1-3,5\""},
	},
	Precondition: func(p docToTextParams) error {
		return requireSource(p.URL, p.Base64Content)
	},
	Project: func(body Body) (tool.Result, error) {
		text, err := requiredString(body, "result")
		if err != nil {
			return tool.Result{}, err
		}
		return tool.TextResult(strings.TrimRight(text, "\n")), nil
	},
}
