package dumpling

import "github.com/petal-labs/dumpling-mcp/tool"

type transcriptParams struct {
	VideoURL            string  `json:"videoUrl"`
	IncludeTimestamps   *bool   `json:"includeTimestamps,omitempty"`
	TimestampsToCombine *int    `json:"timestampsToCombine,omitempty"`
	PreferredLanguage   *string `json:"preferredLanguage,omitempty"`
}

var transcriptTool = Proxy[transcriptParams]{
	Name:        "get-youtube-transcript",
	Description: "Fetch the transcript of a YouTube video.",
	Schema: tool.Schema{
		{Name: "videoUrl", Type: tool.TypeString, Required: true, Description: "YouTube video URL"},
		{Name: "includeTimestamps", Type: tool.TypeBoolean, Description: "Prefix transcript lines with timestamps"},
		{Name: "timestampsToCombine", Type: tool.TypeInteger, Minimum: tool.Bound(1), Description: "Number of caption segments merged per timestamp"},
		{Name: "preferredLanguage", Type: tool.TypeString, Description: "Preferred transcript language code"},
	},
	Project: projectTranscript,
}

func projectTranscript(body Body) (tool.Result, error) {
	transcript, err := requiredString(body, "transcript")
	if err != nil {
		return tool.Result{}, err
	}
	text := "Transcript: " + transcript
	if language, ok := optionalString(body, "language"); ok {
		text += "\nLanguage: " + language
	}
	return tool.TextResult(text), nil
}

type imageParams struct {
	Prompt         string   `json:"prompt"`
	Model          *string  `json:"model,omitempty"`
	Size           *string  `json:"size,omitempty"`
	Style          *string  `json:"style,omitempty"`
	NegativePrompt *string  `json:"negativePrompt,omitempty"`
	Seed           *int64   `json:"seed,omitempty"`
	Steps          *int     `json:"steps,omitempty"`
	GuidanceScale  *float64 `json:"guidanceScale,omitempty"`
	Sampler        *string  `json:"sampler,omitempty"`
	NumImages      *int     `json:"numImages,omitempty"`
}

var generateImageTool = Proxy[imageParams]{
	Name:        "generate-ai-image",
	Description: "Generate images from a text prompt.",
	Schema: tool.Schema{
		{Name: "prompt", Type: tool.TypeString, Required: true, Description: "Description of the image"},
		{Name: "model", Type: tool.TypeString, Description: "Image model override"},
		{Name: "size", Type: tool.TypeString, Description: "Image size as WIDTHxHEIGHT, e.g. \"1024x1024\""},
		{Name: "style", Type: tool.TypeString, Description: "Style preset"},
		{Name: "negativePrompt", Type: tool.TypeString, Description: "What the image should not contain"},
		{Name: "seed", Type: tool.TypeInteger, Minimum: tool.Bound(0), Description: "Random seed for reproducible output"},
		{Name: "steps", Type: tool.TypeInteger, Minimum: tool.Bound(1), Maximum: tool.Bound(150), Description: "Inference steps"},
		{Name: "guidanceScale", Type: tool.TypeNumber, Minimum: tool.Bound(0), Maximum: tool.Bound(30), Description: "Prompt adherence strength"},
		{Name: "sampler", Type: tool.TypeString, Description: "Sampler name"},
		{Name: "numImages", Type: tool.TypeInteger, Minimum: tool.Bound(1), Maximum: tool.Bound(4), Description: "Number of images to generate"},
	},
	Project: Projection{
		{Key: "images", Required: true, List: true, Pick: []string{"url"}},
		{Key: "creditUsage"},
	}.Render,
}

type knowledgeAddParams struct {
	KnowledgeBaseID string         `json:"knowledgeBaseId"`
	Content         string         `json:"content"`
	Title           *string        `json:"title,omitempty"`
	URL             *string        `json:"url,omitempty"`
	Metadata        map[string]any `json:"metadata,omitempty"`
}

var knowledgeAddTool = Proxy[knowledgeAddParams]{
	Name:        "add-to-knowledge-base",
	Description: "Add a document to a knowledge base.",
	Schema: tool.Schema{
		{Name: "knowledgeBaseId", Type: tool.TypeString, Required: true, Description: "Knowledge base ID"},
		{Name: "content", Type: tool.TypeString, Required: true, Description: "Document text"},
		{Name: "title", Type: tool.TypeString, Description: "Document title"},
		{Name: "url", Type: tool.TypeString, Description: "Source URL of the document"},
		{Name: "metadata", Type: tool.TypeObject, Description: "Arbitrary metadata stored with the document"},
	},
	Project: Projection{
		{Key: "id"},
		{Key: "title"},
		{Key: "message"},
		{Key: "creditUsage"},
	}.Render,
}

type knowledgeSearchParams struct {
	KnowledgeBaseID string `json:"knowledgeBaseId"`
	Query           string `json:"query"`
	ResultCount     *int   `json:"resultCount,omitempty"`
}

var knowledgeSearchTool = Proxy[knowledgeSearchParams]{
	Name:        "search-knowledge-base",
	Description: "Semantic search over a knowledge base.",
	Schema: tool.Schema{
		{Name: "knowledgeBaseId", Type: tool.TypeString, Required: true, Description: "Knowledge base ID"},
		queryField("Search query"),
		{Name: "resultCount", Type: tool.TypeInteger, Minimum: tool.Bound(1), Maximum: tool.Bound(50), Description: "Maximum number of results"},
	},
	Project: Projection{
		{Key: "results", Required: true, List: true, Pick: []string{"content", "score", "title", "url", "metadata"}},
		{Key: "creditUsage"},
	}.Render,
}
