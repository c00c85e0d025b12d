package dumpling

import "github.com/petal-labs/dumpling-mcp/tool"

var (
	urlField      = tool.FieldSpec{Name: "url", Type: tool.TypeString, Required: true, Description: "Page URL"}
	cleanedField  = tool.FieldSpec{Name: "cleaned", Type: tool.TypeBoolean, Description: "Strip navigation, ads and other boilerplate"}
	renderJSField = tool.FieldSpec{Name: "renderJs", Type: tool.TypeBoolean, Description: "Render JavaScript before capturing the page"}
)

type scrapeParams struct {
	URL      string  `json:"url"`
	Format   *string `json:"format,omitempty"`
	Cleaned  *bool   `json:"cleaned,omitempty"`
	RenderJS *bool   `json:"renderJs,omitempty"`
}

var scrapeTool = Proxy[scrapeParams]{
	Name:        "scrape",
	Description: "Scrape a single web page and return its content.",
	Schema: tool.Schema{
		urlField,
		{Name: "format", Type: tool.TypeString, Enum: []string{"markdown", "html", "screenshot"}, Description: "Output format"},
		cleanedField,
		renderJSField,
	},
	Project: Projection{
		{Key: "title"},
		{Key: "url", Required: true},
		{Key: "content", Required: true},
		{Key: "metadata"},
	}.Render,
}

type crawlParams struct {
	URL      string  `json:"url"`
	Limit    *int    `json:"limit,omitempty"`
	Depth    *int    `json:"depth,omitempty"`
	Format   *string `json:"format,omitempty"`
	Cleaned  *bool   `json:"cleaned,omitempty"`
	RenderJS *bool   `json:"renderJs,omitempty"`
}

var crawlTool = Proxy[crawlParams]{
	Name:        "crawl",
	Description: "Crawl a website starting from a URL and return the content of each page.",
	Schema: tool.Schema{
		{Name: "url", Type: tool.TypeString, Required: true, Description: "Starting URL"},
		{Name: "limit", Type: tool.TypeInteger, Minimum: tool.Bound(1), Maximum: tool.Bound(1000), Description: "Maximum number of pages to crawl"},
		{Name: "depth", Type: tool.TypeInteger, Minimum: tool.Bound(1), Maximum: tool.Bound(10), Description: "Maximum link depth from the starting URL"},
		{Name: "format", Type: tool.TypeString, Enum: []string{"markdown", "text", "raw"}, Description: "Page content format"},
		cleanedField,
		renderJSField,
	},
	Project: Projection{
		{Key: "baseUrl"},
		{Key: "pages", Required: true, List: true, Pick: []string{"url", "title", "content", "metadata"}},
		{Key: "creditUsage"},
	}.Render,
}

type screenshotParams struct {
	URL                string   `json:"url"`
	ViewportWidth      *int     `json:"viewportWidth,omitempty"`
	ViewportHeight     *int     `json:"viewportHeight,omitempty"`
	FullPage           *bool    `json:"fullPage,omitempty"`
	DeviceScaleFactor  *float64 `json:"deviceScaleFactor,omitempty"`
	Format             *string  `json:"format,omitempty"`
	BlockCookieBanners *bool    `json:"blockCookieBanners,omitempty"`
	AutoScroll         *bool    `json:"autoScroll,omitempty"`
	RenderJS           *bool    `json:"renderJs,omitempty"`
	WaitTime           *int     `json:"waitTime,omitempty"`
}

var screenshotTool = Proxy[screenshotParams]{
	Name:        "screenshot",
	Description: "Capture a screenshot of a web page and return its URL.",
	Schema: tool.Schema{
		urlField,
		{Name: "viewportWidth", Type: tool.TypeInteger, Minimum: tool.Bound(1), Description: "Viewport width in pixels"},
		{Name: "viewportHeight", Type: tool.TypeInteger, Minimum: tool.Bound(1), Description: "Viewport height in pixels"},
		{Name: "fullPage", Type: tool.TypeBoolean, Description: "Capture the full scrollable page"},
		{Name: "deviceScaleFactor", Type: tool.TypeNumber, Minimum: tool.Bound(1), Maximum: tool.Bound(4), Description: "Device pixel ratio"},
		{Name: "format", Type: tool.TypeString, Enum: []string{"png", "jpeg", "webp"}, Description: "Image format"},
		{Name: "blockCookieBanners", Type: tool.TypeBoolean, Description: "Hide cookie consent banners"},
		{Name: "autoScroll", Type: tool.TypeBoolean, Description: "Scroll through the page to trigger lazy loading"},
		renderJSField,
		{Name: "waitTime", Type: tool.TypeInteger, Minimum: tool.Bound(0), Maximum: tool.Bound(30000), Description: "Milliseconds to wait before capturing"},
	},
	Project: Projection{
		{Key: "screenshotUrl", Required: true},
		{Key: "creditUsage"},
	}.Render,
}
