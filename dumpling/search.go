package dumpling

import "github.com/petal-labs/dumpling-mcp/tool"

var dateRanges = []string{"anyTime", "pastHour", "pastDay", "pastWeek", "pastMonth", "pastYear"}

func queryField(description string) tool.FieldSpec {
	return tool.FieldSpec{Name: "query", Type: tool.TypeString, Required: true, Description: description}
}

var (
	countryField  = tool.FieldSpec{Name: "country", Type: tool.TypeString, Description: "Two-letter country code, e.g. \"us\""}
	locationField = tool.FieldSpec{Name: "location", Type: tool.TypeString, Description: "Location to search from, e.g. \"London, United Kingdom\""}
	languageField = tool.FieldSpec{Name: "language", Type: tool.TypeString, Description: "Two-letter language code, e.g. \"en\""}
	pageField     = tool.FieldSpec{Name: "page", Type: tool.TypeInteger, Minimum: tool.Bound(1), Description: "Results page number"}
	dateRangeFld  = tool.FieldSpec{Name: "dateRange", Type: tool.TypeString, Enum: dateRanges, Description: "Restrict results to a time range"}
)

type scrapeOptions struct {
	Format  *string `json:"format,omitempty"`
	Cleaned *bool   `json:"cleaned,omitempty"`
}

type searchParams struct {
	Query              string         `json:"query"`
	Country            *string        `json:"country,omitempty"`
	Location           *string        `json:"location,omitempty"`
	Language           *string        `json:"language,omitempty"`
	DateRange          *string        `json:"dateRange,omitempty"`
	Page               *int           `json:"page,omitempty"`
	ScrapeResults      *bool          `json:"scrapeResults,omitempty"`
	NumResultsToScrape *int           `json:"numResultsToScrape,omitempty"`
	ScrapeOptions      *scrapeOptions `json:"scrapeOptions,omitempty"`
}

var searchProjection = Projection{
	{Key: "searchParameters", Required: true},
	{Key: "organicResults", From: "organic", Required: true, List: true, Pick: []string{"title", "link", "snippet", "position", "date", "scrapeOutput"}},
	{Key: "featuredSnippet", From: "answerBox"},
	{Key: "relatedSearches"},
	{Key: "peopleAlsoAsk"},
}

var searchTool = Proxy[searchParams]{
	Name:        "search",
	Description: "Search Google and return organic results, optionally scraping the top pages.",
	Schema: tool.Schema{
		queryField("Search query"),
		countryField,
		locationField,
		languageField,
		dateRangeFld,
		pageField,
		{Name: "scrapeResults", Type: tool.TypeBoolean, Description: "Scrape the content of the top results"},
		{Name: "numResultsToScrape", Type: tool.TypeInteger, Minimum: tool.Bound(1), Maximum: tool.Bound(10), Description: "Number of results to scrape when scrapeResults is set"},
		{Name: "scrapeOptions", Type: tool.TypeObject, Description: "Options for scraped results", Properties: tool.Schema{
			{Name: "format", Type: tool.TypeString, Enum: []string{"markdown", "html", "screenshot"}, Description: "Scraped content format"},
			{Name: "cleaned", Type: tool.TypeBoolean, Description: "Strip boilerplate from scraped content"},
		}},
	},
	Project: searchProjection.Render,
}

type autocompleteParams struct {
	Query    string  `json:"query"`
	Location *string `json:"location,omitempty"`
	Country  *string `json:"country,omitempty"`
	Language *string `json:"language,omitempty"`
}

var autocompleteTool = Proxy[autocompleteParams]{
	Name:        "get-autocomplete",
	Description: "Get Google search autocomplete suggestions for a query.",
	Schema: tool.Schema{
		queryField("Partial search query"),
		locationField,
		countryField,
		languageField,
	},
	Project: Projection{
		{Key: "searchParameters", Required: true},
		{Key: "suggestions", Required: true, List: true},
	}.Render,
}

type mapsParams struct {
	Query           string  `json:"query"`
	GPSPositionZoom *string `json:"gpsPositionZoom,omitempty"`
	PlaceID         *string `json:"placeId,omitempty"`
	CID             *string `json:"cid,omitempty"`
	Language        *string `json:"language,omitempty"`
	Page            *int    `json:"page,omitempty"`
}

var mapsTool = Proxy[mapsParams]{
	Name:        "search-maps",
	Description: "Search Google Maps for places matching a query.",
	Schema: tool.Schema{
		queryField("Maps search query"),
		{Name: "gpsPositionZoom", Type: tool.TypeString, Description: "Map position and zoom as \"@latitude,longitude,zoomz\""},
		{Name: "placeId", Type: tool.TypeString, Description: "Google place ID to search around"},
		{Name: "cid", Type: tool.TypeString, Description: "Google customer ID of a place"},
		languageField,
		pageField,
	},
	Project: Projection{
		{Key: "searchParameters", Required: true},
		{Key: "places", Required: true, List: true, Pick: []string{
			"title", "address", "latitude", "longitude", "rating", "ratingCount",
			"type", "website", "phoneNumber", "placeId", "cid",
		}},
	}.Render,
}

type placesParams struct {
	Query    string  `json:"query"`
	Country  *string `json:"country,omitempty"`
	Location *string `json:"location,omitempty"`
	Language *string `json:"language,omitempty"`
	Page     *int    `json:"page,omitempty"`
}

var placesTool = Proxy[placesParams]{
	Name:        "search-places",
	Description: "Search Google Places for businesses and points of interest.",
	Schema: tool.Schema{
		queryField("Places search query"),
		countryField,
		locationField,
		languageField,
		pageField,
	},
	Project: Projection{
		{Key: "searchParameters", Required: true},
		{Key: "places", Required: true, List: true, Pick: []string{
			"title", "address", "latitude", "longitude", "rating", "ratingCount",
			"category", "phoneNumber", "website", "cid",
		}},
	}.Render,
}

type newsParams struct {
	Query     string  `json:"query"`
	Country   *string `json:"country,omitempty"`
	Location  *string `json:"location,omitempty"`
	Language  *string `json:"language,omitempty"`
	DateRange *string `json:"dateRange,omitempty"`
	Page      *int    `json:"page,omitempty"`
}

var newsTool = Proxy[newsParams]{
	Name:        "search-news",
	Description: "Search Google News for recent articles.",
	Schema: tool.Schema{
		queryField("News search query"),
		countryField,
		locationField,
		languageField,
		dateRangeFld,
		pageField,
	},
	Project: Projection{
		{Key: "searchParameters", Required: true},
		{Key: "news", Required: true, List: true, Pick: []string{
			"title", "link", "snippet", "date", "source", "imageUrl", "position",
		}},
	}.Render,
}

type reviewsParams struct {
	PlaceID      *string `json:"placeId,omitempty"`
	BusinessName *string `json:"businessName,omitempty"`
	Language     *string `json:"language,omitempty"`
	Limit        *int    `json:"limit,omitempty"`
	SortBy       *string `json:"sortBy,omitempty"`
}

var reviewsTool = Proxy[reviewsParams]{
	Name:        "get-google-reviews",
	Description: "Fetch Google reviews for a place by place ID or business name.",
	Schema: tool.Schema{
		{Name: "placeId", Type: tool.TypeString, Description: "Google place ID"},
		{Name: "businessName", Type: tool.TypeString, Description: "Business name, used when placeId is unknown"},
		languageField,
		{Name: "limit", Type: tool.TypeInteger, Minimum: tool.Bound(1), Maximum: tool.Bound(1000), Description: "Maximum number of reviews"},
		{Name: "sortBy", Type: tool.TypeString, Enum: []string{"relevant", "newest", "highest_rating", "lowest_rating"}, Description: "Review ordering"},
	},
	Precondition: func(p reviewsParams) error {
		return requireOneOf(named{"placeId", p.PlaceID}, named{"businessName", p.BusinessName})
	},
	Project: Projection{
		{Key: "place"},
		{Key: "reviews", Required: true, List: true},
		{Key: "nextPageToken"},
	}.Render,
}
