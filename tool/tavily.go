package tool

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
)

// TavilySearch is a SearchClient backed by the Tavily search API.
type TavilySearch struct {
	APIKey      string
	BaseURL     string
	SearchDepth string
	Client      *http.Client
}

type TavilyOption func(*TavilySearch)

// WithTavilyBaseURL overrides the API endpoint, mainly for tests.
func WithTavilyBaseURL(baseURL string) TavilyOption {
	return func(t *TavilySearch) {
		t.BaseURL = baseURL
	}
}

// WithTavilySearchDepth sets the search depth: "basic" or "advanced".
func WithTavilySearchDepth(depth string) TavilyOption {
	return func(t *TavilySearch) {
		t.SearchDepth = depth
	}
}

// WithTavilyHTTPClient sets the HTTP client.
func WithTavilyHTTPClient(client *http.Client) TavilyOption {
	return func(t *TavilySearch) {
		t.Client = client
	}
}

// NewTavilySearch creates a new Tavily search client.
// If apiKey is empty, it tries to read from TAVILY_API_KEY environment variable.
func NewTavilySearch(apiKey string, opts ...TavilyOption) (*TavilySearch, error) {
	if apiKey == "" {
		apiKey = os.Getenv("TAVILY_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("TAVILY_API_KEY not set")
	}

	t := &TavilySearch{
		APIKey:      apiKey,
		BaseURL:     "https://api.tavily.com/search",
		SearchDepth: "basic",
		Client:      &http.Client{},
	}

	for _, opt := range opts {
		opt(t)
	}

	return t, nil
}

var _ SearchClient = (*TavilySearch)(nil)

type tavilyResult struct {
	Title   string  `json:"title"`
	URL     string  `json:"url"`
	Content string  `json:"content"`
	Score   float64 `json:"score"`
}

type tavilyResponse struct {
	Results []tavilyResult `json:"results"`
}

// Search queries Tavily and joins the result snippets into one text block.
// A result whose snippet is empty falls back to fetching the page and
// extracting its visible text.
func (t *TavilySearch) Search(ctx context.Context, query string, maxResults int) (*SearchResult, error) {
	reqBody := map[string]any{
		"query":        query,
		"api_key":      t.APIKey,
		"search_depth": t.SearchDepth,
		"max_results":  maxResults,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", t.BaseURL, bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tavily request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tavily api status: %d", resp.StatusCode)
	}

	var result tavilyResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode tavily response: %w", err)
	}

	var snippets []string
	var sources []string
	for _, r := range result.Results {
		content := r.Content
		if content == "" && r.URL != "" {
			// advanced pages sometimes come back without a snippet
			if text, err := FetchPageText(ctx, t.Client, r.URL); err == nil {
				content = text
			}
		}
		if content != "" {
			snippets = append(snippets, content)
		}
		if r.URL != "" {
			sources = append(sources, r.URL)
		}
	}

	return &SearchResult{
		Content: strings.Join(snippets, "\n"),
		Sources: sources,
	}, nil
}
