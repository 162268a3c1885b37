// Package notion reads content briefs from a Notion database.
package notion

import (
	"context"
	"net/http"
	"time"

	"github.com/hpungsan/quill/internal/content"
	qerrors "github.com/hpungsan/quill/internal/errors"
	"github.com/hpungsan/quill/internal/httpclient"
)

const (
	// DefaultBaseURL is the public Notion API root.
	DefaultBaseURL = "https://api.notion.com/v1"
	// APIVersion is sent as the Notion-Version header.
	APIVersion = "2022-06-28"
	// Source names Notion in UPSTREAM_FETCH details.
	Source = "notion"

	pageSize = 100
)

// Database property names.
const (
	PropTopic    = "Topic/Keyword"
	PropPillar   = "Pillar"
	PropPlatform = "Platform"
	PropPostType = "Post Type"
	PropStatus   = "Status"
)

// Config configures a Client.
type Config struct {
	APIKey     string
	DatabaseID string
	BaseURL    string
	HTTPClient *http.Client
}

// Client queries one briefs database.
type Client struct {
	base       *httpclient.BaseClient
	databaseID string
}

// New returns a Client. APIKey and DatabaseID are required.
func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, qerrors.NewInvalidRequest("NOTION_API_KEY is not set")
	}
	if cfg.DatabaseID == "" {
		return nil, qerrors.NewInvalidRequest("NOTION_DATABASE_ID is not set")
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	base := httpclient.NewBaseClient(cfg.HTTPClient, baseURL)
	base.Header.Set("Authorization", "Bearer "+cfg.APIKey)
	base.Header.Set("Notion-Version", APIVersion)

	return &Client{base: base, databaseID: cfg.DatabaseID}, nil
}

// Filter narrows ListBriefs. Zero fields are not applied; Limit <= 0 means no limit.
type Filter struct {
	Status    string
	PostTypes []string
	Platform  string
	Limit     int
}

// queryRequest is the body of POST /databases/{id}/query.
type queryRequest struct {
	Filter      map[string]any `json:"filter,omitempty"`
	StartCursor string         `json:"start_cursor,omitempty"`
	PageSize    int            `json:"page_size,omitempty"`
}

type queryResponse struct {
	Results    []page `json:"results"`
	HasMore    bool   `json:"has_more"`
	NextCursor string `json:"next_cursor"`
}

type page struct {
	ID             string              `json:"id"`
	CreatedTime    time.Time           `json:"created_time"`
	LastEditedTime time.Time           `json:"last_edited_time"`
	Properties     map[string]property `json:"properties"`
}

type property struct {
	Type        string     `json:"type"`
	Title       []richText `json:"title"`
	Select      *option    `json:"select"`
	MultiSelect []option   `json:"multi_select"`
}

type richText struct {
	PlainText string `json:"plain_text"`
}

type option struct {
	Name string `json:"name"`
}

// ListBriefs returns briefs matching f in database order. Rows without a
// topic are skipped. Pagination stops as soon as Limit briefs are collected.
func (c *Client) ListBriefs(ctx context.Context, f Filter) ([]content.Brief, error) {
	req := queryRequest{Filter: BuildFilter(f), PageSize: pageSize}

	var briefs []content.Brief
	for {
		var resp queryResponse
		if err := c.base.DoJSON(ctx, http.MethodPost, "/databases/"+c.databaseID+"/query", nil, req, &resp); err != nil {
			return nil, httpclient.UpstreamError(Source, err)
		}

		for _, p := range resp.Results {
			b := extractBrief(p)
			if b.Topic == "" {
				continue
			}
			briefs = append(briefs, b)
			if f.Limit > 0 && len(briefs) >= f.Limit {
				return briefs, nil
			}
		}

		if !resp.HasMore || resp.NextCursor == "" {
			return briefs, nil
		}
		req.StartCursor = resp.NextCursor
	}
}

// BuildFilter composes the Notion filter object for f, or nil for no filter.
func BuildFilter(f Filter) map[string]any {
	var filters []map[string]any

	if f.Status != "" {
		filters = append(filters, map[string]any{
			"property": PropStatus,
			"select":   map[string]any{"equals": f.Status},
		})
	}

	switch len(f.PostTypes) {
	case 0:
	case 1:
		filters = append(filters, multiSelectContains(PropPostType, f.PostTypes[0]))
	default:
		var anyOf []map[string]any
		for _, pt := range f.PostTypes {
			anyOf = append(anyOf, multiSelectContains(PropPostType, pt))
		}
		filters = append(filters, map[string]any{"or": anyOf})
	}

	if f.Platform != "" {
		filters = append(filters, multiSelectContains(PropPlatform, f.Platform))
	}

	switch len(filters) {
	case 0:
		return nil
	case 1:
		return filters[0]
	default:
		return map[string]any{"and": filters}
	}
}

func multiSelectContains(prop, value string) map[string]any {
	return map[string]any{
		"property":     prop,
		"multi_select": map[string]any{"contains": value},
	}
}

func extractBrief(p page) content.Brief {
	b := content.Brief{
		PageID:         p.ID,
		CreatedTime:    p.CreatedTime,
		LastEditedTime: p.LastEditedTime,
	}
	if prop, ok := p.Properties[PropTopic]; ok && prop.Type == "title" && len(prop.Title) > 0 {
		b.Topic = prop.Title[0].PlainText
	}
	b.Pillar = selectName(p.Properties[PropPillar])
	b.Status = selectName(p.Properties[PropStatus])
	b.Platforms = multiSelectNames(p.Properties[PropPlatform])
	b.PostTypes = multiSelectNames(p.Properties[PropPostType])
	return b
}

func selectName(prop property) string {
	if prop.Type != "select" || prop.Select == nil {
		return ""
	}
	return prop.Select.Name
}

func multiSelectNames(prop property) []string {
	if prop.Type != "multi_select" {
		return nil
	}
	names := make([]string, 0, len(prop.MultiSelect))
	for _, o := range prop.MultiSelect {
		names = append(names, o.Name)
	}
	return names
}
