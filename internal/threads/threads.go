// Package threads talks to the Threads Graph API: it reads the account's post
// history and publishes text posts.
package threads

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/hpungsan/quill/internal/content"
	qerrors "github.com/hpungsan/quill/internal/errors"
	"github.com/hpungsan/quill/internal/httpclient"
)

const (
	// DefaultBaseURL is the Graph API root.
	DefaultBaseURL = "https://graph.threads.net/v1.0"
	// Source names Threads in UPSTREAM_FETCH details.
	Source = "threads"
	// MaxTextChars is the platform limit for a text post.
	MaxTextChars = 500

	maxPageSize = 100
)

// timestampLayouts are tried in order when parsing post timestamps.
var timestampLayouts = []string{"2006-01-02T15:04:05-0700", time.RFC3339}

// Config configures a Client.
type Config struct {
	AccessToken string
	BaseURL     string
	HTTPClient  *http.Client
}

// Client is an authenticated Graph API client.
type Client struct {
	base *httpclient.BaseClient
}

// New returns a Client. AccessToken is required.
func New(cfg Config) (*Client, error) {
	if cfg.AccessToken == "" {
		return nil, qerrors.NewInvalidRequest("THREADS_ACCESS_TOKEN is not set")
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	base := httpclient.NewBaseClient(cfg.HTTPClient, baseURL)
	base.Header.Set("Authorization", "Bearer "+cfg.AccessToken)
	return &Client{base: base}, nil
}

// User is the authenticated profile.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// Published identifies a live post.
type Published struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// PostURL returns the public URL for a post id.
func PostURL(id string) string {
	return fmt.Sprintf("https://www.threads.net/t/%s/", id)
}

// Me returns the authenticated user.
func (c *Client) Me(ctx context.Context) (*User, error) {
	var u User
	err := c.base.DoJSON(ctx, http.MethodGet, "/me", url.Values{"fields": {"id,username"}}, nil, &u)
	if err != nil {
		return nil, httpclient.UpstreamError(Source, err)
	}
	return &u, nil
}

type threadsPage struct {
	Data []struct {
		ID        string `json:"id"`
		Text      string `json:"text"`
		Timestamp string `json:"timestamp"`
	} `json:"data"`
	Paging struct {
		Cursors struct {
			After string `json:"after"`
		} `json:"cursors"`
		Next string `json:"next"`
	} `json:"paging"`
}

// ListRecentPosts returns up to limit of the account's most recent posts,
// newest first. Media posts without text are skipped.
func (c *Client) ListRecentPosts(ctx context.Context, limit int) ([]content.Post, error) {
	if limit <= 0 {
		return nil, qerrors.NewInvalidRequest("limit must be positive")
	}

	var posts []content.Post
	after := ""
	for {
		q := url.Values{
			"fields": {"id,text,timestamp"},
			"limit":  {strconv.Itoa(min(limit, maxPageSize))},
		}
		if after != "" {
			q.Set("after", after)
		}

		var page threadsPage
		if err := c.base.DoJSON(ctx, http.MethodGet, "/me/threads", q, nil, &page); err != nil {
			return nil, httpclient.UpstreamError(Source, err)
		}

		for _, d := range page.Data {
			if d.Text == "" {
				continue
			}
			posts = append(posts, content.Post{
				ID:        d.ID,
				Text:      d.Text,
				CreatedAt: parseTimestamp(d.Timestamp),
			})
			if len(posts) >= limit {
				return posts, nil
			}
		}

		if len(page.Data) == 0 || page.Paging.Next == "" || page.Paging.Cursors.After == "" {
			return posts, nil
		}
		after = page.Paging.Cursors.After
	}
}

func parseTimestamp(s string) time.Time {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

type containerRequest struct {
	MediaType string `json:"media_type"`
	Text      string `json:"text"`
	ReplyToID string `json:"reply_to_id,omitempty"`
}

type publishRequest struct {
	CreationID string `json:"creation_id"`
}

type idResponse struct {
	ID string `json:"id"`
}

// Publish posts text as a new thread.
func (c *Client) Publish(ctx context.Context, text string) (*Published, error) {
	return c.post(ctx, text, "")
}

// Reply posts text as a reply to the thread threadID.
func (c *Client) Reply(ctx context.Context, threadID, text string) (*Published, error) {
	if threadID == "" {
		return nil, qerrors.NewInvalidRequest("thread id is required")
	}
	return c.post(ctx, text, threadID)
}

// post creates a media container, replying to replyTo when set, and
// publishes it.
func (c *Client) post(ctx context.Context, text, replyTo string) (*Published, error) {
	if text == "" {
		return nil, qerrors.NewInvalidRequest("text is required")
	}
	if n := content.CountChars(text); n > MaxTextChars {
		return nil, qerrors.NewInvalidRequest(fmt.Sprintf("text is %d characters, limit is %d", n, MaxTextChars))
	}

	me, err := c.Me(ctx)
	if err != nil {
		return nil, qerrors.NewPublishFailed(err)
	}

	var container idResponse
	err = c.base.DoJSON(ctx, http.MethodPost, "/"+me.ID+"/threads", nil,
		containerRequest{MediaType: "TEXT", Text: text, ReplyToID: replyTo}, &container)
	if err != nil {
		return nil, qerrors.NewPublishFailed(fmt.Errorf("create container: %w", err))
	}
	if container.ID == "" {
		return nil, qerrors.NewPublishFailed(fmt.Errorf("create container: empty creation id"))
	}

	var published idResponse
	err = c.base.DoJSON(ctx, http.MethodPost, "/"+me.ID+"/threads_publish", nil,
		publishRequest{CreationID: container.ID}, &published)
	if err != nil {
		return nil, qerrors.NewPublishFailed(fmt.Errorf("publish container: %w", err))
	}
	if published.ID == "" {
		return nil, qerrors.NewPublishFailed(fmt.Errorf("publish container: empty thread id"))
	}

	return &Published{ID: published.ID, URL: PostURL(published.ID)}, nil
}
