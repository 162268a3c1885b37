package notion

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	qerrors "github.com/hpungsan/quill/internal/errors"
)

func pageJSON(id, topic, status string, postTypes ...string) string {
	types := "[]"
	if len(postTypes) > 0 {
		b, _ := json.Marshal(func() []map[string]string {
			var out []map[string]string
			for _, pt := range postTypes {
				out = append(out, map[string]string{"name": pt})
			}
			return out
		}())
		types = string(b)
	}
	title := "[]"
	if topic != "" {
		title = fmt.Sprintf(`[{"plain_text": %q}]`, topic)
	}
	return fmt.Sprintf(`{
		"id": %q,
		"created_time": "2025-01-02T03:04:05.000Z",
		"last_edited_time": "2025-01-03T03:04:05.000Z",
		"properties": {
			"Topic/Keyword": {"type": "title", "title": %s},
			"Pillar": {"type": "select", "select": {"name": "Engineering"}},
			"Platform": {"type": "multi_select", "multi_select": [{"name": "Threads"}]},
			"Post Type": {"type": "multi_select", "multi_select": %s},
			"Status": {"type": "select", "select": {"name": %q}}
		}
	}`, id, title, types, status)
}

func newTestClient(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()
	c, err := New(Config{APIKey: "secret", DatabaseID: "db1", BaseURL: srv.URL})
	require.NoError(t, err)
	return c
}

func TestNew_RequiresCredentials(t *testing.T) {
	_, err := New(Config{DatabaseID: "db"})
	assert.True(t, qerrors.Is(err, qerrors.ErrInvalidRequest))

	_, err = New(Config{APIKey: "k"})
	assert.True(t, qerrors.Is(err, qerrors.ErrInvalidRequest))
}

func TestListBriefs_PaginatesAndSkipsEmptyTopics(t *testing.T) {
	var cursors []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/databases/db1/query", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.Equal(t, APIVersion, r.Header.Get("Notion-Version"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		cursor, _ := body["start_cursor"].(string)
		cursors = append(cursors, cursor)

		if cursor == "" {
			fmt.Fprintf(w, `{"results": [%s, %s], "has_more": true, "next_cursor": "c2"}`,
				pageJSON("p1", "Incident reviews", "Ready", "Tip"),
				pageJSON("p2", "", "Ready"))
			return
		}
		fmt.Fprintf(w, `{"results": [%s], "has_more": false, "next_cursor": null}`,
			pageJSON("p3", "Runbooks", "Ready", "Story", "Tip"))
	}))
	defer srv.Close()

	briefs, err := newTestClient(t, srv).ListBriefs(context.Background(), Filter{})
	require.NoError(t, err)

	assert.Equal(t, []string{"", "c2"}, cursors)
	require.Len(t, briefs, 2)
	assert.Equal(t, "p1", briefs[0].PageID)
	assert.Equal(t, "Incident reviews", briefs[0].Topic)
	assert.Equal(t, "Engineering", briefs[0].Pillar)
	assert.Equal(t, []string{"Threads"}, briefs[0].Platforms)
	assert.Equal(t, []string{"Tip"}, briefs[0].PostTypes)
	assert.Equal(t, "Ready", briefs[0].Status)
	assert.Equal(t, 2025, briefs[0].CreatedTime.Year())
	assert.Equal(t, []string{"Story", "Tip"}, briefs[1].PostTypes)
}

func TestListBriefs_StopsAtLimit(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		fmt.Fprintf(w, `{"results": [%s, %s], "has_more": true, "next_cursor": "more"}`,
			pageJSON("p1", "One", "Ready"), pageJSON("p2", "Two", "Ready"))
	}))
	defer srv.Close()

	briefs, err := newTestClient(t, srv).ListBriefs(context.Background(), Filter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, briefs, 1)
	assert.Equal(t, 1, calls)
}

func TestListBriefs_UpstreamErrors(t *testing.T) {
	cases := []struct {
		status int
		kind   qerrors.FetchKind
	}{
		{http.StatusUnauthorized, qerrors.FetchPermission},
		{http.StatusTooManyRequests, qerrors.FetchRateLimit},
		{http.StatusBadGateway, qerrors.FetchUnavailable},
	}
	for _, tc := range cases {
		t.Run(http.StatusText(tc.status), func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
			}))
			defer srv.Close()

			_, err := newTestClient(t, srv).ListBriefs(context.Background(), Filter{})
			require.Error(t, err)
			assert.True(t, qerrors.Is(err, qerrors.ErrUpstreamFetch))
			assert.Equal(t, tc.kind, qerrors.KindOf(err))

			qErr, _ := qerrors.As(err)
			assert.Equal(t, Source, qErr.Details["source"])
			assert.Equal(t, tc.status, qErr.Details["upstream_status"])
		})
	}
}

func TestBuildFilter(t *testing.T) {
	assert.Nil(t, BuildFilter(Filter{}))

	single := BuildFilter(Filter{Status: "Ready"})
	assert.Equal(t, map[string]any{
		"property": PropStatus,
		"select":   map[string]any{"equals": "Ready"},
	}, single)

	combined := BuildFilter(Filter{Status: "Ready", PostTypes: []string{"Tip", "Story"}, Platform: "Threads"})
	and, ok := combined["and"].([]map[string]any)
	require.True(t, ok)
	require.Len(t, and, 3)

	or, ok := and[1]["or"].([]map[string]any)
	require.True(t, ok)
	assert.Len(t, or, 2)
	assert.Equal(t, map[string]any{"contains": "Story"}, or[1]["multi_select"])
	assert.Equal(t, PropPlatform, and[2]["property"])
}
