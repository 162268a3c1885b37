package ops

import (
	"context"
	"database/sql"
	"strings"
	"testing"
	"time"

	"github.com/hpungsan/quill/internal/config"
	"github.com/hpungsan/quill/internal/content"
	"github.com/hpungsan/quill/internal/db"
	"github.com/hpungsan/quill/internal/errors"
)

const validText = "Small commits make reviews faster. What is your team's rule of thumb?"

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	database, err := db.Init(t.TempDir())
	if err != nil {
		t.Fatalf("db.Init failed: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return database
}

func mustCreate(t *testing.T, database *sql.DB, text string) string {
	t.Helper()
	out, err := Create(context.Background(), database, config.DefaultConfig(), CreateInput{
		Text:     text,
		Mode:     content.ModeAnalysis,
		Metadata: map[string]any{"attempts": 1},
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	return out.ID
}

func TestCreate_HappyPath(t *testing.T) {
	database := openTestDB(t)

	out, err := Create(context.Background(), database, config.DefaultConfig(), CreateInput{
		Text: "  " + validText + "\n",
		Mode: content.ModeBriefs,
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if len(out.ID) != 26 {
		t.Errorf("ID length = %d, want 26 (ULID)", len(out.ID))
	}
	if out.Status != content.StatusPending {
		t.Errorf("Status = %s, want pending", out.Status)
	}
	if out.Chars != content.CountChars(validText) {
		t.Errorf("Chars = %d, want %d", out.Chars, content.CountChars(validText))
	}

	fetched, err := Fetch(context.Background(), database, FetchInput{ID: out.ID})
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if fetched.Text != validText {
		t.Errorf("stored text = %q, want trimmed %q", fetched.Text, validText)
	}
}

func TestCreate_Rejects(t *testing.T) {
	database := openTestDB(t)
	cfg := config.DefaultConfig()

	tests := []struct {
		name  string
		input CreateInput
	}{
		{"empty text", CreateInput{Text: "   ", Mode: content.ModeBriefs}},
		{"too long", CreateInput{Text: strings.Repeat("a", 501), Mode: content.ModeBriefs}},
		{"emoji", CreateInput{Text: "Ship it today \U0001F680 and tell me.", Mode: content.ModeBriefs}},
		{"unknown mode", CreateInput{Text: validText, Mode: "viral"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Create(context.Background(), database, cfg, tt.input)
			if !errors.Is(err, errors.ErrInvalidRequest) {
				t.Errorf("expected INVALID_REQUEST, got %v", err)
			}
		})
	}
}

func TestFetch_Errors(t *testing.T) {
	database := openTestDB(t)

	if _, err := Fetch(context.Background(), database, FetchInput{ID: " "}); !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("blank id: expected INVALID_REQUEST, got %v", err)
	}
	if _, err := Fetch(context.Background(), database, FetchInput{ID: "01MISSING"}); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("missing id: expected NOT_FOUND, got %v", err)
	}
}

func TestList_DefaultStatusesAndPagination(t *testing.T) {
	database := openTestDB(t)
	ctx := context.Background()

	ids := make([]string, 3)
	for i := range ids {
		ids[i] = mustCreate(t, database, validText)
	}
	if _, err := Reject(ctx, database, TransitionInput{ID: ids[0]}); err != nil {
		t.Fatalf("Reject failed: %v", err)
	}
	if _, err := Approve(ctx, database, TransitionInput{ID: ids[1]}); err != nil {
		t.Fatalf("Approve failed: %v", err)
	}

	out, err := List(ctx, database, ListInput{})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if out.Pagination.Total != 2 {
		t.Errorf("Total = %d, want 2 (pending + approved)", out.Pagination.Total)
	}
	if out.Pagination.Limit != DefaultListLimit {
		t.Errorf("Limit = %d, want %d", out.Pagination.Limit, DefaultListLimit)
	}
	if out.Sort != "created_at_desc" {
		t.Errorf("Sort = %q", out.Sort)
	}

	out, err = List(ctx, database, ListInput{All: true, Limit: 1})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if out.Pagination.Total != 3 || len(out.Items) != 1 || !out.Pagination.HasMore {
		t.Errorf("All/limit 1: got %d items, %+v", len(out.Items), out.Pagination)
	}

	out, err = List(ctx, database, ListInput{Statuses: []string{"Rejected"}, Limit: 500})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(out.Items) != 1 || out.Items[0].ID != ids[0] {
		t.Errorf("rejected filter = %+v", out.Items)
	}
	if out.Pagination.Limit != MaxListLimit {
		t.Errorf("Limit = %d, want clamp to %d", out.Pagination.Limit, MaxListLimit)
	}
}

func TestList_UnknownStatus(t *testing.T) {
	database := openTestDB(t)

	_, err := List(context.Background(), database, ListInput{Statuses: []string{"draft"}})
	if !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("expected INVALID_REQUEST, got %v", err)
	}
}

func TestList_EmptyReturnsArray(t *testing.T) {
	database := openTestDB(t)

	out, err := List(context.Background(), database, ListInput{})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if out.Items == nil {
		t.Error("Items should be an empty slice, not nil")
	}
}

func TestLifecycle_ApprovePublish(t *testing.T) {
	database := openTestDB(t)
	ctx := context.Background()
	id := mustCreate(t, database, validText)

	approved, err := Approve(ctx, database, TransitionInput{ID: id})
	if err != nil {
		t.Fatalf("Approve failed: %v", err)
	}
	if approved.Status != content.StatusApproved {
		t.Errorf("Status = %s, want approved", approved.Status)
	}

	// Approving twice is a transition error, not a silent success.
	if _, err := Approve(ctx, database, TransitionInput{ID: id}); !errors.Is(err, errors.ErrInvalidTransition) {
		t.Errorf("second approve: expected INVALID_TRANSITION, got %v", err)
	}
	if _, err := Reject(ctx, database, TransitionInput{ID: id}); !errors.Is(err, errors.ErrInvalidTransition) {
		t.Errorf("reject approved: expected INVALID_TRANSITION, got %v", err)
	}

	_, err = MarkPublished(ctx, database, MarkPublishedInput{ID: id, ThreadID: "179", ThreadURL: "https://www.threads.net/t/179/"})
	if err != nil {
		t.Fatalf("MarkPublished failed: %v", err)
	}

	fetched, _ := Fetch(ctx, database, FetchInput{ID: id})
	if fetched.Status != content.StatusPublished || fetched.ThreadID == nil || *fetched.ThreadID != "179" {
		t.Errorf("after publish: %+v", fetched.Draft)
	}
	if fetched.ApprovedAt == nil || fetched.PublishedAt == nil {
		t.Error("approved_at and published_at should be set")
	}
}

func TestMarkPublished_RequiresApproval(t *testing.T) {
	database := openTestDB(t)
	ctx := context.Background()
	id := mustCreate(t, database, validText)

	_, err := MarkPublished(ctx, database, MarkPublishedInput{ID: id, ThreadID: "1"})
	if !errors.Is(err, errors.ErrInvalidTransition) {
		t.Errorf("publish pending: expected INVALID_TRANSITION, got %v", err)
	}

	_, err = MarkPublished(ctx, database, MarkPublishedInput{ID: id})
	if !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("missing thread id: expected INVALID_REQUEST, got %v", err)
	}
}

func TestUpdateText(t *testing.T) {
	database := openTestDB(t)
	ctx := context.Background()
	cfg := config.DefaultConfig()
	id := mustCreate(t, database, validText)

	if _, err := Approve(ctx, database, TransitionInput{ID: id}); err != nil {
		t.Fatalf("Approve failed: %v", err)
	}

	out, err := UpdateText(ctx, database, cfg, UpdateTextInput{ID: id, Text: "Rewritten for clarity."})
	if err != nil {
		t.Fatalf("UpdateText failed: %v", err)
	}
	if out.Chars != 22 {
		t.Errorf("Chars = %d, want 22", out.Chars)
	}

	fetched, _ := Fetch(ctx, database, FetchInput{ID: id})
	if fetched.Status != content.StatusApproved {
		t.Errorf("edit should keep status approved, got %s", fetched.Status)
	}

	if _, err := UpdateText(ctx, database, cfg, UpdateTextInput{ID: id, Text: strings.Repeat("x", 600)}); !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("too long edit: expected INVALID_REQUEST, got %v", err)
	}

	if _, err := MarkPublished(ctx, database, MarkPublishedInput{ID: id, ThreadID: "9"}); err != nil {
		t.Fatalf("MarkPublished failed: %v", err)
	}
	if _, err := UpdateText(ctx, database, cfg, UpdateTextInput{ID: id, Text: "Too late now."}); !errors.Is(err, errors.ErrInvalidTransition) {
		t.Errorf("edit published: expected INVALID_TRANSITION, got %v", err)
	}
}

func TestScheduleAndDue(t *testing.T) {
	database := openTestDB(t)
	ctx := context.Background()

	early := mustCreate(t, database, validText)
	late := mustCreate(t, database, validText)
	for _, id := range []string{early, late} {
		if _, err := Approve(ctx, database, TransitionInput{ID: id}); err != nil {
			t.Fatalf("Approve failed: %v", err)
		}
	}

	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	earlyAt := base
	lateAt := base.Add(2 * time.Hour)
	if _, err := Schedule(ctx, database, ScheduleInput{ID: early, At: &earlyAt}); err != nil {
		t.Fatalf("Schedule failed: %v", err)
	}
	out, err := Schedule(ctx, database, ScheduleInput{ID: late, At: &lateAt})
	if err != nil {
		t.Fatalf("Schedule failed: %v", err)
	}
	if out.ScheduledAt == nil || *out.ScheduledAt != lateAt.Unix() {
		t.Errorf("ScheduledAt = %v, want %d", out.ScheduledAt, lateAt.Unix())
	}

	due, err := Due(ctx, database, DueInput{Now: base.Add(time.Hour)})
	if err != nil {
		t.Fatalf("Due failed: %v", err)
	}
	if len(due.Items) != 1 || due.Items[0].ID != early {
		t.Errorf("due = %+v, want only %s", due.Items, early)
	}

	if _, err := Schedule(ctx, database, ScheduleInput{ID: early}); err != nil {
		t.Fatalf("clear schedule failed: %v", err)
	}
	due, _ = Due(ctx, database, DueInput{Now: base.Add(3 * time.Hour)})
	if len(due.Items) != 1 || due.Items[0].ID != late {
		t.Errorf("due after clear = %+v, want only %s", due.Items, late)
	}
}

func TestSchedule_RejectedDraft(t *testing.T) {
	database := openTestDB(t)
	ctx := context.Background()
	id := mustCreate(t, database, validText)
	if _, err := Reject(ctx, database, TransitionInput{ID: id}); err != nil {
		t.Fatalf("Reject failed: %v", err)
	}

	at := time.Now()
	if _, err := Schedule(ctx, database, ScheduleInput{ID: id, At: &at}); !errors.Is(err, errors.ErrInvalidTransition) {
		t.Errorf("expected INVALID_TRANSITION, got %v", err)
	}
}

func TestDelete(t *testing.T) {
	database := openTestDB(t)
	ctx := context.Background()
	id := mustCreate(t, database, validText)

	out, err := Delete(ctx, database, DeleteInput{ID: id})
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if !out.Deleted || out.ID != id {
		t.Errorf("Delete output = %+v", out)
	}
	if _, err := Delete(ctx, database, DeleteInput{ID: id}); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("second delete: expected NOT_FOUND, got %v", err)
	}
}

func TestGenerateULID_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id, err := generateULID()
		if err != nil {
			t.Fatalf("generateULID failed: %v", err)
		}
		if seen[id] {
			t.Fatalf("duplicate ULID %s", id)
		}
		seen[id] = true
	}
}
