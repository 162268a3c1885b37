package ops

import (
	"context"
	"database/sql"
	"strings"

	"github.com/hpungsan/quill/internal/content"
	"github.com/hpungsan/quill/internal/db"
	"github.com/hpungsan/quill/internal/errors"
)

// TransitionInput identifies the draft to move through the approval lifecycle.
type TransitionInput struct {
	ID string
}

// TransitionOutput contains the result of a lifecycle transition.
type TransitionOutput struct {
	ID     string         `json:"id"`
	Status content.Status `json:"status"`
	At     int64          `json:"at"`
}

// Approve moves a pending draft to approved.
func Approve(ctx context.Context, database *sql.DB, input TransitionInput) (*TransitionOutput, error) {
	return transition(ctx, database, input.ID, db.StatusChange{From: content.StatusPending, To: content.StatusApproved})
}

// Reject moves a pending draft to rejected.
func Reject(ctx context.Context, database *sql.DB, input TransitionInput) (*TransitionOutput, error) {
	return transition(ctx, database, input.ID, db.StatusChange{From: content.StatusPending, To: content.StatusRejected})
}

// MarkPublishedInput records where an approved draft was published.
type MarkPublishedInput struct {
	ID        string
	ThreadID  string // required
	ThreadURL string
}

// MarkPublished moves an approved draft to published and stores the thread reference.
func MarkPublished(ctx context.Context, database *sql.DB, input MarkPublishedInput) (*TransitionOutput, error) {
	threadID := strings.TrimSpace(input.ThreadID)
	if threadID == "" {
		return nil, errors.NewInvalidRequest("thread_id is required")
	}
	change := db.StatusChange{
		From:     content.StatusApproved,
		To:       content.StatusPublished,
		ThreadID: &threadID,
	}
	if input.ThreadURL != "" {
		change.ThreadURL = &input.ThreadURL
	}
	return transition(ctx, database, input.ID, change)
}

func transition(ctx context.Context, database *sql.DB, rawID string, change db.StatusChange) (*TransitionOutput, error) {
	id, err := requireID(rawID)
	if err != nil {
		return nil, err
	}

	change.At = now().Unix()
	if err := db.UpdateStatus(ctx, database, id, change); err != nil {
		return nil, err
	}

	return &TransitionOutput{
		ID:     id,
		Status: change.To,
		At:     change.At,
	}, nil
}
