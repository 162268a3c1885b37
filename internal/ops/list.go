package ops

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hpungsan/quill/internal/content"
	"github.com/hpungsan/quill/internal/db"
	"github.com/hpungsan/quill/internal/errors"
)

// DefaultListStatuses are the statuses listed when none are given: the
// drafts that still need a decision or a publish.
var DefaultListStatuses = []content.Status{content.StatusPending, content.StatusApproved}

// ListInput contains parameters for the List operation.
type ListInput struct {
	Statuses []string // default: pending, approved
	All      bool     // ignore Statuses and list every draft
	Limit    int      // default: 20, max: 100
	Offset   int      // default: 0
}

// ListOutput contains the result of the List operation.
type ListOutput struct {
	Items      []content.DraftSummary `json:"items"`
	Pagination Pagination             `json:"pagination"`
	Sort       string                 `json:"sort"`
}

// List retrieves draft summaries filtered by status with pagination.
func List(ctx context.Context, database *sql.DB, input ListInput) (*ListOutput, error) {
	statuses, err := parseStatuses(input.Statuses)
	if err != nil {
		return nil, err
	}
	if input.All {
		statuses = nil
	} else if len(statuses) == 0 {
		statuses = DefaultListStatuses
	}

	// Apply limit defaults and bounds
	limit := input.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}

	// Ensure offset is non-negative
	offset := max(input.Offset, 0)

	drafts, total, err := db.ListDrafts(ctx, database, statuses, limit, offset)
	if err != nil {
		return nil, err
	}

	items := make([]content.DraftSummary, 0, len(drafts))
	for i := range drafts {
		items = append(items, drafts[i].ToSummary())
	}

	return &ListOutput{
		Items: items,
		Pagination: Pagination{
			Limit:   limit,
			Offset:  offset,
			HasMore: offset+len(items) < total,
			Total:   total,
		},
		Sort: "created_at_desc",
	}, nil
}

func parseStatuses(raw []string) ([]content.Status, error) {
	var statuses []content.Status
	for _, s := range raw {
		if s == "" {
			continue
		}
		st, ok := content.ParseStatus(s)
		if !ok {
			return nil, errors.NewInvalidRequest(fmt.Sprintf("unknown status %q", s))
		}
		statuses = append(statuses, st)
	}
	return statuses, nil
}
