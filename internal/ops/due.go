package ops

import (
	"context"
	"database/sql"
	"time"

	"github.com/hpungsan/quill/internal/content"
	"github.com/hpungsan/quill/internal/db"
)

// DueInput contains parameters for the Due operation.
type DueInput struct {
	Now time.Time // default: current time
}

// DueOutput lists approved drafts whose schedule has passed.
type DueOutput struct {
	Items []content.Draft `json:"items"`
}

// Due returns approved drafts scheduled at or before input.Now, earliest first.
func Due(ctx context.Context, database *sql.DB, input DueInput) (*DueOutput, error) {
	at := input.Now
	if at.IsZero() {
		at = now()
	}

	drafts, err := db.ListDue(ctx, database, at.Unix())
	if err != nil {
		return nil, err
	}

	return &DueOutput{Items: drafts}, nil
}
