package ops

import (
	"context"
	"database/sql"

	"github.com/hpungsan/quill/internal/content"
	"github.com/hpungsan/quill/internal/db"
)

// FetchInput contains parameters for the Fetch operation.
type FetchInput struct {
	ID string
}

// FetchOutput contains the result of the Fetch operation.
type FetchOutput struct {
	content.Draft // embedded (copy, not pointer)
}

// Fetch retrieves a draft by ID.
func Fetch(ctx context.Context, database *sql.DB, input FetchInput) (*FetchOutput, error) {
	id, err := requireID(input.ID)
	if err != nil {
		return nil, err
	}

	d, err := db.GetDraft(ctx, database, id)
	if err != nil {
		return nil, err
	}

	return &FetchOutput{Draft: *d}, nil
}
