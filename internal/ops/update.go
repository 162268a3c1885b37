package ops

import (
	"context"
	"database/sql"
	"strings"

	"github.com/hpungsan/quill/internal/config"
	"github.com/hpungsan/quill/internal/content"
	"github.com/hpungsan/quill/internal/db"
)

// UpdateTextInput contains parameters for the UpdateText operation.
type UpdateTextInput struct {
	ID   string
	Text string // required
}

// UpdateTextOutput contains the result of the UpdateText operation.
type UpdateTextOutput struct {
	ID    string `json:"id"`
	Chars int    `json:"chars"`
}

// UpdateText replaces the text of a draft that has not been published.
// The status is left unchanged, so an approved draft stays approved.
func UpdateText(ctx context.Context, database *sql.DB, cfg *config.Config, input UpdateTextInput) (*UpdateTextOutput, error) {
	id, err := requireID(input.ID)
	if err != nil {
		return nil, err
	}

	text := strings.TrimSpace(input.Text)
	if err := checkText(text, cfg.MaxChars); err != nil {
		return nil, err
	}

	chars := content.CountChars(text)
	if err := db.UpdateText(ctx, database, id, text, chars, now().Unix()); err != nil {
		return nil, err
	}

	return &UpdateTextOutput{ID: id, Chars: chars}, nil
}
