package ops

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/hpungsan/quill/internal/config"
	"github.com/hpungsan/quill/internal/content"
	"github.com/hpungsan/quill/internal/db"
	"github.com/hpungsan/quill/internal/errors"
)

// CreateInput contains parameters for the Create operation.
type CreateInput struct {
	Text     string // required
	Mode     content.Mode
	Metadata map[string]any
}

// CreateOutput contains the result of the Create operation.
type CreateOutput struct {
	ID     string         `json:"id"`
	Status content.Status `json:"status"`
	Chars  int            `json:"chars"`
}

// Create stores a new pending draft.
func Create(ctx context.Context, database *sql.DB, cfg *config.Config, input CreateInput) (*CreateOutput, error) {
	text := strings.TrimSpace(input.Text)
	if err := checkText(text, cfg.MaxChars); err != nil {
		return nil, err
	}
	if _, ok := content.ParseMode(string(input.Mode)); !ok {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("unknown mode %q", input.Mode))
	}

	id, err := generateULID()
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	ts := now().Unix()
	d := &content.Draft{
		ID:        id,
		Text:      text,
		Chars:     content.CountChars(text),
		Mode:      input.Mode,
		Metadata:  input.Metadata,
		Status:    content.StatusPending,
		CreatedAt: ts,
		UpdatedAt: ts,
	}
	if err := db.InsertDraft(ctx, database, d); err != nil {
		return nil, err
	}

	return &CreateOutput{
		ID:     id,
		Status: d.Status,
		Chars:  d.Chars,
	}, nil
}

// checkText applies the post rules that hold for stored text regardless of
// how it was produced.
func checkText(text string, maxChars int) error {
	result := content.Validate(content.ValidateInput{Text: text, MaxChars: maxChars})
	switch {
	case result.Empty:
		return errors.NewInvalidRequest("text is required")
	case result.TooLarge:
		return errors.NewInvalidRequest(fmt.Sprintf("text is %d characters, maximum is %d", result.ActualChars, result.MaxChars))
	case len(result.Emoji) > 0:
		return errors.NewInvalidRequest(fmt.Sprintf("text contains emoji: %s", strings.Join(result.Emoji, " ")))
	}
	return nil
}
