package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"

	"github.com/hpungsan/quill/internal/content"
	"github.com/hpungsan/quill/internal/errors"
)

const draftColumns = `
	id, text, chars, mode, metadata_json, status,
	created_at, updated_at, approved_at, published_at, scheduled_at,
	thread_id, thread_url
`

// InsertDraft stores a new draft.
func InsertDraft(ctx context.Context, db *sql.DB, d *content.Draft) error {
	metadata, err := marshalMetadata(d.Metadata)
	if err != nil {
		return errors.NewInternal(err)
	}

	query := `INSERT INTO drafts (` + draftColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = db.ExecContext(ctx, query,
		d.ID, d.Text, d.Chars, string(d.Mode), metadata, string(d.Status),
		d.CreatedAt, d.UpdatedAt, toNullInt64(d.ApprovedAt), toNullInt64(d.PublishedAt), toNullInt64(d.ScheduledAt),
		toNullString(d.ThreadID), toNullString(d.ThreadURL),
	)
	if err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// GetDraft retrieves a draft by its ULID.
func GetDraft(ctx context.Context, db *sql.DB, id string) (*content.Draft, error) {
	row := db.QueryRowContext(ctx, `SELECT `+draftColumns+` FROM drafts WHERE id = ?`, id)
	d, err := scanDraft(row)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound(id)
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return d, nil
}

// ListDrafts returns drafts in the given statuses (all statuses when empty),
// newest first, plus the total number of matching rows.
func ListDrafts(ctx context.Context, db *sql.DB, statuses []content.Status, limit, offset int) ([]content.Draft, int, error) {
	where := ""
	var args []any
	if len(statuses) > 0 {
		placeholders := make([]string, len(statuses))
		for i, s := range statuses {
			placeholders[i] = "?"
			args = append(args, string(s))
		}
		where = " WHERE status IN (" + strings.Join(placeholders, ", ") + ")"
	}

	var total int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM drafts`+where, args...).Scan(&total); err != nil {
		return nil, 0, errors.NewInternal(err)
	}

	query := `SELECT ` + draftColumns + ` FROM drafts` + where + ` ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`
	rows, err := db.QueryContext(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, errors.NewInternal(err)
	}
	drafts, err := collectDrafts(rows)
	if err != nil {
		return nil, 0, err
	}
	return drafts, total, nil
}

// ListDue returns approved drafts whose scheduled_at is at or before now,
// earliest schedule first.
func ListDue(ctx context.Context, db *sql.DB, now int64) ([]content.Draft, error) {
	query := `SELECT ` + draftColumns + ` FROM drafts
		WHERE status = 'approved' AND scheduled_at IS NOT NULL AND scheduled_at <= ?
		ORDER BY scheduled_at ASC, id ASC`
	rows, err := db.QueryContext(ctx, query, now)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return collectDrafts(rows)
}

// StatusChange describes a lifecycle transition to persist.
type StatusChange struct {
	From      content.Status
	To        content.Status
	At        int64
	ThreadID  *string
	ThreadURL *string
}

// UpdateStatus applies c to draft id only if the draft is still in c.From.
// approved_at or published_at is set according to c.To.
func UpdateStatus(ctx context.Context, db *sql.DB, id string, c StatusChange) error {
	if !content.CanTransition(c.From, c.To) {
		return errors.NewInvalidTransition(id, string(c.From), string(c.To))
	}

	set := "status = ?, updated_at = ?"
	args := []any{string(c.To), c.At}
	switch c.To {
	case content.StatusApproved:
		set += ", approved_at = ?"
		args = append(args, c.At)
	case content.StatusPublished:
		set += ", published_at = ?, thread_id = ?, thread_url = ?"
		args = append(args, c.At, toNullString(c.ThreadID), toNullString(c.ThreadURL))
	}
	args = append(args, id, string(c.From))

	result, err := db.ExecContext(ctx, `UPDATE drafts SET `+set+` WHERE id = ? AND status = ?`, args...)
	if err != nil {
		return errors.NewInternal(err)
	}
	return checkGuardedUpdate(ctx, db, result, id, string(c.To))
}

// UpdateText replaces the text of a draft that has not been published.
func UpdateText(ctx context.Context, db *sql.DB, id, text string, chars int, now int64) error {
	result, err := db.ExecContext(ctx, `
		UPDATE drafts SET text = ?, chars = ?, updated_at = ?
		WHERE id = ? AND status != 'published'
	`, text, chars, now, id)
	if err != nil {
		return errors.NewInternal(err)
	}
	return checkGuardedUpdate(ctx, db, result, id, "edited")
}

// SetSchedule sets or clears (at == nil) the publish time of a pending or approved draft.
func SetSchedule(ctx context.Context, db *sql.DB, id string, at *int64, now int64) error {
	result, err := db.ExecContext(ctx, `
		UPDATE drafts SET scheduled_at = ?, updated_at = ?
		WHERE id = ? AND status IN ('pending', 'approved')
	`, toNullInt64(at), now, id)
	if err != nil {
		return errors.NewInternal(err)
	}
	return checkGuardedUpdate(ctx, db, result, id, "scheduled")
}

// DeleteDraft permanently removes a draft.
func DeleteDraft(ctx context.Context, db *sql.DB, id string) error {
	result, err := db.ExecContext(ctx, `DELETE FROM drafts WHERE id = ?`, id)
	if err != nil {
		return errors.NewInternal(err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.NewInternal(err)
	}
	if rowsAffected == 0 {
		return errors.NewNotFound(id)
	}
	return nil
}

// checkGuardedUpdate turns a zero-row conditional UPDATE into NOT_FOUND when
// the draft is missing, or INVALID_TRANSITION naming its current status.
func checkGuardedUpdate(ctx context.Context, db *sql.DB, result sql.Result, id, to string) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.NewInternal(err)
	}
	if rowsAffected > 0 {
		return nil
	}

	var current string
	err = db.QueryRowContext(ctx, `SELECT status FROM drafts WHERE id = ?`, id).Scan(&current)
	if err == sql.ErrNoRows {
		return errors.NewNotFound(id)
	}
	if err != nil {
		return errors.NewInternal(err)
	}
	return errors.NewInvalidTransition(id, current, to)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDraft(row scanner) (*content.Draft, error) {
	var (
		d           content.Draft
		mode        string
		status      string
		metadata    sql.NullString
		approvedAt  sql.NullInt64
		publishedAt sql.NullInt64
		scheduledAt sql.NullInt64
		threadID    sql.NullString
		threadURL   sql.NullString
	)

	err := row.Scan(
		&d.ID, &d.Text, &d.Chars, &mode, &metadata, &status,
		&d.CreatedAt, &d.UpdatedAt, &approvedAt, &publishedAt, &scheduledAt,
		&threadID, &threadURL,
	)
	if err != nil {
		return nil, err
	}

	d.Mode = content.Mode(mode)
	d.Status = content.Status(status)
	d.ApprovedAt = fromNullInt64(approvedAt)
	d.PublishedAt = fromNullInt64(publishedAt)
	d.ScheduledAt = fromNullInt64(scheduledAt)
	d.ThreadID = fromNullString(threadID)
	d.ThreadURL = fromNullString(threadURL)

	if metadata.Valid && metadata.String != "" {
		if err := json.Unmarshal([]byte(metadata.String), &d.Metadata); err != nil {
			return nil, err
		}
	}

	return &d, nil
}

func collectDrafts(rows *sql.Rows) ([]content.Draft, error) {
	defer rows.Close()

	drafts := []content.Draft{}
	for rows.Next() {
		d, err := scanDraft(rows)
		if err != nil {
			return nil, errors.NewInternal(err)
		}
		drafts = append(drafts, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return drafts, nil
}

func marshalMetadata(m map[string]any) (sql.NullString, error) {
	if len(m) == 0 {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

// toNullString converts a *string to sql.NullString.
func toNullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

// fromNullString converts a sql.NullString to *string.
func fromNullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}

func toNullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func fromNullInt64(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	return &n.Int64
}
