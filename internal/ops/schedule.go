package ops

import (
	"context"
	"database/sql"
	"time"

	"github.com/hpungsan/quill/internal/db"
)

// ScheduleInput contains parameters for the Schedule operation.
type ScheduleInput struct {
	ID string
	At *time.Time // nil clears the schedule
}

// ScheduleOutput contains the result of the Schedule operation.
type ScheduleOutput struct {
	ID          string `json:"id"`
	ScheduledAt *int64 `json:"scheduled_at"`
}

// Schedule sets or clears the time after which an approved draft is published
// by publish-due. Only pending and approved drafts can be scheduled.
func Schedule(ctx context.Context, database *sql.DB, input ScheduleInput) (*ScheduleOutput, error) {
	id, err := requireID(input.ID)
	if err != nil {
		return nil, err
	}

	var at *int64
	if input.At != nil {
		unix := input.At.Unix()
		at = &unix
	}

	if err := db.SetSchedule(ctx, database, id, at, now().Unix()); err != nil {
		return nil, err
	}

	return &ScheduleOutput{ID: id, ScheduledAt: at}, nil
}
