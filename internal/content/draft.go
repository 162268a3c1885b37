package content

// Status is the approval lifecycle state of a stored draft.
type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusPublished Status = "published"
)

// ParseStatus validates a status string.
func ParseStatus(s string) (Status, bool) {
	switch st := Status(Normalize(s)); st {
	case StatusPending, StatusApproved, StatusRejected, StatusPublished:
		return st, true
	}
	return "", false
}

// transitions lists the allowed next states for each state.
var transitions = map[Status][]Status{
	StatusPending:  {StatusApproved, StatusRejected},
	StatusApproved: {StatusPublished},
}

// CanTransition reports whether a draft may move from one status to another.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Draft is a generated post persisted for approval.
type Draft struct {
	// ID is a ULID that uniquely identifies this draft
	ID string `json:"id"`

	// Text is the post body
	Text string `json:"text"`

	// Chars is the character count (runes, not bytes)
	Chars int `json:"chars"`

	// Mode is the generation path that produced the text
	Mode Mode `json:"mode"`

	// Metadata carries the source of the draft (brief, analysis, connection type, attempts)
	Metadata map[string]any `json:"metadata,omitempty"`

	Status Status `json:"status"`

	CreatedAt int64 `json:"created_at"`
	UpdatedAt int64 `json:"updated_at"`

	ApprovedAt  *int64 `json:"approved_at,omitempty"`
	PublishedAt *int64 `json:"published_at,omitempty"`

	// ScheduledAt is the Unix time after which an approved draft may be published by publish-due
	ScheduledAt *int64 `json:"scheduled_at,omitempty"`

	ThreadID  *string `json:"thread_id,omitempty"`
	ThreadURL *string `json:"thread_url,omitempty"`
}

// DraftSummary is a draft without its metadata, used for list views.
type DraftSummary struct {
	ID          string  `json:"id"`
	Preview     string  `json:"preview"`
	Chars       int     `json:"chars"`
	Mode        Mode    `json:"mode"`
	Status      Status  `json:"status"`
	CreatedAt   int64   `json:"created_at"`
	UpdatedAt   int64   `json:"updated_at"`
	ScheduledAt *int64  `json:"scheduled_at,omitempty"`
	ThreadURL   *string `json:"thread_url,omitempty"`
}

// ListPreviewChars is the preview length used in summaries.
const ListPreviewChars = 120

// ToSummary converts a Draft to a DraftSummary.
func (d *Draft) ToSummary() DraftSummary {
	return DraftSummary{
		ID:          d.ID,
		Preview:     Preview(d.Text, ListPreviewChars),
		Chars:       d.Chars,
		Mode:        d.Mode,
		Status:      d.Status,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
		ScheduledAt: d.ScheduledAt,
		ThreadURL:   d.ThreadURL,
	}
}
