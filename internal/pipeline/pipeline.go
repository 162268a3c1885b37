// Package pipeline runs the draft workflow end to end: fetch inputs, build a
// prompt, generate, store for approval, notify, and publish approved drafts.
package pipeline

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/hpungsan/quill/internal/analyzer"
	"github.com/hpungsan/quill/internal/brand"
	"github.com/hpungsan/quill/internal/config"
	"github.com/hpungsan/quill/internal/content"
	qerrors "github.com/hpungsan/quill/internal/errors"
	"github.com/hpungsan/quill/internal/logger"
	"github.com/hpungsan/quill/internal/notify"
	"github.com/hpungsan/quill/internal/notion"
	"github.com/hpungsan/quill/internal/ops"
	"github.com/hpungsan/quill/internal/prompt"
	"github.com/hpungsan/quill/internal/threads"
)

// BriefSource lists content briefs.
type BriefSource interface {
	ListBriefs(ctx context.Context, f notion.Filter) ([]content.Brief, error)
}

// HistorySource lists an account's most recent posts.
type HistorySource interface {
	ListRecentPosts(ctx context.Context, limit int) ([]content.Post, error)
}

// Publisher posts text to the social account.
type Publisher interface {
	Publish(ctx context.Context, text string) (*threads.Published, error)
}

// DraftGenerator turns a prompt into validated text.
type DraftGenerator interface {
	Generate(ctx context.Context, p prompt.Prompt) (*content.GeneratedDraft, error)
}

// Deps are the collaborators of a Pipeline. Any source may be nil; the
// operations that need it then fail with a configuration error.
type Deps struct {
	Briefs    BriefSource
	History   HistorySource
	Publisher Publisher
	Generator DraftGenerator
	Notifier  notify.Notifier
	Profile   *brand.Profile
}

// Pipeline coordinates generation, approval and publishing.
type Pipeline struct {
	db      *sql.DB
	cfg     *config.Config
	deps    Deps
	builder *prompt.Builder
	sleep   func(ctx context.Context, d time.Duration) error
}

// New creates a Pipeline over database.
func New(database *sql.DB, cfg *config.Config, deps Deps) *Pipeline {
	if deps.Notifier == nil {
		deps.Notifier = notify.Nop{}
	}
	if deps.Profile == nil {
		deps.Profile = &brand.Profile{}
	}
	return &Pipeline{
		db:      database,
		cfg:     cfg,
		deps:    deps,
		builder: prompt.NewBuilder(cfg.MaxChars),
		sleep:   wait,
	}
}

// Default limits.
const (
	DefaultBriefLimit    = 5
	DefaultAnalysisLimit = 25
)

// BriefsRequest selects the briefs to draft from.
type BriefsRequest struct {
	Status    string   `json:"status,omitempty"`
	PostTypes []string `json:"post_types,omitempty"`
	Platform  string   `json:"platform,omitempty"`
	Limit     int      `json:"limit,omitempty"`
}

// AnalysisRequest drafts one post in the style of recent history.
type AnalysisRequest struct {
	Limit int    `json:"limit,omitempty"`
	Topic string `json:"topic,omitempty"`
}

// ConnectionRequest drafts one networking post.
type ConnectionRequest struct {
	ConnectionType string `json:"connection_type,omitempty"`
}

// ErrorInfo is the serializable form of a per-item failure.
type ErrorInfo struct {
	Code    qerrors.ErrorCode `json:"code"`
	Message string            `json:"message"`
	Details map[string]any    `json:"details,omitempty"`
}

func errorInfo(err error) *ErrorInfo {
	if qErr, ok := qerrors.As(err); ok {
		info := &ErrorInfo{Code: qErr.Code, Message: qErr.Message}
		if qErr.Code != qerrors.ErrInternal {
			info.Details = qErr.Details
		}
		return info
	}
	return &ErrorInfo{Code: qerrors.ErrInternal, Message: "an internal error occurred"}
}

// DraftResult reports one generation attempt.
type DraftResult struct {
	ID     string         `json:"id,omitempty"`
	Text   string         `json:"text,omitempty"`
	Chars  int            `json:"chars,omitempty"`
	Mode   content.Mode   `json:"mode"`
	Status content.Status `json:"status,omitempty"`
	Topic  string         `json:"topic,omitempty"`
	Error  *ErrorInfo     `json:"error,omitempty"`
}

// GenerateOutput is the result of a generation request.
type GenerateOutput struct {
	Drafts    []DraftResult          `json:"drafts"`
	Generated int                    `json:"generated"`
	Failed    int                    `json:"failed"`
	Analysis  *content.StyleAnalysis `json:"analysis,omitempty"`
}

func (o *GenerateOutput) add(r DraftResult) {
	o.Drafts = append(o.Drafts, r)
	if r.Error != nil {
		o.Failed++
	} else {
		o.Generated++
	}
}

// IDs returns the ids of the drafts that were stored.
func (o *GenerateOutput) IDs() []string {
	ids := make([]string, 0, o.Generated)
	for _, d := range o.Drafts {
		if d.ID != "" {
			ids = append(ids, d.ID)
		}
	}
	return ids
}

// GenerateFromBriefs drafts one post per brief, in order. A failure on one
// brief is recorded in its result and the loop moves on. On cancellation the
// drafts stored so far are returned with the context error.
func (p *Pipeline) GenerateFromBriefs(ctx context.Context, req BriefsRequest) (*GenerateOutput, error) {
	if p.deps.Briefs == nil {
		return nil, qerrors.NewInvalidRequest("brief source is not configured (set NOTION_API_KEY and NOTION_DATABASE_ID)")
	}
	limit := req.Limit
	if limit <= 0 {
		limit = DefaultBriefLimit
	}

	briefs, err := p.deps.Briefs.ListBriefs(ctx, notion.Filter{
		Status:    req.Status,
		PostTypes: req.PostTypes,
		Platform:  req.Platform,
		Limit:     limit,
	})
	if err != nil {
		return nil, err
	}
	if len(briefs) == 0 {
		return nil, qerrors.NewInsufficientData("no briefs matched the filter")
	}

	out := &GenerateOutput{Drafts: make([]DraftResult, 0, len(briefs))}
	for _, brief := range briefs {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		d, err := p.generate(ctx, prompt.Briefs{Brief: brief})
		r := result(content.ModeBriefs, d, err)
		r.Topic = brief.Topic
		if err != nil {
			logger.WarnWithFields("brief generation failed", logger.Fields{
				"page_id": brief.PageID,
				"topic":   brief.Topic,
				"error":   err.Error(),
			})
		}
		out.add(r)
	}

	logger.InfoWithFields("briefs generation finished", logger.Fields{
		"briefs":    len(briefs),
		"generated": out.Generated,
		"failed":    out.Failed,
	})
	return out, nil
}

// Analyze fetches recent history and returns its style summary.
func (p *Pipeline) Analyze(ctx context.Context, limit int) (*content.StyleAnalysis, error) {
	if p.deps.History == nil {
		return nil, qerrors.NewInvalidRequest("post history source is not configured (set THREADS_ACCESS_TOKEN)")
	}
	if limit <= 0 {
		limit = DefaultAnalysisLimit
	}
	posts, err := p.deps.History.ListRecentPosts(ctx, limit)
	if err != nil {
		return nil, err
	}
	return analyzer.Analyze(posts)
}

// GenerateFromAnalysis drafts one post matching the style of recent history.
// Fetch and analysis errors are returned as-is.
func (p *Pipeline) GenerateFromAnalysis(ctx context.Context, req AnalysisRequest) (*GenerateOutput, error) {
	analysis, err := p.Analyze(ctx, req.Limit)
	if err != nil {
		return nil, err
	}

	d, err := p.generate(ctx, prompt.Analysis{Analysis: analysis, Topic: req.Topic})
	if err != nil {
		return nil, err
	}

	out := &GenerateOutput{Analysis: analysis}
	r := result(content.ModeAnalysis, d, nil)
	r.Topic = req.Topic
	out.add(r)
	return out, nil
}

// GenerateConnection drafts one networking post.
func (p *Pipeline) GenerateConnection(ctx context.Context, req ConnectionRequest) (*GenerateOutput, error) {
	d, err := p.generate(ctx, prompt.Connection{ConnectionType: req.ConnectionType})
	if err != nil {
		return nil, err
	}
	out := &GenerateOutput{}
	out.add(result(content.ModeConnection, d, nil))
	return out, nil
}

// generate builds, generates, stores and announces one draft.
func (p *Pipeline) generate(ctx context.Context, mode prompt.Mode) (*content.Draft, error) {
	if p.deps.Generator == nil {
		return nil, qerrors.NewGenerationUnavailable(errors.New("no language model configured"))
	}

	pr := p.builder.Build(mode, p.deps.Profile)
	gd, err := p.deps.Generator.Generate(ctx, pr)
	if err != nil {
		return nil, err
	}

	created, err := ops.Create(ctx, p.db, p.cfg, ops.CreateInput{
		Text:     gd.Text,
		Mode:     gd.Mode,
		Metadata: gd.SourceMetadata,
	})
	if err != nil {
		return nil, err
	}
	fetched, err := ops.Fetch(ctx, p.db, ops.FetchInput{ID: created.ID})
	if err != nil {
		return nil, err
	}
	d := fetched.Draft

	if err := p.deps.Notifier.NotifyPending(ctx, d); err != nil {
		logger.WarnWithFields("pending notification failed", logger.Fields{"id": d.ID, "error": err.Error()})
	}
	logger.InfoWithFields("draft stored", logger.Fields{"id": d.ID, "mode": string(d.Mode), "chars": d.Chars})
	return &d, nil
}

func result(mode content.Mode, d *content.Draft, err error) DraftResult {
	if err != nil {
		return DraftResult{Mode: mode, Error: errorInfo(err)}
	}
	return DraftResult{
		ID:     d.ID,
		Text:   d.Text,
		Chars:  d.Chars,
		Mode:   d.Mode,
		Status: d.Status,
	}
}
