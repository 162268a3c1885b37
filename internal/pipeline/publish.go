package pipeline

import (
	"context"
	"time"

	"github.com/hpungsan/quill/internal/content"
	qerrors "github.com/hpungsan/quill/internal/errors"
	"github.com/hpungsan/quill/internal/logger"
	"github.com/hpungsan/quill/internal/ops"
)

// Pacing spaces consecutive publishes. A zero Delay publishes back to back.
type Pacing struct {
	Delay time.Duration
}

// PublishResult reports one publish attempt.
type PublishResult struct {
	ID        string     `json:"id"`
	ThreadID  string     `json:"thread_id,omitempty"`
	ThreadURL string     `json:"thread_url,omitempty"`
	Error     *ErrorInfo `json:"error,omitempty"`
}

// PublishBatchOutput is the result of publishing several drafts.
type PublishBatchOutput struct {
	Results   []PublishResult `json:"results"`
	Published int             `json:"published"`
	Failed    int             `json:"failed"`
}

// Approve moves a pending draft to approved.
func (p *Pipeline) Approve(ctx context.Context, id string) (*ops.TransitionOutput, error) {
	return ops.Approve(ctx, p.db, ops.TransitionInput{ID: id})
}

// Reject moves a pending draft to rejected.
func (p *Pipeline) Reject(ctx context.Context, id string) (*ops.TransitionOutput, error) {
	return ops.Reject(ctx, p.db, ops.TransitionInput{ID: id})
}

// Publish posts an approved draft and records the thread it became.
// Drafts in any other status are refused before the publisher is called.
func (p *Pipeline) Publish(ctx context.Context, id string) (*PublishResult, error) {
	if p.deps.Publisher == nil {
		return nil, qerrors.NewInvalidRequest("publisher is not configured (set THREADS_ACCESS_TOKEN)")
	}

	fetched, err := ops.Fetch(ctx, p.db, ops.FetchInput{ID: id})
	if err != nil {
		return nil, err
	}
	d := fetched.Draft
	if d.Status != content.StatusApproved {
		return nil, qerrors.NewInvalidTransition(d.ID, string(d.Status), string(content.StatusPublished))
	}

	pub, err := p.deps.Publisher.Publish(ctx, d.Text)
	if err != nil {
		return nil, err
	}

	if _, err := ops.MarkPublished(ctx, p.db, ops.MarkPublishedInput{
		ID:        d.ID,
		ThreadID:  pub.ID,
		ThreadURL: pub.URL,
	}); err != nil {
		// The post is live; keep the reference in the log so it can be reconciled.
		logger.ErrorWithFields("published but failed to record", logger.Fields{
			"id":        d.ID,
			"thread_id": pub.ID,
			"error":     err.Error(),
		})
		return nil, err
	}

	d.Status = content.StatusPublished
	d.ThreadID = &pub.ID
	d.ThreadURL = &pub.URL
	if err := p.deps.Notifier.NotifyPublished(ctx, d); err != nil {
		logger.WarnWithFields("published notification failed", logger.Fields{"id": d.ID, "error": err.Error()})
	}
	logger.InfoWithFields("draft published", logger.Fields{"id": d.ID, "thread_id": pub.ID})

	return &PublishResult{ID: d.ID, ThreadID: pub.ID, ThreadURL: pub.URL}, nil
}

// PublishApproved publishes ids in order, waiting pacing.Delay between
// calls. Per-draft failures are collected. Cancelling ctx stops the batch
// and returns the results gathered so far along with the context error.
func (p *Pipeline) PublishApproved(ctx context.Context, ids []string, pacing Pacing) (*PublishBatchOutput, error) {
	out := &PublishBatchOutput{Results: make([]PublishResult, 0, len(ids))}
	for i, id := range ids {
		if i > 0 && pacing.Delay > 0 {
			logger.DebugWithFields("pacing before next publish", logger.Fields{"delay": pacing.Delay.String()})
			if err := p.sleep(ctx, pacing.Delay); err != nil {
				return out, err
			}
		}
		if err := ctx.Err(); err != nil {
			return out, err
		}

		res, err := p.Publish(ctx, id)
		if err != nil {
			out.Results = append(out.Results, PublishResult{ID: id, Error: errorInfo(err)})
			out.Failed++
			continue
		}
		out.Results = append(out.Results, *res)
		out.Published++
	}
	return out, nil
}

// PublishDue publishes approved drafts whose schedule is at or before now.
func (p *Pipeline) PublishDue(ctx context.Context, now time.Time, pacing Pacing) (*PublishBatchOutput, error) {
	due, err := ops.Due(ctx, p.db, ops.DueInput{Now: now})
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(due.Items))
	for i, d := range due.Items {
		ids[i] = d.ID
	}
	return p.PublishApproved(ctx, ids, pacing)
}

// ApproveAndPublish approves each pending draft and publishes the ones that
// were approved. Used for unattended runs.
func (p *Pipeline) ApproveAndPublish(ctx context.Context, ids []string, pacing Pacing) (*PublishBatchOutput, error) {
	approved := make([]string, 0, len(ids))
	var rejected []PublishResult
	for _, id := range ids {
		if _, err := p.Approve(ctx, id); err != nil {
			rejected = append(rejected, PublishResult{ID: id, Error: errorInfo(err)})
			continue
		}
		approved = append(approved, id)
	}

	out, err := p.PublishApproved(ctx, approved, pacing)
	if out != nil && len(rejected) > 0 {
		out.Results = append(out.Results, rejected...)
		out.Failed += len(rejected)
	}
	return out, err
}

// wait blocks for d or until ctx is done.
func wait(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
