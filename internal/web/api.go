package web

import (
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"
	"strings"
	"time"

	qerrors "github.com/hpungsan/quill/internal/errors"
	"github.com/hpungsan/quill/internal/ops"
	"github.com/hpungsan/quill/internal/pipeline"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

// decodeBody decodes a JSON request body into T. An empty body yields the zero value.
func decodeBody[T any](w http.ResponseWriter, r *http.Request) (T, error) {
	var v T
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil && !stderrors.Is(err, io.EOF) {
		return v, qerrors.NewInvalidRequest("invalid JSON body: " + err.Error())
	}
	return v, nil
}

// apiError writes err as a JSON error regardless of the Accept header.
func apiError(w http.ResponseWriter, err error) {
	renderJSONError(w, toQuillError(err))
}

// HandleGenerateBriefs handles POST /api/generate/briefs.
func (h *Handlers) HandleGenerateBriefs(w http.ResponseWriter, r *http.Request) {
	req, err := decodeBody[pipeline.BriefsRequest](w, r)
	if err != nil {
		apiError(w, err)
		return
	}
	out, err := h.pipeline.GenerateFromBriefs(r.Context(), req)
	if err != nil {
		apiError(w, err)
		return
	}
	renderJSON(w, http.StatusOK, out)
}

// HandleGenerateAnalysis handles POST /api/generate/analysis.
func (h *Handlers) HandleGenerateAnalysis(w http.ResponseWriter, r *http.Request) {
	req, err := decodeBody[pipeline.AnalysisRequest](w, r)
	if err != nil {
		apiError(w, err)
		return
	}
	out, err := h.pipeline.GenerateFromAnalysis(r.Context(), req)
	if err != nil {
		apiError(w, err)
		return
	}
	renderJSON(w, http.StatusOK, out)
}

// HandleGenerateConnection handles POST /api/generate/connection.
func (h *Handlers) HandleGenerateConnection(w http.ResponseWriter, r *http.Request) {
	req, err := decodeBody[pipeline.ConnectionRequest](w, r)
	if err != nil {
		apiError(w, err)
		return
	}
	out, err := h.pipeline.GenerateConnection(r.Context(), req)
	if err != nil {
		apiError(w, err)
		return
	}
	renderJSON(w, http.StatusOK, out)
}

// HandleAPIPending handles GET /api/posts/pending.
func (h *Handlers) HandleAPIPending(w http.ResponseWriter, r *http.Request) {
	out, err := ops.List(r.Context(), h.db, ops.ListInput{
		Statuses: []string{"pending"},
		Limit:    parseIntParam(r, "limit", ops.DefaultListLimit),
		Offset:   parseIntParam(r, "offset", 0),
	})
	if err != nil {
		apiError(w, err)
		return
	}
	renderJSON(w, http.StatusOK, out)
}

// HandleAPIGet handles GET /api/posts/{id}.
func (h *Handlers) HandleAPIGet(w http.ResponseWriter, r *http.Request) {
	out, err := ops.Fetch(r.Context(), h.db, ops.FetchInput{ID: r.PathValue("id")})
	if err != nil {
		apiError(w, err)
		return
	}
	renderJSON(w, http.StatusOK, out)
}

// UpdateTextRequest is the body of PUT /api/posts/{id}/text.
type UpdateTextRequest struct {
	Text string `json:"text"`
}

// HandleAPIUpdateText handles PUT /api/posts/{id}/text.
func (h *Handlers) HandleAPIUpdateText(w http.ResponseWriter, r *http.Request) {
	req, err := decodeBody[UpdateTextRequest](w, r)
	if err != nil {
		apiError(w, err)
		return
	}
	id := r.PathValue("id")
	if _, err := ops.UpdateText(r.Context(), h.db, h.cfg, ops.UpdateTextInput{ID: id, Text: req.Text}); err != nil {
		apiError(w, err)
		return
	}
	out, err := ops.Fetch(r.Context(), h.db, ops.FetchInput{ID: id})
	if err != nil {
		apiError(w, err)
		return
	}
	renderJSON(w, http.StatusOK, out)
}

// HandleAPIApprove handles POST /api/posts/{id}/approve.
func (h *Handlers) HandleAPIApprove(w http.ResponseWriter, r *http.Request) {
	out, err := h.pipeline.Approve(r.Context(), r.PathValue("id"))
	if err != nil {
		apiError(w, err)
		return
	}
	renderJSON(w, http.StatusOK, out)
}

// HandleAPIReject handles POST /api/posts/{id}/reject.
func (h *Handlers) HandleAPIReject(w http.ResponseWriter, r *http.Request) {
	out, err := h.pipeline.Reject(r.Context(), r.PathValue("id"))
	if err != nil {
		apiError(w, err)
		return
	}
	renderJSON(w, http.StatusOK, out)
}

// HandleAPIPublish handles POST /api/posts/{id}/publish.
func (h *Handlers) HandleAPIPublish(w http.ResponseWriter, r *http.Request) {
	out, err := h.pipeline.Publish(r.Context(), r.PathValue("id"))
	if err != nil {
		apiError(w, err)
		return
	}
	renderJSON(w, http.StatusOK, out)
}

// ScheduleRequest is the body of POST /api/posts/{id}/schedule. An empty At
// clears the schedule.
type ScheduleRequest struct {
	At string `json:"at"` // RFC 3339
}

// HandleAPISchedule handles POST /api/posts/{id}/schedule.
func (h *Handlers) HandleAPISchedule(w http.ResponseWriter, r *http.Request) {
	req, err := decodeBody[ScheduleRequest](w, r)
	if err != nil {
		apiError(w, err)
		return
	}

	input := ops.ScheduleInput{ID: r.PathValue("id")}
	if at := strings.TrimSpace(req.At); at != "" {
		t, err := time.Parse(time.RFC3339, at)
		if err != nil {
			apiError(w, qerrors.NewInvalidRequest("at must be an RFC 3339 timestamp"))
			return
		}
		input.At = &t
	}

	out, err := ops.Schedule(r.Context(), h.db, input)
	if err != nil {
		apiError(w, err)
		return
	}
	renderJSON(w, http.StatusOK, out)
}

// HandleAPIDelete handles DELETE /api/posts/{id}.
func (h *Handlers) HandleAPIDelete(w http.ResponseWriter, r *http.Request) {
	out, err := ops.Delete(r.Context(), h.db, ops.DeleteInput{ID: r.PathValue("id")})
	if err != nil {
		apiError(w, err)
		return
	}
	renderJSON(w, http.StatusOK, out)
}
