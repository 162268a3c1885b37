package web

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/hpungsan/quill/internal/config"
	"github.com/hpungsan/quill/internal/content"
	qerrors "github.com/hpungsan/quill/internal/errors"
	"github.com/hpungsan/quill/internal/ops"
	"github.com/hpungsan/quill/internal/pipeline"
)

// Handlers contains HTTP route handlers for the web UI and JSON API.
type Handlers struct {
	db       *sql.DB
	cfg      *config.Config
	pipeline *pipeline.Pipeline
	renderer *Renderer
}

// HandleList handles GET /drafts: lists drafts, pending and approved by default.
func (h *Handlers) HandleList(w http.ResponseWriter, r *http.Request) {
	status := strings.TrimSpace(r.URL.Query().Get("status"))

	input := ops.ListInput{
		Limit:  parseIntParam(r, "limit", ops.DefaultListLimit),
		Offset: parseIntParam(r, "offset", 0),
	}
	nav := "pending"
	if status == "all" {
		input.All = true
		nav = "all"
	} else {
		input.Statuses = splitList(status)
	}

	result, err := ops.List(r.Context(), h.db, input)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	h.renderer.renderPage(w, r, "list", ListPageData{
		PageData: PageData{
			Title:   "Drafts",
			Version: h.renderer.version,
			Nav:     nav,
		},
		Items:      result.Items,
		Pagination: result.Pagination,
		Status:     status,
	})
}

// HandleDetail handles GET /drafts/{id}: views a single draft.
func (h *Handlers) HandleDetail(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.renderer.renderError(w, r, qerrors.NewInvalidRequest("draft ID is required"))
		return
	}

	data, err := h.detailData(r, id, "")
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	h.renderer.renderPage(w, r, "detail", data)
}

func (h *Handlers) detailData(r *http.Request, id, message string) (*DetailPageData, error) {
	fetched, err := ops.Fetch(r.Context(), h.db, ops.FetchInput{ID: id})
	if err != nil {
		return nil, err
	}
	d := fetched.Draft

	var metadata string
	if len(d.Metadata) > 0 {
		if b, err := json.MarshalIndent(d.Metadata, "", "  "); err == nil {
			metadata = string(b)
		}
	}

	return &DetailPageData{
		PageData: PageData{
			Title:   "Draft " + shortID(d.ID),
			Version: h.renderer.version,
			Nav:     "pending",
		},
		Draft:        &d,
		RenderedHTML: renderMarkdown(d.Text),
		Metadata:     metadata,
		Message:      message,
	}, nil
}

// HandleAction handles POST /drafts/{id}/{action}: approve, reject or publish from the UI.
func (h *Handlers) HandleAction(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	action := r.PathValue("action")

	message, err := h.apply(r, id, action)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	// HTMX request: swap the actions panel in place
	if isHTMX(r) {
		data, err := h.detailData(r, id, message)
		if err != nil {
			h.renderer.renderError(w, r, err)
			return
		}
		h.renderer.renderBlock(w, http.StatusOK, "detail", "draft-actions", data)
		return
	}

	http.Redirect(w, r, "/drafts/"+id, http.StatusSeeOther)
}

// apply runs a lifecycle action and returns a short confirmation.
func (h *Handlers) apply(r *http.Request, id, action string) (string, error) {
	switch action {
	case "approve":
		if _, err := h.pipeline.Approve(r.Context(), id); err != nil {
			return "", err
		}
		return "Draft approved", nil
	case "reject":
		if _, err := h.pipeline.Reject(r.Context(), id); err != nil {
			return "", err
		}
		return "Draft rejected", nil
	case "publish":
		res, err := h.pipeline.Publish(r.Context(), id)
		if err != nil {
			return "", err
		}
		return "Published: " + res.ThreadURL, nil
	}
	return "", qerrors.NewInvalidRequest("action must be one of: approve, reject, publish")
}

// HandleApproveLink handles GET /approve/{id}?action=approve|reject, the page
// linked from notification emails. It shows the draft and a confirm button.
// The action itself happens on POST.
func (h *Handlers) HandleApproveLink(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	action := r.URL.Query().Get("action")
	if action != "approve" && action != "reject" {
		h.renderer.renderError(w, r, qerrors.NewInvalidRequest("action must be approve or reject"))
		return
	}

	fetched, err := ops.Fetch(r.Context(), h.db, ops.FetchInput{ID: id})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	d := fetched.Draft
	data := ApprovePageData{
		PageData: PageData{Title: "Review draft", Version: h.renderer.version},
		Draft:    &d,
		Action:   action,
	}
	if d.Status != content.StatusPending {
		data.Done = true
		data.Message = "This draft is already " + string(d.Status) + "."
	}
	h.renderer.renderPage(w, r, "approve", data)
}

// HandleApproveConfirm handles POST /approve/{id} and performs the emailed action.
func (h *Handlers) HandleApproveConfirm(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := r.ParseForm(); err != nil {
		h.renderer.renderError(w, r, qerrors.NewInvalidRequest("invalid form data"))
		return
	}
	action := r.FormValue("action")
	if action != "approve" && action != "reject" {
		h.renderer.renderError(w, r, qerrors.NewInvalidRequest("action must be approve or reject"))
		return
	}

	message, err := h.apply(r, id, action)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	fetched, err := ops.Fetch(r.Context(), h.db, ops.FetchInput{ID: id})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	d := fetched.Draft
	h.renderer.renderPage(w, r, "approve", ApprovePageData{
		PageData: PageData{Title: "Review draft", Version: h.renderer.version},
		Draft:    &d,
		Action:   action,
		Done:     true,
		Message:  message + ".",
	})
}

// HandleDelete handles DELETE /drafts/{id}: permanently removes a draft.
func (h *Handlers) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.renderer.renderError(w, r, qerrors.NewInvalidRequest("draft ID is required"))
		return
	}

	result, err := ops.Delete(r.Context(), h.db, ops.DeleteInput{ID: id})
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	// HTMX request: redirect via HX-Redirect header
	if isHTMX(r) {
		w.Header().Set("HX-Redirect", "/drafts")
		w.WriteHeader(http.StatusOK)
		return
	}

	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, result)
		return
	}

	// Default: redirect
	http.Redirect(w, r, "/drafts", http.StatusFound)
}

// parseIntParam parses an integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	s := r.URL.Query().Get(name)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return defaultVal
	}
	return v
}

// splitList splits a comma-separated parameter, dropping empty items.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// shortID returns a truncated ID for titles.
func shortID(id string) string {
	if len(id) > 10 {
		return id[:10] + "..."
	}
	return id
}
