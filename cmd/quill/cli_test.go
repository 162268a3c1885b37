package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/hpungsan/quill/internal/config"
	"github.com/hpungsan/quill/internal/content"
	"github.com/hpungsan/quill/internal/db"
	"github.com/hpungsan/quill/internal/ops"
	"github.com/hpungsan/quill/internal/pipeline"
	"github.com/hpungsan/quill/internal/prompt"
	"github.com/hpungsan/quill/internal/threads"
)

type fakeGenerator struct{}

func (fakeGenerator) Generate(_ context.Context, p prompt.Prompt) (*content.GeneratedDraft, error) {
	return &content.GeneratedDraft{
		Text:           "Who should I meet at the meetup this week?",
		Mode:           p.Kind,
		SourceMetadata: map[string]any{"attempts": 1},
	}, nil
}

type fakePublisher struct {
	texts []string
}

func (f *fakePublisher) Publish(_ context.Context, text string) (*threads.Published, error) {
	f.texts = append(f.texts, text)
	id := fmt.Sprintf("th%d", len(f.texts))
	return &threads.Published{ID: id, URL: threads.PostURL(id)}, nil
}

// setupEnv creates a temporary database and a pipeline with fake collaborators.
func setupEnv(t *testing.T) (*appEnv, *fakePublisher) {
	t.Helper()
	database, err := db.Init(t.TempDir())
	if err != nil {
		t.Fatalf("failed to init test db: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	cfg := config.DefaultConfig()
	cfg.PostDelaySeconds = 0

	pub := &fakePublisher{}
	p := pipeline.New(database, cfg, pipeline.Deps{
		Publisher: pub,
		Generator: fakeGenerator{},
	})
	return &appEnv{db: database, cfg: cfg, pipeline: p}, pub
}

// run executes the CLI with args and returns what it wrote to stdout.
func run(t *testing.T, env *appEnv, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	old := stdout
	stdout = &buf
	defer func() { stdout = old }()

	err := newCLIApp(env).Run(append([]string{"quill"}, args...))
	return buf.String(), err
}

func seed(t *testing.T, env *appEnv, text string) string {
	t.Helper()
	out, err := ops.Create(context.Background(), env.db, env.cfg, ops.CreateInput{Text: text, Mode: content.ModeBriefs})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	return out.ID
}

func statusOf(t *testing.T, env *appEnv, id string) content.Status {
	t.Helper()
	out, err := ops.Fetch(context.Background(), env.db, ops.FetchInput{ID: id})
	if err != nil {
		t.Fatalf("fetch %s: %v", id, err)
	}
	return out.Status
}

func TestSplitList(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{"empty string", "", nil},
		{"single", "pending", []string{"pending"}},
		{"multiple", "pending,approved", []string{"pending", "approved"}},
		{"spaces and blanks", " pending , ,approved ", []string{"pending", "approved"}},
		{"only commas", ",,", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := splitList(tt.input)
			if len(got) != len(tt.expected) {
				t.Fatalf("splitList(%q) = %v, want %v", tt.input, got, tt.expected)
			}
			for i := range got {
				if got[i] != tt.expected[i] {
					t.Errorf("splitList(%q)[%d] = %q, want %q", tt.input, i, got[i], tt.expected[i])
				}
			}
		})
	}
}

func TestCLIGenerate(t *testing.T) {
	env, pub := setupEnv(t)

	t.Run("connection stores a pending draft", func(t *testing.T) {
		out, err := run(t, env, "generate", "--mode", "connection", "--connection-type", "founders")
		if err != nil {
			t.Fatalf("generate: %v", err)
		}
		var result pipeline.GenerateOutput
		if err := json.Unmarshal([]byte(out), &result); err != nil {
			t.Fatalf("decode: %v\n%s", err, out)
		}
		if result.Generated != 1 {
			t.Fatalf("generated = %d, want 1", result.Generated)
		}
		if got := statusOf(t, env, result.Drafts[0].ID); got != content.StatusPending {
			t.Errorf("status = %s, want pending", got)
		}
	})

	t.Run("auto-approve publishes", func(t *testing.T) {
		out, err := run(t, env, "generate", "--mode", "connection", "--auto-approve", "--post-delay", "0s")
		if err != nil {
			t.Fatalf("generate: %v", err)
		}
		var result struct {
			Generate pipeline.GenerateOutput     `json:"generate"`
			Publish  pipeline.PublishBatchOutput `json:"publish"`
		}
		if err := json.Unmarshal([]byte(out), &result); err != nil {
			t.Fatalf("decode: %v\n%s", err, out)
		}
		if result.Publish.Published != 1 {
			t.Fatalf("published = %d, want 1", result.Publish.Published)
		}
		if got := statusOf(t, env, result.Generate.Drafts[0].ID); got != content.StatusPublished {
			t.Errorf("status = %s, want published", got)
		}
		if len(pub.texts) != 1 {
			t.Errorf("publisher calls = %d, want 1", len(pub.texts))
		}
	})

	t.Run("briefs without a source", func(t *testing.T) {
		_, err := run(t, env, "generate")
		if err == nil || !strings.Contains(err.Error(), "[INVALID_REQUEST]") {
			t.Errorf("expected INVALID_REQUEST, got %v", err)
		}
	})

	t.Run("unknown mode", func(t *testing.T) {
		_, err := run(t, env, "generate", "--mode", "viral")
		if err == nil {
			t.Error("expected error, got nil")
		}
	})
}

func TestCLIList(t *testing.T) {
	env, _ := setupEnv(t)
	pending := seed(t, env, "Pending draft for the list command.")
	rejected := seed(t, env, "Rejected draft for the list command.")
	if _, err := run(t, env, "reject", rejected); err != nil {
		t.Fatalf("reject: %v", err)
	}

	decode := func(out string) ops.ListOutput {
		var result ops.ListOutput
		if err := json.Unmarshal([]byte(out), &result); err != nil {
			t.Fatalf("decode: %v\n%s", err, out)
		}
		return result
	}

	out, err := run(t, env, "list")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	result := decode(out)
	if len(result.Items) != 1 || result.Items[0].ID != pending {
		t.Errorf("default list = %+v, want only the pending draft", result.Items)
	}

	out, _ = run(t, env, "list", "--status", "rejected")
	if result := decode(out); len(result.Items) != 1 || result.Items[0].ID != rejected {
		t.Errorf("rejected list = %+v", result.Items)
	}

	out, _ = run(t, env, "list", "--all")
	if result := decode(out); result.Pagination.Total != 2 {
		t.Errorf("total = %d, want 2", result.Pagination.Total)
	}

	if _, err := run(t, env, "list", "--status", "drafted"); err == nil {
		t.Error("expected error for unknown status")
	}
}

func TestCLIShow(t *testing.T) {
	env, _ := setupEnv(t)
	id := seed(t, env, "A draft to show in full.")

	out, err := run(t, env, "show", id)
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	var d content.Draft
	if err := json.Unmarshal([]byte(out), &d); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if d.Text != "A draft to show in full." {
		t.Errorf("text = %q", d.Text)
	}

	_, err = run(t, env, "show", "NOPE")
	if err == nil || !strings.Contains(err.Error(), "[NOT_FOUND]") {
		t.Errorf("expected NOT_FOUND, got %v", err)
	}
}

func TestCLIApproveAndPublish(t *testing.T) {
	env, pub := setupEnv(t)
	first := seed(t, env, "First approved post in the batch.")
	second := seed(t, env, "Second post, still pending.")

	if _, err := run(t, env, "approve", first); err != nil {
		t.Fatalf("approve: %v", err)
	}

	out, err := run(t, env, "publish", "--post-delay", "0s", first, second)
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	var result pipeline.PublishBatchOutput
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if result.Published != 1 || result.Failed != 1 {
		t.Errorf("published=%d failed=%d, want 1 and 1", result.Published, result.Failed)
	}
	if result.Results[1].Error == nil || result.Results[1].Error.Code != "INVALID_TRANSITION" {
		t.Errorf("second result = %+v, want INVALID_TRANSITION", result.Results[1])
	}
	if len(pub.texts) != 1 {
		t.Errorf("publisher calls = %d, want 1", len(pub.texts))
	}
	if got := statusOf(t, env, first); got != content.StatusPublished {
		t.Errorf("status = %s, want published", got)
	}

	if _, err := run(t, env, "publish"); err == nil {
		t.Error("expected error without ids")
	}
}

func TestCLIEdit(t *testing.T) {
	env, _ := setupEnv(t)
	id := seed(t, env, "Original text of the draft.")

	old := stdin
	defer func() { stdin = old }()

	stdin = strings.NewReader("  Rewritten by hand.\n")
	if _, err := run(t, env, "edit", id); err != nil {
		t.Fatalf("edit: %v", err)
	}
	out, err := ops.Fetch(context.Background(), env.db, ops.FetchInput{ID: id})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if out.Text != "Rewritten by hand." {
		t.Errorf("text = %q", out.Text)
	}

	stdin = strings.NewReader("   ")
	if _, err := run(t, env, "edit", id); err == nil {
		t.Error("expected error for empty text")
	}
}

func TestCLISchedule(t *testing.T) {
	env, _ := setupEnv(t)
	id := seed(t, env, "A draft for the morning slot.")
	if _, err := run(t, env, "approve", id); err != nil {
		t.Fatalf("approve: %v", err)
	}

	out, err := run(t, env, "schedule", "--at", "2020-01-01T09:00:00Z", id)
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	var sched ops.ScheduleOutput
	if err := json.Unmarshal([]byte(out), &sched); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if sched.ScheduledAt == nil || *sched.ScheduledAt != 1577869200 {
		t.Errorf("scheduled_at = %v", sched.ScheduledAt)
	}

	// Already due, so publish-due picks it up
	out, err = run(t, env, "publish-due")
	if err != nil {
		t.Fatalf("publish-due: %v", err)
	}
	var batch pipeline.PublishBatchOutput
	if err := json.Unmarshal([]byte(out), &batch); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if batch.Published != 1 {
		t.Errorf("published = %d, want 1", batch.Published)
	}

	if _, err := run(t, env, "schedule", id); err == nil {
		t.Error("expected error without --at or --clear")
	}
	if _, err := run(t, env, "schedule", "--at", "soon", id); err == nil {
		t.Error("expected error for a malformed timestamp")
	}
}

func TestCLIDelete(t *testing.T) {
	env, _ := setupEnv(t)
	id := seed(t, env, "A draft that will be deleted.")

	if _, err := run(t, env, "delete", id); err != nil {
		t.Fatalf("delete: %v", err)
	}
	_, err := run(t, env, "delete", id)
	if err == nil || !strings.Contains(err.Error(), "[NOT_FOUND]") {
		t.Errorf("expected NOT_FOUND, got %v", err)
	}
}

func TestCLIAnalyze_NotConfigured(t *testing.T) {
	env, _ := setupEnv(t)

	_, err := run(t, env, "analyze")
	if err == nil || !strings.Contains(err.Error(), "THREADS_ACCESS_TOKEN") {
		t.Errorf("expected configuration error, got %v", err)
	}
}

func TestBuildPipeline_NoCredentials(t *testing.T) {
	database, err := db.Init(t.TempDir())
	if err != nil {
		t.Fatalf("init db: %v", err)
	}
	defer database.Close()

	cfg := config.DefaultConfig()
	cfg.BrandProfilePath = ""

	p, err := buildPipeline(context.Background(), database, cfg, config.Secrets{})
	if err != nil {
		t.Fatalf("buildPipeline: %v", err)
	}

	_, err = p.GenerateConnection(context.Background(), pipeline.ConnectionRequest{})
	if err == nil || !strings.Contains(err.Error(), "GENERATION_UNAVAILABLE") {
		t.Errorf("expected GENERATION_UNAVAILABLE, got %v", err)
	}
}

func TestBuildPipeline_UnknownProvider(t *testing.T) {
	database, err := db.Init(t.TempDir())
	if err != nil {
		t.Fatalf("init db: %v", err)
	}
	defer database.Close()

	cfg := config.DefaultConfig()
	cfg.BrandProfilePath = ""
	cfg.Provider = "mystery"

	if _, err := buildPipeline(context.Background(), database, cfg, config.Secrets{OpenAIAPIKey: "sk-test"}); err == nil {
		t.Error("expected error for an unsupported provider")
	}
}

func TestIsCLIMode(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected bool
	}{
		{"no args", []string{"quill"}, false},
		{"generate command", []string{"quill", "generate"}, true},
		{"publish-due command", []string{"quill", "publish-due"}, true},
		{"help flag", []string{"quill", "--help"}, true},
		{"short version flag", []string{"quill", "-v"}, true},
		{"unknown arg defaults to MCP", []string{"quill", "--unknown"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			oldArgs := os.Args
			defer func() { os.Args = oldArgs }()

			os.Args = tt.args
			if got := isCLIMode(); got != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestIsHelpOrVersion(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected bool
	}{
		{"no args", []string{"quill"}, false},
		{"help flag", []string{"quill", "--help"}, true},
		{"help subcommand", []string{"quill", "help"}, true},
		{"version flag", []string{"quill", "--version"}, true},
		{"list command is not help", []string{"quill", "list"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			oldArgs := os.Args
			defer func() { os.Args = oldArgs }()

			os.Args = tt.args
			if got := isHelpOrVersion(); got != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestReadStdinWithLimit(t *testing.T) {
	t.Run("within limit", func(t *testing.T) {
		got, err := readStdinWithLimit(strings.NewReader("  small content \n"), 1000)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != "small content" {
			t.Errorf("got %q", got)
		}
	})

	t.Run("exactly at limit", func(t *testing.T) {
		if _, err := readStdinWithLimit(strings.NewReader(strings.Repeat("x", 50)), 50); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("exceeds limit", func(t *testing.T) {
		_, err := readStdinWithLimit(strings.NewReader(strings.Repeat("x", 100)), 50)
		if err == nil {
			t.Error("expected error for oversized input")
		}
	})
}
