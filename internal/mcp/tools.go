package mcp

import "github.com/mark3labs/mcp-go/mcp"

var idParam = mcp.WithString("id",
	mcp.Required(),
	mcp.Description("Draft ID (ULID)"),
)

var generateToolDef = mcp.NewTool("draft_generate",
	mcp.WithDescription("Generate new Threads drafts and store them as pending. "+
		"mode=briefs drafts one post per Notion brief; mode=analysis drafts one post in the style of recent history; "+
		"mode=connection drafts one networking post."),
	mcp.WithString("mode",
		mcp.Required(),
		mcp.Enum("briefs", "analysis", "connection"),
		mcp.Description("Generation path"),
	),
	mcp.WithNumber("limit", mcp.Description("briefs: max briefs (default 5); analysis: posts to analyze (default 25)")),
	mcp.WithString("status", mcp.Description("briefs: Notion status to select, e.g. \"Ready\"")),
	mcp.WithArray("post_types",
		mcp.Items(map[string]any{"type": "string"}),
		mcp.Description("briefs: Post Type values to match (any)"),
	),
	mcp.WithString("platform", mcp.Description("briefs: Platform value to match")),
	mcp.WithString("topic", mcp.Description("analysis: topic to centre the post on")),
	mcp.WithString("connection_type", mcp.Description("connection: audience to reach, e.g. \"founders\"")),
)

var listToolDef = mcp.NewTool("draft_list",
	mcp.WithDescription("List drafts, newest first. Defaults to pending and approved."),
	mcp.WithReadOnlyHintAnnotation(true),
	mcp.WithArray("statuses",
		mcp.Items(map[string]any{"type": "string", "enum": []string{"pending", "approved", "rejected", "published"}}),
		mcp.Description("Statuses to include"),
	),
	mcp.WithBoolean("all", mcp.Description("Include every status")),
	mcp.WithNumber("limit", mcp.Description("Max items (default 20, max 100)")),
	mcp.WithNumber("offset", mcp.Description("Items to skip")),
)

var fetchToolDef = mcp.NewTool("draft_fetch",
	mcp.WithDescription("Fetch one draft with its text and source metadata."),
	mcp.WithReadOnlyHintAnnotation(true),
	idParam,
)

var approveToolDef = mcp.NewTool("draft_approve",
	mcp.WithDescription("Approve a pending draft. Approved drafts can be published."),
	idParam,
)

var rejectToolDef = mcp.NewTool("draft_reject",
	mcp.WithDescription("Reject a pending draft."),
	idParam,
)

var publishToolDef = mcp.NewTool("draft_publish",
	mcp.WithDescription("Publish an approved draft to Threads now."),
	mcp.WithDestructiveHintAnnotation(true),
	idParam,
)

var updateTextToolDef = mcp.NewTool("draft_update_text",
	mcp.WithDescription("Replace the text of a pending or approved draft."),
	idParam,
	mcp.WithString("text", mcp.Required(), mcp.Description("New post text")),
)

var scheduleToolDef = mcp.NewTool("draft_schedule",
	mcp.WithDescription("Set when an approved draft is published by publish-due. Omit at to clear."),
	idParam,
	mcp.WithString("at", mcp.Description("RFC 3339 timestamp")),
)

var deleteToolDef = mcp.NewTool("draft_delete",
	mcp.WithDescription("Permanently delete a draft."),
	mcp.WithDestructiveHintAnnotation(true),
	idParam,
)

var analyzeToolDef = mcp.NewTool("style_analyze",
	mcp.WithDescription("Summarize the style of the account's recent Threads posts: length, openers, closers and structure."),
	mcp.WithReadOnlyHintAnnotation(true),
	mcp.WithNumber("limit", mcp.Description("Posts to analyze (default 25)")),
)
