package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	qerrors "github.com/hpungsan/quill/internal/errors"
	"github.com/hpungsan/quill/internal/ops"
	"github.com/hpungsan/quill/internal/pipeline"
	"github.com/hpungsan/quill/internal/web"
)

// maxStdinBytes bounds text piped to edit.
const maxStdinBytes = 64 * 1024

// stdout is where command results are written.
var stdout io.Writer = os.Stdout

// stdin is where edit reads replacement text.
var stdin io.Reader = os.Stdin

// newCLIApp creates the CLI application with all commands.
// env is nil when only help or version output is needed.
func newCLIApp(env *appEnv) *cli.App {
	app := &cli.App{
		Name:    "quill",
		Usage:   "Draft, approve and publish Threads posts",
		Version: Version,
		Commands: []*cli.Command{
			generateCmd(env),
			analyzeCmd(env),
			listCmd(env),
			showCmd(env),
			editCmd(env),
			deleteCmd(env),
			approveCmd(env),
			rejectCmd(env),
			scheduleCmd(env),
			publishCmd(env),
			publishDueCmd(env),
			serveCmd(env),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

func postDelayFlag() cli.Flag {
	return &cli.DurationFlag{
		Name:  "post-delay",
		Usage: "Pause between consecutive publishes (default: post_delay_seconds from config)",
	}
}

// pacing returns the --post-delay flag when set, else the configured delay.
func pacing(c *cli.Context, env *appEnv) pipeline.Pacing {
	if c.IsSet("post-delay") {
		return pipeline.Pacing{Delay: c.Duration("post-delay")}
	}
	return pipeline.Pacing{Delay: env.cfg.PostDelay()}
}

// generateCmd creates the generate command.
func generateCmd(env *appEnv) *cli.Command {
	return &cli.Command{
		Name:  "generate",
		Usage: "Generate drafts and store them for approval",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "mode", Aliases: []string{"m"}, Value: "briefs", Usage: "Generation path: briefs|analysis|connection"},
			&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Usage: "briefs: max briefs (default 5); analysis: posts to analyze (default 25)"},
			&cli.StringFlag{Name: "status", Usage: "briefs: Notion status to select"},
			&cli.StringFlag{Name: "post-types", Usage: "briefs: comma-separated Post Type values"},
			&cli.StringFlag{Name: "platform", Usage: "briefs: Platform value"},
			&cli.StringFlag{Name: "topic", Aliases: []string{"t"}, Usage: "analysis: topic to centre the post on"},
			&cli.StringFlag{Name: "connection-type", Usage: "connection: audience to reach"},
			&cli.BoolFlag{Name: "auto-approve", Usage: "Approve and publish every generated draft"},
			postDelayFlag(),
		},
		Action: func(c *cli.Context) error {
			p := env.pipeline

			var (
				out *pipeline.GenerateOutput
				err error
			)
			switch mode := c.String("mode"); mode {
			case "briefs":
				out, err = p.GenerateFromBriefs(c.Context, pipeline.BriefsRequest{
					Status:    c.String("status"),
					PostTypes: splitList(c.String("post-types")),
					Platform:  c.String("platform"),
					Limit:     c.Int("limit"),
				})
			case "analysis":
				out, err = p.GenerateFromAnalysis(c.Context, pipeline.AnalysisRequest{
					Limit: c.Int("limit"),
					Topic: c.String("topic"),
				})
			case "connection":
				out, err = p.GenerateConnection(c.Context, pipeline.ConnectionRequest{
					ConnectionType: c.String("connection-type"),
				})
			default:
				return outputError(qerrors.NewInvalidRequest(fmt.Sprintf("unknown mode %q (want briefs, analysis or connection)", mode)))
			}
			if err != nil {
				return outputError(err)
			}

			if !c.Bool("auto-approve") {
				return outputJSON(out)
			}

			published, err := p.ApproveAndPublish(c.Context, out.IDs(), pacing(c, env))
			if err != nil {
				return outputError(err)
			}
			return outputJSON(map[string]any{
				"generate": out,
				"publish":  published,
			})
		},
	}
}

// analyzeCmd creates the analyze command.
func analyzeCmd(env *appEnv) *cli.Command {
	return &cli.Command{
		Name:  "analyze",
		Usage: "Summarize the style of recent Threads posts",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Value: pipeline.DefaultAnalysisLimit, Usage: "Posts to analyze"},
		},
		Action: func(c *cli.Context) error {
			out, err := env.pipeline.Analyze(c.Context, c.Int("limit"))
			if err != nil {
				return outputError(err)
			}
			return outputJSON(out)
		},
	}
}

// listCmd creates the list command.
func listCmd(env *appEnv) *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List drafts (pending and approved by default)",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "status", Aliases: []string{"s"}, Usage: "Comma-separated statuses: pending,approved,rejected,published"},
			&cli.BoolFlag{Name: "all", Aliases: []string{"a"}, Usage: "Include every status"},
			&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Value: ops.DefaultListLimit, Usage: "Maximum items to return"},
			&cli.IntFlag{Name: "offset", Aliases: []string{"o"}, Value: 0, Usage: "Items to skip"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.List(c.Context, env.db, ops.ListInput{
				Statuses: splitList(c.String("status")),
				All:      c.Bool("all"),
				Limit:    c.Int("limit"),
				Offset:   c.Int("offset"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// showCmd creates the show command.
func showCmd(env *appEnv) *cli.Command {
	return &cli.Command{
		Name:      "show",
		Usage:     "Show one draft",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			output, err := ops.Fetch(c.Context, env.db, ops.FetchInput{ID: c.Args().First()})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// editCmd creates the edit command.
func editCmd(env *appEnv) *cli.Command {
	return &cli.Command{
		Name:      "edit",
		Usage:     "Replace the text of a draft (reads text from stdin)",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			if !stdinHasData() {
				return outputError(qerrors.NewInvalidRequest("text must be piped via stdin"))
			}
			text, err := readStdinWithLimit(stdin, maxStdinBytes)
			if err != nil {
				return outputError(err)
			}

			output, err := ops.UpdateText(c.Context, env.db, env.cfg, ops.UpdateTextInput{
				ID:   c.Args().First(),
				Text: text,
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// deleteCmd creates the delete command.
func deleteCmd(env *appEnv) *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Usage:     "Permanently delete a draft",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			output, err := ops.Delete(c.Context, env.db, ops.DeleteInput{ID: c.Args().First()})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// approveCmd creates the approve command.
func approveCmd(env *appEnv) *cli.Command {
	return &cli.Command{
		Name:      "approve",
		Usage:     "Approve a pending draft",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			output, err := env.pipeline.Approve(c.Context, c.Args().First())
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// rejectCmd creates the reject command.
func rejectCmd(env *appEnv) *cli.Command {
	return &cli.Command{
		Name:      "reject",
		Usage:     "Reject a pending draft",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			output, err := env.pipeline.Reject(c.Context, c.Args().First())
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// scheduleCmd creates the schedule command.
func scheduleCmd(env *appEnv) *cli.Command {
	return &cli.Command{
		Name:      "schedule",
		Usage:     "Set when a draft is published by publish-due",
		ArgsUsage: "[--at <time> | --clear] <id>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "at", Usage: "RFC 3339 timestamp, e.g. 2026-03-01T09:30:00Z"},
			&cli.BoolFlag{Name: "clear", Usage: "Remove the schedule"},
		},
		Action: func(c *cli.Context) error {
			input := ops.ScheduleInput{ID: c.Args().First()}

			switch {
			case c.Bool("clear"):
			case c.String("at") != "":
				at, err := time.Parse(time.RFC3339, c.String("at"))
				if err != nil {
					return outputError(qerrors.NewInvalidRequest("--at must be an RFC 3339 timestamp"))
				}
				input.At = &at
			default:
				return outputError(qerrors.NewInvalidRequest("one of --at or --clear is required"))
			}

			output, err := ops.Schedule(c.Context, env.db, input)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// publishCmd creates the publish command.
func publishCmd(env *appEnv) *cli.Command {
	return &cli.Command{
		Name:      "publish",
		Usage:     "Publish approved drafts to Threads, in order",
		ArgsUsage: "<id>...",
		Flags:     []cli.Flag{postDelayFlag()},
		Action: func(c *cli.Context) error {
			ids := c.Args().Slice()
			if len(ids) == 0 {
				return outputError(qerrors.NewInvalidRequest("at least one draft id is required"))
			}

			output, err := env.pipeline.PublishApproved(c.Context, ids, pacing(c, env))
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// publishDueCmd creates the publish-due command.
func publishDueCmd(env *appEnv) *cli.Command {
	return &cli.Command{
		Name:  "publish-due",
		Usage: "Publish approved drafts whose scheduled time has passed",
		Flags: []cli.Flag{postDelayFlag()},
		Action: func(c *cli.Context) error {
			output, err := env.pipeline.PublishDue(c.Context, time.Now(), pacing(c, env))
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// serveCmd creates the serve command.
func serveCmd(env *appEnv) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the approval web UI and JSON API",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "bind", Value: "127.0.0.1", Usage: "Address to bind"},
			&cli.IntFlag{Name: "port", Aliases: []string{"p"}, Value: 8080, Usage: "Port to listen on"},
		},
		Action: func(c *cli.Context) error {
			srv, err := web.NewServer(env.db, env.cfg, env.pipeline, Version, c.String("bind"), c.Int("port"))
			if err != nil {
				return outputError(qerrors.NewInternal(err))
			}
			return web.Run(srv)
		},
	}
}

// Helper functions

// outputJSON marshals result to stdout as JSON.
func outputJSON(v any) error {
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	if qErr, ok := qerrors.As(err); ok {
		return cli.Exit(fmt.Sprintf("[%s] %s", qErr.Code, qErr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}

// stdinHasData returns true if stdin has piped data (not a terminal).
func stdinHasData() bool {
	f, ok := stdin.(*os.File)
	if !ok {
		return true
	}
	stat, err := f.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}

// readStdinWithLimit reads at most limit bytes from r and trims surrounding whitespace.
func readStdinWithLimit(r io.Reader, limit int64) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return "", qerrors.NewInternal(err)
	}
	if int64(len(data)) > limit {
		return "", qerrors.NewInvalidRequest(fmt.Sprintf("input exceeds %d bytes", limit))
	}
	return strings.TrimSpace(string(data)), nil
}

// splitList splits a comma-separated string, dropping empty items.
func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	items := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			items = append(items, t)
		}
	}
	if len(items) == 0 {
		return nil
	}
	return items
}
