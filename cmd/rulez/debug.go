package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/SpillwaveSolutions/agent-rulez-sub000/internal/adapters"
	"github.com/SpillwaveSolutions/agent-rulez-sub000/internal/hooks"
	"github.com/SpillwaveSolutions/agent-rulez-sub000/internal/models"
)

type debugOptions struct {
	tool     string
	command  string
	path     string
	prompt   string
	session  string
	platform string
}

func newDebugCmd(opts *rootOptions, registry *adapters.Registry) *cobra.Command {
	var d debugOptions

	cmd := &cobra.Command{
		Use:   "debug <event-type>",
		Short: "Simulate an event and show how every rule evaluated",
		Long:  `Builds a synthetic event, evaluates it against the configuration and prints the response with the per-rule trace. Nothing is written to the audit log.`,
		Example: `  # Would this command be blocked?
  rulez debug PreToolUse --tool Bash --command "git push --force"

  # Show the Gemini reply for a prompt
  rulez debug UserPromptSubmit --prompt "drop database prod" --platform gemini`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eventType, ok := models.ParseEventType(args[0])
			if !ok {
				names := make([]string, 0, len(models.AllEventTypes()))
				for _, et := range models.AllEventTypes() {
					names = append(names, string(et))
				}
				return fatal(fmt.Errorf("unknown event type %q (valid: %s)", args[0], strings.Join(names, ", ")))
			}

			var adapter adapters.Adapter
			if d.platform != "" {
				a, err := registry.Get(d.platform)
				if err != nil {
					return fatal(err)
				}
				adapter = a
			}

			s, err := opts.load(cmd.ErrOrStderr())
			if err != nil {
				return fatal(err)
			}

			event := d.event(eventType)
			engine := hooks.NewEngine(s.cfg,
				hooks.WithLogger(s.logger),
				hooks.WithDebug(true),
				hooks.WithPlatform("debug"),
			)
			engine.RegexCache().Clear()

			eval, err := engine.Evaluate(cmd.Context(), event)
			if err != nil {
				return fatal(err)
			}

			out := cmd.OutOrStdout()
			printEvaluation(out, eval)

			if adapter != nil {
				reply, err := adapter.TranslateResponse(eval.Response, event)
				if err != nil {
					return fatal(err)
				}
				body, err := json.MarshalIndent(reply.Body, "", "  ")
				if err != nil {
					return fatal(err)
				}
				fmt.Fprintf(out, "\n%s reply (exit code %d):\n%s\n", adapter.Name(), reply.ExitCode, body)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&d.tool, "tool", "", "tool name, e.g. Bash or Write")
	cmd.Flags().StringVar(&d.command, "command", "", "tool_input.command")
	cmd.Flags().StringVar(&d.path, "path", "", "tool_input.file_path")
	cmd.Flags().StringVar(&d.prompt, "prompt", "", "user prompt text")
	cmd.Flags().StringVar(&d.session, "session", "", "session id (default: a random debug id)")
	cmd.Flags().StringVar(&d.platform, "platform", "", "also print the reply for this adapter (claude, gemini, copilot, opencode)")

	return cmd
}

func (d debugOptions) event(eventType models.EventType) *models.Event {
	event := &models.Event{
		EventType: eventType,
		SessionID: d.session,
		ToolName:  d.tool,
		Prompt:    d.prompt,
		Timestamp: time.Now().UTC(),
	}
	if event.SessionID == "" {
		event.SessionID = "debug-" + uuid.NewString()
	}
	if cwd, err := os.Getwd(); err == nil {
		event.Cwd = cwd
	}

	input := models.Payload{}
	if d.command != "" {
		input["command"] = d.command
	}
	if d.path != "" {
		input["file_path"] = d.path
	}
	if len(input) > 0 {
		event.ToolInput = input
	}
	return event
}

func printEvaluation(w io.Writer, eval *hooks.Evaluation) {
	resp := eval.Response

	outcome := resp.Outcome()
	fmt.Fprintf(w, "Decision: %s\n", outcomeColor(outcome).Sprint(outcome))
	if resp.Reason != "" {
		fmt.Fprintf(w, "Reason:   %s\n", resp.Reason)
	}
	if resp.Context != "" {
		fmt.Fprintf(w, "Context:\n%s\n", indent(resp.Context, "    "))
	}
	if resp.Timing != nil {
		fmt.Fprintf(w, "Timing:   %dms, %d rule(s) evaluated\n", resp.Timing.ProcessingMs, resp.Timing.RulesEvaluated)
	}

	fmt.Fprintln(w, "\nRules:")
	for _, re := range eval.LogEntry.RuleEvaluations {
		status := color.New(color.Faint).Sprint("skip ")
		switch {
		case re.Matched:
			status = color.GreenString("match")
		case !re.Enabled:
			status = color.YellowString("off  ")
		}
		fmt.Fprintf(w, "  %s [%3d] %s", status, re.Priority, re.RuleName)
		if len(re.Actions) > 0 {
			fmt.Fprintf(w, " actions=%s", strings.Join(re.Actions, ","))
		}
		if re.Detail != "" {
			fmt.Fprintf(w, ": %s", re.Detail)
		}
		fmt.Fprintln(w)
	}
}

func outcomeColor(outcome models.Outcome) *color.Color {
	switch outcome {
	case models.OutcomeBlock:
		return color.New(color.FgRed, color.Bold)
	case models.OutcomeInject:
		return color.New(color.FgCyan, color.Bold)
	default:
		return color.New(color.FgGreen, color.Bold)
	}
}

func indent(text, prefix string) string {
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	for i, line := range lines {
		lines[i] = prefix + line
	}
	return strings.Join(lines, "\n")
}
