package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/SpillwaveSolutions/agent-rulez-sub000/internal/audit"
	"github.com/SpillwaveSolutions/agent-rulez-sub000/internal/config"
	"github.com/SpillwaveSolutions/agent-rulez-sub000/internal/models"
)

func newLogsCmd(opts *rootOptions) *cobra.Command {
	var limit int
	var outcome string
	var sessionID string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show recent audit log entries",
		Example: `  # Last 20 decisions
  rulez logs

  # Recent blocks only
  rulez logs --outcome block --limit 5`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := config.LoadEnv()
			if err != nil {
				return fatal(err)
			}
			path, err := opts.auditPath(env)
			if err != nil {
				return fatal(err)
			}

			q := audit.Query{Limit: limit, SessionID: sessionID}
			if outcome != "" {
				o, err := parseOutcome(outcome)
				if err != nil {
					return fatal(err)
				}
				q.Outcome = o
			}

			entries, skipped, err := audit.Read(path, q)
			if err != nil {
				return fatal(err)
			}
			if skipped > 0 {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: skipped %d unreadable line(s) in %s\n", skipped, path)
			}

			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintf(out, "No audit entries in %s\n", path)
				return nil
			}

			enc := json.NewEncoder(out)
			for i := range entries {
				if asJSON {
					if err := enc.Encode(&entries[i]); err != nil {
						return fatal(err)
					}
					continue
				}
				printEntry(out, &entries[i])
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "number of most recent entries to show (0 for all)")
	cmd.Flags().StringVar(&outcome, "outcome", "", "only show allow, block or inject entries")
	cmd.Flags().StringVar(&sessionID, "session", "", "only show entries from this session")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print raw JSON lines")

	return cmd
}

func parseOutcome(name string) (models.Outcome, error) {
	for _, o := range []models.Outcome{models.OutcomeAllow, models.OutcomeBlock, models.OutcomeInject} {
		if strings.EqualFold(name, string(o)) {
			return o, nil
		}
	}
	return "", fmt.Errorf("unknown outcome %q (want allow, block or inject)", name)
}

func printEntry(w io.Writer, entry *models.LogEntry) {
	fmt.Fprintf(w, "%s %s %s %s",
		entry.Timestamp.Format(time.RFC3339),
		outcomeColor(entry.Outcome).Sprintf("%-6s", entry.Outcome),
		entry.Platform,
		entry.EventType,
	)
	if entry.ToolName != "" {
		fmt.Fprintf(w, " %s", entry.ToolName)
	}
	if len(entry.RulesMatched) > 0 {
		fmt.Fprintf(w, " [%s]", strings.Join(entry.RulesMatched, ", "))
	}
	if entry.Reason != "" {
		fmt.Fprintf(w, ": %s", color.New(color.Faint).Sprint(entry.Reason))
	}
	fmt.Fprintln(w)
}
