package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/SpillwaveSolutions/agent-rulez-sub000/internal/config"
	"github.com/SpillwaveSolutions/agent-rulez-sub000/internal/hooks"
)

func newValidateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the rule configuration",
		Long:  `Loads the configuration the hooks would use, reports every validation error and lists the rules in evaluation order.`,
		Example: `  # Validate the project configuration
  rulez validate

  # Validate a specific file
  rulez validate --config ./policies/hooks.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.load(cmd.ErrOrStderr())
			if err != nil {
				return fatal(err)
			}

			out := cmd.OutOrStdout()
			source := s.cfg.Source
			if source == "" {
				source = "built-in defaults"
			}
			color.New(color.FgGreen, color.Bold).Fprintf(out, "Configuration is valid: %s\n", source)

			rules := hooks.NewEngine(s.cfg).Rules()
			fmt.Fprintf(out, "%d rule(s) in evaluation order:\n", len(rules))
			for _, rule := range rules {
				printRule(out, rule)
			}
			return nil
		},
	}
}

func printRule(w io.Writer, rule *config.Rule) {
	fmt.Fprintf(w, "  [%3d] %s", rule.EffectivePriority(), color.New(color.Bold).Sprint(rule.Name))

	var tags []string
	if mode := rule.EffectiveMode(); mode != config.ModeEnforce {
		tags = append(tags, color.YellowString(string(mode)))
	}
	if !rule.IsEnabled() {
		tags = append(tags, color.RedString("disabled"))
	}
	if rule.EnabledWhen != "" {
		tags = append(tags, "when "+rule.EnabledWhen)
	}
	if len(tags) > 0 {
		fmt.Fprintf(w, " (%s)", strings.Join(tags, ", "))
	}
	if rule.Description != "" {
		fmt.Fprintf(w, ": %s", rule.Description)
	}
	fmt.Fprintln(w)
}
