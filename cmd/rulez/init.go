package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/SpillwaveSolutions/agent-rulez-sub000/internal/scaffold"
)

func newInitCmd() *cobra.Command {
	var dir string
	var template string
	var force bool
	var list bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a starter .claude/hooks.yaml",
		Long:  `Renders a starter rule configuration into <dir>/.claude/hooks.yaml. Existing files are kept unless --force is given.`,
		Example: `  # Minimal policy in the current project
  rulez init

  # Fuller example policy, replacing the current one
  rulez init --template standard --force

  # Show the available templates
  rulez init --list`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := scaffold.NewEngine()
			if err != nil {
				return fatal(fmt.Errorf("failed to load templates: %w", err))
			}

			if list {
				for _, name := range engine.List() {
					fmt.Fprintln(cmd.OutOrStdout(), name)
				}
				return nil
			}

			path, err := engine.InitConfig(dir, template, force)
			if err != nil {
				return fatal(err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", path)
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", ".", "project directory")
	cmd.Flags().StringVar(&template, "template", scaffold.DefaultTemplate, "starter template (minimal or standard)")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing configuration")
	cmd.Flags().BoolVar(&list, "list", false, "list the available templates")

	return cmd
}
