package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/SpillwaveSolutions/agent-rulez-sub000/internal/adapters"
	"github.com/SpillwaveSolutions/agent-rulez-sub000/internal/audit"
	"github.com/SpillwaveSolutions/agent-rulez-sub000/internal/config"
	"github.com/SpillwaveSolutions/agent-rulez-sub000/internal/hooks"
	"github.com/SpillwaveSolutions/agent-rulez-sub000/internal/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// exitError carries a process exit code out of a command. A nil err
// means the command already reported everything it had to say.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error {
	return e.err
}

func fatal(err error) error {
	return &exitError{code: 1, err: err}
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetIn(stdin)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return 0
	}

	var ee *exitError
	if errors.As(err, &ee) {
		if ee.err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", ee.err)
		}
		return ee.code
	}
	fmt.Fprintf(stderr, "Error: %v\n", err)
	return 1
}

// rootOptions are the persistent flags shared by every subcommand.
type rootOptions struct {
	configPath string
	logPath    string
	debug      bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:           "rulez",
		Short:         "Policy engine for AI coding agent hooks",
		Long:          `A hook binary for Claude Code, Gemini CLI, Copilot CLI and OpenCode that evaluates tool calls and prompts against the rules in .claude/hooks.yaml and blocks, allows or injects context.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to the rule configuration (default: .claude/hooks.yaml, then ~/.claude/hooks.yaml)")
	rootCmd.PersistentFlags().StringVar(&opts.logPath, "log-path", "", "audit log file (default: ~/.claude/logs/rulez.jsonl)")
	rootCmd.PersistentFlags().BoolVar(&opts.debug, "debug", false, "record the per-rule trace and log at debug level")

	registry := adapters.DefaultRegistry()
	for _, name := range registry.Names() {
		adapter, _ := registry.Get(name)
		rootCmd.AddCommand(newHookCmd(opts, adapter))
	}
	rootCmd.AddCommand(newValidateCmd(opts))
	rootCmd.AddCommand(newDebugCmd(opts, registry))
	rootCmd.AddCommand(newInitCmd())
	rootCmd.AddCommand(newLogsCmd(opts))

	return rootCmd
}

// session is the resolved environment and configuration of one command.
type session struct {
	env    config.Env
	cfg    *config.Config
	logger *slog.Logger
}

func (o *rootOptions) load(stderr io.Writer) (*session, error) {
	env, err := config.LoadEnv()
	if err != nil {
		return nil, err
	}

	cfg, err := hooks.LoadConfig(env, o.configPath, "")
	if err != nil {
		return nil, err
	}

	level := cfg.Settings.LogLevel
	if env.LogLevel != "" {
		level = env.LogLevel
	}
	if o.debug {
		level = "debug"
	}

	return &session{
		env:    env,
		cfg:    cfg,
		logger: logging.New(stderr, level),
	}, nil
}

func (o *rootOptions) auditPath(env config.Env) (string, error) {
	switch {
	case o.logPath != "":
		return o.logPath, nil
	case env.LogPath != "":
		return env.LogPath, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return config.DefaultLogPath(home), nil
}

// sink opens the audit log. Failures are logged and auditing is skipped.
func (o *rootOptions) sink(s *session) audit.Sink {
	path, err := o.auditPath(s.env)
	if err != nil {
		s.logger.Warn("audit log disabled", "error", err)
		return audit.NopSink{}
	}

	sink, err := audit.NewJSONLSink(path)
	if err != nil {
		s.logger.Warn("audit log disabled", "path", path, "error", err)
		return audit.NopSink{}
	}
	return sink
}

func (o *rootOptions) debugEnabled(s *session) bool {
	return o.debug || s.env.Debug || s.cfg.Settings.DebugLogs
}
