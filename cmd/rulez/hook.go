package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/SpillwaveSolutions/agent-rulez-sub000/internal/adapters"
	"github.com/SpillwaveSolutions/agent-rulez-sub000/internal/hooks"
)

func newHookCmd(opts *rootOptions, adapter adapters.Adapter) *cobra.Command {
	var eventName string

	cmd := &cobra.Command{
		Use:   adapter.Name(),
		Short: fmt.Sprintf("Evaluate a %s hook event read from stdin", adapter.Name()),
		Long: fmt.Sprintf(`Reads one %s hook payload from stdin as JSON, evaluates the configured rules and writes the reply as JSON to stdout.

Exit code 0 means the reply was written, 1 means the payload or the configuration is invalid. Vendors that read the exit code get 2 when the action is blocked.`, adapter.Name()),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := adapter
			if eventName != "" {
				namer, ok := a.(adapters.EventNamer)
				if !ok {
					return fatal(fmt.Errorf("%s does not accept --event", a.Name()))
				}
				a = namer.WithEventName(eventName)
			}

			data, err := readInput(cmd.InOrStdin())
			if err != nil {
				return fatal(fmt.Errorf("failed to read stdin: %w", err))
			}

			s, err := opts.load(cmd.ErrOrStderr())
			if err != nil {
				return fatal(err)
			}

			engine := hooks.NewEngine(s.cfg,
				hooks.WithSink(opts.sink(s)),
				hooks.WithLogger(s.logger),
				hooks.WithDebug(opts.debugEnabled(s)),
				hooks.WithPlatform(a.Name()),
			)

			reply, err := hooks.NewProcessor(a, engine, s.logger).Process(cmd.Context(), data)
			if err != nil {
				return fatal(err)
			}
			return writeReply(cmd, reply)
		},
	}

	if _, ok := adapter.(adapters.EventNamer); ok {
		cmd.Flags().StringVar(&eventName, "event", "", "hook event name, for vendors that pass it outside the payload")
	}

	return cmd
}

// readInput returns stdin, or nothing when stdin is an interactive terminal.
func readInput(r io.Reader) ([]byte, error) {
	if f, ok := r.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return nil, nil
	}
	return io.ReadAll(r)
}

func writeReply(cmd *cobra.Command, reply *adapters.Reply) error {
	if err := json.NewEncoder(cmd.OutOrStdout()).Encode(reply.Body); err != nil {
		return fatal(fmt.Errorf("failed to write reply: %w", err))
	}
	if reply.Stderr != "" {
		fmt.Fprintln(cmd.ErrOrStderr(), reply.Stderr)
	}
	if reply.ExitCode != 0 {
		return &exitError{code: reply.ExitCode}
	}
	return nil
}
