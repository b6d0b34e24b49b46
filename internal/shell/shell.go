// Package shell is an interactive command line over the dashboard and
// session services. It drives the same operations as the HTTP API.
package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"

	"github.com/medash/medash-go/internal/panel"
	"github.com/medash/medash-go/internal/service"
)

// ErrExit is returned by Execute when the user asks to leave.
var ErrExit = errors.New("exit requested")

var errNotLoggedIn = errors.New("not logged in, use: login <email>")

// Shell executes parsed command lines and prints results to its writer.
type Shell struct {
	sessions   *service.SessionService
	dashboards *service.DashboardService
	registry   *panel.Registry
	shareURL   func(token string) string
	out        io.Writer
}

// New creates a Shell writing to out.
func New(sessions *service.SessionService, dashboards *service.DashboardService, registry *panel.Registry, shareURL func(string) string, out io.Writer) *Shell {
	return &Shell{
		sessions:   sessions,
		dashboards: dashboards,
		registry:   registry,
		shareURL:   shareURL,
		out:        out,
	}
}

// Run reads and executes lines until exit, EOF or an interrupt.
func (s *Shell) Run(ctx context.Context, rl *readline.Instance) error {
	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		args := ParseArgs(strings.TrimSpace(line))
		if len(args) == 0 {
			continue
		}

		err = s.Execute(ctx, args)
		if errors.Is(err, ErrExit) {
			return nil
		}
		if err != nil {
			fmt.Fprintf(s.out, "error: %v\n", err)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

// ParseArgs splits a command line on whitespace. Double or single quotes
// group words into one argument; inside single quotes double quotes are kept,
// so JSON can be passed as '{"key":"value"}'.
func ParseArgs(input string) []string {
	var args []string
	var current strings.Builder
	var quote rune
	quoted := false

	for _, char := range input {
		switch {
		case quote != 0 && char == quote:
			quote = 0
		case quote == 0 && (char == '"' || char == '\''):
			quote = char
			quoted = true
		case quote == 0 && (char == ' ' || char == '\t'):
			if current.Len() > 0 || quoted {
				args = append(args, current.String())
				current.Reset()
				quoted = false
			}
		default:
			current.WriteRune(char)
		}
	}

	if current.Len() > 0 || quoted {
		args = append(args, current.String())
	}

	return args
}

// Execute runs one command. args[0] is the command name.
func (s *Shell) Execute(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("no command provided")
	}

	cmd, ok := commands[args[0]]
	if !ok {
		return fmt.Errorf("unknown command: %s", args[0])
	}
	if len(args)-1 < cmd.minArgs {
		return fmt.Errorf("usage: %s", cmd.usage)
	}
	if cmd.needsLogin {
		if _, err := s.sessions.CurrentUser(); err != nil {
			return errNotLoggedIn
		}
	}
	return cmd.run(s, ctx, args[1:])
}

// Completer offers the command names for tab completion.
func Completer() *readline.PrefixCompleter {
	items := make([]readline.PrefixCompleterInterface, 0, len(commandOrder))
	for _, name := range commandOrder {
		items = append(items, readline.PcItem(name))
	}
	return readline.NewPrefixCompleter(items...)
}

func (s *Shell) printf(format string, a ...any) {
	fmt.Fprintf(s.out, format, a...)
}
