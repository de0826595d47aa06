package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hupe1980/reactmesh"
	"github.com/hupe1980/reactmesh/agent"
	"github.com/hupe1980/reactmesh/core"
	"github.com/hupe1980/reactmesh/tool"
)

func newChatCmd(root *rootOptions) *cobra.Command {
	var (
		prompt    string
		sessionID string
		showSteps bool
	)

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat with the agent interactively or answer a single prompt",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := root.cfg

			logger, closeLogger := NewLogger(cfg.Log, cmd.ErrOrStderr())
			defer func() { _ = closeLogger() }()

			llm, err := NewModel(cmd.Context(), cfg)
			if err != nil {
				return err
			}

			tools, err := NewTools(cfg)
			if err != nil {
				return err
			}

			mesh, err := reactmesh.New(tools, llm, func(o *reactmesh.Options) {
				o.Logger = logger
				o.AgentOptions = append(o.AgentOptions, func(o *agent.Options) { o.MaxCycles = cfg.MaxCycles })
				o.DispatcherOptions = append(o.DispatcherOptions, DispatcherOptions(cfg))
			})
			if err != nil {
				return err
			}

			s := &chatSession{
				mesh:      mesh,
				sessionID: sessionID,
				out:       cmd.OutOrStdout(),
				showSteps: showSteps,
			}

			if prompt != "" {
				return s.ask(cmd.Context(), prompt)
			}

			return s.repl(cmd.Context(), cmd.InOrStdin(), tools)
		},
	}

	cmd.Flags().StringVarP(&prompt, "prompt", "p", "", "answer a single prompt and exit")
	cmd.Flags().StringVar(&sessionID, "session", "default", "session id")
	cmd.Flags().BoolVar(&showSteps, "steps", true, "print reasoning steps")

	return cmd
}

type chatSession struct {
	mesh      *reactmesh.ReactMesh
	sessionID string
	out       io.Writer
	showSteps bool
}

func (s *chatSession) ask(ctx context.Context, text string) error {
	events, errs := s.mesh.Invoke(ctx, s.sessionID, text)
	return s.print(events, errs)
}

func (s *chatSession) regenerate(ctx context.Context) error {
	events, errs := s.mesh.Regenerate(ctx, s.sessionID)
	return s.print(events, errs)
}

func (s *chatSession) print(events <-chan core.Event, errs <-chan error) error {
	for ev := range events {
		switch ev.Kind {
		case core.EventStep:
			if s.showSteps && ev.Step != nil {
				fmt.Fprintf(s.out, "  %s\n", ev.Step.String())
			}
		case core.EventContent:
			fmt.Fprint(s.out, ev.Content)
			if !ev.Pending {
				fmt.Fprintln(s.out)
			}
		}
	}
	return <-errs
}

func (s *chatSession) repl(ctx context.Context, in io.Reader, tools []tool.Tool) error {
	names := make([]string, len(tools))
	for i, t := range tools {
		names[i] = t.DisplayName()
	}
	fmt.Fprintf(s.out, "tools: %s\ncommands: /regen, /exit\n", strings.Join(names, ", "))

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(s.out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(s.out)
			return scanner.Err()
		}

		line := strings.TrimSpace(scanner.Text())

		var err error
		switch line {
		case "":
			continue
		case "/exit", "/quit":
			return nil
		case "/regen":
			err = s.regenerate(ctx)
		default:
			err = s.ask(ctx, line)
		}

		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			fmt.Fprintf(s.out, "error: %v\n", err)
		}
	}
}
