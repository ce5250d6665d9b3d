package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Rainytroy/May-Quote-sub001/internal/agent"
	appsession "github.com/Rainytroy/May-Quote-sub001/internal/app"
	"github.com/Rainytroy/May-Quote-sub001/pkg/utils"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Interactive session: the first message generates, the next ones edit",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, shutdown := utils.SetupGracefulShutdownWithContext()
		defer shutdown()

		comps, err := startComponents(ctx)
		if err != nil {
			return err
		}
		defer comps.Close()

		out := cmd.OutOrStdout()
		session := appsession.NewSession()
		commands := appsession.NewCommandRegistry()
		appsession.SetupSessionCommands(commands)

		commands.Register("template", func(s *appsession.Session, args []string) (string, error) {
			if len(args) == 0 {
				return "active template: " + activeTemplateName(comps.Orchestrator), nil
			}
			tpl, err := comps.ActivateTemplate(ctx, args[0])
			if err != nil {
				return "", err
			}
			return "active template: " + tpl.Name, nil
		})
		commands.Register("new", func(s *appsession.Session, args []string) (string, error) {
			if len(args) == 0 {
				return "", fmt.Errorf("usage: /new <request>")
			}
			resp := comps.Orchestrator.Generate(ctx, agent.GenerateRequest{Input: strings.Join(args, " ")})
			s.Restart(resp)
			return "", printResponse(out, resp)
		})

		fmt.Fprintln(out, render(headerStyle, "formgen chat"))
		fmt.Fprintln(out, render(dimStyle, fmt.Sprintf("model: %s  template: %s  (/help for commands, Ctrl+D to exit)",
			comps.Models.SelectedModel(), activeTemplateName(comps.Orchestrator))))

		scanner := bufio.NewScanner(cmd.InOrStdin())
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for {
			fmt.Fprint(out, render(okStyle, "> "))
			if !scanner.Scan() {
				break
			}
			if ctx.Err() != nil {
				break
			}

			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}

			if appsession.IsCommand(line) {
				text, err := commands.Execute(line, session)
				if err != nil {
					fmt.Fprintln(out, renderError(err.Error()))
				} else if text != "" {
					fmt.Fprintln(out, text)
				}
				continue
			}

			var resp agent.Response
			if req, err := session.NextEdit(line); err == nil {
				resp = comps.Orchestrator.Edit(ctx, req)
			} else {
				resp = comps.Orchestrator.Generate(ctx, agent.GenerateRequest{Input: line})
			}
			session.Apply(resp)

			if err := printResponse(out, resp); err != nil {
				return err
			}
		}

		fmt.Fprintln(out)
		return scanner.Err()
	},
}
