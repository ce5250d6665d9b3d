package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Rainytroy/May-Quote-sub001/internal/agent"
	appcomponents "github.com/Rainytroy/May-Quote-sub001/pkg/app"
	"github.com/Rainytroy/May-Quote-sub001/pkg/prompts"
	"github.com/Rainytroy/May-Quote-sub001/pkg/utils"
)

var generateTemplateID string

var generateCmd = &cobra.Command{
	Use:   "generate [request...]",
	Short: "Generate a form configuration (first stage); '-' reads the request from stdin",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		input, err := readInput(cmd.InOrStdin(), args)
		if err != nil {
			return err
		}

		ctx, shutdown := utils.SetupGracefulShutdownWithContext()
		defer shutdown()

		comps, err := startComponents(ctx)
		if err != nil {
			return err
		}
		defer comps.Close()

		req := agent.GenerateRequest{Input: input}
		if generateTemplateID != "" {
			tpl, err := comps.Catalog.Get(generateTemplateID)
			if err != nil {
				return err
			}
			req.Template = &tpl
		}

		resp := comps.Orchestrator.Generate(ctx, req)
		return printResponse(cmd.OutOrStdout(), resp)
	},
}

func init() {
	generateCmd.Flags().StringVar(&generateTemplateID, "template", "", "Template id for this request (default: active template)")
}

// startComponents инициализирует компоненты и, если включено, сервер метрик.
func startComponents(ctx context.Context) (*appcomponents.Components, error) {
	comps, err := appcomponents.Initialize(ctx, cfg, componentOptions())
	if err != nil {
		return nil, err
	}
	if comps.Registry != nil {
		startMetricsServer(ctx, cfg.Metrics.Addr, comps.Registry)
	}
	return comps, nil
}

// readInput склеивает аргументы; единственный аргумент "-" читает stdin.
func readInput(stdin io.Reader, args []string) (string, error) {
	if len(args) == 1 && args[0] == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return strings.TrimSpace(string(data)), nil
	}
	return strings.Join(args, " "), nil
}

// readFileOrStdin читает файл или stdin для "-".
func readFileOrStdin(stdin io.Reader, path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// activeTemplateName - для приглашения чата.
func activeTemplateName(o *agent.Orchestrator) string {
	if t, ok := o.Template(); ok {
		return t.Name
	}
	return prompts.BuiltinStandard().Name
}
