package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Rainytroy/May-Quote-sub001/internal/agent"
	appsession "github.com/Rainytroy/May-Quote-sub001/internal/app"
	"github.com/Rainytroy/May-Quote-sub001/pkg/prompts"
	"github.com/Rainytroy/May-Quote-sub001/pkg/structured"
	"github.com/Rainytroy/May-Quote-sub001/pkg/utils"
)

// wrapWidth - ширина переноса текста шаблонов.
const wrapWidth = 100

var (
	primaryColor = lipgloss.Color("62")
	grayColor    = lipgloss.Color("240")

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(primaryColor).
			Padding(0, 1).
			Bold(true)

	okStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#04B575")).
		Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF0000")).
			Bold(true)

	dimStyle = lipgloss.NewStyle().Foreground(grayColor)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(primaryColor).
			Padding(0, 1)
)

// render применяет стиль, если цвета не выключены.
func render(style lipgloss.Style, s string) string {
	if noColor {
		return s
	}
	return style.Render(s)
}

func renderError(s string) string { return render(errorStyle, "Error: "+s) }

// printResponse выводит ответ оркестратора.
func printResponse(w io.Writer, resp agent.Response) error {
	if jsonOutput {
		return printJSON(w, resp)
	}

	title := "Form configuration"
	if resp.Recovery {
		title += " (regenerated)"
	}
	fmt.Fprintln(w, render(headerStyle, title))
	fmt.Fprintln(w, render(dimStyle, fmt.Sprintf("template: %s  model: %s", resp.TemplateName, valueOr(resp.Model, "-"))))

	if resp.IsValid {
		fmt.Fprintln(w, render(okStyle, appsession.FormatStats(resp.Status, resp.Stats)))
	} else {
		fmt.Fprintln(w, render(errorStyle, appsession.FormatStats(resp.Status, resp.Stats)))
	}
	for _, warning := range resp.Warnings {
		fmt.Fprintln(w, render(dimStyle, "warning: "+warning))
	}

	switch {
	case resp.Content != nil:
		fmt.Fprintln(w, render(boxStyle, *resp.Content))
	default:
		fmt.Fprintln(w, resp.RawResponse)
	}
	return nil
}

// printExtraction выводит результат извлечения без оркестратора.
func printExtraction(w io.Writer, res structured.ExtractionResult) error {
	if jsonOutput {
		return printJSON(w, res)
	}

	style := okStyle
	if !res.IsValid {
		style = errorStyle
	}
	fmt.Fprintln(w, render(style, appsession.FormatStats(res.Status, res.Stats)))
	for _, warning := range res.Warnings {
		fmt.Fprintln(w, render(dimStyle, "warning: "+warning))
	}
	if res.Content != nil {
		fmt.Fprintln(w, render(boxStyle, *res.Content))
	}
	return nil
}

// printTemplates выводит каталог, активный отмечен звёздочкой.
func printTemplates(w io.Writer, templates []prompts.TemplateSet, activeID string) error {
	if jsonOutput {
		return printJSON(w, templates)
	}

	for _, t := range templates {
		marker := " "
		if t.ID == activeID {
			marker = "*"
		}
		kind := "custom"
		if t.IsDefault {
			kind = "built-in"
		}
		fmt.Fprintf(w, "%s %s  %s %s\n", marker, t.ID, t.Name, render(dimStyle, "("+kind+")"))
	}
	return nil
}

func printTemplate(w io.Writer, t prompts.TemplateSet) error {
	if jsonOutput {
		return printJSON(w, t)
	}

	fmt.Fprintln(w, render(headerStyle, t.Name))
	fmt.Fprintln(w, render(dimStyle, "id: "+t.ID))
	fmt.Fprintln(w, render(okStyle, "First stage"))
	fmt.Fprintln(w, indent(wrapLong(t.FirstStage), 2))
	fmt.Fprintln(w, render(okStyle, "Second stage"))
	fmt.Fprintln(w, indent(wrapLong(t.SecondStage), 2))
	return nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func valueOr(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// wrapLong переносит только длинные строки, отступы остальных сохраняются.
func wrapLong(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		if len(line) > wrapWidth {
			lines[i] = utils.WrapText(line, wrapWidth)
		}
	}
	return strings.Join(lines, "\n")
}

// indent добавляет отступы к каждой строке.
func indent(s string, spaces int) string {
	prefix := strings.Repeat(" ", spaces)
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = prefix + line
	}
	return strings.Join(lines, "\n")
}
