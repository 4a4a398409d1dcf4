package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/x/ansi"

	"github.com/abhisek/lessondiag/internal/ui/components"
	"github.com/abhisek/lessondiag/internal/ui/theme"
)

// TextOptions controls terminal rendering.
type TextOptions struct {
	// Plain strips colors and styling, for pipes and files.
	Plain bool
	// Width is the progress bar width.
	Width int
}

// Text writes r as a styled terminal report.
func Text(w io.Writer, r *Report, opts TextOptions) error {
	if opts.Width <= 0 {
		opts.Width = 60
	}
	out := render(r, opts)
	if opts.Plain {
		out = ansi.Strip(out)
	}
	_, err := io.WriteString(w, out)
	return err
}

func render(r *Report, opts TextOptions) string {
	var b strings.Builder

	b.WriteString(theme.Title.Render("Lesson plan diagnosis"))
	b.WriteString("\n")
	b.WriteString(theme.Hint.Render(fmt.Sprintf("run %s · model %s", r.RunID, r.Model)))
	b.WriteString("\n")

	b.WriteString(theme.Heading.Render("Scores"))
	b.WriteString("\n")
	b.WriteString(scoreCards(r))
	b.WriteString("\n")
	bar := components.NewProgressBar("Overall", r.Score/100, true, opts.Width)
	b.WriteString(bar.View())
	b.WriteString("\n")

	if failed := failures(r); len(failed) > 0 || len(r.Notices) > 0 || len(r.Warnings) > 0 {
		b.WriteString(theme.Heading.Render("Problems"))
		b.WriteString("\n")
		for _, line := range failed {
			b.WriteString(theme.Notice.Render(theme.Poor.Render(line)))
			b.WriteString("\n")
		}
		for _, n := range r.Notices {
			b.WriteString(theme.Notice.Render(n))
			b.WriteString("\n")
		}
		for _, wr := range r.Warnings {
			b.WriteString(theme.Notice.Render(theme.Hint.Render(fmt.Sprintf("%s: unexpected shape: %s", wr.Dimension, firstLine(wr.Message)))))
			b.WriteString("\n")
		}
	}

	b.WriteString(theme.Heading.Render("Diagnosis"))
	b.WriteString("\n")
	if data, err := json.MarshalIndent(r.Diagnosis, "", "  "); err == nil {
		b.WriteString(theme.Body.Render(string(data)))
	} else {
		b.WriteString(theme.Poor.Render("cannot render diagnosis: " + err.Error()))
	}
	b.WriteString("\n")

	switch {
	case r.SuggestionError != "":
		b.WriteString(theme.Heading.Render("Suggestions"))
		b.WriteString("\n")
		b.WriteString(theme.Poor.Render("Could not generate suggestions: " + r.SuggestionError))
		b.WriteString("\n")
	case r.Suggestions != "":
		b.WriteString(theme.Heading.Render("Suggestions"))
		b.WriteString("\n")
		b.WriteString(theme.Body.Render(strings.TrimSpace(r.Suggestions)))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(theme.Hint.Render(usageLine(r)))
	b.WriteString("\n")
	return b.String()
}

func scoreCards(r *Report) string {
	s := r.SubScores
	cards := []string{
		card(theme.Card, "Section completeness", s.Completeness, "weight 30% · five sections present and substantive"),
		card(theme.Card, "Time allocation", s.TimeAllocation, "weight 30% · durations fit the lesson"),
		card(theme.Card, "Core literacy", s.Literacy, "weight 40% · four literacy dimensions"),
		card(theme.TotalCard, "Total", r.Score, "completeness 30% + time 30% + literacy 40%"),
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cards...)
}

func card(style lipgloss.Style, label string, score float64, help string) string {
	value := theme.ScoreStyle(score).Render(formatScore(score) + " / 100")
	return style.Render(label + "\n" + value + "\n" + theme.Hint.Render(help))
}

func failures(r *Report) []string {
	if r.Diagnosis == nil {
		return nil
	}
	var lines []string
	for _, d := range r.Diagnosis.Dimensions() {
		if d.Result.IsError() {
			lines = append(lines, fmt.Sprintf("%s failed: %s", d.Title, d.Result.ErrorMessage()))
		}
	}
	return lines
}

func usageLine(r *Report) string {
	cost := fmt.Sprintf("$%.4f", r.CostUSD)
	if !r.CostComplete {
		cost += " (partial)"
	}
	return fmt.Sprintf("%d input + %d output tokens · est. %s · %s",
		r.Usage.InputTokens, r.Usage.OutputTokens, cost, r.Elapsed.Round(time.Millisecond))
}

func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
