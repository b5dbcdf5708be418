package ui

import (
	"fmt"
	"strings"

	"github.com/Ayash-Bera/reelscout/internal/recommender"
	"github.com/charmbracelet/lipgloss"
)

var (
	colorAccent = lipgloss.Color("205")
	colorMuted  = lipgloss.Color("245")
	colorError  = lipgloss.Color("9")
	colorOK     = lipgloss.Color("42")

	titleStyle    = lipgloss.NewStyle().Bold(true).MarginBottom(1)
	hintStyle     = lipgloss.NewStyle().Foreground(colorMuted)
	errorStyle    = lipgloss.NewStyle().Foreground(colorError)
	okStyle       = lipgloss.NewStyle().Foreground(colorOK)
	selectedStyle = lipgloss.NewStyle().Foreground(colorAccent).Bold(true)
	buttonStyle   = lipgloss.NewStyle().Padding(0, 1).Border(lipgloss.NormalBorder())
	disabledStyle = buttonStyle.Foreground(colorMuted)
	cardStyle     = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("238")).
			Padding(0, 1).
			Width(cardWidth)
	cardTitleStyle = lipgloss.NewStyle().Bold(true)
)

const (
	cardWidth          = 30
	maxVisibleSuggests = 10
)

func (a App) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("🎬 Movie Recommender"))
	b.WriteString("\n")
	b.WriteString(hintStyle.Render("Type a movie, pick one, and get similar recommendations."))
	b.WriteString("\n")
	if a.health != "" {
		style := okStyle
		if a.healthErr {
			style = errorStyle
		}
		b.WriteString(style.Render(a.health))
		if a.backendURL != "" {
			b.WriteString(hintStyle.Render(" · " + a.backendURL))
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")

	b.WriteString(a.input.View())
	b.WriteString("\n\n")

	b.WriteString(a.suggestionsView())
	b.WriteString("\n")

	b.WriteString(a.controlsView())
	b.WriteString("\n")

	if a.state.Err != "" {
		b.WriteString(errorStyle.Render(a.state.Err))
		b.WriteString("\n")
	}

	if recs := a.resultsView(); recs != "" {
		b.WriteString("\n")
		b.WriteString(recs)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(a.help.View(a.keys))

	return b.String()
}

func (a App) suggestionsView() string {
	if len(a.state.Suggestions) == 0 {
		if a.state.Selected != "" {
			return hintStyle.Render("Selected: ") + selectedStyle.Render(a.state.Selected) + "\n"
		}
		return hintStyle.Render("Select a movie") + "\n"
	}

	start := 0
	if a.cursor >= maxVisibleSuggests {
		start = a.cursor - maxVisibleSuggests + 1
	}
	end := start + maxVisibleSuggests
	if end > len(a.state.Suggestions) {
		end = len(a.state.Suggestions)
	}

	var b strings.Builder
	for i := start; i < end; i++ {
		title := a.state.Suggestions[i]
		marker := "  "
		if i == a.cursor {
			marker = "> "
		}
		line := marker + title
		if title == a.state.Selected {
			line = selectedStyle.Render(line + " ✓")
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	if len(a.state.Suggestions) > maxVisibleSuggests {
		b.WriteString(hintStyle.Render(fmt.Sprintf("%d of %d", a.cursor+1, len(a.state.Suggestions))))
		b.WriteString("\n")
	}
	if a.state.Selected != "" && !contains(a.state.Suggestions[start:end], a.state.Selected) {
		b.WriteString(hintStyle.Render("Selected: ") + selectedStyle.Render(a.state.Selected) + "\n")
	}
	return b.String()
}

func (a App) controlsView() string {
	topK := fmt.Sprintf("Top K: %d", a.state.TopK)

	var button string
	switch {
	case a.state.Loading:
		button = buttonStyle.Render(a.spinner.View() + " Loading…")
	case a.state.CanRecommend():
		button = buttonStyle.Render("Recommend")
	default:
		button = disabledStyle.Render("Recommend")
	}

	return lipgloss.JoinHorizontal(lipgloss.Center, topK, "   ", button)
}

func (a App) resultsView() string {
	if a.state.Recs == nil {
		return ""
	}
	if len(a.state.Recs) == 0 {
		return hintStyle.Render("No recommendations found. Try another title.")
	}

	perRow := 1
	if a.width > 0 {
		perRow = a.width / (cardWidth + 4)
	}
	if perRow < 1 {
		perRow = 1
	}

	var rows []string
	for i := 0; i < len(a.state.Recs); i += perRow {
		end := i + perRow
		if end > len(a.state.Recs) {
			end = len(a.state.Recs)
		}
		cards := make([]string, 0, end-i)
		for _, rec := range a.state.Recs[i:end] {
			cards = append(cards, renderCard(rec))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cards...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func renderCard(rec recommender.RecommendItem) string {
	lines := []string{cardTitleStyle.Render(rec.Title)}
	lines = append(lines, hintStyle.Render(rec.GenresText()))
	lines = append(lines, fmt.Sprintf("Similarity: %.2f", rec.Score))
	return cardStyle.Render(strings.Join(lines, "\n"))
}

func contains(items []string, item string) bool {
	for _, s := range items {
		if s == item {
			return true
		}
	}
	return false
}
