package cli

import (
	"fmt"
	"io"

	"resumecraft/internal/types"

	"github.com/charmbracelet/lipgloss"
)

var (
	badgeStyle = lipgloss.NewStyle().
			Bold(true).
			Padding(0, 1).
			Foreground(lipgloss.Color("0"))

	bandStyles = map[string]lipgloss.Style{
		types.ScoreBandStrong: badgeStyle.Background(lipgloss.Color("42")),
		types.ScoreBandFair:   badgeStyle.Background(lipgloss.Color("220")),
		types.ScoreBandWeak:   badgeStyle.Background(lipgloss.Color("196")),
	}

	explanationStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("240"))
)

// scoreBadge renders the score colored by its band
func scoreBadge(score int) string {
	band := types.ScoreBand(score)
	return bandStyles[band].Render(fmt.Sprintf("ATS %d/100 %s", score, band))
}

// printScore writes the badge and explanation, keeping stdout free for the
// formatted result
func printScore(w io.Writer, result *types.AnalysisResult) {
	if result == nil {
		return
	}
	fmt.Fprintln(w, scoreBadge(result.ATSScore))
	if result.ATSScoreExplanation != "" {
		fmt.Fprintln(w, explanationStyle.Render(result.ATSScoreExplanation))
	}
	if n := len(result.KeywordGaps); n > 0 {
		fmt.Fprintln(w, explanationStyle.Render(fmt.Sprintf("%d keyword gaps", n)))
	}
	if m := result.JobTitleMismatch; m != nil {
		fmt.Fprintln(w, explanationStyle.Render(fmt.Sprintf("Job title %q could be %q", m.UserTitle, m.SuggestedTitle)))
	}
}
