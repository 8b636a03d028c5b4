package formatters

import (
	"fmt"
	"strings"

	"resumecraft/internal/export"
	"resumecraft/internal/types"
)

// AnalysisTextFormatter handles text formatting for generation results
type AnalysisTextFormatter struct{}

func (atf *AnalysisTextFormatter) Format(data any) (string, error) {
	result, ok := data.(types.AnalysisResult)
	if !ok {
		return "", fmt.Errorf("expected AnalysisResult, got %T", data)
	}

	var output strings.Builder

	output.WriteString("=== TAILORED RESUME ===\n\n")
	output.WriteString(export.PlainText(&result.TailoredResume))
	output.WriteString("\n")

	output.WriteString("=== ATS ANALYSIS ===\n")
	output.WriteString(fmt.Sprintf("Score: %d/100 (%s)\n", result.ATSScore, types.ScoreBand(result.ATSScore)))
	output.WriteString(result.ATSScoreExplanation)
	output.WriteString("\n\n")

	if result.JobTitleMismatch != nil {
		output.WriteString("=== JOB TITLE MISMATCH ===\n")
		output.WriteString(fmt.Sprintf("Your title: %s\n", result.JobTitleMismatch.UserTitle))
		output.WriteString(fmt.Sprintf("Suggested: %s\n", result.JobTitleMismatch.SuggestedTitle))
		output.WriteString(result.JobTitleMismatch.Reason)
		output.WriteString("\n\n")
	}

	if len(result.QualificationMatches) > 0 {
		output.WriteString("=== QUALIFICATION MATCHES ===\n\n")
		for i, m := range result.QualificationMatches {
			output.WriteString(fmt.Sprintf("%d. %s\n", i+1, m.JobRequirement))
			output.WriteString("   You have: ")
			output.WriteString(m.UserQualification)
			output.WriteString("\n   Why: ")
			output.WriteString(m.Explanation)
			output.WriteString("\n\n")
		}
	}

	if len(result.KeywordGaps) > 0 {
		output.WriteString("=== KEYWORD GAPS ===\n")
		for _, gap := range result.KeywordGaps {
			output.WriteString(fmt.Sprintf("- %s: %s\n", gap.Keyword, gap.Reason))
		}
		output.WriteString("\n")
	}

	if len(result.KeywordGuide) > 0 {
		output.WriteString("=== LEARNING GUIDE ===\n\n")
		for _, item := range result.KeywordGuide {
			output.WriteString(item.Keyword)
			output.WriteString("\n")
			output.WriteString(item.Guidance)
			output.WriteString("\n")
			output.WriteString(fmt.Sprintf("%s: %s <%s>\n\n", item.Resource.Type, item.Resource.Title, item.Resource.URL))
		}
	}

	return output.String(), nil
}

func (atf *AnalysisTextFormatter) SupportedType() string {
	return TypeAnalysisResult
}

// ResumeTextFormatter uses the plain-text export layout
type ResumeTextFormatter struct{}

func (rtf *ResumeTextFormatter) Format(data any) (string, error) {
	doc, ok := data.(types.TailoredResumeData)
	if !ok {
		return "", fmt.Errorf("expected TailoredResumeData, got %T", data)
	}
	return export.PlainText(&doc), nil
}

func (rtf *ResumeTextFormatter) SupportedType() string {
	return TypeTailoredResume
}

// ScoreTextFormatter handles text formatting for reconciled scores
type ScoreTextFormatter struct{}

func (stf *ScoreTextFormatter) Format(data any) (string, error) {
	score, ok := data.(types.ScoreResult)
	if !ok {
		return "", fmt.Errorf("expected ScoreResult, got %T", data)
	}
	return fmt.Sprintf("=== ATS SCORE ===\nScore: %d/100 (%s)\n%s\n",
		score.ATSScore, types.ScoreBand(score.ATSScore), score.ATSScoreExplanation), nil
}

func (stf *ScoreTextFormatter) SupportedType() string {
	return TypeScoreResult
}

// ProfileTextFormatter handles text formatting for imported profiles
type ProfileTextFormatter struct{}

func (ptf *ProfileTextFormatter) Format(data any) (string, error) {
	profile, ok := data.(types.ProfileData)
	if !ok {
		return "", fmt.Errorf("expected ProfileData, got %T", data)
	}

	var output strings.Builder

	output.WriteString("=== PROFILE ===\n\n")
	writeLine(&output, "Name", profile.FullName)
	writeLine(&output, "Email", profile.Email)
	writeLine(&output, "Phone", profile.Phone)
	writeLine(&output, "LinkedIn", profile.LinkedInURL)
	writeLine(&output, "Applying for", profile.RoleAppliedFor)

	if profile.Summary != "" {
		output.WriteString("\nSummary:\n")
		output.WriteString(profile.Summary)
		output.WriteString("\n")
	}

	if len(profile.WorkExperience) > 0 {
		output.WriteString("\n=== WORK EXPERIENCE ===\n")
		for _, w := range profile.WorkExperience {
			output.WriteString(fmt.Sprintf("\n%s | %s\n%s - %s\n", w.JobTitle, w.Company, w.StartDate, w.EndDate))
			if w.Responsibilities != "" {
				output.WriteString(w.Responsibilities)
				output.WriteString("\n")
			}
		}
	}

	if len(profile.Education) > 0 {
		output.WriteString("\n=== EDUCATION ===\n")
		for _, e := range profile.Education {
			output.WriteString(fmt.Sprintf("- %s, %s (%s)\n", e.Degree, e.Institution, e.GraduationDate))
		}
	}

	if len(profile.Skills) > 0 {
		output.WriteString("\n=== SKILLS ===\n")
		output.WriteString(strings.Join(profile.Skills, ", "))
		output.WriteString("\n")
	}

	return output.String(), nil
}

func (ptf *ProfileTextFormatter) SupportedType() string {
	return TypeProfile
}

// ExtractedTextFormatter prints the extracted job description as is, for
// both text and markdown since the model already writes headings
type ExtractedTextFormatter struct{}

func (etf *ExtractedTextFormatter) Format(data any) (string, error) {
	text, ok := data.(types.ExtractedText)
	if !ok {
		return "", fmt.Errorf("expected ExtractedText, got %T", data)
	}
	return strings.TrimRight(text.Text, "\n") + "\n", nil
}

func (etf *ExtractedTextFormatter) SupportedType() string {
	return TypeExtractedText
}

func writeLine(b *strings.Builder, label, value string) {
	if value == "" {
		return
	}
	b.WriteString(fmt.Sprintf("%s: %s\n", label, value))
}
