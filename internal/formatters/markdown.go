package formatters

import (
	"fmt"
	"strings"

	"resumecraft/internal/types"
)

// AnalysisMarkdownFormatter handles markdown formatting for generation results
type AnalysisMarkdownFormatter struct{}

func (amf *AnalysisMarkdownFormatter) Format(data any) (string, error) {
	result, ok := data.(types.AnalysisResult)
	if !ok {
		return "", fmt.Errorf("expected AnalysisResult, got %T", data)
	}

	var output strings.Builder

	output.WriteString(resumeMarkdown(&result.TailoredResume))

	output.WriteString("\n---\n\n## ATS Analysis\n\n")
	output.WriteString(fmt.Sprintf("**Score:** %d/100 (%s)\n\n", result.ATSScore, types.ScoreBand(result.ATSScore)))
	output.WriteString(result.ATSScoreExplanation)
	output.WriteString("\n\n")

	if result.JobTitleMismatch != nil {
		output.WriteString("### Job Title Mismatch\n\n")
		output.WriteString(fmt.Sprintf("**Your title:** %s  \n**Suggested:** %s\n\n",
			result.JobTitleMismatch.UserTitle, result.JobTitleMismatch.SuggestedTitle))
		output.WriteString(result.JobTitleMismatch.Reason)
		output.WriteString("\n\n")
	}

	if len(result.QualificationMatches) > 0 {
		output.WriteString("## Qualification Matches\n\n")
		for i, m := range result.QualificationMatches {
			output.WriteString(fmt.Sprintf("### %d. %s\n\n", i+1, m.JobRequirement))
			output.WriteString("**You have:** ")
			output.WriteString(m.UserQualification)
			output.WriteString("\n\n")
			output.WriteString(m.Explanation)
			output.WriteString("\n\n")
		}
	}

	if len(result.KeywordGaps) > 0 {
		output.WriteString("## Keyword Gaps\n\n")
		for _, gap := range result.KeywordGaps {
			output.WriteString(fmt.Sprintf("- **%s**: %s\n", gap.Keyword, gap.Reason))
		}
		output.WriteString("\n")
	}

	if len(result.KeywordGuide) > 0 {
		output.WriteString("## Learning Guide\n\n")
		for _, item := range result.KeywordGuide {
			output.WriteString(fmt.Sprintf("### %s\n\n", item.Keyword))
			output.WriteString(item.Guidance)
			output.WriteString("\n\n")
			output.WriteString(fmt.Sprintf("%s: [%s](%s)\n\n", item.Resource.Type, item.Resource.Title, item.Resource.URL))
		}
	}

	return output.String(), nil
}

func (amf *AnalysisMarkdownFormatter) SupportedType() string {
	return TypeAnalysisResult
}

// ResumeMarkdownFormatter handles markdown formatting for resume documents
type ResumeMarkdownFormatter struct{}

func (rmf *ResumeMarkdownFormatter) Format(data any) (string, error) {
	doc, ok := data.(types.TailoredResumeData)
	if !ok {
		return "", fmt.Errorf("expected TailoredResumeData, got %T", data)
	}
	return resumeMarkdown(&doc), nil
}

func (rmf *ResumeMarkdownFormatter) SupportedType() string {
	return TypeTailoredResume
}

func resumeMarkdown(doc *types.TailoredResumeData) string {
	var output strings.Builder

	output.WriteString(fmt.Sprintf("# %s\n\n**%s**\n\n", doc.FullName, doc.JobTitle))

	contact := []string{}
	for _, v := range []string{doc.Contact.Email, doc.Contact.Phone, doc.Contact.Website, doc.Contact.LinkedInURL, doc.Contact.Address} {
		if v != "" {
			contact = append(contact, v)
		}
	}
	if len(contact) > 0 {
		output.WriteString(strings.Join(contact, " | "))
		output.WriteString("\n\n")
	}

	if doc.Summary != "" {
		output.WriteString("## Summary\n\n")
		output.WriteString(doc.Summary)
		output.WriteString("\n\n")
	}

	if len(doc.WorkExperience) > 0 {
		output.WriteString("## Work Experience\n\n")
		for _, exp := range doc.WorkExperience {
			output.WriteString(fmt.Sprintf("### %s, %s\n\n*%s - %s*\n\n", exp.JobTitle, exp.Company, exp.StartDate, exp.EndDate))
			for _, r := range exp.Responsibilities {
				output.WriteString(fmt.Sprintf("- %s\n", r))
			}
			output.WriteString("\n")
		}
	}

	if len(doc.Education) > 0 {
		output.WriteString("## Education\n\n")
		for _, edu := range doc.Education {
			degree := edu.Degree
			if edu.FieldOfStudy != "" {
				degree += " in " + edu.FieldOfStudy
			}
			output.WriteString(fmt.Sprintf("- **%s**, %s (%s)\n", degree, edu.Institution, edu.GraduationDate))
		}
		output.WriteString("\n")
	}

	if len(doc.Skills) > 0 {
		output.WriteString("## Skills\n\n")
		output.WriteString(strings.Join(doc.Skills, ", "))
		output.WriteString("\n\n")
	}

	if len(doc.Certifications) > 0 {
		output.WriteString("## Certifications\n\n")
		for _, c := range doc.Certifications {
			output.WriteString(fmt.Sprintf("- %s, %s (%s)\n", c.Name, c.IssuingOrganization, c.Date))
		}
		output.WriteString("\n")
	}

	writeProjects(&output, "Projects", doc.Projects)
	writeProjects(&output, "Additional Experience", doc.AdditionalExperience)

	if len(doc.AdditionalInfo) > 0 {
		output.WriteString("## Additional Information\n\n")
		for _, info := range doc.AdditionalInfo {
			output.WriteString(fmt.Sprintf("**%s:** %s\n\n", info.Title, info.Details))
		}
	}

	if len(doc.References) > 0 {
		output.WriteString("## References\n\n")
		for _, ref := range doc.References {
			output.WriteString(fmt.Sprintf("- %s, %s at %s (%s, %s)\n", ref.Name, ref.Title, ref.Company, ref.Email, ref.Phone))
		}
		output.WriteString("\n")
	}

	return output.String()
}

func writeProjects(b *strings.Builder, title string, projects []types.Project) {
	if len(projects) == 0 {
		return
	}
	b.WriteString(fmt.Sprintf("## %s\n\n", title))
	for _, p := range projects {
		b.WriteString(fmt.Sprintf("### %s\n\n", p.Title))
		if p.Date != "" {
			b.WriteString(fmt.Sprintf("*%s*\n\n", p.Date))
		}
		b.WriteString(p.Description)
		b.WriteString("\n\n")
	}
}

// ScoreMarkdownFormatter handles markdown formatting for reconciled scores
type ScoreMarkdownFormatter struct{}

func (smf *ScoreMarkdownFormatter) Format(data any) (string, error) {
	score, ok := data.(types.ScoreResult)
	if !ok {
		return "", fmt.Errorf("expected ScoreResult, got %T", data)
	}
	return fmt.Sprintf("## ATS Score\n\n**Score:** %d/100 (%s)\n\n%s\n",
		score.ATSScore, types.ScoreBand(score.ATSScore), score.ATSScoreExplanation), nil
}

func (smf *ScoreMarkdownFormatter) SupportedType() string {
	return TypeScoreResult
}

// ProfileMarkdownFormatter handles markdown formatting for imported profiles
type ProfileMarkdownFormatter struct{}

func (pmf *ProfileMarkdownFormatter) Format(data any) (string, error) {
	profile, ok := data.(types.ProfileData)
	if !ok {
		return "", fmt.Errorf("expected ProfileData, got %T", data)
	}

	var output strings.Builder

	name := profile.FullName
	if name == "" {
		name = "Profile"
	}
	output.WriteString(fmt.Sprintf("# %s\n\n", name))
	for _, line := range [][2]string{
		{"Email", profile.Email},
		{"Phone", profile.Phone},
		{"LinkedIn", profile.LinkedInURL},
		{"Applying for", profile.RoleAppliedFor},
	} {
		if line[1] != "" {
			output.WriteString(fmt.Sprintf("- **%s:** %s\n", line[0], line[1]))
		}
	}
	output.WriteString("\n")

	if profile.Summary != "" {
		output.WriteString("## Summary\n\n")
		output.WriteString(profile.Summary)
		output.WriteString("\n\n")
	}

	if len(profile.WorkExperience) > 0 {
		output.WriteString("## Work Experience\n\n")
		for _, w := range profile.WorkExperience {
			output.WriteString(fmt.Sprintf("### %s, %s\n\n*%s - %s*\n\n", w.JobTitle, w.Company, w.StartDate, w.EndDate))
			if w.Responsibilities != "" {
				output.WriteString(w.Responsibilities)
				output.WriteString("\n\n")
			}
		}
	}

	if len(profile.Skills) > 0 {
		output.WriteString("## Skills\n\n")
		output.WriteString(strings.Join(profile.Skills, ", "))
		output.WriteString("\n")
	}

	return output.String(), nil
}

func (pmf *ProfileMarkdownFormatter) SupportedType() string {
	return TypeProfile
}
