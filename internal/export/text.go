package export

import (
	"fmt"
	"strings"

	"resumecraft/internal/types"
)

// PlainText lays doc out as a clipboard friendly plain-text resume.
func PlainText(doc *types.TailoredResumeData) string {
	if doc == nil {
		return ""
	}

	var out strings.Builder
	fmt.Fprintf(&out, "%s\n%s\n", doc.FullName, doc.JobTitle)

	contact := doc.Contact.Email + " | " + doc.Contact.Phone
	if doc.Contact.Website != "" {
		contact += " | " + doc.Contact.Website
	}
	fmt.Fprintf(&out, "\nContact:\n%s\n%s\n", contact, doc.Contact.Address)

	fmt.Fprintf(&out, "\n--- SUMMARY ---\n%s\n", doc.Summary)

	out.WriteString("\n--- WORK EXPERIENCE ---\n")
	for _, exp := range doc.WorkExperience {
		fmt.Fprintf(&out, "\n%s | %s\n", strings.ToUpper(exp.JobTitle), exp.Company)
		fmt.Fprintf(&out, "%s - %s\n", exp.StartDate, exp.EndDate)
		for _, r := range exp.Responsibilities {
			fmt.Fprintf(&out, "- %s\n", r)
		}
	}

	out.WriteString("\n--- EDUCATION ---\n")
	for _, edu := range doc.Education {
		degree := edu.Degree
		if edu.FieldOfStudy != "" {
			degree += " in " + edu.FieldOfStudy
		}
		fmt.Fprintf(&out, "\n%s\n%s | %s\n", degree, edu.Institution, edu.GraduationDate)
	}

	fmt.Fprintf(&out, "\n--- SKILLS ---\n%s\n", strings.Join(doc.Skills, ", "))

	if len(doc.AdditionalInfo) > 0 {
		out.WriteString("\n--- ADDITIONAL INFORMATION ---\n")
		for _, info := range doc.AdditionalInfo {
			fmt.Fprintf(&out, "\n%s: %s\n", strings.ToUpper(info.Title), info.Details)
		}
	}

	return out.String()
}
