package export

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	resumecraftErrors "resumecraft/internal/errors"
	"resumecraft/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlainText(t *testing.T) {
	doc := &types.TailoredResumeData{
		FullName: "Ada Lovelace",
		JobTitle: "Backend Engineer",
		Contact:  types.Contact{Email: "ada@example.com", Phone: "555-0100", Website: "ada.dev", Address: "London"},
		Summary:  "Engineer.",
		WorkExperience: []types.WorkExperience{{
			JobTitle:         "Analyst",
			Company:          "Engines Ltd",
			StartDate:        "1842",
			EndDate:          "1843",
			Responsibilities: []string{"Wrote notes", "Built loops"},
		}},
		Education: []types.Education{
			{Institution: "Home", Degree: "Mathematics", FieldOfStudy: "Analysis", GraduationDate: "1835"},
			{Institution: "Society", Degree: "Lectures", GraduationDate: "1840"},
		},
		Skills:         []string{"Go", "SQL"},
		AdditionalInfo: []types.AdditionalInfo{{Title: "Languages", Details: "English, French"}},
	}

	want := `Ada Lovelace
Backend Engineer

Contact:
ada@example.com | 555-0100 | ada.dev
London

--- SUMMARY ---
Engineer.

--- WORK EXPERIENCE ---

ANALYST | Engines Ltd
1842 - 1843
- Wrote notes
- Built loops

--- EDUCATION ---

Mathematics in Analysis
Home | 1835

Lectures
Society | 1840

--- SKILLS ---
Go, SQL

--- ADDITIONAL INFORMATION ---

LANGUAGES: English, French
`
	assert.Equal(t, want, PlainText(doc))
}

func TestPlainText_OmitsEmptyAdditionalInfo(t *testing.T) {
	got := PlainText(&types.TailoredResumeData{FullName: "A"})
	assert.NotContains(t, got, "ADDITIONAL INFORMATION")
	assert.Contains(t, got, "--- SKILLS ---\n\n")
	assert.Empty(t, PlainText(nil))
}

func TestPDFRenderer_MissingBrowser(t *testing.T) {
	r := NewPDFRenderer(filepath.Join(t.TempDir(), "no-chrome"), 5*time.Second, nil)

	_, err := r.Print(context.Background(), "<html><body>hi</body></html>")
	require.Error(t, err)
	appErr, ok := resumecraftErrors.AsAppError(err)
	require.True(t, ok, "Expected AppError, got %v", err)
	assert.Equal(t, resumecraftErrors.ErrCodeExportFailed, appErr.Code)
}
