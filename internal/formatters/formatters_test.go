package formatters

import (
	"strings"
	"testing"

	"resumecraft/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func sampleResult() types.AnalysisResult {
	return types.AnalysisResult{
		TailoredResume: types.TailoredResumeData{
			FullName: "Ada Lovelace",
			JobTitle: "Backend Engineer",
			Skills:   []string{"Go", "SQL"},
			WorkExperience: []types.WorkExperience{
				{JobTitle: "Analyst", Company: "Engines Ltd", Responsibilities: []string{"Wrote notes"}},
			},
		},
		ATSScore:            82,
		ATSScoreExplanation: "Strong overlap.",
		KeywordGaps:         []types.KeywordGap{{Keyword: "Kubernetes", Reason: "Listed as required"}},
		KeywordGuide: []types.KeywordGuideItem{{
			Keyword:  "Kubernetes",
			Guidance: "Deploy a service.",
			Resource: types.LearningResource{Title: "K8s Basics", Type: types.ResourceCourse, URL: "https://example.com/k8s"},
		}},
		JobTitleMismatch: &types.JobTitleMismatch{UserTitle: "Analyst", SuggestedTitle: "Backend Engineer", Reason: "Role differs"},
	}
}

func TestRegistry_Format(t *testing.T) {
	registry := NewFormatterRegistry()
	result := sampleResult()

	tests := []struct {
		name     string
		data     any
		format   string
		contains []string
	}{
		{
			name:     "analysis text",
			data:     result,
			format:   "text",
			contains: []string{"=== TAILORED RESUME ===", "ANALYST | Engines Ltd", "Score: 82/100 (strong)", "=== JOB TITLE MISMATCH ===", "- Kubernetes: Listed as required", "Course: K8s Basics <https://example.com/k8s>"},
		},
		{
			name:     "analysis markdown via pointer",
			data:     &result,
			format:   "markdown",
			contains: []string{"# Ada Lovelace", "**Score:** 82/100 (strong)", "- **Kubernetes**: Listed as required", "[K8s Basics](https://example.com/k8s)"},
		},
		{
			name:     "resume text",
			data:     result.TailoredResume,
			format:   "text",
			contains: []string{"--- SKILLS ---\nGo, SQL"},
		},
		{
			name:     "score text",
			data:     types.ScoreResult{ATSScore: 55, ATSScoreExplanation: "Partial match."},
			format:   "text",
			contains: []string{"Score: 55/100 (fair)", "Partial match."},
		},
		{
			name:     "score markdown",
			data:     types.ScoreResult{ATSScore: 30},
			format:   "markdown",
			contains: []string{"**Score:** 30/100 (weak)"},
		},
		{
			name:     "profile text",
			data:     types.ProfileData{FullName: "Ada", Skills: []string{"Go"}},
			format:   "text",
			contains: []string{"Name: Ada", "=== SKILLS ===\nGo"},
		},
		{
			name:     "extracted text",
			data:     types.ExtractedText{Text: "## Role\nGo developer\n\n"},
			format:   "markdown",
			contains: []string{"## Role\nGo developer\n"},
		},
		{
			name:     "json for any type",
			data:     map[string]int{"version": 3},
			format:   "json",
			contains: []string{"\"version\": 3"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := registry.Format(tt.data, tt.format)
			require.NoError(t, err)
			for _, want := range tt.contains {
				if !strings.Contains(got, want) {
					t.Errorf("Expected output to contain %q, got:\n%s", want, got)
				}
			}
		})
	}
}

func TestRegistry_UnknownFormat(t *testing.T) {
	_, err := NewFormatterRegistry().Format(sampleResult(), "xml")
	assert.Error(t, err)

	_, err = NewFormatterRegistry().Format(map[string]string{}, "text")
	assert.Error(t, err, "text has no generic formatter")
}

func TestYAMLFormatter_KeepsJSONNamesAndOrder(t *testing.T) {
	out, err := NewFormatterRegistry().Format(types.ScoreResult{ATSScore: 70, ATSScoreExplanation: "true"}, "yaml")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out, "atsScore: 70\natsScoreExplanation: "), "Expected block style in JSON order, got %q", out)

	var raw map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(out), &raw))
	assert.Equal(t, 70, raw["atsScore"])
	assert.Equal(t, "true", raw["atsScoreExplanation"], "string that looks like a bool must stay quoted")
}

func TestYAMLFormatter_EmptyCollections(t *testing.T) {
	out, err := (&YAMLFormatter{}).Format(map[string]any{"skills": []string{}})
	require.NoError(t, err)
	assert.Equal(t, "skills: []\n", out)
}

func TestGetSupportedFormats(t *testing.T) {
	assert.Equal(t, []string{"json", "markdown", "text", "yaml"}, NewFormatterRegistry().GetSupportedFormats())
}
