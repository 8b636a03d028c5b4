package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"resumecraft/internal/config"
	"resumecraft/internal/document"
	"resumecraft/internal/errors"
	"resumecraft/internal/templates"
	"resumecraft/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		App: config.AppConfig{
			LogLevel:         "error",
			DefaultFormat:    "json",
			SupportedFormats: []string{"json", "yaml", "text", "markdown"},
			MaxFileSize:      1 << 20,
			DefaultTemplate:  "professional",
		},
		Storage:  config.StorageConfig{DataDir: t.TempDir()},
		Accounts: config.AccountsConfig{BcryptCost: bcrypt.MinCost},
	}
}

func sampleAnalysis() *types.AnalysisResult {
	return document.NormalizeResult(&types.AnalysisResult{
		TailoredResume: types.TailoredResumeData{
			FullName: "Ada Lovelace",
			JobTitle: "Analyst",
			Contact:  types.Contact{Email: "ada@example.com", Phone: "555"},
			Summary:  "Mathematician",
			Skills:   []string{"Go"},
		},
		ATSScore:            81,
		ATSScoreExplanation: "Strong match",
		KeywordGaps:         []types.KeywordGap{{Keyword: "Kubernetes"}},
	})
}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func writeAnalysis(t *testing.T) string {
	t.Helper()
	data, err := json.Marshal(sampleAnalysis())
	require.NoError(t, err)
	return writeFile(t, "analysis.json", data)
}

func runCommand(t *testing.T, cfg *config.Config, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})
	err := Execute(context.Background(), cfg, errors.NewNopLogger())
	return out.String(), err
}

func TestParseSet(t *testing.T) {
	tests := []struct {
		name      string
		set       string
		wantPath  string
		wantValue any
		wantCode  string
	}{
		{"plain string", "jobTitle=Staff Engineer", "jobTitle", "Staff Engineer", ""},
		{"indexed path", "workExperience.0.company=Acme", "workExperience.0.company", "Acme", ""},
		{"json array", `skills=["Go","SQL"]`, "skills", []any{"Go", "SQL"}, ""},
		{"quoted string", `summary="a=b"`, "summary", "a=b", ""},
		{"empty value", "summary=", "summary", "", ""},
		{"missing equals", "jobTitle", "", nil, errors.ErrCodeInvalidRequest},
		{"bad json", `skills=[Go`, "", nil, errors.ErrCodeTypeMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path, value, err := parseSet(tt.set)
			if tt.wantCode != "" {
				appErr, ok := errors.AsAppError(err)
				require.True(t, ok, "expected an AppError, got %v", err)
				if appErr.Code != tt.wantCode {
					t.Errorf("Expected code %s, got %s", tt.wantCode, appErr.Code)
				}
				return
			}
			require.NoError(t, err)
			if path.String() != tt.wantPath {
				t.Errorf("Expected path %s, got %s", tt.wantPath, path.String())
			}
			assert.Equal(t, tt.wantValue, value)
		})
	}
}

func TestScoreBadge(t *testing.T) {
	tests := []struct {
		score int
		want  string
	}{
		{90, "ATS 90/100 strong"},
		{76, "ATS 76/100 strong"},
		{75, "ATS 75/100 fair"},
		{51, "ATS 51/100 fair"},
		{50, "ATS 50/100 weak"},
		{0, "ATS 0/100 weak"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := scoreBadge(tt.score); !strings.Contains(got, tt.want) {
				t.Errorf("Expected badge to contain %q, got %q", tt.want, got)
			}
		})
	}
}

func TestPrintScore(t *testing.T) {
	result := sampleAnalysis()
	result.JobTitleMismatch = &types.JobTitleMismatch{UserTitle: "Analyst", SuggestedTitle: "Data Analyst"}

	var buf bytes.Buffer
	printScore(&buf, result)
	out := buf.String()

	assert.Contains(t, out, "ATS 81/100 strong")
	assert.Contains(t, out, "Strong match")
	assert.Contains(t, out, "1 keyword gaps")
	assert.Contains(t, out, `"Data Analyst"`)

	buf.Reset()
	printScore(&buf, nil)
	if buf.Len() != 0 {
		t.Errorf("Expected no output for a nil result, got %q", buf.String())
	}
}

func TestDecodeAnalysis(t *testing.T) {
	valid, err := json.Marshal(sampleAnalysis())
	require.NoError(t, err)

	result, err := decodeAnalysis(valid, "analysis.json")
	require.NoError(t, err)
	if result.ATSScore != 81 {
		t.Errorf("Expected score 81, got %d", result.ATSScore)
	}
	assert.NotNil(t, result.TailoredResume.WorkExperience)

	_, err = decodeAnalysis([]byte(`{"atsScore":"high"}`), "bad.json")
	appErr, ok := errors.AsAppError(err)
	require.True(t, ok)
	if appErr.Code != errors.ErrCodeInvalidDocument {
		t.Errorf("Expected code %s, got %s", errors.ErrCodeInvalidDocument, appErr.Code)
	}
}

func TestDecodeAnalysis_UnnormalizedSequences(t *testing.T) {
	raw, err := json.Marshal(&types.AnalysisResult{
		TailoredResume: types.TailoredResumeData{
			FullName: "Ada Lovelace",
			JobTitle: "Analyst",
			Contact:  types.Contact{Email: "ada@example.com", Phone: "555"},
		},
		ATSScore:            55,
		ATSScoreExplanation: "Fair",
	})
	require.NoError(t, err)
	require.Contains(t, string(raw), `"education":null`)

	result, err := decodeAnalysis(raw, "analysis.json")
	require.NoError(t, err)
	assert.Equal(t, []types.Education{}, result.TailoredResume.Education)
	assert.Equal(t, []string{}, result.TailoredResume.Skills)
	assert.NotNil(t, result.KeywordGaps)
}

func TestInputsProfile(t *testing.T) {
	in := newInputs(testConfig(t), errors.NewNopLogger())
	defer in.Close()

	profileJSON := writeFile(t, "profile.json", []byte(`{"fullName":"Ada","roleAppliedFor":"Analyst","skills":["Go"]}`))
	profile, err := in.profile(context.Background(), profileJSON)
	require.NoError(t, err)
	if profile.FullName != "Ada" {
		t.Errorf("Expected name Ada, got %s", profile.FullName)
	}
	assert.NotNil(t, profile.WorkExperience)
	assert.Equal(t, []string{"Go"}, profile.Skills)

	png := writeFile(t, "profile.png", []byte("\x89PNG\r\n\x1a\n0000000000"))
	_, err = in.profile(context.Background(), png)
	if errors.TypeOf(err) != errors.ErrorTypeValidation {
		t.Errorf("Expected a validation error for an image profile, got %v", err)
	}

	_, err = in.profile(context.Background(), filepath.Join(t.TempDir(), "missing.json"))
	appErr, ok := errors.AsAppError(err)
	require.True(t, ok)
	if appErr.Code != errors.ErrCodeFileNotFound {
		t.Errorf("Expected code %s, got %s", errors.ErrCodeFileNotFound, appErr.Code)
	}
}

func TestInputsJobDescription(t *testing.T) {
	in := newInputs(testConfig(t), errors.NewNopLogger())
	defer in.Close()

	job := writeFile(t, "job.txt", []byte("Senior Go engineer"))
	text, err := in.jobDescription(context.Background(), job)
	require.NoError(t, err)
	if text != "Senior Go engineer" {
		t.Errorf("Expected job text, got %q", text)
	}
}

func TestResolveVariant(t *testing.T) {
	variant, err := resolveVariant("", "elegant")
	require.NoError(t, err)
	assert.Equal(t, templates.Elegant, variant)

	variant, err = resolveVariant("minimalist", "elegant")
	require.NoError(t, err)
	assert.Equal(t, templates.Minimalist, variant)

	_, err = resolveVariant("baroque", "elegant")
	appErr, ok := errors.AsAppError(err)
	require.True(t, ok)
	if appErr.Code != errors.ErrCodeUnsupportedTemplate {
		t.Errorf("Expected code %s, got %s", errors.ErrCodeUnsupportedTemplate, appErr.Code)
	}
}

func TestExportCommand(t *testing.T) {
	cfg := testConfig(t)
	analysis := writeAnalysis(t)

	out, err := runCommand(t, cfg, "export", analysis, "--scope", "resume", "--format", "text")
	require.NoError(t, err)
	assert.Contains(t, out, "Ada Lovelace")
	assert.Contains(t, out, "SUMMARY")

	out, err = runCommand(t, cfg, "export", analysis, "--scope", "analysis", "--format", "json")
	require.NoError(t, err)
	var decoded types.AnalysisResult
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	if decoded.ATSScore != 81 {
		t.Errorf("Expected score 81, got %d", decoded.ATSScore)
	}

	_, err = runCommand(t, cfg, "export", analysis, "--scope", "everything", "--format", "json")
	assert.Error(t, err)
}

func TestRenderCommand(t *testing.T) {
	cfg := testConfig(t)
	analysis := writeAnalysis(t)
	target := filepath.Join(t.TempDir(), "out", "resume.html")

	_, err := runCommand(t, cfg, "render", analysis, "--template", "creative", "--format", "html", "-o", target)
	require.NoError(t, err)

	html, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Contains(t, string(html), "Ada Lovelace")
}

func TestWritePreview(t *testing.T) {
	picture := "data:image/png;base64,iVBORw0KGgo="
	doc := &sampleAnalysis().TailoredResume

	tests := []struct {
		name        string
		variant     templates.Variant
		wantPicture bool
	}{
		{"professional shows the picture", templates.Professional, true},
		{"elegant omits the picture", templates.Elegant, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target := filepath.Join(t.TempDir(), "preview", "resume.html")
			require.NoError(t, writePreview(target, tt.variant, doc, picture))

			html, err := os.ReadFile(target)
			require.NoError(t, err)
			assert.Contains(t, string(html), "Ada Lovelace")
			if got := strings.Contains(string(html), picture); got != tt.wantPicture {
				t.Errorf("Expected picture present=%v, got %v", tt.wantPicture, got)
			}
		})
	}
}

func TestAccountsCommands(t *testing.T) {
	cfg := testConfig(t)

	out, err := runCommand(t, cfg, "accounts", "seed")
	require.NoError(t, err)
	assert.Contains(t, out, "Created admin@app.com")

	out, err = runCommand(t, cfg, "accounts", "seed")
	require.NoError(t, err)
	assert.Contains(t, out, "already present")

	out, err = runCommand(t, cfg, "accounts", "login", "admin@app.com", "--password", "admin", "--format", "json")
	require.NoError(t, err)
	var user map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &user))
	if user["email"] != "admin@app.com" {
		t.Errorf("Expected admin@app.com, got %v", user["email"])
	}

	_, err = runCommand(t, cfg, "accounts", "login", "admin@app.com", "--password", "wrong", "--format", "json")
	appErr, ok := errors.AsAppError(err)
	require.True(t, ok, "expected an AppError, got %v", err)
	if appErr.Code != errors.ErrCodeInvalidCredentials {
		t.Errorf("Expected code %s, got %s", errors.ErrCodeInvalidCredentials, appErr.Code)
	}
}

func TestAccountsListCommand(t *testing.T) {
	cfg := testConfig(t)

	_, err := runCommand(t, cfg, "accounts", "seed")
	require.NoError(t, err)

	out, err := runCommand(t, cfg, "accounts", "list", "--as", "admin@app.com", "--format", "json")
	require.NoError(t, err)
	var users []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &users))
	require.Len(t, users, 2)
	if users[0]["email"] != "admin@app.com" || users[1]["email"] != "client@app.com" {
		t.Errorf("Expected admin then client, got %v and %v", users[0]["email"], users[1]["email"])
	}
	assert.Equal(t, "Admin", users[0]["role"])
	assert.NotContains(t, out, "passwordHash")

	_, err = runCommand(t, cfg, "accounts", "list", "--as", "client@app.com", "--format", "json")
	appErr, ok := errors.AsAppError(err)
	require.True(t, ok, "expected an AppError, got %v", err)
	if appErr.Code != errors.ErrCodeAdminRequired {
		t.Errorf("Expected code %s, got %s", errors.ErrCodeAdminRequired, appErr.Code)
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := runCommand(t, testConfig(t), "version")
	require.NoError(t, err)
	assert.Contains(t, out, "resumecraft version dev")
}
