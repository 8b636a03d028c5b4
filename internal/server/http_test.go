package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"sync"
	"testing"

	"resumecraft/internal/account"
	"resumecraft/internal/ai"
	"resumecraft/internal/config"
	resumecraftErrors "resumecraft/internal/errors"
	"resumecraft/internal/reconcile"
	"resumecraft/internal/storage"
	"resumecraft/internal/types"
	"resumecraft/internal/workflow"
	"resumecraft/internal/workspace"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// stubProvider serves canned AI results and records the inputs it saw
type stubProvider struct {
	mu        sync.Mutex
	analysis  types.AnalysisResult
	extracted types.ExtractedText
	profile   types.ProfileData
	err       error
	generated []types.GenerateInput
	parsed    []types.ParseProfileInput
}

func (p *stubProvider) GenerateAnalysis(_ context.Context, input types.GenerateInput) (types.AnalysisResult, *ai.TokenUsage, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.generated = append(p.generated, input)
	return p.analysis, &ai.TokenUsage{InputTokens: 10, OutputTokens: 20, TotalTokens: 30}, p.err
}

func (p *stubProvider) RescoreResume(context.Context, types.RescoreInput) (types.ScoreResult, *ai.TokenUsage, error) {
	return types.ScoreResult{}, nil, errors.New("not used")
}

func (p *stubProvider) IntegrateKeyword(context.Context, types.IntegrateKeywordInput) (types.TailoredResumeData, *ai.TokenUsage, error) {
	return types.TailoredResumeData{}, nil, errors.New("not used")
}

func (p *stubProvider) ExtractJobDescription(context.Context, types.ImageInput) (types.ExtractedText, *ai.TokenUsage, error) {
	return p.extracted, nil, p.err
}

func (p *stubProvider) ParseProfile(_ context.Context, input types.ParseProfileInput) (types.ProfileData, *ai.TokenUsage, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.parsed = append(p.parsed, input)
	return p.profile, nil, p.err
}

func (p *stubProvider) GetModelInfo(context.Context) *ai.ModelInfo {
	return &ai.ModelInfo{Name: "stub", Available: true}
}

func (p *stubProvider) Close() error { return nil }

type testEnv struct {
	server   *Server
	handler  http.Handler
	provider *stubProvider
	scoreErr error
}

func sampleAnalysis() types.AnalysisResult {
	return types.AnalysisResult{
		TailoredResume: types.TailoredResumeData{
			FullName: "Ada Lovelace",
			JobTitle: "Mathematician",
			Contact:  types.Contact{Email: "ada@example.com", Phone: "+44 1"},
			Summary:  "Analyst of engines.",
			WorkExperience: []types.WorkExperience{{
				JobTitle:         "Analyst",
				Company:          "Analytical Engines",
				StartDate:        "1842",
				EndDate:          "1843",
				Responsibilities: []string{"Wrote the first program"},
			}},
			Skills: []string{"Go"},
		},
		ATSScore:            42,
		ATSScoreExplanation: "Partial match.",
		KeywordGaps:         []types.KeywordGap{{Keyword: "SQL", Reason: "not mentioned"}},
		JobTitleMismatch: &types.JobTitleMismatch{
			UserTitle:      "Mathematician",
			SuggestedTitle: "Data Analyst",
			Reason:         "role applied for",
		},
	}
}

func newTestEnv(t *testing.T, modify func(cfg *ServerConfig)) *testEnv {
	t.Helper()

	env := &testEnv{provider: &stubProvider{
		analysis:  sampleAnalysis(),
		extracted: types.ExtractedText{Text: "Senior Analyst wanted"},
		profile:   types.ProfileData{FullName: "Ada Lovelace", Skills: []string{"Go"}},
	}}

	svc := func(op string) *ai.Service { return ai.NewServiceWithProvider(env.provider, nil, op, nil) }
	services := &ai.Services{
		Generate:     svc(config.OpGenerate),
		Rescore:      svc(config.OpRescore),
		Integrate:    svc(config.OpIntegrate),
		Extract:      svc(config.OpExtract),
		ParseProfile: svc(config.OpParseProfile),
	}

	scorer := reconcile.ScorerFunc(func(_ context.Context, doc *types.TailoredResumeData, _ string) (types.ScoreResult, error) {
		if env.scoreErr != nil {
			return types.ScoreResult{}, env.scoreErr
		}
		return types.ScoreResult{ATSScore: 60 + len(doc.Skills), ATSScoreExplanation: "rescored"}, nil
	})
	integrator := workflow.IntegratorFunc(func(_ context.Context, doc *types.TailoredResumeData, keyword, _ string) (*types.TailoredResumeData, error) {
		out := *doc
		out.Skills = append(slices.Clone(doc.Skills), keyword)
		return &out, nil
	})

	store, err := storage.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	cfg := ServerConfig{Host: "127.0.0.1", Port: "0", Version: "test", MaxRequestSize: 1 << 20}
	if modify != nil {
		modify(&cfg)
	}

	env.server = NewServer(nil, cfg, Deps{
		Services:   services,
		Workspaces: workspace.NewManager(scorer, integrator, nil),
		Accounts:   account.NewService(account.NewSQLiteRepository(store), bcrypt.MinCost, nil),
		Storage:    store,
	}, nil)
	t.Cleanup(func() {
		if env.server.RateLimiter != nil {
			env.server.RateLimiter.Close()
		}
	})
	env.handler = env.server.Handler(nil)
	return env
}

func (e *testEnv) do(t *testing.T, method, target string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case []byte:
		reader = bytes.NewReader(b)
	case string:
		reader = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
		headers = append(headers, "Content-Type", "application/json")
	}

	req := httptest.NewRequest(method, target, reader)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), "body: %s", rec.Body.String())
	return v
}

func (e *testEnv) generate(t *testing.T) WorkspaceResponse {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/generate", GenerateRequest{
		Profile:        types.ProfileData{FullName: "Ada Lovelace", Skills: []string{"Go"}},
		JobDescription: "Data Analyst with SQL",
		RoleTitle:      "Data Analyst",
	})
	require.Equal(t, http.StatusCreated, rec.Code, "body: %s", rec.Body.String())
	return decode[WorkspaceResponse](t, rec)
}

func TestGenerateOpensWorkspace(t *testing.T) {
	env := newTestEnv(t, nil)

	resp := env.generate(t)
	assert.NotEmpty(t, resp.WorkspaceID)
	assert.Equal(t, uint64(1), resp.Version)
	assert.Equal(t, "professional", resp.Template)
	require.NotNil(t, resp.Result)
	assert.Equal(t, 42, resp.Result.ATSScore)
	assert.Equal(t, "Ada Lovelace", resp.Result.TailoredResume.FullName)

	require.Len(t, env.provider.generated, 1)
	assert.Equal(t, "Data Analyst", env.provider.generated[0].RoleTitle)
	assert.Equal(t, "professional", env.provider.generated[0].Template)

	rec := env.do(t, http.MethodGet, "/workspaces/"+resp.WorkspaceID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, resp.WorkspaceID, decode[WorkspaceResponse](t, rec).WorkspaceID)
}

func TestGenerateRejectsBadRequests(t *testing.T) {
	env := newTestEnv(t, nil)

	tests := []struct {
		name       string
		body       any
		headers    []string
		wantStatus int
		wantCode   string
	}{
		{
			name:       "missing role title",
			body:       GenerateRequest{JobDescription: "jd"},
			wantStatus: http.StatusBadRequest,
			wantCode:   resumecraftErrors.ErrCodeInvalidRequest,
		},
		{
			name:       "unknown template",
			body:       GenerateRequest{JobDescription: "jd", RoleTitle: "Analyst", Template: "gothic"},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "local file picture",
			body:       GenerateRequest{JobDescription: "jd", RoleTitle: "Analyst", ProfilePicture: "/etc/passwd"},
			wantStatus: http.StatusBadRequest,
			wantCode:   resumecraftErrors.ErrCodeInvalidRequest,
		},
		{
			name:       "wrong content type",
			body:       `{"jobDescription":"jd","roleTitle":"Analyst"}`,
			headers:    []string{"Content-Type", "text/plain"},
			wantStatus: http.StatusBadRequest,
			wantCode:   resumecraftErrors.ErrCodeInvalidRequest,
		},
		{
			name:       "malformed JSON",
			body:       `{"jobDescription":`,
			headers:    []string{"Content-Type", "application/json"},
			wantStatus: http.StatusBadRequest,
			wantCode:   resumecraftErrors.ErrCodeInvalidRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, "/generate", tt.body, tt.headers...)
			if rec.Code != tt.wantStatus {
				t.Errorf("Expected status %d, got %d: %s", tt.wantStatus, rec.Code, rec.Body.String())
			}
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, decode[ErrorResponse](t, rec).Code)
			}
		})
	}
	assert.Empty(t, env.provider.generated, "Expected no AI call for rejected requests")
}

func TestGenerateAIFailure(t *testing.T) {
	env := newTestEnv(t, nil)
	env.provider.err = errors.New("quota exceeded")

	rec := env.do(t, http.MethodPost, "/generate", GenerateRequest{JobDescription: "jd", RoleTitle: "Analyst"})
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, resumecraftErrors.ErrCodeAIServiceFailed, decode[ErrorResponse](t, rec).Code)
	assert.Equal(t, 0, env.server.Deps.Workspaces.Len())
}

func TestImportWorkspace(t *testing.T) {
	env := newTestEnv(t, nil)

	valid, err := json.Marshal(sampleAnalysis())
	require.NoError(t, err)

	rec := env.do(t, http.MethodPost, "/workspaces", map[string]any{
		"result":         json.RawMessage(valid),
		"jobDescription": "Data Analyst",
		"template":       "minimalist",
	})
	require.Equal(t, http.StatusCreated, rec.Code, "body: %s", rec.Body.String())
	resp := decode[WorkspaceResponse](t, rec)
	assert.Equal(t, "minimalist", resp.Template)
	assert.Equal(t, 42, resp.Result.ATSScore)
	assert.Equal(t, []types.Education{}, resp.Result.TailoredResume.Education, "Expected absent sequences normalized to empty")

	rec = env.do(t, http.MethodPost, "/workspaces", map[string]any{
		"result":         json.RawMessage(`{"atsScore": 140}`),
		"jobDescription": "Data Analyst",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	errResp := decode[ErrorResponse](t, rec)
	assert.Equal(t, resumecraftErrors.ErrCodeInvalidDocument, errResp.Code)
	assert.Contains(t, errResp.Details, "schema_errors")

	rec = env.do(t, http.MethodPost, "/workspaces", map[string]any{
		"result":         json.RawMessage(`{"tailoredResume":{"jobTitle":"Analyst","contact":{"email":"","phone":""},"summary":"","workExperience":[],"education":[],"skills":[]},"atsScore":40,"atsScoreExplanation":"ok"}`),
		"jobDescription": "Data Analyst",
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status %d for a result without fullName, got %d", http.StatusBadRequest, rec.Code)
	}
	assert.Contains(t, rec.Body.String(), "fullName")

	rec = env.do(t, http.MethodGet, "/workspaces", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	listed := decode[map[string][]workspace.Summary](t, rec)
	assert.Len(t, listed["workspaces"], 1)
}

func TestSurfaceEditAndCommit(t *testing.T) {
	env := newTestEnv(t, nil)
	ws := env.generate(t)
	base := "/workspaces/" + ws.WorkspaceID + "/surfaces/preview"

	rec := env.do(t, http.MethodPatch, base+"/fields", FieldChangeRequest{Path: "summary", Value: "Edited summary"})
	require.Equal(t, http.StatusOK, rec.Code, "body: %s", rec.Body.String())
	surface := decode[SurfaceResponse](t, rec)
	assert.True(t, surface.Dirty)
	assert.Equal(t, "Edited summary", surface.Document.Summary)

	// Canonical state is untouched until commit
	rec = env.do(t, http.MethodGet, "/workspaces/"+ws.WorkspaceID, nil)
	assert.Equal(t, "Analyst of engines.", decode[WorkspaceResponse](t, rec).Result.TailoredResume.Summary)

	rec = env.do(t, http.MethodPost, base+"/commit", nil)
	require.Equal(t, http.StatusOK, rec.Code, "body: %s", rec.Body.String())
	committed := decode[WorkspaceResponse](t, rec)
	assert.Equal(t, "Edited summary", committed.Result.TailoredResume.Summary)
	assert.Equal(t, 61, committed.Result.ATSScore)
	assert.Empty(t, committed.Warning)

	rec = env.do(t, http.MethodGet, base, nil)
	assert.False(t, decode[SurfaceResponse](t, rec).Dirty)

	rec = env.do(t, http.MethodDelete, base, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestSurfaceEditAfterWorkflowCommitIsStale(t *testing.T) {
	env := newTestEnv(t, nil)
	ws := env.generate(t)
	base := "/workspaces/" + ws.WorkspaceID

	rec := env.do(t, http.MethodPatch, base+"/surfaces/preview/fields", FieldChangeRequest{Path: "summary", Value: "Draft"})
	require.Equal(t, http.StatusOK, rec.Code, "body: %s", rec.Body.String())

	rec = env.do(t, http.MethodPost, base+"/keywords", KeywordRequest{Keyword: "SQL", Section: types.SectionSkills})
	require.Equal(t, http.StatusOK, rec.Code, "body: %s", rec.Body.String())

	rec = env.do(t, http.MethodPatch, base+"/surfaces/preview/fields", FieldChangeRequest{Path: "fullName", Value: "Ada King"})
	if rec.Code != http.StatusConflict {
		t.Fatalf("Expected status %d, got %d: %s", http.StatusConflict, rec.Code, rec.Body.String())
	}
	assert.Equal(t, resumecraftErrors.ErrCodeStaleResult, decode[ErrorResponse](t, rec).Code)

	rec = env.do(t, http.MethodGet, base+"/surfaces/preview", nil)
	surface := decode[SurfaceResponse](t, rec)
	assert.False(t, surface.Dirty)
	assert.Equal(t, "Analyst of engines.", surface.Document.Summary)
	assert.Equal(t, []string{"Go", "SQL"}, surface.Document.Skills)

	rec = env.do(t, http.MethodPatch, base+"/surfaces/preview/fields", FieldChangeRequest{Path: "fullName", Value: "Ada King"})
	require.Equal(t, http.StatusOK, rec.Code, "body: %s", rec.Body.String())
	assert.True(t, decode[SurfaceResponse](t, rec).Dirty)
}

func TestSurfaceCommitWithFailedReconcile(t *testing.T) {
	env := newTestEnv(t, nil)
	ws := env.generate(t)
	base := "/workspaces/" + ws.WorkspaceID + "/surfaces/editor"

	rec := env.do(t, http.MethodPatch, base+"/fields", FieldChangeRequest{Path: "workExperience.0.company", Value: "Babbage & Co"})
	require.Equal(t, http.StatusOK, rec.Code, "body: %s", rec.Body.String())

	env.scoreErr = errors.New("scorer down")
	rec = env.do(t, http.MethodPost, base+"/commit", nil)
	require.Equal(t, http.StatusOK, rec.Code, "body: %s", rec.Body.String())
	resp := decode[WorkspaceResponse](t, rec)
	assert.NotEmpty(t, resp.Warning)
	assert.Equal(t, "Babbage & Co", resp.Result.TailoredResume.WorkExperience[0].Company)
	assert.Equal(t, 42, resp.Result.ATSScore, "Expected stale score to be kept")
}

func TestFieldChangeErrors(t *testing.T) {
	env := newTestEnv(t, nil)
	ws := env.generate(t)
	target := "/workspaces/" + ws.WorkspaceID + "/surfaces/preview/fields"

	tests := []struct {
		name       string
		body       FieldChangeRequest
		wantStatus int
	}{
		{"empty segment", FieldChangeRequest{Path: "workExperience..company", Value: "x"}, http.StatusBadRequest},
		{"unknown field", FieldChangeRequest{Path: "nickname", Value: "x"}, http.StatusBadRequest},
		{"index out of range", FieldChangeRequest{Path: "workExperience.5.company", Value: "x"}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPatch, target, tt.body)
			if rec.Code != tt.wantStatus {
				t.Errorf("Expected status %d, got %d: %s", tt.wantStatus, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestIntegrateKeywordAndFixJobTitle(t *testing.T) {
	env := newTestEnv(t, nil)
	ws := env.generate(t)
	base := "/workspaces/" + ws.WorkspaceID

	rec := env.do(t, http.MethodPost, base+"/keywords", KeywordRequest{Keyword: "SQL", Section: types.SectionSkills})
	require.Equal(t, http.StatusOK, rec.Code, "body: %s", rec.Body.String())
	resp := decode[WorkspaceResponse](t, rec)
	assert.Equal(t, []string{"Go", "SQL"}, resp.Result.TailoredResume.Skills)
	assert.Empty(t, resp.Result.KeywordGaps)
	assert.Equal(t, 62, resp.Result.ATSScore)

	rec = env.do(t, http.MethodPost, base+"/keywords", KeywordRequest{Keyword: "SQL", Section: "Hobbies"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, base+"/job-title", nil)
	require.Equal(t, http.StatusOK, rec.Code, "body: %s", rec.Body.String())
	resp = decode[WorkspaceResponse](t, rec)
	assert.Equal(t, "Data Analyst", resp.Result.TailoredResume.JobTitle)
	assert.Nil(t, resp.Result.JobTitleMismatch)

	rec = env.do(t, http.MethodPost, base+"/job-title", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, resumecraftErrors.ErrCodeNoJobTitleMismatch, decode[ErrorResponse](t, rec).Code)
}

func TestRescore(t *testing.T) {
	env := newTestEnv(t, nil)
	ws := env.generate(t)

	rec := env.do(t, http.MethodPost, "/workspaces/"+ws.WorkspaceID+"/rescore", nil)
	require.Equal(t, http.StatusOK, rec.Code, "body: %s", rec.Body.String())
	assert.Equal(t, 61, decode[WorkspaceResponse](t, rec).Result.ATSScore)
}

func TestRenderAndExport(t *testing.T) {
	env := newTestEnv(t, nil)
	ws := env.generate(t)
	base := "/workspaces/" + ws.WorkspaceID

	rec := env.do(t, http.MethodGet, base+"/render?template=elegant", nil)
	require.Equal(t, http.StatusOK, rec.Code, "body: %s", rec.Body.String())
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "Ada Lovelace")

	tests := []struct {
		query       string
		wantStatus  int
		contentType string
		contains    string
	}{
		{"", http.StatusOK, "application/json", `"fullName"`},
		{"?format=yaml", http.StatusOK, "application/yaml", "fullName: Ada Lovelace"},
		{"?format=markdown", http.StatusOK, "text/markdown; charset=utf-8", "Ada Lovelace"},
		{"?format=text", http.StatusOK, "text/plain; charset=utf-8", "Ada Lovelace"},
		{"?format=json&scope=analysis", http.StatusOK, "application/json", `"atsScore"`},
		{"?format=docx", http.StatusBadRequest, "application/json", resumecraftErrors.ErrCodeInvalidFormat},
	}

	for _, tt := range tests {
		t.Run("export"+tt.query, func(t *testing.T) {
			rec := env.do(t, http.MethodGet, base+"/export"+tt.query, nil)
			if rec.Code != tt.wantStatus {
				t.Fatalf("Expected status %d, got %d: %s", tt.wantStatus, rec.Code, rec.Body.String())
			}
			assert.Equal(t, tt.contentType, rec.Header().Get("Content-Type"))
			assert.Contains(t, rec.Body.String(), tt.contains)
		})
	}
}

func TestUnknownWorkspace(t *testing.T) {
	env := newTestEnv(t, nil)

	for _, target := range []string{"/workspaces/missing", "/workspaces/missing/render", "/workspaces/missing/export"} {
		rec := env.do(t, http.MethodGet, target, nil)
		if rec.Code != http.StatusNotFound {
			t.Errorf("Expected 404 for %s, got %d", target, rec.Code)
		}
	}

	ws := env.generate(t)
	rec := env.do(t, http.MethodDelete, "/workspaces/"+ws.WorkspaceID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = env.do(t, http.MethodDelete, "/workspaces/"+ws.WorkspaceID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestExtractImage(t *testing.T) {
	env := newTestEnv(t, nil)

	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	rec := env.do(t, http.MethodPost, "/extract/image", png)
	require.Equal(t, http.StatusOK, rec.Code, "body: %s", rec.Body.String())
	assert.Equal(t, "Senior Analyst wanted", decode[types.ExtractedText](t, rec).Text)

	rec = env.do(t, http.MethodPost, "/extract/image", "just some text")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, resumecraftErrors.ErrCodeInvalidFormat, decode[ErrorResponse](t, rec).Code)
}

func TestParseProfile(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodPost, "/profile/parse", ParseProfileRequest{Text: "Ada Lovelace, analyst"})
	require.Equal(t, http.StatusOK, rec.Code, "body: %s", rec.Body.String())
	profile := decode[types.ProfileData](t, rec)
	assert.Equal(t, "Ada Lovelace", profile.FullName)
	assert.Equal(t, []string{"Go"}, profile.Skills)
	assert.NotNil(t, profile.WorkExperience, "Expected normalized empty slices")

	rec = env.do(t, http.MethodPost, "/profile/parse", "Plain text profile", "Content-Type", "text/plain")
	require.Equal(t, http.StatusOK, rec.Code, "body: %s", rec.Body.String())

	require.Len(t, env.provider.parsed, 2)
	assert.Equal(t, "Plain text profile", env.provider.parsed[1].Text)

	rec = env.do(t, http.MethodPost, "/profile/parse", "   ", "Content-Type", "text/plain")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAuthMiddleware(t *testing.T) {
	env := newTestEnv(t, func(cfg *ServerConfig) {
		cfg.APIKeys = []string{"secret-key-123"}
	})

	tests := []struct {
		name       string
		headers    []string
		wantStatus int
	}{
		{"missing key", nil, http.StatusUnauthorized},
		{"invalid key", []string{"X-API-Key", "nope"}, http.StatusUnauthorized},
		{"header key", []string{"X-API-Key", "secret-key-123"}, http.StatusOK},
		{"bearer key", []string{"Authorization", "Bearer secret-key-123"}, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodGet, "/workspaces", nil, tt.headers...)
			if rec.Code != tt.wantStatus {
				t.Errorf("Expected status %d, got %d", tt.wantStatus, rec.Code)
			}
		})
	}

	// Health stays open
	rec := env.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	// Rotated keys take effect immediately
	env.server.APIKeys.Replace([]string{"rotated-key-456"})
	rec = env.do(t, http.MethodGet, "/workspaces", nil, "X-API-Key", "secret-key-123")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec = env.do(t, http.MethodGet, "/workspaces", nil, "X-API-Key", "rotated-key-456")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimitMiddleware(t *testing.T) {
	env := newTestEnv(t, func(cfg *ServerConfig) {
		cfg.RateLimit = &config.RateLimitConfig{
			Enabled:        true,
			RequestsPerMin: 1,
			BurstCapacity:  2,
			ByIP:           true,
		}
	})

	for i := range 2 {
		rec := env.do(t, http.MethodGet, "/workspaces", nil)
		require.Equal(t, http.StatusOK, rec.Code, "request %d", i)
	}
	rec := env.do(t, http.MethodGet, "/workspaces", nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	// Another client has its own bucket
	rec = env.do(t, http.MethodGet, "/workspaces", nil, "X-Forwarded-For", "203.0.113.9")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequestSizeLimit(t *testing.T) {
	env := newTestEnv(t, func(cfg *ServerConfig) {
		cfg.MaxRequestSize = 64
	})

	rec := env.do(t, http.MethodPost, "/generate", GenerateRequest{
		JobDescription: strings.Repeat("x", 200),
		RoleTitle:      "Analyst",
	})
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Equal(t, resumecraftErrors.ErrCodeFileTooLarge, decode[ErrorResponse](t, rec).Code)
}

func TestHealthAndStats(t *testing.T) {
	env := newTestEnv(t, nil)
	env.generate(t)

	rec := env.do(t, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code, "body: %s", rec.Body.String())
	health := decode[map[string]any](t, rec)
	assert.Equal(t, "healthy", health["status"])
	assert.Len(t, health["ai_models"], 5)
	assert.Equal(t, float64(1), health["workspaces"])

	rec = env.do(t, http.MethodGet, "/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	stats := decode[map[string]any](t, rec)
	assert.Contains(t, stats["export_formats"], "pdf")
	assert.Equal(t, map[string]any{"enabled": false}, stats["rate_limiting"])
}

func TestAccountFlow(t *testing.T) {
	env := newTestEnv(t, nil)
	creds := LoginRequest{Email: "grace@example.com", Password: "hopper-pass"}

	rec := env.do(t, http.MethodPost, "/accounts/signup", SignupRequest{
		Email:    creds.Email,
		Password: creds.Password,
		Profile:  &types.ProfileData{FullName: "Grace Hopper"},
	})
	require.Equal(t, http.StatusCreated, rec.Code, "body: %s", rec.Body.String())

	rec = env.do(t, http.MethodPost, "/accounts/signup", SignupRequest{Email: creds.Email, Password: creds.Password})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = env.do(t, http.MethodPost, "/accounts/login", creds)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodPost, "/accounts/verify", VerifyRequest{Email: creds.Email})
	require.Equal(t, http.StatusOK, rec.Code, "body: %s", rec.Body.String())

	rec = env.do(t, http.MethodPost, "/accounts/login", creds)
	require.Equal(t, http.StatusOK, rec.Code, "body: %s", rec.Body.String())
	user := decode[account.User](t, rec)
	assert.True(t, user.Verified)
	assert.Equal(t, "Grace Hopper", user.Profile.FullName)

	rec = env.do(t, http.MethodPost, "/accounts/login", LoginRequest{Email: creds.Email, Password: "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodPut, "/accounts/"+creds.Email+"/profile", types.ProfileData{FullName: "Rear Admiral Hopper"})
	require.Equal(t, http.StatusOK, rec.Code, "body: %s", rec.Body.String())

	rec = env.do(t, http.MethodPost, "/accounts/"+creds.Email+"/templates", account.TemplateRequest{
		Name: "Navy",
		Data: types.ProfileData{FullName: "Grace Hopper", RoleAppliedFor: "Officer"},
	})
	require.Equal(t, http.StatusOK, rec.Code, "body: %s", rec.Body.String())

	rec = env.do(t, http.MethodGet, "/accounts/"+creds.Email, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	user = decode[account.User](t, rec)
	assert.Equal(t, "Rear Admiral Hopper", user.Profile.FullName)
	assert.Len(t, user.Templates, 1)

	rec = env.do(t, http.MethodGet, "/accounts/nobody@example.com", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListAccounts(t *testing.T) {
	env := newTestEnv(t, nil)
	_, err := env.server.Deps.Accounts.Seed(context.Background())
	require.NoError(t, err)

	tests := []struct {
		name       string
		actor      string
		wantStatus int
		wantCode   string
	}{
		{"admin", "admin@app.com", http.StatusOK, ""},
		{"client", "client@app.com", http.StatusForbidden, resumecraftErrors.ErrCodeAdminRequired},
		{"unknown", "nobody@app.com", http.StatusNotFound, resumecraftErrors.ErrCodeAccountNotFound},
		{"anonymous", "", http.StatusBadRequest, resumecraftErrors.ErrCodeInvalidRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var headers []string
			if tt.actor != "" {
				headers = []string{"X-Account-Email", tt.actor}
			}
			rec := env.do(t, http.MethodGet, "/accounts", nil, headers...)
			if rec.Code != tt.wantStatus {
				t.Fatalf("Expected status %d, got %d: %s", tt.wantStatus, rec.Code, rec.Body.String())
			}
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, decode[ErrorResponse](t, rec).Code)
				return
			}

			listed := decode[map[string][]account.User](t, rec)
			require.Len(t, listed["accounts"], 2)
			assert.Equal(t, "admin@app.com", listed["accounts"][0].Email)
			assert.Equal(t, account.RoleAdmin, listed["accounts"][0].Role)
			assert.Equal(t, "client@app.com", listed["accounts"][1].Email)
			assert.NotContains(t, rec.Body.String(), "passwordHash")
		})
	}
}

func TestStatusForError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", resumecraftErrors.NewValidationError(resumecraftErrors.ErrCodeInvalidRequest, "bad", nil), http.StatusBadRequest},
		{"too large", resumecraftErrors.NewValidationError(resumecraftErrors.ErrCodeFileTooLarge, "big", nil), http.StatusRequestEntityTooLarge},
		{"credentials", resumecraftErrors.NewValidationError(resumecraftErrors.ErrCodeInvalidCredentials, "no", nil), http.StatusUnauthorized},
		{"unverified", resumecraftErrors.NewStateError(resumecraftErrors.ErrCodeAccountUnverified, "wait", nil), http.StatusForbidden},
		{"admin required", resumecraftErrors.NewStateError(resumecraftErrors.ErrCodeAdminRequired, "no", nil), http.StatusForbidden},
		{"not found", resumecraftErrors.NewNotFoundError(resumecraftErrors.ErrCodeWorkspaceNotFound, "gone", nil), http.StatusNotFound},
		{"conflict", resumecraftErrors.NewConflictError(resumecraftErrors.ErrCodeWorkflowBusy, "busy", nil), http.StatusConflict},
		{"state", resumecraftErrors.NewStateError(resumecraftErrors.ErrCodeNoResult, "empty", nil), http.StatusConflict},
		{"ai", resumecraftErrors.NewAIError(resumecraftErrors.ErrCodeAIServiceFailed, "down", nil), http.StatusBadGateway},
		{"network", resumecraftErrors.NewNetworkError(resumecraftErrors.ErrCodeNetworkTimeout, "slow", nil), http.StatusGatewayTimeout},
		{"plain", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := statusForError(tt.err); got != tt.want {
				t.Errorf("Expected status %d, got %d", tt.want, got)
			}
		})
	}
}

func TestMaskAPIKey(t *testing.T) {
	assert.Equal(t, "****", maskAPIKey("short"))
	assert.Equal(t, "abcdefgh****", maskAPIKey("abcdefghijkl"))
}
