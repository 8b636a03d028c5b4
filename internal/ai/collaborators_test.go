package ai

import (
	"context"
	"errors"
	"testing"

	"resumecraft/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeProvider returns canned results and records its inputs
type fakeProvider struct {
	score     types.ScoreResult
	doc       types.TailoredResumeData
	err       error
	rescored  []types.RescoreInput
	integrate []types.IntegrateKeywordInput
}

func (f *fakeProvider) GenerateAnalysis(context.Context, types.GenerateInput) (types.AnalysisResult, *TokenUsage, error) {
	return types.AnalysisResult{}, nil, errors.New("not implemented")
}

func (f *fakeProvider) RescoreResume(_ context.Context, input types.RescoreInput) (types.ScoreResult, *TokenUsage, error) {
	f.rescored = append(f.rescored, input)
	return f.score, &TokenUsage{InputTokens: 1, OutputTokens: 1, TotalTokens: 2}, f.err
}

func (f *fakeProvider) IntegrateKeyword(_ context.Context, input types.IntegrateKeywordInput) (types.TailoredResumeData, *TokenUsage, error) {
	f.integrate = append(f.integrate, input)
	return f.doc, nil, f.err
}

func (f *fakeProvider) ExtractJobDescription(context.Context, types.ImageInput) (types.ExtractedText, *TokenUsage, error) {
	return types.ExtractedText{}, nil, errors.New("not implemented")
}

func (f *fakeProvider) ParseProfile(context.Context, types.ParseProfileInput) (types.ProfileData, *TokenUsage, error) {
	return types.ProfileData{}, nil, errors.New("not implemented")
}

func (f *fakeProvider) GetModelInfo(context.Context) *ModelInfo { return &ModelInfo{Available: true} }

func (f *fakeProvider) Close() error { return nil }

func TestCollaboratorsScore(t *testing.T) {
	fake := &fakeProvider{score: types.ScoreResult{ATSScore: 81, ATSScoreExplanation: "Strong match."}}
	c := NewCollaborators(NewServiceWithProvider(fake, nil, "rescore", nil), nil, nil)

	doc := &types.TailoredResumeData{FullName: "Ada Lovelace"}
	got, err := c.Score(context.Background(), doc, "Analyst role")
	require.NoError(t, err)

	assert.Equal(t, 81, got.ATSScore)
	require.Len(t, fake.rescored, 1)
	assert.Equal(t, "Ada Lovelace", fake.rescored[0].Resume.FullName)
	assert.Equal(t, "Analyst role", fake.rescored[0].JobDescription)
}

func TestCollaboratorsScoreError(t *testing.T) {
	boom := errors.New("quota exceeded")
	fake := &fakeProvider{err: boom}
	c := NewCollaborators(NewServiceWithProvider(fake, nil, "rescore", nil), nil, nil)

	_, err := c.Score(context.Background(), &types.TailoredResumeData{}, "jd")
	assert.ErrorIs(t, err, boom)
}

func TestCollaboratorsIntegrate(t *testing.T) {
	fake := &fakeProvider{doc: types.TailoredResumeData{Skills: []string{"Go", "Kubernetes"}}}
	c := NewCollaborators(nil, NewServiceWithProvider(fake, nil, "integrate", nil), nil)

	got, err := c.Integrate(context.Background(), &types.TailoredResumeData{Skills: []string{"Go"}}, "Kubernetes", types.SectionSkills)
	require.NoError(t, err)

	assert.Equal(t, []string{"Go", "Kubernetes"}, got.Skills)
	require.Len(t, fake.integrate, 1)
	assert.Equal(t, types.SectionSkills, fake.integrate[0].Section)
}
