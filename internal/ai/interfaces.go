package ai

import (
	"context"

	"resumecraft/internal/types"
)

// AIProvider is implemented by every model backend. All methods return
// token usage, which callers may ignore.
type AIProvider interface {
	GenerateAnalysis(ctx context.Context, input types.GenerateInput) (types.AnalysisResult, *TokenUsage, error)
	RescoreResume(ctx context.Context, input types.RescoreInput) (types.ScoreResult, *TokenUsage, error)
	IntegrateKeyword(ctx context.Context, input types.IntegrateKeywordInput) (types.TailoredResumeData, *TokenUsage, error)
	ExtractJobDescription(ctx context.Context, input types.ImageInput) (types.ExtractedText, *TokenUsage, error)
	ParseProfile(ctx context.Context, input types.ParseProfileInput) (types.ProfileData, *TokenUsage, error)
	GetModelInfo(ctx context.Context) *ModelInfo
	Close() error
}

// ModelInfo represents information about the AI model
type ModelInfo struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName,omitempty"`
	Version     string `json:"version,omitempty"`
	Available   bool   `json:"available"`
	Error       string `json:"error,omitempty"`
}

// TokenUsage represents token usage information from AI responses
type TokenUsage struct {
	InputTokens  int64
	OutputTokens int64
	TotalTokens  int64
}
