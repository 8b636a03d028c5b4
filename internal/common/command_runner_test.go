package common

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"resumecraft/internal/ai"
	resumecraftErrors "resumecraft/internal/errors"
	"resumecraft/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadInputs(t *testing.T) {
	var profile, job string
	err := LoadInputs(context.Background(),
		func(context.Context) error { profile = "profile"; return nil },
		func(context.Context) error { job = "job"; return nil },
	)
	require.NoError(t, err)
	assert.Equal(t, "profile", profile)
	assert.Equal(t, "job", job)
}

func TestLoadInputsCancelsOnFailure(t *testing.T) {
	boom := errors.New("file not found")
	var cancelled atomic.Bool

	err := LoadInputs(context.Background(),
		func(context.Context) error { return boom },
		func(ctx context.Context) error {
			<-ctx.Done()
			cancelled.Store(true)
			return ctx.Err()
		},
	)
	assert.ErrorIs(t, err, boom)
	assert.True(t, cancelled.Load(), "Expected sibling loader to see cancellation")
}

func TestRunAIOperation(t *testing.T) {
	var logs bytes.Buffer
	logger := resumecraftErrors.NewLoggerWithWriter(&logs, slog.LevelInfo)

	op := func(_ context.Context, in types.RescoreInput) (types.ScoreResult, *ai.TokenUsage, error) {
		return types.ScoreResult{ATSScore: len(in.JobDescription)}, &ai.TokenUsage{InputTokens: 3, OutputTokens: 4, TotalTokens: 7}, nil
	}

	got, err := RunAIOperation(context.Background(), logger, "rescore", types.RescoreInput{JobDescription: "12345"}, op)
	require.NoError(t, err)
	assert.Equal(t, 5, got.ATSScore)
	assert.Contains(t, logs.String(), "AI token usage")
	assert.Contains(t, logs.String(), `"total_tokens":7`)

	failing := func(context.Context, types.RescoreInput) (types.ScoreResult, *ai.TokenUsage, error) {
		return types.ScoreResult{ATSScore: 99}, nil, errors.New("quota")
	}
	got, err = RunAIOperation(context.Background(), nil, "rescore", types.RescoreInput{}, failing)
	assert.Error(t, err)
	assert.Zero(t, got.ATSScore, "Expected zero result on error")
}

func TestOutputHandler(t *testing.T) {
	var stdout bytes.Buffer
	oh := NewOutputHandlerWithWriter(&stdout, nil)

	score := types.ScoreResult{ATSScore: 80, ATSScoreExplanation: "Strong"}
	require.NoError(t, oh.HandleOutput(score, CommandConfig{OutputFormat: "json"}))
	assert.Contains(t, stdout.String(), `"atsScore": 80`)

	err := oh.HandleOutput(score, CommandConfig{OutputFormat: "xml"})
	assert.Equal(t, resumecraftErrors.ErrorTypeValidation, resumecraftErrors.TypeOf(err))

	out := filepath.Join(t.TempDir(), "nested", "resume.html")
	require.NoError(t, oh.WriteBytes([]byte("<html></html>"), CommandConfig{OutputFile: out, OutputFormat: "html"}))
	written, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "<html></html>", string(written))
}
