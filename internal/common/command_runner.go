package common

import (
	"context"

	"resumecraft/internal/ai"
	"resumecraft/internal/errors"

	"golang.org/x/sync/errgroup"
)

// InputLoader loads one command argument into the caller's variables.
type InputLoader func(ctx context.Context) error

// LoadInputs runs the loaders concurrently. The first failure cancels the
// context handed to the others and is returned.
func LoadInputs(ctx context.Context, loaders ...InputLoader) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, load := range loaders {
		g.Go(func() error { return load(gctx) })
	}
	return g.Wait()
}

// AIOperationFunc is a generic function signature for any AI operation with context and token usage.
type AIOperationFunc[Input, Output any] func(context.Context, Input) (Output, *ai.TokenUsage, error)

// RunAIOperation runs one AI call and reports its token usage.
func RunAIOperation[Input, Output any](
	ctx context.Context,
	logger *errors.Logger,
	operation string,
	input Input,
	aiOperation AIOperationFunc[Input, Output],
) (Output, error) {
	if logger == nil {
		logger = errors.NewNopLogger()
	}

	result, tokenUsage, err := aiOperation(ctx, input)
	if err != nil {
		var zero Output
		return zero, err
	}

	if tokenUsage != nil {
		logger.Info("AI token usage",
			"operation", operation,
			"input_tokens", tokenUsage.InputTokens,
			"output_tokens", tokenUsage.OutputTokens,
			"total_tokens", tokenUsage.TotalTokens)
	}
	return result, nil
}
