package cli

import (
	"context"

	"resumecraft/internal/config"
	"resumecraft/internal/errors"

	"github.com/spf13/cobra"
)

// Define custom private types for context keys.
type configKeyType struct{}
type loggerKeyType struct{}

// Use variables of these types as the keys.
var configKey = configKeyType{}
var loggerKey = loggerKeyType{}

var rootCmd = &cobra.Command{
	Use:   "resumecraft",
	Short: "Generate, score and edit tailored resumes with AI",
	Long: `Resumecraft turns a profile and a job description into a tailored resume
with an ATS score, keyword gaps and a job title check. Results can be
rescored, edited field by field, rendered in one of four templates and
exported as text, markdown, yaml, json or pdf.

Run 'resumecraft serve' to expose the same operations over HTTP.`,
	SilenceUsage: true,
}

func Execute(ctx context.Context, cfg *config.Config, logger *errors.Logger) error {
	// Attach the config and logger to the context, making them available to all subcommands
	ctx = context.WithValue(ctx, configKey, cfg)
	ctx = context.WithValue(ctx, loggerKey, logger)
	rootCmd.SetContext(ctx)
	return rootCmd.Execute()
}

// getConfigFromContext is a helper function to get config from context
func getConfigFromContext(ctx context.Context) *config.Config {
	if cfg, ok := ctx.Value(configKey).(*config.Config); ok {
		return cfg
	}
	panic("config not found in context") // Should not happen if properly initialized
}

// getLoggerFromContext is a helper function to get logger from context
func getLoggerFromContext(ctx context.Context) *errors.Logger {
	if logger, ok := ctx.Value(loggerKey).(*errors.Logger); ok {
		return logger
	}
	panic("logger not found in context") // Should not happen if properly initialized
}

func init() {
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(rescoreCmd)
	rootCmd.AddCommand(integrateCmd)
	rootCmd.AddCommand(fixTitleCmd)
	rootCmd.AddCommand(editCmd)
	rootCmd.AddCommand(extractImageCmd)
	rootCmd.AddCommand(importProfileCmd)
	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(accountsCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}
