package common

import (
	"fmt"
	"io"
	"os"

	"resumecraft/internal/errors"
	"resumecraft/internal/formatters"
	"resumecraft/internal/ingest"
)

// CommandConfig holds the output flags shared by every command
type CommandConfig struct {
	OutputFile   string
	OutputFormat string
}

// OutputHandler handles formatting and writing output
type OutputHandler struct {
	registry *formatters.FormatterRegistry
	stdout   io.Writer
	logger   *errors.Logger
}

// NewOutputHandler creates an output handler writing to stdout
func NewOutputHandler(logger *errors.Logger) *OutputHandler {
	return NewOutputHandlerWithWriter(os.Stdout, logger)
}

// NewOutputHandlerWithWriter creates an output handler writing to w when no
// output file is set
func NewOutputHandlerWithWriter(w io.Writer, logger *errors.Logger) *OutputHandler {
	if logger == nil {
		logger = errors.NewNopLogger()
	}
	return &OutputHandler{
		registry: formatters.GlobalRegistry,
		stdout:   w,
		logger:   logger,
	}
}

// HandleOutput formats data and writes it to the specified output
func (oh *OutputHandler) HandleOutput(data any, config CommandConfig) error {
	output, err := oh.registry.Format(data, config.OutputFormat)
	if err != nil {
		return errors.NewValidationError(errors.ErrCodeInvalidFormat,
			fmt.Sprintf("Failed to format output as %s", config.OutputFormat), err)
	}
	return oh.WriteBytes([]byte(output), config)
}

// WriteBytes writes already rendered content such as HTML or PDF
func (oh *OutputHandler) WriteBytes(content []byte, config CommandConfig) error {
	if config.OutputFile == "" {
		if _, err := oh.stdout.Write(content); err != nil {
			return errors.NewIOError("STDOUT_WRITE_FAILED", "Cannot write output", err)
		}
		return nil
	}

	if err := ingest.WriteFile(config.OutputFile, content); err != nil {
		return err
	}
	oh.logger.Info("Output written successfully",
		"file", config.OutputFile,
		"format", config.OutputFormat,
		"size", ingest.FormatFileSize(int64(len(content))))
	return nil
}

// GetSupportedFormats returns all supported output formats
func (oh *OutputHandler) GetSupportedFormats() []string {
	return oh.registry.GetSupportedFormats()
}
