package ingest

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strings"

	resumecraftErrors "resumecraft/internal/errors"
)

// Kind classifies an input file by content.
type Kind string

const (
	KindText  Kind = "text"
	KindJSON  Kind = "json"
	KindPDF   Kind = "pdf"
	KindImage Kind = "image"
)

var textExtensions = []string{".txt", ".md", ".markdown", ".text"}

// Loader reads user supplied files with a size ceiling.
type Loader struct {
	maxFileSize int64
	logger      *resumecraftErrors.Logger
}

// NewLoader creates a Loader. A maxFileSize of zero disables the limit.
func NewLoader(maxFileSize int64, logger *resumecraftErrors.Logger) *Loader {
	if logger == nil {
		logger = resumecraftErrors.NewNopLogger()
	}
	return &Loader{maxFileSize: maxFileSize, logger: logger}
}

// ReadFile validates filename and returns its bytes.
func (l *Loader) ReadFile(filename string) ([]byte, error) {
	if filename == "" {
		return nil, resumecraftErrors.NewValidationError(resumecraftErrors.ErrCodeInvalidRequest,
			"filename cannot be empty", nil)
	}

	info, err := os.Stat(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, resumecraftErrors.NewIOError(resumecraftErrors.ErrCodeFileNotFound,
				fmt.Sprintf("File not found: %s", filename), err)
		}
		return nil, resumecraftErrors.NewIOError(resumecraftErrors.ErrCodeFileNotReadable,
			fmt.Sprintf("Cannot access file: %s", filename), err)
	}
	if info.IsDir() {
		return nil, resumecraftErrors.NewValidationError(resumecraftErrors.ErrCodeInvalidRequest,
			fmt.Sprintf("Path is a directory, not a file: %s", filename), nil)
	}
	if err := l.CheckSize(info.Size()); err != nil {
		return nil, err
	}

	file, err := os.Open(filename)
	if err != nil {
		return nil, resumecraftErrors.NewIOError(resumecraftErrors.ErrCodeFileNotReadable,
			fmt.Sprintf("Cannot read file: %s", filename), err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			l.logger.Warn("Failed to close file", "filename", filename, "error", err)
		}
	}()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, resumecraftErrors.NewIOError(resumecraftErrors.ErrCodeFileNotReadable,
			fmt.Sprintf("Failed to read file content: %s", filename), err)
	}
	return data, nil
}

// ReadText reads a text file. Other extensions are accepted with a warning.
func (l *Loader) ReadText(filename string) (string, error) {
	if ext := strings.ToLower(filepath.Ext(filename)); ext != ".json" && !slices.Contains(textExtensions, ext) {
		l.logger.Warn("File may not be a text file", "filename", filename)
	}
	data, err := l.ReadFile(filename)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// CheckSize rejects payloads above the configured limit.
func (l *Loader) CheckSize(size int64) error {
	if l.maxFileSize > 0 && size > l.maxFileSize {
		return resumecraftErrors.NewValidationError(resumecraftErrors.ErrCodeFileTooLarge,
			fmt.Sprintf("File is %s, the limit is %s", FormatFileSize(size), FormatFileSize(l.maxFileSize)), nil)
	}
	return nil
}

// MaxFileSize returns the configured limit in bytes.
func (l *Loader) MaxFileSize() int64 {
	return l.maxFileSize
}

// Detect classifies data, using the file name only to tell JSON from text.
func Detect(filename string, data []byte) Kind {
	if IsPDF(data) {
		return KindPDF
	}
	if strings.HasPrefix(http.DetectContentType(data), "image/") {
		return KindImage
	}
	if strings.EqualFold(filepath.Ext(filename), ".json") {
		return KindJSON
	}
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "{") {
		return KindJSON
	}
	return KindText
}

// WriteFile writes content, creating parent directories.
func WriteFile(filename string, content []byte) error {
	dir := filepath.Dir(filename)
	if dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return resumecraftErrors.NewIOError("DIRECTORY_CREATE_FAILED",
				fmt.Sprintf("Cannot create directory: %s", dir), err)
		}
	}

	if err := os.WriteFile(filename, content, 0600); err != nil {
		return resumecraftErrors.NewIOError("FILE_WRITE_FAILED",
			fmt.Sprintf("Cannot write file: %s", filename), err)
	}
	return nil
}

// FormatFileSize returns a human-readable file size
func FormatFileSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(size)/float64(div), "KMGTPE"[exp])
}
