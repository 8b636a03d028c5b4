package ingest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	resumecraftErrors "resumecraft/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// smallest valid PNG: 1x1 transparent pixel
var pngPixel = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a, 0x00, 0x00, 0x00, 0x0d,
	0x49, 0x48, 0x44, 0x52, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0x15, 0xc4, 0x89, 0x00, 0x00, 0x00,
	0x0a, 0x49, 0x44, 0x41, 0x54, 0x78, 0x9c, 0x63, 0x00, 0x01, 0x00, 0x00,
	0x05, 0x00, 0x01, 0x0d, 0x0a, 0x2d, 0xb4, 0x00, 0x00, 0x00, 0x00, 0x49,
	0x45, 0x4e, 0x44, 0xae, 0x42, 0x60, 0x82,
}

func writeTemp(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0600))
	return path
}

func TestLoader_ReadFile(t *testing.T) {
	loader := NewLoader(16, nil)

	tests := []struct {
		name     string
		path     func(t *testing.T) string
		wantCode string
	}{
		{"empty name", func(*testing.T) string { return "" }, resumecraftErrors.ErrCodeInvalidRequest},
		{"missing file", func(t *testing.T) string { return filepath.Join(t.TempDir(), "nope.txt") }, resumecraftErrors.ErrCodeFileNotFound},
		{"directory", func(t *testing.T) string { return t.TempDir() }, resumecraftErrors.ErrCodeInvalidRequest},
		{"too large", func(t *testing.T) string { return writeTemp(t, "big.txt", []byte(strings.Repeat("x", 17))) }, resumecraftErrors.ErrCodeFileTooLarge},
		{"ok", func(t *testing.T) string { return writeTemp(t, "job.txt", []byte("Go developer")) }, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := loader.ReadFile(tt.path(t))
			if tt.wantCode == "" {
				require.NoError(t, err)
				assert.Equal(t, "Go developer", string(data))
				return
			}
			appErr, ok := resumecraftErrors.AsAppError(err)
			require.True(t, ok, "Expected AppError, got %v", err)
			if appErr.Code != tt.wantCode {
				t.Errorf("Expected code %s, got %s", tt.wantCode, appErr.Code)
			}
		})
	}
}

func TestDetect(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		data     []byte
		want     Kind
	}{
		{"pdf", "profile.pdf", []byte("%PDF-1.7\n..."), KindPDF},
		{"png", "job.png", pngPixel, KindImage},
		{"json by extension", "analysis.json", []byte(`[]`), KindJSON},
		{"json by content", "analysis", []byte("  {\"atsScore\": 1}"), KindJSON},
		{"text", "job.txt", []byte("We are hiring"), KindText},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Detect(tt.filename, tt.data); got != tt.want {
				t.Errorf("Expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestDetectImage(t *testing.T) {
	img, err := DetectImage(pngPixel)
	require.NoError(t, err)
	assert.Equal(t, "image/png", img.MIMEType)

	_, err = DetectImage(nil)
	assert.Equal(t, resumecraftErrors.ErrorTypeValidation, resumecraftErrors.TypeOf(err))

	_, err = DetectImage([]byte("plain words, not pixels"))
	appErr, ok := resumecraftErrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, resumecraftErrors.ErrCodeInvalidFormat, appErr.Code)
}

func TestLoadPicture(t *testing.T) {
	loader := NewLoader(0, nil)

	for _, ref := range []string{"", "data:image/png;base64,AAAA", "https://example.com/me.png"} {
		got, err := loader.LoadPicture(ref)
		require.NoError(t, err)
		assert.Equal(t, ref, got)
	}

	got, err := loader.LoadPicture(writeTemp(t, "me.png", pngPixel))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(got, "data:image/png;base64,"), "Expected data URL, got %q", got)
}

func TestExtractPDFText_RejectsNonPDF(t *testing.T) {
	_, err := ExtractPDFText([]byte("hello"))
	appErr, ok := resumecraftErrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, resumecraftErrors.ErrCodeInvalidFormat, appErr.Code)

	_, err = ExtractPDFText([]byte("%PDF-1.4 truncated"))
	appErr, ok = resumecraftErrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, resumecraftErrors.ErrCodeExtractionFailed, appErr.Code)
}

func TestFormatFileSize(t *testing.T) {
	tests := []struct {
		size int64
		want string
	}{
		{512, "512 B"},
		{1024, "1.0 KB"},
		{5 * 1024 * 1024, "5.0 MB"},
	}
	for _, tt := range tests {
		if got := FormatFileSize(tt.size); got != tt.want {
			t.Errorf("Expected %s, got %s", tt.want, got)
		}
	}
}

func TestWriteFile_CreatesDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "nested", "resume.txt")
	require.NoError(t, WriteFile(path, []byte("done")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "done", string(data))
}
