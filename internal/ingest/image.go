package ingest

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"

	resumecraftErrors "resumecraft/internal/errors"
	"resumecraft/internal/types"
)

// DetectImage sniffs data and returns it as model input. Only image MIME
// types are accepted.
func DetectImage(data []byte) (types.ImageInput, error) {
	if len(data) == 0 {
		return types.ImageInput{}, resumecraftErrors.NewValidationError(resumecraftErrors.ErrCodeInvalidRequest,
			"image is empty", nil)
	}

	mimeType := http.DetectContentType(data)
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = mimeType[:i]
	}
	if !strings.HasPrefix(mimeType, "image/") {
		return types.ImageInput{}, resumecraftErrors.NewValidationError(resumecraftErrors.ErrCodeInvalidFormat,
			fmt.Sprintf("unsupported image type %q", mimeType), nil)
	}
	return types.ImageInput{Data: data, MIMEType: mimeType}, nil
}

// LoadImage reads an image file for job description extraction.
func (l *Loader) LoadImage(filename string) (types.ImageInput, error) {
	data, err := l.ReadFile(filename)
	if err != nil {
		return types.ImageInput{}, err
	}
	img, err := DetectImage(data)
	if err != nil {
		return types.ImageInput{}, fmt.Errorf("loading %s: %w", filename, err)
	}
	l.logger.Debug("Loaded image", "filename", filename, "mime_type", img.MIMEType, "size", FormatFileSize(int64(len(data))))
	return img, nil
}

// LoadPicture turns a profile picture reference into a data URL. Data URLs
// and http(s) URLs pass through unchanged, anything else is read as a file.
func (l *Loader) LoadPicture(ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" || strings.HasPrefix(ref, "data:") ||
		strings.HasPrefix(ref, "https://") || strings.HasPrefix(ref, "http://") {
		return ref, nil
	}

	img, err := l.LoadImage(ref)
	if err != nil {
		return "", err
	}
	return "data:" + img.MIMEType + ";base64," + base64.StdEncoding.EncodeToString(img.Data), nil
}
