package ingest

import (
	"bytes"
	"fmt"
	"strings"

	resumecraftErrors "resumecraft/internal/errors"

	"github.com/ledongthuc/pdf"
)

var pdfMagic = []byte("%PDF")

// IsPDF reports whether data starts with the PDF header.
func IsPDF(data []byte) bool {
	return bytes.HasPrefix(data, pdfMagic)
}

// ExtractPDFText returns the plain text of every page, pages separated by a
// blank line. Pages that fail to decode are skipped.
func ExtractPDFText(data []byte) (text string, err error) {
	if !IsPDF(data) {
		return "", resumecraftErrors.NewValidationError(resumecraftErrors.ErrCodeInvalidFormat,
			"input is not a PDF document", nil)
	}

	// the pdf reader panics on some malformed cross-reference tables
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = resumecraftErrors.NewValidationError(resumecraftErrors.ErrCodeExtractionFailed,
				"PDF document is malformed", fmt.Errorf("%v", r))
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", resumecraftErrors.NewValidationError(resumecraftErrors.ErrCodeExtractionFailed,
			"failed to open PDF document", err)
	}

	var sb strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		pageText = strings.TrimSpace(pageText)
		if pageText == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(pageText)
	}

	if sb.Len() == 0 {
		return "", resumecraftErrors.NewValidationError(resumecraftErrors.ErrCodeExtractionFailed,
			"no text found in PDF, it may be a scanned image", nil)
	}
	return sb.String(), nil
}
