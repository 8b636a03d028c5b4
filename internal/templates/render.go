package templates

import (
	"bytes"
	"embed"
	"html/template"
	"strings"

	resumecraftErrors "resumecraft/internal/errors"
	"resumecraft/internal/types"
)

//go:embed html/*.tmpl
var templateFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templateFS, "html/*.tmpl"))

type themeView struct {
	Accent   template.CSS
	Font     template.CSS
	Centered bool
}

type pageView struct {
	Variant Variant
	Theme   themeView
	Header  Header
	Picture template.URL
	Main    []Section
	Sidebar []Section
}

// Render produces a standalone HTML page for layout.
func Render(layout Layout) (string, error) {
	view := pageView{
		Variant: layout.Variant,
		Theme: themeView{
			Accent:   template.CSS(layout.Theme.Accent),
			Font:     template.CSS(layout.Theme.Font),
			Centered: layout.Theme.Centered,
		},
		Header:  layout.Header,
		Picture: safePicture(layout.Header.Picture),
		Main:    layout.Main,
		Sidebar: layout.Sidebar,
	}

	var buf bytes.Buffer
	if err := pageTemplate.ExecuteTemplate(&buf, "page", view); err != nil {
		return "", resumecraftErrors.NewInternalError(resumecraftErrors.ErrCodeExportFailed,
			"failed to render template", err).WithContext("template", string(layout.Variant))
	}
	return buf.String(), nil
}

// RenderDocument projects and renders doc in one step.
func RenderDocument(variant Variant, doc *types.TailoredResumeData, profilePicture string) (string, error) {
	layout, err := Project(variant, doc, profilePicture)
	if err != nil {
		return "", err
	}
	return Render(layout)
}

// safePicture accepts inline image data URLs and http(s) URLs only.
func safePicture(src string) template.URL {
	switch {
	case strings.HasPrefix(src, "data:image/"),
		strings.HasPrefix(src, "https://"),
		strings.HasPrefix(src, "http://"):
		return template.URL(src)
	default:
		return ""
	}
}
