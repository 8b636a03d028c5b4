// Package templates projects a resume document onto the four visual
// variants and renders them as standalone HTML pages.
//
// Projection is pure. Every editable node carries the dotted field path it
// came from, so an editing surface can send changes back as path edits
// instead of keeping its own state.
package templates

import (
	"fmt"
	"strings"

	"resumecraft/internal/document"
	resumecraftErrors "resumecraft/internal/errors"
	"resumecraft/internal/types"
)

// Variant names a visual template.
type Variant string

const (
	Professional Variant = "professional"
	Creative     Variant = "creative"
	Elegant      Variant = "elegant"
	Minimalist   Variant = "minimalist"
)

// Variants lists every supported template in display order.
var Variants = []Variant{Professional, Creative, Elegant, Minimalist}

// ParseVariant validates a template name.
func ParseVariant(name string) (Variant, error) {
	v := Variant(strings.ToLower(strings.TrimSpace(name)))
	for _, known := range Variants {
		if v == known {
			return v, nil
		}
	}
	return "", resumecraftErrors.NewValidationError(resumecraftErrors.ErrCodeUnsupportedTemplate,
		fmt.Sprintf("unknown template %q", name), nil).WithContext("supported", VariantNames())
}

// VariantNames returns the template names as strings.
func VariantNames() []string {
	names := make([]string, len(Variants))
	for i, v := range Variants {
		names[i] = string(v)
	}
	return names
}

// Field is one editable text node.
type Field struct {
	Path string
	Text string
}

// Item is one entry of a section.
type Item struct {
	Title    Field
	Subtitle Field
	Meta     []Field
	Body     Field
	Bullets  []Field
}

// Section kinds
const (
	KindText    = "text"
	KindEntries = "entries"
	KindTags    = "tags"
)

// Section is a titled group of items.
type Section struct {
	ID    string
	Title string
	Kind  string
	Items []Item
}

// Header is the name block.
type Header struct {
	Name    Field
	Title   Field
	Contact []Field
	Picture string
}

// Theme carries the visual differences between variants.
type Theme struct {
	Accent      string
	Font        string
	Centered    bool
	ShowPicture bool
}

// Layout is the projection of a document onto one variant.
type Layout struct {
	Variant Variant
	Theme   Theme
	Header  Header
	Main    []Section
	Sidebar []Section
}

type variantLayout struct {
	theme   Theme
	main    []string
	sidebar []string
}

var layouts = map[Variant]variantLayout{
	Professional: {
		theme: Theme{Accent: "#0f766e", Font: "'Helvetica Neue', Arial, sans-serif", ShowPicture: true},
		main:  []string{"summary", "workExperience", "projects", "additionalExperience", "education", "skills", "certifications", "references", "additionalInfo"},
	},
	Creative: {
		theme:   Theme{Accent: "#7c3aed", Font: "'Trebuchet MS', Verdana, sans-serif", ShowPicture: true},
		main:    []string{"summary", "workExperience", "projects", "additionalExperience", "references", "additionalInfo"},
		sidebar: []string{"skills", "education", "certifications"},
	},
	Elegant: {
		theme: Theme{Accent: "#92400e", Font: "Georgia, 'Times New Roman', serif", Centered: true},
		main:  []string{"summary", "workExperience", "education", "projects", "additionalExperience", "skills", "certifications", "references", "additionalInfo"},
	},
	Minimalist: {
		theme: Theme{Accent: "#111827", Font: "Inter, 'Segoe UI', sans-serif", Centered: true},
		main:  []string{"summary", "workExperience", "education", "skills", "projects", "additionalExperience", "certifications", "references", "additionalInfo"},
	},
}

var sectionTitles = map[string]string{
	"summary":              "Summary",
	"workExperience":       "Work Experience",
	"education":            "Education",
	"skills":               "Skills",
	"certifications":       "Certifications",
	"references":           "References",
	"projects":             "Projects",
	"additionalExperience": "Additional Experience",
	"additionalInfo":       "Additional Information",
}

// Project maps doc onto variant. doc is only read. Sections whose sequence
// is empty are left out.
func Project(variant Variant, doc *types.TailoredResumeData, profilePicture string) (Layout, error) {
	vl, ok := layouts[variant]
	if !ok {
		_, err := ParseVariant(string(variant))
		return Layout{}, err
	}
	d := document.Normalize(doc)

	layout := Layout{
		Variant: variant,
		Theme:   vl.theme,
		Header:  projectHeader(d),
	}
	if vl.theme.ShowPicture {
		layout.Header.Picture = profilePicture
	}
	for _, id := range vl.main {
		if s, ok := projectSection(id, d); ok {
			layout.Main = append(layout.Main, s)
		}
	}
	for _, id := range vl.sidebar {
		if s, ok := projectSection(id, d); ok {
			layout.Sidebar = append(layout.Sidebar, s)
		}
	}
	return layout, nil
}

func field(text string, path ...any) Field {
	return Field{Path: document.Path(path).String(), Text: text}
}

func projectHeader(d *types.TailoredResumeData) Header {
	contact := []Field{
		field(d.Contact.Email, "contact", "email"),
		field(d.Contact.Phone, "contact", "phone"),
		field(d.Contact.Website, "contact", "website"),
		field(d.Contact.Address, "contact", "address"),
		field(d.Contact.LinkedInURL, "contact", "linkedinUrl"),
	}
	nonEmpty := contact[:0]
	for _, c := range contact {
		if strings.TrimSpace(c.Text) != "" {
			nonEmpty = append(nonEmpty, c)
		}
	}

	return Header{
		Name:    field(d.FullName, "fullName"),
		Title:   field(d.JobTitle, "jobTitle"),
		Contact: nonEmpty,
	}
}

func projectSection(id string, d *types.TailoredResumeData) (Section, bool) {
	s := Section{ID: id, Title: sectionTitles[id], Kind: KindEntries}

	switch id {
	case "summary":
		s.Kind = KindText
		s.Items = []Item{{Body: field(d.Summary, "summary")}}
		return s, true

	case "workExperience":
		for i, w := range d.WorkExperience {
			item := Item{
				Title:    field(w.JobTitle, id, i, "jobTitle"),
				Subtitle: field(w.Company, id, i, "company"),
				Meta:     []Field{field(w.StartDate, id, i, "startDate"), field(w.EndDate, id, i, "endDate")},
			}
			for j, r := range w.Responsibilities {
				item.Bullets = append(item.Bullets, field(r, id, i, "responsibilities", j))
			}
			s.Items = append(s.Items, item)
		}

	case "education":
		for i, e := range d.Education {
			item := Item{
				Title:    field(e.Degree, id, i, "degree"),
				Subtitle: field(e.Institution, id, i, "institution"),
				Meta:     []Field{field(e.GraduationDate, id, i, "graduationDate")},
			}
			if e.FieldOfStudy != "" {
				item.Body = field(e.FieldOfStudy, id, i, "fieldOfStudy")
			}
			s.Items = append(s.Items, item)
		}

	case "skills":
		s.Kind = KindTags
		for i, skill := range d.Skills {
			s.Items = append(s.Items, Item{Title: field(skill, id, i)})
		}

	case "certifications":
		for i, c := range d.Certifications {
			s.Items = append(s.Items, Item{
				Title:    field(c.Name, id, i, "name"),
				Subtitle: field(c.IssuingOrganization, id, i, "issuingOrganization"),
				Meta:     []Field{field(c.Date, id, i, "date")},
			})
		}

	case "references":
		for i, r := range d.References {
			s.Items = append(s.Items, Item{
				Title:    field(r.Name, id, i, "name"),
				Subtitle: field(r.Title, id, i, "title"),
				Meta: []Field{
					field(r.Company, id, i, "company"),
					field(r.Phone, id, i, "phone"),
					field(r.Email, id, i, "email"),
				},
			})
		}

	case "projects", "additionalExperience":
		entries := d.Projects
		if id == "additionalExperience" {
			entries = d.AdditionalExperience
		}
		for i, p := range entries {
			s.Items = append(s.Items, Item{
				Title: field(p.Title, id, i, "title"),
				Meta:  []Field{field(p.Date, id, i, "date")},
				Body:  field(p.Description, id, i, "description"),
			})
		}

	case "additionalInfo":
		for i, a := range d.AdditionalInfo {
			s.Items = append(s.Items, Item{
				Title: field(a.Title, id, i, "title"),
				Body:  field(a.Details, id, i, "details"),
			})
		}
	}

	return s, len(s.Items) > 0
}
