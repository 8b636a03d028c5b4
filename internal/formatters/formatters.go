package formatters

import (
	"encoding/json"
	"fmt"
	"sort"

	"resumecraft/internal/types"

	"gopkg.in/yaml.v3"
)

// Formatter interface for different output formats
type Formatter interface {
	Format(data any) (string, error)
	SupportedType() string
}

// Data type names used as registry keys
const (
	TypeAnalysisResult = "AnalysisResult"
	TypeTailoredResume = "TailoredResumeData"
	TypeScoreResult    = "ScoreResult"
	TypeProfile        = "ProfileData"
	TypeExtractedText  = "ExtractedText"
	TypeAny            = "any"
)

// FormatterRegistry manages all available formatters
type FormatterRegistry struct {
	formatters map[string]map[string]Formatter // format -> type -> formatter
}

// NewFormatterRegistry creates a new formatter registry with default formatters
func NewFormatterRegistry() *FormatterRegistry {
	registry := &FormatterRegistry{
		formatters: make(map[string]map[string]Formatter),
	}

	registry.RegisterFormatter("json", TypeAny, &JSONFormatter{})
	registry.RegisterFormatter("yaml", TypeAny, &YAMLFormatter{})

	registry.RegisterFormatter("text", TypeAnalysisResult, &AnalysisTextFormatter{})
	registry.RegisterFormatter("markdown", TypeAnalysisResult, &AnalysisMarkdownFormatter{})
	registry.RegisterFormatter("text", TypeTailoredResume, &ResumeTextFormatter{})
	registry.RegisterFormatter("markdown", TypeTailoredResume, &ResumeMarkdownFormatter{})
	registry.RegisterFormatter("text", TypeScoreResult, &ScoreTextFormatter{})
	registry.RegisterFormatter("markdown", TypeScoreResult, &ScoreMarkdownFormatter{})
	registry.RegisterFormatter("text", TypeProfile, &ProfileTextFormatter{})
	registry.RegisterFormatter("markdown", TypeProfile, &ProfileMarkdownFormatter{})
	registry.RegisterFormatter("text", TypeExtractedText, &ExtractedTextFormatter{})
	registry.RegisterFormatter("markdown", TypeExtractedText, &ExtractedTextFormatter{})

	return registry
}

// RegisterFormatter registers a new formatter for a specific format and data type
func (fr *FormatterRegistry) RegisterFormatter(format, dataType string, formatter Formatter) {
	if fr.formatters[format] == nil {
		fr.formatters[format] = make(map[string]Formatter)
	}
	fr.formatters[format][dataType] = formatter
}

// Format formats data using the appropriate formatter
func (fr *FormatterRegistry) Format(data any, format string) (string, error) {
	data = deref(data)
	dataType := getDataType(data)

	if formatters, exists := fr.formatters[format]; exists {
		if formatter, exists := formatters[dataType]; exists {
			return formatter.Format(data)
		}
		if formatter, exists := formatters[TypeAny]; exists {
			return formatter.Format(data)
		}
	}

	return "", fmt.Errorf("no formatter found for format '%s' and type '%s'", format, dataType)
}

// GetSupportedFormats returns all supported formats, sorted
func (fr *FormatterRegistry) GetSupportedFormats() []string {
	formats := make([]string, 0, len(fr.formatters))
	for format := range fr.formatters {
		formats = append(formats, format)
	}
	sort.Strings(formats)
	return formats
}

// deref lets callers pass pointers to the known result types.
func deref(data any) any {
	switch v := data.(type) {
	case *types.AnalysisResult:
		if v != nil {
			return *v
		}
	case *types.TailoredResumeData:
		if v != nil {
			return *v
		}
	case *types.ScoreResult:
		if v != nil {
			return *v
		}
	case *types.ProfileData:
		if v != nil {
			return *v
		}
	case *types.ExtractedText:
		if v != nil {
			return *v
		}
	}
	return data
}

func getDataType(data any) string {
	switch data.(type) {
	case types.AnalysisResult:
		return TypeAnalysisResult
	case types.TailoredResumeData:
		return TypeTailoredResume
	case types.ScoreResult:
		return TypeScoreResult
	case types.ProfileData:
		return TypeProfile
	case types.ExtractedText:
		return TypeExtractedText
	default:
		return TypeAny
	}
}

// JSONFormatter handles JSON formatting for any data type
type JSONFormatter struct{}

func (jf *JSONFormatter) Format(data any) (string, error) {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", err
	}
	return string(jsonData), nil
}

func (jf *JSONFormatter) SupportedType() string {
	return TypeAny
}

// YAMLFormatter renders any value as block YAML. Keys keep their JSON names
// and order.
type YAMLFormatter struct{}

func (yf *YAMLFormatter) Format(data any) (string, error) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return "", err
	}

	// JSON is valid YAML, so decoding into a node keeps key order
	var node yaml.Node
	if err := yaml.Unmarshal(jsonData, &node); err != nil {
		return "", err
	}
	blockStyle(&node)

	out, err := yaml.Marshal(&node)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func (yf *YAMLFormatter) SupportedType() string {
	return TypeAny
}

// blockStyle drops the flow style inherited from JSON. Empty collections
// stay in flow style so they render as [] and {}.
func blockStyle(n *yaml.Node) {
	switch n.Kind {
	case yaml.SequenceNode, yaml.MappingNode:
		if len(n.Content) > 0 {
			n.Style = 0
		}
	case yaml.ScalarNode:
		if n.Style == yaml.DoubleQuotedStyle && n.Tag == "!!str" {
			n.Style = 0
		}
	}
	for _, c := range n.Content {
		blockStyle(c)
	}
}

// Global formatter registry
var GlobalRegistry = NewFormatterRegistry()
