package cli

import (
	"fmt"

	"resumecraft/internal/common"
	"resumecraft/internal/errors"
	"resumecraft/internal/export"
	"resumecraft/internal/templates"

	"github.com/spf13/cobra"
)

const (
	formatHTML = "html"
	formatPDF  = "pdf"

	scopeResume   = "resume"
	scopeAnalysis = "analysis"
)

// resolveVariant falls back to the configured default template
func resolveVariant(name, fallback string) (templates.Variant, error) {
	if name == "" {
		name = fallback
	}
	return templates.ParseVariant(name)
}

var (
	renderOutput   common.CommandConfig
	renderTemplate string
	renderPicture  string
)

var renderCmd = &cobra.Command{
	Use:   "render [analysis-file]",
	Short: "Render the tailored resume with a template",
	Long: `Render the tailored resume from a saved analysis with one of the
professional, creative, elegant or minimalist templates, as HTML or as an
A4 PDF printed by headless Chrome.`,
	Args: cobra.ExactArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		if renderOutput.OutputFormat == "" {
			renderOutput.OutputFormat = formatHTML
		}
		return common.ValidateOutputFormat(renderOutput.OutputFormat, []string{formatHTML, formatPDF})
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg := getConfigFromContext(ctx)
		logger := getLoggerFromContext(ctx)

		variant, err := resolveVariant(renderTemplate, cfg.App.DefaultTemplate)
		if err != nil {
			return err
		}

		in := newInputs(cfg, logger)
		defer in.Close()

		result, err := in.analysis(args[0])
		if err != nil {
			return err
		}
		picture := ""
		if renderPicture != "" {
			if picture, err = in.loader.LoadPicture(renderPicture); err != nil {
				return err
			}
		}

		var content []byte
		if renderOutput.OutputFormat == formatPDF {
			renderer := export.NewPDFRenderer(cfg.Export.ChromePath, cfg.Export.PDFTimeout, logger)
			content, err = renderer.RenderDocument(ctx, variant, &result.TailoredResume, picture)
		} else {
			var html string
			html, err = templates.RenderDocument(variant, &result.TailoredResume, picture)
			content = []byte(html)
		}
		if err != nil {
			return fmt.Errorf("failed to render %s: %w", variant, err)
		}
		return common.NewOutputHandlerWithWriter(cmd.OutOrStdout(), logger).WriteBytes(content, renderOutput)
	},
}

var (
	exportOutput   common.CommandConfig
	exportScope    string
	exportTemplate string
)

var exportCmd = &cobra.Command{
	Use:   "export [analysis-file]",
	Short: "Export a saved analysis or its resume",
	Long: `Export the tailored resume (--scope resume) or the whole analysis
(--scope analysis) as text, markdown, yaml or json. PDF export renders the
resume with --template.`,
	Args: cobra.ExactArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		if exportScope != scopeResume && exportScope != scopeAnalysis {
			return errors.NewValidationError(errors.ErrCodeInvalidRequest,
				fmt.Sprintf("scope must be %s or %s", scopeResume, scopeAnalysis), nil)
		}
		return outputPreRun(&exportOutput, formatPDF)(cmd, args)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg := getConfigFromContext(ctx)
		logger := getLoggerFromContext(ctx)
		out := common.NewOutputHandlerWithWriter(cmd.OutOrStdout(), logger)

		in := newInputs(cfg, logger)
		defer in.Close()

		result, err := in.analysis(args[0])
		if err != nil {
			return err
		}

		if exportOutput.OutputFormat == formatPDF {
			variant, err := resolveVariant(exportTemplate, cfg.App.DefaultTemplate)
			if err != nil {
				return err
			}
			renderer := export.NewPDFRenderer(cfg.Export.ChromePath, cfg.Export.PDFTimeout, logger)
			pdf, err := renderer.RenderDocument(ctx, variant, &result.TailoredResume, "")
			if err != nil {
				return err
			}
			return out.WriteBytes(pdf, exportOutput)
		}

		if exportScope == scopeAnalysis {
			return out.HandleOutput(result, exportOutput)
		}
		return out.HandleOutput(result.TailoredResume, exportOutput)
	},
}

func init() {
	renderCmd.Flags().StringVarP(&renderOutput.OutputFile, "output", "o", "", "Output file (default: stdout)")
	renderCmd.Flags().StringVar(&renderOutput.OutputFormat, "format", formatHTML, "Output format: html or pdf")
	renderCmd.Flags().StringVarP(&renderTemplate, "template", "t", "", "Template variant (default from config)")
	renderCmd.Flags().StringVar(&renderPicture, "picture", "", "Profile picture file or URL")

	addOutputFlags(exportCmd, &exportOutput, formatPDF)
	exportCmd.Flags().StringVar(&exportScope, "scope", scopeResume, "What to export: resume or analysis")
	exportCmd.Flags().StringVarP(&exportTemplate, "template", "t", "", "Template variant for pdf (default from config)")

	for _, cmd := range []*cobra.Command{renderCmd, exportCmd} {
		_ = cmd.RegisterFlagCompletionFunc("template", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			return templates.VariantNames(), cobra.ShellCompDirectiveNoFileComp
		})
	}
}
