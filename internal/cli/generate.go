package cli

import (
	"context"
	"fmt"

	"resumecraft/internal/common"
	"resumecraft/internal/config"
	"resumecraft/internal/document"
	"resumecraft/internal/ingest"
	"resumecraft/internal/templates"
	"resumecraft/internal/types"

	"github.com/spf13/cobra"
)

var (
	generateOutput   common.CommandConfig
	generateRole     string
	generateTemplate string
	generatePicture  string
	generatePreview  string
)

var generateCmd = &cobra.Command{
	Use:   "generate [profile-file] [job-description-file]",
	Short: "Generate a tailored resume and ATS analysis",
	Long: `Generate a tailored resume, ATS score, keyword gaps and job title check
from a profile and a job description.

The profile may be a JSON profile, a LinkedIn PDF export or plain text.
The job description may be text, a PDF or a screenshot.

With --preview the tailored resume is also rendered to an HTML file using
--template and the profile picture (--picture overrides the profile's).`,
	Args:    cobra.ExactArgs(2),
	PreRunE: outputPreRun(&generateOutput),
	RunE:    runGenerate,
}

func init() {
	addOutputFlags(generateCmd, &generateOutput)
	generateCmd.Flags().StringVar(&generateRole, "role", "", "Role title applied for (default: the profile's roleAppliedFor)")
	generateCmd.Flags().StringVarP(&generateTemplate, "template", "t", "", "Template variant (default from config)")
	generateCmd.Flags().StringVar(&generatePicture, "picture", "", "Profile picture file or URL")
	generateCmd.Flags().StringVar(&generatePreview, "preview", "", "Also write an HTML preview of the tailored resume to this file")
	_ = generateCmd.RegisterFlagCompletionFunc("template", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return templates.VariantNames(), cobra.ShellCompDirectiveNoFileComp
	})
}

func runGenerate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := getConfigFromContext(ctx)
	logger := getLoggerFromContext(ctx)

	templateName := generateTemplate
	if templateName == "" {
		templateName = cfg.App.DefaultTemplate
	}
	variant, err := templates.ParseVariant(templateName)
	if err != nil {
		return err
	}

	in := newInputs(cfg, logger)
	defer in.Close()

	var profile types.ProfileData
	var jobDescription string
	err = common.LoadInputs(ctx,
		func(ctx context.Context) (err error) {
			profile, err = in.profile(ctx, args[0])
			return err
		},
		func(ctx context.Context) (err error) {
			jobDescription, err = in.jobDescription(ctx, args[1])
			return err
		},
	)
	if err != nil {
		return err
	}

	picture := profile.ProfilePicture
	if generatePicture != "" {
		if picture, err = in.loader.LoadPicture(generatePicture); err != nil {
			return err
		}
	}

	role := generateRole
	if role == "" {
		role = profile.RoleAppliedFor
	}

	svc, err := in.service(config.OpGenerate)
	if err != nil {
		return err
	}

	logger.Info("Generating analysis", "role", role, "template", variant)
	result, err := common.RunAIOperation(ctx, logger, config.OpGenerate, types.GenerateInput{
		Profile:        profile,
		JobDescription: jobDescription,
		RoleTitle:      role,
		Template:       string(variant),
	}, svc.Provider.GenerateAnalysis)
	if err != nil {
		return fmt.Errorf("failed to generate analysis: %w", err)
	}

	normalized := document.NormalizeResult(&result)
	printScore(cmd.ErrOrStderr(), normalized)
	if generatePreview != "" {
		if err := writePreview(generatePreview, variant, &normalized.TailoredResume, picture); err != nil {
			return err
		}
		logger.Info("Preview written", "file", generatePreview, "template", variant)
	}
	return common.NewOutputHandlerWithWriter(cmd.OutOrStdout(), logger).HandleOutput(normalized, generateOutput)
}

// writePreview renders doc with variant and writes the HTML to path
func writePreview(path string, variant templates.Variant, doc *types.TailoredResumeData, picture string) error {
	html, err := templates.RenderDocument(variant, doc, picture)
	if err != nil {
		return fmt.Errorf("failed to render %s preview: %w", variant, err)
	}
	return ingest.WriteFile(path, []byte(html))
}
