package cli

import (
	"fmt"

	"resumecraft/internal/common"

	"github.com/spf13/cobra"
)

var extractOutput common.CommandConfig

var extractImageCmd = &cobra.Command{
	Use:   "extract-image [image-file]",
	Short: "Extract a job description from a screenshot",
	Long: `Read the job description text out of a PNG, JPEG, GIF or WebP
screenshot. The result can be passed to generate as the job description.`,
	Args:    cobra.ExactArgs(1),
	PreRunE: outputPreRun(&extractOutput),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		logger := getLoggerFromContext(ctx)
		in := newInputs(getConfigFromContext(ctx), logger)
		defer in.Close()

		image, err := in.loader.LoadImage(args[0])
		if err != nil {
			return err
		}
		extracted, err := in.extractImage(ctx, image)
		if err != nil {
			return fmt.Errorf("failed to extract job description: %w", err)
		}
		return common.NewOutputHandlerWithWriter(cmd.OutOrStdout(), logger).HandleOutput(extracted, extractOutput)
	},
}

var importOutput common.CommandConfig

var importProfileCmd = &cobra.Command{
	Use:   "import-profile [profile-file]",
	Short: "Parse a LinkedIn export or resume text into a profile",
	Long: `Turn a LinkedIn PDF export or plain text resume into a structured
profile. JSON profiles are checked and normalized without calling the
model.`,
	Args:    cobra.ExactArgs(1),
	PreRunE: outputPreRun(&importOutput),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		logger := getLoggerFromContext(ctx)
		in := newInputs(getConfigFromContext(ctx), logger)
		defer in.Close()

		profile, err := in.profile(ctx, args[0])
		if err != nil {
			return fmt.Errorf("failed to import profile: %w", err)
		}
		logger.Info("Profile imported",
			"name", profile.FullName,
			"work_experience", len(profile.WorkExperience),
			"skills", len(profile.Skills))
		return common.NewOutputHandlerWithWriter(cmd.OutOrStdout(), logger).HandleOutput(profile, importOutput)
	},
}

func init() {
	addOutputFlags(extractImageCmd, &extractOutput)
	addOutputFlags(importProfileCmd, &importOutput)
}
