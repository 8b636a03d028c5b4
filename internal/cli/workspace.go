package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"resumecraft/internal/ai"
	"resumecraft/internal/common"
	"resumecraft/internal/config"
	"resumecraft/internal/document"
	"resumecraft/internal/errors"
	"resumecraft/internal/state"
	"resumecraft/internal/templates"
	"resumecraft/internal/types"
	"resumecraft/internal/workspace"

	"github.com/spf13/cobra"
)

// cliSurface names the edit surface used by the edit command
const cliSurface = "cli"

// openWorkspace loads a saved analysis and its job description into a
// fresh workspace. The integrate service is only built when needed.
func (in *inputs) openWorkspace(ctx context.Context, analysisFile, jobFile string, withIntegrate bool) (*workspace.Workspace, error) {
	var result *types.AnalysisResult
	var jobDescription string
	err := common.LoadInputs(ctx,
		func(ctx context.Context) (err error) {
			result, err = in.analysis(analysisFile)
			return err
		},
		func(ctx context.Context) (err error) {
			jobDescription, err = in.jobDescription(ctx, jobFile)
			return err
		},
	)
	if err != nil {
		return nil, err
	}

	rescore, err := in.service(config.OpRescore)
	if err != nil {
		return nil, err
	}
	var integrate *ai.Service
	if withIntegrate {
		if integrate, err = in.service(config.OpIntegrate); err != nil {
			return nil, err
		}
	}

	collaborators := ai.NewCollaborators(rescore, integrate, nil)
	manager := workspace.NewManager(collaborators, collaborators, in.logger)
	variant, err := templates.ParseVariant(in.cfg.App.DefaultTemplate)
	if err != nil {
		variant = templates.Professional
	}
	ws, _ := manager.Create(result, jobDescription, "", variant)
	return ws, nil
}

// writeSnapshot prints the score badge and writes the canonical result
func writeSnapshot(cmd *cobra.Command, snap state.Snapshot, out common.CommandConfig) error {
	printScore(cmd.ErrOrStderr(), snap.Result)
	logger := getLoggerFromContext(cmd.Context())
	return common.NewOutputHandlerWithWriter(cmd.OutOrStdout(), logger).HandleOutput(snap.Result, out)
}

var rescoreOutput common.CommandConfig

var rescoreCmd = &cobra.Command{
	Use:   "rescore [analysis-file] [job-description-file]",
	Short: "Recompute the ATS score of a saved analysis",
	Long: `Rescore the tailored resume in a saved analysis against the job
description and write the analysis with the updated score, explanation
and keyword gaps.`,
	Args:    cobra.ExactArgs(2),
	PreRunE: outputPreRun(&rescoreOutput),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		in := newInputs(getConfigFromContext(ctx), getLoggerFromContext(ctx))
		defer in.Close()

		ws, err := in.openWorkspace(ctx, args[0], args[1], false)
		if err != nil {
			return err
		}
		snap, err := ws.Reconciler.ReconcileAndApply(ctx, ws.Store)
		if err != nil {
			return fmt.Errorf("failed to rescore resume: %w", err)
		}
		return writeSnapshot(cmd, snap, rescoreOutput)
	},
}

var (
	integrateOutput  common.CommandConfig
	integrateKeyword string
	integrateSection string
)

var integrateCmd = &cobra.Command{
	Use:   "integrate [analysis-file] [job-description-file]",
	Short: "Weave a missing keyword into one resume section",
	Long: `Integrate a keyword into the Summary, Work Experience or Skills section,
rescore the result and drop the keyword from the gaps. On failure the
analysis is left unchanged.`,
	Args:    cobra.ExactArgs(2),
	PreRunE: outputPreRun(&integrateOutput),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		in := newInputs(getConfigFromContext(ctx), getLoggerFromContext(ctx))
		defer in.Close()

		ws, err := in.openWorkspace(ctx, args[0], args[1], true)
		if err != nil {
			return err
		}
		snap, err := ws.Workflow.IntegrateKeyword(ctx, integrateKeyword, integrateSection)
		if err != nil {
			return err
		}
		return writeSnapshot(cmd, snap, integrateOutput)
	},
}

var fixTitleOutput common.CommandConfig

var fixTitleCmd = &cobra.Command{
	Use:   "fix-title [analysis-file] [job-description-file]",
	Short: "Apply the suggested job title and rescore",
	Args:    cobra.ExactArgs(2),
	PreRunE: outputPreRun(&fixTitleOutput),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		in := newInputs(getConfigFromContext(ctx), getLoggerFromContext(ctx))
		defer in.Close()

		ws, err := in.openWorkspace(ctx, args[0], args[1], false)
		if err != nil {
			return err
		}
		snap, err := ws.Workflow.FixJobTitle(ctx)
		if err != nil {
			return err
		}
		return writeSnapshot(cmd, snap, fixTitleOutput)
	},
}

var (
	editOutput common.CommandConfig
	editSets   []string
)

var editCmd = &cobra.Command{
	Use:   "edit [analysis-file] [job-description-file]",
	Short: "Set fields of a saved analysis and rescore once",
	Long: `Apply one or more field edits to the tailored resume and commit them
together, rescoring once. Paths use dots for fields and indexes:

  resumecraft edit analysis.json job.txt \
    --set jobTitle="Staff Engineer" \
    --set 'workExperience.0.responsibilities=["Led the platform team"]'

Values starting with [, { or a double quote are read as JSON. If the
rescore fails the edits are kept and the old score is marked stale.`,
	Args:    cobra.ExactArgs(2),
	PreRunE: outputPreRun(&editOutput),
	RunE:    runEdit,
}

func runEdit(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	logger := getLoggerFromContext(ctx)

	if len(editSets) == 0 {
		return errors.NewValidationError(errors.ErrCodeInvalidRequest, "at least one --set is required", nil)
	}
	type edit struct {
		path  document.Path
		value any
	}
	edits := make([]edit, 0, len(editSets))
	for _, set := range editSets {
		path, value, err := parseSet(set)
		if err != nil {
			return err
		}
		edits = append(edits, edit{path, value})
	}

	in := newInputs(getConfigFromContext(ctx), logger)
	defer in.Close()

	ws, err := in.openWorkspace(ctx, args[0], args[1], false)
	if err != nil {
		return err
	}

	surface := ws.Surfaces.Surface(cliSurface)
	for _, e := range edits {
		if err := surface.OnFieldChange(e.path, e.value); err != nil {
			return err
		}
	}

	snap, err := surface.OnFieldCommit(ctx)
	if err != nil {
		appErr, ok := errors.AsAppError(err)
		if !ok || appErr.Code != errors.ErrCodeReconcileFailed || !snap.Loaded() {
			return err
		}
		logger.Warn("Edits committed but rescoring failed; score is stale", "error", err)
	}
	return writeSnapshot(cmd, snap, editOutput)
}

// parseSet splits path=value. The value is decoded as JSON when it looks
// like an array, object or quoted string.
func parseSet(set string) (document.Path, any, error) {
	rawPath, rawValue, ok := strings.Cut(set, "=")
	if !ok {
		return nil, nil, errors.NewValidationError(errors.ErrCodeInvalidRequest,
			fmt.Sprintf("--set %q must be path=value", set), nil)
	}

	path, err := document.ParsePath(strings.TrimSpace(rawPath))
	if err != nil {
		return nil, nil, errors.NewValidationError(errors.ErrCodeInvalidPath, "invalid field path", err).
			WithContext("path", rawPath)
	}

	trimmed := strings.TrimSpace(rawValue)
	if trimmed == "" || !strings.ContainsAny(trimmed[:1], `[{"`) {
		return path, rawValue, nil
	}
	var value any
	if err := json.Unmarshal([]byte(trimmed), &value); err != nil {
		return nil, nil, errors.NewValidationError(errors.ErrCodeTypeMismatch,
			fmt.Sprintf("value for %s is not valid JSON", path), err)
	}
	return path, value, nil
}

func init() {
	addOutputFlags(rescoreCmd, &rescoreOutput)
	addOutputFlags(integrateCmd, &integrateOutput)
	addOutputFlags(fixTitleCmd, &fixTitleOutput)
	addOutputFlags(editCmd, &editOutput)

	integrateCmd.Flags().StringVarP(&integrateKeyword, "keyword", "k", "", "Keyword to integrate")
	integrateCmd.Flags().StringVarP(&integrateSection, "section", "s", types.SectionSkills, "Section: Summary, Work Experience or Skills")
	_ = integrateCmd.MarkFlagRequired("keyword")
	_ = integrateCmd.RegisterFlagCompletionFunc("section", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return []string{types.SectionSummary, types.SectionWorkExperience, types.SectionSkills}, cobra.ShellCompDirectiveNoFileComp
	})

	editCmd.Flags().StringArrayVar(&editSets, "set", nil, "Field edit as path=value (repeatable)")
}
