package cli

import (
	"resumecraft/internal/common"
	"resumecraft/internal/formatters"

	"github.com/spf13/cobra"
)

// addOutputFlags registers -o/--output and --format on cmd
func addOutputFlags(cmd *cobra.Command, out *common.CommandConfig, extra ...string) {
	cmd.Flags().StringVarP(&out.OutputFile, "output", "o", "", "Output file (default: stdout)")
	cmd.Flags().StringVar(&out.OutputFormat, "format", "", "Output format (default from config)")
	_ = cmd.RegisterFlagCompletionFunc("format", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return common.GetSupportedFormats(formatters.GlobalRegistry.GetSupportedFormats(), extra...), cobra.ShellCompDirectiveNoFileComp
	})
}

// outputPreRun fills in the default format and rejects unsupported ones
func outputPreRun(out *common.CommandConfig, extra ...string) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg := getConfigFromContext(cmd.Context())
		if out.OutputFormat == "" {
			out.OutputFormat = cfg.App.DefaultFormat
		}
		return common.ValidateOutputFormat(out.OutputFormat, cfg.App.SupportedFormats, extra...)
	}
}
