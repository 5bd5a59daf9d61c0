package cli

import (
	"context"
	"fmt"

	"resumeparser/internal/common"
	"resumeparser/internal/types"
	"resumeparser/internal/utils"

	"github.com/spf13/cobra"
)

var parseCmd = &cobra.Command{
	Use:   "parse [resume.pdf]",
	Short: "Parse a PDF resume into structured data",
	Long: `Parse a PDF resume into structured data using the configured model.
The text layer of the PDF is extracted, checked for a minimum length and sent
to the model together with the parsing rules. The answer is validated against
the resume schema and written as json, text or markdown.`,
	Args: cobra.ExactArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfigFromContext(cmd.Context())
		format, err := common.NormalizeOutputFormat(parseConfig.OutputFormat, cfg.App.DefaultFormat, cfg.App.SupportedFormats)
		if err != nil {
			return err
		}
		parseConfig.OutputFormat = format
		return nil
	},
	RunE: runParse,
}

var parseConfig common.CommandConfig

func init() {
	parseCmd.Flags().StringVarP(&parseConfig.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	parseCmd.Flags().StringVar(&parseConfig.OutputFormat, "format", "", "Output format: json, text, or markdown")

	// Add completion for format flag
	_ = parseCmd.RegisterFlagCompletionFunc("format", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		cfg := getConfigFromContext(cmd.Context())
		return cfg.App.SupportedFormats, cobra.ShellCompDirectiveNoFileComp
	})
	parseCmd.ValidArgsFunction = func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return []string{utils.PDFExtension[1:]}, cobra.ShellCompDirectiveFilterFileExt
	}
}

func runParse(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	p, provider, err := buildPipeline(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer closeProvider(provider, logger)

	logDetails := func(path string, cfg common.CommandConfig) {
		logger.Info("Starting resume parsing",
			"file", path,
			"provider", provider.Name(),
			"output_format", cfg.OutputFormat)
	}

	parseOperation := func(ctx context.Context, path string) (*types.ParsedResume, error) {
		if cfg.AI.Timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, cfg.AI.Timeout)
			defer cancel()
		}
		return p.Parse(ctx, path)
	}

	err = common.RunFileCommand(
		cmd.Context(),
		logger,
		parseConfig,
		args[0],
		parseOperation,
		logDetails,
	)
	if err != nil {
		return fmt.Errorf("failed to parse resume: %w", err)
	}

	logger.Info("Resume parsing completed successfully")
	return nil
}
