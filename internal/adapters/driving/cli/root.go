package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/paperpost-cli/internal/adapters/driven/config"
	"github.com/custodia-labs/paperpost-cli/internal/adapters/driven/convert/pdf"
	"github.com/custodia-labs/paperpost-cli/internal/adapters/driven/nocodb"
	"github.com/custodia-labs/paperpost-cli/internal/adapters/driven/openai"
	"github.com/custodia-labs/paperpost-cli/internal/adapters/driven/storage/csvlog"
	"github.com/custodia-labs/paperpost-cli/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/paperpost-cli/internal/core/ports/driving"
	"github.com/custodia-labs/paperpost-cli/internal/core/services"
	"github.com/custodia-labs/paperpost-cli/internal/logger"
)

// Overridden at release time via -ldflags.
var version = "dev"

var (
	verbose    bool
	configPath string
)

// Wired at startup by initServices; commands nil-check before use.
var (
	pipeline driving.PipelineRunner
	ledger   *sqlite.Ledger
)

var rootCmd = &cobra.Command{
	Use:   "paperpost",
	Short: "Turn document figures into social media posts",
	Long: `paperpost converts a document and its prepared figure images into
short social media posts, deduplicated against recent output and
tracked so each figure is only ever processed once.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config file")

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		logger.SetVerbose(verbose)
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}
		return initServices()
	}
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// initServices loads configuration and wires every adapter into the
// pipeline. Called once from the persistent pre-run hook.
func initServices() error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if tableID != "" {
		cfg.NocoDB.TableID = tableID
	}

	led, err := sqlite.NewLedger(cfg.Pipeline.DataDir)
	if err != nil {
		return fmt.Errorf("opening ledger: %w", err)
	}
	ledger = led

	ai, err := openai.New(openai.Config{
		APIKey:  cfg.OpenAI.APIKey,
		BaseURL: cfg.OpenAI.BaseURL,
		Model:   cfg.OpenAI.Model,
	})
	if err != nil {
		return err
	}

	sink := nocodb.New(nocodb.Config{
		BaseURL:  cfg.NocoDB.BaseURL,
		APIToken: cfg.NocoDB.APIToken,
		TableID:  cfg.NocoDB.TableID,
		BaseID:   cfg.NocoDB.BaseID,
	})
	fallback := csvlog.New(cfg.Pipeline.FallbackDir)
	if !cfg.SinkComplete() {
		logger.Warn("record store not configured, posts will be written to %s", fallback.Path())
	}

	generator := services.NewGenerator(ai, ai, sink, nil, services.GeneratorConfig{
		Candidates:       cfg.Pipeline.Candidates,
		WindowLimit:      cfg.Pipeline.WindowLimit,
		ReportName:       cfg.Pipeline.ReportName,
		ContextChars:     cfg.Pipeline.ContextChars,
		Temperature:      cfg.OpenAI.Temperature,
		RetryTemperature: cfg.OpenAI.RetryTemperature,
	})

	router := services.NewRouter(sink, fallback)
	extractor := services.NewExtractor(cfg.Pipeline.MinFigureWidth)

	pipeline = services.NewPipeline(
		pdf.New(),
		extractor,
		led,
		generator,
		router,
		services.PipelineConfig{
			AssetDir: cfg.Pipeline.AssetDir,
			WorkDir:  cfg.Pipeline.WorkDir,
			Single:   singleFigure,
		},
	)

	return nil
}
