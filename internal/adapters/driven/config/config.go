// Package config builds the explicit configuration struct the pipeline
// components receive at startup. Values come from an optional TOML
// file, overridden by environment variables (a .env file is honoured
// if present). No component reads ambient process state directly.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"

	"github.com/custodia-labs/paperpost-cli/internal/core/domain"
)

// OpenAI holds the generation/analysis collaborator settings.
type OpenAI struct {
	// APIKey authenticates against the API. Required.
	APIKey string `toml:"api_key"`

	// BaseURL overrides the API endpoint for compatible services.
	BaseURL string `toml:"base_url"`

	// Model is the chat model used for analysis and generation.
	Model string `toml:"model"`

	// Temperature for the initial drafting pass.
	Temperature float64 `toml:"temperature"`

	// RetryTemperature for the single regeneration pass.
	RetryTemperature float64 `toml:"retry_temperature"`
}

// NocoDB holds the primary sink's connection parameters. All four must
// be present for the primary path to be attempted; otherwise commits
// route to the fallback log.
type NocoDB struct {
	BaseURL  string `toml:"base_url"`
	APIToken string `toml:"api_token"`
	TableID  string `toml:"table_id"`
	BaseID   string `toml:"base_id"`
}

// Pipeline holds orchestration policy and local paths.
type Pipeline struct {
	// AssetDir is the prepared figure image directory.
	AssetDir string `toml:"asset_dir"`

	// WorkDir caches converted document text between runs.
	WorkDir string `toml:"work_dir"`

	// DataDir holds the ledger database.
	DataDir string `toml:"data_dir"`

	// FallbackDir holds the fallback CSV log.
	FallbackDir string `toml:"fallback_dir"`

	// ReportName is how generated posts may refer to the source report.
	ReportName string `toml:"report_name"`

	// MinFigureWidth is the admission threshold for figure images.
	MinFigureWidth int `toml:"min_figure_width"`

	// WindowLimit bounds the recent-post similarity window.
	WindowLimit int `toml:"window_limit"`

	// Candidates is the number of tone variants drafted per figure.
	Candidates int `toml:"candidates"`

	// ContextChars truncates the document context embedded in prompts.
	// Zero disables document context entirely.
	ContextChars int `toml:"context_chars"`
}

// Config is the root configuration handed to the components.
type Config struct {
	OpenAI   OpenAI   `toml:"openai"`
	NocoDB   NocoDB   `toml:"nocodb"`
	Pipeline Pipeline `toml:"pipeline"`
}

// Defaults returns the configuration baseline before file and
// environment overrides.
func Defaults() Config {
	return Config{
		OpenAI: OpenAI{
			Model:            "gpt-4.1",
			Temperature:      0.8,
			RetryTemperature: 0.9,
		},
		Pipeline: Pipeline{
			AssetDir:       "content_inputs/images",
			WorkDir:        os.TempDir(),
			FallbackDir:    os.TempDir(),
			ReportName:     "our latest whitepaper",
			MinFigureWidth: 300,
			WindowLimit:    domain.DefaultWindowLimit,
			Candidates:     domain.DefaultCandidateCount,
			ContextChars:   8000,
		},
	}
}

// Load builds the configuration: defaults, then the TOML file at path
// (skipped when path is empty or absent), then environment variables.
// A .env file in the working directory is loaded first if present.
func Load(path string) (Config, error) {
	// Missing .env is the normal case, not an error.
	_ = godotenv.Load()

	cfg := Defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// No config file; env and defaults apply.
		case err != nil:
			return cfg, fmt.Errorf("reading config file: %w", err)
		default:
			if err := toml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parsing config file: %w", err)
			}
		}
	}

	applyEnv(&cfg)
	return cfg, nil
}

// applyEnv overrides file values with environment variables.
func applyEnv(cfg *Config) {
	setString(&cfg.OpenAI.APIKey, "OPENAI_API_KEY")
	setString(&cfg.OpenAI.BaseURL, "OPENAI_BASE_URL")
	setString(&cfg.OpenAI.Model, "OPENAI_MODEL")

	setString(&cfg.NocoDB.BaseURL, "NOCODB_BASE_URL")
	setString(&cfg.NocoDB.APIToken, "NOCODB_API_KEY")
	setString(&cfg.NocoDB.TableID, "NOCODB_TABLE_ID")
	setString(&cfg.NocoDB.BaseID, "NOCODB_BASE_ID")

	setString(&cfg.Pipeline.AssetDir, "PAPERPOST_ASSET_DIR")
	setString(&cfg.Pipeline.ReportName, "WHITEPAPER_NAME")
	setInt(&cfg.Pipeline.WindowLimit, "PAPERPOST_WINDOW_LIMIT")
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	if n, err := strconv.Atoi(v); err == nil {
		*dst = n
	}
}

// Validate checks the values required before any processing begins.
// Primary-sink completeness is not checked; an incomplete sink routes
// commits to the fallback log instead of failing the run.
func (c Config) Validate() error {
	if c.OpenAI.APIKey == "" {
		return fmt.Errorf("%w: OPENAI_API_KEY is required", domain.ErrGenerationUnavailable)
	}
	if c.Pipeline.Candidates < 1 {
		return fmt.Errorf("%w: candidates must be at least 1", domain.ErrInvalidInput)
	}
	return nil
}

// SinkComplete reports whether all primary-sink parameters are present.
func (c Config) SinkComplete() bool {
	n := c.NocoDB
	return n.BaseURL != "" && n.APIToken != "" && n.TableID != "" && n.BaseID != ""
}
