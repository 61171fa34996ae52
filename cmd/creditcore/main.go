package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/common/expfmt"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/creditcore/internal/app"
	"github.com/ternarybob/creditcore/internal/common"
	"github.com/ternarybob/creditcore/internal/models"
)

// Exit codes
const (
	exitOK               = 0
	exitError            = 1
	exitValidationFailed = 2
)

// configPaths is a custom flag type that allows multiple -config flags
type configPaths []string

func (c *configPaths) String() string {
	return fmt.Sprintf("%v", *c)
}

func (c *configPaths) Set(value string) error {
	*c = append(*c, value)
	return nil
}

var (
	// Command-line flags
	configFiles  configPaths // Multiple -config flags supported
	inputPath    = flag.String("input", "", "Analysis request file (JSON or YAML)")
	inputPathI   = flag.String("i", "", "Analysis request file (shorthand)")
	outputPath   = flag.String("output", "", "Result file (default stdout)")
	outputPathO  = flag.String("o", "", "Result file (shorthand)")
	metricsPath  = flag.String("metrics", "", "Write Prometheus text metrics to this file after the run")
	envFile      = flag.String("env", ".env", "Environment file loaded before configuration")
	logLevel     = flag.String("log-level", "", "Log level (overrides config)")
	cacheBackend = flag.String("cache", "", "Semantic cache backend: none, memory or badger (overrides config)")
	showVersion  = flag.Bool("version", false, "Print version information")
	showVersionV = flag.Bool("v", false, "Print version information (shorthand)")
)

func init() {
	flag.Var(&configFiles, "config", "Configuration file path (can be specified multiple times, later files override earlier ones)")
	flag.Var(&configFiles, "c", "Configuration file path (shorthand)")
}

func main() {
	os.Exit(run())
}

func run() int {
	flag.Parse()

	if *showVersion || *showVersionV {
		fmt.Printf("CreditCore version %s\n", common.GetFullVersion())
		return exitOK
	}

	input := firstNonEmpty(*inputPathI, *inputPath)
	output := firstNonEmpty(*outputPathO, *outputPath)
	if input == "" {
		fmt.Fprintln(os.Stderr, "an -input request file is required")
		flag.Usage()
		return exitError
	}

	// Startup sequence (REQUIRED ORDER):
	// 1. Load .env so CREDITCORE_ variables reach the config
	// 2. Load config (defaults -> file1 -> file2 -> ... -> env)
	// 3. Apply CLI overrides (highest priority)
	// 4. Initialize logger
	// 5. Print banner
	if *envFile != "" {
		if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "Warning: failed to load %s: %v\n", *envFile, err)
		}
	}

	if len(configFiles) == 0 {
		if _, err := os.Stat("creditcore.toml"); err == nil {
			configFiles = append(configFiles, "creditcore.toml")
		} else if _, err := os.Stat("deployments/local/creditcore.toml"); err == nil {
			configFiles = append(configFiles, "deployments/local/creditcore.toml")
		}
	}

	config, err := common.LoadFromFiles(configFiles...)
	if err != nil {
		tempLogger := arbor.NewLogger()
		tempLogger.Error().Strs("paths", configFiles).Err(err).Msg("Failed to load configuration")
		return exitError
	}

	common.ApplyFlagOverrides(config, *logLevel, *cacheBackend)
	if err := config.Validate(); err != nil {
		arbor.NewLogger().Error().Err(err).Msg("Invalid command-line override")
		return exitError
	}

	logger := common.InitLogger(config)
	common.PrintBanner(common.GetVersion())

	logger.Debug().
		Strs("config_files", configFiles).
		Str("log_level", config.Logging.Level).
		Str("cache_backend", config.Cache.Backend).
		Msg("Resolved configuration")

	application, err := app.New(config, logger)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to initialize application")
		return exitError
	}
	defer func() {
		if err := application.Close(); err != nil {
			logger.Warn().Err(err).Msg("Failed to close application")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	req, err := application.LoadRequest(ctx, input)
	if err != nil {
		logger.Error().Str("input", input).Err(err).Msg("Failed to load analysis request")
		return exitError
	}

	code := exitOK
	result, err := application.Analyze(ctx, req)
	switch {
	case errors.Is(err, models.ErrValidationFailed):
		logger.Warn().Err(err).Msg("Validation gate failed")
		code = exitValidationFailed
	case err != nil:
		logger.Error().Err(err).Msg("Analysis failed")
		return exitError
	}

	if err := writeResult(output, result); err != nil {
		logger.Error().Str("output", output).Err(err).Msg("Failed to write result")
		return exitError
	}

	if *metricsPath != "" {
		if err := writeMetrics(application, *metricsPath); err != nil {
			logger.Warn().Str("path", *metricsPath).Err(err).Msg("Failed to write metrics")
		}
	}

	return code
}

// writeResult encodes the result as indented JSON to path, or stdout when empty
func writeResult(path string, result *models.AnalysisResult) error {
	var w io.Writer = os.Stdout
	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// writeMetrics dumps the registry in the Prometheus text format
func writeMetrics(a *app.App, path string) error {
	if a.Registry == nil {
		return fmt.Errorf("metrics are disabled; set [metrics] enabled = true")
	}
	families, err := a.Registry.Gather()
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(f, mf); err != nil {
			return err
		}
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
