package di

import (
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/image-analysis-gateway/internal/adapters/cli"
	"github.com/mikey/image-analysis-gateway/internal/config"
	"github.com/mikey/image-analysis-gateway/internal/factory"
	"github.com/mikey/image-analysis-gateway/internal/logging"
)

// CLIFlags contains all command line flags for the CLI application
type CLIFlags struct {
	// Classifier flags
	Provider string
	Model    string
	Token    string
	Timeout  time.Duration

	// Upload flags
	MaxFileBytes int64

	// Output flags
	Verbose    bool
	JSONLog    bool
	JSONOutput bool
	ConfigFile string
}

// RegisterFlags binds the CLI flags to cmd
func RegisterFlags(cmd *cobra.Command) *CLIFlags {
	flags := &CLIFlags{}
	fs := cmd.PersistentFlags()

	fs.StringVar(&flags.Provider, "provider", config.ProviderHuggingFace, "Classifier provider (huggingface, openai, gemini, bedrock)")
	fs.StringVar(&flags.Model, "model", "", "Model name or ID for the selected provider")
	fs.StringVar(&flags.Token, "token", "", "API token or key for the selected provider (defaults to the environment)")
	fs.DurationVar(&flags.Timeout, "timeout", 30*time.Second, "Classifier call timeout")
	fs.Int64Var(&flags.MaxFileBytes, "max-file-bytes", 10*1024*1024, "Largest accepted image in bytes")

	fs.BoolVarP(&flags.Verbose, "verbose", "v", false, "Enable verbose logging and print all predictions")
	fs.BoolVar(&flags.JSONLog, "json-log", false, "Output logs in JSON format")
	fs.BoolVar(&flags.JSONOutput, "json", false, "Print the JSON response body instead of a report")
	fs.StringVar(&flags.ConfigFile, "config", "", "Path to config file (overrides command line flags)")

	return flags
}

// BuildCLIContainer creates and configures a dependency injection container for the CLI application
func BuildCLIContainer(flags *CLIFlags) (*dig.Container, error) {
	container := dig.New()

	// Register flags
	if err := container.Provide(func() *CLIFlags { return flags }); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(func(flags *CLIFlags) (*zap.Logger, error) {
		return logging.InitConsoleLogger(flags.Verbose, flags.JSONLog)
	}); err != nil {
		return nil, err
	}

	// Register configuration
	if err := container.Provide(func(flags *CLIFlags, logger *zap.Logger) (*config.Config, error) {
		if flags.ConfigFile != "" {
			cfg, err := config.NewFromFile(flags.ConfigFile)
			if err != nil {
				return nil, err
			}
			logger.Info("Loaded configuration from file", zap.String("file", cfg.GetViper().ConfigFileUsed()))
			return cfg, nil
		}

		// Create config from command line flags
		return createConfigFromFlags(flags), nil
	}); err != nil {
		return nil, err
	}

	if err := provideCommon(container); err != nil {
		return nil, err
	}

	// Register CLI analyzer
	if err := container.Provide(func(f *factory.FrontendFactory, flags *CLIFlags) *cli.Analyzer {
		return f.CreateCLI(os.Stdout, flags.Verbose)
	}); err != nil {
		return nil, err
	}

	return container, nil
}

// createConfigFromFlags creates a configuration from command line flags
func createConfigFromFlags(flags *CLIFlags) *config.Config {
	v := config.NewEmptyViper()

	v.Set("classifier.provider", flags.Provider)
	if flags.Timeout > 0 {
		v.Set("classifier.timeout", flags.Timeout.String())
	}
	if flags.MaxFileBytes > 0 {
		v.Set("upload.max_file_bytes", flags.MaxFileBytes)
	}

	// Set provider-specific configuration
	switch flags.Provider {
	case config.ProviderHuggingFace:
		setIfNotEmpty(v.Set, "huggingface.model", flags.Model)
		setIfNotEmpty(v.Set, "huggingface.api_token", flags.Token)
	case config.ProviderOpenAI:
		setIfNotEmpty(v.Set, "openai.model_name", flags.Model)
		setIfNotEmpty(v.Set, "openai.api_key", flags.Token)
	case config.ProviderGemini:
		setIfNotEmpty(v.Set, "gemini.model_name", flags.Model)
		setIfNotEmpty(v.Set, "gemini.api_key", flags.Token)
	case config.ProviderBedrock:
		setIfNotEmpty(v.Set, "bedrock.model_id", flags.Model)
	}

	return config.NewFromViper(v)
}

// setIfNotEmpty leaves defaults and environment lookups in place for unset flags
func setIfNotEmpty(set func(string, any), key, value string) {
	if value != "" {
		set(key, value)
	}
}
