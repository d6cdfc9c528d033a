package config

import (
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
)

// Supported classifier providers
const (
	ProviderHuggingFace = "huggingface"
	ProviderOpenAI      = "openai"
	ProviderGemini      = "gemini"
	ProviderBedrock     = "bedrock"
)

// ServerConfig represents the configuration for the HTTP frontend
type ServerConfig struct {
	ListenAddress   string
	Path            string
	LegacyPath      string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// UploadConfig represents the limits applied to uploads
type UploadConfig struct {
	MaxFileBytes    int64
	MaxRequestBytes int64
	AllowedTypes    []string
}

// ClassifierConfig represents the provider-independent classifier settings
type ClassifierConfig struct {
	Provider string
	Timeout  time.Duration
}

// HuggingFaceConfig represents the configuration for the Hugging Face inference API
type HuggingFaceConfig struct {
	BaseURL string
	Model   string
}

// OpenAIConfig represents the configuration for OpenAI
type OpenAIConfig struct {
	APIKey      string
	BaseURL     string
	ModelName   string
	MaxTokens   int
	Temperature float32
}

// GeminiConfig represents the configuration for Google Gemini
type GeminiConfig struct {
	APIKey      string
	ModelName   string
	MaxTokens   int
	Temperature float32
}

// BedrockConfig represents the configuration for Amazon Bedrock
type BedrockConfig struct {
	Region      string
	ModelID     string
	MaxTokens   int
	Temperature float32
}

// GetServer returns the HTTP server configuration
func (c *Config) GetServer() ServerConfig {
	return ServerConfig{
		ListenAddress:   c.GetString("server.listen_address"),
		Path:            c.GetString("server.path"),
		LegacyPath:      c.GetString("server.legacy_path"),
		ReadTimeout:     c.durationOr("server.read_timeout", 30*time.Second),
		WriteTimeout:    c.durationOr("server.write_timeout", 60*time.Second),
		ShutdownTimeout: c.durationOr("server.shutdown_timeout", 15*time.Second),
	}
}

// GetUpload returns the upload limits
func (c *Config) GetUpload() UploadConfig {
	return UploadConfig{
		MaxFileBytes:    c.GetInt64("upload.max_file_bytes"),
		MaxRequestBytes: c.GetInt64("upload.max_request_bytes"),
		AllowedTypes:    c.GetStringSlice("upload.allowed_types"),
	}
}

// GetClassifier returns the classifier configuration
func (c *Config) GetClassifier() ClassifierConfig {
	return ClassifierConfig{
		Provider: c.GetString("classifier.provider"),
		Timeout:  c.durationOr("classifier.timeout", 30*time.Second),
	}
}

// GetHuggingFace returns the Hugging Face configuration. The API token is
// deliberately absent; read it with HuggingFaceToken at call time.
func (c *Config) GetHuggingFace() HuggingFaceConfig {
	return HuggingFaceConfig{
		BaseURL: c.GetString("huggingface.base_url"),
		Model:   c.GetString("huggingface.model"),
	}
}

// HuggingFaceToken returns the current Hugging Face API token
func (c *Config) HuggingFaceToken() string {
	return c.GetString("huggingface.api_token")
}

// GetOpenAI returns the OpenAI configuration
func (c *Config) GetOpenAI() OpenAIConfig {
	return OpenAIConfig{
		APIKey:      c.GetString("openai.api_key"),
		BaseURL:     c.GetString("openai.base_url"),
		ModelName:   c.GetString("openai.model_name"),
		MaxTokens:   c.GetInt("openai.max_tokens"),
		Temperature: float32(c.GetFloat64("openai.temperature")),
	}
}

// GetGemini returns the Gemini configuration
func (c *Config) GetGemini() GeminiConfig {
	return GeminiConfig{
		APIKey:      c.GetString("gemini.api_key"),
		ModelName:   c.GetString("gemini.model_name"),
		MaxTokens:   c.GetInt("gemini.max_tokens"),
		Temperature: float32(c.GetFloat64("gemini.temperature")),
	}
}

// GetBedrock returns the Bedrock configuration
func (c *Config) GetBedrock() BedrockConfig {
	return BedrockConfig{
		Region:      c.GetString("bedrock.region"),
		ModelID:     c.GetString("bedrock.model_id"),
		MaxTokens:   c.GetInt("bedrock.max_tokens"),
		Temperature: float32(c.GetFloat64("bedrock.temperature")),
	}
}

// Validate checks the settings every frontend depends on
func (c *Config) Validate() error {
	for _, key := range []string{"server.read_timeout", "server.write_timeout", "server.shutdown_timeout", "classifier.timeout"} {
		if _, err := c.GetDuration(key); err != nil {
			return fmt.Errorf("invalid %s: %w", key, err)
		}
	}

	upload := c.GetUpload()
	if err := validation.ValidateStruct(&upload,
		validation.Field(&upload.MaxFileBytes, validation.Required, validation.Min(int64(1))),
		validation.Field(&upload.MaxRequestBytes, validation.Required, validation.Min(upload.MaxFileBytes)),
		validation.Field(&upload.AllowedTypes, validation.Required),
	); err != nil {
		return fmt.Errorf("invalid upload configuration: %w", err)
	}

	classifier := c.GetClassifier()
	if err := validation.ValidateStruct(&classifier,
		validation.Field(&classifier.Provider, validation.Required,
			validation.In(ProviderHuggingFace, ProviderOpenAI, ProviderGemini, ProviderBedrock)),
		validation.Field(&classifier.Timeout, validation.Required, validation.Min(time.Millisecond)),
	); err != nil {
		return fmt.Errorf("invalid classifier configuration: %w", err)
	}

	server := c.GetServer()
	if err := validation.ValidateStruct(&server,
		validation.Field(&server.ListenAddress, validation.Required),
		validation.Field(&server.Path, validation.Required),
	); err != nil {
		return fmt.Errorf("invalid server configuration: %w", err)
	}

	return nil
}

func (c *Config) durationOr(key string, fallback time.Duration) time.Duration {
	d, err := c.GetDuration(key)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
