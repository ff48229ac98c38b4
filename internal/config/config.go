package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Text providers
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
	ProviderOllama = "ollama"
)

// Defaults
const (
	DefaultTextProvider         = ProviderOpenAI
	DefaultOpenAIBaseURL        = "https://models.inference.ai.azure.com"
	DefaultOpenAIModel          = "gpt-4o"
	DefaultGeminiModel          = "gemini-1.5-flash"
	DefaultOllamaURL            = "http://localhost:11434"
	DefaultOllamaModel          = "llama3.1"
	DefaultReplicateBaseURL     = "https://api.replicate.com"
	DefaultImageModel           = "black-forest-labs/flux-dev"
	DefaultTemperature          = 0.7
	DefaultImageSize            = 768
	DefaultMaxPanels            = 4
	DefaultRequestTimeout       = 3 * time.Minute
	DefaultPanelTimeout         = 2 * time.Minute
	DefaultCallTimeout          = 90 * time.Second
	DefaultMaxRetries           = 2
	DefaultRetryInitialInterval = 500 * time.Millisecond
	DefaultMaxImageBytes        = 20 << 20
	DefaultPort                 = "8888"
	DefaultLogLevel             = "info"
)

// Config holds process-wide settings. It is loaded once at startup.
type Config struct {
	TextProvider string `yaml:"text_provider"`

	OpenAIAPIKey  string `yaml:"openai_api_key"`
	OpenAIBaseURL string `yaml:"openai_base_url"`
	OpenAIModel   string `yaml:"openai_model"`

	GeminiAPIKey string `yaml:"gemini_api_key"`
	GeminiModel  string `yaml:"gemini_model"`

	OllamaURL   string `yaml:"ollama_url"`
	OllamaModel string `yaml:"ollama_model"`

	ReplicateAPIToken string `yaml:"replicate_api_token"`
	ReplicateBaseURL  string `yaml:"replicate_base_url"`
	ImageModel        string `yaml:"replicate_model"`

	Temperature float64 `yaml:"text_temperature"`
	ImageWidth  int     `yaml:"image_width"`
	ImageHeight int     `yaml:"image_height"`
	MaxPanels   int     `yaml:"max_panels"`

	RequestTimeout       time.Duration `yaml:"request_timeout"`
	PanelTimeout         time.Duration `yaml:"panel_timeout"`
	CallTimeout          time.Duration `yaml:"call_timeout"`
	MaxRetries           int           `yaml:"max_retries"`
	RetryInitialInterval time.Duration `yaml:"retry_initial_interval"`
	MaxImageBytes        int64         `yaml:"max_image_bytes"`

	Port     string `yaml:"port"`
	LogLevel string `yaml:"log_level"`
}

// Default returns a Config with every optional setting filled in.
func Default() *Config {
	return &Config{
		TextProvider:         DefaultTextProvider,
		OpenAIBaseURL:        DefaultOpenAIBaseURL,
		OpenAIModel:          DefaultOpenAIModel,
		GeminiModel:          DefaultGeminiModel,
		OllamaURL:            DefaultOllamaURL,
		OllamaModel:          DefaultOllamaModel,
		ReplicateBaseURL:     DefaultReplicateBaseURL,
		ImageModel:           DefaultImageModel,
		Temperature:          DefaultTemperature,
		ImageWidth:           DefaultImageSize,
		ImageHeight:          DefaultImageSize,
		MaxPanels:            DefaultMaxPanels,
		RequestTimeout:       DefaultRequestTimeout,
		PanelTimeout:         DefaultPanelTimeout,
		CallTimeout:          DefaultCallTimeout,
		MaxRetries:           DefaultMaxRetries,
		RetryInitialInterval: DefaultRetryInitialInterval,
		MaxImageBytes:        DefaultMaxImageBytes,
		Port:                 DefaultPort,
		LogLevel:             DefaultLogLevel,
	}
}

// Load builds the Config from defaults, then the optional YAML file at path,
// then environment variables. Missing credentials are not an error here; see Validate.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	cfg.TextProvider = strings.ToLower(strings.TrimSpace(cfg.TextProvider))
	switch cfg.TextProvider {
	case ProviderOpenAI, ProviderGemini, ProviderOllama:
	default:
		return nil, fmt.Errorf("unsupported text provider: %q", cfg.TextProvider)
	}

	if cfg.MaxPanels < 1 || cfg.MaxPanels > DefaultMaxPanels {
		slog.Warn("MAX_PANELS out of range, clamping", "value", cfg.MaxPanels)
		cfg.MaxPanels = min(max(cfg.MaxPanels, 1), DefaultMaxPanels)
	}

	return cfg, nil
}

func (c *Config) applyEnv() error {
	setString(&c.TextProvider, "TEXT_PROVIDER")
	setString(&c.OpenAIAPIKey, "OPENAI_API_KEY")
	setString(&c.OpenAIBaseURL, "OPENAI_BASE_URL")
	setString(&c.OpenAIModel, "OPENAI_MODEL")
	setString(&c.GeminiAPIKey, "GEMINI_API_KEY")
	setString(&c.GeminiModel, "GEMINI_MODEL")
	setString(&c.OllamaURL, "OLLAMA_URL")
	setString(&c.OllamaModel, "OLLAMA_MODEL")
	setString(&c.ReplicateAPIToken, "REPLICATE_API_TOKEN")
	setString(&c.ReplicateBaseURL, "REPLICATE_BASE_URL")
	setString(&c.ImageModel, "REPLICATE_MODEL")
	setString(&c.Port, "PORT")
	setString(&c.LogLevel, "LOG_LEVEL")

	return errors.Join(
		setFloat(&c.Temperature, "TEXT_TEMPERATURE"),
		setInt(&c.ImageWidth, "IMAGE_WIDTH"),
		setInt(&c.ImageHeight, "IMAGE_HEIGHT"),
		setInt(&c.MaxPanels, "MAX_PANELS"),
		setInt(&c.MaxRetries, "MAX_RETRIES"),
		setInt64(&c.MaxImageBytes, "MAX_IMAGE_BYTES"),
		setDuration(&c.RequestTimeout, "REQUEST_TIMEOUT"),
		setDuration(&c.PanelTimeout, "PANEL_TIMEOUT"),
		setDuration(&c.CallTimeout, "CALL_TIMEOUT"),
		setDuration(&c.RetryInitialInterval, "RETRY_INITIAL_INTERVAL"),
	)
}

// Validate checks that the credentials needed by the selected providers are present.
func (c *Config) Validate() error {
	var errs []error
	switch c.TextProvider {
	case ProviderOpenAI:
		if c.OpenAIAPIKey == "" {
			errs = append(errs, errors.New("OPENAI_API_KEY is not set"))
		}
	case ProviderGemini:
		if c.GeminiAPIKey == "" {
			errs = append(errs, errors.New("GEMINI_API_KEY is not set"))
		}
	case ProviderOllama:
	default:
		errs = append(errs, fmt.Errorf("unsupported text provider: %q", c.TextProvider))
	}
	if c.ReplicateAPIToken == "" {
		errs = append(errs, errors.New("REPLICATE_API_TOKEN is not set"))
	}
	return errors.Join(errs...)
}

// TextModel returns the model name for the selected text provider.
func (c *Config) TextModel() string {
	switch c.TextProvider {
	case ProviderGemini:
		return c.GeminiModel
	case ProviderOllama:
		return c.OllamaModel
	default:
		return c.OpenAIModel
	}
}

// SlogLevel maps LogLevel to a slog.Level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = n
	return nil
}

func setInt64(dst *int64, key string) error {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = n
	return nil
}

func setFloat(dst *float64, key string) error {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = f
	return nil
}

func setDuration(dst *time.Duration, key string) error {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = d
	return nil
}
