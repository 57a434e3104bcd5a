package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hejijunhao/teller/internal/model"
)

// Config holds all Teller configuration.
type Config struct {
	Artifacts ArtifactConfig `yaml:"artifacts"`
	Lexicon   LexiconConfig  `yaml:"lexicon"`
	Server    ServerConfig   `yaml:"server"`
	Logging   LoggingConfig  `yaml:"logging"`
	Output    OutputConfig   `yaml:"output"`
}

// ArtifactConfig locates the trained vectorizers, decoders and classifiers.
type ArtifactConfig struct {
	Dir            string `yaml:"dir"`
	ONNXLibrary    string `yaml:"onnx_library"` // empty: libonnxruntime.so inside Dir
	DefaultVariant string `yaml:"default_variant"`
	Warm           bool   `yaml:"warm"` // preload every artifact at startup
}

// LexiconConfig overrides the embedded stopword list and verb lexicon.
type LexiconConfig struct {
	WordNetDir    string `yaml:"wordnet_dir"`    // directory holding index.verb and verb.exc
	StopwordsPath string `yaml:"stopwords_path"` // one word per line
}

// ServerConfig holds HTTP API settings.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// LoggingConfig holds slog settings.
type LoggingConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// OutputConfig holds batch output settings.
type OutputConfig struct {
	Pretty     bool   `yaml:"pretty"`
	Path       string `yaml:"path"`      // empty: stdout only
	Verbosity  string `yaml:"verbosity"` // "minimal" drops the complaint text
	WebhookURL string `yaml:"webhook_url"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Artifacts: ArtifactConfig{
			Dir:            "models",
			DefaultVariant: string(model.Logistic),
		},
		Server: ServerConfig{
			Addr:            ":8080",
			ShutdownTimeout: 10 * time.Second,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Output: OutputConfig{
			Verbosity: "standard",
		},
	}
}

// Load builds the configuration from defaults, then the YAML file named by
// TELLER_CONFIG (default teller.yaml, skipped when missing), then TELLER_*
// environment variables.
func Load() (Config, error) {
	cfg := Default()
	if err := loadFile(getenv("TELLER_CONFIG", "teller.yaml"), &cfg); err != nil {
		return Config{}, err
	}
	applyEnv(&cfg)
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.Artifacts.Dir = getenv("TELLER_ARTIFACT_DIR", cfg.Artifacts.Dir)
	cfg.Artifacts.ONNXLibrary = getenv("TELLER_ONNX_LIBRARY", cfg.Artifacts.ONNXLibrary)
	cfg.Artifacts.DefaultVariant = getenv("TELLER_DEFAULT_VARIANT", cfg.Artifacts.DefaultVariant)
	cfg.Artifacts.Warm = getenvBool("TELLER_WARM", cfg.Artifacts.Warm)

	cfg.Lexicon.WordNetDir = getenv("TELLER_WORDNET_DIR", cfg.Lexicon.WordNetDir)
	cfg.Lexicon.StopwordsPath = getenv("TELLER_STOPWORDS_PATH", cfg.Lexicon.StopwordsPath)

	cfg.Server.Addr = getenv("TELLER_ADDR", cfg.Server.Addr)
	cfg.Server.ShutdownTimeout = getenvDuration("TELLER_SHUTDOWN_TIMEOUT", cfg.Server.ShutdownTimeout)

	cfg.Logging.Level = getenv("TELLER_LOG_LEVEL", cfg.Logging.Level)
	cfg.Logging.JSON = getenvBool("TELLER_LOG_JSON", cfg.Logging.JSON)

	cfg.Output.Pretty = getenvBool("TELLER_OUTPUT_PRETTY", cfg.Output.Pretty)
	cfg.Output.Path = getenv("TELLER_OUTPUT_PATH", cfg.Output.Path)
	cfg.Output.Verbosity = getenv("TELLER_VERBOSITY", cfg.Output.Verbosity)
	cfg.Output.WebhookURL = getenv("TELLER_WEBHOOK_URL", cfg.Output.WebhookURL)
}

// Validate checks the loaded config for required fields and safe values.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Artifacts.Dir) == "" {
		return errors.New("config: artifacts.dir must be set")
	}
	if _, err := model.ParseVariant(c.Artifacts.DefaultVariant); err != nil {
		return fmt.Errorf("config: artifacts.default_variant: %w", err)
	}
	if strings.TrimSpace(c.Server.Addr) == "" {
		return errors.New("config: server.addr must be set")
	}
	if c.Server.ShutdownTimeout < 0 {
		return fmt.Errorf("config: server.shutdown_timeout must not be negative, got %v", c.Server.ShutdownTimeout)
	}
	switch strings.ToLower(c.Output.Verbosity) {
	case "", "minimal", "standard":
	default:
		return fmt.Errorf("config: output.verbosity must be minimal or standard, got %q", c.Output.Verbosity)
	}
	if c.Lexicon.WordNetDir != "" {
		if info, err := os.Stat(c.Lexicon.WordNetDir); err != nil || !info.IsDir() {
			return fmt.Errorf("config: lexicon.wordnet_dir %q is not a directory", c.Lexicon.WordNetDir)
		}
	}
	return nil
}

// Variant returns the parsed default variant. Call Validate first.
func (c Config) Variant() model.Variant {
	v, err := model.ParseVariant(c.Artifacts.DefaultVariant)
	if err != nil {
		return model.Logistic
	}
	return v
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
