package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/hejijunhao/teller/internal/model"
)

var envKeys = []string{
	"TELLER_CONFIG", "TELLER_ARTIFACT_DIR", "TELLER_ONNX_LIBRARY",
	"TELLER_DEFAULT_VARIANT", "TELLER_WARM", "TELLER_WORDNET_DIR",
	"TELLER_STOPWORDS_PATH", "TELLER_ADDR", "TELLER_SHUTDOWN_TIMEOUT",
	"TELLER_LOG_LEVEL", "TELLER_LOG_JSON", "TELLER_OUTPUT_PRETTY", "TELLER_OUTPUT_PATH",
	"TELLER_VERBOSITY", "TELLER_WEBHOOK_URL",
}

// clearEnv unsets every TELLER_* key for the duration of the test and
// points TELLER_CONFIG at a file that does not exist.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range envKeys {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
	t.Setenv("TELLER_CONFIG", filepath.Join(t.TempDir(), "absent.yaml"))
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Artifacts.Dir != "models" {
		t.Fatalf("expected default artifact dir 'models', got %q", cfg.Artifacts.Dir)
	}
	if cfg.Artifacts.DefaultVariant != "logistic" {
		t.Fatalf("expected default variant 'logistic', got %q", cfg.Artifacts.DefaultVariant)
	}
	if cfg.Server.Addr != ":8080" {
		t.Fatalf("expected default addr ':8080', got %q", cfg.Server.Addr)
	}
	if cfg.Server.ShutdownTimeout != 10*time.Second {
		t.Fatalf("expected default ShutdownTimeout=10s, got %v", cfg.Server.ShutdownTimeout)
	}
	if cfg.Logging.JSON || cfg.Output.Pretty || cfg.Artifacts.Warm {
		t.Fatal("expected boolean settings to default to false")
	}
	if cfg.Output.Verbosity != "standard" {
		t.Fatalf("expected default verbosity 'standard', got %q", cfg.Output.Verbosity)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestLoad_Env(t *testing.T) {
	clearEnv(t)
	t.Setenv("TELLER_ARTIFACT_DIR", "/srv/artifacts")
	t.Setenv("TELLER_DEFAULT_VARIANT", "Support Vector Machine")
	t.Setenv("TELLER_LOG_JSON", "true")
	t.Setenv("TELLER_WARM", "1")
	t.Setenv("TELLER_SHUTDOWN_TIMEOUT", "3s")
	t.Setenv("TELLER_VERBOSITY", "minimal")
	t.Setenv("TELLER_WEBHOOK_URL", "https://hooks.example.com/teller")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Artifacts.Dir != "/srv/artifacts" {
		t.Errorf("Dir = %q", cfg.Artifacts.Dir)
	}
	if cfg.Variant() != model.SVM {
		t.Errorf("Variant() = %q, want svm", cfg.Variant())
	}
	if !cfg.Logging.JSON || !cfg.Artifacts.Warm {
		t.Error("expected JSON logging and warm-up enabled")
	}
	if cfg.Server.ShutdownTimeout != 3*time.Second {
		t.Errorf("ShutdownTimeout = %v, want 3s", cfg.Server.ShutdownTimeout)
	}
	if cfg.Output.Verbosity != "minimal" || cfg.Output.WebhookURL != "https://hooks.example.com/teller" {
		t.Errorf("Output = %+v", cfg.Output)
	}
}

func TestLoad_InvalidEnvFallsBack(t *testing.T) {
	clearEnv(t)
	t.Setenv("TELLER_LOG_JSON", "sometimes")
	t.Setenv("TELLER_SHUTDOWN_TIMEOUT", "soon")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Logging.JSON {
		t.Error("unparseable bool should fall back to false")
	}
	if cfg.Server.ShutdownTimeout != 10*time.Second {
		t.Errorf("unparseable duration should fall back, got %v", cfg.Server.ShutdownTimeout)
	}
}

func TestLoad_YAMLWithEnvOverride(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "teller.yaml")
	body := `
artifacts:
  dir: /opt/teller/models
  default_variant: svm
server:
  addr: ":9090"
  shutdown_timeout: 30s
logging:
  level: debug
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("TELLER_CONFIG", path)
	t.Setenv("TELLER_ADDR", ":7070")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Artifacts.Dir != "/opt/teller/models" {
		t.Errorf("Dir = %q, want value from file", cfg.Artifacts.Dir)
	}
	if cfg.Variant() != model.SVM {
		t.Errorf("Variant() = %q, want svm", cfg.Variant())
	}
	if cfg.Server.Addr != ":7070" {
		t.Errorf("Addr = %q, env should override file", cfg.Server.Addr)
	}
	if cfg.Server.ShutdownTimeout != 30*time.Second {
		t.Errorf("ShutdownTimeout = %v, want 30s", cfg.Server.ShutdownTimeout)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Level = %q, want debug", cfg.Logging.Level)
	}
}

func TestLoad_MalformedYAML(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "teller.yaml")
	os.WriteFile(path, []byte("artifacts: [unclosed"), 0o644)
	t.Setenv("TELLER_CONFIG", path)

	if _, err := Load(); err == nil {
		t.Fatal("expected error for malformed YAML")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mut     func(*Config)
		wantErr string
	}{
		{"ok", func(*Config) {}, ""},
		{"empty dir", func(c *Config) { c.Artifacts.Dir = " " }, "artifacts.dir"},
		{"bad variant", func(c *Config) { c.Artifacts.DefaultVariant = "naive_bayes" }, "default_variant"},
		{"empty addr", func(c *Config) { c.Server.Addr = "" }, "server.addr"},
		{"negative timeout", func(c *Config) { c.Server.ShutdownTimeout = -time.Second }, "shutdown_timeout"},
		{"bad verbosity", func(c *Config) { c.Output.Verbosity = "loud" }, "verbosity"},
		{"missing wordnet", func(c *Config) { c.Lexicon.WordNetDir = "/nonexistent/wordnet" }, "wordnet_dir"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mut(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("error = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}
