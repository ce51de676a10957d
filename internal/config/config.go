package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Supported completion providers.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// Config holds the bizlookup configuration.
type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	Completion CompletionConfig `yaml:"completion"`
	Prompt     PromptConfig     `yaml:"prompt"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// CompletionConfig holds the hosted model settings.
// An empty APIKey is allowed: every lookup then fails with a missing-credential error.
type CompletionConfig struct {
	Provider             string   `yaml:"provider"` // gemini, openai (default: gemini)
	APIKey               string   `yaml:"api_key"`
	BaseURL              string   `yaml:"base_url"`
	Model                string   `yaml:"model"`
	Temperature          *float32 `yaml:"temperature"`
	WebSearch            *bool    `yaml:"web_search"`
	WebSearchModelSuffix string   `yaml:"web_search_model_suffix"` // openai only, e.g. ":online"
	TimeoutSec           int      `yaml:"timeout_sec"`
	RateLimitPerMin      int      `yaml:"rate_limit_per_min"` // 0 = unlimited
	RateBurst            int      `yaml:"rate_burst"`
	DailyTokenBudget     int64    `yaml:"daily_token_budget"`   // 0 = unlimited
	MonthlyTokenBudget   int64    `yaml:"monthly_token_budget"` // 0 = unlimited
	BudgetAction         string   `yaml:"budget_action"`        // warn, reject (default: warn)
}

// PromptConfig holds the tunable prompt wording.
type PromptConfig struct {
	Region            *string `yaml:"region"` // nil = Malaysia, "" = no restriction
	MinResults        int     `yaml:"min_results"`
	MaxResults        int     `yaml:"max_results"`
	ExtraInstructions string  `yaml:"extra_instructions"`
}

// HasCredential reports whether an API key is configured.
func (c CompletionConfig) HasCredential() bool {
	return strings.TrimSpace(c.APIKey) != ""
}

// TemperatureValue returns the configured sampling temperature.
func (c CompletionConfig) TemperatureValue() float32 {
	if c.Temperature == nil {
		return defaultTemperature
	}
	return *c.Temperature
}

// WebSearchEnabled reports whether search grounding is requested.
func (c CompletionConfig) WebSearchEnabled() bool {
	return c.WebSearch == nil || *c.WebSearch
}

// RegionValue returns the region the prompt restricts to.
func (p PromptConfig) RegionValue() string {
	if p.Region == nil {
		return defaultRegion
	}
	return *p.Region
}

const (
	defaultTemperature float32 = 0.7
	defaultRegion              = "Malaysia"
)

// FallbackCredentialEnvs are consulted in order when completion.api_key resolves empty.
var FallbackCredentialEnvs = []string{"GEMINI_API_KEY", "API_KEY"}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
// A .env file in the working directory, if present, is loaded first.
func Load(env string) (Config, error) {
	if err := LoadDotEnv(".env"); err != nil {
		return Config{}, err
	}
	return LoadFile(findConfigPath(env))
}

// LoadFile reads configuration from an explicit YAML path.
func LoadFile(configPath string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	for _, name := range FallbackCredentialEnvs {
		if cfg.Completion.HasCredential() {
			break
		}
		cfg.Completion.APIKey = os.Getenv(name)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// LoadDotEnv loads variables from a dotenv file without overriding the process
// environment. A missing file is not an error.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.Port == 0 {
		c.HTTP.Port = 8080
	}
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		// a grounded completion routinely takes 20-40s
		c.HTTP.WriteTimeoutSec = 90
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Completion.Provider == "" {
		c.Completion.Provider = ProviderGemini
	}
	if c.Completion.Model == "" {
		switch c.Completion.Provider {
		case ProviderOpenAI:
			c.Completion.Model = "gpt-4o-mini"
		default:
			c.Completion.Model = "gemini-2.5-flash"
		}
	}
	if c.Completion.TimeoutSec <= 0 {
		c.Completion.TimeoutSec = 60
	}
	if c.Completion.RateBurst <= 0 {
		c.Completion.RateBurst = 1
	}
	if c.Completion.BudgetAction == "" {
		c.Completion.BudgetAction = "warn"
	}
	if c.Prompt.MinResults <= 0 {
		c.Prompt.MinResults = 15
	}
	if c.Prompt.MaxResults <= 0 {
		c.Prompt.MaxResults = 20
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	switch c.Completion.Provider {
	case ProviderGemini, ProviderOpenAI:
		// ok
	default:
		return fmt.Errorf("completion.provider must be %q or %q, got %q",
			ProviderGemini, ProviderOpenAI, c.Completion.Provider)
	}
	if t := c.Completion.TemperatureValue(); t < 0 || t > 2 {
		return fmt.Errorf("completion.temperature must be between 0 and 2, got %g", t)
	}
	if c.Completion.RateLimitPerMin < 0 {
		return fmt.Errorf("completion.rate_limit_per_min must not be negative, got %d", c.Completion.RateLimitPerMin)
	}
	if c.Completion.DailyTokenBudget < 0 || c.Completion.MonthlyTokenBudget < 0 {
		return errors.New("completion token budgets must not be negative")
	}
	switch c.Completion.BudgetAction {
	case "", "warn", "reject":
		// ok
	default:
		return fmt.Errorf("completion.budget_action must be \"warn\" or \"reject\", got %q", c.Completion.BudgetAction)
	}
	if c.Prompt.MaxResults < c.Prompt.MinResults {
		return fmt.Errorf("prompt.max_results (%d) must not be below prompt.min_results (%d)",
			c.Prompt.MaxResults, c.Prompt.MinResults)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
