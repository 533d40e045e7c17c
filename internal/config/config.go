package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Gemini     GeminiConfig     `yaml:"gemini"`
	Bedrock    BedrockConfig    `yaml:"bedrock"`
	Redis      RedisConfig      `yaml:"redis"`
	Auth       AuthConfig       `yaml:"auth"`
	Generation GenerationConfig `yaml:"generation"`
	Tour       TourConfig       `yaml:"tour"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port int    `yaml:"port"`
	Host string `yaml:"host"`
}

// GetHost returns the server host, with container detection
func (c ServerConfig) GetHost() string {
	// In a container, listen on all interfaces
	if os.Getenv("ECS_CONTAINER_METADATA_URI") != "" || os.Getenv("AWS_EXECUTION_ENV") != "" {
		return "0.0.0.0"
	}
	if host := os.Getenv("SERVER_HOST"); host != "" {
		return host
	}
	return c.Host
}

// GeminiConfig holds the Gemini API configuration used for both content
// generation and tour narration. A missing APIKey is not a startup error;
// the client surfaces it when the first call is attempted.
type GeminiConfig struct {
	APIKey         string `yaml:"api_key"`
	Model          string `yaml:"model"`
	TTSModel       string `yaml:"tts_model"`
	Voice          string `yaml:"voice"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// Timeout returns the configured timeout as a duration
func (c GeminiConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// BedrockConfig holds the optional AWS Bedrock fallback generator settings
type BedrockConfig struct {
	Enabled bool   `yaml:"enabled"`
	ModelID string `yaml:"model_id"`
	Region  string `yaml:"region"`
}

// RedisConfig holds the optional Redis connection for run progress tracking.
// When Addr is empty the service falls back to in-process progress tracking.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// AuthConfig holds the simulated authentication settings
type AuthConfig struct {
	LoginDelayMS  int `yaml:"login_delay_ms"`
	SessionTTLMin int `yaml:"session_ttl_min"`
}

// LoginDelay returns the simulated credential-check delay
func (c AuthConfig) LoginDelay() time.Duration {
	return time.Duration(c.LoginDelayMS) * time.Millisecond
}

// SessionTTL returns the session lifetime
func (c AuthConfig) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLMin) * time.Minute
}

// GenerationConfig holds orchestrator settings
type GenerationConfig struct {
	TimeoutSeconds int `yaml:"timeout_seconds"` // per-row call timeout
}

// Timeout returns the per-row generation timeout as a duration
func (c GenerationConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// TourConfig holds guided tour pacing settings
type TourConfig struct {
	StepDelayMS     int `yaml:"step_delay_ms"`
	FallbackDelayMS int `yaml:"fallback_delay_ms"`
}

// StepDelay returns the pause between narration end and the next step
func (c TourConfig) StepDelay() time.Duration {
	return time.Duration(c.StepDelayMS) * time.Millisecond
}

// FallbackDelay returns the advance delay used when narration fails
func (c TourConfig) FallbackDelay() time.Duration {
	return time.Duration(c.FallbackDelayMS) * time.Millisecond
}

// Load reads and parses the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	// Set defaults
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Gemini.Model == "" {
		cfg.Gemini.Model = "gemini-3-pro-preview"
	}
	if cfg.Gemini.TTSModel == "" {
		cfg.Gemini.TTSModel = "gemini-2.5-flash-preview-tts"
	}
	if cfg.Gemini.Voice == "" {
		cfg.Gemini.Voice = "Kore"
	}
	if cfg.Gemini.TimeoutSeconds == 0 {
		cfg.Gemini.TimeoutSeconds = 60
	}
	if cfg.Bedrock.ModelID == "" {
		cfg.Bedrock.ModelID = "anthropic.claude-3-sonnet-20240229-v1:0"
	}
	if cfg.Bedrock.Region == "" {
		cfg.Bedrock.Region = "us-east-1"
	}
	if cfg.Auth.LoginDelayMS == 0 {
		cfg.Auth.LoginDelayMS = 1500
	}
	if cfg.Auth.SessionTTLMin == 0 {
		cfg.Auth.SessionTTLMin = 24 * 60
	}
	if cfg.Generation.TimeoutSeconds == 0 {
		cfg.Generation.TimeoutSeconds = 60
	}
	if cfg.Tour.StepDelayMS == 0 {
		cfg.Tour.StepDelayMS = 500
	}
	if cfg.Tour.FallbackDelayMS == 0 {
		cfg.Tour.FallbackDelayMS = 4000
	}

	return &cfg, nil
}

// LoadFromEnv loads configuration with environment variable overrides.
// It automatically loads a .env file (if present) before reading env vars,
// so secrets can live in .env locally and in real env vars in deployment.
func LoadFromEnv(path string) (*Config, error) {
	// Load .env file if it exists (no error if missing)
	_ = godotenv.Load()

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	// Override with environment variables if present
	if apiKey := os.Getenv("GEMINI_API_KEY"); apiKey != "" {
		cfg.Gemini.APIKey = apiKey
	}
	if apiKey := os.Getenv("API_KEY"); apiKey != "" && cfg.Gemini.APIKey == "" {
		cfg.Gemini.APIKey = apiKey
	}
	if model := os.Getenv("GEMINI_MODEL"); model != "" {
		cfg.Gemini.Model = model
	}
	if region := os.Getenv("AWS_REGION"); region != "" {
		cfg.Bedrock.Region = region
	}
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		cfg.Redis.Addr = addr
	}
	if pass := os.Getenv("REDIS_PASSWORD"); pass != "" {
		cfg.Redis.Password = pass
	}

	return cfg, nil
}
