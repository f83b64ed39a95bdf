package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/joseph-ayodele/docextract/constants"
)

// Config holds all application configuration
type Config struct {
	LLM    LLMConfig    `yaml:"llm"`
	Queue  QueueConfig  `yaml:"queue"`
	Server ServerConfig `yaml:"server"`
	Export ExportConfig `yaml:"export"`
	Log    LogConfig    `yaml:"log"`
}

// LLMConfig selects and configures the extraction backend
type LLMConfig struct {
	Provider    string        `yaml:"provider"` // gemini | vertex | langchain
	Model       string        `yaml:"model"`
	APIKey      string        `yaml:"api_key"`
	BaseURL     string        `yaml:"base_url"`
	Temperature float32       `yaml:"temperature"`
	Timeout     time.Duration `yaml:"timeout"`

	VertexProject  string `yaml:"vertex_project"`
	VertexLocation string `yaml:"vertex_location"`

	LangchainProvider string `yaml:"langchain_provider"` // openai | anthropic | ollama | googleai
	OllamaHost        string `yaml:"ollama_host"`
}

// QueueConfig is the admission policy of the processing queue
type QueueConfig struct {
	MinInterval    time.Duration `yaml:"min_interval"`
	MaxInFlight    int           `yaml:"max_in_flight"`
	ProcessTimeout time.Duration `yaml:"process_timeout"`
}

// ServerConfig holds listener addresses for serve mode
type ServerConfig struct {
	HTTPAddr string `yaml:"http_addr"`
	GRPCAddr string `yaml:"grpc_addr"`
}

// ExportConfig configures where export artifacts go
type ExportConfig struct {
	Dir            string `yaml:"dir"`
	MinioEndpoint  string `yaml:"minio_endpoint"`
	MinioAccessKey string `yaml:"minio_access_key"`
	MinioSecretKey string `yaml:"minio_secret_key"`
	MinioBucket    string `yaml:"minio_bucket"`
	MinioUseSSL    bool   `yaml:"minio_use_ssl"`
	GCSBucket      string `yaml:"gcs_bucket"`
}

// LogConfig configures logging outputs
type LogConfig struct {
	Level  string `yaml:"level"`
	File   string `yaml:"file"`
	Format string `yaml:"format"` // text | json
}

const (
	ProviderGemini    = "gemini"
	ProviderVertex    = "vertex"
	ProviderLangchain = "langchain"
)

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider:          ProviderGemini,
			Model:             constants.DefaultGeminiModel,
			BaseURL:           constants.DefaultGeminiBaseURL,
			Temperature:       constants.DefaultTemperature,
			Timeout:           constants.DefaultLLMTimeout,
			VertexLocation:    "us-central1",
			LangchainProvider: "openai",
			OllamaHost:        "http://localhost:11434",
		},
		Queue: QueueConfig{
			MinInterval: constants.DefaultMinInterval,
			MaxInFlight: constants.DefaultMaxInFlight,
		},
		Server: ServerConfig{
			HTTPAddr: ":8080",
			GRPCAddr: ":9090",
		},
		Export: ExportConfig{
			Dir: ".",
		},
		Log: LogConfig{
			Level:  "INFO",
			Format: "text",
		},
	}
}

// LoadConfig builds configuration from defaults, an optional YAML file and environment variables,
// in that order of precedence (environment wins).
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, NewAppError("CONFIG_ERROR", "read config file", err)
		}
		if err := yaml.Unmarshal(b, cfg); err != nil {
			return nil, NewAppError("CONFIG_ERROR", fmt.Sprintf("parse %s", path), err)
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.LLM.Provider = getEnv("DOCEXTRACT_LLM_PROVIDER", c.LLM.Provider)
	c.LLM.APIKey = getEnv("GEMINI_API_KEY", getEnv("API_KEY", c.LLM.APIKey))
	c.LLM.Model = getEnv("GEMINI_MODEL", c.LLM.Model)
	c.LLM.BaseURL = getEnv("GEMINI_BASE_URL", c.LLM.BaseURL)
	c.LLM.Temperature = getEnvAsFloat32("LLM_TEMPERATURE", c.LLM.Temperature)
	c.LLM.Timeout = getEnvAsDuration("LLM_TIMEOUT", c.LLM.Timeout)
	c.LLM.VertexProject = getEnv("VERTEX_PROJECT", c.LLM.VertexProject)
	c.LLM.VertexLocation = getEnv("VERTEX_LOCATION", c.LLM.VertexLocation)
	c.LLM.LangchainProvider = getEnv("LANGCHAIN_PROVIDER", c.LLM.LangchainProvider)
	c.LLM.OllamaHost = getEnv("OLLAMA_HOST", c.LLM.OllamaHost)

	c.Queue.MinInterval = getEnvAsDuration("QUEUE_MIN_INTERVAL", c.Queue.MinInterval)
	c.Queue.MaxInFlight = getEnvAsInt("QUEUE_MAX_IN_FLIGHT", c.Queue.MaxInFlight)
	c.Queue.ProcessTimeout = getEnvAsDuration("QUEUE_PROCESS_TIMEOUT", c.Queue.ProcessTimeout)

	c.Server.HTTPAddr = getEnv("HTTP_ADDR", c.Server.HTTPAddr)
	c.Server.GRPCAddr = getEnv("GRPC_ADDR", c.Server.GRPCAddr)

	c.Export.Dir = getEnv("EXPORT_DIR", c.Export.Dir)
	c.Export.MinioEndpoint = getEnv("MINIO_ENDPOINT", c.Export.MinioEndpoint)
	c.Export.MinioAccessKey = getEnv("MINIO_ACCESS_KEY", c.Export.MinioAccessKey)
	c.Export.MinioSecretKey = getEnv("MINIO_SECRET_KEY", c.Export.MinioSecretKey)
	c.Export.MinioBucket = getEnv("MINIO_BUCKET", c.Export.MinioBucket)
	c.Export.MinioUseSSL = getEnvAsBool("MINIO_USE_SSL", c.Export.MinioUseSSL)
	c.Export.GCSBucket = getEnv("GCS_BUCKET", c.Export.GCSBucket)

	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
	c.Log.File = getEnv("LOG_FILE", c.Log.File)
	c.Log.Format = getEnv("LOG_FORMAT", c.Log.Format)
}

// LangchainAPIKey returns the key for the configured langchain sub-provider.
func (c *Config) LangchainAPIKey() string {
	switch c.LLM.LangchainProvider {
	case "openai":
		return os.Getenv("OPENAI_API_KEY")
	case "anthropic":
		return os.Getenv("ANTHROPIC_API_KEY")
	case "googleai":
		return c.LLM.APIKey
	}
	return ""
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate checks the loaded configuration. requireServer also checks listener addresses.
func (c *Config) Validate(requireServer bool) error {
	v := NewValidator().
		Field("llm.provider", c.LLM.Provider, OneOf(ProviderGemini, ProviderVertex, ProviderLangchain)).
		Field("queue.min_interval", c.Queue.MinInterval, NonNegativeDuration).
		Field("queue.max_in_flight", c.Queue.MaxInFlight, Positive).
		Field("log.level", strings.ToUpper(c.Log.Level), OneOf("DEBUG", "INFO", "WARN", "WARNING", "ERROR"))

	switch c.LLM.Provider {
	case ProviderGemini:
		v.Field("GEMINI_API_KEY", c.LLM.APIKey, Required)
	case ProviderVertex:
		v.Field("VERTEX_PROJECT", c.LLM.VertexProject, Required).
			Field("VERTEX_LOCATION", c.LLM.VertexLocation, Required)
	case ProviderLangchain:
		v.Field("LANGCHAIN_PROVIDER", c.LLM.LangchainProvider, OneOf("openai", "anthropic", "ollama", "googleai"))
	}
	if requireServer {
		v.Field("HTTP_ADDR", c.Server.HTTPAddr, Required)
	}

	if v.HasErrors() {
		return NewAppError("CONFIG_ERROR", v.ErrorMessage(), ErrInvalidInput)
	}
	return nil
}
