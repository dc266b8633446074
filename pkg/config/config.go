package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config rappresenta la configurazione completa dell'applicazione
type Config struct {
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	LLM        LLMConfig        `yaml:"llm" mapstructure:"llm"`
	Search     SearchConfig     `yaml:"search" mapstructure:"search"`
	Cache      CacheConfig      `yaml:"cache" mapstructure:"cache"`
	Redis      RedisConfig      `yaml:"redis" mapstructure:"redis"`
	Pipeline   PipelineConfig   `yaml:"pipeline" mapstructure:"pipeline"`
	Monitoring MonitoringConfig `yaml:"monitoring" mapstructure:"monitoring"`
}

// ServerConfig configurazione del server web
type ServerConfig struct {
	Port int    `yaml:"port" mapstructure:"port"`
	Host string `yaml:"host" mapstructure:"host"`
	// Richieste di generazione al minuto per IP (0 = nessun limite)
	RateLimit int `yaml:"rate_limit" mapstructure:"rate_limit"`
}

// LLMConfig configurazione del modello linguistico
type LLMConfig struct {
	BaseURL     string        `yaml:"base_url" mapstructure:"base_url"`
	APIKey      string        `yaml:"api_key" mapstructure:"api_key"`
	Model       string        `yaml:"model" mapstructure:"model"`
	Temperature float64       `yaml:"temperature" mapstructure:"temperature"`
	MaxTokens   int           `yaml:"max_tokens" mapstructure:"max_tokens"`
	Timeout     time.Duration `yaml:"timeout" mapstructure:"timeout"`
	// Se true, una credenziale mancante attiva il degraded mode invece di un errore
	AllowDegraded bool `yaml:"allow_degraded" mapstructure:"allow_degraded"`
}

// SearchConfig configurazione del provider di ricerca web
type SearchConfig struct {
	Provider   string        `yaml:"provider" mapstructure:"provider"` // "duckduckgo", "brave", "none"
	APIKey     string        `yaml:"api_key" mapstructure:"api_key"`
	MaxResults int           `yaml:"max_results" mapstructure:"max_results"`
	Timeout    time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// CacheConfig configurazione del cache dei risultati di ricerca
type CacheConfig struct {
	Type       string        `yaml:"type" mapstructure:"type"` // "memory", "redis", "none"
	TTL        time.Duration `yaml:"ttl" mapstructure:"ttl"`
	MaxEntries int           `yaml:"max_entries" mapstructure:"max_entries"`
}

// RedisConfig configurazione Redis
type RedisConfig struct {
	Host     string `yaml:"host" mapstructure:"host"`
	Password string `yaml:"password" mapstructure:"password"`
	DB       int    `yaml:"db" mapstructure:"db"`
}

// PipelineConfig configurazione dell'esecuzione degli agenti
type PipelineConfig struct {
	MaxIterations int `yaml:"max_iterations" mapstructure:"max_iterations"`
	MaxTopicLen   int `yaml:"max_topic_length" mapstructure:"max_topic_length"`
}

// MonitoringConfig configurazione monitoring
type MonitoringConfig struct {
	Prometheus PrometheusConfig `yaml:"prometheus" mapstructure:"prometheus"`
	Logging    LoggingConfig    `yaml:"logging" mapstructure:"logging"`
}

// PrometheusConfig configurazione dell'endpoint /metrics
type PrometheusConfig struct {
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
}

// LoggingConfig configurazione del logger
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"` // "json" o "console"
}

// Load carica la configurazione da file
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Read config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	// Read environment variables
	v.SetEnvPrefix("GOLEAPSOCIAL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindWellKnownEnv(v)

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found, use defaults
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// Default restituisce la configurazione con i soli valori di default
func Default() *Config {
	v := viper.New()
	setDefaults(v)

	var cfg Config
	// Con i soli default l'unmarshal non può fallire
	_ = v.Unmarshal(&cfg)
	return &cfg
}

// bindWellKnownEnv collega le variabili d'ambiente standard dei provider
func bindWellKnownEnv(v *viper.Viper) {
	_ = v.BindEnv("llm.api_key", "GOLEAPSOCIAL_LLM_API_KEY", "OPENAI_API_KEY")
	_ = v.BindEnv("llm.base_url", "GOLEAPSOCIAL_LLM_BASE_URL", "OPENAI_BASE_URL")
	_ = v.BindEnv("search.api_key", "GOLEAPSOCIAL_SEARCH_API_KEY", "BRAVE_API_KEY")
}

// setDefaults imposta i valori di default
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.rate_limit", 10)

	// LLM defaults
	v.SetDefault("llm.base_url", "https://api.openai.com")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.model", "gpt-4o-mini")
	v.SetDefault("llm.temperature", 0.3)
	v.SetDefault("llm.max_tokens", 3000)
	v.SetDefault("llm.timeout", "60s")
	v.SetDefault("llm.allow_degraded", false)

	// Search defaults
	v.SetDefault("search.provider", "duckduckgo")
	v.SetDefault("search.api_key", "")
	v.SetDefault("search.max_results", 5)
	v.SetDefault("search.timeout", "30s")

	// Cache defaults
	v.SetDefault("cache.type", "memory")
	v.SetDefault("cache.ttl", "15m")
	v.SetDefault("cache.max_entries", 256)

	// Redis defaults
	v.SetDefault("redis.host", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	// Pipeline defaults
	v.SetDefault("pipeline.max_iterations", 8)
	v.SetDefault("pipeline.max_topic_length", 200)

	// Monitoring defaults
	v.SetDefault("monitoring.prometheus.enabled", true)
	v.SetDefault("monitoring.logging.level", "info")
	v.SetDefault("monitoring.logging.format", "json")
}

// Validate valida la configurazione
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Server.RateLimit < 0 {
		return fmt.Errorf("invalid server rate limit: %d", c.Server.RateLimit)
	}

	if c.LLM.BaseURL == "" {
		return fmt.Errorf("llm base_url is required")
	}

	if c.LLM.Model == "" {
		return fmt.Errorf("llm model is required")
	}

	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return fmt.Errorf("invalid llm temperature: %.2f", c.LLM.Temperature)
	}

	if c.LLM.MaxTokens < 1 {
		return fmt.Errorf("invalid llm max_tokens: %d", c.LLM.MaxTokens)
	}

	if c.LLM.Timeout <= 0 {
		return fmt.Errorf("invalid llm timeout: %s", c.LLM.Timeout)
	}

	switch c.Search.Provider {
	case "duckduckgo", "brave", "none":
	default:
		return fmt.Errorf("unsupported search provider: %s", c.Search.Provider)
	}

	if c.Search.MaxResults < 1 || c.Search.MaxResults > 10 {
		return fmt.Errorf("invalid search max_results: %d (allowed 1-10)", c.Search.MaxResults)
	}

	if c.Search.Timeout <= 0 {
		return fmt.Errorf("invalid search timeout: %s", c.Search.Timeout)
	}

	switch c.Cache.Type {
	case "memory", "redis", "none":
	default:
		return fmt.Errorf("unsupported cache type: %s", c.Cache.Type)
	}

	if c.Cache.Type == "memory" && c.Cache.MaxEntries < 1 {
		return fmt.Errorf("invalid cache max_entries: %d", c.Cache.MaxEntries)
	}

	if c.Cache.Type == "redis" && c.Redis.Host == "" {
		return fmt.Errorf("redis host is required when cache type is redis")
	}

	if c.Pipeline.MaxIterations < 1 {
		return fmt.Errorf("invalid pipeline max_iterations: %d", c.Pipeline.MaxIterations)
	}

	if c.Pipeline.MaxTopicLen < 1 {
		return fmt.Errorf("invalid pipeline max_topic_length: %d", c.Pipeline.MaxTopicLen)
	}

	return nil
}
