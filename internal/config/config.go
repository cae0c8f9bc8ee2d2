package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"finadvisor/internal/models"

	"gopkg.in/yaml.v3"
)

// Load loads configuration from file and environment variables
func Load(configPath string) (*models.Config, error) {
	// Start with default configuration
	config := models.NewDefaultConfig()

	// Load from file if provided and exists
	if configPath != "" {
		if err := loadFromFile(config, configPath); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	// Override with environment variables
	loadFromEnvironment(config)

	// Validate the final configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// deprecatedConfig mirrors removed config fields for detecting stale operator configs.
type deprecatedConfig struct {
	Server struct {
		TLSEnabled interface{} `yaml:"tls_enabled"`
	} `yaml:"server"`
	Security struct {
		RateLimit interface{} `yaml:"rate_limit"`
	} `yaml:"security"`
	Cache struct {
		Type  string      `yaml:"type"`
		Redis interface{} `yaml:"redis"`
	} `yaml:"cache"`
}

// warnDeprecatedKeys logs a warning for each removed config key found in the YAML data.
// The service continues to start normally - these keys are silently ignored by the main decoder.
func warnDeprecatedKeys(data []byte) {
	var dep deprecatedConfig
	if err := yaml.Unmarshal(data, &dep); err != nil {
		return
	}
	if dep.Server.TLSEnabled != nil {
		slog.Warn("Config key is no longer supported; terminate TLS at your reverse proxy.", "config_key", "server.tls_enabled")
	}
	if dep.Security.RateLimit != nil {
		slog.Warn("Config key has moved; use the top-level rate_limit section instead.", "config_key", "security.rate_limit")
	}
	if dep.Cache.Type != "" {
		slog.Warn("Config key is no longer supported; the quote cache is in-process only.", "config_key", "cache.type")
	}
	if dep.Cache.Redis != nil {
		slog.Warn("Config key is no longer supported; redis is configured under rate_limit.redis.", "config_key", "cache.redis")
	}
}

// loadFromFile loads configuration from a YAML file
func loadFromFile(config *models.Config, filePath string) error {
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return fmt.Errorf("config file not found: %s", filePath)
	}
	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	warnDeprecatedKeys(data)
	if err := yaml.Unmarshal(data, config); err != nil {
		return fmt.Errorf("failed to parse YAML config: %w", err)
	}
	return nil
}

// loadFromEnvironment loads configuration from environment variables
func loadFromEnvironment(config *models.Config) {
	// Server configuration
	if port := os.Getenv("FINADVISOR_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}

	if host := os.Getenv("FINADVISOR_HOST"); host != "" {
		config.Server.Host = host
	}

	if timeout := os.Getenv("FINADVISOR_READ_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil {
			config.Server.ReadTimeout = d
		}
	}

	if timeout := os.Getenv("FINADVISOR_WRITE_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil {
			config.Server.WriteTimeout = d
		}
	}

	if timeout := os.Getenv("FINADVISOR_IDLE_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil {
			config.Server.IdleTimeout = d
		}
	}

	// Rate limit configuration
	if enabled := os.Getenv("FINADVISOR_RATE_LIMIT_ENABLED"); enabled != "" {
		config.RateLimit.Enabled = strings.ToLower(enabled) == "true"
	}

	if max := os.Getenv("FINADVISOR_RATE_LIMIT_MAX_REQUESTS"); max != "" {
		if m, err := strconv.Atoi(max); err == nil {
			config.RateLimit.MaxRequests = m
		}
	}

	if window := os.Getenv("FINADVISOR_RATE_LIMIT_WINDOW"); window != "" {
		if d, err := time.ParseDuration(window); err == nil {
			config.RateLimit.Window = d
		}
	}

	if sweep := os.Getenv("FINADVISOR_RATE_LIMIT_SWEEP_INTERVAL"); sweep != "" {
		if d, err := time.ParseDuration(sweep); err == nil {
			config.RateLimit.SweepInterval = d
		}
	}

	if store := os.Getenv("FINADVISOR_RATE_LIMIT_STORE"); store != "" {
		config.RateLimit.Store = store
	}

	// Redis configuration (shared-cache rate limit store)
	if addr := os.Getenv("FINADVISOR_REDIS_ADDR"); addr != "" {
		config.RateLimit.Redis.Addr = addr
	}

	if password := os.Getenv("FINADVISOR_REDIS_PASSWORD"); password != "" {
		config.RateLimit.Redis.Password = password
	}

	if db := os.Getenv("FINADVISOR_REDIS_DB"); db != "" {
		if dbNum, err := strconv.Atoi(db); err == nil {
			config.RateLimit.Redis.DB = dbNum
		}
	}

	if poolSize := os.Getenv("FINADVISOR_REDIS_POOL_SIZE"); poolSize != "" {
		if size, err := strconv.Atoi(poolSize); err == nil {
			config.RateLimit.Redis.PoolSize = size
		}
	}

	// LLM upstream configuration
	if key := os.Getenv("FINADVISOR_OPENAI_API_KEY"); key != "" {
		config.LLM.APIKey = key
	}

	if base := os.Getenv("FINADVISOR_OPENAI_BASE_URL"); base != "" {
		config.LLM.BaseURL = base
	}

	if model := os.Getenv("FINADVISOR_LLM_MODEL"); model != "" {
		config.LLM.Model = model
	}

	if timeout := os.Getenv("FINADVISOR_LLM_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil {
			config.LLM.Timeout = d
		}
	}

	// Market data upstream configuration
	if key := os.Getenv("FINADVISOR_MARKET_API_KEY"); key != "" {
		config.MarketData.APIKey = key
	}

	if base := os.Getenv("FINADVISOR_MARKET_BASE_URL"); base != "" {
		config.MarketData.BaseURL = base
	}

	// News upstream configuration
	if key := os.Getenv("FINADVISOR_NEWS_API_KEY"); key != "" {
		config.News.APIKey = key
	}

	if base := os.Getenv("FINADVISOR_NEWS_BASE_URL"); base != "" {
		config.News.BaseURL = base
	}

	// Storage configuration
	if storageType := os.Getenv("FINADVISOR_STORAGE_TYPE"); storageType != "" {
		config.Storage.Type = storageType
	}

	if storagePath := os.Getenv("FINADVISOR_STORAGE_PATH"); storagePath != "" {
		config.Storage.Path = storagePath
	}

	if dsn := os.Getenv("FINADVISOR_DATABASE_DSN"); dsn != "" {
		config.Storage.Database.DSN = dsn
	}

	if driver := os.Getenv("FINADVISOR_DATABASE_DRIVER"); driver != "" {
		config.Storage.Database.Driver = driver
	}

	if maxOpen := os.Getenv("FINADVISOR_DATABASE_MAX_OPEN_CONNS"); maxOpen != "" {
		if conns, err := strconv.Atoi(maxOpen); err == nil {
			config.Storage.Database.MaxOpenConns = conns
		}
	}

	if maxIdle := os.Getenv("FINADVISOR_DATABASE_MAX_IDLE_CONNS"); maxIdle != "" {
		if conns, err := strconv.Atoi(maxIdle); err == nil {
			config.Storage.Database.MaxIdleConns = conns
		}
	}

	// Cache configuration
	if cache := os.Getenv("FINADVISOR_CACHE_ENABLED"); cache != "" {
		config.Cache.Enabled = strings.ToLower(cache) == "true"
	}

	if ttl := os.Getenv("FINADVISOR_CACHE_TTL"); ttl != "" {
		if d, err := time.ParseDuration(ttl); err == nil {
			config.Cache.TTL = d
		}
	}

	// Logging configuration
	if level := os.Getenv("FINADVISOR_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	if format := os.Getenv("FINADVISOR_LOG_FORMAT"); format != "" {
		config.Logging.Format = format
	}

	if output := os.Getenv("FINADVISOR_LOG_OUTPUT"); output != "" {
		config.Logging.Output = output
	}

	if filePath := os.Getenv("FINADVISOR_LOG_FILE_PATH"); filePath != "" {
		config.Logging.FilePath = filePath
	}

	// Metrics configuration
	if metrics := os.Getenv("FINADVISOR_METRICS_ENABLED"); metrics != "" {
		config.Metrics.Enabled = strings.ToLower(metrics) == "true"
	}

	if path := os.Getenv("FINADVISOR_METRICS_PATH"); path != "" {
		config.Metrics.Path = path
	}

	if port := os.Getenv("FINADVISOR_METRICS_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Metrics.Port = p
		}
	}

	// Observability configuration
	if enabled := os.Getenv("FINADVISOR_TRACING_ENABLED"); enabled != "" {
		config.Observability.Tracing.Enabled = strings.ToLower(enabled) == "true"
	}

	if exporter := os.Getenv("FINADVISOR_TRACING_EXPORTER"); exporter != "" {
		config.Observability.Tracing.Exporter = exporter
	}

	if endpoint := os.Getenv("FINADVISOR_OTLP_ENDPOINT"); endpoint != "" {
		config.Observability.Tracing.OTLPEndpoint = endpoint
	}

	if rate := os.Getenv("FINADVISOR_TRACING_SAMPLE_RATE"); rate != "" {
		if r, err := strconv.ParseFloat(rate, 64); err == nil {
			config.Observability.Tracing.SampleRate = r
		}
	}
}

// SaveExample saves an example configuration file
func SaveExample(filePath string) error {
	// Create directory if it doesn't exist
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	// Get default config with some example values
	config := models.NewDefaultConfig()

	// Placeholder upstream credentials
	config.LLM.APIKey = "sk-your-openai-key-here"
	config.MarketData.APIKey = "your-market-data-key-here"
	config.News.APIKey = "your-news-key-here"

	// Example redis-backed rate limit store for multi-replica deployments
	config.RateLimit.Redis.Addr = "localhost:6379"

	// Marshal to YAML
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	// Write to file
	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
