package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/omnihq/omnicrm/internal/secrets"
)

// Config holds application configuration.
type Config struct {
	Database DatabaseConfig
	LLM      LLMConfig
	Server   ServerConfig
	Metering MeteringConfig
	Log      LogConfig
}

// DatabaseConfig holds sqlite settings.
type DatabaseConfig struct {
	Path string
}

// LLMConfig holds assistant provider settings.
type LLMConfig struct {
	APIKeyEnv string
	APIKey    string
	Model     string
	BaseURL   string
}

// ServerConfig holds HTTP API settings.
type ServerConfig struct {
	Addr string
}

// MeteringConfig holds the tool runtime budgets.
type MeteringConfig struct {
	StartingCredits int64
	CacheSize       int
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string
	File  string
}

// Load reads configuration from file and env. Env var overrides use prefix OMNICRM_.
func Load() (Config, error) {
	v := viper.New()

	v.SetDefault("database.path", filepath.Join(os.Getenv("HOME"), ".local", "share", "omnicrm", "omnicrm.db"))
	v.SetDefault("llm.api_key_env", "OPENAI_API_KEY")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.model", "gpt-4o-mini")
	v.SetDefault("llm.base_url", "")
	v.SetDefault("server.addr", "127.0.0.1:8790")
	v.SetDefault("metering.starting_credits", 500)
	v.SetDefault("metering.cache_size", 1024)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")

	v.SetConfigType("toml")

	cfgPath := os.Getenv("OMNICRM_CONFIG")
	if cfgPath != "" {
		v.SetConfigFile(cfgPath)
	} else {
		v.AddConfigPath(filepath.Join(os.Getenv("HOME"), ".config", "omnicrm"))
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("OMNICRM")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// config file is optional
	_ = v.ReadInConfig()

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return c, nil
}

// ResolveAPIKey returns the assistant API key. Lookup order: env var, the
// encrypted secret store, then the plain config value.
func (c Config) ResolveAPIKey() string {
	env := strings.TrimSpace(c.LLM.APIKeyEnv)
	if env == "" {
		env = "OPENAI_API_KEY"
	}
	if v := os.Getenv(env); v != "" {
		return v
	}
	if k, err := secrets.FetchProviderKey("openai"); err == nil && k != "" {
		return k
	}
	return strings.TrimSpace(c.LLM.APIKey)
}

// Save writes the provided config to disk, creating the config directory if
// needed. The API key is stored in plain text; prefer env vars.
func Save(cfg Config) error {
	path := os.Getenv("OMNICRM_CONFIG")
	if path == "" {
		path = filepath.Join(os.Getenv("HOME"), ".config", "omnicrm", "config.toml")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}

	v := viper.New()
	v.SetConfigType("toml")
	v.Set("database.path", cfg.Database.Path)
	v.Set("llm.api_key_env", cfg.LLM.APIKeyEnv)
	v.Set("llm.api_key", cfg.LLM.APIKey)
	v.Set("llm.model", cfg.LLM.Model)
	v.Set("llm.base_url", cfg.LLM.BaseURL)
	v.Set("server.addr", cfg.Server.Addr)
	v.Set("metering.starting_credits", cfg.Metering.StartingCredits)
	v.Set("metering.cache_size", cfg.Metering.CacheSize)
	v.Set("log.level", cfg.Log.Level)
	v.Set("log.file", cfg.Log.File)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
