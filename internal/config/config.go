package config

import (
	"github.com/spf13/viper"

	"github.com/tilework-tech/nori-profiles/internal/errors"
	"github.com/tilework-tech/nori-profiles/internal/paths"
)

// AppName is the application name used for config file naming.
const AppName = "nori"

// Defaults.
const (
	DefaultRegistryURL = "https://registry.tilework.tech"
	DefaultUpdateURL   = "https://registry.npmjs.org/nori-ai"
	DefaultAgent       = paths.AgentClaudeCode
)

// Config represents the CLI settings.
type Config struct {
	RegistryURL string `mapstructure:"registry_url" yaml:"registry_url"`
	UpdateURL   string `mapstructure:"update_url" yaml:"update_url"`
	Agent       string `mapstructure:"agent" yaml:"agent"`
}

// Init initializes Viper with default configuration.
// Call this once at application startup before accessing config values.
func Init() {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.AddConfigPath(paths.ConfigHome())

	// NORI_REGISTRY_URL, NORI_UPDATE_URL, NORI_AGENT
	viper.SetEnvPrefix("NORI")
	viper.AutomaticEnv()

	viper.SetDefault("registry_url", DefaultRegistryURL)
	viper.SetDefault("update_url", DefaultUpdateURL)
	viper.SetDefault("agent", DefaultAgent)
}

// Load reads the configuration file.
// If path is provided, it reads from that specific file.
// If path is empty, it searches in the default locations and falls back to
// defaults when no file exists.
func Load(path string) (*Config, error) {
	if path != "" {
		viper.SetConfigFile(path)
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, errors.Wrap(err, "reading config file")
		}
		if path != "" {
			return nil, errors.Wrapf(err, "config file not found at %s", path)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "unmarshaling config")
	}
	return &cfg, nil
}
