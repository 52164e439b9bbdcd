package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for PDF Insight
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Remote  RemoteConfig  `mapstructure:"remote"`
	Session SessionConfig `mapstructure:"session"`
	Log     LogConfig     `mapstructure:"log"`
}

// ServerConfig holds front end server configuration
type ServerConfig struct {
	Host        string `mapstructure:"host"`
	Port        int    `mapstructure:"port"`
	MaxUploadMB int    `mapstructure:"max_upload_mb"`
	// RefreshInterval is how often the page reloads while a round-trip is pending
	RefreshInterval time.Duration `mapstructure:"refresh_interval"`
}

// RemoteConfig holds the document/question service configuration.
// BaseURL is read once at startup.
type RemoteConfig struct {
	BaseURL string `mapstructure:"base_url"`
	// Timeout of zero leaves remote calls unbounded
	Timeout time.Duration `mapstructure:"timeout"`
}

// SessionConfig holds per-connection session configuration
type SessionConfig struct {
	CookieName      string        `mapstructure:"cookie_name"`
	SecureCookie    bool          `mapstructure:"secure_cookie"`
	TTL             time.Duration `mapstructure:"ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	File       string `mapstructure:"file"`
	Production bool   `mapstructure:"production"`
	Level      string `mapstructure:"level"`
}

// Load loads configuration from file and environment
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// PDFINSIGHT_REMOTE_BASE_URL -> remote.base_url
	v.SetEnvPrefix("PDFINSIGHT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.max_upload_mb", 32)
	v.SetDefault("server.refresh_interval", 2*time.Second)

	v.SetDefault("remote.base_url", "http://localhost:5000")
	v.SetDefault("remote.timeout", 0)

	v.SetDefault("session.cookie_name", "pdfinsight_session")
	v.SetDefault("session.secure_cookie", false)
	v.SetDefault("session.ttl", time.Hour)
	v.SetDefault("session.cleanup_interval", 10*time.Minute)

	v.SetDefault("log.file", "./logs/pdfinsight.log")
	v.SetDefault("log.production", false)
	v.SetDefault("log.level", "info")
}

// Validate checks values that cannot be defaulted
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Remote.BaseURL) == "" {
		return fmt.Errorf("remote.base_url is required")
	}
	if c.Remote.Timeout < 0 {
		return fmt.Errorf("remote.timeout must not be negative")
	}
	if c.Server.MaxUploadMB < 0 {
		return fmt.Errorf("server.max_upload_mb must not be negative")
	}
	if c.Session.CookieName == "" {
		return fmt.Errorf("session.cookie_name is required")
	}
	return nil
}

// MaxUploadBytes returns the upload cap in bytes; zero means unlimited
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.Server.MaxUploadMB) << 20
}

// Address returns the server address
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
