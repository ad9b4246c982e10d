// Package config loads drupalkit settings and builds clients from them.
//
// Settings are layered, lowest priority first: built-in defaults, the YAML
// config file, DRUPALKIT_* environment variables and explicitly set
// command-line flags.
package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/drupalkit/drupalkit/pkg/auth/types"
	"github.com/drupalkit/drupalkit/pkg/secrets"
)

// AppName names the XDG directories and the environment prefix.
const AppName = "drupalkit"

//go:embed defaults.yaml
var defaultConfig []byte

// Auth types.
const (
	AuthNone              = "none"
	AuthBasic             = "basic"
	AuthBearer            = "bearer"
	AuthClientCredentials = "client_credentials"
)

// Config holds all client settings.
type Config struct {
	BaseURL    string              `yaml:"base_url" mapstructure:"base_url"`
	ConsumerID string              `yaml:"consumer_id" mapstructure:"consumer_id"`
	Timeout    time.Duration       `yaml:"timeout" mapstructure:"timeout"`
	Auth       AuthConfig          `yaml:"auth" mapstructure:"auth"`
	Storage    types.StorageConfig `yaml:"storage" mapstructure:"storage"`
	Masking    secrets.Masking     `yaml:"masking" mapstructure:"masking"`
}

// AuthConfig selects and configures the auth strategy.
type AuthConfig struct {
	// Type is one of none, basic, bearer or client_credentials.
	Type string `yaml:"type" mapstructure:"type"`

	// Basic authentication. EnvUsername and EnvPassword name environment
	// variables that take precedence over Username and Password.
	Username    string `yaml:"username" mapstructure:"username"`
	Password    string `yaml:"password" mapstructure:"password"`
	EnvUsername string `yaml:"env_username" mapstructure:"env_username"`
	EnvPassword string `yaml:"env_password" mapstructure:"env_password"`

	// Bearer authentication.
	Token string `yaml:"token" mapstructure:"token"`

	// Client credentials grant.
	ClientID     string        `yaml:"client_id" mapstructure:"client_id"`
	ClientSecret string        `yaml:"client_secret" mapstructure:"client_secret"`
	Scopes       []string      `yaml:"scopes" mapstructure:"scopes"`
	Leeway       time.Duration `yaml:"leeway" mapstructure:"leeway"`
}

// Loader handles loading configurations from various sources.
type Loader struct {
	appName    string
	envPrefix  string
	configPath string
	flags      map[string]*pflag.Flag
}

// NewLoader creates a new configuration loader.
func NewLoader(appName string) *Loader {
	return &Loader{
		appName:   appName,
		envPrefix: strings.ToUpper(strings.ReplaceAll(appName, "-", "_")),
		flags:     make(map[string]*pflag.Flag),
	}
}

// SetConfigPath overrides the config file location.
func (l *Loader) SetConfigPath(path string) *Loader {
	l.configPath = path
	return l
}

// BindFlag lets flag override key when it is set on the command line.
func (l *Loader) BindFlag(key string, flag *pflag.Flag) *Loader {
	if flag != nil {
		l.flags[key] = flag
	}
	return l
}

// ConfigPath returns the config file location. In order of preference this
// is the path set with SetConfigPath, $<PREFIX>_CONFIG or the XDG config file.
func (l *Loader) ConfigPath() string {
	if l.configPath != "" {
		return l.configPath
	}
	if customPath := os.Getenv(l.envPrefix + "_CONFIG"); customPath != "" {
		return customPath
	}
	return filepath.Join(xdg.ConfigHome, l.appName, "config.yaml")
}

// Load reads and layers all configuration sources. A missing config file is
// not an error.
func (l *Loader) Load() (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	if err := v.ReadConfig(bytes.NewReader(defaultConfig)); err != nil {
		return nil, fmt.Errorf("failed to read default config: %w", err)
	}

	data, err := os.ReadFile(l.ConfigPath())
	switch {
	case err == nil:
		if err := v.MergeConfig(bytes.NewReader(data)); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", l.ConfigPath(), err)
		}
	case !os.IsNotExist(err):
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	v.SetEnvPrefix(l.envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	for key, flag := range l.flags {
		if err := v.BindPFlag(key, flag); err != nil {
			return nil, fmt.Errorf("failed to bind flag %s: %w", flag.Name, err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	return &config, nil
}

// Save writes config to the config file, creating its directory.
func (l *Loader) Save(config *Config) error {
	data, err := config.YAML()
	if err != nil {
		return err
	}

	path := l.ConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// TokenOwner returns the owner that tokens fetched with the client
// credentials of c are stored under.
func (c *Config) TokenOwner() types.TokenOwner {
	return types.TokenOwner{
		Site:     c.BaseURL,
		ClientID: c.Auth.ClientID,
		Scopes:   append([]string(nil), c.Auth.Scopes...),
	}
}

// Redacted returns a copy of c with credentials masked.
func (c *Config) Redacted() *Config {
	redacted := *c
	redacted.Auth.Scopes = append([]string(nil), c.Auth.Scopes...)

	mask := func(value string) string {
		if value == "" {
			return ""
		}
		return secrets.MaskValue(value, &c.Masking)
	}
	redacted.Auth.Password = mask(c.Auth.Password)
	redacted.Auth.Token = mask(c.Auth.Token)
	redacted.Auth.ClientSecret = mask(c.Auth.ClientSecret)

	return &redacted
}
