package config

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/drupalkit/drupalkit/pkg/auth/types"
	"github.com/drupalkit/drupalkit/pkg/secrets"
)

// fileConfig is the on-disk layout of Config. Durations are written in
// time.Duration string form so Load can read them back.
type fileConfig struct {
	BaseURL    string              `yaml:"base_url"`
	ConsumerID string              `yaml:"consumer_id,omitempty"`
	Timeout    string              `yaml:"timeout,omitempty"`
	Auth       fileAuthConfig      `yaml:"auth"`
	Storage    types.StorageConfig `yaml:"storage"`
	Masking    secrets.Masking     `yaml:"masking"`
}

type fileAuthConfig struct {
	Type         string   `yaml:"type"`
	Username     string   `yaml:"username,omitempty"`
	Password     string   `yaml:"password,omitempty"`
	EnvUsername  string   `yaml:"env_username,omitempty"`
	EnvPassword  string   `yaml:"env_password,omitempty"`
	Token        string   `yaml:"token,omitempty"`
	ClientID     string   `yaml:"client_id,omitempty"`
	ClientSecret string   `yaml:"client_secret,omitempty"`
	Scopes       []string `yaml:"scopes,omitempty"`
	Leeway       string   `yaml:"leeway,omitempty"`
}

// YAML renders c as a config file.
func (c *Config) YAML() ([]byte, error) {
	out := fileConfig{
		BaseURL:    c.BaseURL,
		ConsumerID: c.ConsumerID,
		Timeout:    formatDuration(c.Timeout),
		Auth: fileAuthConfig{
			Type:         c.Auth.Type,
			Username:     c.Auth.Username,
			Password:     c.Auth.Password,
			EnvUsername:  c.Auth.EnvUsername,
			EnvPassword:  c.Auth.EnvPassword,
			Token:        c.Auth.Token,
			ClientID:     c.Auth.ClientID,
			ClientSecret: c.Auth.ClientSecret,
			Scopes:       c.Auth.Scopes,
			Leeway:       formatDuration(c.Auth.Leeway),
		},
		Storage: c.Storage,
		Masking: c.Masking,
	}

	data, err := yaml.Marshal(&out)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return data, nil
}

func formatDuration(d time.Duration) string {
	if d == 0 {
		return ""
	}
	return d.String()
}
