package auth

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/drupalkit/drupalkit/pkg/httpclient"
)

// BasicConfig represents Basic authentication configuration.
type BasicConfig struct {
	// Username is the username for basic auth.
	Username string `yaml:"username" json:"username" mapstructure:"username"`
	// Password is the optional password for basic auth.
	Password string `yaml:"password,omitempty" json:"password,omitempty" mapstructure:"password"`
	// EnvUsername is the environment variable to read username from.
	EnvUsername string `yaml:"env_username,omitempty" json:"env_username,omitempty" mapstructure:"env_username"`
	// EnvPassword is the environment variable to read password from.
	EnvPassword string `yaml:"env_password,omitempty" json:"env_password,omitempty" mapstructure:"env_password"`
}

// BasicStrategy implements HTTP Basic authentication. It is stateless.
type BasicStrategy struct {
	username string
	password string
}

// NewBasicStrategy creates a Basic strategy for username and password.
func NewBasicStrategy(username, password string) *BasicStrategy {
	return &BasicStrategy{
		username: username,
		password: password,
	}
}

// NewBasicStrategyWithoutPassword creates a Basic strategy that sends
// only a username.
func NewBasicStrategyWithoutPassword(username string) *BasicStrategy {
	return &BasicStrategy{username: username}
}

// NewBasicStrategyFromConfig resolves credentials from configuration or environment.
func NewBasicStrategyFromConfig(config *BasicConfig) (*BasicStrategy, error) {
	if config == nil {
		return nil, fmt.Errorf("basic auth config is required")
	}

	username, err := resolveCredential(config.Username, config.EnvUsername)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve username: %w", err)
	}
	if username == "" {
		return nil, fmt.Errorf("username or env_username is required")
	}

	// Password is optional
	password, err := resolveCredential(config.Password, config.EnvPassword)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve password: %w", err)
	}

	return NewBasicStrategy(username, password), nil
}

// Decorate sets the Authorization header.
func (b *BasicStrategy) Decorate(_ context.Context, req *http.Request, _ string, _ *httpclient.RequestOptions, _ httpclient.Executor) (*http.Request, error) {
	req.SetBasicAuth(b.username, b.password)
	return req, nil
}

// Username returns the configured username.
func (b *BasicStrategy) Username() string {
	return b.username
}

// resolveCredential prefers the environment variable envName, then value.
// A value of the form "$NAME" is read from the environment variable NAME.
func resolveCredential(value, envName string) (string, error) {
	if envName != "" {
		if v := os.Getenv(envName); v != "" {
			return v, nil
		}
	}

	if strings.HasPrefix(value, "$") {
		name := strings.TrimPrefix(value, "$")
		if v := os.Getenv(name); v != "" {
			return v, nil
		}
		return "", fmt.Errorf("environment variable %s not found", name)
	}

	return value, nil
}
