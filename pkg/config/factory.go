package config

import (
	"fmt"
	"log/slog"

	"github.com/drupalkit/drupalkit/pkg/auth"
	"github.com/drupalkit/drupalkit/pkg/auth/storage"
	"github.com/drupalkit/drupalkit/pkg/auth/types"
	"github.com/drupalkit/drupalkit/pkg/drupalkit"
	"github.com/drupalkit/drupalkit/pkg/simpleoauth"
)

// NewClient validates config and builds a client with the configured auth
// strategy attached. A nil logger uses slog.Default(). opts are applied last.
func NewClient(config *Config, logger *slog.Logger, opts ...drupalkit.Option) (*drupalkit.Client, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	client, err := drupalkit.NewBuilder().
		SetBaseURL(config.BaseURL).
		SetConsumerID(config.ConsumerID).
		SetTimeout(config.Timeout).
		SetLogger(logger).
		AddOptions(opts...).
		Build()
	if err != nil {
		return nil, err
	}

	tokenStorage, err := NewTokenStorage(config)
	if err != nil {
		return nil, err
	}

	strategy, err := NewStrategy(config, tokenStorage, logger)
	if err != nil {
		return nil, err
	}
	client.SetAuthStrategy(strategy)

	return client, nil
}

// NewTokenStorage creates the configured token storage, or nil if tokens
// are not persisted.
func NewTokenStorage(config *Config) (storage.TokenStorage, error) {
	switch config.Storage.Type {
	case "", types.StorageTypeNone:
		return nil, nil
	}

	ts, err := storage.NewFactory().Create(&config.Storage, AppName)
	if err != nil {
		return nil, fmt.Errorf("failed to create token storage: %w", err)
	}
	return ts, nil
}

// NewStrategy creates the configured auth strategy. It returns nil when
// authentication is disabled. tokenStorage may be nil.
func NewStrategy(config *Config, tokenStorage storage.TokenStorage, logger *slog.Logger) (auth.Strategy, error) {
	a := config.Auth

	switch a.Type {
	case "", AuthNone:
		return nil, nil
	case AuthBasic:
		basic, err := auth.NewBasicStrategyFromConfig(&auth.BasicConfig{
			Username:    a.Username,
			Password:    a.Password,
			EnvUsername: a.EnvUsername,
			EnvPassword: a.EnvPassword,
		})
		if err != nil {
			return nil, err
		}
		return basic, nil
	case AuthBearer:
		return auth.NewBearerStrategy(a.Token), nil
	case AuthClientCredentials:
		opts := []simpleoauth.Option{
			simpleoauth.WithLogger(logger),
			simpleoauth.WithSite(config.BaseURL),
		}
		if a.Leeway > 0 {
			opts = append(opts, simpleoauth.WithLeeway(a.Leeway))
		}
		if tokenStorage != nil {
			opts = append(opts, simpleoauth.WithTokenStorage(tokenStorage))
		}
		return simpleoauth.NewClientCredentialsStrategy(a.ClientID, a.ClientSecret, a.Scopes, opts...), nil
	default:
		return nil, fmt.Errorf("unsupported auth type: %s", a.Type)
	}
}
