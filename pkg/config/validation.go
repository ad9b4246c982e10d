package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/drupalkit/drupalkit/pkg/auth/types"
	"github.com/drupalkit/drupalkit/pkg/secrets"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("validation failed:\n  - %s", strings.Join(msgs, "\n  - "))
}

// Validator handles configuration validation.
type Validator struct {
	errors ValidationErrors
}

// NewValidator creates a new validator.
func NewValidator() *Validator {
	return &Validator{
		errors: make(ValidationErrors, 0),
	}
}

// Validate checks config and returns ValidationErrors listing every problem.
func (v *Validator) Validate(config *Config) error {
	v.errors = make(ValidationErrors, 0)

	if config.BaseURL == "" {
		v.addError("base_url", "base_url is required")
	} else if !isValidURL(config.BaseURL) {
		v.addError("base_url", "base_url must be an absolute http or https URL")
	}

	if config.Timeout < 0 {
		v.addError("timeout", "timeout must be non-negative")
	}

	v.validateAuth(&config.Auth)
	v.validateStorage(&config.Storage)
	v.validateMasking(&config.Masking)

	if len(v.errors) > 0 {
		return v.errors
	}

	return nil
}

// Validate validates c with a fresh Validator.
func (c *Config) Validate() error {
	return NewValidator().Validate(c)
}

func (v *Validator) validateAuth(a *AuthConfig) {
	switch a.Type {
	case "", AuthNone:
	case AuthBasic:
		if a.Username == "" && a.EnvUsername == "" {
			v.addError("auth.username", "username or env_username is required for basic auth")
		}
	case AuthBearer:
		if a.Token == "" {
			v.addError("auth.token", "token is required for bearer auth")
		}
	case AuthClientCredentials:
		if a.ClientID == "" {
			v.addError("auth.client_id", "client_id is required for client_credentials auth")
		}
	default:
		v.addError("auth.type", "type must be one of: none, basic, bearer, client_credentials")
	}

	if a.Leeway < 0 {
		v.addError("auth.leeway", "leeway must be non-negative")
	}
}

func (v *Validator) validateStorage(s *types.StorageConfig) {
	switch s.Type {
	case "", types.StorageTypeNone, types.StorageTypeMemory, types.StorageTypeFile:
	case types.StorageTypeKeyring, types.StorageTypeAuto:
		if s.KeyringService == "" {
			v.addError("storage.keyring_service", fmt.Sprintf("keyring_service is required for %s storage", s.Type))
		}
	default:
		v.addError("storage.type", "type must be one of: none, memory, file, keyring, auto")
	}
}

func (v *Validator) validateMasking(m *secrets.Masking) {
	validStyles := []string{"", secrets.StylePartial, secrets.StyleFull, secrets.StyleHash}
	if !contains(validStyles, m.Style) {
		v.addError("masking.style", "style must be one of: partial, full, hash")
	}
	if m.ShowChars < 0 {
		v.addError("masking.show_chars", "show_chars must be non-negative")
	}
}

// Helper methods

func (v *Validator) addError(field, message string) {
	v.errors = append(v.errors, ValidationError{
		Field:   field,
		Message: message,
	})
}

func isValidURL(urlStr string) bool {
	u, err := url.Parse(urlStr)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
