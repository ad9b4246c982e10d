// Package secrets masks credentials before they reach logs or terminal output.
package secrets

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Masking styles.
const (
	StylePartial = "partial"
	StyleFull    = "full"
	StyleHash    = "hash"
)

// Masking configures how secret values are rendered.
type Masking struct {
	// Style is one of partial, full or hash.
	Style string `yaml:"style" json:"style" mapstructure:"style"`
	// ShowChars is the number of leading characters kept by partial masking.
	ShowChars int `yaml:"show_chars" json:"show_chars" mapstructure:"show_chars"`
	// Replacement replaces the hidden part of the value.
	Replacement string `yaml:"replacement" json:"replacement" mapstructure:"replacement"`
}

// DefaultMasking returns partial masking that keeps six characters.
func DefaultMasking() *Masking {
	return &Masking{
		Style:       StylePartial,
		ShowChars:   6,
		Replacement: "***",
	}
}

// Mask masks value with the default masking.
func Mask(value string) string {
	return MaskValue(value, nil)
}

// MaskValue masks a sensitive value using the specified masking strategy.
// It supports full, partial, and hash masking styles based on configuration.
func MaskValue(value string, config *Masking) string {
	return CreateMaskStrategy(config).Mask(value)
}

// MaskAuthorization masks an Authorization header value, keeping the scheme.
//
//	"Bearer eyJhbGciOi..." -> "Bearer eyJhbG***"
func MaskAuthorization(value string, config *Masking) string {
	scheme, credentials, found := strings.Cut(value, " ")
	if !found {
		return MaskValue(value, config)
	}
	return scheme + " " + MaskValue(credentials, config)
}

// fullMask completely masks the value.
func fullMask(replacement string) string {
	if replacement == "" {
		return "***"
	}
	return replacement
}

// partialMask shows the first N characters and masks the rest.
func partialMask(value string, showChars int, replacement string) string {
	if replacement == "" {
		replacement = "***"
	}

	// If value is too short, fully mask it
	if len(value) <= showChars {
		return replacement
	}

	return value[:showChars] + replacement
}

// hashMask creates a SHA256 hash of the value for audit purposes.
func hashMask(value string) string {
	hash := sha256.Sum256([]byte(value))
	hashStr := hex.EncodeToString(hash[:])
	return "sha256:" + hashStr[:16]
}

// MaskStrategy defines the interface for custom masking strategies.
type MaskStrategy interface {
	// Mask takes a value and returns the masked version
	Mask(value string) string

	// Name returns the name of the masking strategy
	Name() string
}

// PartialMaskStrategy implements partial masking.
type PartialMaskStrategy struct {
	showChars   int
	replacement string
}

// NewPartialMaskStrategy creates a new partial masking strategy.
func NewPartialMaskStrategy(showChars int, replacement string) *PartialMaskStrategy {
	return &PartialMaskStrategy{
		showChars:   showChars,
		replacement: replacement,
	}
}

func (s *PartialMaskStrategy) Mask(value string) string {
	return partialMask(value, s.showChars, s.replacement)
}

func (s *PartialMaskStrategy) Name() string {
	return StylePartial
}

// FullMaskStrategy implements full masking.
type FullMaskStrategy struct {
	replacement string
}

// NewFullMaskStrategy creates a new full masking strategy.
func NewFullMaskStrategy(replacement string) *FullMaskStrategy {
	return &FullMaskStrategy{
		replacement: replacement,
	}
}

func (s *FullMaskStrategy) Mask(string) string {
	return fullMask(s.replacement)
}

func (s *FullMaskStrategy) Name() string {
	return StyleFull
}

// HashMaskStrategy implements hash masking.
type HashMaskStrategy struct{}

// NewHashMaskStrategy creates a new hash masking strategy.
func NewHashMaskStrategy() *HashMaskStrategy {
	return &HashMaskStrategy{}
}

func (s *HashMaskStrategy) Mask(value string) string {
	return hashMask(value)
}

func (s *HashMaskStrategy) Name() string {
	return StyleHash
}

// CreateMaskStrategy creates a MaskStrategy from configuration.
// A nil config yields DefaultMasking.
func CreateMaskStrategy(config *Masking) MaskStrategy {
	if config == nil {
		config = DefaultMasking()
	}

	switch config.Style {
	case StyleFull:
		return NewFullMaskStrategy(config.Replacement)
	case StyleHash:
		return NewHashMaskStrategy()
	default:
		return NewPartialMaskStrategy(config.ShowChars, config.Replacement)
	}
}
