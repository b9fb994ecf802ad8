package engine

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Default status messages, used when a config leaves one empty
const (
	DefaultWelcomeMessage  = "New deal. Good luck!"
	DefaultDealtMessage    = "Dealt %d card(s), %d left in the stock"
	DefaultRecycledMessage = "Turned %d card(s) back into the stock"
	DefaultMovedMessage    = "Moved %d card(s)"
	DefaultRejectedMessage = "That move is not allowed"
	DefaultVictoryMessage  = "All 52 cards are home. You win!"
)

// ValidateGameConfig validates a game configuration
func ValidateGameConfig(config *GameConfig) error {
	if config == nil {
		return fmt.Errorf("config validation: config is required")
	}
	if config.Name == "" {
		return fmt.Errorf("config validation: name is required")
	}

	if config.DrawCount < MinDrawCount || config.DrawCount > MaxDrawCount {
		return fmt.Errorf("config validation: draw_count must be between %d and %d, got %d",
			MinDrawCount, MaxDrawCount, config.DrawCount)
	}

	// Validate format strings against the arguments the engine passes
	formats := []struct {
		key   string
		value string
		verbs int
	}{
		{"dealt", config.Messages.Dealt, 2},
		{"recycled", config.Messages.Recycled, 1},
		{"moved", config.Messages.Moved, 1},
	}
	for _, f := range formats {
		if f.value == "" {
			continue
		}
		n, err := countIntVerbs(f.value)
		if err != nil {
			return fmt.Errorf("config validation: messages.%s: %w", f.key, err)
		}
		if n != f.verbs {
			return fmt.Errorf("config validation: messages.%s must contain %d %%d verb(s), got %d", f.key, f.verbs, n)
		}
	}

	return nil
}

// countIntVerbs counts %d verbs in a message format. %% is a literal
// percent sign; any other verb is an error.
func countIntVerbs(format string) (int, error) {
	n := 0
	for i := 0; i < len(format); i++ {
		if format[i] != '%' {
			continue
		}
		if i+1 == len(format) {
			return 0, fmt.Errorf("trailing %% in %q", format)
		}
		i++
		switch format[i] {
		case '%':
		case 'd':
			n++
		default:
			return 0, fmt.Errorf("unsupported verb %%%c in %q, only %%d and %%%% are allowed", format[i], format)
		}
	}
	return n, nil
}

// DefaultGameConfig returns the classic draw-three rules
func DefaultGameConfig() *GameConfig {
	config := &GameConfig{
		Name:        "classic",
		Description: "Klondike, draw three, unlimited passes through the stock",
		DrawCount:   DefaultDrawCount,
	}
	return withDefaultMessages(config)
}

// withDefaultMessages returns a copy of config with empty messages filled in
func withDefaultMessages(config *GameConfig) *GameConfig {
	c := *config
	if c.Messages.Welcome == "" {
		c.Messages.Welcome = DefaultWelcomeMessage
	}
	if c.Messages.Dealt == "" {
		c.Messages.Dealt = DefaultDealtMessage
	}
	if c.Messages.Recycled == "" {
		c.Messages.Recycled = DefaultRecycledMessage
	}
	if c.Messages.Moved == "" {
		c.Messages.Moved = DefaultMovedMessage
	}
	if c.Messages.Rejected == "" {
		c.Messages.Rejected = DefaultRejectedMessage
	}
	if c.Messages.Victory == "" {
		c.Messages.Victory = DefaultVictoryMessage
	}
	return &c
}

// IsConfigFile reports whether name has a rule file extension
func IsConfigFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json", ".yaml", ".yml":
		return true
	}
	return false
}

// DecodeGameConfig parses a rule file body. ext selects the format and
// must be one of .json, .yaml or .yml.
func DecodeGameConfig(data []byte, ext string) (*GameConfig, error) {
	var config GameConfig
	switch strings.ToLower(ext) {
	case ".json":
		if err := json.Unmarshal(data, &config); err != nil {
			return nil, err
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported config format %q", ext)
	}
	return &config, nil
}

// LoadGameConfig loads and validates a rule file
func LoadGameConfig(filename string) (*GameConfig, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	config, err := DecodeGameConfig(data, filepath.Ext(filename))
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file '%s': %w", filename, err)
	}

	if err := ValidateGameConfig(config); err != nil {
		return nil, err
	}

	return config, nil
}
