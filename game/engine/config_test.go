package engine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateGameConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *GameConfig)
		wantErr string
	}{
		{"valid", func(c *GameConfig) {}, ""},
		{"missing name", func(c *GameConfig) { c.Name = "" }, "name is required"},
		{"draw count zero", func(c *GameConfig) { c.DrawCount = 0 }, "draw_count"},
		{"draw count four", func(c *GameConfig) { c.DrawCount = 4 }, "draw_count"},
		{"draw one", func(c *GameConfig) { c.DrawCount = 1 }, ""},
		{"dealt needs two verbs", func(c *GameConfig) { c.Messages.Dealt = "Dealt %d" }, "messages.dealt"},
		{"moved needs one verb", func(c *GameConfig) { c.Messages.Moved = "Moved" }, "messages.moved"},
		{"recycled with verb", func(c *GameConfig) { c.Messages.Recycled = "Back: %d" }, ""},
		{"string verb rejected", func(c *GameConfig) { c.Messages.Moved = "Moved %s" }, "unsupported verb %s"},
		{"float verb rejected", func(c *GameConfig) { c.Messages.Dealt = "Dealt %d, %v left" }, "unsupported verb %v"},
		{"escaped percent is not a verb", func(c *GameConfig) { c.Messages.Moved = "Moved %d (100%%)" }, ""},
		{"escaped percent before d", func(c *GameConfig) { c.Messages.Recycled = "%%d back" }, "messages.recycled must contain 1"},
		{"trailing percent", func(c *GameConfig) { c.Messages.Moved = "Moved %d %" }, "trailing %"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := createTestConfig()
			tt.mutate(config)
			err := ValidateGameConfig(config)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	assert.Error(t, ValidateGameConfig(nil))
}

func TestCountIntVerbs(t *testing.T) {
	tests := []struct {
		format  string
		want    int
		wantErr bool
	}{
		{"", 0, false},
		{"Moved %d", 1, false},
		{"Dealt %d card(s), %d left", 2, false},
		{"100%% sure", 0, false},
		{"%%d", 0, false},
		{"%%%d", 1, false},
		{"Dealt %s", 0, true},
		{"%", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			got, err := countIntVerbs(tt.format)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDefaultGameConfig(t *testing.T) {
	config := DefaultGameConfig()
	require.NoError(t, ValidateGameConfig(config))
	assert.Equal(t, "classic", config.Name)
	assert.Equal(t, 3, config.DrawCount)
	assert.False(t, config.StickyFoundationSelection)
	assert.Equal(t, DefaultDealtMessage, config.Messages.Dealt)
}

func TestDecodeGameConfig(t *testing.T) {
	t.Run("json", func(t *testing.T) {
		data := []byte(`{
			"name": "draw_one",
			"description": "Turn one card at a time",
			"draw_count": 1,
			"seed": 77,
			"messages": {"welcome": "Hi"}
		}`)
		config, err := DecodeGameConfig(data, ".json")
		require.NoError(t, err)
		assert.Equal(t, "draw_one", config.Name)
		assert.Equal(t, 1, config.DrawCount)
		assert.Equal(t, int64(77), config.Seed)
		assert.Equal(t, "Hi", config.Messages.Welcome)
	})

	t.Run("yaml", func(t *testing.T) {
		data := []byte(`
name: original
description: Selection stays on the source after a foundation move
draw_count: 3
sticky_foundation_selection: true
messages:
  victory: "Done!"
`)
		config, err := DecodeGameConfig(data, ".YML")
		require.NoError(t, err)
		assert.Equal(t, "original", config.Name)
		assert.True(t, config.StickyFoundationSelection)
		assert.Equal(t, "Done!", config.Messages.Victory)
	})

	t.Run("unsupported extension", func(t *testing.T) {
		_, err := DecodeGameConfig([]byte("name = x"), ".toml")
		assert.Error(t, err)
	})

	t.Run("malformed json", func(t *testing.T) {
		_, err := DecodeGameConfig([]byte("{"), ".json")
		assert.Error(t, err)
	})
}

func TestLoadGameConfig(t *testing.T) {
	dir := t.TempDir()

	good := filepath.Join(dir, "good.yaml")
	require.NoError(t, os.WriteFile(good, []byte("name: good\ndraw_count: 2\n"), 0644))
	config, err := LoadGameConfig(good)
	require.NoError(t, err)
	assert.Equal(t, 2, config.DrawCount)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"name": "bad", "draw_count": 9}`), 0644))
	_, err = LoadGameConfig(bad)
	assert.Error(t, err)

	_, err = LoadGameConfig(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}

func TestIsConfigFile(t *testing.T) {
	assert.True(t, IsConfigFile("classic.json"))
	assert.True(t, IsConfigFile("original.yaml"))
	assert.True(t, IsConfigFile("x.YML"))
	assert.False(t, IsConfigFile("README.md"))
	assert.False(t, IsConfigFile("json"))
}

func TestEngine_CustomMessages(t *testing.T) {
	config := createTestConfig()
	config.Messages.Dealt = "Turned %d, %d remain"
	e, err := NewEngine(config, WithSeed(4))
	require.NoError(t, err)

	e.StockClicked()

	assert.Equal(t, "Turned 3, 21 remain", e.GetState().Message)
	// The caller's config is not modified by default filling
	assert.Equal(t, "", config.Messages.Moved)
}
