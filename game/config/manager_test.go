package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wricardo/mcp-training/klondike/game/engine"
)

func createValidConfig(name string) *engine.GameConfig {
	config := &engine.GameConfig{
		Name:        name,
		Description: "Test configuration",
		DrawCount:   3,
	}
	config.Messages.Welcome = "Welcome!"
	return config
}

func writeConfigFile(t *testing.T, dir, name string, config *engine.GameConfig) {
	t.Helper()
	data, err := json.MarshalIndent(config, "", "  ")
	require.NoError(t, err)

	filename := name
	if filepath.Ext(filename) == "" {
		filename = name + ".json"
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, filename), data, 0644))
}

func writeRaw(t *testing.T, dir, filename, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, filename), []byte(body), 0644))
}

func TestNewManager(t *testing.T) {
	t.Run("missing directory", func(t *testing.T) {
		_, err := NewManager(filepath.Join(t.TempDir(), "nope"))
		assert.Error(t, err)
	})

	t.Run("empty directory falls back to built-in rules", func(t *testing.T) {
		m, err := NewManager(t.TempDir())
		require.NoError(t, err)
		def := m.GetDefault()
		require.NotNil(t, def)
		assert.Equal(t, "classic", def.Name)
		assert.Equal(t, engine.DefaultDrawCount, def.DrawCount)
	})

	t.Run("classic file is the default", func(t *testing.T) {
		dir := t.TempDir()
		writeConfigFile(t, dir, "aaa", createValidConfig("First"))
		writeConfigFile(t, dir, "classic", createValidConfig("Classic From Disk"))

		m, err := NewManager(dir)
		require.NoError(t, err)
		assert.Equal(t, "Classic From Disk", m.GetDefault().Name)
	})

	t.Run("first valid file when classic is absent", func(t *testing.T) {
		dir := t.TempDir()
		writeConfigFile(t, dir, "beta", createValidConfig("Beta"))
		writeConfigFile(t, dir, "alpha", createValidConfig("Alpha"))

		m, err := NewManager(dir)
		require.NoError(t, err)
		assert.Equal(t, "Alpha", m.GetDefault().Name)
	})
}

func TestManager_LoadConfig(t *testing.T) {
	dir := t.TempDir()
	writeConfigFile(t, dir, "json_rules", createValidConfig("JSON Rules"))
	writeRaw(t, dir, "yaml_rules.yaml", "name: YAML Rules\ndraw_count: 1\nsticky_foundation_selection: true\n")
	writeRaw(t, dir, "broken.json", "{not json")
	writeRaw(t, dir, "bad_rules.yml", "name: Bad\ndraw_count: 7\n")

	m, err := NewManager(dir)
	require.NoError(t, err)

	t.Run("json by name", func(t *testing.T) {
		config, err := m.LoadConfig("json_rules")
		require.NoError(t, err)
		assert.Equal(t, "JSON Rules", config.Name)
	})

	t.Run("yaml by name", func(t *testing.T) {
		config, err := m.LoadConfig("yaml_rules")
		require.NoError(t, err)
		assert.Equal(t, 1, config.DrawCount)
		assert.True(t, config.StickyFoundationSelection)
	})

	t.Run("with extension hits the same cache entry", func(t *testing.T) {
		a, err := m.LoadConfig("yaml_rules")
		require.NoError(t, err)
		b, err := m.LoadConfig("yaml_rules.yaml")
		require.NoError(t, err)
		assert.Same(t, a, b)
	})

	t.Run("not found", func(t *testing.T) {
		_, err := m.LoadConfig("missing")
		assert.True(t, errors.Is(err, ErrConfigNotFound))
	})

	t.Run("path traversal is rejected", func(t *testing.T) {
		_, err := m.LoadConfig("../etc/passwd")
		assert.True(t, errors.Is(err, ErrConfigNotFound))
	})

	t.Run("malformed file", func(t *testing.T) {
		_, err := m.LoadConfig("broken")
		assert.True(t, errors.Is(err, ErrInvalidConfig))
	})

	t.Run("failed validation", func(t *testing.T) {
		_, err := m.LoadConfig("bad_rules")
		assert.True(t, errors.Is(err, ErrInvalidConfig))
	})
}

func TestManager_ListConfigs(t *testing.T) {
	dir := t.TempDir()
	writeConfigFile(t, dir, "zeta", createValidConfig("Zeta"))
	writeRaw(t, dir, "draw_one.yml", "name: Draw One\ndescription: one at a time\ndraw_count: 1\n")
	writeRaw(t, dir, "broken.json", "{")
	writeRaw(t, dir, "notes.txt", "ignored")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.json"), 0755))

	m, err := NewManager(dir)
	require.NoError(t, err)

	configs, err := m.ListConfigs()
	require.NoError(t, err)
	require.Len(t, configs, 2)

	assert.Equal(t, "draw_one", configs[0].ConfigID)
	assert.Equal(t, "draw_one.yml", configs[0].Filename)
	assert.Equal(t, "Draw One", configs[0].Name)
	assert.Equal(t, 1, configs[0].DrawCount)
	assert.Equal(t, "zeta", configs[1].ConfigID)
	assert.Equal(t, 3, configs[1].DrawCount)
}

func TestManager_SetDefault(t *testing.T) {
	dir := t.TempDir()
	writeConfigFile(t, dir, "draw_one", createValidConfig("Draw One"))

	m, err := NewManager(dir)
	require.NoError(t, err)

	require.NoError(t, m.SetDefault("draw_one"))
	assert.Equal(t, "Draw One", m.GetDefault().Name)

	assert.Error(t, m.SetDefault("missing"))
	assert.Equal(t, "Draw One", m.GetDefault().Name)
}

func TestManager_SaveConfig(t *testing.T) {
	dir := t.TempDir()
	m, err := NewManager(dir)
	require.NoError(t, err)

	t.Run("json", func(t *testing.T) {
		config := createValidConfig("Saved")
		config.Seed = 99
		require.NoError(t, m.SaveConfig("saved", config))

		_, err := os.Stat(filepath.Join(dir, "saved.json"))
		require.NoError(t, err)

		loaded, err := engine.LoadGameConfig(filepath.Join(dir, "saved.json"))
		require.NoError(t, err)
		assert.Equal(t, int64(99), loaded.Seed)
	})

	t.Run("yaml", func(t *testing.T) {
		config := createValidConfig("Saved YAML")
		config.StickyFoundationSelection = true
		require.NoError(t, m.SaveConfig("saved_yaml.yaml", config))

		loaded, err := engine.LoadGameConfig(filepath.Join(dir, "saved_yaml.yaml"))
		require.NoError(t, err)
		assert.Equal(t, "Saved YAML", loaded.Name)
		assert.True(t, loaded.StickyFoundationSelection)

		cached, err := m.LoadConfig("saved_yaml")
		require.NoError(t, err)
		assert.Same(t, config, cached)
	})

	t.Run("invalid config is not written", func(t *testing.T) {
		config := createValidConfig("Invalid")
		config.DrawCount = 5
		err := m.SaveConfig("invalid", config)
		assert.True(t, errors.Is(err, ErrInvalidConfig))
		_, statErr := os.Stat(filepath.Join(dir, "invalid.json"))
		assert.True(t, os.IsNotExist(statErr))
	})

	t.Run("bad name", func(t *testing.T) {
		err := m.SaveConfig("../escape", createValidConfig("Escape"))
		assert.True(t, errors.Is(err, ErrInvalidConfig))
	})
}

func TestManager_RefreshCache(t *testing.T) {
	dir := t.TempDir()
	writeConfigFile(t, dir, "classic", createValidConfig("Before"))

	m, err := NewManager(dir)
	require.NoError(t, err)
	assert.Equal(t, "Before", m.GetDefault().Name)

	writeConfigFile(t, dir, "classic", createValidConfig("After"))
	cached, err := m.LoadConfig("classic")
	require.NoError(t, err)
	assert.Equal(t, "Before", cached.Name)

	require.NoError(t, m.RefreshCache())
	assert.Equal(t, "After", m.GetDefault().Name)
}

func TestManager_ConcurrentLoads(t *testing.T) {
	dir := t.TempDir()
	writeConfigFile(t, dir, "classic", createValidConfig("Classic"))
	writeConfigFile(t, dir, "other", createValidConfig("Other"))

	m, err := NewManager(dir)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			name := "classic"
			if i%2 == 0 {
				name = "other"
			}
			config, err := m.LoadConfig(name)
			assert.NoError(t, err)
			assert.NotNil(t, config)
			_, _ = m.ListConfigs()
		}(i)
	}
	wg.Wait()
}
