// Package config provides rule file management for the Klondike server.
//
// The config package handles:
//   - Loading rule files from JSON or YAML
//   - Validation through engine.ValidateGameConfig
//   - Default configuration management
//   - Configuration discovery and listing
//
// Configuration Format:
//
// Rule files live in the configs directory. Each file defines:
//   - draw_count: cards turned per stock click (1 to 3)
//   - seed: a fixed deal seed, or 0 for a random deal
//   - sticky_foundation_selection: keep the source selected after a
//     foundation move
//   - messages: status text, where dealt, recycled and moved are format
//     strings
//
// Available Configurations:
//   - classic: draw three, selection cleared after every move
//   - draw_one: draw one card at a time
//   - original: draw three with sticky foundation selection
//
// Usage:
//
//	manager, err := config.NewManager("configs")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	gameConfig, err := manager.LoadConfig("draw_one")
//	defaultConfig := manager.GetDefault()
//	configs, err := manager.ListConfigs()
package config
