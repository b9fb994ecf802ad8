// Package engine provides the core game logic for Klondike Solitaire.
//
// The engine package implements the game mechanics including:
//   - The 52-card deck, seeded Fisher-Yates shuffling and the opening deal
//   - The stock/waste cycle, with a configurable draw count
//   - Foundation and tableau move legality
//   - The click-driven selection state machine
//   - Board invariants, legal-move hints and a plain-text board renderer
//
// Core Types:
//
// The Engine interface defines the main contract for game operations,
// implemented by GameEngine. Card and Stack model the cards and the piles
// that hold them. Selection is the engine-owned tagged selection (none,
// waste, or one tableau pile). GameState is a read-only JSON snapshot for
// presentation layers, and GameConfig holds the rule options.
//
// Usage:
//
//	gameEngine, err := engine.NewEngine(engine.DefaultGameConfig(), engine.WithSeed(42))
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	// A presentation layer maps a pointer position to a zone and clicks it
//	gameEngine.StockClicked()
//	gameEngine.WasteClicked()
//	if err := gameEngine.PileClicked(3); err != nil {
//		log.Fatal(err) // only for an out-of-range index
//	}
//	state := gameEngine.GetState()
//
// Game Rules:
//
// Clicking the stock deals up to DrawCount cards face up onto the waste, or
// turns the waste back over when the stock is empty. Clicking the waste or a
// pile selects it; clicking a second zone tries to move the selected card
// (or the whole face-up run of a pile) there. Foundations build up by suit
// from the Ace; piles build down in alternating colours, and only a King may
// start an empty pile. Illegal moves are silently rejected. The game is won
// when all 52 cards are on the foundations.
package engine
