// Package session provides in-memory session management for the Klondike
// server.
//
// Each session owns its own engine.GameEngine, so games never share cards
// or selection state. Sessions are keyed by a short case-insensitive ID;
// generated IDs are the first eight hex digits of a random UUID.
//
// Concurrency:
//
// The manager is safe for concurrent use. It guards the session map only;
// callers that drive a session's engine serialise those calls themselves
// (the game service does this).
//
// Usage:
//
//	manager := session.NewManager()
//
//	sess, err := manager.Create("", config, 0)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	sess, err = manager.Get(sess.ID)
//	removed := manager.CleanupExpiredSessions(24 * time.Hour)
//
// Sessions are not persisted; restarting the process starts from an empty
// manager.
package session
