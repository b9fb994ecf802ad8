// Package websocket pushes live game updates to browser viewers.
//
// A Hub keeps the connected clients of every session and fans out two kinds
// of messages:
//
//	{"session_id": "ab12cd34", "event": "state_update", "game_state": {...}}
//	{"session_id": "ab12cd34", "event": "moved", "data": {...}}
//
// Viewers are read-only. The connection is kept alive with pings, and
// anything a client sends is discarded.
//
// Concurrency:
//
// The sessions map is owned by the goroutine running Hub.Run. Registration,
// broadcasts and ClientCount all travel over channels, so callers on any
// goroutine can use the hub. A client whose send buffer fills up is dropped.
//
// Usage:
//
//	hub := websocket.NewHub()
//	go hub.Run()
//	defer hub.Stop()
//
//	http.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
//		hub.ServeWS(w, r, r.URL.Query().Get("session"))
//	})
package websocket
