// Package mcp exposes the Klondike REST API as Model Context Protocol tools.
//
// The Client is deliberately thin: every tool is one or two REST calls and
// the response is formatted as text for a language model. The board is
// drawn with engine.RenderBoard.
//
// MCP Tools:
//   - create_session, list_sessions, get_session
//   - game_state: the board as text
//   - click: one zone click (stock, waste, foundation N, pile N)
//   - bulk_click: several clicks written as "pile 3", "foundation 0", ...
//   - hints: legal card moves with the clicks that perform them
//   - new_game, restart_game
//   - move_history: paginated click history
//   - list_configs, game_instructions
//
// API failures come back as tool errors (IsError set), never as Go errors,
// so the model sees the message and can correct itself.
//
// Transport Modes:
//
//	// Stdio
//	client := mcp.NewClient("http://localhost:8080")
//	server.ServeStdio(client.GetMCPServer())
//
//	// HTTP: POST JSON-RPC messages to /mcp
//	response := client.GetMCPServer().HandleMessage(ctx, body)
package mcp
