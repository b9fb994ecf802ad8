// Package service provides the business logic layer for the Klondike server.
//
// The service package implements:
//   - Multi-session game management
//   - Click validation and dispatch to the engine
//   - Event generation for every state change
//   - Move history pagination and move hints
//
// Core Interfaces:
//
// GameService is the main service interface providing high-level game operations.
// SessionManager handles session creation, retrieval, and lifecycle.
// ConfigManager loads and lists rule files.
// EventPublisher receives the events produced by clicks and new deals.
//
// Architecture:
//
// The service layer sits between the transports (HTTP, WebSocket, MCP) and
// the game engine. Engines are not safe for concurrent use, so the service
// serialises every call that touches one. After each mutation it checks the
// board invariants and logs any violation.
//
// Usage:
//
//	sessionMgr := session.NewManager()
//	configMgr, _ := config.NewManager("configs")
//	gameService := service.NewGameService(sessionMgr, configMgr,
//		service.WithEventPublisher(publisher))
//
//	info, err := gameService.CreateSession(ctx, "draw_one", 0)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	result, err := gameService.Click(ctx, info.ID, service.ClickRequest{Zone: "stock"})
package service
