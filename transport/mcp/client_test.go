package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wricardo/mcp-training/klondike/api"
	"github.com/wricardo/mcp-training/klondike/game/config"
	"github.com/wricardo/mcp-training/klondike/game/engine"
	"github.com/wricardo/mcp-training/klondike/game/service"
	"github.com/wricardo/mcp-training/klondike/game/session"
)

func toolRequest(name string, args map[string]interface{}) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, result)
	require.NotEmpty(t, result.Content)
	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected text content")
	return text.Text
}

// newLiveClient points a client at a real REST server with the real
// service, session and config managers behind it
func newLiveClient(t *testing.T) *Client {
	t.Helper()
	configs, err := config.NewManager("../../configs")
	require.NoError(t, err)
	svc := service.NewGameService(session.NewManager(), configs)
	server := httptest.NewServer(api.NewServer(svc, nil))
	t.Cleanup(server.Close)
	return NewClient(server.URL)
}

func TestNewClient(t *testing.T) {
	client := NewClient("http://localhost:8080/")

	require.NotNil(t, client)
	assert.Equal(t, "http://localhost:8080", client.baseURL)
	assert.NotNil(t, client.httpClient)
	assert.NotNil(t, client.mcpServer)
	assert.Same(t, client.mcpServer, client.GetMCPServer())
}

func TestClient_apiCall(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/sessions/abc/state", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(engine.GameState{StockCount: 24, DealSeed: 3})
	}))
	defer server.Close()

	client := NewClient(server.URL)

	var state engine.GameState
	require.NoError(t, client.apiCall(context.Background(), "GET", sessionPath("abc", "/state"), nil, &state))
	assert.Equal(t, 24, state.StockCount)
	assert.Equal(t, int64(3), state.DealSeed)
}

func TestClient_apiCall_Errors(t *testing.T) {
	t.Run("unreachable", func(t *testing.T) {
		client := NewClient("http://127.0.0.1:1")
		assert.Error(t, client.apiCall(context.Background(), "GET", "/api/health", nil, nil))
	})

	t.Run("json error body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"error":"session not found: zz"}`))
		}))
		defer server.Close()

		err := NewClient(server.URL).apiCall(context.Background(), "GET", "/api/sessions/zz", nil, nil)
		require.Error(t, err)
		assert.Equal(t, "session not found: zz", err.Error())
	})

	t.Run("plain error body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte("Internal Server Error"))
		}))
		defer server.Close()

		err := NewClient(server.URL).apiCall(context.Background(), "GET", "/api", nil, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "API error: 500")
	})
}

func TestParseClick(t *testing.T) {
	tests := []struct {
		in      interface{}
		want    service.ClickRequest
		wantErr bool
	}{
		{in: "stock", want: service.ClickRequest{Zone: "stock"}},
		{in: " Waste ", want: service.ClickRequest{Zone: "waste"}},
		{in: "pile 3", want: service.ClickRequest{Zone: "pile", Index: 3}},
		{in: "pile:6", want: service.ClickRequest{Zone: "pile", Index: 6}},
		{in: "foundation-0", want: service.ClickRequest{Zone: "foundation", Index: 0}},
		{in: map[string]interface{}{"zone": "pile", "index": float64(2)}, want: service.ClickRequest{Zone: "pile", Index: 2}},
		{in: "pile", wantErr: true},
		{in: "pile x", wantErr: true},
		{in: "table 1", wantErr: true},
		{in: "", wantErr: true},
		{in: map[string]interface{}{"index": float64(1)}, wantErr: true},
		{in: float64(4), wantErr: true},
	}

	for _, tt := range tests {
		got, err := parseClick(tt.in)
		if tt.wantErr {
			assert.Error(t, err, "%v", tt.in)
			continue
		}
		require.NoError(t, err, "%v", tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestFormatGameState(t *testing.T) {
	assert.Equal(t, "No game state available", formatGameState(nil))

	state := &engine.GameState{StockCount: 24, DealSeed: 11, DrawCount: 3, Message: "New deal"}
	out := formatGameState(state)
	assert.Contains(t, out, engine.RenderBoard(state))
	assert.NotContains(t, out, "VICTORY")

	state.Won = true
	assert.Contains(t, formatGameState(state), "🎉 VICTORY!")
}

func TestFormatClickResult(t *testing.T) {
	ok := formatClickResult(&service.ClickResult{
		Success:   true,
		Outcome:   engine.OutcomeMoved,
		GameState: &engine.GameState{},
		Move:      &engine.MoveHistoryEntry{Zone: engine.ZonePile, Index: 4, Outcome: engine.OutcomeMoved, Cards: []string{"qh"}, MoveNumber: 9},
	})
	assert.Contains(t, ok, "✓ moved")
	assert.Contains(t, ok, "Click #9: pile 4 cards=qh")

	rejected := formatClickResult(&service.ClickResult{
		Outcome:   engine.OutcomeRejected,
		GameState: &engine.GameState{},
	})
	assert.Contains(t, rejected, "✗ rejected")

	won := formatClickResult(&service.ClickResult{
		Success:   true,
		Outcome:   engine.OutcomeMoved,
		GameState: &engine.GameState{Won: true},
		Events:    []service.GameEvent{{Type: service.EventMoved}, {Type: service.EventVictory}},
	})
	assert.Contains(t, won, "All cards are home")
}

func TestFormatHints(t *testing.T) {
	out := formatHints(&service.HintsResponse{
		Moves: []engine.LegalMove{
			{From: engine.ZoneWaste, To: engine.ZonePile, ToIndex: 2, Card: "9s", RunLength: 1},
			{From: engine.ZonePile, FromIndex: 5, To: engine.ZonePile, ToIndex: 0, Card: "kd", RunLength: 3},
		},
		Count:   2,
		CanDraw: true,
	})

	assert.Contains(t, out, "Available moves (2)")
	assert.Contains(t, out, `clicks: ["waste", "pile 2"]`)
	assert.Contains(t, out, "kd (+2 more)")
	assert.Contains(t, out, "The stock can be clicked.")

	assert.Contains(t, formatHints(&service.HintsResponse{}), "No card moves available.")
}

func TestFormatBulkClickResult(t *testing.T) {
	out := formatBulkClickResult("s1", &service.BulkClickResult{
		ClicksExecuted:  1,
		RequestedClicks: 2,
		StoppedReason:   "click 2 invalid",
		StopReasonCode:  "invalid_zone",
		StoppedOnClick:  2,
		Steps:           []service.ClickStep{{Idx: 1, Zone: engine.ZoneStock, Outcome: engine.OutcomeDealt, Cards: []string{"2c", "7h", "ks"}}},
		CardsHome:       4,
		HomeDelta:       1,
		GameState:       &engine.GameState{},
	})

	assert.Contains(t, out, "executed 1/2 clicks")
	assert.Contains(t, out, "Stopped at click 2")
	assert.Contains(t, out, "[invalid_zone]")
	assert.Contains(t, out, "2c,7h,ks")
	assert.Contains(t, out, "Home: 4/52 (+1)")
}

func TestClient_handleGameInstructions(t *testing.T) {
	client := NewClient("http://localhost:8080")

	result, err := client.handleGameInstructions(context.Background(), toolRequest("game_instructions", nil))
	require.NoError(t, err)

	text := resultText(t, result)
	for _, want := range []string{
		"Klondike Solitaire - Complete Instructions",
		"GAME OBJECTIVE:",
		"HOW CLICKS WORK:",
		"REJECTED MOVES:",
		"STRATEGY FOR AGENTS:",
	} {
		assert.Contains(t, text, want)
	}
}

func TestClient_MissingSessionID(t *testing.T) {
	client := NewClient("http://localhost:8080")

	for _, handler := range []func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error){
		client.handleGetSession,
		client.handleGameState,
		client.handleClick,
		client.handleBulkClick,
		client.handleHints,
		client.handleNewGame,
		client.handleRestart,
		client.handleMoveHistory,
	} {
		result, err := handler(context.Background(), toolRequest("x", map[string]interface{}{}))
		require.NoError(t, err)
		assert.True(t, result.IsError)
		assert.Contains(t, resultText(t, result), "session_id is required")
	}
}

func TestClient_Integration(t *testing.T) {
	client := newLiveClient(t)
	ctx := context.Background()

	result, err := client.handleCreateSession(ctx, toolRequest("create_session", map[string]interface{}{
		"config_id": "classic",
		"seed":      float64(42),
	}))
	require.NoError(t, err)
	text := resultText(t, result)
	require.False(t, result.IsError, text)
	require.True(t, strings.HasPrefix(text, "Created session: "), text)
	sessionID := strings.TrimSpace(strings.SplitN(strings.TrimPrefix(text, "Created session: "), "\n", 2)[0])
	require.NotEmpty(t, sessionID)
	assert.Contains(t, text, "Seed: 42")

	args := func(extra map[string]interface{}) map[string]interface{} {
		m := map[string]interface{}{"session_id": sessionID}
		for k, v := range extra {
			m[k] = v
		}
		return m
	}

	result, err = client.handleGameState(ctx, toolRequest("game_state", args(nil)))
	require.NoError(t, err)
	assert.Contains(t, resultText(t, result), "Stock [##] 24")

	result, err = client.handleClick(ctx, toolRequest("click", args(map[string]interface{}{
		"zone":   "stock",
		"intent": "turn the first three cards",
	})))
	require.NoError(t, err)
	text = resultText(t, result)
	assert.False(t, result.IsError, text)
	assert.Contains(t, text, "✓ dealt")
	assert.Contains(t, text, "Stock [##] 21")

	result, err = client.handleClick(ctx, toolRequest("click", args(map[string]interface{}{
		"zone":  "pile",
		"index": float64(9),
	})))
	require.NoError(t, err)
	assert.True(t, result.IsError, "out-of-range pile is a tool error")

	result, err = client.handleBulkClick(ctx, toolRequest("bulk_click", args(map[string]interface{}{
		"clicks": []interface{}{"stock", "waste", "waste"},
	})))
	require.NoError(t, err)
	text = resultText(t, result)
	assert.False(t, result.IsError, text)
	assert.Contains(t, text, "executed 3/3 clicks")

	result, err = client.handleBulkClick(ctx, toolRequest("bulk_click", args(map[string]interface{}{
		"clicks": []interface{}{"stock", "nowhere"},
	})))
	require.NoError(t, err)
	assert.True(t, result.IsError, "unparseable click rejected before the API call")

	result, err = client.handleHints(ctx, toolRequest("hints", args(nil)))
	require.NoError(t, err)
	assert.False(t, result.IsError)

	result, err = client.handleMoveHistory(ctx, toolRequest("move_history", args(map[string]interface{}{
		"order": "asc",
		"limit": float64(2),
	})))
	require.NoError(t, err)
	text = resultText(t, result)
	assert.Contains(t, text, "Total: 4")
	assert.Contains(t, text, "#1: stock")

	result, err = client.handleRestart(ctx, toolRequest("restart_game", args(nil)))
	require.NoError(t, err)
	text = resultText(t, result)
	assert.Contains(t, text, "Stock [##] 24")
	assert.Contains(t, text, "Seed: 42")

	result, err = client.handleNewGame(ctx, toolRequest("new_game", args(map[string]interface{}{"seed": float64(77)})))
	require.NoError(t, err)
	assert.Contains(t, resultText(t, result), "Seed: 77")

	result, err = client.handleGetSession(ctx, toolRequest("get_session", args(nil)))
	require.NoError(t, err)
	assert.Contains(t, resultText(t, result), "Session: "+sessionID)

	result, err = client.handleListSessions(ctx, toolRequest("list_sessions", nil))
	require.NoError(t, err)
	assert.Contains(t, resultText(t, result), "Active Sessions (1)")

	result, err = client.handleListConfigs(ctx, toolRequest("list_configs", nil))
	require.NoError(t, err)
	text = resultText(t, result)
	assert.Contains(t, text, "classic")
	assert.Contains(t, text, "draw_one")

	result, err = client.handleGameState(ctx, toolRequest("game_state", map[string]interface{}{"session_id": "missing"}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "session not found")
}

func TestInstructions_FoundationClickWithoutSelection(t *testing.T) {
	for name, text := range map[string]string{
		"server":       serverInstructions,
		"instructions": instructions,
	} {
		t.Run(name, func(t *testing.T) {
			lower := strings.ToLower(text)
			assert.NotContains(t, lower, "pick the top card")
			assert.NotContains(t, lower, "picks the top card")
			assert.NotContains(t, lower, "message explains")
			assert.Contains(t, lower, "ignored")
		})
	}
}

func TestClient_FoundationClickIsIgnored(t *testing.T) {
	client := newLiveClient(t)
	ctx := context.Background()

	result, err := client.handleCreateSession(ctx, toolRequest("create_session", map[string]interface{}{
		"config_id": "classic",
		"seed":      float64(7),
	}))
	require.NoError(t, err)
	text := resultText(t, result)
	sessionID := strings.TrimSpace(strings.SplitN(strings.TrimPrefix(text, "Created session: "), "\n", 2)[0])

	result, err = client.handleClick(ctx, toolRequest("click", map[string]interface{}{
		"session_id": sessionID,
		"zone":       "foundation",
		"index":      float64(0),
		"intent":     "try to pick a card up",
	}))
	require.NoError(t, err)
	text = resultText(t, result)
	require.False(t, result.IsError, text)
	assert.Contains(t, text, string(engine.OutcomeIgnored))
	assert.Contains(t, text, "Selection: none")
}

func TestClient_ClickLogsIntent(t *testing.T) {
	var buf bytes.Buffer
	prevLogger, prevLevel := log.Logger, zerolog.GlobalLevel()
	log.Logger = zerolog.New(&buf)
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	t.Cleanup(func() {
		log.Logger = prevLogger
		zerolog.SetGlobalLevel(prevLevel)
	})

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(service.ClickResult{Success: true, Outcome: engine.OutcomeDealt, GameState: &engine.GameState{}})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.handleClick(context.Background(), toolRequest("click", map[string]interface{}{
		"session_id": "abc12345",
		"zone":       "stock",
		"intent":     "dig for an ace",
	}))
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `"intent":"dig for an ace"`)
}
