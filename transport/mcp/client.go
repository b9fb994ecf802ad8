package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog/log"

	"github.com/wricardo/mcp-training/klondike/game/engine"
	"github.com/wricardo/mcp-training/klondike/game/service"
)

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Klondike Solitaire",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(serverInstructions),
	)

	c.registerTools()
}

func sessionIDProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Session ID",
	}
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	// Session management
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "create_session",
		Description: "Create a new game session with optional rule set and deal seed",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"config_id": map[string]interface{}{
					"type":        "string",
					"description": "Rule set to use, see list_configs (optional, defaults to classic)",
				},
				"seed": map[string]interface{}{
					"type":        "integer",
					"description": "Deal seed for a reproducible shuffle (optional)",
				},
			},
		},
	}, c.handleCreateSession)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_sessions",
		Description: "List all active game sessions",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListSessions)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_session",
		Description: "Get details of a specific session",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
			},
			Required: []string{"session_id"},
		},
	}, c.handleGetSession)

	// Game operations
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_state",
		Description: "Get the current board as text",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
			},
			Required: []string{"session_id"},
		},
	}, c.handleGameState)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "click",
		Description: "Click one zone of the board",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
				"zone": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"stock", "waste", "foundation", "pile"},
					"description": "Zone to click",
				},
				"index": map[string]interface{}{
					"type":        "integer",
					"description": "Foundation (0-3) or pile (0-6) index. Ignored for stock and waste.",
				},
				"intent": map[string]interface{}{
					"type":        "string",
					"description": "Brief explanation of the intent behind this click (serves as a rubber duck to help explain your reasoning)",
				},
			},
			Required: []string{"session_id", "zone"},
		},
	}, c.handleClick)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "bulk_click",
		Description: fmt.Sprintf("Execute several clicks in order (at most %d). Stops at an invalid click or on victory.", engine.MaxBulkClicks),
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
				"clicks": map[string]interface{}{
					"type": "array",
					"items": map[string]interface{}{
						"type": "string",
					},
					"description": `Clicks such as "stock", "waste", "pile 3" or "foundation 0"`,
				},
				"intent": map[string]interface{}{
					"type":        "string",
					"description": "Brief explanation of the intent behind this sequence of clicks (serves as a rubber duck to help explain your reasoning)",
				},
			},
			Required: []string{"session_id", "clicks"},
		},
	}, c.handleBulkClick)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "hints",
		Description: "List the card moves that would succeed from the current position",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
			},
			Required: []string{"session_id"},
		},
	}, c.handleHints)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "new_game",
		Description: "Deal a new game in the session",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
				"seed": map[string]interface{}{
					"type":        "integer",
					"description": "Deal seed (optional, random when omitted)",
				},
			},
			Required: []string{"session_id"},
		},
	}, c.handleNewGame)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "restart_game",
		Description: "Redeal the current game from the beginning",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
			},
			Required: []string{"session_id"},
		},
	}, c.handleRestart)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "move_history",
		Description: "Get click history for the current deal",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
				"page": map[string]interface{}{
					"type":        "integer",
					"description": "Page number",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Items per page",
				},
				"order": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"asc", "desc"},
					"description": "Oldest (asc) or newest (desc) first",
				},
			},
			Required: []string{"session_id"},
		},
	}, c.handleMoveHistory)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_configs",
		Description: "List available rule sets",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListConfigs)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_instructions",
		Description: "Get the complete rules and the click protocol",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleGameInstructions)
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// Helper methods for API calls

func (c *Client) apiCall(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp map[string]string
		json.NewDecoder(resp.Body).Decode(&errResp)
		if msg, ok := errResp["error"]; ok {
			return fmt.Errorf("%s", msg)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}

	return nil
}

func sessionPath(sessionID, suffix string) string {
	return "/api/sessions/" + url.PathEscape(sessionID) + suffix
}

// arguments returns the tool arguments, or an empty map when there are none
func arguments(request mcp.CallToolRequest) map[string]interface{} {
	if args, ok := request.Params.Arguments.(map[string]interface{}); ok {
		return args
	}
	return map[string]interface{}{}
}

// intArg reads a JSON number argument
func intArg(args map[string]interface{}, key string) (int64, bool) {
	switch v := args[key].(type) {
	case float64:
		return int64(v), true
	case int:
		return int64(v), true
	case int64:
		return v, true
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		return n, err == nil
	}
	return 0, false
}

// requireSession returns the session_id argument or a tool error
func requireSession(args map[string]interface{}) (string, *mcp.CallToolResult) {
	sessionID, _ := args["session_id"].(string)
	if sessionID == "" {
		return "", mcp.NewToolResultError("session_id is required")
	}
	return sessionID, nil
}

// Tool handlers

func (c *Client) handleCreateSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)

	body := map[string]interface{}{}
	if configID, _ := args["config_id"].(string); configID != "" {
		body["config_id"] = configID
	}
	if seed, ok := intArg(args, "seed"); ok && seed != 0 {
		body["seed"] = seed
	}

	var session service.SessionInfo
	if err := c.apiCall(ctx, "POST", "/api/sessions", body, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Created session: %s\nConfig: %s\n\n%s", session.ID, session.ConfigName, formatGameState(session.GameState))
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleListSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Count    int                   `json:"count"`
		Sessions []service.SessionInfo `json:"sessions"`
	}

	if err := c.apiCall(ctx, "GET", "/api/sessions", nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Active Sessions (%d):\n\n", response.Count)
	for _, s := range response.Sessions {
		home := 0
		if s.GameState != nil {
			home = s.GameState.CardsHome
		}
		fmt.Fprintf(&b, "- %s (Config: %s, Home: %d/%d, Created: %s)\n",
			s.ID, s.ConfigName, home, engine.DeckSize, s.CreatedAt.Format("15:04:05"))
	}

	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, errResult := requireSession(arguments(request))
	if errResult != nil {
		return errResult, nil
	}

	var session service.SessionInfo
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, ""), nil, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSessionInfo(&session)), nil
}

func (c *Client) handleGameState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, errResult := requireSession(arguments(request))
	if errResult != nil {
		return errResult, nil
	}

	var state engine.GameState
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, "/state"), nil, &state); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatGameState(&state)), nil
}

func (c *Client) handleClick(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, errResult := requireSession(args)
	if errResult != nil {
		return errResult, nil
	}
	zone, _ := args["zone"].(string)
	index, _ := intArg(args, "index")

	intent, _ := args["intent"].(string)
	log.Debug().Str("session", sessionID).Str("zone", zone).Int64("index", index).Str("intent", intent).Msg("click")

	body := service.ClickRequest{Zone: zone, Index: int(index)}

	var result service.ClickResult
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "/click"), body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatClickResult(&result)), nil
}

func (c *Client) handleBulkClick(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, errResult := requireSession(args)
	if errResult != nil {
		return errResult, nil
	}
	raw, _ := args["clicks"].([]interface{})

	clicks := make([]service.ClickRequest, 0, len(raw))
	for i, item := range raw {
		click, err := parseClick(item)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("click %d: %v", i+1, err)), nil
		}
		clicks = append(clicks, click)
	}
	intent, _ := args["intent"].(string)
	log.Debug().Str("session", sessionID).Int("clicks", len(clicks)).Str("intent", intent).Msg("bulk click")

	if len(clicks) == 0 {
		return mcp.NewToolResultError("clicks must not be empty"), nil
	}

	body := map[string]interface{}{"clicks": clicks}

	var result service.BulkClickResult
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "/bulk-click"), body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatBulkClickResult(sessionID, &result)), nil
}

// parseClick accepts "stock", "pile 3", "pile:3", "foundation-0" or an
// object {"zone": "pile", "index": 3}
func parseClick(item interface{}) (service.ClickRequest, error) {
	switch v := item.(type) {
	case string:
		fields := strings.FieldsFunc(strings.TrimSpace(v), func(r rune) bool {
			return r == ' ' || r == ':' || r == '-' || r == ','
		})
		if len(fields) == 0 {
			return service.ClickRequest{}, fmt.Errorf("empty click")
		}
		zone, err := engine.ParseZone(fields[0])
		if err != nil {
			return service.ClickRequest{}, err
		}
		click := service.ClickRequest{Zone: string(zone)}
		if zone.Indexed() {
			if len(fields) < 2 {
				return service.ClickRequest{}, fmt.Errorf("%s needs an index", zone)
			}
			n, err := strconv.Atoi(fields[1])
			if err != nil {
				return service.ClickRequest{}, fmt.Errorf("bad index %q", fields[1])
			}
			click.Index = n
		}
		return click, nil

	case map[string]interface{}:
		zone, _ := v["zone"].(string)
		if zone == "" {
			return service.ClickRequest{}, fmt.Errorf("zone is required")
		}
		index, _ := intArg(v, "index")
		return service.ClickRequest{Zone: zone, Index: int(index)}, nil
	}
	return service.ClickRequest{}, fmt.Errorf("unsupported click %v", item)
}

func (c *Client) handleHints(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, errResult := requireSession(arguments(request))
	if errResult != nil {
		return errResult, nil
	}

	var hints service.HintsResponse
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, "/hints"), nil, &hints); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatHints(&hints)), nil
}

func (c *Client) handleNewGame(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, errResult := requireSession(args)
	if errResult != nil {
		return errResult, nil
	}

	body := map[string]interface{}{}
	if seed, ok := intArg(args, "seed"); ok && seed != 0 {
		body["seed"] = seed
	}

	var response struct {
		Message string            `json:"message"`
		State   *engine.GameState `json:"state"`
	}
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "/new-game"), body, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("%s\n\n%s", response.Message, formatGameState(response.State))), nil
}

func (c *Client) handleRestart(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, errResult := requireSession(arguments(request))
	if errResult != nil {
		return errResult, nil
	}

	var response struct {
		Message string            `json:"message"`
		State   *engine.GameState `json:"state"`
	}
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "/restart"), nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("%s\n\n%s", response.Message, formatGameState(response.State))), nil
}

func (c *Client) handleMoveHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, errResult := requireSession(args)
	if errResult != nil {
		return errResult, nil
	}

	params := url.Values{}
	if page, ok := intArg(args, "page"); ok {
		params.Set("page", strconv.FormatInt(page, 10))
	}
	if limit, ok := intArg(args, "limit"); ok {
		params.Set("limit", strconv.FormatInt(limit, 10))
	}
	if order, _ := args["order"].(string); order != "" {
		params.Set("order", order)
	}

	path := sessionPath(sessionID, "/history")
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var history service.HistoryResponse
	if err := c.apiCall(ctx, "GET", path, nil, &history); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatHistory(&history)), nil
}

func (c *Client) handleListConfigs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var configs []service.ConfigInfo
	if err := c.apiCall(ctx, "GET", "/api/configs", nil, &configs); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	b.WriteString("Available Configurations:\n\n")
	for _, config := range configs {
		fmt.Fprintf(&b, "• %s (%s)\n  %s\n  Draw: %d", config.ConfigID, config.Name, config.Description, config.DrawCount)
		if config.StickyFoundationSelection {
			b.WriteString(", selection stays after a foundation move")
		}
		b.WriteString("\n\n")
	}

	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleGameInstructions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(instructions), nil
}

// serverInstructions is sent to MCP clients on initialize
const serverInstructions = `Klondike Solitaire - MCP Interface

This is a thin client that proxies all requests to the REST API server.

GAME OBJECTIVE:
Move all 52 cards to the four foundations, each built up by suit from Ace to King.

You play by clicking zones, exactly like a mouse on a card table:
- stock: deal cards to the waste, or recycle the waste when the stock is empty
- waste: select the top waste card
- foundation (index 0-3): send the selection home; ignored when nothing is selected
- pile (index 0-6): select a pile's face-up run, or drop the selection on it

AVAILABLE TOOLS:
- create_session / get_session / list_sessions: manage games
- game_state: the board as text
- click: one click, requires intent explanation
- bulk_click: several clicks, requires intent explanation
- hints: moves that would succeed right now
- new_game / restart_game: deal again
- move_history: past clicks and their outcomes
- list_configs: available rule sets
- game_instructions: full rules

NOTE: The 'intent' parameter on click/bulk_click serves as rubber duck debugging - explain your reasoning!`

const instructions = `🃏 Klondike Solitaire - Complete Instructions

GAME OBJECTIVE:
Build all four foundations up by suit, Ace to King. The game is won when all 52 cards are home.

THE TABLE:
• Stock - face-down cards left after the deal (24 at the start)
• Waste - cards turned over from the stock; only the top one is playable
• Foundations 0-3 - one per suit, built Ace, 2, 3 ... King
• Piles 0-6 - pile N starts with N+1 cards, only the top one face up

CARD NOTATION:
• Ranks: A 2 3 4 5 6 7 8 9 10 J Q K
• Suits: ♣ clubs, ♦ diamonds, ♥ hearts, ♠ spades (♦ ♥ are red)
• ## is a face-down card, [  ] an empty stock or waste
• A '*' marks the current selection

HOW CLICKS WORK:
Everything is a click on a zone. Moving a card takes two clicks: select the source, then click the destination.

• stock - turns the next card(s) onto the waste (draw count from the rule set).
  When the stock is empty it turns the whole waste back over. Ignored while something is selected.
• waste - selects the top waste card. Clicking it again deselects.
• pile N with nothing selected - selects the pile's face-up run. A face-down top card is turned up first.
• pile N with a selection - drops the waste card or the selected run onto pile N.
  Legal when the moving card is one rank lower and the opposite colour of the pile's top card,
  or when pile N is empty and the moving card is a King.
• pile N when pile N is selected - deselects.
• foundation N with a selection - sends the waste card, or the top card of the selected pile, home.
  Legal when it is the Ace of an empty foundation or the next rank of the same suit.
• foundation N with nothing selected - ignored. Cards never leave a foundation.

REJECTED MOVES:
A move the rules do not allow is not an error. The board does not change, the result says "rejected",
and the message is the rule set's generic rejection text. Call hints to see what would succeed.
After a rejected drop from a pile the selection is cleared; a rejected waste card stays selected.

🤖 STRATEGY FOR AGENTS:
1. Call hints first - it lists every card move that would succeed right now.
2. Send Aces and Twos home as soon as they appear.
3. Prefer moves that turn up face-down pile cards; hidden cards are the real obstacle.
4. Keep empty piles for Kings that free long face-down stacks.
5. Use bulk_click for the two-click moves, e.g. ["waste", "pile 3"] or ["pile 6", "foundation 0"].
6. Cycle the stock when nothing else moves. With draw three the order of the waste changes every pass.

API USAGE BEST PRACTICES:
- bulk_click stops at the first invalid zone or index and when the game is won
- restart_game redeals the same shuffle; new_game with a seed gives a reproducible deal
- move_history shows every click with its outcome

Good luck, and may the Kings come out early! ♠♥♣♦`

// Formatting helpers

func formatSessionInfo(session *service.SessionInfo) string {
	return fmt.Sprintf("Session: %s\nConfig: %s\nCreated: %s\n\n%s",
		session.ID, session.ConfigName,
		session.CreatedAt.Format("2006-01-02 15:04:05"),
		formatGameState(session.GameState))
}

func formatGameState(state *engine.GameState) string {
	if state == nil {
		return "No game state available"
	}

	var b strings.Builder
	b.WriteString(engine.RenderBoard(state))
	if state.Won {
		b.WriteString("\n🎉 VICTORY!\n")
	}
	return b.String()
}

func formatClickResult(result *service.ClickResult) string {
	var b strings.Builder
	if result.Success {
		fmt.Fprintf(&b, "✓ %s\n", result.Outcome)
	} else {
		fmt.Fprintf(&b, "✗ %s\n", result.Outcome)
	}

	if m := result.Move; m != nil {
		fmt.Fprintf(&b, "Click #%d: %s", m.MoveNumber, formatZone(m.Zone, m.Index))
		if len(m.Cards) > 0 {
			fmt.Fprintf(&b, " cards=%s", strings.Join(m.Cards, ","))
		}
		if m.Flipped {
			b.WriteString(" (turned up a card)")
		}
		b.WriteString("\n")
	}

	for _, ev := range result.Events {
		if ev.Type == service.EventVictory {
			b.WriteString("🎉 All cards are home!\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(formatGameState(result.GameState))
	return b.String()
}

func formatBulkClickResult(sessionID string, result *service.BulkClickResult) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Session %s: executed %d/%d clicks", sessionID, result.ClicksExecuted, result.RequestedClicks)
	if result.Truncated {
		fmt.Fprintf(&b, " (truncated to %d)", result.Limit)
	}
	b.WriteString("\n")

	if result.StoppedReason != "" {
		fmt.Fprintf(&b, "Stopped at click %d: %s", result.StoppedOnClick, result.StoppedReason)
		if result.StopReasonCode != "" {
			fmt.Fprintf(&b, " [%s]", result.StopReasonCode)
		}
		b.WriteString("\n")
	}

	for _, step := range result.Steps {
		fmt.Fprintf(&b, "  %2d. %-13s %s", step.Idx, formatZone(step.Zone, step.Index), step.Outcome)
		if len(step.Cards) > 0 {
			fmt.Fprintf(&b, " %s", strings.Join(step.Cards, ","))
		}
		if step.Flipped {
			b.WriteString(" (turned up)")
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "Home: %d/%d (%+d)   Legal moves: %d\n\n", result.CardsHome, engine.DeckSize, result.HomeDelta, result.LegalMoves)
	b.WriteString(formatGameState(result.GameState))
	return b.String()
}

func formatHints(hints *service.HintsResponse) string {
	var b strings.Builder
	if hints.Count == 0 {
		b.WriteString("No card moves available.\n")
	} else {
		fmt.Fprintf(&b, "Available moves (%d):\n", hints.Count)
		for _, m := range hints.Moves {
			fmt.Fprintf(&b, "- %s → %s: %s", formatZone(m.From, m.FromIndex), formatZone(m.To, m.ToIndex), m.Card)
			if m.RunLength > 1 {
				fmt.Fprintf(&b, " (+%d more)", m.RunLength-1)
			}
			fmt.Fprintf(&b, "   clicks: [%q, %q]\n", formatZone(m.From, m.FromIndex), formatZone(m.To, m.ToIndex))
		}
	}
	if hints.CanDraw {
		b.WriteString("The stock can be clicked.\n")
	}
	return b.String()
}

func formatHistory(history *service.HistoryResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Click History (Page %d/%d, Total: %d):\n\n",
		history.Page, history.TotalPages, history.TotalMoves)

	for _, m := range history.Moves {
		fmt.Fprintf(&b, "#%d: %-13s %s", m.MoveNumber, formatZone(m.Zone, m.Index), m.Outcome)
		if len(m.Cards) > 0 {
			fmt.Fprintf(&b, " %s", strings.Join(m.Cards, ","))
		}
		if m.Flipped {
			b.WriteString(" (turned up)")
		}
		b.WriteString("\n")
	}

	if history.HasNext {
		b.WriteString("\nMore clicks on the next page.\n")
	}
	return b.String()
}

func formatZone(zone engine.Zone, index int) string {
	if zone.Indexed() {
		return fmt.Sprintf("%s %d", zone, index)
	}
	return string(zone)
}
