package service

import (
	"time"

	"github.com/wricardo/mcp-training/klondike/game/engine"
)

// SessionInfo provides information about a game session
type SessionInfo struct {
	ID             string             `json:"id"`
	ConfigName     string             `json:"config_name"`
	CreatedAt      time.Time          `json:"created_at"`
	LastAccessedAt time.Time          `json:"last_accessed_at"`
	GameState      *engine.GameState  `json:"game_state"`
	GameConfig     *engine.GameConfig `json:"game_config"`
}

// ClickRequest is one click on a board zone. Index is required for
// foundation (0-3) and pile (0-6) clicks and ignored otherwise.
type ClickRequest struct {
	Zone  string `json:"zone"`
	Index int    `json:"index"`
}

// ClickResult contains the result of a single click
type ClickResult struct {
	Success   bool                     `json:"success"` // false only for rejected moves
	Outcome   engine.Outcome           `json:"outcome"`
	GameState *engine.GameState        `json:"game_state"`
	Message   string                   `json:"message"`
	Events    []GameEvent              `json:"events,omitempty"`
	Move      *engine.MoveHistoryEntry `json:"move,omitempty"`
}

// BulkClickResult contains the result of several clicks
type BulkClickResult struct {
	ClicksExecuted  int               `json:"clicks_executed"`
	RequestedClicks int               `json:"requested_clicks"`
	Success         bool              `json:"success"`
	GameState       *engine.GameState `json:"game_state"`
	Events          []GameEvent       `json:"events"`
	Steps           []ClickStep       `json:"steps,omitempty"`

	StoppedReason  string `json:"stopped_reason,omitempty"`   // Human-readable reason
	StopReasonCode string `json:"stop_reason_code,omitempty"` // invalid_zone|invalid_index|victory
	StoppedOnClick int    `json:"stopped_on_click,omitempty"` // 1-based index of the click that caused stop
	Truncated      bool   `json:"truncated,omitempty"`
	Limit          int    `json:"limit,omitempty"`

	Won        bool   `json:"won"`
	CardsHome  int    `json:"cards_home"`
	HomeDelta  int    `json:"home_delta"`
	Message    string `json:"message,omitempty"`
	LegalMoves int    `json:"legal_moves"`
}

// ClickStep is a compact record of one executed click in a bulk call
type ClickStep struct {
	Idx     int            `json:"idx"`
	Zone    engine.Zone    `json:"zone"`
	Index   int            `json:"index"`
	Outcome engine.Outcome `json:"outcome"`
	Cards   []string       `json:"cards,omitempty"`
	Flipped bool           `json:"flipped,omitempty"`
}

// Event types
const (
	EventDealt      = "dealt"
	EventRecycled   = "recycled"
	EventSelected   = "selected"
	EventDeselected = "deselected"
	EventMoved      = "moved"
	EventRejected   = "rejected"
	EventVictory    = "victory"
	EventNewGame    = "new_game"
)

// GameEvent represents an event that occurred during gameplay
type GameEvent struct {
	Type      string      `json:"type"`
	SessionID string      `json:"session_id,omitempty"`
	Message   string      `json:"message"`
	Timestamp time.Time   `json:"timestamp"`
	Zone      engine.Zone `json:"zone,omitempty"`
	Index     int         `json:"index"`
	Cards     []string    `json:"cards,omitempty"`
}

// HintsResponse lists the moves that would currently succeed
type HintsResponse struct {
	Moves []engine.LegalMove `json:"moves"`
	Count int                `json:"count"`
	// CanDraw is true when a stock click would deal or recycle
	CanDraw bool `json:"can_draw"`
}

// HistoryOptions configures move history retrieval
type HistoryOptions struct {
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
	Order string `json:"order"` // "asc" or "desc"
}

// HistoryResponse contains paginated move history
type HistoryResponse struct {
	Moves       []engine.MoveHistoryEntry `json:"moves"`
	TotalMoves  int                       `json:"total_moves"`
	Page        int                       `json:"page"`
	PageSize    int                       `json:"page_size"`
	TotalPages  int                       `json:"total_pages"`
	HasNext     bool                      `json:"has_next"`
	HasPrevious bool                      `json:"has_previous"`
}

// ConfigInfo provides information about a game configuration
type ConfigInfo struct {
	Filename                  string `json:"filename"`
	ConfigID                  string `json:"config_id"` // The identifier to use for session creation
	Name                      string `json:"name"`      // Display name
	Description               string `json:"description"`
	DrawCount                 int    `json:"draw_count"`
	StickyFoundationSelection bool   `json:"sticky_foundation_selection"`
}
