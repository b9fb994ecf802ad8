package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/wricardo/mcp-training/klondike/game/engine"
)

// gameServiceImpl implements the GameService interface
type gameServiceImpl struct {
	sessions  SessionManager
	configs   ConfigManager
	publisher EventPublisher
	mu        sync.RWMutex
}

// Option customises the game service
type Option func(*gameServiceImpl)

// WithEventPublisher sends every batch of game events to p
func WithEventPublisher(p EventPublisher) Option {
	return func(s *gameServiceImpl) {
		s.publisher = p
	}
}

// NewGameService creates a new game service instance
func NewGameService(sessions SessionManager, configs ConfigManager, opts ...Option) GameService {
	s := &gameServiceImpl{
		sessions: sessions,
		configs:  configs,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// getConfigID returns the config_id for a given config name, used for consistent API responses
func (s *gameServiceImpl) getConfigID(configName string) string {
	availableConfigs, err := s.configs.ListConfigs()
	if err == nil {
		for _, cfg := range availableConfigs {
			if cfg.Name == configName {
				return cfg.ConfigID
			}
		}
	}
	if configName == "" {
		return "default"
	}
	return configName
}

// CreateSession creates a new game session. A zero seed deals at random
// unless the config pins a seed.
func (s *gameServiceImpl) CreateSession(ctx context.Context, configName string, seed int64) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var config *engine.GameConfig
	var err error
	if configName != "" {
		config, err = s.configs.LoadConfig(configName)
		if err != nil {
			if errors.Is(err, ErrConfigNotFound) {
				availableConfigs, listErr := s.configs.ListConfigs()
				if listErr == nil && len(availableConfigs) > 0 {
					var configIDs []string
					for _, cfg := range availableConfigs {
						configIDs = append(configIDs, cfg.ConfigID)
					}
					return nil, fmt.Errorf("%w: '%s'. Available configs: %v", ErrConfigNotFound, configName, configIDs)
				}
				return nil, fmt.Errorf("%w: '%s'. Use /api/configs to list available configurations", ErrConfigNotFound, configName)
			}
			return nil, fmt.Errorf("failed to load config %s: %w", configName, err)
		}
	} else {
		config = s.configs.GetDefault()
	}

	session, err := s.sessions.Create("", config, seed)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	configID := configName
	if configID == "" {
		configID = s.getConfigID(config.Name)
	}

	state := session.Engine.GetState()
	log.Info().Str("session", session.ID).Str("config", configID).Int64("seed", state.DealSeed).Msg("session created")
	s.publish(ctx, session.ID, []GameEvent{newGameEvent(session.ID, state)})

	return &SessionInfo{
		ID:             session.ID,
		ConfigName:     configID,
		CreatedAt:      session.CreatedAt,
		LastAccessedAt: session.LastAccessedAt,
		GameState:      state,
		GameConfig:     session.Config,
	}, nil
}

// GetSession retrieves session information
func (s *gameServiceImpl) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	return &SessionInfo{
		ID:             session.ID,
		ConfigName:     s.getConfigID(session.Config.Name),
		CreatedAt:      session.CreatedAt,
		LastAccessedAt: session.LastAccessedAt,
		GameState:      session.Engine.GetState(),
		GameConfig:     session.Config,
	}, nil
}

// ListSessions returns all active sessions
func (s *gameServiceImpl) ListSessions(ctx context.Context) ([]*SessionInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := s.sessions.List()
	result := make([]*SessionInfo, 0, len(sessions))

	for _, sess := range sessions {
		result = append(result, &SessionInfo{
			ID:             sess.ID,
			ConfigName:     s.getConfigID(sess.Config.Name),
			CreatedAt:      sess.CreatedAt,
			LastAccessedAt: sess.LastAccessedAt,
			GameState:      sess.Engine.GetState(),
			GameConfig:     sess.Config,
		})
	}

	return result, nil
}

// DeleteSession removes a session
func (s *gameServiceImpl) DeleteSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.sessions.Delete(sessionID); err != nil {
		return fmt.Errorf("delete session %s: %w", sessionID, err)
	}
	log.Info().Str("session", sessionID).Msg("session deleted")
	return nil
}

// Click applies one zone click to a session. Unknown zones and out-of-range
// indices are errors; rejected moves are not.
func (s *gameServiceImpl) Click(ctx context.Context, sessionID string, req ClickRequest) (*ClickResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	step, events, err := s.applyClick(sess, req)
	if err != nil {
		return nil, err
	}
	s.checkInvariants(sess)
	s.publish(ctx, sess.ID, events)

	state := sess.Engine.GetState()
	return &ClickResult{
		Success:   step.Outcome != engine.OutcomeRejected,
		Outcome:   step.Outcome,
		GameState: state,
		Message:   state.Message,
		Events:    events,
		Move:      sess.Engine.GetLastMove(),
	}, nil
}

// BulkClick applies clicks in order. It stops at the first invalid click
// or when the game is won, and never applies more than MaxBulkClicks.
func (s *gameServiceImpl) BulkClick(ctx context.Context, sessionID string, clicks []ClickRequest) (*BulkClickResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	startHome := sess.Engine.CardsHome()
	result := &BulkClickResult{
		RequestedClicks: len(clicks),
		Success:         true,
		Events:          make([]GameEvent, 0),
	}

	if len(clicks) > engine.MaxBulkClicks {
		result.Truncated = true
		result.Limit = engine.MaxBulkClicks
		clicks = clicks[:engine.MaxBulkClicks]
	}

	for i, req := range clicks {
		if sess.Engine.IsWon() {
			result.StoppedReason = "game already won"
			result.StopReasonCode = "victory"
			result.StoppedOnClick = i + 1
			break
		}

		step, events, err := s.applyClick(sess, req)
		if err != nil {
			result.Success = false
			result.StoppedReason = fmt.Sprintf("click %d invalid: %v", i+1, err)
			result.StoppedOnClick = i + 1
			switch {
			case errors.Is(err, engine.ErrInvalidZone):
				result.StopReasonCode = "invalid_zone"
			case errors.Is(err, engine.ErrInvalidIndex):
				result.StopReasonCode = "invalid_index"
			}
			break
		}

		step.Idx = i + 1
		result.ClicksExecuted++
		result.Steps = append(result.Steps, step)
		result.Events = append(result.Events, events...)
	}

	s.checkInvariants(sess)
	s.publish(ctx, sess.ID, result.Events)

	state := sess.Engine.GetState()
	result.GameState = state
	result.Won = state.Won
	result.CardsHome = state.CardsHome
	result.HomeDelta = state.CardsHome - startHome
	result.Message = state.Message
	result.LegalMoves = len(sess.Engine.LegalMoves())
	return result, nil
}

// NewGame deals a fresh game in an existing session. A zero seed picks
// the next seed from the session's source.
func (s *gameServiceImpl) NewGame(ctx context.Context, sessionID string, seed int64) (*engine.GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	var state *engine.GameState
	if seed != 0 {
		state = sess.Engine.NewGameWithSeed(seed)
	} else {
		state = sess.Engine.NewGame()
	}
	s.checkInvariants(sess)
	s.publish(ctx, sess.ID, []GameEvent{newGameEvent(sess.ID, state)})
	return state, nil
}

// Restart redeals the session's current deal
func (s *gameServiceImpl) Restart(ctx context.Context, sessionID string) (*engine.GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	state := sess.Engine.Restart()
	s.checkInvariants(sess)
	s.publish(ctx, sess.ID, []GameEvent{newGameEvent(sess.ID, state)})
	return state, nil
}

// GetGameState retrieves the current game state
func (s *gameServiceImpl) GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}
	return sess.Engine.GetState(), nil
}

// GetHints lists the card moves that would currently succeed
func (s *gameServiceImpl) GetHints(ctx context.Context, sessionID string) (*HintsResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	moves := sess.Engine.LegalMoves()
	return &HintsResponse{
		Moves:   moves,
		Count:   len(moves),
		CanDraw: sess.Engine.Selection().IsNone() && (sess.Engine.StockCount() > 0 || sess.Engine.WasteCount() > 0),
	}, nil
}

// GetMoveHistory returns paginated move history
func (s *gameServiceImpl) GetMoveHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.getSession(sessionID)
	if err != nil {
		return nil, err
	}

	history := sess.Engine.GetMoveHistory()
	total := len(history)

	// Apply defaults
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Limit <= 0 {
		opts.Limit = 20
	}
	if opts.Limit > 100 {
		opts.Limit = 100
	}
	if opts.Order == "" {
		opts.Order = "desc"
	}

	totalPages := (total + opts.Limit - 1) / opts.Limit
	if totalPages == 0 {
		totalPages = 1
	}

	start := (opts.Page - 1) * opts.Limit
	end := start + opts.Limit
	if end > total {
		end = total
	}

	var moves []engine.MoveHistoryEntry
	if opts.Order == "desc" {
		// Most recent first
		for i := total - 1 - start; i >= 0 && i >= total-end; i-- {
			moves = append(moves, history[i])
		}
	} else if start < total {
		moves = append(moves, history[start:end]...)
	}

	if moves == nil {
		moves = []engine.MoveHistoryEntry{}
	}

	return &HistoryResponse{
		Moves:       moves,
		TotalMoves:  total,
		Page:        opts.Page,
		PageSize:    opts.Limit,
		TotalPages:  totalPages,
		HasNext:     opts.Page < totalPages,
		HasPrevious: opts.Page > 1,
	}, nil
}

// ListConfigs returns available game configurations
func (s *gameServiceImpl) ListConfigs(ctx context.Context) ([]*ConfigInfo, error) {
	return s.configs.ListConfigs()
}

// LoadConfig loads a specific game configuration
func (s *gameServiceImpl) LoadConfig(ctx context.Context, configName string) (*engine.GameConfig, error) {
	return s.configs.LoadConfig(configName)
}

// SaveConfig saves a game configuration to disk
func (s *gameServiceImpl) SaveConfig(ctx context.Context, configName string, config *engine.GameConfig) error {
	return s.configs.SaveConfig(configName, config)
}

// getSession looks a session up and marks it as accessed. Callers hold the
// write lock because the touch writes LastAccessedAt.
func (s *gameServiceImpl) getSession(sessionID string) (*Session, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
		}
		return nil, fmt.Errorf("session %s: %w", sessionID, err)
	}
	if err := s.sessions.UpdateLastAccessed(sessionID); err != nil {
		log.Warn().Err(err).Str("session", sessionID).Msg("failed to update last access time")
	}
	return sess, nil
}

// applyClick runs one click and turns its history entry into events
func (s *gameServiceImpl) applyClick(sess *Session, req ClickRequest) (ClickStep, []GameEvent, error) {
	zone, err := engine.ParseZone(req.Zone)
	if err != nil {
		return ClickStep{}, nil, err
	}

	wasWon := sess.Engine.IsWon()
	if err := sess.Engine.Click(zone, req.Index); err != nil {
		return ClickStep{}, nil, err
	}

	move := sess.Engine.GetLastMove()
	if move == nil {
		return ClickStep{}, nil, fmt.Errorf("click on %s recorded no history", zone)
	}

	step := ClickStep{
		Zone:    move.Zone,
		Index:   move.Index,
		Outcome: move.Outcome,
		Cards:   move.Cards,
		Flipped: move.Flipped,
	}

	events := []GameEvent{}
	if eventType, ok := outcomeEvents[move.Outcome]; ok {
		events = append(events, GameEvent{
			Type:      eventType,
			SessionID: sess.ID,
			Message:   sess.Engine.GetState().Message,
			Timestamp: time.Now(),
			Zone:      move.Zone,
			Index:     move.Index,
			Cards:     move.Cards,
		})
	}
	if !wasWon && sess.Engine.IsWon() {
		events = append(events, GameEvent{
			Type:      EventVictory,
			SessionID: sess.ID,
			Message:   sess.Config.Messages.Victory,
			Timestamp: time.Now(),
			Index:     -1,
		})
		log.Info().Str("session", sess.ID).Int("clicks", len(sess.Engine.GetMoveHistory())).Msg("game won")
	}

	return step, events, nil
}

// outcomeEvents maps click outcomes to event types; ignored clicks emit nothing
var outcomeEvents = map[engine.Outcome]string{
	engine.OutcomeDealt:      EventDealt,
	engine.OutcomeRecycled:   EventRecycled,
	engine.OutcomeSelected:   EventSelected,
	engine.OutcomeDeselected: EventDeselected,
	engine.OutcomeMoved:      EventMoved,
	engine.OutcomeRejected:   EventRejected,
}

func newGameEvent(sessionID string, state *engine.GameState) GameEvent {
	return GameEvent{
		Type:      EventNewGame,
		SessionID: sessionID,
		Message:   fmt.Sprintf("Dealt game %d", state.DealSeed),
		Timestamp: time.Now(),
		Index:     -1,
	}
}

// checkInvariants logs a corrupted board; it never fails the request
func (s *gameServiceImpl) checkInvariants(sess *Session) {
	if err := sess.Engine.CheckInvariants(); err != nil {
		log.Error().Err(err).Str("session", sess.ID).Int64("seed", sess.Engine.DealSeed()).Msg("board invariant violated")
	}
}

// publish forwards events to the configured publisher, if any
func (s *gameServiceImpl) publish(ctx context.Context, sessionID string, events []GameEvent) {
	if s.publisher == nil || len(events) == 0 {
		return
	}
	if err := s.publisher.Publish(ctx, sessionID, events); err != nil {
		log.Warn().Err(err).Str("session", sessionID).Int("events", len(events)).Msg("failed to publish events")
	}
}
