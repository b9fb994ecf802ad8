package engine

import (
	"fmt"
	"math/rand"
	"time"
)

// Engine provides the main interface for game operations
type Engine interface {
	// Game lifecycle
	NewGame() *GameState
	NewGameWithSeed(seed int64) *GameState
	Restart() *GameState
	GetState() *GameState
	IsWon() bool

	// Zone commands
	StockClicked()
	WasteClicked()
	FoundationClicked(index int) error
	PileClicked(index int) error
	Click(zone Zone, index int) error

	// Queries
	StockCard() (Card, bool)
	WasteCard() (Card, bool)
	FoundationCard(index int) (Card, bool)
	Pile(index int) []Card
	Selection() Selection
	LegalMoves() []LegalMove

	// Configuration
	GetConfig() *GameConfig

	// History
	GetMoveHistory() []MoveHistoryEntry
	GetLastMove() *MoveHistoryEntry
}

// GameEngine implements the Engine interface. It is not safe for concurrent
// use; callers serialise access.
type GameEngine struct {
	config *GameConfig
	seeds  *rand.Rand

	stock       Stack
	waste       Stack
	foundations [NumFoundations]Stack
	piles       [NumPiles]Stack
	selection   Selection

	dealSeed int64
	won      bool
	message  string
	history  []MoveHistoryEntry
}

// Option customises engine construction
type Option func(*engineOptions)

type engineOptions struct {
	seed    int64
	hasSeed bool
}

// WithSeed makes the first deal use seed and derives later deals from it
func WithSeed(seed int64) Option {
	return func(o *engineOptions) {
		o.seed = seed
		o.hasSeed = true
	}
}

// NewEngine validates config and deals the first game
func NewEngine(config *GameConfig, opts ...Option) (*GameEngine, error) {
	if err := ValidateGameConfig(config); err != nil {
		return nil, err
	}
	return newEngine(config, opts...), nil
}

// NewEngineWithDefaults creates an engine using the classic draw-three rules
func NewEngineWithDefaults(opts ...Option) *GameEngine {
	return newEngine(DefaultGameConfig(), opts...)
}

func newEngine(config *GameConfig, opts ...Option) *GameEngine {
	o := engineOptions{}
	if config.Seed != 0 {
		o.seed, o.hasSeed = config.Seed, true
	}
	for _, opt := range opts {
		opt(&o)
	}

	e := &GameEngine{config: withDefaultMessages(config)}
	if o.hasSeed {
		e.seeds = rand.New(rand.NewSource(o.seed))
		e.start(o.seed)
	} else {
		e.seeds = rand.New(rand.NewSource(time.Now().UnixNano()))
		e.start(e.seeds.Int63())
	}
	return e
}

// start deals from seed and clears per-deal bookkeeping
func (e *GameEngine) start(seed int64) {
	e.deal(seed)
	e.won = false
	e.history = []MoveHistoryEntry{}
	e.message = e.config.Messages.Welcome
}

// NewGame deals a fresh shuffle
func (e *GameEngine) NewGame() *GameState {
	e.start(e.seeds.Int63())
	return e.GetState()
}

// NewGameWithSeed deals the shuffle identified by seed
func (e *GameEngine) NewGameWithSeed(seed int64) *GameState {
	e.start(seed)
	return e.GetState()
}

// Restart redeals the current shuffle from the beginning
func (e *GameEngine) Restart() *GameState {
	e.start(e.dealSeed)
	return e.GetState()
}

// StockClicked deals from the stock to the waste, or recycles the waste
// into the stock when the stock is empty. Ignored while anything is selected.
func (e *GameEngine) StockClicked() {
	if !e.selection.IsNone() {
		e.record(ZoneStock, -1, OutcomeIgnored, nil, false)
		return
	}

	if !e.stock.IsEmpty() {
		var moved []string
		for n := 0; n < e.config.DrawCount && !e.stock.IsEmpty(); n++ {
			c := e.stock.Pop()
			c.TurnUp()
			e.waste.Push(c)
			moved = append(moved, c.ID())
		}
		e.record(ZoneStock, -1, OutcomeDealt, moved, false)
		return
	}

	if e.waste.IsEmpty() {
		e.record(ZoneStock, -1, OutcomeIgnored, nil, false)
		return
	}

	count := 0
	for !e.waste.IsEmpty() {
		c := e.waste.Pop()
		c.TurnDown()
		e.stock.Push(c)
		count++
	}
	e.record(ZoneStock, -1, OutcomeRecycled, nil, false)
	e.message = fmt.Sprintf(e.config.Messages.Recycled, count)
}

// WasteClicked toggles the waste selection. A selected pile is never
// overridden.
func (e *GameEngine) WasteClicked() {
	switch {
	case e.selection.IsWaste():
		e.selection = NoSelection
		e.record(ZoneWaste, -1, OutcomeDeselected, nil, false)
	case !e.waste.IsEmpty() && e.selection.Kind != SelectPile:
		e.selection = WasteSelection()
		e.record(ZoneWaste, -1, OutcomeSelected, []string{e.waste.Peek().ID()}, false)
	default:
		e.record(ZoneWaste, -1, OutcomeIgnored, nil, false)
	}
}

// FoundationClicked tries to move the selected waste or pile top card onto
// foundation index.
func (e *GameEngine) FoundationClicked(index int) error {
	if index < 0 || index >= NumFoundations {
		return fmt.Errorf("foundation %d: %w", index, ErrInvalidIndex)
	}

	pile, pileSelected := e.selection.SelectedPile()
	switch {
	case e.selection.IsWaste() && !e.waste.IsEmpty():
		top := e.waste.Peek()
		if !e.canAddToFoundation(top, index) {
			e.record(ZoneFoundation, index, OutcomeRejected, []string{top.ID()}, false)
			return nil
		}
		e.foundations[index].Push(e.waste.Pop())
		if !e.config.StickyFoundationSelection {
			e.selection = NoSelection
		}
		e.record(ZoneFoundation, index, OutcomeMoved, []string{top.ID()}, false)

	case pileSelected && !e.piles[pile].IsEmpty():
		top := e.piles[pile].Peek()
		if !e.canAddToFoundation(top, index) {
			e.selection = NoSelection
			e.record(ZoneFoundation, index, OutcomeRejected, []string{top.ID()}, false)
			return nil
		}
		moved := e.piles[pile].Pop()
		moved.TurnUp()
		e.foundations[index].Push(moved)
		if !e.config.StickyFoundationSelection {
			e.selection = NoSelection
		}
		e.record(ZoneFoundation, index, OutcomeMoved, []string{top.ID()}, false)

	default:
		e.record(ZoneFoundation, index, OutcomeIgnored, nil, false)
	}
	return nil
}

// PileClicked moves the selected waste card or face-up run onto pile index,
// or selects the pile when nothing is selected.
func (e *GameEngine) PileClicked(index int) error {
	if index < 0 || index >= NumPiles {
		return fmt.Errorf("pile %d: %w", index, ErrInvalidIndex)
	}

	if e.selection.IsWaste() && !e.waste.IsEmpty() {
		top := e.waste.Peek()
		if !e.canAddToPile(top, index) {
			// The waste stays selected for another attempt
			e.record(ZonePile, index, OutcomeRejected, []string{top.ID()}, false)
			return nil
		}
		e.piles[index].Push(e.waste.Pop())
		e.selection = NoSelection
		e.record(ZonePile, index, OutcomeMoved, []string{top.ID()}, false)
		return nil
	}

	if from, ok := e.selection.SelectedPile(); ok {
		e.selection = NoSelection
		if from == index {
			e.record(ZonePile, index, OutcomeDeselected, nil, false)
			return nil
		}

		run := e.piles[from].takeFaceUpRun()
		ids := cardIDs(run)
		if len(run) > 0 && e.canAddToPile(run[0], index) {
			e.piles[index].pushRun(run)
			e.record(ZonePile, index, OutcomeMoved, ids, false)
			return nil
		}
		e.piles[from].pushRun(run)
		e.record(ZonePile, index, OutcomeRejected, ids, false)
		return nil
	}

	flipped := false
	if top := e.piles[index].Peek(); top != nil && !top.faceUp {
		top.TurnUp()
		flipped = true
	}
	e.selection = PileSelection(index)
	e.record(ZonePile, index, OutcomeSelected, nil, flipped)
	return nil
}

// Click dispatches a zone click; index is ignored for stock and waste
func (e *GameEngine) Click(zone Zone, index int) error {
	switch zone {
	case ZoneStock:
		e.StockClicked()
	case ZoneWaste:
		e.WasteClicked()
	case ZoneFoundation:
		return e.FoundationClicked(index)
	case ZonePile:
		return e.PileClicked(index)
	default:
		return fmt.Errorf("%w: %q", ErrInvalidZone, zone)
	}
	return nil
}

// StockCard returns the top of the stock
func (e *GameEngine) StockCard() (Card, bool) {
	return peekCard(&e.stock)
}

// WasteCard returns the top of the waste
func (e *GameEngine) WasteCard() (Card, bool) {
	return peekCard(&e.waste)
}

// FoundationCard returns the top of foundation index. Out-of-range indices
// report an empty foundation.
func (e *GameEngine) FoundationCard(index int) (Card, bool) {
	if index < 0 || index >= NumFoundations {
		return Card{}, false
	}
	return peekCard(&e.foundations[index])
}

// Pile returns a bottom-to-top copy of tableau pile index, or nil when the
// index is out of range.
func (e *GameEngine) Pile(index int) []Card {
	if index < 0 || index >= NumPiles {
		return nil
	}
	return e.piles[index].Cards()
}

// Selection returns the current selection
func (e *GameEngine) Selection() Selection {
	return e.selection
}

// StockCount returns the number of cards left in the stock
func (e *GameEngine) StockCount() int {
	return e.stock.Len()
}

// WasteCount returns the number of cards in the waste
func (e *GameEngine) WasteCount() int {
	return e.waste.Len()
}

// CardsHome returns the number of cards on the foundations
func (e *GameEngine) CardsHome() int {
	n := 0
	for i := range e.foundations {
		n += e.foundations[i].Len()
	}
	return n
}

// IsWon reports whether every card has reached the foundations
func (e *GameEngine) IsWon() bool {
	return e.CardsHome() == DeckSize
}

// DealSeed returns the seed of the current deal
func (e *GameEngine) DealSeed() int64 {
	return e.dealSeed
}

// GetConfig returns the rules in effect
func (e *GameEngine) GetConfig() *GameConfig {
	return e.config
}

// GetMoveHistory returns every click of the current deal
func (e *GameEngine) GetMoveHistory() []MoveHistoryEntry {
	return e.history
}

// GetLastMove returns the last click made, or nil if no clicks
func (e *GameEngine) GetLastMove() *MoveHistoryEntry {
	if len(e.history) == 0 {
		return nil
	}
	return &e.history[len(e.history)-1]
}

// GetState builds a snapshot of the current game
func (e *GameEngine) GetState() *GameState {
	state := &GameState{
		StockCount: e.stock.Len(),
		Waste:      viewCards(e.waste.cards),
		Selection:  e.selection,
		Message:    e.message,
		Won:        e.IsWon(),
		DealSeed:   e.dealSeed,
		DrawCount:  e.config.DrawCount,
		ConfigName: e.config.Name,
		TotalMoves: len(e.history),
		CardsHome:  e.CardsHome(),
	}
	if top := e.stock.Peek(); top != nil {
		v := top.View()
		state.StockTop = &v
	}
	for i := range e.foundations {
		state.Foundations[i] = viewCards(e.foundations[i].cards)
	}
	for i := range e.piles {
		state.Piles[i] = viewCards(e.piles[i].cards)
	}
	return state
}

// record appends a history entry and refreshes the status message
func (e *GameEngine) record(zone Zone, index int, outcome Outcome, cards []string, flipped bool) {
	e.history = append(e.history, MoveHistoryEntry{
		Zone:       zone,
		Index:      index,
		Outcome:    outcome,
		Cards:      cards,
		Flipped:    flipped,
		Selection:  e.selection,
		Timestamp:  time.Now().Unix(),
		MoveNumber: len(e.history) + 1,
	})

	switch outcome {
	case OutcomeDealt:
		e.message = fmt.Sprintf(e.config.Messages.Dealt, len(cards), e.stock.Len())
	case OutcomeMoved:
		e.message = fmt.Sprintf(e.config.Messages.Moved, len(cards))
	case OutcomeRejected:
		e.message = e.config.Messages.Rejected
	}

	if outcome == OutcomeMoved && !e.won && e.IsWon() {
		e.won = true
		e.message = e.config.Messages.Victory
	}
}

func peekCard(s *Stack) (Card, bool) {
	top := s.Peek()
	if top == nil {
		return Card{}, false
	}
	return *top, true
}

func viewCards(cards []*Card) []CardView {
	out := make([]CardView, len(cards))
	for i, c := range cards {
		out[i] = c.View()
	}
	return out
}

func cardIDs(cards []*Card) []string {
	ids := make([]string, len(cards))
	for i, c := range cards {
		ids[i] = c.ID()
	}
	return ids
}
