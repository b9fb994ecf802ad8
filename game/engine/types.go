package engine

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

const (
	NumSuits       = 4
	NumRanks       = 13
	DeckSize       = NumSuits * NumRanks
	NumPiles       = 7
	NumFoundations = 4

	// Validation constants
	MinDrawCount     = 1
	MaxDrawCount     = 3
	DefaultDrawCount = 3
	MaxBulkClicks    = 100
)

var (
	ErrInvalidIndex = errors.New("zone index out of range")
	ErrInvalidZone  = errors.New("unknown zone")
)

// Zone names a clickable area of the board
type Zone string

const (
	ZoneStock      Zone = "stock"
	ZoneWaste      Zone = "waste"
	ZoneFoundation Zone = "foundation"
	ZonePile       Zone = "pile"
)

// ParseZone normalises a zone name
func ParseZone(v string) (Zone, error) {
	switch z := Zone(strings.ToLower(strings.TrimSpace(v))); z {
	case ZoneStock, ZoneWaste, ZoneFoundation, ZonePile:
		return z, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidZone, v)
}

// Indexed reports whether clicks on the zone carry an index
func (z Zone) Indexed() bool {
	return z == ZoneFoundation || z == ZonePile
}

// SelectionKind tags the active selection
type SelectionKind int

const (
	SelectNone SelectionKind = iota
	SelectWaste
	SelectPile
)

// Selection is the engine-owned selection: none, the waste, or one pile
type Selection struct {
	Kind SelectionKind
	Pile int
}

// NoSelection is the idle state
var NoSelection = Selection{Kind: SelectNone, Pile: -1}

// WasteSelection selects the waste
func WasteSelection() Selection { return Selection{Kind: SelectWaste, Pile: -1} }

// PileSelection selects tableau pile i
func PileSelection(i int) Selection { return Selection{Kind: SelectPile, Pile: i} }

// IsNone reports whether nothing is selected
func (s Selection) IsNone() bool { return s.Kind == SelectNone }

// IsWaste reports whether the waste is selected
func (s Selection) IsWaste() bool { return s.Kind == SelectWaste }

// SelectedPile returns the selected pile index, if a pile is selected
func (s Selection) SelectedPile() (int, bool) {
	if s.Kind != SelectPile {
		return -1, false
	}
	return s.Pile, true
}

func (s Selection) String() string {
	switch s.Kind {
	case SelectWaste:
		return "waste"
	case SelectPile:
		return fmt.Sprintf("pile %d", s.Pile)
	default:
		return "none"
	}
}

type selectionJSON struct {
	Zone  string `json:"zone"`
	Index int    `json:"index"`
}

// MarshalJSON encodes the selection as {"zone": "none|waste|pile", "index": n}
func (s Selection) MarshalJSON() ([]byte, error) {
	out := selectionJSON{Zone: "none", Index: -1}
	switch s.Kind {
	case SelectWaste:
		out.Zone = "waste"
	case SelectPile:
		out.Zone = "pile"
		out.Index = s.Pile
	}
	return json.Marshal(out)
}

// UnmarshalJSON is the inverse of MarshalJSON
func (s *Selection) UnmarshalJSON(data []byte) error {
	var in selectionJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	switch in.Zone {
	case "waste":
		*s = WasteSelection()
	case "pile":
		*s = PileSelection(in.Index)
	case "none", "":
		*s = NoSelection
	default:
		return fmt.Errorf("unknown selection zone %q", in.Zone)
	}
	return nil
}

// Outcome describes what a click did
type Outcome string

const (
	OutcomeDealt      Outcome = "dealt"
	OutcomeRecycled   Outcome = "recycled"
	OutcomeSelected   Outcome = "selected"
	OutcomeDeselected Outcome = "deselected"
	OutcomeMoved      Outcome = "moved"
	OutcomeRejected   Outcome = "rejected"
	OutcomeIgnored    Outcome = "ignored"
)

// CardView is the JSON form of a card
type CardView struct {
	ID     string `json:"id"`
	Rank   int    `json:"rank"`
	Suit   string `json:"suit"`
	Red    bool   `json:"red"`
	FaceUp bool   `json:"face_up"`
}

// GameConfig holds the rule options for a game, loaded from JSON or YAML
type GameConfig struct {
	Name                      string `json:"name" yaml:"name"`
	Description               string `json:"description" yaml:"description"`
	DrawCount                 int    `json:"draw_count" yaml:"draw_count"`
	Seed                      int64  `json:"seed,omitempty" yaml:"seed,omitempty"`
	StickyFoundationSelection bool   `json:"sticky_foundation_selection" yaml:"sticky_foundation_selection"`
	Messages                  struct {
		Welcome  string `json:"welcome" yaml:"welcome"`
		Dealt    string `json:"dealt" yaml:"dealt"`
		Recycled string `json:"recycled" yaml:"recycled"`
		Moved    string `json:"moved" yaml:"moved"`
		Rejected string `json:"rejected" yaml:"rejected"`
		Victory  string `json:"victory" yaml:"victory"`
	} `json:"messages" yaml:"messages"`
}

// GameState is a read-only snapshot of a game, suitable for rendering
type GameState struct {
	StockCount  int                        `json:"stock_count"`
	StockTop    *CardView                  `json:"stock_top,omitempty"`
	Waste       []CardView                 `json:"waste"`
	Foundations [NumFoundations][]CardView `json:"foundations"`
	Piles       [NumPiles][]CardView       `json:"piles"`
	Selection   Selection                  `json:"selection"`
	Message     string                     `json:"message"`
	Won         bool                       `json:"won"`
	DealSeed    int64                      `json:"deal_seed"`
	DrawCount   int                        `json:"draw_count"`
	ConfigName  string                     `json:"config_name"`
	TotalMoves  int                        `json:"total_moves"`
	CardsHome   int                        `json:"cards_home"`
}

// MoveHistoryEntry records a single click and its effect
type MoveHistoryEntry struct {
	Zone       Zone      `json:"zone"`
	Index      int       `json:"index"`
	Outcome    Outcome   `json:"outcome"`
	Cards      []string  `json:"cards,omitempty"`
	Flipped    bool      `json:"flipped,omitempty"`
	Selection  Selection `json:"selection"`
	Timestamp  int64     `json:"timestamp"`
	MoveNumber int       `json:"move_number"`
}

// LegalMove is a move that would succeed from the current position
type LegalMove struct {
	From      Zone   `json:"from"`
	FromIndex int    `json:"from_index"`
	To        Zone   `json:"to"`
	ToIndex   int    `json:"to_index"`
	Card      string `json:"card"`
	RunLength int    `json:"run_length"`
}
