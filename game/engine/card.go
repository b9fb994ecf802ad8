package engine

import (
	"fmt"
	"strings"
)

// Suit is one of the four French suits
type Suit int

const (
	Clubs Suit = iota
	Diamonds
	Hearts
	Spades
)

// Suits lists every suit in deck-building order
var Suits = [NumSuits]Suit{Clubs, Diamonds, Hearts, Spades}

// Letter returns the single-letter suit code used in card IDs
func (s Suit) Letter() string {
	switch s {
	case Clubs:
		return "c"
	case Diamonds:
		return "d"
	case Hearts:
		return "h"
	case Spades:
		return "s"
	default:
		return "?"
	}
}

// Symbol returns the unicode pip for the suit
func (s Suit) Symbol() string {
	switch s {
	case Clubs:
		return "♣"
	case Diamonds:
		return "♦"
	case Hearts:
		return "♥"
	case Spades:
		return "♠"
	default:
		return "?"
	}
}

// String returns the suit name
func (s Suit) String() string {
	switch s {
	case Clubs:
		return "clubs"
	case Diamonds:
		return "diamonds"
	case Hearts:
		return "hearts"
	case Spades:
		return "spades"
	default:
		return fmt.Sprintf("suit(%d)", int(s))
	}
}

// IsRed reports whether the suit is hearts or diamonds
func (s Suit) IsRed() bool {
	return s == Hearts || s == Diamonds
}

// ParseSuit accepts either a suit letter or a suit name
func ParseSuit(v string) (Suit, error) {
	switch strings.ToLower(v) {
	case "c", "clubs":
		return Clubs, nil
	case "d", "diamonds":
		return Diamonds, nil
	case "h", "hearts":
		return Hearts, nil
	case "s", "spades":
		return Spades, nil
	}
	return 0, fmt.Errorf("unknown suit %q", v)
}

// Rank is a card rank from Ace (1) to King (13)
type Rank int

const (
	Ace   Rank = 1
	Jack  Rank = 11
	Queen Rank = 12
	King  Rank = 13
)

// Letter returns the rank character used in card IDs: a, 2..9, t, j, q, k
func (r Rank) Letter() string {
	switch {
	case r == Ace:
		return "a"
	case r >= 2 && r <= 9:
		return fmt.Sprintf("%d", int(r))
	case r == 10:
		return "t"
	case r == Jack:
		return "j"
	case r == Queen:
		return "q"
	case r == King:
		return "k"
	default:
		return "?"
	}
}

// Label returns the rank as printed on the card face
func (r Rank) Label() string {
	switch r {
	case Ace:
		return "A"
	case Jack:
		return "J"
	case Queen:
		return "Q"
	case King:
		return "K"
	default:
		return fmt.Sprintf("%d", int(r))
	}
}

// Valid reports whether r is within Ace..King
func (r Rank) Valid() bool {
	return r >= Ace && r <= King
}

// Card is a playing card. Rank and suit are fixed at construction; only
// the orientation changes.
type Card struct {
	rank   Rank
	suit   Suit
	faceUp bool
}

// NewCard creates a face-down card
func NewCard(rank Rank, suit Suit) *Card {
	return &Card{rank: rank, suit: suit}
}

// Rank returns the card rank
func (c Card) Rank() Rank { return c.rank }

// Suit returns the card suit
func (c Card) Suit() Suit { return c.suit }

// IsRed reports whether the card belongs to hearts or diamonds
func (c Card) IsRed() bool { return c.suit.IsRed() }

// IsFaceUp reports whether the card is turned face up
func (c Card) IsFaceUp() bool { return c.faceUp }

// TurnUp turns the card face up
func (c *Card) TurnUp() { c.faceUp = true }

// TurnDown turns the card face down
func (c *Card) TurnDown() { c.faceUp = false }

// ID returns the stable rank+suit identifier, e.g. "ah", "tc", "kd"
func (c Card) ID() string {
	return c.rank.Letter() + c.suit.Letter()
}

// AssetName returns the image name a presentation layer would draw for the
// card in its current orientation.
func (c Card) AssetName() string {
	if !c.faceUp {
		return "back.gif"
	}
	return c.ID() + ".gif"
}

// String renders the card as rank label plus suit symbol, or "##" when face down
func (c Card) String() string {
	if !c.faceUp {
		return "##"
	}
	return c.rank.Label() + c.suit.Symbol()
}

// View converts the card to its JSON representation
func (c Card) View() CardView {
	return CardView{
		ID:     c.ID(),
		Rank:   int(c.rank),
		Suit:   c.suit.String(),
		Red:    c.IsRed(),
		FaceUp: c.faceUp,
	}
}
