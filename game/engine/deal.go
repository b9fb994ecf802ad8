package engine

import "math/rand"

// NewDeck builds the 52 cards face down, clubs through spades, Ace through King
func NewDeck() []*Card {
	deck := make([]*Card, 0, DeckSize)
	for _, suit := range Suits {
		for rank := Ace; rank <= King; rank++ {
			deck = append(deck, NewCard(rank, suit))
		}
	}
	return deck
}

// Shuffle permutes cards in place with a Fisher-Yates shuffle driven by rng
func Shuffle(cards []*Card, rng *rand.Rand) {
	for i := len(cards) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		cards[i], cards[j] = cards[j], cards[i]
	}
}

// deal resets every container and lays out a fresh game from seed
func (e *GameEngine) deal(seed int64) {
	e.dealSeed = seed
	e.stock.Clear()
	e.waste.Clear()
	for i := range e.foundations {
		e.foundations[i].Clear()
	}
	for i := range e.piles {
		e.piles[i].Clear()
	}
	e.selection = NoSelection

	deck := NewDeck()
	Shuffle(deck, rand.New(rand.NewSource(seed)))
	for _, c := range deck {
		e.stock.Push(c)
	}

	// Pile i receives i+1 cards; only the last one is turned up
	for i := 0; i < NumPiles; i++ {
		for j := 0; j <= i; j++ {
			c := e.stock.Pop()
			if j == i {
				c.TurnUp()
			}
			e.piles[i].Push(c)
		}
	}
}
