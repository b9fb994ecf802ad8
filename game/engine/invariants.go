package engine

import (
	"errors"
	"fmt"
)

// CheckInvariants verifies the structural rules of the board:
//   - the 52 cards appear exactly once across all containers
//   - stock cards are face down and the waste top is face up
//   - every foundation is a same-suit run counting up from the Ace
//   - every pile's face-up run descends by one in alternating colours
//   - a selected pile index is in range
//
// It returns every violation joined into one error, or nil.
func (e *GameEngine) CheckInvariants() error {
	var errs []error

	seen := make(map[string]int, DeckSize)
	count := func(s *Stack) {
		for _, c := range s.cards {
			if !c.rank.Valid() {
				errs = append(errs, fmt.Errorf("card with invalid rank %d", c.rank))
			}
			seen[c.ID()]++
		}
	}
	count(&e.stock)
	count(&e.waste)
	for i := range e.foundations {
		count(&e.foundations[i])
	}
	for i := range e.piles {
		count(&e.piles[i])
	}
	for _, c := range NewDeck() {
		switch n := seen[c.ID()]; {
		case n == 0:
			errs = append(errs, fmt.Errorf("card %s is missing", c.ID()))
		case n > 1:
			errs = append(errs, fmt.Errorf("card %s appears %d times", c.ID(), n))
		}
	}
	if total := len(seen); total != DeckSize {
		errs = append(errs, fmt.Errorf("expected %d distinct cards, found %d", DeckSize, total))
	}

	for _, c := range e.stock.cards {
		if c.faceUp {
			errs = append(errs, fmt.Errorf("stock card %s is face up", c.ID()))
		}
	}
	if top := e.waste.Peek(); top != nil && !top.faceUp {
		errs = append(errs, fmt.Errorf("waste top %s is face down", top.ID()))
	}

	for i := range e.foundations {
		for pos, c := range e.foundations[i].cards {
			if c.rank != Rank(pos+1) {
				errs = append(errs, fmt.Errorf("foundation %d position %d holds rank %d", i, pos, c.rank))
			}
			if pos > 0 && c.suit != e.foundations[i].cards[0].suit {
				errs = append(errs, fmt.Errorf("foundation %d mixes suits at %s", i, c.ID()))
			}
		}
	}

	for i := range e.piles {
		pile := &e.piles[i]
		start := pile.faceUpRunStart()
		for j := start + 1; j < pile.Len(); j++ {
			below, above := pile.cards[j-1], pile.cards[j]
			if above.rank != below.rank-1 || above.IsRed() == below.IsRed() {
				errs = append(errs, fmt.Errorf("pile %d: %s cannot sit on %s", i, above.ID(), below.ID()))
			}
		}
		for j := 0; j < start; j++ {
			if pile.cards[j].faceUp {
				errs = append(errs, fmt.Errorf("pile %d: face-up %s buried under a face-down card", i, pile.cards[j].ID()))
			}
		}
	}

	if p, ok := e.selection.SelectedPile(); ok && (p < 0 || p >= NumPiles) {
		errs = append(errs, fmt.Errorf("selected pile %d out of range", p))
	}

	return errors.Join(errs...)
}
