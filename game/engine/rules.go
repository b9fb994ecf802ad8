package engine

// CanAddToFoundation reports whether card may be placed on a foundation
// whose top card is top (nil for an empty foundation).
func CanAddToFoundation(card Card, top *Card) bool {
	if top == nil {
		return card.Rank() == Ace
	}
	return card.Suit() == top.Suit() && card.Rank() == top.Rank()+1
}

// CanAddToPile reports whether card may be placed on a tableau pile whose
// top card is top (nil for an empty pile).
func CanAddToPile(card Card, top *Card) bool {
	if top == nil {
		return card.Rank() == King
	}
	return card.Rank() == top.Rank()-1 && card.IsRed() != top.IsRed()
}

// canAddToFoundation checks card against foundation i
func (e *GameEngine) canAddToFoundation(card *Card, i int) bool {
	return CanAddToFoundation(*card, e.foundations[i].Peek())
}

// canAddToPile checks card against tableau pile i
func (e *GameEngine) canAddToPile(card *Card, i int) bool {
	return CanAddToPile(*card, e.piles[i].Peek())
}

// LegalMoves lists every card move that would currently succeed. Stock
// draws and selection-only clicks are not included.
func (e *GameEngine) LegalMoves() []LegalMove {
	moves := []LegalMove{}

	if top := e.waste.Peek(); top != nil {
		for f := 0; f < NumFoundations; f++ {
			if e.canAddToFoundation(top, f) {
				moves = append(moves, LegalMove{From: ZoneWaste, FromIndex: -1, To: ZoneFoundation, ToIndex: f, Card: top.ID(), RunLength: 1})
			}
		}
		for p := 0; p < NumPiles; p++ {
			if e.canAddToPile(top, p) {
				moves = append(moves, LegalMove{From: ZoneWaste, FromIndex: -1, To: ZonePile, ToIndex: p, Card: top.ID(), RunLength: 1})
			}
		}
	}

	for src := 0; src < NumPiles; src++ {
		pile := &e.piles[src]
		if top := pile.Peek(); top != nil && top.faceUp {
			for f := 0; f < NumFoundations; f++ {
				if e.canAddToFoundation(top, f) {
					moves = append(moves, LegalMove{From: ZonePile, FromIndex: src, To: ZoneFoundation, ToIndex: f, Card: top.ID(), RunLength: 1})
				}
			}
		}

		start := pile.faceUpRunStart()
		if start == pile.Len() {
			continue
		}
		base := pile.cards[start]
		for dst := 0; dst < NumPiles; dst++ {
			if dst == src {
				continue
			}
			// A king already at the bottom of its pile gains nothing from an empty pile
			if start == 0 && e.piles[dst].IsEmpty() {
				continue
			}
			if e.canAddToPile(base, dst) {
				moves = append(moves, LegalMove{From: ZonePile, FromIndex: src, To: ZonePile, ToIndex: dst, Card: base.ID(), RunLength: pile.Len() - start})
			}
		}
	}

	return moves
}
