package engine

// Stack is an ordered run of cards, bottom first. The last element is the top.
type Stack struct {
	cards []*Card
}

// Len returns the number of cards in the stack
func (s *Stack) Len() int { return len(s.cards) }

// IsEmpty reports whether the stack holds no cards
func (s *Stack) IsEmpty() bool { return len(s.cards) == 0 }

// Push places a card on top
func (s *Stack) Push(c *Card) {
	s.cards = append(s.cards, c)
}

// Pop removes and returns the top card, or nil when empty
func (s *Stack) Pop() *Card {
	if len(s.cards) == 0 {
		return nil
	}
	top := s.cards[len(s.cards)-1]
	s.cards[len(s.cards)-1] = nil
	s.cards = s.cards[:len(s.cards)-1]
	return top
}

// Peek returns the top card without removing it, or nil when empty
func (s *Stack) Peek() *Card {
	if len(s.cards) == 0 {
		return nil
	}
	return s.cards[len(s.cards)-1]
}

// Cards returns a bottom-to-top copy of the stack contents
func (s *Stack) Cards() []Card {
	out := make([]Card, len(s.cards))
	for i, c := range s.cards {
		out[i] = *c
	}
	return out
}

// Clear drops every card
func (s *Stack) Clear() {
	s.cards = nil
}

// faceUpRunStart returns the index of the bottom-most card of the contiguous
// face-up run at the top. It equals Len() when the top card is face down or
// the stack is empty.
func (s *Stack) faceUpRunStart() int {
	i := len(s.cards)
	for i > 0 && s.cards[i-1].faceUp {
		i--
	}
	return i
}

// takeFaceUpRun removes the face-up run from the top, bottom-most card first
func (s *Stack) takeFaceUpRun() []*Card {
	start := s.faceUpRunStart()
	run := make([]*Card, len(s.cards)-start)
	copy(run, s.cards[start:])
	for i := start; i < len(s.cards); i++ {
		s.cards[i] = nil
	}
	s.cards = s.cards[:start]
	return run
}

// pushRun places cards on top keeping their order
func (s *Stack) pushRun(run []*Card) {
	s.cards = append(s.cards, run...)
}
