package engine

import (
	"fmt"
	"strings"
)

// CardLabel renders a card view the way the text board shows it
func CardLabel(v CardView) string {
	if !v.FaceUp {
		return "##"
	}
	suit, err := ParseSuit(v.Suit)
	if err != nil {
		return "??"
	}
	return Rank(v.Rank).Label() + suit.Symbol()
}

// RenderBoard draws a game state as plain text: stock, waste, foundations
// on top, then the seven piles as columns. The selected zone is marked
// with a '*'.
func RenderBoard(state *GameState) string {
	if state == nil {
		return ""
	}
	var b strings.Builder

	stock := "[  ]"
	if state.StockCount > 0 {
		stock = "[##]"
	}
	fmt.Fprintf(&b, "Stock %s %2d   Waste ", stock, state.StockCount)

	// Only the last DrawCount waste cards are visible, as on a real table
	waste := state.Waste
	if n := state.DrawCount; n > 0 && len(waste) > n {
		waste = waste[len(waste)-n:]
	}
	if len(waste) == 0 {
		b.WriteString("[  ]")
	}
	for i, c := range waste {
		label := CardLabel(c)
		if i == len(waste)-1 {
			label = "[" + label + "]"
		}
		b.WriteString(label + " ")
	}
	if state.Selection.IsWaste() {
		b.WriteString("*")
	}

	b.WriteString("   Foundations")
	for i, f := range state.Foundations {
		label := "--"
		if len(f) > 0 {
			label = CardLabel(f[len(f)-1])
		}
		fmt.Fprintf(&b, " %d:[%s]", i, label)
	}
	b.WriteString("\n\n")

	selected, hasSelected := state.Selection.SelectedPile()
	depth := 0
	for i, p := range state.Piles {
		mark := " "
		if hasSelected && selected == i {
			mark = "*"
		}
		fmt.Fprintf(&b, " P%d%s  ", i, mark)
		if len(p) > depth {
			depth = len(p)
		}
	}
	b.WriteString("\n")

	for row := 0; row < depth; row++ {
		for _, p := range state.Piles {
			cell := ""
			if row < len(p) {
				cell = CardLabel(p[row])
			}
			fmt.Fprintf(&b, " %-5s", cell)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "\nSelection: %s   Home: %d/%d   Moves: %d   Seed: %d\n",
		state.Selection, state.CardsHome, DeckSize, state.TotalMoves, state.DealSeed)
	if state.Message != "" {
		b.WriteString(state.Message + "\n")
	}
	return b.String()
}
