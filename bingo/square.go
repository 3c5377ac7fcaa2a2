// bingo/square.go
package bingo

import (
	"strconv"
	"strings"
)

// Board dimensions. Square indices run from 1 to MaxSquares inclusive.
const (
	BoardWidth  = 5
	BoardHeight = 5
	MaxSquares  = BoardWidth * BoardHeight
)

// Square is one cell of the board. When it arrives as live state it carries
// its 1-based index and the teams that own it; as a room-creation input only
// the name matters.
type Square struct {
	Name  string
	Index int
	Teams []Team
}

// wireSquare is the JSON shape of a square, both in board snapshots and
// nested inside goal events (where it also carries the remove flag).
type wireSquare struct {
	Name   string `json:"name"`
	Slot   string `json:"slot"`
	Colors string `json:"colors"`
	Remove bool   `json:"remove"`
}

func (w *wireSquare) square() Square {
	if w == nil {
		return Square{}
	}
	return Square{
		Name:  w.Name,
		Index: parseSlot(w.Slot),
		Teams: ParseTeams(w.Colors),
	}
}

// parseSlot extracts N from a positional "slot<N>" string. Absent or
// malformed slots yield 0, which is outside the valid 1..MaxSquares range
// and therefore distinguishable from any real index.
func parseSlot(slot string) int {
	digits, ok := strings.CutPrefix(slot, "slot")
	if !ok {
		return 0
	}
	index, err := strconv.Atoi(digits)
	if err != nil || index < 0 {
		return 0
	}
	return index
}
