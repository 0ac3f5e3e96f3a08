package game

import "cardtable/internal/model"

// NextIndex computes the turn index `steps` seats away in the current
// direction, wrapping around the player order.
func NextIndex(r *model.Room, steps int) int {
	n := len(r.Order)
	if n == 0 {
		return 0
	}
	dir := r.Direction
	if dir == 0 {
		dir = 1
	}
	idx := r.TurnIndex
	for i := 0; i < steps; i++ {
		idx = (idx + dir + n) % n
	}
	return idx
}

// Advance moves the turn pointer by steps (1 = plain turn, 2 = skip one).
func Advance(r *model.Room, steps int) {
	r.TurnIndex = NextIndex(r, steps)
}

// ReverseDirection flips the play direction. Two-player rooms get
// classic card-game semantics elsewhere (reverse acts as a skip); this
// only flips the flag.
func ReverseDirection(r *model.Room) {
	if r.Direction == 0 {
		r.Direction = 1
	}
	r.Direction = -r.Direction
}

// ClampTurn re-validates the turn index after the player order shrank.
func ClampTurn(r *model.Room) {
	n := len(r.Order)
	if n == 0 {
		r.TurnIndex = 0
		return
	}
	if r.TurnIndex >= n || r.TurnIndex < 0 {
		r.TurnIndex = ((r.TurnIndex % n) + n) % n
	}
}
