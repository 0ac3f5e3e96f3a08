package game

import (
	"cardtable/internal/config"
	"cardtable/internal/model"
)

// Engine is the contract every game kind implements. Initialize must
// fully re-derive state from the room's player order, so calling it again
// is how restarts and fresh rounds work.
type Engine interface {
	Kind() model.GameKind
	Name() string
	// Initialize deals a fresh game onto the room and flips it to active.
	// The outcome carries opening log lines and any notices the first
	// flipped card caused (a start-card +2 already hits someone).
	Initialize(r *model.Room) model.Outcome
}

// TrickActions are the play/draw/pass moves of a trick-card game. The
// orchestrator asserts this capability and rejects the corresponding
// client actions for engines that lack it.
type TrickActions interface {
	// IsLegal reports whether the card may be played onto the current
	// discard top. Pure predicate, no mutation.
	IsLegal(r *model.Room, card model.Card, chosenColor string) bool
	ApplyPlay(r *model.Room, playerID string, cardIndex int, chosenColor string) model.Outcome
	ApplyDraw(r *model.Room, playerID string) model.Outcome
	ApplyPass(r *model.Room, playerID string) model.Outcome
}

// LuckActions are the moves of a push-your-luck game, including the
// follow-up selections its action cards demand.
type LuckActions interface {
	Hit(r *model.Room, playerID string) model.Outcome
	Stay(r *model.Room, playerID string) model.Outcome
	SelectFlip3Target(r *model.Room, playerID, targetID string) model.Outcome
	SelectFreezeTarget(r *model.Room, playerID, targetID string) model.Outcome
	UseSecondChance(r *model.Room, playerID string) model.Outcome
	GiftSecondChance(r *model.Room, playerID, targetID string) model.Outcome
	StartNextRound(r *model.Room, playerID string) model.Outcome
}

// LeaveHandler lets an engine repair its sub-state after a player is
// removed mid-game (pending selections, eligibility, round completion).
type LeaveHandler interface {
	HandleLeave(r *model.Room, playerID string, out *model.Outcome)
}

// NewEngines builds the engine registry. One instance per game kind; the
// instances are stateless between calls, all game state lives on the room.
func NewEngines(cfg *config.Config) map[model.GameKind]Engine {
	return map[model.GameKind]Engine{
		model.GameUno:   NewUnoEngine(),
		model.GameFlip7: NewFlip7Engine(cfg.Flip7),
	}
}
