package model

// ErrorKind names a rejection reason surfaced to the acting client.
type ErrorKind string

const (
	ErrInvalidPayload      ErrorKind = "invalid_payload"
	ErrRoomNotFound        ErrorKind = "room_not_found"
	ErrNotYourTurn         ErrorKind = "not_your_turn"
	ErrIllegalMove         ErrorKind = "illegal_move"
	ErrGameNotActive       ErrorKind = "game_not_active"
	ErrInsufficientPlayers ErrorKind = "insufficient_players"
	ErrUnsupportedAction   ErrorKind = "unsupported_action"
)

// Notice is a message targeted at a single player, produced when another
// player's action affects them (forced draws, freezes, gifts).
type Notice struct {
	PlayerID string `json:"playerId"`
	Message  string `json:"message"`
}

// CardPlayed describes a resolved play for the table announcement.
type CardPlayed struct {
	PlayerID string `json:"playerId"`
	Name     string `json:"name"`
	Card     Card   `json:"card"`
}

// Outcome is the result of a rule-engine mutation. A failed outcome
// guarantees the room was left untouched: engines validate everything
// before the first write.
type Outcome struct {
	OK         bool
	Kind       ErrorKind
	Message    string
	Notices    []Notice
	LogEntries []string
	Played     *CardPlayed
}

func Ok(logEntries ...string) Outcome {
	return Outcome{OK: true, LogEntries: logEntries}
}

func Fail(kind ErrorKind, message string) Outcome {
	return Outcome{Kind: kind, Message: message}
}
