package model

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Card is an opaque token whose grammar belongs to the active game.
// Uno: "R5", "GS", "BRV", "Y+2", "W", "W+4" (a played wild encodes its
// chosen color into the discard top, e.g. "WG" or "W+4R").
// Flip7: "0".."12", "+2".."+10", "x2", "Freeze", "Flip3", "SecondChance".
type Card string

type GameKind string

const (
	GameUno   GameKind = "uno"
	GameFlip7 GameKind = "flip7"
)

type RoomStatus string

const (
	StatusLobby    RoomStatus = "lobby"
	StatusActive   RoomStatus = "active"
	StatusBetween  RoomStatus = "between"
	StatusFinished RoomStatus = "finished"
)

// MaxNameLen caps display names; longer names are truncated on join.
const MaxNameLen = 16

type Player struct {
	ID     string          `json:"id"`
	Name   string          `json:"name"`
	Avatar string          `json:"avatar,omitempty"`
	Conn   *websocket.Conn `json:"-"`
	Hand   []Card          `json:"hand"`
}

// Flip7State is the push-your-luck extension record. It exists only while
// Room.GameKind == GameFlip7; cumulative scores survive round boundaries,
// everything else is rebuilt by the engine at each round start.
type Flip7State struct {
	Stayed       map[string]bool            `json:"stayed"`
	Busted       map[string]bool            `json:"busted"`
	Frozen       map[string]bool            `json:"frozen"`
	SecondChance map[string]bool            `json:"secondChance"`
	Unique       map[string]map[string]bool `json:"unique"`

	NumericScore  map[string]int  `json:"numericScore"`
	ModifierScore map[string]int  `json:"modifierScore"`
	Doubled       map[string]bool `json:"doubled"`
	RoundScores   map[string]int  `json:"roundScores"`
	Cumulative    map[string]int  `json:"cumulative"`

	RoundOver bool `json:"roundOver"`

	// Each pending field names the one player whose follow-up selection
	// the round is waiting on; empty means no selection outstanding.
	PendingFlip3            string `json:"pendingFlip3,omitempty"`
	PendingFreeze           string `json:"pendingFreeze,omitempty"`
	PendingSecondChanceUse  string `json:"pendingSecondChanceUse,omitempty"`
	PendingSecondChanceGift string `json:"pendingSecondChanceGift,omitempty"`

	// PendingCard holds the duplicate rank drawn by the player named in
	// PendingSecondChanceUse until they confirm the token.
	PendingCard Card `json:"pendingCard,omitempty"`

	// OpeningDeals lists the seats still owed an opening card. The deal
	// pauses while a selection is pending and resumes when it resolves.
	OpeningDeals []string `json:"-"`
	// DealPending marks the open pending as deal-opened; resolving it
	// must not consume the selector's turn.
	DealPending bool `json:"-"`
}

type Room struct {
	Code      string             `json:"code"`
	GameKind  GameKind           `json:"gameKind"`
	Status    RoomStatus         `json:"status"`
	Players   map[string]*Player `json:"players"`
	Order     []string           `json:"order"` // join order = turn order
	TurnIndex int                `json:"turnIndex"`
	Direction int                `json:"direction"` // +1 or -1
	Deck      []Card             `json:"deck"`
	Discard   []Card             `json:"discard"` // index 0 = top
	Winner    string             `json:"winner,omitempty"`
	Log       []string           `json:"log"`
	Flip7     *Flip7State        `json:"flip7,omitempty"`

	Watchers        map[*websocket.Conn]bool `json:"-"`
	LastActive      time.Time                `json:"-"`
	HistoryRecorded bool                     `json:"-"`
	Mutex           sync.Mutex               `json:"-"`
}

// CurrentTurnID returns the id of the turn-holder, or "" outside of play.
func (r *Room) CurrentTurnID() string {
	if r.Status != StatusActive {
		return ""
	}
	if len(r.Order) == 0 || r.TurnIndex < 0 || r.TurnIndex >= len(r.Order) {
		return ""
	}
	return r.Order[r.TurnIndex]
}

// Touch bumps the idle-eviction clock.
func (r *Room) Touch() {
	r.LastActive = time.Now()
}

type RoomSummary struct {
	Code        string     `json:"code"`
	GameKind    GameKind   `json:"gameKind"`
	PlayerCount int        `json:"playerCount"`
	Status      RoomStatus `json:"status"`
}

type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// Action is the inbound client frame. Fields beyond Type are populated
// per action kind; unused fields arrive zero-valued.
type Action struct {
	Type        string `json:"type"`
	RoomCode    string `json:"roomCode"`
	PlayerID    string `json:"playerId"`
	Name        string `json:"name"`
	Avatar      string `json:"avatar"`
	GameKind    string `json:"gameKind"`
	CardIndex   int    `json:"cardIndex"`
	ChosenColor string `json:"chosenColor"`
	TargetID    string `json:"targetId"`
}

type PlayerStat struct {
	Name       string `json:"name"`
	TotalGames int    `json:"totalGames"`
	TotalScore int    `json:"totalScore"`
	Wins       int    `json:"wins"`
}
