package game

import (
	"reflect"
	"testing"

	"cardtable/internal/config"
	"cardtable/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testManager() *Manager {
	cfg := config.Default()
	cfg.Room.EvictInterval = 0
	return NewManager(nil, cfg)
}

func TestGetOrCreateRoom(t *testing.T) {
	m := testManager()

	r := m.GetOrCreateRoom("AB12", model.GameFlip7)
	assert.Equal(t, model.GameFlip7, r.GameKind)
	assert.Equal(t, model.StatusLobby, r.Status)

	same := m.GetOrCreateRoom("AB12", model.GameUno)
	assert.Same(t, r, same, "existing code keeps its room and game kind")

	fallback := m.GetOrCreateRoom("CD34", model.GameKind("canasta"))
	assert.Equal(t, model.GameUno, fallback.GameKind, "unknown kinds fall back")
}

func TestJoinRoomReconnectKeepsRoster(t *testing.T) {
	m := testManager()
	r := m.GetOrCreateRoom("AB12", model.GameUno)

	out := m.JoinRoom(r, "p1", "alice", "", nil)
	require.True(t, out.OK)
	out = m.JoinRoom(r, "p2", "bob", "", nil)
	require.True(t, out.OK)

	out = m.JoinRoom(r, "p1", "alice", "", nil)
	require.True(t, out.OK)
	assert.Len(t, r.Players, 2)
	assert.Equal(t, []string{"p1", "p2"}, r.Order)
}

func TestJoinRoomValidation(t *testing.T) {
	m := testManager()
	r := m.GetOrCreateRoom("AB12", model.GameUno)

	out := m.JoinRoom(r, "", "alice", "", nil)
	assert.Equal(t, model.ErrInvalidPayload, out.Kind)

	out = m.JoinRoom(r, "p1", "a-name-well-beyond-the-display-limit", "", nil)
	require.True(t, out.OK)
	assert.Len(t, r.Players["p1"].Name, model.MaxNameLen)
}

func TestStartGameGuards(t *testing.T) {
	m := testManager()
	r := m.GetOrCreateRoom("AB12", model.GameUno)
	m.JoinRoom(r, "p1", "alice", "", nil)

	out := m.StartGame(r)
	assert.Equal(t, model.ErrInsufficientPlayers, out.Kind)

	m.JoinRoom(r, "p2", "bob", "", nil)
	out = m.StartGame(r)
	require.True(t, out.OK)
	assert.Equal(t, model.StatusActive, r.Status)

	out = m.StartGame(r)
	assert.Equal(t, model.ErrGameNotActive, out.Kind, "no double start")
}

func TestTurnGuardLeavesStateUntouched(t *testing.T) {
	m := testManager()
	r := m.GetOrCreateRoom("AB12", model.GameUno)
	m.JoinRoom(r, "p1", "alice", "", nil)
	m.JoinRoom(r, "p2", "bob", "", nil)
	require.True(t, m.StartGame(r).OK)

	var offTurn string
	for _, pid := range r.Order {
		if pid != r.CurrentTurnID() {
			offTurn = pid
			break
		}
	}
	handBefore := len(r.Players[offTurn].Hand)
	deckBefore := len(r.Deck)

	out := m.DrawCard(r, offTurn)
	require.False(t, out.OK)
	assert.Equal(t, model.ErrNotYourTurn, out.Kind)
	assert.Len(t, r.Players[offTurn].Hand, handBefore)
	assert.Len(t, r.Deck, deckBefore)

	out = m.PlayCard(r, "ghost", 0, "")
	assert.Equal(t, model.ErrInvalidPayload, out.Kind)
}

func TestUnsupportedActionsPerKind(t *testing.T) {
	m := testManager()
	uno := m.GetOrCreateRoom("AB12", model.GameUno)
	m.JoinRoom(uno, "p1", "alice", "", nil)
	m.JoinRoom(uno, "p2", "bob", "", nil)
	require.True(t, m.StartGame(uno).OK)

	out := m.Hit(uno, "p1")
	assert.Equal(t, model.ErrUnsupportedAction, out.Kind)
	out = m.SelectFreezeTarget(uno, "p1", "p2")
	assert.Equal(t, model.ErrUnsupportedAction, out.Kind)

	flip := m.GetOrCreateRoom("CD34", model.GameFlip7)
	m.JoinRoom(flip, "p1", "alice", "", nil)
	m.JoinRoom(flip, "p2", "bob", "", nil)
	out = m.PlayCard(flip, "p1", 0, "")
	assert.Equal(t, model.ErrUnsupportedAction, out.Kind)
}

func TestActionsRequireActiveGame(t *testing.T) {
	m := testManager()
	r := m.GetOrCreateRoom("AB12", model.GameUno)
	m.JoinRoom(r, "p1", "alice", "", nil)
	m.JoinRoom(r, "p2", "bob", "", nil)

	out := m.DrawCard(r, "p1")
	assert.Equal(t, model.ErrGameNotActive, out.Kind)
}

func TestLeaveRoomFoldsHandIntoDiscard(t *testing.T) {
	m := testManager()
	r := m.GetOrCreateRoom("AB12", model.GameUno)
	m.JoinRoom(r, "p1", "alice", "", nil)
	m.JoinRoom(r, "p2", "bob", "", nil)
	m.JoinRoom(r, "p3", "carol", "", nil)
	require.True(t, m.StartGame(r).OK)

	total := len(r.Deck) + len(r.Discard)
	for _, p := range r.Players {
		total += len(p.Hand)
	}
	require.Equal(t, UnoDeckSize, total)

	empty := m.LeaveRoom(r, "p2")
	assert.False(t, empty)
	assert.Len(t, r.Players, 2)
	assert.Equal(t, []string{"p1", "p3"}, r.Order)

	after := len(r.Deck) + len(r.Discard)
	for _, p := range r.Players {
		after += len(p.Hand)
	}
	assert.Equal(t, UnoDeckSize, after, "a leaver's cards stay in circulation")

	assert.False(t, m.LeaveRoom(r, "p1"))
	assert.True(t, m.LeaveRoom(r, "p3"), "last leaver empties the room")
}

func TestLeaveRoomPreservesTurnHolder(t *testing.T) {
	m := testManager()
	r := m.GetOrCreateRoom("AB12", model.GameUno)
	m.JoinRoom(r, "p1", "alice", "", nil)
	m.JoinRoom(r, "p2", "bob", "", nil)
	m.JoinRoom(r, "p3", "carol", "", nil)
	require.True(t, m.StartGame(r).OK)

	holder := r.CurrentTurnID()
	var other string
	for _, pid := range r.Order {
		if pid != holder {
			other = pid
			break
		}
	}

	m.LeaveRoom(r, other)
	assert.Equal(t, holder, r.CurrentTurnID())
}

func TestLogRingCap(t *testing.T) {
	m := testManager()
	m.Cfg.Room.LogCap = 3
	r := m.GetOrCreateRoom("AB12", model.GameUno)

	for _, entry := range []string{"one", "two", "three", "four", "five"} {
		m.appendLog(r, entry)
	}
	assert.Equal(t, []string{"three", "four", "five"}, r.Log)
}

func TestResetRoomKeepsRoster(t *testing.T) {
	m := testManager()
	r := m.GetOrCreateRoom("AB12", model.GameUno)
	m.JoinRoom(r, "p1", "alice", "", nil)
	m.JoinRoom(r, "p2", "bob", "", nil)
	require.True(t, m.StartGame(r).OK)

	m.ResetRoom(r)
	assert.Equal(t, model.StatusLobby, r.Status)
	assert.Len(t, r.Players, 2)
	assert.Empty(t, r.Deck)
	assert.Empty(t, r.Players["p1"].Hand)
}

func TestPublicProjectionIdempotent(t *testing.T) {
	m := testManager()
	r := m.GetOrCreateRoom("AB12", model.GameFlip7)
	m.JoinRoom(r, "p1", "alice", "", nil)
	m.JoinRoom(r, "p2", "bob", "", nil)
	require.True(t, m.StartGame(r).OK)

	first := PublicProjection(r)
	second := PublicProjection(r)
	assert.True(t, reflect.DeepEqual(first, second))
}

func TestPublicProjectionHidesUnoHands(t *testing.T) {
	m := testManager()
	r := m.GetOrCreateRoom("AB12", model.GameUno)
	m.JoinRoom(r, "p1", "alice", "", nil)
	m.JoinRoom(r, "p2", "bob", "", nil)
	require.True(t, m.StartGame(r).OK)

	state := PublicProjection(r)
	players, ok := state["players"].([]map[string]interface{})
	require.True(t, ok)
	for _, entry := range players {
		_, leaked := entry["hand"]
		assert.False(t, leaked)
		assert.Equal(t, len(r.Players[entry["id"].(string)].Hand), entry["count"])
	}
	_, hasFlip7 := state["flip7"]
	assert.False(t, hasFlip7)
}
