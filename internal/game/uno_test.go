package game

import (
	"testing"

	"cardtable/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func unoRoom(hands map[string][]model.Card, order []string) *model.Room {
	r := &model.Room{
		Code:      "TEST",
		GameKind:  model.GameUno,
		Status:    model.StatusActive,
		Players:   make(map[string]*model.Player),
		Order:     order,
		Direction: 1,
	}
	for _, pid := range order {
		r.Players[pid] = &model.Player{ID: pid, Name: "player " + pid, Hand: hands[pid]}
	}
	return r
}

func TestUnoIsLegal(t *testing.T) {
	e := NewUnoEngine()
	tests := []struct {
		name string
		top  model.Card
		card model.Card
		want bool
	}{
		{"color match", "R5", "R9", true},
		{"symbol match", "R5", "B5", true},
		{"no match", "R5", "G7", false},
		{"wild always legal", "R5", "W", true},
		{"wild draw 4 always legal", "R5", "W+4", true},
		{"symbol match on action card", "RS", "BS", true},
		{"bound wild matches color", "WG", "G3", true},
		{"bound wild rejects other color", "WG", "R3", false},
		{"bound wild draw 4", "W+4R", "R8", true},
		{"bound wild draw 4 rejects", "W+4R", "B8", false},
		{"empty discard accepts anything", "", "G7", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &model.Room{}
			if tt.top != "" {
				r.Discard = []model.Card{tt.top}
			}
			assert.Equal(t, tt.want, e.IsLegal(r, tt.card, ""))
		})
	}
}

func TestUnoPlayRejectionLeavesRoomUntouched(t *testing.T) {
	e := NewUnoEngine()
	r := unoRoom(map[string][]model.Card{
		"a": {"B5", "G7", "W"},
		"b": {"R1"},
	}, []string{"a", "b"})
	r.Discard = []model.Card{"R5"}
	r.Deck = []model.Card{"Y1", "Y2"}

	out := e.ApplyPlay(r, "a", 1, "")
	require.False(t, out.OK)
	assert.Equal(t, model.ErrIllegalMove, out.Kind)
	assert.Len(t, r.Players["a"].Hand, 3)
	assert.Len(t, r.Discard, 1)
	assert.Equal(t, 0, r.TurnIndex)

	out = e.ApplyPlay(r, "a", 2, "")
	require.False(t, out.OK)
	assert.Equal(t, model.ErrIllegalMove, out.Kind, "wild without chosen color")
	assert.Len(t, r.Players["a"].Hand, 3)

	out = e.ApplyPlay(r, "a", 7, "")
	require.False(t, out.OK)
	assert.Equal(t, model.ErrInvalidPayload, out.Kind, "index out of range")
}

func TestUnoPlayAdvancesTurn(t *testing.T) {
	e := NewUnoEngine()
	r := unoRoom(map[string][]model.Card{
		"a": {"B5", "G7"},
		"b": {"R1"},
		"c": {"Y2"},
	}, []string{"a", "b", "c"})
	r.Discard = []model.Card{"R5"}

	out := e.ApplyPlay(r, "a", 0, "")
	require.True(t, out.OK)
	assert.Equal(t, model.Card("B5"), DiscardTop(r))
	assert.Equal(t, []model.Card{"G7"}, r.Players["a"].Hand)
	assert.Equal(t, "b", r.CurrentTurnID())
	require.NotNil(t, out.Played)
	assert.Equal(t, model.Card("B5"), out.Played.Card)
}

func TestUnoWildBindsChosenColor(t *testing.T) {
	e := NewUnoEngine()
	r := unoRoom(map[string][]model.Card{
		"a": {"W", "R1"},
		"b": {"R1"},
	}, []string{"a", "b"})
	r.Discard = []model.Card{"R5"}

	out := e.ApplyPlay(r, "a", 0, "G")
	require.True(t, out.OK)
	assert.Equal(t, model.Card("WG"), DiscardTop(r))

	assert.False(t, e.IsLegal(r, "R3", ""))
	assert.True(t, e.IsLegal(r, "G3", ""))
}

func TestUnoDrawTwoSkipsVictim(t *testing.T) {
	e := NewUnoEngine()
	r := unoRoom(map[string][]model.Card{
		"a": {"R+2", "B9"},
		"b": {"R1"},
		"c": {"Y2"},
	}, []string{"a", "b", "c"})
	r.Discard = []model.Card{"R5"}
	r.Deck = []model.Card{"G1", "G2", "B3"}

	out := e.ApplyPlay(r, "a", 0, "")
	require.True(t, out.OK)
	assert.Len(t, r.Players["b"].Hand, 3, "victim drew 2")
	assert.Equal(t, "c", r.CurrentTurnID(), "victim skipped")
	require.Len(t, out.Notices, 1)
	assert.Equal(t, "b", out.Notices[0].PlayerID)
}

func TestUnoWildDrawFourSkipsVictim(t *testing.T) {
	e := NewUnoEngine()
	r := unoRoom(map[string][]model.Card{
		"a": {"W+4", "B9"},
		"b": {"R1"},
		"c": {"Y2"},
	}, []string{"a", "b", "c"})
	r.Discard = []model.Card{"R5"}
	r.Deck = []model.Card{"G1", "G2", "B3", "B4", "B6"}

	out := e.ApplyPlay(r, "a", 0, "Y")
	require.True(t, out.OK)
	assert.Equal(t, model.Card("W+4Y"), DiscardTop(r))
	assert.Len(t, r.Players["b"].Hand, 5, "victim drew 4")
	assert.Equal(t, "c", r.CurrentTurnID())
}

func TestUnoReverseActsAsSkipHeadToHead(t *testing.T) {
	e := NewUnoEngine()
	r := unoRoom(map[string][]model.Card{
		"a": {"RRV", "B9"},
		"b": {"R1"},
	}, []string{"a", "b"})
	r.Discard = []model.Card{"R5"}

	out := e.ApplyPlay(r, "a", 0, "")
	require.True(t, out.OK)
	assert.Equal(t, "a", r.CurrentTurnID())
	assert.Equal(t, 1, r.Direction)
}

func TestUnoReverseFlipsDirection(t *testing.T) {
	e := NewUnoEngine()
	r := unoRoom(map[string][]model.Card{
		"a": {"RRV", "B9"},
		"b": {"R1"},
		"c": {"Y2"},
	}, []string{"a", "b", "c"})
	r.Discard = []model.Card{"R5"}

	out := e.ApplyPlay(r, "a", 0, "")
	require.True(t, out.OK)
	assert.Equal(t, -1, r.Direction)
	assert.Equal(t, "c", r.CurrentTurnID())
}

func TestUnoLastCardWins(t *testing.T) {
	e := NewUnoEngine()
	r := unoRoom(map[string][]model.Card{
		"a": {"R9"},
		"b": {"R1"},
	}, []string{"a", "b"})
	r.Discard = []model.Card{"R5"}

	out := e.ApplyPlay(r, "a", 0, "")
	require.True(t, out.OK)
	assert.Equal(t, model.StatusFinished, r.Status)
	assert.Equal(t, "a", r.Winner)
	assert.Equal(t, "", r.CurrentTurnID(), "no turn once finished")
}

func TestUnoDrawDoesNotAdvanceTurn(t *testing.T) {
	e := NewUnoEngine()
	r := unoRoom(map[string][]model.Card{
		"a": {"B5"},
		"b": {"R1"},
	}, []string{"a", "b"})
	r.Discard = []model.Card{"R5"}
	r.Deck = []model.Card{"G1"}

	out := e.ApplyDraw(r, "a")
	require.True(t, out.OK)
	assert.Len(t, r.Players["a"].Hand, 2)
	assert.Equal(t, "a", r.CurrentTurnID())

	out = e.ApplyPass(r, "a")
	require.True(t, out.OK)
	assert.Equal(t, "b", r.CurrentTurnID())
}

func TestUnoInitializeConservation(t *testing.T) {
	e := NewUnoEngine()
	r := unoRoom(map[string][]model.Card{}, []string{"a", "b", "c"})
	r.Status = model.StatusLobby

	out := e.Initialize(r)
	require.True(t, out.OK)
	assert.Equal(t, model.StatusActive, r.Status)

	total := len(r.Deck) + len(r.Discard)
	for _, p := range r.Players {
		total += len(p.Hand)
		assert.GreaterOrEqual(t, len(p.Hand), 7)
	}
	assert.Equal(t, UnoDeckSize, total)
	assert.NotEqual(t, model.Card(""), DiscardTop(r))
}
