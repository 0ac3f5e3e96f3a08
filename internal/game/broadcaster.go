package game

import (
	"encoding/json"
	"sort"

	"cardtable/internal/model"

	"github.com/gorilla/websocket"
)

// PublicProjection is the room-wide view broadcast to every member and
// watcher. It never contains Uno hand contents, only counts. Flip7 hands
// are open information (the table renders them face up), so the flip7
// block carries them in full. Pure function of the room: calling it twice
// yields identical output.
func PublicProjection(r *model.Room) map[string]interface{} {
	players := make([]map[string]interface{}, 0, len(r.Order))
	for _, pid := range r.Order {
		p := r.Players[pid]
		players = append(players, map[string]interface{}{
			"id":     p.ID,
			"name":   p.Name,
			"avatar": p.Avatar,
			"count":  len(p.Hand),
		})
	}

	var discardTop interface{}
	if top := DiscardTop(r); top != "" {
		discardTop = top
	}
	var turn interface{}
	if r.Status == model.StatusActive {
		if id := r.CurrentTurnID(); id != "" {
			turn = id
		}
	}
	var winner interface{}
	if r.Winner != "" {
		winner = r.Winner
	}

	state := map[string]interface{}{
		"code":         r.Code,
		"gameKind":     r.GameKind,
		"status":       r.Status,
		"discardTop":   discardTop,
		"deckCount":    len(r.Deck),
		"discardCount": len(r.Discard),
		"players":      players,
		"turn":         turn,
		"winner":       winner,
		"log":          append([]string{}, r.Log...),
	}

	if r.GameKind == model.GameFlip7 && r.Flip7 != nil {
		state["flip7"] = flip7Projection(r)
	}
	return state
}

func flip7Projection(r *model.Room) map[string]interface{} {
	st := r.Flip7
	hands := make([]map[string]interface{}, 0, len(r.Order))
	for _, pid := range r.Order {
		p := r.Players[pid]
		hands = append(hands, map[string]interface{}{
			"id":    p.ID,
			"name":  p.Name,
			"cards": append([]model.Card{}, p.Hand...),
		})
	}
	return map[string]interface{}{
		"hands":                   hands,
		"stayed":                  idSet(r, st.Stayed),
		"busted":                  idSet(r, st.Busted),
		"frozen":                  idSet(r, st.Frozen),
		"secondChance":            idSet(r, st.SecondChance),
		"roundScores":             copyIntMap(st.RoundScores),
		"cumulative":              copyIntMap(st.Cumulative),
		"roundOver":               st.RoundOver,
		"pendingFlip3":            st.PendingFlip3,
		"pendingFreeze":           st.PendingFreeze,
		"pendingSecondChanceUse":  st.PendingSecondChanceUse,
		"pendingSecondChanceGift": st.PendingSecondChanceGift,
	}
}

// idSet flattens a membership map into a slice ordered by seat.
func idSet(r *model.Room, set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for _, pid := range r.Order {
		if set[pid] {
			out = append(out, pid)
		}
	}
	return out
}

func copyIntMap(in map[string]int) map[string]int {
	out := make(map[string]int, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// BroadcastState fans the public projection out to every member and
// watcher; each player's frame additionally carries their own hand.
func (m *Manager) BroadcastState(r *model.Room) {
	state := PublicProjection(r)

	for _, p := range r.Players {
		if p.Conn == nil {
			continue
		}
		p.Conn.WriteJSON(model.Message{Type: "room_state", Payload: map[string]interface{}{
			"publicState": state,
			"myHand":      append([]model.Card{}, p.Hand...),
			"roomCode":    r.Code,
		}})
	}
	for conn := range r.Watchers {
		conn.WriteJSON(model.Message{Type: "room_state", Payload: map[string]interface{}{
			"publicState": state,
			"roomCode":    r.Code,
		}})
	}

	go m.BroadcastRoomList()
}

// SendStateTo pushes the current public projection to one connection.
func (m *Manager) SendStateTo(r *model.Room, conn *websocket.Conn) {
	conn.WriteJSON(model.Message{Type: "room_state", Payload: map[string]interface{}{
		"publicState": PublicProjection(r),
		"roomCode":    r.Code,
	}})
}

// SendHand delivers the private projection to one player. Unknown
// players are silently ignored: a stale re-sync is not an error.
func (m *Manager) SendHand(r *model.Room, playerID string) {
	p, ok := r.Players[playerID]
	if !ok || p.Conn == nil {
		return
	}
	p.Conn.WriteJSON(model.Message{Type: "player_hand", Payload: map[string]interface{}{
		"hand": append([]model.Card{}, p.Hand...),
	}})
}

// SendNotices delivers targeted messages for effects imposed on a player
// by someone else's action.
func (m *Manager) SendNotices(r *model.Room, notices []model.Notice) {
	for _, n := range notices {
		if p, ok := r.Players[n.PlayerID]; ok && p.Conn != nil {
			p.Conn.WriteJSON(model.Message{Type: "notice", Payload: map[string]string{"message": n.Message}})
		}
	}
}

// BroadcastEvent announces a human-readable line to the whole room.
func (m *Manager) BroadcastEvent(r *model.Room, text string) {
	msg := model.Message{Type: "game_event", Payload: map[string]string{"message": text}}
	for _, p := range r.Players {
		if p.Conn != nil {
			p.Conn.WriteJSON(msg)
		}
	}
	for conn := range r.Watchers {
		conn.WriteJSON(msg)
	}
}

// BroadcastCardPlayed announces a resolved play for the table animation.
func (m *Manager) BroadcastCardPlayed(r *model.Room, played model.CardPlayed) {
	msg := model.Message{Type: "card_played", Payload: played}
	for _, p := range r.Players {
		if p.Conn != nil {
			p.Conn.WriteJSON(msg)
		}
	}
	for conn := range r.Watchers {
		conn.WriteJSON(msg)
	}
}

// BroadcastStats pushes the room's historical results to everyone.
func (m *Manager) BroadcastStats(r *model.Room) {
	if m.Store == nil {
		return
	}
	stats := m.Store.RoomStats(r.Code)
	msg := model.Message{Type: "stats", Payload: stats}
	for _, p := range r.Players {
		if p.Conn != nil {
			p.Conn.WriteJSON(msg)
		}
	}
	for conn := range r.Watchers {
		conn.WriteJSON(msg)
	}
}

// BroadcastRoomList pushes room summaries to every lobby connection.
func (m *Manager) BroadcastRoomList() {
	m.RoomsLock.Lock()
	rooms := make([]*model.Room, 0, len(m.Rooms))
	for _, r := range m.Rooms {
		rooms = append(rooms, r)
	}
	m.RoomsLock.Unlock()

	list := make([]model.RoomSummary, 0, len(rooms))
	for _, r := range rooms {
		r.Mutex.Lock()
		list = append(list, model.RoomSummary{
			Code:        r.Code,
			GameKind:    r.GameKind,
			PlayerCount: len(r.Players),
			Status:      r.Status,
		})
		r.Mutex.Unlock()
	}

	sort.Slice(list, func(i, j int) bool { return list[i].Code < list[j].Code })

	msg := model.Message{Type: "room_list", Payload: list}
	msgBytes, _ := json.Marshal(msg)

	m.LobbyLock.Lock()
	for conn := range m.LobbyConns {
		conn.WriteMessage(websocket.TextMessage, msgBytes)
	}
	m.LobbyLock.Unlock()
}
