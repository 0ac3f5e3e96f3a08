package game

import (
	"fmt"

	"cardtable/internal/database"
	"cardtable/internal/model"

	"github.com/gorilla/websocket"
)

// Orchestrator methods: every mutating operation on one room lives here,
// is called with the room's mutex held, validates before it touches
// anything, and broadcasts the refreshed projections on success.

// JoinRoom adds a player or re-binds a reconnecting one. A known
// playerID never produces a second roster entry; it just gets the fresh
// connection and its exact hand back.
func (m *Manager) JoinRoom(r *model.Room, playerID, name, avatar string, conn *websocket.Conn) model.Outcome {
	if playerID == "" || name == "" {
		return model.Fail(model.ErrInvalidPayload, "playerId and name are required")
	}
	if len(name) > model.MaxNameLen {
		name = name[:model.MaxNameLen]
	}
	r.Touch()

	if p, ok := r.Players[playerID]; ok {
		p.Conn = conn
		p.Name = name
		if avatar != "" {
			p.Avatar = avatar
		}
		m.BroadcastState(r)
		m.SendHand(r, playerID)
		return model.Ok()
	}

	r.Players[playerID] = &model.Player{ID: playerID, Name: name, Avatar: avatar, Conn: conn}
	r.Order = append(r.Order, playerID)
	out := model.Ok(fmt.Sprintf("%s joined", name))
	return m.applyOutcome(r, out)
}

// WatchRoom registers a read-only connection (the table view).
func (m *Manager) WatchRoom(r *model.Room, conn *websocket.Conn) {
	r.Watchers[conn] = true
	m.SendStateTo(r, conn)
}

// DropWatcher forgets a read-only connection.
func (m *Manager) DropWatcher(r *model.Room, conn *websocket.Conn) {
	delete(r.Watchers, conn)
}

// StartGame deals a fresh game. Lobby only, two players minimum.
func (m *Manager) StartGame(r *model.Room) model.Outcome {
	if r.Status != model.StatusLobby {
		return model.Fail(model.ErrGameNotActive, "game already started")
	}
	if len(r.Order) < 2 {
		return model.Fail(model.ErrInsufficientPlayers, "need at least 2 players")
	}
	eng, ok := m.Engine(r.GameKind)
	if !ok {
		return model.Fail(model.ErrUnsupportedAction, "unknown game kind")
	}
	r.HistoryRecorded = false
	return m.applyOutcome(r, eng.Initialize(r))
}

// RestartGame re-deals with the same roster and join order.
func (m *Manager) RestartGame(r *model.Room) model.Outcome {
	if len(r.Order) < 2 {
		return model.Fail(model.ErrInsufficientPlayers, "need at least 2 players")
	}
	eng, ok := m.Engine(r.GameKind)
	if !ok {
		return model.Fail(model.ErrUnsupportedAction, "unknown game kind")
	}
	r.Status = model.StatusLobby
	r.HistoryRecorded = false
	out := eng.Initialize(r)
	out.LogEntries = append([]string{"Game restarted"}, out.LogEntries...)
	return m.applyOutcome(r, out)
}

// ResetRoom cancels the game but keeps the roster.
func (m *Manager) ResetRoom(r *model.Room) {
	r.Status = model.StatusLobby
	r.Deck = nil
	r.Discard = nil
	r.TurnIndex = 0
	r.Direction = 1
	r.Winner = ""
	r.Flip7 = nil
	r.HistoryRecorded = false
	for _, p := range r.Players {
		p.Hand = nil
	}
	m.appendLog(r, "Room reset")
	r.Touch()
	m.BroadcastState(r)
}

func (m *Manager) guardActive(r *model.Room) *model.Outcome {
	if r.Status != model.StatusActive {
		out := model.Fail(model.ErrGameNotActive, "game is not active")
		return &out
	}
	return nil
}

func (m *Manager) guardTurn(r *model.Room, playerID string) *model.Outcome {
	if _, ok := r.Players[playerID]; !ok {
		out := model.Fail(model.ErrInvalidPayload, "player not in room")
		return &out
	}
	if r.CurrentTurnID() != playerID {
		out := model.Fail(model.ErrNotYourTurn, "not your turn")
		return &out
	}
	return nil
}

func (m *Manager) trickEngine(r *model.Room) (TrickActions, *model.Outcome) {
	eng, ok := m.Engine(r.GameKind)
	if ok {
		if te, ok := eng.(TrickActions); ok {
			return te, nil
		}
	}
	out := model.Fail(model.ErrUnsupportedAction, fmt.Sprintf("%s does not support this action", r.GameKind))
	return nil, &out
}

func (m *Manager) luckEngine(r *model.Room) (LuckActions, *model.Outcome) {
	eng, ok := m.Engine(r.GameKind)
	if ok {
		if le, ok := eng.(LuckActions); ok {
			return le, nil
		}
	}
	out := model.Fail(model.ErrUnsupportedAction, fmt.Sprintf("%s does not support this action", r.GameKind))
	return nil, &out
}

// PlayCard plays the card at cardIndex from the actor's hand.
func (m *Manager) PlayCard(r *model.Room, playerID string, cardIndex int, chosenColor string) model.Outcome {
	te, fail := m.trickEngine(r)
	if fail != nil {
		return *fail
	}
	if g := m.guardActive(r); g != nil {
		return *g
	}
	if g := m.guardTurn(r, playerID); g != nil {
		return *g
	}
	return m.applyOutcome(r, te.ApplyPlay(r, playerID, cardIndex, chosenColor))
}

// DrawCard moves one card from the deck to the actor's hand. The turn
// does not advance; the player may still play or must pass.
func (m *Manager) DrawCard(r *model.Room, playerID string) model.Outcome {
	te, fail := m.trickEngine(r)
	if fail != nil {
		return *fail
	}
	if g := m.guardActive(r); g != nil {
		return *g
	}
	if g := m.guardTurn(r, playerID); g != nil {
		return *g
	}
	return m.applyOutcome(r, te.ApplyDraw(r, playerID))
}

func (m *Manager) PassTurn(r *model.Room, playerID string) model.Outcome {
	te, fail := m.trickEngine(r)
	if fail != nil {
		return *fail
	}
	if g := m.guardActive(r); g != nil {
		return *g
	}
	if g := m.guardTurn(r, playerID); g != nil {
		return *g
	}
	return m.applyOutcome(r, te.ApplyPass(r, playerID))
}

func (m *Manager) Hit(r *model.Room, playerID string) model.Outcome {
	le, fail := m.luckEngine(r)
	if fail != nil {
		return *fail
	}
	if g := m.guardActive(r); g != nil {
		return *g
	}
	if g := m.guardTurn(r, playerID); g != nil {
		return *g
	}
	return m.applyOutcome(r, le.Hit(r, playerID))
}

func (m *Manager) Stay(r *model.Room, playerID string) model.Outcome {
	le, fail := m.luckEngine(r)
	if fail != nil {
		return *fail
	}
	if g := m.guardActive(r); g != nil {
		return *g
	}
	if g := m.guardTurn(r, playerID); g != nil {
		return *g
	}
	return m.applyOutcome(r, le.Stay(r, playerID))
}

// Selection actions are answered by the player a pending sub-state names,
// who is not necessarily the turn-holder; the engine checks ownership.
func (m *Manager) SelectFlip3Target(r *model.Room, playerID, targetID string) model.Outcome {
	le, fail := m.luckEngine(r)
	if fail != nil {
		return *fail
	}
	if g := m.guardActive(r); g != nil {
		return *g
	}
	return m.applyOutcome(r, le.SelectFlip3Target(r, playerID, targetID))
}

func (m *Manager) SelectFreezeTarget(r *model.Room, playerID, targetID string) model.Outcome {
	le, fail := m.luckEngine(r)
	if fail != nil {
		return *fail
	}
	if g := m.guardActive(r); g != nil {
		return *g
	}
	return m.applyOutcome(r, le.SelectFreezeTarget(r, playerID, targetID))
}

func (m *Manager) UseSecondChance(r *model.Room, playerID string) model.Outcome {
	le, fail := m.luckEngine(r)
	if fail != nil {
		return *fail
	}
	if g := m.guardActive(r); g != nil {
		return *g
	}
	return m.applyOutcome(r, le.UseSecondChance(r, playerID))
}

func (m *Manager) GiftSecondChance(r *model.Room, playerID, targetID string) model.Outcome {
	le, fail := m.luckEngine(r)
	if fail != nil {
		return *fail
	}
	if g := m.guardActive(r); g != nil {
		return *g
	}
	return m.applyOutcome(r, le.GiftSecondChance(r, playerID, targetID))
}

func (m *Manager) StartNextRound(r *model.Room, playerID string) model.Outcome {
	le, fail := m.luckEngine(r)
	if fail != nil {
		return *fail
	}
	if _, ok := r.Players[playerID]; !ok {
		return model.Fail(model.ErrInvalidPayload, "player not in room")
	}
	return m.applyOutcome(r, le.StartNextRound(r, playerID))
}

// LeaveRoom removes a player for good. Their cards go back to the
// discard so the pile stays complete. Returns true when the room is now
// empty and should be torn down.
func (m *Manager) LeaveRoom(r *model.Room, playerID string) bool {
	p, ok := r.Players[playerID]
	if !ok {
		return len(r.Players) == 0
	}

	holder := r.CurrentTurnID()
	r.Discard = append(r.Discard, p.Hand...)
	delete(r.Players, playerID)
	for i, pid := range r.Order {
		if pid == playerID {
			r.Order = append(r.Order[:i], r.Order[i+1:]...)
			break
		}
	}

	if holder != "" && holder != playerID {
		for i, pid := range r.Order {
			if pid == holder {
				r.TurnIndex = i
				break
			}
		}
	}
	ClampTurn(r)

	out := model.Ok(fmt.Sprintf("%s left the room", p.Name))
	if eng, ok := m.Engine(r.GameKind); ok {
		if lh, ok := eng.(LeaveHandler); ok {
			lh.HandleLeave(r, playerID, &out)
		}
	}

	if len(r.Players) == 0 {
		return true
	}
	m.applyOutcome(r, out)
	return false
}

// closeRoomLocked notifies and disconnects everyone; the caller removes
// the room from the registry afterwards.
func (m *Manager) closeRoomLocked(r *model.Room) {
	msg := model.Message{Type: "room_closed", Payload: map[string]string{"code": r.Code}}
	for _, p := range r.Players {
		if p.Conn != nil {
			p.Conn.WriteJSON(msg)
			p.Conn.Close()
			p.Conn = nil
		}
	}
	for conn := range r.Watchers {
		conn.WriteJSON(msg)
		conn.Close()
	}
	r.Watchers = make(map[*websocket.Conn]bool)
}

// CloseRoom terminates all sessions and drops the room.
func (m *Manager) CloseRoom(r *model.Room) {
	m.closeRoomLocked(r)
	m.RemoveRoom(r.Code)
	go m.BroadcastRoomList()
}

// applyOutcome merges a successful outcome into the room: log ring,
// notices, announcements, history recording, and the state broadcast.
// Failed outcomes pass through untouched so the caller can surface them.
func (m *Manager) applyOutcome(r *model.Room, out model.Outcome) model.Outcome {
	if !out.OK {
		return out
	}
	r.Touch()
	for _, entry := range out.LogEntries {
		m.appendLog(r, entry)
	}
	if out.Played != nil {
		m.BroadcastCardPlayed(r, *out.Played)
	}
	for _, entry := range out.LogEntries {
		m.BroadcastEvent(r, entry)
	}
	m.SendNotices(r, out.Notices)

	if r.Status == model.StatusFinished && !r.HistoryRecorded {
		m.recordFinished(r)
		r.HistoryRecorded = true
		m.BroadcastStats(r)
	}

	m.BroadcastState(r)
	return out
}

func (m *Manager) appendLog(r *model.Room, entry string) {
	r.Log = append(r.Log, entry)
	if cap := m.Cfg.Room.LogCap; cap > 0 && len(r.Log) > cap {
		r.Log = r.Log[len(r.Log)-cap:]
	}
}

// recordFinished writes one history row per player. Uno scores count
// cards left (0 for the winner); Flip7 scores are cumulative points.
func (m *Manager) recordFinished(r *model.Room) {
	if m.Store == nil {
		return
	}
	results := make([]database.GameResult, 0, len(r.Order))
	for _, pid := range r.Order {
		p := r.Players[pid]
		score := 0
		switch r.GameKind {
		case model.GameUno:
			score = len(p.Hand)
		case model.GameFlip7:
			if r.Flip7 != nil {
				score = r.Flip7.Cumulative[pid]
			}
		}
		results = append(results, database.GameResult{
			PlayerName: p.Name,
			Score:      score,
			Won:        pid == r.Winner,
		})
	}
	m.Store.RecordGameResult(r.Code, r.GameKind, results)
}
