package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"cardtable/internal/database"
	"cardtable/internal/game"
	"cardtable/internal/model"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

type Handler struct {
	Manager *game.Manager
	Store   *database.Store
	logger  *slog.Logger
}

func NewHandler(m *game.Manager, s *database.Store) *Handler {
	return &Handler{Manager: m, Store: s, logger: slog.Default().With("component", "server")}
}

// CheckRoomHandler answers the pre-join probe from the join form.
func (h *Handler) CheckRoomHandler(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	_, exists := h.Manager.GetRoom(code)
	json.NewEncoder(w).Encode(map[string]bool{"exists": exists})
}

// HandleLobbyWS serves the room browser: push-only room summaries.
func (h *Handler) HandleLobbyWS(w http.ResponseWriter, r *http.Request) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	h.Manager.LobbyLock.Lock()
	h.Manager.LobbyConns[ws] = true
	h.Manager.LobbyLock.Unlock()

	go h.Manager.BroadcastRoomList()

	defer func() {
		h.Manager.LobbyLock.Lock()
		delete(h.Manager.LobbyConns, ws)
		h.Manager.LobbyLock.Unlock()
		ws.Close()
	}()

	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			break
		}
	}
}

func sendError(ws *websocket.Conn, kind model.ErrorKind, message string) {
	ws.WriteJSON(model.Message{Type: "error", Payload: map[string]string{
		"kind":    string(kind),
		"message": message,
	}})
}

func newRoomCode() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
}

// HandleGameWS is the per-client session loop. One goroutine per
// connection reads frames; every room mutation happens with that room's
// mutex held, so each room sees a single writer at a time.
func (h *Handler) HandleGameWS(w http.ResponseWriter, r *http.Request) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	var currentRoom *model.Room
	var currentPlayerID string
	var watching bool

	defer func() {
		if currentRoom != nil {
			currentRoom.Mutex.Lock()
			if watching {
				h.Manager.DropWatcher(currentRoom, ws)
			}
			if p, ok := currentRoom.Players[currentPlayerID]; ok && p.Conn == ws {
				p.Conn = nil
				h.logger.Info("player disconnected", "player", p.Name, "room", currentRoom.Code)
			}
			currentRoom.Mutex.Unlock()
			go h.Manager.BroadcastRoomList()
		}
		ws.Close()
	}()

	for {
		var action model.Action
		if err := ws.ReadJSON(&action); err != nil {
			break
		}

		switch action.Type {
		case "create_lobby":
			if action.Name == "" {
				sendError(ws, model.ErrInvalidPayload, "name is required")
				continue
			}
			uid := action.PlayerID
			if uid == "" {
				uid = h.Store.GetOrCreateUserID(action.Name)
			}
			code := action.RoomCode
			if code == "" {
				code = newRoomCode()
			} else if _, exists := h.Manager.GetRoom(code); exists {
				sendError(ws, model.ErrInvalidPayload, "room code already in use")
				continue
			}
			room := h.Manager.GetOrCreateRoom(code, model.GameKind(action.GameKind))
			ws.WriteJSON(model.Message{Type: "identity", Payload: map[string]string{"id": uid, "name": action.Name, "roomCode": code}})

			room.Mutex.Lock()
			out := h.Manager.JoinRoom(room, uid, action.Name, action.Avatar, ws)
			room.Mutex.Unlock()
			if !out.OK {
				sendError(ws, out.Kind, out.Message)
				continue
			}
			if watching && currentRoom != nil {
				currentRoom.Mutex.Lock()
				h.Manager.DropWatcher(currentRoom, ws)
				currentRoom.Mutex.Unlock()
			}
			watching = false
			currentRoom = room
			currentPlayerID = uid
			go h.Manager.BroadcastRoomList()

		case "join_room":
			if action.Name == "" {
				sendError(ws, model.ErrInvalidPayload, "name is required")
				continue
			}
			room, exists := h.Manager.GetRoom(action.RoomCode)
			if !exists {
				sendError(ws, model.ErrRoomNotFound, "room not found")
				continue
			}
			uid := action.PlayerID
			if uid == "" {
				uid = h.Store.GetOrCreateUserID(action.Name)
			}
			ws.WriteJSON(model.Message{Type: "identity", Payload: map[string]string{"id": uid, "name": action.Name, "roomCode": room.Code}})

			room.Mutex.Lock()
			out := h.Manager.JoinRoom(room, uid, action.Name, action.Avatar, ws)
			room.Mutex.Unlock()
			if !out.OK {
				sendError(ws, out.Kind, out.Message)
				continue
			}
			if watching && currentRoom != nil {
				currentRoom.Mutex.Lock()
				h.Manager.DropWatcher(currentRoom, ws)
				currentRoom.Mutex.Unlock()
			}
			watching = false
			currentRoom = room
			currentPlayerID = uid
			go h.Manager.BroadcastRoomList()

		case "watch_room":
			room, exists := h.Manager.GetRoom(action.RoomCode)
			if !exists {
				sendError(ws, model.ErrRoomNotFound, "room not found")
				continue
			}
			room.Mutex.Lock()
			h.Manager.WatchRoom(room, ws)
			room.Mutex.Unlock()
			currentRoom = room
			watching = true

		case "leave_room":
			if currentRoom == nil {
				continue
			}
			currentRoom.Mutex.Lock()
			if watching {
				h.Manager.DropWatcher(currentRoom, ws)
				currentRoom.Mutex.Unlock()
				currentRoom = nil
				watching = false
				continue
			}
			empty := h.Manager.LeaveRoom(currentRoom, currentPlayerID)
			currentRoom.Mutex.Unlock()
			if empty {
				h.Manager.RemoveRoom(currentRoom.Code)
			}
			go h.Manager.BroadcastRoomList()
			currentRoom = nil
			currentPlayerID = ""

		case "close_room":
			if currentRoom == nil {
				continue
			}
			currentRoom.Mutex.Lock()
			h.Manager.CloseRoom(currentRoom)
			currentRoom.Mutex.Unlock()
			currentRoom = nil
			currentPlayerID = ""
			return

		default:
			if currentRoom == nil || watching {
				sendError(ws, model.ErrRoomNotFound, "join a room first")
				continue
			}
			h.dispatch(ws, currentRoom, currentPlayerID, action)
		}
	}
}

// dispatch routes in-room actions through the orchestrator under the
// room mutex and fans rejections back to the acting connection only.
func (h *Handler) dispatch(ws *websocket.Conn, room *model.Room, playerID string, action model.Action) {
	room.Mutex.Lock()
	var out model.Outcome
	switch action.Type {
	case "start_game":
		out = h.Manager.StartGame(room)
	case "restart_game":
		out = h.Manager.RestartGame(room)
	case "reset_room":
		h.Manager.ResetRoom(room)
		out = model.Ok()
	case "play_card":
		out = h.Manager.PlayCard(room, playerID, action.CardIndex, action.ChosenColor)
	case "draw_card":
		out = h.Manager.DrawCard(room, playerID)
	case "pass_turn":
		out = h.Manager.PassTurn(room, playerID)
	case "hit":
		out = h.Manager.Hit(room, playerID)
	case "stay":
		out = h.Manager.Stay(room, playerID)
	case "select_flip3_target":
		out = h.Manager.SelectFlip3Target(room, playerID, action.TargetID)
	case "select_freeze_target":
		out = h.Manager.SelectFreezeTarget(room, playerID, action.TargetID)
	case "use_second_chance":
		out = h.Manager.UseSecondChance(room, playerID)
	case "gift_second_chance":
		out = h.Manager.GiftSecondChance(room, playerID, action.TargetID)
	case "start_next_round":
		out = h.Manager.StartNextRound(room, playerID)
	case "get_hand":
		h.Manager.SendHand(room, playerID)
		out = model.Ok()
	default:
		out = model.Fail(model.ErrUnsupportedAction, "unknown action "+action.Type)
	}
	room.Mutex.Unlock()

	if !out.OK {
		sendError(ws, out.Kind, out.Message)
	}
}
