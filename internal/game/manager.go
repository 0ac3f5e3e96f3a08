package game

import (
	"log/slog"
	"sync"
	"time"

	"cardtable/internal/config"
	"cardtable/internal/database"
	"cardtable/internal/model"

	"github.com/gorilla/websocket"
)

// Manager is the room registry: it owns the code->room map, the engine
// registry, and the lobby connections. All per-room mutation happens
// under the room's own mutex; the registry lock only guards the map.
type Manager struct {
	Rooms     map[string]*model.Room
	RoomsLock sync.Mutex

	LobbyConns map[*websocket.Conn]bool
	LobbyLock  sync.Mutex

	Store   *database.Store
	Cfg     *config.Config
	engines map[model.GameKind]Engine
	logger  *slog.Logger
}

func NewManager(store *database.Store, cfg *config.Config) *Manager {
	m := &Manager{
		Rooms:      make(map[string]*model.Room),
		LobbyConns: make(map[*websocket.Conn]bool),
		Store:      store,
		Cfg:        cfg,
		engines:    NewEngines(cfg),
		logger:     slog.Default().With("component", "manager"),
	}
	if cfg.Room.EvictInterval > 0 && cfg.Room.EvictAfter > 0 {
		go m.evictLoop()
	}
	return m
}

// Engine returns the rule engine for a game kind.
func (m *Manager) Engine(kind model.GameKind) (Engine, bool) {
	eng, ok := m.engines[kind]
	return eng, ok
}

// GetOrCreateRoom resolves a room by code, creating a lobby for an
// unseen code.
func (m *Manager) GetOrCreateRoom(code string, kind model.GameKind) *model.Room {
	m.RoomsLock.Lock()
	defer m.RoomsLock.Unlock()
	if r, ok := m.Rooms[code]; ok {
		return r
	}
	if _, ok := m.engines[kind]; !ok {
		kind = model.GameUno
	}
	r := &model.Room{
		Code:      code,
		GameKind:  kind,
		Status:    model.StatusLobby,
		Players:   make(map[string]*model.Player),
		Direction: 1,
		Watchers:  make(map[*websocket.Conn]bool),
	}
	r.Touch()
	m.Rooms[code] = r
	m.logger.Info("room created", "code", code, "game", kind)
	return r
}

// GetRoom resolves a room without creating one.
func (m *Manager) GetRoom(code string) (*model.Room, bool) {
	m.RoomsLock.Lock()
	defer m.RoomsLock.Unlock()
	r, ok := m.Rooms[code]
	return r, ok
}

// RemoveRoom drops a room from the registry.
func (m *Manager) RemoveRoom(code string) {
	m.RoomsLock.Lock()
	delete(m.Rooms, code)
	m.RoomsLock.Unlock()
	m.logger.Info("room removed", "code", code)
}

func (m *Manager) evictLoop() {
	ticker := time.NewTicker(m.Cfg.Room.EvictInterval)
	defer ticker.Stop()
	for range ticker.C {
		m.evictIdle()
	}
}

// evictIdle tears down rooms nobody has touched for the configured
// timeout. This is the backstop for rounds stalled on a pending
// selection from a player who never answers.
func (m *Manager) evictIdle() {
	cutoff := time.Now().Add(-m.Cfg.Room.EvictAfter)

	m.RoomsLock.Lock()
	var candidates []*model.Room
	for _, r := range m.Rooms {
		candidates = append(candidates, r)
	}
	m.RoomsLock.Unlock()

	for _, r := range candidates {
		r.Mutex.Lock()
		idle := r.LastActive.Before(cutoff)
		if idle {
			m.closeRoomLocked(r)
		}
		r.Mutex.Unlock()
		if idle {
			m.RemoveRoom(r.Code)
			m.logger.Info("room evicted as idle", "code", r.Code)
			go m.BroadcastRoomList()
		}
	}
}
