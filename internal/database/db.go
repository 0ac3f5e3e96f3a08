package database

import (
	"database/sql"
	"log/slog"

	"cardtable/internal/model"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// Store keeps the little that outlives a process: player identity by
// display name, and per-room game history for the stats panel. Room state
// itself is memory-only on purpose.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	sqlStmt := `CREATE TABLE IF NOT EXISTS users (name TEXT PRIMARY KEY, id TEXT);`
	sqlStmt += `CREATE TABLE IF NOT EXISTS game_history (id INTEGER PRIMARY KEY AUTOINCREMENT, room_code TEXT, game_kind TEXT, player_name TEXT, score INTEGER, won INTEGER, played_at DATETIME DEFAULT CURRENT_TIMESTAMP);`
	if _, err := db.Exec(sqlStmt); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db, logger: slog.Default().With("component", "store")}, nil
}

func (s *Store) Close() {
	if s.db != nil {
		s.db.Close()
	}
}

// GetOrCreateUserID returns the stable id bound to a display name,
// minting one on first sight.
func (s *Store) GetOrCreateUserID(name string) string {
	var id string
	err := s.db.QueryRow("SELECT id FROM users WHERE name = ?", name).Scan(&id)
	if err == nil {
		return id
	}

	id = uuid.NewString()
	_, err = s.db.Exec("INSERT INTO users (name, id) VALUES (?, ?)", name, id)
	if err != nil {
		// Lost a concurrent insert race; take whatever won.
		s.db.QueryRow("SELECT id FROM users WHERE name = ?", name).Scan(&id)
	}
	return id
}

// GameResult is one player's line in a finished game.
type GameResult struct {
	PlayerName string
	Score      int
	Won        bool
}

func (s *Store) RecordGameResult(roomCode string, gameKind model.GameKind, results []GameResult) {
	tx, err := s.db.Begin()
	if err != nil {
		s.logger.Error("begin history tx", "err", err)
		return
	}
	stmt, err := tx.Prepare("INSERT INTO game_history(room_code, game_kind, player_name, score, won) VALUES(?, ?, ?, ?, ?)")
	if err != nil {
		tx.Rollback()
		return
	}
	defer stmt.Close()
	for _, res := range results {
		won := 0
		if res.Won {
			won = 1
		}
		stmt.Exec(roomCode, string(gameKind), res.PlayerName, res.Score, won)
	}
	tx.Commit()
}

// RoomStats aggregates the history for one room code.
func (s *Store) RoomStats(roomCode string) []model.PlayerStat {
	stats := make([]model.PlayerStat, 0)

	rows, err := s.db.Query(`SELECT player_name, COUNT(*) as games, SUM(score) as total_score, SUM(won) as wins FROM game_history WHERE room_code = ? GROUP BY player_name ORDER BY wins DESC, total_score DESC`, roomCode)
	if err != nil {
		return stats
	}
	defer rows.Close()

	for rows.Next() {
		var st model.PlayerStat
		rows.Scan(&st.Name, &st.TotalGames, &st.TotalScore, &st.Wins)
		stats = append(stats, st)
	}
	return stats
}
