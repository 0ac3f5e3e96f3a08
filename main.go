package main

import (
	"flag"
	"log/slog"
	"net/http"
	"os"

	"cardtable/internal/config"
	"cardtable/internal/database"
	"cardtable/internal/game"
	"cardtable/internal/server"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	store, err := database.NewStore(cfg.Database.Path)
	if err != nil {
		slog.Error("open database", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	manager := game.NewManager(store, cfg)
	handler := server.NewHandler(manager, store)

	http.HandleFunc("/check_room", handler.CheckRoomHandler)
	http.HandleFunc("/lobby_ws", handler.HandleLobbyWS)
	http.HandleFunc("/ws", handler.HandleGameWS)
	http.Handle("/", http.FileServer(http.Dir("./static")))

	slog.Info("server started", "addr", cfg.Server.Addr)
	if err := http.ListenAndServe(cfg.Server.Addr, nil); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
