// The gameserver command serves the memory-game session API. Sessions are
// kept in SQLite when DB_PATH is set, otherwise in memory; stakes go through
// the GameHub at HUB_URL, or a logging stand-in when unset.
package main

import (
	"net/http"
	"os"

	"github.com/rs/zerolog"

	"github.com/flerk3n/SGS-ZK-gaming/circuits/cardreveal"
	"github.com/flerk3n/SGS-ZK-gaming/pkg/game"
	"github.com/flerk3n/SGS-ZK-gaming/pkg/game/sqlite"
	"github.com/flerk3n/SGS-ZK-gaming/pkg/gameserver"
	"github.com/flerk3n/SGS-ZK-gaming/pkg/hub"
)

func main() {
	log := zerolog.New(os.Stderr).With().Timestamp().Str("service", "gameserver").Logger()

	cfg, err := gameserver.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	var store game.Store
	if cfg.DBPath != "" {
		sqlStore, err := sqlite.Open(cfg.DBPath, cfg.Retention)
		if err != nil {
			log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("open session store")
		}
		defer sqlStore.Close()
		store = sqlStore
	} else {
		log.Warn().Msg("DB_PATH unset, sessions are in-memory only")
		store = game.NewMemStore(cfg.Retention)
	}

	var ledger game.Hub
	if cfg.HubURL != "" {
		ledger = hub.NewClient(cfg.HubURL)
	} else {
		log.Warn().Msg("HUB_URL unset, stakes are not escrowed")
		ledger = hub.Logging{Log: log}
	}

	verifier, err := cardreveal.NewVerifier(int(cfg.DeckSize))
	if err != nil {
		log.Fatal().Err(err).Msg("verifier setup failed")
	}

	svc, err := game.NewService(store, ledger, verifier, game.Config{
		DeckSize: cfg.DeckSize,
		GameID:   cfg.GameID,
	}, log)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid game configuration")
	}

	log.Info().Str("addr", cfg.Addr).Uint32("deck_size", cfg.DeckSize).Msg("game server listening")
	if err := http.ListenAndServe(cfg.Addr, gameserver.NewServer(svc, log).Handler()); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
