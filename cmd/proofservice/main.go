// The proofservice command serves reveal proof generation and verification
// over HTTP.
package main

import (
	"net/http"
	"os"

	"github.com/rs/zerolog"

	"github.com/flerk3n/SGS-ZK-gaming/pkg/proofservice"
)

func main() {
	log := zerolog.New(os.Stderr).With().Timestamp().Str("service", "proofservice").Logger()

	cfg, err := proofservice.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	server, err := proofservice.NewServer(cfg.DeckSize, log)
	if err != nil {
		log.Fatal().Err(err).Msg("circuit setup failed")
	}

	log.Info().Str("addr", cfg.Addr).Msg("proof service listening")
	if err := http.ListenAndServe(cfg.Addr, server.Handler()); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
