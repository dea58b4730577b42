// Package gameserver exposes the session state machine over HTTP JSON.
//
// The routes map one-to-one onto the state machine's operations: start_game,
// flip_card and get_game. All domain decisions live in pkg/game; this package
// only decodes requests, encodes sessions and translates rejection reasons to
// HTTP statuses.
package gameserver

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strconv"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog"

	"github.com/flerk3n/SGS-ZK-gaming/pkg/game"
)

// Config is read from the environment.
type Config struct {
	Addr      string        `env:"GAME_SERVER_ADDR" envDefault:":3002"`
	DeckSize  uint32        `env:"DECK_SIZE" envDefault:"4"`
	GameID    string        `env:"GAME_ID" envDefault:"zk-memory"`
	DBPath    string        `env:"DB_PATH"`
	Retention time.Duration `env:"SESSION_RETENTION" envDefault:"720h"`
	HubURL    string        `env:"HUB_URL"`
}

// LoadConfig parses server configuration from environment variables.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// Server serves the game API.
type Server struct {
	svc *game.Service
	log zerolog.Logger
}

// NewServer wraps a session state machine.
func NewServer(svc *game.Service, log zerolog.Logger) *Server {
	return &Server{svc: svc, log: log}
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /start-game", s.handleStartGame)
	mux.HandleFunc("POST /flip-card", s.handleFlipCard)
	mux.HandleFunc("GET /games/{id}", s.handleGetGame)
	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "service": "zk-memory-game-server"})
}

// StartGameRequest opens a session. Stakes are decimal strings (i128 range);
// the commitment is the hex digest published before play.
type StartGameRequest struct {
	SessionID  uint32 `json:"session_id"`
	Player1    string `json:"player1"`
	Player2    string `json:"player2"`
	Stake1     string `json:"stake1"`
	Stake2     string `json:"stake2"`
	Commitment string `json:"commitment"`
}

func (s *Server) handleStartGame(w http.ResponseWriter, r *http.Request) {
	var req StartGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	stake1, err := parseStake(req.Stake1)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("stake1: %v", err))
		return
	}
	stake2, err := parseStake(req.Stake2)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("stake2: %v", err))
		return
	}
	commitment, err := parseCommitment(req.Commitment)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	session, err := s.svc.StartGame(r.Context(), game.StartGameParams{
		SessionID:  req.SessionID,
		Player1:    req.Player1,
		Player2:    req.Player2,
		Stake1:     stake1,
		Stake2:     stake2,
		Commitment: commitment,
	})
	if err != nil {
		s.writeGameError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionView(session))
}

// FlipCardRequest submits one flip. PublicInputs are three hex field elements
// in wire order [position, commitment, value].
type FlipCardRequest struct {
	SessionID     uint32   `json:"session_id"`
	Player        string   `json:"player"`
	Position      uint32   `json:"position"`
	RevealedValue uint8    `json:"revealed_value"`
	Proof         string   `json:"proof"`
	PublicInputs  []string `json:"public_inputs"`
}

func (s *Server) handleFlipCard(w http.ResponseWriter, r *http.Request) {
	var req FlipCardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	proof, err := hex.DecodeString(req.Proof)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid proof hex: %v", err))
		return
	}
	publics := make([][32]byte, 0, len(req.PublicInputs))
	for i, in := range req.PublicInputs {
		raw, err := hex.DecodeString(in)
		if err != nil || len(raw) != 32 {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("public input %d must be 32 hex bytes", i))
			return
		}
		var word [32]byte
		copy(word[:], raw)
		publics = append(publics, word)
	}

	session, err := s.svc.FlipCard(r.Context(), game.FlipCardParams{
		SessionID:     req.SessionID,
		Player:        req.Player,
		Position:      req.Position,
		RevealedValue: req.RevealedValue,
		Proof:         proof,
		PublicInputs:  publics,
	})
	if err != nil {
		s.writeGameError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionView(session))
}

func (s *Server) handleGetGame(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 32)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid session id")
		return
	}
	session, err := s.svc.GetGame(r.Context(), uint32(id))
	if err != nil {
		s.writeGameError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionView(session))
}

// SessionView is the read projection of a session.
type SessionView struct {
	SessionID   uint32   `json:"session_id"`
	Player1     string   `json:"player1"`
	Player2     string   `json:"player2"`
	Stake1      string   `json:"stake1"`
	Stake2      string   `json:"stake2"`
	Commitment  string   `json:"commitment"`
	Cards       []string `json:"cards"`
	Score1      uint32   `json:"score1"`
	Score2      uint32   `json:"score2"`
	CurrentTurn string   `json:"current_turn"`
	PairsFound  uint32   `json:"pairs_found"`
	Active      bool     `json:"active"`

	PendingPosition *uint32 `json:"pending_position,omitempty"`
	PendingValue    *uint8  `json:"pending_value,omitempty"`
}

func sessionView(s *game.Session) SessionView {
	view := SessionView{
		SessionID:   s.ID,
		Player1:     s.Player1,
		Player2:     s.Player2,
		Stake1:      stakeView(s.Stake1),
		Stake2:      stakeView(s.Stake2),
		Commitment:  hex.EncodeToString(s.Commitment[:]),
		Cards:       make([]string, len(s.Cards)),
		Score1:      s.Score1,
		Score2:      s.Score2,
		CurrentTurn: s.CurrentTurn,
		PairsFound:  s.PairsFound,
		Active:      s.Active,
	}
	for i, c := range s.Cards {
		if c == game.Matched {
			view.Cards[i] = "matched"
		} else {
			view.Cards[i] = "face_down"
		}
	}
	if s.Pending != nil {
		view.PendingPosition = &s.Pending.Position
		view.PendingValue = &s.Pending.Value
	}
	return view
}

func (s *Server) writeGameError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, game.ErrGameNotFound):
		status = http.StatusNotFound
	case errors.Is(err, game.ErrGameExists),
		errors.Is(err, game.ErrGameNotActive),
		errors.Is(err, game.ErrCardAlreadyMatched):
		status = http.StatusConflict
	case errors.Is(err, game.ErrNotPlayer), errors.Is(err, game.ErrNotYourTurn):
		status = http.StatusForbidden
	case errors.Is(err, game.ErrInvalidPosition),
		errors.Is(err, game.ErrInvalidProof),
		errors.Is(err, game.ErrSelfPlay):
		status = http.StatusBadRequest
	default:
		s.log.Error().Err(err).Msg("operation failed")
	}
	writeError(w, status, err.Error())
}

func stakeView(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

func parseStake(s string) (*big.Int, error) {
	if s == "" {
		return big.NewInt(0), nil
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("malformed decimal %q", s)
	}
	return v, nil
}

func parseCommitment(s string) ([32]byte, error) {
	var out [32]byte
	raw, err := hex.DecodeString(s)
	if err != nil || len(raw) != 32 {
		return out, fmt.Errorf("commitment must be 32 hex bytes")
	}
	copy(out[:], raw)
	return out, nil
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
