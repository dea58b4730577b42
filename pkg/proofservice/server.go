// Package proofservice exposes reveal proof generation and verification over
// HTTP JSON. It is a thin wrapper around the proving backend: accept private
// and public inputs, return (proof, journal, commitment); accept a proof,
// return validity plus a message.
package proofservice

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog"

	"github.com/flerk3n/SGS-ZK-gaming/circuits/cardreveal"
)

// Config is read from the environment.
type Config struct {
	Addr     string `env:"PROOF_SERVICE_ADDR" envDefault:":3001"`
	DeckSize int    `env:"DECK_SIZE" envDefault:"4"`
}

// LoadConfig parses service configuration from environment variables.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// Server holds the proving keys for one deck size.
type Server struct {
	keys     *cardreveal.ProvingKeys
	verifier *cardreveal.Verifier
	log      zerolog.Logger
}

// NewServer runs circuit setup for the configured deck size. Setup is the
// slow part; requests afterwards only prove and verify.
func NewServer(deckSize int, log zerolog.Logger) (*Server, error) {
	keys, err := cardreveal.Setup(deckSize)
	if err != nil {
		return nil, err
	}
	verifier, err := cardreveal.NewVerifier(deckSize)
	if err != nil {
		return nil, err
	}
	log.Info().Int("deck_size", deckSize).Int("constraints", keys.CCS.GetNbConstraints()).Msg("reveal circuit ready")
	return &Server{keys: keys, verifier: verifier, log: log}, nil
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleHealth)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /generate-proof", s.handleGenerateProof)
	mux.HandleFunc("POST /verify-proof", s.handleVerifyProof)
	return cors(mux)
}

// cors mirrors the permissive policy of the reference service; browser game
// clients call this from arbitrary origins.
func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": "zk-memory-proof-service",
	})
}

// ProofRequest is the generation payload: the private deck and salt plus the
// public position and value to reveal.
type ProofRequest struct {
	Deck          []uint8 `json:"deck"`
	Salt          string  `json:"salt"`
	Position      uint32  `json:"position"`
	RevealedValue uint8   `json:"revealed_value"`
}

// ProofResponse carries hex-encoded artifacts. The journal is the public
// input vector, 3 x 32 bytes in wire order [position, commitment, value].
type ProofResponse struct {
	Proof      string `json:"proof"`
	Journal    string `json:"journal"`
	Commitment string `json:"commitment"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleGenerateProof(w http.ResponseWriter, r *http.Request) {
	var req ProofRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	if len(req.Deck) != s.keys.DeckSize {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("deck must have exactly %d cards", s.keys.DeckSize)})
		return
	}
	if int(req.Position) >= s.keys.DeckSize {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("position must be 0-%d", s.keys.DeckSize-1)})
		return
	}

	s.log.Info().Uint32("position", req.Position).Msg("proof requested")

	result, err := cardreveal.Prove(s.keys, &cardreveal.WitnessInput{
		Deck:     req.Deck,
		Salt:     req.Salt,
		Position: req.Position,
		Value:    req.RevealedValue,
	})
	if err != nil {
		s.log.Error().Err(err).Msg("proof generation failed")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: fmt.Sprintf("failed to generate proof: %v", err)})
		return
	}

	s.log.Info().
		Dur("proving_time", result.ProvingTime).
		Int("proof_bytes", len(result.Proof)).
		Msg("proof generated")

	writeJSON(w, http.StatusOK, ProofResponse{
		Proof:      hex.EncodeToString(result.Proof),
		Journal:    hex.EncodeToString(flatten(result.PublicInputs)),
		Commitment: hex.EncodeToString(result.Commitment[:]),
	})
}

// VerifyRequest carries a hex proof and its hex journal.
type VerifyRequest struct {
	Proof   string `json:"proof"`
	Journal string `json:"journal"`
}

// VerifyResponse reports validity and a human-readable message.
type VerifyResponse struct {
	Valid   bool   `json:"valid"`
	Message string `json:"message"`
}

func (s *Server) handleVerifyProof(w http.ResponseWriter, r *http.Request) {
	var req VerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	proof, err := hex.DecodeString(req.Proof)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("invalid proof hex: %v", err)})
		return
	}
	publics, err := parseJournal(req.Journal)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	if err := s.verifier.VerifyReveal(r.Context(), proof, publics); err != nil {
		s.log.Info().Err(err).Msg("proof rejected")
		writeJSON(w, http.StatusOK, VerifyResponse{Valid: false, Message: fmt.Sprintf("proof verification failed: %v", err)})
		return
	}
	writeJSON(w, http.StatusOK, VerifyResponse{Valid: true, Message: "proof is valid"})
}

func flatten(inputs [][32]byte) []byte {
	out := make([]byte, 0, len(inputs)*32)
	for _, in := range inputs {
		out = append(out, in[:]...)
	}
	return out
}

func parseJournal(journal string) ([][32]byte, error) {
	raw, err := hex.DecodeString(journal)
	if err != nil {
		return nil, fmt.Errorf("invalid journal hex: %v", err)
	}
	if len(raw) != cardreveal.PublicInputCount*32 {
		return nil, fmt.Errorf("journal must be %d bytes, got %d", cardreveal.PublicInputCount*32, len(raw))
	}
	out := make([][32]byte, cardreveal.PublicInputCount)
	for i := range out {
		copy(out[i][:], raw[i*32:(i+1)*32])
	}
	return out, nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
