package game

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/rs/zerolog"
)

// Config parameterizes the state machine.
type Config struct {
	// DeckSize is the number of cards in the grid. Must be positive and even.
	DeckSize uint32
	// GameID is the game identity reported to the hub when locking stakes.
	GameID string
}

// DefaultDeckSize matches the reference 2x2 grid.
const DefaultDeckSize = 4

// Service is the session state machine. Each operation runs to completion
// against a single session record and either fully succeeds or leaves no
// trace; serialization of concurrent calls on the same session is the hosting
// environment's responsibility.
type Service struct {
	store    Store
	hub      Hub
	verifier ProofVerifier
	deckSize uint32
	gameID   string
	log      zerolog.Logger
}

// NewService wires the state machine to its collaborators. A zero DeckSize
// falls back to the default grid.
func NewService(store Store, hub Hub, verifier ProofVerifier, cfg Config, log zerolog.Logger) (*Service, error) {
	if store == nil || hub == nil || verifier == nil {
		return nil, fmt.Errorf("store, hub and verifier are all required")
	}
	if cfg.DeckSize == 0 {
		cfg.DeckSize = DefaultDeckSize
	}
	if cfg.DeckSize%2 != 0 {
		return nil, fmt.Errorf("deck size must be even, got %d", cfg.DeckSize)
	}
	return &Service{
		store:    store,
		hub:      hub,
		verifier: verifier,
		deckSize: cfg.DeckSize,
		gameID:   cfg.GameID,
		log:      log,
	}, nil
}

// StartGameParams carries everything needed to open a session.
type StartGameParams struct {
	SessionID  uint32
	Player1    string
	Player2    string
	Stake1     *big.Int
	Stake2     *big.Int
	Commitment [32]byte
}

// StartGame opens a session: it locks both stakes through the hub, then
// persists the initial state. Hub failure means no session is created; the
// two steps succeed or fail together.
func (s *Service) StartGame(ctx context.Context, p StartGameParams) (*Session, error) {
	if p.Player1 == p.Player2 {
		return nil, ErrSelfPlay
	}

	if _, err := s.store.Get(ctx, p.SessionID); err == nil {
		return nil, ErrGameExists
	} else if !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("lookup session %d: %w", p.SessionID, err)
	}

	if err := s.hub.StartGame(ctx, s.gameID, p.SessionID, p.Player1, p.Player2, p.Stake1, p.Stake2); err != nil {
		return nil, fmt.Errorf("hub start_game: %w", err)
	}

	session := &Session{
		ID:          p.SessionID,
		Player1:     p.Player1,
		Player2:     p.Player2,
		Stake1:      p.Stake1,
		Stake2:      p.Stake2,
		Commitment:  p.Commitment,
		Cards:       make([]CardState, s.deckSize),
		CurrentTurn: p.Player1,
		Active:      true,
	}
	if err := s.store.Put(ctx, session); err != nil {
		return nil, fmt.Errorf("persist session %d: %w", p.SessionID, err)
	}

	s.log.Info().
		Uint32("session_id", p.SessionID).
		Str("player1", p.Player1).
		Str("player2", p.Player2).
		Msg("game started")
	return session.Clone(), nil
}

// FlipCardParams carries one flip submission. PublicInputs is the proof's
// public vector in wire order [position, commitment, value].
type FlipCardParams struct {
	SessionID     uint32
	Player        string
	Position      uint32
	RevealedValue uint8
	Proof         []byte
	PublicInputs  [][32]byte
}

// FlipCard validates and applies one card flip. The precondition ladder runs
// in order: session exists, session active, caller registered, caller's turn,
// position in range, card still face down, proof valid and consistent with
// session state. Only then does game logic run; any failure leaves the
// persisted session untouched.
func (s *Service) FlipCard(ctx context.Context, p FlipCardParams) (*Session, error) {
	session, err := s.store.Get(ctx, p.SessionID)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrGameNotFound
	} else if err != nil {
		return nil, fmt.Errorf("lookup session %d: %w", p.SessionID, err)
	}

	if !session.Active {
		return nil, ErrGameNotActive
	}
	if !session.IsPlayer(p.Player) {
		return nil, ErrNotPlayer
	}
	if p.Player != session.CurrentTurn {
		return nil, ErrNotYourTurn
	}
	if p.Position >= uint32(len(session.Cards)) {
		return nil, ErrInvalidPosition
	}
	if session.Cards[p.Position] == Matched {
		return nil, ErrCardAlreadyMatched
	}

	if err := s.verifyReveal(ctx, session, p); err != nil {
		return nil, err
	}

	if session.Pending == nil {
		// First flip of the turn: pend it, no match evaluation, turn stays.
		session.Pending = &PendingFlip{Position: p.Position, Value: p.RevealedValue}
	} else {
		first := *session.Pending
		if first.Value == p.RevealedValue && first.Position != p.Position {
			// Match. Same value at the same position does not count.
			session.Cards[first.Position] = Matched
			session.Cards[p.Position] = Matched
			session.PairsFound++
			if session.CurrentTurn == session.Player1 {
				session.Score1++
			} else {
				session.Score2++
			}
			// The matcher keeps the turn.
		} else {
			session.CurrentTurn = session.opponent(session.CurrentTurn)
		}
		session.Pending = nil
	}

	if session.PairsFound == session.TotalPairs() {
		session.Active = false
		if err := s.hub.EndGame(ctx, session.ID, session.Player1Won()); err != nil {
			// The flip fails as a whole; the stored session is unchanged and
			// the caller may resubmit.
			return nil, fmt.Errorf("hub end_game: %w", err)
		}
		s.log.Info().
			Uint32("session_id", session.ID).
			Uint32("score1", session.Score1).
			Uint32("score2", session.Score2).
			Bool("player1_won", session.Player1Won()).
			Msg("game finished")
	}

	if err := s.store.Put(ctx, session); err != nil {
		return nil, fmt.Errorf("persist session %d: %w", session.ID, err)
	}

	s.log.Debug().
		Uint32("session_id", session.ID).
		Str("player", p.Player).
		Uint32("position", p.Position).
		Uint8("value", p.RevealedValue).
		Msg("card flipped")
	return session.Clone(), nil
}

// verifyReveal cross-checks the proof's claimed public inputs against the
// flip request and the session, then hands the proof to the gateway. A proof
// that verifies cryptographically but claims a different position, value or
// commitment than the session expects is rejected the same as a forged one.
func (s *Service) verifyReveal(ctx context.Context, session *Session, p FlipCardParams) error {
	if len(p.PublicInputs) != PublicInputCount {
		return fmt.Errorf("%w: expected %d public inputs, got %d", ErrInvalidProof, PublicInputCount, len(p.PublicInputs))
	}

	claimedPosition := fieldWord(uint64(p.Position))
	if p.PublicInputs[PublicPosition] != claimedPosition {
		return fmt.Errorf("%w: position public input does not match flip", ErrInvalidProof)
	}
	if p.PublicInputs[PublicCommitment] != session.Commitment {
		return fmt.Errorf("%w: commitment does not match session", ErrInvalidProof)
	}
	claimedValue := fieldWord(uint64(p.RevealedValue))
	if p.PublicInputs[PublicValue] != claimedValue {
		return fmt.Errorf("%w: value public input does not match flip", ErrInvalidProof)
	}

	if err := s.verifier.VerifyReveal(ctx, p.Proof, p.PublicInputs); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidProof, err)
	}
	return nil
}

// GetGame returns a read-only copy of the session. Sessions past their
// retention horizon are indistinguishable from sessions that never existed.
func (s *Service) GetGame(ctx context.Context, sessionID uint32) (*Session, error) {
	session, err := s.store.Get(ctx, sessionID)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrGameNotFound
	} else if err != nil {
		return nil, fmt.Errorf("lookup session %d: %w", sessionID, err)
	}
	return session.Clone(), nil
}

// fieldWord is the 32-byte big-endian encoding of a small integer, matching
// how the prover packs public field elements.
func fieldWord(v uint64) (out [32]byte) {
	new(big.Int).SetUint64(v).FillBytes(out[:])
	return out
}
