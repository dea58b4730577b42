// Package game owns the memory-game session state machine.
//
// A session is created with a deck commitment fixed before play, then mutated
// exclusively by verified card flips until every pair is found. Storage, the
// points ledger and proof verification are injected capabilities; the state
// machine itself only decides whether a flip is allowed and what it does to
// the session.
package game

import "math/big"

// CardState tracks one grid position. Cards only ever move FaceDown -> Matched.
type CardState uint8

const (
	FaceDown CardState = iota
	Matched
)

// PendingFlip is the first flip of a turn, held until the second flip resolves
// the turn. Cleared unconditionally when the turn resolves.
type PendingFlip struct {
	Position uint32
	Value    uint8
}

// Session is one two-player game. It is owned by the Service; nothing else
// mutates it. The commitment never changes after creation.
type Session struct {
	ID       uint32
	Player1  string
	Player2  string
	Stake1   *big.Int // escrowed points, i128 on the wire
	Stake2   *big.Int

	Commitment [32]byte

	Cards       []CardState
	Score1      uint32 // pairs found by player 1
	Score2      uint32
	CurrentTurn string
	Pending     *PendingFlip
	PairsFound  uint32
	Active      bool
}

// IsPlayer reports whether id is one of the two registered players.
func (s *Session) IsPlayer(id string) bool {
	return id == s.Player1 || id == s.Player2
}

// TotalPairs is the number of pairs the deck holds.
func (s *Session) TotalPairs() uint32 {
	return uint32(len(s.Cards)) / 2
}

// Player1Won reports the game outcome as handed to the ledger. A strictly
// greater score wins; on a tie this reports false, i.e. a draw is recorded as
// a player-two result. That tie-break is inherited from the reference rules
// and pinned by tests.
func (s *Session) Player1Won() bool {
	return s.Score1 > s.Score2
}

func (s *Session) opponent(id string) string {
	if id == s.Player1 {
		return s.Player2
	}
	return s.Player1
}

// Clone returns a deep copy. Stores hand out and accept copies so callers can
// never mutate persisted state in place.
func (s *Session) Clone() *Session {
	c := *s
	c.Cards = make([]CardState, len(s.Cards))
	copy(c.Cards, s.Cards)
	if s.Pending != nil {
		pending := *s.Pending
		c.Pending = &pending
	}
	if s.Stake1 != nil {
		c.Stake1 = new(big.Int).Set(s.Stake1)
	}
	if s.Stake2 != nil {
		c.Stake2 = new(big.Int).Set(s.Stake2)
	}
	return &c
}
