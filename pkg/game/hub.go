package game

import (
	"context"
	"math/big"
)

// Hub is the external points-escrow and ranking ledger ("GameHub"). Both calls
// block inside the state machine: a failure aborts the enclosing operation and
// no local state is committed. The hub's own validation rules (e.g. rejecting
// non-positive stakes) are its contract, not this package's.
type Hub interface {
	// StartGame locks both players' stakes for the session.
	StartGame(ctx context.Context, gameID string, sessionID uint32, player1, player2 string, stake1, stake2 *big.Int) error

	// EndGame settles the session. player1Won false covers both a player-two
	// win and a draw.
	EndGame(ctx context.Context, sessionID uint32, player1Won bool) error
}
