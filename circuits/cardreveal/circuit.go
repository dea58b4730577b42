// Package cardreveal implements the card reveal circuit for the memory game.
//
// The prover holds the full deck and the salt; the verifier learns only that a
// single (position, value) pair is consistent with the deck commitment that was
// published before play. Everything else about the deck stays hidden.
//
// The circuit deliberately proves exactly three clauses:
//  1. position is a valid deck index
//  2. deck[position] equals the revealed value
//  3. MiMC(deck..., salt) equals the public commitment
//
// Turn order, match detection and scoring are NOT circuit concerns; they live
// in the session state machine where they are cheap to change and audit.
package cardreveal

import (
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/std/hash/mimc"
	"github.com/consensys/gnark/std/selector"
)

// DefaultDeckSize is the 2x2 grid the reference game plays on.
const DefaultDeckSize = 4

// Circuit proves that a revealed card value matches the committed deck.
//
// Public variables are declared first and in wire order: the verifier's
// public-input vector is [position, commitment, value], and the on-chain
// cross-check relies on that ordering.
type Circuit struct {
	// Public inputs
	Position   frontend.Variable `gnark:",public"`
	Commitment frontend.Variable `gnark:",public"`
	Value      frontend.Variable `gnark:",public"`

	// Secret witness: the full deck, one entry per grid position, and the
	// salt folded to a single field element (see commitment.SaltScalar).
	Deck []frontend.Variable
	Salt frontend.Variable
}

// NewCircuit allocates a circuit for the given deck size. The size is fixed at
// compile time; provers and verifiers must agree on it.
func NewCircuit(deckSize int) *Circuit {
	return &Circuit{Deck: make([]frontend.Variable, deckSize)}
}

func (c *Circuit) Define(api frontend.API) error {
	n := len(c.Deck)

	// Position must index into the deck. selector.Mux additionally forces the
	// one-hot decomposition of Position, so an out-of-range index makes the
	// constraint system unsatisfiable.
	api.AssertIsLessOrEqual(c.Position, n-1)
	revealed := selector.Mux(api, c.Position, c.Deck...)
	api.AssertIsEqual(revealed, c.Value)

	// Recompute the deck commitment in-circuit. Must match
	// commitment.Commit card for card.
	h, err := mimc.NewMiMC(api)
	if err != nil {
		return err
	}
	h.Write(c.Deck...)
	h.Write(c.Salt)
	api.AssertIsEqual(h.Sum(), c.Commitment)

	return nil
}
