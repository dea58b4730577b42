// Package commitment binds a private deck and salt to a public 32-byte digest.
//
// The digest is a MiMC hash over BN254 field elements so the exact same
// computation can be re-done inside the reveal circuit. Commit here and the
// circuit's in-circuit hash MUST stay in lockstep: a session records this
// digest at creation, and every reveal proof is checked against it.
package commitment

import (
	"crypto/sha256"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr/mimc"
)

// Size is the digest length in bytes.
const Size = 32

// SaltScalar folds an arbitrary-length salt string into a single BN254 scalar.
// The SHA-256 pre-hash keeps the circuit input fixed-size regardless of how
// long the salt is; reduction modulo the scalar field is deterministic on both
// the native and the in-circuit side because the circuit receives the already
// reduced element as its witness.
func SaltScalar(salt string) *big.Int {
	digest := sha256.Sum256([]byte(salt))
	var e fr.Element
	e.SetBytes(digest[:])
	return e.BigInt(new(big.Int))
}

// Commit computes the deck commitment: MiMC(deck[0], ..., deck[n-1], salt),
// each card lifted to a field element. Deterministic, no side effects.
func Commit(deck []uint8, salt string) [Size]byte {
	h := mimc.NewMiMC()
	var e fr.Element
	for _, card := range deck {
		e.SetUint64(uint64(card))
		b := e.Bytes()
		h.Write(b[:])
	}
	e.SetBigInt(SaltScalar(salt))
	b := e.Bytes()
	h.Write(b[:])

	var out [Size]byte
	copy(out[:], h.Sum(nil))
	return out
}
