package game

import "context"

// PublicInputCount is the fixed cardinality of a reveal proof's public-input
// vector: [position, commitment, value]. Any other count is a protocol
// violation.
const PublicInputCount = 3

// Positional layout of the public-input vector.
const (
	PublicPosition = iota
	PublicCommitment
	PublicValue
)

// ProofVerifier answers the purely cryptographic question of whether a proof
// attests to its claimed public inputs. It knows nothing about sessions: the
// Service cross-checks the claimed inputs against stored session state before
// trusting them (see Service.FlipCard).
type ProofVerifier interface {
	VerifyReveal(ctx context.Context, proof []byte, publicInputs [][32]byte) error
}
