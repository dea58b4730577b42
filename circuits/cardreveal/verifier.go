package cardreveal

import (
	"bytes"
	"context"
	"fmt"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/frontend"
)

// Verify checks a serialized reveal proof against the public tuple. It only
// answers the cryptographic question "does this proof attest to this tuple";
// comparing the tuple against session state is the state machine's job.
func Verify(keys *ProvingKeys, proofBytes []byte, position uint32, com [32]byte, value uint8) error {
	if keys == nil {
		return fmt.Errorf("proving keys are required")
	}

	assignment := NewCircuit(keys.DeckSize)
	assignment.Position = int(position)
	assignment.Commitment = new(big.Int).SetBytes(com[:])
	assignment.Value = int(value)

	pubWitness, err := frontend.NewWitness(assignment, ecc.BN254.ScalarField(), frontend.PublicOnly())
	if err != nil {
		return fmt.Errorf("public witness creation failed: %w", err)
	}

	proof := groth16.NewProof(ecc.BN254)
	if _, err := proof.ReadFrom(bytes.NewReader(proofBytes)); err != nil {
		return fmt.Errorf("proof deserialization failed: %w", err)
	}

	if err := groth16.Verify(proof, keys.VK, pubWitness); err != nil {
		return fmt.Errorf("proof verification failed: %w", err)
	}
	return nil
}

// Verifier adapts the Groth16 verifier to the game.ProofVerifier interface.
type Verifier struct {
	keys *ProvingKeys
}

// NewVerifier prepares a verifier for the given deck size.
func NewVerifier(deckSize int) (*Verifier, error) {
	keys, err := Setup(deckSize)
	if err != nil {
		return nil, err
	}
	return &Verifier{keys: keys}, nil
}

// VerifyReveal verifies a proof against its claimed public inputs, positionally
// [position, commitment, value]. Callers are expected to have already checked
// the input count and cross-checked the claimed values against their own state.
func (v *Verifier) VerifyReveal(_ context.Context, proof []byte, publicInputs [][32]byte) error {
	if len(publicInputs) != PublicInputCount {
		return fmt.Errorf("expected %d public inputs, got %d", PublicInputCount, len(publicInputs))
	}

	position, err := smallUint(publicInputs[PublicPosition], "position")
	if err != nil {
		return err
	}
	value, err := smallUint(publicInputs[PublicValue], "value")
	if err != nil {
		return err
	}
	if value > 0xff {
		return fmt.Errorf("value %d does not fit a card", value)
	}

	return Verify(v.keys, proof, uint32(position), publicInputs[PublicCommitment], uint8(value))
}

func smallUint(b [32]byte, name string) (uint32, error) {
	v := new(big.Int).SetBytes(b[:])
	if !v.IsUint64() || v.Uint64() > 1<<31 {
		return 0, fmt.Errorf("%s public input out of range", name)
	}
	return uint32(v.Uint64()), nil
}
