package cardreveal

import (
	"bytes"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/constraint"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/r1cs"

	"github.com/flerk3n/SGS-ZK-gaming/pkg/commitment"
)

// PublicInputCount is the fixed number of public field elements a reveal proof
// carries: [position, commitment, value].
const PublicInputCount = 3

// Indices into the public-input vector.
const (
	PublicPosition = iota
	PublicCommitment
	PublicValue
)

// ProvingKeys holds the Groth16 artifacts for one deck size.
type ProvingKeys struct {
	PK       groth16.ProvingKey
	VK       groth16.VerifyingKey
	CCS      constraint.ConstraintSystem
	DeckSize int
}

var (
	keysMu     sync.Mutex
	cachedKeys = map[int]*ProvingKeys{}
)

// Setup compiles the circuit and runs the Groth16 setup for the given deck
// size. Results are cached per size; setup for the default 4-card grid takes
// well under a second.
func Setup(deckSize int) (*ProvingKeys, error) {
	if deckSize <= 0 || deckSize%2 != 0 {
		return nil, fmt.Errorf("deck size must be a positive even number, got %d", deckSize)
	}

	keysMu.Lock()
	defer keysMu.Unlock()

	if keys, ok := cachedKeys[deckSize]; ok {
		return keys, nil
	}

	ccs, err := frontend.Compile(ecc.BN254.ScalarField(), r1cs.NewBuilder, NewCircuit(deckSize))
	if err != nil {
		return nil, fmt.Errorf("card reveal circuit compilation failed: %w", err)
	}

	pk, vk, err := groth16.Setup(ccs)
	if err != nil {
		return nil, fmt.Errorf("groth16 setup failed: %w", err)
	}

	keys := &ProvingKeys{PK: pk, VK: vk, CCS: ccs, DeckSize: deckSize}
	cachedKeys[deckSize] = keys
	return keys, nil
}

// WitnessInput carries the values for one reveal proof.
type WitnessInput struct {
	// Secret witness
	Deck []uint8
	Salt string

	// Public inputs
	Position uint32
	Value    uint8
}

// ProverResult contains the proof artifact and proving metrics.
type ProverResult struct {
	Proof        []byte
	PublicInputs [][32]byte // [position, commitment, value] as field elements
	Commitment   [32]byte
	ProvingTime  time.Duration
	Constraints  int
}

// Prove generates a reveal proof. The commitment is recomputed from the deck
// and salt; a witness where deck[position] != value (or position is out of
// range) fails at constraint solving and never yields a proof.
func Prove(keys *ProvingKeys, input *WitnessInput) (*ProverResult, error) {
	start := time.Now()

	if keys == nil {
		var err error
		keys, err = Setup(len(input.Deck))
		if err != nil {
			return nil, err
		}
	}
	if len(input.Deck) != keys.DeckSize {
		return nil, fmt.Errorf("deck has %d cards, keys expect %d", len(input.Deck), keys.DeckSize)
	}

	com := commitment.Commit(input.Deck, input.Salt)

	assignment := NewCircuit(keys.DeckSize)
	assignment.Position = int(input.Position)
	assignment.Commitment = new(big.Int).SetBytes(com[:])
	assignment.Value = int(input.Value)
	for i, card := range input.Deck {
		assignment.Deck[i] = int(card)
	}
	assignment.Salt = commitment.SaltScalar(input.Salt)

	witness, err := frontend.NewWitness(assignment, ecc.BN254.ScalarField())
	if err != nil {
		return nil, fmt.Errorf("witness creation failed: %w", err)
	}

	proof, err := groth16.Prove(keys.CCS, keys.PK, witness)
	if err != nil {
		return nil, fmt.Errorf("proof generation failed: %w", err)
	}

	var buf bytes.Buffer
	if _, err := proof.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("proof serialization failed: %w", err)
	}

	return &ProverResult{
		Proof:        buf.Bytes(),
		PublicInputs: PackPublicInputs(input.Position, com, input.Value),
		Commitment:   com,
		ProvingTime:  time.Since(start),
		Constraints:  keys.CCS.GetNbConstraints(),
	}, nil
}

// PackPublicInputs encodes the public tuple as 32-byte big-endian field
// elements in wire order.
func PackPublicInputs(position uint32, com [32]byte, value uint8) [][32]byte {
	return [][32]byte{
		FieldElement(new(big.Int).SetUint64(uint64(position))),
		com,
		FieldElement(new(big.Int).SetUint64(uint64(value))),
	}
}

// FieldElement reduces v into the BN254 scalar field and returns its 32-byte
// big-endian encoding.
func FieldElement(v *big.Int) [32]byte {
	var e fr.Element
	e.SetBigInt(v)
	return e.Bytes()
}
