package game

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type hubStartCall struct {
	gameID           string
	sessionID        uint32
	player1, player2 string
	stake1, stake2   *big.Int
}

type hubEndCall struct {
	sessionID  uint32
	player1Won bool
}

// fakeHub records ledger calls and can be told to fail.
type fakeHub struct {
	startErr error
	endErr   error
	starts   []hubStartCall
	ends     []hubEndCall
}

func (h *fakeHub) StartGame(_ context.Context, gameID string, sessionID uint32, player1, player2 string, stake1, stake2 *big.Int) error {
	if h.startErr != nil {
		return h.startErr
	}
	h.starts = append(h.starts, hubStartCall{gameID, sessionID, player1, player2, stake1, stake2})
	return nil
}

func (h *fakeHub) EndGame(_ context.Context, sessionID uint32, player1Won bool) error {
	if h.endErr != nil {
		return h.endErr
	}
	h.ends = append(h.ends, hubEndCall{sessionID, player1Won})
	return nil
}

// fakeVerifier accepts every proof unless told otherwise, and counts calls.
type fakeVerifier struct {
	err   error
	calls int
}

func (v *fakeVerifier) VerifyReveal(_ context.Context, _ []byte, _ [][32]byte) error {
	v.calls++
	return v.err
}

var testCommitment = func() (c [32]byte) {
	for i := range c {
		c[i] = byte(i)
	}
	return c
}()

func newTestService(t *testing.T, hub *fakeHub, verifier *fakeVerifier) (*Service, *MemStore) {
	t.Helper()
	store := NewMemStore(0)
	svc, err := NewService(store, hub, verifier, Config{DeckSize: 4, GameID: "zk-memory"}, zerolog.Nop())
	require.NoError(t, err)
	return svc, store
}

func startTestGame(t *testing.T, svc *Service) *Session {
	t.Helper()
	session, err := svc.StartGame(context.Background(), StartGameParams{
		SessionID:  1,
		Player1:    "alice",
		Player2:    "bob",
		Stake1:     big.NewInt(100),
		Stake2:     big.NewInt(100),
		Commitment: testCommitment,
	})
	require.NoError(t, err)
	return session
}

func flip(svc *Service, player string, position uint32, value uint8) (*Session, error) {
	return svc.FlipCard(context.Background(), FlipCardParams{
		SessionID:     1,
		Player:        player,
		Position:      position,
		RevealedValue: value,
		Proof:         []byte("proof"),
		PublicInputs:  [][32]byte{fieldWord(uint64(position)), testCommitment, fieldWord(uint64(value))},
	})
}

func TestStartGame(t *testing.T) {
	hub := &fakeHub{}
	svc, _ := newTestService(t, hub, &fakeVerifier{})

	session := startTestGame(t, svc)

	require.Equal(t, "alice", session.CurrentTurn)
	require.Equal(t, testCommitment, session.Commitment)
	require.Equal(t, []CardState{FaceDown, FaceDown, FaceDown, FaceDown}, session.Cards)
	require.Nil(t, session.Pending)
	require.True(t, session.Active)
	require.Zero(t, session.Score1)
	require.Zero(t, session.Score2)

	require.Len(t, hub.starts, 1)
	require.Equal(t, hubStartCall{"zk-memory", 1, "alice", "bob", big.NewInt(100), big.NewInt(100)}, hub.starts[0])
}

func TestStartGameSelfPlay(t *testing.T) {
	hub := &fakeHub{}
	svc, _ := newTestService(t, hub, &fakeVerifier{})

	_, err := svc.StartGame(context.Background(), StartGameParams{
		SessionID: 1,
		Player1:   "alice",
		Player2:   "alice",
	})
	require.ErrorIs(t, err, ErrSelfPlay)
	require.Empty(t, hub.starts, "hub must not be called for a rejected setup")
}

func TestStartGameDuplicateSession(t *testing.T) {
	hub := &fakeHub{}
	svc, _ := newTestService(t, hub, &fakeVerifier{})
	startTestGame(t, svc)

	_, err := svc.StartGame(context.Background(), StartGameParams{
		SessionID: 1,
		Player1:   "carol",
		Player2:   "dave",
	})
	require.ErrorIs(t, err, ErrGameExists)
	require.Len(t, hub.starts, 1)
}

func TestStartGameHubFailureCreatesNothing(t *testing.T) {
	hub := &fakeHub{startErr: errors.New("escrow rejected")}
	svc, store := newTestService(t, hub, &fakeVerifier{})

	_, err := svc.StartGame(context.Background(), StartGameParams{
		SessionID: 1,
		Player1:   "alice",
		Player2:   "bob",
	})
	require.Error(t, err)

	_, err = store.Get(context.Background(), 1)
	require.ErrorIs(t, err, ErrNotFound, "session must not exist after a failed hub call")
}

// TestFullGame plays the reference scenario: deck [0,1,0,1], player one finds
// both pairs and wins 2-0.
func TestFullGame(t *testing.T) {
	hub := &fakeHub{}
	svc, _ := newTestService(t, hub, &fakeVerifier{})
	startTestGame(t, svc)

	session, err := flip(svc, "alice", 1, 1)
	require.NoError(t, err)
	require.Equal(t, &PendingFlip{Position: 1, Value: 1}, session.Pending)
	require.Equal(t, "alice", session.CurrentTurn, "first flip never changes the turn")

	session, err = flip(svc, "alice", 3, 1)
	require.NoError(t, err)
	require.Nil(t, session.Pending)
	require.Equal(t, Matched, session.Cards[1])
	require.Equal(t, Matched, session.Cards[3])
	require.Equal(t, uint32(1), session.Score1)
	require.Equal(t, uint32(1), session.PairsFound)
	require.Equal(t, "alice", session.CurrentTurn, "a match retains the turn")
	require.True(t, session.Active)
	require.Empty(t, hub.ends)

	session, err = flip(svc, "alice", 0, 0)
	require.NoError(t, err)
	require.Equal(t, &PendingFlip{Position: 0, Value: 0}, session.Pending)

	session, err = flip(svc, "alice", 2, 0)
	require.NoError(t, err)
	require.False(t, session.Active)
	require.Equal(t, uint32(2), session.Score1)
	require.Equal(t, uint32(2), session.PairsFound)
	require.Equal(t, session.Score1+session.Score2, session.PairsFound)

	require.Equal(t, []hubEndCall{{sessionID: 1, player1Won: true}}, hub.ends)

	// Finished sessions are read-only.
	_, err = flip(svc, "alice", 0, 0)
	require.ErrorIs(t, err, ErrGameNotActive)
	require.Len(t, hub.ends, 1, "end_game fires exactly once")
}

func TestNoMatchPassesTurn(t *testing.T) {
	svc, _ := newTestService(t, &fakeHub{}, &fakeVerifier{})
	startTestGame(t, svc)

	_, err := flip(svc, "alice", 0, 0)
	require.NoError(t, err)

	session, err := flip(svc, "alice", 1, 1)
	require.NoError(t, err)
	require.Nil(t, session.Pending)
	require.Equal(t, "bob", session.CurrentTurn)
	require.Equal(t, []CardState{FaceDown, FaceDown, FaceDown, FaceDown}, session.Cards)
	require.Zero(t, session.PairsFound)
}

func TestSamePositionTwiceIsNotAMatch(t *testing.T) {
	svc, _ := newTestService(t, &fakeHub{}, &fakeVerifier{})
	startTestGame(t, svc)

	_, err := flip(svc, "alice", 0, 0)
	require.NoError(t, err)

	// Equal values but the same position: degenerate, must not match.
	session, err := flip(svc, "alice", 0, 0)
	require.NoError(t, err)
	require.Equal(t, FaceDown, session.Cards[0])
	require.Zero(t, session.PairsFound)
	require.Equal(t, "bob", session.CurrentTurn)
	require.Nil(t, session.Pending)
}

func TestFlipPreconditionLadder(t *testing.T) {
	svc, _ := newTestService(t, &fakeHub{}, &fakeVerifier{})

	_, err := flip(svc, "alice", 0, 0)
	require.ErrorIs(t, err, ErrGameNotFound)

	startTestGame(t, svc)

	_, err = flip(svc, "mallory", 0, 0)
	require.ErrorIs(t, err, ErrNotPlayer)

	_, err = flip(svc, "bob", 0, 0)
	require.ErrorIs(t, err, ErrNotYourTurn)

	_, err = flip(svc, "alice", 4, 0)
	require.ErrorIs(t, err, ErrInvalidPosition)

	// Match cards 1 and 3, then try to flip a matched card.
	_, err = flip(svc, "alice", 1, 1)
	require.NoError(t, err)
	_, err = flip(svc, "alice", 3, 1)
	require.NoError(t, err)

	_, err = flip(svc, "alice", 1, 1)
	require.ErrorIs(t, err, ErrCardAlreadyMatched)
}

func TestRejectedFlipLeavesStateUnchanged(t *testing.T) {
	svc, _ := newTestService(t, &fakeHub{}, &fakeVerifier{})
	before := startTestGame(t, svc)

	_, err := flip(svc, "bob", 0, 0)
	require.ErrorIs(t, err, ErrNotYourTurn)

	after, err := svc.GetGame(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, before, after)
}

func TestInvalidProofRejected(t *testing.T) {
	verifier := &fakeVerifier{err: errors.New("pairing check failed")}
	svc, _ := newTestService(t, &fakeHub{}, verifier)
	startTestGame(t, svc)

	_, err := flip(svc, "alice", 0, 0)
	require.ErrorIs(t, err, ErrInvalidProof)

	session, err := svc.GetGame(context.Background(), 1)
	require.NoError(t, err)
	require.Nil(t, session.Pending, "a failed proof must not record a flip")
}

func TestCommitmentMismatchRejectedBeforeVerification(t *testing.T) {
	verifier := &fakeVerifier{}
	svc, _ := newTestService(t, &fakeHub{}, verifier)
	startTestGame(t, svc)

	var wrong [32]byte
	wrong[0] = 0xff
	_, err := svc.FlipCard(context.Background(), FlipCardParams{
		SessionID:     1,
		Player:        "alice",
		Position:      0,
		RevealedValue: 0,
		Proof:         []byte("proof"),
		PublicInputs:  [][32]byte{fieldWord(0), wrong, fieldWord(0)},
	})
	require.ErrorIs(t, err, ErrInvalidProof)
	require.Zero(t, verifier.calls, "a cryptographically valid proof for the wrong commitment never reaches the gateway")
}

func TestPublicInputMismatchesRejected(t *testing.T) {
	svc, _ := newTestService(t, &fakeHub{}, &fakeVerifier{})
	startTestGame(t, svc)

	cases := map[string][][32]byte{
		"wrong cardinality": {fieldWord(0), testCommitment},
		"position mismatch": {fieldWord(2), testCommitment, fieldWord(0)},
		"value mismatch":    {fieldWord(0), testCommitment, fieldWord(1)},
	}
	for name, publics := range cases {
		_, err := svc.FlipCard(context.Background(), FlipCardParams{
			SessionID:     1,
			Player:        "alice",
			Position:      0,
			RevealedValue: 0,
			Proof:         []byte("proof"),
			PublicInputs:  publics,
		})
		require.ErrorIs(t, err, ErrInvalidProof, name)
	}
}

// TestTieReportsPlayerTwo pins the inherited tie-break: a 1-1 draw is handed
// to the ledger as a player-two result.
func TestTieReportsPlayerTwo(t *testing.T) {
	hub := &fakeHub{}
	svc, _ := newTestService(t, hub, &fakeVerifier{})
	startTestGame(t, svc)

	// alice matches 0 and 2, keeps the turn.
	_, err := flip(svc, "alice", 0, 0)
	require.NoError(t, err)
	_, err = flip(svc, "alice", 2, 0)
	require.NoError(t, err)

	// alice burns the turn on a degenerate double flip.
	_, err = flip(svc, "alice", 1, 1)
	require.NoError(t, err)
	_, err = flip(svc, "alice", 1, 1)
	require.NoError(t, err)

	// bob matches 1 and 3: 1-1, game over.
	_, err = flip(svc, "bob", 1, 1)
	require.NoError(t, err)
	session, err := flip(svc, "bob", 3, 1)
	require.NoError(t, err)

	require.False(t, session.Active)
	require.Equal(t, uint32(1), session.Score1)
	require.Equal(t, uint32(1), session.Score2)
	require.Equal(t, []hubEndCall{{sessionID: 1, player1Won: false}}, hub.ends)
}

func TestEndGameHubFailureAbortsFlip(t *testing.T) {
	hub := &fakeHub{}
	svc, _ := newTestService(t, hub, &fakeVerifier{})
	startTestGame(t, svc)

	for _, f := range []struct {
		position uint32
		value    uint8
	}{{1, 1}, {3, 1}, {0, 0}} {
		_, err := flip(svc, "alice", f.position, f.value)
		require.NoError(t, err)
	}

	hub.endErr = errors.New("hub unavailable")
	_, err := flip(svc, "alice", 2, 0)
	require.Error(t, err)

	// The stored session is untouched: still active, final pair unresolved.
	session, err := svc.GetGame(context.Background(), 1)
	require.NoError(t, err)
	require.True(t, session.Active)
	require.Equal(t, uint32(1), session.PairsFound)
	require.NotNil(t, session.Pending)

	// Once the hub recovers, resubmitting the same flip finishes the game.
	hub.endErr = nil
	session, err = flip(svc, "alice", 2, 0)
	require.NoError(t, err)
	require.False(t, session.Active)
	require.Len(t, hub.ends, 1)
}

func TestGetGame(t *testing.T) {
	svc, _ := newTestService(t, &fakeHub{}, &fakeVerifier{})

	_, err := svc.GetGame(context.Background(), 9)
	require.ErrorIs(t, err, ErrGameNotFound)

	startTestGame(t, svc)
	session, err := svc.GetGame(context.Background(), 1)
	require.NoError(t, err)

	// Projections are copies; mutating one must not leak into storage.
	session.Cards[0] = Matched
	again, err := svc.GetGame(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, FaceDown, again.Cards[0])
}

func TestMatchedCardsNeverRevert(t *testing.T) {
	svc, _ := newTestService(t, &fakeHub{}, &fakeVerifier{})
	startTestGame(t, svc)

	_, err := flip(svc, "alice", 1, 1)
	require.NoError(t, err)
	_, err = flip(svc, "alice", 3, 1)
	require.NoError(t, err)

	// A later non-matching turn must not disturb matched cards.
	_, err = flip(svc, "alice", 0, 0)
	require.NoError(t, err)
	session, err := flip(svc, "alice", 0, 0)
	require.NoError(t, err)
	require.Equal(t, Matched, session.Cards[1])
	require.Equal(t, Matched, session.Cards[3])
}
