package game

import "errors"

// Rejection reasons for session operations. All are synchronous, non-retryable
// and leave session state untouched; callers resubmit with corrected inputs.
var (
	ErrGameNotFound       = errors.New("game not found")
	ErrGameNotActive      = errors.New("game is no longer active")
	ErrNotPlayer          = errors.New("caller is not a player in this game")
	ErrNotYourTurn        = errors.New("not your turn")
	ErrInvalidPosition    = errors.New("position outside the grid")
	ErrCardAlreadyMatched = errors.New("card already matched")
	ErrInvalidProof       = errors.New("invalid reveal proof")
	ErrSelfPlay           = errors.New("players must be different")
	ErrGameExists         = errors.New("session id already in use")
)
