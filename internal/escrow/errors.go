package escrow

import "errors"

// Guard violations. Every failed operation returns exactly one of these
// so callers can tell a retryable condition (wrong state) from one that
// can never succeed (bad parameters).
var (
	// ErrUnauthorized is returned when the caller lacks the required role.
	ErrUnauthorized = errors.New("caller is not authorized")
	// ErrInvalidParameters is returned for malformed construction input.
	ErrInvalidParameters = errors.New("invalid game parameters")
	// ErrInvalidState is returned when the operation is not valid for the
	// game's current lifecycle state.
	ErrInvalidState = errors.New("operation not valid in current game state")
	// ErrInvalidPayment is returned when the attached payment does not
	// equal the entry fee exactly.
	ErrInvalidPayment = errors.New("payment does not match entry fee")
	// ErrAlreadyJoined is returned on a second join by the same identity.
	ErrAlreadyJoined = errors.New("player already joined this game")
	// ErrGameFull is returned when the game already holds maxPlayers.
	ErrGameFull = errors.New("game is full")
	// ErrMinPlayersNotMet is returned when a start is attempted below the
	// minimum player count.
	ErrMinPlayersNotMet = errors.New("minimum player count not reached")
	// ErrInvalidWinner is returned when the declared winner never joined.
	ErrInvalidWinner = errors.New("winner is not a joined player")
	// ErrGameNotFound is returned for an unknown game id.
	ErrGameNotFound = errors.New("game not found")
)
