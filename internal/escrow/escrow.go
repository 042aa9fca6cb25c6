// Package escrow implements the game lifecycle state machine: creation
// parameters, player admission, cancellation refunds and settlement of
// the pooled entry fees. All functions are pure over an in-memory game
// record; they either reject with a guard error and leave the record
// untouched, or apply the full effect. Persistence, locking and caller
// authorization live in the service layer.
package escrow

import (
	"time"

	"gamepass/internal/model"
)

// ValidateCreate checks game construction parameters.
// minPlayers must be at least 1 and maxPlayers at least minPlayers;
// a zero entry fee is allowed.
func ValidateCreate(minPlayers, maxPlayers uint32, entryFee int64) error {
	if minPlayers < 1 || maxPlayers < minPlayers || entryFee < 0 {
		return ErrInvalidParameters
	}
	return nil
}

// NewGame builds a fresh game record in Sale state with all counters at
// zero and winner/result hash at their sentinels. The id comes from the
// registry counter; callers validate parameters first.
func NewGame(id, creator int64, minPlayers, maxPlayers uint32, entryFee int64, now time.Time) *model.Game {
	return &model.Game{
		ID:         id,
		Creator:    creator,
		MinPlayers: minPlayers,
		MaxPlayers: maxPlayers,
		EntryFee:   entryFee,
		Status:     model.StatusSale,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// Join admits a player into a game in Sale state. The payment must equal
// the entry fee exactly; partial credit never happens. The join that
// brings the game to maxPlayers succeeds; the next one is rejected.
func Join(g *model.Game, player, payment int64) error {
	if g.Status != model.StatusSale {
		return ErrInvalidState
	}
	if payment != g.EntryFee {
		return ErrInvalidPayment
	}
	if g.HasPlayer(player) {
		return ErrAlreadyJoined
	}
	if g.PlayerCount >= g.MaxPlayers {
		return ErrGameFull
	}

	g.Players = append(g.Players, player)
	g.PlayerCount++
	g.Pool += g.EntryFee
	return nil
}

// Full reports whether the game reached its player capacity.
func Full(g *model.Game) bool {
	return g.PlayerCount == g.MaxPlayers
}

// Start freezes admission, moving the game from Sale to Active.
func Start(g *model.Game) error {
	if g.Status != model.StatusSale {
		return ErrInvalidState
	}
	if g.PlayerCount < g.MinPlayers {
		return ErrMinPlayersNotMet
	}
	g.Status = model.StatusActive
	return nil
}

// Refund is one cancellation repayment: a joined player gets back
// exactly the entry fee paid.
type Refund struct {
	Player int64
	Amount int64
}

// Cancel moves a Sale game to Cancelled and returns the refund for every
// joined player. The refunds sum to the pre-cancellation pool and the
// pool is zeroed; no fee is collected on this path.
func Cancel(g *model.Game) ([]Refund, error) {
	if g.Status != model.StatusSale {
		return nil, ErrInvalidState
	}

	refunds := make([]Refund, 0, len(g.Players))
	for _, p := range g.Players {
		refunds = append(refunds, Refund{Player: p, Amount: g.EntryFee})
	}
	g.Pool = 0
	g.Status = model.StatusCancelled
	return refunds, nil
}

// Settlement is the fund split produced by settling one game.
// WinnerPayout + CollectedFee equals the pool at the moment settlement
// began; funds are never created or destroyed.
type Settlement struct {
	Winner       int64
	WinnerPayout int64
	CollectedFee int64
}

// Settle moves an Active game to Finished: it computes the fee split,
// records winner and result commitment, and zeroes the pool. The winner
// must be a joined player.
func Settle(g *model.Game, winner int64, resultHash model.ResultHash, feePercentage int64) (Settlement, error) {
	if g.Status != model.StatusActive {
		return Settlement{}, ErrInvalidState
	}
	if winner == 0 || !g.HasPlayer(winner) {
		return Settlement{}, ErrInvalidWinner
	}

	payout, fee := SplitPool(g.Pool, feePercentage)
	g.Pool = 0
	g.CollectedFee = fee
	g.Winner = winner
	g.ResultHash = resultHash
	g.Status = model.StatusFinished
	return Settlement{Winner: winner, WinnerPayout: payout, CollectedFee: fee}, nil
}
