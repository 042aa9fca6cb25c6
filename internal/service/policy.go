package service

import (
	"time"

	"gamepass/internal/model"
)

// LifecyclePolicy decides who may trigger the Sale->Active and
// Sale->Cancelled transitions and who may settle. Gating varies by
// deployment, so it lives in one swappable value instead of being
// baked into the state machine.
type LifecyclePolicy struct {
	// Oracles are account ids allowed to settle games besides the owner.
	Oracles []int64
	// AutoStartWhenFull starts a game as part of the join that fills it.
	AutoStartWhenFull bool
	// SaleWindow, when positive, lets anyone cancel a Sale game that has
	// not reached minPlayers once the window has elapsed since creation.
	SaleWindow time.Duration
	// FeeAccount receives the platform fee at settlement; falls back to
	// the registry owner when zero.
	FeeAccount int64
}

// CanStart reports whether caller may start the game.
func (p LifecyclePolicy) CanStart(caller, owner int64, g *model.Game) bool {
	return caller == owner || caller == g.Creator
}

// CanCancel reports whether caller may cancel the game. The expiry
// branch is evaluated against the now supplied by the caller; the
// ledger keeps no timers of its own.
func (p LifecyclePolicy) CanCancel(caller, owner int64, g *model.Game, now time.Time) bool {
	if caller == owner || caller == g.Creator {
		return true
	}
	if p.SaleWindow > 0 && g.PlayerCount < g.MinPlayers && now.Sub(g.CreatedAt) >= p.SaleWindow {
		return true
	}
	return false
}

// CanSettle reports whether caller may settle games.
func (p LifecyclePolicy) CanSettle(caller, owner int64) bool {
	if caller == owner {
		return true
	}
	for _, id := range p.Oracles {
		if id == caller {
			return true
		}
	}
	return false
}

// FeeAccountOr returns the account accruing platform fees.
func (p LifecyclePolicy) FeeAccountOr(owner int64) int64 {
	if p.FeeAccount != 0 {
		return p.FeeAccount
	}
	return owner
}
