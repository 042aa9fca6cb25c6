package escrow

import (
	"errors"
	"testing"
	"time"

	"gamepass/internal/model"
)

func newSaleGame(t *testing.T, minPlayers, maxPlayers uint32, entryFee int64) *model.Game {
	t.Helper()
	if err := ValidateCreate(minPlayers, maxPlayers, entryFee); err != nil {
		t.Fatalf("ValidateCreate(%d, %d, %d) = %v", minPlayers, maxPlayers, entryFee, err)
	}
	return NewGame(0, 1, minPlayers, maxPlayers, entryFee, time.Now())
}

// TestValidateCreate tests the construction parameter guards.
func TestValidateCreate(t *testing.T) {
	tests := []struct {
		name       string
		minPlayers uint32
		maxPlayers uint32
		entryFee   int64
		wantErr    error
	}{
		{"valid", 2, 5, 10, nil},
		{"min equals max", 3, 3, 100, nil},
		{"zero entry fee allowed", 1, 2, 0, nil},
		{"zero min players", 0, 5, 10, ErrInvalidParameters},
		{"max below min", 5, 2, 10, ErrInvalidParameters},
		{"negative entry fee", 2, 5, -1, ErrInvalidParameters},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCreate(tt.minPlayers, tt.maxPlayers, tt.entryFee)
			if !errors.Is(err, tt.wantErr) && err != tt.wantErr {
				t.Errorf("ValidateCreate(%d, %d, %d) = %v, want %v",
					tt.minPlayers, tt.maxPlayers, tt.entryFee, err, tt.wantErr)
			}
		})
	}
}

// TestNewGame tests that a fresh game matches the initial snapshot:
// Sale status, zero counters, sentinel winner and result hash.
func TestNewGame(t *testing.T) {
	g := NewGame(7, 42, 2, 5, 10, time.Now())

	if g.ID != 7 || g.Creator != 42 {
		t.Errorf("NewGame id/creator = %d/%d, want 7/42", g.ID, g.Creator)
	}
	if g.Status != model.StatusSale {
		t.Errorf("new game status = %v, want sale", g.Status)
	}
	if g.Pool != 0 || g.PlayerCount != 0 || g.CollectedFee != 0 {
		t.Errorf("new game counters not zero: pool=%d players=%d fee=%d", g.Pool, g.PlayerCount, g.CollectedFee)
	}
	if g.Winner != 0 {
		t.Errorf("new game winner = %d, want sentinel 0", g.Winner)
	}
	if !g.ResultHash.IsZero() {
		t.Errorf("new game result hash = %x, want zero sentinel", g.ResultHash)
	}
}

// TestJoin tests the admission guards and effects.
func TestJoin(t *testing.T) {
	t.Run("pool tracks player count", func(t *testing.T) {
		g := newSaleGame(t, 2, 5, 10)
		for i, player := range []int64{101, 102, 103} {
			if err := Join(g, player, 10); err != nil {
				t.Fatalf("join %d: %v", player, err)
			}
			want := int64(i+1) * 10
			if g.Pool != want || g.PlayerCount != uint32(i+1) {
				t.Fatalf("after join %d: pool=%d players=%d, want pool=%d players=%d",
					i+1, g.Pool, g.PlayerCount, want, i+1)
			}
		}
	})

	t.Run("wrong payment rejected without credit", func(t *testing.T) {
		g := newSaleGame(t, 2, 5, 10)
		for _, payment := range []int64{0, 9, 11, 20} {
			if err := Join(g, 101, payment); !errors.Is(err, ErrInvalidPayment) {
				t.Errorf("Join with payment %d = %v, want ErrInvalidPayment", payment, err)
			}
		}
		if g.Pool != 0 || g.PlayerCount != 0 {
			t.Errorf("rejected joins mutated the game: pool=%d players=%d", g.Pool, g.PlayerCount)
		}
	})

	t.Run("double join rejected", func(t *testing.T) {
		g := newSaleGame(t, 2, 5, 10)
		if err := Join(g, 101, 10); err != nil {
			t.Fatalf("first join: %v", err)
		}
		if err := Join(g, 101, 10); !errors.Is(err, ErrAlreadyJoined) {
			t.Errorf("second join = %v, want ErrAlreadyJoined", err)
		}
		if g.Pool != 10 || g.PlayerCount != 1 {
			t.Errorf("double join mutated the game: pool=%d players=%d", g.Pool, g.PlayerCount)
		}
	})

	t.Run("filling join succeeds, next is rejected", func(t *testing.T) {
		g := newSaleGame(t, 1, 2, 10)
		if err := Join(g, 101, 10); err != nil {
			t.Fatalf("join 101: %v", err)
		}
		// This join transitions the game into "full"; it must succeed.
		if err := Join(g, 102, 10); err != nil {
			t.Fatalf("filling join: %v", err)
		}
		if !Full(g) {
			t.Fatal("game should be full after maxPlayers joins")
		}
		if err := Join(g, 103, 10); !errors.Is(err, ErrGameFull) {
			t.Errorf("join past capacity = %v, want ErrGameFull", err)
		}
		if g.PlayerCount != 2 || g.Pool != 20 {
			t.Errorf("overflow join mutated the game: pool=%d players=%d", g.Pool, g.PlayerCount)
		}
	})

	t.Run("join outside sale rejected", func(t *testing.T) {
		g := newSaleGame(t, 1, 3, 10)
		if err := Join(g, 101, 10); err != nil {
			t.Fatalf("join: %v", err)
		}
		if err := Start(g); err != nil {
			t.Fatalf("start: %v", err)
		}
		if err := Join(g, 102, 10); !errors.Is(err, ErrInvalidState) {
			t.Errorf("join on active game = %v, want ErrInvalidState", err)
		}
	})
}

// TestStart tests the Sale to Active transition guards.
func TestStart(t *testing.T) {
	t.Run("below minimum rejected", func(t *testing.T) {
		g := newSaleGame(t, 2, 5, 10)
		if err := Join(g, 101, 10); err != nil {
			t.Fatalf("join: %v", err)
		}
		if err := Start(g); !errors.Is(err, ErrMinPlayersNotMet) {
			t.Errorf("Start below minimum = %v, want ErrMinPlayersNotMet", err)
		}
		if g.Status != model.StatusSale {
			t.Errorf("rejected start changed status to %v", g.Status)
		}
	})

	t.Run("at minimum succeeds", func(t *testing.T) {
		g := newSaleGame(t, 2, 5, 10)
		for _, p := range []int64{101, 102} {
			if err := Join(g, p, 10); err != nil {
				t.Fatalf("join %d: %v", p, err)
			}
		}
		if err := Start(g); err != nil {
			t.Fatalf("start: %v", err)
		}
		if g.Status != model.StatusActive {
			t.Errorf("status after start = %v, want active", g.Status)
		}
		// Starting again must fail; the transition is not re-applicable.
		if err := Start(g); !errors.Is(err, ErrInvalidState) {
			t.Errorf("second start = %v, want ErrInvalidState", err)
		}
	})
}

// TestCancel tests the refund path.
func TestCancel(t *testing.T) {
	t.Run("refunds sum to the pool", func(t *testing.T) {
		g := newSaleGame(t, 2, 5, 10)
		players := []int64{101, 102, 103}
		for _, p := range players {
			if err := Join(g, p, 10); err != nil {
				t.Fatalf("join %d: %v", p, err)
			}
		}
		poolBefore := g.Pool

		refunds, err := Cancel(g)
		if err != nil {
			t.Fatalf("cancel: %v", err)
		}

		var total int64
		for i, r := range refunds {
			if r.Player != players[i] || r.Amount != 10 {
				t.Errorf("refund %d = {%d, %d}, want {%d, 10}", i, r.Player, r.Amount, players[i])
			}
			total += r.Amount
		}
		if total != poolBefore {
			t.Errorf("refund total = %d, want %d", total, poolBefore)
		}
		if g.Pool != 0 || g.Status != model.StatusCancelled {
			t.Errorf("after cancel: pool=%d status=%v, want 0/cancelled", g.Pool, g.Status)
		}
		if g.CollectedFee != 0 {
			t.Errorf("cancellation collected a fee: %d", g.CollectedFee)
		}
	})

	t.Run("terminal states reject cancel", func(t *testing.T) {
		g := newSaleGame(t, 1, 2, 10)
		if _, err := Cancel(g); err != nil {
			t.Fatalf("cancel: %v", err)
		}
		if _, err := Cancel(g); !errors.Is(err, ErrInvalidState) {
			t.Errorf("second cancel = %v, want ErrInvalidState", err)
		}
	})

	t.Run("active game cannot be cancelled", func(t *testing.T) {
		g := newSaleGame(t, 1, 2, 10)
		if err := Join(g, 101, 10); err != nil {
			t.Fatalf("join: %v", err)
		}
		if err := Start(g); err != nil {
			t.Fatalf("start: %v", err)
		}
		if _, err := Cancel(g); !errors.Is(err, ErrInvalidState) {
			t.Errorf("cancel of active game = %v, want ErrInvalidState", err)
		}
	})
}

// TestSettle tests the terminal payout transition.
func TestSettle(t *testing.T) {
	hash := model.ResultHash{1, 2, 3}

	t.Run("two joiners fee ten", func(t *testing.T) {
		g := newSaleGame(t, 2, 5, 10)
		for _, p := range []int64{101, 102} {
			if err := Join(g, p, 10); err != nil {
				t.Fatalf("join %d: %v", p, err)
			}
		}
		if err := Start(g); err != nil {
			t.Fatalf("start: %v", err)
		}

		s, err := Settle(g, 101, hash, 10)
		if err != nil {
			t.Fatalf("settle: %v", err)
		}
		if s.CollectedFee != 2 || s.WinnerPayout != 18 {
			t.Errorf("settlement = fee %d payout %d, want fee 2 payout 18", s.CollectedFee, s.WinnerPayout)
		}
		if g.Status != model.StatusFinished {
			t.Errorf("status = %v, want finished", g.Status)
		}
		if g.Pool != 0 || g.CollectedFee != 2 || g.Winner != 101 {
			t.Errorf("record after settle: pool=%d fee=%d winner=%d", g.Pool, g.CollectedFee, g.Winner)
		}
		if g.ResultHash != hash {
			t.Errorf("result hash = %x, want %x", g.ResultHash, hash)
		}
	})

	t.Run("settle before start rejected", func(t *testing.T) {
		g := newSaleGame(t, 2, 2, 10)
		if err := Join(g, 101, 10); err != nil {
			t.Fatalf("join: %v", err)
		}
		if _, err := Settle(g, 101, hash, 10); !errors.Is(err, ErrInvalidState) {
			t.Errorf("settle of sale game = %v, want ErrInvalidState", err)
		}
		if g.Status != model.StatusSale || g.Pool != 10 {
			t.Errorf("rejected settle mutated the game: status=%v pool=%d", g.Status, g.Pool)
		}
	})

	t.Run("winner must have joined", func(t *testing.T) {
		g := newSaleGame(t, 1, 3, 10)
		if err := Join(g, 101, 10); err != nil {
			t.Fatalf("join: %v", err)
		}
		if err := Start(g); err != nil {
			t.Fatalf("start: %v", err)
		}
		if _, err := Settle(g, 999, hash, 10); !errors.Is(err, ErrInvalidWinner) {
			t.Errorf("settle with outsider winner = %v, want ErrInvalidWinner", err)
		}
		if _, err := Settle(g, 0, hash, 10); !errors.Is(err, ErrInvalidWinner) {
			t.Errorf("settle with zero winner = %v, want ErrInvalidWinner", err)
		}
		if g.Status != model.StatusActive || g.Pool != 10 {
			t.Errorf("rejected settle mutated the game: status=%v pool=%d", g.Status, g.Pool)
		}
	})

	t.Run("settlement is not re-applicable", func(t *testing.T) {
		g := newSaleGame(t, 1, 2, 10)
		if err := Join(g, 101, 10); err != nil {
			t.Fatalf("join: %v", err)
		}
		if err := Start(g); err != nil {
			t.Fatalf("start: %v", err)
		}
		if _, err := Settle(g, 101, hash, 10); err != nil {
			t.Fatalf("settle: %v", err)
		}
		if _, err := Settle(g, 101, hash, 10); !errors.Is(err, ErrInvalidState) {
			t.Errorf("second settle = %v, want ErrInvalidState", err)
		}
	})

	t.Run("pool of 25 fee 10", func(t *testing.T) {
		// Odd pool exercises the floor: 25 * 10 / 100 = 2, payout 23.
		g := newSaleGame(t, 1, 5, 5)
		for _, p := range []int64{101, 102, 103, 104, 105} {
			if err := Join(g, p, 5); err != nil {
				t.Fatalf("join %d: %v", p, err)
			}
		}
		if err := Start(g); err != nil {
			t.Fatalf("start: %v", err)
		}
		s, err := Settle(g, 103, hash, 10)
		if err != nil {
			t.Fatalf("settle: %v", err)
		}
		if s.CollectedFee != 2 || s.WinnerPayout != 23 {
			t.Errorf("settlement = fee %d payout %d, want fee 2 payout 23", s.CollectedFee, s.WinnerPayout)
		}
		if s.CollectedFee+s.WinnerPayout != 25 {
			t.Errorf("settlement does not conserve the pool: %d + %d != 25", s.CollectedFee, s.WinnerPayout)
		}
	})
}
