// Package model defines the data models for the GamePass escrow ledger.
package model

import "time"

// GameStatus is the lifecycle state of a game.
// The numeric values are part of the persisted representation and of the
// public snapshot; Sale is the initial state.
type GameStatus int

const (
	StatusSale      GameStatus = 0 // accepting joins
	StatusActive    GameStatus = 1 // admission frozen, awaiting settlement
	StatusFinished  GameStatus = 2 // terminal: settled, pool paid out
	StatusCancelled GameStatus = 3 // terminal: refunded
)

// String returns the status name for logs and CLI output.
func (s GameStatus) String() string {
	switch s {
	case StatusSale:
		return "sale"
	case StatusActive:
		return "active"
	case StatusFinished:
		return "finished"
	case StatusCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transitions are possible.
func (s GameStatus) Terminal() bool {
	return s == StatusFinished || s == StatusCancelled
}

// HashSize is the byte length of a result commitment.
const HashSize = 32

// ResultHash is an opaque fixed-size commitment to the off-chain outcome
// of a game. The ledger never computes or interprets it; it is recorded
// verbatim at settlement. The zero value is the "unset" sentinel.
type ResultHash [HashSize]byte

// IsZero reports whether the hash is the unset sentinel.
func (h ResultHash) IsZero() bool {
	return h == ResultHash{}
}

// Bytes returns the hash as a byte slice for persistence.
func (h ResultHash) Bytes() []byte {
	b := make([]byte, HashSize)
	copy(b, h[:])
	return b
}

// ResultHashFromBytes builds a ResultHash from persisted bytes.
// Short or nil input yields the zero sentinel padded with zeroes.
func ResultHashFromBytes(b []byte) ResultHash {
	var h ResultHash
	copy(h[:], b)
	return h
}

// Game is one escrow game record. Creator, min/max players and entry fee
// are immutable after creation; pool, status, player count, winner,
// result hash and collected fee mutate only through the lifecycle
// operations. Games are never deleted.
type Game struct {
	ID           int64      `db:"id"`
	Creator      int64      `db:"creator"`
	MinPlayers   uint32     `db:"min_players"`
	MaxPlayers   uint32     `db:"max_players"`
	EntryFee     int64      `db:"entry_fee"`
	Pool         int64      `db:"pool"`
	Status       GameStatus `db:"status"`
	PlayerCount  uint32     `db:"player_count"`
	Winner       int64      `db:"winner"`
	ResultHash   ResultHash `db:"result_hash"`
	CollectedFee int64      `db:"collected_fee"`
	CreatedAt    time.Time  `db:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at"`

	// Players is the set of joined account ids in join order.
	// Loaded from the game_players table alongside the row.
	Players []int64
}

// HasPlayer reports whether the account already joined this game.
func (g *Game) HasPlayer(accountID int64) bool {
	for _, p := range g.Players {
		if p == accountID {
			return true
		}
	}
	return false
}

// Registry is the process-wide singleton created at bootstrap. The owner
// and fee percentage are immutable; the counter advances by exactly one
// per successful game creation.
type Registry struct {
	Owner                 int64 `db:"owner"`
	PlatformFeePercentage int64 `db:"platform_fee_percentage"`
	GameIDCounter         int64 `db:"game_id_counter"`
}

// Account holds a funded identity. Identities are account ids; id 0 is
// reserved as the zero-identity sentinel and never gets an account.
type Account struct {
	ID        int64     `db:"id"`
	Balance   int64     `db:"balance"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// LedgerEntry records one fund movement. Amounts are signed: debits from
// an account are negative, credits positive.
type LedgerEntry struct {
	ID        int64     `db:"id"`
	AccountID int64     `db:"account_id"`
	Amount    int64     `db:"amount"`
	Kind      string    `db:"kind"`
	GameID    *int64    `db:"game_id"`
	CreatedAt time.Time `db:"created_at"`
}

// Ledger entry kinds for categorizing fund movements.
const (
	EntryJoin           = "join"            // entry fee debited into a game pool
	EntryRefund         = "refund"          // entry fee returned on cancellation
	EntryPayout         = "payout"          // winner payout at settlement
	EntryFee            = "fee"             // platform fee accrued at settlement
	EntryFund           = "fund"            // balance seeded by the funding tool
	EntryTicketPurchase = "ticket_purchase" // ticket catalog sale
	EntryTicketRefund   = "ticket_refund"   // ticket catalog refund
)

// TicketClass is one entry of the flat priced ticket catalog.
type TicketClass struct {
	ID    int64  `db:"id"`
	Name  string `db:"name"`
	Price int64  `db:"price"`
	Color string `db:"color"`
}

// Ticket is one sold ticket. Refunded tickets are kept with the flag set
// rather than deleted.
type Ticket struct {
	ID        int64     `db:"id"`
	ClassID   int64     `db:"class_id"`
	Owner     int64     `db:"owner"`
	Refunded  bool      `db:"refunded"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}
