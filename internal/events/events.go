// Package events is the write-only observability side channel. The
// ledger emits an event after each committed state change for off-chain
// style indexing; nothing in the core ever reads one back.
package events

import (
	"github.com/rs/zerolog"

	"gamepass/internal/model"
)

// Emitter receives one call per committed ledger operation.
type Emitter interface {
	GameCreated(g *model.Game)
	PlayerJoined(gameID, player, payment int64, pool int64)
	GameStarted(gameID int64)
	GameCancelled(gameID int64, refunded int64)
	GameSettled(gameID, winner, payout, fee int64, resultHash model.ResultHash)
	TicketSold(ticketID, classID, owner, price int64)
	TicketRefunded(ticketID, owner, amount int64)
}

// LogEmitter writes events as structured zerolog records.
type LogEmitter struct {
	log zerolog.Logger
}

// NewLogEmitter creates an Emitter backed by the given logger.
func NewLogEmitter(log zerolog.Logger) *LogEmitter {
	return &LogEmitter{log: log}
}

func (e *LogEmitter) GameCreated(g *model.Game) {
	e.log.Info().
		Str("event", "game_created").
		Int64("game_id", g.ID).
		Int64("creator", g.Creator).
		Uint32("min_players", g.MinPlayers).
		Uint32("max_players", g.MaxPlayers).
		Int64("entry_fee", g.EntryFee).
		Msg("Game created")
}

func (e *LogEmitter) PlayerJoined(gameID, player, payment, pool int64) {
	e.log.Info().
		Str("event", "player_joined").
		Int64("game_id", gameID).
		Int64("player", player).
		Int64("payment", payment).
		Int64("pool", pool).
		Msg("Player joined")
}

func (e *LogEmitter) GameStarted(gameID int64) {
	e.log.Info().
		Str("event", "game_started").
		Int64("game_id", gameID).
		Msg("Game started")
}

func (e *LogEmitter) GameCancelled(gameID int64, refunded int64) {
	e.log.Info().
		Str("event", "game_cancelled").
		Int64("game_id", gameID).
		Int64("refunded", refunded).
		Msg("Game cancelled")
}

func (e *LogEmitter) GameSettled(gameID, winner, payout, fee int64, resultHash model.ResultHash) {
	e.log.Info().
		Str("event", "game_settled").
		Int64("game_id", gameID).
		Int64("winner", winner).
		Int64("payout", payout).
		Int64("fee", fee).
		Hex("result_hash", resultHash.Bytes()).
		Msg("Game settled")
}

func (e *LogEmitter) TicketSold(ticketID, classID, owner, price int64) {
	e.log.Info().
		Str("event", "ticket_sold").
		Int64("ticket_id", ticketID).
		Int64("class_id", classID).
		Int64("owner", owner).
		Int64("price", price).
		Msg("Ticket sold")
}

func (e *LogEmitter) TicketRefunded(ticketID, owner, amount int64) {
	e.log.Info().
		Str("event", "ticket_refunded").
		Int64("ticket_id", ticketID).
		Int64("owner", owner).
		Int64("amount", amount).
		Msg("Ticket refunded")
}

// Nop discards all events. Used in tests.
type Nop struct{}

func (Nop) GameCreated(*model.Game)                          {}
func (Nop) PlayerJoined(gameID, player, payment, pool int64) {}
func (Nop) GameStarted(gameID int64)                         {}
func (Nop) GameCancelled(gameID int64, refunded int64)       {}
func (Nop) GameSettled(_, _, _, _ int64, _ model.ResultHash) {}
func (Nop) TicketSold(ticketID, classID, owner, price int64) {}
func (Nop) TicketRefunded(ticketID, owner, amount int64)     {}
