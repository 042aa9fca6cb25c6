// Package main is the entry point for the GamePass escrow ledger.
// Every invocation migrates the schema and bootstraps the registry
// before dispatching the requested operation, so a fresh database is
// usable with no separate setup step.
package main

import (
	"context"
	"encoding/hex"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"gamepass/internal/config"
	"gamepass/internal/escrow"
	"gamepass/internal/events"
	"gamepass/internal/model"
	"gamepass/internal/pkg/db"
	"gamepass/internal/pkg/lock"
	"gamepass/internal/repository"
	"gamepass/internal/service"
)

const usage = `Usage: gamepassd <command> [flags]

Commands:
  create   -as <id> -min <n> -max <n> -fee <amount>   create a game (owner only)
  join     -as <id> -game <id> -pay <amount>          join a game in sale
  start    -as <id> -game <id>                        freeze admission
  cancel   -as <id> -game <id>                        cancel and refund
  settle   -as <id> -game <id> -winner <id> -hash <hex>  settle to a winner
  show     -game <id>                                 print one game
  balance  -as <id>                                   print an account balance
  tickets                                             print the ticket catalog
  buy      -as <id> -class <id>                       buy a ticket
  refund   -as <id> -ticket <id>                      refund a ticket
`

// app bundles the wired services for command dispatch.
type app struct {
	cfg     *config.Config
	games   *service.GameService
	tickets *service.TicketService
	funding *service.FundingService
}

func main() {
	// Configure zerolog
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	command := os.Args[1]
	args := os.Args[2:]

	cfg, err := config.Load("config")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	dbPool, err := db.NewPool(ctx, &cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer dbPool.Close()

	if err := db.Migrate(ctx, dbPool.Pool); err != nil {
		log.Fatal().Err(err).Msg("Failed to run database migrations")
	}

	a, err := bootstrap(ctx, cfg, dbPool)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to bootstrap platform")
	}

	if err := a.run(ctx, command, args); err != nil {
		log.Fatal().Err(err).Str("command", command).Msg("Command failed")
	}
}

// bootstrap seeds the registry, the owner and fee accounts and the
// ticket catalog, then wires the service stack. The registry insert is
// a no-op when a registry already exists; owner and fee percentage from
// the config only apply on first run.
func bootstrap(ctx context.Context, cfg *config.Config, dbPool *db.Pool) (*app, error) {
	if cfg.Platform.Owner == 0 {
		return nil, fmt.Errorf("platform.owner must be a nonzero account id")
	}
	if !escrow.ValidFeePercentage(cfg.Platform.FeePercentage) {
		return nil, fmt.Errorf("platform.fee_percentage must be between 0 and 100, got %d", cfg.Platform.FeePercentage)
	}

	registryRepo := repository.NewRegistryRepository(dbPool.Pool)
	gameRepo := repository.NewGameRepository(dbPool.Pool)
	accountRepo := repository.NewAccountRepository(dbPool.Pool)
	ledgerRepo := repository.NewLedgerRepository(dbPool.Pool)
	ticketRepo := repository.NewTicketRepository(dbPool.Pool)

	reg, err := registryRepo.Bootstrap(ctx, cfg.Platform.Owner, cfg.Platform.FeePercentage)
	if err != nil {
		return nil, err
	}
	log.Info().
		Int64("owner", reg.Owner).
		Int64("fee_percentage", reg.PlatformFeePercentage).
		Int64("game_id_counter", reg.GameIDCounter).
		Msg("Registry ready")

	// The owner and fee accounts must exist so settlement fees always
	// have a destination.
	if _, err := accountRepo.GetOrCreate(ctx, dbPool.Pool, reg.Owner); err != nil {
		return nil, err
	}
	if cfg.Platform.FeeAccount != 0 {
		if _, err := accountRepo.GetOrCreate(ctx, dbPool.Pool, cfg.Platform.FeeAccount); err != nil {
			return nil, err
		}
	}

	catalog := make([]model.TicketClass, 0, len(cfg.Tickets.Classes))
	for _, c := range cfg.Tickets.Classes {
		catalog = append(catalog, model.TicketClass{Name: c.Name, Price: c.Price, Color: c.Color})
	}
	if err := ticketRepo.SeedClasses(ctx, catalog); err != nil {
		return nil, err
	}

	policy := service.LifecyclePolicy{
		Oracles:           cfg.Platform.Oracles,
		AutoStartWhenFull: cfg.Platform.AutoStartWhenFull,
		SaleWindow:        cfg.Platform.SaleWindow,
		FeeAccount:        cfg.Platform.FeeAccount,
	}
	emitter := events.NewLogEmitter(log.Logger)

	return &app{
		cfg: cfg,
		games: service.NewGameService(dbPool.Pool, registryRepo, gameRepo,
			accountRepo, ledgerRepo, lock.NewGameLock(), policy, emitter),
		tickets: service.NewTicketService(dbPool.Pool, ticketRepo, accountRepo, ledgerRepo, emitter),
		funding: service.NewFundingService(dbPool.Pool, accountRepo, ledgerRepo),
	}, nil
}

func (a *app) run(ctx context.Context, command string, args []string) error {
	switch command {
	case "create":
		return a.create(ctx, args)
	case "join":
		return a.join(ctx, args)
	case "start":
		return a.start(ctx, args)
	case "cancel":
		return a.cancel(ctx, args)
	case "settle":
		return a.settle(ctx, args)
	case "show":
		return a.show(ctx, args)
	case "balance":
		return a.balance(ctx, args)
	case "tickets":
		return a.catalog(ctx)
	case "buy":
		return a.buy(ctx, args)
	case "refund":
		return a.refundTicket(ctx, args)
	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", command)
	}
}

func (a *app) create(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("create", flag.ExitOnError)
	caller := fs.Int64("as", 0, "caller account id")
	minPlayers := fs.Uint("min", 0, "minimum players")
	maxPlayers := fs.Uint("max", 0, "maximum players")
	fee := fs.Int64("fee", 0, "entry fee")
	if err := fs.Parse(args); err != nil {
		return err
	}

	g, err := a.games.CreateGame(ctx, *caller, uint32(*minPlayers), uint32(*maxPlayers), *fee)
	if err != nil {
		return err
	}
	printGame(g)
	return nil
}

func (a *app) join(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("join", flag.ExitOnError)
	caller := fs.Int64("as", 0, "caller account id")
	gameID := fs.Int64("game", 0, "game id")
	payment := fs.Int64("pay", 0, "payment, must equal the entry fee")
	if err := fs.Parse(args); err != nil {
		return err
	}

	g, err := a.games.JoinGame(ctx, *caller, *gameID, *payment)
	if err != nil {
		return err
	}
	printGame(g)
	return nil
}

func (a *app) start(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("start", flag.ExitOnError)
	caller := fs.Int64("as", 0, "caller account id")
	gameID := fs.Int64("game", 0, "game id")
	if err := fs.Parse(args); err != nil {
		return err
	}

	g, err := a.games.StartGame(ctx, *caller, *gameID)
	if err != nil {
		return err
	}
	printGame(g)
	return nil
}

func (a *app) cancel(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("cancel", flag.ExitOnError)
	caller := fs.Int64("as", 0, "caller account id")
	gameID := fs.Int64("game", 0, "game id")
	if err := fs.Parse(args); err != nil {
		return err
	}

	g, err := a.games.CancelGame(ctx, *caller, *gameID, time.Now())
	if err != nil {
		return err
	}
	printGame(g)
	return nil
}

func (a *app) settle(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("settle", flag.ExitOnError)
	caller := fs.Int64("as", 0, "caller account id")
	gameID := fs.Int64("game", 0, "game id")
	winner := fs.Int64("winner", 0, "winning account id")
	hashHex := fs.String("hash", "", "result commitment, 32 bytes hex")
	if err := fs.Parse(args); err != nil {
		return err
	}

	resultHash, err := parseResultHash(*hashHex)
	if err != nil {
		return err
	}

	g, err := a.games.SettleGame(ctx, *caller, *gameID, *winner, resultHash)
	if err != nil {
		return err
	}
	printGame(g)
	return nil
}

func (a *app) show(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("show", flag.ExitOnError)
	gameID := fs.Int64("game", 0, "game id")
	if err := fs.Parse(args); err != nil {
		return err
	}

	g, err := a.games.GetGame(ctx, *gameID)
	if err != nil {
		return err
	}
	printGame(g)
	return nil
}

func (a *app) balance(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("balance", flag.ExitOnError)
	caller := fs.Int64("as", 0, "account id")
	if err := fs.Parse(args); err != nil {
		return err
	}

	balance, err := a.funding.Balance(ctx, *caller)
	if err != nil {
		return err
	}
	fmt.Printf("account %d balance %d\n", *caller, balance)
	return nil
}

func (a *app) catalog(ctx context.Context) error {
	classes, err := a.tickets.Catalog(ctx)
	if err != nil {
		return err
	}
	for _, c := range classes {
		fmt.Printf("%d\t%s\t%d\t%s\n", c.ID, c.Name, c.Price, c.Color)
	}
	return nil
}

func (a *app) buy(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("buy", flag.ExitOnError)
	caller := fs.Int64("as", 0, "caller account id")
	classID := fs.Int64("class", 0, "ticket class id")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ticket, err := a.tickets.Buy(ctx, *caller, *classID)
	if err != nil {
		return err
	}
	fmt.Printf("ticket %d class %d owner %d\n", ticket.ID, ticket.ClassID, ticket.Owner)
	return nil
}

func (a *app) refundTicket(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("refund", flag.ExitOnError)
	caller := fs.Int64("as", 0, "caller account id")
	ticketID := fs.Int64("ticket", 0, "ticket id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	return a.tickets.Refund(ctx, *caller, *ticketID)
}

// parseResultHash decodes an exactly 32 byte hex commitment. An empty
// string yields the zero sentinel, which settlement accepts.
func parseResultHash(s string) (model.ResultHash, error) {
	if s == "" {
		return model.ResultHash{}, nil
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return model.ResultHash{}, fmt.Errorf("invalid result hash: %w", err)
	}
	if len(b) != model.HashSize {
		return model.ResultHash{}, fmt.Errorf("result hash must be %d bytes, got %d", model.HashSize, len(b))
	}
	return model.ResultHashFromBytes(b), nil
}

func printGame(g *model.Game) {
	fmt.Printf("game %d\tstatus %s\tcreator %d\tplayers %d/%d (min %d)\tfee %d\tpool %d\n",
		g.ID, g.Status, g.Creator, g.PlayerCount, g.MaxPlayers, g.MinPlayers, g.EntryFee, g.Pool)
	if g.Status == model.StatusFinished {
		fmt.Printf("winner %d\tcollected fee %d\tresult %s\n",
			g.Winner, g.CollectedFee, hex.EncodeToString(g.ResultHash.Bytes()))
	}
}
