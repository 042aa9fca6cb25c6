// Package main is the balance-seeding tool for local and test
// deployments. It sets each listed account to an exact target balance,
// creating missing accounts, so re-running it converges instead of
// accumulating.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"gamepass/internal/config"
	"gamepass/internal/pkg/db"
	"gamepass/internal/repository"
	"gamepass/internal/service"
)

func main() {
	// Configure zerolog
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	amount := flag.Int64("amount", 0, "target balance; defaults to funding.default_amount")
	flag.Parse()

	if flag.NArg() == 0 {
		fmt.Fprintf(os.Stderr, "Usage: fund [-amount <n>] <account-id> [<account-id>...]\n")
		os.Exit(2)
	}

	cfg, err := config.Load("config")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	target := *amount
	if target == 0 {
		target = cfg.Funding.DefaultAmount
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

	funding := service.NewFundingService(
		dbPool.Pool,
		repository.NewAccountRepository(dbPool.Pool),
		repository.NewLedgerRepository(dbPool.Pool),
	)

	for _, arg := range flag.Args() {
		id, err := strconv.ParseInt(arg, 10, 64)
		if err != nil {
			log.Fatal().Str("account", arg).Msg("Account id must be an integer")
		}
		account, err := funding.Fund(ctx, id, target)
		if err != nil {
			log.Fatal().Err(err).Int64("account", id).Msg("Failed to fund account")
		}
		log.Info().
			Int64("account", account.ID).
			Int64("balance", account.Balance).
			Msg("Account funded")
	}
}
