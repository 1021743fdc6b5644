package main

import (
	"context"
	"flag"
	"strings"
	"time"

	"go-leave/internal/app"
	"go-leave/internal/shared/apperror"
	"go-leave/internal/shared/config"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	year := flag.Int("year", time.Now().UTC().Year(), "ledger year to open for every active user")
	types := flag.String("types", "Planned Leave,Emergency Leave", "comma separated leave type names")
	flag.Parse()

	_ = godotenv.Load()
	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	apperror.Init()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config failed", zap.Error(err))
	}

	var names []string
	for _, name := range strings.Split(*types, ",") {
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}

	result, err := app.RunSeed(context.Background(), cfg, *year, names)
	if err != nil {
		logger.Fatal("seed failed", zap.Error(err))
	}

	logger.Info("seed done",
		zap.Int("types_created", len(result.Types.Created)),
		zap.Strings("types_skipped", result.Types.Skipped),
		zap.Int("year", result.Rollover.Year),
		zap.Int("users", result.Rollover.Users),
		zap.Int("ledgers_created", result.Rollover.Created),
		zap.Int("ledgers_skipped", result.Rollover.Skipped),
		zap.Int("ledgers_failed", result.Rollover.Failed),
	)
}
