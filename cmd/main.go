// Command swapcore runs the constant-product pool accounting service.
//
// Usage:
//
//	swapcore -config swapcore.yaml
//	swapcore -listen :8080 (flag-based configuration)
//	swapcore setup (interactive configuration wizard)
//
// Pool records and the transfer journal are persisted under the configured
// WAL directories; custody balances live in the in-process ledger.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/vadiminshakov/swapcore/config"
	"github.com/vadiminshakov/swapcore/internal/domain"
	"github.com/vadiminshakov/swapcore/internal/events"
	"github.com/vadiminshakov/swapcore/internal/ledger"
	"github.com/vadiminshakov/swapcore/internal/services"
	"github.com/vadiminshakov/swapcore/internal/services/registry"
	"github.com/vadiminshakov/swapcore/internal/setup"
	"github.com/vadiminshakov/swapcore/internal/storage/pools"
	"github.com/vadiminshakov/swapcore/internal/storage/transfers"
	"github.com/vadiminshakov/swapcore/internal/web"
	"go.uber.org/zap"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "setup" {
		if err := setup.RunTUI("swapcore.yaml"); err != nil {
			log.Fatal(err)
		}
		return
	}

	cfg, err := config.Get()
	if err != nil {
		log.Fatal(err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("service failed", zap.Error(err))
	}
}

func run(cfg config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	led := ledger.NewInMemory(logger)

	poolStore, err := pools.NewWALStore(cfg.PoolWALDir)
	if err != nil {
		return errors.Wrap(err, "open pool store")
	}
	defer poolStore.Close()

	journal, err := transfers.NewJournal(cfg.TransferWALDir)
	if err != nil {
		return errors.Wrap(err, "open transfer journal")
	}
	defer journal.Close()

	reg, err := registry.NewRegistry(logger, led, poolStore)
	if err != nil {
		return errors.Wrap(err, "init pool registry")
	}

	broadcast := events.NewPoolBroadcaster(256)
	svc := services.NewPoolService(logger, reg, led, journal, broadcast)

	if err := seedPools(ctx, cfg, svc, led, logger); err != nil {
		return errors.Wrap(err, "seed pools")
	}

	server := web.NewServer(cfg.Listen, svc, broadcast, logger)
	logger.Info("serving", zap.String("listen", cfg.Listen))
	return server.Start(ctx)
}

// seedPools creates configured pools and funds their reserves. Custody
// balances are in-process state, so seeded reserves are minted directly
// into the vaults on every start.
func seedPools(ctx context.Context, cfg config.Config, svc *services.PoolService, led *ledger.InMemory, logger *zap.Logger) error {
	for _, seed := range cfg.Pools {
		pair := domain.Pair{A: domain.AssetID(seed.AssetA), B: domain.AssetID(seed.AssetB)}

		pool, _, _, err := svc.PoolState(ctx, pair)
		if errors.Is(err, domain.ErrPoolNotFound) {
			pool, err = svc.CreatePool(ctx, pair, domain.AccountID{})
		}
		if err != nil {
			return errors.Wrapf(err, "pool %s", pair.String())
		}

		// the pool stores assets in canonical order, which may differ from
		// the order they were configured in
		amountA, amountB := seed.ReserveA, seed.ReserveB
		if domain.AssetID(seed.AssetA) != pool.AssetA {
			amountA, amountB = amountB, amountA
		}
		if amountA > 0 {
			if err := led.Mint(pool.VaultA, amountA); err != nil {
				return errors.Wrap(err, "mint reserve a")
			}
		}
		if amountB > 0 {
			if err := led.Mint(pool.VaultB, amountB); err != nil {
				return errors.Wrap(err, "mint reserve b")
			}
		}

		logger.Info("pool seeded",
			zap.String("pair", pair.String()),
			zap.Uint64("reserve_a", seed.ReserveA),
			zap.Uint64("reserve_b", seed.ReserveB))
	}
	return nil
}
