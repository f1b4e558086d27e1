// Package liquidity accepts deposits into a pool's reserve accounts.
package liquidity

import (
	"context"

	"github.com/pkg/errors"
	"github.com/vadiminshakov/swapcore/internal/domain"
	"github.com/vadiminshakov/swapcore/internal/ledger"
	"go.uber.org/zap"
)

// Intake moves both deposit legs into the vaults as one atomic batch.
//
// Deposits are proportion-free: no check against the current reserve ratio
// is made and no ownership share is minted, so a deposit can move the pool
// price.
type Intake struct {
	ledger ledger.Ledger
	logger *zap.Logger
}

// NewIntake creates a liquidity intake.
func NewIntake(logger *zap.Logger, led ledger.Ledger) *Intake {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Intake{ledger: led, logger: logger}
}

// Deposit transfers amountA and amountB from the depositor's accounts into
// the pool's vaults, both legs authorized by the depositor. All-or-nothing.
func (i *Intake) Deposit(ctx context.Context, pool domain.Pool, req domain.DepositRequest) error {
	batch := []ledger.Transfer{
		{
			From:      req.FromA,
			To:        pool.VaultA,
			Amount:    req.AmountA,
			Authority: ledger.OwnerAuthority(req.Depositor),
		},
		{
			From:      req.FromB,
			To:        pool.VaultB,
			Amount:    req.AmountB,
			Authority: ledger.OwnerAuthority(req.Depositor),
		},
	}
	if err := i.ledger.ApplyBatch(ctx, batch); err != nil {
		return errors.Wrap(err, "apply deposit transfers")
	}

	i.logger.Info("liquidity added",
		zap.String("pair", pool.Pair().String()),
		zap.Uint64("amount_a", req.AmountA),
		zap.Uint64("amount_b", req.AmountB))

	return nil
}
