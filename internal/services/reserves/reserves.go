// Package reserves reads the live custodied balances of a pool's reserve
// accounts.
package reserves

import (
	"context"

	"github.com/pkg/errors"
	"github.com/vadiminshakov/swapcore/internal/domain"
)

// BalanceReader is the slice of the custody ledger the accessor needs.
type BalanceReader interface {
	BalanceOf(ctx context.Context, account domain.AccountID) (uint64, error)
}

// Accessor fetches current reserves. It never caches: pricing depends on
// the true state at the moment of the trade, so every operation reads
// fresh balances immediately before computing.
type Accessor struct {
	ledger BalanceReader
}

// NewAccessor creates an accessor over the custody ledger.
func NewAccessor(ledger BalanceReader) *Accessor {
	return &Accessor{ledger: ledger}
}

// Current returns the live balances of the pool's two reserve accounts.
func (a *Accessor) Current(ctx context.Context, pool domain.Pool) (reserveA, reserveB uint64, err error) {
	reserveA, err = a.ledger.BalanceOf(ctx, pool.VaultA)
	if err != nil {
		return 0, 0, errors.Wrap(err, "read reserve a")
	}
	reserveB, err = a.ledger.BalanceOf(ctx, pool.VaultB)
	if err != nil {
		return 0, 0, errors.Wrap(err, "read reserve b")
	}
	return reserveA, reserveB, nil
}
