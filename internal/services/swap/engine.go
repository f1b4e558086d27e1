// Package swap executes constant-product trades against a pool.
package swap

import (
	"context"

	"github.com/pkg/errors"
	"github.com/vadiminshakov/swapcore/internal/domain"
	"github.com/vadiminshakov/swapcore/internal/ledger"
	"github.com/vadiminshakov/swapcore/internal/services/reserves"
	"github.com/vadiminshakov/swapcore/pkg/cpmath"
	"go.uber.org/zap"
)

// Engine prices a trade from fresh reserves and applies both transfer legs
// as one atomic batch. The engine does not lock: callers must serialize
// trades on one pool so the reserve read and the settling batch of a trade
// do not interleave with another trade's.
type Engine struct {
	ledger   ledger.Ledger
	reserves *reserves.Accessor
	logger   *zap.Logger
}

// NewEngine creates a swap engine.
func NewEngine(logger *zap.Logger, led ledger.Ledger, accessor *reserves.Accessor) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{ledger: led, reserves: accessor, logger: logger}
}

// Swap executes the trade described by req against pool.
//
// Reserves are read immediately before pricing: the trader's own deposit is
// the amount added to the input reserve, so
// (reserveIn + amountIn) * (reserveOut - amountOut) >= reserveIn * reserveOut
// holds by construction of the floor-divided output. The slippage bound is
// checked after pricing and before any transfer; on any failure no balance
// changes persist.
func (e *Engine) Swap(ctx context.Context, pool domain.Pool, req domain.SwapRequest) (domain.SwapResult, error) {
	if req.AmountIn == 0 {
		return domain.SwapResult{}, errors.New("amount_in must be positive")
	}

	reserveA, reserveB, err := e.reserves.Current(ctx, pool)
	if err != nil {
		return domain.SwapResult{}, errors.Wrap(err, "read reserves")
	}

	reserveIn, reserveOut := reserveA, reserveB
	if req.Direction == domain.DirectionBToA {
		reserveIn, reserveOut = reserveB, reserveA
	}

	amountOut, err := cpmath.AmountOut(req.AmountIn, reserveIn, reserveOut)
	if err != nil {
		return domain.SwapResult{}, errors.Wrapf(domain.ErrMathOverflow,
			"amount_in=%d reserves=(%d,%d): %v", req.AmountIn, reserveIn, reserveOut, err)
	}

	if amountOut < req.MinAmountOut {
		return domain.SwapResult{}, errors.Wrapf(domain.ErrSlippageTooHigh,
			"computed %d, minimum %d", amountOut, req.MinAmountOut)
	}

	vaultIn, vaultOut := pool.Vaults(req.Direction)
	batch := []ledger.Transfer{
		{
			From:      req.PayFrom,
			To:        vaultIn,
			Amount:    req.AmountIn,
			Authority: ledger.OwnerAuthority(req.Trader),
		},
		{
			// the pool signs for its own vault with the delegation proof
			From:      vaultOut,
			To:        req.ReceiveTo,
			Amount:    amountOut,
			Authority: ledger.DelegateAuthority(pool.Proof),
		},
	}
	if err := e.ledger.ApplyBatch(ctx, batch); err != nil {
		return domain.SwapResult{}, errors.Wrap(err, "apply swap transfers")
	}

	result := domain.SwapResult{AmountOut: amountOut}
	if req.Direction == domain.DirectionBToA {
		result.ReserveA = reserveA - amountOut
		result.ReserveB = reserveB + req.AmountIn
	} else {
		result.ReserveA = reserveA + req.AmountIn
		result.ReserveB = reserveB - amountOut
	}

	e.logger.Info("swap executed",
		zap.String("pair", pool.Pair().String()),
		zap.String("direction", req.Direction.String()),
		zap.Uint64("amount_in", req.AmountIn),
		zap.Uint64("amount_out", amountOut))

	return result, nil
}
