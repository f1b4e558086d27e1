// Package services wires the pool registry, reserve accessor, swap engine
// and liquidity intake into the three operations the host surface calls.
package services

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/vadiminshakov/swapcore/internal/domain"
	"github.com/vadiminshakov/swapcore/internal/events"
	"github.com/vadiminshakov/swapcore/internal/ledger"
	"github.com/vadiminshakov/swapcore/internal/services/liquidity"
	"github.com/vadiminshakov/swapcore/internal/services/registry"
	"github.com/vadiminshakov/swapcore/internal/services/reserves"
	"github.com/vadiminshakov/swapcore/internal/services/swap"
	"github.com/vadiminshakov/swapcore/internal/storage/transfers"
	"go.uber.org/zap"
)

// BatchJournal records applied transfer batches for audit. Optional.
type BatchJournal interface {
	Append(kind string, pair domain.Pair, legs []transfers.Leg) (string, error)
}

// PoolService exposes create_pool, add_liquidity and swap over one pool
// registry and custody ledger. Each call is synchronous and all-or-nothing.
// Swaps and deposits on one pool are serialized: the reserve read that
// prices a trade and the transfer batch that settles it must not interleave
// with another caller's on the same pool, or both would price off the same
// reserves and the reserve product could shrink.
type PoolService struct {
	registry  *registry.Registry
	reserves  *reserves.Accessor
	engine    *swap.Engine
	intake    *liquidity.Intake
	journal   BatchJournal
	broadcast *events.PoolBroadcaster
	logger    *zap.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewPoolService creates the service. journal and broadcast may be nil.
func NewPoolService(
	logger *zap.Logger,
	reg *registry.Registry,
	led ledger.Ledger,
	journal BatchJournal,
	broadcast *events.PoolBroadcaster,
) *PoolService {
	if logger == nil {
		logger = zap.NewNop()
	}
	accessor := reserves.NewAccessor(led)
	return &PoolService{
		registry:  reg,
		reserves:  accessor,
		engine:    swap.NewEngine(logger, led, accessor),
		intake:    liquidity.NewIntake(logger, led),
		journal:   journal,
		broadcast: broadcast,
		logger:    logger,
		locks:     make(map[string]*sync.Mutex),
	}
}

// poolLock returns the mutex serializing swaps and deposits on one pool.
func (s *PoolService) poolLock(pair domain.Pair) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := pair.String()
	l, ok := s.locks[key]
	if !ok {
		l = &sync.Mutex{}
		s.locks[key] = l
	}
	return l
}

// CreatePool allocates the pool and its reserve accounts for the pair.
func (s *PoolService) CreatePool(ctx context.Context, pair domain.Pair, authority domain.AccountID) (domain.Pool, error) {
	pool, err := s.registry.Create(pair, authority)
	if err != nil {
		return domain.Pool{}, err
	}

	s.emit(events.PoolEvent{
		Timestamp: time.Now().UTC(),
		Kind:      events.KindPoolCreated,
		Pair:      pool.Pair().String(),
	})
	return pool, nil
}

// Pools returns every created pool.
func (s *PoolService) Pools() []domain.Pool {
	return s.registry.List()
}

// PoolState resolves the pool and reads its current reserves.
func (s *PoolService) PoolState(ctx context.Context, pair domain.Pair) (domain.Pool, uint64, uint64, error) {
	pool, err := s.registry.Locate(pair)
	if err != nil {
		return domain.Pool{}, 0, 0, err
	}
	reserveA, reserveB, err := s.reserves.Current(ctx, pool)
	if err != nil {
		return domain.Pool{}, 0, 0, errors.Wrap(err, "read reserves")
	}
	return pool, reserveA, reserveB, nil
}

// AddLiquidity deposits both assets into the pool's reserves.
func (s *PoolService) AddLiquidity(ctx context.Context, req domain.DepositRequest) error {
	pool, err := s.registry.Locate(req.Pair)
	if err != nil {
		return err
	}

	lock := s.poolLock(req.Pair)
	lock.Lock()
	defer lock.Unlock()

	if err := s.intake.Deposit(ctx, pool, req); err != nil {
		return err
	}

	s.record(events.KindDeposit, pool.Pair(), []transfers.Leg{
		{From: req.FromA.Hex(), To: pool.VaultA.Hex(), Amount: req.AmountA},
		{From: req.FromB.Hex(), To: pool.VaultB.Hex(), Amount: req.AmountB},
	})

	reserveA, reserveB, err := s.reserves.Current(ctx, pool)
	if err != nil {
		// the deposit itself committed; state read is best-effort for the event
		s.logger.Warn("read reserves after deposit", zap.Error(err))
		return nil
	}
	s.emit(events.PoolEvent{
		Timestamp: time.Now().UTC(),
		Kind:      events.KindDeposit,
		Pair:      pool.Pair().String(),
		ReserveA:  reserveA,
		ReserveB:  reserveB,
		Price:     events.SpotPrice(reserveA, reserveB),
	})
	return nil
}

// Swap executes a trade and returns the amount paid out.
func (s *PoolService) Swap(ctx context.Context, req domain.SwapRequest) (domain.SwapResult, error) {
	pool, err := s.registry.Locate(req.Pair)
	if err != nil {
		return domain.SwapResult{}, err
	}

	lock := s.poolLock(req.Pair)
	lock.Lock()
	defer lock.Unlock()

	result, err := s.engine.Swap(ctx, pool, req)
	if err != nil {
		return domain.SwapResult{}, err
	}

	vaultIn, vaultOut := pool.Vaults(req.Direction)
	s.record(events.KindSwap, pool.Pair(), []transfers.Leg{
		{From: req.PayFrom.Hex(), To: vaultIn.Hex(), Amount: req.AmountIn},
		{From: vaultOut.Hex(), To: req.ReceiveTo.Hex(), Amount: result.AmountOut},
	})

	s.emit(events.PoolEvent{
		Timestamp: time.Now().UTC(),
		Kind:      events.KindSwap,
		Pair:      pool.Pair().String(),
		Direction: req.Direction.String(),
		AmountIn:  req.AmountIn,
		AmountOut: result.AmountOut,
		ReserveA:  result.ReserveA,
		ReserveB:  result.ReserveB,
		Price:     events.SpotPrice(result.ReserveA, result.ReserveB),
	})
	return result, nil
}

func (s *PoolService) record(kind string, pair domain.Pair, legs []transfers.Leg) {
	if s.journal == nil {
		return
	}
	if _, err := s.journal.Append(kind, pair, legs); err != nil {
		// the operation already committed; a journal miss is logged, not surfaced
		s.logger.Error("journal transfer batch", zap.Error(err))
	}
}

func (s *PoolService) emit(e events.PoolEvent) {
	if s.broadcast == nil {
		return
	}
	s.broadcast.Publish(e)
}
