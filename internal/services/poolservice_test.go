package services

import (
	"context"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vadiminshakov/swapcore/internal/domain"
	"github.com/vadiminshakov/swapcore/internal/events"
	"github.com/vadiminshakov/swapcore/internal/ledger"
	"github.com/vadiminshakov/swapcore/internal/services/registry"
	"github.com/vadiminshakov/swapcore/internal/storage/transfers"
	"go.uber.org/zap"
)

var user = common.HexToAddress("0x0000000000000000000000000000000000001234")

type recordingJournal struct {
	records []string
}

func (r *recordingJournal) Append(kind string, pair domain.Pair, legs []transfers.Leg) (string, error) {
	r.records = append(r.records, kind)
	return "id", nil
}

func newService(t *testing.T) (*PoolService, *ledger.InMemory, *recordingJournal, *events.PoolBroadcaster) {
	t.Helper()

	led := ledger.NewInMemory(zap.NewNop())
	reg, err := registry.NewRegistry(zap.NewNop(), led, nil)
	require.NoError(t, err)

	journal := &recordingJournal{}
	broadcast := events.NewPoolBroadcaster(16)
	svc := NewPoolService(zap.NewNop(), reg, led, journal, broadcast)
	return svc, led, journal, broadcast
}

func fundUser(t *testing.T, led *ledger.InMemory, amountBTC, amountUSDT uint64) (accA, accB domain.AccountID) {
	t.Helper()
	accA = common.HexToAddress("0x00000000000000000000000000000000000000c1")
	accB = common.HexToAddress("0x00000000000000000000000000000000000000c2")
	require.NoError(t, led.CreateAccount(accA, "BTC", user))
	require.NoError(t, led.CreateAccount(accB, "USDT", user))
	require.NoError(t, led.Mint(accA, amountBTC))
	require.NoError(t, led.Mint(accB, amountUSDT))
	return accA, accB
}

func TestFullLifecycle(t *testing.T) {
	svc, led, journal, broadcast := newService(t)
	ctx := context.Background()
	pair := domain.Pair{A: "BTC", B: "USDT"}

	sub := broadcast.Subscribe()
	defer broadcast.Unsubscribe(sub)

	_, err := svc.CreatePool(ctx, pair, user)
	require.NoError(t, err)

	accA, accB := fundUser(t, led, 2000, 2000)

	err = svc.AddLiquidity(ctx, domain.DepositRequest{
		Pair:      pair,
		Depositor: user,
		FromA:     accA,
		FromB:     accB,
		AmountA:   1000,
		AmountB:   1000,
	})
	require.NoError(t, err)

	res, err := svc.Swap(ctx, domain.SwapRequest{
		Pair:         pair,
		Trader:       user,
		PayFrom:      accA,
		ReceiveTo:    accB,
		AmountIn:     100,
		MinAmountOut: 90,
		Direction:    domain.DirectionAToB,
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(90), res.AmountOut)

	_, reserveA, reserveB, err := svc.PoolState(ctx, pair)
	require.NoError(t, err)
	assert.Equal(t, uint64(1100), reserveA)
	assert.Equal(t, uint64(910), reserveB)

	assert.Equal(t, []string{"deposit", "swap"}, journal.records)

	// three events: pool_created, deposit, swap
	kinds := make([]string, 0, 3)
	for range 3 {
		e := <-sub
		kinds = append(kinds, e.Kind)
	}
	assert.Equal(t, []string{events.KindPoolCreated, events.KindDeposit, events.KindSwap}, kinds)
}

func TestSwapUnknownPool(t *testing.T) {
	svc, led, _, _ := newService(t)
	accA, accB := fundUser(t, led, 100, 100)

	_, err := svc.Swap(context.Background(), domain.SwapRequest{
		Pair:      domain.Pair{A: "ETH", B: "USDT"},
		Trader:    user,
		PayFrom:   accA,
		ReceiveTo: accB,
		AmountIn:  10,
	})
	assert.ErrorIs(t, err, domain.ErrPoolNotFound)
}

func TestAddLiquidityUnknownPool(t *testing.T) {
	svc, _, journal, _ := newService(t)

	err := svc.AddLiquidity(context.Background(), domain.DepositRequest{
		Pair: domain.Pair{A: "ETH", B: "USDT"},
	})
	assert.ErrorIs(t, err, domain.ErrPoolNotFound)
	assert.Empty(t, journal.records)
}

func TestCreatePoolTwice(t *testing.T) {
	svc, _, _, _ := newService(t)
	pair := domain.Pair{A: "BTC", B: "USDT"}

	_, err := svc.CreatePool(context.Background(), pair, user)
	require.NoError(t, err)
	_, err = svc.CreatePool(context.Background(), pair, user)
	assert.ErrorIs(t, err, domain.ErrPoolExists)
}

// Concurrent swaps on one pool must be serialized: if two trades price off
// the same reserves, both underpay the pool and the reserve product shrinks.
func TestConcurrentSwapsKeepInvariant(t *testing.T) {
	svc, led, _, _ := newService(t)
	ctx := context.Background()
	pair := domain.Pair{A: "BTC", B: "USDT"}

	_, err := svc.CreatePool(ctx, pair, user)
	require.NoError(t, err)
	accA, accB := fundUser(t, led, 10000000, 10000000)

	require.NoError(t, svc.AddLiquidity(ctx, domain.DepositRequest{
		Pair: pair, Depositor: user, FromA: accA, FromB: accB, AmountA: 1000000, AmountB: 1000000,
	}))

	_, reserveA, reserveB, err := svc.PoolState(ctx, pair)
	require.NoError(t, err)
	before := reserveA * reserveB

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func(dir domain.SwapDirection) {
			defer wg.Done()
			req := domain.SwapRequest{
				Pair: pair, Trader: user, PayFrom: accA, ReceiveTo: accB,
				AmountIn: 1000, Direction: dir,
			}
			if dir == domain.DirectionBToA {
				req.PayFrom, req.ReceiveTo = accB, accA
			}
			for range 50 {
				_, err := svc.Swap(ctx, req)
				assert.NoError(t, err)
			}
		}(domain.SwapDirection(i % 2))
	}
	wg.Wait()

	_, reserveA, reserveB, err = svc.PoolState(ctx, pair)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, reserveA*reserveB, before)
}

func TestFailedSwapIsNotJournaled(t *testing.T) {
	svc, led, journal, _ := newService(t)
	ctx := context.Background()
	pair := domain.Pair{A: "BTC", B: "USDT"}

	_, err := svc.CreatePool(ctx, pair, user)
	require.NoError(t, err)
	accA, accB := fundUser(t, led, 2000, 2000)

	require.NoError(t, svc.AddLiquidity(ctx, domain.DepositRequest{
		Pair: pair, Depositor: user, FromA: accA, FromB: accB, AmountA: 1000, AmountB: 1000,
	}))
	journal.records = nil

	_, err = svc.Swap(ctx, domain.SwapRequest{
		Pair: pair, Trader: user, PayFrom: accA, ReceiveTo: accB,
		AmountIn: 100, MinAmountOut: 91, Direction: domain.DirectionAToB,
	})
	assert.ErrorIs(t, err, domain.ErrSlippageTooHigh)
	assert.Empty(t, journal.records)
}
