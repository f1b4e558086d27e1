package ledger

import (
	"context"
	"math"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vadiminshakov/swapcore/internal/domain"
	"go.uber.org/zap"
)

var (
	alice = common.HexToAddress("0x0000000000000000000000000000000000000a11")
	bob   = common.HexToAddress("0x0000000000000000000000000000000000000b0b")
)

func newTestLedger(t *testing.T) *InMemory {
	t.Helper()
	l := NewInMemory(zap.NewNop())
	require.NoError(t, l.CreateAccount(alice, "BTC", alice))
	require.NoError(t, l.CreateAccount(bob, "BTC", bob))
	require.NoError(t, l.Mint(alice, 1000))
	return l
}

func TestTransfer(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	err := l.Transfer(ctx, Transfer{From: alice, To: bob, Amount: 400, Authority: OwnerAuthority(alice)})
	require.NoError(t, err)

	a, err := l.BalanceOf(ctx, alice)
	require.NoError(t, err)
	b, err := l.BalanceOf(ctx, bob)
	require.NoError(t, err)
	assert.Equal(t, uint64(600), a)
	assert.Equal(t, uint64(400), b)
}

func TestTransferRejections(t *testing.T) {
	pair := domain.Pair{A: "BTC", B: "USDT"}
	pool := domain.NewPool(pair, alice)

	tests := []struct {
		name     string
		transfer Transfer
		err      error
	}{
		{
			name:     "not the owner",
			transfer: Transfer{From: alice, To: bob, Amount: 10, Authority: OwnerAuthority(bob)},
			err:      ErrNotAuthorized,
		},
		{
			name:     "insufficient funds",
			transfer: Transfer{From: alice, To: bob, Amount: 5000, Authority: OwnerAuthority(alice)},
			err:      ErrInsufficientFunds,
		},
		{
			name:     "unknown destination",
			transfer: Transfer{From: alice, To: common.HexToAddress("0xdead"), Amount: 10, Authority: OwnerAuthority(alice)},
			err:      ErrUnknownAccount,
		},
		{
			name:     "delegated authority on a plain account",
			transfer: Transfer{From: alice, To: bob, Amount: 10, Authority: DelegateAuthority(pool.Proof)},
			err:      ErrNotAuthorized,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			l := newTestLedger(t)
			err := l.Transfer(context.Background(), tc.transfer)
			assert.ErrorIs(t, err, tc.err)

			// no partial effect
			a, berr := l.BalanceOf(context.Background(), alice)
			require.NoError(t, berr)
			assert.Equal(t, uint64(1000), a)
		})
	}
}

func TestZeroTransferIsNoOp(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	// authorization is still checked for zero-amount legs
	err := l.Transfer(ctx, Transfer{From: alice, To: bob, Amount: 0, Authority: OwnerAuthority(bob)})
	assert.ErrorIs(t, err, ErrNotAuthorized)

	require.NoError(t, l.Transfer(ctx, Transfer{From: alice, To: bob, Amount: 0, Authority: OwnerAuthority(alice)}))

	a, _ := l.BalanceOf(ctx, alice)
	b, _ := l.BalanceOf(ctx, bob)
	assert.Equal(t, uint64(1000), a)
	assert.Equal(t, uint64(0), b)
}

func TestBalanceOverflow(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()
	require.NoError(t, l.Mint(bob, math.MaxUint64))

	// minting past the uint64 ceiling is refused
	err := l.Mint(bob, 1)
	assert.ErrorIs(t, err, ErrBalanceOverflow)

	// crediting past the ceiling via transfer is refused too, not reported
	// as insufficient funds
	err = l.Transfer(ctx, Transfer{From: alice, To: bob, Amount: 1, Authority: OwnerAuthority(alice)})
	assert.ErrorIs(t, err, ErrBalanceOverflow)
	assert.NotErrorIs(t, err, ErrInsufficientFunds)

	a, _ := l.BalanceOf(ctx, alice)
	b, _ := l.BalanceOf(ctx, bob)
	assert.Equal(t, uint64(1000), a)
	assert.Equal(t, uint64(math.MaxUint64), b)
}

func TestAssetMismatch(t *testing.T) {
	l := NewInMemory(nil)
	require.NoError(t, l.CreateAccount(alice, "BTC", alice))
	require.NoError(t, l.CreateAccount(bob, "USDT", bob))
	require.NoError(t, l.Mint(alice, 100))

	err := l.Transfer(context.Background(), Transfer{From: alice, To: bob, Amount: 10, Authority: OwnerAuthority(alice)})
	assert.ErrorIs(t, err, ErrAssetMismatch)
}

func TestVaultAuthorization(t *testing.T) {
	ctx := context.Background()
	pair := domain.Pair{A: "BTC", B: "USDT"}
	pool := domain.NewPool(pair, alice)

	l := NewInMemory(zap.NewNop())
	require.NoError(t, l.CreateAccount(alice, "BTC", alice))
	require.NoError(t, l.CreateVault(pool.VaultA, "BTC", pool.Address, pool.Proof))
	require.NoError(t, l.Mint(pool.VaultA, 500))

	// owner-style authority never opens a vault
	err := l.Transfer(ctx, Transfer{From: pool.VaultA, To: alice, Amount: 100, Authority: OwnerAuthority(pool.Address)})
	assert.ErrorIs(t, err, ErrNotAuthorized)

	// wrong proof is rejected
	wrong := domain.DeriveDelegationProof(domain.Pair{A: "ETH", B: "USDT"}, domain.DelegationSalt)
	err = l.Transfer(ctx, Transfer{From: pool.VaultA, To: alice, Amount: 100, Authority: DelegateAuthority(wrong)})
	assert.ErrorIs(t, err, ErrNotAuthorized)

	// the derived proof works, and anyone can rederive it from public data
	rederived := domain.DeriveDelegationProof(pair, domain.DelegationSalt)
	err = l.Transfer(ctx, Transfer{From: pool.VaultA, To: alice, Amount: 100, Authority: DelegateAuthority(rederived)})
	require.NoError(t, err)

	bal, err := l.BalanceOf(ctx, pool.VaultA)
	require.NoError(t, err)
	assert.Equal(t, uint64(400), bal)
}

func TestApplyBatchAllOrNothing(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	// second leg fails: bob has nothing to send back beyond the staged credit
	batch := []Transfer{
		{From: alice, To: bob, Amount: 300, Authority: OwnerAuthority(alice)},
		{From: bob, To: alice, Amount: 301, Authority: OwnerAuthority(bob)},
	}
	err := l.ApplyBatch(ctx, batch)
	assert.ErrorIs(t, err, ErrInsufficientFunds)

	a, _ := l.BalanceOf(ctx, alice)
	b, _ := l.BalanceOf(ctx, bob)
	assert.Equal(t, uint64(1000), a)
	assert.Equal(t, uint64(0), b)
}

func TestApplyBatchSeesEarlierLegs(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	batch := []Transfer{
		{From: alice, To: bob, Amount: 300, Authority: OwnerAuthority(alice)},
		{From: bob, To: alice, Amount: 300, Authority: OwnerAuthority(bob)},
	}
	require.NoError(t, l.ApplyBatch(ctx, batch))

	a, _ := l.BalanceOf(ctx, alice)
	b, _ := l.BalanceOf(ctx, bob)
	assert.Equal(t, uint64(1000), a)
	assert.Equal(t, uint64(0), b)
}
