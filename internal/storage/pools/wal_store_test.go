package pools

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vadiminshakov/swapcore/internal/domain"
)

func TestSaveAndLoadAll(t *testing.T) {
	dir := t.TempDir()
	authority := common.HexToAddress("0x0000000000000000000000000000000000000aaa")

	store, err := NewWALStore(dir)
	require.NoError(t, err)

	first := domain.NewPool(domain.Pair{A: "BTC", B: "USDT"}, authority)
	second := domain.NewPool(domain.Pair{A: "ETH", B: "USDT"}, authority)
	require.NoError(t, store.Save(first))
	require.NoError(t, store.Save(second))
	require.NoError(t, store.Close())

	// a fresh store over the same dir replays both pools with rederived state
	store, err = NewWALStore(dir)
	require.NoError(t, err)
	defer store.Close()

	loaded, err := store.LoadAll()
	require.NoError(t, err)
	require.Len(t, loaded, 2)

	byPair := make(map[string]domain.Pool, len(loaded))
	for _, pool := range loaded {
		byPair[pool.Pair().String()] = pool
	}

	got, ok := byPair[first.Pair().String()]
	require.True(t, ok)
	assert.Equal(t, first.Address, got.Address)
	assert.Equal(t, first.VaultA, got.VaultA)
	assert.Equal(t, first.Proof, got.Proof)
	assert.Equal(t, authority, got.Authority)

	_, ok = byPair[second.Pair().String()]
	assert.True(t, ok)
}

func TestLoadAllEmpty(t *testing.T) {
	store, err := NewWALStore(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	loaded, err := store.LoadAll()
	require.NoError(t, err)
	assert.Empty(t, loaded)
}
