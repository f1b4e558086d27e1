// Package registry creates and locates the singleton pool per unordered
// asset pair.
package registry

import (
	"sync"

	"github.com/pkg/errors"
	"github.com/vadiminshakov/swapcore/internal/domain"
	"go.uber.org/zap"
)

// VaultProvisioner registers a pool's reserve accounts with the custody
// ledger.
type VaultProvisioner interface {
	CreateVault(addr domain.AccountID, asset domain.AssetID, pool domain.AccountID, proof domain.DelegationProof) error
}

// PoolStore persists pool records across restarts.
type PoolStore interface {
	Save(pool domain.Pool) error
	LoadAll() ([]domain.Pool, error)
}

// Registry holds every created pool, keyed by the canonical pair string.
// Pool identity is fully derived from the pair, so Locate is a derivation
// plus a map lookup.
type Registry struct {
	mu     sync.RWMutex
	pools  map[string]domain.Pool
	vaults VaultProvisioner
	store  PoolStore
	logger *zap.Logger
}

// NewRegistry creates a registry and replays previously created pools from
// the store, re-provisioning their vaults with the ledger.
func NewRegistry(logger *zap.Logger, vaults VaultProvisioner, store PoolStore) (*Registry, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Registry{
		pools:  make(map[string]domain.Pool),
		vaults: vaults,
		store:  store,
		logger: logger,
	}

	if store == nil {
		return r, nil
	}

	recovered, err := store.LoadAll()
	if err != nil {
		return nil, errors.Wrap(err, "recover pools")
	}
	for _, pool := range recovered {
		if err := r.provision(pool); err != nil {
			return nil, errors.Wrapf(err, "provision recovered pool %s", pool.Pair().String())
		}
		r.pools[pool.Pair().String()] = pool
		logger.Info("recovered pool",
			zap.String("pair", pool.Pair().String()),
			zap.String("address", pool.Address.Hex()))
	}

	return r, nil
}

// Create allocates the pool and both reserve accounts for the pair.
// Fails with domain.ErrPoolExists when the unordered pair already has one.
func (r *Registry) Create(pair domain.Pair, authority domain.AccountID) (domain.Pool, error) {
	if err := pair.Validate(); err != nil {
		return domain.Pool{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	key := pair.String()
	if _, ok := r.pools[key]; ok {
		return domain.Pool{}, errors.Wrapf(domain.ErrPoolExists, "pair %s", key)
	}

	pool := domain.NewPool(pair, authority)
	if err := r.provision(pool); err != nil {
		return domain.Pool{}, errors.Wrap(err, "provision vaults")
	}
	if r.store != nil {
		if err := r.store.Save(pool); err != nil {
			return domain.Pool{}, errors.Wrap(err, "persist pool")
		}
	}
	r.pools[key] = pool

	r.logger.Info("pool created",
		zap.String("pair", key),
		zap.String("address", pool.Address.Hex()),
		zap.String("authority", authority.Hex()))

	return pool, nil
}

// Locate resolves the pool for the pair. Fails with domain.ErrPoolNotFound
// when it was never created.
func (r *Registry) Locate(pair domain.Pair) (domain.Pool, error) {
	if err := pair.Validate(); err != nil {
		return domain.Pool{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	pool, ok := r.pools[pair.String()]
	if !ok {
		return domain.Pool{}, errors.Wrapf(domain.ErrPoolNotFound, "pair %s", pair.String())
	}
	return pool, nil
}

// List returns every created pool.
func (r *Registry) List() []domain.Pool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]domain.Pool, 0, len(r.pools))
	for _, pool := range r.pools {
		result = append(result, pool)
	}
	return result
}

func (r *Registry) provision(pool domain.Pool) error {
	if r.vaults == nil {
		return nil
	}
	if err := r.vaults.CreateVault(pool.VaultA, pool.AssetA, pool.Address, pool.Proof); err != nil {
		return errors.Wrap(err, "vault a")
	}
	if err := r.vaults.CreateVault(pool.VaultB, pool.AssetB, pool.Address, pool.Proof); err != nil {
		return errors.Wrap(err, "vault b")
	}
	return nil
}
