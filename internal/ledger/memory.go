package ledger

import (
	"context"
	"math/bits"
	"sync"

	"github.com/pkg/errors"
	"github.com/vadiminshakov/swapcore/internal/domain"
	"go.uber.org/zap"
)

type account struct {
	asset   domain.AssetID
	owner   domain.AccountID
	proof   *domain.DelegationProof
	balance uint64
}

// InMemory is a mutex-guarded in-process ledger. It is the atomicity
// boundary for the core: a batch either fully commits or leaves no trace.
type InMemory struct {
	mu       sync.RWMutex
	accounts map[domain.AccountID]*account
	logger   *zap.Logger
}

// NewInMemory creates an empty ledger.
func NewInMemory(logger *zap.Logger) *InMemory {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InMemory{
		accounts: make(map[domain.AccountID]*account),
		logger:   logger,
	}
}

// CreateAccount registers a user-owned account for one asset type.
func (l *InMemory) CreateAccount(addr domain.AccountID, asset domain.AssetID, owner domain.AccountID) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.accounts[addr]; ok {
		return errors.Wrapf(ErrAccountExists, "account %s", addr.Hex())
	}
	l.accounts[addr] = &account{asset: asset, owner: owner}
	return nil
}

// CreateVault registers a pool-owned reserve account. Outbound transfers
// from it are honored only with the registered delegation proof; the owner
// address holds no key and cannot authorize anything by itself.
func (l *InMemory) CreateVault(addr domain.AccountID, asset domain.AssetID, pool domain.AccountID, proof domain.DelegationProof) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.accounts[addr]; ok {
		return errors.Wrapf(ErrAccountExists, "vault %s", addr.Hex())
	}
	l.accounts[addr] = &account{asset: asset, owner: pool, proof: &proof}
	return nil
}

// Mint credits newly issued funds to an account. Issuance is out-of-band of
// the pool core; it exists for bootstrap and tests.
func (l *InMemory) Mint(addr domain.AccountID, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	acc, ok := l.accounts[addr]
	if !ok {
		return errors.Wrapf(ErrUnknownAccount, "mint to %s", addr.Hex())
	}
	sum, carry := bits.Add64(acc.balance, amount, 0)
	if carry != 0 {
		return errors.Wrapf(ErrBalanceOverflow, "mint to %s", addr.Hex())
	}
	acc.balance = sum
	return nil
}

// BalanceOf returns the live balance of the account.
func (l *InMemory) BalanceOf(_ context.Context, addr domain.AccountID) (uint64, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	acc, ok := l.accounts[addr]
	if !ok {
		return 0, errors.Wrapf(ErrUnknownAccount, "balance of %s", addr.Hex())
	}
	return acc.balance, nil
}

// AssetOf returns the asset type held by the account.
func (l *InMemory) AssetOf(addr domain.AccountID) (domain.AssetID, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	acc, ok := l.accounts[addr]
	if !ok {
		return "", errors.Wrapf(ErrUnknownAccount, "asset of %s", addr.Hex())
	}
	return acc.asset, nil
}

// Transfer applies a single movement.
func (l *InMemory) Transfer(ctx context.Context, t Transfer) error {
	return l.ApplyBatch(ctx, []Transfer{t})
}

// ApplyBatch validates all legs and applies them atomically.
func (l *InMemory) ApplyBatch(_ context.Context, batch []Transfer) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	// staged balances of touched accounts; committed only when every leg passes
	staged := make(map[domain.AccountID]uint64, len(batch)*2)
	balance := func(acc *account, addr domain.AccountID) uint64 {
		if v, ok := staged[addr]; ok {
			return v
		}
		return acc.balance
	}

	for _, t := range batch {
		from, ok := l.accounts[t.From]
		if !ok {
			return errors.Wrapf(ErrUnknownAccount, "source %s", t.From.Hex())
		}
		to, ok := l.accounts[t.To]
		if !ok {
			return errors.Wrapf(ErrUnknownAccount, "destination %s", t.To.Hex())
		}
		if from.asset != to.asset {
			return errors.Wrapf(ErrAssetMismatch, "%s holds %s, %s holds %s",
				t.From.Hex(), from.asset, t.To.Hex(), to.asset)
		}
		if err := authorize(from, t.Authority); err != nil {
			return errors.Wrapf(err, "source %s", t.From.Hex())
		}

		have := balance(from, t.From)
		if have < t.Amount {
			return errors.Wrapf(ErrInsufficientFunds, "%s has %d, need %d", t.From.Hex(), have, t.Amount)
		}
		credited, carry := bits.Add64(balance(to, t.To), t.Amount, 0)
		if carry != 0 {
			return errors.Wrapf(ErrBalanceOverflow, "destination %s", t.To.Hex())
		}
		staged[t.From] = have - t.Amount
		staged[t.To] = credited
	}

	for addr, bal := range staged {
		l.accounts[addr].balance = bal
	}

	l.logger.Debug("ledger batch applied", zap.Int("legs", len(batch)))
	return nil
}

// authorize checks the credential against the source account. Vaults accept
// only their registered delegation proof; plain accounts accept only their
// owner.
func authorize(from *account, auth Authority) error {
	if from.proof != nil {
		if auth.Proof == nil || *auth.Proof != *from.proof {
			return errors.Wrap(ErrNotAuthorized, "delegation proof mismatch")
		}
		return nil
	}
	if auth.Proof != nil {
		return errors.Wrap(ErrNotAuthorized, "account does not accept delegated authority")
	}
	if auth.Owner != from.owner {
		return errors.Wrap(ErrNotAuthorized, "authority is not the account owner")
	}
	return nil
}
