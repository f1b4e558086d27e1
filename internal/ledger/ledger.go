// Package ledger implements the custody collaborator: typed asset accounts,
// transfer authorization and the all-or-nothing batch boundary the pool
// core relies on.
package ledger

import (
	"context"

	"github.com/pkg/errors"
	"github.com/vadiminshakov/swapcore/internal/domain"
)

var (
	ErrUnknownAccount    = errors.New("unknown account")
	ErrAccountExists     = errors.New("account already exists")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrBalanceOverflow   = errors.New("balance overflow")
	ErrAssetMismatch     = errors.New("asset mismatch between accounts")
	ErrNotAuthorized     = errors.New("transfer not authorized")
)

// Authority is the credential presented with a transfer. Exactly one of the
// two forms applies: the owner of the source account, or a delegation proof
// matching the proof registered on a pool vault.
type Authority struct {
	Owner domain.AccountID
	Proof *domain.DelegationProof
}

// OwnerAuthority authorizes as the account owner.
func OwnerAuthority(owner domain.AccountID) Authority {
	return Authority{Owner: owner}
}

// DelegateAuthority authorizes with a pool's delegation proof.
func DelegateAuthority(proof domain.DelegationProof) Authority {
	return Authority{Proof: &proof}
}

// Transfer moves Amount of one asset between two accounts holding that asset.
type Transfer struct {
	From      domain.AccountID
	To        domain.AccountID
	Amount    uint64
	Authority Authority
}

// Ledger is the custody surface the pool core calls into.
type Ledger interface {
	// BalanceOf returns the live balance of the account.
	BalanceOf(ctx context.Context, account domain.AccountID) (uint64, error)
	// Transfer applies a single movement.
	Transfer(ctx context.Context, t Transfer) error
	// ApplyBatch validates every leg against current state, including the
	// effects of earlier legs in the same batch, then applies all of them or
	// none.
	ApplyBatch(ctx context.Context, batch []Transfer) error
}
