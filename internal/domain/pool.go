package domain

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"golang.org/x/crypto/sha3"
)

// Derivation seeds. Addresses and proofs are pure functions of the asset
// pair, so any caller can recompute them without a lookup table.
const (
	poolSeed     = "swapcore/pool"
	vaultASeed   = "vault_a"
	vaultBSeed   = "vault_b"
	delegateSeed = "swapcore/delegate"

	// DelegationSalt is the fixed salt mixed into the delegation proof.
	DelegationSalt uint8 = 0xfe
)

// DelegationProof is the capability a pool presents to the custody ledger to
// authorize transfers out of its own vaults. It is derived from the pool's
// identifying data only; no secret material is involved.
type DelegationProof [32]byte

// Bytes returns the raw underlying byte slice.
func (p DelegationProof) Bytes() []byte {
	return p[:]
}

// Pool is the persistent record of one two-asset constant-product pool.
// AssetA is always the canonically lower asset, so one record serves both
// trade directions. Immutable after creation; only vault balances change.
type Pool struct {
	Address   AccountID       `json:"address"`
	Authority AccountID       `json:"authority"`
	AssetA    AssetID         `json:"asset_a"`
	AssetB    AssetID         `json:"asset_b"`
	VaultA    AccountID       `json:"vault_a"`
	VaultB    AccountID       `json:"vault_b"`
	Salt      uint8           `json:"salt"`
	Proof     DelegationProof `json:"-"`
}

// NewPool derives the full pool record for the pair. authority is recorded
// for information only; it plays no part in swap or deposit authorization.
func NewPool(pair Pair, authority AccountID) Pool {
	addr := DerivePoolAddress(pair)
	return Pool{
		Address:   addr,
		Authority: authority,
		AssetA:    firstOf(pair),
		AssetB:    secondOf(pair),
		VaultA:    DeriveVaultAddress(addr, vaultASeed),
		VaultB:    DeriveVaultAddress(addr, vaultBSeed),
		Salt:      DelegationSalt,
		Proof:     DeriveDelegationProof(pair, DelegationSalt),
	}
}

// Pair returns the pool's asset pair in canonical order.
func (p *Pool) Pair() Pair {
	return Pair{A: p.AssetA, B: p.AssetB}
}

// Vaults returns the reserve accounts ordered by the swap direction:
// the vault funds flow into first, then the vault funds flow out of.
func (p *Pool) Vaults(dir SwapDirection) (in, out AccountID) {
	if dir == DirectionBToA {
		return p.VaultB, p.VaultA
	}
	return p.VaultA, p.VaultB
}

// Assets returns the asset types ordered by the swap direction.
func (p *Pool) Assets(dir SwapDirection) (in, out AssetID) {
	if dir == DirectionBToA {
		return p.AssetB, p.AssetA
	}
	return p.AssetA, p.AssetB
}

// DerivePoolAddress computes the pool's deterministic address from the
// unordered asset pair.
func DerivePoolAddress(pair Pair) AccountID {
	lo, hi := pair.Ordered()
	h := crypto.Keccak256([]byte(poolSeed), []byte(lo), []byte(hi))
	return common.BytesToAddress(h[12:])
}

// DeriveVaultAddress computes a reserve account address from the pool
// address and the vault label.
func DeriveVaultAddress(pool AccountID, label string) AccountID {
	h := crypto.Keccak256(pool.Bytes(), []byte(label))
	return common.BytesToAddress(h[12:])
}

// DeriveDelegationProof computes the pool's vault-spending capability from
// the asset pair and salt.
func DeriveDelegationProof(pair Pair, salt uint8) DelegationProof {
	lo, hi := pair.Ordered()
	d := sha3.New256()
	d.Write([]byte(delegateSeed))
	d.Write([]byte(lo))
	d.Write([]byte(hi))
	d.Write([]byte{salt})
	var proof DelegationProof
	copy(proof[:], d.Sum(nil))
	return proof
}

func firstOf(pair Pair) AssetID {
	lo, _ := pair.Ordered()
	return lo
}

func secondOf(pair Pair) AssetID {
	_, hi := pair.Ordered()
	return hi
}
