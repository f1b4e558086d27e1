// Package domain defines core data structures of the pool accounting core.
package domain

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// AssetID identifies a fungible asset type.
type AssetID string

// AccountID is the address of a custody account.
type AccountID = common.Address

// Pair is a pair of asset types served by one pool. Pools are keyed by the
// unordered pair, so {A, B} and {B, A} name the same pool.
type Pair struct {
	// A base asset.
	A AssetID
	// B quote asset.
	B AssetID
}

// Ordered returns the pair's assets in canonical (lexicographic) order.
func (p Pair) Ordered() (lo, hi AssetID) {
	if p.B < p.A {
		return p.B, p.A
	}
	return p.A, p.B
}

// String returns the canonical string representation.
func (p Pair) String() string {
	lo, hi := p.Ordered()
	return fmt.Sprintf("%s_%s", lo, hi)
}

// Validate checks that the pair names two distinct non-empty assets.
func (p Pair) Validate() error {
	if p.A == "" || p.B == "" {
		return ErrEmptyAsset
	}
	if p.A == p.B {
		return ErrSameAsset
	}
	return nil
}
