package domain

import "github.com/pkg/errors"

var (
	// ErrPoolExists is returned when a pool for the unordered asset pair was already created.
	ErrPoolExists = errors.New("pool already exists")
	// ErrPoolNotFound is returned when no pool was created for the asset pair.
	ErrPoolNotFound = errors.New("pool not found")
	// ErrMathOverflow is returned when a swap computation would overflow uint64
	// or divide by zero.
	ErrMathOverflow = errors.New("math overflow")
	// ErrSlippageTooHigh is returned when the computed output is below the
	// caller's minimum acceptable output.
	ErrSlippageTooHigh = errors.New("slippage too high")

	// ErrEmptyAsset and ErrSameAsset reject malformed pairs before any derivation.
	ErrEmptyAsset = errors.New("asset id is empty")
	ErrSameAsset  = errors.New("pair assets must differ")
)
