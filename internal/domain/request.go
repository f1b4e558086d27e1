package domain

// SwapRequest is one trade against a pool. Never persisted: it either fully
// applies or fails with no effect.
type SwapRequest struct {
	// Pair names the pool.
	Pair Pair
	// Trader is the identity that authorizes the inbound leg.
	Trader AccountID
	// PayFrom is the trader's account holding the input asset.
	PayFrom AccountID
	// ReceiveTo is the trader's account for the output asset.
	ReceiveTo AccountID
	// AmountIn quantity of the input asset, must be positive.
	AmountIn uint64
	// MinAmountOut is the slippage bound: the trade fails unless the computed
	// output is at least this much.
	MinAmountOut uint64
	// Direction tells which asset is paid in.
	Direction SwapDirection
}

// SwapResult reports an executed swap.
type SwapResult struct {
	AmountOut uint64
	// ReserveA and ReserveB are the pool reserves after the swap.
	ReserveA uint64
	ReserveB uint64
}

// DepositRequest adds liquidity to both reserves. No proportionality check
// is applied and no ownership share is recorded.
type DepositRequest struct {
	Pair Pair
	// Depositor authorizes both legs.
	Depositor AccountID
	// FromA and FromB are the depositor's accounts for the two assets,
	// matching the pool's canonical asset order.
	FromA AccountID
	FromB AccountID
	// AmountA and AmountB are the quantities added to the respective reserve.
	AmountA uint64
	AmountB uint64
}
