package domain

// SwapDirection tells which asset the trader pays in.
type SwapDirection int

const (
	// DirectionAToB pays asset A, receives asset B.
	DirectionAToB SwapDirection = iota
	// DirectionBToA pays asset B, receives asset A.
	DirectionBToA
)

// String returns the string representation.
func (d SwapDirection) String() string {
	if d == DirectionBToA {
		return "b_to_a"
	}
	return "a_to_b"
}
