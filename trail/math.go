package trail

import (
	"errors"
	"math/big"
)

var (
	// ErrOverflow is returned when the result exceeds MaxAmount.
	ErrOverflow = errors.New("arithmetic overflow")
	// ErrUnderflow is returned when the result would be negative.
	ErrUnderflow = errors.New("arithmetic underflow")
	// ErrNegativeAmount is returned for negative operands.
	ErrNegativeAmount = errors.New("negative amount")
)

// MaxAmount is the largest balance the vault can hold, the maximum NeoVM
// integer 2^255-1.
var MaxAmount = func() *big.Int {
	max := new(big.Int).Lsh(big.NewInt(1), 255)
	return max.Sub(max, big.NewInt(1))
}()

// SafeAdd returns a+b or ErrOverflow if the sum exceeds MaxAmount. nil
// operands are treated as zero.
func SafeAdd(a, b *big.Int) (*big.Int, error) {
	a, b = orZero(a), orZero(b)
	if a.Sign() < 0 || b.Sign() < 0 {
		return nil, ErrNegativeAmount
	}

	res := new(big.Int).Add(a, b)
	if res.Cmp(MaxAmount) > 0 {
		return nil, ErrOverflow
	}
	return res, nil
}

// SafeSub returns a-b or ErrUnderflow if b is greater than a. nil operands
// are treated as zero.
func SafeSub(a, b *big.Int) (*big.Int, error) {
	a, b = orZero(a), orZero(b)
	if a.Sign() < 0 || b.Sign() < 0 {
		return nil, ErrNegativeAmount
	}

	if a.Cmp(b) < 0 {
		return nil, ErrUnderflow
	}
	return new(big.Int).Sub(a, b), nil
}

func orZero(x *big.Int) *big.Int {
	if x == nil {
		return new(big.Int)
	}
	return x
}
