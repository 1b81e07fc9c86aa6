package trail

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSafeAdd(t *testing.T) {
	res, err := SafeAdd(big.NewInt(2), big.NewInt(3))
	require.NoError(t, err)
	require.EqualValues(t, 5, res.Int64())

	res, err = SafeAdd(nil, big.NewInt(3))
	require.NoError(t, err)
	require.EqualValues(t, 3, res.Int64())

	res, err = SafeAdd(new(big.Int).Sub(MaxAmount, big.NewInt(1)), big.NewInt(1))
	require.NoError(t, err)
	require.Equal(t, 0, res.Cmp(MaxAmount))

	_, err = SafeAdd(MaxAmount, big.NewInt(1))
	require.ErrorIs(t, err, ErrOverflow)

	_, err = SafeAdd(big.NewInt(1), big.NewInt(-1))
	require.ErrorIs(t, err, ErrNegativeAmount)
}

func TestSafeSub(t *testing.T) {
	res, err := SafeSub(big.NewInt(100), big.NewInt(40))
	require.NoError(t, err)
	require.EqualValues(t, 60, res.Int64())

	res, err = SafeSub(big.NewInt(60), big.NewInt(60))
	require.NoError(t, err)
	require.Zero(t, res.Sign())

	_, err = SafeSub(nil, big.NewInt(1))
	require.ErrorIs(t, err, ErrUnderflow)

	_, err = SafeSub(big.NewInt(-1), big.NewInt(0))
	require.ErrorIs(t, err, ErrNegativeAmount)
}

func TestMaxAmount(t *testing.T) {
	require.Equal(t, 255, MaxAmount.BitLen())
	require.Equal(t, 1, MaxAmount.Sign())
}
