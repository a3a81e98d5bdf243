package fixedpoint

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFromIntAndInt(t *testing.T) {
	require.Equal(t, 5, FromInt(5).Int())
	require.Equal(t, -5, FromInt(-5).Int())
	require.Equal(t, 0, FromInt(0).Int())
}

func TestIntRoundsHalfAwayFromZero(t *testing.T) {
	// Exactly one half rounds away from zero in both directions.
	half := FromInt(1).DivInt(2)
	require.Equal(t, 1, half.Int(), "0.5 rounds away from zero")
	require.Equal(t, -1, half.Neg().Int(), "-0.5 rounds away from zero")
}

func TestMulDivRoundTrip(t *testing.T) {
	a := FromInt(7)
	b := FromInt(3)
	require.Equal(t, 21, a.Mul(b).Int())
	require.Equal(t, 2, a.Div(b).Trunc(), "7/3 truncates to 2")
}

func TestAddSub(t *testing.T) {
	a := FromInt(10)
	b := FromInt(3)
	require.Equal(t, 13, a.Add(b).Int())
	require.Equal(t, 7, a.Sub(b).Int())
}
