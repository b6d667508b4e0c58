package amount

import (
	"errors"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAndFormat(t *testing.T) {
	cases := map[string]struct {
		in    string
		units string
		out   string
	}{
		"whole":       {in: "100", units: "100000000000000000000", out: "100"},
		"fraction":    {in: "3.3", units: "3300000000000000000", out: "3.3"},
		"smallest":    {in: "0.000000000000000001", units: "1", out: "0.000000000000000001"},
		"trailing":    {in: "1.500", units: "1500000000000000000", out: "1.5"},
		"zero":        {in: "0", units: "0", out: "0"},
		"full digits": {in: "3.333333333333333333", units: "3333333333333333333", out: "3.333333333333333333"},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			v, err := Parse(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.units, v.Dec())
			assert.Equal(t, tc.out, Format(v))
		})
	}
}

func TestParseRejects(t *testing.T) {
	for _, in := range []string{"", "abc", "-1", "0.0000000000000000001"} {
		_, err := Parse(in)
		require.Error(t, err, in)
		assert.True(t, errors.Is(err, ErrInvalid), "input %q: %v", in, err)
	}

	_, err := Parse("1e80")
	assert.ErrorIs(t, err, ErrOverflow)
}

func TestMulDivTruncates(t *testing.T) {
	deposit := MustParse("10")
	balance := MustParse("30")

	got, err := MulDiv(deposit, MustParse("10"), balance)
	require.NoError(t, err)
	assert.Equal(t, "3.333333333333333333", Format(got))

	got, err = MulDiv(deposit, MustParse("0.0123323231"), balance)
	require.NoError(t, err)
	assert.Equal(t, "0.004110774366666666", Format(got))
}

func TestMulDivWideIntermediate(t *testing.T) {
	max := *new(uint256.Int).SetAllOne()

	got, err := MulDiv(max, max, max)
	require.NoError(t, err)
	assert.Equal(t, max, got)

	_, err = MulDiv(max, max, *uint256.NewInt(1))
	assert.ErrorIs(t, err, ErrOverflow)

	_, err = MulDiv(max, max, uint256.Int{})
	assert.ErrorIs(t, err, ErrDivisionByZero)
}

func TestAddSub(t *testing.T) {
	max := *new(uint256.Int).SetAllOne()

	_, err := Add(max, *uint256.NewInt(1))
	assert.ErrorIs(t, err, ErrOverflow)

	_, err = Sub(*uint256.NewInt(1), *uint256.NewInt(2))
	assert.ErrorIs(t, err, ErrOverflow)

	v, err := Sub(MustParse("10"), MustParse("4.5"))
	require.NoError(t, err)
	assert.Equal(t, "5.5", Format(v))
}
