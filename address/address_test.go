package address

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestString_Checksum(t *testing.T) {
	vectors := []string{
		"0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed",
		"0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359",
		"0xdbF03B407c01E7cD3CBea99509d93f8DDDC8C6FB",
		"0xD1220A0cf47c7B9Be7A2E6BA89F429762e7b9aDb",
	}
	for _, v := range vectors {
		t.Run(v, func(t *testing.T) {
			a, err := Parse(v)
			require.NoError(t, err)
			assert.Equal(t, v, a.String())
		})
	}
}

func TestParse(t *testing.T) {
	lower := "0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed"
	a, err := Parse(lower)
	require.NoError(t, err)
	assert.Equal(t, lower, a.Hex())

	b, err := Parse("5AAEB6053F3E94C9B9A09F33669435E7EF1BEAED")
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"empty", ""},
		{"short", "0x1234"},
		{"not hex", "0xzzaeb6053f3e94c9b9a09f33669435e7ef1beaed"},
		{"bad checksum", "0x5AAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.in)
			assert.ErrorIs(t, err, ErrInvalidAddress)
		})
	}
}

func TestTextRoundTrip(t *testing.T) {
	a := FromName("alice")
	text, err := a.MarshalText()
	require.NoError(t, err)

	var b Address
	require.NoError(t, b.UnmarshalText(text))
	assert.Equal(t, a, b)
}

func TestDerive(t *testing.T) {
	owner := FromName("contributor")

	p1 := Derive("pool", owner, 1)
	p2 := Derive("pool", owner, 2)
	assert.NotEqual(t, p1, p2)
	assert.Equal(t, p1, Derive("pool", owner, 1))
	assert.NotEqual(t, p1, Derive("share", owner, 1))
	assert.False(t, p1.IsZero())
}

func TestResolve(t *testing.T) {
	a, err := Resolve("bob")
	require.NoError(t, err)
	assert.Equal(t, FromName("bob"), a)

	hexAddr := FromName("carol").Hex()
	b, err := Resolve(hexAddr)
	require.NoError(t, err)
	assert.Equal(t, FromName("carol"), b)

	_, err = Resolve("")
	assert.ErrorIs(t, err, ErrInvalidAddress)
	assert.True(t, Zero.IsZero())
}
