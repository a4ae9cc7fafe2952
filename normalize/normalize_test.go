package normalize

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestText(t *testing.T) {
	assert.Nil(t, Text(""))
	assert.Nil(t, Text("   \n\t "))

	got := Text("  Cozy Loft  ")
	require.NotNil(t, got)
	assert.Equal(t, "Cozy Loft", *got)
}

func TestPrice(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want *float64
	}{
		{"thousands separator", "$1,234", f(1234)},
		{"per night suffix", "€56 / night", f(56)},
		{"decimal", "71.50", f(71.5)},
		{"no digits", "call for price", nil},
		{"empty", "", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Price(tt.raw)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, *tt.want, *got)
		})
	}
}

func TestPriceWithCurrency(t *testing.T) {
	price, cur := PriceWithCurrency("$1,234")
	require.NotNil(t, price)
	assert.Equal(t, 1234.0, *price)
	assert.Equal(t, "$", cur)

	price, cur = PriceWithCurrency("€56 / night")
	require.NotNil(t, price)
	assert.Equal(t, 56.0, *price)
	assert.Equal(t, "€", cur)

	price, cur = PriceWithCurrency("£99")
	require.NotNil(t, price)
	assert.Equal(t, 99.0, *price)
	assert.Equal(t, "£", cur)

	// No symbol: price still parsed, currency defaults.
	price, cur = PriceWithCurrency("120 per night")
	require.NotNil(t, price)
	assert.Equal(t, 120.0, *price)
	assert.Equal(t, DefaultCurrency, cur)

	price, cur = PriceWithCurrency("no digits here")
	assert.Nil(t, price)
	assert.Equal(t, DefaultCurrency, cur)
}

func TestCount(t *testing.T) {
	assert.Equal(t, 128, Count("128 reviews"))
	assert.Equal(t, 0, Count("no reviews yet"))
	assert.Equal(t, 0, Count(""))
	assert.Equal(t, 4, Count("rated by 4 guests"))
}

func TestRating(t *testing.T) {
	got := Rating("4.82 out of 5")
	require.NotNil(t, got)
	assert.Equal(t, 4.82, *got)

	assert.Nil(t, Rating("9.9"))
	assert.Nil(t, Rating("New listing"))
}

func TestJoinDate(t *testing.T) {
	got := JoinDate("Joined in March 2019")
	require.NotNil(t, got)
	assert.Equal(t, time.Date(2019, time.March, 1, 0, 0, 0, 0, time.UTC), *got)

	got = JoinDate("December 2021")
	require.NotNil(t, got)
	assert.Equal(t, time.Date(2021, time.December, 1, 0, 0, 0, 0, time.UTC), *got)

	assert.Nil(t, JoinDate("Joined recently"))
	assert.Nil(t, JoinDate("Gormo 2019"))
	assert.Nil(t, JoinDate(""))
}

func TestAmenityKey(t *testing.T) {
	assert.Equal(t, AmenityKey("WiFi"), AmenityKey(" wifi "))
	assert.NotEqual(t, AmenityKey("WiFi"), AmenityKey("Pool"))
}

func f(v float64) *float64 { return &v }
