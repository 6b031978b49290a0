package catalog

import (
	"net/url"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckoutMessage(t *testing.T) {
	msg, total, err := CheckoutMessage([]CartLine{
		{Name: "Air Zoom", Size: "42", Color: "Negro", Quantity: 2, UnitPrice: decimal.RequireFromString("129.90")},
		{Name: "Bolso", Quantity: 1, UnitPrice: decimal.RequireFromString("39.9")},
	})
	require.NoError(t, err)
	assert.Equal(t, "299.70", total.StringFixed(2))
	assert.Contains(t, msg, "- 2 x Air Zoom (42, Negro) - $259.80\n")
	assert.Contains(t, msg, "- 1 x Bolso - $39.90\n")
	assert.True(t, strings.HasSuffix(msg, "Total: $299.70"))
}

func TestCheckoutLink(t *testing.T) {
	link, err := CheckoutLink("+54 9 (11) 5555-0000", []CartLine{
		{Name: "Short & Tee", Quantity: 1, UnitPrice: decimal.NewFromInt(10)},
	})
	require.NoError(t, err)

	u, err := url.Parse(link)
	require.NoError(t, err)
	assert.Equal(t, "wa.me", u.Host)
	assert.Equal(t, "/5491155550000", u.Path)
	assert.NotContains(t, u.RawQuery, "+")
	assert.Contains(t, u.Query().Get("text"), "1 x Short & Tee - $10.00")
}

func TestCheckoutErrors(t *testing.T) {
	_, err := CheckoutLink("5491155550000", nil)
	assert.ErrorIs(t, err, ErrEmptyCart)

	_, err = CheckoutLink("n/a", []CartLine{{Name: "x", Quantity: 1}})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = CheckoutLink("123", []CartLine{{Name: "x", Quantity: 0}})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestParseQuantity(t *testing.T) {
	n, err := ParseQuantity(" 3 ")
	assert.NoError(t, err)
	assert.Equal(t, 3, n)

	for _, in := range []string{"", "two", "1.5", "0", "-2"} {
		_, err := ParseQuantity(in)
		assert.ErrorIs(t, err, ErrInvalidInput, "input %q", in)
	}
}
