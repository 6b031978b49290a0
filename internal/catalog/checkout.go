package catalog

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrEmptyCart is returned when a checkout has no lines.
var ErrEmptyCart = errors.New("cart is empty")

// CartLine is one product in a checkout request.
type CartLine struct {
	Name      string
	Size      string
	Color     string
	Quantity  int
	UnitPrice decimal.Decimal
}

// Total returns quantity times unit price.
func (l CartLine) Total() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// ParseQuantity reads a posted quantity. Anything but a whole number is
// rejected rather than defaulted.
func ParseQuantity(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%w: quantity %q is not a whole number", ErrInvalidInput, s)
	}
	if n < 1 {
		return 0, fmt.Errorf("%w: quantity must be at least 1", ErrInvalidInput)
	}
	return n, nil
}

// CheckoutMessage renders the order summary sent to the shop and returns
// the order total.
func CheckoutMessage(lines []CartLine) (string, decimal.Decimal, error) {
	if len(lines) == 0 {
		return "", decimal.Zero, ErrEmptyCart
	}
	var b strings.Builder
	b.WriteString("Hola! Quiero hacer este pedido:\n")
	total := decimal.Zero
	for _, l := range lines {
		if l.Quantity < 1 {
			return "", decimal.Zero, fmt.Errorf("%w: quantity for %q must be at least 1", ErrInvalidInput, l.Name)
		}
		if l.UnitPrice.IsNegative() {
			return "", decimal.Zero, fmt.Errorf("%w: negative price for %q", ErrInvalidInput, l.Name)
		}
		fmt.Fprintf(&b, "- %d x %s", l.Quantity, l.Name)
		var details []string
		if l.Size != "" {
			details = append(details, l.Size)
		}
		if l.Color != "" {
			details = append(details, l.Color)
		}
		if len(details) > 0 {
			fmt.Fprintf(&b, " (%s)", strings.Join(details, ", "))
		}
		fmt.Fprintf(&b, " - $%s\n", l.Total().StringFixed(2))
		total = total.Add(l.Total())
	}
	fmt.Fprintf(&b, "Total: $%s", total.StringFixed(2))
	return b.String(), total, nil
}

// CheckoutLink builds the wa.me link that opens a chat with phone, with the
// order summary prefilled.
func CheckoutLink(phone string, lines []CartLine) (string, error) {
	digits := PhoneDigits(phone)
	if digits == "" {
		return "", fmt.Errorf("%w: checkout phone number is not configured", ErrInvalidInput)
	}
	msg, _, err := CheckoutMessage(lines)
	if err != nil {
		return "", err
	}
	// WhatsApp renders "+" literally, spaces must be %20.
	text := strings.ReplaceAll(url.QueryEscape(msg), "+", "%20")
	return "https://wa.me/" + digits + "?text=" + text, nil
}

// PhoneDigits strips everything but ASCII digits from a phone number.
func PhoneDigits(phone string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, phone)
}
