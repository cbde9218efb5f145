package valueobject

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// DisplayPlaces is the number of decimal places shown to shoppers
const DisplayPlaces int32 = 2

// Money is a value object representing a storefront amount.
// The storefront prices in a single currency, so only the amount is carried.
// It is immutable - all operations return new Money instances
type Money struct {
	amount decimal.Decimal
}

// NewMoney creates Money from a decimal amount. Negative amounts are rejected.
func NewMoney(amount decimal.Decimal) (Money, error) {
	if amount.IsNegative() {
		return Money{}, errors.New("amount cannot be negative")
	}
	return Money{amount: amount}, nil
}

// MustNewMoney is NewMoney for literals known to be valid
func MustNewMoney(amount decimal.Decimal) Money {
	m, err := NewMoney(amount)
	if err != nil {
		panic(err)
	}
	return m
}

// NewMoneyFromFloat creates Money from a float64 value
func NewMoneyFromFloat(amount float64) (Money, error) {
	return NewMoney(decimal.NewFromFloat(amount))
}

// NewMoneyFromString creates Money from a string such as "19.99" or "$1,299.00"
func NewMoneyFromString(amount string) (Money, error) {
	d, err := ParseAmount(amount)
	if err != nil {
		return Money{}, err
	}
	return NewMoney(d)
}

// ParseAmount reads a displayed price, tolerating a leading "$" and
// thousands separators.
func ParseAmount(s string) (decimal.Decimal, error) {
	clean := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '$', ',', ' ':
		default:
			clean = append(clean, c)
		}
	}
	d, err := decimal.NewFromString(string(clean))
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return d, nil
}

// Zero returns a zero Money
func Zero() Money {
	return Money{amount: decimal.Zero}
}

// Amount returns the exact decimal amount
func (m Money) Amount() decimal.Decimal {
	return m.amount
}

// IsZero returns true if the amount is zero
func (m Money) IsZero() bool {
	return m.amount.IsZero()
}

// IsPositive returns true if the amount is positive
func (m Money) IsPositive() bool {
	return m.amount.IsPositive()
}

// Add returns the sum of two amounts
func (m Money) Add(other Money) Money {
	return Money{amount: m.amount.Add(other.amount)}
}

// MultiplyByInt multiplies the amount by an integer factor without rounding
func (m Money) MultiplyByInt(factor int64) Money {
	return Money{amount: m.amount.Mul(decimal.NewFromInt(factor))}
}

// Equals compares amounts exactly
func (m Money) Equals(other Money) bool {
	return m.amount.Equal(other.amount)
}

// Round rounds half away from zero to the given places
func (m Money) Round(places int32) Money {
	return Money{amount: m.amount.Round(places)}
}

// String returns the exact amount
func (m Money) String() string {
	return m.amount.String()
}

// Fixed returns the amount rounded to two places, e.g. "45.97"
func (m Money) Fixed() string {
	return m.amount.StringFixed(DisplayPlaces)
}

// Display returns the shopper-facing representation, e.g. "$45.97"
func (m Money) Display() string {
	return "$" + m.Fixed()
}

// Float64 returns the amount as float64 (may lose precision)
func (m Money) Float64() float64 {
	f, _ := m.amount.Float64()
	return f
}

// MarshalJSON renders the display-rounded amount as a JSON number
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.Fixed()), nil
}

// UnmarshalJSON accepts either a JSON number or a numeric string
func (m *Money) UnmarshalJSON(data []byte) error {
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		var s string
		if err2 := json.Unmarshal(data, &s); err2 != nil {
			return fmt.Errorf("invalid amount: %w", err)
		}
		n = json.Number(s)
	}
	parsed, err := NewMoneyFromString(n.String())
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Value implements driver.Valuer
func (m Money) Value() (driver.Value, error) {
	return m.amount.String(), nil
}

// Scan implements sql.Scanner
func (m *Money) Scan(value any) error {
	var d decimal.Decimal
	if err := d.Scan(value); err != nil {
		return fmt.Errorf("failed to scan money: %w", err)
	}
	m.amount = d
	return nil
}
