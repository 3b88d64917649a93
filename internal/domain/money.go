package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"strings"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DefaultCurrency is the currency of prices that arrive without one
const DefaultCurrency = "COP"

// Money represents a monetary value with currency.
// Amount is stored in the smallest currency unit (cents).
type Money struct {
	amount   int64
	currency string
}

var (
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrInvalidCurrency   = errors.New("invalid currency code")
	ErrCurrencyMismatch  = errors.New("currency mismatch")
	ErrNegativeMoney     = errors.New("money amount cannot be negative")
	ErrInvalidMultiplier = errors.New("multiplier must not be negative")
	ErrAmountOverflow    = errors.New("money amount out of range")
)

// NewMoney creates a new Money value object from cents
func NewMoney(amount int64, currency string) (Money, error) {
	if amount < 0 {
		return Money{}, ErrNegativeMoney
	}
	if len(currency) != 3 {
		return Money{}, ErrInvalidCurrency
	}
	return Money{amount: amount, currency: strings.ToUpper(currency)}, nil
}

// ZeroMoney creates a zero money value
func ZeroMoney(currency string) Money {
	return Money{currency: currency}
}

// MoneyFromDecimal converts a decimal amount (e.g. 12.50) into Money
func MoneyFromDecimal(d decimal.Decimal, currency string) (Money, error) {
	if d.IsNegative() {
		return Money{}, ErrNegativeMoney
	}
	if currency == "" {
		currency = DefaultCurrency
	}
	return NewMoney(d.Shift(2).Round(0).IntPart(), currency)
}

// ParseMoney parses a decimal string such as "20.00"
func ParseMoney(s, currency string) (Money, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	return MoneyFromDecimal(d, currency)
}

// MustMoney parses s in the default currency and panics on error
func MustMoney(s string) Money {
	m, err := ParseMoney(s, DefaultCurrency)
	if err != nil {
		panic(err)
	}
	return m
}

// Amount returns the amount in cents
func (m Money) Amount() int64 {
	return m.amount
}

// Currency returns the ISO 4217 currency code
func (m Money) Currency() string {
	return m.currency
}

// IsZero returns true if the amount is zero
func (m Money) IsZero() bool {
	return m.amount == 0
}

// Decimal returns the amount in major units
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.amount, -2)
}

// compatible treats an unset currency on a zero value as matching anything
func (m Money) compatible(other Money) (string, bool) {
	switch {
	case m.currency == other.currency:
		return m.currency, true
	case m.currency == "" && m.amount == 0:
		return other.currency, true
	case other.currency == "" && other.amount == 0:
		return m.currency, true
	}
	return "", false
}

// Add adds two money values of the same currency
func (m Money) Add(other Money) (Money, error) {
	currency, ok := m.compatible(other)
	if !ok {
		return Money{}, ErrCurrencyMismatch
	}
	if other.amount > math.MaxInt64-m.amount {
		return Money{}, ErrAmountOverflow
	}
	return Money{amount: m.amount + other.amount, currency: currency}, nil
}

// Multiply multiplies the amount by a quantity
func (m Money) Multiply(qty int) (Money, error) {
	if qty < 0 {
		return Money{}, ErrInvalidMultiplier
	}
	if qty > 0 && m.amount > math.MaxInt64/int64(qty) {
		return Money{}, ErrAmountOverflow
	}
	return Money{amount: m.amount * int64(qty), currency: m.currency}, nil
}

// Equals checks if two money values are equal (amount and currency)
func (m Money) Equals(other Money) bool {
	return m.amount == other.amount && m.currency == other.currency
}

// String renders the amount with two decimals and the currency code
func (m Money) String() string {
	return m.Decimal().StringFixed(2) + " " + m.currency
}

// Format renders the amount with thousands separators, e.g. "$1,234.50"
func (m Money) Format() string {
	fixed := m.Decimal().StringFixed(2)
	intPart, frac, _ := strings.Cut(fixed, ".")

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return "$" + b.String() + "." + frac
}

type moneyJSON struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}

// MarshalJSON renders {"amount":"12.50","currency":"COP"}
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Amount   string `json:"amount"`
		Currency string `json:"currency"`
	}{m.Decimal().StringFixed(2), m.currency})
}

// UnmarshalJSON accepts the object form or a bare number or numeric string
func (m *Money) UnmarshalJSON(data []byte) error {
	var v moneyJSON
	if bytes.HasPrefix(bytes.TrimSpace(data), []byte("{")) {
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
	} else if err := json.Unmarshal(data, &v.Amount); err != nil {
		return ErrInvalidAmount
	}

	parsed, err := MoneyFromDecimal(v.Amount, v.Currency)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// MarshalBSONValue implements bson.ValueMarshaler
func (m Money) MarshalBSONValue() (bsontype.Type, []byte, error) {
	doc := primitive.D{
		{Key: "amount", Value: m.amount},
		{Key: "currency", Value: m.currency},
	}
	return bson.MarshalValue(doc)
}

// UnmarshalBSONValue implements bson.ValueUnmarshaler
func (m *Money) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	var doc struct {
		Amount   int64  `bson:"amount"`
		Currency string `bson:"currency"`
	}
	if err := bson.UnmarshalValue(t, data, &doc); err != nil {
		return err
	}
	m.amount = doc.Amount
	m.currency = doc.Currency
	return nil
}
