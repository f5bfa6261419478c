// Package money converts between decimal amounts and the integer cents the
// store keeps, and formats amounts for people.
package money

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// ErrPrecision is returned for amounts finer than one cent.
var ErrPrecision = errors.New("amount has more than 2 decimal places")

// ToCents converts d to integer cents without rounding.
func ToCents(d decimal.Decimal) (int64, error) {
	shifted := d.Shift(2)
	if !shifted.Equal(shifted.Truncate(0)) {
		return 0, fmt.Errorf("%s: %w", d.String(), ErrPrecision)
	}
	return shifted.IntPart(), nil
}

func FromCents(c int64) decimal.Decimal {
	return decimal.New(c, -2)
}

// Parse reads a user-supplied amount such as "2.50".
func Parse(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse amount %q: %w", s, err)
	}
	if _, err := ToCents(d); err != nil {
		return decimal.Zero, err
	}
	return d, nil
}

// Formatter renders amounts in one currency, e.g. "$2.50" for USD.
type Formatter struct {
	unit    currency.Unit
	printer *message.Printer
}

// NewFormatter returns a Formatter for an ISO 4217 code. Unknown codes fall
// back to USD.
func NewFormatter(code string) *Formatter {
	unit, err := currency.ParseISO(code)
	if err != nil {
		unit = currency.USD
	}
	return &Formatter{unit: unit, printer: message.NewPrinter(language.English)}
}

func (f *Formatter) Format(d decimal.Decimal) string {
	amount, _ := d.Round(2).Float64()
	return f.printer.Sprint(currency.Symbol(f.unit.Amount(amount)))
}

func (f *Formatter) Code() string {
	return f.unit.String()
}
