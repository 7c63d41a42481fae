package sitegen

import (
	"fmt"
	"math"
	"strings"
	"time"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/eringen/sitegen/engine"
)

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006-01",
	"2006",
}

// parseDate accepts ISO-8601 strings, time.Time values and numbers as
// milliseconds since the Unix epoch. Times without a zone are UTC.
func parseDate(v any) (time.Time, bool) {
	switch x := v.(type) {
	case time.Time:
		return x, !x.IsZero()
	case string:
		s := strings.TrimSpace(x)
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, true
			}
		}
		return time.Time{}, false
	}
	if ms, ok := engine.Number(v); ok && !math.IsNaN(ms) && !math.IsInf(ms, 0) {
		return time.UnixMilli(int64(ms)).UTC(), true
	}
	return time.Time{}, false
}

// formatDate(date, format): "January 2, 2006" for the default "long" format,
// "Jan 2, 2006" for any other. Unparseable dates give "Invalid Date".
func formatDate(args ...any) any {
	t, ok := parseDate(arg(args, 0))
	if !ok {
		return "Invalid Date"
	}
	layout := "January 2, 2006"
	if f := arg(args, 1); f != nil && engine.Stringify(f) != "long" {
		layout = "Jan 2, 2006"
	}
	return t.Format(layout)
}

var currencyPrinter = message.NewPrinter(language.AmericanEnglish)

// formatCurrency(amount, code): amount in US English currency notation for
// the ISO 4217 code (default USD), e.g. "$1,234.50". A nil amount gives
// "Custom"; an unknown code panics, which the renderer reports as a helper
// error.
func formatCurrency(args ...any) any {
	amount := arg(args, 0)
	if amount == nil {
		return "Custom"
	}
	code := "USD"
	if c := arg(args, 1); c != nil {
		code = engine.Stringify(c)
	}
	unit, err := currency.ParseISO(code)
	if err != nil {
		panic(fmt.Errorf("invalid currency code %q", code))
	}
	return FormatMoney(toNumber(amount), unit)
}

// FormatMoney formats f with the currency's standard number of decimals,
// grouping and symbol. Halves round away from zero.
func FormatMoney(f float64, unit currency.Unit) string {
	symbol := currencyPrinter.Sprint(currency.Symbol(unit))
	if len(symbol) > 1 && symbol == unit.String() {
		symbol += " "
	}
	if math.IsNaN(f) {
		return symbol + "NaN"
	}
	sign := ""
	if f < 0 {
		sign = "-"
		f = -f
	}
	// Half away from zero; x/text alone rounds half to even.
	scale, _ := currency.Standard.Rounding(unit)
	p := math.Pow10(scale)
	f = math.Round(f*p) / p
	return sign + symbol + currencyPrinter.Sprint(number.Decimal(f, number.Scale(scale)))
}
