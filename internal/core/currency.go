package core

import "strings"

const (
	DefaultCurrency = "USD"
	DefaultSymbol   = "$"
)

var currencySymbols = map[string]string{
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
	"INR": "₹",
	"PKR": "₨",
	"AED": "د.إ",
	"PHP": "₱",
}

// SymbolFor returns the display symbol of a supported currency code.
func SymbolFor(code string) (string, bool) {
	s, ok := currencySymbols[strings.ToUpper(strings.TrimSpace(code))]
	return s, ok
}

// NormalizeCurrency upper-cases a code and checks it is supported.
func NormalizeCurrency(code string) (string, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if _, ok := currencySymbols[code]; !ok {
		return "", ErrUnknownCurrency
	}
	return code, nil
}

// Currencies lists the supported codes in a stable order.
func Currencies() []string {
	return []string{"USD", "EUR", "GBP", "INR", "PKR", "AED", "PHP"}
}
