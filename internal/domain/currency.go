// internal/domain/currency.go
package domain

import "strings"

// CurrencyEntry binds a wallet currency to its payout country and system accounts.
type CurrencyEntry struct {
	Currency          string
	Country           string // ISO 3166-1 alpha-2, optional
	ClearingAccountID int64  // Credited with the amount of non-wallet transfers
	FeeAccountID      int64  // Credited with every fee
}

// CurrencyTable is loaded once at startup and is read-only afterwards.
type CurrencyTable struct {
	byCurrency map[string]CurrencyEntry
	byCountry  map[string]string
}

// NewCurrencyTable indexes entries by currency and by country. Later duplicates win.
func NewCurrencyTable(entries []CurrencyEntry) *CurrencyTable {
	t := &CurrencyTable{
		byCurrency: make(map[string]CurrencyEntry, len(entries)),
		byCountry:  make(map[string]string, len(entries)),
	}
	for _, e := range entries {
		e.Currency = strings.ToUpper(e.Currency)
		e.Country = strings.ToUpper(e.Country)
		t.byCurrency[e.Currency] = e
		if e.Country != "" {
			t.byCountry[e.Country] = e.Currency
		}
	}
	return t
}

// Lookup returns the entry for a currency code.
func (t *CurrencyTable) Lookup(currency string) (CurrencyEntry, bool) {
	if t == nil {
		return CurrencyEntry{}, false
	}
	e, ok := t.byCurrency[strings.ToUpper(currency)]
	return e, ok
}

// CurrencyForCountry returns the wallet currency configured for a payout country.
func (t *CurrencyTable) CurrencyForCountry(country string) (string, bool) {
	if t == nil {
		return "", false
	}
	c, ok := t.byCountry[strings.ToUpper(country)]
	return c, ok
}
