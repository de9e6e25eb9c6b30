// Package models defines data structures for stocktracker
package models

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

func init() {
	// Ledger files keep shares and prices as plain JSON numbers, the same
	// shape a hand-edited portfolio.json has.
	decimal.MarshalJSONWithoutQuotes = true
}

// NormalizeSymbol returns the canonical ledger key for user input: trimmed
// and uppercased.
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// Holding is one ledger entry. Shares is strictly positive; PurchasePrice is
// the per-share cost basis recorded when the holding was opened and is
// invalid (null) when unknown.
type Holding struct {
	Symbol        string              `json:"-"`
	Shares        decimal.Decimal     `json:"shares"`
	PurchasePrice decimal.NullDecimal `json:"purchase_price"`
	PurchaseDate  Date                `json:"purchase_date"`
}

// HasCostBasis reports whether the purchase price is known.
func (h Holding) HasCostBasis() bool {
	return h.PurchasePrice.Valid
}

// CostBasis returns Shares × PurchasePrice, invalid when the price is unknown.
func (h Holding) CostBasis() decimal.NullDecimal {
	if !h.HasCostBasis() {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(h.Shares.Mul(h.PurchasePrice.Decimal))
}

// Ledger maps normalized symbols to holdings. The map key is authoritative;
// Holding.Symbol is filled in from it on load.
type Ledger map[string]Holding

// NewLedger returns an empty ledger.
func NewLedger() Ledger {
	return make(Ledger)
}

// Symbols returns the ledger keys in ascending order.
func (l Ledger) Symbols() []string {
	symbols := make([]string, 0, len(l))
	for s := range l {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)
	return symbols
}

// Holdings returns a copy of every holding ordered by symbol.
func (l Ledger) Holdings() []Holding {
	out := make([]Holding, 0, len(l))
	for _, s := range l.Symbols() {
		h := l[s]
		h.Symbol = s
		out = append(out, h)
	}
	return out
}

// Clone returns a shallow copy safe to hand to a store.
func (l Ledger) Clone() Ledger {
	c := make(Ledger, len(l))
	for k, v := range l {
		v.Symbol = k
		c[k] = v
	}
	return c
}

// Normalize rekeys the ledger by normalized symbol and syncs Holding.Symbol.
// Stores call it after decoding so hand-edited files with lowercase keys
// still satisfy the one-holding-per-symbol invariant. Duplicate keys that
// collapse onto the same symbol are merged the way Add merges them.
func (l Ledger) Normalize() Ledger {
	out := make(Ledger, len(l))
	keys := make([]string, 0, len(l))
	for k := range l {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		h := l[k]
		sym := NormalizeSymbol(k)
		if existing, ok := out[sym]; ok {
			existing.Shares = existing.Shares.Add(h.Shares)
			out[sym] = existing
			continue
		}
		h.Symbol = sym
		out[sym] = h
	}
	return out
}

// Validate reports the first holding, in symbol order, that no mutation could
// have produced: non-positive shares or a negative purchase price. Stores
// call it after decoding so a hand-edited ledger is rejected on load.
func (l Ledger) Validate() error {
	for _, sym := range l.Symbols() {
		h := l[sym]
		if !h.Shares.IsPositive() {
			return fmt.Errorf("%w: %s has %s shares", ErrInvalidQuantity, sym, h.Shares)
		}
		if h.PurchasePrice.Valid && h.PurchasePrice.Decimal.IsNegative() {
			return fmt.Errorf("%w: %s has purchase price %s", ErrInvalidPrice, sym, h.PurchasePrice.Decimal)
		}
	}
	return nil
}
