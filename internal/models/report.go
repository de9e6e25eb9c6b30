package models

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Valuation is one report row: a holding combined with the outcome of its
// quote fetch. Figures that cannot be computed are invalid, never zero.
type Valuation struct {
	Symbol            string              `json:"symbol"`
	Shares            decimal.Decimal     `json:"shares"`
	PurchasePrice     decimal.NullDecimal `json:"purchase_price"`
	PurchaseDate      Date                `json:"purchase_date"`
	Quote             *Quote              `json:"quote,omitempty"`
	Value             decimal.NullDecimal `json:"value"`
	CostBasis         decimal.NullDecimal `json:"cost_basis"`
	ProfitLoss        decimal.NullDecimal `json:"profit_loss"`
	ProfitLossPercent decimal.NullDecimal `json:"profit_loss_percent"`
	Reason            string              `json:"reason,omitempty"` // why the quote is missing
	Err               error               `json:"-"`
}

// Available reports whether the row has a current quote.
func (v Valuation) Available() bool {
	return v.Quote != nil
}

// ComputeValuation builds the row for h. A non-nil fetchErr (or a nil quote)
// yields a row with no current data.
func ComputeValuation(h Holding, q *Quote, fetchErr error) Valuation {
	v := Valuation{
		Symbol:        h.Symbol,
		Shares:        h.Shares,
		PurchasePrice: h.PurchasePrice,
		PurchaseDate:  h.PurchaseDate,
		CostBasis:     h.CostBasis(),
	}

	if fetchErr == nil && q == nil {
		fetchErr = NewQuoteUnavailable(h.Symbol, "no data returned")
	}
	if fetchErr != nil {
		v.Err = fetchErr
		v.Reason = fetchErr.Error()
		var qe *QuoteError
		if errors.As(fetchErr, &qe) {
			v.Reason = qe.Reason
		}
		return v
	}

	v.Quote = q
	value := h.Shares.Mul(q.Price)
	v.Value = decimal.NewNullDecimal(value)

	if v.CostBasis.Valid {
		pl := value.Sub(v.CostBasis.Decimal)
		v.ProfitLoss = decimal.NewNullDecimal(pl)
		if !h.PurchasePrice.Decimal.IsZero() {
			v.ProfitLossPercent = decimal.NewNullDecimal(pl.Div(v.CostBasis.Decimal).Mul(hundred))
		}
	}
	return v
}

// Report is the result of one valuation pass.
type Report struct {
	Valuations             []Valuation         `json:"valuations"`
	TotalValue             decimal.Decimal     `json:"total_value"`
	TotalInvestment        decimal.Decimal     `json:"total_investment"`
	TotalProfitLoss        decimal.NullDecimal `json:"total_profit_loss"`
	TotalProfitLossPercent decimal.NullDecimal `json:"total_profit_loss_percent"`
	Unavailable            int                 `json:"unavailable"`
	EvaluatedAt            time.Time           `json:"evaluated_at"`
}

// NewReport aggregates rows into a Report. Rows without a quote add nothing
// to the totals; the investment-based totals stay invalid unless some
// quoted row carries a positive cost basis.
func NewReport(rows []Valuation, at time.Time) *Report {
	r := &Report{
		Valuations:      rows,
		TotalValue:      decimal.Zero,
		TotalInvestment: decimal.Zero,
		EvaluatedAt:     at,
	}
	for _, v := range rows {
		if !v.Available() {
			r.Unavailable++
			continue
		}
		r.TotalValue = r.TotalValue.Add(v.Value.Decimal)
		if v.CostBasis.Valid {
			r.TotalInvestment = r.TotalInvestment.Add(v.CostBasis.Decimal)
		}
	}
	if r.TotalInvestment.IsPositive() {
		pl := r.TotalValue.Sub(r.TotalInvestment)
		r.TotalProfitLoss = decimal.NewNullDecimal(pl)
		r.TotalProfitLossPercent = decimal.NewNullDecimal(pl.Div(r.TotalInvestment).Mul(hundred))
	}
	return r
}
