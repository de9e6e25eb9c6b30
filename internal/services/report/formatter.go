// Package report renders valuation reports and ledger listings as markdown
package report

import (
	"bytes"
	"fmt"

	"github.com/Rhymond/go-money"
	md "github.com/nao1215/markdown"
	"github.com/shopspring/decimal"

	"github.com/bobmcallan/stocktracker/internal/models"
)

// NA marks a figure that could not be computed.
const NA = "N/A"

// Title heads every valuation report.
const Title = "Stock Portfolio Tracker"

// currency returns a never nil currency; unknown codes format without a symbol.
func currency(code string) money.Currency {
	return *money.New(0, code).Currency()
}

// FormatMoney formats amount in the given ISO currency ("$1,800.00").
func FormatMoney(amount decimal.Decimal, code string) string {
	cur := currency(code)
	minor := amount.Shift(int32(cur.Fraction)).Round(0)
	return cur.Formatter().Format(minor.IntPart())
}

// FormatSignedMoney is FormatMoney with an explicit "+" on gains.
func FormatSignedMoney(amount decimal.Decimal, code string) string {
	s := FormatMoney(amount, code)
	if amount.Round(int32(currency(code).Fraction)).IsPositive() {
		return "+" + s
	}
	return s
}

// FormatSignedPct formats p as "+20.00%".
func FormatSignedPct(p decimal.Decimal) string {
	s := p.StringFixed(2) + "%"
	if p.Round(2).IsPositive() {
		return "+" + s
	}
	return s
}

func formatProfitLoss(v models.Valuation, code string) string {
	if !v.ProfitLoss.Valid {
		return NA
	}
	s := FormatSignedMoney(v.ProfitLoss.Decimal, code)
	if v.ProfitLossPercent.Valid {
		s += " (" + FormatSignedPct(v.ProfitLossPercent.Decimal) + ")"
	}
	return s
}

// FormatMarkdown renders r as a markdown document: one row per holding,
// then the totals. Rows without a quote show N/A and are listed with the
// reason underneath.
func FormatMarkdown(r *models.Report, code string) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)
	doc.H1(Title)

	if r == nil || len(r.Valuations) == 0 {
		doc.PlainText("Your portfolio is empty.")
		return doc.String()
	}

	table := md.TableSet{
		Alignment: []md.TableAlignment{
			md.AlignLeft,
			md.AlignRight,
			md.AlignRight,
			md.AlignRight,
			md.AlignRight,
			md.AlignRight,
			md.AlignLeft,
		},
		Header: []string{"Symbol", "Shares", "Price", "Value", "P/L", "Daily %", "Purchase Date"},
	}
	for _, v := range r.Valuations {
		row := []string{v.Symbol, v.Shares.String(), NA, NA, NA, NA, v.PurchaseDate.String()}
		if v.Available() {
			row[2] = FormatMoney(v.Quote.Price, code)
			row[3] = FormatMoney(v.Value.Decimal, code)
			row[4] = formatProfitLoss(v, code)
			row[5] = FormatSignedPct(v.Quote.ChangePercent)
		}
		if row[6] == "" {
			row[6] = NA
		}
		table.Rows = append(table.Rows, row)
	}
	doc.Table(table)

	totals := md.TableSet{
		Alignment: []md.TableAlignment{md.AlignLeft, md.AlignRight},
		Header: []string{
			md.Bold("Total Portfolio Value"),
			md.Bold(FormatMoney(r.TotalValue, code)),
		},
	}
	if r.TotalInvestment.IsPositive() {
		totals.Rows = append(totals.Rows, []string{"Total Investment", FormatMoney(r.TotalInvestment, code)})
	}
	if r.TotalProfitLoss.Valid {
		pl := FormatSignedMoney(r.TotalProfitLoss.Decimal, code)
		if r.TotalProfitLossPercent.Valid {
			pl += " (" + FormatSignedPct(r.TotalProfitLossPercent.Decimal) + ")"
		}
		totals.Rows = append(totals.Rows, []string{"Total Profit/Loss", pl})
	}
	doc.H2("Totals")
	doc.Table(totals)

	if r.Unavailable > 0 {
		doc.H2("Unavailable Quotes")
		var missing []string
		for _, v := range r.Valuations {
			if !v.Available() {
				missing = append(missing, fmt.Sprintf("%s: %s", v.Symbol, v.Reason))
			}
		}
		doc.BulletList(missing...)
	}

	if !r.EvaluatedAt.IsZero() {
		doc.PlainText(md.Italic("Quotes as of " + r.EvaluatedAt.Format("2006-01-02 15:04:05 MST")))
	}
	return doc.String()
}

// FormatLedgerMarkdown renders the stored holdings without fetching quotes.
func FormatLedgerMarkdown(holdings []models.Holding, code string) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)
	doc.H1("Holdings")

	if len(holdings) == 0 {
		doc.PlainText("Your portfolio is empty.")
		return doc.String()
	}

	table := md.TableSet{
		Alignment: []md.TableAlignment{
			md.AlignLeft,
			md.AlignRight,
			md.AlignRight,
			md.AlignRight,
			md.AlignLeft,
		},
		Header: []string{"Symbol", "Shares", "Purchase Price", "Cost Basis", "Purchase Date"},
	}
	for _, h := range holdings {
		price, basis := NA, NA
		if h.HasCostBasis() {
			price = FormatMoney(h.PurchasePrice.Decimal, code)
			basis = FormatMoney(h.CostBasis().Decimal, code)
		}
		date := h.PurchaseDate.String()
		if date == "" {
			date = NA
		}
		table.Rows = append(table.Rows, []string{h.Symbol, h.Shares.String(), price, basis, date})
	}
	doc.Table(table)
	return doc.String()
}
