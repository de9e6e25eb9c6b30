package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Quote is a point-in-time market snapshot for one symbol. Never persisted.
type Quote struct {
	Symbol        string          `json:"symbol"`
	Price         decimal.Decimal `json:"price"`
	Change        decimal.Decimal `json:"change"`         // absolute change from previous close
	ChangePercent decimal.Decimal `json:"change_percent"` // percentage change from previous close
	DayHigh       decimal.Decimal `json:"day_high"`
	DayLow        decimal.Decimal `json:"day_low"`
	Volume        int64           `json:"volume"`
	Timestamp     time.Time       `json:"timestamp"`
	Source        string          `json:"source,omitempty"` // provider that served the quote
}
