package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Quote 实时行情，每次请求重新获取，不持久化
type Quote struct {
	Symbol        string          `json:"symbol"`
	Price         decimal.Decimal `json:"price"`
	Change        decimal.Decimal `json:"change"`
	PercentChange string          `json:"percent_change"` // 如 "-0.96%"
	CompanyName   string          `json:"company_name"`
	LastUpdated   time.Time       `json:"last_updated"`
}

// PricePoint 历史行情数据点（日线）
type PricePoint struct {
	Date   time.Time       `json:"date"`
	Open   decimal.Decimal `json:"open"`
	High   decimal.Decimal `json:"high"`
	Low    decimal.Decimal `json:"low"`
	Close  decimal.Decimal `json:"close"`
	Volume int64           `json:"volume"`
}
