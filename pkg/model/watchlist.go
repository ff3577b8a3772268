package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// MaxWatchlistItems 每个自选股列表的条目上限
const MaxWatchlistItems = 20

// WatchlistItem 自选股条目
type WatchlistItem struct {
	ID            string           `gorm:"type:uuid;primaryKey" json:"id"`
	UserID        string           `gorm:"type:uuid;index:idx_user_symbol,unique" json:"user_id,omitempty"`
	Symbol        string           `gorm:"type:varchar(20);not null;index:idx_user_symbol,unique" json:"symbol"` // 统一存储为大写
	Alias         *string          `gorm:"type:varchar(100)" json:"alias,omitempty"`
	TargetPrice   *decimal.Decimal `gorm:"type:decimal(18,4)" json:"target_price,omitempty"`
	StopLossPrice *decimal.Decimal `gorm:"type:decimal(18,4)" json:"stop_loss_price,omitempty"`
	AlertsEnabled bool             `gorm:"default:false" json:"alerts_enabled"`
	SortOrder     int              `gorm:"default:0" json:"sort_order"`
	AddedAt       time.Time        `json:"added_at"`

	// 行情为瞬态数据，每次请求重新获取，不落库
	Quote *Quote `gorm:"-" json:"quote,omitempty"`
}

func (w *WatchlistItem) BeforeCreate(tx *gorm.DB) error {
	if w.ID == "" {
		w.ID = uuid.New().String()
	}
	return nil
}

func (WatchlistItem) TableName() string {
	return "watchlist_items"
}
