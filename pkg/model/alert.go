package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// AlertDirection 提醒方向
type AlertDirection string

const (
	AlertAbove AlertDirection = "above" // 价格上穿目标价
	AlertBelow AlertDirection = "below" // 价格下穿目标价
)

// PriceAlert 价格提醒。方向在创建时根据目标价与当时现价一次性判定，之后不再重算
type PriceAlert struct {
	ID              string          `gorm:"type:uuid;primaryKey" json:"id"`
	UserID          string          `gorm:"type:uuid;index" json:"user_id,omitempty"`
	Symbol          string          `gorm:"type:varchar(20);not null;index" json:"symbol"`
	TargetValue     decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"target_value"`
	AlertType       AlertDirection  `gorm:"type:varchar(10);not null" json:"alert_type"`
	IsActive        bool            `gorm:"default:true;index" json:"is_active"`
	CreatedAt       time.Time       `json:"created_at"`
	LastTriggeredAt *time.Time      `json:"last_triggered_at,omitempty"`
}

func (a *PriceAlert) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	return nil
}

func (PriceAlert) TableName() string {
	return "price_alerts"
}

// ClassifyAlert 根据目标价与现价判定提醒方向：目标价高于现价为above，否则为below
func ClassifyAlert(target, current decimal.Decimal) AlertDirection {
	if target.GreaterThan(current) {
		return AlertAbove
	}
	return AlertBelow
}

// Triggered 判断当前价格是否触发该提醒
func (a *PriceAlert) Triggered(price decimal.Decimal) bool {
	switch a.AlertType {
	case AlertAbove:
		return price.GreaterThanOrEqual(a.TargetValue)
	case AlertBelow:
		return price.LessThanOrEqual(a.TargetValue)
	}
	return false
}

// AlertTriggeredEvent 提醒触发事件，发布到消息总线
type AlertTriggeredEvent struct {
	AlertID     string          `json:"alert_id"`
	UserID      string          `json:"user_id"`
	Symbol      string          `json:"symbol"`
	AlertType   AlertDirection  `json:"alert_type"`
	TargetValue decimal.Decimal `json:"target_value"`
	Price       decimal.Decimal `json:"price"`
	TriggeredAt time.Time       `json:"triggered_at"`
}
