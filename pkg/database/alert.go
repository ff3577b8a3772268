package database

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"StockWatch/pkg/model"
)

// AlertDB 价格提醒的全局视角，供监控任务跨用户扫描。
// 按归属读写走WatchlistDB的存储契约
type AlertDB struct {
	db *gorm.DB
}

// GetAllActive 获取所有活跃的价格提醒
func (a *AlertDB) GetAllActive(ctx context.Context) ([]*model.PriceAlert, error) {
	var alerts []*model.PriceAlert
	err := a.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("symbol, created_at").
		Find(&alerts).Error
	if err != nil {
		return nil, fmt.Errorf("查询活跃提醒失败: %w", err)
	}
	return alerts, nil
}

// MarkTriggered 记录触发时间并停用提醒（一次性触发语义）
func (a *AlertDB) MarkTriggered(ctx context.Context, alertID string, at time.Time) error {
	err := a.db.WithContext(ctx).Model(&model.PriceAlert{}).
		Where("id = ?", alertID).
		Updates(map[string]interface{}{
			"last_triggered_at": at,
			"is_active":         false,
		}).Error
	if err != nil {
		return fmt.Errorf("记录提醒触发失败: %w", err)
	}
	return nil
}
