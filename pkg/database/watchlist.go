package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"StockWatch/pkg/model"
	"StockWatch/pkg/store"
)

// WatchlistDB 用户自选股的持久化后端，按user_id落库，
// (user_id, symbol)唯一约束由数据库保证，并发添加不会产生重复行
type WatchlistDB struct {
	db *gorm.DB
}

// GetWatchlist 按sort_order、added_at排序返回全部条目
func (w *WatchlistDB) GetWatchlist(ctx context.Context, owner model.OwnerKey) ([]*model.WatchlistItem, error) {
	var items []*model.WatchlistItem
	err := w.db.WithContext(ctx).
		Where("user_id = ?", owner.ID).
		Order("sort_order, added_at").
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("查询自选股失败: %w", err)
	}
	return items, nil
}

// AddItem 添加股票。已存在为无操作，超过上限返回ErrCapacityExceeded
func (w *WatchlistDB) AddItem(ctx context.Context, owner model.OwnerKey, symbol string) error {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil
	}

	var existing int64
	err := w.db.WithContext(ctx).Model(&model.WatchlistItem{}).
		Where("user_id = ? AND symbol = ?", owner.ID, symbol).
		Count(&existing).Error
	if err != nil {
		return fmt.Errorf("检查股票是否已存在失败: %w", err)
	}
	if existing > 0 {
		return nil
	}

	var count int64
	err = w.db.WithContext(ctx).Model(&model.WatchlistItem{}).
		Where("user_id = ?", owner.ID).
		Count(&count).Error
	if err != nil {
		return fmt.Errorf("统计自选股数量失败: %w", err)
	}
	if count >= model.MaxWatchlistItems {
		return store.ErrCapacityExceeded
	}

	var maxOrder int
	err = w.db.WithContext(ctx).Model(&model.WatchlistItem{}).
		Where("user_id = ?", owner.ID).
		Select("COALESCE(MAX(sort_order), 0)").
		Scan(&maxOrder).Error
	if err != nil {
		return fmt.Errorf("查询排序位次失败: %w", err)
	}

	item := &model.WatchlistItem{
		UserID:    owner.ID,
		Symbol:    symbol,
		SortOrder: maxOrder + 1,
		AddedAt:   time.Now(),
	}
	if err := w.db.WithContext(ctx).Create(item).Error; err != nil {
		// 并发添加撞上唯一约束，等同于已存在的无操作
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil
		}
		return fmt.Errorf("添加自选股失败: %w", err)
	}

	return nil
}

// RemoveItem 删除股票
func (w *WatchlistDB) RemoveItem(ctx context.Context, owner model.OwnerKey, symbol string) error {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	err := w.db.WithContext(ctx).
		Where("user_id = ? AND symbol = ?", owner.ID, symbol).
		Delete(&model.WatchlistItem{}).Error
	if err != nil {
		return fmt.Errorf("删除自选股失败: %w", err)
	}
	return nil
}

// Clear 清空整个自选股列表
func (w *WatchlistDB) Clear(ctx context.Context, owner model.OwnerKey) error {
	err := w.db.WithContext(ctx).
		Where("user_id = ?", owner.ID).
		Delete(&model.WatchlistItem{}).Error
	if err != nil {
		return fmt.Errorf("清空自选股失败: %w", err)
	}
	return nil
}

// UpdateAlias 更新别名，条目不存在或归属不匹配为无操作
func (w *WatchlistDB) UpdateAlias(ctx context.Context, owner model.OwnerKey, itemID string, alias *string) error {
	return w.updateColumn(ctx, owner, itemID, "alias", alias)
}

// UpdateTargetPrice 更新目标价
func (w *WatchlistDB) UpdateTargetPrice(ctx context.Context, owner model.OwnerKey, itemID string, price *decimal.Decimal) error {
	return w.updateColumn(ctx, owner, itemID, "target_price", price)
}

// UpdateStopLoss 更新止损价
func (w *WatchlistDB) UpdateStopLoss(ctx context.Context, owner model.OwnerKey, itemID string, price *decimal.Decimal) error {
	return w.updateColumn(ctx, owner, itemID, "stop_loss_price", price)
}

// SetAlertsEnabled 开关条目提醒
func (w *WatchlistDB) SetAlertsEnabled(ctx context.Context, owner model.OwnerKey, itemID string, enabled bool) error {
	return w.updateColumn(ctx, owner, itemID, "alerts_enabled", enabled)
}

// updateColumn 归属不匹配时零行受影响，静默返回
func (w *WatchlistDB) updateColumn(ctx context.Context, owner model.OwnerKey, itemID, column string, value interface{}) error {
	err := w.db.WithContext(ctx).Model(&model.WatchlistItem{}).
		Where("id = ? AND user_id = ?", itemID, owner.ID).
		Update(column, value).Error
	if err != nil {
		return fmt.Errorf("更新自选股条目失败: %w", err)
	}
	return nil
}

// GetAlerts 只返回活跃的提醒
func (w *WatchlistDB) GetAlerts(ctx context.Context, owner model.OwnerKey) ([]*model.PriceAlert, error) {
	var alerts []*model.PriceAlert
	err := w.db.WithContext(ctx).
		Where("user_id = ? AND is_active = ?", owner.ID, true).
		Order("created_at").
		Find(&alerts).Error
	if err != nil {
		return nil, fmt.Errorf("查询价格提醒失败: %w", err)
	}
	return alerts, nil
}

// AddAlert 添加价格提醒
func (w *WatchlistDB) AddAlert(ctx context.Context, owner model.OwnerKey, alert *model.PriceAlert) error {
	record := *alert
	record.ID = ""
	record.UserID = owner.ID
	record.Symbol = strings.ToUpper(strings.TrimSpace(record.Symbol))
	record.IsActive = true
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}

	if err := w.db.WithContext(ctx).Create(&record).Error; err != nil {
		return fmt.Errorf("添加价格提醒失败: %w", err)
	}
	return nil
}

// DeactivateAlert 逻辑删除匹配的提醒
func (w *WatchlistDB) DeactivateAlert(ctx context.Context, owner model.OwnerKey, symbol string, target decimal.Decimal) error {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	err := w.db.WithContext(ctx).Model(&model.PriceAlert{}).
		Where("user_id = ? AND symbol = ? AND target_value = ?", owner.ID, symbol, target).
		Update("is_active", false).Error
	if err != nil {
		return fmt.Errorf("停用价格提醒失败: %w", err)
	}
	return nil
}

// ClearAlerts 清空某归属的全部提醒
func (w *WatchlistDB) ClearAlerts(ctx context.Context, owner model.OwnerKey) error {
	err := w.db.WithContext(ctx).
		Where("user_id = ?", owner.ID).
		Delete(&model.PriceAlert{}).Error
	if err != nil {
		return fmt.Errorf("清空价格提醒失败: %w", err)
	}
	return nil
}
