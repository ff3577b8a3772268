package store

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"StockWatch/pkg/model"
)

// ErrCapacityExceeded 自选股列表已满
var ErrCapacityExceeded = errors.New("自选股列表已达上限")

// WatchlistStore 自选股存储契约，按归属键区分匿名会话与用户两种后端。
// 对不存在或归属不匹配的条目做修改是静默无操作而不是错误，
// 避免跨归属泄露条目是否存在
type WatchlistStore interface {
	// GetWatchlist 按sort_order、added_at排序返回全部条目
	GetWatchlist(ctx context.Context, owner model.OwnerKey) ([]*model.WatchlistItem, error)
	// AddItem 添加股票。列表已满返回ErrCapacityExceeded；
	// 已存在（不区分大小写）则静默无操作
	AddItem(ctx context.Context, owner model.OwnerKey, symbol string) error
	RemoveItem(ctx context.Context, owner model.OwnerKey, symbol string) error
	Clear(ctx context.Context, owner model.OwnerKey) error

	UpdateAlias(ctx context.Context, owner model.OwnerKey, itemID string, alias *string) error
	UpdateTargetPrice(ctx context.Context, owner model.OwnerKey, itemID string, price *decimal.Decimal) error
	UpdateStopLoss(ctx context.Context, owner model.OwnerKey, itemID string, price *decimal.Decimal) error
	SetAlertsEnabled(ctx context.Context, owner model.OwnerKey, itemID string, enabled bool) error

	// GetAlerts 只返回活跃的提醒
	GetAlerts(ctx context.Context, owner model.OwnerKey) ([]*model.PriceAlert, error)
	AddAlert(ctx context.Context, owner model.OwnerKey, alert *model.PriceAlert) error
	// DeactivateAlert 逻辑删除，不做物理删除
	DeactivateAlert(ctx context.Context, owner model.OwnerKey, symbol string, target decimal.Decimal) error
	ClearAlerts(ctx context.Context, owner model.OwnerKey) error
}
