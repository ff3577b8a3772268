package store

import (
	"context"

	"github.com/shopspring/decimal"

	"StockWatch/pkg/model"
)

// Dispatcher 按归属键标签在会话后端与用户后端之间路由，
// 调用方不需要关心数据落在哪个后端
type Dispatcher struct {
	session WatchlistStore
	user    WatchlistStore
}

// NewDispatcher 创建新的存储路由
func NewDispatcher(session, user WatchlistStore) *Dispatcher {
	return &Dispatcher{session: session, user: user}
}

func (d *Dispatcher) backend(owner model.OwnerKey) WatchlistStore {
	switch owner.Kind {
	case model.OwnerUser:
		return d.user
	default:
		return d.session
	}
}

func (d *Dispatcher) GetWatchlist(ctx context.Context, owner model.OwnerKey) ([]*model.WatchlistItem, error) {
	return d.backend(owner).GetWatchlist(ctx, owner)
}

func (d *Dispatcher) AddItem(ctx context.Context, owner model.OwnerKey, symbol string) error {
	return d.backend(owner).AddItem(ctx, owner, symbol)
}

func (d *Dispatcher) RemoveItem(ctx context.Context, owner model.OwnerKey, symbol string) error {
	return d.backend(owner).RemoveItem(ctx, owner, symbol)
}

func (d *Dispatcher) Clear(ctx context.Context, owner model.OwnerKey) error {
	return d.backend(owner).Clear(ctx, owner)
}

func (d *Dispatcher) UpdateAlias(ctx context.Context, owner model.OwnerKey, itemID string, alias *string) error {
	return d.backend(owner).UpdateAlias(ctx, owner, itemID, alias)
}

func (d *Dispatcher) UpdateTargetPrice(ctx context.Context, owner model.OwnerKey, itemID string, price *decimal.Decimal) error {
	return d.backend(owner).UpdateTargetPrice(ctx, owner, itemID, price)
}

func (d *Dispatcher) UpdateStopLoss(ctx context.Context, owner model.OwnerKey, itemID string, price *decimal.Decimal) error {
	return d.backend(owner).UpdateStopLoss(ctx, owner, itemID, price)
}

func (d *Dispatcher) SetAlertsEnabled(ctx context.Context, owner model.OwnerKey, itemID string, enabled bool) error {
	return d.backend(owner).SetAlertsEnabled(ctx, owner, itemID, enabled)
}

func (d *Dispatcher) GetAlerts(ctx context.Context, owner model.OwnerKey) ([]*model.PriceAlert, error) {
	return d.backend(owner).GetAlerts(ctx, owner)
}

func (d *Dispatcher) AddAlert(ctx context.Context, owner model.OwnerKey, alert *model.PriceAlert) error {
	return d.backend(owner).AddAlert(ctx, owner, alert)
}

func (d *Dispatcher) DeactivateAlert(ctx context.Context, owner model.OwnerKey, symbol string, target decimal.Decimal) error {
	return d.backend(owner).DeactivateAlert(ctx, owner, symbol, target)
}

func (d *Dispatcher) ClearAlerts(ctx context.Context, owner model.OwnerKey) error {
	return d.backend(owner).ClearAlerts(ctx, owner)
}
