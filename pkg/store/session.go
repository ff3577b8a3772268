package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"StockWatch/pkg/model"
)

// SessionStore 匿名会话的内存存储。全部会话共用一把粗粒度锁，
// 会话自选股最多20条且生命周期短，这里是刻意用简单性换吞吐。
// 进程级状态，不支持水平扩展：第二个进程实例看不到其他实例的会话
type SessionStore struct {
	mutex  sync.Mutex
	items  map[string][]*model.WatchlistItem // sessionID -> 条目
	alerts map[string][]*model.PriceAlert    // sessionID -> 提醒
}

// NewSessionStore 创建新的会话存储
func NewSessionStore() *SessionStore {
	return &SessionStore{
		items:  make(map[string][]*model.WatchlistItem),
		alerts: make(map[string][]*model.PriceAlert),
	}
}

// GetWatchlist 按sort_order、added_at排序返回全部条目
func (s *SessionStore) GetWatchlist(ctx context.Context, owner model.OwnerKey) ([]*model.WatchlistItem, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	stored := s.items[owner.ID]
	result := make([]*model.WatchlistItem, 0, len(stored))
	for _, item := range stored {
		// 返回副本，避免调用方挂上去的瞬态行情残留在存储里
		copied := *item
		result = append(result, &copied)
	}

	sort.SliceStable(result, func(i, j int) bool {
		if result[i].SortOrder != result[j].SortOrder {
			return result[i].SortOrder < result[j].SortOrder
		}
		return result[i].AddedAt.Before(result[j].AddedAt)
	})

	return result, nil
}

// AddItem 添加股票，已存在为无操作，超过上限返回ErrCapacityExceeded
func (s *SessionStore) AddItem(ctx context.Context, owner model.OwnerKey, symbol string) error {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	stored := s.items[owner.ID]
	maxOrder := 0
	for _, item := range stored {
		if item.Symbol == symbol {
			return nil
		}
		if item.SortOrder > maxOrder {
			maxOrder = item.SortOrder
		}
	}

	if len(stored) >= model.MaxWatchlistItems {
		return ErrCapacityExceeded
	}

	s.items[owner.ID] = append(stored, &model.WatchlistItem{
		ID:        uuid.New().String(),
		Symbol:    symbol,
		SortOrder: maxOrder + 1,
		AddedAt:   time.Now(),
	})

	return nil
}

// RemoveItem 删除股票
func (s *SessionStore) RemoveItem(ctx context.Context, owner model.OwnerKey, symbol string) error {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))

	s.mutex.Lock()
	defer s.mutex.Unlock()

	stored := s.items[owner.ID]
	for i, item := range stored {
		if item.Symbol == symbol {
			s.items[owner.ID] = append(stored[:i], stored[i+1:]...)
			break
		}
	}

	return nil
}

// Clear 清空整个自选股列表
func (s *SessionStore) Clear(ctx context.Context, owner model.OwnerKey) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	delete(s.items, owner.ID)
	return nil
}

// UpdateAlias 更新别名，条目不存在为无操作
func (s *SessionStore) UpdateAlias(ctx context.Context, owner model.OwnerKey, itemID string, alias *string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if item := s.findItem(owner.ID, itemID); item != nil {
		item.Alias = alias
	}
	return nil
}

// UpdateTargetPrice 更新目标价，条目不存在为无操作
func (s *SessionStore) UpdateTargetPrice(ctx context.Context, owner model.OwnerKey, itemID string, price *decimal.Decimal) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if item := s.findItem(owner.ID, itemID); item != nil {
		item.TargetPrice = price
	}
	return nil
}

// UpdateStopLoss 更新止损价，条目不存在为无操作
func (s *SessionStore) UpdateStopLoss(ctx context.Context, owner model.OwnerKey, itemID string, price *decimal.Decimal) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if item := s.findItem(owner.ID, itemID); item != nil {
		item.StopLossPrice = price
	}
	return nil
}

// SetAlertsEnabled 开关条目提醒，条目不存在为无操作
func (s *SessionStore) SetAlertsEnabled(ctx context.Context, owner model.OwnerKey, itemID string, enabled bool) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if item := s.findItem(owner.ID, itemID); item != nil {
		item.AlertsEnabled = enabled
	}
	return nil
}

// GetAlerts 只返回活跃的提醒
func (s *SessionStore) GetAlerts(ctx context.Context, owner model.OwnerKey) ([]*model.PriceAlert, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	stored := s.alerts[owner.ID]
	result := make([]*model.PriceAlert, 0, len(stored))
	for _, alert := range stored {
		if !alert.IsActive {
			continue
		}
		copied := *alert
		result = append(result, &copied)
	}

	return result, nil
}

// AddAlert 添加价格提醒
func (s *SessionStore) AddAlert(ctx context.Context, owner model.OwnerKey, alert *model.PriceAlert) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	copied := *alert
	if copied.ID == "" {
		copied.ID = uuid.New().String()
	}
	copied.Symbol = strings.ToUpper(strings.TrimSpace(copied.Symbol))
	if copied.CreatedAt.IsZero() {
		copied.CreatedAt = time.Now()
	}
	copied.IsActive = true

	s.alerts[owner.ID] = append(s.alerts[owner.ID], &copied)
	return nil
}

// DeactivateAlert 逻辑删除匹配的提醒
func (s *SessionStore) DeactivateAlert(ctx context.Context, owner model.OwnerKey, symbol string, target decimal.Decimal) error {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))

	s.mutex.Lock()
	defer s.mutex.Unlock()

	for _, alert := range s.alerts[owner.ID] {
		if alert.Symbol == symbol && alert.TargetValue.Equal(target) {
			alert.IsActive = false
		}
	}
	return nil
}

// ClearAlerts 清空会话的全部提醒
func (s *SessionStore) ClearAlerts(ctx context.Context, owner model.OwnerKey) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	delete(s.alerts, owner.ID)
	return nil
}

// findItem 调用方必须持有锁
func (s *SessionStore) findItem(sessionID, itemID string) *model.WatchlistItem {
	for _, item := range s.items[sessionID] {
		if item.ID == itemID {
			return item
		}
	}
	return nil
}
