package resolver

import (
	"context"
	"fmt"
	"log"

	"StockWatch/pkg/model"
	"StockWatch/pkg/store"
)

// MigrationReport 迁移结果。部分成功时调用方可以据此判断迁移进度
type MigrationReport struct {
	ItemsCopied  int `json:"items_copied"`
	ItemsSkipped int `json:"items_skipped"` // 用户侧已存在，静默跳过
	AlertsCopied int `json:"alerts_copied"`
}

// Migrator 登录迁移协调器。把匿名会话积累的自选股和提醒拷贝到用户的
// 持久化存储，全部成功后才清空会话。不做回滚：第N步失败时前N-1条保持已迁移、
// 会话不清空，重跑是安全的（AddItem幂等，已迁移的代码会被跳过）。
// 宁可重复迁移也不丢数据
type Migrator struct {
	store store.WatchlistStore
}

// NewMigrator 创建新的迁移协调器
func NewMigrator(s store.WatchlistStore) *Migrator {
	return &Migrator{store: s}
}

// Migrate 把sessionID下的会话状态迁移到userID下。
// 会话里没有任何东西时是幂等的无操作，不是错误
func (m *Migrator) Migrate(ctx context.Context, sessionID, userID string) (*MigrationReport, error) {
	session := model.SessionOwner(sessionID)
	user := model.UserOwner(userID)
	report := &MigrationReport{}

	sessionItems, err := m.store.GetWatchlist(ctx, session)
	if err != nil {
		return report, fmt.Errorf("读取会话自选股失败: %w", err)
	}
	sessionAlerts, err := m.store.GetAlerts(ctx, session)
	if err != nil {
		return report, fmt.Errorf("读取会话提醒失败: %w", err)
	}

	if len(sessionItems) == 0 && len(sessionAlerts) == 0 {
		return report, nil
	}

	// 已迁移的代码静默跳过，重跑安全
	existing := make(map[string]bool)
	userItems, err := m.store.GetWatchlist(ctx, user)
	if err != nil {
		return report, fmt.Errorf("读取用户自选股失败: %w", err)
	}
	for _, item := range userItems {
		existing[item.Symbol] = true
	}

	for _, item := range sessionItems {
		if existing[item.Symbol] {
			report.ItemsSkipped++
			continue
		}
		if err := m.store.AddItem(ctx, user, item.Symbol); err != nil {
			// 不清空会话，调用方可以重试
			return report, fmt.Errorf("迁移自选股 %s 失败: %w", item.Symbol, err)
		}
		report.ItemsCopied++
	}

	for _, alert := range sessionAlerts {
		copied := *alert
		copied.ID = ""
		copied.UserID = ""
		if err := m.store.AddAlert(ctx, user, &copied); err != nil {
			return report, fmt.Errorf("迁移提醒 %s 失败: %w", alert.Symbol, err)
		}
		report.AlertsCopied++
	}

	// 全部拷贝完成，清空会话状态
	if err := m.store.Clear(ctx, session); err != nil {
		return report, fmt.Errorf("清空会话自选股失败: %w", err)
	}
	if err := m.store.ClearAlerts(ctx, session); err != nil {
		return report, fmt.Errorf("清空会话提醒失败: %w", err)
	}

	log.Printf("会话迁移完成: session=%s, user=%s, 自选股=%d (跳过%d), 提醒=%d",
		sessionID, userID, report.ItemsCopied, report.ItemsSkipped, report.AlertsCopied)

	return report, nil
}
