package monitor

import (
	"context"
	"fmt"
	"log"
	"time"

	"StockWatch/pkg/model"
	"StockWatch/pkg/quotes"
)

// AlertSource 监控任务的提醒读写接口，由持久化存储实现
type AlertSource interface {
	GetAllActive(ctx context.Context) ([]*model.PriceAlert, error)
	MarkTriggered(ctx context.Context, alertID string, at time.Time) error
}

// EventPublisher 触发事件发布接口，由NATS客户端实现
type EventPublisher interface {
	Publish(subject string, data interface{}) error
}

// Evaluator 价格提醒评估器。定期扫描全部活跃提醒，按去重后的代码拉取行情，
// 触发的提醒记录触发时间并停用（一次性触发），同时发布事件到消息总线。
// 发布失败只记日志，不阻塞评估
type Evaluator struct {
	alerts    AlertSource
	fetcher   quotes.QuoteFetcher
	publisher EventPublisher
}

// NewEvaluator 创建新的提醒评估器
func NewEvaluator(alerts AlertSource, fetcher quotes.QuoteFetcher, publisher EventPublisher) *Evaluator {
	return &Evaluator{
		alerts:    alerts,
		fetcher:   fetcher,
		publisher: publisher,
	}
}

// RunOnce 执行一轮评估
func (e *Evaluator) RunOnce(ctx context.Context) error {
	alerts, err := e.alerts.GetAllActive(ctx)
	if err != nil {
		return fmt.Errorf("加载活跃提醒失败: %w", err)
	}
	if len(alerts) == 0 {
		return nil
	}

	// 相同代码的提醒共享一次行情拉取
	quoteCache := make(map[string]*model.Quote)
	triggered := 0

	for _, alert := range alerts {
		quote, ok := quoteCache[alert.Symbol]
		if !ok {
			q, err := e.fetcher.GetQuote(ctx, alert.Symbol)
			if err != nil {
				// 单只股票拉取失败不影响其他提醒的评估
				log.Printf("拉取行情失败，跳过该代码的提醒: symbol=%s, err=%v", alert.Symbol, err)
				quoteCache[alert.Symbol] = nil
				continue
			}
			quote = q
			quoteCache[alert.Symbol] = q
		}
		if quote == nil {
			continue
		}

		if !alert.Triggered(quote.Price) {
			continue
		}

		now := time.Now()
		if err := e.alerts.MarkTriggered(ctx, alert.ID, now); err != nil {
			log.Printf("记录提醒触发失败: alertID=%s, err=%v", alert.ID, err)
			continue
		}
		triggered++

		event := model.AlertTriggeredEvent{
			AlertID:     alert.ID,
			UserID:      alert.UserID,
			Symbol:      alert.Symbol,
			AlertType:   alert.AlertType,
			TargetValue: alert.TargetValue,
			Price:       quote.Price,
			TriggeredAt: now,
		}
		if e.publisher != nil {
			if err := e.publisher.Publish("alerts.triggered", event); err != nil {
				log.Printf("发布提醒触发事件失败: alertID=%s, err=%v", alert.ID, err)
			}
		}
	}

	if triggered > 0 {
		log.Printf("本轮评估触发 %d 条提醒 (活跃提醒 %d 条)", triggered, len(alerts))
	}

	return nil
}
