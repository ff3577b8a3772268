package monitor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"StockWatch/pkg/model"
)

// fakeAlertSource 内存提醒源
type fakeAlertSource struct {
	mu        sync.Mutex
	alerts    []*model.PriceAlert
	triggered []string
}

func (f *fakeAlertSource) GetAllActive(ctx context.Context) ([]*model.PriceAlert, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var active []*model.PriceAlert
	for _, a := range f.alerts {
		if a.IsActive {
			active = append(active, a)
		}
	}
	return active, nil
}

func (f *fakeAlertSource) MarkTriggered(ctx context.Context, alertID string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.alerts {
		if a.ID == alertID {
			a.IsActive = false
			a.LastTriggeredAt = &at
		}
	}
	f.triggered = append(f.triggered, alertID)
	return nil
}

// fakeQuotes 固定价格的行情源，记录调用次数
type fakeQuotes struct {
	mu     sync.Mutex
	prices map[string]decimal.Decimal
	calls  int
}

func (f *fakeQuotes) GetQuote(ctx context.Context, symbol string) (*model.Quote, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	price, ok := f.prices[symbol]
	if !ok {
		return nil, errors.New("symbol not found")
	}
	return &model.Quote{Symbol: symbol, Price: price, LastUpdated: time.Now()}, nil
}

func (f *fakeQuotes) GetSuggestions(ctx context.Context, query string) []string { return nil }

func (f *fakeQuotes) GetHistory(ctx context.Context, symbol string, days int) []model.PricePoint {
	return nil
}

// spyPublisher 记录发布的事件
type spyPublisher struct {
	mu       sync.Mutex
	subjects []string
	events   []interface{}
}

func (s *spyPublisher) Publish(subject string, data interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subjects = append(s.subjects, subject)
	s.events = append(s.events, data)
	return nil
}

// TestRunOnce_TriggersAboveAndBelow 上下两个方向的提醒按现价正确触发
func TestRunOnce_TriggersAboveAndBelow(t *testing.T) {
	source := &fakeAlertSource{
		alerts: []*model.PriceAlert{
			{ID: "a1", Symbol: "AAPL", TargetValue: decimal.NewFromInt(180), AlertType: model.AlertAbove, IsActive: true},
			{ID: "a2", Symbol: "AAPL", TargetValue: decimal.NewFromInt(150), AlertType: model.AlertBelow, IsActive: true},
			{ID: "a3", Symbol: "MSFT", TargetValue: decimal.NewFromInt(500), AlertType: model.AlertAbove, IsActive: true},
		},
	}
	fetcher := &fakeQuotes{prices: map[string]decimal.Decimal{
		"AAPL": decimal.NewFromInt(190), // 高于180，触发a1；高于150，不触发a2
		"MSFT": decimal.NewFromInt(400), // 低于500，不触发a3
	}}
	publisher := &spyPublisher{}

	e := NewEvaluator(source, fetcher, publisher)
	if err := e.RunOnce(context.Background()); err != nil {
		t.Fatal(err)
	}

	if len(source.triggered) != 1 || source.triggered[0] != "a1" {
		t.Errorf("应只触发a1, 实际为 %v", source.triggered)
	}
	if len(publisher.subjects) != 1 || publisher.subjects[0] != "alerts.triggered" {
		t.Errorf("应发布1条alerts.triggered事件, 实际为 %v", publisher.subjects)
	}

	event, ok := publisher.events[0].(model.AlertTriggeredEvent)
	if !ok {
		t.Fatalf("事件类型不符: %T", publisher.events[0])
	}
	if event.AlertID != "a1" || event.Symbol != "AAPL" {
		t.Errorf("事件内容不符: %+v", event)
	}

	// 触发后提醒停用且带触发时间
	for _, a := range source.alerts {
		if a.ID == "a1" {
			if a.IsActive {
				t.Error("触发后提醒应停用")
			}
			if a.LastTriggeredAt == nil {
				t.Error("触发后应记录触发时间")
			}
		}
	}
}

// TestRunOnce_SharedSymbolFetchedOnce 相同代码的提醒共享一次行情拉取
func TestRunOnce_SharedSymbolFetchedOnce(t *testing.T) {
	source := &fakeAlertSource{
		alerts: []*model.PriceAlert{
			{ID: "a1", Symbol: "AAPL", TargetValue: decimal.NewFromInt(100), AlertType: model.AlertAbove, IsActive: true},
			{ID: "a2", Symbol: "AAPL", TargetValue: decimal.NewFromInt(300), AlertType: model.AlertAbove, IsActive: true},
		},
	}
	fetcher := &fakeQuotes{prices: map[string]decimal.Decimal{
		"AAPL": decimal.NewFromInt(190),
	}}

	e := NewEvaluator(source, fetcher, &spyPublisher{})
	if err := e.RunOnce(context.Background()); err != nil {
		t.Fatal(err)
	}

	if fetcher.calls != 1 {
		t.Errorf("相同代码应只拉取一次行情, 实际为 %d", fetcher.calls)
	}
}

// TestRunOnce_FetchFailureSkipsSymbol 拉取失败的代码被跳过，不影响其他提醒
func TestRunOnce_FetchFailureSkipsSymbol(t *testing.T) {
	source := &fakeAlertSource{
		alerts: []*model.PriceAlert{
			{ID: "a1", Symbol: "GONE", TargetValue: decimal.NewFromInt(100), AlertType: model.AlertAbove, IsActive: true},
			{ID: "a2", Symbol: "AAPL", TargetValue: decimal.NewFromInt(100), AlertType: model.AlertAbove, IsActive: true},
		},
	}
	fetcher := &fakeQuotes{prices: map[string]decimal.Decimal{
		"AAPL": decimal.NewFromInt(190),
	}}

	e := NewEvaluator(source, fetcher, &spyPublisher{})
	if err := e.RunOnce(context.Background()); err != nil {
		t.Fatalf("单只股票的失败不应让整轮评估失败: %v", err)
	}

	if len(source.triggered) != 1 || source.triggered[0] != "a2" {
		t.Errorf("应只触发a2, 实际为 %v", source.triggered)
	}
}
