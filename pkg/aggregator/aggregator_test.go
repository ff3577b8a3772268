package aggregator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"StockWatch/pkg/model"
	"StockWatch/pkg/quotes"
)

// fakeFetcher 可编程的行情获取器，记录调用次数
type fakeFetcher struct {
	mu           sync.Mutex
	calls        int
	byCall       map[string]func() (*model.Quote, error)
	blockOn      chan struct{} // 非nil时所有拉取阻塞直到channel关闭
	ignoreCancel bool          // 阻塞期间无视上下文取消，模拟不检查ctx的慢请求
}

func (f *fakeFetcher) GetQuote(ctx context.Context, symbol string) (*model.Quote, error) {
	f.mu.Lock()
	f.calls++
	fn := f.byCall[symbol]
	f.mu.Unlock()

	if f.blockOn != nil {
		if f.ignoreCancel {
			<-f.blockOn
		} else {
			select {
			case <-f.blockOn:
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}

	if fn != nil {
		return fn()
	}
	return &model.Quote{
		Symbol:      symbol,
		Price:       decimal.NewFromInt(100),
		LastUpdated: time.Now(),
	}, nil
}

func (f *fakeFetcher) GetSuggestions(ctx context.Context, query string) []string {
	return nil
}

func (f *fakeFetcher) GetHistory(ctx context.Context, symbol string, days int) []model.PricePoint {
	return nil
}

func (f *fakeFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func itemsFor(symbols ...string) []*model.WatchlistItem {
	items := make([]*model.WatchlistItem, 0, len(symbols))
	for _, s := range symbols {
		items = append(items, &model.WatchlistItem{ID: s, Symbol: s})
	}
	return items
}

// TestPopulateQuotes_AllSucceed 全部可拉取时零错误且每个条目都有行情
func TestPopulateQuotes_AllSucceed(t *testing.T) {
	fetcher := &fakeFetcher{}
	agg := NewAggregator(fetcher)
	items := itemsFor("AAPL", "MSFT", "GOOG")

	errs := agg.PopulateQuotes(context.Background(), items)
	if len(errs) != 0 {
		t.Fatalf("不应有错误, 实际为 %v", errs)
	}
	for _, item := range items {
		if item.Quote == nil {
			t.Errorf("条目 %s 缺行情", item.Symbol)
		}
	}
}

// TestPopulateQuotes_EmptyWatchlist 空列表立即返回且不发任何请求
func TestPopulateQuotes_EmptyWatchlist(t *testing.T) {
	fetcher := &fakeFetcher{}
	agg := NewAggregator(fetcher)

	errs := agg.PopulateQuotes(context.Background(), nil)
	if len(errs) != 0 {
		t.Fatalf("空列表不应有错误, 实际为 %v", errs)
	}
	if fetcher.callCount() != 0 {
		t.Errorf("空列表不应发起任何请求, 实际发起了 %d 次", fetcher.callCount())
	}
}

// TestPopulateQuotes_PartialFailure 单只失败不影响其他条目
func TestPopulateQuotes_PartialFailure(t *testing.T) {
	fetcher := &fakeFetcher{
		byCall: map[string]func() (*model.Quote, error){
			"BADSYM": func() (*model.Quote, error) {
				return nil, errors.New("symbol not found")
			},
		},
	}
	agg := NewAggregator(fetcher)
	items := itemsFor("AAPL", "BADSYM", "MSFT")

	errs := agg.PopulateQuotes(context.Background(), items)
	if len(errs) != 1 || errs[0] != "symbol not found" {
		t.Fatalf("错误摘要应为[symbol not found], 实际为 %v", errs)
	}
	for _, item := range items {
		switch item.Symbol {
		case "BADSYM":
			if item.Quote != nil {
				t.Error("失败的条目不应挂上行情")
			}
		default:
			if item.Quote == nil {
				t.Errorf("条目 %s 应有行情", item.Symbol)
			}
		}
	}
}

// TestPopulateQuotes_ErrorsDedupedAndCapped 错误去重且最多3条
func TestPopulateQuotes_ErrorsDedupedAndCapped(t *testing.T) {
	byCall := make(map[string]func() (*model.Quote, error))
	var symbols []string
	// 8只失败的股票，两两共享4种错误信息
	for i := 0; i < 8; i++ {
		sym := fmt.Sprintf("BAD%d", i)
		symbols = append(symbols, sym)
		msg := fmt.Sprintf("upstream error %d", i/2)
		byCall[sym] = func() (*model.Quote, error) {
			return nil, errors.New(msg)
		}
	}
	symbols = append(symbols, "AAPL", "MSFT")

	fetcher := &fakeFetcher{byCall: byCall}
	agg := NewAggregator(fetcher)
	items := itemsFor(symbols...)

	errs := agg.PopulateQuotes(context.Background(), items)
	if len(errs) != 3 {
		t.Fatalf("错误摘要应截断到3条, 实际为 %d: %v", len(errs), errs)
	}
	seen := make(map[string]bool)
	for _, msg := range errs {
		if seen[msg] {
			t.Errorf("错误摘要存在重复: %s", msg)
		}
		seen[msg] = true
	}
	// 成功的条目不受失败影响
	for _, item := range items {
		if item.Symbol == "AAPL" || item.Symbol == "MSFT" {
			if item.Quote == nil {
				t.Errorf("条目 %s 应有行情", item.Symbol)
			}
		}
	}
}

// TestPopulateQuotes_NoDataUsesGenericMessage ErrNoData转换为Failed to load信息
func TestPopulateQuotes_NoDataUsesGenericMessage(t *testing.T) {
	fetcher := &fakeFetcher{
		byCall: map[string]func() (*model.Quote, error){
			"MISSING": func() (*model.Quote, error) {
				return nil, quotes.ErrNoData
			},
		},
	}
	agg := NewAggregator(fetcher)
	items := itemsFor("MISSING")

	errs := agg.PopulateQuotes(context.Background(), items)
	if len(errs) != 1 || errs[0] != "Failed to load MISSING" {
		t.Fatalf("ErrNoData应转换为Failed to load信息, 实际为 %v", errs)
	}
}

// TestPopulateQuotes_SafetyNet 无错误但有条目缺行情时补一条通用信息
func TestPopulateQuotes_SafetyNet(t *testing.T) {
	fetcher := &fakeFetcher{
		byCall: map[string]func() (*model.Quote, error){
			"GHOST": func() (*model.Quote, error) {
				return nil, nil // 丢失错误的拉取路径
			},
		},
	}
	agg := NewAggregator(fetcher)
	items := itemsFor("AAPL", "GHOST")

	errs := agg.PopulateQuotes(context.Background(), items)
	if len(errs) != 1 || errs[0] != genericFailureMessage {
		t.Fatalf("应返回兜底信息, 实际为 %v", errs)
	}
}

// TestPopulateQuotes_SharedSymbolFetchedOnce 相同代码共享一次拉取
func TestPopulateQuotes_SharedSymbolFetchedOnce(t *testing.T) {
	fetcher := &fakeFetcher{}
	agg := NewAggregator(fetcher)
	items := itemsFor("AAPL", "AAPL", "MSFT")

	agg.PopulateQuotes(context.Background(), items)
	if fetcher.callCount() != 2 {
		t.Errorf("去重后应只发起2次请求, 实际为 %d", fetcher.callCount())
	}
	if items[0].Quote == nil || items[1].Quote == nil {
		t.Error("共享拉取的条目都应挂上行情")
	}
}

// TestPopulateQuotes_Cancellation 取消时返回部分结果而不是报错
func TestPopulateQuotes_Cancellation(t *testing.T) {
	block := make(chan struct{})
	defer close(block)

	fetcher := &fakeFetcher{blockOn: block}
	agg := NewAggregator(fetcher)
	items := itemsFor("AAPL", "MSFT")

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	done := make(chan []string, 1)
	go func() {
		done <- agg.PopulateQuotes(ctx, items)
	}()

	select {
	case <-done:
		// 取消后返回即可，不校验内容
	case <-time.After(2 * time.Second):
		t.Fatal("取消后聚合应及时返回")
	}
}

// TestPopulateQuotes_LateFetchDoesNotTouchItems 取消返回后才完成的拉取
// 不得再写调用方手里的条目
func TestPopulateQuotes_LateFetchDoesNotTouchItems(t *testing.T) {
	block := make(chan struct{})
	fetcher := &fakeFetcher{blockOn: block, ignoreCancel: true}
	agg := NewAggregator(fetcher)
	items := itemsFor("AAPL", "MSFT")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan []string, 1)
	go func() {
		done <- agg.PopulateQuotes(ctx, items)
	}()

	// 等所有拉取都进入阻塞再取消
	for fetcher.callCount() < 2 {
		time.Sleep(time.Millisecond)
	}
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("取消后聚合应及时返回")
	}

	// 放行被遗弃的goroutine，让它们带着结果迟到
	close(block)
	time.Sleep(50 * time.Millisecond)

	for _, item := range items {
		if item.Quote != nil {
			t.Errorf("迟到的拉取不应再写条目 %s", item.Symbol)
		}
	}
}
