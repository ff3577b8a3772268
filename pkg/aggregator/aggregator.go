package aggregator

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"

	"StockWatch/pkg/model"
	"StockWatch/pkg/quotes"
)

// maxErrorMessages 错误摘要上限。20只股票逐条报错会淹没页面，
// 3条有代表性的信息是刻意的产品取舍
const maxErrorMessages = 3

// genericFailureMessage 兜底信息：有条目缺行情但错误收集器是空的
const genericFailureMessage = "Some symbols failed to load"

// Aggregator 行情聚合器。对自选股列表按去重后的代码并发拉取行情，
// 单只股票的失败不会中断或拖慢其他股票
type Aggregator struct {
	fetcher quotes.QuoteFetcher
}

// NewAggregator 创建新的行情聚合器
func NewAggregator(fetcher quotes.QuoteFetcher) *Aggregator {
	return &Aggregator{fetcher: fetcher}
}

// PopulateQuotes 并发拉取行情并就地挂到条目上，返回去重且截断到3条的错误摘要。
// 上下文取消时放弃在途请求，返回已累计的部分结果而不是报错
func (a *Aggregator) PopulateQuotes(ctx context.Context, items []*model.WatchlistItem) []string {
	if len(items) == 0 {
		return nil
	}

	// 相同代码的条目共享一次拉取
	bySymbol := make(map[string][]*model.WatchlistItem)
	for _, item := range items {
		symbol := strings.ToUpper(strings.TrimSpace(item.Symbol))
		if symbol == "" {
			continue
		}
		bySymbol[symbol] = append(bySymbol[symbol], item)
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	var errMessages []string
	fetched := make(map[string]*model.Quote, len(bySymbol))

	// 列表上限20条，无界并发是可接受的
	for symbol := range bySymbol {
		wg.Add(1)
		go func(symbol string) {
			defer wg.Done()

			quote, err := a.fetcher.GetQuote(ctx, symbol)
			if err != nil {
				mu.Lock()
				errMessages = append(errMessages, messageFor(err, symbol))
				mu.Unlock()
				return
			}
			if quote == nil {
				// 无错误也无数据，条目保持缺行情，由兜底逻辑补一条通用信息
				return
			}

			// 结果先放进收集map，取消后迟到的goroutine只会写到这里，
			// 不会再碰调用方手里的条目
			mu.Lock()
			fetched[symbol] = quote
			mu.Unlock()
		}(symbol)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	completed := true
	select {
	case <-done:
	case <-ctx.Done():
		completed = false
		log.Printf("行情聚合被取消，返回部分结果: %v", ctx.Err())
	}

	// 在锁内一次性挂载行情并快照错误，之后迟到的写入对调用方不可见
	mu.Lock()
	for symbol, group := range bySymbol {
		quote, ok := fetched[symbol]
		if !ok {
			continue
		}
		for _, item := range group {
			item.Quote = quote
		}
	}
	collected := make([]string, len(errMessages))
	copy(collected, errMessages)
	mu.Unlock()

	// 兜底：全部拉取正常结束、没有收集到错误，但仍有条目缺行情
	if completed && len(collected) == 0 {
		for _, item := range items {
			if item.Quote == nil {
				collected = append(collected, genericFailureMessage)
				break
			}
		}
	}

	return dedupeAndCap(collected)
}

// messageFor 生成面向用户的错误信息
func messageFor(err error, symbol string) string {
	if errors.Is(err, quotes.ErrNoData) || errors.Is(err, context.Canceled) || strings.TrimSpace(err.Error()) == "" {
		return "Failed to load " + symbol
	}
	return err.Error()
}

// dedupeAndCap 去重、丢弃空白、截断到上限，保持插入顺序
func dedupeAndCap(messages []string) []string {
	if len(messages) == 0 {
		return nil
	}

	seen := make(map[string]bool, len(messages))
	result := make([]string, 0, maxErrorMessages)
	for _, msg := range messages {
		msg = strings.TrimSpace(msg)
		if msg == "" || seen[msg] {
			continue
		}
		seen[msg] = true
		result = append(result, msg)
		if len(result) == maxErrorMessages {
			break
		}
	}

	return result
}
