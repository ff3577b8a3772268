package quotes

import (
	"context"

	"StockWatch/pkg/model"
)

// QuoteFetcher 行情数据获取接口
type QuoteFetcher interface {
	// GetQuote 获取单只股票的实时行情
	GetQuote(ctx context.Context, symbol string) (*model.Quote, error)
	// GetSuggestions 根据关键词获取股票代码建议，任何失败都返回空列表
	GetSuggestions(ctx context.Context, query string) []string
	// GetHistory 获取最近N天的日线历史行情，任何失败都返回空列表
	GetHistory(ctx context.Context, symbol string, days int) []model.PricePoint
}
