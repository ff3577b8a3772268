package quotes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"StockWatch/pkg/model"
)

// ErrNoData 上游没有给出数据。包括404等非成功状态码、备用地址也失败、以及响应解析失败
var ErrNoData = errors.New("行情数据不可用")

// Client 行情API客户端。先请求主地址，仅在网络层错误（连接拒绝、超时、DNS失败）时
// 以相同的相对路径重试一次备用地址。非成功的HTTP状态码视为上游的权威答复，
// 直接返回ErrNoData，不会触发备用地址，避免把正常的404伪装成服务不可达
type Client struct {
	primaryURL  string
	fallbackURL string
	httpClient  *http.Client
}

// NewClient 创建新的行情客户端
func NewClient(primaryURL, fallbackURL string, timeout time.Duration) *Client {
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		primaryURL:  strings.TrimRight(primaryURL, "/"),
		fallbackURL: strings.TrimRight(fallbackURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// quoteResponse 上游行情响应结构
type quoteResponse struct {
	Symbol        string          `json:"symbol"`
	Price         decimal.Decimal `json:"price"`
	Change        decimal.Decimal `json:"change"`
	PercentChange string          `json:"percentChange"`
	CompanyName   string          `json:"companyName"`
	LastUpdated   *time.Time      `json:"lastUpdated,omitempty"`
}

// historyResponse 上游历史行情响应结构
type historyResponse struct {
	Date   string          `json:"date"`
	Open   decimal.Decimal `json:"open"`
	High   decimal.Decimal `json:"high"`
	Low    decimal.Decimal `json:"low"`
	Close  decimal.Decimal `json:"close"`
	Volume int64           `json:"volume"`
}

// GetQuote 获取单只股票的实时行情
func (c *Client) GetQuote(ctx context.Context, symbol string) (*model.Quote, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, ErrNoData
	}

	path := "/quote?symbol=" + url.QueryEscape(symbol)
	body, err := c.fetch(ctx, path)
	if err != nil {
		return nil, err
	}

	var resp quoteResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		// 解析失败按无数据处理，不向上抛异常
		log.Printf("解析行情响应失败: symbol=%s, err=%v", symbol, err)
		return nil, ErrNoData
	}

	quote := &model.Quote{
		Symbol:        symbol,
		Price:         resp.Price,
		Change:        resp.Change,
		PercentChange: resp.PercentChange,
		CompanyName:   resp.CompanyName,
		LastUpdated:   time.Now(),
	}
	if resp.LastUpdated != nil {
		quote.LastUpdated = *resp.LastUpdated
	}

	return quote, nil
}

// GetSuggestions 根据关键词获取股票代码建议，任何失败都返回空列表
func (c *Client) GetSuggestions(ctx context.Context, query string) []string {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}

	path := "/suggestions?query=" + url.QueryEscape(query)
	body, err := c.fetch(ctx, path)
	if err != nil {
		return nil
	}

	var suggestions []string
	if err := json.Unmarshal(body, &suggestions); err != nil {
		log.Printf("解析代码建议响应失败: query=%s, err=%v", query, err)
		return nil
	}

	return suggestions
}

// GetHistory 获取最近N天的日线历史行情，任何失败都返回空列表
func (c *Client) GetHistory(ctx context.Context, symbol string, days int) []model.PricePoint {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" || days <= 0 {
		return nil
	}

	path := fmt.Sprintf("/historical?symbol=%s&days=%d", url.QueryEscape(symbol), days)
	body, err := c.fetch(ctx, path)
	if err != nil {
		return nil
	}

	var rows []historyResponse
	if err := json.Unmarshal(body, &rows); err != nil {
		log.Printf("解析历史行情响应失败: symbol=%s, err=%v", symbol, err)
		return nil
	}

	points := make([]model.PricePoint, 0, len(rows))
	for _, row := range rows {
		date, err := time.Parse("2006-01-02", row.Date)
		if err != nil {
			continue
		}
		points = append(points, model.PricePoint{
			Date:   date,
			Open:   row.Open,
			High:   row.High,
			Low:    row.Low,
			Close:  row.Close,
			Volume: row.Volume,
		})
	}

	return points
}

// fetch 主备地址两级请求。返回的错误只会是ErrNoData或上下文取消
func (c *Client) fetch(ctx context.Context, relPath string) ([]byte, error) {
	body, err := c.request(ctx, c.primaryURL, relPath)
	if err == nil {
		return body, nil
	}

	// 非成功状态码是上游的权威答复，不再重试备用地址
	if errors.Is(err, ErrNoData) {
		return nil, ErrNoData
	}

	// 上下文取消直接返回，不消耗备用地址
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	// 网络层错误，降级到备用地址
	if c.fallbackURL == "" {
		log.Printf("主地址请求失败且未配置备用地址: path=%s, err=%v", relPath, err)
		return nil, ErrNoData
	}

	log.Printf("主地址请求失败，降级到备用地址: path=%s, err=%v", relPath, err)
	body, err = c.request(ctx, c.fallbackURL, relPath)
	if err != nil {
		// 备用地址的网络错误同样归结为无数据，由调用方决定如何呈现
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, ErrNoData
	}

	return body, nil
}

// request 向指定基地址发起一次请求。网络层错误原样返回，非成功状态码返回ErrNoData
func (c *Client) request(ctx context.Context, baseURL, relPath string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+relPath, nil)
	if err != nil {
		return nil, fmt.Errorf("创建HTTP请求失败: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, ErrNoData
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	return body, nil
}
