package api

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"StockWatch/pkg/aggregator"
	"StockWatch/pkg/model"
	"StockWatch/pkg/quotes"
	"StockWatch/pkg/resolver"
	"StockWatch/pkg/store"
)

// LoginRecorder 登录迁移成功后回写最近登录时间
type LoginRecorder interface {
	UpdateLastLogin(ctx context.Context, userID string) error
}

// Handlers API处理程序
type Handlers struct {
	store      store.WatchlistStore
	aggregator *aggregator.Aggregator
	fetcher    quotes.QuoteFetcher
	resolver   *resolver.Resolver
	migrator   *resolver.Migrator
	logins     LoginRecorder
}

// NewHandlers 创建新的API处理程序
func NewHandlers(
	watchlistStore store.WatchlistStore,
	agg *aggregator.Aggregator,
	fetcher quotes.QuoteFetcher,
	ownerResolver *resolver.Resolver,
	migrator *resolver.Migrator,
	logins LoginRecorder,
) *Handlers {
	return &Handlers{
		store:      watchlistStore,
		aggregator: agg,
		fetcher:    fetcher,
		resolver:   ownerResolver,
		migrator:   migrator,
		logins:     logins,
	}
}

// owner 解析本次请求的归属键。身份由外部认证层提供，这里通过X-User-ID头接入
func (h *Handlers) owner(c *gin.Context) (model.OwnerKey, bool) {
	sessionID := c.GetString(sessionKey)
	userID := c.GetHeader("X-User-ID")

	owner, err := h.resolver.Resolve(c.Request.Context(), sessionID, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "解析请求归属失败: " + err.Error(),
		})
		return model.OwnerKey{}, false
	}
	return owner, true
}

// HealthCheck 健康检查处理程序，带陈旧身份降级计数
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":               "ok",
		"stale_identity_count": h.resolver.StaleIdentityCount(),
	})
}

// ReadinessCheck 就绪检查处理程序
func (h *Handlers) ReadinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
	})
}

// GetWatchlist 获取自选股列表并填充行情
func (h *Handlers) GetWatchlist(c *gin.Context) {
	owner, ok := h.owner(c)
	if !ok {
		return
	}

	items, err := h.store.GetWatchlist(c.Request.Context(), owner)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "获取自选股失败: " + err.Error(),
		})
		return
	}

	// 单只股票的失败不中断整个列表，错误摘要随结果一起返回
	errMessages := h.aggregator.PopulateQuotes(c.Request.Context(), items)

	c.JSON(http.StatusOK, gin.H{
		"data":   items,
		"errors": errMessages,
	})
}

// AddItemRequest 添加自选股请求
type AddItemRequest struct {
	Symbol string `json:"symbol" binding:"required"`
}

// AddItem 添加自选股
func (h *Handlers) AddItem(c *gin.Context) {
	var req AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "无效的请求参数: " + err.Error(),
		})
		return
	}

	owner, ok := h.owner(c)
	if !ok {
		return
	}

	if err := h.store.AddItem(c.Request.Context(), owner, req.Symbol); err != nil {
		if errors.Is(err, store.ErrCapacityExceeded) {
			c.JSON(http.StatusConflict, gin.H{
				"error": "自选股列表已达上限",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "添加自选股失败: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

// RemoveItem 删除自选股
func (h *Handlers) RemoveItem(c *gin.Context) {
	owner, ok := h.owner(c)
	if !ok {
		return
	}

	if err := h.store.RemoveItem(c.Request.Context(), owner, c.Param("symbol")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "删除自选股失败: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

// ClearWatchlist 清空自选股列表
func (h *Handlers) ClearWatchlist(c *gin.Context) {
	owner, ok := h.owner(c)
	if !ok {
		return
	}

	if err := h.store.Clear(c.Request.Context(), owner); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "清空自选股失败: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

// UpdateItemRequest 修改自选股条目请求，只更新出现的字段
type UpdateItemRequest struct {
	Alias         *string          `json:"alias"`
	TargetPrice   *decimal.Decimal `json:"target_price"`
	StopLossPrice *decimal.Decimal `json:"stop_loss_price"`
	AlertsEnabled *bool            `json:"alerts_enabled"`
}

// UpdateItem 修改自选股条目。条目不存在或归属不匹配是静默无操作
func (h *Handlers) UpdateItem(c *gin.Context) {
	var req UpdateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "无效的请求参数: " + err.Error(),
		})
		return
	}

	owner, ok := h.owner(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	itemID := c.Param("id")

	if req.Alias != nil {
		if err := h.store.UpdateAlias(ctx, owner, itemID, req.Alias); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "更新别名失败: " + err.Error()})
			return
		}
	}
	if req.TargetPrice != nil {
		if err := h.store.UpdateTargetPrice(ctx, owner, itemID, req.TargetPrice); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "更新目标价失败: " + err.Error()})
			return
		}
	}
	if req.StopLossPrice != nil {
		if err := h.store.UpdateStopLoss(ctx, owner, itemID, req.StopLossPrice); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "更新止损价失败: " + err.Error()})
			return
		}
	}
	if req.AlertsEnabled != nil {
		if err := h.store.SetAlertsEnabled(ctx, owner, itemID, *req.AlertsEnabled); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "更新提醒开关失败: " + err.Error()})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

// GetAlerts 获取活跃的价格提醒
func (h *Handlers) GetAlerts(c *gin.Context) {
	owner, ok := h.owner(c)
	if !ok {
		return
	}

	alerts, err := h.store.GetAlerts(c.Request.Context(), owner)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "获取价格提醒失败: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": alerts})
}

// CreateAlertRequest 创建价格提醒请求
type CreateAlertRequest struct {
	Symbol      string          `json:"symbol" binding:"required"`
	TargetValue decimal.Decimal `json:"target_value" binding:"required"`
}

// CreateAlert 创建价格提醒。方向按目标价与此刻现价一次性判定
func (h *Handlers) CreateAlert(c *gin.Context) {
	var req CreateAlertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "无效的请求参数: " + err.Error(),
		})
		return
	}

	owner, ok := h.owner(c)
	if !ok {
		return
	}

	// 拉不到现价时按零价处理，目标价为正则判为above
	current := decimal.Zero
	if quote, err := h.fetcher.GetQuote(c.Request.Context(), req.Symbol); err == nil && quote != nil {
		current = quote.Price
	}

	alert := &model.PriceAlert{
		Symbol:      req.Symbol,
		TargetValue: req.TargetValue,
		AlertType:   model.ClassifyAlert(req.TargetValue, current),
	}
	if err := h.store.AddAlert(c.Request.Context(), owner, alert); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "创建价格提醒失败: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":     "success",
		"alert_type": alert.AlertType,
	})
}

// DeactivateAlert 停用价格提醒（逻辑删除）
func (h *Handlers) DeactivateAlert(c *gin.Context) {
	symbol := c.Query("symbol")
	targetParam := c.Query("target")
	if symbol == "" || targetParam == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "symbol和target参数不能为空",
		})
		return
	}

	target, err := decimal.NewFromString(targetParam)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "无效的target参数: " + err.Error(),
		})
		return
	}

	owner, ok := h.owner(c)
	if !ok {
		return
	}

	if err := h.store.DeactivateAlert(c.Request.Context(), owner, symbol, target); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "停用价格提醒失败: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

// GetSuggestions 股票代码建议，上游失败时返回空列表
func (h *Handlers) GetSuggestions(c *gin.Context) {
	query := c.Query("query")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "query参数不能为空",
		})
		return
	}

	suggestions := h.fetcher.GetSuggestions(c.Request.Context(), query)
	if suggestions == nil {
		suggestions = []string{}
	}

	c.JSON(http.StatusOK, gin.H{"data": suggestions})
}

// GetHistory 历史行情，上游失败时返回空列表
func (h *Handlers) GetHistory(c *gin.Context) {
	days := 30
	if daysParam := c.Query("days"); daysParam != "" {
		parsed, err := strconv.Atoi(daysParam)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "无效的days参数",
			})
			return
		}
		days = parsed
	}

	points := h.fetcher.GetHistory(c.Request.Context(), c.Param("symbol"), days)
	if points == nil {
		points = []model.PricePoint{}
	}

	c.JSON(http.StatusOK, gin.H{"data": points})
}

// Migrate 登录后触发的会话迁移，返回迁移报告
func (h *Handlers) Migrate(c *gin.Context) {
	userID := c.GetHeader("X-User-ID")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "迁移需要已登录的用户身份",
		})
		return
	}

	sessionID := c.GetString(sessionKey)
	report, err := h.migrator.Migrate(c.Request.Context(), sessionID, userID)
	if err != nil {
		// 不回滚：已迁移的部分保留，会话未清空，重试是安全的
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":  "迁移失败，可以安全重试: " + err.Error(),
			"report": report,
		})
		return
	}

	// 迁移随登录触发，顺带刷新登录时间。回写失败只记录，不影响迁移结果
	if h.logins != nil {
		if err := h.logins.UpdateLastLogin(c.Request.Context(), userID); err != nil {
			log.Printf("刷新用户 %s 登录时间失败: %v", userID, err)
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"report": report,
	})
}
