package resolver

import (
	"context"
	"errors"
	"log"
	"sync/atomic"

	"StockWatch/pkg/database"
	"StockWatch/pkg/model"
)

// UserLookup 用户查询接口，由持久化存储实现
type UserLookup interface {
	GetByID(ctx context.Context, userID string) (*model.User, error)
}

// Resolver 请求级归属识别。已登录用户解析为用户归属键；
// 登录态指向的用户在库里不存在（比如库重置后的陈旧cookie）时
// 静默降级为会话归属，绝不让请求失败。降级次数有计数器可观测
type Resolver struct {
	users      UserLookup
	staleCount atomic.Int64
}

// NewResolver 创建新的归属识别器
func NewResolver(users UserLookup) *Resolver {
	return &Resolver{users: users}
}

// Resolve 解析本次请求的归属键。userID为空表示匿名调用方。
// 只有存储本身不可达这类结构性错误才向上传播
func (r *Resolver) Resolve(ctx context.Context, sessionID, userID string) (model.OwnerKey, error) {
	if userID == "" {
		return model.SessionOwner(sessionID), nil
	}

	if _, err := r.users.GetByID(ctx, userID); err != nil {
		if errors.Is(err, database.ErrUserNotFound) {
			r.staleCount.Add(1)
			log.Printf("警告: 登录态指向的用户不存在，降级为会话存储: userID=%s", userID)
			return model.SessionOwner(sessionID), nil
		}
		return model.OwnerKey{}, err
	}

	return model.UserOwner(userID), nil
}

// StaleIdentityCount 陈旧身份降级的累计次数
func (r *Resolver) StaleIdentityCount() int64 {
	return r.staleCount.Load()
}
