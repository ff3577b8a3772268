package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"StockWatch/pkg/model"
)

// ErrUserNotFound 用户不存在
var ErrUserNotFound = errors.New("用户不存在")

type UserDB struct {
	db *gorm.DB
}

// GetByID 按ID查询用户。用户不存在返回ErrUserNotFound，供识别器判断陈旧身份
func (u *UserDB) GetByID(ctx context.Context, userID string) (*model.User, error) {
	var user model.User
	err := u.db.WithContext(ctx).First(&user, "id = ?", userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("获取用户信息失败: %w", err)
	}
	return &user, nil
}

// UpdateLastLogin 在登录迁移成功后刷新最近登录时间
func (u *UserDB) UpdateLastLogin(ctx context.Context, userID string) error {
	return u.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", userID).
		Update("last_login_at", time.Now()).Error
}
