package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User 用户。注册登录由外部身份系统负责，这里只维护持久化存储所需的查询目标
type User struct {
	ID          string     `gorm:"type:uuid;primaryKey" json:"id"`
	Username    string     `gorm:"uniqueIndex;not null" json:"username"`
	Email       string     `gorm:"uniqueIndex" json:"email"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	LastLoginAt *time.Time `json:"last_login_at"`

	// 关联关系
	WatchlistItems []WatchlistItem `gorm:"foreignKey:UserID" json:"watchlist_items,omitempty"`
	Alerts         []PriceAlert    `gorm:"foreignKey:UserID" json:"alerts,omitempty"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	return nil
}
