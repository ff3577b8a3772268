package model

import "fmt"

// OwnerKind 归属键类型
type OwnerKind string

const (
	OwnerSession OwnerKind = "session" // 匿名会话
	OwnerUser    OwnerKind = "user"    // 已登录用户
)

// OwnerKey 自选股归属键：要么是匿名会话ID，要么是用户ID，二者不会同时存在
type OwnerKey struct {
	Kind OwnerKind
	ID   string
}

// SessionOwner 构造会话归属键
func SessionOwner(sessionID string) OwnerKey {
	return OwnerKey{Kind: OwnerSession, ID: sessionID}
}

// UserOwner 构造用户归属键
func UserOwner(userID string) OwnerKey {
	return OwnerKey{Kind: OwnerUser, ID: userID}
}

// IsUser 是否为已登录用户
func (k OwnerKey) IsUser() bool {
	return k.Kind == OwnerUser
}

func (k OwnerKey) String() string {
	return fmt.Sprintf("%s:%s", k.Kind, k.ID)
}
