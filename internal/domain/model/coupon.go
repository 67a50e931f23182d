package model

import "time"

// 割引クーポン
// 使用回数は在庫と同じ条件付きUPDATEで予約する（楽観インクリメント禁止）
type Coupon struct {
	ID         int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Code       string    `gorm:"type:varchar(50);not null;uniqueIndex" json:"code"`
	PercentOff int64     `gorm:"not null" json:"percent_off"`
	MaxUses    int64     `gorm:"not null" json:"max_uses"`
	UsedCount  int64     `gorm:"not null;default:0" json:"used_count"`
	IsActive   bool      `gorm:"not null;default:true" json:"is_active"`
	ExpiresAt  time.Time `gorm:"not null" json:"expires_at"`
	CreatedAt  time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}

func (c Coupon) Usable(now time.Time) bool {
	return c.IsActive && now.Before(c.ExpiresAt)
}
