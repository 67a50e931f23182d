package model

import "time"

type CartStatus string

const (
	CartStatusActive     CartStatus = "ACTIVE"
	CartStatusCheckedOut CartStatus = "CHECKED_OUT"
)

// カートの持ち主。会員IDか匿名セッションキーのどちらか一方だけ
type CartOwner struct {
	UserID     int64
	SessionKey string
}

// 会員・匿名のどちらか片方だけが入っているか
func (o CartOwner) Valid() bool {
	return (o.UserID > 0) != (o.SessionKey != "")
}

// 1オーナーにつきACTIVEは1つ。部分ユニークインデックスでDB側でも守る
// （同時の初回アクセスが2つ作ろうとしても片方はユニーク違反で弾かれる）
type Cart struct {
	ID         int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID     *int64     `gorm:"uniqueIndex:uq_carts_active_user,where:status = 'ACTIVE'" json:"user_id,omitempty"`
	SessionKey *string    `gorm:"type:varchar(255);uniqueIndex:uq_carts_active_session,where:status = 'ACTIVE'" json:"session_key,omitempty"`
	Status     CartStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	CreatedAt  time.Time  `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time  `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
