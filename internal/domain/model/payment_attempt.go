package model

import "time"

type PaymentAttemptStatus string

const (
	PaymentAttemptPending   PaymentAttemptStatus = "PENDING"
	PaymentAttemptSucceeded PaymentAttemptStatus = "SUCCEEDED"
	PaymentAttemptFailed    PaymentAttemptStatus = "FAILED"
)

// 外部決済プロバイダへの支払い試行
// 1注文につきPENDINGは同時に1つまで
type PaymentAttempt struct {
	ID          int64                `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID     int64                `gorm:"not null;index" json:"order_id"`
	ProviderRef string               `gorm:"type:varchar(255);not null;uniqueIndex" json:"provider_ref"`
	Amount      int64                `gorm:"not null" json:"amount"`
	Status      PaymentAttemptStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	CreatedAt   time.Time            `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time            `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
