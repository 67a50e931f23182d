package model

import "time"

type AuditAction string

const (
	//決済インテントを作成した操作
	AuditActionPaymentIntentCreated AuditAction = "PAYMENT_INTENT_CREATED"
	//決済確定（注文PAID）の操作
	AuditActionPaymentSucceeded AuditAction = "PAYMENT_SUCCEEDED"
	//決済失敗で在庫を戻した操作
	AuditActionPaymentFailed AuditAction = "PAYMENT_FAILED"
	//管理者が注文をキャンセルした操作
	AuditActionOrderCancelled AuditAction = "ORDER_CANCELLED"
	//在庫を更新した操作
	AuditActionUpdateStock AuditAction = "UPDATE_STOCK"
)

// 何に対する操作か
type AuditResourceType string

const (
	AuditResourceProduct AuditResourceType = "product"
	AuditResourceOrder   AuditResourceType = "order"
)

// 監査ログ。「誰が」「何を」「どの対象に」を残す
type AuditLog struct {
	ID           int64             `gorm:"primaryKey;autoIncrement" json:"id"`
	ActorUserID  int64             `gorm:"not null;index" json:"actor_user_id"`
	Action       AuditAction       `gorm:"type:varchar(50);not null;index" json:"action"`
	ResourceType AuditResourceType `gorm:"type:varchar(50);not null;index" json:"resource_type"`
	ResourceID   int64             `gorm:"not null;index" json:"resource_id"`
	Description  string            `gorm:"type:text" json:"description"`
	CreatedAt    time.Time         `gorm:"not null;autoCreateTime;index" json:"created_at"`
}
