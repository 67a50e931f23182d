package model

import "time"

type OrderStatus string

const (
	//支払い待ち（在庫は確保済み）
	OrderStatusPendingPayment OrderStatus = "PENDING_PAYMENT"
	//決済確認済み
	OrderStatusPaid OrderStatus = "PAID"
	//領収書発行済み（終端）
	OrderStatusReceipted OrderStatus = "RECEIPTED"
	//決済失敗（在庫は戻し済み、終端）
	OrderStatusPaymentFailed OrderStatus = "PAYMENT_FAILED"
	//管理者キャンセル（在庫は戻し済み、終端）
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

// 確定後は明細・合計を変更しない
type Order struct {
	ID     int64 `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID int64 `gorm:"not null;index" json:"user_id"`
	//チェックアウト元のカート。決済確定時にこのカートを消す
	CartID          int64       `gorm:"not null;index" json:"-"`
	Status          OrderStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	TotalPrice      int64       `gorm:"not null" json:"total_price"`
	DeliveryAddress string      `gorm:"type:varchar(500);not null" json:"delivery_address"`
	Notes           string      `gorm:"type:text" json:"notes"`
	CreatedAt       time.Time   `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time   `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

// 支払い確定前の注文か
func (s OrderStatus) Settleable() bool {
	return s == OrderStatusPendingPayment
}

// 決済が確定済みか（領収書の有無は問わない）
func (s OrderStatus) Settled() bool {
	return s == OrderStatusPaid || s == OrderStatusReceipted
}
