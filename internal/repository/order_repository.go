package repository

import (
	"context"

	"smartsales/internal/domain/model"
)

type OrderRepository interface {
	FindByID(ctx context.Context, orderID int64) (model.Order, error)
	// 行ロック付き取得。注文単位の遷移を直列化する
	FindByIDForUpdate(ctx context.Context, orderID int64) (model.Order, error)
	ListByUserID(ctx context.Context, userID int64, page int, limit int) ([]model.Order, int64, error)
	Create(ctx context.Context, order model.Order) (int64, error)
	UpdateStatus(ctx context.Context, orderID int64, status model.OrderStatus) error
	// ゲートウェイ障害の補償で未決済注文を消す
	Delete(ctx context.Context, orderID int64) error
	// 支払い待ち注文が既にあるか（二重チェックアウト防止）
	ExistsPendingPayment(ctx context.Context, userID int64) (bool, error)
}
