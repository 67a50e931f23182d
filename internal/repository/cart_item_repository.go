package repository

import (
	"context"

	"smartsales/internal/domain/model"
)

type CartItemRepository interface {
	ListByCartID(ctx context.Context, cartID int64) ([]model.CartItem, error)
	// 同一商品はプラス
	UpsertByCartAndProduct(ctx context.Context, cartID int64, productID int64, addQty int64, unitPriceSnapshot int64) error
	UpdateQuantity(ctx context.Context, cartItemID int64, qty int64) error
	// クーポン適用で追加時価格を上書き
	UpdateUnitPrice(ctx context.Context, cartItemID int64, unitPrice int64) error
	DeleteByID(ctx context.Context, cartItemID int64) error
	FindByID(ctx context.Context, cartItemID int64) (model.CartItem, error)
	IsOwnedBy(ctx context.Context, cartItemID int64, owner model.CartOwner) (bool, error)
}
