package repository

import (
	"context"

	"smartsales/internal/domain/model"
)

type CartRepository interface {
	GetOrCreateActiveByOwner(ctx context.Context, owner model.CartOwner) (model.Cart, error)
	FindActiveByOwner(ctx context.Context, owner model.CartOwner) (model.Cart, error)
	FindActiveByUserID(ctx context.Context, userID int64) (model.Cart, error)
	// ACTIVEカート行をFOR UPDATEで取得。同一ユーザのチェックアウトを直列化する
	FindActiveByUserIDForUpdate(ctx context.Context, userID int64) (model.Cart, error)
	// 明細を全削除
	Clear(ctx context.Context, cartID int64) error
	// カート本体ごと削除（チェックアウト成功時）
	Delete(ctx context.Context, cartID int64) error
}
