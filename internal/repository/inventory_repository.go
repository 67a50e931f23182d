package repository

import (
	"context"

	"smartsales/internal/domain/model"
)

// 確保・戻しの対象1行分
type ReservationLine struct {
	ProductID int64
	Quantity  int64
}

// 足りなかった明細（全件をまとめて返す）
type StockShortfall struct {
	ProductID   int64  `json:"product_id"`
	ProductName string `json:"product_name"`
	Requested   int64  `json:"requested"`
	Available   int64  `json:"available"`
}

type InventoryRepository interface {
	// 全行まとめて確保。1行でも足りなければ何も減らさず不足一覧を返す
	// 同一トランザクション内で呼ぶこと
	ReserveAll(ctx context.Context, lines []ReservationLine) ([]StockShortfall, error)

	// 在庫戻し（決済失敗・キャンセル・ゲートウェイ障害の補償）
	Release(ctx context.Context, lines []ReservationLine) error

	// 在庫の現在値を設定（管理者）
	SetStock(ctx context.Context, productID int64, newStock int64) error

	// 調整履歴作成
	CreateAdjustment(ctx context.Context, adjustment model.InventoryAdjustment) error
}
