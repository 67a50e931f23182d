package repository

import (
	"context"

	"smartsales/internal/domain/model"
)

type ReceiptRepository interface {
	FindByOrderID(ctx context.Context, orderID int64) (model.Receipt, error)
	Create(ctx context.Context, receipt model.Receipt) (model.Receipt, error)
	// 種別ごとの次の連番。カウンタ行をロックして採番する（飛び・重複なし）
	NextSeq(ctx context.Context, receiptType model.ReceiptType) (int64, error)
}
