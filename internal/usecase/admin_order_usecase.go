package usecase

import (
	"context"
	"fmt"
	"net/http"

	"smartsales/internal/domain/model"
	repo "smartsales/internal/repository"

	"go.uber.org/zap"
)

// AdminOrderUsecase は管理者による注文操作を担当します。
type AdminOrderUsecase struct {
	tx     repo.TransactionManager
	logger *zap.Logger
}

func NewAdminOrderUsecase(tx repo.TransactionManager, logger *zap.Logger) *AdminOrderUsecase {
	return &AdminOrderUsecase{tx: tx, logger: logger}
}

// CancelOrder は支払い待ちの注文をキャンセルして在庫を戻す。
// PENDING_PAYMENT以外（確定済み・失敗済み）はキャンセルできない
func (u *AdminOrderUsecase) CancelOrder(ctx context.Context, adminUserID int64, orderID int64) (OrderResponse, error) {
	if adminUserID <= 0 {
		return OrderResponse{}, NewHTTPError(http.StatusUnauthorized, CodeUnauthorized, "unauthorized")
	}

	var out OrderResponse
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		//行ロックで決済確認との競合を直列化
		order, err := r.Orders().FindByIDForUpdate(ctx, orderID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, CodeNotFound, "order not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
		}

		if order.Status != model.OrderStatusPendingPayment {
			return NewHTTPError(http.StatusConflict, CodeConflict, fmt.Sprintf("order is %s", order.Status))
		}

		//決済試行も閉じる（以後のverifyは「処理済み」を返す）
		if attempt, err := r.PaymentAttempts().FindPendingByOrderID(ctx, order.ID); err == nil {
			if _, err := r.PaymentAttempts().MarkFailedIfPending(ctx, attempt.ID); err != nil {
				return NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
			}
		} else if err != repo.ErrNotFound {
			return NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
		}

		//確保していた在庫を戻す
		items, err := r.OrderItems().ListByOrderID(ctx, order.ID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
		}
		lines := make([]repo.ReservationLine, 0, len(items))
		for _, it := range items {
			lines = append(lines, repo.ReservationLine{ProductID: it.ProductID, Quantity: it.Quantity})
		}
		if err := r.Inventory().Release(ctx, lines); err != nil {
			return NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
		}

		if err := r.Orders().UpdateStatus(ctx, order.ID, model.OrderStatusCancelled); err != nil {
			return NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
		}

		if err := r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  adminUserID,
			Action:       model.AuditActionOrderCancelled,
			ResourceType: model.AuditResourceOrder,
			ResourceID:   order.ID,
			Description:  "cancelled by admin, stock released",
		}); err != nil {
			return NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
		}

		order.Status = model.OrderStatusCancelled
		out = toOrderResponse(order, items)
		return nil
	})
	if err != nil {
		return OrderResponse{}, err
	}

	u.logger.Info("order cancelled",
		zap.Int64("order_id", orderID),
		zap.Int64("admin_user_id", adminUserID),
	)
	return out, nil
}
