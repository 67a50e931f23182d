package usecase

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"smartsales/internal/domain/model"
	"smartsales/internal/notify"
	"smartsales/internal/payment"
	repo "smartsales/internal/repository"

	"go.uber.org/zap"
)

// PaymentUsecase は決済結果の確認（サーバ主導の照会）を担当します。
// クライアントの申告は信用せず、必ずプロバイダへ照会して判定する
type PaymentUsecase struct {
	attempts       repo.PaymentAttemptRepository
	tx             repo.TransactionManager
	gateway        payment.Gateway
	gatewayTimeout time.Duration
	receipts       *ReceiptUsecase
	notifier       notify.Notifier
	logger         *zap.Logger
}

func NewPaymentUsecase(
	attempts repo.PaymentAttemptRepository,
	tx repo.TransactionManager,
	gateway payment.Gateway,
	gatewayTimeout time.Duration,
	receipts *ReceiptUsecase,
	notifier notify.Notifier,
	logger *zap.Logger,
) *PaymentUsecase {
	return &PaymentUsecase{
		attempts:       attempts,
		tx:             tx,
		gateway:        gateway,
		gatewayTimeout: gatewayTimeout,
		receipts:       receipts,
		notifier:       notifier,
		logger:         logger,
	}
}

type VerifyPaymentInput struct {
	PaymentRef string
}

type VerifyPaymentOutput struct {
	OrderID int64 `json:"order_id"`
	//決済が確定したか。呼び出し側がステータス文字列を解釈しなくて済むように
	Settled       bool   `json:"settled"`
	OrderStatus   string `json:"order_status"`
	ReceiptNumber string `json:"receipt_number,omitempty"`
}

// VerifyPayment は支払い結果をプロバイダに照会し、注文を確定または失敗へ進める。
// 何度呼ばれても結果は同じ（在庫・領収書は一度きり）
func (u *PaymentUsecase) VerifyPayment(ctx context.Context, userID int64, in VerifyPaymentInput) (VerifyPaymentOutput, error) {
	if in.PaymentRef == "" {
		return VerifyPaymentOutput{}, NewHTTPError(http.StatusBadRequest, CodeInvalidRequest, "payment_ref is required")
	}

	attempt, err := u.attempts.FindByProviderRef(ctx, in.PaymentRef)
	if err == repo.ErrNotFound {
		return VerifyPaymentOutput{}, NewHTTPError(http.StatusNotFound, CodeNotFound, "payment not found")
	}
	if err != nil {
		return VerifyPaymentOutput{}, NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
	}

	//他人の注文の照会は存在ごと隠す
	owner, err := u.findOrder(ctx, attempt.OrderID)
	if err != nil {
		return VerifyPaymentOutput{}, err
	}
	if owner.UserID != userID {
		return VerifyPaymentOutput{}, NewHTTPError(http.StatusNotFound, CodeNotFound, "payment not found")
	}

	// 照会はTx外（外部I/OでDBロックを握らない）
	gwCtx, cancel := context.WithTimeout(ctx, u.gatewayTimeout)
	defer cancel()

	status, err := u.gateway.QueryStatus(gwCtx, in.PaymentRef)
	if err != nil {
		//判定できないだけ。注文はPENDING_PAYMENTのまま再試行可能
		u.logger.Warn("payment status query failed",
			zap.String("payment_ref", in.PaymentRef),
			zap.Error(err),
		)
		return VerifyPaymentOutput{}, NewHTTPError(http.StatusBadGateway, CodeGatewayError, "payment provider unavailable, please retry")
	}

	switch status {
	case payment.StatusSucceeded:
		return u.settleSucceeded(ctx, attempt)
	case payment.StatusFailed:
		return u.settleFailed(ctx, attempt)
	default:
		//まだ確定していない。何も変えずに現状を返す
		order, err := u.findOrder(ctx, attempt.OrderID)
		if err != nil {
			return VerifyPaymentOutput{}, err
		}
		return VerifyPaymentOutput{OrderID: order.ID, Settled: order.Status.Settled(), OrderStatus: string(order.Status)}, nil
	}
}

// 決済成功の確定。注文行をロックして直列化し、条件付きUPDATEで冪等にする
// 確定（PAID）と領収書発行は別トランザクション。発行に失敗してもPAIDは残り、
// 次のverifyで発行だけやり直せる
func (u *PaymentUsecase) settleSucceeded(ctx context.Context, attempt model.PaymentAttempt) (VerifyPaymentOutput, error) {
	var (
		cur            model.Order
		existingNumber string
		paidEv         notify.OrderPaidEvent
		won            bool
	)

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		order, err := r.Orders().FindByIDForUpdate(ctx, attempt.OrderID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, CodeNotFound, "order not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
		}

		//試行がPENDINGのときだけ進める。負けたら既に確定済み（2回目以降の照会）
		advanced, err := r.PaymentAttempts().MarkSucceededIfPending(ctx, attempt.ID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
		}
		if !advanced {
			cur = order
			if rc, err := r.Receipts().FindByOrderID(ctx, order.ID); err == nil {
				existingNumber = rc.Number
			}
			return nil
		}

		if !order.Status.Settleable() {
			//試行は進んだが注文が確定できる状態でない（キャンセル済みなど）
			return NewHTTPError(http.StatusConflict, CodeConflict, fmt.Sprintf("order is %s", order.Status))
		}

		now := time.Now()

		if err := r.Orders().UpdateStatus(ctx, order.ID, model.OrderStatusPaid); err != nil {
			return NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
		}

		//決済が確定したのでカートはここで消す
		if order.CartID > 0 {
			if err := r.Carts().Delete(ctx, order.CartID); err != nil {
				return NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
			}
		}

		if err := r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  order.UserID,
			Action:       model.AuditActionPaymentSucceeded,
			ResourceType: model.AuditResourceOrder,
			ResourceID:   order.ID,
			Description:  fmt.Sprintf("payment %s confirmed", attempt.ProviderRef),
		}); err != nil {
			return NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
		}

		order.Status = model.OrderStatusPaid
		cur = order
		paidEv = notify.NewOrderPaidEvent(order, now)
		won = true
		return nil
	})
	if err != nil {
		return VerifyPaymentOutput{}, err
	}

	//通知はコミット後。失敗しても確定は巻き戻さない。勝者だけが一度送る
	if won {
		u.notifier.OrderPaid(ctx, paidEv)
	}

	//PAID以外はもう進めない（RECEIPTEDなら既存の番号を返すだけ）
	if cur.Status != model.OrderStatusPaid {
		return VerifyPaymentOutput{OrderID: cur.ID, Settled: cur.Status.Settled(), OrderStatus: string(cur.Status), ReceiptNumber: existingNumber}, nil
	}

	return u.issueReceipt(ctx, cur)
}

// 領収書発行とRECEIPTEDへの遷移。失敗してもPAIDは残る（次のverifyでやり直す）
func (u *PaymentUsecase) issueReceipt(ctx context.Context, order model.Order) (VerifyPaymentOutput, error) {
	var number string

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		locked, err := r.Orders().FindByIDForUpdate(ctx, order.ID)
		if err != nil {
			return err
		}

		rc, err := u.receipts.IssueFor(ctx, r, locked, model.ReceiptTypeInvoice, time.Now())
		if err != nil {
			return err
		}
		number = rc.Number

		if locked.Status == model.OrderStatusPaid {
			if err := r.Orders().UpdateStatus(ctx, locked.ID, model.OrderStatusReceipted); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		u.logger.Error("receipt issuance failed, order stays paid",
			zap.Int64("order_id", order.ID),
			zap.Error(err),
		)
		return VerifyPaymentOutput{OrderID: order.ID, Settled: true, OrderStatus: string(model.OrderStatusPaid)}, nil
	}

	return VerifyPaymentOutput{
		OrderID:       order.ID,
		Settled:       true,
		OrderStatus:   string(model.OrderStatusReceipted),
		ReceiptNumber: number,
	}, nil
}

// 決済失敗の確定。在庫を戻してPAYMENT_FAILEDへ
func (u *PaymentUsecase) settleFailed(ctx context.Context, attempt model.PaymentAttempt) (VerifyPaymentOutput, error) {
	var out VerifyPaymentOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		order, err := r.Orders().FindByIDForUpdate(ctx, attempt.OrderID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, CodeNotFound, "order not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
		}

		advanced, err := r.PaymentAttempts().MarkFailedIfPending(ctx, attempt.ID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
		}
		if !advanced {
			out = VerifyPaymentOutput{OrderID: order.ID, Settled: order.Status.Settled(), OrderStatus: string(order.Status)}
			return nil
		}

		if !order.Status.Settleable() {
			out = VerifyPaymentOutput{OrderID: order.ID, Settled: order.Status.Settled(), OrderStatus: string(order.Status)}
			return nil
		}

		//確保していた在庫を戻す（一度だけ。冪等ゲートの内側）
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

		if err := r.Orders().UpdateStatus(ctx, order.ID, model.OrderStatusPaymentFailed); err != nil {
			return NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
		}

		if err := r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  order.UserID,
			Action:       model.AuditActionPaymentFailed,
			ResourceType: model.AuditResourceOrder,
			ResourceID:   order.ID,
			Description:  fmt.Sprintf("payment %s failed, stock released", attempt.ProviderRef),
		}); err != nil {
			return NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
		}

		out = VerifyPaymentOutput{OrderID: order.ID, OrderStatus: string(model.OrderStatusPaymentFailed)}
		return nil
	})
	if err != nil {
		return VerifyPaymentOutput{}, err
	}
	return out, nil
}

func (u *PaymentUsecase) findOrder(ctx context.Context, orderID int64) (model.Order, error) {
	var order model.Order
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, CodeNotFound, "order not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
		}
		order = o
		return nil
	})
	return order, err
}
