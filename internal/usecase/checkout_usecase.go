package usecase

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"smartsales/internal/domain/model"
	"smartsales/internal/payment"
	repo "smartsales/internal/repository"

	"go.uber.org/zap"
)

// CheckoutUsecase はカートから支払い待ち注文を作るまでを担当します。
// 在庫確保と注文作成は1トランザクション、ゲートウェイ呼び出しはその外で行う
type CheckoutUsecase struct {
	tx             repo.TransactionManager
	gateway        payment.Gateway
	gatewayTimeout time.Duration
	logger         *zap.Logger
}

func NewCheckoutUsecase(
	tx repo.TransactionManager,
	gateway payment.Gateway,
	gatewayTimeout time.Duration,
	logger *zap.Logger,
) *CheckoutUsecase {
	return &CheckoutUsecase{
		tx:             tx,
		gateway:        gateway,
		gatewayTimeout: gatewayTimeout,
		logger:         logger,
	}
}

type CheckoutInput struct {
	DeliveryAddress string
	Notes           string
}

type CheckoutOutput struct {
	OrderID      int64  `json:"order_id"`
	PaymentRef   string `json:"payment_ref"`
	ClientSecret string `json:"client_secret"`
	Total        int64  `json:"total_price"`
}

// Checkout は会員のACTIVEカートを注文に変換する。
// 成功時: 在庫確保済み・PENDING_PAYMENT注文・PENDINGのPaymentAttemptが残る
// ゲートウェイ失敗時: 注文を消して在庫を戻す（何も残らない）
func (u *CheckoutUsecase) Checkout(ctx context.Context, userID int64, in CheckoutInput) (CheckoutOutput, error) {
	if userID <= 0 {
		return CheckoutOutput{}, NewHTTPError(http.StatusUnauthorized, CodeUnauthorized, "unauthorized")
	}
	if strings.TrimSpace(in.DeliveryAddress) == "" {
		return CheckoutOutput{}, NewHTTPError(http.StatusBadRequest, CodeInvalidRequest, "delivery_address is required")
	}

	var (
		orderID int64
		total   int64
		lines   []repo.ReservationLine
	)

	// Tx1: カート行ロック → 二重チェックアウト確認 → 在庫確保 → 注文作成
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		//先にACTIVEカート行をロックしてユーザ単位に直列化する。
		//これが無いと二重チェックアウト判定が同時リクエストですり抜ける
		cart, err := r.Carts().FindActiveByUserIDForUpdate(ctx, userID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusBadRequest, CodeInvalidRequest, "cart empty")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
		}

		exists, err := r.Orders().ExistsPendingPayment(ctx, userID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
		}
		if exists {
			return NewHTTPError(http.StatusConflict, CodeConflictingCheckout, "an order is already awaiting payment")
		}

		items, err := r.CartItems().ListByCartID(ctx, cart.ID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
		}
		if len(items) == 0 {
			return NewHTTPError(http.StatusBadRequest, CodeInvalidRequest, "cart empty")
		}

		lines = make([]repo.ReservationLine, 0, len(items))
		for _, it := range items {
			lines = append(lines, repo.ReservationLine{ProductID: it.ProductID, Quantity: it.Quantity})
		}

		//全行まとめて確保。1つでも足りなければ不足一覧が返る
		shortfalls, err := r.Inventory().ReserveAll(ctx, lines)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
		}
		if len(shortfalls) > 0 {
			//カート追加時と同じ扱い（400 + 不足の内訳）
			return NewHTTPErrorWithDetails(http.StatusBadRequest, CodeInsufficientStock, "insufficient stock", shortfalls)
		}

		total = 0
		orderItems := make([]model.OrderItem, 0, len(items))
		for _, it := range items {
			p, err := r.Products().FindByID(ctx, it.ProductID)
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
			}
			orderItems = append(orderItems, model.OrderItem{
				ProductID:           it.ProductID,
				ProductNameSnapshot: p.Name,
				UnitPriceSnapshot:   it.UnitPriceSnapshot,
				Quantity:            it.Quantity,
			})
			total += it.UnitPriceSnapshot * it.Quantity
		}

		orderID, err = r.Orders().Create(ctx, model.Order{
			UserID:          userID,
			CartID:          cart.ID,
			Status:          model.OrderStatusPendingPayment,
			TotalPrice:      total,
			DeliveryAddress: in.DeliveryAddress,
			Notes:           in.Notes,
		})
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
		}

		if err := r.OrderItems().CreateBulk(ctx, orderID, orderItems); err != nil {
			return NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
		}
		return nil
	})
	if err != nil {
		return CheckoutOutput{}, err
	}

	// Tx外でゲートウェイ呼び出し（外部I/OでDBロックを握らない）
	gwCtx, cancel := context.WithTimeout(ctx, u.gatewayTimeout)
	defer cancel()

	intent, gwErr := u.gateway.CreateIntent(gwCtx, total, fmt.Sprintf("order-%d", orderID))
	if gwErr != nil {
		u.logger.Warn("payment intent creation failed, compensating",
			zap.Int64("order_id", orderID),
			zap.Error(gwErr),
		)
		//補償: 在庫を戻し、未決済注文を消す
		if compErr := u.compensate(ctx, orderID, lines); compErr != nil {
			u.logger.Error("compensation failed",
				zap.Int64("order_id", orderID),
				zap.Error(compErr),
			)
		}
		return CheckoutOutput{}, NewHTTPError(http.StatusBadGateway, CodeGatewayError, "payment provider unavailable, please retry")
	}

	// Tx2: 試行記録と監査
	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		_, err := r.PaymentAttempts().Create(ctx, model.PaymentAttempt{
			OrderID:     orderID,
			ProviderRef: intent.ProviderRef,
			Amount:      total,
			Status:      model.PaymentAttemptPending,
		})
		if err != nil {
			return err
		}
		return r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  userID,
			Action:       model.AuditActionPaymentIntentCreated,
			ResourceType: model.AuditResourceOrder,
			ResourceID:   orderID,
			Description:  fmt.Sprintf("payment intent %s created (amount %d)", intent.ProviderRef, total),
		})
	})
	if err != nil {
		//記録できない試行は進めない。ここでも補償して502
		u.logger.Error("failed to persist payment attempt, compensating",
			zap.Int64("order_id", orderID),
			zap.Error(err),
		)
		if compErr := u.compensate(ctx, orderID, lines); compErr != nil {
			u.logger.Error("compensation failed",
				zap.Int64("order_id", orderID),
				zap.Error(compErr),
			)
		}
		return CheckoutOutput{}, NewHTTPError(http.StatusBadGateway, CodeGatewayError, "payment provider unavailable, please retry")
	}

	u.logger.Info("checkout completed",
		zap.Int64("order_id", orderID),
		zap.Int64("user_id", userID),
		zap.Int64("total_price", total),
	)

	return CheckoutOutput{
		OrderID:      orderID,
		PaymentRef:   intent.ProviderRef,
		ClientSecret: intent.ClientSecret,
		Total:        total,
	}, nil
}

// 在庫を戻して未決済注文と明細を消す
func (u *CheckoutUsecase) compensate(ctx context.Context, orderID int64, lines []repo.ReservationLine) error {
	return u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		if err := r.Inventory().Release(ctx, lines); err != nil {
			return err
		}
		if err := r.OrderItems().DeleteByOrderID(ctx, orderID); err != nil {
			return err
		}
		return r.Orders().Delete(ctx, orderID)
	})
}
