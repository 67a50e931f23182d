package usecase

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"smartsales/internal/domain/model"
	"smartsales/internal/receipt"
	repo "smartsales/internal/repository"

	"go.uber.org/zap"
)

// ReceiptUsecase は領収書の発行と参照を担当します。
// 発行は決済確定（PAID）とは別のトランザクションで走る。発行側が失敗しても
// 採番と帳票は一緒に巻き戻るので番号は飛ばず、後からやり直せる
type ReceiptUsecase struct {
	tx       repo.TransactionManager
	renderer receipt.Renderer
	logger   *zap.Logger
}

func NewReceiptUsecase(tx repo.TransactionManager, renderer receipt.Renderer, logger *zap.Logger) *ReceiptUsecase {
	return &ReceiptUsecase{tx: tx, renderer: renderer, logger: logger}
}

type ReceiptResponse struct {
	ID          int64  `json:"id"`
	OrderID     int64  `json:"order_id"`
	Type        string `json:"type"`
	Number      string `json:"number"`
	DocumentRef string `json:"document_ref"`
	IssuedAt    string `json:"issued_at"`
}

// IssueFor は注文に領収書を1枚発行する。既にあればそれを返す（1注文1枚）
// 呼び出し元のトランザクション r の中で採番・帳票・保存まで行う
func (u *ReceiptUsecase) IssueFor(ctx context.Context, r repo.TxRepos, order model.Order, receiptType model.ReceiptType, issuedAt time.Time) (model.Receipt, error) {
	existing, err := r.Receipts().FindByOrderID(ctx, order.ID)
	if err == nil {
		return existing, nil
	}
	if err != repo.ErrNotFound {
		return model.Receipt{}, err
	}

	seq, err := r.Receipts().NextSeq(ctx, receiptType)
	if err != nil {
		return model.Receipt{}, err
	}
	number := fmt.Sprintf("%s-%s-%05d", receiptType.Prefix(), issuedAt.Format("20060102"), seq)

	items, err := r.OrderItems().ListByOrderID(ctx, order.ID)
	if err != nil {
		return model.Receipt{}, err
	}

	//帳票が書けなければトランザクションごと巻き戻す（番号を飛ばさない）
	doc := receipt.BuildDocument(number, order, items, issuedAt)
	documentRef, err := u.renderer.Render(ctx, doc)
	if err != nil {
		return model.Receipt{}, err
	}

	created, err := r.Receipts().Create(ctx, model.Receipt{
		OrderID:     order.ID,
		Type:        receiptType,
		SeqNo:       seq,
		Number:      number,
		DocumentRef: documentRef,
		IssuedAt:    issuedAt,
	})
	if err != nil {
		return model.Receipt{}, err
	}

	u.logger.Info("receipt issued",
		zap.Int64("order_id", order.ID),
		zap.String("number", number),
	)
	return created, nil
}

// GetByOrder は注文の領収書を返す。本人の注文のみ参照できる
func (u *ReceiptUsecase) GetByOrder(ctx context.Context, userID int64, orderID int64) (ReceiptResponse, error) {
	if userID <= 0 {
		return ReceiptResponse{}, NewHTTPError(http.StatusUnauthorized, CodeUnauthorized, "unauthorized")
	}

	var out ReceiptResponse
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		order, err := r.Orders().FindByID(ctx, orderID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, CodeNotFound, "order not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
		}
		if order.UserID != userID {
			return NewHTTPError(http.StatusNotFound, CodeNotFound, "order not found")
		}

		rc, err := r.Receipts().FindByOrderID(ctx, orderID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, CodeNotFound, "receipt not issued")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
		}

		out = ReceiptResponse{
			ID:          rc.ID,
			OrderID:     rc.OrderID,
			Type:        string(rc.Type),
			Number:      rc.Number,
			DocumentRef: rc.DocumentRef,
			IssuedAt:    rc.IssuedAt.Format(time.RFC3339),
		}
		return nil
	})
	if err != nil {
		return ReceiptResponse{}, err
	}
	return out, nil
}
