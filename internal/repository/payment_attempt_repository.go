package repository

import (
	"context"

	"smartsales/internal/domain/model"
)

type PaymentAttemptRepository interface {
	Create(ctx context.Context, attempt model.PaymentAttempt) (int64, error)
	FindByProviderRef(ctx context.Context, providerRef string) (model.PaymentAttempt, error)
	FindPendingByOrderID(ctx context.Context, orderID int64) (model.PaymentAttempt, error)

	// PENDINGのときだけ状態を進める条件付きUPDATE
	// falseなら既に別の呼び出しが処理済み（冪等の判定に使う）
	MarkSucceededIfPending(ctx context.Context, attemptID int64) (bool, error)
	MarkFailedIfPending(ctx context.Context, attemptID int64) (bool, error)
}
