package notify

import (
	"context"
	"time"

	"smartsales/internal/domain/model"

	"go.uber.org/zap"
)

// 決済確定イベント。通知ファンアウト（外部）へ渡す中身
type OrderPaidEvent struct {
	OrderID    int64
	UserID     int64
	TotalPrice int64
	PaidAt     time.Time
}

// 通知はベストエフォート。失敗しても決済は巻き戻さない
type Notifier interface {
	OrderPaid(ctx context.Context, ev OrderPaidEvent)
}

// LogNotifier はイベントをログに流すだけの実装
// 本物のファンアウト先が外部コンポーネントなのでここでは配送しない
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) OrderPaid(ctx context.Context, ev OrderPaidEvent) {
	n.logger.Info("order paid",
		zap.Int64("order_id", ev.OrderID),
		zap.Int64("user_id", ev.UserID),
		zap.Int64("total_price", ev.TotalPrice),
		zap.Time("paid_at", ev.PaidAt),
	)
}

var _ Notifier = (*LogNotifier)(nil)

// イベントから通知用の値を作る
func NewOrderPaidEvent(order model.Order, paidAt time.Time) OrderPaidEvent {
	return OrderPaidEvent{
		OrderID:    order.ID,
		UserID:     order.UserID,
		TotalPrice: order.TotalPrice,
		PaidAt:     paidAt,
	}
}
