package repository

import (
	"context"

	"smartsales/internal/domain/model"
)

type CouponRepository interface {
	FindByCode(ctx context.Context, code string) (model.Coupon, error)
	// 使用枠が残っているときだけ1回分を予約する
	// falseなら上限到達（同時利用のレースでも二重には通らない）
	IncrementUsageIfAvailable(ctx context.Context, code string) (bool, error)
}
