package repository

import (
	"context"
	"errors"

	"smartsales/internal/domain/model"
	repo "smartsales/internal/repository"

	"gorm.io/gorm"
)

type PaymentAttemptGormRepository struct {
	db *gorm.DB
}

func NewPaymentAttemptGormRepository(db *gorm.DB) *PaymentAttemptGormRepository {
	return &PaymentAttemptGormRepository{db: db}
}

func (r *PaymentAttemptGormRepository) Create(ctx context.Context, attempt model.PaymentAttempt) (int64, error) {
	if err := r.db.WithContext(ctx).Create(&attempt).Error; err != nil {
		return 0, err
	}
	return attempt.ID, nil
}

func (r *PaymentAttemptGormRepository) FindByProviderRef(ctx context.Context, providerRef string) (model.PaymentAttempt, error) {
	var a model.PaymentAttempt
	err := r.db.WithContext(ctx).
		Where("provider_ref = ?", providerRef).
		First(&a).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.PaymentAttempt{}, repo.ErrNotFound
	}
	if err != nil {
		return model.PaymentAttempt{}, err
	}
	return a, nil
}

func (r *PaymentAttemptGormRepository) FindPendingByOrderID(ctx context.Context, orderID int64) (model.PaymentAttempt, error) {
	var a model.PaymentAttempt
	err := r.db.WithContext(ctx).
		Where("order_id = ? AND status = ?", orderID, model.PaymentAttemptPending).
		Order("id desc").
		First(&a).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.PaymentAttempt{}, repo.ErrNotFound
	}
	if err != nil {
		return model.PaymentAttempt{}, err
	}
	return a, nil
}

// PENDINGのときだけSUCCEEDEDへ。falseなら既に処理済み
func (r *PaymentAttemptGormRepository) MarkSucceededIfPending(ctx context.Context, attemptID int64) (bool, error) {
	return r.markIfPending(ctx, attemptID, model.PaymentAttemptSucceeded)
}

// PENDINGのときだけFAILEDへ
func (r *PaymentAttemptGormRepository) MarkFailedIfPending(ctx context.Context, attemptID int64) (bool, error) {
	return r.markIfPending(ctx, attemptID, model.PaymentAttemptFailed)
}

func (r *PaymentAttemptGormRepository) markIfPending(ctx context.Context, attemptID int64, to model.PaymentAttemptStatus) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.PaymentAttempt{}).
		Where("id = ? AND status = ?", attemptID, model.PaymentAttemptPending).
		Update("status", to)

	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
