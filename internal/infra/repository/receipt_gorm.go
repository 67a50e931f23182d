package repository

import (
	"context"
	"errors"

	"smartsales/internal/domain/model"
	repo "smartsales/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ReceiptGormRepository struct {
	db *gorm.DB
}

func NewReceiptGormRepository(db *gorm.DB) *ReceiptGormRepository {
	return &ReceiptGormRepository{db: db}
}

func (r *ReceiptGormRepository) FindByOrderID(ctx context.Context, orderID int64) (model.Receipt, error) {
	var rc model.Receipt
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		First(&rc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Receipt{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Receipt{}, err
	}
	return rc, nil
}

func (r *ReceiptGormRepository) Create(ctx context.Context, receipt model.Receipt) (model.Receipt, error) {
	if err := r.db.WithContext(ctx).Create(&receipt).Error; err != nil {
		return model.Receipt{}, err
	}
	return receipt, nil
}

// 種別ごとのカウンタ行をロックして採番。番号は飛ばない・重複しない
func (r *ReceiptGormRepository) NextSeq(ctx context.Context, receiptType model.ReceiptType) (int64, error) {
	var seq int64

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var counter model.ReceiptCounter

		err := tx.
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("type = ?", string(receiptType)).
			First(&counter).Error

		if errors.Is(err, gorm.ErrRecordNotFound) {
			counter = model.ReceiptCounter{Type: string(receiptType), NextSeq: 1}
			if err := tx.Create(&counter).Error; err != nil {
				return err
			}
		} else if err != nil {
			return err
		}

		seq = counter.NextSeq

		res := tx.Model(&model.ReceiptCounter{}).
			Where("type = ?", string(receiptType)).
			Update("next_seq", gorm.Expr("next_seq + 1"))
		if res.Error != nil {
			return res.Error
		}
		return nil
	})

	if err != nil {
		return 0, err
	}
	return seq, nil
}
