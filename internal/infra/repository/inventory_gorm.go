package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"smartsales/internal/domain/model"
	repo "smartsales/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type InventoryGormRepository struct {
	db *gorm.DB
}

func NewInventoryGormRepository(db *gorm.DB) *InventoryGormRepository {
	return &InventoryGormRepository{db: db}
}

// 全行まとめて確保。商品ID昇順にロックしてデッドロックを避ける。
// 1行でも足りなければ減算せず、不足明細を全件返す
func (r *InventoryGormRepository) ReserveAll(ctx context.Context, lines []repo.ReservationLine) ([]repo.StockShortfall, error) {
	if len(lines) == 0 {
		return nil, errors.New("no lines to reserve")
	}

	sorted := make([]repo.ReservationLine, len(lines))
	copy(sorted, lines)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ProductID < sorted[j].ProductID })

	//先に全商品をロックして不足を洗い出す
	var shortfalls []repo.StockShortfall
	for _, ln := range sorted {
		if ln.Quantity <= 0 {
			return nil, fmt.Errorf("invalid quantity %d for product %d", ln.Quantity, ln.ProductID)
		}

		var p model.Product
		err := r.db.WithContext(ctx).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", ln.ProductID).
			First(&p).Error

		if errors.Is(err, gorm.ErrRecordNotFound) {
			shortfalls = append(shortfalls, repo.StockShortfall{
				ProductID: ln.ProductID,
				Requested: ln.Quantity,
				Available: 0,
			})
			continue
		}
		if err != nil {
			return nil, err
		}

		if !p.IsActive || p.Stock < ln.Quantity {
			avail := p.Stock
			if !p.IsActive {
				avail = 0
			}
			shortfalls = append(shortfalls, repo.StockShortfall{
				ProductID:   ln.ProductID,
				ProductName: p.Name,
				Requested:   ln.Quantity,
				Available:   avail,
			})
		}
	}

	if len(shortfalls) > 0 {
		return shortfalls, nil
	}

	//全行OKなら減算（ロック済みなので条件付きUPDATEは保険）
	for _, ln := range sorted {
		res := r.db.WithContext(ctx).
			Model(&model.Product{}).
			Where("id = ? AND stock >= ?", ln.ProductID, ln.Quantity).
			Update("stock", gorm.Expr("stock - ?", ln.Quantity))

		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected == 0 {
			return nil, fmt.Errorf("reserve lost row for product %d", ln.ProductID)
		}
	}

	return nil, nil
}

// 在庫戻し（補償）。数量ゼロ以下は受け付けない
func (r *InventoryGormRepository) Release(ctx context.Context, lines []repo.ReservationLine) error {
	for _, ln := range lines {
		if ln.Quantity <= 0 {
			return fmt.Errorf("invalid release quantity %d for product %d", ln.Quantity, ln.ProductID)
		}

		res := r.db.WithContext(ctx).
			Model(&model.Product{}).
			Where("id = ?", ln.ProductID).
			Update("stock", gorm.Expr("stock + ?", ln.Quantity))

		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return repo.ErrNotFound
		}
	}
	return nil
}

// 在庫の現在値を設定
func (r *InventoryGormRepository) SetStock(ctx context.Context, productID int64, newStock int64) error {
	res := r.db.WithContext(ctx).
		Model(&model.Product{}).
		Where("id = ?", productID).
		Update("stock", newStock)

	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// 調整履歴作成
func (r *InventoryGormRepository) CreateAdjustment(ctx context.Context, adj model.InventoryAdjustment) error {
	if err := r.db.WithContext(ctx).Create(&adj).Error; err != nil {
		return err
	}
	return nil
}
