package usecase

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"smartsales/internal/domain/model"
	repo "smartsales/internal/repository"

	"go.uber.org/zap"
)

// ProductUsecase は商品の公開参照と管理者操作を担当します。
type ProductUsecase struct {
	productRepo repo.ProductRepository
	tx          repo.TransactionManager
	logger      *zap.Logger
}

func NewProductUsecase(productRepo repo.ProductRepository, tx repo.TransactionManager, logger *zap.Logger) *ProductUsecase {
	return &ProductUsecase{productRepo: productRepo, tx: tx, logger: logger}
}

type ProductListResponse struct {
	Products []model.Product `json:"products"`
	Total    int64           `json:"total"`
	Page     int             `json:"page"`
	Limit    int             `json:"limit"`
}

// List は公開中の商品一覧（検索・価格帯・ページング）。
func (u *ProductUsecase) List(ctx context.Context, q repo.ProductListQuery) (ProductListResponse, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 || q.Limit > 100 {
		q.Limit = 20
	}

	products, total, err := u.productRepo.ListPublic(ctx, q)
	if err != nil {
		return ProductListResponse{}, NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
	}
	return ProductListResponse{
		Products: products,
		Total:    total,
		Page:     q.Page,
		Limit:    q.Limit,
	}, nil
}

// GetByID は商品詳細。非公開は404
func (u *ProductUsecase) GetByID(ctx context.Context, id int64) (model.Product, error) {
	p, err := u.productRepo.FindByID(ctx, id)
	if err == repo.ErrNotFound {
		return model.Product{}, NewHTTPError(http.StatusNotFound, CodeNotFound, "product not found")
	}
	if err != nil {
		return model.Product{}, NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
	}
	if !p.IsActive {
		return model.Product{}, NewHTTPError(http.StatusNotFound, CodeNotFound, "product not found")
	}
	return p, nil
}

type ProductInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       int64  `json:"price"`
	Stock       int64  `json:"stock"`
	IsActive    bool   `json:"is_active"`
}

func (in ProductInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return NewHTTPError(http.StatusBadRequest, CodeInvalidRequest, "name is required")
	}
	if in.Price < 0 {
		return NewHTTPError(http.StatusBadRequest, CodeInvalidRequest, "price must not be negative")
	}
	if in.Stock < 0 {
		return NewHTTPError(http.StatusBadRequest, CodeInvalidRequest, "stock must not be negative")
	}
	return nil
}

// Create は商品登録（管理者）。
func (u *ProductUsecase) Create(ctx context.Context, in ProductInput) (model.Product, error) {
	if err := in.validate(); err != nil {
		return model.Product{}, err
	}

	p, err := u.productRepo.Create(ctx, model.Product{
		Name:        in.Name,
		Description: in.Description,
		Price:       in.Price,
		Stock:       in.Stock,
		IsActive:    in.IsActive,
	})
	if err != nil {
		return model.Product{}, NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
	}
	return p, nil
}

// Update は商品更新（管理者）。在庫はここでは触らない
func (u *ProductUsecase) Update(ctx context.Context, id int64, in ProductInput) (model.Product, error) {
	if err := in.validate(); err != nil {
		return model.Product{}, err
	}

	p, err := u.productRepo.FindByID(ctx, id)
	if err == repo.ErrNotFound {
		return model.Product{}, NewHTTPError(http.StatusNotFound, CodeNotFound, "product not found")
	}
	if err != nil {
		return model.Product{}, NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
	}

	p.Name = in.Name
	p.Description = in.Description
	p.Price = in.Price
	p.IsActive = in.IsActive

	if err := u.productRepo.Update(ctx, p); err != nil {
		return model.Product{}, NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
	}
	return p, nil
}

// Delete は商品の論理削除（管理者）。
func (u *ProductUsecase) Delete(ctx context.Context, id int64) error {
	if err := u.productRepo.SoftDelete(ctx, id); err != nil {
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, CodeNotFound, "product not found")
		}
		return NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
	}
	return nil
}

type SetStockInput struct {
	Stock  int64  `json:"stock"`
	Reason string `json:"reason"`
}

// SetStock は在庫の絶対値更新（管理者）。調整履歴と監査ログを残す
func (u *ProductUsecase) SetStock(ctx context.Context, adminUserID int64, productID int64, in SetStockInput) (model.Product, error) {
	if adminUserID <= 0 {
		return model.Product{}, NewHTTPError(http.StatusUnauthorized, CodeUnauthorized, "unauthorized")
	}
	if in.Stock < 0 {
		return model.Product{}, NewHTTPError(http.StatusBadRequest, CodeInvalidRequest, "stock must not be negative")
	}
	if strings.TrimSpace(in.Reason) == "" {
		return model.Product{}, NewHTTPError(http.StatusBadRequest, CodeInvalidRequest, "reason is required")
	}

	var out model.Product
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		p, err := r.Products().FindByID(ctx, productID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, CodeNotFound, "product not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
		}

		delta := in.Stock - p.Stock

		if err := r.Inventory().SetStock(ctx, productID, in.Stock); err != nil {
			return NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
		}

		if err := r.Inventory().CreateAdjustment(ctx, model.InventoryAdjustment{
			ProductID:   productID,
			AdminUserID: adminUserID,
			Delta:       delta,
			Reason:      in.Reason,
		}); err != nil {
			return NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
		}

		if err := r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  adminUserID,
			Action:       model.AuditActionUpdateStock,
			ResourceType: model.AuditResourceProduct,
			ResourceID:   productID,
			Description:  fmt.Sprintf("stock %d -> %d (%s)", p.Stock, in.Stock, in.Reason),
		}); err != nil {
			return NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
		}

		p.Stock = in.Stock
		out = p
		return nil
	})
	if err != nil {
		return model.Product{}, err
	}

	u.logger.Info("stock updated",
		zap.Int64("product_id", productID),
		zap.Int64("admin_user_id", adminUserID),
		zap.Int64("new_stock", in.Stock),
	)
	return out, nil
}
