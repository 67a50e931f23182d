package usecase

import (
	"context"
	"net/http"
	"time"

	"smartsales/internal/domain/model"
	repo "smartsales/internal/repository"
)

// OrderUsecase は会員向けの注文参照を担当します。
type OrderUsecase struct {
	orderRepo     repo.OrderRepository
	orderItemRepo repo.OrderItemRepository
}

func NewOrderUsecase(orderRepo repo.OrderRepository, orderItemRepo repo.OrderItemRepository) *OrderUsecase {
	return &OrderUsecase{orderRepo: orderRepo, orderItemRepo: orderItemRepo}
}

type OrderItemResponse struct {
	ProductID int64  `json:"product_id"`
	Name      string `json:"name"`
	UnitPrice int64  `json:"unit_price"`
	Quantity  int64  `json:"quantity"`
}

type OrderResponse struct {
	ID              int64               `json:"id"`
	Status          string              `json:"status"`
	TotalPrice      int64               `json:"total_price"`
	DeliveryAddress string              `json:"delivery_address"`
	Notes           string              `json:"notes,omitempty"`
	CreatedAt       string              `json:"created_at"`
	Items           []OrderItemResponse `json:"items,omitempty"`
}

type OrderListResponse struct {
	Orders []OrderResponse `json:"orders"`
	Total  int64           `json:"total"`
	Page   int             `json:"page"`
	Limit  int             `json:"limit"`
}

// ListMyOrders は自分の注文一覧（新しい順・ページング）。
func (u *OrderUsecase) ListMyOrders(ctx context.Context, userID int64, page int, limit int) (OrderListResponse, error) {
	if userID <= 0 {
		return OrderListResponse{}, NewHTTPError(http.StatusUnauthorized, CodeUnauthorized, "unauthorized")
	}
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	orders, total, err := u.orderRepo.ListByUserID(ctx, userID, page, limit)
	if err != nil {
		return OrderListResponse{}, NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
	}

	resp := OrderListResponse{
		Orders: make([]OrderResponse, 0, len(orders)),
		Total:  total,
		Page:   page,
		Limit:  limit,
	}
	for _, o := range orders {
		resp.Orders = append(resp.Orders, toOrderResponse(o, nil))
	}
	return resp, nil
}

// GetMyOrder は自分の注文詳細（明細付き）。他人の注文は404
func (u *OrderUsecase) GetMyOrder(ctx context.Context, userID int64, orderID int64) (OrderResponse, error) {
	if userID <= 0 {
		return OrderResponse{}, NewHTTPError(http.StatusUnauthorized, CodeUnauthorized, "unauthorized")
	}

	order, err := u.orderRepo.FindByID(ctx, orderID)
	if err == repo.ErrNotFound {
		return OrderResponse{}, NewHTTPError(http.StatusNotFound, CodeNotFound, "order not found")
	}
	if err != nil {
		return OrderResponse{}, NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
	}
	if order.UserID != userID {
		return OrderResponse{}, NewHTTPError(http.StatusNotFound, CodeNotFound, "order not found")
	}

	items, err := u.orderItemRepo.ListByOrderID(ctx, orderID)
	if err != nil {
		return OrderResponse{}, NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
	}
	return toOrderResponse(order, items), nil
}

func toOrderResponse(o model.Order, items []model.OrderItem) OrderResponse {
	resp := OrderResponse{
		ID:              o.ID,
		Status:          string(o.Status),
		TotalPrice:      o.TotalPrice,
		DeliveryAddress: o.DeliveryAddress,
		Notes:           o.Notes,
		CreatedAt:       o.CreatedAt.Format(time.RFC3339),
	}
	for _, it := range items {
		resp.Items = append(resp.Items, OrderItemResponse{
			ProductID: it.ProductID,
			Name:      it.ProductNameSnapshot,
			UnitPrice: it.UnitPriceSnapshot,
			Quantity:  it.Quantity,
		})
	}
	return resp
}
