package usecase

import (
	"context"
	"net/http"
	"strings"
	"time"

	"smartsales/internal/domain/model"
	repo "smartsales/internal/repository"
)

// CartUsecase は /cart の業務ロジックです。
type CartUsecase struct {
	cartRepo     repo.CartRepository
	cartItemRepo repo.CartItemRepository
	productRepo  repo.ProductRepository
	couponRepo   repo.CouponRepository
	tx           repo.TransactionManager
}

func NewCartUsecase(
	cartRepo repo.CartRepository,
	cartItemRepo repo.CartItemRepository,
	productRepo repo.ProductRepository,
	couponRepo repo.CouponRepository,
	tx repo.TransactionManager,
) *CartUsecase {
	return &CartUsecase{
		cartRepo:     cartRepo,
		cartItemRepo: cartItemRepo,
		productRepo:  productRepo,
		couponRepo:   couponRepo,
		tx:           tx,
	}
}

type CartItemResponse struct {
	ID        int64  `json:"id"`
	ProductID int64  `json:"product_id"`
	Name      string `json:"name"`
	Price     int64  `json:"price"`
	Quantity  int64  `json:"quantity"`
	//商品が削除・非公開になった明細。購入できないので合計には入らない
	Unavailable bool `json:"unavailable,omitempty"`
}

// Totalは明細からの投影。カート側に保存しない（ズレ防止）
type CartResponse struct {
	Items []CartItemResponse `json:"items"`
	Total int64              `json:"total"`
}

type AddCartInput struct {
	ProductID int64
	Quantity  int64
}

type UpdateCartItemInput struct {
	Quantity int64
}

// GetCart はカート取得（無ければACTIVEを作って空を返す）。
func (u *CartUsecase) GetCart(ctx context.Context, owner model.CartOwner) (CartResponse, error) {
	if !owner.Valid() {
		return CartResponse{}, NewHTTPError(http.StatusUnauthorized, CodeUnauthorized, "unauthorized")
	}

	cart, err := u.cartRepo.GetOrCreateActiveByOwner(ctx, owner)
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
	}

	return u.buildCartResponse(ctx, cart.ID)
}

// AddToCart はカートに追加（同一商品は数量加算）。
func (u *CartUsecase) AddToCart(ctx context.Context, owner model.CartOwner, in AddCartInput) (CartResponse, error) {
	if !owner.Valid() {
		return CartResponse{}, NewHTTPError(http.StatusUnauthorized, CodeUnauthorized, "unauthorized")
	}
	if in.ProductID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, CodeInvalidRequest, "invalid product_id")
	}
	if in.Quantity < 1 {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, CodeInvalidRequest, "invalid quantity")
	}

	cart, err := u.cartRepo.GetOrCreateActiveByOwner(ctx, owner)
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
	}

	// 商品チェック（公開のみ）
	p, err := u.productRepo.FindByID(ctx, in.ProductID)
	if err == repo.ErrNotFound {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, CodeInvalidRequest, "invalid product")
	}
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
	}
	if !p.IsActive {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, CodeInvalidRequest, "invalid product")
	}

	items, err := u.cartItemRepo.ListByCartID(ctx, cart.ID)
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
	}

	var existingQty int64 = 0
	for _, it := range items {
		if it.ProductID == in.ProductID {
			existingQty = it.Quantity
			break
		}
	}

	//追加時点の在庫で検証（チェックアウト時にもう一度検証される）
	newQty := existingQty + in.Quantity
	if newQty > p.Stock {
		return CartResponse{}, NewHTTPErrorWithDetails(http.StatusBadRequest, CodeInsufficientStock, "stock exceeded",
			[]repo.StockShortfall{{
				ProductID:   p.ID,
				ProductName: p.Name,
				Requested:   newQty,
				Available:   p.Stock,
			}})
	}

	// Upsert（同一商品は加算）。unit_price_snapshot は追加時点の価格
	if err := u.cartItemRepo.UpsertByCartAndProduct(ctx, cart.ID, in.ProductID, in.Quantity, p.Price); err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
	}

	return u.buildCartResponse(ctx, cart.ID)
}

// 数量変更（所有チェック＋在庫チェック）。数量0は削除と同じ
func (u *CartUsecase) UpdateCartItem(ctx context.Context, owner model.CartOwner, cartItemID int64, in UpdateCartItemInput) (CartResponse, error) {
	if !owner.Valid() {
		return CartResponse{}, NewHTTPError(http.StatusUnauthorized, CodeUnauthorized, "unauthorized")
	}
	if cartItemID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, CodeInvalidRequest, "invalid id")
	}
	if in.Quantity < 0 {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, CodeInvalidRequest, "invalid quantity")
	}
	if in.Quantity == 0 {
		return u.DeleteCartItem(ctx, owner, cartItemID)
	}

	owned, err := u.cartItemRepo.IsOwnedBy(ctx, cartItemID, owner)
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
	}
	if !owned {
		return CartResponse{}, NewHTTPError(http.StatusNotFound, CodeNotFound, "not found")
	}

	item, err := u.cartItemRepo.FindByID(ctx, cartItemID)
	if err == repo.ErrNotFound {
		return CartResponse{}, NewHTTPError(http.StatusNotFound, CodeNotFound, "not found")
	}
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
	}

	//商品の在庫チェック
	p, err := u.productRepo.FindByID(ctx, item.ProductID)
	if err == repo.ErrNotFound {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, CodeInvalidRequest, "invalid product")
	}
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
	}
	if !p.IsActive {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, CodeInvalidRequest, "invalid product")
	}
	if in.Quantity > p.Stock {
		return CartResponse{}, NewHTTPErrorWithDetails(http.StatusBadRequest, CodeInsufficientStock, "stock exceeded",
			[]repo.StockShortfall{{
				ProductID:   p.ID,
				ProductName: p.Name,
				Requested:   in.Quantity,
				Available:   p.Stock,
			}})
	}

	if err := u.cartItemRepo.UpdateQuantity(ctx, cartItemID, in.Quantity); err != nil {
		if err == repo.ErrNotFound {
			return CartResponse{}, NewHTTPError(http.StatusNotFound, CodeNotFound, "not found")
		}
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
	}

	cart, err := u.cartRepo.FindActiveByOwner(ctx, owner)
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
	}
	return u.buildCartResponse(ctx, cart.ID)
}

// 明細削除
func (u *CartUsecase) DeleteCartItem(ctx context.Context, owner model.CartOwner, cartItemID int64) (CartResponse, error) {
	if !owner.Valid() {
		return CartResponse{}, NewHTTPError(http.StatusUnauthorized, CodeUnauthorized, "unauthorized")
	}
	if cartItemID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, CodeInvalidRequest, "invalid id")
	}

	owned, err := u.cartItemRepo.IsOwnedBy(ctx, cartItemID, owner)
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
	}
	if !owned {
		return CartResponse{}, NewHTTPError(http.StatusNotFound, CodeNotFound, "not found")
	}

	if err := u.cartItemRepo.DeleteByID(ctx, cartItemID); err != nil {
		if err == repo.ErrNotFound {
			return CartResponse{}, NewHTTPError(http.StatusNotFound, CodeNotFound, "not found")
		}
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
	}

	cart, err := u.cartRepo.FindActiveByOwner(ctx, owner)
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
	}
	return u.buildCartResponse(ctx, cart.ID)
}

// 明細全削除
func (u *CartUsecase) ClearCart(ctx context.Context, owner model.CartOwner) (CartResponse, error) {
	if !owner.Valid() {
		return CartResponse{}, NewHTTPError(http.StatusUnauthorized, CodeUnauthorized, "unauthorized")
	}

	cart, err := u.cartRepo.FindActiveByOwner(ctx, owner)
	if err == repo.ErrNotFound {
		return CartResponse{Items: []CartItemResponse{}}, nil
	}
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
	}

	if err := u.cartRepo.Clear(ctx, cart.ID); err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
	}
	return CartResponse{Items: []CartItemResponse{}}, nil
}

type ApplyCouponInput struct {
	Code string
}

// クーポン適用。使用枠は在庫と同じ条件付きUPDATEで先に予約する
// （同時利用で上限を越える既知バグの作り直し）
func (u *CartUsecase) ApplyCoupon(ctx context.Context, owner model.CartOwner, in ApplyCouponInput) (CartResponse, error) {
	if !owner.Valid() {
		return CartResponse{}, NewHTTPError(http.StatusUnauthorized, CodeUnauthorized, "unauthorized")
	}

	code := strings.ToUpper(strings.TrimSpace(in.Code))
	if code == "" {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, CodeInvalidRequest, "invalid coupon code")
	}

	cart, err := u.cartRepo.FindActiveByOwner(ctx, owner)
	if err == repo.ErrNotFound {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, CodeInvalidRequest, "cart empty")
	}
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
	}

	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		coupon, err := r.Coupons().FindByCode(ctx, code)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, CodeNotFound, "coupon not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
		}
		if !coupon.Usable(time.Now()) {
			return NewHTTPError(http.StatusBadRequest, CodeInvalidRequest, "coupon not active")
		}

		items, err := r.CartItems().ListByCartID(ctx, cart.ID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
		}
		if len(items) == 0 {
			return NewHTTPError(http.StatusBadRequest, CodeInvalidRequest, "cart empty")
		}

		//使用枠を先に予約。負けたら適用しない
		ok, err := r.Coupons().IncrementUsageIfAvailable(ctx, code)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
		}
		if !ok {
			return NewHTTPError(http.StatusConflict, CodeCouponExhausted, "coupon usage limit reached")
		}

		//追加時価格を割引後で上書き
		for _, it := range items {
			discounted := it.UnitPriceSnapshot * (100 - coupon.PercentOff) / 100
			if discounted < 0 {
				discounted = 0
			}
			if err := r.CartItems().UpdateUnitPrice(ctx, it.ID, discounted); err != nil {
				return NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
			}
		}
		return nil
	})

	if err != nil {
		return CartResponse{}, err
	}
	return u.buildCartResponse(ctx, cart.ID)
}

// 匿名カートを会員カートへ統合（ログイン直後に呼ぶ）。同一商品は加算
func (u *CartUsecase) MergeCart(ctx context.Context, userID int64, sessionKey string) (CartResponse, error) {
	if userID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusUnauthorized, CodeUnauthorized, "unauthorized")
	}
	if strings.TrimSpace(sessionKey) == "" {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, CodeInvalidRequest, "invalid session key")
	}

	userOwner := model.CartOwner{UserID: userID}

	var destID int64
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		src, err := r.Carts().FindActiveByOwner(ctx, model.CartOwner{SessionKey: sessionKey})
		if err == repo.ErrNotFound {
			//移すものが無いだけ。会員カートを返す
			dst, err := r.Carts().GetOrCreateActiveByOwner(ctx, userOwner)
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
			}
			destID = dst.ID
			return nil
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
		}

		dst, err := r.Carts().GetOrCreateActiveByOwner(ctx, userOwner)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
		}
		destID = dst.ID

		items, err := r.CartItems().ListByCartID(ctx, src.ID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
		}

		for _, it := range items {
			if err := r.CartItems().UpsertByCartAndProduct(ctx, dst.ID, it.ProductID, it.Quantity, it.UnitPriceSnapshot); err != nil {
				return NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
			}
		}

		if err := r.Carts().Delete(ctx, src.ID); err != nil {
			return NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
		}
		return nil
	})

	if err != nil {
		return CartResponse{}, err
	}
	return u.buildCartResponse(ctx, destID)
}

// cartIDの明細をまとめてCartResponseを作る。
func (u *CartUsecase) buildCartResponse(ctx context.Context, cartID int64) (CartResponse, error) {
	items, err := u.cartItemRepo.ListByCartID(ctx, cartID)
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
	}

	respItems := make([]CartItemResponse, 0, len(items))
	var total int64 = 0

	for _, it := range items {
		line := CartItemResponse{
			ID:        it.ID,
			ProductID: it.ProductID,
			Price:     it.UnitPriceSnapshot,
			Quantity:  it.Quantity,
		}

		p, err := u.productRepo.FindByID(ctx, it.ProductID)
		switch {
		case err == repo.ErrNotFound:
			//商品が消えた明細は黙って落とさず、購入不可として見せる
			line.Unavailable = true
		case err != nil:
			return CartResponse{}, NewHTTPError(http.StatusInternalServerError, CodeInternal, "db error")
		case !p.IsActive:
			line.Name = p.Name
			line.Unavailable = true
		default:
			line.Name = p.Name
			total += it.UnitPriceSnapshot * it.Quantity
		}

		respItems = append(respItems, line)
	}

	return CartResponse{Items: respItems, Total: total}, nil
}
