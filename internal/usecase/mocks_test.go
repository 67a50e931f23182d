package usecase_test

import (
	"context"
	"strings"
	"sync"
	"testing"

	"smartsales/internal/domain/model"
	"smartsales/internal/notify"
	"smartsales/internal/payment"
	"smartsales/internal/receipt"
	repo "smartsales/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// =====================
// TxManager / TxRepos mocks
// =====================

// TxManagerMock は WithinTx の中で渡す repos を固定して unit テストを回す
type TxManagerMock struct {
	mock.Mock
	Repos repo.TxRepos
}

func (m *TxManagerMock) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	// 呼ばれた事実だけ記録（ctxの具体値は問わない）
	m.Called(ctx)
	return fn(m.Repos)
}

type TxReposStub struct {
	orders     repo.OrderRepository
	orderItems repo.OrderItemRepository
	carts      repo.CartRepository
	cartItems  repo.CartItemRepository
	inventory  repo.InventoryRepository
	products   repo.ProductRepository
	attempts   repo.PaymentAttemptRepository
	receipts   repo.ReceiptRepository
	coupons    repo.CouponRepository
	auditLogs  repo.AuditLogRepository
}

func (r *TxReposStub) Orders() repo.OrderRepository                   { return r.orders }
func (r *TxReposStub) OrderItems() repo.OrderItemRepository           { return r.orderItems }
func (r *TxReposStub) Carts() repo.CartRepository                     { return r.carts }
func (r *TxReposStub) CartItems() repo.CartItemRepository             { return r.cartItems }
func (r *TxReposStub) Inventory() repo.InventoryRepository            { return r.inventory }
func (r *TxReposStub) Products() repo.ProductRepository               { return r.products }
func (r *TxReposStub) PaymentAttempts() repo.PaymentAttemptRepository { return r.attempts }
func (r *TxReposStub) Receipts() repo.ReceiptRepository               { return r.receipts }
func (r *TxReposStub) Coupons() repo.CouponRepository                 { return r.coupons }
func (r *TxReposStub) AuditLogs() repo.AuditLogRepository             { return r.auditLogs }

// =====================
// Repository mocks
// =====================

type OrderRepoMock struct{ mock.Mock }

func (m *OrderRepoMock) FindByID(ctx context.Context, orderID int64) (model.Order, error) {
	args := m.Called(ctx, orderID)
	o, _ := args.Get(0).(model.Order)
	return o, args.Error(1)
}

func (m *OrderRepoMock) FindByIDForUpdate(ctx context.Context, orderID int64) (model.Order, error) {
	args := m.Called(ctx, orderID)
	o, _ := args.Get(0).(model.Order)
	return o, args.Error(1)
}

func (m *OrderRepoMock) ListByUserID(ctx context.Context, userID int64, page int, limit int) ([]model.Order, int64, error) {
	args := m.Called(ctx, userID, page, limit)
	orders, _ := args.Get(0).([]model.Order)
	return orders, args.Get(1).(int64), args.Error(2)
}

func (m *OrderRepoMock) Create(ctx context.Context, order model.Order) (int64, error) {
	args := m.Called(ctx, order)
	return args.Get(0).(int64), args.Error(1)
}

func (m *OrderRepoMock) UpdateStatus(ctx context.Context, orderID int64, status model.OrderStatus) error {
	args := m.Called(ctx, orderID, status)
	return args.Error(0)
}

func (m *OrderRepoMock) Delete(ctx context.Context, orderID int64) error {
	args := m.Called(ctx, orderID)
	return args.Error(0)
}

func (m *OrderRepoMock) ExistsPendingPayment(ctx context.Context, userID int64) (bool, error) {
	args := m.Called(ctx, userID)
	return args.Bool(0), args.Error(1)
}

type OrderItemRepoMock struct{ mock.Mock }

func (m *OrderItemRepoMock) CreateBulk(ctx context.Context, orderID int64, items []model.OrderItem) error {
	args := m.Called(ctx, orderID, items)
	return args.Error(0)
}

func (m *OrderItemRepoMock) ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderItem, error) {
	args := m.Called(ctx, orderID)
	items, _ := args.Get(0).([]model.OrderItem)
	return items, args.Error(1)
}

func (m *OrderItemRepoMock) DeleteByOrderID(ctx context.Context, orderID int64) error {
	args := m.Called(ctx, orderID)
	return args.Error(0)
}

type CartRepoMock struct{ mock.Mock }

func (m *CartRepoMock) GetOrCreateActiveByOwner(ctx context.Context, owner model.CartOwner) (model.Cart, error) {
	args := m.Called(ctx, owner)
	c, _ := args.Get(0).(model.Cart)
	return c, args.Error(1)
}

func (m *CartRepoMock) FindActiveByOwner(ctx context.Context, owner model.CartOwner) (model.Cart, error) {
	args := m.Called(ctx, owner)
	c, _ := args.Get(0).(model.Cart)
	return c, args.Error(1)
}

func (m *CartRepoMock) FindActiveByUserID(ctx context.Context, userID int64) (model.Cart, error) {
	args := m.Called(ctx, userID)
	c, _ := args.Get(0).(model.Cart)
	return c, args.Error(1)
}

func (m *CartRepoMock) FindActiveByUserIDForUpdate(ctx context.Context, userID int64) (model.Cart, error) {
	args := m.Called(ctx, userID)
	c, _ := args.Get(0).(model.Cart)
	return c, args.Error(1)
}

func (m *CartRepoMock) Clear(ctx context.Context, cartID int64) error {
	args := m.Called(ctx, cartID)
	return args.Error(0)
}

func (m *CartRepoMock) Delete(ctx context.Context, cartID int64) error {
	args := m.Called(ctx, cartID)
	return args.Error(0)
}

type CartItemRepoMock struct{ mock.Mock }

func (m *CartItemRepoMock) ListByCartID(ctx context.Context, cartID int64) ([]model.CartItem, error) {
	args := m.Called(ctx, cartID)
	items, _ := args.Get(0).([]model.CartItem)
	return items, args.Error(1)
}

func (m *CartItemRepoMock) UpsertByCartAndProduct(ctx context.Context, cartID int64, productID int64, addQty int64, unitPriceSnapshot int64) error {
	args := m.Called(ctx, cartID, productID, addQty, unitPriceSnapshot)
	return args.Error(0)
}

func (m *CartItemRepoMock) UpdateQuantity(ctx context.Context, cartItemID int64, qty int64) error {
	args := m.Called(ctx, cartItemID, qty)
	return args.Error(0)
}

func (m *CartItemRepoMock) UpdateUnitPrice(ctx context.Context, cartItemID int64, unitPrice int64) error {
	args := m.Called(ctx, cartItemID, unitPrice)
	return args.Error(0)
}

func (m *CartItemRepoMock) DeleteByID(ctx context.Context, cartItemID int64) error {
	args := m.Called(ctx, cartItemID)
	return args.Error(0)
}

func (m *CartItemRepoMock) FindByID(ctx context.Context, cartItemID int64) (model.CartItem, error) {
	args := m.Called(ctx, cartItemID)
	it, _ := args.Get(0).(model.CartItem)
	return it, args.Error(1)
}

func (m *CartItemRepoMock) IsOwnedBy(ctx context.Context, cartItemID int64, owner model.CartOwner) (bool, error) {
	args := m.Called(ctx, cartItemID, owner)
	return args.Bool(0), args.Error(1)
}

type InventoryRepoMock struct{ mock.Mock }

func (m *InventoryRepoMock) ReserveAll(ctx context.Context, lines []repo.ReservationLine) ([]repo.StockShortfall, error) {
	args := m.Called(ctx, lines)
	sf, _ := args.Get(0).([]repo.StockShortfall)
	return sf, args.Error(1)
}

func (m *InventoryRepoMock) Release(ctx context.Context, lines []repo.ReservationLine) error {
	args := m.Called(ctx, lines)
	return args.Error(0)
}

func (m *InventoryRepoMock) SetStock(ctx context.Context, productID int64, newStock int64) error {
	args := m.Called(ctx, productID, newStock)
	return args.Error(0)
}

func (m *InventoryRepoMock) CreateAdjustment(ctx context.Context, adjustment model.InventoryAdjustment) error {
	args := m.Called(ctx, adjustment)
	return args.Error(0)
}

type ProductRepoMock struct{ mock.Mock }

func (m *ProductRepoMock) ListPublic(ctx context.Context, q repo.ProductListQuery) ([]model.Product, int64, error) {
	args := m.Called(ctx, q)
	products, _ := args.Get(0).([]model.Product)
	return products, args.Get(1).(int64), args.Error(2)
}

func (m *ProductRepoMock) FindByID(ctx context.Context, id int64) (model.Product, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(model.Product)
	return p, args.Error(1)
}

func (m *ProductRepoMock) Create(ctx context.Context, p model.Product) (model.Product, error) {
	args := m.Called(ctx, p)
	created, _ := args.Get(0).(model.Product)
	return created, args.Error(1)
}

func (m *ProductRepoMock) Update(ctx context.Context, p model.Product) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *ProductRepoMock) SoftDelete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type AttemptRepoMock struct{ mock.Mock }

func (m *AttemptRepoMock) Create(ctx context.Context, attempt model.PaymentAttempt) (int64, error) {
	args := m.Called(ctx, attempt)
	return args.Get(0).(int64), args.Error(1)
}

func (m *AttemptRepoMock) FindByProviderRef(ctx context.Context, providerRef string) (model.PaymentAttempt, error) {
	args := m.Called(ctx, providerRef)
	a, _ := args.Get(0).(model.PaymentAttempt)
	return a, args.Error(1)
}

func (m *AttemptRepoMock) FindPendingByOrderID(ctx context.Context, orderID int64) (model.PaymentAttempt, error) {
	args := m.Called(ctx, orderID)
	a, _ := args.Get(0).(model.PaymentAttempt)
	return a, args.Error(1)
}

func (m *AttemptRepoMock) MarkSucceededIfPending(ctx context.Context, attemptID int64) (bool, error) {
	args := m.Called(ctx, attemptID)
	return args.Bool(0), args.Error(1)
}

func (m *AttemptRepoMock) MarkFailedIfPending(ctx context.Context, attemptID int64) (bool, error) {
	args := m.Called(ctx, attemptID)
	return args.Bool(0), args.Error(1)
}

type ReceiptRepoMock struct{ mock.Mock }

func (m *ReceiptRepoMock) FindByOrderID(ctx context.Context, orderID int64) (model.Receipt, error) {
	args := m.Called(ctx, orderID)
	rc, _ := args.Get(0).(model.Receipt)
	return rc, args.Error(1)
}

func (m *ReceiptRepoMock) Create(ctx context.Context, receipt model.Receipt) (model.Receipt, error) {
	args := m.Called(ctx, receipt)
	rc, _ := args.Get(0).(model.Receipt)
	return rc, args.Error(1)
}

func (m *ReceiptRepoMock) NextSeq(ctx context.Context, receiptType model.ReceiptType) (int64, error) {
	args := m.Called(ctx, receiptType)
	return args.Get(0).(int64), args.Error(1)
}

type CouponRepoMock struct{ mock.Mock }

func (m *CouponRepoMock) FindByCode(ctx context.Context, code string) (model.Coupon, error) {
	args := m.Called(ctx, code)
	c, _ := args.Get(0).(model.Coupon)
	return c, args.Error(1)
}

func (m *CouponRepoMock) IncrementUsageIfAvailable(ctx context.Context, code string) (bool, error) {
	args := m.Called(ctx, code)
	return args.Bool(0), args.Error(1)
}

type AuditRepoMock struct{ mock.Mock }

func (m *AuditRepoMock) Create(ctx context.Context, log model.AuditLog) error {
	args := m.Called(ctx, log)
	return args.Error(0)
}

type UserRepoMock struct{ mock.Mock }

func (m *UserRepoMock) FindByID(ctx context.Context, id int64) (model.User, error) {
	args := m.Called(ctx, id)
	u, _ := args.Get(0).(model.User)
	return u, args.Error(1)
}

func (m *UserRepoMock) FindByEmail(ctx context.Context, email string) (model.User, error) {
	args := m.Called(ctx, email)
	u, _ := args.Get(0).(model.User)
	return u, args.Error(1)
}

func (m *UserRepoMock) Create(ctx context.Context, u model.User) (model.User, error) {
	args := m.Called(ctx, u)
	created, _ := args.Get(0).(model.User)
	return created, args.Error(1)
}

func (m *UserRepoMock) UpdateLastLogin(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// =====================
// Gateway / Renderer / Notifier mocks
// =====================

type GatewayMock struct{ mock.Mock }

func (m *GatewayMock) CreateIntent(ctx context.Context, amount int64, orderRef string) (payment.Intent, error) {
	args := m.Called(ctx, amount, orderRef)
	in, _ := args.Get(0).(payment.Intent)
	return in, args.Error(1)
}

func (m *GatewayMock) QueryStatus(ctx context.Context, providerRef string) (payment.Status, error) {
	args := m.Called(ctx, providerRef)
	st, _ := args.Get(0).(payment.Status)
	return st, args.Error(1)
}

type RendererMock struct{ mock.Mock }

func (m *RendererMock) Render(ctx context.Context, doc receipt.Document) (string, error) {
	args := m.Called(ctx, doc)
	return args.String(0), args.Error(1)
}

type NotifierMock struct {
	mu     sync.Mutex
	events []notify.OrderPaidEvent
}

func (m *NotifierMock) OrderPaid(ctx context.Context, ev notify.OrderPaidEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, ev)
}

func (m *NotifierMock) Events() []notify.OrderPaidEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]notify.OrderPaidEvent, len(m.events))
	copy(out, m.events)
	return out
}

// =====================
// Helper: error contains（HTTPErrorの実装詳細に依存しない）
// =====================

func assertErrContains(t *testing.T, err error, wantSubstr string) {
	t.Helper()
	if assert.Error(t, err) {
		assert.True(t, strings.Contains(err.Error(), wantSubstr), "err=%q want contains %q", err.Error(), wantSubstr)
	}
}
