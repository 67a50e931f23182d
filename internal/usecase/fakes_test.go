package usecase_test

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"smartsales/internal/domain/model"
	repo "smartsales/internal/repository"
)

// memStore は同時実行テスト用の機能フェイクの共有状態
// 各操作はmutexで排他され、条件付きUPDATE相当の判定はロック内で行う
type memStore struct {
	mu sync.Mutex

	products map[int64]model.Product
	carts    map[int64]model.Cart
	items    map[int64]model.CartItem
	orders   map[int64]model.Order
	oItems   map[int64][]model.OrderItem
	attempts map[int64]model.PaymentAttempt
	receipts map[int64]model.Receipt // orderID -> receipt
	counters map[model.ReceiptType]int64
	coupons  map[string]model.Coupon
	audits   []model.AuditLog

	//カート行ロックの模擬に使うオーナー単位のmutex
	ownerLocks map[int64]*sync.Mutex

	nextOrderID   int64
	nextAttemptID int64
	nextReceiptID int64
	nextCartID    int64
	nextItemID    int64
}

func newMemStore() *memStore {
	return &memStore{
		products: map[int64]model.Product{},
		carts:    map[int64]model.Cart{},
		items:    map[int64]model.CartItem{},
		orders:   map[int64]model.Order{},
		oItems:   map[int64][]model.OrderItem{},
		attempts: map[int64]model.PaymentAttempt{},
		receipts:   map[int64]model.Receipt{},
		counters:   map[model.ReceiptType]int64{},
		coupons:    map[string]model.Coupon{},
		ownerLocks: map[int64]*sync.Mutex{},
	}
}

// インターフェースごとに小さなラッパで共有状態を包む
func (s *memStore) Orders() repo.OrderRepository                   { return &memOrders{s} }
func (s *memStore) OrderItems() repo.OrderItemRepository           { return &memOrderItems{s} }
func (s *memStore) Carts() repo.CartRepository                     { return &memCarts{s} }
func (s *memStore) CartItems() repo.CartItemRepository             { return &memCartItems{s} }
func (s *memStore) Inventory() repo.InventoryRepository            { return &memInventory{s} }
func (s *memStore) Products() repo.ProductRepository               { return &memProducts{s} }
func (s *memStore) PaymentAttempts() repo.PaymentAttemptRepository { return &memAttempts{s} }
func (s *memStore) Receipts() repo.ReceiptRepository               { return &memReceipts{s} }
func (s *memStore) Coupons() repo.CouponRepository                 { return &memCoupons{s} }
func (s *memStore) AuditLogs() repo.AuditLogRepository             { return &memAudits{s} }

// memTxManager はトランザクション全体を1本のロックで直列化する
// （DBの行ロックによる直列化をテスト内で近似する）
type memTxManager struct {
	txMu  sync.Mutex
	store *memStore
}

func newMemTxManager(store *memStore) *memTxManager {
	return &memTxManager{store: store}
}

func (m *memTxManager) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()
	return fn(m.store)
}

// memRowLockTxManager はトランザクション全体を直列化しない。
// カート行のFOR UPDATEだけをオーナー単位のロックで模し、
// コミット（fnの終了）まで保持する
type memRowLockTxManager struct {
	store *memStore
}

func newMemRowLockTxManager(store *memStore) *memRowLockTxManager {
	return &memRowLockTxManager{store: store}
}

func (m *memRowLockTxManager) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	tx := &memRowLockTx{store: m.store}
	defer tx.unlockAll()
	return fn(tx)
}

type memRowLockTx struct {
	store *memStore
	held  []*sync.Mutex
}

func (t *memRowLockTx) unlockAll() {
	for i := len(t.held) - 1; i >= 0; i-- {
		t.held[i].Unlock()
	}
	t.held = nil
}

func (t *memRowLockTx) Orders() repo.OrderRepository                   { return t.store.Orders() }
func (t *memRowLockTx) OrderItems() repo.OrderItemRepository           { return t.store.OrderItems() }
func (t *memRowLockTx) Carts() repo.CartRepository                     { return &memRowLockCarts{t} }
func (t *memRowLockTx) CartItems() repo.CartItemRepository             { return t.store.CartItems() }
func (t *memRowLockTx) Inventory() repo.InventoryRepository            { return t.store.Inventory() }
func (t *memRowLockTx) Products() repo.ProductRepository               { return t.store.Products() }
func (t *memRowLockTx) PaymentAttempts() repo.PaymentAttemptRepository { return t.store.PaymentAttempts() }
func (t *memRowLockTx) Receipts() repo.ReceiptRepository               { return t.store.Receipts() }
func (t *memRowLockTx) Coupons() repo.CouponRepository                 { return t.store.Coupons() }
func (t *memRowLockTx) AuditLogs() repo.AuditLogRepository             { return t.store.AuditLogs() }

type memRowLockCarts struct{ tx *memRowLockTx }

func (r *memRowLockCarts) FindActiveByUserIDForUpdate(ctx context.Context, userID int64) (model.Cart, error) {
	mu := r.tx.store.ownerLock(userID)
	mu.Lock()
	r.tx.held = append(r.tx.held, mu)
	return r.tx.store.Carts().FindActiveByUserIDForUpdate(ctx, userID)
}

func (r *memRowLockCarts) GetOrCreateActiveByOwner(ctx context.Context, owner model.CartOwner) (model.Cart, error) {
	return r.tx.store.Carts().GetOrCreateActiveByOwner(ctx, owner)
}

func (r *memRowLockCarts) FindActiveByOwner(ctx context.Context, owner model.CartOwner) (model.Cart, error) {
	return r.tx.store.Carts().FindActiveByOwner(ctx, owner)
}

func (r *memRowLockCarts) FindActiveByUserID(ctx context.Context, userID int64) (model.Cart, error) {
	return r.tx.store.Carts().FindActiveByUserID(ctx, userID)
}

func (r *memRowLockCarts) Clear(ctx context.Context, cartID int64) error {
	return r.tx.store.Carts().Clear(ctx, cartID)
}

func (r *memRowLockCarts) Delete(ctx context.Context, cartID int64) error {
	return r.tx.store.Carts().Delete(ctx, cartID)
}

// ---- seed / inspect helpers ----

func (s *memStore) seedProduct(p model.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[p.ID] = p
}

func (s *memStore) seedCartWithItems(userID int64, items []model.CartItem) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextCartID++
	cartID := s.nextCartID
	uid := userID
	s.carts[cartID] = model.Cart{ID: cartID, UserID: &uid, Status: model.CartStatusActive}
	for _, it := range items {
		s.nextItemID++
		it.ID = s.nextItemID
		it.CartID = cartID
		s.items[it.ID] = it
	}
	return cartID
}

func (s *memStore) seedOrder(o model.Order, items []model.OrderItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders[o.ID] = o
	s.oItems[o.ID] = items
	if o.ID > s.nextOrderID {
		s.nextOrderID = o.ID
	}
}

func (s *memStore) seedAttempt(a model.PaymentAttempt) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempts[a.ID] = a
	if a.ID > s.nextAttemptID {
		s.nextAttemptID = a.ID
	}
}

func (s *memStore) seedCoupon(c model.Coupon) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.coupons[c.Code] = c
}

func (s *memStore) stockOf(productID int64) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.products[productID].Stock
}

func (s *memStore) orderByID(orderID int64) (model.Order, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[orderID]
	return o, ok
}

func (s *memStore) orderCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.orders)
}

func (s *memStore) receiptCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.receipts)
}

func (s *memStore) couponByCode(code string) model.Coupon {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.coupons[code]
}

func (s *memStore) ownerLock(userID int64) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	mu, ok := s.ownerLocks[userID]
	if !ok {
		mu = &sync.Mutex{}
		s.ownerLocks[userID] = mu
	}
	return mu
}

func (s *memStore) activeCartCount(owner model.CartOwner) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.carts {
		if c.Status != model.CartStatusActive {
			continue
		}
		if owner.UserID > 0 && c.UserID != nil && *c.UserID == owner.UserID {
			n++
		}
		if owner.SessionKey != "" && c.SessionKey != nil && *c.SessionKey == owner.SessionKey {
			n++
		}
	}
	return n
}

// ---- OrderRepository ----

type memOrders struct{ s *memStore }

func (r *memOrders) FindByID(ctx context.Context, orderID int64) (model.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	o, ok := r.s.orders[orderID]
	if !ok {
		return model.Order{}, repo.ErrNotFound
	}
	return o, nil
}

func (r *memOrders) FindByIDForUpdate(ctx context.Context, orderID int64) (model.Order, error) {
	return r.FindByID(ctx, orderID)
}

func (r *memOrders) ListByUserID(ctx context.Context, userID int64, page int, limit int) ([]model.Order, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []model.Order
	for _, o := range r.s.orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, int64(len(out)), nil
}

func (r *memOrders) Create(ctx context.Context, order model.Order) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.nextOrderID++
	order.ID = r.s.nextOrderID
	r.s.orders[order.ID] = order
	return order.ID, nil
}

func (r *memOrders) UpdateStatus(ctx context.Context, orderID int64, status model.OrderStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	o, ok := r.s.orders[orderID]
	if !ok {
		return repo.ErrNotFound
	}
	o.Status = status
	r.s.orders[orderID] = o
	return nil
}

func (r *memOrders) Delete(ctx context.Context, orderID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.orders, orderID)
	return nil
}

func (r *memOrders) ExistsPendingPayment(ctx context.Context, userID int64) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, o := range r.s.orders {
		if o.UserID == userID && o.Status == model.OrderStatusPendingPayment {
			return true, nil
		}
	}
	return false, nil
}

// ---- OrderItemRepository ----

type memOrderItems struct{ s *memStore }

func (r *memOrderItems) CreateBulk(ctx context.Context, orderID int64, items []model.OrderItem) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i := range items {
		items[i].OrderID = orderID
	}
	r.s.oItems[orderID] = items
	return nil
}

func (r *memOrderItems) ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderItem, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.oItems[orderID], nil
}

func (r *memOrderItems) DeleteByOrderID(ctx context.Context, orderID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.oItems, orderID)
	return nil
}

// ---- CartRepository ----

type memCarts struct{ s *memStore }

// 探索と作成をひとつのロックで行う（ACTIVEの部分ユニークインデックス相当）
func (r *memCarts) GetOrCreateActiveByOwner(ctx context.Context, owner model.CartOwner) (model.Cart, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, c := range r.s.carts {
		if c.Status != model.CartStatusActive {
			continue
		}
		if owner.UserID > 0 && c.UserID != nil && *c.UserID == owner.UserID {
			return c, nil
		}
		if owner.SessionKey != "" && c.SessionKey != nil && *c.SessionKey == owner.SessionKey {
			return c, nil
		}
	}
	r.s.nextCartID++
	c := model.Cart{ID: r.s.nextCartID, Status: model.CartStatusActive}
	if owner.UserID > 0 {
		uid := owner.UserID
		c.UserID = &uid
	} else {
		key := owner.SessionKey
		c.SessionKey = &key
	}
	r.s.carts[c.ID] = c
	return c, nil
}

func (r *memCarts) FindActiveByOwner(ctx context.Context, owner model.CartOwner) (model.Cart, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, c := range r.s.carts {
		if c.Status != model.CartStatusActive {
			continue
		}
		if owner.UserID > 0 && c.UserID != nil && *c.UserID == owner.UserID {
			return c, nil
		}
		if owner.SessionKey != "" && c.SessionKey != nil && *c.SessionKey == owner.SessionKey {
			return c, nil
		}
	}
	return model.Cart{}, repo.ErrNotFound
}

func (r *memCarts) FindActiveByUserID(ctx context.Context, userID int64) (model.Cart, error) {
	return r.FindActiveByOwner(ctx, model.CartOwner{UserID: userID})
}

func (r *memCarts) FindActiveByUserIDForUpdate(ctx context.Context, userID int64) (model.Cart, error) {
	return r.FindActiveByOwner(ctx, model.CartOwner{UserID: userID})
}

func (r *memCarts) Clear(ctx context.Context, cartID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, it := range r.s.items {
		if it.CartID == cartID {
			delete(r.s.items, id)
		}
	}
	return nil
}

func (r *memCarts) Delete(ctx context.Context, cartID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, it := range r.s.items {
		if it.CartID == cartID {
			delete(r.s.items, id)
		}
	}
	delete(r.s.carts, cartID)
	return nil
}

// ---- CartItemRepository ----

type memCartItems struct{ s *memStore }

func (r *memCartItems) ListByCartID(ctx context.Context, cartID int64) ([]model.CartItem, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []model.CartItem
	for _, it := range r.s.items {
		if it.CartID == cartID {
			out = append(out, it)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memCartItems) UpsertByCartAndProduct(ctx context.Context, cartID int64, productID int64, addQty int64, unitPriceSnapshot int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, it := range r.s.items {
		if it.CartID == cartID && it.ProductID == productID {
			it.Quantity += addQty
			r.s.items[id] = it
			return nil
		}
	}
	r.s.nextItemID++
	r.s.items[r.s.nextItemID] = model.CartItem{
		ID:                r.s.nextItemID,
		CartID:            cartID,
		ProductID:         productID,
		Quantity:          addQty,
		UnitPriceSnapshot: unitPriceSnapshot,
	}
	return nil
}

func (r *memCartItems) UpdateQuantity(ctx context.Context, cartItemID int64, qty int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	it, ok := r.s.items[cartItemID]
	if !ok {
		return repo.ErrNotFound
	}
	it.Quantity = qty
	r.s.items[cartItemID] = it
	return nil
}

func (r *memCartItems) UpdateUnitPrice(ctx context.Context, cartItemID int64, unitPrice int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	it, ok := r.s.items[cartItemID]
	if !ok {
		return repo.ErrNotFound
	}
	it.UnitPriceSnapshot = unitPrice
	r.s.items[cartItemID] = it
	return nil
}

func (r *memCartItems) DeleteByID(ctx context.Context, cartItemID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.items[cartItemID]; !ok {
		return repo.ErrNotFound
	}
	delete(r.s.items, cartItemID)
	return nil
}

func (r *memCartItems) FindByID(ctx context.Context, cartItemID int64) (model.CartItem, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	it, ok := r.s.items[cartItemID]
	if !ok {
		return model.CartItem{}, repo.ErrNotFound
	}
	return it, nil
}

func (r *memCartItems) IsOwnedBy(ctx context.Context, cartItemID int64, owner model.CartOwner) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	it, ok := r.s.items[cartItemID]
	if !ok {
		return false, nil
	}
	c, ok := r.s.carts[it.CartID]
	if !ok {
		return false, nil
	}
	if owner.UserID > 0 {
		return c.UserID != nil && *c.UserID == owner.UserID, nil
	}
	return c.SessionKey != nil && *c.SessionKey == owner.SessionKey, nil
}

// ---- InventoryRepository ----

type memInventory struct{ s *memStore }

// 全行チェックしてから減らす。1行でも足りなければ何も減らさない
func (r *memInventory) ReserveAll(ctx context.Context, lines []repo.ReservationLine) ([]repo.StockShortfall, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var shortfalls []repo.StockShortfall
	for _, ln := range lines {
		p, ok := r.s.products[ln.ProductID]
		if !ok || !p.IsActive {
			shortfalls = append(shortfalls, repo.StockShortfall{
				ProductID: ln.ProductID,
				Requested: ln.Quantity,
				Available: 0,
			})
			continue
		}
		if p.Stock < ln.Quantity {
			shortfalls = append(shortfalls, repo.StockShortfall{
				ProductID:   ln.ProductID,
				ProductName: p.Name,
				Requested:   ln.Quantity,
				Available:   p.Stock,
			})
		}
	}
	if len(shortfalls) > 0 {
		return shortfalls, nil
	}

	for _, ln := range lines {
		p := r.s.products[ln.ProductID]
		p.Stock -= ln.Quantity
		r.s.products[ln.ProductID] = p
	}
	return nil, nil
}

func (r *memInventory) Release(ctx context.Context, lines []repo.ReservationLine) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, ln := range lines {
		p := r.s.products[ln.ProductID]
		p.Stock += ln.Quantity
		r.s.products[ln.ProductID] = p
	}
	return nil
}

func (r *memInventory) SetStock(ctx context.Context, productID int64, newStock int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.products[productID]
	if !ok {
		return repo.ErrNotFound
	}
	p.Stock = newStock
	r.s.products[productID] = p
	return nil
}

func (r *memInventory) CreateAdjustment(ctx context.Context, adjustment model.InventoryAdjustment) error {
	return nil
}

// ---- ProductRepository ----

type memProducts struct{ s *memStore }

func (r *memProducts) ListPublic(ctx context.Context, q repo.ProductListQuery) ([]model.Product, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []model.Product
	for _, p := range r.s.products {
		if p.IsActive {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, int64(len(out)), nil
}

func (r *memProducts) FindByID(ctx context.Context, id int64) (model.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.products[id]
	if !ok {
		return model.Product{}, repo.ErrNotFound
	}
	return p, nil
}

func (r *memProducts) Create(ctx context.Context, p model.Product) (model.Product, error) {
	r.s.seedProduct(p)
	return p, nil
}

func (r *memProducts) Update(ctx context.Context, p model.Product) error {
	r.s.seedProduct(p)
	return nil
}

func (r *memProducts) SoftDelete(ctx context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.products, id)
	return nil
}

// ---- PaymentAttemptRepository ----

type memAttempts struct{ s *memStore }

func (r *memAttempts) Create(ctx context.Context, attempt model.PaymentAttempt) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.nextAttemptID++
	attempt.ID = r.s.nextAttemptID
	r.s.attempts[attempt.ID] = attempt
	return attempt.ID, nil
}

func (r *memAttempts) FindByProviderRef(ctx context.Context, providerRef string) (model.PaymentAttempt, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, a := range r.s.attempts {
		if a.ProviderRef == providerRef {
			return a, nil
		}
	}
	return model.PaymentAttempt{}, repo.ErrNotFound
}

func (r *memAttempts) FindPendingByOrderID(ctx context.Context, orderID int64) (model.PaymentAttempt, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, a := range r.s.attempts {
		if a.OrderID == orderID && a.Status == model.PaymentAttemptPending {
			return a, nil
		}
	}
	return model.PaymentAttempt{}, repo.ErrNotFound
}

func (r *memAttempts) MarkSucceededIfPending(ctx context.Context, attemptID int64) (bool, error) {
	return r.markIfPending(attemptID, model.PaymentAttemptSucceeded)
}

func (r *memAttempts) MarkFailedIfPending(ctx context.Context, attemptID int64) (bool, error) {
	return r.markIfPending(attemptID, model.PaymentAttemptFailed)
}

func (r *memAttempts) markIfPending(attemptID int64, to model.PaymentAttemptStatus) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.attempts[attemptID]
	if !ok || a.Status != model.PaymentAttemptPending {
		return false, nil
	}
	a.Status = to
	r.s.attempts[attemptID] = a
	return true, nil
}

// ---- ReceiptRepository ----

type memReceipts struct{ s *memStore }

func (r *memReceipts) FindByOrderID(ctx context.Context, orderID int64) (model.Receipt, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rc, ok := r.s.receipts[orderID]
	if !ok {
		return model.Receipt{}, repo.ErrNotFound
	}
	return rc, nil
}

func (r *memReceipts) Create(ctx context.Context, receipt model.Receipt) (model.Receipt, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, exists := r.s.receipts[receipt.OrderID]; exists {
		return model.Receipt{}, fmt.Errorf("duplicate receipt for order %d", receipt.OrderID)
	}
	r.s.nextReceiptID++
	receipt.ID = r.s.nextReceiptID
	r.s.receipts[receipt.OrderID] = receipt
	return receipt, nil
}

func (r *memReceipts) NextSeq(ctx context.Context, receiptType model.ReceiptType) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	seq := r.s.counters[receiptType] + 1
	r.s.counters[receiptType] = seq
	return seq, nil
}

// ---- CouponRepository ----

type memCoupons struct{ s *memStore }

func (r *memCoupons) FindByCode(ctx context.Context, code string) (model.Coupon, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.coupons[code]
	if !ok {
		return model.Coupon{}, repo.ErrNotFound
	}
	return c, nil
}

func (r *memCoupons) IncrementUsageIfAvailable(ctx context.Context, code string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.coupons[code]
	if !ok || c.UsedCount >= c.MaxUses {
		return false, nil
	}
	c.UsedCount++
	r.s.coupons[code] = c
	return true, nil
}

// ---- AuditLogRepository ----

type memAudits struct{ s *memStore }

func (r *memAudits) Create(ctx context.Context, log model.AuditLog) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.audits = append(r.s.audits, log)
	return nil
}
