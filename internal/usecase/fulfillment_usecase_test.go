package usecase

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/alittlebroken/ecommerce/internal/domain/model"
	"github.com/alittlebroken/ecommerce/internal/payment"
	repo "github.com/alittlebroken/ecommerce/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// =====================
// インメモリのTx fake
// =====================

// fakeState はDBの代わり。cloneしてTx内で書き、成功時だけ差し替える。
type fakeState struct {
	webhookEvents map[string]model.WebhookEvent
	carts         map[int64]model.Cart
	cartItems     map[int64][]model.CartItem
	products      map[int64]model.Product
	orders        map[int64]model.Order
	orderItems    map[int64][]model.OrderItem
	nextOrderID   int64
}

func newFakeState() *fakeState {
	return &fakeState{
		webhookEvents: map[string]model.WebhookEvent{},
		carts:         map[int64]model.Cart{},
		cartItems:     map[int64][]model.CartItem{},
		products:      map[int64]model.Product{},
		orders:        map[int64]model.Order{},
		orderItems:    map[int64][]model.OrderItem{},
		nextOrderID:   1,
	}
}

func (s *fakeState) clone() *fakeState {
	c := newFakeState()
	c.nextOrderID = s.nextOrderID
	for k, v := range s.webhookEvents {
		c.webhookEvents[k] = v
	}
	for k, v := range s.carts {
		c.carts[k] = v
	}
	for k, v := range s.cartItems {
		c.cartItems[k] = append([]model.CartItem{}, v...)
	}
	for k, v := range s.products {
		c.products[k] = v
	}
	for k, v := range s.orders {
		c.orders[k] = v
	}
	for k, v := range s.orderItems {
		c.orderItems[k] = append([]model.OrderItem{}, v...)
	}
	return c
}

// fakeTxManager はWithinTxのcommit/rollbackを模す。
// fnがerrorを返したら書き込み側のcloneを捨てる。
type fakeTxManager struct {
	state *fakeState

	//指定したメソッド名で強制的に失敗させる（途中失敗の検証用）
	failOn string
}

func (m *fakeTxManager) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	work := m.state.clone()
	if err := fn(&fakeTxRepos{s: work, failOn: m.failOn}); err != nil {
		return err
	}
	m.state = work
	return nil
}

var errFakeWrite = errors.New("forced write failure")

type fakeTxRepos struct {
	s      *fakeState
	failOn string
}

func (r *fakeTxRepos) Orders() repo.OrderRepository {
	return &fakeOrderRepo{s: r.s, failOn: r.failOn}
}

func (r *fakeTxRepos) OrderItems() repo.OrderItemRepository {
	return &fakeOrderItemRepo{s: r.s, failOn: r.failOn}
}

func (r *fakeTxRepos) Carts() repo.CartRepository {
	return &fakeCartRepo{s: r.s}
}

func (r *fakeTxRepos) CartItems() repo.CartItemRepository {
	return &fakeCartItemRepo{s: r.s, failOn: r.failOn}
}

func (r *fakeTxRepos) Products() repo.ProductRepository {
	return &fakeProductRepo{s: r.s}
}

func (r *fakeTxRepos) WebhookEvents() repo.WebhookEventRepository {
	return &fakeWebhookEventRepo{s: r.s, failOn: r.failOn}
}

type fakeOrderRepo struct {
	s      *fakeState
	failOn string
}

func (f *fakeOrderRepo) Create(ctx context.Context, order model.Order) (int64, error) {
	if f.failOn == "Orders.Create" {
		return 0, errFakeWrite
	}
	order.ID = f.s.nextOrderID
	f.s.nextOrderID++
	f.s.orders[order.ID] = order
	return order.ID, nil
}

func (f *fakeOrderRepo) FindByID(ctx context.Context, orderID int64) (model.Order, error) {
	o, ok := f.s.orders[orderID]
	if !ok {
		return model.Order{}, repo.ErrNotFound
	}
	return o, nil
}

func (f *fakeOrderRepo) ListByUserID(ctx context.Context, userID int64) ([]model.Order, error) {
	var out []model.Order
	for _, o := range f.s.orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (f *fakeOrderRepo) Update(ctx context.Context, orderID int64, upd repo.OrderUpdate) error {
	o, ok := f.s.orders[orderID]
	if !ok {
		return repo.ErrNotFound
	}
	if upd.Paid != nil {
		o.Paid = *upd.Paid
	}
	if upd.Notes != nil {
		o.Notes = *upd.Notes
	}
	if upd.ShippedAt != nil {
		o.ShippedAt = upd.ShippedAt
	}
	if upd.ArrivedAt != nil {
		o.ArrivedAt = upd.ArrivedAt
	}
	f.s.orders[orderID] = o
	return nil
}

func (f *fakeOrderRepo) Delete(ctx context.Context, orderID int64) error {
	if _, ok := f.s.orders[orderID]; !ok {
		return repo.ErrNotFound
	}
	delete(f.s.orders, orderID)
	delete(f.s.orderItems, orderID)
	return nil
}

type fakeOrderItemRepo struct {
	s      *fakeState
	failOn string
}

func (f *fakeOrderItemRepo) CreateBulk(ctx context.Context, orderID int64, items []model.OrderItem) error {
	if f.failOn == "OrderItems.CreateBulk" {
		return errFakeWrite
	}
	for i := range items {
		items[i].OrderID = orderID
	}
	f.s.orderItems[orderID] = append(f.s.orderItems[orderID], items...)
	return nil
}

func (f *fakeOrderItemRepo) ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderItem, error) {
	return append([]model.OrderItem{}, f.s.orderItems[orderID]...), nil
}

type fakeCartRepo struct {
	s *fakeState
}

func (f *fakeCartRepo) GetOrCreateByUserID(ctx context.Context, userID int64) (model.Cart, error) {
	for _, c := range f.s.carts {
		if c.UserID == userID {
			return c, nil
		}
	}
	cart := model.Cart{ID: int64(len(f.s.carts) + 1), UserID: userID}
	f.s.carts[cart.ID] = cart
	return cart, nil
}

func (f *fakeCartRepo) FindByID(ctx context.Context, cartID int64) (model.Cart, error) {
	c, ok := f.s.carts[cartID]
	if !ok {
		return model.Cart{}, repo.ErrNotFound
	}
	return c, nil
}

func (f *fakeCartRepo) FindByUserID(ctx context.Context, userID int64) (model.Cart, error) {
	for _, c := range f.s.carts {
		if c.UserID == userID {
			return c, nil
		}
	}
	return model.Cart{}, repo.ErrNotFound
}

func (f *fakeCartRepo) Delete(ctx context.Context, cartID int64) error {
	delete(f.s.carts, cartID)
	delete(f.s.cartItems, cartID)
	return nil
}

type fakeCartItemRepo struct {
	s      *fakeState
	failOn string
}

func (f *fakeCartItemRepo) ListByCartID(ctx context.Context, cartID int64) ([]model.CartItem, error) {
	return append([]model.CartItem{}, f.s.cartItems[cartID]...), nil
}

func (f *fakeCartItemRepo) UpsertByCartAndProduct(ctx context.Context, cartID int64, productID int64, addQty int64) error {
	items := f.s.cartItems[cartID]
	for i := range items {
		if items[i].ProductID == productID {
			items[i].Quantity += addQty
			f.s.cartItems[cartID] = items
			return nil
		}
	}
	f.s.cartItems[cartID] = append(items, model.CartItem{CartID: cartID, ProductID: productID, Quantity: addQty})
	return nil
}

func (f *fakeCartItemRepo) SetQuantity(ctx context.Context, cartID int64, productID int64, qty int64) error {
	if qty == 0 {
		return f.DeleteByCartAndProduct(ctx, cartID, productID)
	}
	items := f.s.cartItems[cartID]
	for i := range items {
		if items[i].ProductID == productID {
			items[i].Quantity = qty
			f.s.cartItems[cartID] = items
			return nil
		}
	}
	return repo.ErrNotFound
}

func (f *fakeCartItemRepo) DeleteByCartAndProduct(ctx context.Context, cartID int64, productID int64) error {
	items := f.s.cartItems[cartID]
	for i := range items {
		if items[i].ProductID == productID {
			f.s.cartItems[cartID] = append(items[:i], items[i+1:]...)
			return nil
		}
	}
	return repo.ErrNotFound
}

func (f *fakeCartItemRepo) Clear(ctx context.Context, cartID int64) error {
	if f.failOn == "CartItems.Clear" {
		return errFakeWrite
	}
	f.s.cartItems[cartID] = nil
	return nil
}

type fakeProductRepo struct {
	s *fakeState
}

func (f *fakeProductRepo) Create(ctx context.Context, p model.Product) (model.Product, error) {
	panic("not used in fulfillment tests")
}

func (f *fakeProductRepo) FindByID(ctx context.Context, productID int64) (model.Product, error) {
	p, ok := f.s.products[productID]
	if !ok {
		return model.Product{}, repo.ErrNotFound
	}
	return p, nil
}

func (f *fakeProductRepo) FindByName(ctx context.Context, name string) (model.Product, error) {
	panic("not used in fulfillment tests")
}

func (f *fakeProductRepo) FindAll(ctx context.Context) ([]model.Product, error) {
	panic("not used in fulfillment tests")
}

func (f *fakeProductRepo) Update(ctx context.Context, productID int64, upd repo.ProductUpdate) error {
	panic("not used in fulfillment tests")
}

func (f *fakeProductRepo) Delete(ctx context.Context, productID int64) error {
	panic("not used in fulfillment tests")
}

func (f *fakeProductRepo) Search(ctx context.Context, q repo.ProductSearchQuery) ([]model.Product, error) {
	panic("not used in fulfillment tests")
}

type fakeWebhookEventRepo struct {
	s      *fakeState
	failOn string
}

func (f *fakeWebhookEventRepo) Create(ctx context.Context, ev *model.WebhookEvent) error {
	if _, ok := f.s.webhookEvents[ev.EventID]; ok {
		//本物のPostgresでは制約違反のINSERTがtxを壊すため、
		//重複検知が挿入エラー頼みだと綺麗なエラーは返ってこない
		if f.failOn == "WebhookEvents.DuplicateInsert" {
			return errFakeWrite
		}
		return repo.ErrDuplicateEvent
	}
	f.s.webhookEvents[ev.EventID] = *ev
	return nil
}

func (f *fakeWebhookEventRepo) SetOrderID(ctx context.Context, eventID string, orderID int64) error {
	ev, ok := f.s.webhookEvents[eventID]
	if !ok {
		return repo.ErrNotFound
	}
	ev.OrderID = orderID
	f.s.webhookEvents[eventID] = ev
	return nil
}

func (f *fakeWebhookEventRepo) FindByEventID(ctx context.Context, eventID string) (model.WebhookEvent, error) {
	ev, ok := f.s.webhookEvents[eventID]
	if !ok {
		return model.WebhookEvent{}, repo.ErrNotFound
	}
	return ev, nil
}

// =====================
// helpers
// =====================

type fixedClock struct{ t time.Time }

func (c *fixedClock) Now() time.Time { return c.t }

func paidCartState() *fakeState {
	s := newFakeState()
	s.products[1] = model.Product{ID: 1, Name: "Coffee Beans", Price: 1000, InStock: true}
	s.products[2] = model.Product{ID: 2, Name: "Filter Papers", Price: 500, InStock: true}
	s.carts[7] = model.Cart{ID: 7, UserID: 42}
	s.cartItems[7] = []model.CartItem{
		{CartID: 7, ProductID: 1, Quantity: 2},
		{CartID: 7, ProductID: 2, Quantity: 1},
	}
	return s
}

func completedEvent(eventID string, cartRef string, amount int64) payment.Event {
	ev := payment.Event{
		ID:   eventID,
		Type: payment.EventTypeCheckoutCompleted,
	}
	ev.Data.Object.ID = "cs_" + eventID
	ev.Data.Object.ClientReferenceID = cartRef
	ev.Data.Object.AmountTotal = amount
	ev.Data.Object.Currency = "eur"
	return ev
}

func newFulfillmentUC(tx *fakeTxManager) *FulfillmentUsecase {
	clock := &fixedClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	return NewFulfillmentUsecase(tx, clock, zap.NewNop())
}

// =====================
// Tests
// =====================

func TestFulfillment_CreatesOrderAndEmptiesCart(t *testing.T) {
	ctx := context.Background()
	tx := &fakeTxManager{state: paidCartState()}
	uc := newFulfillmentUC(tx)

	//€25.00 = 2500セント（1000×2 + 500×1）
	out, err := uc.HandleEvent(ctx, completedEvent("evt_1", "7", 2500))
	require.NoError(t, err)
	assert.False(t, out.Skipped)
	require.NotZero(t, out.OrderID)

	//注文ヘッダは1つだけ
	require.Len(t, tx.state.orders, 1)
	order := tx.state.orders[out.OrderID]
	assert.Equal(t, int64(42), order.UserID)
	assert.True(t, order.Paid)
	assert.Equal(t, int64(2500), order.TotalCost)

	//明細はカートの行数ぶん、LineTotalは単価×数量
	items := tx.state.orderItems[out.OrderID]
	require.Len(t, items, 2)
	var sum int64
	for _, it := range items {
		sum += it.LineTotal
	}
	assert.Equal(t, order.TotalCost, sum)

	//カートは空になるがcartsの行は残る
	assert.Empty(t, tx.state.cartItems[7])
	_, ok := tx.state.carts[7]
	assert.True(t, ok)

	//受信記録に注文IDが紐づく
	ev := tx.state.webhookEvents["evt_1"]
	assert.Equal(t, out.OrderID, ev.OrderID)
}

func TestFulfillment_LineTotalSnapshotsCurrentPrice(t *testing.T) {
	ctx := context.Background()
	tx := &fakeTxManager{state: paidCartState()}
	uc := newFulfillmentUC(tx)

	out, err := uc.HandleEvent(ctx, completedEvent("evt_1", "7", 2500))
	require.NoError(t, err)

	byProduct := map[int64]model.OrderItem{}
	for _, it := range tx.state.orderItems[out.OrderID] {
		byProduct[it.ProductID] = it
	}
	assert.Equal(t, int64(2000), byProduct[1].LineTotal)
	assert.Equal(t, int64(500), byProduct[2].LineTotal)
}

func TestFulfillment_IgnoresUnrelatedEventType(t *testing.T) {
	ctx := context.Background()
	tx := &fakeTxManager{state: paidCartState()}
	uc := newFulfillmentUC(tx)

	ev := completedEvent("evt_1", "7", 2500)
	ev.Type = "payment_intent.created"

	out, err := uc.HandleEvent(ctx, ev)
	require.NoError(t, err)
	assert.True(t, out.Skipped)

	//何も書き込まない
	assert.Empty(t, tx.state.orders)
	assert.Empty(t, tx.state.webhookEvents)
	assert.Len(t, tx.state.cartItems[7], 2)
}

func TestFulfillment_DuplicateDeliveryIsNoOp(t *testing.T) {
	ctx := context.Background()
	tx := &fakeTxManager{state: paidCartState()}
	uc := newFulfillmentUC(tx)

	first, err := uc.HandleEvent(ctx, completedEvent("evt_1", "7", 2500))
	require.NoError(t, err)
	require.False(t, first.Skipped)

	//同じevent_idの再配送。成功応答だが注文は増えない
	second, err := uc.HandleEvent(ctx, completedEvent("evt_1", "7", 2500))
	require.NoError(t, err)
	assert.True(t, second.Skipped)
	assert.Len(t, tx.state.orders, 1)
}

func TestFulfillment_DuplicateDetectedBeforeInsert(t *testing.T) {
	ctx := context.Background()
	tx := &fakeTxManager{state: paidCartState()}
	uc := newFulfillmentUC(tx)

	first, err := uc.HandleEvent(ctx, completedEvent("evt_1", "7", 2500))
	require.NoError(t, err)
	require.False(t, first.Skipped)

	//再配送の重複検知は挿入の失敗に頼らない（失敗したINSERTはtxを壊す）
	tx.failOn = "WebhookEvents.DuplicateInsert"
	second, err := uc.HandleEvent(ctx, completedEvent("evt_1", "7", 2500))
	require.NoError(t, err)
	assert.True(t, second.Skipped)
	assert.Len(t, tx.state.orders, 1)
}

func TestFulfillment_BadCartReferenceIsAcknowledged(t *testing.T) {
	ctx := context.Background()
	tx := &fakeTxManager{state: paidCartState()}
	uc := newFulfillmentUC(tx)

	for i, ref := range []string{"", "abc", "-3", "0"} {
		eventID := "evt_bad_" + strconv.Itoa(i)

		//壊れた参照は再送しても直らないので、記録してno-opで受け流す
		out, err := uc.HandleEvent(ctx, completedEvent(eventID, ref, 2500))
		require.NoError(t, err)
		assert.True(t, out.Skipped)

		ev, ok := tx.state.webhookEvents[eventID]
		require.True(t, ok)
		assert.Zero(t, ev.OrderID)

		//同じ壊れたイベントの再配送も同様
		again, err := uc.HandleEvent(ctx, completedEvent(eventID, ref, 2500))
		require.NoError(t, err)
		assert.True(t, again.Skipped)
	}

	//注文もカートの変化も無い
	assert.Empty(t, tx.state.orders)
	assert.Len(t, tx.state.cartItems[7], 2)
}

func TestFulfillment_CartNotFound(t *testing.T) {
	ctx := context.Background()
	tx := &fakeTxManager{state: paidCartState()}
	uc := newFulfillmentUC(tx)

	_, err := uc.HandleEvent(ctx, completedEvent("evt_1", "999", 2500))
	assert.ErrorIs(t, err, ErrFulfillCartNotFound)

	//ロールバックされるので受信記録も残らない
	assert.Empty(t, tx.state.webhookEvents)
	assert.Empty(t, tx.state.orders)
}

func TestFulfillment_EmptyCartIsAnError(t *testing.T) {
	ctx := context.Background()
	s := paidCartState()
	s.cartItems[7] = nil
	tx := &fakeTxManager{state: s}
	uc := newFulfillmentUC(tx)

	_, err := uc.HandleEvent(ctx, completedEvent("evt_1", "7", 2500))
	assert.ErrorIs(t, err, ErrFulfillEmptyCart)
	assert.Empty(t, tx.state.orders)
	assert.Empty(t, tx.state.webhookEvents)
}

func TestFulfillment_MidwayFailureRollsBackEverything(t *testing.T) {
	ctx := context.Background()
	tx := &fakeTxManager{state: paidCartState(), failOn: "CartItems.Clear"}
	uc := newFulfillmentUC(tx)

	_, err := uc.HandleEvent(ctx, completedEvent("evt_1", "7", 2500))
	require.Error(t, err)

	//注文・明細・受信記録のどれも観測できない。カートも無傷
	assert.Empty(t, tx.state.orders)
	assert.Empty(t, tx.state.orderItems)
	assert.Empty(t, tx.state.webhookEvents)
	assert.Len(t, tx.state.cartItems[7], 2)

	//失敗後の再送は成功する（重複排除の記録ごと巻き戻っているため）
	tx.failOn = ""
	out, err := uc.HandleEvent(ctx, completedEvent("evt_1", "7", 2500))
	require.NoError(t, err)
	assert.False(t, out.Skipped)
	assert.Len(t, tx.state.orders, 1)
}

func TestFulfillment_OrderCreateFailureRollsBack(t *testing.T) {
	ctx := context.Background()
	tx := &fakeTxManager{state: paidCartState(), failOn: "Orders.Create"}
	uc := newFulfillmentUC(tx)

	_, err := uc.HandleEvent(ctx, completedEvent("evt_1", "7", 2500))
	require.Error(t, err)
	assert.Empty(t, tx.state.orders)
	assert.Empty(t, tx.state.webhookEvents)
}
