package usecase

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/alittlebroken/ecommerce/internal/domain/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderUsecase_CreateOrder_TotalFromLines(t *testing.T) {
	ctx := context.Background()
	s := newFakeState()
	s.products[1] = model.Product{ID: 1, Name: "Coffee Beans", Price: 1000, InStock: true}
	s.products[2] = model.Product{ID: 2, Name: "Filter Papers", Price: 500, InStock: true}
	uc := NewOrderUsecase(&fakeTxManager{state: s})

	out, err := uc.CreateOrder(ctx, CreateOrderInput{
		UserID: 42,
		Notes:  "phone order",
		Items: []OrderItemInput{
			{ProductID: 1, Quantity: 2},
			{ProductID: 2, Quantity: 1},
		},
	})
	require.NoError(t, err)

	//合計は明細の積み上げ（1000×2 + 500×1）
	assert.Equal(t, int64(2500), out.TotalCost)
	require.Len(t, out.Items, 2)
	var sum int64
	for _, it := range out.Items {
		sum += it.LineTotal
	}
	assert.Equal(t, out.TotalCost, sum)
	assert.False(t, out.Paid)
}

func TestOrderUsecase_CreateOrder_Validation(t *testing.T) {
	ctx := context.Background()
	uc := NewOrderUsecase(&fakeTxManager{state: newFakeState()})

	_, err := uc.CreateOrder(ctx, CreateOrderInput{UserID: 0})
	assertHTTPStatus(t, err, http.StatusBadRequest)

	_, err = uc.CreateOrder(ctx, CreateOrderInput{UserID: 42})
	assertHTTPStatus(t, err, http.StatusBadRequest)

	_, err = uc.CreateOrder(ctx, CreateOrderInput{
		UserID: 42,
		Items:  []OrderItemInput{{ProductID: 1, Quantity: 0}},
	})
	assertHTTPStatus(t, err, http.StatusBadRequest)
}

func TestOrderUsecase_CreateOrder_UnknownProductRollsBack(t *testing.T) {
	ctx := context.Background()
	s := newFakeState()
	s.products[1] = model.Product{ID: 1, Price: 1000, InStock: true}
	tx := &fakeTxManager{state: s}
	uc := NewOrderUsecase(tx)

	_, err := uc.CreateOrder(ctx, CreateOrderInput{
		UserID: 42,
		Items: []OrderItemInput{
			{ProductID: 1, Quantity: 1},
			{ProductID: 99, Quantity: 1},
		},
	})
	assertHTTPStatus(t, err, http.StatusBadRequest)
	assert.Empty(t, tx.state.orders)
}

func TestOrderUsecase_GetOrderDetail_HidesOthersOrders(t *testing.T) {
	ctx := context.Background()
	s := newFakeState()
	s.orders[1] = model.Order{ID: 1, UserID: 42, TotalCost: 2500, Paid: true}
	s.nextOrderID = 2
	uc := NewOrderUsecase(&fakeTxManager{state: s})

	//本人は見える
	out, err := uc.GetOrderDetail(ctx, 42, model.RoleCustomer, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2500), out.TotalCost)

	//他人には404（存在自体を漏らさない）
	_, err = uc.GetOrderDetail(ctx, 7, model.RoleCustomer, 1)
	assertHTTPStatus(t, err, http.StatusNotFound)

	//管理者は見える
	_, err = uc.GetOrderDetail(ctx, 7, model.RoleAdmin, 1)
	assert.NoError(t, err)
}

func TestOrderUsecase_UpdateOrder_PartialFields(t *testing.T) {
	ctx := context.Background()
	s := newFakeState()
	s.orders[1] = model.Order{ID: 1, UserID: 42, Notes: "keep me"}
	s.nextOrderID = 2
	tx := &fakeTxManager{state: s}
	uc := NewOrderUsecase(tx)

	paid := true
	shipped := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)

	out, err := uc.UpdateOrder(ctx, 1, UpdateOrderInput{Paid: &paid, ShippedAt: &shipped})
	require.NoError(t, err)
	assert.True(t, out.Paid)
	require.NotNil(t, out.ShippedAt)
	assert.Equal(t, shipped, *out.ShippedAt)

	//指定しなかった項目は変わらない
	assert.Equal(t, "keep me", out.Notes)
	assert.Nil(t, out.ArrivedAt)
}

func TestOrderUsecase_UpdateOrder_NotFound(t *testing.T) {
	ctx := context.Background()
	uc := NewOrderUsecase(&fakeTxManager{state: newFakeState()})

	paid := true
	_, err := uc.UpdateOrder(ctx, 99, UpdateOrderInput{Paid: &paid})
	assertHTTPStatus(t, err, http.StatusNotFound)
}

func TestOrderUsecase_DeleteOrder_RemovesItemsToo(t *testing.T) {
	ctx := context.Background()
	s := newFakeState()
	s.orders[1] = model.Order{ID: 1, UserID: 42}
	s.orderItems[1] = []model.OrderItem{{OrderID: 1, ProductID: 1, Quantity: 1, LineTotal: 1000}}
	s.nextOrderID = 2
	tx := &fakeTxManager{state: s}
	uc := NewOrderUsecase(tx)

	require.NoError(t, uc.DeleteOrder(ctx, 1))
	assert.Empty(t, tx.state.orders)
	assert.Empty(t, tx.state.orderItems)

	err := uc.DeleteOrder(ctx, 1)
	assertHTTPStatus(t, err, http.StatusNotFound)
}
