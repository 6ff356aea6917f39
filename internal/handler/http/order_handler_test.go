package http_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/vasiliy-maslov/marketplace-ops/internal/apperr"
	"github.com/vasiliy-maslov/marketplace-ops/internal/assignment"
	opshttp "github.com/vasiliy-maslov/marketplace-ops/internal/handler/http"
	"github.com/vasiliy-maslov/marketplace-ops/internal/order"
	"github.com/vasiliy-maslov/marketplace-ops/internal/worker"
)

type MockOrderService struct {
	mock.Mock
}

func (m *MockOrderService) CreateOrder(ctx context.Context, input order.CreateInput) (*order.Order, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderService) GetOrderByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderService) ListOrders(ctx context.Context, filter order.Filter) ([]order.Order, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]order.Order), args.Error(1)
}

func (m *MockOrderService) UpdateOrderStatus(ctx context.Context, id uuid.UUID, newStatus order.Status) (*order.Order, error) {
	args := m.Called(ctx, id, newStatus)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

type MockAssigner struct {
	mock.Mock
}

func (m *MockAssigner) Assign(ctx context.Context, orderID, workerID string) (*assignment.Result, error) {
	args := m.Called(ctx, orderID, workerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*assignment.Result), args.Error(1)
}

func TestOrderHandler_handleCreateOrder_Success(t *testing.T) {
	mockService := new(MockOrderService)
	handler := opshttp.NewOrderHandler(mockService, new(MockAssigner))

	storeID := uuid.Must(uuid.NewV4())
	created := &order.Order{ID: uuid.Must(uuid.NewV4()), StoreID: &storeID, Status: order.StatusPending, TotalAmount: 7}

	mockService.On("CreateOrder", mock.Anything, mock.MatchedBy(func(in order.CreateInput) bool {
		return *in.StoreID == storeID && len(in.Items) == 2 && in.Items[0].Quantity == 2
	})).Return(created, nil).Once()

	rr := serve(handler, jsonRequest(t, http.MethodPost, "/api/v1/orders", map[string]any{
		"store_id": storeID,
		"items": []map[string]any{
			{"product_name": "Bun", "quantity": 2, "price": 2.5},
			{"product_name": "Milk", "quantity": 1, "price": 2},
		},
	}))

	require.Equal(t, http.StatusCreated, rr.Code)
	var body struct {
		Order order.Order `json:"order"`
	}
	decodeData(t, rr, &body)
	assert.Equal(t, created.ID, body.Order.ID)
	assert.Equal(t, order.StatusPending, body.Order.Status)
	mockService.AssertExpectations(t)
}

func TestOrderHandler_handleCreateOrder_IgnoresUnknownFields(t *testing.T) {
	mockService := new(MockOrderService)
	mockService.On("CreateOrder", mock.Anything, mock.Anything).
		Return(&order.Order{ID: uuid.Must(uuid.NewV4()), Status: order.StatusPending}, nil).Once()

	rr := serve(opshttp.NewOrderHandler(mockService, new(MockAssigner)), jsonRequest(t, http.MethodPost, "/api/v1/orders", map[string]any{
		"items":  []map[string]any{{"product_name": "Bun", "quantity": 1, "sku": "B-1"}},
		"coupon": "FREE",
	}))

	require.Equal(t, http.StatusCreated, rr.Code)
	mockService.AssertExpectations(t)
}

func TestOrderHandler_handleCreateOrder_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body any
	}{
		{name: "malformed_json", body: `{"store_id": "x" "items": []}`},
		{name: "no_items", body: map[string]any{"items": []map[string]any{}}},
		{name: "zero_quantity", body: map[string]any{"items": []map[string]any{{"product_name": "Bun", "quantity": 0}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockOrderService)
			handler := opshttp.NewOrderHandler(mockService, new(MockAssigner))

			rr := serve(handler, jsonRequest(t, http.MethodPost, "/api/v1/orders", tt.body))

			require.Equal(t, http.StatusBadRequest, rr.Code)
			assert.Equal(t, "VALIDATION_ERROR", decodeError(t, rr).Error.Code)
			mockService.AssertNotCalled(t, "CreateOrder", mock.Anything, mock.Anything)
		})
	}
}

func TestOrderHandler_handleListOrders_Query(t *testing.T) {
	mockService := new(MockOrderService)
	handler := opshttp.NewOrderHandler(mockService, new(MockAssigner))

	mockService.On("ListOrders", mock.Anything, order.Filter{Status: order.StatusPending, Page: 2, Limit: 5}).
		Return([]order.Order{{ID: uuid.Must(uuid.NewV4())}}, nil).Once()

	rr := serve(handler, jsonRequest(t, http.MethodGet, "/api/v1/orders?status=pending&page=2&limit=5", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	var body struct {
		Orders []order.Order `json:"orders"`
		Page   int           `json:"page"`
		Limit  int           `json:"limit"`
	}
	decodeData(t, rr, &body)
	assert.Len(t, body.Orders, 1)
	assert.Equal(t, 2, body.Page)
	assert.Equal(t, 5, body.Limit)
	mockService.AssertExpectations(t)
}

func TestOrderHandler_handleListOrders_Defaults(t *testing.T) {
	mockService := new(MockOrderService)
	mockService.On("ListOrders", mock.Anything, order.Filter{Page: 1, Limit: order.MaxPageLimit}).
		Return([]order.Order{}, nil).Once()

	rr := serve(opshttp.NewOrderHandler(mockService, new(MockAssigner)), jsonRequest(t, http.MethodGet, "/api/v1/orders?limit=100000", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, fmt.Sprintf(`{"data":{"orders":[],"page":1,"limit":%d}}`, order.MaxPageLimit), rr.Body.String())
}

func TestOrderHandler_handleGetOrder_Found(t *testing.T) {
	id := uuid.Must(uuid.NewV4())
	mockService := new(MockOrderService)
	mockService.On("GetOrderByID", mock.Anything, id).Return(&order.Order{ID: id, Status: order.StatusPending}, nil).Once()

	rr := serve(opshttp.NewOrderHandler(mockService, new(MockAssigner)), jsonRequest(t, http.MethodGet, "/api/v1/orders/"+id.String(), nil))

	require.Equal(t, http.StatusOK, rr.Code)
	var body struct {
		Order order.Order `json:"order"`
	}
	decodeData(t, rr, &body)
	assert.Equal(t, id, body.Order.ID)
}

func TestOrderHandler_handleGetOrder(t *testing.T) {
	t.Run("invalid_id", func(t *testing.T) {
		rr := serve(opshttp.NewOrderHandler(new(MockOrderService), new(MockAssigner)), jsonRequest(t, http.MethodGet, "/api/v1/orders/not-a-uuid", nil))
		require.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("not_found", func(t *testing.T) {
		id := uuid.Must(uuid.NewV4())
		mockService := new(MockOrderService)
		mockService.On("GetOrderByID", mock.Anything, id).Return(nil, apperr.NotFound("Order not found")).Once()

		rr := serve(opshttp.NewOrderHandler(mockService, new(MockAssigner)), jsonRequest(t, http.MethodGet, "/api/v1/orders/"+id.String(), nil))

		require.Equal(t, http.StatusNotFound, rr.Code)
		env := decodeError(t, rr)
		assert.Equal(t, "NOT_FOUND", env.Error.Code)
		assert.Equal(t, "Order not found", env.Error.Message)
	})
}

func TestOrderHandler_handleUpdateOrder(t *testing.T) {
	id := uuid.Must(uuid.NewV4())
	mockService := new(MockOrderService)
	mockService.On("UpdateOrderStatus", mock.Anything, id, order.StatusCancelled).
		Return(&order.Order{ID: id, Status: order.StatusCancelled}, nil).Once()

	rr := serve(opshttp.NewOrderHandler(mockService, new(MockAssigner)), jsonRequest(t, http.MethodPut, "/api/v1/orders/"+id.String(), map[string]string{"status": "cancelled"}))

	require.Equal(t, http.StatusOK, rr.Code)
	var body struct {
		Order order.Order `json:"order"`
	}
	decodeData(t, rr, &body)
	assert.Equal(t, order.StatusCancelled, body.Order.Status)
	mockService.AssertExpectations(t)
}

func TestOrderHandler_handleAssign(t *testing.T) {
	orderID := uuid.Must(uuid.NewV4())
	workerID := uuid.Must(uuid.NewV4())

	tests := []struct {
		name       string
		result     *assignment.Result
		err        error
		wantStatus int
		wantCode   string
	}{
		{
			name: "success",
			result: &assignment.Result{
				Order:  &order.Order{ID: orderID, Status: order.StatusConfirmed, WorkerID: &workerID},
				Worker: &worker.Worker{ID: workerID},
			},
			wantStatus: http.StatusOK,
		},
		{name: "order_not_pending", err: apperr.InvalidState("Order is not pending"), wantStatus: http.StatusBadRequest, wantCode: "INVALID_STATE"},
		{name: "worker_missing", err: apperr.NotFound("Worker not found"), wantStatus: http.StatusNotFound, wantCode: "NOT_FOUND"},
		{name: "store_failure", err: apperr.Internal("Failed to assign order", errors.New("deadlock")), wantStatus: http.StatusInternalServerError, wantCode: "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assigner := new(MockAssigner)
			if tt.err != nil {
				assigner.On("Assign", mock.Anything, orderID.String(), workerID.String()).Return(nil, tt.err).Once()
			} else {
				assigner.On("Assign", mock.Anything, orderID.String(), workerID.String()).Return(tt.result, nil).Once()
			}

			rr := serve(opshttp.NewOrderHandler(new(MockOrderService), assigner), jsonRequest(t, http.MethodPost, "/api/operation/assign", map[string]string{
				"orderId":  orderID.String(),
				"workerId": workerID.String(),
			}))

			require.Equal(t, tt.wantStatus, rr.Code)
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, decodeError(t, rr).Error.Code)
				return
			}
			var got assignment.Result
			decodeData(t, rr, &got)
			assert.Equal(t, order.StatusConfirmed, got.Order.Status)
			assert.Equal(t, workerID, got.Worker.ID)
		})
	}
}

func TestOrderHandler_handleAssign_ExtraKeys(t *testing.T) {
	orderID := uuid.Must(uuid.NewV4())
	workerID := uuid.Must(uuid.NewV4())

	assigner := new(MockAssigner)
	assigner.On("Assign", mock.Anything, orderID.String(), workerID.String()).Return(&assignment.Result{
		Order:  &order.Order{ID: orderID, Status: order.StatusConfirmed, WorkerID: &workerID},
		Worker: &worker.Worker{ID: workerID},
	}, nil).Once()

	rr := serve(opshttp.NewOrderHandler(new(MockOrderService), assigner), jsonRequest(t, http.MethodPost, "/api/operation/assign", map[string]string{
		"orderId":  orderID.String(),
		"workerId": workerID.String(),
		"note":     "x",
	}))

	require.Equal(t, http.StatusOK, rr.Code)
	assigner.AssertExpectations(t)
}
