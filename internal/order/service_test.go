package order_test

import (
	"context"
	"errors"
	"testing"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/vasiliy-maslov/marketplace-ops/internal/apperr"
	"github.com/vasiliy-maslov/marketplace-ops/internal/events"
	"github.com/vasiliy-maslov/marketplace-ops/internal/order"
)

type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) CreateOrder(ctx context.Context, o *order.Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

func (m *MockOrderRepository) GetOrderByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderRepository) ListOrders(ctx context.Context, filter order.Filter) ([]order.Order, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]order.Order), args.Error(1)
}

func (m *MockOrderRepository) UpdateOrderStatus(ctx context.Context, id uuid.UUID, status order.Status) (*order.Order, error) {
	args := m.Called(ctx, id, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderRepository) AssignWorker(ctx context.Context, id, workerID uuid.UUID, workerName *string) (*order.Order, error) {
	args := m.Called(ctx, id, workerID, workerName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, event events.Event) error {
	return m.Called(ctx, event).Error(0)
}

func TestOrderService_CreateOrder(t *testing.T) {
	storeID := uuid.Must(uuid.NewV4())

	tests := []struct {
		name       string
		input      order.CreateInput
		repoErr    error
		callsRepo  bool
		wantKind   apperr.Kind
		wantTotal  float64
		wantStatus order.Status
	}{
		{
			name:     "missing_store",
			input:    order.CreateInput{Items: []order.CreateItemInput{{ProductName: "Tea", Quantity: 1, Price: 2}}},
			wantKind: apperr.KindValidation,
		},
		{
			name:     "no_items",
			input:    order.CreateInput{StoreID: &storeID},
			wantKind: apperr.KindValidation,
		},
		{
			name:     "zero_quantity",
			input:    order.CreateInput{StoreID: &storeID, Items: []order.CreateItemInput{{ProductName: "Tea", Quantity: 0, Price: 2}}},
			wantKind: apperr.KindValidation,
		},
		{
			name:     "negative_price",
			input:    order.CreateInput{StoreID: &storeID, Items: []order.CreateItemInput{{ProductName: "Tea", Quantity: 1, Price: -2}}},
			wantKind: apperr.KindValidation,
		},
		{
			name:     "unknown_type",
			input:    order.CreateInput{StoreID: &storeID, Type: "pickup", Items: []order.CreateItemInput{{ProductName: "Tea", Quantity: 1, Price: 2}}},
			wantKind: apperr.KindValidation,
		},
		{
			name:      "repository_failure",
			input:     order.CreateInput{StoreID: &storeID, Items: []order.CreateItemInput{{ProductName: "Tea", Quantity: 1, Price: 2}}},
			repoErr:   errors.New("connection reset"),
			callsRepo: true,
			wantKind:  apperr.KindInternal,
		},
		{
			name: "success_delivery",
			input: order.CreateInput{StoreID: &storeID, Items: []order.CreateItemInput{
				{ProductName: "Tea", Quantity: 2, Price: 2.5},
				{ProductName: "Cake", Quantity: 1, Price: 4},
			}},
			callsRepo:  true,
			wantTotal:  9,
			wantStatus: order.StatusPending,
		},
		{
			name:       "success_service_job_without_store",
			input:      order.CreateInput{Type: order.TypeService, Items: []order.CreateItemInput{{ProductName: "Plumbing", Quantity: 1, Price: 40}}},
			callsRepo:  true,
			wantTotal:  40,
			wantStatus: order.StatusPending,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockOrderRepository)
			svc := order.NewService(mockRepo, nil, order.Options{})

			if tt.callsRepo {
				mockRepo.On("CreateOrder", mock.Anything, mock.AnythingOfType("*order.Order")).Return(tt.repoErr).Once()
			}

			created, err := svc.CreateOrder(context.Background(), tt.input)
			if tt.wantKind != "" {
				require.Error(t, err)
				assert.Equal(t, tt.wantKind, apperr.KindOf(err))
				assert.Nil(t, created)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantTotal, created.TotalAmount)
				assert.Equal(t, tt.wantStatus, created.Status)
				assert.Nil(t, created.WorkerID, "pending orders carry no worker")
				assert.Len(t, created.Items, len(tt.input.Items))
			}

			if !tt.callsRepo {
				mockRepo.AssertNotCalled(t, "CreateOrder", mock.Anything, mock.Anything)
			}
			mockRepo.AssertExpectations(t)
		})
	}
}

func TestOrderService_GetOrderByID(t *testing.T) {
	id := uuid.Must(uuid.NewV4())

	t.Run("not_found", func(t *testing.T) {
		mockRepo := new(MockOrderRepository)
		mockRepo.On("GetOrderByID", mock.Anything, id).Return(nil, order.ErrOrderNotFound).Once()

		_, err := order.NewService(mockRepo, nil, order.Options{}).GetOrderByID(context.Background(), id)
		require.Error(t, err)
		assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
		mockRepo.AssertExpectations(t)
	})

	t.Run("store_failure", func(t *testing.T) {
		mockRepo := new(MockOrderRepository)
		mockRepo.On("GetOrderByID", mock.Anything, id).Return(nil, errors.New("timeout")).Once()

		_, err := order.NewService(mockRepo, nil, order.Options{}).GetOrderByID(context.Background(), id)
		require.Error(t, err)
		assert.Equal(t, apperr.KindInternal, apperr.KindOf(err))
	})
}

func TestOrderService_ListOrders_NormalizesPaging(t *testing.T) {
	mockRepo := new(MockOrderRepository)
	mockRepo.On("ListOrders", mock.Anything, order.Filter{Status: order.StatusPending, Page: 1, Limit: order.DefaultPageLimit}).
		Return([]order.Order{}, nil).Once()

	orders, err := order.NewService(mockRepo, nil, order.Options{}).ListOrders(context.Background(), order.Filter{Status: order.StatusPending})
	require.NoError(t, err)
	assert.Empty(t, orders)
	mockRepo.AssertExpectations(t)

	_, err = order.NewService(mockRepo, nil, order.Options{}).ListOrders(context.Background(), order.Filter{Status: "shipped"})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestOrderService_UpdateOrderStatus(t *testing.T) {
	id := uuid.Must(uuid.NewV4())

	t.Run("status_required", func(t *testing.T) {
		mockRepo := new(MockOrderRepository)
		_, err := order.NewService(mockRepo, nil, order.Options{}).UpdateOrderStatus(context.Background(), id, "")
		assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
		mockRepo.AssertNotCalled(t, "UpdateOrderStatus", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("unknown_status", func(t *testing.T) {
		mockRepo := new(MockOrderRepository)
		_, err := order.NewService(mockRepo, nil, order.Options{}).UpdateOrderStatus(context.Background(), id, "shipped")
		assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	})

	t.Run("lenient_direct_write_publishes_event", func(t *testing.T) {
		mockRepo := new(MockOrderRepository)
		publisher := new(MockPublisher)
		mockRepo.On("UpdateOrderStatus", mock.Anything, id, order.StatusCompleted).
			Return(&order.Order{ID: id, Status: order.StatusCompleted}, nil).Once()
		publisher.On("Publish", mock.Anything, mock.MatchedBy(func(e events.Event) bool {
			return e.Type == events.TypeOrderStatusChanged && e.RoutingKey == "order.completed" && e.EntityID == id.String()
		})).Return(errors.New("broker down")).Once()

		updated, err := order.NewService(mockRepo, publisher, order.Options{}).UpdateOrderStatus(context.Background(), id, order.StatusCompleted)
		require.NoError(t, err, "publish failures must not fail the write")
		assert.Equal(t, order.StatusCompleted, updated.Status)
		mockRepo.AssertNotCalled(t, "GetOrderByID", mock.Anything, mock.Anything)
		mockRepo.AssertExpectations(t)
		publisher.AssertExpectations(t)
	})

	t.Run("lenient_not_found", func(t *testing.T) {
		mockRepo := new(MockOrderRepository)
		mockRepo.On("UpdateOrderStatus", mock.Anything, id, order.StatusCancelled).Return(nil, order.ErrOrderNotFound).Once()

		_, err := order.NewService(mockRepo, nil, order.Options{}).UpdateOrderStatus(context.Background(), id, order.StatusCancelled)
		assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	})

	strictCases := []struct {
		name     string
		current  order.Status
		next     order.Status
		wantKind apperr.Kind
	}{
		{name: "pending_to_cancelled", current: order.StatusPending, next: order.StatusCancelled},
		{name: "confirmed_to_in_progress", current: order.StatusConfirmed, next: order.StatusInProgress},
		{name: "in_progress_to_completed", current: order.StatusInProgress, next: order.StatusCompleted},
		{name: "pending_to_confirmed_is_reserved_for_assignment", current: order.StatusPending, next: order.StatusConfirmed, wantKind: apperr.KindInvalidState},
		{name: "completed_is_terminal", current: order.StatusCompleted, next: order.StatusCancelled, wantKind: apperr.KindInvalidState},
		{name: "in_progress_cannot_cancel", current: order.StatusInProgress, next: order.StatusCancelled, wantKind: apperr.KindInvalidState},
	}
	for _, tc := range strictCases {
		t.Run("strict_"+tc.name, func(t *testing.T) {
			mockRepo := new(MockOrderRepository)
			mockRepo.On("GetOrderByID", mock.Anything, id).Return(&order.Order{ID: id, Status: tc.current}, nil).Once()
			if tc.wantKind == "" {
				mockRepo.On("UpdateOrderStatus", mock.Anything, id, tc.next).Return(&order.Order{ID: id, Status: tc.next}, nil).Once()
			}

			svc := order.NewService(mockRepo, nil, order.Options{StrictTransitions: true})
			updated, err := svc.UpdateOrderStatus(context.Background(), id, tc.next)
			if tc.wantKind != "" {
				assert.Equal(t, tc.wantKind, apperr.KindOf(err))
				mockRepo.AssertNotCalled(t, "UpdateOrderStatus", mock.Anything, mock.Anything, mock.Anything)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.next, updated.Status)
			mockRepo.AssertExpectations(t)
		})
	}
}
