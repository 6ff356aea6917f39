package http_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/vasiliy-maslov/marketplace-ops/internal/apperr"
	opshttp "github.com/vasiliy-maslov/marketplace-ops/internal/handler/http"
	"github.com/vasiliy-maslov/marketplace-ops/internal/job"
)

type MockJobService struct {
	mock.Mock
}

func (m *MockJobService) ListJobs(ctx context.Context, filter job.Filter) ([]job.Job, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]job.Job), args.Error(1)
}

func (m *MockJobService) CreateJob(ctx context.Context, input job.CreateInput) (*job.Job, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*job.Job), args.Error(1)
}

func (m *MockJobService) QuoteJob(ctx context.Context, id uuid.UUID, input job.QuoteInput) (*job.Job, error) {
	args := m.Called(ctx, id, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*job.Job), args.Error(1)
}

func TestJobHandler_handleListJobs(t *testing.T) {
	mockService := new(MockJobService)
	mockService.On("ListJobs", mock.Anything, job.Filter{Status: job.StatusPending, Page: 2, Limit: 10}).
		Return([]job.Job{{ID: uuid.Must(uuid.NewV4()), Status: job.StatusPending}}, nil).Once()

	rr := serve(opshttp.NewJobHandler(mockService), jsonRequest(t, http.MethodGet, "/api/v1/jobs?status=pending&page=2&limit=10", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	var body struct {
		Jobs  []job.Job `json:"jobs"`
		Page  int       `json:"page"`
		Limit int       `json:"limit"`
	}
	decodeData(t, rr, &body)
	assert.Len(t, body.Jobs, 1)
	assert.Equal(t, 2, body.Page)
	assert.Equal(t, 10, body.Limit)
	mockService.AssertExpectations(t)
}

func TestJobHandler_handleCreateJob(t *testing.T) {
	userID := uuid.Must(uuid.NewV4())

	t.Run("created", func(t *testing.T) {
		mockService := new(MockJobService)
		mockService.On("CreateJob", mock.Anything, mock.MatchedBy(func(in job.CreateInput) bool {
			return in.UserID != nil && *in.UserID == userID && in.Description == "Fix the sink" && in.WorkerID == nil
		})).Return(&job.Job{ID: uuid.Must(uuid.NewV4()), UserID: userID, Status: job.StatusPending}, nil).Once()

		rr := serve(opshttp.NewJobHandler(mockService), jsonRequest(t, http.MethodPost, "/api/v1/jobs", map[string]any{
			"user_id":     userID,
			"description": "Fix the sink",
		}))

		require.Equal(t, http.StatusCreated, rr.Code)
		var body struct {
			Job job.Job `json:"job"`
		}
		decodeData(t, rr, &body)
		assert.Equal(t, job.StatusPending, body.Job.Status)
		mockService.AssertExpectations(t)
	})

	t.Run("missing_fields", func(t *testing.T) {
		mockService := new(MockJobService)
		mockService.On("CreateJob", mock.Anything, mock.Anything).Return(nil, apperr.Validation("Missing required fields")).Once()

		rr := serve(opshttp.NewJobHandler(mockService), jsonRequest(t, http.MethodPost, "/api/v1/jobs", map[string]string{"description": "Fix the sink"}))

		require.Equal(t, http.StatusBadRequest, rr.Code)
		env := decodeError(t, rr)
		assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
		assert.Equal(t, "Missing required fields", env.Error.Message)
	})
}

func TestJobHandler_handleQuoteJob(t *testing.T) {
	jobID := uuid.Must(uuid.NewV4())
	workerID := uuid.Must(uuid.NewV4())
	path := "/api/v1/jobs/" + jobID.String() + "/quote"

	t.Run("quoted", func(t *testing.T) {
		price := 75.5
		mockService := new(MockJobService)
		mockService.On("QuoteJob", mock.Anything, jobID, mock.MatchedBy(func(in job.QuoteInput) bool {
			return in.QuotedPrice != nil && *in.QuotedPrice == price && in.WorkerID != nil && *in.WorkerID == workerID
		})).Return(&job.Job{ID: jobID, WorkerID: &workerID, QuotedPrice: &price, Status: job.StatusQuoted}, nil).Once()

		rr := serve(opshttp.NewJobHandler(mockService), jsonRequest(t, http.MethodPost, path, map[string]any{
			"quoted_price": price,
			"worker_id":    workerID,
		}))

		require.Equal(t, http.StatusOK, rr.Code)
		var body struct {
			Job job.Job `json:"job"`
		}
		decodeData(t, rr, &body)
		assert.Equal(t, job.StatusQuoted, body.Job.Status)
		assert.Equal(t, price, *body.Job.QuotedPrice)
	})

	t.Run("closed_job", func(t *testing.T) {
		mockService := new(MockJobService)
		mockService.On("QuoteJob", mock.Anything, jobID, mock.Anything).Return(nil, apperr.InvalidState("Job can no longer be quoted")).Once()

		rr := serve(opshttp.NewJobHandler(mockService), jsonRequest(t, http.MethodPost, path, map[string]any{"quoted_price": 10, "worker_id": workerID}))

		require.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "INVALID_STATE", decodeError(t, rr).Error.Code)
	})

	t.Run("bad_id", func(t *testing.T) {
		mockService := new(MockJobService)
		rr := serve(opshttp.NewJobHandler(mockService), jsonRequest(t, http.MethodPost, "/api/v1/jobs/nope/quote", map[string]any{"quoted_price": 10}))

		require.Equal(t, http.StatusBadRequest, rr.Code)
		mockService.AssertNotCalled(t, "QuoteJob", mock.Anything, mock.Anything, mock.Anything)
	})
}
