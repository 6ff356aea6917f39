package catalog_test

import (
	"context"
	"errors"
	"testing"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/vasiliy-maslov/marketplace-ops/internal/apperr"
	"github.com/vasiliy-maslov/marketplace-ops/internal/catalog"
)

type MockCatalogRepository struct {
	mock.Mock
}

func (m *MockCatalogRepository) ListCategories(ctx context.Context) ([]catalog.Category, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalog.Category), args.Error(1)
}

func (m *MockCatalogRepository) CreateCategory(ctx context.Context, c *catalog.Category) error {
	return m.Called(ctx, c).Error(0)
}

func (m *MockCatalogRepository) UpdateCategory(ctx context.Context, c *catalog.Category) error {
	return m.Called(ctx, c).Error(0)
}

func (m *MockCatalogRepository) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockCatalogRepository) ListBadges(ctx context.Context) ([]catalog.Badge, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalog.Badge), args.Error(1)
}

func (m *MockCatalogRepository) CreateBadge(ctx context.Context, b *catalog.Badge) error {
	return m.Called(ctx, b).Error(0)
}

func (m *MockCatalogRepository) UpdateBadge(ctx context.Context, b *catalog.Badge) error {
	return m.Called(ctx, b).Error(0)
}

func (m *MockCatalogRepository) DeleteBadge(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func strPtr(s string) *string { return &s }

func TestCatalogService_CreateBadge(t *testing.T) {
	tests := []struct {
		name      string
		input     catalog.BadgeInput
		repoErr   error
		callsRepo bool
		wantKind  apperr.Kind
		wantColor string
	}{
		{name: "name_required", input: catalog.BadgeInput{Name: "  "}, wantKind: apperr.KindValidation},
		{name: "default_color", input: catalog.BadgeInput{Name: "Top rated"}, callsRepo: true, wantColor: catalog.DefaultBadgeColor},
		{name: "blank_color_defaults", input: catalog.BadgeInput{Name: "Top rated", Color: strPtr("")}, callsRepo: true, wantColor: catalog.DefaultBadgeColor},
		{name: "custom_color", input: catalog.BadgeInput{Name: "Fast", Color: strPtr("#ff0000")}, callsRepo: true, wantColor: "#ff0000"},
		{name: "duplicate", input: catalog.BadgeInput{Name: "Fast"}, callsRepo: true, repoErr: catalog.ErrDuplicateName, wantKind: apperr.KindValidation},
		{name: "store_failure", input: catalog.BadgeInput{Name: "Fast"}, callsRepo: true, repoErr: errors.New("boom"), wantKind: apperr.KindInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockCatalogRepository)
			if tt.callsRepo {
				mockRepo.On("CreateBadge", mock.Anything, mock.AnythingOfType("*catalog.Badge")).Return(tt.repoErr).Once()
			}

			badge, err := catalog.NewService(mockRepo).CreateBadge(context.Background(), tt.input)
			if tt.wantKind != "" {
				assert.Equal(t, tt.wantKind, apperr.KindOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantColor, badge.Color)
			mockRepo.AssertExpectations(t)
		})
	}
}

func TestCatalogService_Categories(t *testing.T) {
	id := uuid.Must(uuid.NewV4())

	t.Run("create_clears_blank_optionals", func(t *testing.T) {
		mockRepo := new(MockCatalogRepository)
		mockRepo.On("CreateCategory", mock.Anything, mock.MatchedBy(func(c *catalog.Category) bool {
			return c.Name == "Bakery" && c.Description == nil && c.Icon != nil
		})).Return(nil).Once()

		_, err := catalog.NewService(mockRepo).CreateCategory(context.Background(), catalog.CategoryInput{
			Name:        " Bakery ",
			Description: strPtr(""),
			Icon:        strPtr("bread"),
		})
		require.NoError(t, err)
		mockRepo.AssertExpectations(t)
	})

	t.Run("update_not_found", func(t *testing.T) {
		mockRepo := new(MockCatalogRepository)
		mockRepo.On("UpdateCategory", mock.Anything, mock.AnythingOfType("*catalog.Category")).Return(catalog.ErrNotFound).Once()

		_, err := catalog.NewService(mockRepo).UpdateCategory(context.Background(), id, catalog.CategoryInput{Name: "Bakery"})
		assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	})

	t.Run("list_passes_counts_through", func(t *testing.T) {
		mockRepo := new(MockCatalogRepository)
		mockRepo.On("ListCategories", mock.Anything).Return([]catalog.Category{{ID: id, Name: "Bakery", StoreCount: 3}}, nil).Once()

		categories, err := catalog.NewService(mockRepo).ListCategories(context.Background())
		require.NoError(t, err)
		require.Len(t, categories, 1)
		assert.Equal(t, 3, categories[0].StoreCount)
	})

	t.Run("delete_failure", func(t *testing.T) {
		mockRepo := new(MockCatalogRepository)
		mockRepo.On("DeleteCategory", mock.Anything, id).Return(errors.New("fk")).Once()

		err := catalog.NewService(mockRepo).DeleteCategory(context.Background(), id)
		assert.Equal(t, apperr.KindInternal, apperr.KindOf(err))
		assert.Equal(t, "Could not delete category", apperr.From(err).Message)
	})
}
