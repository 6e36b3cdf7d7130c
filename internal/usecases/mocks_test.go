package usecases

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/theduckgroup/Apps-sub000/internal/domain"
)

type MockCatalogRepository struct {
	mock.Mock
}

var _ domain.CatalogRepository = (*MockCatalogRepository)(nil)

func (m *MockCatalogRepository) Get(ctx context.Context, id string) (*domain.Catalog, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	// Hand out a copy, as a real store would.
	c := args.Get(0).(*domain.Catalog).Clone()
	return &c, args.Error(1)
}

func (m *MockCatalogRepository) Put(ctx context.Context, c *domain.Catalog) error {
	return m.Called(ctx, c).Error(0)
}

func (m *MockCatalogRepository) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockCatalogRepository) List(ctx context.Context, filter domain.CatalogFilter) (*domain.PaginatedResult[*domain.Catalog], error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PaginatedResult[*domain.Catalog]), args.Error(1)
}

type MockReportRepository struct {
	mock.Mock
}

var _ domain.ReportRepository = (*MockReportRepository)(nil)

func (m *MockReportRepository) Create(ctx context.Context, r *domain.Report) error {
	return m.Called(ctx, r).Error(0)
}

func (m *MockReportRepository) GetByID(ctx context.Context, id string) (*domain.Report, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Report), args.Error(1)
}

func (m *MockReportRepository) ListByUser(ctx context.Context, user string, params domain.PaginationParams) (*domain.PaginatedResult[*domain.Report], error) {
	args := m.Called(ctx, user, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PaginatedResult[*domain.Report]), args.Error(1)
}

type MockCache struct {
	mock.Mock
}

var _ domain.Cache[*domain.Catalog] = (*MockCache)(nil)

func (m *MockCache) Get(ctx context.Context, key string) (*domain.Catalog, bool) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Bool(1)
	}
	return args.Get(0).(*domain.Catalog), args.Bool(1)
}

func (m *MockCache) Set(ctx context.Context, key string, value *domain.Catalog) error {
	return m.Called(ctx, key, value).Error(0)
}

func (m *MockCache) Delete(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

func (m *MockCache) CleanExpired(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

type MockPublisher struct {
	mock.Mock
}

var _ domain.Publisher = (*MockPublisher)(nil)

func (m *MockPublisher) Publish(ctx context.Context, e domain.Event) error {
	return m.Called(ctx, e).Error(0)
}

type MockSummarizer struct {
	mock.Mock
}

var _ domain.ReportSummarizer = (*MockSummarizer)(nil)

func (m *MockSummarizer) SummarizeReports(ctx context.Context, reports []*domain.Report) ([]*domain.ReportSummary, error) {
	args := m.Called(ctx, reports)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.ReportSummary), args.Error(1)
}
