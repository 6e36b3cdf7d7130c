package usecases

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/theduckgroup/Apps-sub000/internal/cache"
	"github.com/theduckgroup/Apps-sub000/internal/domain"
)

type reportFixture struct {
	catalogs   *MockCatalogRepository
	reports    *MockReportRepository
	summarizer *MockSummarizer
	publisher  *MockPublisher
	usecase    *ReportUsecase
}

func newReportFixture(t *testing.T) *reportFixture {
	f := &reportFixture{
		catalogs:   new(MockCatalogRepository),
		reports:    new(MockReportRepository),
		summarizer: new(MockSummarizer),
		publisher:  new(MockPublisher),
	}
	cu := newCatalogUsecase(t, f.catalogs, cache.New[*domain.Catalog](cache.Options{}), f.publisher)
	f.usecase = NewReportUsecase(cu, f.reports, f.summarizer, f.publisher, zaptest.NewLogger(t))
	f.usecase.now = func() time.Time { return fixedNow }
	f.usecase.newID = func() string { return "r1" }
	return f
}

func TestReportSubmit(t *testing.T) {
	f := newReportFixture(t)
	ctx := context.Background()

	amount := decimal.NewFromInt(110)
	f.catalogs.On("Get", ctx, "c1").Return(weekly("c1"), nil).Once()
	f.reports.On("Create", ctx, mock.MatchedBy(func(r *domain.Report) bool {
		return r.ID == "r1" && r.User == "kim" && len(r.Rows) == 2 && r.Rows[0].Spending.GST.Equal(decimal.NewFromInt(10))
	})).Return(nil).Once()
	f.publisher.On("Publish", ctx, mock.MatchedBy(func(e domain.Event) bool {
		return e.Topic == "reports:kim" && e.Type == domain.EventReportSubmitted && e.ID == "r1"
	})).Return(nil).Once()

	r, err := f.usecase.Submit(ctx, "c1", domain.Submission{
		User:   "kim",
		Date:   "2026-03-01",
		Values: map[string]domain.RowInput{"e1": {Amount: &amount}},
	})
	require.NoError(t, err)
	assert.Equal(t, fixedNow, r.SubmittedAt)
	assert.Equal(t, "Weekly", r.Catalog.Name)

	f.catalogs.AssertExpectations(t)
	f.reports.AssertExpectations(t)
	f.publisher.AssertExpectations(t)
}

func TestReportSubmitRejectsUnknownRows(t *testing.T) {
	f := newReportFixture(t)
	ctx := context.Background()

	f.catalogs.On("Get", ctx, "c1").Return(weekly("c1"), nil).Once()

	_, err := f.usecase.Submit(ctx, "c1", domain.Submission{
		User:   "kim",
		Date:   "2026-03-01",
		Values: map[string]domain.RowInput{"ghost": {}},
	})
	assert.ErrorIs(t, err, domain.ErrValidation)
	f.reports.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestReportSubmitUnknownCatalog(t *testing.T) {
	f := newReportFixture(t)
	ctx := context.Background()

	f.catalogs.On("Get", ctx, "nope").Return(nil, domain.ErrNotFound).Once()
	_, err := f.usecase.Submit(ctx, "nope", domain.Submission{User: "kim", Date: "2026-03-01"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestReportListUserReports(t *testing.T) {
	f := newReportFixture(t)
	ctx := context.Background()

	params := domain.PaginationParams{Limit: defaultPageSize}
	reports := []*domain.Report{{ID: "r2"}, {ID: "r1"}}
	f.reports.On("ListByUser", ctx, "kim", params).
		Return(domain.NewPaginatedResult(reports, 7, params), nil).Once()
	f.summarizer.On("SummarizeReports", ctx, reports).
		Return([]*domain.ReportSummary{{ReportID: "r2"}, {ReportID: "r1"}}, nil).Once()

	page, err := f.usecase.ListUserReports(ctx, "kim", domain.PaginationParams{})
	require.NoError(t, err)
	assert.Equal(t, 7, page.Total)
	assert.True(t, page.HasMore)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "r2", page.Items[0].ReportID)

	f.reports.AssertExpectations(t)
	f.summarizer.AssertExpectations(t)
}
