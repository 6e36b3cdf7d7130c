package processor

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/theduckgroup/Apps-sub000/internal/domain"
)

func spendingReport(id string, amount int64) *domain.Report {
	return &domain.Report{
		ID:        id,
		CatalogID: "weekly",
		Catalog:   domain.Catalog{Name: "Weekly"},
		User:      "kim",
		Date:      "2026-03-01",
		Rows: []domain.ReportRow{{
			EntityID: "e1",
			Spending: &domain.SpendingValue{Amount: decimal.NewFromInt(amount), GST: decimal.Zero},
		}},
	}
}

func TestProcessorPreservesOrder(t *testing.T) {
	p := NewReportProcessor(5, 10, zaptest.NewLogger(t))
	p.Start()
	defer p.Stop()

	reports := make([]*domain.Report, 100)
	for i := range reports {
		reports[i] = spendingReport(fmt.Sprintf("r-%d", i), int64(i))
	}

	summaries, err := p.SummarizeReports(context.Background(), reports)
	require.NoError(t, err)
	require.Len(t, summaries, 100)
	for i, s := range summaries {
		assert.Equal(t, reports[i].ID, s.ReportID)
		assert.True(t, decimal.NewFromInt(int64(i)).Equal(s.TotalAmount))
	}
}

func TestProcessorConcurrentBatchesStayIsolated(t *testing.T) {
	p := NewReportProcessor(4, 8, zaptest.NewLogger(t))
	p.Start()
	defer p.Stop()

	const batches, size = 10, 20
	var wg sync.WaitGroup
	for b := 0; b < batches; b++ {
		wg.Add(1)
		go func(b int) {
			defer wg.Done()
			reports := make([]*domain.Report, size)
			for i := range reports {
				reports[i] = spendingReport(fmt.Sprintf("b%d-r%d", b, i), int64(i))
			}
			summaries, err := p.SummarizeReports(context.Background(), reports)
			if !assert.NoError(t, err) {
				return
			}
			for i, s := range summaries {
				assert.Equal(t, reports[i].ID, s.ReportID)
			}
		}(b)
	}
	wg.Wait()
}

func TestProcessorEmptyBatch(t *testing.T) {
	p := NewReportProcessor(1, 1, zaptest.NewLogger(t))

	summaries, err := p.SummarizeReports(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, summaries)
}

func TestProcessorStopped(t *testing.T) {
	p := NewReportProcessor(2, 1, zaptest.NewLogger(t))
	p.Start()
	p.Stop()
	p.Stop()

	reports := make([]*domain.Report, 10)
	for i := range reports {
		reports[i] = spendingReport(fmt.Sprintf("r-%d", i), 1)
	}

	done := make(chan error, 1)
	go func() {
		_, err := p.SummarizeReports(context.Background(), reports)
		done <- err
	}()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrStopped)
	case <-time.After(5 * time.Second):
		t.Fatal("summarize did not return after stop")
	}
}

func TestProcessorContextCancelled(t *testing.T) {
	// Not started: nothing drains the queue.
	p := NewReportProcessor(1, 1, zaptest.NewLogger(t))
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	reports := []*domain.Report{spendingReport("a", 1), spendingReport("b", 2)}
	_, err := p.SummarizeReports(ctx, reports)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
