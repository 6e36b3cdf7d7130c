package usecases

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/theduckgroup/Apps-sub000/internal/domain"
	"github.com/theduckgroup/Apps-sub000/internal/report"
)

// ReportUsecase принимает отправленные формы и отдаёт историю отчётов.
// Отчёт пишется один раз и больше не меняется.
type ReportUsecase struct {
	catalogs   *CatalogUsecase
	repo       domain.ReportRepository
	summarizer domain.ReportSummarizer
	publisher  domain.Publisher
	logger     *zap.Logger

	now   func() time.Time
	newID func() string
}

func NewReportUsecase(
	catalogs *CatalogUsecase,
	repo domain.ReportRepository,
	summarizer domain.ReportSummarizer,
	publisher domain.Publisher,
	logger *zap.Logger,
) *ReportUsecase {
	return &ReportUsecase{
		catalogs:   catalogs,
		repo:       repo,
		summarizer: summarizer,
		publisher:  publisher,
		logger:     logger,
		now:        time.Now,
		newID:      func() string { return uuid.NewString() },
	}
}

// Submit строит отчёт по текущей версии каталога и сохраняет его вместе
// со снимком каталога.
func (u *ReportUsecase) Submit(ctx context.Context, catalogID string, sub domain.Submission) (*domain.Report, error) {
	c, err := u.catalogs.Get(ctx, catalogID)
	if err != nil {
		return nil, err
	}

	r, err := report.Build(u.newID(), *c, sub, u.now())
	if err != nil {
		return nil, err
	}

	if err := u.repo.Create(ctx, r); err != nil {
		u.logger.Error("report create failed", zap.String("id", r.ID), zap.Error(err))
		return nil, err
	}

	e := domain.Event{
		Topic: domain.ReportsTopic(r.User),
		Type:  domain.EventReportSubmitted,
		ID:    r.ID,
		At:    r.SubmittedAt,
	}
	if err := u.publisher.Publish(ctx, e); err != nil {
		u.logger.Warn("event publish failed", zap.String("topic", e.Topic), zap.Error(err))
	}

	u.logger.Info("report submitted",
		zap.String("id", r.ID),
		zap.String("catalog_id", catalogID),
		zap.String("user", r.User),
		zap.Int("rows", len(r.Rows)),
	)
	return r, nil
}

func (u *ReportUsecase) Get(ctx context.Context, id string) (*domain.Report, error) {
	return u.repo.GetByID(ctx, id)
}

// ListUserReports отдаёт сводки по отчётам пользователя, новые первыми.
func (u *ReportUsecase) ListUserReports(ctx context.Context, user string, params domain.PaginationParams) (*domain.PaginatedResult[*domain.ReportSummary], error) {
	params = normalizePage(params)

	page, err := u.repo.ListByUser(ctx, user, params)
	if err != nil {
		u.logger.Error("report list failed", zap.String("user", user), zap.Error(err))
		return nil, err
	}

	summaries, err := u.summarizer.SummarizeReports(ctx, page.Items)
	if err != nil {
		u.logger.Error("report summaries failed", zap.String("user", user), zap.Error(err))
		return nil, err
	}

	return &domain.PaginatedResult[*domain.ReportSummary]{
		Items:   summaries,
		Total:   page.Total,
		Limit:   page.Limit,
		Offset:  page.Offset,
		HasMore: page.HasMore,
	}, nil
}
