package usecases

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/theduckgroup/Apps-sub000/internal/catalog"
	"github.com/theduckgroup/Apps-sub000/internal/domain"
	"github.com/theduckgroup/Apps-sub000/internal/events"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// CatalogUsecase: бизнес-логика каталогов: хранилище, кэш (Cache-Aside),
// редактор и оповещения об изменениях. Каждая запись проверяет каталог
// целиком и заменяет документ полностью; при гонке двух записей побеждает
// последняя.
type CatalogUsecase struct {
	repo        domain.CatalogRepository
	cache       domain.Cache[*domain.Catalog]
	publisher   domain.Publisher
	rateLimiter *RateLimiter
	logger      *zap.Logger

	now   func() time.Time
	newID func() string

	wg sync.WaitGroup
}

func NewCatalogUsecase(
	repo domain.CatalogRepository,
	cache domain.Cache[*domain.Catalog],
	publisher domain.Publisher,
	logger *zap.Logger,
	maxConcurrentOps int,
) *CatalogUsecase {
	return &CatalogUsecase{
		repo:        repo,
		cache:       cache,
		publisher:   publisher,
		rateLimiter: NewRateLimiter(maxConcurrentOps),
		logger:      logger,
		now:         time.Now,
		newID:       func() string { return uuid.NewString() },
	}
}

func cacheKey(id string) string {
	return "catalog:" + id
}

// Get: сначала кэш, потом база; найденное в базе кладём в кэш.
// Возвращает копию, кэшированный экземпляр наружу не отдаётся.
func (u *CatalogUsecase) Get(ctx context.Context, id string) (*domain.Catalog, error) {
	if cached, ok := u.cache.Get(ctx, cacheKey(id)); ok {
		u.logger.Debug("catalog cache hit", zap.String("id", id))
		c := cached.Clone()
		return &c, nil
	}

	c, err := u.load(ctx, id)
	if err != nil {
		return nil, err
	}

	stored := c.Clone()
	if err := u.cache.Set(ctx, cacheKey(id), &stored); err != nil {
		u.logger.Warn("catalog cache set failed", zap.String("id", id), zap.Error(err))
	}
	return c, nil
}

// load читает из базы в обход кэша.
func (u *CatalogUsecase) load(ctx context.Context, id string) (*domain.Catalog, error) {
	var c *domain.Catalog
	err := u.rateLimiter.do(ctx, func() error {
		var err error
		c, err = u.repo.Get(ctx, id)
		return err
	})
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			u.logger.Error("catalog load failed", zap.String("id", id), zap.Error(err))
		}
		return nil, err
	}
	return c, nil
}

func (u *CatalogUsecase) List(ctx context.Context, filter domain.CatalogFilter) (*domain.PaginatedResult[*domain.Catalog], error) {
	filter.PaginationParams = normalizePage(filter.PaginationParams)

	var res *domain.PaginatedResult[*domain.Catalog]
	err := u.rateLimiter.do(ctx, func() error {
		var err error
		res, err = u.repo.List(ctx, filter)
		return err
	})
	if err != nil {
		u.logger.Error("catalog list failed", zap.Error(err))
		return nil, err
	}
	return res, nil
}

// Create сохраняет новый каталог. Пустой ID заменяется на UUID.
func (u *CatalogUsecase) Create(ctx context.Context, c *domain.Catalog) (*domain.Catalog, error) {
	if c.ID == "" {
		c.ID = u.newID()
	}

	_, err := u.load(ctx, c.ID)
	switch {
	case err == nil:
		return nil, fmt.Errorf("catalog %s: %w", c.ID, domain.ErrAlreadyExists)
	case !errors.Is(err, domain.ErrNotFound):
		return nil, err
	}

	if err := u.store(ctx, c); err != nil {
		return nil, err
	}
	u.announce(ctx, domain.Event{Topic: domain.TopicCatalogs, Type: domain.EventCatalogCreated, ID: c.ID})
	u.logger.Info("catalog created", zap.String("id", c.ID), zap.String("kind", string(c.Kind)))
	return c, nil
}

// Replace заменяет существующий каталог целиком.
func (u *CatalogUsecase) Replace(ctx context.Context, c *domain.Catalog) (*domain.Catalog, error) {
	if _, err := u.load(ctx, c.ID); err != nil {
		return nil, err
	}
	if err := u.store(ctx, c); err != nil {
		return nil, err
	}
	u.announce(ctx, domain.Event{Topic: domain.TopicCatalogs, Type: domain.EventCatalogUpdated, ID: c.ID})
	u.logger.Info("catalog replaced", zap.String("id", c.ID))
	return c, nil
}

func (u *CatalogUsecase) Delete(ctx context.Context, id string) error {
	err := u.rateLimiter.do(ctx, func() error { return u.repo.Delete(ctx, id) })
	if err != nil {
		return err
	}
	u.invalidate(ctx, id)
	u.announce(ctx, domain.Event{Topic: domain.TopicCatalogs, Type: domain.EventCatalogDeleted, ID: id})
	u.logger.Info("catalog deleted", zap.String("id", id))
	return nil
}

// ApplyCommand прогоняет одну операцию редактора по свежей копии из базы
// и сохраняет результат, только если каталог остался согласованным.
func (u *CatalogUsecase) ApplyCommand(ctx context.Context, id string, cmd catalog.Command) (*domain.Catalog, error) {
	current, err := u.load(ctx, id)
	if err != nil {
		return nil, err
	}

	next, err := catalog.Apply(*current, cmd)
	if err != nil {
		return nil, err
	}
	if err := u.store(ctx, &next); err != nil {
		return nil, err
	}

	u.announce(ctx, domain.Event{Topic: domain.TopicCatalogs, Type: domain.EventCatalogUpdated, ID: id})
	u.logger.Info("catalog command applied", zap.String("id", id), zap.String("op", string(cmd.Op)))
	return &next, nil
}

// ValidateEntityCode проверяет код для формы редактирования сущности.
// entityID пуст для новой сущности. Пустая строка означает, что код свободен.
func (u *CatalogUsecase) ValidateEntityCode(ctx context.Context, catalogID, code, entityID string) (string, error) {
	c, err := u.Get(ctx, catalogID)
	if err != nil {
		return "", err
	}

	var owner *domain.Entity
	if entityID != "" {
		if e, ok := c.FindEntity(entityID); ok {
			owner = &e
		}
	}
	return catalog.ValidateEntityCode(*c, code, owner), nil
}

// store проверяет, проставляет UpdatedAt, пишет и обновляет кэш.
func (u *CatalogUsecase) store(ctx context.Context, c *domain.Catalog) error {
	if err := catalog.Validate(*c); err != nil {
		return err
	}
	c.UpdatedAt = u.now().UTC()

	err := u.rateLimiter.do(ctx, func() error { return u.repo.Put(ctx, c) })
	if err != nil {
		u.logger.Error("catalog put failed", zap.String("id", c.ID), zap.Error(err))
		return err
	}
	u.invalidate(ctx, c.ID)
	return nil
}

func (u *CatalogUsecase) invalidate(ctx context.Context, id string) {
	if err := u.cache.Delete(ctx, cacheKey(id)); err != nil {
		u.logger.Warn("catalog cache invalidation failed", zap.String("id", id), zap.Error(err))
	}
}

// announce не валит запрос: событие служит лишь подсказкой клиентам перечитать.
func (u *CatalogUsecase) announce(ctx context.Context, e domain.Event) {
	e.At = u.now().UTC()
	if err := u.publisher.Publish(ctx, e); err != nil {
		u.logger.Warn("event publish failed",
			zap.String("topic", e.Topic),
			zap.String("id", e.ID),
			zap.Error(err),
		)
	}
}

// WatchInvalidations сбрасывает кэш по событиям каталогов, пришедшим с
// других экземпляров через шину.
func (u *CatalogUsecase) WatchInvalidations(ctx context.Context, hub *events.Hub) {
	sub := hub.Subscribe(domain.TopicCatalogs)

	u.wg.Add(1)
	go func() {
		defer u.wg.Done()
		defer sub.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case e, ok := <-sub.C:
				if !ok {
					return
				}
				cacheCtx, cancel := context.WithTimeout(context.Background(), time.Second)
				u.invalidate(cacheCtx, e.ID)
				cancel()
			}
		}
	}()
}

// Shutdown ждёт фоновые горутины; ctx для WatchInvalidations должен быть
// уже отменён.
func (u *CatalogUsecase) Shutdown() {
	u.wg.Wait()
	u.logger.Info("catalog usecase stopped")
}

func normalizePage(p domain.PaginationParams) domain.PaginationParams {
	if p.Limit <= 0 {
		p.Limit = defaultPageSize
	}
	if p.Limit > maxPageSize {
		p.Limit = maxPageSize
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}
