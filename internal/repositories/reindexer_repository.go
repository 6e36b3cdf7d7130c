package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/restream/reindexer/v4"
	// cproto (RPC) быстрее встроенного HTTP-протокола.
	_ "github.com/restream/reindexer/v4/bindings/cproto"
	"go.uber.org/zap"

	"github.com/theduckgroup/Apps-sub000/internal/domain"
)

const (
	catalogsNamespace = "catalogs"
	reportsNamespace  = "reports"

	defaultMaxRetries     = 3
	defaultRetryDelay     = time.Second
	defaultConnectTimeout = 10 * time.Second
	defaultQueryTimeout   = 5 * time.Second
)

// catalogRecord: то, что реально лежит в неймспейсе. Индексируются только
// поля для выборок, сам каталог хранится JSON-строкой: decimal не
// сериализуется штатным кодеком Reindexer.
type catalogRecord struct {
	ID        string `reindex:"id,,pk" json:"id"`
	Kind      string `reindex:"kind" json:"kind"`
	Name      string `reindex:"name,tree" json:"name"`
	UpdatedAt int64  `reindex:"updated_at,tree" json:"updated_at"`
	Payload   string `json:"payload"`
}

type reportRecord struct {
	ID          string `reindex:"id,,pk" json:"id"`
	CatalogID   string `reindex:"catalog_id" json:"catalog_id"`
	User        string `reindex:"user" json:"user"`
	SubmittedAt int64  `reindex:"submitted_at,tree" json:"submitted_at"`
	Payload     string `json:"payload"`
}

// HealthStatus хранит последнее известное состояние подключения.
type HealthStatus struct {
	IsHealthy   bool
	LastCheck   time.Time
	LastError   error
	Connections int
}

// ReindexerRepository хранит каталоги и отчёты в Reindexer.
// Держит главное соединение и пул дополнительных, раздаёт их по кругу.
type ReindexerRepository struct {
	dsn      string
	poolSize int
	logger   *zap.Logger

	mu          sync.RWMutex
	db          *reindexer.Reindexer
	connections []*reindexer.Reindexer
	next        atomic.Uint64

	healthStatus atomic.Pointer[HealthStatus]

	collectionsMu          sync.Mutex
	collectionsInitialized atomic.Bool
}

var (
	_ domain.CatalogRepository = (*ReindexerRepository)(nil)
	_ domain.ReportRepository  = (*ReindexerRepository)(nil)
	_ domain.HealthChecker     = (*ReindexerRepository)(nil)
)

// NewReindexerRepository подключается сразу, с повторными попытками.
func NewReindexerRepository(dsn string, maxConnections int, logger *zap.Logger) (*ReindexerRepository, error) {
	if maxConnections < 1 {
		maxConnections = 1
	}

	repo := &ReindexerRepository{
		dsn:      dsn,
		poolSize: maxConnections,
		logger:   logger,
	}
	repo.healthStatus.Store(&HealthStatus{LastCheck: time.Now()})

	ctx, cancel := context.WithTimeout(context.Background(), defaultConnectTimeout)
	defer cancel()

	if err := repo.Connect(ctx); err != nil {
		return nil, fmt.Errorf("connect to reindexer: %w", err)
	}
	return repo, nil
}

func (r *ReindexerRepository) Connect(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var lastErr error
	for attempt := 0; attempt < defaultMaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		if attempt > 0 {
			delay := defaultRetryDelay * time.Duration(attempt)
			r.logger.Info("retrying reindexer connection",
				zap.Int("attempt", attempt+1),
				zap.Duration("delay", delay),
			)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		db, err := r.open()
		if err != nil {
			lastErr = err
			r.logger.Warn("reindexer ping failed", zap.Int("attempt", attempt+1), zap.Error(err))
			continue
		}

		r.closeAll()
		r.db = db
		r.connections = make([]*reindexer.Reindexer, 0, r.poolSize)
		for i := 0; i < r.poolSize; i++ {
			conn, err := r.open()
			if err != nil {
				r.logger.Warn("pool connection failed", zap.Int("index", i), zap.Error(err))
				continue
			}
			r.connections = append(r.connections, conn)
		}
		r.collectionsInitialized.Store(false)

		r.updateHealthStatus(true, nil, len(r.connections)+1)
		r.logger.Info("connected to reindexer", zap.Int("pool_size", len(r.connections)))
		return nil
	}

	r.updateHealthStatus(false, lastErr, 0)
	return fmt.Errorf("no connection after %d attempts: %w", defaultMaxRetries, lastErr)
}

func (r *ReindexerRepository) open() (*reindexer.Reindexer, error) {
	db := reindexer.NewReindex(r.dsn, reindexer.WithCreateDBIfMissing())
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// closeAll вызывается под r.mu.
func (r *ReindexerRepository) closeAll() {
	if r.db != nil {
		r.db.Close()
		r.db = nil
	}
	for _, conn := range r.connections {
		conn.Close()
	}
	r.connections = nil
}

// conn выдаёт соединения из пула по кругу; без пула отдаёт главное.
func (r *ReindexerRepository) conn(ctx context.Context) (*reindexer.Reindexer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var db *reindexer.Reindexer
	if len(r.connections) == 0 {
		db = r.db
	} else {
		db = r.connections[r.next.Add(1)%uint64(len(r.connections))]
	}
	if db == nil {
		return nil, fmt.Errorf("reindexer: not connected")
	}
	return db.WithContext(ctx), nil
}

func (r *ReindexerRepository) updateHealthStatus(healthy bool, err error, connections int) {
	r.healthStatus.Store(&HealthStatus{
		IsHealthy:   healthy,
		LastCheck:   time.Now(),
		LastError:   err,
		Connections: connections,
	})
}

// Health возвращает снимок состояния без блокировок.
func (r *ReindexerRepository) Health() HealthStatus {
	return *r.healthStatus.Load()
}

// markFailed фиксирует ошибку базы в статусе здоровья.
func (r *ReindexerRepository) markFailed(err error) {
	r.updateHealthStatus(false, err, r.Health().Connections)
}

// EnsureCollections открывает (и при необходимости создаёт) неймспейсы на
// всех соединениях. Повторные вызовы ничего не делают.
func (r *ReindexerRepository) EnsureCollections(ctx context.Context) error {
	if r.collectionsInitialized.Load() {
		return nil
	}

	r.collectionsMu.Lock()
	defer r.collectionsMu.Unlock()
	if r.collectionsInitialized.Load() {
		return nil
	}

	r.mu.RLock()
	all := append([]*reindexer.Reindexer{r.db}, r.connections...)
	r.mu.RUnlock()
	if all[0] == nil {
		return fmt.Errorf("reindexer: not connected")
	}

	opts := reindexer.DefaultNamespaceOptions()
	for i, db := range all {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := db.OpenNamespace(catalogsNamespace, opts, catalogRecord{}); err != nil {
			return fmt.Errorf("open namespace %s on connection %d: %w", catalogsNamespace, i, err)
		}
		if err := db.OpenNamespace(reportsNamespace, opts, reportRecord{}); err != nil {
			return fmt.Errorf("open namespace %s on connection %d: %w", reportsNamespace, i, err)
		}
	}

	r.collectionsInitialized.Store(true)
	r.logger.Info("namespaces ready",
		zap.Strings("namespaces", []string{catalogsNamespace, reportsNamespace}),
	)
	return nil
}

func (r *ReindexerRepository) Get(ctx context.Context, id string) (*domain.Catalog, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	db, err := r.conn(ctx)
	if err != nil {
		return nil, err
	}

	iter := db.Query(catalogsNamespace).Where("id", reindexer.EQ, id).Limit(1).Exec()
	defer iter.Close()
	if err := iter.Error(); err != nil {
		r.markFailed(err)
		return nil, fmt.Errorf("query catalog %s: %w", id, err)
	}

	if !iter.Next() {
		return nil, fmt.Errorf("catalog %s: %w", id, domain.ErrNotFound)
	}
	rec, ok := iter.Object().(*catalogRecord)
	if !ok {
		return nil, fmt.Errorf("catalog %s: unexpected item type %T", id, iter.Object())
	}
	return decodeCatalog(rec.Payload)
}

// Put полностью заменяет сохранённый каталог (последняя запись побеждает).
func (r *ReindexerRepository) Put(ctx context.Context, c *domain.Catalog) error {
	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	if err := r.EnsureCollections(ctx); err != nil {
		return err
	}
	db, err := r.conn(ctx)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode catalog %s: %w", c.ID, err)
	}
	rec := &catalogRecord{
		ID:        c.ID,
		Kind:      string(c.Kind),
		Name:      c.Name,
		UpdatedAt: c.UpdatedAt.UnixNano(),
		Payload:   string(payload),
	}
	if err := db.Upsert(catalogsNamespace, rec); err != nil {
		r.logger.Error("catalog upsert failed", zap.String("id", c.ID), zap.Error(err))
		r.markFailed(err)
		return fmt.Errorf("upsert catalog %s: %w", c.ID, err)
	}
	return nil
}

func (r *ReindexerRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	db, err := r.conn(ctx)
	if err != nil {
		return err
	}

	n, err := db.Query(catalogsNamespace).Where("id", reindexer.EQ, id).Delete()
	if err != nil {
		r.logger.Error("catalog delete failed", zap.String("id", id), zap.Error(err))
		r.markFailed(err)
		return fmt.Errorf("delete catalog %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("catalog %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// List сортирует по имени; Total считает сама база через ReqTotal.
func (r *ReindexerRepository) List(ctx context.Context, filter domain.CatalogFilter) (*domain.PaginatedResult[*domain.Catalog], error) {
	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout*2)
	defer cancel()

	db, err := r.conn(ctx)
	if err != nil {
		return nil, err
	}

	q := db.Query(catalogsNamespace).Sort("name", false).ReqTotal()
	if filter.Kind != "" {
		q = q.Where("kind", reindexer.EQ, string(filter.Kind))
	}
	iter := q.Limit(filter.Limit).Offset(filter.Offset).Exec()
	defer iter.Close()
	if err := iter.Error(); err != nil {
		r.markFailed(err)
		return nil, fmt.Errorf("list catalogs: %w", err)
	}

	items := make([]*domain.Catalog, 0, iter.Count())
	for iter.Next() {
		rec, ok := iter.Object().(*catalogRecord)
		if !ok {
			continue
		}
		c, err := decodeCatalog(rec.Payload)
		if err != nil {
			r.logger.Error("skipping undecodable catalog", zap.String("id", rec.ID), zap.Error(err))
			continue
		}
		items = append(items, c)
	}

	return domain.NewPaginatedResult(items, iter.TotalCount(), filter.PaginationParams), nil
}

// Create пишет отчёт через Insert: существующий id не перезаписывается.
func (r *ReindexerRepository) Create(ctx context.Context, rep *domain.Report) error {
	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	if err := r.EnsureCollections(ctx); err != nil {
		return err
	}
	db, err := r.conn(ctx)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(rep)
	if err != nil {
		return fmt.Errorf("encode report %s: %w", rep.ID, err)
	}
	n, err := db.Insert(reportsNamespace, &reportRecord{
		ID:          rep.ID,
		CatalogID:   rep.CatalogID,
		User:        rep.User,
		SubmittedAt: rep.SubmittedAt.UnixNano(),
		Payload:     string(payload),
	})
	if err != nil {
		r.logger.Error("report insert failed", zap.String("id", rep.ID), zap.Error(err))
		r.markFailed(err)
		return fmt.Errorf("insert report %s: %w", rep.ID, err)
	}
	if n == 0 {
		return fmt.Errorf("report %s: %w", rep.ID, domain.ErrAlreadyExists)
	}
	return nil
}

func (r *ReindexerRepository) GetByID(ctx context.Context, id string) (*domain.Report, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout)
	defer cancel()

	db, err := r.conn(ctx)
	if err != nil {
		return nil, err
	}

	iter := db.Query(reportsNamespace).Where("id", reindexer.EQ, id).Limit(1).Exec()
	defer iter.Close()
	if err := iter.Error(); err != nil {
		r.markFailed(err)
		return nil, fmt.Errorf("query report %s: %w", id, err)
	}
	if !iter.Next() {
		return nil, fmt.Errorf("report %s: %w", id, domain.ErrNotFound)
	}
	rec, ok := iter.Object().(*reportRecord)
	if !ok {
		return nil, fmt.Errorf("report %s: unexpected item type %T", id, iter.Object())
	}
	return decodeReport(rec.Payload)
}

func (r *ReindexerRepository) ListByUser(ctx context.Context, user string, params domain.PaginationParams) (*domain.PaginatedResult[*domain.Report], error) {
	ctx, cancel := context.WithTimeout(ctx, defaultQueryTimeout*2)
	defer cancel()

	db, err := r.conn(ctx)
	if err != nil {
		return nil, err
	}

	iter := db.Query(reportsNamespace).
		Where("user", reindexer.EQ, user).
		Sort("submitted_at", true).
		ReqTotal().
		Limit(params.Limit).
		Offset(params.Offset).
		Exec()
	defer iter.Close()
	if err := iter.Error(); err != nil {
		r.markFailed(err)
		return nil, fmt.Errorf("list reports for %s: %w", user, err)
	}

	items := make([]*domain.Report, 0, iter.Count())
	for iter.Next() {
		rec, ok := iter.Object().(*reportRecord)
		if !ok {
			continue
		}
		rep, err := decodeReport(rec.Payload)
		if err != nil {
			r.logger.Error("skipping undecodable report", zap.String("id", rec.ID), zap.Error(err))
			continue
		}
		items = append(items, rep)
	}

	return domain.NewPaginatedResult(items, iter.TotalCount(), params), nil
}

func (r *ReindexerRepository) CheckConnection(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.RLock()
	db := r.db
	r.mu.RUnlock()
	if db == nil {
		return fmt.Errorf("reindexer: not connected")
	}

	if err := db.Ping(); err != nil {
		r.markFailed(err)
		return fmt.Errorf("reindexer ping: %w", err)
	}
	r.updateHealthStatus(true, nil, r.Health().Connections)
	return nil
}

func (r *ReindexerRepository) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.closeAll()
	r.updateHealthStatus(false, fmt.Errorf("connection closed"), 0)
	return nil
}
