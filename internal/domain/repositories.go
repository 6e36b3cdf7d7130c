package domain

import "context"

// CatalogRepository persists whole catalog documents. Put replaces the
// stored document; there is no partial update.
type CatalogRepository interface {
	// Get retrieves a catalog by ID
	Get(ctx context.Context, id string) (*Catalog, error)

	// Put creates or fully replaces a catalog
	Put(ctx context.Context, catalog *Catalog) error

	// Delete deletes a catalog by ID
	Delete(ctx context.Context, id string) error

	// List retrieves catalogs ordered by name
	List(ctx context.Context, filter CatalogFilter) (*PaginatedResult[*Catalog], error)
}

// ReportRepository is append-only: a report is created once and read
// afterwards.
type ReportRepository interface {
	// Create stores a new report, ErrAlreadyExists if the id is taken
	Create(ctx context.Context, report *Report) error

	// GetByID retrieves a report by ID
	GetByID(ctx context.Context, id string) (*Report, error)

	// ListByUser retrieves a user's reports, newest first
	ListByUser(ctx context.Context, user string, params PaginationParams) (*PaginatedResult[*Report], error)
}

// HealthChecker defines the interface for health checks
type HealthChecker interface {
	// CheckConnection checks if the database connection is healthy
	CheckConnection(ctx context.Context) error

	// EnsureCollections ensures that required collections/namespaces exist
	EnsureCollections(ctx context.Context) error
}
