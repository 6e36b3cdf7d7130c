package domain

import (
	"context"
	"time"
)

// TopicCatalogs is announced after any catalog write.
const TopicCatalogs = "catalogs"

// ReportsTopic is announced after a report is submitted for user.
func ReportsTopic(user string) string {
	return "reports:" + user
}

type EventType string

const (
	EventCatalogCreated  EventType = "catalog.created"
	EventCatalogUpdated  EventType = "catalog.updated"
	EventCatalogDeleted  EventType = "catalog.deleted"
	EventReportSubmitted EventType = "report.submitted"
)

// Event tells subscribers that something under Topic changed and should
// be re-fetched. It carries no payload beyond the id.
type Event struct {
	Topic string    `json:"topic"`
	Type  EventType `json:"type"`
	ID    string    `json:"id"`
	At    time.Time `json:"at"`
}

// Publisher delivers events at most once; there is no replay.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}
