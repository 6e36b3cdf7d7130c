package repositories

import (
	"encoding/json"
	"fmt"

	"github.com/theduckgroup/Apps-sub000/internal/domain"
)

// Both stores keep documents as JSON payloads next to a few indexed columns.

func decodeCatalog(payload string) (*domain.Catalog, error) {
	var c domain.Catalog
	if err := json.Unmarshal([]byte(payload), &c); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	return &c, nil
}

func decodeReport(payload string) (*domain.Report, error) {
	var r domain.Report
	if err := json.Unmarshal([]byte(payload), &r); err != nil {
		return nil, fmt.Errorf("decode report: %w", err)
	}
	return &r, nil
}
