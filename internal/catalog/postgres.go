// internal/catalog/postgres.go
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"skyconnect-match/internal/common/config"
	"skyconnect-match/internal/common/logger"
	"skyconnect-match/internal/common/metrics"
	"skyconnect-match/internal/models"
)

const listingColumns = "id, title, description, location, category, tags, price, currency, available, status, partner_id, rating, review_count, capacity"

// PostgresStore serves listings straight from the relational catalog.
// Tag containment is applied as a post-filter because the WHERE clause
// stays on indexed scalar columns.
type PostgresStore struct {
	db         *sql.DB
	table      string
	timeout    time.Duration
	maxResults int
	logger     logger.Logger
}

func NewPostgresStore(cfg config.CatalogConfig, db *sql.DB, log logger.Logger) *PostgresStore {
	return &PostgresStore{
		db:         db,
		table:      cfg.Table,
		timeout:    config.GetDuration(cfg.Timeout),
		maxResults: cfg.MaxResults,
		logger:     log.WithFields(map[string]interface{}{"store": "postgres"}),
	}
}

func (s *PostgresStore) GetCandidates(ctx context.Context, filters models.SearchFilters) ([]models.Listing, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()

	conditions := []string{}
	args := []interface{}{}
	argIdx := 1

	if filters.Location != "" {
		conditions = append(conditions, fmt.Sprintf("location = $%d", argIdx))
		args = append(args, filters.Location)
		argIdx++
	}
	if filters.Category != "" {
		conditions = append(conditions, fmt.Sprintf("category = $%d", argIdx))
		args = append(args, filters.Category)
		argIdx++
	}
	if filters.MaxPrice != nil {
		conditions = append(conditions, fmt.Sprintf("price <= $%d", argIdx))
		args = append(args, *filters.MaxPrice)
		argIdx++
	}
	if filters.AvailableOnly {
		conditions = append(conditions, "available = TRUE")
	}

	query := "SELECT " + listingColumns + " FROM " + s.table
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += fmt.Sprintf(" ORDER BY id LIMIT %d", s.maxResults)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		metrics.StoreQueries.WithLabelValues("postgres", "failure").Inc()
		if ctx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("%w: query timed out", ErrStoreUnavailable)
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	defer rows.Close()

	var listings []models.Listing
	for rows.Next() {
		var l models.Listing
		if err := rows.Scan(
			&l.ID, &l.Title, &l.Description, &l.Location, &l.Category,
			pq.Array(&l.Tags), &l.Price, &l.Currency, &l.Available,
			&l.Status, &l.PartnerID, &l.Rating, &l.ReviewCount, &l.Capacity,
		); err != nil {
			metrics.StoreQueries.WithLabelValues("postgres", "failure").Inc()
			return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
		listings = append(listings, l)
	}
	if err := rows.Err(); err != nil {
		metrics.StoreQueries.WithLabelValues("postgres", "failure").Inc()
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	if len(filters.Tags) > 0 {
		filtered := make([]models.Listing, 0, len(listings))
		for _, l := range listings {
			if hasAnyTag(l.Tags, filters.Tags) {
				filtered = append(filtered, l)
			}
		}
		listings = filtered
	}

	metrics.StoreQueries.WithLabelValues("postgres", "success").Inc()
	s.logger.Debug("candidates fetched", map[string]interface{}{
		"hits":       len(listings),
		"durationMs": time.Since(start).Milliseconds(),
	})

	return listings, nil
}

func (s *PostgresStore) GetByID(ctx context.Context, id string) (*models.Listing, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	query := "SELECT " + listingColumns + " FROM " + s.table + " WHERE id = $1"

	var l models.Listing
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&l.ID, &l.Title, &l.Description, &l.Location, &l.Category,
		pq.Array(&l.Tags), &l.Price, &l.Currency, &l.Available,
		&l.Status, &l.PartnerID, &l.Rating, &l.ReviewCount, &l.Capacity,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrListingNotFound
		}
		if ctx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("%w: lookup timed out", ErrStoreUnavailable)
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	return &l, nil
}
