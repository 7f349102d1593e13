// internal/catalog/elasticsearch.go
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"skyconnect-match/internal/common/config"
	"skyconnect-match/internal/common/logger"
	"skyconnect-match/internal/common/metrics"
	"skyconnect-match/internal/models"
)

// ElasticsearchStore is the default listing store.
type ElasticsearchStore struct {
	client     *elasticsearch.Client
	index      string
	timeout    time.Duration
	maxResults int
	logger     logger.Logger
}

func NewElasticsearchStore(cfg config.CatalogConfig, client *elasticsearch.Client, log logger.Logger) *ElasticsearchStore {
	return &ElasticsearchStore{
		client:     client,
		index:      cfg.Index,
		timeout:    config.GetDuration(cfg.Timeout),
		maxResults: cfg.MaxResults,
		logger:     log.WithFields(map[string]interface{}{"store": "elasticsearch"}),
	}
}

type searchResponse struct {
	Hits struct {
		Total struct {
			Value int64 `json:"value"`
		} `json:"total"`
		Hits []struct {
			Source models.Listing `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

func (s *ElasticsearchStore) GetCandidates(ctx context.Context, filters models.SearchFilters) ([]models.Listing, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()

	body, err := json.Marshal(BuildSearchQuery(filters))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	size := s.maxResults
	req := esapi.SearchRequest{
		Index: []string{s.index},
		Body:  strings.NewReader(string(body)),
		Size:  &size,
	}

	res, err := req.Do(ctx, s.client)
	if err != nil {
		metrics.StoreQueries.WithLabelValues("elasticsearch", "failure").Inc()
		if ctx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("%w: search timed out", ErrStoreUnavailable)
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		metrics.StoreQueries.WithLabelValues("elasticsearch", "failure").Inc()
		return nil, fmt.Errorf("%w: %s", ErrStoreUnavailable, res.Status())
	}

	var r searchResponse
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		metrics.StoreQueries.WithLabelValues("elasticsearch", "failure").Inc()
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	listings := make([]models.Listing, 0, len(r.Hits.Hits))
	for _, hit := range r.Hits.Hits {
		listings = append(listings, hit.Source)
	}

	metrics.StoreQueries.WithLabelValues("elasticsearch", "success").Inc()
	s.logger.Debug("candidates fetched", map[string]interface{}{
		"hits":       len(listings),
		"totalHits":  r.Hits.Total.Value,
		"durationMs": time.Since(start).Milliseconds(),
	})

	return listings, nil
}

func (s *ElasticsearchStore) GetByID(ctx context.Context, id string) (*models.Listing, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	req := esapi.GetRequest{
		Index:      s.index,
		DocumentID: id,
	}

	res, err := req.Do(ctx, s.client)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("%w: lookup timed out", ErrStoreUnavailable)
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return nil, ErrListingNotFound
	}
	if res.IsError() {
		return nil, fmt.Errorf("%w: %s", ErrStoreUnavailable, res.Status())
	}

	var doc struct {
		Source models.Listing `json:"_source"`
	}
	if err := json.NewDecoder(res.Body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	return &doc.Source, nil
}
