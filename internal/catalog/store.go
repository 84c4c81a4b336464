// internal/catalog/store.go
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"rfp-proposal-engine/internal/common/errors"
	"rfp-proposal-engine/internal/common/logger"
	"rfp-proposal-engine/internal/models"
)

// Searcher retrieves catalog candidates for an item query vector.
type Searcher interface {
	SearchCandidates(ctx context.Context, vector []float32, topK int) ([]models.Candidate, error)
}

// ESStore runs kNN search against the SKU catalog index.
type ESStore struct {
	client *elasticsearch.Client
	index  string
	logger logger.Logger
}

func NewESStore(client *elasticsearch.Client, index string, log logger.Logger) *ESStore {
	return &ESStore{
		client: client,
		index:  index,
		logger: log.WithFields(map[string]interface{}{"component": "catalog-store"}),
	}
}

type skuDocument struct {
	SKUID       string            `json:"skuId"`
	ProductName string            `json:"productName"`
	Category    string            `json:"category"`
	Attributes  map[string]string `json:"attributes"`
	UnitPrice   float64           `json:"unitPrice"`
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			Source skuDocument `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// SearchCandidates returns up to topK nearest SKUs by embedding similarity.
// An empty result is a valid outcome, not an error.
func (s *ESStore) SearchCandidates(ctx context.Context, vector []float32, topK int) ([]models.Candidate, error) {
	queryBody := map[string]interface{}{
		"knn": map[string]interface{}{
			"field":          "embedding",
			"query_vector":   vector,
			"k":              topK,
			"num_candidates": topK * 10,
		},
		"_source": []string{"skuId", "productName", "category", "attributes", "unitPrice"},
	}

	body, _ := json.Marshal(queryBody)
	req := esapi.SearchRequest{
		Index: []string{s.index},
		Body:  strings.NewReader(string(body)),
		Size:  &topK,
	}

	res, err := req.Do(ctx, s.client)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, errors.NewVectorSearchTimeoutError()
		}
		return nil, errors.NewVectorSearchFailedError(err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, errors.NewVectorSearchFailedError(
			fmt.Errorf("search query failed: %s", res.Status()))
	}

	var r searchResponse
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return nil, errors.NewVectorSearchFailedError(err)
	}

	candidates := make([]models.Candidate, 0, len(r.Hits.Hits))
	for _, hit := range r.Hits.Hits {
		candidates = append(candidates, models.Candidate{
			SKUID:       hit.Source.SKUID,
			ProductName: hit.Source.ProductName,
			Category:    hit.Source.Category,
			Attributes:  hit.Source.Attributes,
			UnitPrice:   hit.Source.UnitPrice,
		})
	}

	s.logger.Debug("candidate search completed", map[string]interface{}{
		"hits": len(candidates),
	})
	return candidates, nil
}
