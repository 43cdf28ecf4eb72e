package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/mathurkshitij3776/Realpick/internal/domain"
	"github.com/mathurkshitij3776/Realpick/internal/search"
)

// DefaultIndexName is used when no index name is configured.
const DefaultIndexName = "realpick_products"

// wildcard fields keep substring queries exact without n-gram analyzers.
const indexMapping = `{
  "settings": {"number_of_shards": 1, "number_of_replicas": 0},
  "mappings": {
    "properties": {
      "name":        {"type": "wildcard"},
      "tagline":     {"type": "wildcard"},
      "description": {"type": "wildcard"},
      "status":      {"type": "keyword"}
    }
  }
}`

const statusMapping = `{"properties": {"status": {"type": "keyword"}}}`

var searchedFields = []string{"name", "tagline", "description"}

// Index is an Elasticsearch-backed search.Index.
type Index struct {
	client    *elasticsearch.Client
	indexName string
	logger    *slog.Logger
}

var _ search.Index = (*Index)(nil)

type esErrorResponse struct {
	Error struct {
		Type   string `json:"type"`
		Reason string `json:"reason"`
	} `json:"error"`
}

type esSearchResponse struct {
	Hits struct {
		Hits []struct {
			ID string `json:"_id"`
		} `json:"hits"`
	} `json:"hits"`
}

type esBulkResponse struct {
	Errors bool `json:"errors"`
	Items  []struct {
		Index struct {
			ID    string `json:"_id"`
			Error struct {
				Type   string `json:"type"`
				Reason string `json:"reason"`
			} `json:"error"`
		} `json:"index"`
	} `json:"items"`
}

// New connects to the cluster at esURL and creates the index when missing.
func New(ctx context.Context, esURL, indexName string, logger *slog.Logger) (*Index, error) {
	if indexName == "" {
		indexName = DefaultIndexName
	}

	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{esURL},
	})
	if err != nil {
		return nil, fmt.Errorf("create elasticsearch client: %w", err)
	}

	idx := &Index{client: client, indexName: indexName, logger: logger}
	if err := idx.ensureIndex(ctx); err != nil {
		return nil, err
	}
	return idx, nil
}

// Ping checks whether the cluster is reachable.
func (e *Index) Ping(ctx context.Context) error {
	res, err := e.client.Ping(e.client.Ping.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("elasticsearch ping: %w", err)
	}
	defer closeBody(res)

	if res.IsError() {
		return fmt.Errorf("elasticsearch ping: unexpected status %s", res.Status())
	}
	return nil
}

func (e *Index) ensureIndex(ctx context.Context) error {
	res, err := e.client.Indices.Exists([]string{e.indexName}, e.client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("check index exists: %w", err)
	}
	closeBody(res)

	if res.StatusCode == http.StatusOK {
		return e.ensureStatusField(ctx)
	}

	res, err = e.client.Indices.Create(
		e.indexName,
		e.client.Indices.Create.WithBody(strings.NewReader(indexMapping)),
		e.client.Indices.Create.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	defer closeBody(res)

	if res.IsError() {
		return responseError("create index", res)
	}
	e.logger.InfoContext(ctx, "elasticsearch index created", slog.String("index", e.indexName))
	return nil
}

// ensureStatusField adds the status keyword to indices created before it
// existed. Documents pick the field up on the next reindex.
func (e *Index) ensureStatusField(ctx context.Context) error {
	res, err := e.client.Indices.PutMapping(
		[]string{e.indexName},
		strings.NewReader(statusMapping),
		e.client.Indices.PutMapping.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("update index mapping: %w", err)
	}
	defer closeBody(res)

	if res.IsError() {
		return responseError("update index mapping", res)
	}
	return nil
}

// Index adds or replaces one product document.
func (e *Index) Index(ctx context.Context, product *domain.Product) error {
	data, err := json.Marshal(search.NewDocument(product))
	if err != nil {
		return fmt.Errorf("marshal search document: %w", err)
	}

	res, err := e.client.Index(
		e.indexName,
		bytes.NewReader(data),
		e.client.Index.WithDocumentID(product.ID),
		e.client.Index.WithRefresh("true"),
		e.client.Index.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("elasticsearch index: %w", err)
	}
	defer closeBody(res)

	if res.IsError() {
		return responseError("elasticsearch index", res)
	}
	return nil
}

// BulkIndex adds or replaces products with a single _bulk request.
func (e *Index) BulkIndex(ctx context.Context, products []domain.Product) error {
	if len(products) == 0 {
		return nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for i := range products {
		meta := map[string]any{"index": map[string]any{"_index": e.indexName, "_id": products[i].ID}}
		if err := enc.Encode(meta); err != nil {
			return fmt.Errorf("encode bulk meta: %w", err)
		}
		if err := enc.Encode(search.NewDocument(&products[i])); err != nil {
			return fmt.Errorf("encode bulk document: %w", err)
		}
	}

	res, err := e.client.Bulk(
		&buf,
		e.client.Bulk.WithRefresh("true"),
		e.client.Bulk.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("elasticsearch bulk: %w", err)
	}
	defer closeBody(res)

	if res.IsError() {
		return responseError("elasticsearch bulk", res)
	}

	var bulk esBulkResponse
	if err := json.NewDecoder(res.Body).Decode(&bulk); err != nil {
		return fmt.Errorf("decode bulk response: %w", err)
	}
	if bulk.Errors {
		for _, item := range bulk.Items {
			if item.Index.Error.Type != "" {
				return fmt.Errorf("elasticsearch bulk: document %s: %s: %s",
					item.Index.ID, item.Index.Error.Type, item.Index.Error.Reason)
			}
		}
		return fmt.Errorf("elasticsearch bulk: request reported errors")
	}
	return nil
}

// Search returns ids of approved products whose name, tagline or
// description contains query, ignoring case. Status is filtered in the
// query so non-approved matches never use up the limit.
func (e *Index) Search(ctx context.Context, query string, limit int) ([]string, error) {
	data, err := json.Marshal(buildQuery(query, limit))
	if err != nil {
		return nil, fmt.Errorf("marshal search query: %w", err)
	}

	res, err := e.client.Search(
		e.client.Search.WithIndex(e.indexName),
		e.client.Search.WithBody(bytes.NewReader(data)),
		e.client.Search.WithContext(ctx),
	)
	if err != nil {
		return nil, fmt.Errorf("elasticsearch search: %w", err)
	}
	defer closeBody(res)

	if res.IsError() {
		return nil, responseError("elasticsearch search", res)
	}

	var resp esSearchResponse
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	ids := make([]string, 0, len(resp.Hits.Hits))
	for _, hit := range resp.Hits.Hits {
		ids = append(ids, hit.ID)
	}
	return ids, nil
}

func buildQuery(query string, limit int) map[string]any {
	pattern := "*" + escapeWildcard(strings.TrimSpace(query)) + "*"

	should := make([]any, 0, len(searchedFields))
	for _, f := range searchedFields {
		should = append(should, map[string]any{
			"wildcard": map[string]any{
				f: map[string]any{"value": pattern, "case_insensitive": true},
			},
		})
	}

	return map[string]any{
		"size":    limit,
		"_source": false,
		"query": map[string]any{
			"bool": map[string]any{
				"should":               should,
				"minimum_should_match": 1,
				"filter": []any{
					map[string]any{"term": map[string]any{"status": domain.ProductStatusApproved}},
				},
			},
		},
	}
}

var wildcardEscaper = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`)

func escapeWildcard(s string) string {
	return wildcardEscaper.Replace(s)
}

func responseError(op string, res *esapi.Response) error {
	var errResp esErrorResponse
	if err := json.NewDecoder(res.Body).Decode(&errResp); err == nil && errResp.Error.Type != "" {
		return fmt.Errorf("%s: %s: %s", op, errResp.Error.Type, errResp.Error.Reason)
	}
	return fmt.Errorf("%s: unexpected status %s", op, res.Status())
}

func closeBody(res *esapi.Response) {
	if res != nil && res.Body != nil {
		_, _ = io.Copy(io.Discard, res.Body)
		_ = res.Body.Close()
	}
}
