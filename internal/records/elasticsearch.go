package records

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"

	"credit-risk-workers/internal/common/logger"
	"credit-risk-workers/internal/models"
)

// listPageSize is the number of hits fetched per search_after page.
const listPageSize = 1000

// listSort orders a collection oldest first. RecordId breaks ties between
// records created in the same second and keeps search_after pages stable.
var listSort = []map[string]interface{}{
	{"CreatedAt": map[string]interface{}{"order": "asc", "unmapped_type": "date"}},
	{"RecordId.keyword": map[string]interface{}{"order": "asc", "unmapped_type": "keyword"}},
}

// ElasticsearchStore keeps one index per collection, documents keyed by record id.
type ElasticsearchStore struct {
	client      *elasticsearch.Client
	indexPrefix string
	pageSize    int
	logger      logger.Logger
}

func NewElasticsearchStore(client *elasticsearch.Client, indexPrefix string, log logger.Logger) *ElasticsearchStore {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &ElasticsearchStore{client: client, indexPrefix: indexPrefix, pageSize: listPageSize, logger: log}
}

func (s *ElasticsearchStore) index(collection string) string {
	return strings.ToLower(s.indexPrefix + collectionOrDefault(collection))
}

func (s *ElasticsearchStore) Append(ctx context.Context, collection string, rec models.ApplicantRecord) error {
	payload, err := encode(rec)
	if err != nil {
		return err
	}

	res, err := s.client.Index(
		s.index(collection),
		bytes.NewReader(payload),
		s.client.Index.WithContext(ctx),
		s.client.Index.WithDocumentID(rec.RecordID),
		s.client.Index.WithOpType("create"),
		s.client.Index.WithRefresh("wait_for"),
	)
	if err != nil {
		return fmt.Errorf("index record: %w", err)
	}
	defer res.Body.Close()

	// the id is already indexed
	if res.StatusCode == http.StatusConflict {
		s.logger.Debug("record already stored", map[string]interface{}{
			"collection": collection,
			"recordId":   rec.RecordID,
		})
		return nil
	}
	if res.IsError() {
		return fmt.Errorf("index record: %s", res.Status())
	}
	return nil
}

type searchHit struct {
	Source json.RawMessage   `json:"_source"`
	Sort   []json.RawMessage `json:"sort"`
}

type searchResponse struct {
	Hits struct {
		Hits []searchHit `json:"hits"`
	} `json:"hits"`
}

// List pages through the whole collection with search_after.
func (s *ElasticsearchStore) List(ctx context.Context, collection string) ([]models.ApplicantRecord, error) {
	var payloads [][]byte
	var after []json.RawMessage
	for {
		hits, found, err := s.searchPage(ctx, collection, after)
		if err != nil {
			return nil, err
		}
		if !found {
			break
		}
		for _, hit := range hits {
			payloads = append(payloads, hit.Source)
		}
		if len(hits) < s.pageSize {
			break
		}
		after = hits[len(hits)-1].Sort
	}

	out, bad := decodeAll(payloads)
	for _, err := range bad {
		s.logger.Warn("skipping undecodable record", map[string]interface{}{
			"collection": collection,
			"error":      err,
		})
	}
	return out, nil
}

// searchPage returns found=false when the collection index does not exist.
func (s *ElasticsearchStore) searchPage(ctx context.Context, collection string, after []json.RawMessage) ([]searchHit, bool, error) {
	query := map[string]interface{}{
		"query": map[string]interface{}{"match_all": map[string]interface{}{}},
		"sort":  listSort,
		"size":  s.pageSize,
	}
	if after != nil {
		query["search_after"] = after
	}
	body, err := json.Marshal(query)
	if err != nil {
		return nil, false, fmt.Errorf("encode search: %w", err)
	}

	res, err := s.client.Search(
		s.client.Search.WithContext(ctx),
		s.client.Search.WithIndex(s.index(collection)),
		s.client.Search.WithBody(bytes.NewReader(body)),
	)
	if err != nil {
		return nil, false, fmt.Errorf("search records: %w", err)
	}
	defer res.Body.Close()

	// a collection nobody appended to yet
	if res.StatusCode == http.StatusNotFound {
		return nil, false, nil
	}
	if res.IsError() {
		return nil, false, fmt.Errorf("search records: %s", res.Status())
	}

	var page searchResponse
	if err := json.NewDecoder(res.Body).Decode(&page); err != nil {
		return nil, false, fmt.Errorf("decode search response: %w", err)
	}
	return page.Hits.Hits, true, nil
}

func (s *ElasticsearchStore) Ping(ctx context.Context) error {
	res, err := s.client.Ping(s.client.Ping.WithContext(ctx))
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("elasticsearch ping error: %s", res.Status())
	}
	return nil
}

func (s *ElasticsearchStore) Close() error { return nil }
