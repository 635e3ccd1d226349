package records

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"credit-risk-workers/internal/models"
)

type fakeDoc struct {
	id     string
	source json.RawMessage
}

// fakeES serves just enough of the index and search APIs. Search sorts by
// CreatedAt then RecordId and honours size and search_after.
type fakeES struct {
	mu       sync.Mutex
	indices  map[string][]fakeDoc
	searches []map[string]json.RawMessage
}

func (f *fakeES) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("X-Elastic-Product", "Elasticsearch")
	w.Header().Set("Content-Type", "application/json")

	f.mu.Lock()
	defer f.mu.Unlock()

	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	switch {
	case r.Method == http.MethodHead && r.URL.Path == "/":
		w.WriteHeader(http.StatusOK)
	case len(parts) == 3 && parts[1] == "_doc" && r.Method == http.MethodPut:
		if r.URL.Query().Get("op_type") == "create" {
			for _, d := range f.indices[parts[0]] {
				if d.id == parts[2] {
					w.WriteHeader(http.StatusConflict)
					_, _ = io.WriteString(w, `{"error":{"type":"version_conflict_engine_exception"},"status":409}`)
					return
				}
			}
		}
		body, _ := io.ReadAll(r.Body)
		f.indices[parts[0]] = append(f.indices[parts[0]], fakeDoc{id: parts[2], source: body})
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"result":"created","_id":"`+parts[2]+`"}`)
	case len(parts) == 2 && parts[1] == "_search":
		var query map[string]json.RawMessage
		_ = json.NewDecoder(r.Body).Decode(&query)
		f.searches = append(f.searches, query)

		docs, ok := f.indices[parts[0]]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `{"error":{"type":"index_not_found_exception"},"status":404}`)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"hits": map[string]interface{}{"hits": fakePage(docs, query)},
		})
	default:
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"error":"unexpected request"}`)
	}
}

func fakePage(docs []fakeDoc, query map[string]json.RawMessage) []map[string]interface{} {
	type keyed struct {
		key    [2]string
		source json.RawMessage
	}
	sorted := make([]keyed, 0, len(docs))
	for _, d := range docs {
		var rec models.ApplicantRecord
		_ = json.Unmarshal(d.source, &rec)
		sorted = append(sorted, keyed{key: [2]string{rec.CreatedAt, rec.RecordID}, source: d.source})
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i].key, sorted[j].key
		return a[0] < b[0] || (a[0] == b[0] && a[1] < b[1])
	})

	var after []string
	if raw, ok := query["search_after"]; ok {
		_ = json.Unmarshal(raw, &after)
	}
	size := len(sorted)
	if raw, ok := query["size"]; ok {
		_ = json.Unmarshal(raw, &size)
	}

	hits := []map[string]interface{}{}
	for _, k := range sorted {
		if len(after) == 2 && (k.key[0] < after[0] || (k.key[0] == after[0] && k.key[1] <= after[1])) {
			continue
		}
		if len(hits) == size {
			break
		}
		hits = append(hits, map[string]interface{}{"_source": k.source, "sort": k.key})
	}
	return hits
}

func newFakeESStore(t *testing.T) (*ElasticsearchStore, *fakeES) {
	t.Helper()
	fake := &fakeES{indices: map[string][]fakeDoc{}}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	client, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{srv.URL}})
	require.NoError(t, err)
	return NewElasticsearchStore(client, "credit-", nil), fake
}

func TestElasticsearchStore_RoundTrip(t *testing.T) {
	store, fake := newFakeESStore(t)
	ctx := context.Background()

	empty, err := store.List(ctx, "Loan_Applications")
	require.NoError(t, err)
	assert.Empty(t, empty)

	require.NoError(t, store.Append(ctx, "Loan_Applications", sampleRecord("a")))
	require.NoError(t, store.Append(ctx, "Loan_Applications", sampleRecord("b")))

	assert.Len(t, fake.indices["credit-loan_applications"], 2)

	out, err := store.List(ctx, "Loan_Applications")
	require.NoError(t, err)
	assert.Equal(t, []models.ApplicantRecord{sampleRecord("a"), sampleRecord("b")}, out)
}

func TestElasticsearchStore_ListOldestFirst(t *testing.T) {
	store, fake := newFakeESStore(t)
	ctx := context.Background()

	later := sampleRecord("later")
	later.CreatedAt = "2024-07-02T08:00:00Z"
	earlier := sampleRecord("earlier")
	earlier.CreatedAt = "2024-07-01T08:00:00Z"

	require.NoError(t, store.Append(ctx, "", later))
	require.NoError(t, store.Append(ctx, "", earlier))

	out, err := store.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "earlier", out[0].RecordID)
	assert.Equal(t, "later", out[1].RecordID)

	require.NotEmpty(t, fake.searches)
	var sortClause []map[string]map[string]string
	require.NoError(t, json.Unmarshal(fake.searches[len(fake.searches)-1]["sort"], &sortClause))
	require.Len(t, sortClause, 2)
	assert.Equal(t, "asc", sortClause[0]["CreatedAt"]["order"])
	assert.Contains(t, sortClause[1], "RecordId.keyword")
}

func TestElasticsearchStore_ListPagesPastOneSearch(t *testing.T) {
	store, fake := newFakeESStore(t)
	store.pageSize = 2
	ctx := context.Background()

	var want []string
	for _, id := range []string{"r1", "r2", "r3", "r4", "r5"} {
		rec := sampleRecord(id)
		require.NoError(t, store.Append(ctx, "", rec))
		want = append(want, id)
	}

	out, err := store.List(ctx, "")
	require.NoError(t, err)

	var got []string
	for _, rec := range out {
		got = append(got, rec.RecordID)
	}
	assert.Equal(t, want, got)
	assert.Len(t, fake.searches, 3)
	assert.NotContains(t, fake.searches[0], "search_after")
	assert.Contains(t, fake.searches[1], "search_after")
}

func TestElasticsearchStore_AppendSameIDOnce(t *testing.T) {
	store, fake := newFakeESStore(t)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, "", sampleRecord("dup")))
	require.NoError(t, store.Append(ctx, "", sampleRecord("dup")))

	assert.Len(t, fake.indices["credit-loan_applications"], 1)
	out, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, out, 1)
}

func TestElasticsearchStore_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = io.WriteString(w, `{"error":"cluster unavailable"}`)
	}))
	defer srv.Close()

	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses:    []string{srv.URL},
		DisableRetry: true,
	})
	require.NoError(t, err)
	store := NewElasticsearchStore(client, "", nil)

	assert.Error(t, store.Append(context.Background(), "", sampleRecord("a")))
	_, err = store.List(context.Background(), "")
	assert.Error(t, err)
}
