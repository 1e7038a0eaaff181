package search

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeES struct {
	mu       sync.Mutex
	indexed  map[string]Document
	lastBody map[string]any
	failWith int
}

func (f *fakeES) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("X-Elastic-Product", "Elasticsearch")
	w.Header().Set("Content-Type", "application/json")

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failWith != 0 {
		w.WriteHeader(f.failWith)
		_, _ = io.WriteString(w, `{"error":"boom"}`)
		return
	}

	switch {
	case r.URL.Path == "/":
		_, _ = io.WriteString(w, `{"version":{"number":"9.0.0"},"tagline":"You Know, for Search"}`)
	case strings.HasPrefix(r.URL.Path, "/products/_doc/"):
		var doc Document
		_ = json.NewDecoder(r.Body).Decode(&doc)
		f.indexed[strings.TrimPrefix(r.URL.Path, "/products/_doc/")] = doc
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"result":"created"}`)
	case r.URL.Path == "/products/_search":
		_ = json.NewDecoder(r.Body).Decode(&f.lastBody)
		hits := make([]map[string]any, 0, len(f.indexed))
		for _, d := range f.indexed {
			hits = append(hits, map[string]any{"_source": d})
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"hits": map[string]any{
				"total": map[string]any{"value": len(hits)},
				"hits":  hits,
			},
		})
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func newFakeES(t *testing.T) (*fakeES, *elasticsearch.Client) {
	t.Helper()
	f := &fakeES{indexed: map[string]Document{}}
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)

	client, err := NewClient(context.Background(), srv.URL, "", "")
	require.NoError(t, err)
	return f, client
}

func TestESIndex_IndexAndSearch(t *testing.T) {
	f, client := newFakeES(t)
	idx := NewESIndex(client, "products")
	ctx := context.Background()

	doc := Document{ID: 7, Name: "Red mug", Description: "ceramic", Price: "9.99", ShopID: 1, Categories: []string{"Kitchen"}}
	require.NoError(t, idx.IndexProduct(ctx, doc))
	assert.Equal(t, doc, f.indexed["7"])

	total, docs, err := idx.Search(ctx, "mug", 2, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, docs, 1)
	assert.Equal(t, "Red mug", docs[0].Name)

	assert.EqualValues(t, 5, f.lastBody["from"])
	assert.EqualValues(t, 5, f.lastBody["size"])
	mm := f.lastBody["query"].(map[string]any)["multi_match"].(map[string]any)
	assert.Equal(t, "mug", mm["query"])
}

func TestESIndex_ErrorResponses(t *testing.T) {
	f, client := newFakeES(t)
	idx := NewESIndex(client, "products")
	ctx := context.Background()

	f.mu.Lock()
	f.failWith = http.StatusInternalServerError
	f.mu.Unlock()

	require.Error(t, idx.IndexProduct(ctx, Document{ID: 1}))
	_, _, err := idx.Search(ctx, "x", 1, 10)
	require.Error(t, err)
}

func TestNop(t *testing.T) {
	require.NoError(t, Nop{}.IndexProduct(context.Background(), Document{ID: 1}))
	_, _, err := Nop{}.Search(context.Background(), "x", 1, 10)
	require.ErrorIs(t, err, ErrDisabled)
}
