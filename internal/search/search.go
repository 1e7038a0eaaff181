// Package search keeps a full-text index of products in Elasticsearch.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/elastic/go-elasticsearch/v9"

	"github.com/Skotchmaster/shops_api/internal/util"
)

var (
	ErrDisabled    = errors.New("search is not configured")
	ErrUnavailable = errors.New("search unavailable")
)

type Document struct {
	ID          uint     `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Price       string   `json:"price"`
	ShopID      uint     `json:"shop_id"`
	Categories  []string `json:"categories"`
}

type Index interface {
	IndexProduct(ctx context.Context, doc Document) error
	Search(ctx context.Context, query string, page, size int) (int64, []Document, error)
}

type ESIndex struct {
	client *elasticsearch.Client
	index  string
}

func NewESIndex(client *elasticsearch.Client, index string) *ESIndex {
	return &ESIndex{client: client, index: index}
}

func (s *ESIndex) IndexProduct(ctx context.Context, doc Document) error {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(doc); err != nil {
		return fmt.Errorf("encode document: %w", err)
	}

	res, err := s.client.Index(
		s.index,
		&buf,
		s.client.Index.WithContext(ctx),
		s.client.Index.WithDocumentID(strconv.FormatUint(uint64(doc.ID), 10)),
	)
	if err != nil {
		return fmt.Errorf("index product %d: %w", doc.ID, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return fmt.Errorf("index product %d: %s: %s", doc.ID, res.Status(), body)
	}
	return nil
}

func (s *ESIndex) Search(ctx context.Context, query string, page, size int) (int64, []Document, error) {
	from, limit := util.Calculate(page, size)

	body := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":     query,
				"fields":    []string{"name^2", "description", "categories"},
				"fuzziness": "AUTO",
			},
		},
		"from": from,
		"size": limit,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return 0, nil, fmt.Errorf("encode query: %w", err)
	}

	res, err := s.client.Search(
		s.client.Search.WithContext(ctx),
		s.client.Search.WithIndex(s.index),
		s.client.Search.WithBody(&buf),
	)
	if err != nil {
		return 0, nil, fmt.Errorf("search: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return 0, nil, fmt.Errorf("search: %s", res.Status())
	}

	var r struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				Source Document `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return 0, nil, fmt.Errorf("decode search response: %w", err)
	}

	docs := make([]Document, len(r.Hits.Hits))
	for i, hit := range r.Hits.Hits {
		docs[i] = hit.Source
	}
	return r.Hits.Total.Value, docs, nil
}

// Nop is used when no Elasticsearch address is configured. Indexing is a
// no-op and searching reports ErrDisabled.
type Nop struct{}

func (Nop) IndexProduct(context.Context, Document) error { return nil }

func (Nop) Search(context.Context, string, int, int) (int64, []Document, error) {
	return 0, nil, ErrDisabled
}
