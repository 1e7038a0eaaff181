package search

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/elastic/go-elasticsearch/v9"
)

func NewClient(ctx context.Context, url, user, password string) (*elasticsearch.Client, error) {
	l := slog.Default().With("component", "elasticsearch", "url", url)

	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{url},
		Username:  user,
		Password:  password,
	})
	if err != nil {
		return nil, fmt.Errorf("create elasticsearch client: %w", err)
	}

	res, err := client.Info(client.Info.WithContext(ctx))
	if err != nil {
		l.Error("es_info_failed", "error", err)
		return nil, fmt.Errorf("elasticsearch info: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		l.Error("es_info_failed", "status", res.StatusCode, "body", string(body))
		return nil, fmt.Errorf("elasticsearch info: %s", res.Status())
	}

	l.Info("es_connected")
	return client, nil
}
