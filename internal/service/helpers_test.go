package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/shops_api/internal/db"
	"github.com/Skotchmaster/shops_api/internal/events"
	"github.com/Skotchmaster/shops_api/internal/identity"
	"github.com/Skotchmaster/shops_api/internal/repo"
	"github.com/Skotchmaster/shops_api/internal/search"
)

func InitTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(gdb))
	return gdb
}

type mockProvider struct {
	mock.Mock
}

func (m *mockProvider) CreateIdentity(ctx context.Context, n identity.NewIdentity) (string, error) {
	args := m.Called(ctx, n)
	return args.String(0), args.Error(1)
}

func (m *mockProvider) DeleteIdentity(ctx context.Context, uid string) error {
	return m.Called(ctx, uid).Error(0)
}

func (m *mockProvider) CustomToken(ctx context.Context, uid string, shopID uint) (string, error) {
	args := m.Called(ctx, uid, shopID)
	return args.String(0), args.Error(1)
}

func (m *mockProvider) VerifyIDToken(ctx context.Context, idToken string) (*identity.Token, error) {
	args := m.Called(ctx, idToken)
	tok, _ := args.Get(0).(*identity.Token)
	return tok, args.Error(1)
}

type mockExchanger struct {
	mock.Mock
}

func (m *mockExchanger) Exchange(ctx context.Context, customToken string) (*identity.ExchangeResponse, error) {
	args := m.Called(ctx, customToken)
	res, _ := args.Get(0).(*identity.ExchangeResponse)
	return res, args.Error(1)
}

type published struct {
	Topic string
	Key   string
	Event events.Event
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []published
}

func (p *recordingPublisher) Publish(_ context.Context, topic, key string, ev events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, published{Topic: topic, Key: key, Event: ev})
	return nil
}

func (p *recordingPublisher) ofType(typ string) []published {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []published
	for _, e := range p.events {
		if e.Event.Type == typ {
			out = append(out, e)
		}
	}
	return out
}

type countingMetrics struct {
	mu              sync.Mutex
	registered      int
	cleanupFailures int
	logins          map[string]int
	products        int
}

func newCountingMetrics() *countingMetrics {
	return &countingMetrics{logins: map[string]int{}}
}

func (m *countingMetrics) RecordShopRegistered() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.registered++
}

func (m *countingMetrics) RecordIdentityCleanupFailure() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cleanupFailures++
}

func (m *countingMetrics) RecordLogin(result string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logins[result]++
}

func (m *countingMetrics) RecordProductCreated() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products++
}

func (m *countingMetrics) RecordHTTPRequest(string, string, int, time.Duration) {}

type recordingIndex struct {
	mu        sync.Mutex
	docs      []search.Document
	searchErr error
}

func (r *recordingIndex) IndexProduct(_ context.Context, doc search.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.docs = append(r.docs, doc)
	return nil
}

func (r *recordingIndex) Search(context.Context, string, int, int) (int64, []search.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.searchErr != nil {
		return 0, nil, r.searchErr
	}
	return int64(len(r.docs)), r.docs, nil
}

type fixture struct {
	repo      *repo.GormRepo
	provider  *mockProvider
	exchanger *mockExchanger
	events    *recordingPublisher
	metrics   *countingMetrics
	index     *recordingIndex

	shops   *ShopService
	auth    *AuthService
	catalog *CatalogService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		repo:      &repo.GormRepo{DB: InitTestDB(t)},
		provider:  &mockProvider{},
		exchanger: &mockExchanger{},
		events:    &recordingPublisher{},
		metrics:   newCountingMetrics(),
		index:     &recordingIndex{},
	}
	bridge := identity.NewBridge(f.provider, f.exchanger)

	f.shops = &ShopService{Repo: f.repo, Identity: bridge, Events: f.events, Metrics: f.metrics}
	f.auth = &AuthService{Repo: f.repo, Identity: bridge, Metrics: f.metrics}
	f.catalog = &CatalogService{Repo: f.repo, Events: f.events, Search: f.index, Metrics: f.metrics}
	return f
}

func strPtr(s string) *string { return &s }
