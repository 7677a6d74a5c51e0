package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"contesthub/logger"
	"contesthub/models"
	"contesthub/payments/stub"
	"contesthub/realtime"
	"contesthub/testutil"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemCache() *memCache { return &memCache{data: map[string][]byte{}} }

func (c *memCache) Get(_ context.Context, key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	return v, ok
}

func (c *memCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}

func (c *memCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.data, k)
	}
	return nil
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []realtime.ContestEvent
}

func (n *recordingNotifier) Publish(evt realtime.ContestEvent) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, evt)
}

func (n *recordingNotifier) Events() []realtime.ContestEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]realtime.ContestEvent(nil), n.events...)
}

type fixture struct {
	db       *gorm.DB
	clock    *testutil.Clock
	cache    *memCache
	notifier *recordingNotifier
	payments *stub.Provider
	svc      *Services
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		db:       testutil.NewDB(t),
		clock:    testutil.NewClock(),
		cache:    newMemCache(),
		notifier: &recordingNotifier{},
		payments: stub.New("test-secret", "http://api.test"),
	}
	f.svc = New(Deps{
		DB:       f.db,
		Cache:    f.cache,
		Notifier: f.notifier,
		Payments: f.payments,
		Log:      logger.Discard(),
		Now:      f.clock.Now,
		Settings: Settings{
			MinEntryFee:  decimal.NewFromInt(100),
			PopularLimit: 5,
			CacheTTL:     time.Minute,
			Currency:     "bdt",
			ClientURL:    "http://client.test",
		},
	})
	return f
}

func (f *fixture) participants(t *testing.T, contestID string) int {
	t.Helper()
	var c models.Contest
	if err := f.db.First(&c, "id = ?", contestID).Error; err != nil {
		t.Fatalf("load contest: %v", err)
	}
	return c.Participants
}

func (f *fixture) registrations(t *testing.T, contestID string) int64 {
	t.Helper()
	var n int64
	if err := f.db.Model(&models.Registration{}).Where("contest_id = ?", contestID).Count(&n).Error; err != nil {
		t.Fatalf("count registrations: %v", err)
	}
	return n
}

func fee(v int64) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.NewFromInt(v))
}
