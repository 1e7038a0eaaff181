// Package events publishes domain events about shops and products.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const (
	TopicShops    = "shop_events"
	TopicProducts = "product_events"
)

const (
	ShopRegistered        = "shop_registered"
	ProductCreated        = "product_created"
	IdentityCleanupFailed = "identity_cleanup_failed"
)

type Event struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	OccurredAt  time.Time `json:"occurred_at"`
	ShopID      uint      `json:"shop_id,omitempty"`
	ProductID   uint      `json:"product_id,omitempty"`
	IdentityUID string    `json:"identity_uid,omitempty"`
	Reason      string    `json:"reason,omitempty"`
	Payload     any       `json:"payload,omitempty"`
}

func New(typ string) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       typ,
		OccurredAt: time.Now().UTC(),
	}
}

type Publisher interface {
	Publish(ctx context.Context, topic, key string, ev Event) error
}

// Nop drops every event. Used when no brokers are configured.
type Nop struct{}

func (Nop) Publish(context.Context, string, string, Event) error { return nil }
