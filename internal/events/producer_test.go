package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if _, ok := ctx.Deadline(); !ok {
		return errors.New("publish without deadline")
	}
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func TestProducer_Publish(t *testing.T) {
	w := &fakeWriter{}
	p := &Producer{writer: w}

	ev := New(ShopRegistered)
	ev.ShopID = 5
	require.NoError(t, p.Publish(context.Background(), TopicShops, "5", ev))

	require.Len(t, w.msgs, 1)
	msg := w.msgs[0]
	assert.Equal(t, TopicShops, msg.Topic)
	assert.Equal(t, "5", string(msg.Key))
	assert.Equal(t, "event_type", msg.Headers[0].Key)
	assert.Equal(t, ShopRegistered, string(msg.Headers[0].Value))

	var got Event
	require.NoError(t, json.Unmarshal(msg.Value, &got))
	assert.Equal(t, ev.ID, got.ID)
	assert.Equal(t, uint(5), got.ShopID)

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestProducer_PublishError(t *testing.T) {
	p := &Producer{writer: &fakeWriter{err: errors.New("leader not available")}}
	err := p.Publish(context.Background(), TopicProducts, "1", New(ProductCreated))
	require.Error(t, err)
	assert.Contains(t, err.Error(), TopicProducts)
}

func TestNewProducer_RequiresBrokers(t *testing.T) {
	_, err := NewProducer(nil)
	require.Error(t, err)
}

func TestNew_AssignsIdentity(t *testing.T) {
	a, b := New(ProductCreated), New(ProductCreated)
	assert.NotEqual(t, a.ID, b.ID)
	assert.False(t, a.OccurredAt.IsZero())
	require.NoError(t, Nop{}.Publish(context.Background(), TopicProducts, "", a))
}
