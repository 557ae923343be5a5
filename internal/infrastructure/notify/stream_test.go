package notify

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"opserp/internal/core/id"
	"opserp/internal/domain/events"
	"opserp/internal/infrastructure/storage/postgres"
)

func setupNotifier(t *testing.T, opts ...Option) (*StreamNotifier, *miniredis.Miniredis) {
	s := miniredis.RunT(t)
	n, err := Dial(context.Background(), "redis://"+s.Addr(), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = n.Close() })
	return n, s
}

func outboxMessage(t *testing.T) *postgres.OutboxMessage {
	ev := events.StatusChanged{
		Type:       events.TypeRequestApproved,
		RequestID:  id.New(),
		FromStatus: "SOLICITADO",
		ToStatus:   "PENDENTE",
		ActorID:    "approver-1",
		Timestamp:  time.Now().UTC(),
	}
	payload, err := json.Marshal(ev)
	require.NoError(t, err)

	return &postgres.OutboxMessage{
		ID:            id.New(),
		AggregateType: events.AggregatePurchaseRequest,
		AggregateID:   ev.RequestID,
		EventType:     ev.Type,
		Payload:       payload,
		CreatedAt:     time.Now().UTC(),
	}
}

func TestStreamNotifier_Handle(t *testing.T) {
	n, s := setupNotifier(t, WithStream("test:events"))
	msg := outboxMessage(t)

	require.NoError(t, n.Handle(context.Background(), msg))

	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	defer client.Close()

	entries, err := client.XRange(context.Background(), "test:events", "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, entries, 1)

	values := entries[0].Values
	assert.Equal(t, msg.ID.String(), values["message_id"])
	assert.Equal(t, events.TypeRequestApproved, values["event_type"])
	assert.Equal(t, msg.AggregateID.String(), values["aggregate_id"])

	var ev events.StatusChanged
	require.NoError(t, json.Unmarshal([]byte(values["payload"].(string)), &ev))
	assert.Equal(t, "PENDENTE", ev.ToStatus)

	decoded, err := msg.Event()
	require.NoError(t, err)
	assert.Equal(t, ev.RequestID, decoded.RequestID)
}

func TestStreamNotifier_DefaultStream(t *testing.T) {
	n, s := setupNotifier(t, WithStream(""))
	require.NoError(t, n.Handle(context.Background(), outboxMessage(t)))
	require.NoError(t, n.Handle(context.Background(), outboxMessage(t)))

	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	defer client.Close()

	length, err := client.XLen(context.Background(), DefaultStream).Result()
	require.NoError(t, err)
	assert.Equal(t, int64(2), length)
}

func TestStreamNotifier_FailsWhenRedisDown(t *testing.T) {
	n, s := setupNotifier(t)
	s.Close()

	err := n.Handle(context.Background(), outboxMessage(t))
	assert.Error(t, err)
}

func TestDial_BadURL(t *testing.T) {
	_, err := Dial(context.Background(), "not a url")
	assert.Error(t, err)
}
