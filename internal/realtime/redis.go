package realtime

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const RelayChannel = "relay:events"

// RedisBridge shares hub fan-outs between API instances over redis pub/sub.
type RedisBridge struct {
	client     *redis.Client
	instanceID string
	hub        *Hub
}

func NewRedisBridge(client *redis.Client, instanceID string, hub *Hub) *RedisBridge {
	b := &RedisBridge{client: client, instanceID: instanceID, hub: hub}
	hub.SetPublisher(b)
	return b
}

func (b *RedisBridge) Publish(ctx context.Context, r Routed) error {
	r.Origin = b.instanceID
	payload, err := json.Marshal(r)
	if err != nil {
		return err
	}
	return b.client.Publish(ctx, RelayChannel, payload).Err()
}

// Run subscribes until ctx is cancelled.
func (b *RedisBridge) Run(ctx context.Context) error {
	sub := b.client.Subscribe(ctx, RelayChannel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return err
	}
	zap.L().Info("Relay redis bridge subscribed", zap.String("channel", RelayChannel), zap.String("instance", b.instanceID))

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			b.handle(msg.Payload)
		}
	}
}

func (b *RedisBridge) handle(payload string) {
	var r Routed
	if err := json.Unmarshal([]byte(payload), &r); err != nil {
		zap.L().Warn("Dropping malformed relay event", zap.Error(err))
		return
	}
	if r.Origin == b.instanceID {
		return
	}
	b.hub.Deliver(r)
}
