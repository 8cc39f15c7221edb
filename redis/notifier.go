package redis

import (
	"agent-workspace/internal/store"
	"log"

	"github.com/redis/go-redis/v9"
)

// channel name for row-insert notifications of one table
func insertChannel(table string) string {
	return "inserts:" + table
}

// Notifier fans row-insert notifications out over Redis pub/sub, one channel
// per table. It implements store.Notifier. The automation worker publishes to
// the same channels after its own writes.
type Notifier struct {
	client *redis.Client
}

func NewNotifier(client *redis.Client) *Notifier {
	return &Notifier{client: client}
}

func (n *Notifier) Publish(table string, payload []byte) {
	if err := n.client.Publish(Ctx, insertChannel(table), payload).Err(); err != nil {
		log.Printf("Failed to publish %s insert: %v", table, err)
	}
}

func (n *Notifier) Subscribe(table string, fn func(payload []byte)) store.Unsubscribe {
	pubsub := n.client.Subscribe(Ctx, insertChannel(table))

	go func() {
		for msg := range pubsub.Channel() {
			fn([]byte(msg.Payload))
		}
	}()

	return func() {
		if err := pubsub.Close(); err != nil {
			log.Printf("Failed to close %s subscription: %v", table, err)
		}
	}
}
