package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"storefront/internal/broker/messages"

	"github.com/google/uuid"
)

const publishTimeout = 5 * time.Second

type Publisher interface {
	Publish(ctx context.Context, topic string, key, value []byte) error
}

// KafkaDispatcher hands messages to the notifications topic; cmd/notify-worker delivers them.
type KafkaDispatcher struct {
	pub   Publisher
	topic string
}

func NewKafkaDispatcher(pub Publisher, topic string) *KafkaDispatcher {
	return &KafkaDispatcher{pub: pub, topic: topic}
}

func (k *KafkaDispatcher) Dispatch(ctx context.Context, m Message) Receipt {
	id := uuid.NewString()

	value, err := json.Marshal(m.toNotification(id, time.Now().UTC()))
	if err != nil {
		slog.Error("notification marshal", "id", id, "error", err.Error())
		return Receipt{ID: id}
	}

	// レスポンス後にキャンセルされないようにリクエストのctxから切り離す
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	key := m.Ref
	if key == "" {
		key = id
	}
	if err := k.pub.Publish(pctx, k.topic, []byte(key), value); err != nil {
		slog.Error("notification publish", "id", id, "channel", m.Channel, "ref", m.Ref, "error", err.Error())
		return Receipt{ID: id}
	}
	return Receipt{ID: id, Accepted: true}
}

// Handler decodes a queued notification and delivers it. Failures are logged
// and swallowed so the consumer commits and moves on.
func Handler(d Deliverer) func(ctx context.Context, key, value []byte) error {
	return func(ctx context.Context, _ []byte, value []byte) error {
		var n messages.Notification
		if err := json.Unmarshal(value, &n); err != nil {
			slog.Error("notification decode", "error", err.Error())
			return nil
		}

		dctx, cancel := context.WithTimeout(ctx, deliverTimeout)
		defer cancel()
		if err := d.Deliver(dctx, fromNotification(n)); err != nil {
			slog.Error("notification failed", "id", n.ID, "channel", n.Channel, "ref", n.Ref, "error", err.Error())
			return nil
		}
		slog.Info("notification delivered", "id", n.ID, "channel", n.Channel, "ref", n.Ref)
		return nil
	}
}
