// Package push is the fire-and-forget notification boundary. Delivery
// itself happens outside this service; the backend only hands messages
// to the fanout topic keyed by the recipient's device push token.
package push

import (
	"context"
	"time"

	"github.com/yudha-ap/absensi-backend/internal/logging"
	"github.com/yudha-ap/absensi-backend/internal/mykafka"
)

type Sender interface {
	Send(ctx context.Context, deviceToken, title, body string)
}

type KafkaSender struct {
	Producer *mykafka.Producer
	Topic    string
}

func (s *KafkaSender) Send(ctx context.Context, deviceToken, title, body string) {
	pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	event := map[string]interface{}{
		"device_token": deviceToken,
		"title":        title,
		"body":         body,
	}
	if err := s.Producer.PublishEvent(pubCtx, s.Topic, deviceToken, event); err != nil {
		logging.FromContext(ctx).Error("push publish error", "error", err)
	}
}
