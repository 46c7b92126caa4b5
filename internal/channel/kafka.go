package channel

import (
	"context"

	"BtcPulse/internal/domain/models"
	drepo "BtcPulse/internal/domain/repository"
)

// KafkaChannel hands alerts to the broker via the Publisher.
type KafkaChannel struct {
	pub drepo.Publisher
}

// NewKafkaChannel creates the Kafka channel.
func NewKafkaChannel(pub drepo.Publisher) *KafkaChannel {
	return &KafkaChannel{pub: pub}
}

func (c *KafkaChannel) Name() string { return "kafka" }

func (c *KafkaChannel) Send(ctx context.Context, a *models.Alert) (bool, error) {
	if err := c.pub.PublishAlert(ctx, a); err != nil {
		return false, err
	}
	return true, nil
}

func (c *KafkaChannel) SendComposite(ctx context.Context, s *models.CompositeSignal) (bool, error) {
	if err := c.pub.PublishComposite(ctx, s); err != nil {
		return false, err
	}
	return true, nil
}
