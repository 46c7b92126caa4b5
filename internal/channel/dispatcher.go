package channel

import (
	"context"

	"BtcPulse/internal/domain/models"
	drepo "BtcPulse/internal/domain/repository"
	dservice "BtcPulse/internal/domain/service"
	"BtcPulse/pkg/logger"
	"BtcPulse/pkg/queue"
)

// Message types for the redelivery queue.
const (
	MsgRedeliverAlert     = "alert.redeliver"
	MsgRedeliverComposite = "composite.redeliver"
)

// RedeliverAlert is the queue payload for a failed alert delivery.
type RedeliverAlert struct {
	Channel string       `json:"channel"`
	Alert   models.Alert `json:"alert"`
}

// RedeliverComposite is the queue payload for a failed composite delivery.
type RedeliverComposite struct {
	Channel   string                 `json:"channel"`
	Composite models.CompositeSignal `json:"composite"`
}

// Dispatcher fans one cycle's alerts and composite signals out to every
// registered channel synchronously. A channel failure is logged, counted,
// optionally queued for redelivery, and never stops the remaining
// channels. Cooldown state is untouched by delivery results.
type Dispatcher struct {
	channels  []dservice.AlertChannel
	metrics   drepo.Metrics
	redeliver queue.QueueService
	logger    *logger.Logger
}

// NewDispatcher creates a dispatcher. redeliver may be nil to disable the
// retry queue.
func NewDispatcher(channels []dservice.AlertChannel, metrics drepo.Metrics, redeliver queue.QueueService, lgr *logger.Logger) *Dispatcher {
	return &Dispatcher{
		channels:  channels,
		metrics:   metrics,
		redeliver: redeliver,
		logger:    lgr,
	}
}

// Channel returns the registered channel with the given name.
func (d *Dispatcher) Channel(name string) (dservice.AlertChannel, bool) {
	for _, ch := range d.channels {
		if ch.Name() == name {
			return ch, true
		}
	}
	return nil, false
}

// Dispatch delivers all records of one evaluation cycle.
func (d *Dispatcher) Dispatch(ctx context.Context, alerts []models.Alert, composites []models.CompositeSignal) {
	for i := range alerts {
		a := alerts[i]
		for _, ch := range d.channels {
			delivered, err := ch.Send(ctx, &a)
			if err != nil || !delivered {
				d.onFailure(ctx, ch.Name(), err, MsgRedeliverAlert, RedeliverAlert{Channel: ch.Name(), Alert: a})
				continue
			}
		}
	}
	for i := range composites {
		c := composites[i]
		for _, ch := range d.channels {
			delivered, err := ch.SendComposite(ctx, &c)
			if err != nil || !delivered {
				d.onFailure(ctx, ch.Name(), err, MsgRedeliverComposite, RedeliverComposite{Channel: ch.Name(), Composite: c})
				continue
			}
		}
	}
}

func (d *Dispatcher) onFailure(ctx context.Context, channel string, err error, msgType string, payload interface{}) {
	d.metrics.RecordError("delivery_" + channel)
	fields := []logger.Field{logger.String("channel", channel)}
	if err != nil {
		fields = append(fields, logger.Error(err))
	}
	d.logger.Warn("delivery failed", fields...)

	if d.redeliver == nil {
		return
	}
	if qerr := d.redeliver.PublishMessage(ctx, msgType, payload); qerr != nil {
		d.logger.Error("redelivery enqueue failed",
			logger.String("channel", channel),
			logger.Error(qerr),
		)
	}
}
