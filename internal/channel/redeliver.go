package channel

import (
	"context"
	"fmt"

	"BtcPulse/pkg/queue"
)

// RedeliverAlertJob retries a failed alert delivery against its original
// channel. Retry count and backoff come from the queue configuration.
type RedeliverAlertJob struct {
	dispatcher *Dispatcher
}

// NewRedeliverAlertJob creates the alert redelivery job.
func NewRedeliverAlertJob(d *Dispatcher) *RedeliverAlertJob {
	return &RedeliverAlertJob{dispatcher: d}
}

func (j *RedeliverAlertJob) Name() string { return "redeliver_alert" }
func (j *RedeliverAlertJob) Type() string { return MsgRedeliverAlert }

func (j *RedeliverAlertJob) Handle(ctx context.Context, payload interface{}) error {
	p, err := queue.ParsePayload[RedeliverAlert](payload)
	if err != nil {
		return fmt.Errorf("parse redeliver alert: %w", err)
	}
	ch, ok := j.dispatcher.Channel(p.Channel)
	if !ok {
		return fmt.Errorf("unknown channel %q", p.Channel)
	}
	delivered, err := ch.Send(ctx, &p.Alert)
	if err != nil {
		return err
	}
	if !delivered {
		return fmt.Errorf("channel %q declined delivery", p.Channel)
	}
	return nil
}

// RedeliverCompositeJob retries a failed composite delivery.
type RedeliverCompositeJob struct {
	dispatcher *Dispatcher
}

// NewRedeliverCompositeJob creates the composite redelivery job.
func NewRedeliverCompositeJob(d *Dispatcher) *RedeliverCompositeJob {
	return &RedeliverCompositeJob{dispatcher: d}
}

func (j *RedeliverCompositeJob) Name() string { return "redeliver_composite" }
func (j *RedeliverCompositeJob) Type() string { return MsgRedeliverComposite }

func (j *RedeliverCompositeJob) Handle(ctx context.Context, payload interface{}) error {
	p, err := queue.ParsePayload[RedeliverComposite](payload)
	if err != nil {
		return fmt.Errorf("parse redeliver composite: %w", err)
	}
	ch, ok := j.dispatcher.Channel(p.Channel)
	if !ok {
		return fmt.Errorf("unknown channel %q", p.Channel)
	}
	delivered, err := ch.SendComposite(ctx, &p.Composite)
	if err != nil {
		return err
	}
	if !delivered {
		return fmt.Errorf("channel %q declined delivery", p.Channel)
	}
	return nil
}
