package queue

import "context"

// Job consumes one message type from the queue. The redelivery jobs in
// internal/channel implement it, one per failed-delivery record kind.
type Job interface {
	// Name returns the unique identifier of the job.
	Name() string

	// Type returns the message type the job handles.
	Type() string

	// Handle processes one queued payload.
	Handle(ctx context.Context, payload interface{}) error
}
