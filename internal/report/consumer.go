package report

import (
	"context"
	"fmt"
	"log"

	"geoattend/internal/attendance"
	"geoattend/internal/queue"
)

// Applier receives decoded attendance events.
type Applier interface {
	Apply(ctx context.Context, typ string, e attendance.Event) error
}

// EventObserver counts handled events.
type EventObserver interface {
	ObserveEvent(typ, result string)
}

// Consume feeds events from q into a until ctx is cancelled or the queue
// closes. Malformed or failing events are logged and skipped.
func Consume(ctx context.Context, q queue.Queue, a Applier, obs EventObserver) error {
	messages, err := q.Consume(ctx)
	if err != nil {
		return fmt.Errorf("report: consume: %w", err)
	}

	for msg := range messages {
		result := "ok"
		if err := handle(ctx, a, msg); err != nil {
			result = "error"
			log.Printf("worker: %s event: %v", msg.Type, err)
		}
		if obs != nil {
			obs.ObserveEvent(msg.Type, result)
		}
	}
	return nil
}

func handle(ctx context.Context, a Applier, msg queue.Message) error {
	if msg.Type != attendance.EventCheckIn && msg.Type != attendance.EventCheckOut {
		return fmt.Errorf("unknown message type %q", msg.Type)
	}
	e, err := attendance.DecodeEvent(msg)
	if err != nil {
		return err
	}
	return a.Apply(ctx, msg.Type, e)
}
