package attendance

import (
	"encoding/json"
	"fmt"

	"geoattend/internal/queue"
)

// Event types published after an accepted attempt.
const (
	EventCheckIn  = "checkin"
	EventCheckOut = "checkout"
)

// Event is the queue payload describing an accepted attempt.
type Event struct {
	RecordID string `json:"record_id"`
	UserID   string `json:"user_id"`
	Status   Status `json:"status"`
	WorkDate string `json:"work_date"`
}

func newEvent(rec *Record) Event {
	return Event{
		RecordID: rec.ID,
		UserID:   rec.UserID,
		Status:   rec.Status,
		WorkDate: rec.WorkDate.Format(DateLayout),
	}
}

// Message wraps e for publishing.
func (e Event) Message(typ string) (queue.Message, error) {
	body, err := json.Marshal(e)
	if err != nil {
		return queue.Message{}, fmt.Errorf("encode event: %w", err)
	}
	return queue.Message{Type: typ, Body: body}, nil
}

// DecodeEvent parses the body of a check-in or check-out message.
func DecodeEvent(msg queue.Message) (Event, error) {
	var e Event
	if err := json.Unmarshal(msg.Body, &e); err != nil {
		return Event{}, fmt.Errorf("decode %s event: %w", msg.Type, err)
	}
	return e, nil
}
