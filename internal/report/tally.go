package report

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"geoattend/internal/attendance"
)

const (
	tallyPrefix = "attendance:tally:"
	tallyTTL    = 8 * 24 * time.Hour

	fieldCheckedOut = "checked_out"
)

// Counts is the live tally of one work date.
type Counts struct {
	WorkDate   string `json:"work_date"`
	Present    int64  `json:"present"`
	Late       int64  `json:"late"`
	CheckedOut int64  `json:"checked_out"`
}

// Tally keeps per-date counters in Redis hashes, fed by queue events.
type Tally struct {
	client *redis.Client
}

// NewTally constructs a Tally.
func NewTally(client *redis.Client) *Tally {
	return &Tally{client: client}
}

// Apply increments the counters for an accepted check-in or check-out.
func (t *Tally) Apply(ctx context.Context, typ string, e attendance.Event) error {
	field, err := tallyField(typ, e)
	if err != nil {
		return err
	}
	key := tallyKey(e.WorkDate)
	pipe := t.client.TxPipeline()
	pipe.HIncrBy(ctx, key, field, 1)
	pipe.Expire(ctx, key, tallyTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("report: tally %s: %w", key, err)
	}
	return nil
}

// Get returns the counters for workDate (YYYY-MM-DD).
func (t *Tally) Get(ctx context.Context, workDate string) (Counts, error) {
	vals, err := t.client.HGetAll(ctx, tallyKey(workDate)).Result()
	if err != nil {
		return Counts{}, fmt.Errorf("report: read tally: %w", err)
	}
	return parseCounts(workDate, vals), nil
}

func tallyKey(workDate string) string {
	return tallyPrefix + workDate
}

func tallyField(typ string, e attendance.Event) (string, error) {
	switch typ {
	case attendance.EventCheckIn:
		if e.Status != attendance.StatusPresent && e.Status != attendance.StatusLate {
			return "", fmt.Errorf("report: unknown status %q", e.Status)
		}
		return string(e.Status), nil
	case attendance.EventCheckOut:
		return fieldCheckedOut, nil
	default:
		return "", fmt.Errorf("report: unknown event type %q", typ)
	}
}

func parseCounts(workDate string, vals map[string]string) Counts {
	n := func(k string) int64 {
		v, _ := strconv.ParseInt(vals[k], 10, 64)
		return v
	}
	return Counts{
		WorkDate:   workDate,
		Present:    n(string(attendance.StatusPresent)),
		Late:       n(string(attendance.StatusLate)),
		CheckedOut: n(fieldCheckedOut),
	}
}
