package attendance

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"geoattend/internal/geo"
	"geoattend/internal/queue"
	"geoattend/internal/schedule"
)

// Clock provides the current time.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now()
}

// TransactionManager runs fn inside a database transaction.
type TransactionManager interface {
	WithinReadOnly(ctx context.Context, fn func(context.Context) error) error
	WithinReadWrite(ctx context.Context, fn func(context.Context) error) error
}

type noopTransactionManager struct{}

func (noopTransactionManager) WithinReadOnly(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

func (noopTransactionManager) WithinReadWrite(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

// Publisher receives events for accepted attempts.
type Publisher interface {
	Publish(ctx context.Context, msg queue.Message) error
}

// DecisionObserver is notified of every decision, accepted or not.
type DecisionObserver interface {
	ObserveDecision(action string, d Decision)
}

// Actions reported to the DecisionObserver.
const (
	ActionCheckIn  = "check_in"
	ActionCheckOut = "check_out"
)

const (
	defaultHistoryPageSize = 30
	maxHistoryPageSize     = 200
)

// Options configures optional collaborators of Service.
type Options struct {
	Clock     Clock
	Tx        TransactionManager
	Location  *time.Location
	Publisher Publisher
	Observer  DecisionObserver
}

// Service runs check-in and check-out attempts against the store.
type Service struct {
	store     Store
	settings  SettingsProvider
	clock     Clock
	tx        TransactionManager
	loc       *time.Location
	publisher Publisher
	observer  DecisionObserver
}

// NewService creates a service backed by store and settings.
func NewService(store Store, settings SettingsProvider, opts Options) *Service {
	s := &Service{
		store:     store,
		settings:  settings,
		clock:     opts.Clock,
		tx:        opts.Tx,
		loc:       opts.Location,
		publisher: opts.Publisher,
		observer:  opts.Observer,
	}
	if s.clock == nil {
		s.clock = realClock{}
	}
	if s.tx == nil {
		s.tx = noopTransactionManager{}
	}
	if s.loc == nil {
		s.loc = time.Local
	}
	return s
}

// AttemptInput is a check-in or check-out request.
type AttemptInput struct {
	UserID   string
	Location geo.Coordinate
}

// CheckIn evaluates and, when accepted, persists a check-in. A rejected
// attempt is returned as a Decision with a nil error; the error is reserved
// for configuration and storage failures.
func (s *Service) CheckIn(ctx context.Context, in AttemptInput) (Decision, error) {
	userID, err := validateAttempt(in)
	if err != nil {
		return Decision{}, err
	}

	fence, sched, err := s.loadSettings(ctx)
	if err != nil {
		return Decision{}, err
	}

	now := s.clock.Now().In(s.loc)

	var decision Decision
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		existing, err := s.store.FindTodayRecord(txCtx, userID, DateOf(now))
		if err != nil {
			return fmt.Errorf("attendance: find today record: %w", err)
		}

		decision = EvaluateCheckIn(userID, in.Location, now, fence, sched, existing)
		if !decision.Accepted {
			return nil
		}

		id, err := s.store.Insert(txCtx, decision.Record)
		if err != nil {
			return fmt.Errorf("attendance: insert record: %w", err)
		}
		decision.Record.ID = id
		return nil
	}); err != nil {
		return Decision{}, err
	}

	s.observe(ActionCheckIn, decision)
	if decision.Accepted {
		s.publish(ctx, EventCheckIn, decision.Record)
	}
	return decision, nil
}

// CheckOut evaluates and, when accepted, persists a check-out.
func (s *Service) CheckOut(ctx context.Context, in AttemptInput) (Decision, error) {
	userID, err := validateAttempt(in)
	if err != nil {
		return Decision{}, err
	}

	fence, sched, err := s.loadSettings(ctx)
	if err != nil {
		return Decision{}, err
	}

	now := s.clock.Now().In(s.loc)

	var decision Decision
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		open, err := s.store.FindOpenRecord(txCtx, userID, DateOf(now))
		if err != nil {
			return fmt.Errorf("attendance: find open record: %w", err)
		}

		decision = EvaluateCheckOut(userID, in.Location, now, fence, sched, open)
		if !decision.Accepted {
			return nil
		}

		rec := decision.Record
		affected, err := s.store.UpdateCheckOut(txCtx, rec.ID, *rec.CheckOutTime, *rec.CheckOutLocation)
		if err != nil {
			return fmt.Errorf("attendance: update check-out: %w", err)
		}
		if affected == 0 {
			return fmt.Errorf("attendance: update check-out %s: %w", rec.ID, ErrRecordNotOpen)
		}
		return nil
	}); err != nil {
		return Decision{}, err
	}

	s.observe(ActionCheckOut, decision)
	if decision.Accepted {
		s.publish(ctx, EventCheckOut, decision.Record)
	}
	return decision, nil
}

// Today returns the user's record for the current work date, or nil.
func (s *Service) Today(ctx context.Context, userID string) (*Record, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrInvalidUserID
	}

	today := DateOf(s.clock.Now().In(s.loc))

	var rec *Record
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		found, err := s.store.FindTodayRecord(txCtx, userID, today)
		if err != nil {
			return err
		}
		rec = found
		return nil
	}); err != nil {
		return nil, err
	}
	return rec, nil
}

// HistoryInput selects a page of a user's records, newest first.
type HistoryInput struct {
	UserID    string
	PageSize  int
	PageToken string
}

// HistoryResult is one page of records.
type HistoryResult struct {
	Records       []*Record
	NextPageToken string
}

// History lists a user's records.
func (s *Service) History(ctx context.Context, in HistoryInput) (*HistoryResult, error) {
	if strings.TrimSpace(in.UserID) == "" {
		return nil, ErrInvalidUserID
	}

	limit, err := normalizePageSize(in.PageSize)
	if err != nil {
		return nil, err
	}
	offset, err := parsePageToken(in.PageToken)
	if err != nil {
		return nil, err
	}

	var result HistoryResult
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		records, next, err := s.store.ListByUser(txCtx, in.UserID, limit, offset)
		if err != nil {
			return err
		}
		result.Records = records
		result.NextPageToken = next
		return nil
	}); err != nil {
		return nil, err
	}
	return &result, nil
}

func (s *Service) loadSettings(ctx context.Context) (geo.Geofence, schedule.Schedule, error) {
	fence, err := s.settings.OfficeGeofence(ctx)
	if err != nil {
		return geo.Geofence{}, schedule.Schedule{}, fmt.Errorf("attendance: load office geofence: %w", err)
	}
	sched, err := s.settings.AttendanceSchedule(ctx)
	if err != nil {
		return geo.Geofence{}, schedule.Schedule{}, fmt.Errorf("attendance: load schedule: %w", err)
	}
	return fence, sched, nil
}

func (s *Service) observe(action string, d Decision) {
	if s.observer != nil {
		s.observer.ObserveDecision(action, d)
	}
}

func (s *Service) publish(ctx context.Context, typ string, rec *Record) {
	if s.publisher == nil {
		return
	}
	msg, err := newEvent(rec).Message(typ)
	if err == nil {
		err = s.publisher.Publish(ctx, msg)
	}
	if err != nil {
		log.Printf("attendance: publish %s event for %s failed: %v", typ, rec.ID, err)
	}
}

func validateAttempt(in AttemptInput) (string, error) {
	userID := strings.TrimSpace(in.UserID)
	if userID == "" {
		return "", ErrInvalidUserID
	}
	if err := in.Location.Validate(); err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidLocation, err)
	}
	return userID, nil
}

func normalizePageSize(pageSize int) (int, error) {
	if pageSize <= 0 {
		return defaultHistoryPageSize, nil
	}
	if pageSize > maxHistoryPageSize {
		return 0, ErrInvalidPageSize
	}
	return pageSize, nil
}

func parsePageToken(token string) (int, error) {
	if strings.TrimSpace(token) == "" {
		return 0, nil
	}
	offset, err := strconv.Atoi(token)
	if err != nil || offset < 0 {
		return 0, ErrInvalidPageToken
	}
	return offset, nil
}
