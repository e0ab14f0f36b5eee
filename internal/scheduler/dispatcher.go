package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"github.com/GnanaPrakashNarayana/Real-Time-Chat-Application-sub000/internal/metrics"
	"github.com/GnanaPrakashNarayana/Real-Time-Chat-Application-sub000/internal/models"
	"github.com/GnanaPrakashNarayana/Real-Time-Chat-Application-sub000/internal/realtime"
	"github.com/GnanaPrakashNarayana/Real-Time-Chat-Application-sub000/internal/store"
)

// DefaultInterval is how often the dispatch loop looks for due
// messages.
const DefaultInterval = time.Minute

// Deliverer is the live fan-out path, shared with interactive sends so
// a scheduled message reaches recipients exactly the way a live one
// does. Implemented by *realtime.Notifier.
type Deliverer interface {
	DeliverDirect(msg *models.Message)
	DeliverGroup(msg *models.GroupMessage, group *models.Group)
	PushToUser(userID uuid.UUID, event string, data any) bool
}

// State is the dispatch loop's execution state.
type State string

const (
	StateIdle    State = "idle"
	StateRunning State = "running"
)

// Stats summarizes one dispatch cycle.
type Stats struct {
	Skipped   bool `json:"skipped"`
	Processed int  `json:"processed"`
	Sent      int  `json:"sent"`
	Failed    int  `json:"failed"`
}

// Status is a point-in-time view of the dispatcher, for operational
// tooling.
type Status struct {
	State     State         `json:"state"`
	Interval  time.Duration `json:"interval"`
	LastRun   time.Time     `json:"last_run"`
	LastStats Stats         `json:"last_stats"`
}

// Dispatcher finds due scheduled messages, materializes each into a
// real message, runs it through the live fan-out path, and records a
// terminal sent/failed status. One message's failure never aborts the
// batch.
//
// Re-entrancy: the Idle -> Running transition is a single atomic
// test-and-set; a tick that arrives while a cycle is still running is
// skipped entirely, never queued.
type Dispatcher struct {
	store    store.DataStore
	deliver  Deliverer
	logger   zerolog.Logger
	interval time.Duration

	running atomic.Bool

	mu        sync.Mutex
	lastRun   time.Time
	lastStats Stats

	sched gocron.Scheduler
}

// New creates a Dispatcher. A non-positive interval falls back to
// DefaultInterval.
func New(st store.DataStore, deliver Deliverer, logger zerolog.Logger, interval time.Duration) *Dispatcher {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Dispatcher{
		store:    st,
		deliver:  deliver,
		logger:   logger.With().Str("component", "scheduler").Logger(),
		interval: interval,
	}
}

// Start begins the recurring loop. The first run fires immediately to
// catch messages that became due while the process was down.
func (d *Dispatcher) Start() error {
	sched, err := gocron.NewScheduler(gocron.WithLocation(time.UTC))
	if err != nil {
		return fmt.Errorf("create scheduler: %w", err)
	}

	_, err = sched.NewJob(
		gocron.DurationJob(d.interval),
		gocron.NewTask(func() {
			d.TriggerNow(context.Background())
		}),
		gocron.WithName("scheduled-dispatch"),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		return fmt.Errorf("schedule dispatch job: %w", err)
	}

	sched.Start()
	d.sched = sched
	d.logger.Info().Dur("interval", d.interval).Msg("dispatch loop started")
	return nil
}

// Stop shuts the recurring loop down. A cycle in flight finishes; its
// per-message work is short-lived and needs no cancellation.
func (d *Dispatcher) Stop() error {
	if d.sched == nil {
		return nil
	}
	return d.sched.Shutdown()
}

// Status reports the dispatcher's current state.
func (d *Dispatcher) Status() Status {
	state := StateIdle
	if d.running.Load() {
		state = StateRunning
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return Status{
		State:     state,
		Interval:  d.interval,
		LastRun:   d.lastRun,
		LastStats: d.lastStats,
	}
}

// TriggerNow runs one dispatch cycle over everything due right now.
// If a cycle is already running the call is a silent skip, reported
// only through Stats.Skipped.
func (d *Dispatcher) TriggerNow(ctx context.Context) Stats {
	return d.runCycle(ctx, time.Now().UTC())
}

// CatchUp processes only messages whose fire time is more than one
// interval in the past, the ones a crashed cycle most likely missed.
func (d *Dispatcher) CatchUp(ctx context.Context) Stats {
	return d.runCycle(ctx, time.Now().UTC().Add(-d.interval))
}

// ProcessOne pushes a single scheduled message through the per-message
// path, regardless of its fire time. For tests and operational
// tooling.
func (d *Dispatcher) ProcessOne(ctx context.Context, id uuid.UUID) error {
	if !d.running.CompareAndSwap(false, true) {
		return errors.New("dispatch cycle in progress")
	}
	defer d.running.Store(false)

	m, err := d.store.GetScheduledMessage(ctx, id)
	if err != nil {
		return err
	}
	if m.Terminal() {
		return fmt.Errorf("message %s already %s", m.ID, m.Status)
	}
	d.processMessage(ctx, m)
	return nil
}

func (d *Dispatcher) runCycle(ctx context.Context, cutoff time.Time) Stats {
	if !d.running.CompareAndSwap(false, true) {
		metrics.ScheduledCyclesSkipped.Inc()
		d.logger.Debug().Msg("dispatch tick skipped, cycle still running")
		return Stats{Skipped: true}
	}
	defer d.running.Store(false)

	start := time.Now()
	defer func() {
		metrics.ScheduledCycleDuration.Observe(time.Since(start).Seconds())
	}()

	due, err := d.store.FindDueScheduledMessages(ctx, cutoff)
	if err != nil {
		d.logger.Error().Err(err).Msg("query due scheduled messages failed")
		return Stats{}
	}

	var stats Stats
	for i := range due {
		m := &due[i]
		stats.Processed++
		if d.processMessage(ctx, m) {
			stats.Sent++
		} else {
			stats.Failed++
		}
	}

	d.mu.Lock()
	d.lastRun = start
	d.lastStats = stats
	d.mu.Unlock()

	if stats.Processed > 0 {
		d.logger.Info().
			Int("processed", stats.Processed).
			Int("sent", stats.Sent).
			Int("failed", stats.Failed).
			Msg("dispatch cycle completed")
	}
	return stats
}

// processMessage takes one pending message to a terminal status and
// reports whether it was sent. Failures are recorded on the message
// and never abort the caller's batch.
func (d *Dispatcher) processMessage(ctx context.Context, m *models.ScheduledMessage) bool {
	if m.Payload.Empty() {
		return d.fail(ctx, m, "message has no content")
	}

	target, err := m.Target()
	if err != nil {
		return d.fail(ctx, m, err.Error())
	}

	if _, err := d.store.FindUserByID(ctx, m.SenderID); err != nil {
		return d.fail(ctx, m, "sender no longer exists")
	}

	if target.IsGroup() {
		return d.dispatchGroup(ctx, m, *target.GroupID)
	}
	return d.dispatchDirect(ctx, m, *target.UserID)
}

func (d *Dispatcher) dispatchDirect(ctx context.Context, m *models.ScheduledMessage, receiverID uuid.UUID) bool {
	if _, err := d.store.FindUserByID(ctx, receiverID); err != nil {
		return d.fail(ctx, m, "recipient no longer exists")
	}

	msg := &models.Message{
		ID:         ulid.Make().String(),
		SenderID:   m.SenderID,
		ReceiverID: receiverID,
		Payload:    m.Payload,
		Read:       false,
		CreatedAt:  time.Now().UTC(),
	}
	if err := d.store.SaveMessage(ctx, msg); err != nil {
		return d.fail(ctx, m, "persist message failed")
	}
	metrics.MessagesSent.WithLabelValues("direct").Inc()

	// Same fan-out path as a live send, plus the sender's own live
	// connection so their UI reflects the send.
	d.deliver.DeliverDirect(msg)
	d.deliver.PushToUser(m.SenderID, realtime.EventNewMessage, msg)

	return d.markSent(ctx, m)
}

func (d *Dispatcher) dispatchGroup(ctx context.Context, m *models.ScheduledMessage, groupID uuid.UUID) bool {
	group, err := d.store.FindGroupByID(ctx, groupID)
	if err != nil {
		return d.fail(ctx, m, "group no longer exists")
	}
	if !group.IsMember(m.SenderID) {
		return d.fail(ctx, m, "sender no longer a member of the group")
	}

	msg := &models.GroupMessage{
		ID:        ulid.Make().String(),
		GroupID:   groupID,
		SenderID:  m.SenderID,
		Payload:   m.Payload,
		CreatedAt: time.Now().UTC(),
	}
	if err := d.store.SaveGroupMessage(ctx, msg); err != nil {
		return d.fail(ctx, m, "persist group message failed")
	}
	metrics.MessagesSent.WithLabelValues("group").Inc()

	d.deliver.DeliverGroup(msg, group)
	d.deliver.PushToUser(m.SenderID, realtime.EventNewGroupMessage,
		realtime.GroupMessageEvent{Message: msg, Group: group.Summary()})

	return d.markSent(ctx, m)
}

func (d *Dispatcher) markSent(ctx context.Context, m *models.ScheduledMessage) bool {
	now := time.Now().UTC()
	m.Status = models.ScheduledStatusSent
	m.SentAt = &now
	m.UpdatedAt = now
	if err := d.store.SaveScheduledMessage(ctx, m); err != nil {
		// The message was already delivered; leaving it pending risks
		// a duplicate next cycle, so this is worth shouting about.
		d.logger.Error().Err(err).Str("id", m.ID.String()).Msg("failed to record sent status")
		return true
	}
	metrics.ScheduledDispatched.WithLabelValues("sent").Inc()
	return true
}

func (d *Dispatcher) fail(ctx context.Context, m *models.ScheduledMessage, reason string) bool {
	m.Status = models.ScheduledStatusFailed
	m.FailReason = reason
	m.UpdatedAt = time.Now().UTC()
	if err := d.store.SaveScheduledMessage(ctx, m); err != nil {
		d.logger.Error().Err(err).Str("id", m.ID.String()).Msg("failed to record failed status")
		return false
	}
	metrics.ScheduledDispatched.WithLabelValues("failed").Inc()
	d.logger.Warn().
		Str("id", m.ID.String()).
		Str("reason", reason).
		Msg("scheduled message failed")
	return false
}
