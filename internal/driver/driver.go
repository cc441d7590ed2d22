// Package driver sequences historical-data requests against a session:
// one outstanding request at a time, bars routed to a per-contract
// writer, fatal errors ending the run with an orderly finalize.
package driver

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/rxtech-lab/argo-snapshot/internal/basket"
	"github.com/rxtech-lab/argo-snapshot/internal/logger"
	"github.com/rxtech-lab/argo-snapshot/internal/types"
	"github.com/rxtech-lab/argo-snapshot/pkg/barwriter"
	"github.com/rxtech-lab/argo-snapshot/pkg/errors"
	"github.com/rxtech-lab/argo-snapshot/pkg/ibsession"
)

// State is the driver's position in its request lifecycle. Transitions
// only move forward: Initial -> Requesting -> Finalizing.
type State int

const (
	StateInitial State = iota
	StateRequesting
	StateFinalizing
)

func (s State) String() string {
	switch s {
	case StateInitial:
		return "initial"
	case StateRequesting:
		return "requesting"
	case StateFinalizing:
		return "finalizing"
	default:
		return "unknown"
	}
}

// DefaultWatchdogTimeout bounds how long a request may sit without a
// bar or completion before the driver treats it as lost.
const DefaultWatchdogTimeout = 2 * time.Minute

// Config carries the driver's inputs. Queue order is consumed per
// Discipline; the zero value of optional fields selects defaults.
type Config struct {
	Queue         []types.FetchRequest
	Discipline    basket.QueueDiscipline
	WriterFactory barwriter.Factory

	// IsFatal defaults to NewFatalClassifier(false).
	IsFatal FatalClassifier

	// WatchdogTimeout defaults to DefaultWatchdogTimeout.
	WatchdogTimeout time.Duration

	// OnRequestDone, if set, is called after each completed request
	// with the running count and the total.
	OnRequestDone func(done, total int)
}

// Driver is the request-sequencing state machine. It implements
// ibsession.Handler; the session delivers callbacks one at a time, and
// the internal mutex extends that serialization to the out-of-band
// entry points (Stop, watchdog expiry).
type Driver struct {
	logger  *logger.Logger
	session ibsession.Session

	writerFactory barwriter.Factory
	isFatal       FatalClassifier
	watchdogTO    time.Duration
	onRequestDone func(done, total int)
	discipline    basket.QueueDiscipline

	mu           sync.Mutex
	state        State
	queue        []types.FetchRequest
	total        int
	completed    int
	nextReqID    int
	currentReqID int
	writer       barwriter.BarWriter
	watchdog     *time.Timer

	disconnectOnce sync.Once
	done           chan struct{}
	runErr         error
}

var _ ibsession.Handler = (*Driver)(nil)

// New validates the config and returns a driver in StateInitial.
func New(session ibsession.Session, cfg Config, log *logger.Logger) (*Driver, error) {
	if session == nil {
		return nil, errors.New(errors.ErrCodeMissingParameter, "session is required")
	}

	if cfg.WriterFactory == nil {
		return nil, errors.New(errors.ErrCodeMissingParameter, "writer factory is required")
	}

	isFatal := cfg.IsFatal
	if isFatal == nil {
		isFatal = NewFatalClassifier(false)
	}

	watchdogTO := cfg.WatchdogTimeout
	if watchdogTO <= 0 {
		watchdogTO = DefaultWatchdogTimeout
	}

	discipline := cfg.Discipline
	if discipline == "" {
		discipline = basket.QueueFIFO
	}

	queue := make([]types.FetchRequest, len(cfg.Queue))
	copy(queue, cfg.Queue)

	return &Driver{
		logger:        log,
		session:       session,
		writerFactory: cfg.WriterFactory,
		isFatal:       isFatal,
		watchdogTO:    watchdogTO,
		onRequestDone: cfg.OnRequestDone,
		discipline:    discipline,
		state:         StateInitial,
		queue:         queue,
		total:         len(queue),
		done:          make(chan struct{}),
	}, nil
}

// OnSessionReady starts consuming the queue. An empty queue finalizes
// immediately.
func (d *Driver) OnSessionReady(nextValidID int) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.state != StateInitial {
		d.logger.Warn("Ignoring session ready", zap.String("state", d.state.String()))

		return
	}

	d.nextReqID = nextValidID

	d.logger.Info("Session ready",
		zap.Int("nextValidID", nextValidID),
		zap.Int("pending", len(d.queue)),
	)

	if len(d.queue) == 0 {
		d.finalize(nil)

		return
	}

	d.issueNext()
}

// OnBar routes a bar to the current contract's writer. Bars for stale
// request ids are dropped.
func (d *Driver) OnBar(reqID int, bar types.Bar) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.state != StateRequesting || reqID != d.currentReqID {
		d.logger.Debug("Dropping bar for stale request", zap.Int("reqID", reqID))

		return
	}

	if err := d.writer.Write(bar); err != nil {
		d.logger.Error("Writer failed", zap.Error(err))
		d.finalize(err)

		return
	}

	d.resetWatchdog()
}

// OnRequestComplete finalizes the current contract's writer and either
// issues the next request or finalizes the run.
func (d *Driver) OnRequestComplete(reqID int) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.state != StateRequesting || reqID != d.currentReqID {
		d.logger.Debug("Ignoring completion for stale request", zap.Int("reqID", reqID))

		return
	}

	d.stopWatchdog()

	if err := d.closeWriter(); err != nil {
		d.finalize(err)

		return
	}

	d.completed++

	d.logger.Info("Request complete",
		zap.Int("reqID", reqID),
		zap.Int("done", d.completed),
		zap.Int("total", d.total),
	)

	if d.onRequestDone != nil {
		d.onRequestDone(d.completed, d.total)
	}

	if len(d.queue) == 0 {
		d.finalize(nil)

		return
	}

	d.issueNext()
}

// OnError applies the fatality policy: warning-band codes are logged
// and ignored, fatal codes end the run.
func (d *Driver) OnError(reqID int, code int, message string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.state == StateFinalizing {
		d.logger.Debug("Ignoring error after finalize",
			zap.Int("code", code),
			zap.String("message", message),
		)

		return
	}

	if !d.isFatal(code) {
		d.logger.Warn("Session warning",
			zap.Int("reqID", reqID),
			zap.Int("code", code),
			zap.String("message", message),
		)

		return
	}

	d.logger.Error("Fatal session error",
		zap.Int("reqID", reqID),
		zap.Int("code", code),
		zap.String("message", message),
	)

	d.finalize(errors.Newf(errors.ErrCodeDriverFatalError, "session error %d: %s", code, message))
}

// Stop requests an orderly shutdown. Idempotent; the writer is
// finalized before disconnecting.
func (d *Driver) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.state == StateFinalizing {
		return
	}

	d.logger.Info("Stop requested")
	d.finalize(nil)
}

// Wait blocks until the driver reaches StateFinalizing or the context
// is done, and returns the run's fatal error, if any.
func (d *Driver) Wait(ctx context.Context) error {
	select {
	case <-d.done:
		return d.runErr
	case <-ctx.Done():
		return ctx.Err()
	}
}

// State reports the current state.
func (d *Driver) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.state
}

// Remaining reports how many requests were never issued. Non-zero after
// a fatal termination means the queue was abandoned.
func (d *Driver) Remaining() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	return len(d.queue)
}

// issueNext pops one request per the queue discipline, opens its
// writer, and puts it on the wire. Caller holds the lock and guarantees
// a non-empty queue.
func (d *Driver) issueNext() {
	var req types.FetchRequest

	if d.discipline == basket.QueueLIFO {
		req = d.queue[len(d.queue)-1]
		d.queue = d.queue[:len(d.queue)-1]
	} else {
		req = d.queue[0]
		d.queue = d.queue[1:]
	}

	writer, err := d.writerFactory(req.Contract.LocalSymbol)
	if err != nil {
		d.logger.Error("Failed to open writer", zap.Error(err))
		d.finalize(err)

		return
	}

	d.writer = writer
	d.currentReqID = d.nextReqID
	d.nextReqID++
	d.state = StateRequesting

	d.logger.Info("Issuing request",
		zap.Int("reqID", d.currentReqID),
		zap.String("ticker", req.Contract.LocalSymbol),
		zap.Time("end", req.EndTime),
	)

	err = d.session.IssueHistoricalRequest(
		d.currentReqID,
		req.Contract,
		req.EndTime,
		req.Duration,
		req.BarSize,
		req.WhatToShow,
		req.UseRTH,
	)
	if err != nil {
		d.logger.Error("Failed to issue request", zap.Error(err))
		d.finalize(err)

		return
	}

	d.resetWatchdog()
}

// finalize closes any open writer, disconnects exactly once, and
// records the run's outcome. Caller holds the lock.
func (d *Driver) finalize(cause error) {
	d.stopWatchdog()

	if err := d.closeWriter(); err != nil && cause == nil {
		cause = err
	}

	d.state = StateFinalizing
	d.runErr = cause

	d.disconnectOnce.Do(func() {
		if err := d.session.Disconnect(); err != nil {
			d.logger.Error("Disconnect failed", zap.Error(err))
		}
	})

	d.logger.Info("Run finalized",
		zap.Int("completed", d.completed),
		zap.Int("abandoned", len(d.queue)),
		zap.Bool("fatal", cause != nil),
	)

	close(d.done)
}

func (d *Driver) closeWriter() error {
	if d.writer == nil {
		return nil
	}

	writer := d.writer
	d.writer = nil

	if err := writer.Finalize(); err != nil {
		d.logger.Error("Failed to finalize writer", zap.Error(err))

		return err
	}

	return nil
}

// resetWatchdog arms the per-request timer; expiry synthesizes a fatal
// timeout since the gateway can silently drop a request.
func (d *Driver) resetWatchdog() {
	d.stopWatchdog()

	reqID := d.currentReqID

	d.watchdog = time.AfterFunc(d.watchdogTO, func() {
		d.onWatchdogExpired(reqID)
	})
}

func (d *Driver) stopWatchdog() {
	if d.watchdog != nil {
		d.watchdog.Stop()
		d.watchdog = nil
	}
}

func (d *Driver) onWatchdogExpired(reqID int) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.state != StateRequesting || reqID != d.currentReqID {
		return
	}

	d.logger.Error("Request watchdog expired",
		zap.Int("reqID", reqID),
		zap.Duration("timeout", d.watchdogTO),
	)

	d.finalize(errors.Newf(errors.ErrCodeRequestTimeout, "request %d timed out after %s", reqID, d.watchdogTO))
}
