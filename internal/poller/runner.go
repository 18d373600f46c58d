// internal/poller/runner.go
package poller

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	DefaultStopTimeout  = 30 * time.Second
	DefaultReportBuffer = 64
)

// ErrRunning is returned by Start while a previous run is still active.
var ErrRunning = errors.New("poller: acquisition already running")

// ErrNotStarted is returned by Wait before Start.
var ErrNotStarted = errors.New("poller: acquisition not started")

// Config is the runtime config of one coordinator.
type Config struct {
	MessageInterval time.Duration
	MessageBuffer   int
	DataInterval    time.Duration
	StopTimeout     time.Duration
	ReportBuffer    int
	Observer        Observer
}

// worker is one poller task and its single-shot completion signal.
type worker struct {
	name   string
	cancel context.CancelFunc
	done   chan struct{} // closed exactly once when the task returns
	err    error         // valid after done is closed
}

func (w *worker) finished() bool {
	select {
	case <-w.done:
		return true
	default:
		return false
	}
}

// Coordinator runs the message and data pollers for one session and
// reconciles their outcome. Only the coordinator stops the device channel.
type Coordinator struct {
	sess Session
	cfg  Config
	log  logrus.FieldLogger

	msgPoller  *MessagePoller
	dataPoller *DataPoller

	mu      sync.Mutex
	run     uuid.UUID
	msg     *worker
	data    *worker
	ended   chan *worker
	reports chan Report
}

func NewCoordinator(s Session, cfg Config, log logrus.FieldLogger) (*Coordinator, error) {
	if s == nil {
		return nil, errors.New("poller: session required")
	}
	if cfg.StopTimeout <= 0 {
		cfg.StopTimeout = DefaultStopTimeout
	}
	if cfg.ReportBuffer <= 0 {
		cfg.ReportBuffer = DefaultReportBuffer
	}
	if cfg.Observer == nil {
		cfg.Observer = nopObserver{}
	}
	if log == nil {
		log = logrus.StandardLogger()
	}

	return &Coordinator{
		sess:       s,
		cfg:        cfg,
		log:        log,
		msgPoller:  NewMessagePoller(s, cfg.MessageInterval, cfg.MessageBuffer, log, cfg.Observer),
		dataPoller: NewDataPoller(s, cfg.DataInterval, log, cfg.Observer),
	}, nil
}

// Start resets both completion signals and launches the pollers.
// It returns the run id stamped on every report of this run.
func (c *Coordinator) Start(ctx context.Context) (uuid.UUID, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.active() {
		return uuid.Nil, ErrRunning
	}

	c.run = uuid.New()
	c.ended = make(chan *worker, 2)
	c.reports = make(chan Report, c.cfg.ReportBuffer)

	log := c.log.WithField("run", c.run.String())
	c.data = c.launch(ctx, DataPollerName, c.dataPoller.Run, log)
	c.msg = c.launch(ctx, MessagePollerName, c.msgPoller.Run, log)

	// reports closes once both pollers have returned
	go func(data, msg *worker, out chan Report) {
		<-data.done
		<-msg.done
		close(out)
	}(c.data, c.msg, c.reports)

	log.Info("acquisition started")
	return c.run, nil
}

type runFunc func(ctx context.Context, run uuid.UUID, out chan<- Report) error

func (c *Coordinator) launch(parent context.Context, name string, fn runFunc, log logrus.FieldLogger) *worker {
	ctx, cancel := context.WithCancel(parent)
	w := &worker{name: name, cancel: cancel, done: make(chan struct{})}
	run, out, ended := c.run, c.reports, c.ended

	go func() {
		defer func() {
			if r := recover(); r != nil {
				w.err = fmt.Errorf("poller: %s poller panic: %v", name, r)
			}
			close(w.done)
			ended <- w
		}()
		w.err = fn(ctx, run, out)
		if w.err != nil {
			log.WithField("poller", name).Errorf("poller terminated: %v", w.err)
		}
	}()
	return w
}

// active reports whether a poller of the current run is still running.
// Caller holds mu.
func (c *Coordinator) active() bool {
	if c.data == nil {
		return false
	}
	return !c.data.finished() || !c.msg.finished()
}

// Run returns the id of the current (or last) run.
func (c *Coordinator) Run() uuid.UUID {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.run
}

// Reports is the report stream of the current run. It is closed when both
// pollers have returned.
func (c *Coordinator) Reports() <-chan Report {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reports
}

// Stop cancels the data poller then the message poller, waiting at most
// StopTimeout for each, then stops the device channel. A timeout is logged
// and does not block the other poller. Safe to call more than once.
func (c *Coordinator) Stop() {
	c.mu.Lock()
	data, msg := c.data, c.msg
	c.mu.Unlock()

	for _, w := range []*worker{data, msg} {
		if w != nil {
			c.halt(w)
		}
	}
	c.sess.Stop()
}

// halt cancels w and waits for its completion signal, bounded.
func (c *Coordinator) halt(w *worker) {
	w.cancel()
	if err := c.await(w); err != nil {
		c.log.Warn(err)
	}
}

func (c *Coordinator) await(w *worker) error {
	t := time.NewTimer(c.cfg.StopTimeout)
	defer t.Stop()
	select {
	case <-w.done:
		return nil
	case <-t.C:
		return &TimeoutError{Poller: w.name, After: c.cfg.StopTimeout}
	}
}

// Wait blocks until the first poller ends or ctx is cancelled.
//
// If the first poller to end failed while the session is connected, the
// sibling is stopped, the session is disconnected and that one error is
// returned. Otherwise the run is treated as a normal stop and nil is
// returned.
func (c *Coordinator) Wait(ctx context.Context) error {
	c.mu.Lock()
	ended, data, msg := c.ended, c.data, c.msg
	c.mu.Unlock()

	if ended == nil {
		return ErrNotStarted
	}

	var first *worker
	select {
	case first = <-ended:
	case <-ctx.Done():
		c.Stop()
		return nil
	}

	if first.err == nil {
		c.log.WithField("poller", first.name).Info("poller finished, stopping run")
		c.Stop()
		return nil
	}

	sibling := msg
	if first == msg {
		sibling = data
	}
	c.halt(sibling)

	if !c.sess.Connected() {
		c.log.WithField("poller", first.name).Debugf("ignoring error after disconnect: %v", first.err)
		c.sess.Stop()
		return nil
	}

	c.sess.Disconnect()
	if sibling.finished() && sibling.err != nil {
		c.log.WithField("poller", sibling.name).Debugf("secondary error suppressed: %v", sibling.err)
	}
	return fmt.Errorf("poller: %s: %w", first.name, first.err)
}
