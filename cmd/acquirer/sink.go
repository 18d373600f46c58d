// cmd/acquirer/sink.go
package main

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tamzrod/potentiostat-acquirer/internal/eclib"
	"github.com/tamzrod/potentiostat-acquirer/internal/monitor"
	"github.com/tamzrod/potentiostat-acquirer/internal/notify"
	"github.com/tamzrod/potentiostat-acquirer/internal/poller"
	"github.com/tamzrod/potentiostat-acquirer/internal/status"
	"github.com/tamzrod/potentiostat-acquirer/internal/storage"
	"github.com/tamzrod/potentiostat-acquirer/internal/writer"
)

// sink consumes the report stream of one run.
// It owns the status tracker; nothing else touches it.
type sink struct {
	log     logrus.FieldLogger
	mon     *monitor.Monitor
	pub     storage.Publisher
	status  writer.StatusWriter // nil when disabled
	notify  notify.Notifier    // nil when disabled
	tracker *status.Tracker

	channel uint8
	family  eclib.Family
	tick    time.Duration

	rows int
}

func newSink(log logrus.FieldLogger, mon *monitor.Monitor, pub storage.Publisher, sw writer.StatusWriter, channel uint8, family eclib.Family) *sink {
	if pub == nil {
		pub = storage.Discard{}
	}
	return &sink{
		log:     log,
		mon:     mon,
		pub:     pub,
		status:  sw,
		tracker: status.NewTracker(),
		channel: channel,
		family:  family,
		tick:    time.Second,
	}
}

// consume drains reports until the stream closes or ctx ends.
// seconds_in_error advances on the 1 Hz ticker only.
func (s *sink) consume(ctx context.Context, reports <-chan poller.Report) {
	t := time.NewTicker(s.tick)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case r, ok := <-reports:
			if !ok {
				return
			}
			s.handle(ctx, r)

		case <-t.C:
			if s.tracker.Tick() {
				s.write()
			}
		}
	}
}

// awaitRun consumes the run's reports until the coordinator is done with it.
// The stream only closes once both pollers have returned, so after Wait the
// consumer gets at most limit to drain it; a poller stuck in a device call
// leaves the stream open and the consumer is abandoned.
func awaitRun(ctx context.Context, coord *poller.Coordinator, s *sink, limit time.Duration) error {
	cctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	consumed := make(chan struct{})
	go func() {
		defer close(consumed)
		s.consume(cctx, coord.Reports())
	}()

	err := coord.Wait(ctx)

	t := time.NewTimer(limit)
	defer t.Stop()
	select {
	case <-consumed:
	case <-t.C:
		s.log.Warnf("report stream still open %s after the run ended, abandoning it", limit)
		cancel()
		<-consumed
	}
	return err
}

func (s *sink) handle(ctx context.Context, r poller.Report) {
	switch {
	case r.Batch != nil:
		b := r.Batch
		s.rows += len(b.Rows)
		if s.mon != nil {
			s.mon.ObserveBatch(b)
			s.mon.SetChannelState(b.Current.State)
		}

		var ewe float32
		if n := len(b.Rows); n > 0 {
			ewe = b.Rows[n-1].WorkingPotential()
		}
		if s.tracker.Batch(len(b.Rows), ewe, len(b.Rows) > 0) {
			s.write()
		}
		if len(b.Rows) == 0 {
			return
		}

		p := storage.NewPayload(r.Run, s.channel, s.family, b, r.At)
		if err := s.pub.Publish(ctx, p); err != nil {
			s.log.Warnf("publish batch: %v", err)
		}

	case r.Message != "":
		if s.mon != nil {
			s.mon.ObserveMessage()
		}
		s.log.WithField("source", "instrument").Info(r.Message)
	}
}

// started marks the beginning of a run.
func (s *sink) started(tech eclib.TechniqueID) {
	if s.mon != nil {
		s.mon.SetChannelState(eclib.StateRunning)
	}
	if s.tracker.Started(uint16(eclib.StateRunning), uint16(tech)) {
		s.write()
	}
}

// stopped records a normal end of run.
func (s *sink) stopped() {
	if s.mon != nil {
		s.mon.SetChannelState(eclib.StateStopped)
	}
	if s.tracker.Stopped(uint16(eclib.StateStopped)) {
		s.write()
	}
}

// failed records the single error surfaced by the coordinator and alerts
// the operator.
func (s *sink) failed(err error) {
	if s.mon != nil {
		s.mon.ObserveRunError(err)
		s.mon.SetChannelState(eclib.StateStopped)
	}
	if s.tracker.Failed(int16(eclib.Code(err)), uint16(eclib.StateStopped)) {
		s.write()
	}
	postAlert(s.notify, s.log, fmt.Sprintf("acquisition failed on channel %d: %v", s.channel, err))
}

// postAlert sends msg when alerts are enabled. Delivery failures are logged.
func postAlert(n notify.Notifier, log logrus.FieldLogger, msg string) {
	if n == nil {
		return
	}
	if err := n.Post(context.Background(), msg); err != nil {
		log.Warnf("operator alert not sent: %v", err)
	}
}

// disabled marks the channel disconnected.
func (s *sink) disabled() {
	if s.tracker.Disabled() {
		s.write()
	}
}

func (s *sink) write() {
	if s.status == nil {
		return
	}
	if err := s.status.WriteStatus(s.tracker.Snapshot()); err != nil {
		s.log.Warnf("status write failed: %v", err)
	}
}
