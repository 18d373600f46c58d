// internal/poller/poller.go
package poller

import (
	"bytes"
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/tamzrod/potentiostat-acquirer/internal/eclib"
	"github.com/tamzrod/potentiostat-acquirer/internal/technique"
)

const (
	DefaultMessageInterval = 100 * time.Millisecond
	DefaultMessageBuffer   = 512
)

// ---- MESSAGE POLLER ----

// MessagePoller drains instrument log messages for one channel.
type MessagePoller struct {
	sess     Session
	interval time.Duration
	bufSize  int
	log      logrus.FieldLogger
	obs      Observer
}

func NewMessagePoller(s Session, interval time.Duration, bufSize int, log logrus.FieldLogger, obs Observer) *MessagePoller {
	if interval <= 0 {
		interval = DefaultMessageInterval
	}
	if bufSize <= 1 {
		bufSize = DefaultMessageBuffer
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	if obs == nil {
		obs = nopObserver{}
	}
	return &MessagePoller{
		sess:     s,
		interval: interval,
		bufSize:  bufSize,
		log:      log.WithField("poller", MessagePollerName),
		obs:      obs,
	}
}

// Run loops until ctx is cancelled or the device reports an error.
// Cancellation is not an error. Nothing is sent on out after cancellation.
func (p *MessagePoller) Run(ctx context.Context, run uuid.UUID, out chan<- Report) error {
	dev := p.sess.Device()

	for {
		if ctx.Err() != nil {
			return nil
		}

		buf := make([]byte, p.bufSize)
		started := time.Now()
		n, err := dev.GetMessage(p.sess.ID(), p.sess.Channel(), buf)
		p.obs.ObservePoll(MessagePollerName, time.Since(started), err)
		if err != nil {
			return err
		}

		if msg := messageText(buf, n); msg != "" {
			if !emit(ctx, out, Report{Run: run, Poller: MessagePollerName, At: time.Now(), Message: msg}) {
				return nil
			}
			// drain queued messages back to back; sleep only when idle
			continue
		}

		if !sleep(ctx, p.interval) {
			return nil
		}
	}
}

// messageText cuts the NUL-terminated text out of buf.
func messageText(buf []byte, n int) string {
	if n < 0 || n > len(buf) {
		n = len(buf)
	}
	b := buf[:n]
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(bytes.TrimRight(b, "\r\n"))
}

// ---- DATA POLLER ----

// DataPoller fetches and decodes measurement batches for one channel.
type DataPoller struct {
	sess     Session
	interval time.Duration
	log      logrus.FieldLogger
	obs      Observer
}

func NewDataPoller(s Session, interval time.Duration, log logrus.FieldLogger, obs Observer) *DataPoller {
	if interval < 0 {
		interval = 0
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	if obs == nil {
		obs = nopObserver{}
	}
	return &DataPoller{
		sess:     s,
		interval: interval,
		log:      log.WithField("poller", DataPollerName),
		obs:      obs,
	}
}

// Run loops until ctx is cancelled, the channel leaves Running, or the
// device reports an error. Only the device error is returned.
func (p *DataPoller) Run(ctx context.Context, run uuid.UUID, out chan<- Report) error {
	dev := p.sess.Device()
	family := p.sess.Family()

	for {
		if ctx.Err() != nil {
			return nil
		}

		// fresh buffer per poll
		buf := new(eclib.RawBuffer)

		started := time.Now()
		infos, cv, err := dev.GetData(p.sess.ID(), p.sess.Channel(), buf)
		p.obs.ObservePoll(DataPollerName, time.Since(started), err)
		if err != nil {
			return err
		}

		if infos.Rows > 0 && infos.Cols > 0 {
			batch := technique.DecodeBatch(family, buf[:], infos, cv, dev)
			for _, d := range batch.Dropped {
				p.log.Warnf("row dropped: %v", d)
			}
			if !emit(ctx, out, Report{Run: run, Poller: DataPollerName, At: time.Now(), Batch: &batch}) {
				return nil
			}
		}

		if cv.State != eclib.StateRunning {
			p.log.WithField("state", cv.State.String()).Info("run completed")
			return nil
		}

		if p.interval > 0 && !sleep(ctx, p.interval) {
			return nil
		}
	}
}

// ---- helpers ----

// emit delivers r unless ctx is cancelled first.
func emit(ctx context.Context, out chan<- Report, r Report) bool {
	if ctx.Err() != nil {
		return false
	}
	select {
	case out <- r:
		return true
	case <-ctx.Done():
		return false
	}
}

// sleep waits d or until ctx is cancelled; false means cancelled.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
