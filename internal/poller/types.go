// internal/poller/types.go
package poller

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tamzrod/potentiostat-acquirer/internal/eclib"
	"github.com/tamzrod/potentiostat-acquirer/internal/technique"
)

// Poller names, used in reports, logs and metrics.
const (
	MessagePollerName = "message"
	DataPollerName    = "data"
)

// Session is the channel handle both pollers and the coordinator share.
// *channel.Session satisfies it.
type Session interface {
	Device() eclib.Device
	ID() eclib.ConnID
	Channel() uint8
	Family() eclib.Family
	Connected() bool

	// Stop and Disconnect are only ever called by the coordinator.
	Stop()
	Disconnect()
}

// Report is one unit of poller output.
// Exactly one of Message or Batch is set.
type Report struct {
	Run    uuid.UUID
	Poller string
	At     time.Time

	Message string
	Batch   *technique.Batch
}

// Observer receives per-call timings. Implementations must be cheap.
type Observer interface {
	ObservePoll(poller string, d time.Duration, err error)
}

type nopObserver struct{}

func (nopObserver) ObservePoll(string, time.Duration, error) {}

// TimeoutError is returned when a poller does not signal completion
// within the bounded wait.
type TimeoutError struct {
	Poller string
	After  time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("poller: %s poller did not stop within %s", e.Poller, e.After)
}
