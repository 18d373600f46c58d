// internal/status/tracker.go
package status

// Tracker owns the live snapshot of one channel. Each transition reports
// whether the snapshot changed and needs delivery.
// Not safe for concurrent use: the report consumer loop owns it.
type Tracker struct {
	snap Snapshot
}

// NewTracker starts in HealthUnknown with everything zeroed.
func NewTracker() *Tracker {
	return &Tracker{snap: Snapshot{Health: HealthUnknown}}
}

func (t *Tracker) Snapshot() Snapshot { return t.snap }

func (t *Tracker) set(next Snapshot) bool {
	if next == t.snap {
		return false
	}
	t.snap = next
	return true
}

// Started marks a new run: healthy, running, counters reset.
func (t *Tracker) Started(channelState, techniqueID uint16) bool {
	next := t.snap
	next.Health = HealthOK
	next.LastErrorCode = 0
	next.SecondsInError = 0
	next.ChannelState = channelState
	next.TechniqueID = techniqueID
	next.Rows = 0
	return t.set(next)
}

// Batch accounts decoded rows. A batch is proof of health: any previous
// error is cleared.
func (t *Tracker) Batch(rows int, lastEwe float32, haveEwe bool) bool {
	next := t.snap
	next.Health = HealthOK
	next.LastErrorCode = 0
	next.SecondsInError = 0
	if rows > 0 {
		next.Rows += uint32(rows)
	}
	if haveEwe {
		next.LastEwe = lastEwe
	}
	return t.set(next)
}

// Stopped records the channel state after a normal stop.
func (t *Tracker) Stopped(channelState uint16) bool {
	next := t.snap
	next.ChannelState = channelState
	return t.set(next)
}

// Failed records a surfaced device error. seconds_in_error starts counting
// on the next Tick.
func (t *Tracker) Failed(code int16, channelState uint16) bool {
	next := t.snap
	next.Health = HealthError
	next.LastErrorCode = code
	next.ChannelState = channelState
	return t.set(next)
}

// Disabled marks the channel as disconnected.
func (t *Tracker) Disabled() bool {
	next := t.snap
	next.Health = HealthDisabled
	return t.set(next)
}

// Tick advances seconds_in_error while in error. It saturates and never wraps.
func (t *Tracker) Tick() bool {
	if t.snap.Health != HealthError || t.snap.SecondsInError >= MaxSecondsInError {
		return false
	}
	t.snap.SecondsInError++
	return true
}
