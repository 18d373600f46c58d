// internal/status/snapshot.go
package status

// Snapshot represents exactly what the writer is allowed to deliver.
// It contains no logic and no memory of the past beyond current state.
type Snapshot struct {
	Health         uint16
	LastErrorCode  int16
	SecondsInError uint16
	ChannelState   uint16
	TechniqueID    uint16
	Rows           uint32
	LastEwe        float32
}
