// internal/poller/builder.go
package poller

import (
	"github.com/sirupsen/logrus"

	cfg "github.com/tamzrod/potentiostat-acquirer/internal/config"
)

// Build constructs a Coordinator for one session from the acquisition config.
// No device calls are made until Start.
func Build(s Session, a cfg.AcquisitionConfig, obs Observer, log logrus.FieldLogger) (*Coordinator, error) {
	return NewCoordinator(s, Config{
		MessageInterval: a.MessageInterval(),
		MessageBuffer:   a.MessageBufferBytes,
		DataInterval:    a.DataInterval(),
		StopTimeout:     a.StopTimeout(),
		Observer:        obs,
	}, log)
}
