// internal/storage/publisher.go
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/tamzrod/potentiostat-acquirer/internal/eclib"
	"github.com/tamzrod/potentiostat-acquirer/internal/technique"
)

// Payload is the published form of one decoded batch.
type Payload struct {
	Run         uuid.UUID   `json:"run"`
	Channel     uint8       `json:"channel"`
	Technique   string      `json:"technique"`
	TechniqueID int32       `json:"technique_id"`
	StartTime   float64     `json:"start_time"`
	Columns     []string    `json:"columns"`
	Rows        [][]float64 `json:"rows"`
	Dropped     int         `json:"dropped,omitempty"`
	At          time.Time   `json:"at"`
}

// NewPayload flattens a batch into column-ordered rows.
func NewPayload(run uuid.UUID, channel uint8, f eclib.Family, b *technique.Batch, at time.Time) Payload {
	p := Payload{
		Run:         run,
		Channel:     channel,
		Technique:   b.Infos.TechniqueID.String(),
		TechniqueID: int32(b.Infos.TechniqueID),
		StartTime:   b.Infos.StartTime,
		Rows:        make([][]float64, 0, len(b.Rows)),
		Dropped:     len(b.Dropped),
		At:          at.UTC(),
	}
	if n, ok := technique.ForID(b.Infos.TechniqueID); ok {
		p.Columns = n.Columns(f)
	}
	for _, r := range b.Rows {
		p.Rows = append(p.Rows, r.Values())
	}
	return p
}

// ListKey is the capped backup list of one run.
func ListKey(run uuid.UUID) string {
	return fmt.Sprintf("acquirer:%s:data", run)
}

// Publisher delivers payloads somewhere durable.
type Publisher interface {
	Publish(ctx context.Context, p Payload) error
	Close() error
}

// Discard is the Publisher used when publishing is disabled.
type Discard struct{}

func (Discard) Publish(context.Context, Payload) error { return nil }
func (Discard) Close() error                           { return nil }

// MessageQueue publishes payloads on a Redis pub/sub channel and keeps the
// newest listMax of each run in a list.
type MessageQueue struct {
	client  *redis.Client
	channel string
	listMax int64
	log     logrus.FieldLogger
}

type Config struct {
	Addr     string
	Password string
	DB       int
	Channel  string
	ListMax  int64
}

func NewMessageQueue(ctx context.Context, cfg Config, log logrus.FieldLogger) (*MessageQueue, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("storage: connect redis %s: %w", cfg.Addr, err)
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	log.Infof("redis connected: %s channel=%s", cfg.Addr, cfg.Channel)

	return &MessageQueue{
		client:  client,
		channel: cfg.Channel,
		listMax: cfg.ListMax,
		log:     log,
	}, nil
}

// Publish sends p to the channel. The list backup is best effort.
func (mq *MessageQueue) Publish(ctx context.Context, p Payload) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("storage: marshal payload: %w", err)
	}

	if err := mq.client.Publish(ctx, mq.channel, data).Err(); err != nil {
		return fmt.Errorf("storage: publish: %w", err)
	}

	if mq.listMax <= 0 {
		return nil
	}
	key := ListKey(p.Run)
	pipe := mq.client.Pipeline()
	pipe.LPush(ctx, key, data)
	pipe.LTrim(ctx, key, 0, mq.listMax-1)
	if _, err := pipe.Exec(ctx); err != nil {
		mq.log.Warnf("storage: list backup %s: %v", key, err)
	}
	return nil
}

func (mq *MessageQueue) Close() error {
	return mq.client.Close()
}
