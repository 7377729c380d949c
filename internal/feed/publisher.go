// Package feed publishes loop status and finished cycles to Redis.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"eve-arbscan/internal/config"
	"eve-arbscan/internal/engine"
	"eve-arbscan/internal/logger"
)

// streamMaxLen bounds the cycle stream via XADD MAXLEN ~.
const streamMaxLen int64 = 1000

// StatusMessage is the Pub/Sub payload for one loop event.
type StatusMessage struct {
	State            string    `json:"state"`
	Cycle            int       `json:"cycle"`
	Message          string    `json:"message"`
	RemainingSeconds int       `json:"remaining_seconds,omitempty"`
	At               time.Time `json:"at"`
}

// Publisher sends status events over Pub/Sub and appends finished cycles to
// a stream. Observe never blocks: events queue up for Run and are dropped
// when the queue is full.
type Publisher struct {
	rdb     *redis.Client
	channel string
	stream  string
	queue   chan StatusMessage
}

// NewPublisher connects to the configured Redis.
func NewPublisher(cfg config.RedisConfig) *Publisher {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return newPublisher(rdb, cfg.Channel, cfg.Stream)
}

func newPublisher(rdb *redis.Client, channel, stream string) *Publisher {
	return &Publisher{
		rdb:     rdb,
		channel: channel,
		stream:  stream,
		queue:   make(chan StatusMessage, 256),
	}
}

// Ping checks the connection.
func (p *Publisher) Ping(ctx context.Context) error {
	if err := p.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis: ping: %w", err)
	}
	return nil
}

// Observe queues a status event for publishing.
func (p *Publisher) Observe(e engine.Event) {
	msg := StatusMessage{
		State:            e.State.String(),
		Cycle:            e.Cycle,
		Message:          e.Message,
		RemainingSeconds: int(e.Remaining / time.Second),
		At:               e.At,
	}
	select {
	case p.queue <- msg:
	default:
	}
}

// Run publishes queued status events until ctx is done.
func (p *Publisher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg := <-p.queue:
			payload, err := json.Marshal(msg)
			if err != nil {
				continue
			}
			if err := p.rdb.Publish(ctx, p.channel, payload).Err(); err != nil && ctx.Err() == nil {
				logger.Debug("FEED", fmt.Sprintf("publish %s: %v", p.channel, err))
			}
		}
	}
}

// HandleCycle appends the finished cycle to the stream.
func (p *Publisher) HandleCycle(ctx context.Context, c *engine.Cycle) error {
	payload, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("redis: marshal cycle: %w", err)
	}
	args := &redis.XAddArgs{
		Stream: p.stream,
		MaxLen: streamMaxLen,
		Approx: true,
		Values: map[string]interface{}{
			"strategy": string(c.Strategy),
			"cycle":    c.Number,
			"payload":  payload,
		},
	}
	if err := p.rdb.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("redis: stream append %s: %w", p.stream, err)
	}
	return nil
}

// Close closes the Redis connection.
func (p *Publisher) Close() error {
	return p.rdb.Close()
}
