// Package queue distributes segmentation jobs over Redis streams. Producers
// add jobs to a stream; workers read them through a consumer group, ack
// them once the outputs are written, and publish a result message.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"disf-superpixels/internal/models"
)

const payloadField = "data"

var ErrMalformedMessage = errors.New("queue: malformed message")

type Config struct {
	Addr          string
	Password      string
	DB            int
	Stream        string
	Group         string
	ResultsStream string
}

// Delivery is a job read from the stream that still needs to be acked.
type Delivery struct {
	ID  string
	Job *models.Job
	// Err replaces Job for an entry that could not be decoded. The entry
	// stays pending until it is acked like any other.
	Err error
}

type RedisStreams struct {
	client *redis.Client
	cfg    Config
}

// NewRedisStreams connects and pings the server.
func NewRedisStreams(ctx context.Context, cfg Config) (*RedisStreams, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connecting to redis at %s: %w", cfg.Addr, err)
	}
	return &RedisStreams{client: client, cfg: cfg}, nil
}

func (r *RedisStreams) Close() error { return r.client.Close() }

// EnsureGroup creates the consumer group, and the stream with it. An
// existing group is fine.
func (r *RedisStreams) EnsureGroup(ctx context.Context) error {
	err := r.client.XGroupCreateMkStream(ctx, r.cfg.Stream, r.cfg.Group, "0").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("creating group %s on %s: %w", r.cfg.Group, r.cfg.Stream, err)
	}
	return nil
}

func (r *RedisStreams) Enqueue(ctx context.Context, job *models.Job) (string, error) {
	return r.add(ctx, r.cfg.Stream, job)
}

func (r *RedisStreams) PublishResult(ctx context.Context, res *models.JobResult) (string, error) {
	return r.add(ctx, r.cfg.ResultsStream, res)
}

func (r *RedisStreams) add(ctx context.Context, stream string, v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	id, err := r.client.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		Values: map[string]any{payloadField: b},
	}).Result()
	if err != nil {
		return "", fmt.Errorf("adding to %s: %w", stream, err)
	}
	return id, nil
}

// Read blocks up to block for new jobs addressed to consumer. It returns
// no deliveries and no error when the wait times out.
func (r *RedisStreams) Read(ctx context.Context, consumer string, count int64, block time.Duration) ([]Delivery, error) {
	res, err := r.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    r.cfg.Group,
		Consumer: consumer,
		Streams:  []string{r.cfg.Stream, ">"},
		Count:    count,
		Block:    block,
	}).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", r.cfg.Stream, err)
	}

	var out []Delivery
	for _, stream := range res {
		out = append(out, decodeMessages(stream.Messages)...)
	}
	return out, nil
}

func (r *RedisStreams) Ack(ctx context.Context, id string) error {
	return r.client.XAck(ctx, r.cfg.Stream, r.cfg.Group, id).Err()
}

// ClaimStale moves jobs that another consumer left pending for longer
// than minIdle over to consumer.
func (r *RedisStreams) ClaimStale(ctx context.Context, consumer string, minIdle time.Duration, count int64) ([]Delivery, error) {
	msgs, _, err := r.client.XAutoClaim(ctx, &redis.XAutoClaimArgs{
		Stream:   r.cfg.Stream,
		Group:    r.cfg.Group,
		Consumer: consumer,
		MinIdle:  minIdle,
		Start:    "0",
		Count:    count,
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("claiming stale jobs: %w", err)
	}
	return decodeMessages(msgs), nil
}

// decodeMessages turns stream entries into deliveries. A malformed entry
// does not stop the batch; it is handed on with Err set so the consumer can
// ack it.
func decodeMessages(msgs []redis.XMessage) []Delivery {
	out := make([]Delivery, 0, len(msgs))
	for _, msg := range msgs {
		job, err := DecodeJob(msg.Values)
		if err != nil {
			err = fmt.Errorf("message %s: %w", msg.ID, err)
		}
		out = append(out, Delivery{ID: msg.ID, Job: job, Err: err})
	}
	return out
}

// DecodeJob extracts the JSON payload of a stream message.
func DecodeJob(values map[string]any) (*models.Job, error) {
	raw, ok := values[payloadField]
	if !ok {
		return nil, fmt.Errorf("%w: no %q field", ErrMalformedMessage, payloadField)
	}
	var job models.Job
	if err := json.Unmarshal(bytesFromAny(raw), &job); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedMessage, err)
	}
	if job.ID == "" || job.Path == "" {
		return nil, fmt.Errorf("%w: job without id or path", ErrMalformedMessage)
	}
	return &job, nil
}

// Redis hands values back as string or []byte depending on the client
// path.
func bytesFromAny(v any) []byte {
	switch t := v.(type) {
	case string:
		return []byte(t)
	case []byte:
		return t
	default:
		b, _ := json.Marshal(t)
		return b
	}
}
