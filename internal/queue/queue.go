// Package queue carries generation jobs over Redis streams.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// StreamJobs receives generation and import jobs.
	StreamJobs = "kineticcore_jobs"
	// StreamResults receives one result per processed job.
	StreamResults = "kineticcore_results"

	// GroupWorkers is the consumer group of `kineticcore worker` processes.
	GroupWorkers = "kineticcore_workers"
)

// DefaultBlock is how long a read waits for a job before returning ErrNoJob.
const DefaultBlock = 5 * time.Second

// ErrNoJob is returned when a read times out without a message.
var ErrNoJob = errors.New("no job available")

// JobKind selects what a worker does with a job.
type JobKind string

const (
	JobGenerate JobKind = "generate"
	JobImport   JobKind = "import"
)

// Job is the payload pushed to StreamJobs.
type Job struct {
	ID        string   `json:"id"`
	Kind      JobKind  `json:"kind"`
	ModelID   string   `json:"model_id"`
	Reactions []string `json:"reactions,omitempty"`
	// SourceModelID names the model laws are imported from.
	SourceModelID string `json:"source_model_id,omitempty"`
	Overwrite     bool   `json:"overwrite,omitempty"`
	AllReactions  bool   `json:"all_reactions,omitempty"`
	// Commit asks the worker to commit the report instead of leaving it pending.
	Commit bool `json:"commit,omitempty"`
}

// Validate checks the fields a worker needs.
func (j Job) Validate() error {
	if strings.TrimSpace(j.ModelID) == "" {
		return fmt.Errorf("job %s: model id required", j.ID)
	}
	switch j.Kind {
	case JobGenerate:
	case JobImport:
		if j.SourceModelID == "" {
			return fmt.Errorf("job %s: import needs a source model", j.ID)
		}
	default:
		return fmt.Errorf("job %s: unknown kind %q", j.ID, j.Kind)
	}
	return nil
}

// Result is the payload pushed to StreamResults.
type Result struct {
	JobID     string `json:"job_id"`
	ReportID  string `json:"report_id,omitempty"`
	Succeeded int    `json:"succeeded"`
	Failed    int    `json:"failed"`
	Committed bool   `json:"committed"`
	Error     string `json:"error,omitempty"`
}

// Client is the subset of *redis.Client the queue uses.
type Client interface {
	XGroupCreateMkStream(ctx context.Context, stream, group, start string) *redis.StatusCmd
	XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd
	XReadGroup(ctx context.Context, a *redis.XReadGroupArgs) *redis.XStreamSliceCmd
	XAck(ctx context.Context, stream, group string, ids ...string) *redis.IntCmd
	XLen(ctx context.Context, stream string) *redis.IntCmd
}

// Queue manages the job and result streams.
type Queue struct {
	client Client
	block  time.Duration
}

// New creates a Queue. A non-positive block uses DefaultBlock.
func New(client Client, block time.Duration) *Queue {
	if block <= 0 {
		block = DefaultBlock
	}
	return &Queue{client: client, block: block}
}

// ConnectRedis creates a Redis client from a URL.
func ConnectRedis(redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	return redis.NewClient(opts), nil
}

// EnsureStreams creates the worker consumer group if it does not exist.
func (q *Queue) EnsureStreams(ctx context.Context) error {
	err := q.client.XGroupCreateMkStream(ctx, StreamJobs, GroupWorkers, "0").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("create group %s on %s: %w", GroupWorkers, StreamJobs, err)
	}
	return nil
}

// PushJob validates and appends a job, returning the stream message id.
func (q *Queue) PushJob(ctx context.Context, job Job) (string, error) {
	if err := job.Validate(); err != nil {
		return "", err
	}
	payload, err := json.Marshal(job)
	if err != nil {
		return "", fmt.Errorf("encode job: %w", err)
	}
	id, err := q.client.XAdd(ctx, &redis.XAddArgs{
		Stream: StreamJobs,
		Values: map[string]any{
			"job_id":   job.ID,
			"kind":     string(job.Kind),
			"model_id": job.ModelID,
			"payload":  string(payload),
		},
	}).Result()
	if err != nil {
		return "", fmt.Errorf("push job: %w", err)
	}
	return id, nil
}

// ReadJob reads one job for consumer, waiting at most the queue's block
// duration.
func (q *Queue) ReadJob(ctx context.Context, consumer string) (Job, string, error) {
	streams, err := q.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    GroupWorkers,
		Consumer: consumer,
		Streams:  []string{StreamJobs, ">"},
		Count:    1,
		Block:    q.block,
	}).Result()
	if errors.Is(err, redis.Nil) {
		return Job{}, "", ErrNoJob
	}
	if err != nil {
		return Job{}, "", fmt.Errorf("read job: %w", err)
	}
	for _, stream := range streams {
		for _, msg := range stream.Messages {
			var job Job
			if err := json.Unmarshal([]byte(getString(msg.Values, "payload")), &job); err != nil {
				return Job{}, msg.ID, fmt.Errorf("decode job %s: %w", msg.ID, err)
			}
			return job, msg.ID, nil
		}
	}
	return Job{}, "", ErrNoJob
}

// AckJob acknowledges a job message.
func (q *Queue) AckJob(ctx context.Context, msgID string) error {
	return q.client.XAck(ctx, StreamJobs, GroupWorkers, msgID).Err()
}

// PushResult appends a job result.
func (q *Queue) PushResult(ctx context.Context, res Result) (string, error) {
	payload, err := json.Marshal(res)
	if err != nil {
		return "", fmt.Errorf("encode result: %w", err)
	}
	id, err := q.client.XAdd(ctx, &redis.XAddArgs{
		Stream: StreamResults,
		Values: map[string]any{
			"job_id":  res.JobID,
			"payload": string(payload),
		},
	}).Result()
	if err != nil {
		return "", fmt.Errorf("push result: %w", err)
	}
	return id, nil
}

// Status returns the lengths of both streams.
func (q *Queue) Status(ctx context.Context) (jobs, results int64, err error) {
	jobs, err = q.client.XLen(ctx, StreamJobs).Result()
	if err != nil {
		return 0, 0, err
	}
	results, err = q.client.XLen(ctx, StreamResults).Result()
	if err != nil {
		return 0, 0, err
	}
	return jobs, results, nil
}

// Handler processes one job.
type Handler func(ctx context.Context, job Job) (Result, error)

// Consume reads jobs until ctx is cancelled. Every job is acknowledged
// after its result is published; a malformed job is acknowledged with an
// error result so it is not redelivered.
func (q *Queue) Consume(ctx context.Context, consumer string, handle Handler) error {
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		job, msgID, err := q.ReadJob(ctx, consumer)
		switch {
		case errors.Is(err, ErrNoJob):
			continue
		case err != nil && msgID == "":
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		res := Result{JobID: job.ID}
		if err == nil {
			err = job.Validate()
		}
		if err == nil {
			res, err = handle(ctx, job)
			res.JobID = job.ID
		}
		if err != nil {
			res.Error = err.Error()
		}
		if _, perr := q.PushResult(ctx, res); perr != nil {
			return perr
		}
		if aerr := q.AckJob(ctx, msgID); aerr != nil {
			return fmt.Errorf("ack %s: %w", msgID, aerr)
		}
	}
}

func getString(values map[string]any, key string) string {
	if v, ok := values[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
