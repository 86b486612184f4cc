// Copyright (c) 2026 Mangetsu. All rights reserved.
// Author: dev@mangetsu.app

package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mangetsu/mangetsu/internal/platform/constants"
	"github.com/mangetsu/mangetsu/pkg/uuid"
)

// # Redis-backed Queue

// Queue is a Redis-backed job queue with delayed scheduling and retries.
//
// # Storage Layout
//
//   - constants.JobsReadyKey: LIST of serialized [Job] envelopes awaiting a
//     worker.
//   - constants.JobsProcessingKey: LIST of envelopes a worker has claimed
//     with BLMOVE but not yet acknowledged with LREM.
//   - constants.JobsDelayedKey: ZSET of serialized envelopes scored by their
//     due unix timestamp; a promoter goroutine moves due members to the list.
//
// Claiming moves the envelope to the processing list rather than popping it,
// so a crash mid-job leaves the envelope behind; [Queue.Start] requeues such
// leftovers, giving at-least-once delivery. Handlers must therefore be
// idempotent.
type Queue struct {
	client   *redis.Client
	logger   *slog.Logger
	handlers map[Name]Handler

	mu sync.RWMutex
}

// NewQueue constructs an empty queue bound to the given Redis client.
func NewQueue(client *redis.Client, logger *slog.Logger) *Queue {
	return &Queue{
		client:   client,
		logger:   logger,
		handlers: make(map[Name]Handler),
	}
}

// Register binds a handler to a job name. Registering twice panics: that is
// always a wiring bug in main.
func (queue *Queue) Register(name Name, handler Handler) {
	queue.mu.Lock()
	defer queue.mu.Unlock()

	if _, exists := queue.handlers[name]; exists {
		panic(fmt.Sprintf("jobs: handler for %q registered twice", name))
	}
	queue.handlers[name] = handler
}

// # Enqueueing

// Enqueue serializes the args and schedules the job. It implements [Dispatcher].
func (queue *Queue) Enqueue(ctx context.Context, name Name, args any, delay time.Duration) error {
	rawArgs, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("jobs: failed to marshal args for %s: %w", name, err)
	}

	job := Job{
		ID:         uuid.New(),
		Name:       name,
		Args:       rawArgs,
		Attempt:    1,
		EnqueuedAt: time.Now().UTC(),
	}

	if err := queue.push(ctx, job, delay); err != nil {
		return err
	}

	queue.logger.Info("job_enqueued",
		slog.String("job_id", job.ID),
		slog.String("job_name", string(name)),
		slog.Duration("delay", delay),
	)
	return nil
}

// push places a serialized envelope on the ready list or the delayed set.
func (queue *Queue) push(ctx context.Context, job Job, delay time.Duration) error {
	envelope, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("jobs: failed to marshal job envelope: %w", err)
	}

	if delay <= 0 {
		if err := queue.client.LPush(ctx, constants.JobsReadyKey, envelope).Err(); err != nil {
			return fmt.Errorf("jobs: failed to push job: %w", err)
		}
		return nil
	}

	dueAt := float64(time.Now().Add(delay).Unix())
	if err := queue.client.ZAdd(ctx, constants.JobsDelayedKey, redis.Z{Score: dueAt, Member: envelope}).Err(); err != nil {
		return fmt.Errorf("jobs: failed to schedule delayed job: %w", err)
	}
	return nil
}

// # Worker Pool

// Start requeues deliveries a previous run left unacknowledged, then
// launches the promoter goroutine and workerCount worker goroutines.
// It returns immediately; workers stop when ctx is cancelled.
func (queue *Queue) Start(ctx context.Context, workerCount int) {
	queue.recoverClaimed(ctx)

	go queue.promoteLoop(ctx)

	for workerIndex := 0; workerIndex < workerCount; workerIndex++ {
		go queue.workLoop(ctx, workerIndex)
	}

	queue.logger.Info("job_workers_started", slog.Int("workers", workerCount))
}

// recoverClaimed drains the processing list back onto the ready list. It runs
// before any worker starts, so nothing in the list can belong to a live claim.
func (queue *Queue) recoverClaimed(ctx context.Context) {
	recovered := 0
	for {
		_, err := queue.client.LMove(ctx, constants.JobsProcessingKey, constants.JobsReadyKey, "RIGHT", "LEFT").Result()
		if errors.Is(err, redis.Nil) {
			break
		}
		if err != nil {
			queue.logger.Error("job_recovery_failed", slog.Any("error", err))
			break
		}
		recovered++
	}
	if recovered > 0 {
		queue.logger.Warn("job_deliveries_recovered", slog.Int("jobs", recovered))
	}
}

// promoteLoop moves due members of the delayed set onto the ready list.
func (queue *Queue) promoteLoop(ctx context.Context) {
	ticker := time.NewTicker(constants.JobsPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			queue.promoteDue(ctx)
		}
	}
}

// promoteDue atomically pops every due delayed job and pushes it to the ready list.
func (queue *Queue) promoteDue(ctx context.Context) {
	now := strconv.FormatInt(time.Now().Unix(), 10)

	due, err := queue.client.ZRangeByScore(ctx, constants.JobsDelayedKey, &redis.ZRangeBy{
		Min: "-inf",
		Max: now,
	}).Result()
	if err != nil || len(due) == 0 {
		return
	}

	pipe := queue.client.TxPipeline()
	for _, envelope := range due {
		pipe.ZRem(ctx, constants.JobsDelayedKey, envelope)
		pipe.LPush(ctx, constants.JobsReadyKey, envelope)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		queue.logger.Error("job_promotion_failed", slog.Any("error", err))
	}
}

// workLoop claims envelopes off the ready list and dispatches them to
// handlers. The claim is acknowledged with LREM only after the handler
// returns; retries push a fresh envelope, so the claimed one is always
// removed.
func (queue *Queue) workLoop(ctx context.Context, workerIndex int) {
	workerLogger := queue.logger.With(slog.Int("worker", workerIndex))

	for {
		if ctx.Err() != nil {
			return
		}

		// Bounded blocking move so shutdown is observed within a second.
		envelope, err := queue.client.BLMove(ctx, constants.JobsReadyKey, constants.JobsProcessingKey, "RIGHT", "LEFT", time.Second).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) || ctx.Err() != nil {
				continue
			}
			workerLogger.Error("job_claim_failed", slog.Any("error", err))
			continue
		}

		var job Job
		if err := json.Unmarshal([]byte(envelope), &job); err != nil {
			workerLogger.Error("job_envelope_invalid", slog.Any("error", err))
		} else {
			queue.execute(ctx, workerLogger, job)
		}

		if err := queue.client.LRem(ctx, constants.JobsProcessingKey, 1, envelope).Err(); err != nil {
			workerLogger.Error("job_ack_failed", slog.Any("error", err))
		}
	}
}

// execute runs one job and applies the retry policy on failure.
func (queue *Queue) execute(ctx context.Context, workerLogger *slog.Logger, job Job) {
	queue.mu.RLock()
	handler, registered := queue.handlers[job.Name]
	queue.mu.RUnlock()

	jobLogger := workerLogger.With(
		slog.String("job_id", job.ID),
		slog.String("job_name", string(job.Name)),
		slog.Int("attempt", job.Attempt),
	)

	if !registered {
		jobLogger.Error("job_handler_missing")
		return
	}

	startTime := time.Now()
	err := handler(ctx, job.Args)
	if err == nil {
		jobLogger.Info("job_finished", slog.Int64("latency_ms", time.Since(startTime).Milliseconds()))
		return
	}

	if job.Attempt >= constants.JobsMaxAttempts {
		jobLogger.Error("job_dropped_after_max_attempts", slog.Any("error", err))
		return
	}

	// Transient failure: reschedule with exponential backoff.
	retry := job
	retry.Attempt++
	delay := RetryDelay(retry.Attempt)

	if pushErr := queue.push(ctx, retry, delay); pushErr != nil {
		jobLogger.Error("job_retry_push_failed", slog.Any("error", pushErr))
		return
	}

	jobLogger.Warn("job_retry_scheduled",
		slog.Any("error", err),
		slog.Duration("delay", delay),
	)
}

// RetryDelay computes the exponential backoff for a given attempt number.
//
// Attempt 2 (first retry) waits the base delay, each further attempt doubles it.
func RetryDelay(attempt int) time.Duration {
	if attempt <= 2 {
		return constants.JobsRetryBaseDelay
	}

	delay := constants.JobsRetryBaseDelay
	for i := 2; i < attempt; i++ {
		delay *= 2
	}
	return delay
}
