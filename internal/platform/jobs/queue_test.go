// Copyright (c) 2026 Mangetsu. All rights reserved.
// Author: dev@mangetsu.app

package jobs

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mangetsu/mangetsu/internal/platform/constants"
)

// newTestQueue backs a queue with an in-process Redis.
func newTestQueue(t *testing.T) (*Queue, *miniredis.Miniredis) {
	t.Helper()

	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { client.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewQueue(client, logger), server
}

func TestRetryDelay(t *testing.T) {
	base := constants.JobsRetryBaseDelay

	testCases := []struct {
		name     string
		attempt  int
		expected time.Duration
	}{
		{name: "first retry", attempt: 2, expected: base},
		{name: "second retry", attempt: 3, expected: 2 * base},
		{name: "third retry", attempt: 4, expected: 4 * base},
		{name: "fourth retry", attempt: 5, expected: 8 * base},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			assert.Equal(t, testCase.expected, RetryDelay(testCase.attempt))
		})
	}
}

func TestRegister_DuplicatePanics(t *testing.T) {
	noop := func(ctx context.Context, args json.RawMessage) error { return nil }

	queue := &Queue{handlers: make(map[Name]Handler)}
	queue.Register(ChapterPublish, noop)

	assert.Panics(t, func() {
		queue.Register(ChapterPublish, noop)
	})
}

// # Delivery Guarantees

func TestWorkLoop_AcknowledgesAfterHandling(t *testing.T) {
	queue, server := newTestQueue(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	handled := make(chan json.RawMessage, 1)
	queue.Register(ChapterPublish, func(ctx context.Context, args json.RawMessage) error {
		handled <- args
		return nil
	})

	require.NoError(t, queue.Enqueue(ctx, ChapterPublish, ChapterPublishArgs{ChapterID: "chapter"}, 0))
	queue.Start(ctx, 1)

	select {
	case <-handled:
	case <-time.After(5 * time.Second):
		t.Fatal("job was never handled")
	}

	// The claim must leave the processing list once the handler returns.
	assert.Eventually(t, func() bool {
		return !server.Exists(constants.JobsReadyKey) && !server.Exists(constants.JobsProcessingKey)
	}, 5*time.Second, 10*time.Millisecond)
}

func TestStart_RequeuesAbandonedClaims(t *testing.T) {
	queue, server := newTestQueue(t)

	// A previous run claimed this envelope and died before acknowledging it.
	job := Job{ID: "job-1", Name: ChapterPublish, Attempt: 1, EnqueuedAt: time.Now().UTC()}
	envelope, err := json.Marshal(job)
	require.NoError(t, err)
	_, err = server.Lpush(constants.JobsProcessingKey, string(envelope))
	require.NoError(t, err)

	queue.recoverClaimed(context.Background())

	ready, err := server.List(constants.JobsReadyKey)
	require.NoError(t, err)
	require.Len(t, ready, 1)
	assert.JSONEq(t, string(envelope), ready[0])
	assert.False(t, server.Exists(constants.JobsProcessingKey))
}

func TestWorkLoop_FailedJobIsRescheduledNotLost(t *testing.T) {
	queue, server := newTestQueue(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	attempts := make(chan int, constants.JobsMaxAttempts)
	queue.Register(ChapterPublish, func(ctx context.Context, args json.RawMessage) error {
		attempts <- 1
		return context.DeadlineExceeded
	})

	require.NoError(t, queue.Enqueue(ctx, ChapterPublish, ChapterPublishArgs{ChapterID: "chapter"}, 0))
	queue.Start(ctx, 1)

	select {
	case <-attempts:
	case <-time.After(5 * time.Second):
		t.Fatal("job was never attempted")
	}

	// The failed delivery must land on the delayed set as attempt two, with
	// nothing stuck on the ready or processing lists.
	assert.Eventually(t, func() bool {
		members, err := server.ZMembers(constants.JobsDelayedKey)
		return err == nil && len(members) == 1
	}, 5*time.Second, 10*time.Millisecond)
	assert.Eventually(t, func() bool {
		return !server.Exists(constants.JobsReadyKey) && !server.Exists(constants.JobsProcessingKey)
	}, 5*time.Second, 10*time.Millisecond)

	members, err := server.ZMembers(constants.JobsDelayedKey)
	require.NoError(t, err)
	var retried Job
	require.NoError(t, json.Unmarshal([]byte(members[0]), &retried))
	assert.Equal(t, 2, retried.Attempt)
}
