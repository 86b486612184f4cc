// Copyright (c) 2026 Mangetsu. All rights reserved.
// Author: dev@mangetsu.app

/*
Package constants provides centralized, immutable values for the entire platform.

It defines default timeouts, rate limits, upload limits, and cross-cutting keys
that are shared between different layers of the system.

Categories:

  - Server Timing: Read/Write/Idle timeouts for the HTTP server.
  - Rate Limiting: Burst capacities and IP tracking TTLs.
  - Publication: Archive and page-image limits for chapter uploads.
  - Jobs: Queue keys and retry policy for the background worker pool.

Using this package ensures magic strings and magic numbers are eliminated
from the business logic.
*/
package constants

import "time"

// # Metadata

const (
	AppName    = "mangetsu-api"
	AppVersion = "0.1.0-dev"
)

// # Server Timing

const (
	// DefaultReadTimeout is the maximum duration for reading the entire request.
	DefaultReadTimeout = 5 * time.Second

	// DefaultWriteTimeout is the maximum duration before timing out writes of the response.
	DefaultWriteTimeout = 10 * time.Second

	// DefaultIdleTimeout is the maximum amount of time to wait for the next request.
	DefaultIdleTimeout = 120 * time.Second

	// DefaultReadHeaderTimeout is the amount of time allowed to read request headers.
	DefaultReadHeaderTimeout = 2 * time.Second

	// GlobalRequestTimeout is the deadline for the entire request lifecycle.
	GlobalRequestTimeout = 30 * time.Second

	// ShutdownTimeout is how long we wait for in-flight requests to complete during shutdown.
	ShutdownTimeout = 30 * time.Second
)

// # HTTP Headers

const (
	HeaderXRequestID    = "X-Request-ID"
	HeaderXRealIP       = "X-Real-IP"
	HeaderXForwardedFor = "X-Forwarded-For"
	HeaderOrigin        = "Origin"
)

// # Rate Limiting

const (
	// DefaultRateLimitRPS is the requests per second allowed per IP.
	DefaultRateLimitRPS = 100.0

	// DefaultRateLimitBurst is the maximum burst allowed for the rate limiter.
	DefaultRateLimitBurst = 150

	// RateLimitCleanupInterval is how often old IP entries are removed from memory.
	RateLimitCleanupInterval = 1 * time.Minute

	// RateLimitClientTTL is how long a client must be idle before its entry is deleted.
	RateLimitClientTTL = 3 * time.Minute
)

// # Chapter Publication

const (
	// MaxArchiveBytes is the upper bound for an uploaded chapter archive.
	MaxArchiveBytes = 256 << 20

	// MaxPageImageBytes is the decompressed size limit for a single page image.
	MaxPageImageBytes = 10 << 20

	// ArchiveStashFolder is the blob folder holding archives awaiting processing.
	ArchiveStashFolder = "archives"
)

// AllowedPageExtensions lists the page image extensions accepted inside an archive.
var AllowedPageExtensions = []string{"png", "jpg", "jpeg"}

// # Authentication

const (
	// AuthIssuer is the expected 'iss' claim in JWTs.
	AuthIssuer = "mangetsu.app"
)

// # JSON Field Identifiers

const (
	FieldData    = "data"
	FieldMeta    = "meta"
	FieldError   = "error"
	FieldCode    = "code"
	FieldDetails = "details"
	FieldMessage = "message"
	FieldStatus  = "status"
	FieldApp     = "app"
	FieldVersion = "version"
	FieldChecks  = "checks"
)

// # Database Schemas

const (
	SchemaCatalog = "catalog"
	SchemaSocial  = "social"
	SchemaUsers   = "users"
)

// # Background Jobs (Redis Taxonomy)

const (
	// JobsReadyKey is the Redis list holding jobs that are ready to run.
	JobsReadyKey = "jobs:ready"

	// JobsDelayedKey is the Redis sorted set holding jobs scheduled for later.
	JobsDelayedKey = "jobs:delayed"

	// JobsProcessingKey is the Redis list holding jobs a worker has claimed
	// but not yet finished; leftovers are requeued on startup.
	JobsProcessingKey = "jobs:processing"

	// JobsMaxAttempts is the number of delivery attempts before a job is dropped.
	JobsMaxAttempts = 5

	// JobsRetryBaseDelay is the base for the exponential retry backoff.
	JobsRetryBaseDelay = 10 * time.Second

	// JobsPollInterval is how often the delayed set is promoted to the ready list.
	JobsPollInterval = 1 * time.Second
)
