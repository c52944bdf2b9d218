package config

import "time"

// Query limits
const (
	// DefaultMaxHops bounds the ring expansion of the grid k-NN search
	DefaultMaxHops = 5
)

// Storage and worker settings
const (
	// DefaultResultTTL defines how long saved query results stay in Redis
	DefaultResultTTL = 24 * time.Hour

	// RedisTimeout bounds every single Redis round trip
	RedisTimeout = 5 * time.Second

	// SnapshotWorkerInterval defines how often changed datasets are saved to PostgreSQL
	SnapshotWorkerInterval = 60 * time.Second

	// SnapshotTimeout bounds a single snapshot run
	SnapshotTimeout = 2 * time.Minute

	// PostgresBatchSize is the number of rows inserted per statement
	PostgresBatchSize = 1000
)
