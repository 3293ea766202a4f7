package config

import "time"

const (
	// Payout address sanity check
	MinAddressLength = 5

	// Request id generation
	RequestIDAttempts = 10

	// Telegram limits
	MaxTelegramMessageLen = 4096

	// Link probe
	LinkProbeTimeout = 10 * time.Second

	// Dashboard shutdown grace period
	ShutdownTimeout = 5 * time.Second

	// Event log send timeout
	EventLogTimeout = 10 * time.Second
)
