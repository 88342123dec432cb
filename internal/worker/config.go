// Package worker runs the endpoint watchdog for movielocations.
package worker

import (
	"time"
)

// Job types accepted on the Pub/Sub subscription.
const (
	JobTypeVerifyEndpoint = "verify_endpoint"
	JobTypeHealthCheck    = "health_check"
)

// VerifyJobConfig holds configuration for the endpoint watchdog.
type VerifyJobConfig struct {
	// Interval between scheduled runs.
	// Default: 5 minutes
	Interval time.Duration

	// Timeout bounds a single run, both canary queries included.
	// Default: 30 seconds
	Timeout time.Duration
}

// DefaultVerifyJobConfig returns the default watchdog configuration.
func DefaultVerifyJobConfig() VerifyJobConfig {
	return VerifyJobConfig{
		Interval: 5 * time.Minute,
		Timeout:  30 * time.Second,
	}
}

func (c VerifyJobConfig) withDefaults() VerifyJobConfig {
	def := DefaultVerifyJobConfig()
	if c.Interval <= 0 {
		c.Interval = def.Interval
	}
	if c.Timeout <= 0 {
		c.Timeout = def.Timeout
	}
	return c
}
