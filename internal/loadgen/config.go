// Package loadgen drives a running riskpoll service with random submissions
// and checks that the report moved by exactly what was accepted.
package loadgen

import (
	"errors"
	"time"
)

// Config holds configuration for a load run.
type Config struct {
	BaseURL     string        // Base URL of the service
	Submissions int           // Number of submissions to generate
	Workers     int           // Number of concurrent senders
	Timeout     time.Duration // Per-request HTTP timeout
	OutputFile  string        // Where to dump generated submissions; empty skips it
	Verbose     bool          // Log every failed submission
	MetricsAddr string        // Serve /metrics here during the run; empty skips it
}

// Validate checks the config before a run.
func (c *Config) Validate() error {
	switch {
	case c.BaseURL == "":
		return errors.New("base url must not be empty")
	case c.Submissions < 1:
		return errors.New("submissions must be positive")
	case c.Timeout <= 0:
		return errors.New("timeout must be positive")
	}
	return nil
}

// Stats holds run statistics.
type Stats struct {
	RunID      string
	Backend    string
	Generated  int
	Successful int
	Failed     int
	StartTime  time.Time
	EndTime    time.Time
	Duration   time.Duration
}

// SuccessRate is the share of generated submissions that were accepted, in percent.
func (s *Stats) SuccessRate() float64 {
	if s.Generated == 0 {
		return 0
	}
	return float64(s.Successful) / float64(s.Generated) * percent
}

const percent = 100
