// Package worker drains the submission queue into a Sink with a pool of
// goroutines.
package worker

import (
	"github.com/okian/riskpoll/pkg/logger"
)

// Option applies a configuration option to the InMemoryWorker.
type Option func(*InMemoryWorker)

// WithName sets the worker name for identification and logging.
func WithName(name string) Option {
	return func(w *InMemoryWorker) {
		if name != "" {
			w.name = name
		}
	}
}

// WithLogger sets a custom logger for the worker.
func WithLogger(l logger.Logger) Option {
	return func(w *InMemoryWorker) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithObserver registers a callback invoked after every job.
func WithObserver(fn Observer) Option {
	return func(w *InMemoryWorker) {
		if fn != nil {
			w.observer = fn
		}
	}
}

// PoolOption configures a Pool.
type PoolOption func(*Pool)

// WithPoolLogger sets the logger shared by the pool and its workers.
func WithPoolLogger(l logger.Logger) PoolOption {
	return func(p *Pool) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithPoolObserver registers a callback invoked after every job. It may be
// called from several goroutines at once.
func WithPoolObserver(fn Observer) PoolOption {
	return func(p *Pool) {
		if fn != nil {
			p.observer = fn
		}
	}
}
