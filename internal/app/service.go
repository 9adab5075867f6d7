// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/riskpoll/internal/adapters/repository"
	"github.com/okian/riskpoll/internal/domain/model"
	"github.com/okian/riskpoll/internal/domain/report"
	"github.com/okian/riskpoll/pkg/logger"
	"github.com/okian/riskpoll/pkg/metrics"
)

// Service implements the API dependencies for the survey.
type Service struct {
	mu sync.RWMutex

	// Core components
	store     repository.Store
	storeOpts repository.Options
	builder   *report.Builder

	// State
	started   bool
	startedAt time.Time

	// Counters
	accepted      atomic.Int64
	rejected      atomic.Int64
	storeFailures atomic.Int64
	reports       atomic.Int64

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithStore uses an already opened store. The service takes ownership and
// closes it on Stop.
func WithStore(st repository.Store) Option {
	return func(s *Service) {
		if st != nil {
			s.store = st
		}
	}
}

// WithStoreOptions makes Start open a store via repository.Open. Ignored
// when WithStore is also given.
func WithStoreOptions(opts repository.Options) Option {
	return func(s *Service) {
		s.storeOpts = opts
	}
}

// WithReportBuilder sets the builder used for reports.
func WithReportBuilder(b *report.Builder) Option {
	return func(s *Service) {
		if b != nil {
			s.builder = b
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		builder: report.NewBuilder(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start opens the store if needed and marks the service ready.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting survey service...")

	if s.store == nil {
		if s.storeOpts.Backend == "" && s.storeOpts.DataFile == "" && s.storeOpts.Mongo.URI == "" {
			return ErrNoStore
		}
		if s.storeOpts.Logger == nil {
			s.storeOpts.Logger = s.logger.Named("repository")
		}
		st, err := repository.Open(ctx, s.storeOpts)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		s.store = st
	}

	s.started = true
	s.startedAt = time.Now()
	s.logger.Info(ctx, "survey service started",
		logger.String("backend", s.store.Backend()),
		logger.Int("brackets", len(s.builder.Brackets())),
	)

	return nil
}

// Stop gracefully shuts down the service and closes the store.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.logger.Info(context.Background(), "stopping survey service...")

	if s.store != nil {
		if err := s.store.Close(); err != nil {
			s.logger.Error(context.Background(), "failed to close store", logger.Error(err))
		}
		s.store = nil
	}

	s.started = false
	s.logger.Info(context.Background(), "survey service stopped")
}

// currentStore returns the store if the service is running.
func (s *Service) currentStore() (repository.Store, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started || s.store == nil {
		return nil, ErrNotStarted
	}
	return s.store, nil
}

// Submit appends one validated submission to its risk group.
func (s *Service) Submit(ctx context.Context, sub model.Submission) error {
	st, err := s.currentStore()
	if err != nil {
		return err
	}

	if err := st.Append(ctx, sub.RiskPercentage, sub.Record()); err != nil {
		s.storeFailures.Add(1)
		metrics.RecordSubmissionRejected("store")
		s.logger.Error(ctx, "failed to store submission",
			logger.String("riskPercentage", sub.RiskPercentage),
			logger.Error(err),
		)
		return err
	}

	s.accepted.Add(1)
	metrics.RecordSubmissionAccepted()
	s.logger.Debug(ctx, "submission stored",
		logger.String("riskPercentage", sub.RiskPercentage),
		logger.String("gender", string(sub.Gender)),
		logger.Float64("age", sub.Age),
	)
	return nil
}

// Reject counts a submission that failed validation. Nothing is stored.
func (s *Service) Reject(ctx context.Context, err error) {
	s.rejected.Add(1)
	metrics.RecordSubmissionRejected("validation")
	if s.logger != nil {
		s.logger.Warn(ctx, "submission rejected", logger.Error(err))
	}
}

// Report loads every group and aggregates it. Nothing is cached; each call
// reflects the store as of the read.
func (s *Service) Report(ctx context.Context) (report.Report, error) {
	st, err := s.currentStore()
	if err != nil {
		return report.Report{}, err
	}

	start := time.Now()
	groups, err := st.LoadAll(ctx)
	if err != nil {
		s.logger.Error(ctx, "failed to load submissions", logger.Error(err))
		return report.Report{}, err
	}
	r := s.builder.Build(groups)

	s.reports.Add(1)
	metrics.RecordReportGenerated(len(r.Rows), r.TotalRecords, float64(time.Since(start).Microseconds())/1000)
	return r, nil
}

// Backend names the active store, or "" before Start.
func (s *Service) Backend() string {
	st, err := s.currentStore()
	if err != nil {
		return ""
	}
	return st.Backend()
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":          s.started,
		"acceptedTotal":    s.accepted.Load(),
		"rejectedTotal":    s.rejected.Load(),
		"storeFailures":    s.storeFailures.Load(),
		"reportsGenerated": s.reports.Load(),
	}

	if s.started {
		stats["backend"] = s.store.Backend()
		stats["uptimeSeconds"] = int64(time.Since(s.startedAt).Seconds())
	}

	return stats
}
