// Package repository defines the survey store interface and its backends.
package repository

import (
	"context"
	"time"

	"github.com/okian/riskpoll/internal/domain/model"
	"github.com/okian/riskpoll/pkg/metrics"
)

// Backend names accepted by Open.
const (
	BackendFile   = "file"
	BackendMongo  = "mongo"
	BackendBadger = "badger"
)

// Store is the read/write contract shared by ingestion and reporting.
type Store interface {
	// Append durably adds rec to the group keyed by risk.
	Append(ctx context.Context, risk string, rec model.Record) error

	// LoadAll returns every group in store key order.
	LoadAll(ctx context.Context) (model.Groups, error)

	// Backend names the implementation, e.g. "file".
	Backend() string

	// Close releases the underlying handle.
	Close() error
}

// observe records the outcome of one store call.
func observe(backend, op string, start time.Time, err error) {
	metrics.RecordStoreOperation(backend, op, err, float64(time.Since(start).Microseconds())/1000)
	if err != nil {
		metrics.RecordErrorByComponent("repository", backend+"_"+op)
	}
}
