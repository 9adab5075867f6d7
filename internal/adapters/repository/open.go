package repository

import (
	"context"
	"fmt"

	"github.com/okian/riskpoll/pkg/logger"
	"github.com/okian/riskpoll/pkg/metrics"
)

// Options selects and configures a backend for Open.
type Options struct {
	// Backend is one of file, mongo, badger. Empty means auto: mongo when
	// Mongo.URI is set and reachable, otherwise the file store.
	Backend  string
	DataFile string
	Mongo    MongoConfig
	Badger   BadgerConfig
	Logger   logger.Logger
}

// Open constructs the configured store.
func Open(ctx context.Context, opts Options) (Store, error) {
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}

	var (
		st  Store
		err error
	)
	switch opts.Backend {
	case BackendFile:
		st, err = NewFileStore(opts.DataFile)
	case BackendMongo:
		st, err = NewMongoStore(ctx, opts.Mongo)
	case BackendBadger:
		st, err = NewBadgerStore(opts.Badger)
	case "":
		st, err = openAuto(ctx, opts, log)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, opts.Backend)
	}
	if err != nil {
		return nil, err
	}

	metrics.SetStoreBackend(st.Backend())
	log.Info(ctx, "store opened", logger.String("backend", st.Backend()))
	return st, nil
}

func openAuto(ctx context.Context, opts Options, log logger.Logger) (Store, error) {
	if opts.Mongo.URI != "" {
		st, err := NewMongoStore(ctx, opts.Mongo)
		if err == nil {
			return st, nil
		}
		log.Warn(ctx, "mongo unavailable, falling back to file store",
			logger.Error(err), logger.String("data_file", opts.DataFile))
	}
	return NewFileStore(opts.DataFile)
}
