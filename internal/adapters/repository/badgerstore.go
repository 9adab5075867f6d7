package repository

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/okian/riskpoll/internal/domain/model"
	"github.com/okian/riskpoll/pkg/logger"
)

const (
	badgerRecordPrefix  = "submission/"
	badgerSequenceKey   = "meta/submission-seq"
	badgerSeqBandwidth  = 100
	badgerDirPermission = 0o750
)

var _ Store = (*BadgerStore)(nil)

// BadgerConfig configures the embedded store.
type BadgerConfig struct {
	// Path is the database directory. Ignored when InMemory is true.
	Path string

	// InMemory keeps everything in RAM; used by tests.
	InMemory bool

	// SyncWrites fsyncs every commit.
	SyncWrites bool

	// Logger receives badger's internal logs. Nil disables them.
	Logger logger.Logger
}

// badgerEntry is the value stored per submission.
type badgerEntry struct {
	RiskPercentage string       `json:"riskPercentage"`
	Gender         model.Gender `json:"gender"`
	Age            float64      `json:"age"`
	CreatedAt      time.Time    `json:"createdAt"`
}

// badgerLogger adapts logger.Logger to badger's Logger interface.
type badgerLogger struct {
	l logger.Logger
}

func (b *badgerLogger) Errorf(format string, args ...interface{}) {
	b.l.Error(context.Background(), fmt.Sprintf(format, args...))
}

func (b *badgerLogger) Warningf(format string, args ...interface{}) {
	b.l.Warn(context.Background(), fmt.Sprintf(format, args...))
}

func (b *badgerLogger) Infof(format string, args ...interface{}) {
	b.l.Info(context.Background(), fmt.Sprintf(format, args...))
}

func (b *badgerLogger) Debugf(format string, args ...interface{}) {
	b.l.Debug(context.Background(), fmt.Sprintf(format, args...))
}

// BadgerStore keeps one key per submission. Keys carry a monotonic sequence
// number so a prefix scan returns submissions in insertion order.
type BadgerStore struct {
	db  *badger.DB
	seq *badger.Sequence
	now func() time.Time
}

// NewBadgerStore opens (or creates) the database described by cfg.
func NewBadgerStore(cfg BadgerConfig) (*BadgerStore, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("badger path must not be empty")
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, badgerDirPermission); err != nil {
			return nil, unavailable("create badger directory", err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithSyncWrites(cfg.SyncWrites).WithNumVersionsToKeep(1)
	if cfg.Logger != nil {
		opts = opts.WithLogger(&badgerLogger{l: cfg.Logger.Named("badger")})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, unavailable("badger open", err)
	}
	seq, err := db.GetSequence([]byte(badgerSequenceKey), badgerSeqBandwidth)
	if err != nil {
		_ = db.Close()
		return nil, unavailable("badger sequence", err)
	}
	return &BadgerStore{db: db, seq: seq, now: time.Now}, nil
}

// Backend implements Store.
func (s *BadgerStore) Backend() string { return BackendBadger }

// Append implements Store.
func (s *BadgerStore) Append(ctx context.Context, risk string, rec model.Record) (err error) {
	defer func(start time.Time) { observe(BackendBadger, "append", start, err) }(time.Now())
	if err := ctx.Err(); err != nil {
		return unavailable("badger append", err)
	}

	n, err := s.seq.Next()
	if err != nil {
		return unavailable("badger sequence", err)
	}
	val, err := json.Marshal(badgerEntry{
		RiskPercentage: risk,
		Gender:         rec.Gender,
		Age:            rec.Age,
		CreatedAt:      s.now().UTC(),
	})
	if err != nil {
		return unavailable("badger encode", err)
	}
	if err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(recordKey(n), val)
	}); err != nil {
		return unavailable("badger update", err)
	}
	return nil
}

// LoadAll implements Store.
func (s *BadgerStore) LoadAll(ctx context.Context) (groups model.Groups, err error) {
	defer func(start time.Time) { observe(BackendBadger, "load_all", start, err) }(time.Now())
	if err := ctx.Err(); err != nil {
		return nil, unavailable("badger load all", err)
	}

	b := model.NewGroupsBuilder()
	prefix := []byte(badgerRecordPrefix)
	err = s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var e badgerEntry
			if err := it.Item().Value(func(v []byte) error {
				return json.Unmarshal(v, &e)
			}); err != nil {
				return fmt.Errorf("decode %s: %w", it.Item().Key(), err)
			}
			b.Add(e.RiskPercentage, model.Record{Gender: e.Gender, Age: e.Age})
		}
		return nil
	})
	if err != nil {
		return nil, unavailable("badger view", err)
	}
	return b.Groups(), nil
}

// Close implements Store.
func (s *BadgerStore) Close() error {
	return errors.Join(s.seq.Release(), s.db.Close())
}

func recordKey(n uint64) []byte {
	key := make([]byte, len(badgerRecordPrefix)+8)
	copy(key, badgerRecordPrefix)
	binary.BigEndian.PutUint64(key[len(badgerRecordPrefix):], n)
	return key
}
