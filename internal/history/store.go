// Package history persists finished executions. Engines never write here;
// the caller records each result once the engine has returned it.
package history

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	badger "github.com/dgraph-io/badger/v2"
	"github.com/pkg/errors"
	"github.com/vk/testrig/internal/ctxlog"
	"github.com/vk/testrig/internal/model"
)

// ErrNotFound is returned by Get for an unknown run id.
var ErrNotFound = errors.New("run not found")

var (
	runPrefix = []byte("run/")
	seqKey    = []byte("seq/run")
)

// Record is one persisted execution.
type Record struct {
	ID        string                 `json:"id"`
	Name      string                 `json:"name"`
	Type      model.TestType         `json:"type"`
	StartedAt time.Time              `json:"startedAt"`
	Result    *model.ExecutionResult `json:"result"`
}

// Store is a badger-backed execution history.
type Store struct {
	db  *badger.DB
	seq *badger.Sequence
}

// Open opens the store at dirPath. An empty path keeps the history in
// memory for the lifetime of the process.
func Open(ctx context.Context, dirPath string) (*Store, error) {
	var opts badger.Options
	if dirPath == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		opts = badger.DefaultOptions(dirPath).WithSyncWrites(false).WithTruncate(true)
	}
	opts = opts.WithLogger(&badgerLogger{logger: ctxlog.FromContext(ctx).With("component", "history")})

	db, err := badger.Open(opts)
	if err != nil {
		return nil, errors.WithMessage(err, "could not open history db")
	}
	seq, err := db.GetSequence(seqKey, 16)
	if err != nil {
		db.Close()
		return nil, errors.WithMessage(err, "could not allocate run sequence")
	}
	return &Store{db: db, seq: seq}, nil
}

func runKey(n uint64) []byte {
	return []byte(fmt.Sprintf("%s%020d", runPrefix, n))
}

// Put records a finished execution and returns it with its assigned id.
func (s *Store) Put(tc *model.TestCase, startedAt time.Time, result *model.ExecutionResult) (*Record, error) {
	n, err := s.seq.Next()
	if err != nil {
		return nil, errors.WithMessage(err, "could not allocate run id")
	}
	rec := &Record{
		ID:        strconv.FormatUint(n+1, 10),
		Name:      tc.Name,
		Type:      tc.Type,
		StartedAt: startedAt.UTC(),
		Result:    result,
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, errors.Wrapf(err, "could not encode run %s", rec.ID)
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(runKey(n+1), data)
	})
	if err != nil {
		return nil, errors.WithMessagef(err, "could not store run %s", rec.ID)
	}
	return rec, nil
}

// Get returns the run with the given id.
func (s *Store) Get(id string) (*Record, error) {
	n, err := strconv.ParseUint(id, 10, 64)
	if err != nil {
		return nil, errors.Wrapf(ErrNotFound, "invalid run id %q", id)
	}

	var rec Record
	err = s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(runKey(n))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &rec)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, errors.Wrapf(ErrNotFound, "run %s", id)
	}
	if err != nil {
		return nil, errors.WithMessagef(err, "could not read run %s", id)
	}
	return &rec, nil
}

// List returns up to limit runs, newest first. A non-positive limit
// returns every run.
func (s *Store) List(limit int) ([]*Record, error) {
	var records []*Record
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = runPrefix
		it := txn.NewIterator(opts)
		defer it.Close()

		seek := append(append([]byte{}, runPrefix...), 0xff)
		for it.Seek(seek); it.ValidForPrefix(runPrefix); it.Next() {
			if limit > 0 && len(records) >= limit {
				break
			}
			var rec Record
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			})
			if err != nil {
				return errors.Wrapf(err, "corrupt record %s", it.Item().Key())
			}
			records = append(records, &rec)
		}
		return nil
	})
	if err != nil {
		return nil, errors.WithMessage(err, "could not list runs")
	}
	return records, nil
}

// Close releases the sequence and closes the database.
func (s *Store) Close() error {
	if err := s.seq.Release(); err != nil {
		s.db.Close()
		return errors.WithMessage(err, "could not release run sequence")
	}
	return s.db.Close()
}

// badgerLogger routes badger's internal logging to slog. Badger's info
// chatter is demoted to debug.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...any) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...any) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...any) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...any) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}
