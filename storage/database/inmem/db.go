// Package inmemdb is an in-memory persistence gateway. It enforces the same keys and
// foreign keys as the Postgres schema, so it can stand in for it in tests and demos.
package inmemdb

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lajunglaworkout/jungla-iberica-sub004/core"
	"github.com/lajunglaworkout/jungla-iberica-sub004/core/academy"
	"github.com/lajunglaworkout/jungla-iberica-sub004/core/calendar"
	"github.com/lajunglaworkout/jungla-iberica-sub004/core/task"
	"github.com/lajunglaworkout/jungla-iberica-sub004/core/user"
)

type DB struct {
	mu sync.RWMutex
	// txMu is held for the length of a unit of work. Writes outside it wait for it.
	txMu sync.Mutex

	modules       map[string]academy.Module
	lessons       map[string]academy.Lesson
	blocks        map[string]academy.Block
	downloadables map[string]academy.Downloadable
	tasks         map[string]task.Task
	contentItems  map[string]calendar.ContentItem
	events        map[string]calendar.Event
	users         map[string]user.User

	// test hooks
	calls    []string
	failures map[string][]error
	onCall   func(op string)

	NowFunc func() time.Time
}

func Open() *DB {
	return &DB{
		modules:       make(map[string]academy.Module),
		lessons:       make(map[string]academy.Lesson),
		blocks:        make(map[string]academy.Block),
		downloadables: make(map[string]academy.Downloadable),
		tasks:         make(map[string]task.Task),
		contentItems:  make(map[string]calendar.ContentItem),
		events:        make(map[string]calendar.Event),
		users:         make(map[string]user.User),
		failures:      make(map[string][]error),
		NowFunc:       time.Now,
	}
}

// FailNext makes the next calls of op (eg. "UpdateBlock") fail with the given errors, one per call.
func (db *DB) FailNext(op string, errs ...error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.failures[op] = append(db.failures[op], errs...)
}

// OnCall registers a func called (outside the lock) at the start of every operation.
func (db *DB) OnCall(fn func(op string)) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.onCall = fn
}

// Calls returns the operations called so far, in order.
func (db *DB) Calls() []string {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return append([]string(nil), db.calls...)
}

func (db *DB) ResetCalls() {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.calls = nil
}

// begin records op and returns its armed failure, if any. It takes the read or write lock;
// the returned func releases it. Writes wait for a running unit of work to finish.
func (db *DB) begin(op string, write bool) (func(), error) {
	return db.enter(op, write, write)
}

// enter is begin for a caller that may already run inside a unit of work (serial false).
func (db *DB) enter(op string, write, serial bool) (func(), error) {
	db.mu.Lock()
	db.calls = append(db.calls, op)
	hook := db.onCall
	var err error
	if errs := db.failures[op]; len(errs) > 0 {
		err, db.failures[op] = errs[0], errs[1:]
	}
	db.mu.Unlock()

	if hook != nil {
		hook(op)
	}
	if err != nil {
		return func() {}, err
	}
	if serial {
		db.txMu.Lock()
	}
	if write {
		db.mu.Lock()
		return func() {
			db.mu.Unlock()
			if serial {
				db.txMu.Unlock()
			}
		}, nil
	}
	db.mu.RLock()
	return func() {
		db.mu.RUnlock()
		if serial {
			db.txMu.Unlock()
		}
	}, nil
}

// snapshot is a unit of work: Rollback puts back the academy and task tables as they were when
// it was taken.
type snapshot struct {
	db            *DB
	modules       map[string]academy.Module
	lessons       map[string]academy.Lesson
	blocks        map[string]academy.Block
	downloadables map[string]academy.Downloadable
	tasks         map[string]task.Task
}

var _ core.DBTransactor = (*snapshot)(nil)

// beginTx records op, takes txMu and snapshots the tables. Commit or Rollback releases txMu.
func (db *DB) beginTx(op string) (*snapshot, error) {
	done, err := db.begin(op, false)
	done()
	if err != nil {
		return nil, err
	}

	db.txMu.Lock()
	db.mu.RLock()
	defer db.mu.RUnlock()
	return &snapshot{
		db:            db,
		modules:       copyMap(db.modules),
		lessons:       copyMap(db.lessons),
		blocks:        copyMap(db.blocks),
		downloadables: copyMap(db.downloadables),
		tasks:         copyMap(db.tasks),
	}, nil
}

func (s *snapshot) Commit() error {
	s.db.txMu.Unlock()
	return nil
}

func (s *snapshot) Rollback() error {
	defer s.db.txMu.Unlock()
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	s.db.modules, s.db.lessons, s.db.blocks = s.modules, s.lessons, s.blocks
	s.db.downloadables, s.db.tasks = s.downloadables, s.tasks
	return nil
}

func copyMap[K comparable, V any](m map[K]V) map[K]V {
	cp := make(map[K]V, len(m))
	for k, v := range m {
		cp[k] = v
	}
	return cp
}

func (db *DB) now() time.Time {
	return db.NowFunc().UTC()
}

func newID() string {
	return uuid.NewString()
}

func notFound(op, entity, id string) error {
	return core.NewStoreError(core.StoreNotFound, op, fmt.Errorf("%s %s not found", entity, id))
}

func constraint(op, format string, args ...interface{}) error {
	return core.NewStoreError(core.StoreConstraint, op, fmt.Errorf(format, args...))
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
