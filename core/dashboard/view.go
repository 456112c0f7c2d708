// Package dashboard holds the view controllers of the dashboard screens.
// Each controller owns its local cache; actions go through the optimistic controller.
package dashboard

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/lajunglaworkout/jungla-iberica-sub004/core"
	"github.com/lajunglaworkout/jungla-iberica-sub004/core/optimistic"
)

const placeholderPrefix = "tmp-"

// newPlaceholderID returns a local id for a row the gateway has not created yet.
func newPlaceholderID() string {
	return placeholderPrefix + uuid.NewString()
}

// IsPlaceholder reports whether id is a local id awaiting the stored one.
func IsPlaceholder(id string) bool {
	return strings.HasPrefix(id, placeholderPrefix)
}

// view is the state shared by all controllers: cache mutex, loading flag and mount state.
type view struct {
	mu      sync.RWMutex
	sync    *optimistic.Controller
	logger  core.Logger
	loading int32
	closed  int32
}

func (v *view) init(ctrl *optimistic.Controller, logger core.Logger) {
	if logger == nil {
		logger = core.NopLogger{}
	}
	v.sync = ctrl
	v.logger = logger
}

// Loading reports whether a Load is in progress.
func (v *view) Loading() bool { return atomic.LoadInt32(&v.loading) > 0 }

// Close unmounts the view. Outcomes settling afterwards leave the cache untouched.
func (v *view) Close() { atomic.StoreInt32(&v.closed, 1) }

func (v *view) Closed() bool { return atomic.LoadInt32(&v.closed) == 1 }

// load runs fetch with the loading flag raised, then store under the cache lock unless the view was closed.
func (v *view) load(ctx context.Context, fetch func(ctx context.Context) error, store func()) error {
	atomic.AddInt32(&v.loading, 1)
	defer atomic.AddInt32(&v.loading, -1)

	if err := fetch(ctx); err != nil {
		return err
	}
	v.guard(store)()
	return nil
}

// guard wraps fn so it runs under the cache lock, and not at all once the view is closed.
func (v *view) guard(fn func()) func() {
	if fn == nil {
		return nil
	}
	return func() {
		v.mu.Lock()
		defer v.mu.Unlock()
		if v.Closed() {
			return
		}
		fn()
	}
}

// perform runs m with its local callbacks guarded. On a not-found outcome, reload refreshes the parent list.
func (v *view) perform(ctx context.Context, m optimistic.Mutation, reload func(context.Context) error) optimistic.Outcome {
	m.Apply = v.guard(m.Apply)
	m.Commit = v.guard(m.Commit)
	m.Revert = v.guard(m.Revert)
	out := v.sync.Perform(ctx, m)
	if core.IsNotFound(out.Err) && reload != nil && !v.Closed() {
		if err := reload(ctx); err != nil {
			v.logger.Warn(fmt.Sprintf("dashboard: reloading after %s: %v", m.Key, err), err)
		}
	}
	return out
}

func (v *view) reject(entity string, err error) optimistic.Outcome {
	return v.sync.Reject(entity, err)
}

func indexOf(n int, match func(i int) bool) int {
	for i := 0; i < n; i++ {
		if match(i) {
			return i
		}
	}
	return -1
}
