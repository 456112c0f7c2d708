// Package optimistic applies local state changes ahead of their remote persistence
// and rolls them back when the remote call fails.
package optimistic

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"

	"github.com/lajunglaworkout/jungla-iberica-sub004/core"
)

// DefaultToastDuration is how long a toast stays up when no duration is configured.
const DefaultToastDuration = 3 * time.Second

// Mutation describes one optimistic change.
// Apply and Revert must only touch local state; Remote persists the change.
type Mutation struct {
	Entity string // metrics label, eg. "lesson"
	Key    string // serialization key, eg. "lesson:<id>"; defaults to Entity

	Apply  func()
	Remote func(ctx context.Context) error
	// Commit runs after a successful Remote, eg. to swap a placeholder id for the stored one.
	Commit func()
	Revert func()

	Success string // success toast; none when empty
}

// Outcome is the settled result of a Mutation.
type Outcome struct {
	Err     error
	Message string // user facing, empty on success
}

func (o Outcome) OK() bool { return o.Err == nil }

type Controller struct {
	locker        Locker
	notifier      Notifier
	logger        core.Logger
	metrics       *Metrics
	toastDuration time.Duration
	toastSeq      uint64
}

// NewController builds a Controller. Nil collaborators fall back to an in-process lock,
// no toasts, no logging and no metrics.
func NewController(locker Locker, notifier Notifier, logger core.Logger, metrics *Metrics, toastDuration time.Duration) *Controller {
	if locker == nil {
		locker = NewKeyedMutex()
	}
	if notifier == nil {
		notifier = nopNotifier{}
	}
	if logger == nil {
		logger = core.NopLogger{}
	}
	if toastDuration <= 0 {
		toastDuration = DefaultToastDuration
	}
	return &Controller{
		locker:        locker,
		notifier:      notifier,
		logger:        logger,
		metrics:       metrics,
		toastDuration: toastDuration,
	}
}

// Perform runs m under the lock of m.Key: Apply, then Remote; Commit on success, Revert on failure.
// It never retries. Mutations on the same key are serialized, from Apply until Commit/Revert returned.
func (ctrl *Controller) Perform(ctx context.Context, m Mutation) Outcome {
	if m.Remote == nil {
		return Outcome{Err: errors.New("optimistic: mutation without remote call")}
	}
	key := m.Key
	if key == "" {
		key = m.Entity
	}

	unlock, err := ctrl.locker.Lock(ctx, key)
	if err != nil {
		err = core.NewStoreError(core.StoreTransient, "lock "+key, err)
		ctrl.metrics.observe(m.Entity, OutcomeRejected, 0)
		ctrl.logger.Warn(fmt.Sprintf("optimistic: locking %s: %v", key, err), err)
		return ctrl.fail(err)
	}
	defer unlock()

	if m.Apply != nil {
		m.Apply()
	}

	start := time.Now()
	err = m.Remote(ctx)
	elapsed := time.Since(start).Seconds()

	if err != nil {
		if m.Revert != nil {
			m.Revert()
		}
		ctrl.metrics.observe(m.Entity, OutcomeReverted, elapsed)
		ctrl.log(key, err)
		return ctrl.fail(err)
	}

	if m.Commit != nil {
		m.Commit()
	}
	ctrl.metrics.observe(m.Entity, OutcomeSuccess, elapsed)
	if m.Success != "" {
		ctrl.toast(ToastSuccess, m.Success)
	}
	return Outcome{}
}

// Reject reports an error raised before any local change, eg. a validation error.
func (ctrl *Controller) Reject(entity string, err error) Outcome {
	ctrl.metrics.observe(entity, OutcomeRejected, 0)
	return ctrl.fail(err)
}

func (ctrl *Controller) fail(err error) Outcome {
	msg := core.UserMessage(err)
	ctrl.toast(ToastError, msg)
	return Outcome{Err: err, Message: msg}
}

func (ctrl *Controller) log(key string, err error) {
	code := core.StoreCode(err)
	if code == core.StoreTransient || (code == "" && !core.IsUserError(err)) {
		ctrl.logger.Error(fmt.Sprintf("optimistic: %s reverted: %v", key, err), err)
		return
	}
	ctrl.logger.Info(fmt.Sprintf("optimistic: %s reverted: %v", key, err))
}

// toast shows a toast and dismisses it once the toast duration elapsed. It never blocks.
func (ctrl *Controller) toast(kind ToastKind, msg string) {
	t := Toast{
		ID:        atomic.AddUint64(&ctrl.toastSeq, 1),
		Kind:      kind,
		Message:   msg,
		CreatedAt: time.Now().UTC(),
	}
	ctrl.notifier.Show(t)
	time.AfterFunc(ctrl.toastDuration, func() { ctrl.notifier.Dismiss(t.ID) })
}
