package optimistic

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lajunglaworkout/jungla-iberica-sub004/core"
)

// counter reads dashboard_mutations_total{entity,outcome} from reg.
func counter(t *testing.T, reg *prometheus.Registry, entity, outcome string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, fam := range families {
		if fam.GetName() != "dashboard_mutations_total" {
			continue
		}
		for _, m := range fam.GetMetric() {
			labels := map[string]string{}
			for _, lp := range m.GetLabel() {
				labels[lp.GetName()] = lp.GetValue()
			}
			if labels["entity"] == entity && labels["outcome"] == outcome {
				return m.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func TestController_Perform(t *testing.T) {
	reg := prometheus.NewRegistry()
	board := &ToastBoard{}
	ctrl := NewController(nil, board, nil, NewMetrics(reg), time.Hour)

	t.Run("success", func(t *testing.T) {
		var steps []string
		out := ctrl.Perform(context.Background(), Mutation{
			Entity:  "lesson",
			Apply:   func() { steps = append(steps, "apply") },
			Remote:  func(context.Context) error { steps = append(steps, "remote"); return nil },
			Commit:  func() { steps = append(steps, "commit") },
			Revert:  func() { steps = append(steps, "revert") },
			Success: "Lección creada",
		})
		require.True(t, out.OK())
		assert.Empty(t, out.Message)
		assert.Equal(t, []string{"apply", "remote", "commit"}, steps)

		toasts := board.Active()
		require.Len(t, toasts, 1)
		assert.Equal(t, ToastSuccess, toasts[0].Kind)
		assert.Equal(t, "Lección creada", toasts[0].Message)
		assert.Equal(t, 1.0, counter(t, reg, "lesson", OutcomeSuccess))
	})

	t.Run("rollback", func(t *testing.T) {
		state := "old"
		out := ctrl.Perform(context.Background(), Mutation{
			Entity: "block",
			Key:    "block:1",
			Apply:  func() { state = "new" },
			Remote: func(context.Context) error {
				assert.Equal(t, "new", state)
				return core.NewStoreError(core.StoreTransient, "UpdateBlock", errors.New("connection reset"))
			},
			Commit: func() { t.Error("commit after a failed remote") },
			Revert: func() { state = "old" },
		})
		require.False(t, out.OK())
		assert.Equal(t, "old", state)
		assert.Equal(t, "Error de conexión, inténtalo de nuevo", out.Message)
		assert.Equal(t, core.StoreTransient, core.StoreCode(out.Err))

		toasts := board.Active()
		require.Len(t, toasts, 2)
		assert.Equal(t, ToastError, toasts[1].Kind)
		assert.Equal(t, out.Message, toasts[1].Message)
		assert.Equal(t, 1.0, counter(t, reg, "block", OutcomeReverted))
	})

	t.Run("reject", func(t *testing.T) {
		out := ctrl.Reject("task", core.NewValidationError(errors.New("bad"), core.FieldError{Field: "title", Error: "this field cannot be blank"}))
		assert.Equal(t, "Datos no válidos: title this field cannot be blank", out.Message)
		assert.Equal(t, 1.0, counter(t, reg, "task", OutcomeRejected))
	})

	t.Run("no remote", func(t *testing.T) {
		out := ctrl.Perform(context.Background(), Mutation{Entity: "task"})
		assert.Error(t, out.Err)
	})
}

func TestController_toastDismissed(t *testing.T) {
	board := &ToastBoard{}
	ctrl := NewController(nil, board, nil, nil, 10*time.Millisecond)

	out := ctrl.Perform(context.Background(), Mutation{
		Entity:  "event",
		Remote:  func(context.Context) error { return nil },
		Success: "Evento programado",
	})
	require.True(t, out.OK())
	require.Len(t, board.Active(), 1)
	assert.Eventually(t, func() bool { return len(board.Active()) == 0 }, time.Second, 5*time.Millisecond)
}

func TestController_serializesPerKey(t *testing.T) {
	ctrl := NewController(nil, nil, nil, nil, 0)
	const n = 20

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		inFlight = map[string]int{}
		maxSeen  = map[string]int{}
	)
	for i := 0; i < n; i++ {
		key := "lesson:a"
		if i%2 == 1 {
			key = "lesson:b"
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			ctrl.Perform(context.Background(), Mutation{
				Entity: "lesson",
				Key:    key,
				Apply: func() {
					mu.Lock()
					inFlight[key]++
					if inFlight[key] > maxSeen[key] {
						maxSeen[key] = inFlight[key]
					}
					mu.Unlock()
				},
				Remote: func(context.Context) error { time.Sleep(time.Millisecond); return nil },
				Commit: func() {
					mu.Lock()
					inFlight[key]--
					mu.Unlock()
				},
			})
		}()
	}
	wg.Wait()
	assert.Equal(t, map[string]int{"lesson:a": 1, "lesson:b": 1}, maxSeen)
}

type failingLocker struct{}

func (failingLocker) Lock(context.Context, string) (func(), error) {
	return nil, errors.New("redis: connection refused")
}

func TestController_lockFailure(t *testing.T) {
	ctrl := NewController(failingLocker{}, nil, nil, nil, 0)
	applied := false
	out := ctrl.Perform(context.Background(), Mutation{
		Entity: "task",
		Apply:  func() { applied = true },
		Remote: func(context.Context) error { return nil },
	})
	assert.False(t, applied)
	assert.Equal(t, core.StoreTransient, core.StoreCode(out.Err))
}

func TestKeyedMutex(t *testing.T) {
	km := NewKeyedMutex()
	unlock, err := km.Lock(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, 1, km.Len())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = km.Lock(ctx, "a")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	other, err := km.Lock(context.Background(), "b")
	require.NoError(t, err)
	assert.Equal(t, 2, km.Len())

	unlock()
	unlock() // idempotent
	other()
	assert.Equal(t, 0, km.Len())
}
