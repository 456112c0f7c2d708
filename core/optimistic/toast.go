package optimistic

import (
	"sync"
	"time"
)

type ToastKind string

const (
	ToastSuccess ToastKind = "success"
	ToastError   ToastKind = "error"
)

// Toast is a transient notification shown after a mutation settles.
type Toast struct {
	ID        uint64    `json:"id"`
	Kind      ToastKind `json:"kind"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// Notifier displays toasts. Dismiss is called once the toast duration elapsed.
type Notifier interface {
	Show(t Toast)
	Dismiss(id uint64)
}

// ToastBoard keeps the toasts currently displayed.
type ToastBoard struct {
	mu     sync.Mutex
	toasts []Toast
}

var _ Notifier = (*ToastBoard)(nil)

func (tb *ToastBoard) Show(t Toast) {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	tb.toasts = append(tb.toasts, t)
}

func (tb *ToastBoard) Dismiss(id uint64) {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	for i, t := range tb.toasts {
		if t.ID == id {
			tb.toasts = append(tb.toasts[:i], tb.toasts[i+1:]...)
			return
		}
	}
}

// Active returns a copy of the displayed toasts, oldest first.
func (tb *ToastBoard) Active() []Toast {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	return append([]Toast(nil), tb.toasts...)
}

type nopNotifier struct{}

func (nopNotifier) Show(Toast)     {}
func (nopNotifier) Dismiss(uint64) {}
