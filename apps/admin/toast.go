package main

import (
	"io"
	"sync"

	"github.com/fatih/color"

	"github.com/lajunglaworkout/jungla-iberica-sub004/core/optimistic"
)

var (
	green = color.New(color.FgGreen)
	red   = color.New(color.FgRed, color.Bold)
)

// toastPrinter shows toasts as colored lines. A terminal has nothing to dismiss.
type toastPrinter struct {
	mu  sync.Mutex
	out io.Writer
}

var _ optimistic.Notifier = (*toastPrinter)(nil)

func (tp *toastPrinter) Show(t optimistic.Toast) {
	tp.mu.Lock()
	defer tp.mu.Unlock()
	switch t.Kind {
	case optimistic.ToastError:
		red.Fprintf(tp.out, "✗ %s\n", t.Message)
	default:
		green.Fprintf(tp.out, "✓ %s\n", t.Message)
	}
}

func (tp *toastPrinter) Dismiss(uint64) {}
