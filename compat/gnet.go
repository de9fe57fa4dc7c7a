// FILE: compat/gnet.go
package compat

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/panjf2000/gnet/v2/pkg/logging"

	"github.com/lixenwraith/auditfile"
)

// GnetAdapter implements gnet's logging.Logger and offers every message
// to an auditfile.Interceptor first. Connection and disconnection
// messages are captured into the audit spool (subject to the
// interceptor's configuration); everything else, and anything the
// interceptor declines or fails to record, goes to the fallback printer.
type GnetAdapter struct {
	it           *auditfile.Interceptor
	mu           sync.Mutex // gnet logs from multiple goroutines; the worker is single-owner
	worker       *auditfile.Worker
	ctx          auditfile.SessionContext
	fallback     func(level, msg string)
	fatalHandler func(msg string)
}

var _ logging.Logger = (*GnetAdapter)(nil)

// NewGnetAdapter creates a new gnet-compatible logger adapter
func NewGnetAdapter(it *auditfile.Interceptor, opts ...GnetOption) *GnetAdapter {
	adapter := &GnetAdapter{
		it:     it,
		worker: it.NewWorker(),
		ctx: auditfile.SessionContext{
			PID:          os.Getpid(),
			SessionStart: time.Now(),
			ProcessTitle: "gnet",
		},
		fallback: func(level, msg string) {
			fmt.Fprintf(os.Stderr, "%s %s\n", level, msg)
		},
		fatalHandler: func(msg string) {
			os.Exit(1) // Default behavior matches gnet expectations
		},
	}

	for _, opt := range opts {
		opt(adapter)
	}

	return adapter
}

// GnetOption allows customizing adapter behavior
type GnetOption func(*GnetAdapter)

// WithFatalHandler sets a custom fatal handler
func WithFatalHandler(handler func(string)) GnetOption {
	return func(a *GnetAdapter) {
		a.fatalHandler = handler
	}
}

// WithFallback sets the printer for messages the interceptor does not capture
func WithFallback(fn func(level, msg string)) GnetOption {
	return func(a *GnetAdapter) {
		a.fallback = fn
	}
}

// WithApplicationName sets the application name recorded with captured events
func WithApplicationName(name string) GnetOption {
	return func(a *GnetAdapter) {
		a.ctx.ApplicationName = name
	}
}

// offer routes one message through the interceptor, falling back to the
// plain printer when it is not captured
func (a *GnetAdapter) offer(level, msg string) {
	ev := &auditfile.Event{Message: msg, OutputToServer: true}

	a.mu.Lock()
	a.worker.Emit(ev, &a.ctx)
	a.mu.Unlock()

	if ev.OutputToServer && a.fallback != nil {
		a.fallback(level, msg)
	}
}

// Debugf logs at debug level with printf-style formatting
func (a *GnetAdapter) Debugf(format string, args ...any) {
	a.offer("DEBUG", fmt.Sprintf(format, args...))
}

// Infof logs at info level with printf-style formatting
func (a *GnetAdapter) Infof(format string, args ...any) {
	a.offer("INFO", fmt.Sprintf(format, args...))
}

// Warnf logs at warn level with printf-style formatting
func (a *GnetAdapter) Warnf(format string, args ...any) {
	a.offer("WARN", fmt.Sprintf(format, args...))
}

// Errorf logs at error level with printf-style formatting
func (a *GnetAdapter) Errorf(format string, args ...any) {
	a.offer("ERROR", fmt.Sprintf(format, args...))
}

// Fatalf logs at error level and triggers the fatal handler
func (a *GnetAdapter) Fatalf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	a.offer("FATAL", msg)

	// Release the spool buffer before exit
	a.mu.Lock()
	a.worker.Close()
	a.mu.Unlock()

	if a.fatalHandler != nil {
		a.fatalHandler(msg)
	}
}
