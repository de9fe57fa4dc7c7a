// FILE: intercept.go
package auditfile

import (
	"fmt"
	"os"
	"strings"
	"sync/atomic"

	"github.com/davecgh/go-spew/spew"
)

// ServerLogger is the host's default logging pipeline, the collaborator
// that receives this subsystem's own diagnostics (open failures, short
// writes). *logrus.Logger and *logrus.Entry satisfy it directly; see
// compat for a ready-made adapter.
type ServerLogger interface {
	Warnf(format string, args ...any)
	Debugf(format string, args ...any)
}

// Interceptor ties the rotation protocol together: the current
// configuration, the one piece of cross-worker shared state, and the
// diagnostic channel. Workers are created from it and own everything
// else.
type Interceptor struct {
	currentConfig atomic.Value // stores *Config
	rotation      RotationState
	server        atomic.Value // stores serverHolder
	stats         counters
}

// serverHolder keeps atomic.Value stores consistently typed across
// different ServerLogger implementations
type serverHolder struct {
	sl ServerLogger
}

// New creates an Interceptor with default settings. The defaults leave
// the subsystem disabled until a directory is configured; every event
// passes through untouched in that mode.
func New() *Interceptor {
	it := &Interceptor{}
	it.currentConfig.Store(DefaultConfig())
	it.server.Store(serverHolder{sl: &stderrLogger{it: it}})
	return it
}

// ApplyConfig applies a validated configuration to the interceptor.
// Changes to the directory, filename pattern, or rotation interval raise
// the shared force-rotation flag so every worker re-derives its target on
// its next write.
func (it *Interceptor) ApplyConfig(cfg *Config) error {
	if cfg == nil {
		return fmtErrorf("configuration cannot be nil")
	}

	if err := cfg.Validate(); err != nil {
		return fmtErrorf("invalid configuration: %w", err)
	}

	cfg = cfg.Clone()
	old := it.getConfig()
	it.currentConfig.Store(cfg)

	if cfg.requiresRotation(old) {
		it.rotation.RequestRotation()
	}

	return nil
}

// GetConfig returns a copy of current configuration
func (it *Interceptor) GetConfig() *Config {
	return it.getConfig().Clone()
}

// getConfig returns the current configuration (thread-safe)
func (it *Interceptor) getConfig() *Config {
	return it.currentConfig.Load().(*Config)
}

// SetServerLogger routes this subsystem's diagnostics to the host's
// logger instead of stderr.
func (it *Interceptor) SetServerLogger(sl ServerLogger) {
	if sl == nil {
		return
	}
	it.server.Store(serverHolder{sl: sl})
}

// RequestRotation raises the shared force-rotation flag out of band.
// Configuration changes do this automatically; exposing it lets hosts
// tie rotation to their own reload signals.
func (it *Interceptor) RequestRotation() {
	it.rotation.RequestRotation()
}

// Stats returns a snapshot of interceptor activity across all workers.
func (it *Interceptor) Stats() Stats {
	return Stats{
		RecordsWritten: it.stats.RecordsWritten.Load(),
		Rotations:      it.stats.Rotations.Load(),
		Fallbacks:      it.stats.Fallbacks.Load(),
		OpenFailures:   it.stats.OpenFailures.Load(),
	}
}

// intercepts decides whether a message belongs to the audit stream,
// returning the number of leading characters to strip (-1 when the event
// is not captured). The audit marker is stripped; connection phrases are
// recorded whole.
func (it *Interceptor) intercepts(cfg *Config, msg string) int {
	if hasPrefixFold(msg, AuditPrefix) {
		return len(AuditPrefix)
	}
	if cfg.LogConnections {
		for _, p := range connectionPrefixes {
			if hasPrefixFold(msg, p) {
				return 0
			}
		}
	}
	if cfg.LogDisconnections {
		for _, p := range disconnectionPrefixes {
			if hasPrefixFold(msg, p) {
				return 0
			}
		}
	}
	return -1
}

// warnf reports a recording failure through the server logger
func (it *Interceptor) warnf(format string, args ...any) {
	if h, ok := it.server.Load().(serverHolder); ok && h.sl != nil {
		h.sl.Warnf(format, args...)
	}
}

// debugDump emits a verbose dump of the event that could not be
// recorded, for the host's debug channel
func (it *Interceptor) debugDump(ev *Event) {
	cfg := it.getConfig()
	if cfg.Verbosity != VerbosityVerbose {
		return
	}
	if h, ok := it.server.Load().(serverHolder); ok && h.sl != nil {
		h.sl.Debugf("auditfile: unrecorded event: %s", spew.Sdump(ev))
	}
}

// stderrLogger is the default ServerLogger, gated by configuration the
// way internal diagnostics are throughout the host.
type stderrLogger struct {
	it *Interceptor
}

func (s *stderrLogger) Warnf(format string, args ...any) {
	if !s.it.getConfig().InternalErrorsToStderr {
		return
	}
	fmt.Fprintf(os.Stderr, ensurePrefix(format)+"\n", args...)
}

func (s *stderrLogger) Debugf(format string, args ...any) {
	if !s.it.getConfig().InternalErrorsToStderr {
		return
	}
	fmt.Fprintf(os.Stderr, ensurePrefix(format)+"\n", args...)
}

func ensurePrefix(format string) string {
	if strings.HasPrefix(format, "auditfile: ") {
		return format
	}
	return "auditfile: " + format
}
