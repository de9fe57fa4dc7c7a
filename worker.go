// FILE: worker.go
package auditfile

import (
	"os"
	"time"
)

// Worker is the per-worker rotation coordinator. Everything on it is
// exclusively owned: the open file session, the cached next rotation
// boundary, the cached target filename, and the line counter. The only
// thing it shares with other workers is the interceptor's force-rotation
// flag.
type Worker struct {
	it      *Interceptor
	session fileSession
	writer  *lineWriter

	nextRotation   time.Time
	targetFilename string

	// Session identity; the counter restarts when the worker observes a
	// recycled process slot
	pid            int
	lineNumber     int64
	formattedStart string

	clock func() time.Time
}

// NewWorker creates a worker context. One worker serves one event stream;
// workers must not be shared between goroutines.
func (it *Interceptor) NewWorker() *Worker {
	return &Worker{
		it:     it,
		writer: newLineWriter(),
		clock:  time.Now,
	}
}

// Emit offers one event for interception. Captured events have their
// default-log output suppressed; if recording fails the flag is restored
// so the event falls back to the server logger rather than being lost.
// Emit never panics and never returns an error to the event source; a
// failed audit write must not take the worker down.
func (w *Worker) Emit(ev *Event, ctx *SessionContext) {
	cfg := w.it.getConfig()
	if !cfg.Enabled() {
		return
	}

	exclude := w.it.intercepts(cfg, ev.Message)
	if exclude < 0 {
		return
	}
	ev.OutputToServer = false

	if err := w.record(cfg, ev, ctx, exclude); err != nil {
		// Failed to record in the audit file, fall back to the server log
		ev.OutputToServer = true
		w.it.stats.Fallbacks.Add(1)
		w.it.warnf("%v", err)
		w.it.debugDump(ev)
	}
}

// record runs one pass of the coordinator state machine: rotation check,
// lazy open, serialize, append.
func (w *Worker) record(cfg *Config, ev *Event, ctx *SessionContext, exclude int) error {
	now := w.clock()

	if w.needsRotation(cfg, now) {
		w.rotate(cfg, now)
	}

	if !w.session.isOpen() {
		if err := w.open(cfg); err != nil {
			w.it.stats.OpenFailures.Add(1)
			return err
		}
	}

	if ctx.PID != w.pid {
		// New session in this slot; restart the counter and re-render the
		// start timestamp
		w.pid = ctx.PID
		w.lineNumber = 0
		w.formattedStart = formatStartTime(ctx.SessionStart)
	}
	w.lineNumber++

	line := w.writer.serialize(ev, ctx, exclude, w.lineNumber, w.formattedStart,
		now, cfg.Verbosity == VerbosityVerbose)

	if err := w.session.write(line); err != nil {
		return err
	}

	w.it.stats.RecordsWritten.Add(1)
	return nil
}

// needsRotation evaluates the three rotation triggers in order: the
// shared force flag, the time boundary, and the target-filename
// comparison that catches rotations other workers already performed.
func (w *Worker) needsRotation(cfg *Config, now time.Time) bool {
	if w.it.rotation.ConsumeForceFlag() {
		return true
	}

	if !now.Before(w.nextRotation) {
		w.nextRotation = NextRotationTime(now, cfg.Interval())
		return true
	}

	if w.deriveTarget(cfg) != w.session.openFilename {
		return true
	}

	return false
}

// rotate closes the current session and recomputes the target filename.
// Opening is deferred to the write; rotation never renames or deletes,
// it only stops writing to one file and starts writing to another.
func (w *Worker) rotate(cfg *Config, now time.Time) {
	w.session.close()

	if w.nextRotation.IsZero() {
		// Forced rotation before the first scheduled one
		w.nextRotation = NextRotationTime(now, cfg.Interval())
	}
	w.targetFilename = w.deriveTarget(cfg)
	w.it.stats.Rotations.Add(1)
}

// deriveTarget derives the filename for the window currently being
// written, one interval before the cached next boundary.
func (w *Worker) deriveTarget(cfg *Config) string {
	return DeriveFilename(cfg.Directory, cfg.FilenamePattern,
		WindowStart(w.nextRotation, cfg.Interval()))
}

// open opens the target file for appending. Directory creation is
// best-effort; if it fails, the open failure that follows carries the
// real error.
func (w *Worker) open(cfg *Config) error {
	_ = os.MkdirAll(cfg.Directory, spoolDirMode)

	// Never let the configured mode disable owner-write; this process has
	// to be able to write its own spool files
	mode := (os.FileMode(cfg.FileMode) | 0o200) & 0o666
	return w.session.open(w.targetFilename, mode)
}

// Close flushes and releases the worker's file session. The worker stays
// usable; the next write reopens lazily.
func (w *Worker) Close() {
	w.session.close()
}
