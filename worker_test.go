// FILE: worker_test.go
package auditfile

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestInterceptor creates an enabled interceptor spooling into a temp
// directory with an hourly interval
func newTestInterceptor(t *testing.T, modify func(*Config)) (*Interceptor, string) {
	t.Helper()
	tmpDir := t.TempDir()

	cfg := DefaultConfig()
	cfg.Directory = tmpDir
	cfg.FilenamePattern = "audit-%Y%m%d_%H%M.log"
	cfg.RotationIntervalMin = 60
	if modify != nil {
		modify(cfg)
	}

	it := New()
	it.SetServerLogger(&captureLogger{})
	require.NoError(t, it.ApplyConfig(cfg))
	return it, tmpDir
}

// fixWorkerClock pins a worker's clock to a settable instant
func fixWorkerClock(w *Worker, at time.Time) *time.Time {
	now := at
	w.clock = func() time.Time { return now }
	return &now
}

var testSessionCtx = SessionContext{
	User:         "alice",
	Database:     "app",
	PID:          4242,
	RemoteHost:   "10.0.0.5",
	RemotePort:   "5120",
	SessionStart: time.Date(2025, 3, 7, 9, 0, 0, 0, time.UTC),
	ProcessTitle: "app idle",
}

func readSpoolFile(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := strings.TrimSuffix(string(data), "\n")
	if content == "" {
		return nil
	}
	return strings.Split(content, "\n")
}

// TestWorkerEmitWritesRecord verifies the capture and append path
func TestWorkerEmitWritesRecord(t *testing.T) {
	it, tmpDir := newTestInterceptor(t, nil)

	w := it.NewWorker()
	defer w.Close()
	fixWorkerClock(w, time.Date(2025, 3, 7, 10, 15, 0, 0, time.UTC))

	ctx := testSessionCtx
	ev := &Event{Message: "AUDIT: SESSION,1,1,READ,SELECT", OutputToServer: true}
	w.Emit(ev, &ctx)

	assert.False(t, ev.OutputToServer, "captured event must not reach the server log")

	path := filepath.Join(tmpDir, "audit-20250307_1000.log")
	lines := readSpoolFile(t, path)
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], ",SESSION,1,1,READ,SELECT,")
	assert.NotContains(t, lines[0], AuditPrefix)

	stats := it.Stats()
	assert.Equal(t, uint64(1), stats.RecordsWritten)
	assert.Equal(t, uint64(1), stats.Rotations)
	assert.Zero(t, stats.Fallbacks)
}

// TestWorkerDisabledPassThrough verifies events are untouched when no
// directory is configured
func TestWorkerDisabledPassThrough(t *testing.T) {
	it := New()
	w := it.NewWorker()
	defer w.Close()

	ev := &Event{Message: "AUDIT: SESSION", OutputToServer: true}
	w.Emit(ev, &testSessionCtx)

	assert.True(t, ev.OutputToServer)
	assert.Zero(t, it.Stats())
}

// TestWorkerNonMatchingPassThrough verifies ordinary messages are ignored
func TestWorkerNonMatchingPassThrough(t *testing.T) {
	it, tmpDir := newTestInterceptor(t, nil)

	w := it.NewWorker()
	defer w.Close()

	ev := &Event{Message: "checkpoint starting: time", OutputToServer: true}
	w.Emit(ev, &testSessionCtx)

	assert.True(t, ev.OutputToServer)
	assert.Zero(t, it.Stats().RecordsWritten)

	entries, err := os.ReadDir(tmpDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

// TestWorkerConnectionCapture verifies connection messages spool when the
// toggle is on, recorded whole
func TestWorkerConnectionCapture(t *testing.T) {
	it, tmpDir := newTestInterceptor(t, func(c *Config) {
		c.LogConnections = true
	})

	w := it.NewWorker()
	defer w.Close()
	fixWorkerClock(w, time.Date(2025, 3, 7, 10, 15, 0, 0, time.UTC))

	ev := &Event{Message: "connection received: host=10.0.0.5 port=5120", OutputToServer: true}
	w.Emit(ev, &testSessionCtx)

	assert.False(t, ev.OutputToServer)

	lines := readSpoolFile(t, filepath.Join(tmpDir, "audit-20250307_1000.log"))
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], ",connection received: host=10.0.0.5 port=5120,")
}

// TestWorkerOpenFailure verifies the fallback path: the event returns to
// the server log and the worker survives
func TestWorkerOpenFailure(t *testing.T) {
	it, tmpDir := newTestInterceptor(t, nil)
	cap := &captureLogger{}
	it.SetServerLogger(cap)

	// A regular file where the spool directory should be
	blocker := filepath.Join(tmpDir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	cfg := it.GetConfig()
	cfg.Directory = filepath.Join(blocker, "spool")
	require.NoError(t, it.ApplyConfig(cfg))

	w := it.NewWorker()
	defer w.Close()

	ev := &Event{Message: "AUDIT: SESSION", OutputToServer: true}
	w.Emit(ev, &testSessionCtx)

	assert.True(t, ev.OutputToServer, "failed capture must fall back to the server log")
	require.Equal(t, 1, cap.warnCount())
	assert.Contains(t, cap.warns[0], "could not open audit log file")

	stats := it.Stats()
	assert.Equal(t, uint64(1), stats.OpenFailures)
	assert.Equal(t, uint64(1), stats.Fallbacks)
	assert.Zero(t, stats.RecordsWritten)

	// Failure is not sticky; repairing the directory recovers on the
	// next write
	cfg = it.GetConfig()
	cfg.Directory = tmpDir
	require.NoError(t, it.ApplyConfig(cfg))

	ev = &Event{Message: "AUDIT: SESSION", OutputToServer: true}
	w.Emit(ev, &testSessionCtx)
	assert.False(t, ev.OutputToServer)
	assert.Equal(t, uint64(1), it.Stats().RecordsWritten)
}

// TestWorkersConvergeOnSameFile verifies independent workers derive the
// same target and append to one file
func TestWorkersConvergeOnSameFile(t *testing.T) {
	it, tmpDir := newTestInterceptor(t, nil)
	at := time.Date(2025, 3, 7, 10, 15, 0, 0, time.UTC)

	const workers = 4
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(pid int) {
			defer wg.Done()
			w := it.NewWorker()
			defer w.Close()
			fixWorkerClock(w, at)

			ctx := testSessionCtx
			ctx.PID = pid
			ev := &Event{Message: "AUDIT: SESSION", OutputToServer: true}
			w.Emit(ev, &ctx)
		}(1000 + i)
	}
	wg.Wait()

	entries, err := os.ReadDir(tmpDir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "all workers must converge on one file")
	assert.Equal(t, "audit-20250307_1000.log", entries[0].Name())

	lines := readSpoolFile(t, filepath.Join(tmpDir, entries[0].Name()))
	assert.Len(t, lines, workers)
	assert.Equal(t, uint64(workers), it.Stats().RecordsWritten)
}

// TestWorkerRotatesAtBoundary verifies the time trigger switches files
func TestWorkerRotatesAtBoundary(t *testing.T) {
	it, tmpDir := newTestInterceptor(t, nil)

	w := it.NewWorker()
	defer w.Close()
	now := fixWorkerClock(w, time.Date(2025, 3, 7, 10, 59, 0, 0, time.UTC))

	ev := &Event{Message: "AUDIT: one", OutputToServer: true}
	w.Emit(ev, &testSessionCtx)

	*now = time.Date(2025, 3, 7, 11, 0, 1, 0, time.UTC)
	ev = &Event{Message: "AUDIT: two", OutputToServer: true}
	w.Emit(ev, &testSessionCtx)

	first := readSpoolFile(t, filepath.Join(tmpDir, "audit-20250307_1000.log"))
	second := readSpoolFile(t, filepath.Join(tmpDir, "audit-20250307_1100.log"))
	require.Len(t, first, 1)
	require.Len(t, second, 1)
	assert.Contains(t, first[0], ",one,")
	assert.Contains(t, second[0], ",two,")
	assert.Equal(t, uint64(2), it.Stats().Rotations)
}

// TestWorkerForceRotationOnPatternChange verifies a reconfigured pattern
// takes effect on the very next write
func TestWorkerForceRotationOnPatternChange(t *testing.T) {
	it, tmpDir := newTestInterceptor(t, nil)

	w := it.NewWorker()
	defer w.Close()
	fixWorkerClock(w, time.Date(2025, 3, 7, 10, 15, 0, 0, time.UTC))

	ev := &Event{Message: "AUDIT: before", OutputToServer: true}
	w.Emit(ev, &testSessionCtx)

	require.NoError(t, it.ApplyOverride("filename_pattern=srv-%Y%m%d_%H%M.csv"))

	ev = &Event{Message: "AUDIT: after", OutputToServer: true}
	w.Emit(ev, &testSessionCtx)

	require.FileExists(t, filepath.Join(tmpDir, "audit-20250307_1000.log"))
	lines := readSpoolFile(t, filepath.Join(tmpDir, "srv-20250307_1000.csv"))
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], ",after,")
}

// TestWorkerLineCounter verifies the per-session counter and its restart
// when the process slot is recycled
func TestWorkerLineCounter(t *testing.T) {
	it, tmpDir := newTestInterceptor(t, nil)

	w := it.NewWorker()
	defer w.Close()
	fixWorkerClock(w, time.Date(2025, 3, 7, 10, 15, 0, 0, time.UTC))

	ctx := testSessionCtx
	ctx.PID = 100
	for i := 0; i < 2; i++ {
		w.Emit(&Event{Message: "AUDIT: x", OutputToServer: true}, &ctx)
	}

	recycled := testSessionCtx
	recycled.PID = 200
	recycled.SessionStart = time.Date(2025, 3, 7, 10, 14, 0, 0, time.UTC)
	w.Emit(&Event{Message: "AUDIT: x", OutputToServer: true}, &recycled)

	lines := readSpoolFile(t, filepath.Join(tmpDir, "audit-20250307_1000.log"))
	require.Len(t, lines, 3)

	assert.Equal(t, "1", strings.Split(lines[0], ",")[6])
	assert.Equal(t, "2", strings.Split(lines[1], ",")[6])
	// Counter restarts with the new session identity
	assert.Equal(t, "1", strings.Split(lines[2], ",")[6])
	assert.Contains(t, lines[2], "2025-03-07 10:14:00 UTC")
}

// TestWorkerFileMode verifies owner-write is forced on created files
func TestWorkerFileMode(t *testing.T) {
	it, tmpDir := newTestInterceptor(t, func(c *Config) {
		c.FileMode = 0o400
	})

	w := it.NewWorker()
	defer w.Close()
	fixWorkerClock(w, time.Date(2025, 3, 7, 10, 15, 0, 0, time.UTC))

	w.Emit(&Event{Message: "AUDIT: x", OutputToServer: true}, &testSessionCtx)

	info, err := os.Stat(filepath.Join(tmpDir, "audit-20250307_1000.log"))
	require.NoError(t, err)
	assert.NotZero(t, info.Mode().Perm()&0o200, "owner-write must be forced")
	assert.Zero(t, info.Mode().Perm()&0o111, "no execute bits")
}

// TestWorkerCreatesSpoolDirectory verifies missing directories are created
// on first open
func TestWorkerCreatesSpoolDirectory(t *testing.T) {
	it, tmpDir := newTestInterceptor(t, nil)

	nested := filepath.Join(tmpDir, "spool", "audit")
	cfg := it.GetConfig()
	cfg.Directory = nested
	require.NoError(t, it.ApplyConfig(cfg))

	w := it.NewWorker()
	defer w.Close()
	fixWorkerClock(w, time.Date(2025, 3, 7, 10, 15, 0, 0, time.UTC))

	ev := &Event{Message: "AUDIT: x", OutputToServer: true}
	w.Emit(ev, &testSessionCtx)

	assert.False(t, ev.OutputToServer)
	require.FileExists(t, filepath.Join(nested, "audit-20250307_1000.log"))
}

// TestWorkerCloseReopens verifies Close releases the handle but the
// worker stays usable
func TestWorkerCloseReopens(t *testing.T) {
	it, tmpDir := newTestInterceptor(t, nil)

	w := it.NewWorker()
	fixWorkerClock(w, time.Date(2025, 3, 7, 10, 15, 0, 0, time.UTC))

	w.Emit(&Event{Message: "AUDIT: one", OutputToServer: true}, &testSessionCtx)
	w.Close()
	w.Emit(&Event{Message: "AUDIT: two", OutputToServer: true}, &testSessionCtx)
	w.Close()

	lines := readSpoolFile(t, filepath.Join(tmpDir, "audit-20250307_1000.log"))
	assert.Len(t, lines, 2)
}

// TestWorkerConcurrentStreams verifies many workers spooling at once do
// not lose records
func TestWorkerConcurrentStreams(t *testing.T) {
	it, tmpDir := newTestInterceptor(t, nil)
	at := time.Date(2025, 3, 7, 10, 15, 0, 0, time.UTC)

	const workers = 8
	const perWorker = 50

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(pid int) {
			defer wg.Done()
			w := it.NewWorker()
			defer w.Close()
			fixWorkerClock(w, at)

			ctx := testSessionCtx
			ctx.PID = pid
			for j := 0; j < perWorker; j++ {
				w.Emit(&Event{Message: "AUDIT: stream", OutputToServer: true}, &ctx)
			}
		}(2000 + i)
	}
	wg.Wait()

	lines := readSpoolFile(t, filepath.Join(tmpDir, "audit-20250307_1000.log"))
	assert.Len(t, lines, workers*perWorker)
	assert.Equal(t, uint64(workers*perWorker), it.Stats().RecordsWritten)
}
