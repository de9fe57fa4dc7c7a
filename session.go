// FILE: session.go
package auditfile

import (
	"bufio"
	"io"
	"os"
)

// fileSession is the per-worker file state: an open append-mode handle
// (or none) and the filename it was opened under. It is exclusively owned
// by one worker and never shared; staleness is detected by comparing
// openFilename against a freshly derived target, never by inspecting the
// filesystem.
type fileSession struct {
	file         *os.File
	w            *bufio.Writer
	openFilename string
}

// isOpen reports whether a handle is currently held.
func (s *fileSession) isOpen() bool {
	return s.file != nil
}

// open opens path for appending, creating it with the given mode. The
// file may already exist because another worker created it first; that is
// the normal convergence path, not a conflict. A large output buffer is
// attached so each record ideally costs one underlying write.
func (s *fileSession) open(path string, mode os.FileMode) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, mode)
	if err != nil {
		return fmtErrorf("could not open audit log file '%s': %w", path, err)
	}
	s.file = f
	s.w = bufio.NewWriterSize(f, sessionBufferSize)
	s.openFilename = path
	return nil
}

// write appends one serialized record and flushes it to the OS. A short
// write is reported as an error but the handle stays open; the file is
// not assumed corrupt and the next record retries naturally.
func (s *fileSession) write(line []byte) error {
	n, err := s.w.Write(line)
	if err == nil {
		err = s.w.Flush()
	}
	if err != nil {
		return fmtErrorf("could not write audit log file '%s': %w", s.openFilename, err)
	}
	if n != len(line) {
		return fmtErrorf("could not write audit log file '%s': %w", s.openFilename, io.ErrShortWrite)
	}
	return nil
}

// close flushes and releases the handle. Close errors are swallowed: the
// session is being abandoned either way and the caller must not block or
// fail on them.
func (s *fileSession) close() {
	if s.file == nil {
		return
	}
	if s.w != nil {
		_ = s.w.Flush()
	}
	_ = s.file.Close()
	s.file = nil
	s.w = nil
	s.openFilename = ""
}
