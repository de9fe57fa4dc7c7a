// FILE: format.go
package auditfile

import (
	"strconv"
	"time"
)

// lineWriter manages the buffered serialization of audit records. One
// instance lives in each worker so the buffer is reused across records
// without locking.
type lineWriter struct {
	buf []byte
}

// newLineWriter creates a lineWriter instance.
func newLineWriter() *lineWriter {
	return &lineWriter{
		buf: make([]byte, 0, 1024),
	}
}

// reset clears the buffer for reuse.
func (s *lineWriter) reset() {
	s.buf = s.buf[:0]
}

// serialize renders one event as a single comma-delimited, newline-
// terminated line. Field count and order are fixed; absent values render
// empty so downstream parsers can rely on position. Commas inside field
// values are not escaped; that is a known limitation of the format, not
// something to fix here.
//
// excludeChars strips the leading audit marker from the message (0 keeps
// the message whole). formattedStart and lineNumber come from the worker,
// which owns the per-session counter.
func (s *lineWriter) serialize(ev *Event, ctx *SessionContext, excludeChars int,
	lineNumber int64, formattedStart string, now time.Time, verbose bool) []byte {
	s.reset()

	// timestamp with milliseconds
	s.buf = now.AppendFormat(s.buf, logTimeFormat)
	s.comma()

	s.str(ctx.User)
	s.comma()

	s.str(ctx.Database)
	s.comma()

	s.buf = strconv.AppendInt(s.buf, int64(ctx.PID), 10)
	s.comma()

	// remote host and port
	if ctx.RemoteHost != "" {
		s.str(ctx.RemoteHost)
		if ctx.RemotePort != "" {
			s.buf = append(s.buf, ':')
			s.str(ctx.RemotePort)
		}
	}
	s.comma()

	// session id: hex(session start).hex(pid)
	if !ctx.SessionStart.IsZero() {
		s.buf = strconv.AppendInt(s.buf, ctx.SessionStart.Unix(), 16)
	} else {
		s.buf = append(s.buf, '0')
	}
	s.buf = append(s.buf, '.')
	s.buf = strconv.AppendInt(s.buf, int64(ctx.PID), 16)
	s.comma()

	s.buf = strconv.AppendInt(s.buf, lineNumber, 10)
	s.comma()

	s.str(ctx.ProcessTitle)
	s.comma()

	s.str(formattedStart)
	s.comma()

	// virtual transaction id
	if ctx.BackendID != 0 {
		s.buf = strconv.AppendInt(s.buf, int64(ctx.BackendID), 10)
		s.buf = append(s.buf, '/')
		s.buf = strconv.AppendUint(s.buf, uint64(ctx.LocalXID), 10)
	}
	s.comma()

	s.buf = strconv.AppendUint(s.buf, uint64(ctx.TransactionID), 10)
	s.comma()

	s.str(ev.SQLState)
	s.comma()

	// message with the audit marker stripped
	msg := ev.Message
	if excludeChars > 0 && excludeChars <= len(msg) {
		msg = msg[excludeChars:]
	}
	s.str(msg)
	s.comma()

	if ev.DetailLog != "" {
		s.str(ev.DetailLog)
	} else {
		s.str(ev.Detail)
	}
	s.comma()

	s.str(ev.Hint)
	s.comma()

	s.str(ev.InternalQuery)
	s.comma()

	// internal position only accompanies an internal query
	if ev.InternalPos > 0 && ev.InternalQuery != "" {
		s.buf = strconv.AppendInt(s.buf, int64(ev.InternalPos), 10)
	}
	s.comma()

	s.str(ev.Context)
	s.comma()

	// original statement, unless the event suppresses statement echoing
	printStmt := ctx.Statement != "" && !ev.HideStatement
	if printStmt {
		s.str(ctx.Statement)
	}
	s.comma()
	if printStmt && ev.CursorPos > 0 {
		s.buf = strconv.AppendInt(s.buf, int64(ev.CursorPos), 10)
	}
	s.comma()

	// source location under verbose error reporting
	if verbose {
		if ev.FuncName != "" && ev.File != "" {
			s.str(ev.FuncName)
			s.buf = append(s.buf, ", "...)
			s.str(ev.File)
			s.buf = append(s.buf, ':')
			s.buf = strconv.AppendInt(s.buf, int64(ev.Line), 10)
		} else if ev.File != "" {
			s.str(ev.File)
			s.buf = append(s.buf, ':')
			s.buf = strconv.AppendInt(s.buf, int64(ev.Line), 10)
		}
	}
	s.comma()

	s.str(ctx.ApplicationName)

	s.buf = append(s.buf, '\n')
	return s.buf
}

func (s *lineWriter) str(v string) {
	s.buf = append(s.buf, v...)
}

func (s *lineWriter) comma() {
	s.buf = append(s.buf, ',')
}

// formatStartTime renders the session start timestamp once per session
// identity change.
func formatStartTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(startTimeFormat)
}
