// FILE: record.go
package auditfile

import (
	"time"
)

// Event is one server log event offered for interception. The interceptor
// only ever mutates OutputToServer: cleared when the event is captured,
// re-set when recording fails so the event falls through to the server's
// default logger instead of being lost.
type Event struct {
	Message        string
	OutputToServer bool

	SQLState      string
	Detail        string
	DetailLog     string // preferred over Detail when both are set
	Hint          string
	InternalQuery string
	InternalPos   int
	Context       string
	CursorPos     int
	HideStatement bool

	// Source location, recorded only under verbose error reporting
	FuncName string
	File     string
	Line     int
}

// SessionContext carries the identity and transaction metadata of the
// emitting worker. It is supplied by the host and consumed read-only.
type SessionContext struct {
	User            string
	Database        string
	PID             int
	RemoteHost      string
	RemotePort      string
	SessionStart    time.Time
	BackendID       int // virtual transaction id is BackendID/LocalXID
	LocalXID        uint32
	TransactionID   uint32
	Statement       string
	ProcessTitle    string
	ApplicationName string
}
