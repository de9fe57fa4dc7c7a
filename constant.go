// FILE: constant.go
package auditfile

import (
	"os"
)

// AuditPrefix marks server log messages that belong to the audit stream.
// The prefix itself is stripped before the message is recorded.
const AuditPrefix = "AUDIT: "

// Connection/disconnection phrases intercepted when the matching toggle
// is enabled. Matching is case-insensitive and prefix-only; the phrase
// stays in the recorded message.
var connectionPrefixes = []string{
	"connection authenticated: identity=",
	"connection authorized: user=",
	"connection received: host=",
	"password authentication failed for user",
	"replication connection authorized: user=",
}

var disconnectionPrefixes = []string{
	"disconnection: session time:",
}

// Timestamp layouts
const (
	// Record timestamp, millisecond precision
	logTimeFormat = "2006-01-02 15:04:05.000 MST"
	// Session start timestamp
	startTimeFormat = "2006-01-02 15:04:05 MST"
)

// Verbosity values for the source-location record field
const (
	VerbosityTerse   = "terse"
	VerbosityDefault = "default"
	VerbosityVerbose = "verbose"
)

// Storage
const (
	// Output buffer per file session; one record should ideally cost one
	// underlying write
	sessionBufferSize = 128 * 1024
	// Mode for best-effort creation of the spool directory
	spoolDirMode os.FileMode = 0o755
	// One serialized record holds 22 fields
	recordFieldCount = 22
)
