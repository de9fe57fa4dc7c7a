// FILE: compat/logrus.go
package compat

import (
	"github.com/sirupsen/logrus"

	"github.com/lixenwraith/auditfile"
)

// logrus loggers satisfy auditfile.ServerLogger as-is
var (
	_ auditfile.ServerLogger = (*logrus.Logger)(nil)
	_ auditfile.ServerLogger = (*logrus.Entry)(nil)
)

// LogrusServer adapts a logrus logger for use as the interceptor's
// diagnostic channel, tagging every entry with the subsystem name.
//
// Example:
//
//	it.SetServerLogger(compat.LogrusServer(logrus.StandardLogger()))
func LogrusServer(l *logrus.Logger) auditfile.ServerLogger {
	return l.WithField("component", "auditfile")
}
