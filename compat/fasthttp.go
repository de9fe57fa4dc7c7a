// FILE: compat/fasthttp.go
package compat

import (
	"fmt"
	"net"
	"os"
	"sync"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/lixenwraith/auditfile"
)

// RequestAudit emits connection-received and disconnection events around
// a fasthttp handler, so HTTP traffic in front of the database lands in
// the same audit spool as the server's own connection log. Workers come
// from a pool because fasthttp serves from many goroutines and a worker
// is single-owner; pooled workers converging on the same target file is
// the normal operating mode of the rotation protocol.
type RequestAudit struct {
	it      *auditfile.Interceptor
	workers sync.Pool
	appName string
}

// NewRequestAudit creates a middleware bound to an interceptor
func NewRequestAudit(it *auditfile.Interceptor, opts ...RequestAuditOption) *RequestAudit {
	ra := &RequestAudit{
		it:      it,
		appName: "fasthttp",
	}
	ra.workers.New = func() any {
		return it.NewWorker()
	}

	for _, opt := range opts {
		opt(ra)
	}

	return ra
}

// RequestAuditOption allows customizing middleware behavior
type RequestAuditOption func(*RequestAudit)

// WithAppName sets the application name recorded with emitted events
func WithAppName(name string) RequestAuditOption {
	return func(ra *RequestAudit) {
		ra.appName = name
	}
}

// Wrap returns a handler that audits around next
func (ra *RequestAudit) Wrap(next fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		w := ra.workers.Get().(*auditfile.Worker)
		defer ra.workers.Put(w)

		host, port := splitRemoteAddr(ctx.RemoteAddr())
		sctx := auditfile.SessionContext{
			User:            string(ctx.Request.Header.Peek("X-Audit-User")),
			PID:             os.Getpid(),
			RemoteHost:      host,
			RemotePort:      port,
			SessionStart:    ctx.ConnTime(),
			ProcessTitle:    string(ctx.Method()) + " " + string(ctx.Path()),
			ApplicationName: ra.appName,
		}

		conn := &auditfile.Event{
			Message:        "connection received: host=" + host + " port=" + port,
			OutputToServer: true,
		}
		w.Emit(conn, &sctx)

		start := time.Now()
		next(ctx)

		disc := &auditfile.Event{
			Message: fmt.Sprintf("disconnection: session time: %s user=%s host=%s",
				time.Since(start).Round(time.Millisecond), sctx.User, host),
			OutputToServer: true,
		}
		w.Emit(disc, &sctx)
	}
}

// splitRemoteAddr splits an addr into host and port, tolerating
// addresses without a port
func splitRemoteAddr(addr net.Addr) (string, string) {
	if addr == nil {
		return "", ""
	}
	host, port, err := net.SplitHostPort(addr.String())
	if err != nil {
		return addr.String(), ""
	}
	return host, port
}
