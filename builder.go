// FILE: builder.go
package auditfile

// Builder provides a fluent API for building interceptor configurations.
// It wraps a Config instance and provides chainable methods for setting values.
type Builder struct {
	cfg    *Config
	server ServerLogger
	err    error // Accumulate errors for deferred handling
}

// NewBuilder creates a new configuration builder with default values.
func NewBuilder() *Builder {
	return &Builder{
		cfg: DefaultConfig(),
	}
}

// Build creates a new Interceptor with the specified configuration.
func (b *Builder) Build() (*Interceptor, error) {
	if b.err != nil {
		return nil, b.err
	}

	it := New()

	if b.server != nil {
		it.SetServerLogger(b.server)
	}

	// ApplyConfig handles validation
	if err := it.ApplyConfig(b.cfg); err != nil {
		return nil, err
	}

	return it, nil
}

// Directory sets the spool directory.
func (b *Builder) Directory(dir string) *Builder {
	b.cfg.Directory = dir
	return b
}

// FilenamePattern sets the filename pattern.
func (b *Builder) FilenamePattern(pattern string) *Builder {
	b.cfg.FilenamePattern = pattern
	return b
}

// RotationInterval sets the rotation interval in minutes.
func (b *Builder) RotationInterval(minutes int64) *Builder {
	b.cfg.RotationIntervalMin = minutes
	return b
}

// LogConnections enables interception of connection messages.
func (b *Builder) LogConnections(enable bool) *Builder {
	b.cfg.LogConnections = enable
	return b
}

// LogDisconnections enables interception of disconnection messages.
func (b *Builder) LogDisconnections(enable bool) *Builder {
	b.cfg.LogDisconnections = enable
	return b
}

// FileMode sets the creation mode for spool files.
func (b *Builder) FileMode(mode int64) *Builder {
	b.cfg.FileMode = mode
	return b
}

// Verbosity sets the error verbosity ("terse", "default", or "verbose").
func (b *Builder) Verbosity(v string) *Builder {
	b.cfg.Verbosity = v
	return b
}

// ServerLogger sets the host logger that receives diagnostics.
func (b *Builder) ServerLogger(sl ServerLogger) *Builder {
	if sl == nil {
		b.err = fmtErrorf("server logger cannot be nil")
		return b
	}
	b.server = sl
	return b
}

// Example usage:
//
//	it, err := auditfile.NewBuilder().
//		Directory("/var/log/audit").
//		FilenamePattern("audit-%Y%m%d_%H%M.log").
//		RotationInterval(60).
//		LogConnections(true).
//		Build()
//
//	if err == nil {
//		w := it.NewWorker()
//		defer w.Close()
//	}
