// FILE: compat/builder.go
package compat

import (
	"fmt"

	"github.com/lixenwraith/auditfile"
)

// Builder provides a flexible way to create configured adapters for gnet
// and fasthttp. It can use an existing *auditfile.Interceptor or create
// a new one from a *auditfile.Config.
type Builder struct {
	it  *auditfile.Interceptor
	cfg *auditfile.Config
	err error
}

// NewBuilder creates a new adapter builder
func NewBuilder() *Builder {
	return &Builder{}
}

// WithInterceptor specifies an existing interceptor to use for the adapters
// Recommended for applications that already audit through a central instance
// If this is set WithConfig is ignored
func (b *Builder) WithInterceptor(it *auditfile.Interceptor) *Builder {
	if it == nil {
		b.err = fmt.Errorf("auditfile/compat: provided interceptor cannot be nil")
		return b
	}
	b.it = it
	return b
}

// WithConfig provides a configuration for a new interceptor instance
// This is used only if an existing interceptor is NOT provided via WithInterceptor
func (b *Builder) WithConfig(cfg *auditfile.Config) *Builder {
	b.cfg = cfg
	return b
}

// getInterceptor resolves the interceptor to be used, creating one if necessary
func (b *Builder) getInterceptor() (*auditfile.Interceptor, error) {
	if b.err != nil {
		return nil, b.err
	}

	if b.it != nil {
		return b.it, nil
	}

	it := auditfile.New()
	cfg := b.cfg
	if cfg == nil {
		cfg = auditfile.DefaultConfig()
	}

	if err := it.ApplyConfig(cfg); err != nil {
		return nil, err
	}

	// Cache the newly created interceptor for subsequent builds
	b.it = it
	return it, nil
}

// BuildGnet creates a gnet logger adapter
func (b *Builder) BuildGnet(opts ...GnetOption) (*GnetAdapter, error) {
	it, err := b.getInterceptor()
	if err != nil {
		return nil, err
	}
	return NewGnetAdapter(it, opts...), nil
}

// BuildRequestAudit creates a fasthttp middleware
func (b *Builder) BuildRequestAudit(opts ...RequestAuditOption) (*RequestAudit, error) {
	it, err := b.getInterceptor()
	if err != nil {
		return nil, err
	}
	return NewRequestAudit(it, opts...), nil
}
