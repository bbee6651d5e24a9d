package core

import (
	"go.opentelemetry.io/otel/trace"
)

// tracer returns cfg.Tracer, falling back to a no-op tracer so dispatch and
// flush can always be wrapped in a span unconditionally (spec §11 domain
// stack: "core.dispatch and reactive.flush are wrapped in spans ... no-op by
// default").
func (c *Core) tracer() trace.Tracer {
	if c.cfg.Tracer != nil {
		return c.cfg.Tracer
	}
	return trace.NewNoopTracerProvider().Tracer("github.com/domkit-go/domkit/core")
}
