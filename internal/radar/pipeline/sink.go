package pipeline

import (
	"context"
	"errors"

	"github.com/banshee-data/radarcluster/internal/radar/l6objects"
)

// Sink receives finished frames. Handoff transfers ownership of out: the
// engine keeps no reference after the call. Sinks sharing one frame through
// a MultiSink must treat it as read-only.
type Sink interface {
	Handoff(ctx context.Context, out *l6objects.OutputBuffer) error
}

// SinkFunc adapts a function to a Sink.
type SinkFunc func(ctx context.Context, out *l6objects.OutputBuffer) error

// Handoff calls f.
func (f SinkFunc) Handoff(ctx context.Context, out *l6objects.OutputBuffer) error {
	return f(ctx, out)
}

// MultiSink hands each frame to every sink in order. A failing sink does
// not stop the others; all failures are joined.
type MultiSink []Sink

// Handoff implements Sink.
func (m MultiSink) Handoff(ctx context.Context, out *l6objects.OutputBuffer) error {
	var errs []error
	for _, s := range m {
		if s == nil {
			continue
		}
		if err := s.Handoff(ctx, out); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Discard drops every frame.
var Discard Sink = SinkFunc(func(context.Context, *l6objects.OutputBuffer) error { return nil })

var (
	_ Sink = SinkFunc(nil)
	_ Sink = MultiSink(nil)
)
