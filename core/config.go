package core

import (
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/domkit-go/domkit/host"
)

// Config configures a Core (spec §6 "configuration struct"). It follows the
// teacher's config.go shape: typed fields with doc comments and a
// DefaultConfig constructor filling sane defaults, leaving env/file parsing
// to the cmd/domkitd entry point rather than this package.
type Config struct {
	// Document is the root document new handlers are bound against and the
	// source of mutation notifications for the Memory Governor. Required.
	Document host.Document
	// Window is the window-kind target window-only event types coerce onto.
	// Required if any window-only type will be registered.
	Window host.Node
	// RootElement bounds delegated selector resolution (spec §6); defaults
	// to Document when nil.
	RootElement host.Node

	// Clock, FrameScheduler, MicrotaskQueue, and Timer are the four
	// injectable scheduling primitives (spec §9 "configurable schedulers").
	// A real browser binding supplies host-backed implementations; tests use
	// internal/testhost's deterministic fakes.
	Clock          host.Clock
	FrameScheduler host.FrameScheduler
	MicrotaskQueue host.MicrotaskQueue
	Timer          host.Timer

	// CleanupInterval is how often the Memory Governor's periodic sweep
	// runs. Zero disables the periodic sweep (mutation-triggered cleanup
	// still runs).
	CleanupInterval time.Duration
	// MaxThrottleRate bounds how many events of a non-high-frequency type
	// are admitted per second (spec §4.3 "Admission gate"). Zero disables
	// the gate.
	MaxThrottleRate float64
	// DebounceWait is a quiescence window carried in the configuration. The
	// debounce helper does not read it: a handler is debounced only when its
	// Options.Debounce is non-zero, and then waits exactly that long.
	DebounceWait time.Duration
	// MaxHandlersPerElement is the hot-element warning threshold (spec §4.4
	// "Hot-element warnings"). Zero disables the warning.
	MaxHandlersPerElement int
	// MaxCacheSize bounds the combined selector-match and propagation-path
	// cache size before the governor discards and rebuilds them (spec §4.4
	// "Cache bound enforcement"; spec §9 "distinct configuration knobs" from
	// any handler-count threshold). Zero disables the bound.
	MaxCacheSize int

	// HighFrequencyEvents are exempt from the admission gate and instead
	// rely on frame coalescing or explicit throttling.
	HighFrequencyEvents []EventType
	// CoalescedEvents are collapsed to one dispatch per animation frame
	// (spec §4.3 "Frame coalescing").
	CoalescedEvents []EventType
	// NonPassiveEvents overrides the built-in non-passive default set (spec
	// §4.1 "Passive flag"). Nil uses the built-in set.
	NonPassiveEvents []EventType

	// Logger receives structured diagnostic logging; nil defaults to
	// slog.Default() (matching config.go's Logger field in the teacher).
	Logger *slog.Logger
	// ErrorReporter receives every caught handler/effect panic and invalid
	// selector (spec §6, §7). Nil means failures are only logged.
	ErrorReporter ErrorReporter
	// Tracer wraps dispatch and flush in spans (core.dispatch,
	// reactive.flush). Nil uses trace.NewNoopTracerProvider()'s tracer.
	Tracer trace.Tracer
}

// DefaultConfig returns a Config with the spec's example thresholds and the
// standard coalesced/high-frequency event sets (spec §4.3 examples: scroll,
// resize, mousemove, touchmove, dragover). Document, Window, and the four
// scheduling primitives are left zero and must be supplied by the caller.
func DefaultConfig() Config {
	return Config{
		CleanupInterval:       30 * time.Second,
		MaxThrottleRate:       60,
		DebounceWait:          250 * time.Millisecond,
		MaxHandlersPerElement: 200,
		MaxCacheSize:          2000,
		HighFrequencyEvents: []EventType{
			EventMouseMove, EventScroll, EventResize, EventTouchMove, EventDragOver, EventWheel,
		},
		CoalescedEvents: []EventType{
			EventScroll, EventResize, EventMouseMove, EventTouchMove, EventDragOver,
		},
	}
}
