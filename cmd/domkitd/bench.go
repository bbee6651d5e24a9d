package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/domkit-go/domkit/core"
	"github.com/domkit-go/domkit/host"
	"github.com/domkit-go/domkit/host/memdom"
	"github.com/domkit-go/domkit/internal/config"
	"github.com/domkit-go/domkit/internal/testhost"
	"github.com/domkit-go/domkit/reactive"
)

func benchCmd() *cobra.Command {
	var (
		handlers int
		events   int
	)

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Drive a synthetic event and signal workload",
		Long: `Register a direct click handler on each of many elements, dispatch a
burst of synthetic events through a Core, and update a reactive signal
an effect depends on, reporting dispatch throughput and flush count.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBench(handlers, events)
		},
	}

	cmd.Flags().IntVar(&handlers, "handlers", 0, "number of elements to register a handler on (default from domkit.yaml)")
	cmd.Flags().IntVar(&events, "events", 0, "number of synthetic events to dispatch (default from domkit.yaml)")

	return cmd
}

func runBench(handlers, events int) error {
	cfg, err := config.Load(".")
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if handlers > 0 {
		cfg.Bench.Handlers = handlers
	}
	if events > 0 {
		cfg.Bench.Events = events
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	printBanner()
	info("benchmarking %d handlers / %d events", cfg.Bench.Handlers, cfg.Bench.Events)

	doc := memdom.NewDocument()
	root := memdom.NewElement("div")
	doc.AppendChild(root)

	targets := make([]*memdom.Element, cfg.Bench.Handlers)
	for i := range targets {
		el := memdom.NewElement("button")
		el.SetAttr("class", "bench-target")
		root.AppendChild(el)
		targets[i] = el
	}

	c := core.New(core.Config{
		Document:       doc,
		Window:         memdom.Window{},
		Clock:          testhost.NewClock(time.Now()),
		FrameScheduler: testhost.NewFrameScheduler(),
		MicrotaskQueue: testhost.NewMicrotaskQueue(),
		Timer:          testhost.NewTimer(testhost.NewClock(time.Now())),
	})
	defer c.Close()

	var fired int
	for _, el := range targets {
		if _, err := c.Register(el, core.EventClick, func(*core.Event) { fired++ }, core.Options{}); err != nil {
			return fmt.Errorf("register: %w", err)
		}
	}

	start := time.Now()
	for i := 0; i < cfg.Bench.Events; i++ {
		target := targets[i%len(targets)]
		native := host.NewNativeEvent("click", target, start, nil, nil)
		c.HandleNativeEvent(native)
	}
	dispatchElapsed := time.Since(start)

	mtq := testhost.NewMicrotaskQueue()
	rt := reactive.New(reactive.Config{MicrotaskQueue: mtq})
	counter := reactive.NewObject(map[string]any{"count": 0})
	flushes := 0
	reactive.CreateEffect(rt, func() func() {
		_ = counter.Get("count")
		flushes++
		return nil
	}, reactive.EffectOptions{})
	mtq.Drain()
	flushes = 0

	reactiveStart := time.Now()
	for i := 0; i < cfg.Bench.Events; i++ {
		counter.Set("count", i)
		mtq.Drain()
	}
	reactiveElapsed := time.Since(reactiveStart)

	success("dispatch: %d events through %d handlers in %s (%.0f events/sec)",
		cfg.Bench.Events, cfg.Bench.Handlers, dispatchElapsed, float64(cfg.Bench.Events)/dispatchElapsed.Seconds())
	info("handler invocations: %d", fired)
	success("reactive: %d writes flushed in %s (%d effect re-runs)", cfg.Bench.Events, reactiveElapsed, flushes)

	return nil
}
