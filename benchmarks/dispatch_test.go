package benchmarks

import (
	"context"
	"fmt"
	"testing"

	"github.com/randalmurphal/hookflow/pkg/hookflow"
	"github.com/randalmurphal/hookflow/pkg/hookflow/event"
	"github.com/randalmurphal/hookflow/pkg/hookflow/interest"
)

// buildDispatcher creates a started dispatcher with n chained hooks.
func buildDispatcher(b *testing.B, n int) *hookflow.Dispatcher {
	b.Helper()
	d := hookflow.NewDispatcher(hookflow.WithQueueSize(1024))
	for i := 0; i < n; i++ {
		var opts []hookflow.HookOption
		if i > 0 {
			opts = append(opts, hookflow.WithRunsAfter(hookName(i-1)))
		}
		h, err := hookflow.NewSimpleHook(hookName(i),
			func(ctx hookflow.Context, evt *event.Event) error { return nil },
			opts...)
		if err != nil {
			b.Fatal(err)
		}
		if err := d.Register(h); err != nil {
			b.Fatal(err)
		}
	}
	if err := d.Start(); err != nil {
		b.Fatal(err)
	}
	b.Cleanup(func() {
		_ = d.Stop(context.Background())
	})
	return d
}

func hookName(i int) string {
	return fmt.Sprintf("hook-%03d", i)
}

// benchmarkDispatch measures one full dispatch round trip.
func benchmarkDispatch(b *testing.B, hooks int) {
	d := buildDispatcher(b, hooks)
	ctx := hookflow.NewContext(context.Background())
	evt := event.New("node-added", nil,
		event.WithProperty("media.class", "Stream/Output/Audio"))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		run, err := d.Dispatch(ctx, evt)
		if err != nil {
			b.Fatal(err)
		}
		if _, err := run.Wait(context.Background()); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkDispatch_5Hooks runs a 5-hook chain per event.
func BenchmarkDispatch_5Hooks(b *testing.B) {
	benchmarkDispatch(b, 5)
}

// BenchmarkDispatch_20Hooks runs a 20-hook chain per event.
func BenchmarkDispatch_20Hooks(b *testing.B) {
	benchmarkDispatch(b, 20)
}

// BenchmarkDispatch_100Hooks runs a 100-hook chain per event.
func BenchmarkDispatch_100Hooks(b *testing.B) {
	benchmarkDispatch(b, 100)
}

// BenchmarkDispatch_Selection measures matching with a mostly
// non-matching registry.
func BenchmarkDispatch_Selection(b *testing.B) {
	d := hookflow.NewDispatcher(hookflow.WithQueueSize(1024))
	for i := 0; i < 100; i++ {
		kind := "link-added"
		if i == 0 {
			kind = "node-added"
		}
		h, err := hookflow.NewSimpleHook(hookName(i),
			func(ctx hookflow.Context, evt *event.Event) error { return nil },
			hookflow.WithInterest(interest.New(kind)))
		if err != nil {
			b.Fatal(err)
		}
		if err := d.Register(h); err != nil {
			b.Fatal(err)
		}
	}
	if err := d.Start(); err != nil {
		b.Fatal(err)
	}
	b.Cleanup(func() {
		_ = d.Stop(context.Background())
	})

	ctx := hookflow.NewContext(context.Background())
	evt := event.New("node-added", nil)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		run, err := d.Dispatch(ctx, evt)
		if err != nil {
			b.Fatal(err)
		}
		if _, err := run.Wait(context.Background()); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkAsyncHook_10Steps drives a 10-step async hook per event.
func BenchmarkAsyncHook_10Steps(b *testing.B) {
	const steps = 10

	h, err := hookflow.NewAsyncHook("stepper",
		func(evt *event.Event, st any) (string, error) {
			i, _ := st.(int)
			if i >= steps {
				return hookflow.Done, nil
			}
			return fmt.Sprintf("step-%d", i), nil
		},
		func(ctx hookflow.Context, evt *event.Event, step string, st any) (any, error) {
			i, _ := st.(int)
			return i + 1, nil
		})
	if err != nil {
		b.Fatal(err)
	}

	d := hookflow.NewDispatcher(hookflow.WithQueueSize(1024))
	if err := d.Register(h); err != nil {
		b.Fatal(err)
	}
	if err := d.Start(); err != nil {
		b.Fatal(err)
	}
	b.Cleanup(func() {
		_ = d.Stop(context.Background())
	})

	ctx := hookflow.NewContext(context.Background())
	evt := event.New("e", nil)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		run, err := d.Dispatch(ctx, evt)
		if err != nil {
			b.Fatal(err)
		}
		if _, err := run.Wait(context.Background()); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkInterest_Match measures criterion evaluation alone.
func BenchmarkInterest_Match(b *testing.B) {
	c := interest.New("node-added").
		Constrain("media.class", interest.VerbMatches, "Stream/*").
		Constrain("node.name", interest.VerbExists)
	evt := event.New("node-added", nil,
		event.WithProperty("media.class", "Stream/Output/Audio"),
		event.WithProperty("node.name", "music-player"))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = c.Matches(evt)
	}
}
