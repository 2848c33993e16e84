package cli

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/mkarlsen/stratagem/config"
)

// WatchOptions control the watch loop. Reload is optional; when set,
// edits to the config file's watch_symbols list take effect on the next
// refresh without restarting.
type WatchOptions struct {
	Symbols  []string
	Schedule string
	RunNow   bool
	Reload   *config.Manager
}

// Watch re-runs the stock analysis pipeline for the watched symbols on
// a cron schedule until the context is cancelled.
func (a *App) Watch(ctx context.Context, opts WatchOptions) error {
	if len(opts.Symbols) == 0 {
		return fmt.Errorf("no symbols to watch")
	}

	var mu sync.Mutex
	watched := opts.Symbols
	current := func() []string {
		mu.Lock()
		defer mu.Unlock()
		return watched
	}

	refresh := func() {
		for _, symbol := range current() {
			if ctx.Err() != nil {
				return
			}
			response, err := a.ProcessQuery(ctx, fmt.Sprintf("Analyze %s stock", symbol))
			if err != nil {
				a.log.WithError(err).WithField("symbol", symbol).Error("watch refresh failed")
				displayError(fmt.Errorf("refresh %s: %w", symbol, err))
				continue
			}
			fmt.Printf("\n%s\n", response)
		}
	}

	if opts.Reload != nil {
		err := opts.Reload.Watch(ctx, func(cfg *config.Config) {
			symbols := normalizeSymbols(cfg.WatchSymbols)
			if len(symbols) == 0 {
				return
			}
			mu.Lock()
			watched = symbols
			mu.Unlock()
			fmt.Printf("\n🔄 Watch list updated: %s\n", strings.Join(symbols, ", "))
			a.log.WithField("symbols", strings.Join(symbols, ",")).Info("watch list reloaded")
		})
		if err != nil {
			return fmt.Errorf("watch config file: %w", err)
		}
	}

	runner := cron.New()
	if _, err := runner.AddFunc(opts.Schedule, refresh); err != nil {
		return fmt.Errorf("register watch schedule %q: %w", opts.Schedule, err)
	}

	fmt.Printf("👀 Watching %s (%s). Press Ctrl+C to stop.\n", strings.Join(opts.Symbols, ", "), opts.Schedule)
	a.log.WithField("symbols", strings.Join(opts.Symbols, ",")).WithField("schedule", opts.Schedule).Info("watch started")

	if opts.RunNow {
		refresh()
	}
	runner.Start()

	<-ctx.Done()
	stopped := runner.Stop()
	<-stopped.Done()
	a.log.Info("watch stopped")
	return nil
}
