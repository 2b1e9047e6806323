package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-co-op/gocron/v2"
	"github.com/spf13/cobra"
)

// WatchOptions holds flags for the watch command.
type WatchOptions struct {
	*RootOptions
	Interval time.Duration
	NoNotify bool
}

// NewWatchCommand creates the watch command.
func NewWatchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &WatchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Run the evaluation loop until interrupted",
		Long: `Run the polling loop: evaluate all rules immediately, then on every
interval tick. Store files changed between ticks trigger an early cycle
unless --no-notify is set.

Example:
  port42d watch
  port42d watch --interval 5s --verbose`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(opts, cmd)
		},
	}

	cmd.Flags().DurationVar(&opts.Interval, "interval", 0, "poll interval (default from config)")
	cmd.Flags().BoolVar(&opts.NoNotify, "no-notify", false, "disable filesystem-triggered early cycles")

	return cmd
}

func runWatch(opts *WatchOptions, cmd *cobra.Command) error {
	rt, err := buildRuntime(opts.RootOptions, true)
	if err != nil {
		return err
	}
	defer rt.Close()

	interval := rt.cfg.PollInterval
	if opts.Interval > 0 {
		interval = opts.Interval
	}

	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			rt.log.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return WrapExitError(ExitCommandError, "creating scheduler", err)
	}
	defer func() {
		if err := scheduler.Shutdown(); err != nil {
			rt.log.Error("scheduler shutdown", "error", err)
		}
	}()

	// LimitModeReschedule guarantees cycles never overlap: a tick or a
	// notify that lands mid-cycle is deferred, not run concurrently.
	job, err := scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			if _, err := rt.engine.RunCycle(ctx); err != nil && ctx.Err() == nil {
				rt.log.Error("cycle failed", "error", err)
			}
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		return WrapExitError(ExitCommandError, "scheduling cycles", err)
	}

	if rt.cfg.Watch && !opts.NoNotify {
		stop, err := watchStores(ctx, rt, job)
		if err != nil {
			rt.log.Warn("store watching unavailable, polling only", "error", err)
		} else {
			defer stop()
		}
	}

	scheduler.Start()

	rt.log.Info("watching", "home", rt.cfg.Home, "interval", interval)
	fmt.Fprintln(cmd.OutOrStdout(), "Rule engine started. Press Ctrl-C to stop.")

	<-ctx.Done()
	rt.log.Info("engine stopped gracefully")
	return nil
}

// watchStores triggers an early cycle whenever the rule or event store
// file changes. The whole memory directory is watched because editors and
// atomic rewrites replace files rather than writing in place.
func watchStores(ctx context.Context, rt *runtime, job gocron.Job) (stop func(), err error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(rt.ws.MemoryDir()); err != nil {
		watcher.Close()
		return nil, err
	}

	relevant := map[string]bool{
		filepath.Base(rt.ws.RulesPath()):  true,
		filepath.Base(rt.ws.EventsPath()): true,
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Create) {
					continue
				}
				if !relevant[filepath.Base(event.Name)] {
					continue
				}
				rt.log.Debug("store changed, running early cycle", "file", event.Name)
				if err := job.RunNow(); err != nil {
					rt.log.Warn("early cycle request failed", "error", err)
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				rt.log.Warn("store watcher error", "error", err)
			}
		}
	}()

	return func() { watcher.Close() }, nil
}
