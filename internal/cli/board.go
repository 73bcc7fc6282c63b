package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/taskdeck/taskdeck/internal/clipboard"
	"github.com/taskdeck/taskdeck/internal/config"
	"github.com/taskdeck/taskdeck/internal/plans"
	"github.com/taskdeck/taskdeck/internal/prefs"
	"github.com/taskdeck/taskdeck/internal/store"
	"github.com/taskdeck/taskdeck/internal/tui"
)

func newBoardCommand(logger *slog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "board",
		Short: "Run the interactive kanban board",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			return runBoard(ctx, config.FromEnv(), logger)
		},
	}
}

func runBoard(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	client := store.New(cfg)

	prefStore, err := prefs.New(cfg.PrefsDBPath)
	if err != nil {
		return err
	}
	defer prefStore.Close()
	if err := prefStore.AutoMigrate(ctx); err != nil {
		return err
	}

	library := plans.NewLibrary(cfg.PlansDir)

	feed := store.NewFeed(
		cfg.WSURL,
		logger,
		time.Duration(cfg.WSReconnectMinSec)*time.Second,
		time.Duration(cfg.WSReconnectMaxSec)*time.Second,
	)

	runCtx, stop := context.WithCancel(ctx)
	defer stop()
	group, groupCtx := errgroup.WithContext(runCtx)

	// Model events: websocket updates plus the cron refresh cadence.
	events := make(chan store.Update, 16)

	group.Go(func() error {
		return feed.Run(groupCtx)
	})
	group.Go(func() error {
		for {
			select {
			case <-groupCtx.Done():
				return nil
			case update, ok := <-feed.Updates():
				if !ok {
					return nil
				}
				select {
				case events <- update:
				case <-groupCtx.Done():
					return nil
				}
			}
		}
	})

	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.RefreshCron, func() {
		select {
		case events <- store.Update{Kind: "refresh"}:
		default:
		}
	}); err != nil {
		logger.Warn("invalid refresh cron, periodic refresh disabled", "expr", cfg.RefreshCron, "error", err)
	} else {
		scheduler.Start()
		defer scheduler.Stop()
	}

	if _, err := os.Stat(cfg.PlansDir); err == nil {
		debounce := time.Duration(cfg.PlanIndexDebounceS) * time.Second
		watcher, watchErr := plans.NewWatcher(library, logger, debounce)
		if watchErr != nil {
			logger.Warn("plan watcher unavailable", "error", watchErr)
		} else {
			group.Go(func() error {
				return watcher.Start(groupCtx)
			})
		}
	}

	group.Go(func() error {
		defer stop()
		return tui.Run(groupCtx, tui.Deps{
			Config: cfg,
			Logger: logger,
			Client: client,
			Copier: clipboard.System(),
			Plans:  library,
			Prefs:  prefStore,
		}, events)
	})

	return group.Wait()
}
