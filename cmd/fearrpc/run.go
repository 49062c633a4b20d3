package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"fearrpc/config"
	"fearrpc/gamestate"
	"fearrpc/leveldb"
	"fearrpc/monitor"
	"fearrpc/presence"
	"fearrpc/session"
	"fearrpc/statslog"
)

func newRunCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Monitor the game and publish presence until interrupted",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := wireApp(ctx, cfg)
			if err != nil {
				return err
			}
			defer a.close()

			log.Infoln("Session", a.monitor.Restore(), "from", a.store.Path())

			err = a.monitor.Run(ctx)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
}

// app is everything run owns for the lifetime of the process.
type app struct {
	monitor *monitor.Monitor
	store   *session.Store
	journal *statslog.Journal
	rdb     *redis.Client
}

func wireApp(ctx context.Context, cfg config.Config) (*app, error) {
	levels, err := leveldb.Load(cfg.Resolve(cfg.LevelDatabase))
	if err != nil {
		log.Warn("Level database: ", err)
	}

	journal, err := statslog.Open(cfg.Resolve(cfg.StatsFile), levels)
	if err != nil {
		return nil, err
	}

	a := &app{
		store:   session.NewStore(cfg.Resolve(cfg.Session.File), cfg.Session.MaxAge, cfg.Session.AutoSaveInterval),
		journal: journal,
	}

	publishers := presence.Publishers{presence.NewLogPublisher()}
	if cfg.Redis.URL != "" {
		rdb, err := presence.DialRedis(ctx, cfg.Redis.URL)
		if err != nil {
			journal.Close()
			return nil, err
		}
		a.rdb = rdb
		publishers = append(publishers, presence.NewRedisPublisher(rdb, cfg.AppID, cfg.Redis.Channel))
		log.Infoln("Publishing presence to redis channel", cfg.Redis.Channel)
	}

	plat := newPlatform()
	a.monitor = monitor.New(monitor.Options{
		Candidates:   cfg.Processes,
		Finder:       plat.finder,
		Opener:       plat.opener,
		Ladder:       plat.ladder,
		Discovery:    cfg.DiscoveryConfig(),
		Bounds:       cfg.BoundsTable(),
		Levels:       levels,
		Session:      a.store,
		Rotator:      presence.NewRotator(cfg.Images, cfg.ImageInterval),
		Publisher:    publishers,
		Sinks:        []gamestate.Sink{journal},
		PollInterval: cfg.PollInterval,
		Verbose:      cfg.Verbose,
	})
	return a, nil
}

func (a *app) close() {
	// ctx is usually cancelled by now; shutdown gets its own deadline
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := a.monitor.Close(ctx); err != nil {
		log.Warn("Close monitor: ", err)
	}
	if a.rdb != nil {
		a.rdb.Close()
	}
	if err := a.journal.Close(); err != nil {
		log.Warn("Close stats journal: ", err)
	}
}
