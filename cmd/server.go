package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/ErraticFox/atov/internal/attempts"
	"github.com/ErraticFox/atov/internal/auth"
	"github.com/ErraticFox/atov/internal/config"
	"github.com/ErraticFox/atov/internal/db"
	"github.com/ErraticFox/atov/internal/engine"
	"github.com/ErraticFox/atov/internal/page"
	"github.com/ErraticFox/atov/internal/sched"
	"github.com/ErraticFox/atov/internal/shift"
	"github.com/ErraticFox/atov/internal/store"
	"github.com/ErraticFox/atov/internal/web"
	"github.com/spf13/cobra"
)

func newServerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "server",
		Short: "Run the control surface + acceptance engines",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.FromEnv()
			if err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			rdb, err := store.NewRedisClient(ctx, cfg.RedisURL)
			if err != nil {
				return err
			}
			defer rdb.Close()
			runStore := store.NewRedis(rdb)
			authStore := auth.NewStore(rdb, cfg.CookieHashKey, cfg.CookieBlockKey)

			var recorder attempts.Recorder = attempts.Noop{}
			var history web.History
			if cfg.DatabaseURL != "" {
				d, err := db.Open(ctx, cfg.DatabaseURL)
				if err != nil {
					return err
				}
				defer d.Close()
				if err := d.Ping(ctx); err != nil {
					return fmt.Errorf("db ping: %w", err)
				}
				if err := attempts.EnsureSchema(ctx, d); err != nil {
					return err
				}
				repo := attempts.NewRepo(d)
				recorder = repo
				history = repo
			} else {
				log.Println("server: DATABASE_URL unset, attempt history disabled")
			}

			engines := map[shift.PageType]*engine.Engine{}
			for _, pt := range []shift.PageType{shift.PageVTO, shift.PageVET} {
				portal := page.NewPortal(pt, cfg.PortalBaseURL, cfg.PortalSession)
				e := engine.New(pt, portal, runStore)
				e.History = recorder
				e.Background = ctx

				ticker, err := sched.New(cfg.TickSpec, func() {
					if _, err := e.Check(ctx); err != nil {
						log.Printf("tick: %v", err)
					}
				})
				if err != nil {
					return err
				}
				defer ticker.Close()
				e.Ticker = ticker

				go e.SessionGuard(ctx, cfg.GuardInterval)
				if err := e.Resume(ctx); err != nil {
					log.Printf("server: resume %s: %v", pt, err)
				}
				engines[pt] = e
			}

			ws := &web.Server{
				Auth:    authStore,
				Store:   runStore,
				Engines: engines,
				History: history,
			}
			return web.Start(ctx, cfg.ListenAddr, ws.Routes())
		},
	}
}
