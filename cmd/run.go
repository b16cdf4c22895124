package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ErraticFox/atov/internal/config"
	"github.com/ErraticFox/atov/internal/engine"
	"github.com/ErraticFox/atov/internal/page"
	"github.com/ErraticFox/atov/internal/shift"
	"github.com/ErraticFox/atov/internal/store"
	"github.com/spf13/cobra"
)

func newRunCmd() *cobra.Command {
	var pageType string

	c := &cobra.Command{
		Use:   "run",
		Short: "Run in the foreground until an offer is accepted or the attempt fails (headless, no web UI)",
		RunE: func(cmd *cobra.Command, args []string) error {
			pt, err := shift.ParsePageType(pageType)
			if err != nil {
				return err
			}
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

			st, ok, err := runStore.Get(ctx, pt)
			if err != nil {
				return err
			}
			if !ok || len(st.Targets) == 0 {
				return fmt.Errorf("no targets configured for %s (use 'atov target add')", pt)
			}
			st.IsRunning = true
			st.CycleStartMs = 0
			if err := runStore.Set(ctx, pt, st); err != nil {
				return err
			}

			portal := page.NewPortal(pt, cfg.PortalBaseURL, cfg.PortalSession)
			e := engine.New(pt, portal, runStore)
			go e.SessionGuard(ctx, cfg.GuardInterval)

			out, err := e.RunLoop(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stdout, "run finished: %s\n", out)
			return nil
		},
	}

	c.Flags().StringVar(&pageType, "page-type", "vto", "page to watch: vto or vet")
	return c
}
