package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/ErraticFox/atov/internal/attempts"
	"github.com/ErraticFox/atov/internal/config"
	"github.com/ErraticFox/atov/internal/db"
	"github.com/ErraticFox/atov/internal/shift"
	"github.com/spf13/cobra"
)

func newAttemptsCmd() *cobra.Command {
	var (
		pageType string
		limit    int
	)

	c := &cobra.Command{
		Use:   "attempts",
		Short: "Show recent acceptance attempts",
		RunE: func(cmd *cobra.Command, args []string) error {
			pt, err := shift.ParsePageType(pageType)
			if err != nil {
				return err
			}
			cfg, err := config.FromEnv()
			if err != nil {
				return err
			}
			if cfg.DatabaseURL == "" {
				return fmt.Errorf("DATABASE_URL is required for attempt history")
			}

			ctx := context.Background()
			d, err := db.Open(ctx, cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer d.Close()

			list, err := attempts.NewRepo(d).Recent(ctx, pt, limit)
			if err != nil {
				return err
			}
			if len(list) == 0 {
				fmt.Fprintf(os.Stdout, "no attempts recorded for %s\n", pt)
				return nil
			}
			for _, a := range list {
				fmt.Fprintf(os.Stdout, "%s  %-8s  %s %s  [%s]  %s\n",
					a.CreatedAt.Format("2006-01-02 15:04:05"), a.Outcome, a.OfferDate, a.OfferTime, a.Target, a.Detail)
			}
			return nil
		},
	}

	c.Flags().StringVar(&pageType, "page-type", "vto", "vto or vet")
	c.Flags().IntVar(&limit, "limit", 20, "max rows")
	return c
}
