package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/ErraticFox/atov/internal/config"
	"github.com/ErraticFox/atov/internal/shift"
	"github.com/ErraticFox/atov/internal/store"
	"github.com/spf13/cobra"
)

func newTargetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "target",
		Short: "Manage acceptance targets (non-UI)",
	}
	cmd.AddCommand(newTargetListCmd())
	cmd.AddCommand(newTargetAddCmd())
	cmd.AddCommand(newTargetRemoveCmd())
	return cmd
}

func openStore(ctx context.Context) (*store.Redis, func(), error) {
	cfg, err := config.FromEnv()
	if err != nil {
		return nil, nil, err
	}
	rdb, err := store.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		return nil, nil, err
	}
	return store.NewRedis(rdb), func() { _ = rdb.Close() }, nil
}

func newTargetListCmd() *cobra.Command {
	var pageType string

	c := &cobra.Command{
		Use:   "list",
		Short: "List configured targets in priority order",
		RunE: func(cmd *cobra.Command, args []string) error {
			pt, err := shift.ParsePageType(pageType)
			if err != nil {
				return err
			}
			ctx := context.Background()
			s, closeFn, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer closeFn()

			st, ok, err := s.Get(ctx, pt)
			if err != nil {
				return err
			}
			if !ok || len(st.Targets) == 0 {
				fmt.Fprintf(os.Stdout, "no targets for %s\n", pt)
				return nil
			}
			state := "stopped"
			if st.IsRunning {
				state = "running"
			}
			fmt.Fprintf(os.Stdout, "%s (%s, shift %s - %s):\n", pt, state, st.Shift.Start, st.Shift.End)
			for i, t := range st.Targets {
				fmt.Fprintf(os.Stdout, "  %d. %s\n", i, t.Describe())
			}
			return nil
		},
	}

	c.Flags().StringVar(&pageType, "page-type", "vto", "vto or vet")
	return c
}

func newTargetAddCmd() *cobra.Command {
	var (
		pageType   string
		date       string
		start, end string
		fullShift  bool
		acceptAny  bool
		minHours   float64
		shiftStart string
		shiftEnd   string
	)

	c := &cobra.Command{
		Use:   "add",
		Short: "Append a target (lowest priority)",
		RunE: func(cmd *cobra.Command, args []string) error {
			pt, err := shift.ParsePageType(pageType)
			if err != nil {
				return err
			}
			ctx := context.Background()
			s, closeFn, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer closeFn()

			st, _, err := s.Get(ctx, pt)
			if err != nil {
				return err
			}
			if shiftStart != "" {
				st.Shift.Start = shiftStart
			}
			if shiftEnd != "" {
				st.Shift.End = shiftEnd
			}
			if err := st.Shift.Validate(); err != nil {
				return fmt.Errorf("shift bounds: %w (set --shift-start/--shift-end)", err)
			}

			var target shift.Target
			switch {
			case fullShift:
				target = shift.FullShiftTarget(date, st.Shift)
			case acceptAny:
				target = shift.Target{Date: date, AcceptAny: true, MinDuration: minHours}
			default:
				target = shift.Target{Date: date, StartTime: start, EndTime: end}
			}
			if err := target.Validate(); err != nil {
				return err
			}

			st.Targets = append(st.Targets, target)
			if err := s.Set(ctx, pt, st); err != nil {
				return err
			}
			fmt.Fprintf(os.Stdout, "added target %d: %s\n", len(st.Targets)-1, target.Describe())
			return nil
		},
	}

	c.Flags().StringVar(&pageType, "page-type", "vto", "vto or vet")
	c.Flags().StringVar(&date, "date", "", "date YYYY-MM-DD (empty = any)")
	c.Flags().StringVar(&start, "start", "", "range start HH:MM")
	c.Flags().StringVar(&end, "end", "", "range end HH:MM")
	c.Flags().BoolVar(&fullShift, "full-shift", false, "target the whole shift")
	c.Flags().BoolVar(&acceptAny, "any", false, "accept any offer within the shift")
	c.Flags().Float64Var(&minHours, "min-hours", 0, "minimum offer duration in hours (with --any)")
	c.Flags().StringVar(&shiftStart, "shift-start", "", "shift start HH:MM")
	c.Flags().StringVar(&shiftEnd, "shift-end", "", "shift end HH:MM")
	return c
}

func newTargetRemoveCmd() *cobra.Command {
	var (
		pageType string
		index    int
	)

	c := &cobra.Command{
		Use:   "rm",
		Short: "Remove a target by index",
		RunE: func(cmd *cobra.Command, args []string) error {
			pt, err := shift.ParsePageType(pageType)
			if err != nil {
				return err
			}
			ctx := context.Background()
			s, closeFn, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer closeFn()

			st, ok, err := s.Get(ctx, pt)
			if err != nil {
				return err
			}
			if !ok || index < 0 || index >= len(st.Targets) {
				return fmt.Errorf("no target at index %d", index)
			}
			removed := st.Targets[index]
			st.Targets = append(st.Targets[:index:index], st.Targets[index+1:]...)
			if err := s.Set(ctx, pt, st); err != nil {
				return err
			}
			fmt.Fprintf(os.Stdout, "removed: %s\n", removed.Describe())
			return nil
		},
	}

	c.Flags().StringVar(&pageType, "page-type", "vto", "vto or vet")
	c.Flags().IntVar(&index, "index", -1, "target index from 'target list'")
	_ = c.MarkFlagRequired("index")
	return c
}
