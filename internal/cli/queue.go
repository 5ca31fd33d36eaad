package cli

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func NewQueueCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "queue",
		Short: "List checkouts waiting to be replayed",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			s, err := openSession(ctx, opts)
			if err != nil {
				return err
			}
			defer s.Close()

			entries, err := s.terminal.Pending(ctx)
			if err != nil {
				return err
			}
			if opts.Format == "json" {
				return writeJSON(cmd.OutOrStdout(), entries)
			}
			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Queue is empty.")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "SEQ\tTEMP ID\tTOTAL\tATTEMPTS\tLAST ERROR")
			for _, e := range entries {
				fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%s\n", e.Seq, e.TempID, e.Request.Total.StringFixed(2), e.Attempts, e.LastError)
			}
			return w.Flush()
		},
	}
}

func NewSyncCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Replay queued checkouts against the server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			s, err := openSession(ctx, opts)
			if err != nil {
				return err
			}
			defer s.Close()

			report, err := s.terminal.Replay(ctx)
			if err != nil {
				return err
			}
			if opts.Format == "json" {
				return writeJSON(cmd.OutOrStdout(), report)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Replayed %d of %d, %d failed, %d remaining\n",
				report.Replayed, report.Attempted, report.Failed, report.Remaining)
			return nil
		},
	}
}

func NewViewCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "view",
		Short: "Show products, recent transactions and today's stats",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			s, err := openSession(ctx, opts)
			if err != nil {
				return err
			}
			defer s.Close()

			if _, err := s.start(ctx, opts); err != nil {
				return err
			}
			view := s.terminal.View()
			if opts.Format == "json" {
				return writeJSON(cmd.OutOrStdout(), view)
			}

			out := cmd.OutOrStdout()
			if view.Stale {
				fmt.Fprintln(out, "(offline view, may be out of date)")
			}
			fmt.Fprintf(out, "Today: %d transactions, %s\n", view.Stats.Count, view.Stats.Total.StringFixed(2))

			w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "PRODUCT\tPRICE\tSTOCK")
			for _, p := range view.Products {
				fmt.Fprintf(w, "%s\t%s\t%d\n", p.Name, p.Price.StringFixed(2), p.Stock)
			}
			return w.Flush()
		},
	}
}
