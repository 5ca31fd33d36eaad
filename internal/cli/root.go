// Package cli implements posclient, the terminal side of the checkout service.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fekuna/omnipos-checkout-service/config"
	"github.com/fekuna/omnipos-checkout-service/internal/apperror"
	"github.com/fekuna/omnipos-checkout-service/internal/offline"
	"github.com/fekuna/omnipos-checkout-service/internal/offline/client"
	"github.com/fekuna/omnipos-checkout-service/internal/offline/store"
	"github.com/fekuna/omnipos-checkout-service/internal/pkg/logger"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ServerURL string
	TenantID  string
	QueuePath string
	Timeout   time.Duration
	Offline   bool
	Verbose   bool
	Format    string // "json" | "text"
}

var ValidFormats = []string{"text", "json"}

// NewRootCommand builds posclient. Flag defaults come from cfg.
func NewRootCommand(cfg config.ClientConfig) *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "posclient",
		Short: "OmniPOS terminal",
		Long:  "Point-of-sale terminal that keeps taking orders while the checkout service is unreachable.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.Format != "text" && opts.Format != "json" {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			if opts.TenantID == "" {
				return fmt.Errorf("tenant is required (--tenant or POS_TENANT_ID)")
			}
			return nil
		},
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&opts.ServerURL, "server", cfg.ServerURL, "checkout service base URL")
	cmd.PersistentFlags().StringVar(&opts.TenantID, "tenant", cfg.TenantID, "tenant id")
	cmd.PersistentFlags().StringVar(&opts.QueuePath, "queue", cfg.QueuePath, "path to the offline queue file")
	cmd.PersistentFlags().DurationVar(&opts.Timeout, "timeout", cfg.HTTPTimeout, "per-request timeout")
	cmd.PersistentFlags().BoolVar(&opts.Offline, "offline", false, "start offline and buffer every checkout")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewCheckoutCommand(opts))
	cmd.AddCommand(NewQueueCommand(opts))
	cmd.AddCommand(NewSyncCommand(opts))
	cmd.AddCommand(NewViewCommand(opts))

	return cmd
}

// session is an opened terminal plus the resources behind it.
type session struct {
	terminal *offline.Terminal
	queue    *store.SQLiteQueue
	log      logger.ZapLogger
}

func (s *session) Close() {
	s.queue.Close()
	s.log.Sync()
}

func openSession(ctx context.Context, opts *RootOptions) (*session, error) {
	level := "warn"
	if opts.Verbose {
		level = "debug"
	}
	log := logger.NewZapLogger(&logger.ZapLoggerConfig{
		Encoding:          "console",
		Level:             level,
		DisableCaller:     true,
		DisableStacktrace: true,
	})

	q, err := store.Open(ctx, opts.QueuePath)
	if err != nil {
		return nil, fmt.Errorf("open queue: %w", err)
	}

	api := client.New(opts.ServerURL, opts.Timeout)
	return &session{
		terminal: offline.NewTerminal(opts.TenantID, api, q, log),
		queue:    q,
		log:      log,
	}, nil
}

// start brings the terminal up. An unreachable server is not an error; the
// terminal simply stays offline. Local failures are returned.
func (s *session) start(ctx context.Context, opts *RootOptions) (*offline.ReplayReport, error) {
	report, err := s.terminal.Start(ctx, !opts.Offline)
	if err != nil && !opts.Offline && errors.Is(err, apperror.ErrTransient) {
		s.log.Warn("server unreachable, continuing offline", zap.Error(err))
		_, _ = s.terminal.SetOnline(ctx, false)
		return report, nil
	}
	return report, err
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
