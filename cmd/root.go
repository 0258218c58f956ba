package cmd

import (
	"context"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "dispatch",
		Short:         "Partner dispatch service: job claiming, status updates and live positions",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newServeCmd())
	root.AddCommand(newMigrateCmd())
	root.AddCommand(newPartnerCmd())
	root.AddCommand(newJobCmd())

	return root
}

func Execute() error {
	return NewRootCmd().Execute()
}

func newLogger(cfg Config) *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
}

// withRoot loads the configuration, builds the composition root for one CLI
// command and closes it afterwards.
func withRoot(ctx context.Context, fn func(ctx context.Context, root *CompositionRoot) error) error {
	cfg, err := LoadConfig()
	if err != nil {
		return err
	}
	root, err := NewCompositionRoot(ctx, cfg, newLogger(cfg))
	if err != nil {
		return err
	}
	defer root.Close()
	return fn(ctx, root)
}
