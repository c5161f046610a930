package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/alxtravel/server/internal/app"
)

// withDependencies builds the service graph, runs fn with notification
// workers started, and tears everything down afterwards.
func withDependencies(ctx context.Context, opts *options, fn func(ctx context.Context, deps *app.Dependencies) error) error {
	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	deps, cleanup, err := app.BuildDependencies(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	deps.Dispatcher.Start(ctx)
	defer deps.Dispatcher.Stop()

	return fn(ctx, deps)
}

func verifyCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "verify <transaction-id>",
		Short: "Verify a payment with the gateway and settle it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDependencies(cmd.Context(), opts, func(ctx context.Context, deps *app.Dependencies) error {
				out, err := deps.PaymentDomain.Verify(ctx, args[0])
				if err != nil {
					return fmt.Errorf("verify %s: %w", args[0], err)
				}
				return printJSON(cmd.OutOrStdout(), out)
			})
		},
	}
}

func refundCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "refund <transaction-id>",
		Short: "Record that a completed payment was refunded at the gateway",
		Long: `Record that a completed payment was refunded at the gateway.

No money is moved: the refund must already have been issued from the
gateway dashboard. Only completed payments can be marked refunded.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDependencies(cmd.Context(), opts, func(ctx context.Context, deps *app.Dependencies) error {
				p, err := deps.PaymentDomain.MarkRefunded(ctx, args[0])
				if err != nil {
					return fmt.Errorf("refund %s: %w", args[0], err)
				}
				return printJSON(cmd.OutOrStdout(), p.ToResponse())
			})
		},
	}
}

func reconcileCmd(opts *options) *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Verify one batch of stale pending payments",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			return withDependencies(ctx, opts, func(ctx context.Context, deps *app.Dependencies) error {
				result, err := deps.Reconciler.RunOnce(ctx)
				if err != nil {
					return fmt.Errorf("reconcile: %w", err)
				}
				return printJSON(cmd.OutOrStdout(), result)
			})
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Minute, "maximum time for the pass")

	return cmd
}
