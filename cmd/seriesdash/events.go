package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/seriesdash/seriesdash/internal/config"
	"github.com/seriesdash/seriesdash/internal/queue"
	"github.com/seriesdash/seriesdash/internal/subscriber"
)

func eventsCmd(opts *rootOptions) *cobra.Command {
	subCfg := subscriber.DefaultConfig()

	cmd := &cobra.Command{
		Use:   "events",
		Short: "Print run events from the configured queue as JSON lines",
		Long: `Joins a consumer group on the run event subject and prints every
finished run as one JSON object per line until interrupted. Consumers in
the same group share the events; use distinct groups to fan out.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			subCfg.Logger = cliLogger(cmd)

			sub, err := subscriber.NewSubscriber(cfg.Queue, subCfg)
			if err != nil {
				return err
			}
			defer func() { _ = sub.Close() }()

			parent := cmd.Context()
			if parent == nil {
				parent = context.Background()
			}
			ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
			defer stop()

			var mu sync.Mutex
			enc := json.NewEncoder(cmd.OutOrStdout())
			handler := subscriber.RunEvents(subCfg.Logger, func(ctx context.Context, ev queue.RunEvent) error {
				mu.Lock()
				defer mu.Unlock()
				return enc.Encode(ev)
			})
			if err := sub.Subscribe(ctx, cfg.Queue.Subject, handler); err != nil {
				return err
			}

			<-ctx.Done()
			return nil
		},
	}

	cmd.Flags().StringVar(&subCfg.ConsumerGroup, "group", subCfg.ConsumerGroup, "Consumer group")
	cmd.Flags().StringVar(&subCfg.ConsumerID, "consumer", subCfg.ConsumerID, "Consumer name inside the group")

	return cmd
}
