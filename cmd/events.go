/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"errors"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/inkpost/blogapi/internal/mq"
	"github.com/inkpost/blogapi/types"
	"github.com/spf13/cobra"
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Inspect content change events",
}

var eventsTailCmd = &cobra.Command{
	Use:   "tail",
	Short: "Log every event published on the configured channel",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		broker, err := mq.FromConfig(ctx, cfg.MQ)
		if err != nil {
			return err
		}
		if broker == nil {
			return errors.New("no mq backend configured (set MQ_BACKEND)")
		}
		defer broker.Close()

		slog.Info("tailing events", slog.String("channel", cfg.MQ.Channel))
		return mq.NewEvents(broker, cfg.MQ.Channel).Tail(ctx, func(ctx context.Context, e types.Event) error {
			slog.InfoContext(ctx, "event",
				slog.String("type", e.Type),
				slog.String("post_id", e.PostID),
				slog.String("slug", e.Slug),
				slog.String("comment_id", e.CommentID),
				slog.Time("occurred_at", e.OccurredAt))
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(eventsCmd)
	eventsCmd.AddCommand(eventsTailCmd)
}
