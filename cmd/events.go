/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/goaltrackr/apiserver/internal/mq"
	"github.com/goaltrackr/apiserver/types"
	"github.com/spf13/cobra"
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Inspect goal and progress events",
}

var eventsWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Subscribe to the event channel and log each event",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		broker, err := mq.FromConfig(ctx, cfg.MQ)
		if err != nil {
			return err
		}
		if broker == nil {
			return errors.New("MQ_BACKEND is not set")
		}
		defer broker.Close()

		slog.Info("watching events", "backend", cfg.MQ.Backend, "channel", cfg.MQ.Channel)
		err = broker.Subscribe(ctx, cfg.MQ.Channel, logEvent)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	},
}

func logEvent(ctx context.Context, msg mq.Message) error {
	var event types.Event
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		// Undecodable messages are dropped rather than redelivered forever.
		slog.WarnContext(ctx, "skipping malformed event", "id", msg.ID, "error", err)
		return nil
	}
	slog.InfoContext(ctx, "event",
		"id", msg.ID,
		"type", event.Type,
		"user_id", event.UserID,
		"goal_id", event.GoalID,
		"note_id", event.NoteID,
		"at", event.At,
	)
	return nil
}

func init() {
	rootCmd.AddCommand(eventsCmd)
	eventsCmd.AddCommand(eventsWatchCmd)
}
