package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"

	"github.com/rajuthattil19-prog/datacol/internal/events"
	"github.com/rajuthattil19-prog/datacol/internal/ui"
)

var watchCmd = &cobra.Command{
	Use:     "watch",
	Short:   "Tail ingestion events published on NATS",
	GroupID: "query",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		natsURL, _ := cmd.Flags().GetString("nats-url")
		topic, _ := cmd.Flags().GetString("topic")
		if natsURL == "" {
			return fmt.Errorf("no NATS URL: set --nats-url or DATACOL_NATS_URL")
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		logger := newLogger(cmd.ErrOrStderr(), "info", "text")
		sub, err := events.NewNATSSubscriber(natsURL,
			nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
				logger.Warn("nats disconnected", "err", err)
			}),
			nats.ReconnectHandler(func(_ *nats.Conn) {
				logger.Info("nats reconnected")
			}),
		)
		if err != nil {
			return err
		}
		defer sub.Close()

		return runWatch(ctx, cmd.OutOrStdout(), sub, topic, logger)
	},
}

// runWatch prints every message on topic until ctx is done or the
// subscription closes.
func runWatch(ctx context.Context, w io.Writer, sub events.Subscriber, topic string, logger *slog.Logger) error {
	ch, cancel, err := sub.Subscribe(topic)
	if err != nil {
		return err
	}
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			if jsonOutput {
				fmt.Fprintf(w, "{\"topic\":%q,\"data\":%s}\n", msg.Topic, msg.Data)
				continue
			}
			line, err := formatMessage(msg)
			if err != nil {
				logger.Warn("skipping undecodable event", "topic", msg.Topic, "err", err)
				continue
			}
			fmt.Fprintf(w, "%s %s %s\n", ui.RenderMuted(time.Now().Format("15:04:05")), ui.RenderAccent(msg.Topic), line)
		}
	}
}

// formatMessage renders a decoded event as a one-line summary.
func formatMessage(msg events.Message) (string, error) {
	v, err := events.Decode(msg)
	if err != nil {
		return "", err
	}
	switch e := v.(type) {
	case *events.EventIngested:
		if e.Event == nil {
			return "", fmt.Errorf("missing event")
		}
		return fmt.Sprintf("origin=%d seq=%d actor=%d kind=%s",
			e.Event.OriginID, e.Event.SequenceID, e.Event.ActorID, e.Event.OriginKind), nil
	case *events.EventDuplicate:
		return fmt.Sprintf("origin=%d seq=%d", e.OriginID, e.SequenceID), nil
	case *events.BatchProcessed:
		r := e.Result
		return fmt.Sprintf("batch=%s mode=%s stored=%d duplicates=%d dropped=%d failures=%d",
			e.BatchID, e.Mode, r.Stored, r.Duplicates, r.Dropped, r.Failures), nil
	case *events.CursorAdvanced:
		return fmt.Sprintf("cursor=%s position=%d", e.Name, e.Position), nil
	}
	return "", fmt.Errorf("unhandled event %T", v)
}

func init() {
	watchCmd.Flags().String("nats-url", os.Getenv("DATACOL_NATS_URL"), "NATS server URL")
	watchCmd.Flags().String("topic", events.TopicAll, "subject to subscribe to")
}
