package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/iliyamo/hotel-reservation/internal/config"
	"github.com/iliyamo/hotel-reservation/internal/logging"
	"github.com/iliyamo/hotel-reservation/internal/queue"
)

// NewConsumeCommand returns the consume command, which appends booking
// events from RabbitMQ to the booking log until interrupted.
func NewConsumeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "consume",
		Short: "Write booking events to the booking log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			level := rootOpts.LogLevel
			if level == "" {
				level = os.Getenv("LOG_LEVEL")
			}
			log, err := logging.New(os.Getenv("APP_ENV"), level)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			bcfg := config.LoadBookingConfig()
			err = queue.StartBookingConsumer(ctx, queue.ConsumerConfig{
				URL:     bcfg.AMQPURL,
				Queue:   bcfg.Queue,
				LogPath: bcfg.LogPath,
			}, log)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
}
