package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"storefront/internal/broker/kafka"
	"storefront/internal/config"
	"storefront/internal/integrations/resend"
	"storefront/internal/integrations/twilio"
	"storefront/internal/notify"

	"github.com/joho/godotenv"
)

// notificationsトピックを読んでSMS/メールを送る
func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config", "error", err.Error())
		os.Exit(1)
	}
	if cfg.IsProd() {
		slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))
	}
	if len(cfg.KafkaBrokers) == 0 {
		slog.Error("KAFKA_BROKERS is required")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	router := notify.NewRouter(
		twilio.New("", cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioPhoneNumber),
		resend.New("", cfg.ResendAPIKey, cfg.EmailFrom),
	)

	consumer := kafka.NewConsumer(cfg.KafkaBrokers, cfg.NotifyTopic, cfg.NotifyGroup)
	defer consumer.Close()

	slog.Info("notify worker started", "topic", cfg.NotifyTopic, "group", cfg.NotifyGroup)
	if err := consumer.Consume(ctx, notify.Handler(router)); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("consume", "error", err.Error())
		os.Exit(1)
	}
	slog.Info("notify worker stopped")
}
