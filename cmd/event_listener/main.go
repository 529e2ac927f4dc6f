package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/gmontoya2483/Shushme/config"
	"github.com/gmontoya2483/Shushme/module/core/domain"
)

const (
	exchangeName = "placewatch.events"
	queueName    = "geofence_reports"
)

type reportEvent struct {
	Event string `json:"event"`
	domain.OperationRecord
}

func main() {
	cfg, err := config.Load(".")
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log, err := config.NewLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Fatal("listener stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	conn, err := config.NewRabbitMQ(cfg, "placewatch-event-listener")
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("rabbitmq channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.ExchangeDeclare(exchangeName, "fanout", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}
	if _, err := ch.QueueDeclare(queueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}
	if err := ch.QueueBind(queueName, "", exchangeName, false, nil); err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}

	msgs, err := ch.Consume(queueName, "", true, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume: %w", err)
	}

	log.Info("consuming geofence reports", zap.String("queue", queueName))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("shutting down")
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return fmt.Errorf("delivery channel closed")
			}
			logReport(log, msg)
		}
	}
}

func logReport(log *zap.Logger, msg amqp.Delivery) {
	var ev reportEvent
	if err := json.Unmarshal(msg.Body, &ev); err != nil {
		log.Warn("undecodable report", zap.String("message_id", msg.MessageId), zap.Error(err))
		return
	}

	fields := []zap.Field{
		zap.String("event", ev.Event),
		zap.String("operation_id", ev.OperationID),
		zap.Strings("region_ids", ev.RegionIDs),
		zap.String("code", ev.Code),
		zap.Int64("duration_ms", ev.DurationMs),
	}
	if ev.Status == domain.StatusFailed {
		log.Warn("operation failed", append(fields, zap.String("reason", ev.Reason))...)
		return
	}
	log.Info("operation succeeded", fields...)
}
