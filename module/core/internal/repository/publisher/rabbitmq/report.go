package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/gmontoya2483/Shushme/module/core/domain"
	"github.com/gmontoya2483/Shushme/module/core/internal/repository/publisher"
)

var _ publisher.ReportPublisher = (*ReportPublisher)(nil)

const (
	ExchangeName = "placewatch.events"
	QueueName    = "geofence_reports"
)

type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

type ReportPublisher struct {
	ch channel
}

func NewReportPublisher(conn *amqp.Connection) (*ReportPublisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("rabbitmq channel: %w", err)
	}

	if err := ch.ExchangeDeclare(ExchangeName, "fanout", true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	if _, err := ch.QueueDeclare(QueueName, true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("declare queue: %w", err)
	}

	if err := ch.QueueBind(QueueName, "", ExchangeName, false, nil); err != nil {
		return nil, fmt.Errorf("bind queue: %w", err)
	}

	return &ReportPublisher{ch: ch}, nil
}

type reportMessage struct {
	Event string `json:"event"`
	domain.OperationRecord
}

func eventName(r *domain.Report) string {
	return fmt.Sprintf("geofence_%s_%s", r.Kind, r.Status)
}

func (p *ReportPublisher) PublishReport(ctx context.Context, r *domain.Report) error {
	body, err := json.Marshal(reportMessage{
		Event:           eventName(r),
		OperationRecord: domain.NewOperationRecord(r),
	})
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	return p.ch.PublishWithContext(ctx, ExchangeName, "", false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    r.OperationID,
		Body:         body,
	})
}
