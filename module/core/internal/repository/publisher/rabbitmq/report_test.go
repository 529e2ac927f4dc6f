package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/gmontoya2483/Shushme/module/core/domain"
)

type fakeChannel struct {
	exchange string
	msg      amqp.Publishing
	err      error
}

func (f *fakeChannel) PublishWithContext(_ context.Context, exchange, _ string, _, _ bool, msg amqp.Publishing) error {
	f.exchange = exchange
	f.msg = msg
	return f.err
}

func TestPublishReport_Success(t *testing.T) {
	ch := &fakeChannel{}
	p := &ReportPublisher{ch: ch}

	err := p.PublishReport(context.Background(), &domain.Report{
		OperationID: "op-1",
		Kind:        domain.OperationAdd,
		RegionIDs:   []string{"a"},
		Status:      domain.StatusFailed,
		Err:         domain.ErrTransientFailure,
		Timestamp:   time.Unix(1715003456, 0),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if ch.exchange != ExchangeName {
		t.Errorf("expected exchange %s, got %s", ExchangeName, ch.exchange)
	}
	if ch.msg.MessageId != "op-1" {
		t.Errorf("expected message id op-1, got %s", ch.msg.MessageId)
	}

	var got map[string]interface{}
	if err := json.Unmarshal(ch.msg.Body, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got["event"] != "geofence_add_failed" {
		t.Errorf("expected geofence_add_failed, got %v", got["event"])
	}
	if got["code"] != domain.CodeTransientFailure {
		t.Errorf("expected transient_failure, got %v", got["code"])
	}
	if got["operation_id"] != "op-1" {
		t.Errorf("expected op-1, got %v", got["operation_id"])
	}
}

func TestPublishReport_ChannelError(t *testing.T) {
	p := &ReportPublisher{ch: &fakeChannel{err: errors.New("channel closed")}}

	err := p.PublishReport(context.Background(), &domain.Report{Kind: domain.OperationRemove})
	if err == nil {
		t.Fatal("expected error")
	}
}
