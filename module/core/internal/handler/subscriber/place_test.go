package subscriber

import (
	"context"
	"errors"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/gmontoya2483/Shushme/module/core/domain"
)

type mockPlaceSvc struct {
	replacePlacesFn func(ctx context.Context, places []domain.Place) error
}

func (m *mockPlaceSvc) ReplacePlaces(ctx context.Context, places []domain.Place) error {
	return m.replacePlacesFn(ctx, places)
}

type fakeMQTTMessage struct {
	payload []byte
}

func (f *fakeMQTTMessage) Duplicate() bool   { return false }
func (f *fakeMQTTMessage) Qos() byte         { return 1 }
func (f *fakeMQTTMessage) Retained() bool    { return false }
func (f *fakeMQTTMessage) Topic() string     { return DefaultPlacesTopic }
func (f *fakeMQTTMessage) MessageID() uint16 { return 0 }
func (f *fakeMQTTMessage) Payload() []byte   { return f.payload }
func (f *fakeMQTTMessage) Ack()              {}

func TestHandleMessage_Success(t *testing.T) {
	var got []domain.Place
	svc := &mockPlaceSvc{
		replacePlacesFn: func(_ context.Context, p []domain.Place) error {
			got = p
			return nil
		},
	}

	sub := NewPlaceSubscriber(nil, "", svc, nil)
	payload := []byte(`{"places":[{"place_id":"ChIJ1","latitude":-6.2088,"longitude":106.8456},{"place_id":"ChIJ2","latitude":1,"longitude":2}]}`)
	sub.handleMessage(nil, &fakeMQTTMessage{payload: payload})

	if len(got) != 2 {
		t.Fatalf("expected 2 places, got %d", len(got))
	}
	if got[0].ID != "ChIJ1" || got[0].Lat != -6.2088 || got[0].Lon != 106.8456 {
		t.Errorf("unexpected first place %+v", got[0])
	}
}

func TestHandleMessage_EmptySnapshot(t *testing.T) {
	called := false
	svc := &mockPlaceSvc{
		replacePlacesFn: func(_ context.Context, p []domain.Place) error {
			called = true
			if len(p) != 0 {
				t.Fatalf("expected no places, got %v", p)
			}
			return nil
		},
	}

	sub := NewPlaceSubscriber(nil, "", svc, nil)
	sub.handleMessage(nil, &fakeMQTTMessage{payload: []byte(`{"places":[]}`)})

	if !called {
		t.Fatal("expected ReplacePlaces to be called for an empty snapshot")
	}
}

func TestHandleMessage_InvalidMessages(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"malformed json", `{places`},
		{"missing places", `{}`},
		{"null places", `{"places":null}`},
		{"wrong type", `{"places":"ChIJ1"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockPlaceSvc{
				replacePlacesFn: func(_ context.Context, _ []domain.Place) error {
					t.Fatal("ReplacePlaces should not be called")
					return nil
				},
			}

			core, logs := observer.New(zap.WarnLevel)
			sub := NewPlaceSubscriber(nil, "", svc, zap.New(core))
			sub.handleMessage(nil, &fakeMQTTMessage{payload: []byte(tt.payload)})

			if logs.Len() != 1 {
				t.Errorf("expected 1 warning, got %d", logs.Len())
			}
		})
	}
}

func TestHandleMessage_ServiceError(t *testing.T) {
	svc := &mockPlaceSvc{
		replacePlacesFn: func(_ context.Context, _ []domain.Place) error {
			return errors.New("db error")
		},
	}

	core, logs := observer.New(zap.ErrorLevel)
	sub := NewPlaceSubscriber(nil, "", svc, zap.New(core))
	sub.handleMessage(nil, &fakeMQTTMessage{payload: []byte(`{"places":[]}`)})

	entries := logs.FilterMessage("replace places error").All()
	if len(entries) != 1 {
		t.Fatalf("expected replace places error to be logged, got %d entries", logs.Len())
	}
}

func TestNewPlaceSubscriber_Topic(t *testing.T) {
	if got := NewPlaceSubscriber(nil, "", nil, nil).topic; got != DefaultPlacesTopic {
		t.Errorf("expected default topic, got %s", got)
	}
	if got := NewPlaceSubscriber(nil, "custom/places", nil, nil).topic; got != "custom/places" {
		t.Errorf("expected custom topic, got %s", got)
	}
}

type doneToken struct{ err error }

func (t doneToken) Wait() bool                     { return true }
func (t doneToken) WaitTimeout(time.Duration) bool { return true }
func (t doneToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
func (t doneToken) Error() error { return t.err }

// fakeClient embeds mqtt.Client so only the calls under test need bodies.
type fakeClient struct {
	mqtt.Client
	subscribed   string
	unsubscribed []string
}

func (f *fakeClient) Subscribe(topic string, _ byte, _ mqtt.MessageHandler) mqtt.Token {
	f.subscribed = topic
	return doneToken{}
}

func (f *fakeClient) Unsubscribe(topics ...string) mqtt.Token {
	f.unsubscribed = append(f.unsubscribed, topics...)
	return doneToken{}
}

func TestStartStop_PlacesTopic(t *testing.T) {
	client := &fakeClient{}
	sub := NewPlaceSubscriber(client, "custom/places", nil, nil)

	if err := sub.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	if client.subscribed != "custom/places" {
		t.Errorf("expected subscription to custom/places, got %q", client.subscribed)
	}

	if err := sub.Stop(); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if len(client.unsubscribed) != 1 || client.unsubscribed[0] != "custom/places" {
		t.Errorf("expected custom/places to be unsubscribed, got %v", client.unsubscribed)
	}
}
