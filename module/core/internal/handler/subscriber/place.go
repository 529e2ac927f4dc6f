package subscriber

import (
	"context"
	"encoding/json"
	"errors"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"github.com/gmontoya2483/Shushme/module/core/domain"
)

const DefaultPlacesTopic = "placewatch/places"

type placeService interface {
	ReplacePlaces(ctx context.Context, places []domain.Place) error
}

// placeMessage is a full snapshot of the places to watch. A nil Places
// means the field was missing, which is not the same as an empty snapshot.
type placeMessage struct {
	Places *[]domain.Place `json:"places"`
}

type PlaceSubscriber struct {
	client   mqtt.Client
	topic    string
	placeSvc placeService
	log      *zap.Logger
}

func NewPlaceSubscriber(client mqtt.Client, topic string, placeSvc placeService, log *zap.Logger) *PlaceSubscriber {
	if topic == "" {
		topic = DefaultPlacesTopic
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &PlaceSubscriber{
		client:   client,
		topic:    topic,
		placeSvc: placeSvc,
		log:      log,
	}
}

func (s *PlaceSubscriber) Start() error {
	token := s.client.Subscribe(s.topic, 1, s.handleMessage)
	token.Wait()
	return token.Error()
}

// Stop unsubscribes from the places topic.
func (s *PlaceSubscriber) Stop() error {
	token := s.client.Unsubscribe(s.topic)
	token.Wait()
	return token.Error()
}

func (s *PlaceSubscriber) handleMessage(_ mqtt.Client, msg mqtt.Message) {
	var raw placeMessage
	if err := json.Unmarshal(msg.Payload(), &raw); err != nil {
		s.log.Warn("invalid place message", zap.String("topic", msg.Topic()), zap.Error(err))
		return
	}

	if err := validatePlaceMessage(&raw); err != nil {
		s.log.Warn("validation error", zap.String("topic", msg.Topic()), zap.Error(err))
		return
	}

	if err := s.placeSvc.ReplacePlaces(context.Background(), *raw.Places); err != nil {
		s.log.Error("replace places error", zap.Error(err))
		return
	}

	s.log.Debug("place snapshot accepted", zap.Int("places", len(*raw.Places)))
}

// validatePlaceMessage checks the envelope only. Coordinates and ids are
// validated per region by the synchronizer so one bad place does not drop
// the whole snapshot.
func validatePlaceMessage(msg *placeMessage) error {
	if msg.Places == nil {
		return errors.New("places: required")
	}
	return nil
}
