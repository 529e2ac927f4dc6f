package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gmontoya2483/Shushme/module/core/domain"
	"github.com/gmontoya2483/Shushme/module/core/internal/repository/monitor"
)

var _ monitor.SubscriptionClient = (*SubscriptionClient)(nil)

const (
	DefaultRequestTopic = "placewatch/monitor/requests"
	DefaultResultTopic  = "placewatch/monitor/results"
	DefaultTimeout      = 30 * time.Second

	statusSuccess = "success"
	statusFailure = "failure"
)

type broker interface {
	IsConnectionOpen() bool
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	Subscribe(topic string, qos byte, callback mqtt.MessageHandler) mqtt.Token
}

type Options struct {
	RequestTopic string
	ResultTopic  string
	Timeout      time.Duration
}

type pendingRequest struct {
	ch    chan domain.Result
	timer *time.Timer
}

// SubscriptionClient talks to the region monitoring provider over MQTT.
// Requests go out on RequestTopic; the provider answers on ResultTopic with
// the request id it was given.
type SubscriptionClient struct {
	broker       broker
	requestTopic string
	resultTopic  string
	timeout      time.Duration
	log          *zap.Logger
	newID        func() string

	mu      sync.Mutex
	pending map[string]*pendingRequest
}

func NewSubscriptionClient(b broker, opts Options, log *zap.Logger) *SubscriptionClient {
	if opts.RequestTopic == "" {
		opts.RequestTopic = DefaultRequestTopic
	}
	if opts.ResultTopic == "" {
		opts.ResultTopic = DefaultResultTopic
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &SubscriptionClient{
		broker:       b,
		requestTopic: opts.RequestTopic,
		resultTopic:  opts.ResultTopic,
		timeout:      opts.Timeout,
		log:          log,
		newID:        uuid.NewString,
		pending:      make(map[string]*pendingRequest),
	}
}

// Start subscribes to the result topic. It must be called before any
// request is issued.
func (c *SubscriptionClient) Start() error {
	token := c.broker.Subscribe(c.resultTopic, 1, c.handleResult)
	token.Wait()
	return token.Error()
}

type wireRegion struct {
	ID           string   `json:"id"`
	Latitude     float64  `json:"latitude"`
	Longitude    float64  `json:"longitude"`
	RadiusMeters float64  `json:"radius_meters"`
	ExpirationMs int64    `json:"expiration_ms"`
	Transitions  []string `json:"transitions"`
}

type requestMessage struct {
	RequestID string               `json:"request_id"`
	Kind      domain.OperationKind `json:"kind"`
	Regions   []wireRegion         `json:"regions,omitempty"`
	IDs       []string             `json:"ids,omitempty"`
}

type resultMessage struct {
	RequestID string `json:"request_id"`
	Status    string `json:"status"`
	Code      string `json:"code"`
	Reason    string `json:"reason"`
}

func (c *SubscriptionClient) AddRegions(ctx context.Context, regions []domain.Region) <-chan domain.Result {
	wire := make([]wireRegion, len(regions))
	for i, r := range regions {
		wire[i] = wireRegion{
			ID:           r.ID,
			Latitude:     r.Lat,
			Longitude:    r.Lon,
			RadiusMeters: r.RadiusMeters,
			ExpirationMs: r.Expiration.Milliseconds(),
			Transitions:  r.Transitions.Names(),
		}
	}
	return c.send(ctx, requestMessage{Kind: domain.OperationAdd, Regions: wire})
}

func (c *SubscriptionClient) RemoveRegions(ctx context.Context, ids []string) <-chan domain.Result {
	return c.send(ctx, requestMessage{Kind: domain.OperationRemove, IDs: ids})
}

func (c *SubscriptionClient) send(ctx context.Context, req requestMessage) <-chan domain.Result {
	ch := make(chan domain.Result, 1)

	if !c.broker.IsConnectionOpen() {
		ch <- domain.Failure(fmt.Errorf("%w: mqtt not connected", domain.ErrTransientFailure))
		return ch
	}

	req.RequestID = c.newID()
	payload, err := json.Marshal(req)
	if err != nil {
		ch <- domain.Failure(fmt.Errorf("%w: marshal request: %v", domain.ErrTransientFailure, err))
		return ch
	}

	id := req.RequestID
	c.mu.Lock()
	p := &pendingRequest{ch: ch}
	c.pending[id] = p
	p.timer = time.AfterFunc(c.timeout, func() {
		c.resolve(id, domain.Failure(fmt.Errorf("%w: no result within %s", domain.ErrTransientFailure, c.timeout)))
	})
	c.mu.Unlock()

	// Publish can block while paho's outbound queue is full; callers hold
	// their own locks around send.
	go func() {
		token := c.broker.Publish(c.requestTopic, 1, false, payload)
		select {
		case <-token.Done():
			if err := token.Error(); err != nil {
				c.resolve(id, domain.Failure(fmt.Errorf("%w: publish: %v", domain.ErrTransientFailure, err)))
			}
		case <-ctx.Done():
			c.resolve(id, domain.Failure(fmt.Errorf("%w: %v", domain.ErrTransientFailure, ctx.Err())))
		}
	}()

	return ch
}

// resolve delivers res to the request's caller once. It reports false when
// the request already resolved or was never issued.
func (c *SubscriptionClient) resolve(id string, res domain.Result) bool {
	c.mu.Lock()
	p, ok := c.pending[id]
	if ok {
		delete(c.pending, id)
	}
	c.mu.Unlock()

	if !ok {
		return false
	}
	p.timer.Stop()
	p.ch <- res
	return true
}

func (c *SubscriptionClient) handleResult(_ mqtt.Client, msg mqtt.Message) {
	var raw resultMessage
	if err := json.Unmarshal(msg.Payload(), &raw); err != nil {
		c.log.Warn("invalid monitor result", zap.Error(err))
		return
	}
	if raw.RequestID == "" {
		c.log.Warn("monitor result without request_id")
		return
	}

	var res domain.Result
	switch raw.Status {
	case statusSuccess:
		res = domain.Success()
	case statusFailure:
		err := domain.ParseErrorCode(raw.Code, raw.Reason)
		if err == nil {
			err = domain.ErrTransientFailure
		}
		res = domain.Failure(err)
	default:
		res = domain.Failure(fmt.Errorf("%w: unknown result status %q", domain.ErrTransientFailure, raw.Status))
	}

	if !c.resolve(raw.RequestID, res) {
		c.log.Debug("ignoring result for unknown request", zap.String("request_id", raw.RequestID))
	}
}
