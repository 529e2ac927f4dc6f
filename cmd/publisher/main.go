package main

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gmontoya2483/Shushme/config"
	"github.com/gmontoya2483/Shushme/module/core/domain"
)

type snapshotMessage struct {
	Places []domain.Place `json:"places"`
}

type monitorRequest struct {
	RequestID string `json:"request_id"`
	Kind      string `json:"kind"`
}

type monitorResult struct {
	RequestID string `json:"request_id"`
	Status    string `json:"status"`
	Code      string `json:"code,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

var (
	interval    time.Duration
	poolSize    int
	perSnapshot int
	failureRate float64
	latency     time.Duration
)

var rootCmd = &cobra.Command{
	Use:           "publisher",
	Short:         "Local traffic generator for placewatch",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var snapshotsCmd = &cobra.Command{
	Use:   "snapshots",
	Short: "Publish random place snapshots on the places topic",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if interval <= 0 {
			return fmt.Errorf("interval must be positive")
		}
		if perSnapshot > poolSize {
			return fmt.Errorf("per-snapshot %d exceeds pool size %d", perSnapshot, poolSize)
		}
		return withClient(cmd.Context(), "placewatch-mock-publisher", publishSnapshots)
	},
}

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Answer monitor requests like the region monitoring provider",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if failureRate < 0 || failureRate > 1 {
			return fmt.Errorf("failure-rate must be between 0 and 1")
		}
		return withClient(cmd.Context(), "placewatch-mock-monitor", answerRequests)
	},
}

func init() {
	snapshotsCmd.Flags().DurationVar(&interval, "interval", 5*time.Second, "time between snapshots")
	snapshotsCmd.Flags().IntVar(&poolSize, "pool", 10, "number of distinct places to draw from")
	snapshotsCmd.Flags().IntVar(&perSnapshot, "per-snapshot", 3, "places per snapshot")

	monitorCmd.Flags().Float64Var(&failureRate, "failure-rate", 0.1, "fraction of requests answered with a transient failure")
	monitorCmd.Flags().DurationVar(&latency, "latency", 500*time.Millisecond, "delay before answering")

	rootCmd.AddCommand(snapshotsCmd, monitorCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type runFunc func(ctx context.Context, cfg *config.Config, client mqtt.Client, log *zap.Logger) error

func withClient(ctx context.Context, clientID string, fn runFunc) error {
	cfg, err := config.Load(".")
	if err != nil {
		return err
	}
	log, err := config.NewLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	client, err := config.NewMQTT(cfg, clientID, log)
	if err != nil {
		return err
	}
	defer client.Disconnect(250)

	log.Info("connected", zap.String("broker", cfg.MQTTBroker), zap.String("client_id", clientID))
	return fn(ctx, cfg, client, log)
}

func randomPlaceID() string {
	const charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	b := make([]byte, 12)
	for i := range b {
		b[i] = charset[rand.Intn(len(charset))]
	}
	return "ChIJ" + string(b)
}

// placePool returns places scattered within roughly 2 km of central Jakarta.
func placePool(n int) []domain.Place {
	pool := make([]domain.Place, n)
	for i := range pool {
		pool[i] = domain.Place{
			ID:  randomPlaceID(),
			Lat: -6.2088 + (rand.Float64()-0.5)*0.04,
			Lon: 106.8456 + (rand.Float64()-0.5)*0.04,
		}
	}
	return pool
}

func publishSnapshots(ctx context.Context, cfg *config.Config, client mqtt.Client, log *zap.Logger) error {
	pool := placePool(poolSize)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		picked := make([]domain.Place, 0, perSnapshot)
		for _, i := range rand.Perm(len(pool))[:perSnapshot] {
			picked = append(picked, pool[i])
		}

		payload, err := json.Marshal(snapshotMessage{Places: picked})
		if err != nil {
			return fmt.Errorf("encode snapshot: %w", err)
		}

		token := client.Publish(cfg.PlacesTopic, 1, false, payload)
		token.Wait()
		if err := token.Error(); err != nil {
			log.Warn("publish failed", zap.Error(err))
			continue
		}
		log.Info("published snapshot", zap.String("topic", cfg.PlacesTopic), zap.Int("places", len(picked)))
	}
}

func answerRequests(ctx context.Context, cfg *config.Config, client mqtt.Client, log *zap.Logger) error {
	handle := func(c mqtt.Client, msg mqtt.Message) {
		var req monitorRequest
		if err := json.Unmarshal(msg.Payload(), &req); err != nil || req.RequestID == "" {
			log.Warn("invalid monitor request", zap.ByteString("payload", msg.Payload()))
			return
		}

		res := monitorResult{RequestID: req.RequestID, Status: "success"}
		if rand.Float64() < failureRate {
			res = monitorResult{
				RequestID: req.RequestID,
				Status:    "failure",
				Code:      domain.CodeTransientFailure,
				Reason:    "simulated provider failure",
			}
		}

		go func() {
			time.Sleep(latency)
			payload, _ := json.Marshal(res)
			c.Publish(cfg.MonitorResultTopic, 1, false, payload).Wait()
			log.Info("answered request",
				zap.String("request_id", req.RequestID),
				zap.String("kind", req.Kind),
				zap.String("status", res.Status),
			)
		}()
	}

	token := client.Subscribe(cfg.MonitorRequestTopic, 1, handle)
	token.Wait()
	if err := token.Error(); err != nil {
		return fmt.Errorf("subscribe %s: %w", cfg.MonitorRequestTopic, err)
	}

	<-ctx.Done()
	return nil
}
