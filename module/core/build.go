package core

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	handler "github.com/gmontoya2483/Shushme/module/core/internal/handler/http"
	"github.com/gmontoya2483/Shushme/module/core/internal/handler/subscriber"
	"github.com/gmontoya2483/Shushme/module/core/internal/metrics"
	"github.com/gmontoya2483/Shushme/module/core/internal/repository/database/postgres"
	monitor "github.com/gmontoya2483/Shushme/module/core/internal/repository/monitor/mqtt"
	"github.com/gmontoya2483/Shushme/module/core/internal/repository/publisher/rabbitmq"
	"github.com/gmontoya2483/Shushme/module/core/service"
)

type Options struct {
	PlacesTopic         string
	MonitorRequestTopic string
	MonitorResultTopic  string
	MonitorTimeout      time.Duration
	// Registerer defaults to the global Prometheus registry.
	Registerer prometheus.Registerer
}

type Module struct {
	Synchronizer *service.Synchronizer
	PlaceSvc     *service.PlaceService
	OperationSvc *service.OperationService

	monitor    *monitor.SubscriptionClient
	metrics    *metrics.Collector
	handler    *handler.RegionHandler
	subscriber *subscriber.PlaceSubscriber
	log        *zap.Logger
}

func Build(db *sql.DB, amqpConn *amqp.Connection, mqttClient mqtt.Client, opts Options, log *zap.Logger) (*Module, error) {
	if log == nil {
		log = zap.NewNop()
	}

	placeRepo := postgres.NewPlaceRepo(db)
	operationRepo := postgres.NewOperationRepo(db)

	reportPub, err := rabbitmq.NewReportPublisher(amqpConn)
	if err != nil {
		return nil, fmt.Errorf("report publisher: %w", err)
	}

	collector, err := metrics.NewCollector(opts.Registerer)
	if err != nil {
		return nil, fmt.Errorf("metrics: %w", err)
	}

	monitorClient := monitor.NewSubscriptionClient(mqttClient, monitor.Options{
		RequestTopic: opts.MonitorRequestTopic,
		ResultTopic:  opts.MonitorResultTopic,
		Timeout:      opts.MonitorTimeout,
	}, log.Named("monitor"))

	operationSvc := service.NewOperationService(operationRepo)

	reporter := service.MultiReporter{
		service.NewLogReporter(log.Named("report")),
		collector,
		service.NewSinkReporter("ledger", operationSvc.Record, log),
		service.NewSinkReporter("rabbitmq", reportPub.PublishReport, log),
	}

	syncer := service.NewSynchronizer(monitorClient, reporter, log.Named("sync"))
	if err := collector.WatchRegions(syncer); err != nil {
		return nil, fmt.Errorf("metrics: %w", err)
	}
	placeSvc := service.NewPlaceService(placeRepo, syncer, log)

	return &Module{
		Synchronizer: syncer,
		PlaceSvc:     placeSvc,
		OperationSvc: operationSvc,
		monitor:      monitorClient,
		metrics:      collector,
		handler:      handler.NewRegionHandler(placeSvc, syncer, operationSvc),
		subscriber:   subscriber.NewPlaceSubscriber(mqttClient, opts.PlacesTopic, placeSvc, log.Named("places")),
		log:          log,
	}, nil
}

func (m *Module) RegisterRoutes(r *gin.RouterGroup) {
	m.handler.Register(r)
}

func (m *Module) MetricsHandler() http.Handler {
	return m.metrics.Handler()
}

// StartSubscribers listens for monitor results before accepting place
// snapshots, so no request is issued without a result subscription.
func (m *Module) StartSubscribers() error {
	if err := m.monitor.Start(); err != nil {
		return fmt.Errorf("monitor results: %w", err)
	}
	if err := m.subscriber.Start(); err != nil {
		return fmt.Errorf("place snapshots: %w", err)
	}
	return nil
}

// Restore re-syncs the stored place snapshot after a restart.
func (m *Module) Restore(ctx context.Context) error {
	return m.PlaceSvc.Restore(ctx)
}

// Drain stops snapshot intake, then waits for in-flight monitor calls to
// resolve and be reported. The HTTP server must already be shut down.
func (m *Module) Drain(ctx context.Context) error {
	if err := m.subscriber.Stop(); err != nil {
		m.log.Warn("unsubscribe places", zap.Error(err))
	}
	m.Synchronizer.Close()
	return m.Synchronizer.Wait(ctx)
}
