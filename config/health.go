package config

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
)

type pinger interface {
	PingContext(ctx context.Context) error
}

type closer interface {
	IsClosed() bool
}

type connector interface {
	IsConnected() bool
}

// HealthChecker reports the state of postgres, rabbitmq and the MQTT broker.
type HealthChecker struct {
	db       pinger
	amqpConn closer
	mqtt     connector
}

func NewHealthChecker(db pinger, amqpConn closer, mqttClient connector) *HealthChecker {
	return &HealthChecker{db: db, amqpConn: amqpConn, mqtt: mqttClient}
}

func (h *HealthChecker) Register(r *gin.Engine) {
	r.GET("/healthz", h.Handle)
}

func (h *HealthChecker) Handle(c *gin.Context) {
	status := http.StatusOK
	deps := gin.H{}

	down := func(name, reason string) {
		deps[name] = gin.H{"status": "down", "error": reason}
		status = http.StatusServiceUnavailable
	}

	if err := h.db.PingContext(c.Request.Context()); err != nil {
		down("postgres", err.Error())
	} else {
		deps["postgres"] = gin.H{"status": "up"}
	}

	if h.amqpConn.IsClosed() {
		down("rabbitmq", "connection closed")
	} else {
		deps["rabbitmq"] = gin.H{"status": "up"}
	}

	if !h.mqtt.IsConnected() {
		down("mqtt", "not connected")
	} else {
		deps["mqtt"] = gin.H{"status": "up"}
	}

	overall := "healthy"
	if status != http.StatusOK {
		overall = "unhealthy"
	}

	c.JSON(status, gin.H{
		"status":       overall,
		"dependencies": deps,
	})
}
