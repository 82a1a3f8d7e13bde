package middleware

import (
	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrors counts Redis command failures by operation type.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "quill_redis_errors_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// MailDispatches counts outbound verification-code emails by outcome.
	MailDispatches = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "quill_mail_dispatches_total",
		Help: "Total number of outbound mail dispatches by outcome",
	}, []string{"outcome"})

	// PostTransitions counts post lifecycle transitions (create/publish/delete).
	PostTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "quill_post_transitions_total",
		Help: "Total number of post lifecycle transitions",
	}, []string{"transition"})
)

// InitMetrics creates the Prometheus HTTP middleware for the given service name.
func InitMetrics(serviceName string) *fiberprometheus.FiberPrometheus {
	return fiberprometheus.New(serviceName)
}

// MetricsMiddleware wraps the fiberprometheus middleware as a fiber.Handler.
func MetricsMiddleware(prom *fiberprometheus.FiberPrometheus) fiber.Handler {
	return prom.Middleware
}
