package metrics

import (
	"errors"

	"github.com/docflow/docflow/internal/apperr"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	RateLimitAllowed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "docflow", Name: "rate_limit_allowed_total", Help: "Number of allowed requests by limiter type."},
		[]string{"limiter"},
	)
	RateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "docflow", Name: "rate_limit_rejected_total", Help: "Number of rejected requests by limiter type."},
		[]string{"limiter"},
	)
	DocumentOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "docflow", Name: "document_operations_total", Help: "Document manager calls by operation and outcome."},
		[]string{"operation", "outcome"},
	)
	LockOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "docflow", Name: "lock_operations_total", Help: "Lock manager calls by operation and outcome."},
		[]string{"operation", "outcome"},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(RateLimitAllowed)
	reg.MustRegister(RateLimitRejected)
	reg.MustRegister(DocumentOperations)
	reg.MustRegister(LockOperations)
}

// Outcome turns an operation result into a low-cardinality label value.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, apperr.ErrNotFound):
		return "not_found"
	case errors.Is(err, apperr.ErrConflict):
		return "conflict"
	case errors.Is(err, apperr.ErrLocked):
		return "locked"
	case errors.Is(err, apperr.ErrForbidden):
		return "forbidden"
	case errors.Is(err, apperr.ErrBadRequest):
		return "bad_request"
	case errors.Is(err, apperr.ErrUnavailable):
		return "unavailable"
	}
	return "error"
}
