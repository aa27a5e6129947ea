// Package metrics provides Prometheus instrumentation for token pack and
// unpack operations.
package metrics

import (
	"errors"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/axent-pl/josetoken/common"
)

const (
	// Namespace is the Prometheus namespace for all token metrics
	Namespace = "josetoken"

	LabelOperation = "operation"
	LabelStatus    = "status"
	LabelErrorType = "error_type"
	LabelEncrypted = "encrypted"

	StatusSuccess = "success"
	StatusError   = "error"

	OpPack   = "pack"
	OpUnpack = "unpack"
)

// Collector holds the token metrics. A nil *Collector records nothing, so
// callers never need to check whether instrumentation is configured.
type Collector struct {
	operations *prometheus.CounterVec
	errors     *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

// New registers the collectors with reg. A nil reg uses the default registerer.
func New(reg prometheus.Registerer) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Collector{
		operations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "operations_total",
				Help:      "Total number of token operations by type, encryption and status",
			},
			[]string{LabelOperation, LabelEncrypted, LabelStatus},
		),
		errors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "errors_total",
				Help:      "Total number of rejected token operations by error type",
			},
			[]string{LabelOperation, LabelErrorType},
		),
		duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "operation_duration_seconds",
				Help:      "Duration of token operations in seconds",
				Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{LabelOperation},
		),
	}
}

func (c *Collector) Observe(op string, encrypted bool, started time.Time, err error) {
	if c == nil {
		return
	}
	status := StatusSuccess
	if err != nil {
		status = StatusError
		c.errors.WithLabelValues(op, ErrorType(err)).Inc()
	}
	c.operations.WithLabelValues(op, strconv.FormatBool(encrypted), status).Inc()
	c.duration.WithLabelValues(op).Observe(time.Since(started).Seconds())
}

// ErrorType maps an error to a bounded label value.
func ErrorType(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, common.ErrNoSuitableSigningKey):
		return "no_signing_key"
	case errors.Is(err, common.ErrMissingToken):
		return "missing_token"
	case errors.Is(err, common.ErrMalformedToken):
		return "malformed_token"
	case errors.Is(err, common.ErrUnresolvableKey):
		return "unresolvable_key"
	case errors.Is(err, common.ErrSignatureInvalid):
		return "signature_invalid"
	case errors.Is(err, common.ErrDecryptionFailed):
		return "decryption_failed"
	default:
		return "internal"
	}
}
