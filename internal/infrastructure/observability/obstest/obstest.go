// Package obstest builds an Observability for tests whose logs and metrics
// can be inspected.
package obstest

import (
	infraobs "github.com/Zhima-Mochi/minishop-fulfillment/internal/infrastructure/observability"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/infrastructure/observability/prometrics"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/infrastructure/observability/zaplogger"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/observability"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type Recorder struct {
	Obs      observability.Observability
	Logs     *observer.ObservedLogs
	Registry *prometheus.Registry
}

// New records every log entry at debug level and above and registers all
// application metrics on a fresh registry.
func New() *Recorder {
	core, logs := observer.New(zapcore.DebugLevel)
	reg := prometheus.NewRegistry()
	counters, histograms := prometrics.Instruments(prometrics.New("", "", reg))
	return &Recorder{
		Obs:      infraobs.New(nil, zaplogger.New(zap.New(core)), counters, histograms),
		Logs:     logs,
		Registry: reg,
	}
}

// Messages returns the logged messages equal to msg.
func (r *Recorder) Messages(msg string) []observer.LoggedEntry {
	return r.Logs.FilterMessage(msg).All()
}
