package session

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricSessionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "inkboard_sessions_active",
		Help: "Currently open whiteboard sessions",
	})
	metricSessionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "inkboard_sessions_total",
		Help: "Sessions opened since start",
	})
	metricMessagesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inkboard_transcript_messages_total",
		Help: "Transcript lines by role",
	}, []string{"role"})
	metricBoardCommandsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inkboard_board_commands_total",
		Help: "Commands appended to board timelines by kind",
	}, []string{"kind"})
	metricProviderErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "inkboard_provider_errors_total",
		Help: "Errors surfaced by the voice provider",
	})
	metricToolCallsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inkboard_tool_calls_total",
		Help: "Model tool invocations by function name",
	}, []string{"function"})
)

func roleLabel(isUser bool) string {
	if isUser {
		return "user"
	}
	return "agent"
}
