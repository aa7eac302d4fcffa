package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	LabelResult = "result"
	LabelMode   = "mode"
)

// Poll results
const (
	PollOK      = "ok"
	PollError   = "error"
	PollSkipped = "skipped"
	PollDropped = "dropped"
)

// Send results
const (
	SendOK      = "ok"
	SendBusy    = "busy"
	SendInvalid = "invalid"
	SendError   = "error"
)

var (
	PollsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatapp_polls_total",
			Help: "Conversation synchronization passes by outcome",
		},
		[]string{LabelMode, LabelResult},
	)

	PollDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chatapp_poll_duration_seconds",
			Help:    "Time spent fetching and merging one conversation",
			Buckets: prometheus.DefBuckets,
		},
		[]string{LabelMode},
	)

	SendsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatapp_sends_total",
			Help: "Message sends by outcome",
		},
		[]string{LabelMode, LabelResult},
	)

	ActiveConversations = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "chatapp_active_conversations",
			Help: "Conversations currently being polled",
		},
	)
)
