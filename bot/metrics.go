package bot

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("botweet")

var pollsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "botweet_polls_total",
	Help: "Number of feed polls performed",
}, []string{"loop"})

var pollFailures = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "botweet_poll_failures_total",
	Help: "Number of feed polls that failed",
}, []string{"loop"})

var eventsSeen = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "botweet_events_seen_total",
	Help: "Number of new feed events processed",
}, []string{"loop"})

var eventsMatched = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "botweet_events_matched_total",
	Help: "Number of feed events which passed the filter pattern",
}, []string{"loop"})

var reactionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "botweet_reactions_total",
	Help: "Number of reactions performed",
}, []string{"loop", "kind"})

var reactionFailures = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "botweet_reaction_failures_total",
	Help: "Number of reactions that failed",
}, []string{"loop", "kind"})

var sinceIDGauge = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Name: "botweet_since_id",
	Help: "Current high-water-mark event id of a loop",
}, []string{"loop"})

var activeLoops = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "botweet_active_loops",
	Help: "Number of loops currently running",
})
