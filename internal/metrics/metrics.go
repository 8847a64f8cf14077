package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Namespace for all RoamPlan metrics
const namespace = "roamplan"

// Registry is the global Prometheus registry for all metrics
var Registry = prometheus.NewRegistry()

// AppInfo exposes build information as labels, always set to 1.
var AppInfo = promauto.With(Registry).NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "app_info",
		Help:      "Application version information (always set to 1, version info in labels)",
	},
	[]string{"version", "commit", "build_date"},
)

// PlansCreatedTotal counts plans created since process start.
var PlansCreatedTotal = promauto.With(Registry).NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "plans_created_total",
		Help:      "Total number of travel plans created",
	},
)

// ActivitiesCreatedTotal counts activities created, labelled by how they
// arrived (single create vs bulk plan import).
var ActivitiesCreatedTotal = promauto.With(Registry).NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "activities_created_total",
		Help:      "Total number of activities created",
	},
	[]string{"mode"}, // mode: single|bulk
)

// ScheduleConflictsTotal counts writes rejected because of overlapping
// activity intervals.
var ScheduleConflictsTotal = promauto.With(Registry).NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "schedule_conflicts_total",
		Help:      "Total number of activity writes rejected due to schedule conflicts",
	},
)

// SharesTotal counts plan share grants and revocations.
var SharesTotal = promauto.With(Registry).NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "plan_shares_total",
		Help:      "Total number of plan share operations",
	},
	[]string{"op"}, // op: grant|revoke
)

// EmailsSentTotal counts notification emails by provider and outcome.
var EmailsSentTotal = promauto.With(Registry).NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "emails_sent_total",
		Help:      "Total number of notification emails attempted",
	},
	[]string{"provider", "status"}, // status: success|error
)

// GeocodingRequestsTotal tracks destination lookups by source.
var GeocodingRequestsTotal = promauto.With(Registry).NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "geocoding_requests_total",
		Help:      "Total number of geocoding lookups",
	},
	[]string{"source"}, // source: cache|nominatim
)

// GeocodingLatency tracks Nominatim request latency.
var GeocodingLatency = promauto.With(Registry).NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "geocoding_latency_seconds",
		Help:      "Nominatim API request latency in seconds",
		Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	},
)

func init() {
	Registry.MustRegister(collectors.NewGoCollector())
	Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
}
