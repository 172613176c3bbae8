// Package metrics defines all custom Prometheus metrics for the user
// provisioning API. It is the single source of truth for metric names,
// labels, and help strings; promauto registers everything with the default
// registry at package init.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "provisioning"

// UsersProvisionedTotal counts accounts created successfully.
var UsersProvisionedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "users_provisioned_total",
		Help:      "Total number of user accounts provisioned successfully.",
	},
)

// ProvisionFailuresTotal counts provisioning requests that failed after
// passing authorization.
// Label:
//   - reason: "conflict", "search_timeout", or "persistence"
var ProvisionFailuresTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "provision_failures_total",
		Help:      "Total number of failed provisioning attempts, by reason.",
	},
	[]string{"reason"},
)

// SearchRequestDuration measures the round-trip of a uniqueness lookup
// against the user-search service, timeouts included.
// Label:
//   - outcome: "hit", "miss", "timeout", or "error"
var SearchRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "search_request_duration_seconds",
		Help:      "Duration of user-search request/reply exchanges.",
		Buckets:   prometheus.DefBuckets, // .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10
	},
	[]string{"outcome"},
)

// SearchTimeoutsTotal counts uniqueness lookups abandoned at the wait bound.
var SearchTimeoutsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "search_timeouts_total",
		Help:      "Total number of user-search lookups that exceeded the reply deadline.",
	},
)
