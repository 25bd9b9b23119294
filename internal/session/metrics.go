package session

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics.
var (
	navigationTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "venuelist_navigation_total",
			Help: "Total number of view navigation intents by action and outcome",
		},
		[]string{"action", "outcome"},
	)

	viewResetsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "venuelist_view_resets_total",
			Help: "Total number of views sent back to the first page",
		},
		[]string{"reason"},
	)

	viewsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "venuelist_views_active",
			Help: "Number of open views",
		},
	)
)

// Reset reasons.
const (
	resetReasonList      = "list"
	resetReasonFavorites = "favorites"
	resetReasonResize    = "resize"
)
