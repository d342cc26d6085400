package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RepositoryErrors counts failed repository methods by table and method.
	RepositoryErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "forum_repository_errors_total",
		Help: "Total number of failed repository operations",
	}, []string{"entity", "method"})

	// LikeToggles counts like toggles by target (post, comment) and direction.
	LikeToggles = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "forum_like_toggles_total",
		Help: "Total number of like toggles",
	}, []string{"target", "action"})

	// ContentEvents counts created, updated and deleted posts and comments.
	ContentEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "forum_content_events_total",
		Help: "Total number of content changes by entity and action",
	}, []string{"entity", "action"})

	// WebSocketEventsTotal counts realtime events fanned out to clients.
	WebSocketEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "forum_websocket_events_total",
		Help: "Total realtime events by type",
	}, []string{"event_type"})

	// WebSocketBackpressureDrops counts messages dropped because a client was too slow.
	WebSocketBackpressureDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "forum_websocket_backpressure_drops_total",
		Help: "Total number of websocket messages dropped due to backpressure",
	}, []string{"hub", "reason"})
)

// RecordLikeToggle increments LikeToggles for a toggle outcome.
func RecordLikeToggle(target string, liked bool) {
	action := "unlike"
	if liked {
		action = "like"
	}
	LikeToggles.WithLabelValues(target, action).Inc()
}
