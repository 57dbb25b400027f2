package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedirectsTotal counts successful resolutions that ended in a redirect.
	RedirectsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "redirects_total",
			Help: "Total number of successful redirects",
		},
	)

	// BlockedResolutionsTotal counts resolutions stopped by a gate,
	// labeled with the gate reason.
	BlockedResolutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "blocked_resolutions_total",
			Help: "Total number of resolutions blocked by a gate",
		},
		[]string{"reason"},
	)

	// ClicksRecordedTotal counts click events written to storage.
	ClicksRecordedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "clicks_recorded_total",
			Help: "Total number of click events recorded",
		},
	)

	// LinksCreatedTotal counts links created through the API.
	LinksCreatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "links_created_total",
			Help: "Total number of links created",
		},
	)

	// CacheHitsTotal and CacheMissesTotal track the link cache.
	CacheHitsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "link_cache_hits_total",
			Help: "Total number of link cache hits",
		},
	)

	CacheMissesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "link_cache_misses_total",
			Help: "Total number of link cache misses",
		},
	)
)

func RecordRedirect() {
	RedirectsTotal.Inc()
}

func RecordBlocked(reason string) {
	BlockedResolutionsTotal.WithLabelValues(reason).Inc()
}

func RecordClickRecorded() {
	ClicksRecordedTotal.Inc()
}

func RecordLinkCreated() {
	LinksCreatedTotal.Inc()
}

func RecordCacheHit() {
	CacheHitsTotal.Inc()
}

func RecordCacheMiss() {
	CacheMissesTotal.Inc()
}
