// Package metrics defines the custom Prometheus metrics of the bookshelf API.
// It is the single source of truth for metric names, labels, and help strings.
//
// Metrics are registered with the default Prometheus registry on package
// initialisation and exposed on /metrics next to the echoprometheus request
// metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "bookshelf"

// ── Authentication ───────────────────────────────────────────────────────────

// AuthAttemptsTotal counts credential resolution attempts.
// Labels:
//   - scheme: "basic" or "bearer"
//   - result: "success", "rejected" or "error"
var AuthAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_attempts_total",
		Help:      "Total number of authentication attempts, by scheme and result.",
	},
	[]string{"scheme", "result"},
)

// TokensIssuedTotal counts tokens minted on signup and on every successful authentication.
var TokensIssuedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tokens_issued_total",
		Help:      "Total number of signed tokens issued.",
	},
)

// ── Authorization ────────────────────────────────────────────────────────────

// CapabilityChecksTotal counts capability decisions taken at the route edge.
// Labels:
//   - capability: e.g. "read", "create"
//   - result: "allowed", "denied" or "anonymous"
var CapabilityChecksTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "capability_checks_total",
		Help:      "Total number of capability checks, by capability and result.",
	},
	[]string{"capability", "result"},
)

// RoleCacheLookupsTotal counts role capability lookups per cache tier.
// Labels:
//   - tier: "local", "shared" or "store"
//   - result: "hit", "miss" or "error"
var RoleCacheLookupsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "role_cache_lookups_total",
		Help:      "Total number of role capability lookups, by tier and result.",
	},
	[]string{"tier", "result"},
)

// ── Books ────────────────────────────────────────────────────────────────────

// BooksWrittenTotal counts successful writes to the books collection.
// Label:
//   - op: "create", "update" or "delete"
var BooksWrittenTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "books_written_total",
		Help:      "Total number of successful book writes, by operation.",
	},
	[]string{"op"},
)
