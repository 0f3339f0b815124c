// Package metrics exposes Prometheus counters and gauges for the server's
// connection, game and auth activity on a small HTTP listener.
package metrics

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// ConnectionsOpen tracks the number of live TCP connections.
	ConnectionsOpen = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "dvdyellow_connections_open",
		Help: "Number of currently open client connections.",
	})

	// GamesInProgress tracks the number of unfinished games.
	GamesInProgress = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "dvdyellow_games_in_progress",
		Help: "Number of games that have started but not yet finished.",
	})

	// MovesProcessed counts accepted moves.
	MovesProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dvdyellow_moves_processed_total",
		Help: "Total number of successfully applied moves.",
	})

	// AuthFailures counts rejected sign-in/sign-up attempts.
	AuthFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dvdyellow_auth_failures_total",
		Help: "Total number of failed sign-in or sign-up attempts.",
	})
)

// Serve starts the blocking /metrics HTTP listener on port. Callers
// typically run it in its own goroutine.
func Serve(port int) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return http.ListenAndServe(fmt.Sprintf(":%d", port), mux)
}
