// Package metrics holds the Prometheus instruments shared across the
// pipeline.  All collectors register with the global registry in init(),
// so importing the package is enough; Serve exposes them for runs long
// enough to be worth scraping.
package metrics

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

var (
	RowsExtracted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nymport_rows_extracted_total",
			Help: "Source rows fetched, by row set.",
		}, []string{"set"})

	DocsTransformed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nymport_documents_transformed_total",
			Help: "Target documents produced, by kind.",
		}, []string{"kind"})

	RowsSkipped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nymport_rows_skipped_total",
			Help: "Source rows dropped for unresolvable references, by kind.",
		}, []string{"kind"})

	BatchesCommitted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "nymport_batches_committed_total",
			Help: "Cumulative number of committed write batches.",
		})

	WriteErrors = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "nymport_write_errors_total",
			Help: "Cumulative number of failed batch commits.",
		})
)

func init() {
	prometheus.MustRegister(
		RowsExtracted,
		DocsTransformed,
		RowsSkipped,
		BatchesCommitted,
		WriteErrors,
	)
}

// Serve starts a best-effort debug listener with /metrics and /healthz.
// Intended for multi-hour production imports; listener failures are
// logged, never fatal, because scraping is an observation aid rather
// than part of the migration.
func Serve(addr string, log *zap.SugaredLogger) {
	r := chi.NewRouter()
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Infow("metrics listener online", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Warnw("metrics listener stopped", "err", err)
		}
	}()
}
