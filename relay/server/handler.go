package server

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const requestIDHeader = "X-Relay-Request-Id"

const readerIDParam = "id"

var (
	messagesPosted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "relay_messages_posted_total",
		Help: "Number of envelope messages appended to the relay queue.",
	})
	messagesDelivered = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "relay_messages_delivered_total",
		Help: "Number of envelope messages handed out to a reader.",
	})
	queueDepth = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "relay_queue_depth",
		Help: "Total number of messages ever posted to the relay queue.",
	})
)

func init() {
	prometheus.MustRegister(messagesPosted, messagesDelivered, queueDepth)
}

// Handler builds the relay's HTTP surface: POST / appends a message,
// GET /?id=<reader> returns the next unread message for that reader, and
// /metrics exposes the counters above for scraping.
func Handler(q *Queue) http.Handler {
	mux := chi.NewRouter()

	// Every request gets an opaque trace id for log correlation.
	mux.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set(requestIDHeader, uuid.New().String())
			next.ServeHTTP(w, r)
		})
	})

	mux.Post("/", func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "failed to read request body", http.StatusBadRequest)
			return
		}
		q.Post(body)
		messagesPosted.Inc()
		queueDepth.Set(float64(q.Depth()))
		w.WriteHeader(http.StatusOK)
	})

	mux.Get("/", func(w http.ResponseWriter, r *http.Request) {
		readerID := r.URL.Query().Get(readerIDParam)
		if readerID == "" {
			http.Error(w, "missing id query parameter", http.StatusBadRequest)
			return
		}
		msg := q.Get(readerID)
		if msg != nil {
			messagesDelivered.Inc()
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(msg)
	})

	mux.Handle("/metrics", promhttp.Handler())

	return mux
}
