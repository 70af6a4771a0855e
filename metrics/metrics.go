package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/AlexNa-Holdings/memestake/bus"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

const namespace = "memestake"

var (
	rpcRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rpc_requests_total",
		Help:      "JSON-RPC requests by method and result.",
	}, []string{"method", "result"})

	rpcDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "rpc_duration_seconds",
		Help:      "JSON-RPC request latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method"})

	txEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tx_events_total",
		Help:      "Transaction lifecycle events by action.",
	}, []string{"action", "event"})

	cacheFetches = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cache_fetches_total",
		Help:      "Read cache fetches by result.",
	}, []string{"result"})
)

func ObserveRPC(method string, err error, d time.Duration) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	rpcRequests.WithLabelValues(method, result).Inc()
	rpcDuration.WithLabelValues(method).Observe(d.Seconds())
}

// ObserveFetch counts one cache fetch: "ok", "error" or "stale".
func ObserveFetch(result string) {
	cacheFetches.WithLabelValues(result).Inc()
}

// Loop counts "tx" events from the bus until the subscription is closed.
func Loop(ch chan *bus.Message) {
	for msg := range ch {
		if msg.RespondTo != 0 {
			continue
		}
		ev, ok := msg.Data.(*bus.B_TxEvent)
		if !ok {
			continue
		}
		action := ev.Action
		if action == "" {
			action = "unknown"
		}
		txEvents.WithLabelValues(action, msg.Type).Inc()
	}
}

func Init(b *bus.Bus) chan *bus.Message {
	ch := b.Subscribe("tx")
	go Loop(ch)
	return ch
}

// Serve exposes /metrics on addr until ctx is done.
func Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	log.Info().Str("addr", addr).Msg("metrics: serving")
	err := srv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
