package http

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"prepost-poll/internal/app"
	"prepost-poll/internal/metrics"
)

// NewRouter mounts every page route plus health and metrics endpoints.
func NewRouter(service *app.PageService, logger *zap.Logger, m *metrics.Metrics) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if m == nil {
		m = metrics.New()
	}
	pages := NewPageHandler(service, logger)
	ws := NewWSHandler(service, logger)

	mux := http.NewServeMux()
	handle := func(pattern, route string, h http.HandlerFunc) {
		mux.Handle(pattern, m.Middleware(route, logRequests(logger, h)))
	}
	handle("GET /{$}", "/", pages.Index)
	handle("GET /view", "/view", pages.View)
	handle("POST /navigate/{section}", "/navigate/{section}", pages.Navigate)
	handle("POST /poll/{variant}", "/poll/{variant}", pages.Submit)
	handle("POST /theme", "/theme", pages.Theme)
	handle("GET /ws", "/ws", ws.ServeWS)

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.Handle("GET /metrics", m.Handler())
	return mux
}

func logRequests(logger *zap.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		logger.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("elapsed", time.Since(start)))
	})
}
