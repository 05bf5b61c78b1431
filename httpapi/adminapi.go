package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/cors"
	uuid "github.com/satori/go.uuid"
	"go.uber.org/zap"

	"github.com/serverless/shutdownd/metrics"
)

// RequestIDHeader carries the ID assigned to every admin request.
const RequestIDHeader = "X-Request-Id"

// StartAdminAPI creates a new admin API server and listens for requests until the shutdown
// guard fires.
func StartAdminAPI(api *HTTPAPI, config ServerConfig) Server {
	router := httprouter.New()
	api.RegisterRoutes(router)

	handler := &http.Server{
		Addr:         ":" + strconv.Itoa(int(config.Port)),
		Handler:      cors.AllowAll().Handler(HTTPLogger{Handler: router, Log: config.Log, RequestDuration: metrics.RequestDuration}),
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	server := Server{
		Config:      config,
		HTTPHandler: handler,
	}

	config.ShutdownGuard.Go(server.Listen)

	return server
}

// HTTPLogger logs HTTP requests and collects request related metrics
type HTTPLogger struct {
	Handler         http.Handler
	Log             *zap.Logger
	RequestDuration prometheus.Observer
}

func (l HTTPLogger) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	id := r.Header.Get(RequestIDHeader)
	if id == "" {
		id = uuid.NewV4().String()
	}
	w.Header().Set(RequestIDHeader, id)
	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

	l.Handler.ServeHTTP(rec, r)

	duration := time.Since(start)
	l.RequestDuration.Observe(float64(duration) / float64(time.Millisecond))
	l.Log.Debug("Admin request served.",
		zap.String("requestId", id),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Int("status", rec.status),
		zap.Duration("duration", duration))
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
