package httpserver

import (
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// RouterConfig carries everything the router needs from the bootstrap.
type RouterConfig struct {
	BasePath       string // e.g. "/api"; empty mounts at the root
	CORSOrigin     string
	Tutorials      *TutorialHandlers
	MetricsHandler http.Handler
	Recorder       RequestRecorder
	Logger         *logrus.Entry
}

// NewRouter registers every route and wraps the router with CORS and panic recovery.
func NewRouter(cfg RouterConfig) http.Handler {
	out := responder{logger: cfg.Logger, recorder: cfg.Recorder}

	router := mux.NewRouter()
	router.Use(RequestIDMiddleware)
	router.NotFoundHandler = RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		out.respond(w, r, "route", http.StatusNotFound, messageResponse{Message: "Not Found"}, "Route not found", nil)
	}))
	router.MethodNotAllowedHandler = RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		out.respond(w, r, "route", http.StatusMethodNotAllowed, messageResponse{Message: "Method Not Allowed"}, "Method not allowed", nil)
	}))

	router.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		out.respond(w, r, "welcome", http.StatusOK, messageResponse{Message: "Welcome to the tutorials application."}, "Welcome to the tutorials application.", nil)
	}).Methods(http.MethodGet)

	api := router
	if cfg.BasePath != "" {
		api = router.PathPrefix(cfg.BasePath).Subrouter()
	}
	api.Handle("/metrics", metricsLogging(cfg.MetricsHandler, cfg.Logger)).Methods(http.MethodGet)

	t := cfg.Tutorials
	api.HandleFunc("/tutorials", t.Create).Methods(http.MethodPost)
	api.HandleFunc("/tutorials", t.List).Methods(http.MethodGet)
	api.HandleFunc("/tutorials", t.DeleteAll).Methods(http.MethodDelete)
	// Registered before /{id} so "published" is not taken as an id.
	api.HandleFunc("/tutorials/published", t.ListPublished).Methods(http.MethodGet)
	api.HandleFunc("/tutorials/{id}", t.Get).Methods(http.MethodGet)
	api.HandleFunc("/tutorials/{id}", t.Update).Methods(http.MethodPut)
	api.HandleFunc("/tutorials/{id}", t.Delete).Methods(http.MethodDelete)

	cors := handlers.CORS(
		handlers.AllowedOrigins([]string{cfg.CORSOrigin}),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type", RequestIDHeader}),
		handlers.ExposedHeaders([]string{RequestIDHeader}),
	)
	recovery := handlers.RecoveryHandler(
		handlers.RecoveryLogger(cfg.Logger.WithField("middleware", "recovery")),
		handlers.PrintRecoveryStack(true),
	)
	return recovery(cors(router))
}

func metricsLogging(next http.Handler, logger *logrus.Entry) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r)
		logger.WithField("request_id", RequestIDFrom(r.Context())).Debug("Metrics requested.")
	})
}

// NewServer returns an http.Server with production timeouts.
func NewServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}
