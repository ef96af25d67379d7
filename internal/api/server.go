package api

import (
	"net/http"
	"sync"
	"time"

	"codeberg.org/mutker/atmena/internal/ingest"
	"codeberg.org/mutker/atmena/internal/logger"
	"codeberg.org/mutker/atmena/internal/notify"
	"codeberg.org/mutker/atmena/internal/query"
	"codeberg.org/mutker/atmena/internal/storage"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/rs/zerolog/hlog"
)

type Config struct {
	DefaultLimit uint64
	CORSOrigins  []string
}

// Server serves the v1 HTTP API and the sensor data stream.
type Server struct {
	cfg      Config
	store    storage.Store
	pipeline *ingest.Pipeline
	hub      *notify.Hub
	logger   logger.Logger

	done      chan struct{}
	closeOnce sync.Once
}

func NewServer(cfg Config, store storage.Store, pipeline *ingest.Pipeline, hub *notify.Hub) *Server {
	if cfg.DefaultLimit == 0 {
		cfg.DefaultLimit = query.DefaultLimit
	}
	if len(cfg.CORSOrigins) == 0 {
		cfg.CORSOrigins = []string{"*"}
	}
	return &Server{
		cfg:      cfg,
		store:    store,
		pipeline: pipeline,
		hub:      hub,
		logger:   logger.Default(),
		done:     make(chan struct{}),
	}
}

// Handler returns the routed API with CORS and access logging applied.
func (s *Server) Handler() http.Handler {
	router := mux.NewRouter()
	router.HandleFunc("/", s.handleIndex).Methods(http.MethodGet, http.MethodHead)

	v1 := router.PathPrefix("/v1").Subrouter()
	SetupDeviceRoutes(v1, s)
	v1.HandleFunc("/stream/sensorData", s.handleStream).Methods(http.MethodGet)
	v1.HandleFunc("/buildings_zones", s.handleBuildings).Methods(http.MethodGet)

	c := cors.New(cors.Options{
		AllowedOrigins: s.cfg.CORSOrigins,
		AllowedMethods: []string{http.MethodGet},
	})

	return withAccessLog(c.Handler(router))
}

// SetupDeviceRoutes registers the reading routes on a v1 router.
func SetupDeviceRoutes(router *mux.Router, s *Server) {
	router.HandleFunc("/device/{deviceID}/rawdata", s.handleIngest).Methods(http.MethodPost)
	// Older firmware posts here.
	router.HandleFunc("/device/{deviceID}/data/raw", s.handleIngest).Methods(http.MethodPost)

	router.HandleFunc("/device/{deviceID}/data", s.handleSelect(query.ConvertedTable)).Methods(http.MethodGet)
	router.HandleFunc("/device/{deviceID}/data/{dataType}", s.handleSelect(query.ConvertedTable)).Methods(http.MethodGet)
	router.HandleFunc("/device/{deviceID}/rawdata", s.handleSelect(query.RawTable)).Methods(http.MethodGet)
	router.HandleFunc("/device/{deviceID}/rawdata/{dataType}", s.handleSelect(query.RawTable)).Methods(http.MethodGet)
}

// withAccessLog logs failed requests, and every request at debug level.
func withAccessLog(next http.Handler) http.Handler {
	h := hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		log := hlog.FromRequest(r)
		ev := log.Debug()
		switch {
		case status >= http.StatusInternalServerError:
			ev = log.Error()
		case status >= http.StatusBadRequest:
			ev = log.Warn()
		}
		ev.Str("method", r.Method).
			Stringer("url", r.URL).
			Int("status", status).
			Int("size", size).
			Dur("duration", duration).
			Msg("HTTP request")
	})(next)
	h = hlog.UserAgentHandler("user_agent")(h)
	h = hlog.RemoteAddrHandler("remote_addr")(h)
	return hlog.NewHandler(logger.Get())(h)
}

// Close ends open streams. In-flight HTTP requests are left to
// http.Server.Shutdown.
func (s *Server) Close() {
	s.closeOnce.Do(func() { close(s.done) })
}
