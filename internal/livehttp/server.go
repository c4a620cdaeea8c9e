// Package livehttp serves the game over a loopback HTTP API so scripts and a
// browser build of the frontend can drive the same session as the desktop UI.
package livehttp

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/MJE43/roulette-desktop/internal/chart"
	"github.com/MJE43/roulette-desktop/internal/engine"
	"github.com/MJE43/roulette-desktop/internal/roulette"
	"github.com/MJE43/roulette-desktop/internal/spinlog"
)

const (
	DefaultPort = 17888
	TokenHeader = "X-Game-Token"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Game is the engine surface the API drives.
type Game interface {
	State() engine.Snapshot
	PlaceBet(bet roulette.Bet) (engine.Snapshot, error)
	Spin() (engine.Snapshot, error)
	UpdatePanel(u engine.PanelUpdate) (engine.Snapshot, error)
	RunSimulation(rounds int) (engine.SimulationResult, error)
	Reset() (engine.Snapshot, error)
}

// Ledger lists recorded spins.
type Ledger interface {
	ListSpins(sessionID string, page, perPage int) (*spinlog.SpinsPage, error)
	Sessions() ([]spinlog.SessionSummary, error)
}

type Options struct {
	Port  int
	Token string // empty disables the token check

	Game    Game
	Ledger  Ledger               // optional
	Flusher interface{ Flush() } // flushed before ledger reads
	Metrics http.Handler         // optional
	Chart   chart.Options
	Logger  *zap.Logger
}

// Server runs the local HTTP API.
type Server struct {
	game    Game
	ledger  Ledger
	flusher interface{ Flush() }
	metrics http.Handler
	chart   chart.Options
	token   string
	addr    string
	log     *zap.Logger

	httpServer   *http.Server
	writeTimeout time.Duration
	readTimeout  time.Duration
	started      time.Time
}

// New creates a server bound to loopback at the given port.
func New(opts Options) *Server {
	if opts.Port <= 0 {
		opts.Port = DefaultPort
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Server{
		game:         opts.Game,
		ledger:       opts.Ledger,
		flusher:      opts.Flusher,
		metrics:      opts.Metrics,
		chart:        opts.Chart,
		token:        opts.Token,
		addr:         fmt.Sprintf("127.0.0.1:%d", opts.Port),
		log:          opts.Logger.Named("livehttp"),
		writeTimeout: 10 * time.Second,
		readTimeout:  10 * time.Second,
		started:      time.Now(),
	}
}

// Addr is the listen address.
func (s *Server) Addr() string { return s.addr }

// Routes builds the router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(s.recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	// the Wails dev server and a plain browser build call the API cross-origin
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"http://localhost:*", "http://127.0.0.1:*", "wails://*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", TokenHeader},
		MaxAge:         60 * 15,
	}))

	r.Get("/health", s.handleHealth)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(s.requireToken)

		r.Get("/state", s.handleState)
		r.Post("/panel", s.handlePanel)
		r.Post("/bet", s.handleBet)
		r.Post("/spin", s.handleSpin)
		r.Post("/simulate", s.handleSimulate)
		r.Post("/reset", s.handleReset)

		r.Get("/chart", s.handleChartHTML)
		r.Get("/chart.svg", s.handleChartSVG)

		r.Get("/spins", s.handleSpins)
		r.Get("/sessions", s.handleSessions)
		r.Get("/verify", s.handleVerify)
		r.Get("/pockets", s.handlePockets)
	})

	return r
}

// Start begins listening in a goroutine. It returns once the socket is bound.
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:         s.addr,
		Handler:      s.Routes(),
		ReadTimeout:  s.readTimeout,
		WriteTimeout: s.writeTimeout,
	}

	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	s.log.Info("listening", zap.String("addr", s.addr), zap.Bool("token", s.token != ""))
	go func() {
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("serve", zap.Error(err))
		}
	}()
	return nil
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.token != "" && r.Header.Get(TokenHeader) != s.token {
			s.writeError(w, r, NewError(ErrTypeUnauthorized, "missing or invalid "+TokenHeader).Build())
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("took", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return NewError(ErrTypeInvalidParams, "invalid JSON body").
			WithContext("cause", err.Error()).
			Build()
	}
	return nil
}

func qInt(r *http.Request, key string, def int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
