// Package api is the HTTP front of the pricing engine.
// It decodes and validates input, calls the engine and serializes the quote.
// It never computes discounts itself.
package api

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"discount-engine/core/engine"
	"discount-engine/core/market"
	"discount-engine/core/rules"
	"discount-engine/core/types"
	"discount-engine/internal/errors"
)

const maxBodyBytes = 1 << 20

// Options configures a Server. Zero values are usable.
type Options struct {
	Version string
	Logger  *zap.Logger

	// Registry and Markets describe the loaded rules for GET /rules. A nil
	// Markets reports the built-in market dispatch.
	Registry *rules.Registry
	Markets  *market.Table

	// DefaultMarket is applied to requests that name no market
	DefaultMarket types.Market

	// Metrics is the Prometheus registry; nil uses the default registry
	Metrics *prometheus.Registry
}

// Server is the API server
type Server struct {
	router   chi.Router
	engine   *engine.Engine
	opts     Options
	logger   *zap.Logger
	metrics  *Metrics
	validate *validator.Validate
}

// NewServer creates a server around eng
func NewServer(eng *engine.Engine, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.DefaultMarket == "" {
		opts.DefaultMarket = market.DefaultMarket
	}

	var (
		reg      prometheus.Registerer = prometheus.DefaultRegisterer
		gatherer prometheus.Gatherer   = prometheus.DefaultGatherer
	)
	if opts.Metrics != nil {
		reg, gatherer = opts.Metrics, opts.Metrics
	}

	s := &Server{
		engine:   eng,
		opts:     opts,
		logger:   opts.Logger,
		metrics:  NewMetrics("discount", reg),
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)

	r.Post("/quote", s.handleQuote)
	r.Get("/rules", s.handleRules)
	r.Get("/health", s.handleHealth)
	r.Get("/version", s.handleVersion)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.writeError(w, "NOT_FOUND", "no such endpoint", http.StatusNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		s.writeError(w, "METHOD_NOT_ALLOWED", "method not allowed", http.StatusMethodNotAllowed)
	})

	s.router = r
	return s
}

// handleQuote handles POST /quote
func (s *Server) handleQuote(w http.ResponseWriter, r *http.Request) {
	var req QuoteRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		s.reject(w, req.Market, "INVALID_JSON", err.Error())
		return
	}
	if err := s.validate.Struct(req); err != nil {
		s.reject(w, req.Market, "VALIDATION_ERROR", validationMessage(err))
		return
	}

	ctx, err := req.toContext(s.opts.DefaultMarket)
	if err != nil {
		s.reject(w, req.Market, string(errors.TypeInput), err.Error())
		return
	}

	q := s.engine.Quote(ctx)
	outcome := OutcomePriced
	if q.Halted {
		outcome = OutcomeHalted
	}
	priced := s.pricedMarket(ctx.Market)
	s.metrics.observe(priced.String(), outcome, q.DiscountTotal(), q.Capped)

	s.writeJSON(w, QuoteResponse{
		Quote:         q,
		QuoteID:       uuid.NewString(),
		InputHash:     computeInputHash(ctx),
		Market:        priced,
		EngineVersion: s.opts.Version,
	}, http.StatusOK)
}

// handleRules handles GET /rules
func (s *Server) handleRules(w http.ResponseWriter, r *http.Request) {
	resp := RulesResponse{
		Registered:    []string{},
		Markets:       map[string][]string{},
		DefaultMarket: s.opts.DefaultMarket,
		Policy:        s.engine.Policy(),
	}
	if s.opts.Registry != nil {
		resp.Registered = s.opts.Registry.Keys()
	}
	if s.opts.Markets != nil {
		for _, m := range s.opts.Markets.Markets() {
			resp.Markets[m.String()] = s.opts.Markets.Keys(m)
		}
		resp.DefaultMarket = s.opts.Markets.Fallback()
	} else {
		for _, m := range []types.Market{types.MarketKR, types.MarketGlobal} {
			resp.Markets[m.String()] = rules.Names(market.ForMarket(m))
		}
	}
	s.writeJSON(w, resp, http.StatusOK)
}

// handleHealth handles GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, HealthResponse{Status: "healthy", Version: s.opts.Version}, http.StatusOK)
}

// handleVersion handles GET /version
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, VersionResponse{Version: s.opts.Version}, http.StatusOK)
}

// pricedMarket returns the market whose rules apply to m. Metrics are
// labelled with it so unknown client input cannot add label values.
func (s *Server) pricedMarket(m types.Market) types.Market {
	if m == "" {
		m = s.opts.DefaultMarket
	}
	if s.opts.Markets != nil {
		return s.opts.Markets.Resolve(m)
	}
	if m.IsValid() {
		return m
	}
	return market.DefaultMarket
}

func (s *Server) reject(w http.ResponseWriter, rawMarket, code, message string) {
	m, _ := types.ParseMarket(rawMarket)
	s.metrics.observe(s.pricedMarket(m).String(), OutcomeRejected, 0, false)
	s.writeError(w, code, message, http.StatusBadRequest)
}

func (s *Server) writeJSON(w http.ResponseWriter, data interface{}, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Warn("failed to encode response", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, code, message string, status int) {
	s.writeJSON(w, ErrorResponse{Error: ErrorBody{Code: code, Message: message}}, status)
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if stderrors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

// computeInputHash digests the normalized context, so equivalent requests
// (e.g. "gold" and "GOLD") hash equally
func computeInputHash(ctx types.PricingContext) string {
	data, _ := json.Marshal(ctx)
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !stderrors.As(err, &verrs) || len(verrs) == 0 {
		return err.Error()
	}
	fe := verrs[0]
	return fe.Namespace() + " failed on " + fe.Tag()
}
