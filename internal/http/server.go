package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"atlas/internal/ai"
	"atlas/internal/core"
	"atlas/internal/log"
	"atlas/internal/middleware/ratelimit"
	"atlas/internal/middleware/security"
	"atlas/internal/middleware/trace"
	"atlas/internal/services"
	"atlas/internal/storage"
)

type (
	OrderService interface {
		Create(ctx context.Context, o core.Order) (core.Order, error)
		Get(ctx context.Context, id string) (core.Order, error)
		List(ctx context.Context, f storage.OrderFilter) ([]core.Order, error)
		Update(ctx context.Context, id string, patch services.OrderPatch) (core.Order, error)
		Delete(ctx context.Context, id string) error
	}

	CapitalService interface {
		Create(ctx context.Context, e core.CapitalEntry) (core.CapitalEntry, error)
		Get(ctx context.Context, id string) (core.CapitalEntry, error)
		List(ctx context.Context, f storage.CapitalFilter) ([]core.CapitalEntry, error)
		Update(ctx context.Context, id string, patch services.CapitalPatch) (core.CapitalEntry, error)
		Delete(ctx context.Context, id string) error
	}

	UserService interface {
		Create(ctx context.Context, u core.User) (core.User, error)
		Get(ctx context.Context, id string) (core.User, error)
		List(ctx context.Context, f storage.UserFilter) ([]core.User, error)
		Update(ctx context.Context, id string, patch services.UserPatch) (core.User, error)
		Delete(ctx context.Context, id string) error
	}

	DashboardService interface {
		Overview(ctx context.Context) (core.Overview, error)
		CapitalSummary(ctx context.Context) (core.CapitalSummary, error)
		RevenueChart(ctx context.Context) ([]byte, error)
		GenerateSummary(ctx context.Context, period services.SummaryPeriod) (ai.Response, error)
		SummaryStatus() ai.Status
	}
)

// Dependencies are the collaborators the API is served from.
type Dependencies struct {
	Orders    OrderService
	Capital   CapitalService
	Users     UserService
	Dashboard DashboardService
	// Ready reports whether backing services are reachable. Nil means always ready.
	Ready              func(ctx context.Context) error
	Logger             *log.Logger
	RateLimitPerMinute int
}

type Server struct {
	http.Server
	orders    OrderService
	capital   CapitalService
	users     UserService
	dashboard DashboardService
	ready     func(ctx context.Context) error

	logger   *log.Logger
	records  *log.StructuredLogger
	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware

	shutdownOnce sync.Once
}

func NewServer(addr string, deps Dependencies) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	limitCfg := ratelimit.DefaultConfig()
	if deps.RateLimitPerMinute > 0 {
		limitCfg.RequestsPerMinute = deps.RateLimitPerMinute
	}
	detector := security.NewDetector()

	s := &Server{
		orders:    deps.Orders,
		capital:   deps.Capital,
		users:     deps.Users,
		dashboard: deps.Dashboard,
		ready:     deps.Ready,
		logger:    logger,
		records:   log.NewStructuredLogger(logger),
		limiter:   ratelimit.NewLimiter(limitCfg),
		detector:  detector,
		tracer:    trace.NewMiddleware(logger, detector.ExtractClientIP),
	}

	mux := http.NewServeMux()
	s.routes(mux)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.chain(mux),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

func (s *Server) routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("GET /api/orders", s.handleListOrders)
	mux.HandleFunc("POST /api/orders", s.handleCreateOrder)
	mux.HandleFunc("GET /api/orders/{id}", s.handleGetOrder)
	mux.HandleFunc("PUT /api/orders/{id}", s.handleReplaceOrder)
	mux.HandleFunc("PATCH /api/orders/{id}", s.handlePatchOrder)
	mux.HandleFunc("DELETE /api/orders/{id}", s.handleDeleteOrder)

	mux.HandleFunc("GET /api/capital", s.handleListCapital)
	mux.HandleFunc("POST /api/capital", s.handleCreateCapital)
	mux.HandleFunc("GET /api/capital/summary", s.handleCapitalSummary)
	mux.HandleFunc("GET /api/capital/{id}", s.handleGetCapital)
	mux.HandleFunc("PUT /api/capital/{id}", s.handleReplaceCapital)
	mux.HandleFunc("PATCH /api/capital/{id}", s.handlePatchCapital)
	mux.HandleFunc("DELETE /api/capital/{id}", s.handleDeleteCapital)

	mux.HandleFunc("GET /api/users", s.handleListUsers)
	mux.HandleFunc("POST /api/users", s.handleCreateUser)
	mux.HandleFunc("GET /api/users/{id}", s.handleGetUser)
	mux.HandleFunc("PUT /api/users/{id}", s.handleReplaceUser)
	mux.HandleFunc("PATCH /api/users/{id}", s.handlePatchUser)
	mux.HandleFunc("DELETE /api/users/{id}", s.handleDeleteUser)

	mux.HandleFunc("GET /api/overview", s.handleOverview)
	mux.HandleFunc("GET /api/overview/chart.png", s.handleRevenueChart)
	mux.HandleFunc("POST /api/summary", s.handleGenerateSummary)
	mux.HandleFunc("GET /api/summary/status", s.handleSummaryStatus)
}

// chain wraps the mux outermost-first: tracing, security headers, probe
// detection, then rate limiting of mutating requests.
func (s *Server) chain(h http.Handler) http.Handler {
	onLimit := func(w http.ResponseWriter, r *http.Request) {
		ErrorResponse(http.StatusTooManyRequests, "rate limit exceeded").Write(w)
	}
	h = s.limiter.Middleware(s.detector.ExtractClientIP, onLimit)(h)
	h = s.detector.Middleware(h)
	h = security.Headers(security.DefaultHeadersConfig())(h)
	return s.tracer.Middleware(h)
}

// Shutdown stops background work and gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	NewResponse().JSON(map[string]string{"status": "ok"}).Write(w)
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.ready(ctx); err != nil {
			s.logger.WarnContext(ctx, "Readiness check failed", log.FieldError, err.Error())
			ErrorResponse(http.StatusServiceUnavailable, "not ready").Write(w)
			return
		}
	}
	NewResponse().JSON(map[string]string{"status": "ready"}).Write(w)
}
