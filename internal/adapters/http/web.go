package web

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"academy/internal/adapters/email"
	"academy/internal/adapters/http/middleware"
	"academy/internal/adapters/http/perf"
	exportStore "academy/internal/adapters/storage/export"
	sessionStore "academy/internal/adapters/storage/session"
	"academy/internal/application/orchestrators"
	"academy/internal/application/projections"
	"academy/internal/application/workflow"
	"academy/internal/domain/operator"
)

// AcademyAPI is every academy backend call the console makes.
type AcademyAPI interface {
	orchestrators.AuthAPI
	orchestrators.RosterAPI
	orchestrators.MarkAPI
	orchestrators.PaymentAPI
	orchestrators.ExportAPI
	projections.HistoryAPI
}

// Pinger reports storage health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Services holds every dependency of the HTTP layer.
type Services struct {
	API        AcademyAPI
	Sessions   sessionStore.Store
	Deliveries exportStore.Store
	Screens    *workflow.Registry
	Email      email.Sender
	Validate   *validator.Validate
	Collector  *perf.Collector
	DB         Pinger

	Now        func() time.Time
	Location   *time.Location
	SessionTTL time.Duration
}

// Options configures the middleware stack.
type Options struct {
	CSRFKey        []byte
	TrustedOrigins []string
	Production     bool
	SlowRequest    time.Duration
}

// Global services instance (set by NewMux)
var services *Services

// RateLimitPerSecond controls the per-IP rate limit. Tests can increase this.
var RateLimitPerSecond = 20

// NewMux wires HTTP handlers for the console. The returned stop func halts
// background middleware work.
func NewMux(s *Services, opts Options) (http.Handler, func()) {
	if s.Now == nil {
		s.Now = time.Now
	}
	if s.Validate == nil {
		s.Validate = validator.New()
	}
	services = s
	middleware.SecureCookies = opts.Production

	mux := http.NewServeMux()
	mux.Handle("GET /static/", http.FileServerFS(staticFS))
	registerRoutes(mux)

	limiter := middleware.NewRateLimiter(RateLimitPerSecond, time.Second)
	stop := limiter.StartSweeper()

	// Request path: RequestID -> Timing -> RateLimit -> Auth -> CSRF -> SecurityHeaders -> mux
	return middleware.Chain(mux,
		middleware.SecurityHeaders,
		middleware.CSRF(opts.CSRFKey, opts.TrustedOrigins),
		middleware.Auth(s.Sessions, discardScreens(s.Screens)),
		middleware.RateLimit(limiter),
		middleware.Timing(s.Collector, opts.SlowRequest),
		middleware.RequestID,
	), stop
}

// discardScreens drops the screens of a session the store no longer knows.
func discardScreens(screens *workflow.Registry) middleware.SessionGone {
	if screens == nil {
		return nil
	}
	return func(sessionID string) {
		if n := screens.Discard(sessionID); n > 0 {
			slog.Info("screens_discarded", "reason", "session_gone", "count", n)
		}
	}
}

// registerRoutes maps every console route.
func registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /{$}", handleHome)
	mux.HandleFunc("GET /login", handleLoginForm)
	mux.HandleFunc("POST /login", handleLogin)
	mux.HandleFunc("POST /logout", handleLogout)

	authed := func(h http.HandlerFunc) http.Handler { return middleware.RequireAuth(h) }
	mux.Handle("GET /dashboard", authed(handleDashboard))
	mux.Handle("GET /help", authed(handleHelp))
	mux.Handle("GET /help/{topic}", authed(handleHelp))

	mux.Handle("GET /attendance/{kind}", authed(handleAttendancePage))
	mux.Handle("POST /attendance/{kind}/toggle", authed(handleToggle))
	mux.Handle("POST /attendance/{kind}/submit", authed(handleSubmit))
	mux.Handle("POST /attendance/{kind}/center", authed(handleSelectCenter))
	mux.Handle("POST /attendance/{kind}/reload", authed(handleReload))
	mux.Handle("POST /attendance/{kind}/payment/open", authed(handleOpenPayment))
	mux.Handle("POST /attendance/{kind}/payment/cancel", authed(handleCancelPayment))
	mux.Handle("POST /attendance/{kind}/payment", authed(handleSubmitPayment))

	mux.Handle("GET /history/{kind}", authed(handleHistory))
	mux.Handle("GET /history/{kind}/export", authed(handleExport))
	mux.Handle("POST /history/{kind}/email", authed(handleEmailExport))

	mux.Handle("GET /api/admin/perf", middleware.RequireRole(operator.RoleCEO)(http.HandlerFunc(handlePerf)))
}
