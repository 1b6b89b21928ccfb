package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/stockguard/auth/internal/auth/domain"
	"github.com/stockguard/auth/internal/auth/service"
	"github.com/stockguard/auth/internal/auth/store"
	"github.com/stockguard/auth/pkg/httpx"
	"github.com/stockguard/auth/pkg/jwtx"
	"github.com/stockguard/auth/pkg/slogx"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	verifier     jwtx.Verifier
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store store.Store
	redis *redis.Client

	Credentials *service.CredentialService
	Sessions    *service.SessionService
	Otp         *service.OtpService
	Admin       *service.AdminService
}

func NewRouter(
	verifier jwtx.Verifier,
	buildVersion string,
	st store.Store,
	rdb *redis.Client,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		verifier:     verifier,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		redis:        rdb,
		logger:       logger,
	}

	// Set default middleware chain
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerOtp()
	r.registerTokens()
	r.registerAccount()
	r.registerAdmin()
	r.registerSystem()
}

// ServeHTTP implements http.Handler for Router and applies the global
// middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerAuth() {
	h := &CredentialsHandler{Credentials: r.Credentials}

	// Registration and login are the brute-force surface; strict limits.
	r.Mux.Handle("POST /v1/auth/register",
		httpx.Chain(http.HandlerFunc(h.HandleRegister),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("POST /v1/auth/login",
		httpx.Chain(http.HandlerFunc(h.HandleLogin),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
}

func (r *Router) registerOtp() {
	h := &OtpHandler{Otp: r.Otp, Credentials: r.Credentials}

	// Send is strictly limited: every hit can cost an SMS.
	r.Mux.Handle("POST /v1/auth/otp/send",
		httpx.Chain(http.HandlerFunc(h.HandleSend),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	// Verify is the code brute-force surface.
	r.Mux.Handle("POST /v1/auth/otp/verify",
		httpx.Chain(http.HandlerFunc(h.HandleVerify),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
}

func (r *Router) registerTokens() {
	h := &TokensHandler{Sessions: r.Sessions}

	r.Mux.Handle("POST /v1/auth/token/refresh",
		httpx.Chain(http.HandlerFunc(h.HandleRefresh),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("POST /v1/auth/token/revoke",
		httpx.Chain(http.HandlerFunc(h.HandleRevoke),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)

	r.Mux.Handle("POST /v1/account/logout-all",
		httpx.Chain(http.HandlerFunc(h.HandleLogoutAll),
			httpx.AuthnMiddleware(r.verifier),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerAccount() {
	h := &CredentialsHandler{Credentials: r.Credentials}

	r.Mux.Handle("GET /v1/account",
		httpx.Chain(http.HandlerFunc(h.HandleGetProfile),
			httpx.AuthnMiddleware(r.verifier),
			httpx.RateLimitByUser(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("PATCH /v1/account",
		httpx.Chain(http.HandlerFunc(h.HandleUpdateProfile),
			httpx.AuthnMiddleware(r.verifier),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("POST /v1/account/password",
		httpx.Chain(http.HandlerFunc(h.HandleChangePassword),
			httpx.AuthnMiddleware(r.verifier),
			httpx.RateLimitByUser(httpx.StrictLimit),
		),
	)
}

func (r *Router) registerAdmin() {
	h := &AdminHandler{Admin: r.Admin}

	secured := func(next http.HandlerFunc) http.Handler {
		return httpx.Chain(next,
			httpx.AuthnMiddleware(r.verifier),
			httpx.RequireRole(string(domain.RoleAdmin)),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		)
	}

	r.Mux.Handle("GET /v1/admin/accounts", secured(h.HandleList))
	r.Mux.Handle("POST /v1/admin/accounts/{id}/unlock", secured(h.HandleUnlock))
	r.Mux.Handle("POST /v1/admin/accounts/{id}/enable", secured(h.HandleEnable))
	r.Mux.Handle("POST /v1/admin/accounts/{id}/disable", secured(h.HandleDisable))
	r.Mux.Handle("POST /v1/admin/accounts/{id}/reset-password", secured(h.HandleResetPassword))
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store, r.redis),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
}
