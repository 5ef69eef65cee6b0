package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/nidohq/nido/internal/api/service"
	"github.com/nidohq/nido/internal/api/store"
	"github.com/nidohq/nido/pkg/httpx"
	"github.com/nidohq/nido/pkg/jwtx"
	"github.com/nidohq/nido/pkg/slogx"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	verifier     jwtx.Verifier
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger
	secureCookie bool
	sessionTTL   time.Duration

	store          store.Store
	AuthService    *service.AuthService
	ResetService   *service.ResetService
	ListingService *service.ListingService
	UserService    *service.UserService
}

func NewRouter(
	verifier jwtx.Verifier,
	buildVersion string,
	st store.Store,
	logger *slog.Logger,
	secureCookie bool,
	sessionTTL time.Duration,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		verifier:     verifier,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
		secureCookie: secureCookie,
		sessionTTL:   sessionTTL,
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerPasswordReset()
	r.registerListings()
	r.registerUsers()
	r.registerSystem()
}

// ServeHTTP implements http.Handler for Router and applies the global
// middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

// session guards a route: no cookie means 401, an unusable token means 403.
func (r *Router) session() httpx.Middleware {
	return httpx.SessionMiddleware(r.verifier)
}

func (r *Router) registerAuth() {
	signUp := &SignUpHandler{AuthService: r.AuthService}
	signIn := &SignInHandler{
		AuthService:  r.AuthService,
		SessionTTL:   r.sessionTTL,
		SecureCookie: r.secureCookie,
	}
	google := &GoogleSignInHandler{
		AuthService:  r.AuthService,
		SessionTTL:   r.sessionTTL,
		SecureCookie: r.secureCookie,
	}
	signOut := &SignOutHandler{SecureCookie: r.secureCookie}

	r.Mux.Handle("POST /v1/auth/signup",
		httpx.Chain(signUp, httpx.RateLimitByIP(httpx.StrictLimit)),
	)
	r.Mux.Handle("POST /v1/auth/signin",
		httpx.Chain(signIn, httpx.RateLimitByIP(httpx.StrictLimit)),
	)
	r.Mux.Handle("POST /v1/auth/google",
		httpx.Chain(google, httpx.RateLimitByIP(httpx.StrictLimit)),
	)
	r.Mux.Handle("POST /v1/auth/signout",
		httpx.Chain(signOut, httpx.RateLimitByIP(httpx.ModerateLimit)),
	)
}

func (r *Router) registerPasswordReset() {
	forgot := &ForgotPasswordHandler{ResetService: r.ResetService}
	reset := &ResetPasswordHandler{ResetService: r.ResetService}
	otp := &RequestOTPHandler{ResetService: r.ResetService}
	otpReset := &ResetPasswordOTPHandler{ResetService: r.ResetService}

	// All recovery endpoints sit behind the strict profile: they either
	// send mail or probe secrets.
	r.Mux.Handle("POST /v1/auth/forgot-password",
		httpx.Chain(forgot, httpx.RateLimitByIP(httpx.StrictLimit)),
	)
	r.Mux.Handle("POST /v1/auth/reset-password",
		httpx.Chain(reset, httpx.RateLimitByIP(httpx.StrictLimit)),
	)
	r.Mux.Handle("POST /v1/auth/otp",
		httpx.Chain(otp, httpx.RateLimitByIP(httpx.StrictLimit)),
	)
	r.Mux.Handle("POST /v1/auth/reset-password/otp",
		httpx.Chain(otpReset, httpx.RateLimitByIP(httpx.StrictLimit)),
	)
}

func (r *Router) registerListings() {
	h := &ListingsHandler{ListingService: r.ListingService}

	// Reads are public; mutations require a session. Ownership is checked
	// in the service, not here.
	r.Mux.Handle("GET /v1/listings",
		httpx.Chain(http.HandlerFunc(h.HandleList),
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)
	r.Mux.Handle("GET /v1/listings/{id}",
		httpx.Chain(http.HandlerFunc(h.HandleGet),
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)
	r.Mux.Handle("POST /v1/listings",
		httpx.Chain(http.HandlerFunc(h.HandleCreate),
			r.session(),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("PUT /v1/listings/{id}",
		httpx.Chain(http.HandlerFunc(h.HandleUpdate),
			r.session(),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("DELETE /v1/listings/{id}",
		httpx.Chain(http.HandlerFunc(h.HandleDelete),
			r.session(),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerUsers() {
	h := &MeHandler{UserService: r.UserService}

	r.Mux.Handle("GET /v1/me",
		httpx.Chain(http.HandlerFunc(h.HandleGet),
			r.session(),
			httpx.RateLimitByUser(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("PUT /v1/me",
		httpx.Chain(http.HandlerFunc(h.HandleUpdate),
			r.session(),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
}
