package http

import (
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/synapsekit/registrar/internal/registrar/service"
	"github.com/synapsekit/registrar/internal/registrar/store"
	"github.com/synapsekit/registrar/pkg/httpx"
	"github.com/synapsekit/registrar/pkg/slogx"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	siteName     string
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store    store.Store
	sessions *sessionManager

	TokenService        *service.TokenService
	AdminService        *service.AdminService
	RegistrationService *service.RegistrationService
	SessionService      *service.SessionService
}

func NewRouter(
	siteName, buildVersion string,
	secureCookies bool,
	st store.Store,
	sessions *service.SessionService,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:            http.NewServeMux(),
		siteName:       siteName,
		buildVersion:   buildVersion,
		startTime:      time.Now(),
		store:          st,
		sessions:       &sessionManager{svc: sessions, secure: secureCookies},
		SessionService: sessions,
		logger:         logger,
	}

	// Set default middleware chain
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerRegistration()
	r.registerAdmin()
	r.registerIndex()
	r.registerSystem()
}

// ServeHTTP implements http.Handler for Router and applies the global
// middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerRegistration() {
	h := &RegisterHandler{
		Registration: r.RegistrationService,
		Sessions:     r.SessionService,
		SiteName:     r.siteName,
	}

	// GET /register - lenient rate limit (just displays the form)
	r.Mux.Handle("GET /register",
		httpx.Chain(http.HandlerFunc(h.HandleGet),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)

	// POST /register - strict rate limit by IP (drives account creation)
	r.Mux.Handle("POST /register",
		httpx.Chain(http.HandlerFunc(h.HandlePost),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	r.Mux.Handle("GET /register/success",
		httpx.Chain(http.HandlerFunc(h.HandleSuccess),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
}

func (r *Router) registerAdmin() {
	login := &LoginHandler{
		Admins:   r.AdminService,
		Sessions: r.sessions,
		SiteName: r.siteName,
	}

	r.Mux.Handle("GET /admin/login",
		httpx.Chain(http.HandlerFunc(login.HandleGet),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)

	// POST /admin/login - strict rate limit by IP + username form field to
	// slow credential stuffing without letting one client lock everyone out.
	r.Mux.Handle("POST /admin/login",
		httpx.Chain(http.HandlerFunc(login.HandlePost),
			httpx.RateLimitByIPAndFormField(httpx.StrictLimit, "username"),
		),
	)

	r.Mux.Handle("GET /admin/logout", http.HandlerFunc(login.HandleLogout))

	tokens := &AdminTokensHandler{
		Tokens:   r.TokenService,
		SiteName: r.siteName,
	}

	r.Mux.Handle("GET /admin/tokens",
		httpx.Chain(http.HandlerFunc(tokens.HandleGet),
			r.sessions.RequireAdmin,
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("POST /admin/tokens",
		httpx.Chain(http.HandlerFunc(tokens.HandlePost),
			r.sessions.RequireAdmin,
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)

	password := &AdminPasswordHandler{
		Admins:   r.AdminService,
		Policy:   r.RegistrationService.Policy,
		SiteName: r.siteName,
	}

	r.Mux.Handle("GET /admin/password",
		httpx.Chain(http.HandlerFunc(password.HandleGet),
			r.sessions.RequireAdmin,
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("POST /admin/password",
		httpx.Chain(http.HandlerFunc(password.HandlePost),
			r.sessions.RequireAdmin,
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
}

func (r *Router) registerIndex() {
	// The bare root sends admins to the token list, invitees to the form,
	// and everyone else to the login page.
	r.Mux.Handle("GET /{$}", http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if r.sessions.authenticate(req) != "" {
			http.Redirect(w, req, "/admin/tokens", http.StatusSeeOther)
			return
		}
		if token := req.URL.Query().Get("token"); token != "" {
			http.Redirect(w, req, "/register?token="+url.QueryEscape(token), http.StatusSeeOther)
			return
		}
		http.Redirect(w, req, "/admin/login", http.StatusSeeOther)
	}))
}

func (r *Router) registerSystem() {
	// Health check endpoints - lenient rate limits (monitoring systems may
	// poll frequently)
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
