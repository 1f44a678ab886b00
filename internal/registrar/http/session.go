package http

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/synapsekit/registrar/internal/registrar/service"
)

const sessionCookieName = "registrar_admin"

type adminUserKey struct{}

// adminUsername returns the authenticated admin from the request context, or
// "" outside a RequireAdmin-protected handler.
func adminUsername(ctx context.Context) string {
	username, _ := ctx.Value(adminUserKey{}).(string)
	return username
}

// sessionManager wraps the session service with the cookie mechanics shared
// by the login handler and the admin middleware.
type sessionManager struct {
	svc    *service.SessionService
	secure bool
}

func (sm *sessionManager) set(w http.ResponseWriter, token string, expiresAt time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   sm.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (sm *sessionManager) clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   sm.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// authenticate returns the admin username for the request's session cookie,
// or "" when there is no valid session.
func (sm *sessionManager) authenticate(r *http.Request) string {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil {
		return ""
	}
	username, _, err := sm.svc.VerifyAdmin(cookie.Value)
	if err != nil {
		return ""
	}
	return username
}

// RequireAdmin redirects unauthenticated requests to the login page, carrying
// the original URL so the admin lands back where they were heading. Sessions
// past the midpoint of their lifetime are silently renewed.
func (sm *sessionManager) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(sessionCookieName)
		if err != nil {
			sm.redirectToLogin(w, r)
			return
		}

		username, remaining, err := sm.svc.VerifyAdmin(cookie.Value)
		if err != nil {
			sm.clear(w)
			sm.redirectToLogin(w, r)
			return
		}

		if remaining < sm.svc.TTL/2 {
			if token, expiresAt, err := sm.svc.IssueAdmin(username); err == nil {
				sm.set(w, token, expiresAt)
			}
		}

		ctx := context.WithValue(r.Context(), adminUserKey{}, username)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (sm *sessionManager) redirectToLogin(w http.ResponseWriter, r *http.Request) {
	target := "/admin/login"
	if r.Method == http.MethodGet {
		target += "?next=" + url.QueryEscape(r.URL.RequestURI())
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// sanitizeNext restricts post-login redirects to local paths so the login
// form cannot be used as an open redirector.
func sanitizeNext(next string) string {
	if next == "" ||
		!strings.HasPrefix(next, "/") ||
		strings.HasPrefix(next, "//") ||
		strings.ContainsAny(next, "\\\r\n") {
		return "/admin/tokens"
	}
	return next
}
