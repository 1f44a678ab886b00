package http

import (
	"errors"
	"net/http"

	"github.com/synapsekit/registrar/internal/registrar/service"
	"github.com/synapsekit/registrar/pkg/slogx"
)

// LoginHandler serves the admin login form and session lifecycle.
type LoginHandler struct {
	Admins   *service.AdminService
	Sessions *sessionManager
	SiteName string
}

type loginPage struct {
	basePage
	Username string
	Next     string
	Error    string
}

func (h *LoginHandler) page(username, next, errMsg string) loginPage {
	return loginPage{
		basePage: basePage{SiteName: h.SiteName, Title: "Admin login"},
		Username: username,
		Next:     next,
		Error:    errMsg,
	}
}

func (h *LoginHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	// Already signed in: skip the form.
	if h.Sessions.authenticate(r) != "" {
		http.Redirect(w, r, sanitizeNext(r.URL.Query().Get("next")), http.StatusSeeOther)
		return
	}

	render(w, r, http.StatusOK, "login", h.page("", r.URL.Query().Get("next"), ""))
}

func (h *LoginHandler) HandlePost(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := r.ParseForm(); err != nil {
		renderError(w, r, http.StatusBadRequest, h.SiteName,
			"Invalid request", "The submitted form could not be read.")
		return
	}

	username := r.FormValue("username")
	password := r.FormValue("password")
	next := r.FormValue("next")

	if username == "" || password == "" {
		render(w, r, http.StatusBadRequest, "login",
			h.page(username, next, "Username and password are required."))
		return
	}

	admin, err := h.Admins.Verify(ctx, username, password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			render(w, r, http.StatusUnauthorized, "login",
				h.page(username, next, "Invalid username or password."))
			return
		}
		slogx.FromContext(ctx).Error("admin login failed", "error", err)
		renderError(w, r, http.StatusInternalServerError, h.SiteName,
			"Something went wrong", "Please try again in a moment.")
		return
	}

	token, expiresAt, err := h.Sessions.svc.IssueAdmin(admin.Username)
	if err != nil {
		slogx.FromContext(ctx).Error("failed to issue session", "error", err)
		renderError(w, r, http.StatusInternalServerError, h.SiteName,
			"Something went wrong", "Please try again in a moment.")
		return
	}

	h.Sessions.set(w, token, expiresAt)
	http.Redirect(w, r, sanitizeNext(next), http.StatusSeeOther)
}

func (h *LoginHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	h.Sessions.clear(w)
	http.Redirect(w, r, "/admin/login", http.StatusSeeOther)
}
