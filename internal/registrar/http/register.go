package http

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/synapsekit/registrar/internal/registrar/service"
	"github.com/synapsekit/registrar/pkg/slogx"
)

// RegisterHandler serves the invitation-gated signup form.
type RegisterHandler struct {
	Registration *service.RegistrationService
	Sessions     *service.SessionService
	SiteName     string
}

type registerPage struct {
	basePage
	Token             string
	Username          string
	Error             string
	MinPasswordLength int
}

func (h *RegisterHandler) page(token, username, errMsg string) registerPage {
	return registerPage{
		basePage:          basePage{SiteName: h.SiteName, Title: "Register"},
		Token:             token,
		Username:          username,
		Error:             errMsg,
		MinPasswordLength: h.Registration.Policy.MinLength,
	}
}

// HandleGet shows the registration form when the invitation token checks out,
// or a full-page error when it does not.
func (h *RegisterHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	token := r.URL.Query().Get("token")

	if err := h.Registration.CheckToken(ctx, token); err != nil {
		switch {
		case errors.Is(err, service.ErrTokenAlreadyUsed):
			renderError(w, r, http.StatusForbidden, h.SiteName,
				"Invitation already used",
				"This invitation link has already been used. Ask for a new one.")
		case errors.Is(err, service.ErrInvalidToken):
			renderError(w, r, http.StatusNotFound, h.SiteName,
				"Invalid invitation",
				"This invitation link is not valid. Check the link or ask for a new one.")
		default:
			slogx.FromContext(ctx).Error("failed to check token", "error", err)
			renderError(w, r, http.StatusInternalServerError, h.SiteName,
				"Something went wrong",
				"Please try again in a moment.")
		}
		return
	}

	render(w, r, http.StatusOK, "register", h.page(token, "", ""))
}

// HandlePost runs the registration workflow and redirects to the success page.
func (h *RegisterHandler) HandlePost(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	if err := r.ParseForm(); err != nil {
		renderError(w, r, http.StatusBadRequest, h.SiteName,
			"Invalid request", "The submitted form could not be read.")
		return
	}

	req := service.RegisterRequest{
		Token:           r.FormValue("token"),
		Username:        r.FormValue("username"),
		Password:        r.FormValue("password"),
		ConfirmPassword: r.FormValue("confirm_password"),
	}

	_, err := h.Registration.Register(ctx, req)
	if err != nil {
		var violation *service.PolicyViolationError

		switch {
		case errors.Is(err, service.ErrInvalidToken):
			renderError(w, r, http.StatusNotFound, h.SiteName,
				"Invalid invitation",
				"This invitation link is not valid. Check the link or ask for a new one.")
		case errors.Is(err, service.ErrTokenAlreadyUsed):
			renderError(w, r, http.StatusForbidden, h.SiteName,
				"Invitation already used",
				"This invitation link has already been used. Ask for a new one.")
		case errors.As(err, &violation):
			render(w, r, http.StatusBadRequest, "register",
				h.page(req.Token, req.Username, violation.Reason))
		case errors.Is(err, service.ErrUsernameTaken):
			render(w, r, http.StatusConflict, "register",
				h.page(req.Token, req.Username, "That username is already taken. Pick another one."))
		case errors.Is(err, service.ErrInternalInconsistency):
			renderError(w, r, http.StatusConflict, h.SiteName,
				"Invitation already used",
				"Someone else used this invitation at the same moment. Contact the administrator.")
		default:
			log.Error("registration failed", "error", err)
			render(w, r, http.StatusInternalServerError, "register",
				h.page(req.Token, req.Username, "Account creation failed. Please try again."))
		}
		return
	}

	successToken, _, err := h.Sessions.IssueSuccess(req.Username)
	if err != nil {
		// The account exists and the token is consumed. Show the success page
		// inline rather than failing the whole flow over a cosmetic redirect.
		log.Error("failed to issue success token", "error", err)
		render(w, r, http.StatusOK, "success", successPage{
			basePage: basePage{SiteName: h.SiteName, Title: "Account created"},
			Username: req.Username,
		})
		return
	}

	http.Redirect(w, r,
		"/register/success?token="+url.QueryEscape(successToken),
		http.StatusSeeOther)
}

type successPage struct {
	basePage
	Username string
}

// HandleSuccess verifies the short-lived success token and shows the page.
// The token keeps the page private to the person who just registered without
// putting the username in the URL.
func (h *RegisterHandler) HandleSuccess(w http.ResponseWriter, r *http.Request) {
	username, err := h.Sessions.VerifySuccess(r.URL.Query().Get("token"))
	if err != nil {
		renderError(w, r, http.StatusForbidden, h.SiteName,
			"Page expired",
			"This confirmation page has expired.")
		return
	}

	render(w, r, http.StatusOK, "success", successPage{
		basePage: basePage{SiteName: h.SiteName, Title: "Account created"},
		Username: username,
	})
}
