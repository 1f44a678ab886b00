package http

import (
	"errors"
	"net/http"

	"github.com/synapsekit/registrar/internal/registrar/service"
	"github.com/synapsekit/registrar/pkg/slogx"
)

// AdminPasswordHandler is the admin change-password page.
type AdminPasswordHandler struct {
	Admins   *service.AdminService
	Policy   service.PasswordPolicy
	SiteName string
}

type passwordPage struct {
	basePage
	Error   string
	Success bool
}

func (h *AdminPasswordHandler) page(errMsg string, success bool) passwordPage {
	return passwordPage{
		basePage: basePage{SiteName: h.SiteName, Title: "Change password"},
		Error:    errMsg,
		Success:  success,
	}
}

func (h *AdminPasswordHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	render(w, r, http.StatusOK, "password", h.page("", false))
}

func (h *AdminPasswordHandler) HandlePost(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	username := adminUsername(ctx)

	if err := r.ParseForm(); err != nil {
		renderError(w, r, http.StatusBadRequest, h.SiteName,
			"Invalid request", "The submitted form could not be read.")
		return
	}

	current := r.FormValue("current_password")
	newPassword := r.FormValue("new_password")
	confirm := r.FormValue("confirm_password")

	if current == "" || newPassword == "" || confirm == "" {
		render(w, r, http.StatusBadRequest, "password",
			h.page("All fields are required.", false))
		return
	}
	if newPassword != confirm {
		render(w, r, http.StatusBadRequest, "password",
			h.page("New passwords do not match.", false))
		return
	}

	err := h.Admins.ChangePassword(ctx, username, current, newPassword, h.Policy)
	if err != nil {
		var violation *service.PolicyViolationError

		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			render(w, r, http.StatusUnauthorized, "password",
				h.page("Current password is incorrect.", false))
		case errors.As(err, &violation):
			render(w, r, http.StatusBadRequest, "password",
				h.page(violation.Reason, false))
		default:
			slogx.FromContext(ctx).Error("failed to change password", "error", err)
			renderError(w, r, http.StatusInternalServerError, h.SiteName,
				"Something went wrong", "Please try again in a moment.")
		}
		return
	}

	render(w, r, http.StatusOK, "password", h.page("", true))
}
