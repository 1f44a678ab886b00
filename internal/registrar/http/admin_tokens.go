package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/synapsekit/registrar/internal/registrar/domain"
	"github.com/synapsekit/registrar/internal/registrar/service"
	"github.com/synapsekit/registrar/internal/registrar/store"
	"github.com/synapsekit/registrar/pkg/slogx"
)

// AdminTokensHandler is the invitation token management page.
type AdminTokensHandler struct {
	Tokens   *service.TokenService
	SiteName string
}

type tokensPage struct {
	basePage
	AdminUser     string
	Tokens        []domain.Token
	Stats         domain.TokenStats
	Message       string
	NewInviteLink string
}

func (h *AdminTokensHandler) renderList(
	w http.ResponseWriter,
	r *http.Request,
	status int,
	filter domain.TokenFilter,
	message, newInviteLink string,
) {
	ctx := r.Context()

	tokens, stats, err := h.Tokens.List(ctx, filter)
	if err != nil {
		slogx.FromContext(ctx).Error("failed to list tokens", "error", err)
		renderError(w, r, http.StatusInternalServerError, h.SiteName,
			"Something went wrong", "Could not load the token list.")
		return
	}

	render(w, r, status, "tokens", tokensPage{
		basePage:      basePage{SiteName: h.SiteName, Title: "Invitation tokens"},
		AdminUser:     adminUsername(ctx),
		Tokens:        tokens,
		Stats:         stats,
		Message:       message,
		NewInviteLink: newInviteLink,
	})
}

func (h *AdminTokensHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	filter := domain.ParseTokenFilter(r.URL.Query().Get("filter"))
	h.renderList(w, r, http.StatusOK, filter, "", "")
}

// HandlePost dispatches the page's form actions. Generate renders the new
// invite link inline because it is shown exactly once.
func (h *AdminTokensHandler) HandlePost(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := r.ParseForm(); err != nil {
		renderError(w, r, http.StatusBadRequest, h.SiteName,
			"Invalid request", "The submitted form could not be read.")
		return
	}

	switch action := r.FormValue("action"); action {
	case "generate":
		token, err := h.Tokens.Generate(ctx)
		if err != nil {
			slogx.FromContext(ctx).Error("failed to generate token", "error", err)
			h.renderList(w, r, http.StatusInternalServerError, domain.TokenFilterAll,
				"Failed to generate a token. Please try again.", "")
			return
		}
		h.renderList(w, r, http.StatusOK, domain.TokenFilterAll,
			"", h.Tokens.InviteLink(token.Value))

	case "delete":
		id, err := strconv.ParseInt(r.FormValue("token_id"), 10, 64)
		if err != nil {
			h.renderList(w, r, http.StatusBadRequest, domain.TokenFilterAll,
				"Invalid token id.", "")
			return
		}

		if err := h.Tokens.Delete(ctx, id); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				h.renderList(w, r, http.StatusNotFound, domain.TokenFilterAll,
					"Token not found. It may already be deleted.", "")
				return
			}
			slogx.FromContext(ctx).Error("failed to delete token", "error", err)
			h.renderList(w, r, http.StatusInternalServerError, domain.TokenFilterAll,
				"Failed to delete the token. Please try again.", "")
			return
		}

		// Redirect so a refresh does not resubmit the delete.
		http.Redirect(w, r, "/admin/tokens", http.StatusSeeOther)

	default:
		h.renderList(w, r, http.StatusBadRequest, domain.TokenFilterAll,
			"Unknown action.", "")
	}
}
